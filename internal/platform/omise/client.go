package omise

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	cfgpkg "github.com/autobot/backoffice/pkg/config"
	"github.com/autobot/backoffice/pkg/types"
)

// ChargeRequest describes a card charge against a stored customer/card pair.
// Amount is in whole currency units; the wire format uses the smallest unit.
type ChargeRequest struct {
	Amount        int64
	Currency      string
	CustomerToken string
	CardToken     string
	Description   string
	// IdempotencyKey makes a retried request safe; the gateway returns the
	// original charge instead of creating a second one.
	IdempotencyKey string
}

type ChargeResult struct {
	ID             string
	Status         types.ChargeStatus
	FailureMessage string
}

// Charger is the payment gateway contract the billing engine depends on.
type Charger interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// Client talks to the Omise REST API. Only the charge operation is needed by
// the billing cycle; card/customer management lives in the customer portal.
type Client struct {
	baseURL   string
	secretKey string
	http      *http.Client
	log       *zap.SugaredLogger
}

func NewClient(cfg *cfgpkg.Config, log *zap.SugaredLogger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(cfg.Omise.BaseURL, "/"),
		secretKey: cfg.Omise.SecretKey,
		http:      &http.Client{Timeout: cfg.Omise.RequestTimeout},
		log:       log,
	}
}

type chargePayload struct {
	Object         string `json:"object"`
	ID             string `json:"id"`
	Status         string `json:"status"`
	Paid           bool   `json:"paid"`
	FailureCode    string `json:"failure_code"`
	FailureMessage string `json:"failure_message"`
	// Error fields, set when object == "error"
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Charge creates a card charge. A transport-level failure is retried once
// with the same idempotency key; a gateway-level decline is returned as a
// failed ChargeResult, not an error.
func (c *Client) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.Amount*100, 10))
	form.Set("currency", req.Currency)
	form.Set("customer", req.CustomerToken)
	if req.CardToken != "" {
		form.Set("card", req.CardToken)
	}
	form.Set("description", req.Description)

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		payload, err := c.post(ctx, "/charges", form, req.IdempotencyKey)
		if err != nil {
			lastErr = err
			c.log.Warnw("omise charge attempt failed", "attempt", attempt+1, "err", err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if payload.Object == "error" {
			// API-level rejection: not retryable, surface as failed charge.
			return &ChargeResult{
				Status:         types.ChargeStatusFailed,
				FailureMessage: fmt.Sprintf("%s: %s", payload.Code, payload.Message),
			}, nil
		}
		return &ChargeResult{
			ID:             payload.ID,
			Status:         types.ChargeStatus(payload.Status),
			FailureMessage: payload.FailureMessage,
		}, nil
	}
	return nil, fmt.Errorf("omise charge request failed: %w", lastErr)
}

func (c *Client) post(ctx context.Context, path string, form url.Values, idempotencyKey string) (*chargePayload, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth(c.secretKey, "")
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if idempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var payload chargePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode response (http %d): %w", resp.StatusCode, err)
	}
	return &payload, nil
}
