package omise

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cfgpkg "github.com/autobot/backoffice/pkg/config"
	"github.com/autobot/backoffice/pkg/types"
)

func testClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	cfg := &cfgpkg.Config{}
	cfg.Omise.BaseURL = srv.URL
	cfg.Omise.SecretKey = "skey_test_123"
	cfg.Omise.RequestTimeout = 5 * time.Second
	return NewClient(cfg, zap.NewNop().Sugar())
}

func TestClient_Charge_SendsSmallestCurrencyUnit(t *testing.T) {
	var gotForm map[string]string
	var gotUser, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/charges", r.URL.Path)
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"amount":   r.PostForm.Get("amount"),
			"currency": r.PostForm.Get("currency"),
			"customer": r.PostForm.Get("customer"),
			"card":     r.PostForm.Get("card"),
		}
		gotUser, _, _ = r.BasicAuth()
		gotKey = r.Header.Get("Idempotency-Key")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"charge","id":"chrg_1","status":"successful","paid":true}`))
	}))
	defer srv.Close()

	res, err := testClient(t, srv).Charge(context.Background(), ChargeRequest{
		Amount:         299,
		Currency:       "THB",
		CustomerToken:  "cust_1",
		CardToken:      "card_1",
		IdempotencyKey: "INV-20260131-00007-3",
	})
	require.NoError(t, err)
	require.Equal(t, "chrg_1", res.ID)
	require.Equal(t, types.ChargeStatusSuccessful, res.Status)

	require.Equal(t, "29900", gotForm["amount"])
	require.Equal(t, "THB", gotForm["currency"])
	require.Equal(t, "cust_1", gotForm["customer"])
	require.Equal(t, "card_1", gotForm["card"])
	require.Equal(t, "skey_test_123", gotUser)
	require.Equal(t, "INV-20260131-00007-3", gotKey)
}

func TestClient_Charge_APIErrorIsFailedResultNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"object":"error","code":"insufficient_fund","message":"balance is insufficient"}`))
	}))
	defer srv.Close()

	res, err := testClient(t, srv).Charge(context.Background(), ChargeRequest{Amount: 299, Currency: "THB", CustomerToken: "cust_1"})
	require.NoError(t, err)
	require.Equal(t, types.ChargeStatusFailed, res.Status)
	require.Contains(t, res.FailureMessage, "insufficient_fund")
}

func TestClient_Charge_RetriesTransportFailureWithSameKey(t *testing.T) {
	attempts := 0
	var keys []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		keys = append(keys, r.Header.Get("Idempotency-Key"))
		if attempts == 1 {
			// Drop the connection mid-response.
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"charge","id":"chrg_2","status":"pending"}`))
	}))
	defer srv.Close()

	res, err := testClient(t, srv).Charge(context.Background(), ChargeRequest{
		Amount:         100,
		Currency:       "THB",
		CustomerToken:  "cust_1",
		IdempotencyKey: "INV-x",
	})
	require.NoError(t, err)
	require.Equal(t, "chrg_2", res.ID)
	require.Equal(t, types.ChargeStatusPending, res.Status)
	require.Equal(t, 2, attempts)
	require.Equal(t, []string{"INV-x", "INV-x"}, keys)
}

func TestClient_Charge_GivesUpAfterSecondTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj := w.(http.Hijacker)
		conn, _, _ := hj.Hijack()
		conn.Close()
	}))
	defer srv.Close()

	_, err := testClient(t, srv).Charge(context.Background(), ChargeRequest{Amount: 100, Currency: "THB", CustomerToken: "cust_1"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "omise charge request failed")
}
