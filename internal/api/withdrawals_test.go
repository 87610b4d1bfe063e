package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func TestWithdrawalHistoryParams_Query(t *testing.T) {
	tests := []struct {
		name   string
		params WithdrawalHistoryParams
		want   string
	}{
		{"defaults", WithdrawalHistoryParams{}, "limit=100"},
		{"clamped", WithdrawalHistoryParams{Limit: 500}, "limit=100"},
		{"small page", WithdrawalHistoryParams{Limit: 20}, "limit=20"},
		{"ccy and before", WithdrawalHistoryParams{Ccy: "USDT", Before: int64Ptr(1700000000000)}, "before=1700000000000&ccy=USDT&limit=100"},
		{"after", WithdrawalHistoryParams{After: int64Ptr(1699999999999)}, "after=1699999999999&limit=100"},
		{"zero cursor kept", WithdrawalHistoryParams{After: int64Ptr(0)}, "after=0&limit=100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.params.Query().Encode())
		})
	}
}

func TestGetWithdrawalHistory(t *testing.T) {
	t.Run("decodes records in order", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, WithdrawalHistoryPath, r.URL.Path)
			assert.Equal(t, "USDT", r.URL.Query().Get("ccy"))
			assert.Equal(t, "1700000000000", r.URL.Query().Get("after"))
			w.Write([]byte(`{"code":"0","msg":"","data":[
				{"wdId":"2","ts":"1699999999000","ccy":"USDT","amt":"10.5","to":"TXabc"},
				{"wdId":"1","ts":"1699999998000","ccy":"USDT","amt":"1","to":"TXdef","extra":{"k":"v"}}
			]}`))
		}))
		defer server.Close()

		c, _ := newTestClient(server.URL)
		records, err := c.GetWithdrawalHistory(context.Background(), WithdrawalHistoryParams{
			Ccy:   "USDT",
			After: int64Ptr(1700000000000),
		})
		require.NoError(t, err)
		require.Len(t, records, 2)

		assert.Equal(t, []string{"wdId", "ts", "ccy", "amt", "to"}, records[0].Keys())
		assert.Equal(t, "2", records[0].Text("wdId"))
		ts, err := records[1].Timestamp()
		require.NoError(t, err)
		assert.Equal(t, int64(1699999998000), ts)
		assert.Equal(t, `{"k":"v"}`, records[1].Text("extra"))
	})

	t.Run("empty page", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"code":"0","msg":"","data":[]}`))
		}))
		defer server.Close()

		c, _ := newTestClient(server.URL)
		records, err := c.GetWithdrawalHistory(context.Background(), WithdrawalHistoryParams{})
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("api error is wrapped", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"code":"50111","msg":"Invalid OK-ACCESS-KEY","data":[]}`))
		}))
		defer server.Close()

		c, _ := newTestClient(server.URL)
		_, err := c.GetWithdrawalHistory(context.Background(), WithdrawalHistoryParams{})
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "50111", apiErr.Code)
		assert.Contains(t, err.Error(), "get withdrawal history")
	})
}
