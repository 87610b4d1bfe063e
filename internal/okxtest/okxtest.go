// Package okxtest provides an in-memory withdrawal history that behaves like
// the OKX endpoint, either called directly or served over httptest.
package okxtest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/rickgao/okx-withdrawals/internal/api"
	"github.com/rickgao/okx-withdrawals/internal/auth"
	"github.com/rickgao/okx-withdrawals/internal/model"
)

// Withdrawal builds a record with the fields most tests care about.
func Withdrawal(wdID string, ts int64, ccy, amt, to string) *model.Record {
	r := model.NewRecord()
	r.Set("wdId", wdID)
	r.Set("ts", strconv.FormatInt(ts, 10))
	r.Set("ccy", ccy)
	r.Set("amt", amt)
	r.Set("to", to)
	return r
}

// Store holds withdrawals newest first and answers history queries the way
// the exchange does: after returns strictly older records, before strictly
// newer ones.
type Store struct {
	mu       sync.Mutex
	records  []*model.Record
	requests []api.WithdrawalHistoryParams

	failFrom   int
	failStatus int
}

// NewStore returns a store holding records in any order.
func NewStore(records ...*model.Record) *Store {
	s := &Store{}
	s.Add(records...)
	return s
}

// Add inserts records.
func (s *Store) Add(records ...*model.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, records...)
	sort.SliceStable(s.records, func(i, j int) bool {
		return ts(s.records[i]) > ts(s.records[j])
	})
}

// FailFrom makes request n (1-based) and every later one fail with status.
func (s *Store) FailFrom(n, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failFrom = n
	s.failStatus = status
}

// Requests returns the parameters of every request received so far.
func (s *Store) Requests() []api.WithdrawalHistoryParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.WithdrawalHistoryParams(nil), s.requests...)
}

// GetWithdrawalHistory answers one page query.
func (s *Store) GetWithdrawalHistory(_ context.Context, params api.WithdrawalHistoryParams) ([]*model.Record, error) {
	records, status := s.query(params)
	if status != 0 {
		return nil, &api.HTTPError{StatusCode: status, Message: http.StatusText(status)}
	}
	return records, nil
}

func (s *Store) query(params api.WithdrawalHistoryParams) ([]*model.Record, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, params)
	if s.failFrom > 0 && len(s.requests) >= s.failFrom {
		return nil, s.failStatus
	}

	limit := params.Limit
	if limit <= 0 || limit > api.MaxWithdrawalPageSize {
		limit = api.MaxWithdrawalPageSize
	}

	out := []*model.Record{}
	for _, r := range s.records {
		t := ts(r)
		if params.Ccy != "" && r.Text("ccy") != params.Ccy {
			continue
		}
		if params.After != nil && t >= *params.After {
			continue
		}
		if params.Before != nil && t <= *params.Before {
			continue
		}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out, 0
}

// NewServer serves the store on the withdrawal history path. Requests must
// carry a valid signature for creds.
func NewServer(t testing.TB, store *Store, creds *auth.Credentials) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc(api.WithdrawalHistoryPath, func(w http.ResponseWriter, r *http.Request) {
		if !validSignature(r, creds) {
			writeEnvelope(w, http.StatusUnauthorized, "50113", "Invalid Sign", nil)
			return
		}

		params, err := parseParams(r)
		if err != nil {
			writeEnvelope(w, http.StatusBadRequest, "51000", err.Error(), nil)
			return
		}

		records, status := store.query(params)
		if status != 0 {
			w.WriteHeader(status)
			return
		}
		writeEnvelope(w, http.StatusOK, api.SuccessCode, "", records)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func validSignature(r *http.Request, creds *auth.Credentials) bool {
	if creds == nil {
		return true
	}
	if r.Header.Get(auth.HeaderKey) != creds.Key || r.Header.Get(auth.HeaderPassphrase) != creds.Passphrase {
		return false
	}
	want, err := auth.Sign(creds.Secret, r.Header.Get(auth.HeaderTimestamp), r.Method, r.URL.RequestURI(), "")
	return err == nil && r.Header.Get(auth.HeaderSign) == want
}

func parseParams(r *http.Request) (api.WithdrawalHistoryParams, error) {
	q := r.URL.Query()
	params := api.WithdrawalHistoryParams{Ccy: q.Get("ccy")}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return params, err
		}
		params.Limit = n
	}
	for name, dst := range map[string]**int64{"after": &params.After, "before": &params.Before} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return params, err
		}
		*dst = &n
	}
	return params, nil
}

func writeEnvelope(w http.ResponseWriter, status int, code, msg string, data []*model.Record) {
	if data == nil {
		data = []*model.Record{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"code": code,
		"msg":  msg,
		"data": data,
	})
}

func ts(r *model.Record) int64 {
	t, _ := r.Timestamp()
	return t
}
