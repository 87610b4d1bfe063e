package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rickgao/okx-withdrawals/internal/model"
)

// WithdrawalHistoryPath is the withdrawal history endpoint.
const WithdrawalHistoryPath = "/api/v5/asset/withdrawal-history"

// MaxWithdrawalPageSize is the largest limit the endpoint accepts.
const MaxWithdrawalPageSize = 100

// WithdrawalHistoryParams are the query parameters of one history request.
type WithdrawalHistoryParams struct {
	Ccy    string // currency filter, e.g. "USDT"
	Limit  int    // page size, at most MaxWithdrawalPageSize
	After  *int64 // records strictly older than this ms timestamp
	Before *int64 // records newer than this ms timestamp
}

// Query encodes the parameters. Unset fields are omitted.
func (p WithdrawalHistoryParams) Query() url.Values {
	query := url.Values{}

	limit := p.Limit
	if limit <= 0 || limit > MaxWithdrawalPageSize {
		limit = MaxWithdrawalPageSize
	}
	query.Set("limit", strconv.Itoa(limit))

	if p.Ccy != "" {
		query.Set("ccy", p.Ccy)
	}
	if p.After != nil {
		query.Set("after", strconv.FormatInt(*p.After, 10))
	}
	if p.Before != nil {
		query.Set("before", strconv.FormatInt(*p.Before, 10))
	}

	return query
}

// GetWithdrawalHistory fetches one page of withdrawal records, newest first.
func (c *Client) GetWithdrawalHistory(ctx context.Context, params WithdrawalHistoryParams) ([]*model.Record, error) {
	var records []*model.Record
	if err := c.Get(ctx, WithdrawalHistoryPath, params.Query(), &records); err != nil {
		return nil, fmt.Errorf("get withdrawal history: %w", err)
	}
	return records, nil
}
