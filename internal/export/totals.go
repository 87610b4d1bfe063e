package export

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/rickgao/okx-withdrawals/internal/model"
)

// CurrencyTotal sums the exported withdrawals of one currency.
type CurrencyTotal struct {
	Count  int
	Amount decimal.Decimal
	Fee    decimal.Decimal
}

// Totals maps currency to its running sums.
type Totals map[string]*CurrencyTotal

// Add accumulates records. Amounts that do not parse count as zero.
func (t Totals) Add(records []*model.Record) {
	for _, r := range records {
		ccy := r.Text("ccy")
		total, ok := t[ccy]
		if !ok {
			total = &CurrencyTotal{}
			t[ccy] = total
		}
		total.Count++
		total.Amount = total.Amount.Add(parseDecimal(r.Text("amt")))
		total.Fee = total.Fee.Add(parseDecimal(r.Text("fee")))
	}
}

// Currencies returns the currency codes in sorted order.
func (t Totals) Currencies() []string {
	out := make([]string, 0, len(t))
	for ccy := range t {
		out = append(out, ccy)
	}
	sort.Strings(out)
	return out
}

func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
