// Package filter selects which fetched withdrawals are written out.
package filter

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"

	"github.com/rickgao/okx-withdrawals/internal/model"
)

// AddressFields are the record fields searched by the address filter.
var AddressFields = []string{"to", "toAddr", "addr", "from", "memo", "tag"}

// Filter keeps records inside a time window whose address fields contain one
// of a set of needles. A zero Filter keeps everything.
type Filter struct {
	Window    model.Window
	Addresses []string // case-folded needles
}

// New builds a filter, folding case and dropping blank or repeated
// addresses.
func New(window model.Window, addresses []string) *Filter {
	return &Filter{
		Window:    window,
		Addresses: normalize(addresses),
	}
}

// Match reports whether r passes both the time and the address test.
// Records without a usable ts fail a bounded window.
func (f *Filter) Match(r *model.Record) bool {
	if f == nil {
		return true
	}
	if r == nil {
		return false
	}

	if !f.Window.IsZero() {
		ts, err := r.Timestamp()
		if err != nil || !f.Window.Contains(ts) {
			return false
		}
	}

	if len(f.Addresses) == 0 {
		return true
	}
	text := AddressText(r)
	for _, a := range f.Addresses {
		if strings.Contains(text, a) {
			return true
		}
	}
	return false
}

// Apply returns the records that match, in order. The input is not modified.
func (f *Filter) Apply(records []*model.Record) []*model.Record {
	if f == nil || (f.Window.IsZero() && len(f.Addresses) == 0) {
		return records
	}

	kept := make([]*model.Record, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			kept = append(kept, r)
		}
	}
	return kept
}

// AddressText joins the address fields of r with spaces and folds case.
func AddressText(r *model.Record) string {
	parts := make([]string, len(AddressFields))
	for i, field := range AddressFields {
		parts[i] = r.Text(field)
	}
	return fold(strings.Join(parts, " "))
}

// ParseAddressList reads one address per line. Blank lines are skipped and
// the result is case-folded and deduplicated, in first-seen order.
func ParseAddressList(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read address list: %w", err)
	}
	return normalize(lines), nil
}

func normalize(addresses []string) []string {
	seen := make(map[string]bool, len(addresses))
	out := make([]string, 0, len(addresses))
	for _, a := range addresses {
		a = fold(strings.TrimSpace(a))
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}

func fold(s string) string {
	return cases.Fold().String(s)
}
