// Package currency converts reference-currency (EUR) prices into the
// currency a shopper selected and renders them for display.
package currency

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
)

// Code is an ISO currency code.
type Code string

const (
	EUR Code = "EUR"
	CHF Code = "CHF"
	GBP Code = "GBP"
)

// Reference is the currency all catalog prices are stored in.
const Reference = EUR

// ErrUnknownCurrency is returned when a code is not in the table.
var ErrUnknownCurrency = errors.New("unknown currency")

// Placement is where the symbol goes relative to the amount.
type Placement int

const (
	// Suffix renders "8.60 £".
	Suffix Placement = iota
	// Prefix renders "CHF 9.40".
	Prefix
)

// Entry describes one selectable currency. Rate is destination units per
// one reference unit.
type Entry struct {
	Code      Code            `json:"code"`
	Symbol    string          `json:"symbol"`
	Rate      decimal.Decimal `json:"rate"`
	Placement Placement       `json:"-"`
}

// Table is the set of selectable currencies keyed by code.
type Table map[Code]Entry

// DefaultTable returns the storefront's static rate table.
func DefaultTable() Table {
	return Table{
		EUR: {Code: EUR, Symbol: "€", Rate: decimal.NewFromInt(1), Placement: Suffix},
		CHF: {Code: CHF, Symbol: "CHF", Rate: decimal.RequireFromString("0.94"), Placement: Prefix},
		GBP: {Code: GBP, Symbol: "£", Rate: decimal.RequireFromString("0.86"), Placement: Suffix},
	}
}

// Lookup returns the entry for code.
func (t Table) Lookup(code Code) (Entry, bool) {
	e, ok := t[code]
	return e, ok
}

// Codes lists the table's codes in sorted order.
func (t Table) Codes() []Code {
	codes := make([]Code, 0, len(t))
	for c := range t {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// Entries lists the table's entries ordered by code.
func (t Table) Entries() []Entry {
	out := make([]Entry, 0, len(t))
	for _, c := range t.Codes() {
		out = append(out, t[c])
	}
	return out
}

// Converter holds one shopper's selected currency. It is not safe for
// concurrent use.
type Converter struct {
	table    Table
	selected Code
}

// NewConverter creates a converter over table with initial selected. An
// initial code that is not in the table is rejected.
func NewConverter(table Table, initial Code) (*Converter, error) {
	if _, ok := table[initial]; !ok {
		return nil, errors.Wrapf(ErrUnknownCurrency, "initial currency %q", initial)
	}
	return &Converter{table: table, selected: initial}, nil
}

// Currency returns the active code.
func (c *Converter) Currency() Code {
	return c.selected
}

// Entry returns the active table entry.
func (c *Converter) Entry() Entry {
	return c.table[c.selected]
}

// Table returns the table the converter selects from.
func (c *Converter) Table() Table {
	return c.table
}

// SetCurrency changes the selection. Unknown codes are rejected and the
// previous selection stays active.
func (c *Converter) SetCurrency(code Code) error {
	if _, ok := c.table[code]; !ok {
		return errors.Wrapf(ErrUnknownCurrency, "currency %q", code)
	}
	c.selected = code
	return nil
}

// ConvertPrice converts a reference price into the active currency, rounded
// half away from zero to two decimal places.
func (c *Converter) ConvertPrice(price decimal.Decimal) decimal.Decimal {
	return price.Mul(c.Entry().Rate).Round(2)
}

// FormatPrice converts and renders price with two decimals and the active
// currency's symbol.
func (c *Converter) FormatPrice(price decimal.Decimal) string {
	return Format(c.Entry(), c.ConvertPrice(price))
}

// Format renders an already-converted amount for entry.
func Format(entry Entry, amount decimal.Decimal) string {
	value := amount.StringFixed(2)
	if entry.Placement == Prefix {
		return entry.Symbol + " " + value
	}
	return value + " " + entry.Symbol
}
