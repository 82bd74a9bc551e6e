// Package core holds the budget document model shared by the server, the
// persistence client and the derived-view computations.
//
// This file contains the Amount type: a decimal euro value that marshals as
// a bare JSON number so stored documents stay readable by any JSON client.
package core

import (
	"bytes"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a decimal euro value. The zero value is zero euros.
type Amount struct {
	dec decimal.Decimal
}

// NewAmount builds an Amount from a float, rounding to cents.
func NewAmount(v float64) Amount {
	return Amount{dec: decimal.NewFromFloat(v).Round(2)}
}

// ParseAmount parses a decimal string, accepting both dot (12.34) and
// comma (12,34) separators. An empty string parses to zero.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, nil
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, err
	}
	return Amount{dec: d}, nil
}

func (a Amount) Add(b Amount) Amount { return Amount{dec: a.dec.Add(b.dec)} }
func (a Amount) Sub(b Amount) Amount { return Amount{dec: a.dec.Sub(b.dec)} }
func (a Amount) Cmp(b Amount) int    { return a.dec.Cmp(b.dec) }
func (a Amount) Equal(b Amount) bool { return a.dec.Equal(b.dec) }
func (a Amount) IsNegative() bool    { return a.dec.IsNegative() }
func (a Amount) IsZero() bool        { return a.dec.IsZero() }
func (a Amount) String() string      { return a.dec.String() }

// MarshalJSON emits a bare number. The persisted document stores amounts
// as JSON numbers, matching what older documents already contain.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.dec.String()), nil
}

// UnmarshalJSON accepts numbers, quoted strings and null. Anything
// unparseable decodes to zero; amounts default rather than fail so a
// partially filled document still loads.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*a = Amount{}
		return nil
	}
	s := string(bytes.Trim(data, `"`))
	parsed, err := ParseAmount(s)
	if err != nil {
		*a = Amount{}
		return nil
	}
	*a = parsed
	return nil
}
