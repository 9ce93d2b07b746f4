package proposal

import (
	"fmt"
	"strings"

	"granttrack/domain/core"

	"github.com/shopspring/decimal"
)

var amountNoise = strings.NewReplacer("$", "", ",", "", " ", "", "\u00a0", "", "USD", "", "usd", "")

// ParseAmount parses a money cell such as "$12,500.00". Blank input yields an
// invalid (empty) NullDecimal and no error.
func ParseAmount(raw string) (decimal.NullDecimal, error) {
	cleaned := amountNoise.Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%w: %q", core.ErrInvalidAmount, raw)
	}
	return decimal.NewNullDecimal(d), nil
}

// LooseAmount is ParseAmount that treats unparseable text as empty
func LooseAmount(raw string) decimal.NullDecimal {
	d, err := ParseAmount(raw)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return d
}

// FundingStatus records an admin funding decision
type FundingStatus string

const (
	FundingNone    FundingStatus = "none"
	FundingPartial FundingStatus = "partial"
	FundingFully   FundingStatus = "fully"
	FundingEmpty   FundingStatus = ""
)

// ParseFundingStatus accepts fully/partial/none or blank, case-insensitively
func ParseFundingStatus(raw string) (FundingStatus, error) {
	switch s := FundingStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case FundingFully, FundingPartial, FundingNone, FundingEmpty:
		return s, nil
	default:
		return FundingEmpty, fmt.Errorf("%w: %q", core.ErrInvalidFundingStatus, raw)
	}
}
