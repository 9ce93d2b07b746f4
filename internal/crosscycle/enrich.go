package crosscycle

import (
	"strings"

	"granttrack/domain/proposal"

	"github.com/shopspring/decimal"
)

var requestedHeaders = []string{
	"requested amount",
	"amount requested",
	"total requested",
	"total amount requested",
	"request amount",
	"funding requested",
	"funding request",
	"budget request",
}

// RequestedAmount reads the amount a proposal asked for. Known header names
// are tried first, then any header containing "request", then any containing
// "amount" or "budget". The first parseable value wins.
func RequestedAmount(row proposal.Row, headers []string) (decimal.NullDecimal, string) {
	tiers := []func(string) bool{
		func(h string) bool {
			for _, known := range requestedHeaders {
				if h == known {
					return true
				}
			}
			return false
		},
		func(h string) bool { return strings.Contains(h, "request") },
		func(h string) bool { return strings.Contains(h, "amount") || strings.Contains(h, "budget") },
	}

	for _, match := range tiers {
		for _, h := range headers {
			if !match(strings.ToLower(strings.TrimSpace(h))) {
				continue
			}
			if amount := proposal.LooseAmount(row.Value(h)); amount.Valid {
				return amount, h
			}
		}
	}
	return decimal.NullDecimal{}, ""
}

// ProposalLink returns the hyperlink on the match cell, else the first
// http(s) value under a header that mentions a link or URL.
func ProposalLink(row proposal.Row, headers []string, matchColumn string) string {
	if link := row.Link(matchColumn); link != "" {
		return link
	}
	for _, h := range headers {
		lower := strings.ToLower(h)
		if !strings.Contains(lower, "link") && !strings.Contains(lower, "url") {
			continue
		}
		v := row.Value(h)
		if strings.HasPrefix(strings.ToLower(v), "http://") || strings.HasPrefix(strings.ToLower(v), "https://") {
			return v
		}
		if link := row.Link(h); link != "" {
			return link
		}
	}
	return ""
}
