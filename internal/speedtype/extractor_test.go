package speedtype

import (
	"testing"

	"granttrack/domain/proposal"

	"github.com/stretchr/testify/assert"
)

func row(cells map[string]string) proposal.Row {
	return proposal.Row{Cells: cells}
}

func TestFromText(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"12345678", "12345678"},
		{"Acct: 1 2345678 misc", "12345678"},
		{"charge to ST-1234-5678 please", "12345678"},
		{"speedtype #1234 5678", "12345678"},
		{"see 19876543.", "19876543"},
		{"ref 0012345678 end", "12345678"},
		{"account 22345678", ""},
		{"phone 303-555-0100", ""},
		{"1234567", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FromText(tt.text), tt.text)
	}
}

func TestFromTextFindsEmbeddedCode(t *testing.T) {
	codes := []string{"10000000", "12345678", "19999999"}
	noise := []string{"", "x", "ab:", "(", "--", "Acct ", "misc text ", "€"}

	for _, code := range codes {
		for _, before := range noise {
			for _, after := range noise {
				text := before + code + after
				assert.Equal(t, code, FromText(text), text)
			}
		}
	}
}

func TestExtractSearchOrder(t *testing.T) {
	headers := []string{"Project Name", "Acct #", "Budget Notes", "Code Column"}

	t.Run("explicit column wins", func(t *testing.T) {
		r := row(map[string]string{
			"Acct #":      "11111111",
			"Code Column": "code: 12222222",
		})
		got := Extract(Input{Headers: headers, Row: r, Column: "Code Column"})
		assert.Equal(t, Result{Code: "12222222", Source: SourceExplicit, Column: "Code Column"}, got)
	})

	t.Run("invalid explicit value falls through", func(t *testing.T) {
		r := row(map[string]string{
			"Acct #":      "11111111",
			"Code Column": "pending",
		})
		got := Extract(Input{Headers: headers, Row: r, Column: "Code Column"})
		assert.Equal(t, "11111111", got.Code)
		assert.Equal(t, SourceConventional, got.Source)
		assert.Equal(t, "Acct #", got.Column)
	})

	t.Run("row text scan", func(t *testing.T) {
		r := row(map[string]string{
			"Project Name": "Mural",
			"Acct #":       "TBD",
			"Budget Notes": "use ST: 1 4444444 for supplies",
		})
		got := Extract(Input{Headers: headers, Row: r})
		assert.Equal(t, "14444444", got.Code)
		assert.Equal(t, SourceRowText, got.Source)
	})

	t.Run("approved record fallback", func(t *testing.T) {
		r := row(map[string]string{"Project Name": "Mural"})
		got := Extract(Input{Headers: headers, Row: r, Approved: &proposal.ApprovedRecord{Code: " 15555555 "}})
		assert.Equal(t, Result{Code: "15555555", Source: SourceApproved}, got)
	})

	t.Run("invalid approved code is ignored", func(t *testing.T) {
		r := row(map[string]string{"Project Name": "Mural"})
		got := ExtractCode(Input{Headers: headers, Row: r, Approved: &proposal.ApprovedRecord{Code: "5555555"}})
		assert.Empty(t, got)
	})
}

func TestExtractWithoutHeaders(t *testing.T) {
	r := row(map[string]string{"b": "code 17777777", "a": "nothing"})
	assert.Equal(t, "17777777", ExtractCode(Input{Row: r}))
}

func TestIsConventionalHeader(t *testing.T) {
	for _, h := range []string{"Speedtype", "Speed Type", "Account Number", "Acct #", "ST", "acct. no"} {
		assert.True(t, IsConventionalHeader(h), h)
	}
	for _, h := range []string{"Project Name", "Status", "Accountability"} {
		assert.False(t, IsConventionalHeader(h), h)
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("10000000"))
	assert.False(t, Valid("20000000"))
	assert.False(t, Valid("1000000"))
	assert.False(t, Valid(" 10000000"))
}
