package analytics

import (
	"fmt"
	"strconv"
	"strings"
)

// NilSentinel is the literal string the analytics backend emits for absent
// numeric and model fields.
const NilSentinel = "<nil>"

// UsageRecord is one row of per-user usage data as returned by the Analytics
// query API. Numeric fields are kept in their raw wire form because the
// backend emits them inconsistently: a JSON number, a quoted number, null,
// or the literal "<nil>". CoerceCredit resolves them to a float.
type UsageRecord struct {
	APIKey          string `json:"api_key"`
	Date            string `json:"date"` // YYYY-MM-DD
	Model           string `json:"model,omitempty"`
	FlexCreditsUsed string `json:"flex_credits_used,omitempty"` // hundredths
	PromptsUsed     string `json:"prompts_used,omitempty"`      // hundredths
}

// UserTableEntry is one row of the user directory returned by
// UserPageAnalytics.
type UserTableEntry struct {
	Email  string `json:"email"`
	APIKey string `json:"apiKey"`
}

// CoerceCredit converts a raw credit value to a float. Null, empty, and the
// "<nil>" sentinel all mean "no usage" and coerce to zero; anything else that
// is not numeric is an error for that field.
func CoerceCredit(raw string) (float64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == NilSentinel {
		return 0, nil
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("credit value %q is not numeric", raw)
	}
	return v, nil
}
