package domain

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// ProfilePayload is the row sent to the profile table, column -> value.
// Values follow JSON decoding conventions (string, float64, bool, nil, maps, slices).
type ProfilePayload map[string]any

// DefaultProfilePayload is the onboarding row the mobile app writes after signup.
// {{user_id}} and {{email}} are filled from the run.
func DefaultProfilePayload() ProfilePayload {
	return ProfilePayload{
		"id":                       "{{user_id}}",
		"email":                    "{{email}}",
		"name":                     "Test User",
		"age":                      25,
		"height":                   175.5,
		"weight":                   70.0,
		"activity_level":           "Moderately Active",
		"fitness_goal":             "Lose Weight",
		"experience_level":         "Intermediate",
		"workout_consistency":      "1-2 years",
		"daily_calories_target":    2200,
		"daily_steps_target":       10000,
		"has_completed_onboarding": true,
	}
}

// Columns returns the column names in stable order.
func (p ProfilePayload) Columns() []string {
	out := make([]string, 0, len(p))
	for k := range p {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ColumnMismatch describes a submitted column whose stored value differs.
type ColumnMismatch struct {
	Column string
	Sent   string
	Stored string
}

// CompareProfile compares the submitted payload against a stored row.
// Numbers compare by decimal value so 70, 70.0 and "70.00" are equal.
func CompareProfile(sent ProfilePayload, stored map[string]any) []ColumnMismatch {
	var out []ColumnMismatch
	for _, col := range sent.Columns() {
		sv := sent[col]
		got, ok := stored[col]
		if !ok {
			out = append(out, ColumnMismatch{Column: col, Sent: FormatValue(sv), Stored: "<missing>"})
			continue
		}
		if !valuesEqual(sv, got) {
			out = append(out, ColumnMismatch{Column: col, Sent: FormatValue(sv), Stored: FormatValue(got)})
		}
	}
	return out
}

// FormatValue renders a JSON-like value for reports.
func FormatValue(v any) string {
	if v == nil {
		return "null"
	}
	if d, ok := toDecimal(v); ok {
		return d.String()
	}
	return fmt.Sprint(v)
}

func valuesEqual(a, b any) bool {
	da, aNum := toDecimal(a)
	db, bNum := toDecimal(b)
	if aNum && bNum {
		return da.Equal(db)
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	case uint64:
		return decimal.NewFromUint64(t), true
	case float64:
		return decimal.NewFromFloat(t), true
	case float32:
		return decimal.NewFromFloat32(t), true
	case decimal.Decimal:
		return t, true
	case string:
		d, err := decimal.NewFromString(t)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	default:
		return decimal.Decimal{}, false
	}
}
