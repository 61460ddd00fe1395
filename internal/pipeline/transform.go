package pipeline

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/dvloznov/mahjong-ledger/internal/domain"
)

// Coerce converts candidates into typed records. Missing or mistyped fields
// fall back to defaults: amount 0, isWin false, date today, note empty and no
// circle name. Zero-amount records are dropped unless sourceText carries an
// explicit zero or draw cue. Coerce never fails; an empty result means no
// records were found.
func Coerce(candidates []Candidate, sourceText string, today time.Time) []domain.ParsedRecord {
	zeroCue := HasZeroCue(sourceText)
	todayStr := today.Format(domain.DateLayout)

	result := make([]domain.ParsedRecord, 0, len(candidates))
	for _, c := range candidates {
		rec := domain.ParsedRecord{
			Amount: getAmountField(c.Field("amount")),
			IsWin:  truthy(c.Field("isWin")),
			Date:   getStringField(c.Field("date"), todayStr),
			Note:   getStringField(c.Field("note"), ""),
		}
		if name := c.Field("circleName"); truthy(name) {
			s := stringOf(name)
			rec.CircleName = &s
		}

		if rec.Amount == 0 && !zeroCue {
			continue
		}
		result = append(result, rec)
	}

	return result
}

// getAmountField returns the magnitude of a numeric-ish value. Anything that
// does not convert cleanly to a finite number yields 0.
func getAmountField(v gjson.Result) float64 {
	var n float64
	switch v.Type {
	case gjson.Number:
		n = v.Num
	case gjson.True:
		n = 1
	case gjson.String:
		s := strings.TrimSpace(v.Str)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		n = f
	default:
		return 0
	}

	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return math.Abs(n)
}

// getStringField returns the value as text when it is truthy, else fallback.
func getStringField(v gjson.Result, fallback string) string {
	if !truthy(v) {
		return fallback
	}
	return stringOf(v)
}

// truthy applies loose truthiness: missing, null, false, 0 and "" are false.
func truthy(v gjson.Result) bool {
	if !v.Exists() {
		return false
	}
	switch v.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		return v.Num != 0 && !math.IsNaN(v.Num)
	case gjson.String:
		return v.Str != ""
	default:
		return true
	}
}

func stringOf(v gjson.Result) string {
	if v.Type == gjson.String {
		return v.Str
	}
	return v.Raw
}
