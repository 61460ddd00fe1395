package pipeline

import "regexp"

// zeroCuePattern matches wording that states an explicit zero or draw result.
// A bare digit counts only in an amount context, so "0点" does not.
var zeroCuePattern = regexp.MustCompile(
	`(?i)^\s*0\s*$` +
		`|(?:赢|输|收入|盈亏|净|结果|合计|[:：=¥$])\s*了?\s*[+-]?0(?:\.0+)?(?:[^0-9.]|$)` +
		`|(?:^|[^0-9.])0(?:\.0+)?\s*(?:元|块|rmb|yuan|收入|盈亏)` +
		`|零|打平|平局|平手|持平|没输没赢|不输不赢|没输|没赢|保本` +
		`|\bdraw\b|\bdrew\b|\btied?\b|\bzero\b|\bbreak\s*even\b`,
)

// HasZeroCue reports whether text explicitly mentions a zero or break-even result.
func HasZeroCue(text string) bool {
	return zeroCuePattern.MatchString(text)
}
