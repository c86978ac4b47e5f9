package attendance

import (
	"sort"
	"strings"
)

type IntentKind int

const (
	IntentNone IntentKind = iota
	IntentQuery
	IntentReport
)

// Intent is the classification of one chat message.
// Residual is set for queries, Lines for report batches.
type Intent struct {
	Kind     IntentKind
	Residual string
	Lines    []string
}

var querySuffixes = longestFirst([]string{
	"j", "jr", "jgr", "dsr", "yjr", "yjgr", "ydsr",
	"几", "几人", "几个人", "多少人", "有几人", "有几个人", "有多少人",
})

// genericNames stand for "every arcade bound here".
var genericNames = []string{"机厅", "jt"}

func longestFirst(in []string) []string {
	out := append([]string(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}

// Classify decides whether text is a headcount query, a batch of reports, or neither.
// Query suffixes are checked first and the longest one is stripped.
func Classify(text string) Intent {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Intent{}
	}
	if suffix, ok := matchQuerySuffix(trimmed); ok {
		return Intent{Kind: IntentQuery, Residual: strings.TrimSpace(trimmed[:len(trimmed)-len(suffix)])}
	}
	lines := strings.Split(strings.ReplaceAll(trimmed, "\r\n", "\n"), "\n")
	for _, line := range lines {
		if _, _, ok := findOperator(line); ok {
			return Intent{Kind: IntentReport, Lines: lines}
		}
	}
	return Intent{}
}

// matchQuerySuffix ignores case: "maiJR" is a query.
func matchQuerySuffix(text string) (string, bool) {
	for _, s := range querySuffixes {
		if len(text) < len(s) {
			continue
		}
		if strings.EqualFold(text[len(text)-len(s):], s) {
			return s, true
		}
	}
	return "", false
}

// IsAllArcades reports whether a query residual means every bound arcade.
func IsAllArcades(residual string) bool {
	residual = strings.TrimSpace(residual)
	if residual == "" {
		return true
	}
	for _, g := range genericNames {
		if strings.EqualFold(residual, g) {
			return true
		}
	}
	return false
}
