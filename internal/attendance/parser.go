package attendance

import (
	"strconv"
	"strings"
)

type Operator int

const (
	OpAbsolute Operator = iota + 1
	OpIncrement
	OpDecrement
)

func (o Operator) String() string {
	switch o {
	case OpAbsolute:
		return "absolute"
	case OpIncrement:
		return "increment"
	case OpDecrement:
		return "decrement"
	default:
		return "unknown"
	}
}

// MaxCount is the largest headcount nearcade accepts for one game unit.
const MaxCount = 99

type operatorGlyph struct {
	glyph string
	op    Operator
}

// Scanned in this order, not by length.
var operatorGlyphs = []operatorGlyph{
	{"=", OpAbsolute},
	{"＝", OpAbsolute},
	{"+", OpIncrement},
	{"＋", OpIncrement},
	{"➕", OpIncrement},
	{"-", OpDecrement},
	{"－", OpDecrement},
	{"➖", OpDecrement},
}

// Triple is one parsed report: Target is the raw arcade[+game] reference.
type Triple struct {
	Target string
	Op     Operator
	Count  int
}

func findOperator(line string) (operatorGlyph, int, bool) {
	for _, g := range operatorGlyphs {
		if idx := strings.Index(line, g.glyph); idx >= 0 {
			return g, idx, true
		}
	}
	return operatorGlyph{}, -1, false
}

// ParseReports extracts at most one triple per line, in line order. Lines with an
// empty side or a malformed count are dropped.
func ParseReports(lines []string) []Triple {
	var out []Triple
	for _, line := range lines {
		g, idx, ok := findOperator(line)
		if !ok {
			continue
		}
		left := strings.TrimSpace(line[:idx])
		right := strings.TrimSpace(line[idx+len(g.glyph):])
		if left == "" || right == "" {
			continue
		}
		count, ok := parseCount(right)
		if !ok {
			continue
		}
		out = append(out, Triple{Target: left, Op: g.op, Count: count})
	}
	return out
}

// parseCount accepts "0".."99" only; "05", "+5", "5x" fail the round-trip check.
func parseCount(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > MaxCount {
		return 0, false
	}
	if strconv.Itoa(n) != s {
		return 0, false
	}
	return n, true
}

func clampCount(n int) int {
	if n < 0 {
		return 0
	}
	if n > MaxCount {
		return MaxCount
	}
	return n
}
