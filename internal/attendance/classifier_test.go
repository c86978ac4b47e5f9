package attendance

import (
	"strings"
	"testing"
)

func TestClassifyLongestSuffixWins(t *testing.T) {
	for _, long := range querySuffixes {
		for _, short := range querySuffixes {
			if short == long || !strings.HasSuffix(long, short) {
				continue
			}
			got := Classify("测厅" + long)
			if got.Kind != IntentQuery {
				t.Fatalf("%q: kind=%v", long, got.Kind)
			}
			if got.Residual != "测厅" {
				t.Fatalf("%q (also ends in %q): residual=%q", long, short, got.Residual)
			}
		}
	}
}

func TestClassifyQueries(t *testing.T) {
	cases := []struct {
		in       string
		residual string
	}{
		{"测厅几人", "测厅"},
		{"测厅有多少人", "测厅"},
		{"maiJR", "mai"},
		{"  ce jgr ", "ce"},
		{"jt几", "jt"},
		{"几", ""},
	}
	for _, c := range cases {
		got := Classify(c.in)
		if got.Kind != IntentQuery {
			t.Fatalf("%q: kind=%v", c.in, got.Kind)
		}
		if got.Residual != c.residual {
			t.Fatalf("%q: residual=%q want %q", c.in, got.Residual, c.residual)
		}
	}
}

func TestClassifyReportsAndNoise(t *testing.T) {
	if got := Classify("测厅=30"); got.Kind != IntentReport || len(got.Lines) != 1 {
		t.Fatalf("got %+v", got)
	}
	got := Classify("hello\r\nce➕2")
	if got.Kind != IntentReport || len(got.Lines) != 2 || got.Lines[1] != "ce➕2" {
		t.Fatalf("got %+v", got)
	}
	for _, in := range []string{"", "   ", "hello", "今天去机厅吗"} {
		if got := Classify(in); got.Kind != IntentNone {
			t.Fatalf("%q classified as %v", in, got.Kind)
		}
	}
}

func TestIsAllArcades(t *testing.T) {
	for _, in := range []string{"", " ", "机厅", "jt", "JT"} {
		if !IsAllArcades(in) {
			t.Fatalf("%q should mean all arcades", in)
		}
	}
	if IsAllArcades("测厅") {
		t.Fatalf("named arcade treated as generic")
	}
}
