package msgcat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultCatalogRenders(t *testing.T) {
	c := MustDefault()
	got, err := c.Render("report.success", map[string]any{"Arcade": "测厅", "Game": "maimai DX", "Version": "PRiSM", "Count": 30})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "成功上报机厅「测厅」的机台「maimai DX」(PRiSM) 在勤人数为 30 人。" {
		t.Fatalf("got %q", got)
	}
	if got := c.Text("query.header", nil); got != "实时在勤情况：" {
		t.Fatalf("header=%q", got)
	}
}

func TestMissingKeyIsAnError(t *testing.T) {
	c := MustDefault()
	if _, err := c.Render("report.success", map[string]any{"Arcade": "x"}); err == nil {
		t.Fatalf("expected missing key error")
	}
	if _, err := c.Render("no.such.key", nil); err == nil {
		t.Fatalf("expected not found error")
	}
	if got := c.Text("no.such.key", nil); got != "no.such.key" {
		t.Fatalf("fallback=%q", got)
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("query:\n  header: \"Live:\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := c.Text("query.header", nil); got != "Live:" {
		t.Fatalf("override not applied: %q", got)
	}
	if got := c.Text("report.unknown_error", nil); got != "未知错误" {
		t.Fatalf("defaults lost: %q", got)
	}
}

func TestOverrideDuplicateKeys(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.yaml", "b.yml"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("query:\n  header: x\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	_, err := New(dir)
	if err == nil || !strings.Contains(err.Error(), "duplicate override key") {
		t.Fatalf("err=%v", err)
	}
}

func TestBadTemplateRejected(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("query:\n  header: \"{{.Broken\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("expected parse error")
	}
}
