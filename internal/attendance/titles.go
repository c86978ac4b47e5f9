package attendance

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	yaml "gopkg.in/yaml.v3"
)

//go:embed titles.yaml
var defaultTitlesYAML []byte

type GameTitle struct {
	TitleID int64    `yaml:"titleId"`
	Names   []string `yaml:"names"`
}

// TitleTable maps lowercase series nicknames to nearcade title ids. Immutable after load.
type TitleTable struct {
	titles []GameTitle
}

// ParseTitles reads a titles document ({titles: [{titleId, names}]}).
func ParseTitles(b []byte) (*TitleTable, error) {
	var doc struct {
		Titles []GameTitle `yaml:"titles"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse titles: %w", err)
	}
	t := &TitleTable{titles: make([]GameTitle, 0, len(doc.Titles))}
	for _, title := range doc.Titles {
		if title.TitleID <= 0 {
			return nil, fmt.Errorf("parse titles: invalid titleId %d", title.TitleID)
		}
		names := make([]string, 0, len(title.Names))
		for _, n := range title.Names {
			if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
				names = append(names, n)
			}
		}
		t.titles = append(t.titles, GameTitle{TitleID: title.TitleID, Names: names})
	}
	return t, nil
}

var (
	defaultTitlesOnce sync.Once
	defaultTitles     *TitleTable
)

// DefaultTitles returns the built-in table.
func DefaultTitles() *TitleTable {
	defaultTitlesOnce.Do(func() {
		t, err := ParseTitles(defaultTitlesYAML)
		if err != nil {
			panic(err)
		}
		defaultTitles = t
	})
	return defaultTitles
}

// Lookup returns the title id whose nickname list contains token.
func (t *TitleTable) Lookup(token string) (int64, bool) {
	if t == nil {
		return 0, false
	}
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return 0, false
	}
	for _, title := range t.titles {
		for _, n := range title.Names {
			if n == token {
				return title.TitleID, true
			}
		}
	}
	return 0, false
}
