// Package symbols resolves the symbols a run should analyze from explicit
// arguments or from the static groups file.
package symbols

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aristath/marketsnap/internal/domain"
)

const groupPrefix = "group_"

// Groups is the parsed symbol groups file.
type Groups struct {
	Groups map[string][]string `yaml:"groups"`
}

// Load reads a YAML groups file of the form
//
//	groups:
//	  group_1: [AAPL, MSFT]
//	  group_2: [XOM]
func Load(path string) (*Groups, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read symbols file: %w", err)
	}

	g := &Groups{}
	if err := yaml.Unmarshal(data, g); err != nil {
		return nil, fmt.Errorf("parse symbols file %s: %w", path, err)
	}
	if g.Groups == nil {
		g.Groups = map[string][]string{}
	}
	return g, nil
}

// Names returns the group names, group_N ordered numerically, others after
// them alphabetically.
func (g *Groups) Names() []string {
	names := make([]string, 0, len(g.Groups))
	for name := range g.Groups {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ni, iok := groupNumber(names[i])
		nj, jok := groupNumber(names[j])
		switch {
		case iok && jok:
			return ni < nj
		case iok != jok:
			return iok
		default:
			return names[i] < names[j]
		}
	})
	return names
}

func groupNumber(name string) (int, bool) {
	if !strings.HasPrefix(name, groupPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(name, groupPrefix))
	return n, err == nil
}

// Group returns the symbols of group_<n>.
func (g *Groups) Group(n int) ([]string, error) {
	list, ok := g.Groups[fmt.Sprintf("%s%d", groupPrefix, n)]
	if !ok {
		return nil, fmt.Errorf("%w: %d (available: %s)", domain.ErrUnknownGroup, n, strings.Join(g.Names(), ", "))
	}
	return normalize(list), nil
}

// All returns every symbol across all groups, in group order, without
// duplicates.
func (g *Groups) All() []string {
	var all []string
	for _, name := range g.Names() {
		all = append(all, g.Groups[name]...)
	}
	return normalize(all)
}

// Resolve picks the symbols for a run. A positive group takes precedence over
// explicit args. g may be nil when no groups file is available.
func Resolve(g *Groups, args []string, group int) ([]string, error) {
	var resolved []string
	if group > 0 {
		if g == nil {
			return nil, fmt.Errorf("%w: %d (no symbols file loaded)", domain.ErrUnknownGroup, group)
		}
		list, err := g.Group(group)
		if err != nil {
			return nil, err
		}
		resolved = list
	} else {
		resolved = normalize(args)
	}

	if len(resolved) == 0 {
		return nil, domain.ErrNoSymbols
	}
	return resolved, nil
}

// normalize trims and upper-cases symbols, dropping blanks and repeats while
// keeping first-seen order.
func normalize(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, s := range list {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
