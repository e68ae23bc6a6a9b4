package loader

import (
	"fmt"

	"github.com/pable/go-cog-metrics/internal/model"
)

// TeamAliases is the set of grouping values that designate team-level rows.
// Comparison uses model.NormalizeKey, so "MIAMI  heat" matches "Miami Heat".
type TeamAliases struct {
	keys map[string]bool
}

// NewTeamAliases builds an alias set. Empty entries are ignored.
func NewTeamAliases(aliases ...string) TeamAliases {
	a := TeamAliases{keys: make(map[string]bool, len(aliases))}
	for _, s := range aliases {
		a = a.With(s)
	}
	return a
}

// With returns a copy of a that also matches alias.
func (a TeamAliases) With(alias string) TeamAliases {
	k := model.NormalizeKey(alias)
	if k == "" {
		return a
	}
	keys := make(map[string]bool, len(a.keys)+1)
	for x := range a.keys {
		keys[x] = true
	}
	keys[k] = true
	return TeamAliases{keys: keys}
}

// Match reports whether group designates the team.
func (a TeamAliases) Match(group string) bool {
	return a.keys[model.NormalizeKey(group)]
}

// Len is the number of distinct aliases.
func (a TeamAliases) Len() int { return len(a.keys) }

// Partition is the result of splitting a table by the grouping column.
// Its subsets are in-memory buffers owned by the caller; Release drops them.
type Partition struct {
	Team    *model.Subset   // nil when no row matched a team alias
	Players []*model.Subset // in order of first appearance
	Skipped int             // rows with an empty grouping value

	released bool
}

// Release drops the partition's row buffers. It is safe to call repeatedly.
func (p *Partition) Release() {
	if p == nil || p.released {
		return
	}
	if p.Team != nil {
		p.Team.Rows = nil
	}
	for _, s := range p.Players {
		s.Rows = nil
	}
	p.Team = nil
	p.Players = nil
	p.released = true
}

// PlayerNames returns the display names of the player subsets.
func (p *Partition) PlayerNames() []string {
	names := make([]string, len(p.Players))
	for i, s := range p.Players {
		names[i] = s.Name
	}
	return names
}

// Split partitions t's rows without aggregating them. Row order is preserved
// inside every subset. Player subsets are keyed by normalized name; the first
// spelling seen becomes the display name.
func Split(t *Table, aliases TeamAliases, teamName string) (*Partition, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil table", model.ErrSchema)
	}
	if !t.Has(model.ColumnGroup) {
		return nil, fmt.Errorf("%w: grouping column missing", model.ErrSchema)
	}

	p := &Partition{}
	byKey := make(map[string]*model.Subset)
	for _, row := range t.Rows {
		if row.Group == "" {
			p.Skipped++
			continue
		}
		if aliases.Match(row.Group) {
			if p.Team == nil {
				name := teamName
				if name == "" {
					name = model.CollapseSpace(row.Group)
				}
				p.Team = &model.Subset{
					Kind:    model.SubjectKindTeam,
					Key:     model.SubjectTeam,
					Name:    name,
					Present: t.Has,
				}
			}
			p.Team.Rows = append(p.Team.Rows, row)
			continue
		}

		key := model.NormalizeKey(row.Group)
		s, ok := byKey[key]
		if !ok {
			s = &model.Subset{
				Kind:    model.SubjectKindPlayer,
				Key:     key,
				Name:    model.CollapseSpace(row.Group),
				Present: t.Has,
			}
			byKey[key] = s
			p.Players = append(p.Players, s)
		}
		s.Rows = append(s.Rows, row)
	}
	return p, nil
}
