// Package view turns a registry snapshot into what the session list renders.
// Everything here is a pure function of its inputs; no locking, no I/O.
package view

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"seedrush/internal/domain"
)

// FilterAll disables status filtering.
const FilterAll = "all"

// Query is the user's current list controls.
type Query struct {
	StatusFilter string `json:"statusFilter"`
	Search       string `json:"search"`
}

// Projection is the derived list state. Totals always cover the full
// snapshot so narrowing the list never changes the money figures.
type Projection struct {
	Sessions     []domain.Session             `json:"sessions"`
	TotalEarned  uint64                       `json:"totalEarned"`
	TotalSpent   uint64                       `json:"totalSpent"`
	StatusCounts map[domain.SessionStatus]int `json:"statusCounts"`
}

var idCollator = collate.New(language.Und)

// Project applies the status filter, the case-insensitive name search and
// the stable identifier ordering to a snapshot.
func Project(sessions []domain.Session, q Query) Projection {
	p := Projection{
		Sessions:     make([]domain.Session, 0, len(sessions)),
		StatusCounts: make(map[domain.SessionStatus]int),
	}

	needle := strings.ToLower(strings.TrimSpace(q.Search))
	for _, s := range sessions {
		p.TotalEarned += s.SatoshisEarned
		p.TotalSpent += s.SatoshisSpent
		p.StatusCounts[s.Status]++

		if !matchesStatus(s, q.StatusFilter) {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(s.Name), needle) {
			continue
		}
		p.Sessions = append(p.Sessions, s)
	}

	sort.SliceStable(p.Sessions, func(i, j int) bool {
		return idCollator.CompareString(p.Sessions[i].ID, p.Sessions[j].ID) < 0
	})
	return p
}

func matchesStatus(s domain.Session, filter string) bool {
	if filter == "" || filter == FilterAll {
		return true
	}
	return string(s.Status) == filter
}
