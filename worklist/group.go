package worklist

import "opsboard/domain"

// Groups buckets worklist entries by priority.
type Groups struct {
	High   []Entry `json:"high"`
	Medium []Entry `json:"medium"`
	Low    []Entry `json:"low"`
}

// Group partitions entries by priority, keeping their order. Unless includeDone is
// set, persisted entries that are done are left out; derived entries are always open.
func Group(entries []Entry, includeDone bool) Groups {
	g := Groups{High: []Entry{}, Medium: []Entry{}, Low: []Entry{}}
	for _, e := range entries {
		if !includeDone && !e.Derived && e.Status == domain.StatusDone {
			continue
		}
		switch e.Priority {
		case domain.PriorityHigh:
			g.High = append(g.High, e)
		case domain.PriorityMedium:
			g.Medium = append(g.Medium, e)
		case domain.PriorityLow:
			g.Low = append(g.Low, e)
		}
	}
	return g
}

// Len returns the number of grouped entries.
func (g Groups) Len() int { return len(g.High) + len(g.Medium) + len(g.Low) }
