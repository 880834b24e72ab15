package worklist

import (
	"strconv"
	"strings"

	"opsboard/domain"
)

// Entry is one canonical item of the merged worklist.
type Entry struct {
	ID           int               `json:"id,omitempty"`
	Key          string            `json:"deriveKey,omitempty"`
	Derived      bool              `json:"isDerived"`
	Title        string            `json:"title"`
	Description  string            `json:"description,omitempty"`
	Type         domain.TaskType   `json:"type"`
	Priority     domain.Priority   `json:"priority"`
	Status       domain.TaskStatus `json:"status"`
	Source       domain.Source     `json:"source"`
	OfferID      int               `json:"offerId,omitempty"`
	CustomerID   int               `json:"customerId,omitempty"`
	InstrumentID int               `json:"instrumentId,omitempty"`
	CompletedOn  string            `json:"completedOn,omitempty"`
}

// Ref is the display identity: the decimal store id or the derivation key.
func (e Entry) Ref() string {
	if e.Derived {
		return e.Key
	}
	return strconv.Itoa(e.ID)
}

// Open reports whether the entry still needs work.
func (e Entry) Open() bool { return e.Status != domain.StatusDone }

// Reconciled is the merged worklist with its aggregate indicators.
type Reconciled struct {
	Entries             []Entry `json:"entries"`
	OpenCount           int     `json:"openCount"`
	HasHighPriorityOpen bool    `json:"hasHighPriorityOpen"`
}

// Reconcile merges persisted tasks (first) and derived tasks (second), keeping
// relative order within each group. Derived tasks sharing a key collapse into one.
func Reconcile(persisted []domain.Task, derived []domain.DerivedTask) Reconciled {
	out := Reconciled{Entries: make([]Entry, 0, len(persisted)+len(derived))}
	for _, t := range persisted {
		out.add(normalizeTask(t))
	}
	seen := make(map[string]struct{}, len(derived))
	for _, d := range derived {
		if _, dup := seen[d.Key]; dup {
			continue
		}
		seen[d.Key] = struct{}{}
		out.add(Entry{
			Key:          d.Key,
			Derived:      true,
			Title:        d.Title,
			Type:         d.Type,
			Priority:     d.Priority,
			Status:       d.Status(),
			Source:       d.Source(),
			OfferID:      d.OfferID,
			CustomerID:   d.CustomerID,
			InstrumentID: d.InstrumentID,
		})
	}
	return out
}

func (r *Reconciled) add(e Entry) {
	r.Entries = append(r.Entries, e)
	if !e.Open() {
		return
	}
	r.OpenCount++
	if e.Priority == domain.PriorityHigh {
		r.HasHighPriorityOpen = true
	}
}

func normalizeTask(t domain.Task) Entry {
	e := Entry{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		Type:         t.Type,
		Priority:     t.Priority,
		Status:       t.Status,
		Source:       t.Source,
		OfferID:      domain.FirstID(t.OfferIDs),
		CustomerID:   domain.FirstID(t.CustomerIDs),
		InstrumentID: domain.FirstID(t.InstrumentIDs),
		CompletedOn:  t.CompletedOn,
	}
	if e.Type == "" {
		e.Type = domain.TypeManual
	}
	if e.Priority == "" {
		e.Priority = domain.PriorityMedium
	}
	if e.Status == "" {
		e.Status = domain.StatusOpen
	}
	if e.Source == "" {
		e.Source = domain.SourceManual
	}
	return e
}

// Stats counts entries by status for the dashboard header.
type Stats struct {
	Open       int `json:"open"`
	InProgress int `json:"inProgress"`
	DoneToday  int `json:"doneToday"`
}

// Summarize counts open and in-progress entries and those completed on today (YYYY-MM-DD).
func Summarize(entries []Entry, today string) Stats {
	var st Stats
	for _, e := range entries {
		switch e.Status {
		case domain.StatusOpen:
			st.Open++
		case domain.StatusInProgress:
			st.InProgress++
		case domain.StatusDone:
			if today != "" && strings.HasPrefix(e.CompletedOn, today) {
				st.DoneToday++
			}
		}
	}
	return st
}
