package worklist

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"opsboard/domain"
)

func TestReconcileAggregates(t *testing.T) {
	persisted := []domain.Task{{ID: 1, Title: "done", Status: domain.StatusDone, Priority: domain.PriorityHigh}}
	derived := []domain.DerivedTask{{Key: "defekt-5", Title: "Defective instrument: TD-17", Priority: domain.PriorityHigh}}

	got := Reconcile(persisted, derived)
	if got.OpenCount != 1 {
		t.Fatalf("expected open count 1, got %d", got.OpenCount)
	}
	if !got.HasHighPriorityOpen {
		t.Fatalf("expected high priority open item")
	}
}

func TestReconcileHighPriorityIgnoresDone(t *testing.T) {
	got := Reconcile([]domain.Task{
		{ID: 1, Status: domain.StatusDone, Priority: domain.PriorityHigh},
		{ID: 2, Priority: domain.PriorityLow},
	}, []domain.DerivedTask{{Key: "zubehoer-3", Priority: domain.PriorityMedium}})
	if got.HasHighPriorityOpen {
		t.Fatalf("done high priority task must not count")
	}
	if got.OpenCount != 2 {
		t.Fatalf("expected open count 2, got %d", got.OpenCount)
	}
}

func TestReconcileNormalizesAndOrders(t *testing.T) {
	persisted := []domain.Task{
		{ID: 7, Title: "Call customer", CustomerIDs: []int{4, 5}},
		{ID: 3, Title: "Repair", Priority: domain.PriorityLow, Status: domain.StatusInProgress, Source: domain.SourceAutomatic, Type: domain.TypeOrderInstrument, InstrumentIDs: []int{9}},
	}
	derived := []domain.DerivedTask{
		{Key: "defekt-5", Title: "a", Type: domain.TypeManual, Priority: domain.PriorityHigh, InstrumentID: 5},
		{Key: "angebot-2", Title: "b", Type: domain.TypePrepareInstrument, Priority: domain.PriorityHigh, OfferID: 2, CustomerID: 4},
		{Key: "defekt-5", Title: "duplicate", Priority: domain.PriorityHigh},
	}

	got := Reconcile(persisted, derived)
	want := []Entry{
		{ID: 7, Title: "Call customer", Type: domain.TypeManual, Priority: domain.PriorityMedium, Status: domain.StatusOpen, Source: domain.SourceManual, CustomerID: 4},
		{ID: 3, Title: "Repair", Type: domain.TypeOrderInstrument, Priority: domain.PriorityLow, Status: domain.StatusInProgress, Source: domain.SourceAutomatic, InstrumentID: 9},
		{Key: "defekt-5", Derived: true, Title: "a", Type: domain.TypeManual, Priority: domain.PriorityHigh, Status: domain.StatusOpen, Source: domain.SourceAutomatic, InstrumentID: 5},
		{Key: "angebot-2", Derived: true, Title: "b", Type: domain.TypePrepareInstrument, Priority: domain.PriorityHigh, Status: domain.StatusOpen, Source: domain.SourceAutomatic, OfferID: 2, CustomerID: 4},
	}
	if diff := cmp.Diff(want, got.Entries); diff != "" {
		t.Fatalf("unexpected entries (-want +got):\n%s", diff)
	}
	if got.OpenCount != 4 {
		t.Fatalf("expected open count 4, got %d", got.OpenCount)
	}
}

func TestReconcileEmpty(t *testing.T) {
	got := Reconcile(nil, nil)
	if len(got.Entries) != 0 || got.OpenCount != 0 || got.HasHighPriorityOpen {
		t.Fatalf("unexpected result: %#v", got)
	}
	if got.Entries == nil {
		t.Fatalf("entries should encode as an empty list")
	}
}

func TestEntryRef(t *testing.T) {
	persisted := Entry{ID: 42}
	derived := Entry{Key: "defekt-42", Derived: true}
	if persisted.Ref() != "42" {
		t.Fatalf("unexpected ref %q", persisted.Ref())
	}
	if derived.Ref() != "defekt-42" {
		t.Fatalf("unexpected ref %q", derived.Ref())
	}
}

func TestSummarize(t *testing.T) {
	entries := Reconcile([]domain.Task{
		{ID: 1, Status: domain.StatusInProgress},
		{ID: 2, Status: domain.StatusDone, CompletedOn: "2026-10-18"},
		{ID: 3, Status: domain.StatusDone, CompletedOn: "2026-10-17"},
		{ID: 4, Status: domain.StatusDone},
		{ID: 5},
	}, []domain.DerivedTask{{Key: "defekt-1", Priority: domain.PriorityHigh}}).Entries

	got := Summarize(entries, "2026-10-18")
	want := Stats{Open: 2, InProgress: 1, DoneToday: 1}
	if got != want {
		t.Fatalf("Summarize = %#v, want %#v", got, want)
	}
}
