package worklist

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"opsboard/domain"
)

func keys(tasks []domain.DerivedTask) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Key)
	}
	return out
}

func findKey(tasks []domain.DerivedTask, key string) (domain.DerivedTask, bool) {
	for _, t := range tasks {
		if t.Key == key {
			return t, true
		}
	}
	return domain.DerivedTask{}, false
}

func sampleSnapshot() *Snapshot {
	return NewSnapshot(
		[]domain.Customer{{ID: 1, FirstName: "Anna", LastName: "Auer"}},
		[]domain.Instrument{
			{ID: 5, Model: "TD-17", Condition: domain.ConditionDefective, Availability: domain.AvailabilityRented},
			{ID: 6, Model: "Cajon", Condition: domain.ConditionDefective, Availability: domain.AvailabilityInactive},
			{ID: 7, Model: "Snare", Condition: domain.ConditionGood, Availability: domain.AvailabilityInStock, MissingAccessories: "Stick bag"},
			{ID: 8, Model: "Bongos", Availability: domain.AvailabilityInactive, MissingAccessories: "Skins"},
			{ID: 10, Model: "TD-07", Availability: domain.AvailabilityRented},
		},
		[]domain.PricingModel{
			{ID: 2, Name: "E-Drum"},
			{ID: 3, Name: "TD-07", InstrumentIDs: []int{10}},
		},
		[]domain.Offer{
			{ID: 9, Status: domain.OfferAccepted, Products: "E-Drum Set TD-07", CustomerIDs: []int{1}},
			{ID: 11, Status: domain.OfferAccepted, Products: "Congas", CustomerIDs: []int{99}},
			{ID: 12, Status: domain.OfferSent, Products: "E-Drum"},
		},
		nil,
	)
}

func TestDeriveEmptySnapshot(t *testing.T) {
	s := NewSnapshot(nil, nil, nil, nil, nil)
	if got := Derive(s); len(got) != 0 {
		t.Fatalf("expected no tasks, got %#v", got)
	}
	if got := Derive(nil); len(got) != 0 {
		t.Fatalf("expected no tasks for nil snapshot, got %#v", got)
	}
}

func TestDeriveIsDeterministic(t *testing.T) {
	s := sampleSnapshot()
	first := Derive(s)
	second := Derive(s)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("derive not deterministic (-first +second):\n%s", diff)
	}
	rebuilt := Derive(sampleSnapshot())
	if diff := cmp.Diff(keys(first), keys(rebuilt)); diff != "" {
		t.Fatalf("keys changed after reload (-first +rebuilt):\n%s", diff)
	}
	want := []string{"defekt-5", "zubehoer-7", "bestellen-9-2", "bestellen-9-3", "angebot-11"}
	if diff := cmp.Diff(want, keys(first)); diff != "" {
		t.Fatalf("unexpected keys (-want +got):\n%s", diff)
	}
}

func TestDefectiveInstruments(t *testing.T) {
	s := NewSnapshot(nil, []domain.Instrument{
		{ID: 5, Condition: domain.ConditionDefective, Availability: domain.AvailabilityRented},
		{ID: 6, Condition: domain.ConditionDefective, Availability: domain.AvailabilityInactive},
		{ID: 7, Condition: domain.ConditionDefective, Availability: domain.AvailabilityInStock, Model: "Snare"},
		{ID: 8, Condition: domain.ConditionDefective},
		{ID: 9, Condition: domain.ConditionUsed, Availability: domain.AvailabilityInStock},
	}, nil, nil, nil)

	got := DefectiveInstruments(s)
	if diff := cmp.Diff([]string{"defekt-5", "defekt-7", "defekt-8"}, keys(got)); diff != "" {
		t.Fatalf("unexpected keys (-want +got):\n%s", diff)
	}
	want := domain.DerivedTask{
		Key:          "defekt-5",
		Title:        "Defective instrument: Unknown",
		Type:         domain.TypeManual,
		Priority:     domain.PriorityHigh,
		InstrumentID: 5,
	}
	if diff := cmp.Diff(want, got[0]); diff != "" {
		t.Fatalf("unexpected task (-want +got):\n%s", diff)
	}
	if got[1].Title != "Defective instrument: Snare" {
		t.Fatalf("unexpected title %q", got[1].Title)
	}
}

func TestMissingAccessories(t *testing.T) {
	s := NewSnapshot(nil, []domain.Instrument{
		{ID: 1, MissingAccessories: "   "},
		{ID: 2, MissingAccessories: " Pedal ", Model: "TD-17", Availability: domain.AvailabilityRented},
		{ID: 3, MissingAccessories: "Throne", Availability: domain.AvailabilityInactive},
	}, nil, nil, nil)

	got := MissingAccessories(s)
	want := []domain.DerivedTask{{
		Key:          "zubehoer-2",
		Title:        "Missing accessories: Pedal on TD-17",
		Type:         domain.TypeProcureAccessory,
		Priority:     domain.PriorityMedium,
		InstrumentID: 2,
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected tasks (-want +got):\n%s", diff)
	}
}

func TestUnfulfilledOffersSkipsOffersWithRentals(t *testing.T) {
	statuses := []domain.RentalStatus{domain.RentalEnded, domain.RentalRequested, domain.RentalActive, ""}
	for _, st := range statuses {
		t.Run("rental references offer/"+string(st), func(t *testing.T) {
			s := NewSnapshot(nil, nil, nil,
				[]domain.Offer{{ID: 9, Status: domain.OfferAccepted, Products: "E-Drum"}},
				[]domain.Rental{{ID: 1, Status: st, OfferIDs: []int{9}}},
			)
			if got := UnfulfilledOffers(s); len(got) != 0 {
				t.Fatalf("expected no tasks, got %#v", got)
			}
		})
	}
	t.Run("offer links rental", func(t *testing.T) {
		s := NewSnapshot(nil, nil, nil,
			[]domain.Offer{{ID: 9, Status: domain.OfferAccepted, RentalIDs: []int{40}}},
			nil,
		)
		if got := UnfulfilledOffers(s); len(got) != 0 {
			t.Fatalf("expected no tasks, got %#v", got)
		}
	})
}

func TestUnfulfilledOffersGenericTask(t *testing.T) {
	s := NewSnapshot(
		[]domain.Customer{{ID: 4, FirstName: "Ben", LastName: "Becker"}},
		nil,
		[]domain.PricingModel{{ID: 2, Name: "E-Drum"}},
		[]domain.Offer{
			{ID: 20, Status: domain.OfferAccepted, Products: "Congas", CustomerIDs: []int{4}},
			{ID: 21, Status: domain.OfferAccepted, CustomerIDs: []int{404}},
			{ID: 22, Status: domain.OfferRejected, Products: "Congas"},
		},
		nil,
	)
	got := UnfulfilledOffers(s)
	want := []domain.DerivedTask{
		{
			Key:        "angebot-20",
			Title:      "Prepare instrument: Congas for Ben Becker (offer #20)",
			Type:       domain.TypePrepareInstrument,
			Priority:   domain.PriorityHigh,
			OfferID:    20,
			CustomerID: 4,
		},
		{
			Key:        "angebot-21",
			Title:      "Prepare instrument: – for Unknown (offer #21)",
			Type:       domain.TypePrepareInstrument,
			Priority:   domain.PriorityHigh,
			OfferID:    21,
			CustomerID: 404,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected tasks (-want +got):\n%s", diff)
	}
}

func TestScenarioDefectiveRented(t *testing.T) {
	s := NewSnapshot(nil, []domain.Instrument{
		{ID: 5, Condition: domain.ConditionDefective, Availability: domain.AvailabilityRented},
	}, nil, nil, nil)
	task, ok := findKey(Derive(s), "defekt-5")
	if !ok {
		t.Fatalf("expected defekt-5")
	}
	if task.Priority != domain.PriorityHigh {
		t.Fatalf("unexpected priority %q", task.Priority)
	}
	if task.Status() != domain.StatusOpen || task.Source() != domain.SourceAutomatic {
		t.Fatalf("derived task must be open and automatic")
	}
}

func TestScenarioModelWithoutInstruments(t *testing.T) {
	s := NewSnapshot(nil, nil,
		[]domain.PricingModel{{ID: 2, Name: "E-Drum"}},
		[]domain.Offer{{ID: 9, Status: domain.OfferAccepted, Products: "E-Drum Set"}},
		nil,
	)
	got := Derive(s)
	if diff := cmp.Diff([]string{"bestellen-9-2"}, keys(got)); diff != "" {
		t.Fatalf("unexpected keys (-want +got):\n%s", diff)
	}
	if got[0].Type != domain.TypeProcureAccessory {
		t.Fatalf("expected procure accessory, got %q", got[0].Type)
	}
	if got[0].Priority != domain.PriorityHigh || got[0].OfferID != 9 {
		t.Fatalf("unexpected task %#v", got[0])
	}
}

func TestScenarioModelInStock(t *testing.T) {
	s := NewSnapshot(nil,
		[]domain.Instrument{{ID: 30, Availability: domain.AvailabilityInStock, Condition: domain.ConditionGood}},
		[]domain.PricingModel{{ID: 2, Name: "E-Drum", InstrumentIDs: []int{30}}},
		[]domain.Offer{{ID: 9, Status: domain.OfferAccepted, Products: "E-Drum Set"}},
		nil,
	)
	if got := Derive(s); len(got) != 0 {
		t.Fatalf("expected no tasks, got %#v", got)
	}
}

func TestUnfulfilledOffersOrderInstrument(t *testing.T) {
	s := NewSnapshot(
		[]domain.Customer{{ID: 1, FirstName: "Anna"}},
		[]domain.Instrument{
			{ID: 30, Availability: domain.AvailabilityRented},
			{ID: 31, Availability: domain.AvailabilityInactive},
		},
		[]domain.PricingModel{
			{ID: 2, Name: "E-Drum", InstrumentIDs: []int{30, 31}},
			{ID: 3, Name: "Ghost", InstrumentIDs: []int{999}},
		},
		[]domain.Offer{{ID: 9, Status: domain.OfferAccepted, Products: "E-Drum ghost", CustomerIDs: []int{1}}},
		nil,
	)
	got := UnfulfilledOffers(s)
	want := []domain.DerivedTask{
		{
			Key:        "bestellen-9-2",
			Title:      "Order instrument: E-Drum for offer #9",
			Type:       domain.TypeOrderInstrument,
			Priority:   domain.PriorityHigh,
			OfferID:    9,
			CustomerID: 1,
		},
		{
			Key:        "bestellen-9-3",
			Title:      "Order instrument: Ghost for offer #9",
			Type:       domain.TypeOrderInstrument,
			Priority:   domain.PriorityHigh,
			OfferID:    9,
			CustomerID: 1,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected tasks (-want +got):\n%s", diff)
	}
}

func TestSnapshotLookups(t *testing.T) {
	s := sampleSnapshot()
	if c, ok := s.CustomerByID(1); !ok || c.FirstName != "Anna" {
		t.Fatalf("unexpected customer lookup: %#v, %v", c, ok)
	}
	if _, ok := s.CustomerByID(404); ok {
		t.Fatalf("expected missing customer")
	}
	if i, ok := s.InstrumentByID(7); !ok || i.Model != "Snare" {
		t.Fatalf("unexpected instrument lookup: %#v, %v", i, ok)
	}
	if _, ok := s.InstrumentByID(0); ok {
		t.Fatalf("expected missing instrument")
	}
}
