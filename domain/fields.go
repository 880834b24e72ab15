package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Row is a raw record as returned by the record store: field name to JSON value.
// Values are scalars, single-select wrappers {"id","value"} or link arrays [{"id","value"}].
type Row map[string]any

// Store field names.
const (
	fieldID = "id"

	fieldFirstName = "Vorname"
	fieldLastName  = "Nachname"

	fieldModelName          = "Modellname"
	fieldAvailability       = "Verfügbar"
	fieldCondition          = "Zustand"
	fieldMissingAccessories = "Zubehoer_fehlend"

	fieldName        = "Name"
	fieldInstruments = "Instrumente"

	fieldStatus      = "Status"
	fieldProducts    = "Produkte"
	fieldCustomerIDs = "Kunden_ID"
	fieldRentals     = "Mieten"

	fieldOfferID      = "Angebot_ID"
	fieldInstrumentID = "Instrument_ID"
	fieldCustomerID   = "Kunde_ID"

	FieldTitle         = "Titel"
	FieldDescription   = "Beschreibung"
	FieldType          = "Typ"
	FieldPriority      = "Priorität"
	FieldStatus        = fieldStatus
	FieldSource        = "Quelle"
	FieldCompletedOn   = "Erledigt_am"
	fieldPriorityASCII = "Prioritaet"
)

var (
	taskOfferFields      = []string{"Verknüpfung_Angebot", "Verknuepfung_Angebot"}
	taskCustomerFields   = []string{"Verknüpfung_Kunde", "Verknuepfung_Kunde"}
	taskInstrumentFields = []string{"Verknüpfung_Instrument", "Verknuepfung_Instrument"}
)

var priorityLabels = map[Priority]string{
	PriorityHigh:   "Hoch",
	PriorityMedium: "Mittel",
	PriorityLow:    "Niedrig",
}

var taskStatusLabels = map[TaskStatus]string{
	StatusOpen:       "Offen",
	StatusInProgress: "In Arbeit",
	StatusDone:       "Erledigt",
}

var sourceLabels = map[Source]string{
	SourceManual:    "Manuell",
	SourceAutomatic: "Automatisch",
}

var taskTypeLabels = map[TaskType]string{
	TypeManual:            "Manuell",
	TypePrepareInstrument: "Instrument vorbereiten",
	TypeProcureAccessory:  "Zubehör beschaffen",
	TypeOrderInstrument:   "Instrument bestellen",
}

var availabilityLabels = map[Availability]string{
	AvailabilityInStock:  "Lagernd",
	AvailabilityRented:   "Vermietet",
	AvailabilityInactive: "Inaktiv",
}

var conditionLabels = map[Condition]string{
	ConditionNew:            "Neu",
	ConditionGood:           "Gut",
	ConditionUsed:           "gebraucht",
	ConditionDefective:      "Defekt",
	ConditionDecommissioned: "Ausgemustert / inaktiv",
}

var offerStatusLabels = map[OfferStatus]string{
	OfferOpen:     "offen",
	OfferSent:     "versendet",
	OfferAccepted: "angenommen",
	OfferRejected: "abgelehnt",
	OfferExpired:  "abgelaufen",
}

var rentalStatusLabels = map[RentalStatus]string{
	RentalRequested: "Anfrage",
	RentalOrdered:   "Bestellt",
	RentalReady:     "Bereit",
	RentalActive:    "Aktiv",
	RentalRenewed:   "Verlängert",
	RentalUnlimited: "unbefristet",
	RentalEnded:     "Beendet",
}

// Label returns the store option label.
func (p Priority) Label() string { return priorityLabels[p] }

// Label returns the store option label.
func (s TaskStatus) Label() string { return taskStatusLabels[s] }

// Label returns the store option label.
func (s Source) Label() string { return sourceLabels[s] }

// Label returns the store option label.
func (t TaskType) Label() string { return taskTypeLabels[t] }

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	_, ok := priorityLabels[p]
	return ok
}

// Valid reports whether s is one of the known task states.
func (s TaskStatus) Valid() bool {
	_, ok := taskStatusLabels[s]
	return ok
}

func fromLabel[T ~string](labels map[T]string, label string) T {
	label = strings.TrimSpace(label)
	if label == "" {
		return ""
	}
	for v, l := range labels {
		if strings.EqualFold(l, label) {
			return v
		}
	}
	return ""
}

// ID returns the store-assigned row id, or 0 when absent or not numeric.
func (r Row) ID() int {
	id, _ := toInt(r[fieldID])
	return id
}

func (r Row) text(names ...string) string {
	for _, n := range names {
		if s, ok := r[n].(string); ok {
			return s
		}
	}
	return ""
}

// option reads a single-select value, accepting a bare string as well.
func (r Row) option(names ...string) string {
	for _, n := range names {
		switch v := r[n].(type) {
		case map[string]any:
			if s, ok := v["value"].(string); ok {
				return s
			}
		case string:
			return v
		}
	}
	return ""
}

// links reads the ids of a link field. The first present field wins.
func (r Row) links(names ...string) []int {
	for _, n := range names {
		items, ok := r[n].([]any)
		if !ok || len(items) == 0 {
			continue
		}
		ids := make([]int, 0, len(items))
		for _, it := range items {
			var raw any = it
			if m, ok := it.(map[string]any); ok {
				raw = m["id"]
			}
			if id, ok := toInt(raw); ok && id > 0 {
				ids = append(ids, id)
			}
		}
		if len(ids) > 0 {
			return ids
		}
	}
	return nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	}
	return 0, false
}

// ParseCustomer converts a row. ok is false when the row has no id.
func ParseCustomer(r Row) (Customer, bool) {
	id := r.ID()
	if id <= 0 {
		return Customer{}, false
	}
	return Customer{ID: id, FirstName: r.text(fieldFirstName), LastName: r.text(fieldLastName)}, true
}

// ParseInstrument converts a row. ok is false when the row has no id.
func ParseInstrument(r Row) (Instrument, bool) {
	id := r.ID()
	if id <= 0 {
		return Instrument{}, false
	}
	return Instrument{
		ID:                 id,
		Model:              r.text(fieldModelName),
		Availability:       fromLabel(availabilityLabels, r.option(fieldAvailability)),
		Condition:          fromLabel(conditionLabels, r.option(fieldCondition)),
		MissingAccessories: r.text(fieldMissingAccessories),
	}, true
}

// ParsePricingModel converts a row. ok is false when the row has no id.
func ParsePricingModel(r Row) (PricingModel, bool) {
	id := r.ID()
	if id <= 0 {
		return PricingModel{}, false
	}
	return PricingModel{ID: id, Name: r.text(fieldName), InstrumentIDs: r.links(fieldInstruments)}, true
}

// ParseOffer converts a row. ok is false when the row has no id.
func ParseOffer(r Row) (Offer, bool) {
	id := r.ID()
	if id <= 0 {
		return Offer{}, false
	}
	return Offer{
		ID:          id,
		Status:      fromLabel(offerStatusLabels, r.option(fieldStatus)),
		Products:    r.text(fieldProducts),
		CustomerIDs: r.links(fieldCustomerIDs),
		RentalIDs:   r.links(fieldRentals),
	}, true
}

// ParseRental converts a row. ok is false when the row has no id.
func ParseRental(r Row) (Rental, bool) {
	id := r.ID()
	if id <= 0 {
		return Rental{}, false
	}
	return Rental{
		ID:            id,
		Status:        fromLabel(rentalStatusLabels, r.option(fieldStatus)),
		OfferIDs:      r.links(fieldOfferID),
		InstrumentIDs: r.links(fieldInstrumentID),
		CustomerIDs:   r.links(fieldCustomerID),
	}, true
}

// ParseTask converts a row. Missing options stay empty; defaults are applied by the reconciler.
func ParseTask(r Row) (Task, bool) {
	id := r.ID()
	if id <= 0 {
		return Task{}, false
	}
	return Task{
		ID:            id,
		Title:         r.text(FieldTitle),
		Description:   r.text(FieldDescription),
		Type:          fromLabel(taskTypeLabels, r.option(FieldType)),
		Priority:      fromLabel(priorityLabels, r.option(FieldPriority, fieldPriorityASCII)),
		Status:        fromLabel(taskStatusLabels, r.option(FieldStatus)),
		Source:        fromLabel(sourceLabels, r.option(FieldSource)),
		OfferIDs:      r.links(taskOfferFields...),
		CustomerIDs:   r.links(taskCustomerFields...),
		InstrumentIDs: r.links(taskInstrumentFields...),
		CompletedOn:   r.text(FieldCompletedOn),
	}, true
}

func parseAll[T any](rows []Row, parse func(Row) (T, bool)) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if v, ok := parse(r); ok {
			out = append(out, v)
		}
	}
	return out
}

func ParseCustomers(rows []Row) []Customer         { return parseAll(rows, ParseCustomer) }
func ParseInstruments(rows []Row) []Instrument     { return parseAll(rows, ParseInstrument) }
func ParsePricingModels(rows []Row) []PricingModel { return parseAll(rows, ParsePricingModel) }
func ParseOffers(rows []Row) []Offer               { return parseAll(rows, ParseOffer) }
func ParseRentals(rows []Row) []Rental             { return parseAll(rows, ParseRental) }
func ParseTasks(rows []Row) []Task                 { return parseAll(rows, ParseTask) }

// NewTaskFields builds the store payload for a manually created task.
func NewTaskFields(title, description string, p Priority) map[string]any {
	if !p.Valid() {
		p = PriorityMedium
	}
	fields := map[string]any{
		FieldTitle:    strings.TrimSpace(title),
		FieldPriority: p.Label(),
		FieldType:     TypeManual.Label(),
		FieldSource:   SourceManual.Label(),
		FieldStatus:   StatusOpen.Label(),
	}
	if d := strings.TrimSpace(description); d != "" {
		fields[FieldDescription] = d
	}
	return fields
}

// StatusFields builds the store payload for a status transition. today is written
// as completion date when the task becomes done.
func StatusFields(s TaskStatus, today string) map[string]any {
	fields := map[string]any{FieldStatus: s.Label()}
	if s == StatusDone {
		fields[FieldCompletedOn] = today
	}
	return fields
}
