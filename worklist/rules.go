package worklist

import (
	"fmt"
	"strconv"
	"strings"

	"opsboard/domain"
)

// Derivation key prefixes. Keys always start with a letter so they never read as store ids.
const (
	keyDefective   = "defekt-"
	keyAccessories = "zubehoer-"
	keyOffer       = "angebot-"
	keyOrder       = "bestellen-"
)

const unknownName = "Unknown"

// Rule scans a snapshot and emits derived tasks. Rules never read each other's output.
type Rule func(*Snapshot) []domain.DerivedTask

// DefaultRules lists the rules in output order.
var DefaultRules = []Rule{
	DefectiveInstruments,
	MissingAccessories,
	UnfulfilledOffers,
}

// Derive runs DefaultRules over s.
func Derive(s *Snapshot) []domain.DerivedTask {
	return DeriveWith(s, DefaultRules...)
}

// DeriveWith runs rules in order and concatenates their output.
func DeriveWith(s *Snapshot, rules ...Rule) []domain.DerivedTask {
	if s == nil {
		return nil
	}
	var tasks []domain.DerivedTask
	for _, r := range rules {
		tasks = append(tasks, r(s)...)
	}
	return tasks
}

// DefectiveInstruments flags defective instruments that are still in circulation.
func DefectiveInstruments(s *Snapshot) []domain.DerivedTask {
	var tasks []domain.DerivedTask
	for _, i := range s.Instruments {
		if i.Condition != domain.ConditionDefective || i.Availability == domain.AvailabilityInactive {
			continue
		}
		tasks = append(tasks, domain.DerivedTask{
			Key:          keyDefective + strconv.Itoa(i.ID),
			Title:        "Defective instrument: " + orUnknown(i.Model),
			Type:         domain.TypeManual,
			Priority:     domain.PriorityHigh,
			InstrumentID: i.ID,
		})
	}
	return tasks
}

// MissingAccessories flags active instruments with a recorded accessory gap.
func MissingAccessories(s *Snapshot) []domain.DerivedTask {
	var tasks []domain.DerivedTask
	for _, i := range s.Instruments {
		missing := strings.TrimSpace(i.MissingAccessories)
		if missing == "" || i.Availability == domain.AvailabilityInactive {
			continue
		}
		tasks = append(tasks, domain.DerivedTask{
			Key:          keyAccessories + strconv.Itoa(i.ID),
			Title:        fmt.Sprintf("Missing accessories: %s on %s", missing, orUnknown(i.Model)),
			Type:         domain.TypeProcureAccessory,
			Priority:     domain.PriorityMedium,
			InstrumentID: i.ID,
		})
	}
	return tasks
}

// UnfulfilledOffers turns accepted offers without any rental into preparation or
// procurement work. Products are resolved to pricing models by name; a model that
// has an instrument in stock needs nothing.
func UnfulfilledOffers(s *Snapshot) []domain.DerivedTask {
	var tasks []domain.DerivedTask
	for _, o := range s.Offers {
		if o.Status != domain.OfferAccepted {
			continue
		}
		if len(o.RentalIDs) > 0 || s.RentalsForOffer(o.ID) > 0 {
			continue
		}
		customerID := domain.FirstID(o.CustomerIDs)
		offerKey := strconv.Itoa(o.ID)

		matched := MatchPricingModels(o.Products, s.PricingModels)
		if len(matched) == 0 {
			products := strings.TrimSpace(o.Products)
			if products == "" {
				products = "–"
			}
			tasks = append(tasks, domain.DerivedTask{
				Key:        keyOffer + offerKey,
				Title:      fmt.Sprintf("Prepare instrument: %s for %s (offer #%d)", products, customerName(s, customerID), o.ID),
				Type:       domain.TypePrepareInstrument,
				Priority:   domain.PriorityHigh,
				OfferID:    o.ID,
				CustomerID: customerID,
			})
			continue
		}

		for _, m := range matched {
			if hasInStock(s, m) {
				continue
			}
			typ, verb := domain.TypeOrderInstrument, "Order instrument"
			if len(m.InstrumentIDs) == 0 {
				typ, verb = domain.TypeProcureAccessory, "Procure accessory"
			}
			tasks = append(tasks, domain.DerivedTask{
				Key:        keyOrder + offerKey + "-" + strconv.Itoa(m.ID),
				Title:      fmt.Sprintf("%s: %s for offer #%d", verb, strings.TrimSpace(m.Name), o.ID),
				Type:       typ,
				Priority:   domain.PriorityHigh,
				OfferID:    o.ID,
				CustomerID: customerID,
			})
		}
	}
	return tasks
}

func hasInStock(s *Snapshot, m domain.PricingModel) bool {
	for _, id := range m.InstrumentIDs {
		if i, ok := s.InstrumentByID(id); ok && i.Availability == domain.AvailabilityInStock {
			return true
		}
	}
	return false
}

func customerName(s *Snapshot, id int) string {
	c, ok := s.CustomerByID(id)
	if !ok {
		return unknownName
	}
	return orUnknown(c.DisplayName())
}

func orUnknown(v string) string {
	if v = strings.TrimSpace(v); v == "" {
		return unknownName
	}
	return v
}
