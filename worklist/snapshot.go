// Package worklist derives the operations worklist from a snapshot of business
// records and merges it with persisted tasks. Everything here is pure: no I/O,
// no shared mutable state, same input gives the same output.
package worklist

import "opsboard/domain"

// Snapshot is an immutable view of the records loaded by one reload.
type Snapshot struct {
	Customers     []domain.Customer
	Instruments   []domain.Instrument
	PricingModels []domain.PricingModel
	Offers        []domain.Offer
	Rentals       []domain.Rental

	customerByID   map[int]domain.Customer
	instrumentByID map[int]domain.Instrument
	rentalsByOffer map[int]int
}

// NewSnapshot builds a snapshot and its lookup indices. Any collection may be empty.
// Callers must not modify the slices afterwards.
func NewSnapshot(customers []domain.Customer, instruments []domain.Instrument, models []domain.PricingModel, offers []domain.Offer, rentals []domain.Rental) *Snapshot {
	s := &Snapshot{
		Customers:      customers,
		Instruments:    instruments,
		PricingModels:  models,
		Offers:         offers,
		Rentals:        rentals,
		customerByID:   make(map[int]domain.Customer, len(customers)),
		instrumentByID: make(map[int]domain.Instrument, len(instruments)),
		rentalsByOffer: make(map[int]int),
	}
	for _, c := range customers {
		s.customerByID[c.ID] = c
	}
	for _, i := range instruments {
		s.instrumentByID[i.ID] = i
	}
	for _, r := range rentals {
		for _, offerID := range r.OfferIDs {
			s.rentalsByOffer[offerID]++
		}
	}
	return s
}

// CustomerByID returns the customer with the given id; ok is false when unknown.
func (s *Snapshot) CustomerByID(id int) (domain.Customer, bool) {
	c, ok := s.customerByID[id]
	return c, ok
}

// InstrumentByID returns the instrument with the given id; ok is false when unknown.
func (s *Snapshot) InstrumentByID(id int) (domain.Instrument, bool) {
	i, ok := s.instrumentByID[id]
	return i, ok
}

// RentalsForOffer counts rentals of any status that reference the offer.
func (s *Snapshot) RentalsForOffer(offerID int) int {
	return s.rentalsByOffer[offerID]
}
