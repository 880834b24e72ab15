package domain

import "strings"

// Availability of an instrument unit.
type Availability string

const (
	AvailabilityInStock  Availability = "in-stock"
	AvailabilityRented   Availability = "rented"
	AvailabilityInactive Availability = "inactive"
)

// Condition of an instrument unit.
type Condition string

const (
	ConditionNew            Condition = "new"
	ConditionGood           Condition = "good"
	ConditionUsed           Condition = "used"
	ConditionDefective      Condition = "defective"
	ConditionDecommissioned Condition = "decommissioned"
)

// OfferStatus tracks an offer from draft to decision.
type OfferStatus string

const (
	OfferOpen     OfferStatus = "open"
	OfferSent     OfferStatus = "sent"
	OfferAccepted OfferStatus = "accepted"
	OfferRejected OfferStatus = "rejected"
	OfferExpired  OfferStatus = "expired"
)

// RentalStatus tracks a rental agreement.
type RentalStatus string

const (
	RentalRequested RentalStatus = "requested"
	RentalOrdered   RentalStatus = "ordered"
	RentalReady     RentalStatus = "ready"
	RentalActive    RentalStatus = "active"
	RentalRenewed   RentalStatus = "renewed"
	RentalUnlimited RentalStatus = "unlimited"
	RentalEnded     RentalStatus = "ended"
)

// Customer of the rental business.
type Customer struct {
	ID        int    `json:"id"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// DisplayName joins first and last name, skipping blanks. Empty when both are blank.
func (c Customer) DisplayName() string {
	parts := make([]string, 0, 2)
	for _, p := range []string{c.FirstName, c.LastName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Instrument is a physical rentable unit.
type Instrument struct {
	ID                 int          `json:"id"`
	Model              string       `json:"model,omitempty"`
	Availability       Availability `json:"availability,omitempty"`
	Condition          Condition    `json:"condition,omitempty"`
	MissingAccessories string       `json:"missingAccessories,omitempty"`
}

// PricingModel is a named product template optionally bundling instrument units.
type PricingModel struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	InstrumentIDs []int  `json:"instrumentIds,omitempty"`
}

// Offer is a priced proposal to a customer.
type Offer struct {
	ID          int         `json:"id"`
	Status      OfferStatus `json:"status,omitempty"`
	Products    string      `json:"products,omitempty"`
	CustomerIDs []int       `json:"customerIds,omitempty"`
	RentalIDs   []int       `json:"rentalIds,omitempty"`
}

// Rental is an agreement fulfilling an accepted offer.
type Rental struct {
	ID            int          `json:"id"`
	Status        RentalStatus `json:"status,omitempty"`
	OfferIDs      []int        `json:"offerIds,omitempty"`
	InstrumentIDs []int        `json:"instrumentIds,omitempty"`
	CustomerIDs   []int        `json:"customerIds,omitempty"`
}
