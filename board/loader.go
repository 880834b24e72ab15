package board

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"opsboard/domain"
	"opsboard/storage"
)

// RowLister lists all rows of a table.
type RowLister interface {
	ListRows(ctx context.Context, table int) ([]domain.Row, error)
}

// Records are the typed collections of one reload.
type Records struct {
	Customers     []domain.Customer
	Instruments   []domain.Instrument
	PricingModels []domain.PricingModel
	Offers        []domain.Offer
	Rentals       []domain.Rental
	Tasks         []domain.Task
}

// Loader fetches every collection of the record store.
type Loader struct {
	store  RowLister
	tables storage.Tables
}

func NewLoader(store RowLister, tables storage.Tables) *Loader {
	return &Loader{store: store, tables: tables}
}

// Load fetches all collections concurrently and waits for all of them. The first
// failure cancels the remaining fetches and fails the whole load; nothing partial
// is returned.
func (l *Loader) Load(ctx context.Context) (*Records, error) {
	var (
		customers, instruments, models, offers, rentals, tasks []domain.Row
	)
	g, gctx := errgroup.WithContext(ctx)
	fetch := func(name string, table int, dst *[]domain.Row) {
		g.Go(func() error {
			rows, err := l.store.ListRows(gctx, table)
			if err != nil {
				return fmt.Errorf("load %s: %w", name, err)
			}
			*dst = rows
			return nil
		})
	}
	fetch("customers", l.tables.Customers, &customers)
	fetch("instruments", l.tables.Instruments, &instruments)
	fetch("pricing models", l.tables.PricingModels, &models)
	fetch("offers", l.tables.Offers, &offers)
	fetch("rentals", l.tables.Rentals, &rentals)
	if l.tables.Tasks > 0 {
		fetch("tasks", l.tables.Tasks, &tasks)
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Records{
		Customers:     domain.ParseCustomers(customers),
		Instruments:   domain.ParseInstruments(instruments),
		PricingModels: domain.ParsePricingModels(models),
		Offers:        domain.ParseOffers(offers),
		Rentals:       domain.ParseRentals(rentals),
		Tasks:         domain.ParseTasks(tasks),
	}, nil
}
