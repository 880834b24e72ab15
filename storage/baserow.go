package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"

	"opsboard/domain"
)

const (
	moduleName    = "opsboard/storage"
	moduleVersion = "v1.0.0"

	defaultPageSize = 200
	maxPageSize     = 200
)

var (
	// ErrTableNotAllowed is returned for tables outside the configured set.
	ErrTableNotAllowed = errors.New("table not allowed")
	// ErrInvalidRowID is returned for non-positive row ids.
	ErrInvalidRowID = errors.New("invalid row id")
)

// Tables holds the record store table ids. Tasks may be 0 when no task table exists.
type Tables struct {
	Instruments   int
	Customers     int
	Rentals       int
	PricingModels int
	Offers        int
	Tasks         int
}

// DefaultTables are the table ids of the production database.
var DefaultTables = Tables{
	Instruments:   783,
	Customers:     784,
	Rentals:       785,
	PricingModels: 786,
	Offers:        787,
	Tasks:         852,
}

func (t Tables) ids() []int {
	ids := []int{t.Instruments, t.Customers, t.Rentals, t.PricingModels, t.Offers}
	if t.Tasks > 0 {
		ids = append(ids, t.Tasks)
	}
	return ids
}

// BaserowOptions tunes the record store client.
type BaserowOptions struct {
	PageSize  int
	Retry     *policy.RetryOptions
	Transport policy.Transporter
}

// Baserow talks to the hosted tabular database over its REST API.
type Baserow struct {
	endpoint string
	pipeline runtime.Pipeline
	pageSize int
	allowed  map[int]struct{}
}

// tokenPolicy adds the database token to every request.
type tokenPolicy struct{ token string }

func (p tokenPolicy) Do(req *policy.Request) (*http.Response, error) {
	req.Raw().Header.Set("Authorization", "Token "+p.token)
	return req.Next()
}

// NewBaserow creates a client for the database at baseURL restricted to tables.
func NewBaserow(baseURL, token string, tables Tables, opts *BaserowOptions) (*Baserow, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if token == "" {
		return nil, errors.New("missing database token")
	}
	if opts == nil {
		opts = &BaserowOptions{}
	}
	retry := policy.RetryOptions{
		MaxRetries:    3,
		TryTimeout:    time.Minute,
		RetryDelay:    time.Second * 1,
		MaxRetryDelay: time.Second * 15,
		StatusCodes:   []int{408, 429, 500, 502, 503, 504},
	}
	if opts.Retry != nil {
		retry = *opts.Retry
	}
	clientOpts := policy.ClientOptions{
		Retry:           retry,
		Transport:       opts.Transport,
		PerCallPolicies: []policy.Policy{tokenPolicy{token: token}},
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	allowed := make(map[int]struct{})
	for _, id := range tables.ids() {
		if id > 0 {
			allowed[id] = struct{}{}
		}
	}
	return &Baserow{
		endpoint: strings.TrimRight(baseURL, "/"),
		pipeline: runtime.NewPipeline(moduleName, moduleVersion, runtime.PipelineOptions{}, &clientOpts),
		pageSize: pageSize,
		allowed:  allowed,
	}, nil
}

type listRowsResponse struct {
	Count   int          `json:"count"`
	Next    *string      `json:"next"`
	Results []domain.Row `json:"results"`
}

func (b *Baserow) checkTable(table int) error {
	if _, ok := b.allowed[table]; !ok {
		return fmt.Errorf("%w: %d", ErrTableNotAllowed, table)
	}
	return nil
}

func (b *Baserow) tableURL(table int, rowID int) string {
	u := b.endpoint + "/api/database/rows/table/" + strconv.Itoa(table) + "/"
	if rowID > 0 {
		u += strconv.Itoa(rowID) + "/"
	}
	return u + "?user_field_names=true"
}

// ListRows fetches every row of a table, following pagination.
func (b *Baserow) ListRows(ctx context.Context, table int) ([]domain.Row, error) {
	if err := b.checkTable(table); err != nil {
		return nil, err
	}
	rows := []domain.Row{}
	for page := 1; ; page++ {
		endpoint := b.tableURL(table, 0) + "&size=" + strconv.Itoa(b.pageSize) + "&page=" + strconv.Itoa(page)
		req, err := runtime.NewRequest(ctx, http.MethodGet, endpoint)
		if err != nil {
			return nil, err
		}
		resp, err := b.pipeline.Do(req)
		if err != nil {
			return nil, err
		}
		if !runtime.HasStatusCode(resp, http.StatusOK) {
			return nil, runtime.NewResponseError(resp)
		}
		var body listRowsResponse
		if err := runtime.UnmarshalAsJSON(resp, &body); err != nil {
			return nil, fmt.Errorf("decode table %d page %d: %w", table, page, err)
		}
		rows = append(rows, body.Results...)
		if body.Next == nil || len(body.Results) == 0 {
			return rows, nil
		}
	}
}

// CreateRow inserts a row and returns it as stored.
func (b *Baserow) CreateRow(ctx context.Context, table int, fields map[string]any) (domain.Row, error) {
	if err := b.checkTable(table); err != nil {
		return nil, err
	}
	return b.send(ctx, http.MethodPost, b.tableURL(table, 0), fields)
}

// UpdateRow patches the given fields of a row and returns it as stored.
func (b *Baserow) UpdateRow(ctx context.Context, table, rowID int, fields map[string]any) (domain.Row, error) {
	if err := b.checkTable(table); err != nil {
		return nil, err
	}
	if rowID <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRowID, rowID)
	}
	return b.send(ctx, http.MethodPatch, b.tableURL(table, rowID), fields)
}

func (b *Baserow) send(ctx context.Context, method, endpoint string, fields map[string]any) (domain.Row, error) {
	req, err := runtime.NewRequest(ctx, method, endpoint)
	if err != nil {
		return nil, err
	}
	if err := runtime.MarshalAsJSON(req, fields); err != nil {
		return nil, err
	}
	resp, err := b.pipeline.Do(req)
	if err != nil {
		return nil, err
	}
	if !runtime.HasStatusCode(resp, http.StatusOK, http.StatusCreated) {
		return nil, runtime.NewResponseError(resp)
	}
	var row domain.Row
	if err := runtime.UnmarshalAsJSON(resp, &row); err != nil {
		return nil, err
	}
	return row, nil
}
