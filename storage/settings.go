package storage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"opsboard/domain"
)

// SettingsStore persists dashboard settings per user.
type SettingsStore interface {
	FetchSettings(ctx context.Context, userID string) (domain.Settings, error)
	SaveSettings(ctx context.Context, userID string, s domain.Settings) error
}

// TableSettings keeps settings in an Azure Tables table keyed by user id.
type TableSettings struct {
	table *aztables.Client
}

// NewTableSettings creates a settings store from the given connection string.
func NewTableSettings(connStr, settingsTable string) (*TableSettings, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return &TableSettings{table: svc.NewClient(settingsTable)}, nil
}

// EnsureTable creates the settings table unless it already exists.
func (s *TableSettings) EnsureTable(ctx context.Context) error {
	_, err := s.table.CreateTable(ctx, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists) {
			return nil
		}
		return err
	}
	return nil
}

func decodeSettingsEntity(data []byte) (domain.Settings, error) {
	var raw struct {
		ShowDoneTasks bool `json:"ShowDoneTasks"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.Settings{}, err
	}
	return domain.Settings{ShowDoneTasks: raw.ShowDoneTasks}, nil
}

// FetchSettings returns the stored settings or defaults when none exist yet.
func (s *TableSettings) FetchSettings(ctx context.Context, userID string) (domain.Settings, error) {
	ent, err := s.table.GetEntity(ctx, userID, userID, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return domain.Settings{}, nil
		}
		return domain.Settings{}, err
	}
	return decodeSettingsEntity(ent.Value)
}

// SaveSettings replaces the stored settings.
func (s *TableSettings) SaveSettings(ctx context.Context, userID string, settings domain.Settings) error {
	payload, err := json.Marshal(map[string]any{
		"PartitionKey":  userID,
		"RowKey":        userID,
		"ShowDoneTasks": settings.ShowDoneTasks,
	})
	if err != nil {
		return err
	}
	_, err = s.table.UpsertEntity(ctx, payload, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	return err
}

// MemorySettings keeps settings in process memory.
type MemorySettings struct {
	mu       sync.RWMutex
	settings map[string]domain.Settings
}

func NewMemorySettings() *MemorySettings {
	return &MemorySettings{settings: make(map[string]domain.Settings)}
}

func (m *MemorySettings) FetchSettings(_ context.Context, userID string) (domain.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings[userID], nil
}

func (m *MemorySettings) SaveSettings(_ context.Context, userID string, s domain.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[userID] = s
	return nil
}
