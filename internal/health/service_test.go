package health

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBroadcaster struct {
	mu       sync.Mutex
	payloads []HealthUpdatePayload
}

func (b *recordingBroadcaster) Broadcast(msgType string, payload interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := payload.(HealthUpdatePayload); ok && msgType == "health:updated" {
		b.payloads = append(b.payloads, p)
	}
	return nil
}

func TestService_StatusTransitions(t *testing.T) {
	s := NewService(zerolog.Nop())
	b := &recordingBroadcaster{}
	s.SetBroadcaster(b)
	s.RegisterItem(CategoryJobs, "reclassify", "Reclassify watch lists")

	s.SetWarning(CategoryJobs, "reclassify", "2 items failed")
	s.SetWarning(CategoryJobs, "reclassify", "2 items failed")
	item := s.GetItem(CategoryJobs, "reclassify")
	require.NotNil(t, item)
	assert.Equal(t, StatusWarning, item.Status)
	assert.NotNil(t, item.Timestamp)

	s.ClearStatus(CategoryJobs, "reclassify")
	item = s.GetItem(CategoryJobs, "reclassify")
	assert.Equal(t, StatusOK, item.Status)
	assert.Nil(t, item.Timestamp)

	require.Len(t, b.payloads, 2, "unchanged status is not rebroadcast")
	assert.Equal(t, StatusWarning, b.payloads[0].Status)
	assert.Equal(t, StatusOK, b.payloads[1].Status)
}

func TestService_UnregisteredItemIgnored(t *testing.T) {
	s := NewService(zerolog.Nop())
	s.SetError(CategoryCatalog, "tmdb", "down")
	assert.Nil(t, s.GetItem(CategoryCatalog, "tmdb"))
}

func TestService_RunChecks(t *testing.T) {
	s := NewService(zerolog.Nop())
	catalogErr := errors.New("catalog unreachable")
	s.RegisterCheck(CategoryCatalog, "tmdb", "TMDB", func(ctx context.Context) error { return catalogErr })
	s.RegisterCheck(CategoryDatabase, "sqlite", "SQLite", func(ctx context.Context) error { return nil })

	s.RunChecks(context.Background(), CategoryDatabase)
	assert.Equal(t, StatusOK, s.GetItem(CategoryCatalog, "tmdb").Status, "other categories are not run")

	s.RunChecks(context.Background(), "")
	item := s.GetItem(CategoryCatalog, "tmdb")
	assert.Equal(t, StatusError, item.Status)
	assert.Equal(t, "catalog unreachable", item.Message)

	summary := s.GetSummary()
	assert.True(t, summary.HasIssues)
	for _, cat := range summary.Categories {
		switch cat.Category {
		case CategoryCatalog:
			assert.Equal(t, 1, cat.Error)
		case CategoryDatabase:
			assert.Equal(t, 1, cat.OK)
		}
	}
}

func TestHealthItem_MarshalOmitsDetailsWhenOK(t *testing.T) {
	s := NewService(zerolog.Nop())
	s.RegisterItem(CategoryStorage, "local", "Local watch list")
	s.SetError(CategoryStorage, "local", "read-only")
	s.ClearStatus(CategoryStorage, "local")

	data, err := s.GetItem(CategoryStorage, "local").MarshalJSON()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "message")
	assert.NotContains(t, string(data), "timestamp")
}
