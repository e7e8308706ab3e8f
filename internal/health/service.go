package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Broadcaster defines the interface for sending WebSocket messages.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{}) error
}

// CheckFunc probes a dependency. A nil error means healthy.
type CheckFunc func(ctx context.Context) error

type check struct {
	category HealthCategory
	id       string
	fn       CheckFunc
}

// Service tracks the health of the server's dependencies. State is in
// memory only and resets on restart.
type Service struct {
	items       map[HealthCategory]map[string]*HealthItem
	checks      []check
	mu          sync.RWMutex
	broadcaster Broadcaster
	logger      zerolog.Logger
}

// NewService creates a new health service.
func NewService(logger zerolog.Logger) *Service {
	s := &Service{
		items:  make(map[HealthCategory]map[string]*HealthItem),
		logger: logger.With().Str("component", "health").Logger(),
	}
	for _, cat := range AllCategories() {
		s.items[cat] = make(map[string]*HealthItem)
	}
	return s
}

// SetBroadcaster sets the WebSocket broadcaster for real-time updates.
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcaster = b
}

// RegisterItem starts tracking an item with OK status. Registering an
// existing item only updates its name.
func (s *Service) RegisterItem(category HealthCategory, id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item, ok := s.items[category][id]; ok {
		item.Name = name
		return
	}
	s.items[category][id] = &HealthItem{
		ID:       id,
		Category: category,
		Name:     name,
		Status:   StatusOK,
	}
}

// RegisterCheck tracks an item whose status is set by running fn.
func (s *Service) RegisterCheck(category HealthCategory, id, name string, fn CheckFunc) {
	s.RegisterItem(category, id, name)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks = append(s.checks, check{category: category, id: id, fn: fn})
}

// RunChecks runs the registered checks, limited to one category when
// category is non-empty, and records their outcome.
func (s *Service) RunChecks(ctx context.Context, category HealthCategory) {
	s.mu.RLock()
	checks := make([]check, 0, len(s.checks))
	for _, c := range s.checks {
		if category == "" || c.category == category {
			checks = append(checks, c)
		}
	}
	s.mu.RUnlock()

	for _, c := range checks {
		if err := c.fn(ctx); err != nil {
			s.SetError(c.category, c.id, err.Error())
			continue
		}
		s.ClearStatus(c.category, c.id)
	}
}

// SetError marks an item as failing.
func (s *Service) SetError(category HealthCategory, id, message string) {
	s.setStatus(category, id, StatusError, message)
}

// SetWarning marks an item as degraded.
func (s *Service) SetWarning(category HealthCategory, id, message string) {
	s.setStatus(category, id, StatusWarning, message)
}

// ClearStatus marks an item as healthy.
func (s *Service) ClearStatus(category HealthCategory, id string) {
	s.setStatus(category, id, StatusOK, "")
}

func (s *Service) setStatus(category HealthCategory, id string, status HealthStatus, message string) {
	s.mu.Lock()

	item, exists := s.items[category][id]
	if !exists {
		s.mu.Unlock()
		s.logger.Warn().
			Str("category", string(category)).
			Str("id", id).
			Msg("Attempted to update status for unregistered item")
		return
	}

	if item.Status == status && item.Message == message {
		s.mu.Unlock()
		return
	}

	oldStatus := item.Status
	item.Status = status
	item.Message = message
	if status != StatusOK {
		now := time.Now()
		item.Timestamp = &now
	} else {
		item.Timestamp = nil
	}
	payload := HealthUpdatePayload{
		Category:  item.Category,
		ID:        item.ID,
		Name:      item.Name,
		Status:    item.Status,
		Message:   item.Message,
		Timestamp: item.Timestamp,
	}
	broadcaster := s.broadcaster
	s.mu.Unlock()

	event := s.logger.Info()
	if status == StatusError {
		event = s.logger.Warn()
	}
	event.
		Str("category", string(category)).
		Str("id", id).
		Str("oldStatus", string(oldStatus)).
		Str("newStatus", string(status)).
		Str("message", message).
		Msg("Health status changed")

	if broadcaster != nil {
		if err := broadcaster.Broadcast("health:updated", payload); err != nil {
			s.logger.Error().Err(err).Msg("Failed to broadcast health update")
		}
	}
}

// GetAll returns all health items grouped by category.
func (s *Service) GetAll() map[HealthCategory][]HealthItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp := make(map[HealthCategory][]HealthItem, len(s.items))
	for _, cat := range AllCategories() {
		resp[cat] = s.itemsToSlice(cat)
	}
	return resp
}

// GetByCategory returns all items in a specific category.
func (s *Service) GetByCategory(category HealthCategory) []HealthItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.itemsToSlice(category)
}

// GetItem returns a copy of a single item, or nil if it is not tracked.
func (s *Service) GetItem(category HealthCategory, id string) *HealthItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if item, exists := s.items[category][id]; exists {
		c := *item
		return &c
	}
	return nil
}

// GetSummary returns counts per category.
func (s *Service) GetSummary() *HealthSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := &HealthSummary{
		Categories: make([]CategorySummary, 0, len(AllCategories())),
	}

	for _, cat := range AllCategories() {
		catSummary := CategorySummary{Category: cat}
		for _, item := range s.items[cat] {
			switch item.Status {
			case StatusOK:
				catSummary.OK++
			case StatusWarning:
				catSummary.Warning++
			case StatusError:
				catSummary.Error++
			}
		}
		if catSummary.HasIssues() {
			summary.HasIssues = true
		}
		summary.Categories = append(summary.Categories, catSummary)
	}

	return summary
}

// itemsToSlice returns the category's items ordered by id. Caller holds the lock.
func (s *Service) itemsToSlice(category HealthCategory) []HealthItem {
	items := make([]HealthItem, 0, len(s.items[category]))
	for _, item := range s.items[category] {
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}
