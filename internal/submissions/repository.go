package submissions

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chimehq/roi-intake/internal/leadscore"
)

// ListFilter narrows admin submission listings.
type ListFilter struct {
	Tier   leadscore.Tier
	Limit  int
	Offset int
}

// Repository defines the interface for submission storage.
type Repository interface {
	Create(ctx context.Context, s *Submission) error
	GetByID(ctx context.Context, id string) (*Submission, error)
	List(ctx context.Context, filter ListFilter) ([]*Submission, error)
	MarkEmailSent(ctx context.Context, id string) error
	MarkCRMSynced(ctx context.Context, id, contactID, dealID string) error
}

// InMemoryRepository keeps submissions in a map. Used in tests and when the
// service runs without a database.
type InMemoryRepository struct {
	mu   sync.RWMutex
	rows map[string]*Submission
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{rows: make(map[string]*Submission)}
}

// Create stores the submission, assigning an ID and timestamps.
func (r *InMemoryRepository) Create(ctx context.Context, s *Submission) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now

	r.mu.Lock()
	clone := *s
	r.rows[s.ID] = &clone
	r.mu.Unlock()
	return nil
}

// GetByID retrieves a submission by ID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *s
	return &clone, nil
}

// List returns submissions newest first, honoring the filter.
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Submission, error) {
	r.mu.RLock()
	all := make([]*Submission, 0, len(r.rows))
	for _, s := range r.rows {
		if filter.Tier != "" && s.LeadTier != filter.Tier {
			continue
		}
		clone := *s
		all = append(all, &clone)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if filter.Offset > 0 {
		if filter.Offset >= len(all) {
			return []*Submission{}, nil
		}
		all = all[filter.Offset:]
	}
	if filter.Limit > 0 && len(all) > filter.Limit {
		all = all[:filter.Limit]
	}
	return all, nil
}

// MarkEmailSent flags the confirmation email as delivered.
func (r *InMemoryRepository) MarkEmailSent(ctx context.Context, id string) error {
	return r.update(id, func(s *Submission) { s.EmailSent = true })
}

// MarkCRMSynced records the CRM object IDs after a successful sync.
func (r *InMemoryRepository) MarkCRMSynced(ctx context.Context, id, contactID, dealID string) error {
	return r.update(id, func(s *Submission) {
		s.CRMSynced = true
		s.HubSpotContactID = contactID
		s.HubSpotDealID = dealID
	})
}

func (r *InMemoryRepository) update(id string, fn func(*Submission)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.rows[id]
	if !ok {
		return ErrNotFound
	}
	fn(s)
	s.UpdatedAt = time.Now().UTC()
	return nil
}
