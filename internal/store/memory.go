package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"dubapi/internal/models"
)

// MemoryStore keeps all records in process memory. Reads return
// copies so callers never alias the stored record.
type MemoryStore struct {
	mu          sync.RWMutex
	conversions map[string]*models.VideoConversion
	dubbings    map[string]*models.VoiceDubbing
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversions: make(map[string]*models.VideoConversion),
		dubbings:    make(map[string]*models.VoiceDubbing),
	}
}

func (m *MemoryStore) CreateConversion(ctx context.Context, c *models.VideoConversion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.conversions[c.ID]; ok {
		return errors.New("conversion exists")
	}
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	m.conversions[c.ID] = &cp
	return nil
}

func (m *MemoryStore) GetConversion(ctx context.Context, id string) (*models.VideoConversion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.conversions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MemoryStore) ConversionsByUser(ctx context.Context, userID string) ([]models.VideoConversion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []models.VideoConversion
	for _, c := range m.conversions {
		if c.UserID == userID {
			res = append(res, *c)
		}
	}
	return res, nil
}

func (m *MemoryStore) UpdateConversion(ctx context.Context, id string, u ConversionUpdate) (*models.VideoConversion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if err := u.check(c); err != nil {
		return nil, err
	}
	u.apply(c)
	cp := *c
	return &cp, nil
}

func (m *MemoryStore) DeleteConversion(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conversions, id)
	return nil
}

func (m *MemoryStore) CreateDubbing(ctx context.Context, d *models.VoiceDubbing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.dubbings[d.ID]; ok {
		return errors.New("dubbing exists")
	}
	d.CreatedAt = time.Now().UTC()
	cp := *d
	m.dubbings[d.ID] = &cp
	return nil
}

func (m *MemoryStore) GetDubbing(ctx context.Context, id string) (*models.VoiceDubbing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.dubbings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *MemoryStore) UpdateDubbing(ctx context.Context, id string, u DubbingUpdate) (*models.VoiceDubbing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.dubbings[id]
	if !ok {
		return nil, ErrNotFound
	}
	u.apply(d)
	cp := *d
	return &cp, nil
}

func (m *MemoryStore) Stats(ctx context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	midnight := time.Now().UTC().Truncate(24 * time.Hour)
	s := Stats{TotalConversions: len(m.conversions)}
	for _, c := range m.conversions {
		if !c.CreatedAt.Before(midnight) {
			s.TodayConversions++
		}
	}
	return s, nil
}
