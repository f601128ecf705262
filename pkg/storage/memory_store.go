package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/gokaycavdar/go-cdrguard/pkg/models"
)

// MemoryStore is a thread-safe in-process ReportStore.
type MemoryStore struct {
	data map[string]map[string]*StoredReport // owner -> name -> report
	mu   sync.RWMutex
	now  func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]map[string]*StoredReport),
		now:  time.Now,
	}
}

func (m *MemoryStore) Save(owner, name string, result *models.AnalysisResult) (*StoredReport, error) {
	if owner == "" || name == "" {
		return nil, errors.New("storage: owner and name are required")
	}
	if result == nil {
		return nil, errors.New("storage: result must not be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	byName, ok := m.data[owner]
	if !ok {
		byName = make(map[string]*StoredReport)
		m.data[owner] = byName
	}
	rep := &StoredReport{
		ID:        uuid.NewString(),
		Owner:     owner,
		Name:      name,
		CreatedAt: m.now().UTC(),
		Result:    result,
	}
	byName[name] = rep
	return rep, nil
}

func (m *MemoryStore) Get(owner, name string) (*StoredReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if rep, ok := m.data[owner][name]; ok {
		return rep, nil
	}
	return nil, errors.Wrapf(ErrNotFound, "%s/%s", owner, name)
}

func (m *MemoryStore) List(owner string) ([]*StoredReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byName := m.data[owner]
	out := make([]*StoredReport, 0, len(byName))
	for _, rep := range byName {
		out = append(out, rep)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
