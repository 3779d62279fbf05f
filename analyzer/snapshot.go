package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/aqlanhadi/analyzer/categorizer"
	"github.com/aqlanhadi/analyzer/extractor/common"
	"github.com/aqlanhadi/analyzer/matching"
)

// SchemaVersion is written into every snapshot.
const SchemaVersion = 1

// StorageKey names the single entry the snapshot is stored under.
const StorageKey = "analyzer-storage"

var ErrUnsupportedSchema = errors.New("unsupported snapshot schema")

// Snapshot is the persisted part of the store. Filters and processing state are not saved.
type Snapshot struct {
	SchemaVersion     int                    `json:"schema_version"`
	Projects          []Project              `json:"projects"`
	ActiveProjectID   string                 `json:"active_project_id"`
	Statements        []common.Statement     `json:"statements"`
	Transactions      []common.Transaction   `json:"transactions"`
	MatchingRules     []matching.Rule        `json:"matching_rules"`
	CategoryOverrides []categorizer.Override `json:"category_overrides"`
}

// Persister loads and saves snapshots. Load returns nil, nil when nothing was saved yet.
type Persister interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
}

// Decode parses a stored snapshot and checks its schema version. Snapshots written before
// versioning (version 0) are read as version 1.
func Decode(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.SchemaVersion > SchemaVersion {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedSchema, snap.SchemaVersion)
	}
	snap.SchemaVersion = SchemaVersion
	return &snap, nil
}

// Encode serialises a snapshot.
func Encode(snap *Snapshot) ([]byte, error) {
	return json.Marshal(snap)
}

// MemoryPersister keeps the encoded snapshot in memory.
type MemoryPersister struct {
	mu   sync.Mutex
	data []byte
	// Saves counts successful saves.
	Saves int
}

var _ Persister = (*MemoryPersister)(nil)

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{}
}

func (m *MemoryPersister) Load(context.Context) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, nil
	}
	return Decode(m.data)
}

func (m *MemoryPersister) Save(_ context.Context, snap *Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
	m.Saves++
	return nil
}
