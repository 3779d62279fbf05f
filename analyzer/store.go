// Package analyzer holds the state of the statement analyzer: projects, ingested
// statements and transactions, matching rules and the dashboard filters, plus the
// derived views the dashboard reads.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aqlanhadi/analyzer/categorizer"
	"github.com/aqlanhadi/analyzer/extractor"
	"github.com/aqlanhadi/analyzer/extractor/common"
	"github.com/aqlanhadi/analyzer/extractor/pdftext"
	"github.com/aqlanhadi/analyzer/matching"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrAlreadyProcessing   = errors.New("a batch is already being processed")
	ErrProjectNotFound     = errors.New("project not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrRuleNotFound        = errors.New("rule not found")
	ErrRuleExists          = errors.New("rule already exists")
)

// DefaultProjectName is used when files are processed with no active project.
const DefaultProjectName = "Default Project"

type Project struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	StatementIDs []string  `json:"statement_ids"`
}

// Store is safe for concurrent use. Every mutation is followed by a save of the
// snapshot; the save error is returned to the caller after the in-memory change.
type Store struct {
	mu              sync.RWMutex
	projects        []Project
	activeProjectID string
	statements      []common.Statement
	transactions    []common.Transaction
	rules           []matching.Rule
	filters         DashboardFilters
	progress        Progress

	processing atomic.Bool

	categorizer *categorizer.Categorizer
	extractor   extractor.TextExtractor
	persister   Persister
	log         zerolog.Logger
	now         func() time.Time
	newID       func() string
	observers   []func(BatchResult)
}

type Option func(*Store)

func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

func WithExtractor(e extractor.TextExtractor) Option {
	return func(s *Store) { s.extractor = e }
}

func WithCategorizer(c *categorizer.Categorizer) Option {
	return func(s *Store) { s.categorizer = c }
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithBatchObserver registers a callback run after every committed batch.
func WithBatchObserver(fn func(BatchResult)) Option {
	return func(s *Store) { s.observers = append(s.observers, fn) }
}

// New returns an empty store with the default matching rules. Without options it keeps
// state in memory only.
func New(opts ...Option) *Store {
	s := &Store{
		projects:     []Project{},
		statements:   []common.Statement{},
		transactions: []common.Transaction{},
		rules:        matching.DefaultRules(),
		persister:    NewMemoryPersister(),
		log:          zerolog.Nop(),
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.categorizer == nil {
		s.categorizer = categorizer.New()
	}
	if s.extractor == nil {
		s.extractor = pdftext.New(pdftext.WithLogger(s.log))
	}
	return s
}

// Open builds a store and restores the persisted snapshot, if any.
func Open(ctx context.Context, opts ...Option) (*Store, error) {
	s := New(opts...)
	snap, err := s.persister.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if snap != nil {
		s.restore(snap)
		s.log.Debug().
			Int("projects", len(s.projects)).
			Int("statements", len(s.statements)).
			Int("transactions", len(s.transactions)).
			Msg("snapshot restored")
	}
	return s, nil
}

func (s *Store) restore(snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.projects = nonNil(snap.Projects)
	s.activeProjectID = snap.ActiveProjectID
	s.statements = nonNil(snap.Statements)
	s.transactions = nonNil(snap.Transactions)
	if snap.MatchingRules != nil {
		s.rules = snap.MatchingRules
	}
	s.categorizer.SetOverrides(snap.CategoryOverrides)
	for i := range s.transactions {
		if s.transactions[i].Tags == nil {
			s.transactions[i].Tags = []string{}
		}
	}
}

func (s *Store) snapshotLocked() *Snapshot {
	return &Snapshot{
		SchemaVersion:     SchemaVersion,
		Projects:          s.projects,
		ActiveProjectID:   s.activeProjectID,
		Statements:        s.statements,
		Transactions:      s.transactions,
		MatchingRules:     nonNil(s.rules),
		CategoryOverrides: nonNil(s.categorizer.Overrides()),
	}
}

// saveLocked persists the current state. The caller holds the write lock.
func (s *Store) saveLocked(ctx context.Context) error {
	if err := s.persister.Save(ctx, s.snapshotLocked()); err != nil {
		s.log.Error().Err(err).Msg("failed to persist snapshot")
		return fmt.Errorf("persist snapshot: %w", err)
	}
	return nil
}

// Snapshot returns a copy of the persisted state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.snapshotLocked()
	return Snapshot{
		SchemaVersion:     snap.SchemaVersion,
		Projects:          cloneProjects(snap.Projects),
		ActiveProjectID:   snap.ActiveProjectID,
		Statements:        slices.Clone(snap.Statements),
		Transactions:      slices.Clone(snap.Transactions),
		MatchingRules:     slices.Clone(snap.MatchingRules),
		CategoryOverrides: snap.CategoryOverrides,
	}
}

// Categorizer exposes the categorizer used for new uploads.
func (s *Store) Categorizer() *categorizer.Categorizer {
	return s.categorizer
}

func (s *Store) Projects() []Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneProjects(s.projects)
}

// ActiveProject returns the active project, or false when there is none.
func (s *Store) ActiveProject() (Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.findProjectLocked(s.activeProjectID)
	if p == nil {
		return Project{}, false
	}
	return cloneProject(*p), true
}

func (s *Store) ActiveProjectID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeProjectID
}

// Statements returns every statement record across projects.
func (s *Store) Statements() []common.Statement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.statements)
}

// Transactions returns every transaction across projects, unfiltered.
func (s *Store) Transactions() []common.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.transactions)
}

func (s *Store) Rules() []matching.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.rules)
}

func (s *Store) findProjectLocked(id string) *Project {
	if id == "" {
		return nil
	}
	for i := range s.projects {
		if s.projects[i].ID == id {
			return &s.projects[i]
		}
	}
	return nil
}

func cloneProject(p Project) Project {
	p.StatementIDs = slices.Clone(p.StatementIDs)
	if p.StatementIDs == nil {
		p.StatementIDs = []string{}
	}
	return p
}

func cloneProjects(ps []Project) []Project {
	out := make([]Project, len(ps))
	for i, p := range ps {
		out[i] = cloneProject(p)
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
