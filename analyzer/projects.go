package analyzer

import (
	"context"
	"slices"

	"github.com/aqlanhadi/analyzer/extractor/common"
)

// CreateProject adds a project and makes it active.
func (s *Store) CreateProject(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.createProjectLocked(name)
	s.log.Info().Str("project_id", p.ID).Str("name", name).Msg("project created")
	return p.ID, s.saveLocked(ctx)
}

func (s *Store) createProjectLocked(name string) Project {
	p := Project{
		ID:           s.newID(),
		Name:         name,
		CreatedAt:    s.now(),
		StatementIDs: []string{},
	}
	s.projects = append(s.projects, p)
	s.activeProjectID = p.ID
	return p
}

// SetActiveProject switches the active project and clears the dashboard filters.
func (s *Store) SetActiveProject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findProjectLocked(id) == nil {
		return ErrProjectNotFound
	}
	s.activeProjectID = id
	s.filters = DashboardFilters{}
	return s.saveLocked(ctx)
}

// DeleteProject removes a project together with its statements and their transactions.
// Deleting the active project activates the first remaining one, if any.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.projects, func(p Project) bool { return p.ID == id })
	if idx < 0 {
		return ErrProjectNotFound
	}
	owned := make(map[string]struct{}, len(s.projects[idx].StatementIDs))
	for _, sid := range s.projects[idx].StatementIDs {
		owned[sid] = struct{}{}
	}

	s.projects = slices.Delete(s.projects, idx, idx+1)
	before := len(s.transactions)
	s.statements = slices.DeleteFunc(s.statements, func(st common.Statement) bool {
		_, ok := owned[st.ID]
		return ok
	})
	s.transactions = slices.DeleteFunc(s.transactions, func(t common.Transaction) bool {
		_, ok := owned[t.StatementID]
		return ok
	})

	if s.activeProjectID == id {
		s.activeProjectID = ""
		if len(s.projects) > 0 {
			s.activeProjectID = s.projects[0].ID
		}
		s.filters = DashboardFilters{}
	}

	s.log.Info().
		Str("project_id", id).
		Int("statements", len(owned)).
		Int("transactions", before-len(s.transactions)).
		Msg("project deleted")
	return s.saveLocked(ctx)
}
