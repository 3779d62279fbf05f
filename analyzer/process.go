package analyzer

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/aqlanhadi/analyzer/extractor"
	"github.com/aqlanhadi/analyzer/extractor/common"
)

// File is one document handed to ProcessFiles. Its content is opened only when the batch
// reaches it.
type File struct {
	Name string
	open func() (readerAtCloser, int64, error)
}

type readerAtCloser interface {
	io.ReaderAt
	io.Closer
}

type nopCloser struct{ *bytes.Reader }

func (nopCloser) Close() error { return nil }

// BytesFile wraps an in-memory upload.
func BytesFile(name string, data []byte) File {
	return File{
		Name: name,
		open: func() (readerAtCloser, int64, error) {
			return nopCloser{bytes.NewReader(data)}, int64(len(data)), nil
		},
	}
}

// PathFile reads the document from disk. The file name becomes the statement filename.
func PathFile(path string) File {
	return File{
		Name: filepath.Base(path),
		open: func() (readerAtCloser, int64, error) {
			f, err := os.Open(path)
			if err != nil {
				return nil, 0, err
			}
			info, err := f.Stat()
			if err != nil {
				f.Close()
				return nil, 0, err
			}
			return f, info.Size(), nil
		},
	}
}

// Progress reports the file a running batch is working on. Current is 1-based.
type Progress struct {
	Current  int    `json:"current"`
	Total    int    `json:"total"`
	Filename string `json:"filename"`
}

// BatchResult summarises a committed batch.
type BatchResult struct {
	ProjectID    string             `json:"project_id"`
	Statements   []common.Statement `json:"statements"`
	Transactions int                `json:"transactions"`
	Failed       int                `json:"failed"`
	Skipped      int                `json:"skipped"`
	Duration     time.Duration      `json:"duration"`
}

// IsProcessing reports whether a batch is running.
func (s *Store) IsProcessing() bool {
	return s.processing.Load()
}

// Progress returns the current batch progress, or false when idle.
func (s *Store) Progress() (Progress, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.processing.Load() {
		return Progress{}, false
	}
	return s.progress, true
}

// ProcessFiles extracts and parses each file in order and then commits every resulting
// statement and transaction to the active project in one step. A file that cannot be read
// is recorded as a failed statement and does not stop the batch. When ctx is cancelled
// the remaining files are skipped, the completed ones are committed and ctx.Err() is
// returned alongside the result.
func (s *Store) ProcessFiles(ctx context.Context, files []File, onProgress func(Progress)) (BatchResult, error) {
	if !s.processing.CompareAndSwap(false, true) {
		return BatchResult{}, ErrAlreadyProcessing
	}
	defer s.processing.Store(false)

	if len(files) == 0 {
		return BatchResult{ProjectID: s.ActiveProjectID()}, nil
	}

	started := s.now()
	projectID, err := s.ensureActiveProject(ctx)
	if err != nil {
		return BatchResult{}, err
	}
	log := s.log.With().Str("project_id", projectID).Int("files", len(files)).Logger()
	log.Info().Msg("processing batch")

	var (
		statements   = make([]common.Statement, 0, len(files))
		transactions []common.Transaction
		result       = BatchResult{ProjectID: projectID}
	)

	for i, f := range files {
		if ctx.Err() != nil {
			result.Skipped = len(files) - i
			log.Warn().Int("skipped", result.Skipped).Msg("batch cancelled")
			break
		}

		p := Progress{Current: i + 1, Total: len(files), Filename: f.Name}
		s.mu.Lock()
		s.progress = p
		s.mu.Unlock()
		if onProgress != nil {
			onProgress(p)
		}

		opts := common.ParseOptions{
			StatementID: s.newID(),
			Classifier:  s.categorizer,
			Now:         s.now,
			NewID:       s.newID,
		}

		text, err := s.readText(ctx, f)
		if err != nil {
			log.Warn().Err(err).Str("filename", f.Name).Msg("failed to read document")
			statements = append(statements, extractor.Failed(f.Name, err, opts))
			result.Failed++
			continue
		}

		doc := extractor.Process(text, f.Name, opts)
		log.Debug().
			Str("filename", f.Name).
			Str("bank", string(doc.Statement.Bank)).
			Str("doc_type", string(doc.Statement.DocType())).
			Int("transactions", len(doc.Transactions)).
			Float64("confidence", doc.Statement.Confidence).
			Msg("document parsed")
		statements = append(statements, doc.Statement)
		transactions = append(transactions, doc.Transactions...)
	}

	s.mu.Lock()
	s.statements = append(s.statements, statements...)
	s.transactions = append(s.transactions, transactions...)
	if p := s.findProjectLocked(projectID); p != nil {
		for _, st := range statements {
			p.StatementIDs = append(p.StatementIDs, st.ID)
		}
	}
	s.progress = Progress{}
	saveErr := s.saveLocked(ctx)
	s.mu.Unlock()

	result.Statements = statements
	result.Transactions = len(transactions)
	result.Duration = s.now().Sub(started)
	log.Info().
		Int("statements", len(statements)).
		Int("transactions", result.Transactions).
		Int("failed", result.Failed).
		Dur("duration", result.Duration).
		Msg("batch committed")

	for _, fn := range s.observers {
		fn(result)
	}

	if saveErr != nil {
		return result, saveErr
	}
	return result, ctx.Err()
}

func (s *Store) ensureActiveProject(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findProjectLocked(s.activeProjectID) != nil {
		return s.activeProjectID, nil
	}
	p := s.createProjectLocked(DefaultProjectName)
	s.log.Info().Str("project_id", p.ID).Msg("created default project")
	return p.ID, s.saveLocked(ctx)
}

func (s *Store) readText(ctx context.Context, f File) (string, error) {
	if f.open == nil {
		return "", &common.DocumentReadError{Filename: f.Name, Err: os.ErrInvalid}
	}
	r, size, err := f.open()
	if err != nil {
		return "", &common.DocumentReadError{Filename: f.Name, Err: err}
	}
	defer r.Close()
	return s.extractor.ExtractText(ctx, f.Name, r, size)
}
