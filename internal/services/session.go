package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"RPG-CARDS/internal/ctxlog"
	"RPG-CARDS/internal/processor"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is one user's template and dataset. All methods lock the session,
// so a template and its dataset always change together.
type Session struct {
	ID string

	mu           sync.Mutex
	form         processor.CardForm
	templateText string
	templateErr  *processor.TemplateParseError
	fields       []string
	dataset      *processor.Dataset
	opts         processor.MergeOptions
	createdAt    time.Time
	updatedAt    time.Time
	lastAccess   time.Time
	now          func() time.Time
}

// SessionSnapshot is a read-only copy of a session's state.
type SessionSnapshot struct {
	ID            string                        `json:"id"`
	Form          processor.CardForm            `json:"form"`
	Template      string                        `json:"template"`
	TemplateError *processor.TemplateParseError `json:"template_error,omitempty"`
	Fields        []string                      `json:"fields"`
	Placeholders  []processor.Token             `json:"placeholders"`
	Rows          []processor.Row               `json:"rows"`
	CreatedAt     time.Time                     `json:"created_at"`
	UpdatedAt     time.Time                     `json:"updated_at"`
}

func newSession(id string, opts processor.MergeOptions, now func() time.Time) *Session {
	ts := now()
	return &Session{
		ID:         id,
		fields:     []string{},
		dataset:    processor.NewDataset(nil),
		opts:       opts,
		createdAt:  ts,
		updatedAt:  ts,
		lastAccess: ts,
		now:        now,
	}
}

// ApplyForm rebuilds the template from form and runs a full pass.
func (s *Session) ApplyForm(ctx context.Context, form processor.CardForm) error {
	text, err := processor.BuildTemplate(form)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.form = form
	return s.applyTemplateLocked(ctx, text)
}

// ApplyTemplate replaces the template text and runs a full pass.
func (s *Session) ApplyTemplate(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.applyTemplateLocked(ctx, text)
}

// applyTemplateLocked validates text, extracts its fields and migrates the
// dataset when they changed. An invalid template is recorded and leaves
// fields and dataset as they were.
func (s *Session) applyTemplateLocked(ctx context.Context, text string) error {
	logger := ctxlog.FromContext(ctx).With("session_id", s.ID)

	s.templateText = text
	s.updatedAt = s.now()

	if err := processor.ValidateTemplate(text); err != nil {
		var parseErr *processor.TemplateParseError
		if errors.As(err, &parseErr) {
			s.templateErr = parseErr
		}
		logger.Warn("template rejected", "error", err)
		return err
	}
	s.templateErr = nil

	fields := processor.ExtractFields(text)
	if processor.SameFields(fields, s.fields) {
		return nil
	}

	logger.Debug("fields changed", "old", s.fields, "new", fields, "rows", s.dataset.Len())
	s.dataset = processor.SyncDataset(s.dataset, fields)
	s.fields = fields
	return nil
}

// Paste replaces the dataset with rows parsed from raw. The current dataset
// is kept when parsing fails.
func (s *Session) Paste(ctx context.Context, raw string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.templateErr != nil {
		return 0, s.templateErr
	}

	dataset, err := processor.Ingest(raw, s.fields)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("paste rejected", "session_id", s.ID, "error", err)
		return 0, err
	}

	s.dataset = dataset
	s.updatedAt = s.now()
	return dataset.Len(), nil
}

func (s *Session) AddRow(values map[string]string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.dataset.AppendRow(values); err != nil {
		return 0, err
	}
	s.updatedAt = s.now()
	return s.dataset.Len() - 1, nil
}

func (s *Session) UpdateRow(index int, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.dataset.UpdateRow(index, values); err != nil {
		return err
	}
	s.updatedAt = s.now()
	return nil
}

func (s *Session) DeleteRow(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.dataset.DeleteRow(index); err != nil {
		return err
	}
	s.updatedAt = s.now()
	return nil
}

// Preview merges every row into the current template.
func (s *Session) Preview(ctx context.Context) (processor.MergeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.templateErr != nil {
		return processor.MergeResult{}, s.templateErr
	}

	result := processor.MergeDataset(s.templateText, s.dataset, s.opts)
	for _, rowErr := range result.Errors {
		ctxlog.FromContext(ctx).Info("row skipped", "session_id", s.ID, "row", rowErr.Index, "error", rowErr.Err)
	}
	return result, nil
}

// Export renders the merged documents as the downloadable JSON array. The
// merge result is returned too so callers can report skipped rows.
func (s *Session) Export(ctx context.Context) ([]byte, processor.MergeResult, error) {
	result, err := s.Preview(ctx)
	if err != nil {
		return nil, result, err
	}

	data, err := processor.ExportJSON(result.Documents)
	if err != nil {
		return nil, result, fmt.Errorf("failed to export session %s: %w", s.ID, err)
	}
	return data, result, nil
}

func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	placeholders := []processor.Token{}
	if s.templateErr == nil {
		placeholders = append(placeholders, processor.ScanPlaceholders(s.templateText)...)
	}

	return SessionSnapshot{
		ID:            s.ID,
		Form:          s.form,
		Template:      s.templateText,
		TemplateError: s.templateErr,
		Fields:        append([]string{}, s.fields...),
		Placeholders:  placeholders,
		Rows:          s.dataset.Rows(),
		CreatedAt:     s.createdAt,
		UpdatedAt:     s.updatedAt,
	}
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastAccess = s.now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}

// SessionStore keeps sessions in memory, keyed by id.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opts     processor.MergeOptions
	now      func() time.Time
}

func NewSessionStore(opts processor.MergeOptions) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		opts:     opts,
		now:      time.Now,
	}
}

// Create starts a session from form, or from the default card form when form
// is nil.
func (st *SessionStore) Create(ctx context.Context, form *processor.CardForm) (*Session, error) {
	initial := processor.DefaultCardForm()
	if form != nil {
		initial = *form
	}

	sess := newSession(uuid.New().String(), st.opts, st.now)
	if err := sess.ApplyForm(ctx, initial); err != nil {
		return nil, err
	}

	st.mu.Lock()
	st.sessions[sess.ID] = sess
	st.mu.Unlock()

	ctxlog.FromContext(ctx).Info("session created", "session_id", sess.ID)
	return sess, nil
}

func (st *SessionStore) Get(id string) (*Session, error) {
	st.mu.RLock()
	sess, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess.touch()
	return sess, nil
}

func (st *SessionStore) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(st.sessions, id)
	return nil
}

func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep removes sessions idle for longer than maxAge and returns how many
// were removed.
func (st *SessionStore) Sweep(maxAge time.Duration) int {
	cutoff := st.now().Add(-maxAge)

	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, sess := range st.sessions {
		if sess.idleSince().Before(cutoff) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// RowErrorView is the JSON form of a row that failed to merge.
type RowErrorView struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

func NewRowErrorViews(errs []*processor.RowMergeError) []RowErrorView {
	views := make([]RowErrorView, 0, len(errs))
	for _, err := range errs {
		views = append(views, RowErrorView{Row: err.Index, Error: err.Err.Error()})
	}
	return views
}
