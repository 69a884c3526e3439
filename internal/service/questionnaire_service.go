package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"surveyeditor/internal/domains"
	"surveyeditor/internal/questionnaire"
	"surveyeditor/internal/storage"
	"surveyeditor/internal/translation"
)

type QuestionnaireProvider interface {
	CreateQuestionnaire(ctx context.Context, q domains.Questionnaire) (domains.Questionnaire, error)
	UpdateQuestionnaire(ctx context.Context, q domains.Questionnaire) (domains.Questionnaire, error)
	GetQuestionnaire(ctx context.Context, projectID, id int64) (domains.Questionnaire, error)
	ListQuestionnaires(ctx context.Context, projectID int64) ([]domains.Questionnaire, error)
}

// DraftJournal keeps the operations applied since the last save so an unsaved
// session survives a restart.
type DraftJournal interface {
	Append(ctx context.Context, projectID, id int64, op questionnaire.Operation) error
	Load(ctx context.Context, projectID, id int64) ([]questionnaire.Operation, error)
	Trim(ctx context.Context, projectID, id int64, n int) error
}

type sessionKey struct {
	projectID int64
	id        int64
}

// DefaultIdleTimeout is how long a clean session stays loaded without being used.
const DefaultIdleTimeout = 30 * time.Minute

// session serialises every operation on one questionnaire.
type session struct {
	mu       sync.Mutex
	state    questionnaire.State
	pending  int
	lastUsed time.Time
	// closed is set once the session has left the map; holders must start over.
	closed   bool
}

type QuestionnaireService struct {
	provider    QuestionnaireProvider
	drafts      DraftJournal
	idleTimeout time.Duration
	now         func() time.Time

	mu       sync.Mutex
	sessions map[sessionKey]*session
}

// NewQuestionnaireService creates the service. drafts may be nil, in which case
// unsaved edits live only in memory.
func NewQuestionnaireService(provider QuestionnaireProvider, drafts DraftJournal) *QuestionnaireService {
	return &QuestionnaireService{
		provider:    provider,
		drafts:      drafts,
		idleTimeout: DefaultIdleTimeout,
		now:         time.Now,
		sessions:    map[sessionKey]*session{},
	}
}

func (s *QuestionnaireService) session(projectID, id int64) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sessionKey{projectID: projectID, id: id}
	sess, ok := s.sessions[key]
	if !ok {
		sess = &session{}
		s.sessions[key] = sess
	}
	return sess
}

// lockSession returns the registered session for the key, locked.
func (s *QuestionnaireService) lockSession(projectID, id int64) *session {
	for {
		sess := s.session(projectID, id)
		sess.mu.Lock()
		if !sess.closed {
			return sess
		}
		sess.mu.Unlock()
	}
}

// remove drops sess from the map. The caller holds sess.mu.
func (s *QuestionnaireService) remove(key sessionKey, sess *session) {
	sess.closed = true
	s.mu.Lock()
	if s.sessions[key] == sess {
		delete(s.sessions, key)
	}
	s.mu.Unlock()
}

func (s *QuestionnaireService) loadedSession(projectID, id int64) (*session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionKey{projectID: projectID, id: id}]
	s.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotLoaded
	}
	return sess, nil
}

func (s *QuestionnaireService) CreateQuestionnaire(ctx context.Context, projectID int64, name, language string) (domains.Questionnaire, error) {
	q, err := s.provider.CreateQuestionnaire(ctx, questionnaire.New(projectID, name, language))
	if err != nil {
		slog.Error("create questionnaire failed", "project_id", projectID, "err", err)
		return domains.Questionnaire{}, err
	}
	slog.Info("questionnaire created", "project_id", projectID, "id", q.ID)
	return q, nil
}

func (s *QuestionnaireService) ListQuestionnaires(ctx context.Context, projectID int64) ([]domains.Questionnaire, error) {
	list, err := s.provider.ListQuestionnaires(ctx, projectID)
	if err != nil {
		slog.Error("list questionnaires failed", "project_id", projectID, "err", err)
		return nil, err
	}
	return list, nil
}

// Open loads the questionnaire into an editing session, replaying any unsaved
// draft, and returns the session state. An already loaded session is returned as is.
func (s *QuestionnaireService) Open(ctx context.Context, projectID, id int64) (questionnaire.State, error) {
	sess := s.lockSession(projectID, id)
	defer sess.mu.Unlock()
	sess.lastUsed = s.now()

	if sess.state.Data != nil && !sess.state.Fetching {
		return sess.state, nil
	}
	if questionnaire.ShouldFetch(sess.state, projectID, &id) {
		if err := sess.reduce(questionnaire.Fetch{ProjectID: projectID, ID: &id}); err != nil {
			return sess.state, err
		}
	}

	q, err := s.provider.GetQuestionnaire(ctx, projectID, id)
	if err != nil {
		slog.Error("get questionnaire failed", "project_id", projectID, "id", id, "err", err)
		if sess.state.Data == nil {
			s.remove(sessionKey{projectID: projectID, id: id}, sess)
		}
		return questionnaire.State{}, err
	}
	if err := sess.reduce(questionnaire.Receive{Data: q}); err != nil {
		return sess.state, err
	}
	if sess.state.Data == nil {
		s.remove(sessionKey{projectID: projectID, id: id}, sess)
		return questionnaire.State{}, storage.ErrNotFound
	}

	if s.drafts == nil {
		return sess.state, nil
	}
	ops, err := s.drafts.Load(ctx, projectID, id)
	if err != nil {
		slog.Warn("draft load failed, starting from the saved questionnaire", "project_id", projectID, "id", id, "err", err)
		return sess.state, nil
	}
	for _, op := range ops {
		if err := sess.reduce(op); err != nil {
			slog.Warn("draft operation rejected", "project_id", projectID, "id", id, "type", op.OpType(), "err", err)
		}
	}
	sess.pending = len(ops)
	if len(ops) > 0 {
		slog.Info("draft restored", "project_id", projectID, "id", id, "operations", len(ops))
	}
	return sess.state, nil
}

func (sess *session) reduce(op questionnaire.Operation) error {
	next, err := questionnaire.Reduce(sess.state, op)
	if err != nil {
		return err
	}
	sess.state = next
	return nil
}

// withStepIDs assigns the ids a replayed operation must reproduce.
func withStepIDs(op questionnaire.Operation) questionnaire.Operation {
	switch o := op.(type) {
	case questionnaire.AddStep:
		if o.StepID == "" {
			o.StepID = uuid.NewString()
		}
		return o
	case questionnaire.AddLanguage:
		if o.StepID == "" {
			o.StepID = uuid.NewString()
		}
		return o
	}
	return op
}

// Apply dispatches one edit operation to an open session.
func (s *QuestionnaireService) Apply(ctx context.Context, projectID, id int64, op questionnaire.Operation) (questionnaire.State, error) {
	sess, err := s.loadedSession(projectID, id)
	if err != nil {
		return questionnaire.State{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed || sess.state.Data == nil {
		return questionnaire.State{}, ErrSessionNotLoaded
	}
	sess.lastUsed = s.now()

	op = withStepIDs(op)
	if err := sess.reduce(op); err != nil {
		slog.Error("operation rejected", "project_id", projectID, "id", id, "type", op.OpType(), "err", err)
		return sess.state, err
	}
	if _, unknown := op.(questionnaire.Unknown); unknown {
		slog.Debug("unknown operation ignored", "type", op.OpType())
		return sess.state, nil
	}

	if s.drafts != nil {
		if err := s.drafts.Append(ctx, projectID, id, op); err != nil {
			slog.Warn("draft append failed", "project_id", projectID, "id", id, "err", err)
		} else {
			sess.pending++
		}
	}
	return sess.state, nil
}

// Save persists the session's questionnaire. Saving is refused while the document
// has validation errors or another save is running. Edits applied while the store
// call is in flight are kept and leave the session dirty.
func (s *QuestionnaireService) Save(ctx context.Context, projectID, id int64) (questionnaire.State, error) {
	sess, err := s.loadedSession(projectID, id)
	if err != nil {
		return questionnaire.State{}, err
	}

	sess.mu.Lock()
	state := sess.state
	switch {
	case sess.closed || state.Data == nil:
		err = ErrSessionNotLoaded
	case state.Saving:
		err = ErrSaveInProgress
	case len(state.Errors) > 0:
		err = ErrQuestionnaireInvalid
	default:
		err = sess.reduce(questionnaire.Saving{})
	}
	if err != nil {
		sess.mu.Unlock()
		return state, err
	}
	sess.lastUsed = s.now()
	doc := *sess.state.Data
	journaled := sess.pending
	sess.mu.Unlock()

	saved, saveErr := s.provider.UpdateQuestionnaire(ctx, doc)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if saveErr != nil {
		sess.state.Saving = false
		slog.Error("save questionnaire failed", "project_id", projectID, "id", id, "err", saveErr)
		return sess.state, fmt.Errorf("save questionnaire %d: %w", id, saveErr)
	}
	if err := sess.reduce(questionnaire.Saved{Data: saved}); err != nil {
		return sess.state, err
	}

	if s.drafts != nil && journaled > 0 {
		if err := s.drafts.Trim(ctx, projectID, id, journaled); err != nil {
			slog.Warn("draft trim failed", "project_id", projectID, "id", id, "err", err)
		} else {
			sess.pending -= journaled
		}
	}
	slog.Info("questionnaire saved", "project_id", projectID, "id", id, "dirty", sess.state.Dirty)
	return sess.state, nil
}

// SaveDirty saves every open session that has unsaved, valid edits and returns how
// many were saved. Clean sessions idle for longer than the idle timeout are released.
func (s *QuestionnaireService) SaveDirty(ctx context.Context) (int, error) {
	s.mu.Lock()
	open := make(map[sessionKey]*session, len(s.sessions))
	for key, sess := range s.sessions {
		open[key] = sess
	}
	s.mu.Unlock()

	saved, evicted := 0, 0
	var firstErr error
	for key, sess := range open {
		sess.mu.Lock()
		st := sess.state
		ready := !sess.closed && st.Dirty && !st.Saving && len(st.Errors) == 0
		if !sess.closed && !st.Dirty && !st.Saving && s.now().Sub(sess.lastUsed) > s.idleTimeout {
			s.remove(key, sess)
			evicted++
		}
		sess.mu.Unlock()
		if !ready {
			continue
		}
		if _, err := s.Save(ctx, key.projectID, key.id); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		saved++
	}
	if evicted > 0 {
		slog.Info("idle sessions released", "count", evicted)
	}
	return saved, firstErr
}

// State returns the current state of an open session.
func (s *QuestionnaireService) State(projectID, id int64) (questionnaire.State, error) {
	sess, err := s.loadedSession(projectID, id)
	if err != nil {
		return questionnaire.State{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed || sess.state.Data == nil {
		return questionnaire.State{}, ErrSessionNotLoaded
	}
	sess.lastUsed = s.now()
	return sess.state, nil
}

func (s *QuestionnaireService) StoreValues(projectID, id int64) (map[string]questionnaire.StoreValues, error) {
	state, err := s.State(projectID, id)
	if err != nil {
		return nil, err
	}
	return questionnaire.StepStoreValues(*state.Data), nil
}

// ExportTranslations writes the translation spreadsheet of an open session as CSV.
func (s *QuestionnaireService) ExportTranslations(projectID, id int64, w io.Writer) error {
	state, err := s.State(projectID, id)
	if err != nil {
		return err
	}
	return translation.WriteCSV(w, translation.Export(*state.Data))
}

// ImportTranslations reads an edited translation spreadsheet and merges it into the
// session through UPLOAD_TRANSLATIONS.
func (s *QuestionnaireService) ImportTranslations(ctx context.Context, projectID, id int64, r io.Reader) (questionnaire.State, error) {
	rows, err := translation.ReadCSV(r)
	if err != nil {
		return questionnaire.State{}, err
	}
	return s.Apply(ctx, projectID, id, questionnaire.UploadTranslations{Rows: rows})
}

// Close releases the in-memory session; the draft journal is left in place. A session
// whose unsaved edits exist only in memory, or that is being saved, is kept.
func (s *QuestionnaireService) Close(projectID, id int64) error {
	sess, err := s.loadedSession(projectID, id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	switch {
	case sess.closed:
		return ErrSessionNotLoaded
	case sess.state.Saving:
		return ErrSaveInProgress
	case sess.state.Dirty && s.drafts == nil:
		return ErrUnsavedChanges
	}
	s.remove(sessionKey{projectID: projectID, id: id}, sess)
	slog.Info("session closed", "project_id", projectID, "id", id)
	return nil
}
