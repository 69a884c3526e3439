package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveyeditor/internal/domains"
	"surveyeditor/internal/questionnaire"
	"surveyeditor/internal/storage"
)

type fakeProvider struct {
	mu      sync.Mutex
	nextID  int64
	stored  map[int64]domains.Questionnaire
	updates int
	failErr error
	// block, when set, is received from before an update returns.
	block chan struct{}
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{nextID: 1, stored: map[int64]domains.Questionnaire{}}
}

func (p *fakeProvider) CreateQuestionnaire(_ context.Context, q domains.Questionnaire) (domains.Questionnaire, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	q.ID = &id
	p.stored[id] = q
	return q, nil
}

func (p *fakeProvider) UpdateQuestionnaire(_ context.Context, q domains.Questionnaire) (domains.Questionnaire, error) {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failErr != nil {
		return domains.Questionnaire{}, p.failErr
	}
	if _, ok := p.stored[*q.ID]; !ok {
		return domains.Questionnaire{}, storage.ErrNotFound
	}
	p.updates++
	p.stored[*q.ID] = q
	return q, nil
}

func (p *fakeProvider) GetQuestionnaire(_ context.Context, projectID, id int64) (domains.Questionnaire, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	q, ok := p.stored[id]
	if !ok || q.ProjectID != projectID {
		return domains.Questionnaire{}, storage.ErrNotFound
	}
	return q, nil
}

func (p *fakeProvider) ListQuestionnaires(_ context.Context, projectID int64) ([]domains.Questionnaire, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domains.Questionnaire
	for _, q := range p.stored {
		if q.ProjectID == projectID {
			out = append(out, q)
		}
	}
	return out, nil
}

type memoryJournal struct {
	mu  sync.Mutex
	ops map[sessionKey][][]byte
}

func newMemoryJournal() *memoryJournal {
	return &memoryJournal{ops: map[sessionKey][][]byte{}}
}

func (j *memoryJournal) Append(_ context.Context, projectID, id int64, op questionnaire.Operation) error {
	data, err := questionnaire.EncodeOperation(op)
	if err != nil {
		return err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	key := sessionKey{projectID, id}
	j.ops[key] = append(j.ops[key], data)
	return nil
}

func (j *memoryJournal) Load(_ context.Context, projectID, id int64) ([]questionnaire.Operation, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []questionnaire.Operation
	for _, data := range j.ops[sessionKey{projectID, id}] {
		op, err := questionnaire.DecodeOperation(data)
		if err != nil {
			return nil, err
		}
		out = append(out, op)
	}
	return out, nil
}

func (j *memoryJournal) Trim(_ context.Context, projectID, id int64, n int) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	key := sessionKey{projectID, id}
	if n >= len(j.ops[key]) {
		delete(j.ops, key)
		return nil
	}
	j.ops[key] = j.ops[key][n:]
	return nil
}

func (j *memoryJournal) len(projectID, id int64) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.ops[sessionKey{projectID, id}])
}

// validOps makes a created questionnaire saveable: one step with two choices.
func validOps() []questionnaire.Operation {
	return []questionnaire.Operation{
		questionnaire.AddStep{StepID: "s1"},
		questionnaire.ChangeStepPromptSMS{StepID: "s1", Prompt: "Do you smoke?"},
		questionnaire.ChangeStepPromptIVR{StepID: "s1", Prompt: domains.IvrPrompt{Text: "Do you smoke?"}},
		questionnaire.AddChoice{StepID: "s1"},
		questionnaire.AddChoice{StepID: "s1"},
		questionnaire.ChangeChoice{StepID: "s1", Index: 0, Value: "Yes", SMSValues: "Y", IVRValues: "1"},
		questionnaire.ChangeChoice{StepID: "s1", Index: 1, Value: "No", SMSValues: "N", IVRValues: "2"},
	}
}

func openNew(t *testing.T, svc *QuestionnaireService) (int64, questionnaire.State) {
	t.Helper()
	ctx := context.Background()
	q, err := svc.CreateQuestionnaire(ctx, 1, "Foo", "")
	require.NoError(t, err)
	require.NotNil(t, q.ID)
	state, err := svc.Open(ctx, 1, *q.ID)
	require.NoError(t, err)
	return *q.ID, state
}

func apply(t *testing.T, svc *QuestionnaireService, id int64, ops ...questionnaire.Operation) questionnaire.State {
	t.Helper()
	var state questionnaire.State
	for _, op := range ops {
		var err error
		state, err = svc.Apply(context.Background(), 1, id, op)
		require.NoError(t, err)
	}
	return state
}

func TestQuestionnaireService_CreateAndOpen(t *testing.T) {
	svc := NewQuestionnaireService(newFakeProvider(), nil)

	_, state := openNew(t, svc)

	require.NotNil(t, state.Data)
	assert.False(t, state.Fetching)
	assert.False(t, state.Dirty)
	assert.Equal(t, "Foo", state.Data.Name)
	assert.Equal(t, []domains.Mode{domains.ModeSMS, domains.ModeIVR}, state.Data.Modes)

	list, err := svc.ListQuestionnaires(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestQuestionnaireService_OpenMissing(t *testing.T) {
	svc := NewQuestionnaireService(newFakeProvider(), nil)

	_, err := svc.Open(context.Background(), 1, 42)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = svc.Apply(context.Background(), 1, 42, questionnaire.ChangeName{Name: "x"})
	assert.ErrorIs(t, err, ErrSessionNotLoaded)
}

func TestQuestionnaireService_ApplyBeforeOpen(t *testing.T) {
	svc := NewQuestionnaireService(newFakeProvider(), nil)

	_, err := svc.Apply(context.Background(), 1, 1, questionnaire.ChangeName{Name: "x"})
	assert.ErrorIs(t, err, ErrSessionNotLoaded)
	_, err = svc.Save(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrSessionNotLoaded)
}

func TestQuestionnaireService_ApplyAssignsStepIDs(t *testing.T) {
	svc := NewQuestionnaireService(newFakeProvider(), nil)
	id, _ := openNew(t, svc)

	state := apply(t, svc, id, questionnaire.AddStep{})

	require.Len(t, state.Data.Steps, 1)
	assert.NotEmpty(t, state.Data.Steps[0].ID)
	assert.True(t, state.Dirty)
}

func TestQuestionnaireService_ApplyUnknownStepType(t *testing.T) {
	svc := NewQuestionnaireService(newFakeProvider(), nil)
	id, _ := openNew(t, svc)
	apply(t, svc, id, questionnaire.AddStep{StepID: "s1"})

	_, err := svc.Apply(context.Background(), 1, id, questionnaire.ChangeStepType{StepID: "s1", StepType: "rating"})
	assert.ErrorIs(t, err, questionnaire.ErrUnknownStepType)
}

func TestQuestionnaireService_SaveRefusedWithErrors(t *testing.T) {
	provider := newFakeProvider()
	svc := NewQuestionnaireService(provider, nil)
	id, _ := openNew(t, svc)

	state := apply(t, svc, id, questionnaire.AddStep{StepID: "s1"})
	require.NotEmpty(t, state.Errors)

	state, err := svc.Save(context.Background(), 1, id)
	assert.ErrorIs(t, err, ErrQuestionnaireInvalid)
	assert.True(t, state.Dirty)
	assert.False(t, state.Saving)
	assert.Zero(t, provider.updates)
}

func TestQuestionnaireService_Save(t *testing.T) {
	provider := newFakeProvider()
	svc := NewQuestionnaireService(provider, nil)
	id, _ := openNew(t, svc)

	state := apply(t, svc, id, validOps()...)
	require.Empty(t, state.Errors)

	state, err := svc.Save(context.Background(), 1, id)
	require.NoError(t, err)
	assert.False(t, state.Dirty)
	assert.False(t, state.Saving)
	assert.Equal(t, 1, provider.updates)
	assert.Len(t, provider.stored[id].Steps, 1)
}

func TestQuestionnaireService_SaveFailureClearsSaving(t *testing.T) {
	provider := newFakeProvider()
	svc := NewQuestionnaireService(provider, nil)
	id, _ := openNew(t, svc)
	apply(t, svc, id, validOps()...)

	provider.failErr = errors.New("connection reset")
	state, err := svc.Save(context.Background(), 1, id)

	assert.Error(t, err)
	assert.False(t, state.Saving)
	assert.True(t, state.Dirty)
}

func TestQuestionnaireService_EditDuringSaveIsKept(t *testing.T) {
	provider := newFakeProvider()
	svc := NewQuestionnaireService(provider, nil)
	id, _ := openNew(t, svc)
	apply(t, svc, id, validOps()...)

	provider.block = make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := svc.Save(context.Background(), 1, id)
		done <- err
	}()

	require.Eventually(t, func() bool {
		state, err := svc.State(1, id)
		return err == nil && state.Saving
	}, time.Second, time.Millisecond)

	_, err := svc.Save(context.Background(), 1, id)
	assert.ErrorIs(t, err, ErrSaveInProgress)

	apply(t, svc, id, questionnaire.ChangeName{Name: "Bar"})
	close(provider.block)
	require.NoError(t, <-done)

	state, err := svc.State(1, id)
	require.NoError(t, err)
	assert.Equal(t, "Bar", state.Data.Name)
	assert.True(t, state.Dirty)
	assert.False(t, state.Saving)
	assert.Equal(t, "Foo", provider.stored[id].Name)
}

func TestQuestionnaireService_DraftIsReplayedAndTrimmed(t *testing.T) {
	provider := newFakeProvider()
	journal := newMemoryJournal()
	svc := NewQuestionnaireService(provider, journal)
	id, _ := openNew(t, svc)

	apply(t, svc, id, append(validOps(), questionnaire.AddLanguage{Language: "fr"}, questionnaire.Unknown{Type: "NOPE"})...)
	assert.Equal(t, len(validOps())+1, journal.len(1, id))

	restarted := NewQuestionnaireService(provider, journal)
	state, err := restarted.Open(context.Background(), 1, id)
	require.NoError(t, err)
	assert.True(t, state.Dirty)
	assert.Equal(t, []string{"en", "fr"}, state.Data.Languages)
	assert.Equal(t, "s1", state.Data.Steps[1].ID)

	before, err := svc.State(1, id)
	require.NoError(t, err)
	assert.Equal(t, before.Data.Steps, state.Data.Steps)

	_, err = restarted.Save(context.Background(), 1, id)
	require.NoError(t, err)
	assert.Zero(t, journal.len(1, id))
}

func TestQuestionnaireService_SaveDirty(t *testing.T) {
	provider := newFakeProvider()
	svc := NewQuestionnaireService(provider, nil)
	valid, _ := openNew(t, svc)
	invalid, _ := openNew(t, svc)
	clean, _ := openNew(t, svc)

	apply(t, svc, valid, validOps()...)
	apply(t, svc, invalid, questionnaire.AddStep{StepID: "s1"})

	saved, err := svc.SaveDirty(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, saved)
	assert.Equal(t, 1, provider.updates)

	state, err := svc.State(1, clean)
	require.NoError(t, err)
	assert.False(t, state.Dirty)
}

func TestQuestionnaireService_Translations(t *testing.T) {
	svc := NewQuestionnaireService(newFakeProvider(), nil)
	id, _ := openNew(t, svc)
	apply(t, svc, id, append(validOps(), questionnaire.AddLanguage{Language: "fr"})...)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportTranslations(1, id, &buf))
	assert.True(t, strings.HasPrefix(buf.String(), "English,French\n"))
	assert.Contains(t, buf.String(), "Do you smoke?,\n")

	state, err := svc.ImportTranslations(context.Background(), 1, id, strings.NewReader("English,French\nDo you smoke?,Fumez-vous?\n"))
	require.NoError(t, err)
	assert.Equal(t, "Fumez-vous?", state.Data.Steps[1].Prompt["fr"].SMS)

	_, err = svc.ImportTranslations(context.Background(), 1, id, strings.NewReader("English,\"French\n"))
	assert.Error(t, err)
}

func TestQuestionnaireService_StoreValues(t *testing.T) {
	svc := NewQuestionnaireService(newFakeProvider(), nil)
	id, _ := openNew(t, svc)
	apply(t, svc, id, append(validOps(), questionnaire.ChangeStepStore{StepID: "s1", Store: "Smokes"})...)

	values, err := svc.StoreValues(1, id)
	require.NoError(t, err)
	assert.Equal(t, map[string]questionnaire.StoreValues{
		"Smokes": {Type: domains.StepMultipleChoice, Values: []string{"Yes", "No"}},
	}, values)

	_, err = svc.StoreValues(1, id+100)
	assert.ErrorIs(t, err, ErrSessionNotLoaded)
}

func TestQuestionnaireService_FailedOpenReleasesSession(t *testing.T) {
	svc := NewQuestionnaireService(newFakeProvider(), nil)

	for id := int64(1); id <= 100; id++ {
		_, err := svc.Open(context.Background(), 1, id)
		require.ErrorIs(t, err, storage.ErrNotFound)
	}

	assert.Empty(t, svc.sessions)
}

func TestQuestionnaireService_OpenAfterFailedOpen(t *testing.T) {
	provider := newFakeProvider()
	svc := NewQuestionnaireService(provider, nil)

	_, err := svc.Open(context.Background(), 1, 1)
	require.ErrorIs(t, err, storage.ErrNotFound)

	id, state := openNew(t, svc)
	require.Equal(t, int64(1), id)
	require.NotNil(t, state.Data)
	assert.Len(t, svc.sessions, 1)
}

func TestQuestionnaireService_SaveDirtyReleasesIdleSessions(t *testing.T) {
	svc := NewQuestionnaireService(newFakeProvider(), nil)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	idle, _ := openNew(t, svc)
	dirty, _ := openNew(t, svc)
	apply(t, svc, dirty, questionnaire.AddStep{StepID: "s1"})

	now = now.Add(DefaultIdleTimeout + time.Minute)
	recent, _ := openNew(t, svc)

	saved, err := svc.SaveDirty(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, saved)

	_, err = svc.State(1, idle)
	assert.ErrorIs(t, err, ErrSessionNotLoaded)
	_, err = svc.State(1, dirty)
	assert.NoError(t, err, "unsaved edits keep the session")
	_, err = svc.State(1, recent)
	assert.NoError(t, err)

	state, err := svc.Open(context.Background(), 1, idle)
	require.NoError(t, err)
	assert.Equal(t, "Foo", state.Data.Name)
}

func TestQuestionnaireService_Close(t *testing.T) {
	svc := NewQuestionnaireService(newFakeProvider(), nil)
	id, _ := openNew(t, svc)

	apply(t, svc, id, questionnaire.ChangeName{Name: "Bar"})
	assert.ErrorIs(t, svc.Close(1, id), ErrUnsavedChanges)

	apply(t, svc, id, validOps()...)
	_, err := svc.Save(context.Background(), 1, id)
	require.NoError(t, err)

	require.NoError(t, svc.Close(1, id))
	assert.Empty(t, svc.sessions)
	assert.ErrorIs(t, svc.Close(1, id), ErrSessionNotLoaded)

	_, err = svc.Apply(context.Background(), 1, id, questionnaire.ChangeName{Name: "Baz"})
	assert.ErrorIs(t, err, ErrSessionNotLoaded)
}

func TestQuestionnaireService_CloseKeepsJournaledDraft(t *testing.T) {
	provider := newFakeProvider()
	journal := newMemoryJournal()
	svc := NewQuestionnaireService(provider, journal)
	id, _ := openNew(t, svc)
	apply(t, svc, id, questionnaire.ChangeName{Name: "Bar"})

	require.NoError(t, svc.Close(1, id))

	state, err := svc.Open(context.Background(), 1, id)
	require.NoError(t, err)
	assert.Equal(t, "Bar", state.Data.Name)
	assert.True(t, state.Dirty)
}
