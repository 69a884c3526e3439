package questionnaire

import (
	"surveyeditor/internal/domains"
	"surveyeditor/internal/translation"
)

// Filter identifies the questionnaire an editing session is bound to.
type Filter struct {
	ProjectID int64  `json:"projectId"`
	ID        *int64 `json:"id"`
}

func (f *Filter) matches(other *Filter) bool {
	if f == nil || other == nil {
		return f == nil && other == nil
	}
	if f.ProjectID != other.ProjectID {
		return false
	}
	if f.ID == nil || other.ID == nil {
		return f.ID == nil && other.ID == nil
	}
	return *f.ID == *other.ID
}

// State is the outbound editing state. A State value is never modified after it is
// returned from Reduce.
type State struct {
	Fetching bool                   `json:"fetching"`
	Filter   *Filter                `json:"filter"`
	Dirty    bool                   `json:"dirty"`
	Saving   bool                   `json:"saving"`
	Data     *domains.Questionnaire `json:"data"`
	Errors   Errors                 `json:"errors"`

	revision       uint64
	savingRevision uint64
}

// Revision counts the edit operations applied since the session started.
func (s State) Revision() uint64 {
	return s.revision
}

// ShouldFetch reports whether a fetch for (projectID, id) is needed: it is not when
// one is already in flight for the same questionnaire.
func ShouldFetch(s State, projectID int64, id *int64) bool {
	return !s.Fetching || !s.Filter.matches(&Filter{ProjectID: projectID, ID: id})
}

// Reduce applies op to s and returns the next state with freshly computed errors.
// Unknown operations return s unchanged. The only error is ErrUnknownStepType from
// CHANGE_STEP_TYPE, which signals a caller bug.
func Reduce(s State, op Operation) (State, error) {
	var next State
	switch op := op.(type) {
	case Fetch:
		next = fetch(s, op)
	case Receive:
		next = receive(s, op)
	case Saving:
		next = s
		next.Saving = true
		next.savingRevision = s.revision
	case Saved:
		next = saved(s, op)
	case Unknown:
		return s, nil
	default:
		if s.Data == nil {
			return s, nil
		}
		data, err := apply(*s.Data, op)
		if err != nil {
			return s, err
		}
		next = s
		next.Data = &data
		next.Dirty = true
		next.revision = s.revision + 1
	}
	next.Errors = nil
	if next.Data != nil {
		next.Errors = Validate(*next.Data)
	}
	return next, nil
}

func fetch(s State, op Fetch) State {
	filter := &Filter{ProjectID: op.ProjectID, ID: op.ID}
	next := s
	if !s.Filter.matches(filter) {
		next.Data = nil
		next.Dirty = false
	}
	next.Fetching = true
	next.Filter = filter
	return next
}

func receive(s State, op Receive) State {
	if !s.Filter.matches(&Filter{ProjectID: op.Data.ProjectID, ID: op.Data.ID}) {
		return s
	}
	data := normalize(op.Data)
	next := s
	next.Fetching = false
	next.Dirty = false
	next.Data = &data
	return next
}

func saved(s State, op Saved) State {
	next := s
	next.Saving = false
	if s.revision != s.savingRevision {
		return next
	}
	data := normalize(op.Data)
	if s.Data != nil {
		// The store does not keep the editor's live-preview language.
		if data.HasLanguage(s.Data.ActiveLanguage) {
			data.ActiveLanguage = s.Data.ActiveLanguage
		}
	}
	next.Data = &data
	next.Dirty = false
	next.Filter = &Filter{ProjectID: data.ProjectID, ID: data.ID}
	return next
}

// normalize fills the fields a stored document may omit.
func normalize(q domains.Questionnaire) domains.Questionnaire {
	if q.DefaultLanguage == "" && len(q.Languages) > 0 {
		q.DefaultLanguage = q.Languages[0]
	}
	if !q.HasLanguage(q.ActiveLanguage) {
		q.ActiveLanguage = q.DefaultLanguage
	}
	if q.Steps == nil {
		q.Steps = []domains.Step{}
	}
	return withLanguageSelection(q)
}

func apply(q domains.Questionnaire, op Operation) (domains.Questionnaire, error) {
	switch op := op.(type) {
	case ChangeName:
		return changeName(q, op), nil
	case ToggleMode:
		return toggleMode(q, op), nil
	case AddStep:
		return addStep(q, op), nil
	case DeleteStep:
		return deleteStep(q, op), nil
	case ChangeStepType:
		return changeStepType(q, op)
	case ChangeStepTitle:
		return changeStepTitle(q, op), nil
	case ChangeStepStore:
		return changeStepStore(q, op), nil
	case ChangeStepPromptSMS:
		return changeStepPromptSMS(q, op), nil
	case ChangeStepPromptIVR:
		return changeStepPromptIVR(q, op), nil
	case ChangeStepAudioIDIVR:
		return changeStepAudioIDIVR(q, op), nil
	case ChangeStepPromptMobileWeb:
		return changeStepPromptMobileWeb(q, op), nil
	case AutocompleteStepPrompt:
		return autocompleteStepPrompt(q, op), nil
	case ChangeStepSkipLogic:
		return changeStepSkipLogic(q, op), nil
	case ChangeDisposition:
		return changeDisposition(q, op), nil
	case AddChoice:
		return addChoice(q, op), nil
	case DeleteChoice:
		return deleteChoice(q, op), nil
	case ChangeChoice:
		return changeChoice(q, op), nil
	case ChangeNumericRanges:
		return changeNumericRanges(q, op), nil
	case ChangeRangeSkipLogic:
		return changeRangeSkipLogic(q, op), nil
	case ChangeRefusal:
		return changeRefusal(q, op), nil
	case AddLanguage:
		return addLanguage(q, op), nil
	case RemoveLanguage:
		return removeLanguage(q, op), nil
	case ReorderLanguages:
		return reorderLanguages(q, op), nil
	case SetDefaultLanguage:
		return setDefaultLanguage(q, op), nil
	case SetActiveLanguage:
		return setActiveLanguage(q, op), nil
	case SetQuestionnaireMsg:
		return setQuestionnaireMsg(q, op), nil
	case AutocompleteQuestionnaireMsg:
		return autocompleteQuestionnaireMsg(q, op), nil
	case UploadTranslations:
		return translation.Import(q, op.Rows), nil
	}
	return q, nil
}
