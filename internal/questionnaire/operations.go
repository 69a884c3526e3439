package questionnaire

import (
	"encoding/json"

	"surveyeditor/internal/domains"
)

// Operation wire names.
const (
	TypeFetch   = "FETCH"
	TypeReceive = "RECEIVE"
	TypeSaving  = "SAVING"
	TypeSaved   = "SAVED"

	TypeChangeName                   = "CHANGE_NAME"
	TypeToggleMode                   = "TOGGLE_MODE"
	TypeAddStep                      = "ADD_STEP"
	TypeDeleteStep                   = "DELETE_STEP"
	TypeChangeStepType               = "CHANGE_STEP_TYPE"
	TypeChangeStepTitle              = "CHANGE_STEP_TITLE"
	TypeChangeStepStore              = "CHANGE_STEP_STORE"
	TypeChangeStepPromptSMS          = "CHANGE_STEP_PROMPT_SMS"
	TypeChangeStepPromptIVR          = "CHANGE_STEP_PROMPT_IVR"
	TypeChangeStepAudioIDIVR         = "CHANGE_STEP_AUDIO_ID_IVR"
	TypeChangeStepPromptMobileWeb    = "CHANGE_STEP_PROMPT_MOBILEWEB"
	TypeAutocompleteStepPrompt       = "AUTOCOMPLETE_STEP_PROMPT"
	TypeChangeStepSkipLogic          = "CHANGE_STEP_SKIP_LOGIC"
	TypeChangeDisposition            = "CHANGE_DISPOSITION"
	TypeAddChoice                    = "ADD_CHOICE"
	TypeDeleteChoice                 = "DELETE_CHOICE"
	TypeChangeChoice                 = "CHANGE_CHOICE"
	TypeChangeNumericRanges          = "CHANGE_NUMERIC_RANGES"
	TypeChangeRangeSkipLogic         = "CHANGE_RANGE_SKIP_LOGIC"
	TypeChangeRefusal                = "CHANGE_REFUSAL"
	TypeAddLanguage                  = "ADD_LANGUAGE"
	TypeRemoveLanguage               = "REMOVE_LANGUAGE"
	TypeReorderLanguages             = "REORDER_LANGUAGES"
	TypeSetDefaultLanguage           = "SET_DEFAULT_LANGUAGE"
	TypeSetActiveLanguage            = "SET_ACTIVE_LANGUAGE"
	TypeSetQuestionnaireMsg          = "SET_QUESTIONNAIRE_MSG"
	TypeAutocompleteQuestionnaireMsg = "AUTOCOMPLETE_QUESTIONNAIRE_MSG"
	TypeUploadTranslations           = "UPLOAD_TRANSLATIONS"

	TypeSetSMSQuestionnaireMsg          = "SET_SMS_QUESTIONNAIRE_MSG"
	TypeSetIVRQuestionnaireMsg          = "SET_IVR_QUESTIONNAIRE_MSG"
	TypeSetMobileWebQuestionnaireMsg    = "SET_MOBILEWEB_QUESTIONNAIRE_MSG"
	TypeAutocompleteSMSQuestionnaireMsg = "AUTOCOMPLETE_SMS_QUESTIONNAIRE_MSG"
	TypeAutocompleteIVRQuestionnaireMsg = "AUTOCOMPLETE_IVR_QUESTIONNAIRE_MSG"
	TypeAutocompleteStepPromptSMS       = "AUTOCOMPLETE_STEP_PROMPT_SMS"
	TypeAutocompleteStepPromptIVR       = "AUTOCOMPLETE_STEP_PROMPT_IVR"
)

// Operation is one tagged record dispatched to Reduce.
type Operation interface {
	OpType() string
}

type Fetch struct {
	ProjectID int64  `json:"projectId"`
	ID        *int64 `json:"id"`
}

type Receive struct {
	Data domains.Questionnaire `json:"data"`
}

type Saving struct{}

// Saved carries the canonical questionnaire echoed back by the store.
type Saved struct {
	Data domains.Questionnaire `json:"data"`
}

type ChangeName struct {
	Name string `json:"name"`
}

type ToggleMode struct {
	Mode domains.Mode `json:"mode"`
}

// AddStep appends a multiple-choice step. StepID is generated when empty.
type AddStep struct {
	StepID string `json:"stepId,omitempty"`
}

type DeleteStep struct {
	StepID string `json:"stepId"`
}

type ChangeStepType struct {
	StepID   string           `json:"stepId"`
	StepType domains.StepType `json:"stepType"`
}

type ChangeStepTitle struct {
	StepID string `json:"stepId"`
	Title  string `json:"title"`
}

type ChangeStepStore struct {
	StepID string `json:"stepId"`
	Store  string `json:"store"`
}

type ChangeStepPromptSMS struct {
	StepID string `json:"stepId"`
	Prompt string `json:"prompt"`
}

type ChangeStepPromptIVR struct {
	StepID string            `json:"stepId"`
	Prompt domains.IvrPrompt `json:"prompt"`
}

type ChangeStepAudioIDIVR struct {
	StepID  string `json:"stepId"`
	AudioID string `json:"audioId"`
}

type ChangeStepPromptMobileWeb struct {
	StepID string `json:"stepId"`
	Prompt string `json:"prompt"`
}

type AutocompleteStepPrompt struct {
	StepID  string           `json:"stepId"`
	Channel domains.Mode     `json:"channel"`
	Item    AutocompleteItem `json:"item"`
}

type ChangeStepSkipLogic struct {
	StepID    string  `json:"stepId"`
	SkipLogic *string `json:"skipLogic"`
}

type ChangeDisposition struct {
	StepID      string              `json:"stepId"`
	Disposition domains.Disposition `json:"disposition"`
}

type AddChoice struct {
	StepID string `json:"stepId"`
}

type DeleteChoice struct {
	StepID string `json:"stepId"`
	Index  int    `json:"index"`
}

// ChangeChoice replaces a choice. SMSValues and IVRValues are comma-separated token
// lists in the active language.
type ChangeChoice struct {
	StepID       string  `json:"stepId"`
	Index        int     `json:"index"`
	Value        string  `json:"value"`
	SMSValues    string  `json:"smsValues"`
	IVRValues    string  `json:"ivrValues"`
	SkipLogic    *string `json:"skipLogic"`
	AutoComplete bool    `json:"autoComplete"`
}

type ChangeNumericRanges struct {
	StepID           string `json:"stepId"`
	MinValue         string `json:"minValue"`
	MaxValue         string `json:"maxValue"`
	RangesDelimiters string `json:"rangesDelimiters"`
}

type ChangeRangeSkipLogic struct {
	StepID     string  `json:"stepId"`
	RangeIndex int     `json:"rangeIndex"`
	SkipLogic  *string `json:"skipLogic"`
}

type ChangeRefusal struct {
	StepID    string  `json:"stepId"`
	Enabled   bool    `json:"enabled"`
	SMSValues string  `json:"smsValues"`
	IVRValues string  `json:"ivrValues"`
	SkipLogic *string `json:"skipLogic"`
}

// AddLanguage adds a language. StepID names the language-selection step when one
// has to be created and is generated when empty.
type AddLanguage struct {
	Language string `json:"language"`
	StepID   string `json:"stepId,omitempty"`
}

type RemoveLanguage struct {
	Language string `json:"language"`
}

type ReorderLanguages struct {
	Language string `json:"language"`
	Index    int    `json:"index"`
}

type SetDefaultLanguage struct {
	Language string `json:"language"`
}

type SetActiveLanguage struct {
	Language string `json:"language"`
}

// SetQuestionnaireMsg sets settings[Key][activeLanguage][Channel]. AudioSource only
// applies to the ivr channel.
type SetQuestionnaireMsg struct {
	Key         string              `json:"key"`
	Channel     domains.Mode        `json:"channel"`
	Text        string              `json:"text"`
	AudioSource domains.AudioSource `json:"audioSource,omitempty"`
}

type AutocompleteQuestionnaireMsg struct {
	Key     string           `json:"key"`
	Channel domains.Mode     `json:"channel"`
	Item    AutocompleteItem `json:"item"`
}

type Translation struct {
	Language string `json:"language"`
	Text     string `json:"text"`
}

// AutocompleteItem is a previously entered text together with its known translations.
type AutocompleteItem struct {
	ID           string        `json:"id"`
	Text         string        `json:"text"`
	Translations []Translation `json:"translations"`
}

type UploadTranslations struct {
	Rows [][]string `json:"rows"`
}

// Unknown is an operation whose type is not recognised; Reduce ignores it.
type Unknown struct {
	Type string `json:"type"`
}

func (Fetch) OpType() string                        { return TypeFetch }
func (Receive) OpType() string                      { return TypeReceive }
func (Saving) OpType() string                       { return TypeSaving }
func (Saved) OpType() string                        { return TypeSaved }
func (ChangeName) OpType() string                   { return TypeChangeName }
func (ToggleMode) OpType() string                   { return TypeToggleMode }
func (AddStep) OpType() string                      { return TypeAddStep }
func (DeleteStep) OpType() string                   { return TypeDeleteStep }
func (ChangeStepType) OpType() string               { return TypeChangeStepType }
func (ChangeStepTitle) OpType() string              { return TypeChangeStepTitle }
func (ChangeStepStore) OpType() string              { return TypeChangeStepStore }
func (ChangeStepPromptSMS) OpType() string          { return TypeChangeStepPromptSMS }
func (ChangeStepPromptIVR) OpType() string          { return TypeChangeStepPromptIVR }
func (ChangeStepAudioIDIVR) OpType() string         { return TypeChangeStepAudioIDIVR }
func (ChangeStepPromptMobileWeb) OpType() string    { return TypeChangeStepPromptMobileWeb }
func (AutocompleteStepPrompt) OpType() string       { return TypeAutocompleteStepPrompt }
func (ChangeStepSkipLogic) OpType() string          { return TypeChangeStepSkipLogic }
func (ChangeDisposition) OpType() string            { return TypeChangeDisposition }
func (AddChoice) OpType() string                    { return TypeAddChoice }
func (DeleteChoice) OpType() string                 { return TypeDeleteChoice }
func (ChangeChoice) OpType() string                 { return TypeChangeChoice }
func (ChangeNumericRanges) OpType() string          { return TypeChangeNumericRanges }
func (ChangeRangeSkipLogic) OpType() string         { return TypeChangeRangeSkipLogic }
func (ChangeRefusal) OpType() string                { return TypeChangeRefusal }
func (AddLanguage) OpType() string                  { return TypeAddLanguage }
func (RemoveLanguage) OpType() string               { return TypeRemoveLanguage }
func (ReorderLanguages) OpType() string             { return TypeReorderLanguages }
func (SetDefaultLanguage) OpType() string           { return TypeSetDefaultLanguage }
func (SetActiveLanguage) OpType() string            { return TypeSetActiveLanguage }
func (SetQuestionnaireMsg) OpType() string          { return TypeSetQuestionnaireMsg }
func (AutocompleteQuestionnaireMsg) OpType() string { return TypeAutocompleteQuestionnaireMsg }
func (UploadTranslations) OpType() string           { return TypeUploadTranslations }
func (u Unknown) OpType() string                    { return u.Type }

func decodeAs[T Operation](data []byte) (Operation, error) {
	var op T
	if err := json.Unmarshal(data, &op); err != nil {
		return nil, err
	}
	return op, nil
}

// Only edit operations travel over the wire; the lifecycle signals are raised by
// the editing session itself.
var decoders = map[string]func([]byte) (Operation, error){
	TypeChangeName:                   decodeAs[ChangeName],
	TypeToggleMode:                   decodeAs[ToggleMode],
	TypeAddStep:                      decodeAs[AddStep],
	TypeDeleteStep:                   decodeAs[DeleteStep],
	TypeChangeStepType:               decodeAs[ChangeStepType],
	TypeChangeStepTitle:              decodeAs[ChangeStepTitle],
	TypeChangeStepStore:              decodeAs[ChangeStepStore],
	TypeChangeStepPromptSMS:          decodeAs[ChangeStepPromptSMS],
	TypeChangeStepPromptIVR:          decodeAs[ChangeStepPromptIVR],
	TypeChangeStepAudioIDIVR:         decodeAs[ChangeStepAudioIDIVR],
	TypeChangeStepPromptMobileWeb:    decodeAs[ChangeStepPromptMobileWeb],
	TypeAutocompleteStepPrompt:       decodeAs[AutocompleteStepPrompt],
	TypeChangeStepSkipLogic:          decodeAs[ChangeStepSkipLogic],
	TypeChangeDisposition:            decodeAs[ChangeDisposition],
	TypeAddChoice:                    decodeAs[AddChoice],
	TypeDeleteChoice:                 decodeAs[DeleteChoice],
	TypeChangeChoice:                 decodeAs[ChangeChoice],
	TypeChangeNumericRanges:          decodeAs[ChangeNumericRanges],
	TypeChangeRangeSkipLogic:         decodeAs[ChangeRangeSkipLogic],
	TypeChangeRefusal:                decodeAs[ChangeRefusal],
	TypeAddLanguage:                  decodeAs[AddLanguage],
	TypeRemoveLanguage:               decodeAs[RemoveLanguage],
	TypeReorderLanguages:             decodeAs[ReorderLanguages],
	TypeSetDefaultLanguage:           decodeAs[SetDefaultLanguage],
	TypeSetActiveLanguage:            decodeAs[SetActiveLanguage],
	TypeSetQuestionnaireMsg:          decodeAs[SetQuestionnaireMsg],
	TypeAutocompleteQuestionnaireMsg: decodeAs[AutocompleteQuestionnaireMsg],
	TypeUploadTranslations:           decodeAs[UploadTranslations],

	TypeSetSMSQuestionnaireMsg:          decodeOnChannel(domains.ModeSMS, SetQuestionnaireMsg.onChannel),
	TypeSetIVRQuestionnaireMsg:          decodeOnChannel(domains.ModeIVR, SetQuestionnaireMsg.onChannel),
	TypeSetMobileWebQuestionnaireMsg:    decodeOnChannel(domains.ModeMobileWeb, SetQuestionnaireMsg.onChannel),
	TypeAutocompleteSMSQuestionnaireMsg: decodeOnChannel(domains.ModeSMS, AutocompleteQuestionnaireMsg.onChannel),
	TypeAutocompleteIVRQuestionnaireMsg: decodeOnChannel(domains.ModeIVR, AutocompleteQuestionnaireMsg.onChannel),
	TypeAutocompleteStepPromptSMS:       decodeOnChannel(domains.ModeSMS, AutocompleteStepPrompt.onChannel),
	TypeAutocompleteStepPromptIVR:       decodeOnChannel(domains.ModeIVR, AutocompleteStepPrompt.onChannel),
}

// decodeOnChannel reads the per-channel spelling of an operation whose channel is
// otherwise a parameter.
func decodeOnChannel[T Operation](channel domains.Mode, on func(T, domains.Mode) T) func([]byte) (Operation, error) {
	return func(data []byte) (Operation, error) {
		var op T
		if err := json.Unmarshal(data, &op); err != nil {
			return nil, err
		}
		return on(op, channel), nil
	}
}

func (op SetQuestionnaireMsg) onChannel(m domains.Mode) SetQuestionnaireMsg {
	op.Channel = m
	return op
}

func (op AutocompleteQuestionnaireMsg) onChannel(m domains.Mode) AutocompleteQuestionnaireMsg {
	op.Channel = m
	return op
}

func (op AutocompleteStepPrompt) onChannel(m domains.Mode) AutocompleteStepPrompt {
	op.Channel = m
	return op
}

// DecodeOperation reads a {"type": ..., ...params} record. An unrecognised type
// decodes to Unknown rather than failing.
func DecodeOperation(data []byte) (Operation, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	decode, ok := decoders[envelope.Type]
	if !ok {
		return Unknown{Type: envelope.Type}, nil
	}
	return decode(data)
}

// EncodeOperation writes op in the {"type": ..., ...params} form read by
// DecodeOperation.
func EncodeOperation(op Operation) ([]byte, error) {
	data, err := json.Marshal(op)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	typ, err := json.Marshal(op.OpType())
	if err != nil {
		return nil, err
	}
	fields["type"] = typ
	return json.Marshal(fields)
}
