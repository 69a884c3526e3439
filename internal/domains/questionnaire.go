package domains

import "strings"

type Mode string

const (
	ModeSMS       Mode = "sms"
	ModeIVR       Mode = "ivr"
	ModeMobileWeb Mode = "mobileweb"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeSMS, ModeIVR, ModeMobileWeb:
		return true
	}
	return false
}

type AudioSource string

const (
	AudioTTS    AudioSource = "tts"
	AudioUpload AudioSource = "upload"
)

// SkipToEnd is the terminal skip target: the survey ends after the step.
const SkipToEnd = "end"

// Settings message keys.
const (
	MsgQuotaCompleted = "quotaCompletedMsg"
	MsgError          = "errorMsg"
	MsgThankYou       = "thankYouMessage"
)

// Questionnaire is the root aggregate of an editing session. Values are treated as
// immutable: edits build new slices and maps and never write through old ones.
type Questionnaire struct {
	ID              *int64   `json:"id"`
	ProjectID       int64    `json:"projectId"`
	Name            string   `json:"name"`
	Modes           []Mode   `json:"modes"`
	Languages       []string `json:"languages"`
	DefaultLanguage string   `json:"defaultLanguage"`
	ActiveLanguage  string   `json:"activeLanguage"`
	Steps           []Step   `json:"steps"`
	Settings        Settings `json:"settings"`
}

// Settings holds one cross-step message prompt per message key.
type Settings map[string]Prompt

type IvrPrompt struct {
	Text        string      `json:"text"`
	AudioSource AudioSource `json:"audioSource"`
	AudioID     string      `json:"audioId,omitempty"`
}

type LanguagePrompt struct {
	SMS       string     `json:"sms,omitempty"`
	IVR       *IvrPrompt `json:"ivr,omitempty"`
	MobileWeb string     `json:"mobileweb,omitempty"`
}

// Prompt maps a language code to that language's prompt.
type Prompt map[string]LanguagePrompt

// ChoiceResponses are the response tokens accepted for a choice in one language.
type ChoiceResponses struct {
	SMS       []string `json:"sms"`
	IVR       []string `json:"ivr"`
	MobileWeb string   `json:"mobileweb,omitempty"`
}

type Choice struct {
	Value     string                     `json:"value"`
	Responses map[string]ChoiceResponses `json:"responses"`
	SkipLogic *string                    `json:"skipLogic"`
}

// Range is a closed integer interval; a nil bound is open.
type Range struct {
	From      *int    `json:"from"`
	To        *int    `json:"to"`
	SkipLogic *string `json:"skipLogic"`
}

type Refusal struct {
	Enabled   bool                       `json:"enabled"`
	Responses map[string]ChoiceResponses `json:"responses"`
	SkipLogic *string                    `json:"skipLogic"`
}

// HasMode reports whether the channel is enabled.
func (q Questionnaire) HasMode(m Mode) bool {
	for _, mode := range q.Modes {
		if mode == m {
			return true
		}
	}
	return false
}

// HasLanguage reports whether code is one of the questionnaire languages.
func (q Questionnaire) HasLanguage(code string) bool {
	return indexOf(q.Languages, code) != -1
}

// StepIndex returns the position of the step with the given id, or -1.
func (q Questionnaire) StepIndex(id string) int {
	for i, s := range q.Steps {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// LanguageSelection returns the language-selection step. When present it is always
// the first step; this is the only place that convention is read.
func (q Questionnaire) LanguageSelection() (Step, bool) {
	if len(q.Steps) == 0 {
		return Step{}, false
	}
	if _, ok := q.Steps[0].Body.(LanguageSelection); !ok {
		return Step{}, false
	}
	return q.Steps[0], true
}

// NonDefaultLanguages returns the languages other than the default, in order.
func (q Questionnaire) NonDefaultLanguages() []string {
	out := make([]string, 0, len(q.Languages))
	for _, l := range q.Languages {
		if l != q.DefaultLanguage {
			out = append(out, l)
		}
	}
	return out
}

// IsBlank is the single blank test used across validation, export and import.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// With returns a copy of p with lang set to lp.
func (p Prompt) With(lang string, lp LanguagePrompt) Prompt {
	out := make(Prompt, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	out[lang] = lp
	return out
}

// IVRText returns the IVR text for lang, or "" when absent.
func (p Prompt) IVRText(lang string) string {
	if lp, ok := p[lang]; ok && lp.IVR != nil {
		return lp.IVR.Text
	}
	return ""
}

// With returns a copy of s with key set to p.
func (s Settings) With(key string, p Prompt) Settings {
	out := make(Settings, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	out[key] = p
	return out
}

// WithResponses returns a copy of the choice with lang's responses replaced.
func (c Choice) WithResponses(lang string, r ChoiceResponses) Choice {
	c.Responses = withResponses(c.Responses, lang, r)
	return c
}

func withResponses(m map[string]ChoiceResponses, lang string, r ChoiceResponses) map[string]ChoiceResponses {
	out := make(map[string]ChoiceResponses, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[lang] = r
	return out
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return -1
}
