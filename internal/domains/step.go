package domains

import (
	"encoding/json"
	"fmt"
)

type StepType string

const (
	StepMultipleChoice    StepType = "multiple-choice"
	StepNumeric           StepType = "numeric"
	StepExplanation       StepType = "explanation"
	StepFlag              StepType = "flag"
	StepLanguageSelection StepType = "language-selection"
)

type Disposition string

const (
	DispositionCompleted  Disposition = "completed"
	DispositionPartial    Disposition = "partial"
	DispositionIneligible Disposition = "ineligible"
)

func (d Disposition) Valid() bool {
	switch d {
	case DispositionCompleted, DispositionPartial, DispositionIneligible:
		return true
	}
	return false
}

// Step is one question or message of a questionnaire. The fields every variant
// shares live on Step; the variant-specific ones live in Body.
type Step struct {
	ID     string
	Title  string
	Store  string
	Prompt Prompt
	Body   StepBody
}

// StepBody is implemented by MultipleChoice, Numeric, Explanation, Flag and
// LanguageSelection only.
type StepBody interface {
	StepType() StepType
	stepBody()
}

type MultipleChoice struct {
	Choices []Choice
}

type Numeric struct {
	MinValue         *int
	MaxValue         *int
	RangesDelimiters string
	Ranges           []Range
	Refusal          *Refusal
}

type Explanation struct {
	SkipLogic *string
}

type Flag struct {
	Disposition Disposition
	SkipLogic   *string
}

type LanguageSelection struct {
	LanguageChoices LanguageChoices
}

func (MultipleChoice) StepType() StepType    { return StepMultipleChoice }
func (Numeric) StepType() StepType           { return StepNumeric }
func (Explanation) StepType() StepType       { return StepExplanation }
func (Flag) StepType() StepType              { return StepFlag }
func (LanguageSelection) StepType() StepType { return StepLanguageSelection }

func (MultipleChoice) stepBody()    {}
func (Numeric) stepBody()           {}
func (Explanation) stepBody()       {}
func (Flag) stepBody()              {}
func (LanguageSelection) stepBody() {}

// Type returns the variant tag, or "" for a step without a body.
func (s Step) Type() StepType {
	if s.Body == nil {
		return ""
	}
	return s.Body.StepType()
}

// LanguageChoices is the language-selection option list. Slot 0 is an empty
// placeholder (null on the wire); the rest are language codes in selection order.
type LanguageChoices []string

func (lc LanguageChoices) MarshalJSON() ([]byte, error) {
	out := make([]*string, len(lc))
	for i := range lc {
		if lc[i] != "" {
			v := lc[i]
			out[i] = &v
		}
	}
	return json.Marshal(out)
}

func (lc *LanguageChoices) UnmarshalJSON(data []byte) error {
	var raw []*string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(LanguageChoices, len(raw))
	for i, v := range raw {
		if v != nil {
			out[i] = *v
		}
	}
	*lc = out
	return nil
}

// Index returns the slot holding code, or -1.
func (lc LanguageChoices) Index(code string) int {
	if code == "" {
		return -1
	}
	return indexOf(lc, code)
}

type stepJSON struct {
	ID               string          `json:"id"`
	Type             StepType        `json:"type"`
	Title            string          `json:"title"`
	Store            string          `json:"store,omitempty"`
	Prompt           Prompt          `json:"prompt,omitempty"`
	Choices          *[]Choice       `json:"choices,omitempty"`
	MinValue         *int            `json:"minValue,omitempty"`
	MaxValue         *int            `json:"maxValue,omitempty"`
	RangesDelimiters string          `json:"rangesDelimiters,omitempty"`
	Ranges           []Range         `json:"ranges,omitempty"`
	Refusal          *Refusal        `json:"refusal,omitempty"`
	Disposition      Disposition     `json:"disposition,omitempty"`
	SkipLogic        *string         `json:"skipLogic,omitempty"`
	LanguageChoices  LanguageChoices `json:"languageChoices,omitempty"`
}

func (s Step) MarshalJSON() ([]byte, error) {
	out := stepJSON{
		ID:     s.ID,
		Type:   s.Type(),
		Title:  s.Title,
		Store:  s.Store,
		Prompt: s.Prompt,
	}
	switch b := s.Body.(type) {
	case MultipleChoice:
		choices := b.Choices
		if choices == nil {
			choices = []Choice{}
		}
		out.Choices = &choices
	case Numeric:
		out.MinValue = b.MinValue
		out.MaxValue = b.MaxValue
		out.RangesDelimiters = b.RangesDelimiters
		out.Ranges = b.Ranges
		out.Refusal = b.Refusal
	case Explanation:
		out.SkipLogic = b.SkipLogic
	case Flag:
		out.Disposition = b.Disposition
		out.SkipLogic = b.SkipLogic
	case LanguageSelection:
		out.LanguageChoices = b.LanguageChoices
	default:
		return nil, fmt.Errorf("step %s: %w", s.ID, ErrUnknownStepType)
	}
	return json.Marshal(out)
}

func (s *Step) UnmarshalJSON(data []byte) error {
	var in stepJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	step := Step{ID: in.ID, Title: in.Title, Store: in.Store, Prompt: in.Prompt}
	switch in.Type {
	case StepMultipleChoice:
		body := MultipleChoice{Choices: []Choice{}}
		if in.Choices != nil {
			body.Choices = *in.Choices
		}
		step.Body = body
	case StepNumeric:
		step.Body = Numeric{
			MinValue:         in.MinValue,
			MaxValue:         in.MaxValue,
			RangesDelimiters: in.RangesDelimiters,
			Ranges:           in.Ranges,
			Refusal:          in.Refusal,
		}
	case StepExplanation:
		step.Body = Explanation{SkipLogic: in.SkipLogic}
	case StepFlag:
		step.Body = Flag{Disposition: in.Disposition, SkipLogic: in.SkipLogic}
	case StepLanguageSelection:
		step.Body = LanguageSelection{LanguageChoices: in.LanguageChoices}
	default:
		return fmt.Errorf("step %s type %q: %w", in.ID, in.Type, ErrUnknownStepType)
	}
	*s = step
	return nil
}
