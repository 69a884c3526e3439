package questionnaire

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"surveyeditor/internal/domains"
)

// ErrUnknownStepType is returned by Reduce when CHANGE_STEP_TYPE names a variant
// that cannot be converted to.
var ErrUnknownStepType = domains.ErrUnknownStepType

var newStepID = uuid.NewString

// changeStep replaces the step with the given id by fn(step). A missing id leaves
// q untouched.
func changeStep(q domains.Questionnaire, stepID string, fn func(domains.Step) domains.Step) domains.Questionnaire {
	i := q.StepIndex(stepID)
	if i == -1 {
		return q
	}
	steps := make([]domains.Step, len(q.Steps))
	copy(steps, q.Steps)
	steps[i] = fn(steps[i])
	q.Steps = steps
	return q
}

func changeName(q domains.Questionnaire, op ChangeName) domains.Questionnaire {
	q.Name = strings.TrimSpace(op.Name)
	return q
}

func toggleMode(q domains.Questionnaire, op ToggleMode) domains.Questionnaire {
	if !op.Mode.Valid() {
		return q
	}
	modes := make([]domains.Mode, 0, len(q.Modes)+1)
	found := false
	for _, m := range q.Modes {
		if m == op.Mode {
			found = true
			continue
		}
		modes = append(modes, m)
	}
	if !found {
		modes = append(modes, op.Mode)
	}
	q.Modes = modes
	return q
}

func promptSkeleton(lang string) domains.Prompt {
	return domains.Prompt{
		lang: {
			SMS: "",
			IVR: &domains.IvrPrompt{Text: "", AudioSource: domains.AudioTTS},
		},
	}
}

func addStep(q domains.Questionnaire, op AddStep) domains.Questionnaire {
	id := op.StepID
	if id == "" {
		id = newStepID()
	}
	step := domains.Step{
		ID:     id,
		Prompt: promptSkeleton(q.DefaultLanguage),
		Body:   domains.MultipleChoice{Choices: []domains.Choice{}},
	}
	steps := make([]domains.Step, 0, len(q.Steps)+1)
	steps = append(steps, q.Steps...)
	q.Steps = append(steps, step)
	return q
}

// deleteStep removes the step and clears every skip logic that pointed at it. The
// language-selection step follows the language list and cannot be deleted directly.
func deleteStep(q domains.Questionnaire, op DeleteStep) domains.Questionnaire {
	i := q.StepIndex(op.StepID)
	if i == -1 {
		return q
	}
	if q.Steps[i].Type() == domains.StepLanguageSelection {
		return q
	}
	steps := make([]domains.Step, 0, len(q.Steps)-1)
	for _, s := range q.Steps {
		if s.ID == op.StepID {
			continue
		}
		steps = append(steps, clearSkipLogic(s, op.StepID))
	}
	q.Steps = steps
	return q
}

func clearSkipLogic(s domains.Step, target string) domains.Step {
	points := func(ref *string) bool { return ref != nil && *ref == target }
	switch b := s.Body.(type) {
	case domains.MultipleChoice:
		choices := make([]domains.Choice, len(b.Choices))
		for i, c := range b.Choices {
			if points(c.SkipLogic) {
				c.SkipLogic = nil
			}
			choices[i] = c
		}
		b.Choices = choices
		s.Body = b
	case domains.Numeric:
		ranges := make([]domains.Range, len(b.Ranges))
		for i, r := range b.Ranges {
			if points(r.SkipLogic) {
				r.SkipLogic = nil
			}
			ranges[i] = r
		}
		b.Ranges = ranges
		if b.Refusal != nil && points(b.Refusal.SkipLogic) {
			refusal := *b.Refusal
			refusal.SkipLogic = nil
			b.Refusal = &refusal
		}
		s.Body = b
	case domains.Explanation:
		if points(b.SkipLogic) {
			b.SkipLogic = nil
		}
		s.Body = b
	case domains.Flag:
		if points(b.SkipLogic) {
			b.SkipLogic = nil
		}
		s.Body = b
	}
	return s
}

// convertStep keeps id, title, store and prompt and resets the variant body.
func convertStep(s domains.Step, to domains.StepType) (domains.Step, error) {
	switch to {
	case domains.StepMultipleChoice:
		s.Body = domains.MultipleChoice{Choices: []domains.Choice{}}
	case domains.StepNumeric:
		s.Body = domains.Numeric{Ranges: []domains.Range{{}}}
	case domains.StepExplanation:
		s.Body = domains.Explanation{}
	case domains.StepFlag:
		s.Body = domains.Flag{Disposition: domains.DispositionCompleted}
	default:
		return s, fmt.Errorf("convert step %s to %q: %w", s.ID, to, ErrUnknownStepType)
	}
	return s, nil
}

func changeStepType(q domains.Questionnaire, op ChangeStepType) (domains.Questionnaire, error) {
	i := q.StepIndex(op.StepID)
	if i == -1 {
		return q, nil
	}
	if q.Steps[i].Type() == domains.StepLanguageSelection {
		return q, nil
	}
	converted, err := convertStep(q.Steps[i], op.StepType)
	if err != nil {
		return q, err
	}
	return changeStep(q, op.StepID, func(domains.Step) domains.Step { return converted }), nil
}

func changeStepTitle(q domains.Questionnaire, op ChangeStepTitle) domains.Questionnaire {
	return changeStep(q, op.StepID, func(s domains.Step) domains.Step {
		s.Title = strings.TrimSpace(op.Title)
		return s
	})
}

func changeStepStore(q domains.Questionnaire, op ChangeStepStore) domains.Questionnaire {
	return changeStep(q, op.StepID, func(s domains.Step) domains.Step {
		s.Store = strings.TrimSpace(op.Store)
		return s
	})
}

// changeActivePrompt edits the active-language prompt of a step.
func changeActivePrompt(q domains.Questionnaire, stepID string, fn func(domains.LanguagePrompt) domains.LanguagePrompt) domains.Questionnaire {
	lang := q.ActiveLanguage
	return changeStep(q, stepID, func(s domains.Step) domains.Step {
		s.Prompt = s.Prompt.With(lang, fn(s.Prompt[lang]))
		return s
	})
}

func changeStepPromptSMS(q domains.Questionnaire, op ChangeStepPromptSMS) domains.Questionnaire {
	return changeActivePrompt(q, op.StepID, func(lp domains.LanguagePrompt) domains.LanguagePrompt {
		lp.SMS = op.Prompt
		return lp
	})
}

func changeStepPromptIVR(q domains.Questionnaire, op ChangeStepPromptIVR) domains.Questionnaire {
	return changeActivePrompt(q, op.StepID, func(lp domains.LanguagePrompt) domains.LanguagePrompt {
		ivr := domains.IvrPrompt{Text: op.Prompt.Text, AudioSource: op.Prompt.AudioSource}
		if ivr.AudioSource == "" {
			ivr.AudioSource = domains.AudioTTS
		}
		if lp.IVR != nil {
			ivr.AudioID = lp.IVR.AudioID
		}
		lp.IVR = &ivr
		return lp
	})
}

func changeStepAudioIDIVR(q domains.Questionnaire, op ChangeStepAudioIDIVR) domains.Questionnaire {
	return changeActivePrompt(q, op.StepID, func(lp domains.LanguagePrompt) domains.LanguagePrompt {
		ivr := domains.IvrPrompt{AudioID: op.AudioID, AudioSource: domains.AudioUpload}
		if lp.IVR != nil {
			ivr.Text = lp.IVR.Text
		}
		lp.IVR = &ivr
		return lp
	})
}

func changeStepPromptMobileWeb(q domains.Questionnaire, op ChangeStepPromptMobileWeb) domains.Questionnaire {
	return changeActivePrompt(q, op.StepID, func(lp domains.LanguagePrompt) domains.LanguagePrompt {
		lp.MobileWeb = op.Prompt
		return lp
	})
}

func changeStepSkipLogic(q domains.Questionnaire, op ChangeStepSkipLogic) domains.Questionnaire {
	return changeStep(q, op.StepID, func(s domains.Step) domains.Step {
		switch b := s.Body.(type) {
		case domains.Explanation:
			b.SkipLogic = op.SkipLogic
			s.Body = b
		case domains.Flag:
			b.SkipLogic = op.SkipLogic
			s.Body = b
		}
		return s
	})
}

func changeDisposition(q domains.Questionnaire, op ChangeDisposition) domains.Questionnaire {
	if !op.Disposition.Valid() {
		return q
	}
	return changeStep(q, op.StepID, func(s domains.Step) domains.Step {
		if b, ok := s.Body.(domains.Flag); ok {
			b.Disposition = op.Disposition
			s.Body = b
		}
		return s
	})
}

// changeChoices edits the choice list of a multiple-choice step; other variants are
// left untouched.
func changeChoices(q domains.Questionnaire, stepID string, fn func([]domains.Choice) []domains.Choice) domains.Questionnaire {
	return changeStep(q, stepID, func(s domains.Step) domains.Step {
		b, ok := s.Body.(domains.MultipleChoice)
		if !ok {
			return s
		}
		b.Choices = fn(b.Choices)
		s.Body = b
		return s
	})
}

func addChoice(q domains.Questionnaire, op AddChoice) domains.Questionnaire {
	responses := make(map[string]domains.ChoiceResponses, len(q.Languages))
	for _, lang := range q.Languages {
		responses[lang] = domains.ChoiceResponses{SMS: []string{}, IVR: []string{}}
	}
	return changeChoices(q, op.StepID, func(choices []domains.Choice) []domains.Choice {
		out := make([]domains.Choice, 0, len(choices)+1)
		out = append(out, choices...)
		return append(out, domains.Choice{Responses: responses})
	})
}

func deleteChoice(q domains.Questionnaire, op DeleteChoice) domains.Questionnaire {
	return changeChoices(q, op.StepID, func(choices []domains.Choice) []domains.Choice {
		if op.Index < 0 || op.Index >= len(choices) {
			return choices
		}
		out := make([]domains.Choice, 0, len(choices)-1)
		out = append(out, choices[:op.Index]...)
		return append(out, choices[op.Index+1:]...)
	})
}

func changeChoice(q domains.Questionnaire, op ChangeChoice) domains.Questionnaire {
	lang := q.ActiveLanguage
	sms := splitValues(op.SMSValues)
	ivr := splitValues(op.IVRValues)
	if op.AutoComplete && len(sms) == 0 && len(ivr) == 0 {
		if match, ok := findPriorChoice(q, op.StepID, op.Value); ok {
			prior := match.Responses[lang]
			sms = append([]string{}, prior.SMS...)
			ivr = append([]string{}, prior.IVR...)
		}
	}
	return changeChoices(q, op.StepID, func(choices []domains.Choice) []domains.Choice {
		if op.Index < 0 || op.Index >= len(choices) {
			return choices
		}
		out := make([]domains.Choice, len(choices))
		copy(out, choices)
		c := out[op.Index]
		r := c.Responses[lang]
		r.SMS = sms
		r.IVR = ivr
		c = c.WithResponses(lang, r)
		c.Value = op.Value
		c.SkipLogic = op.SkipLogic
		out[op.Index] = c
		return out
	})
}

// findPriorChoice scans the multiple-choice steps before stepID, in step order then
// choice order, for the first choice whose value equals value.
func findPriorChoice(q domains.Questionnaire, stepID, value string) (domains.Choice, bool) {
	for _, s := range q.Steps {
		if s.ID == stepID {
			break
		}
		b, ok := s.Body.(domains.MultipleChoice)
		if !ok {
			continue
		}
		for _, c := range b.Choices {
			if c.Value == value {
				return c, true
			}
		}
	}
	return domains.Choice{}, false
}

// splitValues parses a comma-separated token list, trimming tokens and dropping
// empty ones.
func splitValues(csv string) []string {
	out := []string{}
	for _, token := range strings.Split(csv, ",") {
		token = strings.TrimSpace(token)
		if token != "" {
			out = append(out, token)
		}
	}
	return out
}
