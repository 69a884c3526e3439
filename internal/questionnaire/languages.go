package questionnaire

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"surveyeditor/internal/domains"
)

// LanguageStore is the reserved variable the language-selection step stores into.
const LanguageStore = "language"

func newLanguageSelectionStep(id, defaultLanguage string, languages []string) domains.Step {
	choices := make(domains.LanguageChoices, 0, len(languages)+1)
	choices = append(choices, "")
	choices = append(choices, languages...)
	return domains.Step{
		ID:     id,
		Title:  "Language selection",
		Store:  LanguageStore,
		Prompt: promptSkeleton(defaultLanguage),
		Body:   domains.LanguageSelection{LanguageChoices: choices},
	}
}

// languageSelectionID is the id given to a language-selection step restored on
// receive. It depends only on the questionnaire so a replayed draft finds the step.
func languageSelectionID(q domains.Questionnaire) string {
	var id int64
	if q.ID != nil {
		id = *q.ID
	}
	name := fmt.Sprintf("questionnaire/%d/%d/language-selection", q.ProjectID, id)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

// withLanguageSelection makes the language-selection step present exactly when the
// questionnaire has more than one language.
func withLanguageSelection(q domains.Questionnaire) domains.Questionnaire {
	_, ok := q.LanguageSelection()
	switch {
	case ok && len(q.Languages) <= 1:
		q.Steps = append([]domains.Step{}, q.Steps[1:]...)
	case !ok && len(q.Languages) > 1:
		step := newLanguageSelectionStep(languageSelectionID(q), q.DefaultLanguage, q.Languages)
		q.Steps = append([]domains.Step{step}, q.Steps...)
	}
	return q
}

// withLanguageChoices replaces the choices of the language-selection step, which
// must be present.
func withLanguageChoices(q domains.Questionnaire, choices domains.LanguageChoices) domains.Questionnaire {
	ls, _ := q.LanguageSelection()
	return changeStep(q, ls.ID, func(s domains.Step) domains.Step {
		s.Body = domains.LanguageSelection{LanguageChoices: choices}
		return s
	})
}

func addLanguage(q domains.Questionnaire, op AddLanguage) domains.Questionnaire {
	code := strings.TrimSpace(op.Language)
	if code == "" || q.HasLanguage(code) {
		return q
	}
	switch ls, ok := q.LanguageSelection(); {
	case ok:
		b := ls.Body.(domains.LanguageSelection)
		choices := make(domains.LanguageChoices, 0, len(b.LanguageChoices)+1)
		choices = append(choices, b.LanguageChoices...)
		q = withLanguageChoices(q, append(choices, code))
	case len(q.Languages) > 0:
		id := op.StepID
		if id == "" {
			id = newStepID()
		}
		languages := make([]string, 0, len(q.Languages)+1)
		languages = append(languages, q.Languages...)
		step := newLanguageSelectionStep(id, q.DefaultLanguage, append(languages, code))
		steps := make([]domains.Step, 0, len(q.Steps)+1)
		steps = append(steps, step)
		q.Steps = append(steps, q.Steps...)
	}

	languages := make([]string, 0, len(q.Languages)+1)
	languages = append(languages, q.Languages...)
	q.Languages = append(languages, code)
	if q.DefaultLanguage == "" {
		q.DefaultLanguage = code
		q.ActiveLanguage = code
	}
	return q
}

// removeLanguage drops a non-default language. With a single language left the
// language-selection step goes away.
func removeLanguage(q domains.Questionnaire, op RemoveLanguage) domains.Questionnaire {
	if op.Language == q.DefaultLanguage || !q.HasLanguage(op.Language) {
		return q
	}
	languages := make([]string, 0, len(q.Languages)-1)
	for _, l := range q.Languages {
		if l != op.Language {
			languages = append(languages, l)
		}
	}

	if ls, ok := q.LanguageSelection(); ok {
		if len(languages) <= 1 {
			q.Steps = append([]domains.Step{}, q.Steps[1:]...)
		} else {
			b := ls.Body.(domains.LanguageSelection)
			choices := make(domains.LanguageChoices, 0, len(b.LanguageChoices))
			for _, c := range b.LanguageChoices {
				if c != op.Language {
					choices = append(choices, c)
				}
			}
			q = withLanguageChoices(q, choices)
		}
	}

	q.Languages = languages
	if q.ActiveLanguage == op.Language {
		q.ActiveLanguage = q.DefaultLanguage
	}
	return q
}

// reorderLanguages moves code to slot index of the language choices. Slot 0 is the
// placeholder, so the index is clamped to [1, len-1].
func reorderLanguages(q domains.Questionnaire, op ReorderLanguages) domains.Questionnaire {
	ls, ok := q.LanguageSelection()
	if !ok {
		return q
	}
	b := ls.Body.(domains.LanguageSelection)
	from := b.LanguageChoices.Index(op.Language)
	if from == -1 {
		return q
	}
	rest := make(domains.LanguageChoices, 0, len(b.LanguageChoices))
	rest = append(rest, b.LanguageChoices[:from]...)
	rest = append(rest, b.LanguageChoices[from+1:]...)

	to := op.Index
	if to < 1 {
		to = 1
	}
	if to > len(rest) {
		to = len(rest)
	}
	choices := make(domains.LanguageChoices, 0, len(b.LanguageChoices))
	choices = append(choices, rest[:to]...)
	choices = append(choices, op.Language)
	choices = append(choices, rest[to:]...)
	return withLanguageChoices(q, choices)
}

func setDefaultLanguage(q domains.Questionnaire, op SetDefaultLanguage) domains.Questionnaire {
	if !q.HasLanguage(op.Language) {
		return q
	}
	q.DefaultLanguage = op.Language
	q.ActiveLanguage = op.Language
	return q
}

func setActiveLanguage(q domains.Questionnaire, op SetActiveLanguage) domains.Questionnaire {
	if !q.HasLanguage(op.Language) {
		return q
	}
	q.ActiveLanguage = op.Language
	return q
}
