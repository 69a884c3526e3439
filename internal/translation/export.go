package translation

import (
	"strings"

	"surveyeditor/internal/domains"
)

// SettingsKeys are the questionnaire messages included in the spreadsheet.
var SettingsKeys = []string{domains.MsgQuotaCompleted, domains.MsgError}

func columns(q domains.Questionnaire) []string {
	return append([]string{q.DefaultLanguage}, q.NonDefaultLanguages()...)
}

// joinTokens renders SMS response tokens as a single translatable cell.
func joinTokens(tokens []string) string {
	return strings.Join(tokens, ", ")
}

type exporter struct {
	langs    []string
	rows     [][]string
	exported map[string]bool
}

// add emits one row for source unless it is blank or was already emitted.
func (e *exporter) add(source string, value func(lang string) string) {
	if domains.IsBlank(source) || e.exported[source] {
		return
	}
	e.exported[source] = true
	row := make([]string, len(e.langs))
	row[0] = source
	for i, lang := range e.langs[1:] {
		row[i+1] = value(lang)
	}
	e.rows = append(e.rows, row)
}

func (e *exporter) prompt(p domains.Prompt, def string) {
	e.add(p[def].SMS, func(lang string) string { return p[lang].SMS })
	e.add(p.IVRText(def), func(lang string) string { return p.IVRText(lang) })
}

// message emits a single row per questionnaire message: the SMS text, or the voice
// text when the message has no SMS text.
func (e *exporter) message(p domains.Prompt, def string) {
	if !domains.IsBlank(p[def].SMS) {
		e.add(p[def].SMS, func(lang string) string { return p[lang].SMS })
		return
	}
	e.add(p.IVRText(def), func(lang string) string { return p.IVRText(lang) })
}

// Export builds the translation matrix. The header holds language names, default
// language first; each body row is one distinct default-language string in step
// order followed by its current translations.
func Export(q domains.Questionnaire) [][]string {
	def := q.DefaultLanguage
	e := &exporter{langs: columns(q), exported: map[string]bool{}}

	header := make([]string, len(e.langs))
	for i, lang := range e.langs {
		header[i] = LanguageName(lang)
	}
	e.rows = append(e.rows, header)

	for _, s := range q.Steps {
		if s.Type() == domains.StepLanguageSelection {
			continue
		}
		e.prompt(s.Prompt, def)

		// IVR responses are keypad digits and are not translated.
		if b, ok := s.Body.(domains.MultipleChoice); ok {
			for _, c := range b.Choices {
				c := c
				e.add(joinTokens(c.Responses[def].SMS), func(lang string) string {
					return joinTokens(c.Responses[lang].SMS)
				})
			}
		}
	}

	for _, key := range SettingsKeys {
		if p, ok := q.Settings[key]; ok {
			e.message(p, def)
		}
	}
	return e.rows
}
