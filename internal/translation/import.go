package translation

import (
	"strings"

	"surveyeditor/internal/domains"
)

// lookup maps a default-language source string to its translations by language code.
type lookup map[string]map[string]string

func buildLookup(q domains.Questionnaire, rows [][]string) lookup {
	out := lookup{}
	if len(rows) == 0 {
		return out
	}
	codes := make([]string, len(rows[0]))
	source := -1
	for i, cell := range rows[0] {
		code, ok := languageCode(cell, q.Languages)
		if !ok {
			continue
		}
		codes[i] = code
		if code == q.DefaultLanguage && source == -1 {
			source = i
		}
	}
	if source == -1 {
		return out
	}

	for _, row := range rows[1:] {
		if source >= len(row) || domains.IsBlank(row[source]) {
			continue
		}
		translations := out[row[source]]
		if translations == nil {
			translations = map[string]string{}
			out[row[source]] = translations
		}
		for i, cell := range row {
			if i == source || i >= len(codes) || codes[i] == "" || codes[i] == q.DefaultLanguage || domains.IsBlank(cell) {
				continue
			}
			translations[codes[i]] = cell
		}
	}
	return out
}

// fillPrompt writes translations of the default-language SMS and IVR texts into
// languages whose value is still blank.
func (l lookup) fillPrompt(p domains.Prompt, def string) domains.Prompt {
	if lp, ok := p[def]; ok {
		for lang, text := range l[lp.SMS] {
			if domains.IsBlank(p[lang].SMS) {
				target := p[lang]
				target.SMS = text
				p = p.With(lang, target)
			}
		}
	}
	for lang, text := range l[p.IVRText(def)] {
		target := p[lang]
		if target.IVR != nil && (target.IVR.AudioSource == domains.AudioUpload || !domains.IsBlank(target.IVR.Text)) {
			continue
		}
		target.IVR = &domains.IvrPrompt{Text: text, AudioSource: domains.AudioTTS}
		p = p.With(lang, target)
	}
	return p
}

func (l lookup) fillChoice(c domains.Choice, def string) domains.Choice {
	source := c.Responses[def]
	for lang, text := range l[joinTokens(source.SMS)] {
		target, ok := c.Responses[lang]
		if len(target.SMS) != 0 {
			continue
		}
		if !ok {
			target.IVR = append([]string{}, source.IVR...)
		}
		target.SMS = splitTokens(text)
		c = c.WithResponses(lang, target)
	}
	return c
}

func splitTokens(text string) []string {
	out := []string{}
	for _, token := range strings.Split(text, ",") {
		if token = strings.TrimSpace(token); token != "" {
			out = append(out, token)
		}
	}
	return out
}

// Import merges a translation matrix into q. A translation is only written where
// the target language is still blank; existing translations are never overwritten.
func Import(q domains.Questionnaire, rows [][]string) domains.Questionnaire {
	l := buildLookup(q, rows)
	if len(l) == 0 {
		return q
	}
	def := q.DefaultLanguage

	var steps []domains.Step
	if q.Steps != nil {
		steps = make([]domains.Step, len(q.Steps))
	}
	for i, s := range q.Steps {
		if s.Type() != domains.StepLanguageSelection {
			s.Prompt = l.fillPrompt(s.Prompt, def)
			if b, ok := s.Body.(domains.MultipleChoice); ok && len(b.Choices) > 0 {
				choices := make([]domains.Choice, len(b.Choices))
				for j, c := range b.Choices {
					choices[j] = l.fillChoice(c, def)
				}
				b.Choices = choices
				s.Body = b
			}
		}
		steps[i] = s
	}
	q.Steps = steps

	for _, key := range SettingsKeys {
		if p, ok := q.Settings[key]; ok {
			q.Settings = q.Settings.With(key, l.fillPrompt(p, def))
		}
	}
	return q
}
