package questionnaire

import (
	"strings"

	"surveyeditor/internal/domains"
)

// DefaultLanguage is used when a questionnaire is created without a language.
const DefaultLanguage = "en"

// New builds an empty questionnaire with the sms and ivr modes enabled and a single
// language.
func New(projectID int64, name, language string) domains.Questionnaire {
	language = strings.TrimSpace(language)
	if language == "" {
		language = DefaultLanguage
	}
	return domains.Questionnaire{
		ProjectID:       projectID,
		Name:            strings.TrimSpace(name),
		Modes:           []domains.Mode{domains.ModeSMS, domains.ModeIVR},
		Languages:       []string{language},
		DefaultLanguage: language,
		ActiveLanguage:  language,
		Steps:           []domains.Step{},
		Settings:        domains.Settings{},
	}
}
