// Package translation exports a questionnaire's translatable strings as a
// spreadsheet and merges an edited spreadsheet back in.
package translation

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var namer = display.English.Languages()

// LanguageName returns the English display name of a language code, falling back
// to the code itself.
func LanguageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := namer.Name(tag); name != "" {
		return name
	}
	return code
}

// languageCode maps a header cell back to one of the given codes. Cells holding the
// code itself are accepted too.
func languageCode(cell string, codes []string) (string, bool) {
	cell = strings.TrimSpace(cell)
	for _, code := range codes {
		if strings.EqualFold(cell, LanguageName(code)) || cell == code {
			return code, true
		}
	}
	return "", false
}
