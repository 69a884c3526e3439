package questionnaire

import (
	"surveyeditor/internal/domains"
)

// StoreValues describes what a stored variable can hold, for quota conditions.
type StoreValues struct {
	Type   domains.StepType `json:"type"`
	Values []string         `json:"values"`
	Ranges []domains.Range  `json:"ranges,omitempty"`
}

// StepStoreValues lists the variables answered by multiple-choice and numeric steps.
// The language-selection step's store is a reserved pseudo-variable and is skipped.
func StepStoreValues(q domains.Questionnaire) map[string]StoreValues {
	out := map[string]StoreValues{}
	for _, s := range q.Steps {
		if s.Type() == domains.StepLanguageSelection || domains.IsBlank(s.Store) {
			continue
		}
		switch b := s.Body.(type) {
		case domains.MultipleChoice:
			values := make([]string, 0, len(b.Choices))
			for _, c := range b.Choices {
				values = append(values, c.Value)
			}
			out[s.Store] = StoreValues{Type: domains.StepMultipleChoice, Values: values}
		case domains.Numeric:
			out[s.Store] = StoreValues{Type: domains.StepNumeric, Values: []string{}, Ranges: b.Ranges}
		}
	}
	return out
}
