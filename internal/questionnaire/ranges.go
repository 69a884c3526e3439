package questionnaire

import (
	"math"
	"strconv"
	"strings"

	"surveyeditor/internal/domains"
)

// parseBound parses an optional integer. ok is false for text that is neither blank
// nor an integer.
func parseBound(text string) (v *int, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, true
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return nil, false
	}
	return &n, true
}

// parseDelimiters parses the range starts after the first. The range before a
// delimiter ends one below it, so math.MinInt is refused.
func parseDelimiters(text string) ([]int, bool) {
	var out []int
	for _, token := range strings.Split(text, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		n, err := strconv.Atoi(token)
		if err != nil || n == math.MinInt {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}

func strictlyAscending(values []int) bool {
	for i := 1; i < len(values); i++ {
		if values[i-1] >= values[i] {
			return false
		}
	}
	return true
}

// changeNumericRanges stores the raw bounds and, when [min, delimiters..., max] is
// strictly ascending, rebuilds the ranges as a partition of [min, max]. Otherwise
// the ranges keep their last valid value.
func changeNumericRanges(q domains.Questionnaire, op ChangeNumericRanges) domains.Questionnaire {
	return changeStep(q, op.StepID, func(s domains.Step) domains.Step {
		b, ok := s.Body.(domains.Numeric)
		if !ok {
			return s
		}
		minValue, minOK := parseBound(op.MinValue)
		maxValue, maxOK := parseBound(op.MaxValue)
		delimiters, delimitersOK := parseDelimiters(op.RangesDelimiters)

		b.MinValue = minValue
		b.MaxValue = maxValue
		b.RangesDelimiters = op.RangesDelimiters

		var values []int
		if minValue != nil {
			values = append(values, *minValue)
		}
		values = append(values, delimiters...)
		if maxValue != nil {
			values = append(values, *maxValue)
		}
		if minOK && maxOK && delimitersOK && strictlyAscending(values) {
			b.Ranges = buildRanges(minValue, delimiters, maxValue, b.Ranges)
		}
		s.Body = b
		return s
	})
}

// buildRanges splits [min, max] at each delimiter. A range whose bounds match an
// existing one keeps its skip logic.
func buildRanges(minValue *int, delimiters []int, maxValue *int, previous []domains.Range) []domains.Range {
	froms := make([]*int, 0, len(delimiters)+1)
	froms = append(froms, minValue)
	for i := range delimiters {
		froms = append(froms, &delimiters[i])
	}

	ranges := make([]domains.Range, 0, len(froms))
	for i, from := range froms {
		to := maxValue
		if i < len(froms)-1 {
			next := *froms[i+1] - 1
			to = &next
		}
		r := domains.Range{From: copyInt(from), To: copyInt(to)}
		for _, prev := range previous {
			if sameBound(prev.From, r.From) && sameBound(prev.To, r.To) {
				r.SkipLogic = prev.SkipLogic
				break
			}
		}
		ranges = append(ranges, r)
	}
	return ranges
}

func sameBound(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

func changeRangeSkipLogic(q domains.Questionnaire, op ChangeRangeSkipLogic) domains.Questionnaire {
	return changeStep(q, op.StepID, func(s domains.Step) domains.Step {
		b, ok := s.Body.(domains.Numeric)
		if !ok || op.RangeIndex < 0 || op.RangeIndex >= len(b.Ranges) {
			return s
		}
		ranges := make([]domains.Range, len(b.Ranges))
		copy(ranges, b.Ranges)
		ranges[op.RangeIndex].SkipLogic = op.SkipLogic
		b.Ranges = ranges
		s.Body = b
		return s
	})
}

func changeRefusal(q domains.Questionnaire, op ChangeRefusal) domains.Questionnaire {
	lang := q.ActiveLanguage
	return changeStep(q, op.StepID, func(s domains.Step) domains.Step {
		b, ok := s.Body.(domains.Numeric)
		if !ok {
			return s
		}
		refusal := domains.Refusal{}
		if b.Refusal != nil {
			refusal = *b.Refusal
		}
		refusal.Enabled = op.Enabled
		refusal.SkipLogic = op.SkipLogic
		refusal.Responses = withRefusalResponses(refusal.Responses, lang, domains.ChoiceResponses{
			SMS: splitValues(op.SMSValues),
			IVR: splitValues(op.IVRValues),
		})
		b.Refusal = &refusal
		s.Body = b
		return s
	})
}

func withRefusalResponses(m map[string]domains.ChoiceResponses, lang string, r domains.ChoiceResponses) map[string]domains.ChoiceResponses {
	out := make(map[string]domains.ChoiceResponses, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	if prev, ok := m[lang]; ok {
		r.MobileWeb = prev.MobileWeb
	}
	out[lang] = r
	return out
}
