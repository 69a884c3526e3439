package questionnaire

import (
	"fmt"
	"regexp"

	"surveyeditor/internal/domains"
)

// Errors maps a document path such as steps[2].choices[0].sms to its messages.
type Errors map[string][]string

func (e Errors) add(path, msg string) {
	e[path] = append(e[path], msg)
}

var ivrTokenPattern = regexp.MustCompile(`^[0-9#*]+$`)

type validation struct {
	q      domains.Questionnaire
	lang   string
	sms    bool
	ivr    bool
	errors Errors
}

// Validate checks the document against the active language and enabled modes. It
// never fails; an empty map means the questionnaire can be saved.
func Validate(q domains.Questionnaire) Errors {
	v := validation{
		q:      q,
		lang:   q.ActiveLanguage,
		sms:    q.HasMode(domains.ModeSMS),
		ivr:    q.HasMode(domains.ModeIVR),
		errors: Errors{},
	}
	for i, s := range q.Steps {
		v.step(fmt.Sprintf("steps[%d]", i), s)
	}
	return v.errors
}

func (v validation) step(path string, s domains.Step) {
	switch s.Type() {
	case domains.StepLanguageSelection, domains.StepFlag:
	default:
		v.prompt(path+".prompt", s.Prompt)
	}

	switch b := s.Body.(type) {
	case domains.MultipleChoice:
		v.choices(path+".choices", b.Choices)
	case domains.Numeric:
		for j, r := range b.Ranges {
			v.skipLogic(fmt.Sprintf("%s.ranges[%d].skipLogic", path, j), r.SkipLogic)
		}
		if b.Refusal != nil {
			v.skipLogic(path+".refusal.skipLogic", b.Refusal.SkipLogic)
		}
	case domains.Explanation:
		v.skipLogic(path+".skipLogic", b.SkipLogic)
	case domains.Flag:
		v.skipLogic(path+".skipLogic", b.SkipLogic)
	}
}

func (v validation) prompt(path string, p domains.Prompt) {
	lp := p[v.lang]
	if v.sms && domains.IsBlank(lp.SMS) {
		v.errors.add(path+".sms", "SMS prompt must not be blank")
	}
	if v.ivr && (lp.IVR == nil || lp.IVR.AudioSource != domains.AudioUpload) && domains.IsBlank(p.IVRText(v.lang)) {
		v.errors.add(path+".ivr.text", "Voice prompt must not be blank")
	}
}

func (v validation) choices(path string, choices []domains.Choice) {
	if len(choices) < 2 {
		v.errors.add(path, "Must have at least two responses")
	}

	values := map[string]bool{}
	sms := map[string]bool{}
	ivr := map[string]bool{}
	for i, c := range choices {
		choicePath := fmt.Sprintf("%s[%d]", path, i)
		v.choice(choicePath, c)

		if !domains.IsBlank(c.Value) {
			if values[c.Value] {
				v.errors.add(choicePath+".value", "Value already used in a previous response")
			}
			values[c.Value] = true
		}

		r := c.Responses[v.lang]
		for _, token := range r.SMS {
			if sms[token] {
				v.errors.add(choicePath+".sms", fmt.Sprintf("Value %q already used in a previous response", token))
			}
		}
		for _, token := range r.SMS {
			sms[token] = true
		}
		for _, token := range r.IVR {
			if ivr[token] {
				v.errors.add(choicePath+".ivr", fmt.Sprintf("Value %q already used in a previous response", token))
			}
		}
		for _, token := range r.IVR {
			ivr[token] = true
		}
	}
}

func (v validation) choice(path string, c domains.Choice) {
	if domains.IsBlank(c.Value) {
		v.errors.add(path+".value", "Response must not be blank")
	}
	r := c.Responses[v.lang]
	if v.sms && len(r.SMS) == 0 {
		v.errors.add(path+".sms", "SMS must not be blank")
	}
	if v.ivr {
		if len(r.IVR) == 0 {
			v.errors.add(path+".ivr", `"Phone call" must not be blank`)
		}
		for _, token := range r.IVR {
			if !ivrTokenPattern.MatchString(token) {
				v.errors.add(path+".ivr", `"Phone call" must only consist of single digits, "#" or "*"`)
				break
			}
		}
	}
	v.skipLogic(path+".skipLogic", c.SkipLogic)
}

// skipLogic reports references to steps that are not in the document.
func (v validation) skipLogic(path string, ref *string) {
	if ref == nil || *ref == "" || *ref == domains.SkipToEnd {
		return
	}
	if v.q.StepIndex(*ref) == -1 {
		v.errors.add(path, "Skip logic refers to a step that does not exist")
	}
}
