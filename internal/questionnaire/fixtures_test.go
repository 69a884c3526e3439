package questionnaire

import (
	"testing"

	"github.com/stretchr/testify/require"

	"surveyeditor/internal/domains"
)

func strp(s string) *string { return &s }

func intp(n int) *int { return &n }

func int64p(n int64) *int64 { return &n }

func prompt(lang, text string) domains.Prompt {
	return domains.Prompt{
		lang: {
			SMS: text,
			IVR: &domains.IvrPrompt{Text: text, AudioSource: domains.AudioTTS},
		},
	}
}

func choice(value string, sms, ivr []string) domains.Choice {
	return domains.Choice{
		Value:     value,
		Responses: map[string]domains.ChoiceResponses{"en": {SMS: sms, IVR: ivr}},
	}
}

// sampleQuestionnaire has two multiple-choice steps and a numeric step.
func sampleQuestionnaire() domains.Questionnaire {
	return domains.Questionnaire{
		ID:              int64p(1),
		ProjectID:       1,
		Name:            "Foo",
		Modes:           []domains.Mode{domains.ModeSMS, domains.ModeIVR},
		Languages:       []string{"en"},
		DefaultLanguage: "en",
		ActiveLanguage:  "en",
		Steps: []domains.Step{
			{
				ID:     "17141bea-a81c-4227-bdda-f5f69188b0e7",
				Title:  "Do you smoke?",
				Store:  "Smokes",
				Prompt: prompt("en", "Do you smoke?"),
				Body: domains.MultipleChoice{Choices: []domains.Choice{
					choice("Yes", []string{"Y", "1"}, []string{"1"}),
					choice("No", []string{"N", "2"}, []string{"2"}),
				}},
			},
			{
				ID:     "b6588daa-cd81-40b1-8cac-ff2e72a15c15",
				Title:  "Do you exercise?",
				Store:  "Exercises",
				Prompt: prompt("en", "Do you exercise?"),
				Body: domains.MultipleChoice{Choices: []domains.Choice{
					choice("Yes", []string{"Y", "1"}, []string{"1"}),
					choice("No", []string{"N", "2"}, []string{"2"}),
				}},
			},
			{
				ID:     "c8e39cb4-4d3e-4b3a-9d43-2c0e4f1b2d11",
				Title:  "How old are you?",
				Store:  "Age",
				Prompt: prompt("en", "How old are you?"),
				Body:   domains.Numeric{Ranges: []domains.Range{{}}},
			},
		},
	}
}

const (
	smokeStepID    = "17141bea-a81c-4227-bdda-f5f69188b0e7"
	exerciseStepID = "b6588daa-cd81-40b1-8cac-ff2e72a15c15"
	ageStepID      = "c8e39cb4-4d3e-4b3a-9d43-2c0e4f1b2d11"
)

func play(t *testing.T, s State, ops ...Operation) State {
	t.Helper()
	for _, op := range ops {
		var err error
		s, err = Reduce(s, op)
		require.NoError(t, err, "operation %s", op.OpType())
	}
	return s
}

func loaded(t *testing.T, q domains.Questionnaire, ops ...Operation) State {
	t.Helper()
	s := play(t, State{}, Fetch{ProjectID: q.ProjectID, ID: q.ID}, Receive{Data: q})
	return play(t, s, ops...)
}

func stepBody[T domains.StepBody](t *testing.T, s State, stepID string) T {
	t.Helper()
	require.NotNil(t, s.Data)
	i := s.Data.StepIndex(stepID)
	require.NotEqual(t, -1, i, "step %s not found", stepID)
	body, ok := s.Data.Steps[i].Body.(T)
	require.True(t, ok, "step %s has body %T", stepID, s.Data.Steps[i].Body)
	return body
}
