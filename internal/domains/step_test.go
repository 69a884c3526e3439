package domains

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const questionnaireJSON = `{
  "id": 1,
  "projectId": 1,
  "name": "Foo",
  "modes": ["sms", "ivr"],
  "languages": ["en", "fr"],
  "defaultLanguage": "en",
  "activeLanguage": "en",
  "steps": [
    {"id": "lang", "type": "language-selection", "title": "Language selection", "store": "language",
     "prompt": {"en": {"sms": "1 English, 2 French", "ivr": {"text": "Press 1 for English", "audioSource": "tts"}}},
     "languageChoices": [null, "en", "fr"]},
    {"id": "s1", "type": "multiple-choice", "title": "Do you smoke?", "store": "Smokes",
     "prompt": {"en": {"sms": "Do you smoke?"}},
     "choices": [{"value": "Yes", "responses": {"en": {"sms": ["Y"], "ivr": ["1"]}}, "skipLogic": "s3"}]},
    {"id": "s2", "type": "numeric", "title": "Age", "store": "Age",
     "minValue": 0, "maxValue": 99, "rangesDelimiters": "18",
     "ranges": [{"from": 0, "to": 17, "skipLogic": null}, {"from": 18, "to": 99, "skipLogic": "end"}],
     "refusal": {"enabled": true, "responses": {"en": {"sms": ["skip"], "ivr": ["#"]}}, "skipLogic": null}},
    {"id": "s3", "type": "explanation", "title": "Thanks", "skipLogic": "end"},
    {"id": "s4", "type": "flag", "title": "Done", "disposition": "partial"}
  ],
  "settings": {"errorMsg": {"en": {"sms": "Sorry"}}}
}`

func TestQuestionnaireJSON_DecodesStepVariants(t *testing.T) {
	var q Questionnaire
	require.NoError(t, json.Unmarshal([]byte(questionnaireJSON), &q))

	require.Len(t, q.Steps, 5)
	assert.Equal(t, []StepType{StepLanguageSelection, StepMultipleChoice, StepNumeric, StepExplanation, StepFlag},
		[]StepType{q.Steps[0].Type(), q.Steps[1].Type(), q.Steps[2].Type(), q.Steps[3].Type(), q.Steps[4].Type()})

	ls, ok := q.LanguageSelection()
	require.True(t, ok)
	assert.Equal(t, LanguageChoices{"", "en", "fr"}, ls.Body.(LanguageSelection).LanguageChoices)

	mc := q.Steps[1].Body.(MultipleChoice)
	require.Len(t, mc.Choices, 1)
	assert.Equal(t, []string{"Y"}, mc.Choices[0].Responses["en"].SMS)
	assert.Equal(t, "s3", *mc.Choices[0].SkipLogic)

	num := q.Steps[2].Body.(Numeric)
	assert.Equal(t, 0, *num.MinValue)
	assert.Equal(t, 99, *num.MaxValue)
	require.Len(t, num.Ranges, 2)
	assert.Nil(t, num.Ranges[0].SkipLogic)
	assert.Equal(t, SkipToEnd, *num.Ranges[1].SkipLogic)
	require.NotNil(t, num.Refusal)
	assert.True(t, num.Refusal.Enabled)

	assert.Equal(t, SkipToEnd, *q.Steps[3].Body.(Explanation).SkipLogic)
	assert.Equal(t, DispositionPartial, q.Steps[4].Body.(Flag).Disposition)
	assert.Equal(t, "Sorry", q.Settings[MsgError]["en"].SMS)
}

func TestQuestionnaireJSON_RoundTrip(t *testing.T) {
	var q Questionnaire
	require.NoError(t, json.Unmarshal([]byte(questionnaireJSON), &q))

	data, err := json.Marshal(q)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"languageChoices":[null,"en","fr"]`)

	var again Questionnaire
	require.NoError(t, json.Unmarshal(data, &again))
	assert.Equal(t, q, again)
}

func TestStepJSON_UnknownType(t *testing.T) {
	var s Step
	err := json.Unmarshal([]byte(`{"id":"x","type":"rating"}`), &s)

	assert.ErrorIs(t, err, ErrUnknownStepType)
}

func TestStepJSON_MarshalWithoutBody(t *testing.T) {
	_, err := json.Marshal(Step{ID: "x"})

	assert.ErrorIs(t, err, ErrUnknownStepType)
}

func TestStepJSON_EmptyMultipleChoiceKeepsChoices(t *testing.T) {
	data, err := json.Marshal(Step{ID: "x", Body: MultipleChoice{}})
	require.NoError(t, err)

	assert.Contains(t, string(data), `"choices":[]`)
}

func TestLanguageChoices_Index(t *testing.T) {
	lc := LanguageChoices{"", "en", "fr"}

	assert.Equal(t, 2, lc.Index("fr"))
	assert.Equal(t, -1, lc.Index("de"))
	assert.Equal(t, -1, lc.Index(""))
}

func TestIsBlank(t *testing.T) {
	assert.True(t, IsBlank(""))
	assert.True(t, IsBlank(" \t\n"))
	assert.False(t, IsBlank(" a "))
}

func TestPromptWithDoesNotMutate(t *testing.T) {
	p := Prompt{"en": {SMS: "Hi"}}
	q := p.With("fr", LanguagePrompt{SMS: "Salut"})

	assert.Len(t, p, 1)
	assert.Equal(t, "Salut", q["fr"].SMS)
	assert.Equal(t, "Hi", q["en"].SMS)
}
