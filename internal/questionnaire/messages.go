package questionnaire

import (
	"surveyeditor/internal/domains"
)

// channelText reads the text a prompt carries for one channel.
func channelText(lp domains.LanguagePrompt, channel domains.Mode) string {
	switch channel {
	case domains.ModeSMS:
		return lp.SMS
	case domains.ModeIVR:
		if lp.IVR != nil {
			return lp.IVR.Text
		}
	case domains.ModeMobileWeb:
		return lp.MobileWeb
	}
	return ""
}

// withChannelText sets the text of one channel. An IVR prompt without an audio
// source becomes text-to-speech.
func withChannelText(lp domains.LanguagePrompt, channel domains.Mode, text string) domains.LanguagePrompt {
	switch channel {
	case domains.ModeSMS:
		lp.SMS = text
	case domains.ModeIVR:
		ivr := domains.IvrPrompt{Text: text, AudioSource: domains.AudioTTS}
		if lp.IVR != nil {
			ivr.AudioSource = lp.IVR.AudioSource
			ivr.AudioID = lp.IVR.AudioID
		}
		lp.IVR = &ivr
	case domains.ModeMobileWeb:
		lp.MobileWeb = text
	}
	return lp
}

// autocompletePrompt writes item.Text for the default language and each translation
// whose language is still blank. Existing translations are never overwritten.
func autocompletePrompt(q domains.Questionnaire, p domains.Prompt, channel domains.Mode, item AutocompleteItem) domains.Prompt {
	p = p.With(q.DefaultLanguage, withChannelText(p[q.DefaultLanguage], channel, item.Text))
	for _, tr := range item.Translations {
		if tr.Language == q.DefaultLanguage || !q.HasLanguage(tr.Language) {
			continue
		}
		if !domains.IsBlank(channelText(p[tr.Language], channel)) {
			continue
		}
		p = p.With(tr.Language, withChannelText(p[tr.Language], channel, tr.Text))
	}
	return p
}

func setQuestionnaireMsg(q domains.Questionnaire, op SetQuestionnaireMsg) domains.Questionnaire {
	if op.Key == "" || !op.Channel.Valid() {
		return q
	}
	lang := q.ActiveLanguage
	p := q.Settings[op.Key]
	lp := withChannelText(p[lang], op.Channel, op.Text)
	if op.Channel == domains.ModeIVR && op.AudioSource != "" {
		ivr := *lp.IVR
		ivr.AudioSource = op.AudioSource
		lp.IVR = &ivr
	}
	q.Settings = q.Settings.With(op.Key, p.With(lang, lp))
	return q
}

func autocompleteQuestionnaireMsg(q domains.Questionnaire, op AutocompleteQuestionnaireMsg) domains.Questionnaire {
	if op.Key == "" || !op.Channel.Valid() {
		return q
	}
	q.Settings = q.Settings.With(op.Key, autocompletePrompt(q, q.Settings[op.Key], op.Channel, op.Item))
	return q
}

func autocompleteStepPrompt(q domains.Questionnaire, op AutocompleteStepPrompt) domains.Questionnaire {
	if !op.Channel.Valid() {
		return q
	}
	return changeStep(q, op.StepID, func(s domains.Step) domains.Step {
		s.Prompt = autocompletePrompt(q, s.Prompt, op.Channel, op.Item)
		return s
	})
}
