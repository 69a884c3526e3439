package service

import "errors"

var (
	ErrQuestionnaireInvalid = errors.New("questionnaire has validation errors")
	ErrSaveInProgress       = errors.New("save already in progress")
	ErrSessionNotLoaded     = errors.New("questionnaire session not loaded")
	ErrUnsavedChanges       = errors.New("questionnaire has unsaved changes")
)
