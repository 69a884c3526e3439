package domains

import "errors"

var ErrUnknownStepType = errors.New("unknown step type")
