package httptransport

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type CreateQuestionnaireRequest struct {
	Name     string `json:"name" validate:"max=255"`
	Language string `json:"language" validate:"omitempty,bcp47_language_tag"`
}

// fieldErrors flattens validator errors into the response field map.
func fieldErrors(err error) map[string][]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := map[string][]string{}
	for _, fe := range verrs {
		out[fe.Field()] = append(out[fe.Field()], "failed "+fe.Tag()+" check")
	}
	return out
}
