package providers

import "github.com/jackc/pgx/v5/pgxpool"

type Providers struct {
	QuestionnaireProvider *QuestionnaireProvider
}

func New(db *pgxpool.Pool) *Providers {
	return &Providers{
		QuestionnaireProvider: NewQuestionnaireProvider(db),
	}
}
