package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"surveyeditor/internal/domains"
	"surveyeditor/internal/storage"
)

type QuestionnaireProvider struct {
	db *pgxpool.Pool
}

func NewQuestionnaireProvider(pg *pgxpool.Pool) *QuestionnaireProvider {
	return &QuestionnaireProvider{
		db: pg,
	}
}

// questionnaireRow is a questionnaires table row. The document column holds the
// whole questionnaire; id and project_id are authoritative over the copies inside it.
type questionnaireRow struct {
	ID        int64  `db:"id"`
	ProjectID int64  `db:"project_id"`
	Document  []byte `db:"document"`
}

func (r questionnaireRow) toDomain() (domains.Questionnaire, error) {
	var q domains.Questionnaire
	if err := json.Unmarshal(r.Document, &q); err != nil {
		return domains.Questionnaire{}, fmt.Errorf("decode questionnaire %d: %w", r.ID, err)
	}
	id := r.ID
	q.ID = &id
	q.ProjectID = r.ProjectID
	return q, nil
}

func encodeDocument(q domains.Questionnaire) ([]byte, error) {
	q.ID = nil
	data, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("encode questionnaire: %w", err)
	}
	return data, nil
}

func (p *QuestionnaireProvider) CreateQuestionnaire(ctx context.Context, q domains.Questionnaire) (domains.Questionnaire, error) {
	doc, err := encodeDocument(q)
	if err != nil {
		return domains.Questionnaire{}, err
	}

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return domains.Questionnaire{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
        INSERT INTO questionnaires (project_id, name, document, created_at, updated_at)
        VALUES ($1, $2, $3, NOW(), NOW())
        RETURNING id, project_id, document
    `, q.ProjectID, q.Name, doc)
	if err != nil {
		return domains.Questionnaire{}, mapPgError(err)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[questionnaireRow])
	if err != nil {
		return domains.Questionnaire{}, mapPgError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domains.Questionnaire{}, fmt.Errorf("commit: %w", err)
	}
	return row.toDomain()
}

// UpdateQuestionnaire replaces the stored document and returns it as stored.
func (p *QuestionnaireProvider) UpdateQuestionnaire(ctx context.Context, q domains.Questionnaire) (domains.Questionnaire, error) {
	if q.ID == nil {
		return domains.Questionnaire{}, storage.ErrNotFound
	}
	doc, err := encodeDocument(q)
	if err != nil {
		return domains.Questionnaire{}, err
	}

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return domains.Questionnaire{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
        UPDATE questionnaires
        SET
            name = $1,
            document = $2,
            updated_at = NOW()
        WHERE id = $3 AND project_id = $4
        RETURNING id, project_id, document
    `, q.Name, doc, *q.ID, q.ProjectID)
	if err != nil {
		return domains.Questionnaire{}, mapPgError(err)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[questionnaireRow])
	if err != nil {
		return domains.Questionnaire{}, mapPgError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domains.Questionnaire{}, fmt.Errorf("commit: %w", err)
	}
	return row.toDomain()
}

func (p *QuestionnaireProvider) GetQuestionnaire(ctx context.Context, projectID, id int64) (domains.Questionnaire, error) {
	rows, err := p.db.Query(ctx, `
        SELECT id, project_id, document
        FROM questionnaires
        WHERE id = $1 AND project_id = $2
    `, id, projectID)
	if err != nil {
		return domains.Questionnaire{}, err
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[questionnaireRow])
	if err != nil {
		return domains.Questionnaire{}, mapPgError(err)
	}
	return row.toDomain()
}

func (p *QuestionnaireProvider) ListQuestionnaires(ctx context.Context, projectID int64) ([]domains.Questionnaire, error) {
	rows, err := p.db.Query(ctx, `
        SELECT id, project_id, document
        FROM questionnaires
        WHERE project_id = $1
        ORDER BY id
    `, projectID)
	if err != nil {
		return nil, err
	}
	list, err := pgx.CollectRows(rows, pgx.RowToStructByName[questionnaireRow])
	if err != nil {
		return nil, err
	}
	out := make([]domains.Questionnaire, 0, len(list))
	for _, row := range list {
		q, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

func mapPgError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return storage.ErrExists
	}
	return err
}
