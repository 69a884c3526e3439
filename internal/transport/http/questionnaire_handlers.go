package httptransport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"surveyeditor/internal/domains"
	"surveyeditor/internal/httpx"
	"surveyeditor/internal/questionnaire"
	"surveyeditor/internal/service"
	"surveyeditor/internal/storage"
	"surveyeditor/internal/translation"
)

type QuestionnaireServices interface {
	CreateQuestionnaire(ctx context.Context, projectID int64, name, language string) (domains.Questionnaire, error)
	ListQuestionnaires(ctx context.Context, projectID int64) ([]domains.Questionnaire, error)
	Open(ctx context.Context, projectID, id int64) (questionnaire.State, error)
	Apply(ctx context.Context, projectID, id int64, op questionnaire.Operation) (questionnaire.State, error)
	Save(ctx context.Context, projectID, id int64) (questionnaire.State, error)
	StoreValues(projectID, id int64) (map[string]questionnaire.StoreValues, error)
	ExportTranslations(projectID, id int64, w io.Writer) error
	ImportTranslations(ctx context.Context, projectID, id int64, r io.Reader) (questionnaire.State, error)
	Close(projectID, id int64) error
}

// maxUploadBytes bounds operation bodies and translation uploads.
const maxUploadBytes = 4 << 20

type QuestionnaireHandlers struct {
	service QuestionnaireServices
}

func NewQuestionnaireHandlers(service QuestionnaireServices) *QuestionnaireHandlers {
	return &QuestionnaireHandlers{service: service}
}

func projectID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := httpx.PathInt(r, "projectId")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return id, true
}

// open parses the route ids and makes sure the editing session is loaded.
func (h *QuestionnaireHandlers) open(w http.ResponseWriter, r *http.Request) (int64, int64, questionnaire.State, bool) {
	project, ok := projectID(w, r)
	if !ok {
		return 0, 0, questionnaire.State{}, false
	}
	id, err := httpx.PathInt(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return 0, 0, questionnaire.State{}, false
	}
	state, err := h.service.Open(r.Context(), project, id)
	if err != nil {
		writeError(w, err)
		return 0, 0, questionnaire.State{}, false
	}
	return project, id, state, true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		httpx.Error(w, http.StatusNotFound, "questionnaire not found")
	case errors.Is(err, service.ErrSessionNotLoaded):
		httpx.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrSaveInProgress), errors.Is(err, service.ErrUnsavedChanges):
		httpx.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, questionnaire.ErrUnknownStepType), errors.Is(err, translation.ErrMalformedCSV):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("request failed", "err", err)
		httpx.Error(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *QuestionnaireHandlers) CreateQuestionnaire(w http.ResponseWriter, r *http.Request) {
	project, ok := projectID(w, r)
	if !ok {
		return
	}

	req, err := httpx.ReadBody[CreateQuestionnaireRequest](r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		httpx.JSON(w, http.StatusBadRequest, httpx.ErrorResponse{Error: "invalid request", Fields: fieldErrors(err)})
		return
	}

	created, err := h.service.CreateQuestionnaire(r.Context(), project, req.Name, req.Language)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *QuestionnaireHandlers) ListQuestionnaires(w http.ResponseWriter, r *http.Request) {
	project, ok := projectID(w, r)
	if !ok {
		return
	}
	list, err := h.service.ListQuestionnaires(r.Context(), project)
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []domains.Questionnaire{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *QuestionnaireHandlers) GetQuestionnaire(w http.ResponseWriter, r *http.Request) {
	_, _, state, ok := h.open(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, state)
}

func (h *QuestionnaireHandlers) ApplyOperation(w http.ResponseWriter, r *http.Request) {
	project, id, _, ok := h.open(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	op, err := questionnaire.DecodeOperation(body)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, fmt.Sprintf("invalid operation: %v", err))
		return
	}

	state, err := h.service.Apply(r.Context(), project, id, op)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, state)
}

func (h *QuestionnaireHandlers) SaveQuestionnaire(w http.ResponseWriter, r *http.Request) {
	project, id, _, ok := h.open(w, r)
	if !ok {
		return
	}

	state, err := h.service.Save(r.Context(), project, id)
	if errors.Is(err, service.ErrQuestionnaireInvalid) {
		httpx.JSON(w, http.StatusConflict, httpx.ErrorResponse{Error: err.Error(), Fields: state.Errors})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, state)
}

func (h *QuestionnaireHandlers) StoreValues(w http.ResponseWriter, r *http.Request) {
	project, id, _, ok := h.open(w, r)
	if !ok {
		return
	}
	values, err := h.service.StoreValues(project, id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, values)
}

func (h *QuestionnaireHandlers) ExportTranslations(w http.ResponseWriter, r *http.Request) {
	project, id, _, ok := h.open(w, r)
	if !ok {
		return
	}

	var buf strings.Builder
	if err := h.service.ExportTranslations(project, id, &buf); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="questionnaire-%d-translations.csv"`, id))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, buf.String())
}

// ImportTranslations accepts the spreadsheet either as a multipart "file" field or
// as a raw CSV body.
func (h *QuestionnaireHandlers) ImportTranslations(w http.ResponseWriter, r *http.Request) {
	project, id, _, ok := h.open(w, r)
	if !ok {
		return
	}

	var src io.Reader = io.LimitReader(r.Body, maxUploadBytes)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			httpx.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			httpx.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		defer file.Close()
		src = file
	}

	state, err := h.service.ImportTranslations(r.Context(), project, id, src)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, state)
}

// CloseSession releases the editing session. Releasing a session that is not loaded
// succeeds.
func (h *QuestionnaireHandlers) CloseSession(w http.ResponseWriter, r *http.Request) {
	project, ok := projectID(w, r)
	if !ok {
		return
	}
	id, err := httpx.PathInt(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.service.Close(project, id); err != nil && !errors.Is(err, service.ErrSessionNotLoaded) {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
