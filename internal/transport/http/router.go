package httptransport

import (
	"net/http"

	"github.com/gorilla/mux"

	"surveyeditor/internal/config"
	"surveyeditor/internal/httpx"
)

func Router(questionnaires QuestionnaireServices, cfg *config.Config) *mux.Router {
	router := mux.NewRouter()

	handlers := NewQuestionnaireHandlers(questionnaires)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(httpx.Protected(cfg.JWT.Secret))

	project := api.PathPrefix("/projects/{projectId:[0-9]+}/questionnaires").Subrouter()
	project.HandleFunc("", handlers.CreateQuestionnaire).Methods(http.MethodPost)
	project.HandleFunc("", handlers.ListQuestionnaires).Methods(http.MethodGet)

	one := project.PathPrefix("/{id:[0-9]+}").Subrouter()
	one.HandleFunc("", handlers.GetQuestionnaire).Methods(http.MethodGet)
	one.HandleFunc("/operations", handlers.ApplyOperation).Methods(http.MethodPost)
	one.HandleFunc("/save", handlers.SaveQuestionnaire).Methods(http.MethodPost)
	one.HandleFunc("/session", handlers.CloseSession).Methods(http.MethodDelete)
	one.HandleFunc("/store-values", handlers.StoreValues).Methods(http.MethodGet)
	one.HandleFunc("/translations", handlers.ExportTranslations).Methods(http.MethodGet)
	one.HandleFunc("/translations", handlers.ImportTranslations).Methods(http.MethodPost)

	return router
}
