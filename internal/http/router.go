package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"studyhub/internal/handlers"
	"studyhub/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	DocumentService service.DocumentService
	ChatService     service.ChatService
	StudyService    service.StudyService
	DB              handlers.Pinger
	MaxFileSize     int64
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(CORS)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(Identity)

	maxFileSize := deps.MaxFileSize
	if maxFileSize <= 0 {
		maxFileSize = service.DefaultMaxFileSize
	}

	uploadHandler := handlers.NewUploadHandler(deps.DocumentService, maxFileSize)
	documentsHandler := handlers.NewDocumentsHandler(deps.DocumentService)
	chatHandler := handlers.NewChatHandler(deps.ChatService)
	messagesHandler := handlers.NewMessagesHandler(deps.ChatService)
	flashcardsHandler := handlers.NewFlashcardsHandler(deps.StudyService)
	quizHandler := handlers.NewQuizHandler(deps.StudyService)
	studyPlanHandler := handlers.NewStudyPlanHandler(deps.StudyService)
	conceptsHandler := handlers.NewConceptsHandler(deps.StudyService)
	qaHandler := handlers.NewQAHandler(deps.StudyService)
	healthHandler := handlers.NewHealthHandler(deps.DB)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)

		r.Route("/notes", func(r chi.Router) {
			r.Method(http.MethodPost, "/upload", uploadHandler)
			r.Method(http.MethodGet, "/documents", documentsHandler)
			r.Method(http.MethodDelete, "/documents", documentsHandler)
			r.Method(http.MethodPost, "/chat", chatHandler)
			r.Method(http.MethodGet, "/chat/messages", messagesHandler)
			r.Method(http.MethodPost, "/chat/messages", messagesHandler)
			r.Method(http.MethodDelete, "/chat/messages", messagesHandler)
		})

		r.Route("/ai", func(r chi.Router) {
			r.Method(http.MethodPost, "/flashcards", flashcardsHandler)
			r.Method(http.MethodPost, "/study-plan", studyPlanHandler)
			r.Method(http.MethodPost, "/concepts", conceptsHandler)
			r.Method(http.MethodPost, "/qa", qaHandler)
		})
		r.Method(http.MethodPost, "/quiz/generate", quizHandler)
	})

	return r
}
