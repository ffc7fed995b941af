package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"studyhub/internal/contextutil"
	"studyhub/internal/service"
)

// FlashcardsHandler handles flashcard generation requests.
type FlashcardsHandler struct {
	studyService service.StudyService
}

// NewFlashcardsHandler creates a new FlashcardsHandler.
func NewFlashcardsHandler(studyService service.StudyService) *FlashcardsHandler {
	return &FlashcardsHandler{studyService: studyService}
}

// FlashcardsRequest represents the HTTP request payload for flashcards.
type FlashcardsRequest struct {
	SourceType string `json:"sourceType"`
	SourceID   string `json:"sourceId,omitempty"`
	Count      int    `json:"count,omitempty"`
	CustomText string `json:"customText,omitempty"`
	Focus      string `json:"focus,omitempty"`
}

// FlashcardsResponse represents the HTTP response payload for flashcards.
type FlashcardsResponse struct {
	Success    bool                `json:"success"`
	Flashcards []service.Flashcard `json:"flashcards"`
}

// ServeHTTP handles HTTP requests for flashcards.
func (h *FlashcardsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, req, ok := decodeStudyRequest[FlashcardsRequest](w, r)
	if !ok {
		return
	}

	cards, err := h.studyService.Flashcards(ctx, service.FlashcardRequest{
		UserID:     user,
		SourceType: req.SourceType,
		SourceID:   req.SourceID,
		Count:      req.Count,
		CustomText: req.CustomText,
		Focus:      req.Focus,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to generate flashcards")
		return
	}

	writeJSON(w, ctx, http.StatusOK, FlashcardsResponse{Success: true, Flashcards: cards})
}

// QuizHandler handles quiz generation requests.
type QuizHandler struct {
	studyService service.StudyService
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(studyService service.StudyService) *QuizHandler {
	return &QuizHandler{studyService: studyService}
}

// QuizRequest represents the HTTP request payload for a quiz.
type QuizRequest struct {
	SourceType    string `json:"sourceType"`
	SourceID      string `json:"sourceId"`
	QuestionCount int    `json:"questionCount,omitempty"`
	Difficulty    string `json:"difficulty,omitempty"`
}

// QuizBody is a generated quiz in the HTTP response.
type QuizBody struct {
	SourceType  string                 `json:"sourceType"`
	SourceID    string                 `json:"sourceId"`
	SourceName  string                 `json:"sourceName"`
	Difficulty  string                 `json:"difficulty"`
	Questions   []service.QuizQuestion `json:"questions"`
	GeneratedAt time.Time              `json:"generatedAt"`
}

// QuizResponse represents the HTTP response payload for a quiz.
type QuizResponse struct {
	Success bool     `json:"success"`
	Quiz    QuizBody `json:"quiz"`
}

// ServeHTTP handles HTTP requests for quizzes.
func (h *QuizHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, req, ok := decodeStudyRequest[QuizRequest](w, r)
	if !ok {
		return
	}

	quiz, err := h.studyService.Quiz(ctx, service.QuizRequest{
		UserID:        user,
		SourceType:    req.SourceType,
		SourceID:      req.SourceID,
		QuestionCount: req.QuestionCount,
		Difficulty:    req.Difficulty,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to generate quiz")
		return
	}

	writeJSON(w, ctx, http.StatusOK, QuizResponse{
		Success: true,
		Quiz: QuizBody{
			SourceType:  quiz.SourceType,
			SourceID:    quiz.SourceID,
			SourceName:  quiz.SourceName,
			Difficulty:  quiz.Difficulty,
			Questions:   quiz.Questions,
			GeneratedAt: quiz.GeneratedAt,
		},
	})
}

// StudyPlanHandler handles study plan requests.
type StudyPlanHandler struct {
	studyService service.StudyService
}

// NewStudyPlanHandler creates a new StudyPlanHandler.
func NewStudyPlanHandler(studyService service.StudyService) *StudyPlanHandler {
	return &StudyPlanHandler{studyService: studyService}
}

// StudyPlanRequest represents the HTTP request payload for a study plan.
type StudyPlanRequest struct {
	FocusArea string `json:"focusArea,omitempty"`
	Duration  int    `json:"duration,omitempty"`
}

// StudyPlanResponse represents the HTTP response payload for a study plan.
type StudyPlanResponse struct {
	Success bool               `json:"success"`
	Plan    []service.StudyDay `json:"plan"`
}

// ServeHTTP handles HTTP requests for study plans.
func (h *StudyPlanHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, req, ok := decodeStudyRequest[StudyPlanRequest](w, r)
	if !ok {
		return
	}

	plan, err := h.studyService.StudyPlan(ctx, service.StudyPlanRequest{
		UserID:    user,
		FocusArea: req.FocusArea,
		Duration:  req.Duration,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to generate study plan")
		return
	}

	writeJSON(w, ctx, http.StatusOK, StudyPlanResponse{Success: true, Plan: plan})
}

// ConceptsHandler handles concept extraction requests.
type ConceptsHandler struct {
	studyService service.StudyService
}

// NewConceptsHandler creates a new ConceptsHandler.
func NewConceptsHandler(studyService service.StudyService) *ConceptsHandler {
	return &ConceptsHandler{studyService: studyService}
}

// ConceptsRequest represents the HTTP request payload for concept extraction.
type ConceptsRequest struct {
	Text string `json:"text"`
}

// ConceptsResponse represents the HTTP response payload for concept extraction.
type ConceptsResponse struct {
	Success    bool              `json:"success"`
	Concepts   []service.Concept `json:"concepts"`
	ConceptMap [][]string        `json:"conceptMap"`
}

// ServeHTTP handles HTTP requests for concepts.
func (h *ConceptsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, req, ok := decodeStudyRequest[ConceptsRequest](w, r)
	if !ok {
		return
	}

	concepts, err := h.studyService.Concepts(ctx, service.ConceptsRequest{UserID: user, Text: req.Text})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to extract concepts")
		return
	}

	writeJSON(w, ctx, http.StatusOK, ConceptsResponse{
		Success:    true,
		Concepts:   concepts.Concepts,
		ConceptMap: concepts.Links,
	})
}

// QAHandler answers questions over the user's notes.
type QAHandler struct {
	studyService service.StudyService
}

// NewQAHandler creates a new QAHandler.
func NewQAHandler(studyService service.StudyService) *QAHandler {
	return &QAHandler{studyService: studyService}
}

// QARequest represents the HTTP request payload for a question.
type QARequest struct {
	Question   string `json:"question"`
	DocumentID string `json:"documentId,omitempty"`
	SearchIn   string `json:"searchIn,omitempty"`
}

// QAResponse represents the HTTP response payload for an answer.
type QAResponse struct {
	Success   bool               `json:"success"`
	Answer    string             `json:"answer"`
	Citations []service.Citation `json:"citations"`
}

// ServeHTTP handles HTTP requests for answers.
func (h *QAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, req, ok := decodeStudyRequest[QARequest](w, r)
	if !ok {
		return
	}

	result, err := h.studyService.QA(ctx, service.QARequest{
		UserID:     user,
		Question:   req.Question,
		DocumentID: req.DocumentID,
		SearchIn:   req.SearchIn,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to answer question")
		return
	}

	writeJSON(w, ctx, http.StatusOK, QAResponse{Success: true, Answer: result.Answer, Citations: result.Citations})
}

// decodeStudyRequest checks the method and identity, then decodes a JSON body.
// It writes the error response itself and reports false on failure.
func decodeStudyRequest[T any](w http.ResponseWriter, r *http.Request) (string, T, bool) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	var req T

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return "", req, false
	}

	user, ok := userID(w, r)
	if !ok {
		return "", req, false
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return "", req, false
	}
	return user, req, true
}
