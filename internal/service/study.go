package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_study_service.go -package=mocks studyhub/internal/service StudyService

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"studyhub/internal/contextutil"
	"studyhub/internal/llm"
	"studyhub/internal/storage"
)

const (
	// Source types accepted by the study generators.
	SourceDocuments = "documents"
	SourceDocument  = "document"
	SourceCustom    = "custom"

	// Difficulty levels for quizzes.
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"

	DefaultFlashcardCount = 6
	DefaultQuestionCount  = 5

	// studyChunkLimit is the number of leading chunks used as study material.
	studyChunkLimit = 10
	// minStudyContent is the shortest material, in runes, worth generating from.
	minStudyContent = 100
	// maxPromptContent caps the material sent to the model, in runes.
	maxPromptContent = 8000

	studyTemperature = 0.7
	studyMaxTokens   = 2000
)

// jsonObject matches the outermost JSON object in a model reply.
var jsonObject = regexp.MustCompile(`\{[\s\S]*\}`)

var difficultyInstructions = map[string]string{
	DifficultyEasy:   "Make questions straightforward with obvious correct answers.",
	DifficultyMedium: "Make questions moderately challenging that test understanding.",
	DifficultyHard:   "Make questions challenging that require deep understanding and critical thinking.",
}

// FlashcardRequest asks for flashcards from a document or free text.
type FlashcardRequest struct {
	UserID     string `validate:"required"`
	SourceType string `validate:"required,oneof=documents custom"`
	SourceID   string `validate:"required_if=SourceType documents"`
	Count      int    `validate:"min=0,max=50"`
	CustomText string `validate:"required_if=SourceType custom"`
	Focus      string
}

// Flashcard is one generated card.
type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
	Tag   string `json:"tag"`
}

// QuizRequest asks for a multiple choice quiz over a document.
type QuizRequest struct {
	UserID        string `validate:"required"`
	SourceType    string `validate:"required,oneof=document"`
	SourceID      string `validate:"required"`
	QuestionCount int    `validate:"min=0,max=50"`
	Difficulty    string `validate:"omitempty,oneof=easy medium hard"`
}

// QuizQuestion is one generated question. CorrectAnswer indexes Options.
type QuizQuestion struct {
	ID            int      `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

// Quiz is a generated quiz with its provenance.
type Quiz struct {
	SourceType  string
	SourceID    string
	SourceName  string
	Difficulty  string
	Questions   []QuizQuestion
	GeneratedAt time.Time
}

// StudyService generates study material from notes.
type StudyService interface {
	// Flashcards generates flashcards.
	Flashcards(ctx context.Context, req FlashcardRequest) ([]Flashcard, error)
	// Quiz generates a multiple choice quiz.
	Quiz(ctx context.Context, req QuizRequest) (Quiz, error)
	// StudyPlan generates a day-by-day plan over the user's documents.
	StudyPlan(ctx context.Context, req StudyPlanRequest) ([]StudyDay, error)
	// Concepts extracts key concepts and their relations from text.
	Concepts(ctx context.Context, req ConceptsRequest) (ConceptMap, error)
	// QA answers a question from the user's notes with citations.
	QA(ctx context.Context, req QARequest) (QAResult, error)
}

// studyService implements StudyService.
type studyService struct {
	documents storage.DocumentStore
	chunks    storage.ChunkStore
	retriever ChunkSearcher
	llmClient LLMClient
	now       func() time.Time
}

// NewStudyService creates a new StudyService.
func NewStudyService(documents storage.DocumentStore, chunks storage.ChunkStore, retriever ChunkSearcher, llmClient LLMClient) StudyService {
	return &studyService{
		documents: documents,
		chunks:    chunks,
		retriever: retriever,
		llmClient: llmClient,
		now:       time.Now,
	}
}

// Flashcards generates flashcards.
func (s *studyService) Flashcards(ctx context.Context, req FlashcardRequest) ([]Flashcard, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if req.Count == 0 {
		req.Count = DefaultFlashcardCount
	}

	var content string
	switch req.SourceType {
	case SourceDocuments:
		text, _, err := s.documentContent(ctx, req.UserID, req.SourceID)
		if err != nil {
			return nil, err
		}
		content = text
	case SourceCustom:
		content = req.CustomText
	}

	if utf8.RuneCountInString(content) < minStudyContent {
		return nil, &ValidationError{Field: "content", Message: "not enough content to generate flashcards"}
	}

	focus := ""
	if req.Focus != "" {
		focus = fmt.Sprintf(" Focus on: %s.", req.Focus)
	}
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: fmt.Sprintf(flashcardSystemPrompt, req.Count, focus)},
		{Role: llm.RoleUser, Content: fmt.Sprintf("Generate %d flashcards from this content:\n\n%s", req.Count, truncateRunes(content, maxPromptContent))},
	}

	var out struct {
		Flashcards []Flashcard `json:"flashcards"`
	}
	if err := s.generateJSON(ctx, messages, &out); err != nil {
		return nil, err
	}
	if len(out.Flashcards) == 0 {
		return nil, externalError(errors.New("no flashcards generated"), "failed to generate flashcards")
	}

	logger.InfoContext(ctx, "flashcards generated", "source_type", req.SourceType, "count", len(out.Flashcards))
	return out.Flashcards, nil
}

// Quiz generates a multiple choice quiz.
func (s *studyService) Quiz(ctx context.Context, req QuizRequest) (Quiz, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := validateRequest(req); err != nil {
		return Quiz{}, err
	}
	if req.QuestionCount == 0 {
		req.QuestionCount = DefaultQuestionCount
	}
	if req.Difficulty == "" {
		req.Difficulty = DifficultyMedium
	}

	content, sourceName, err := s.documentContent(ctx, req.UserID, req.SourceID)
	if err != nil {
		return Quiz{}, err
	}
	if utf8.RuneCountInString(content) < minStudyContent {
		return Quiz{}, &ValidationError{Field: "content", Message: "not enough content to generate quiz"}
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: fmt.Sprintf(quizSystemPrompt, req.QuestionCount, difficultyInstructions[req.Difficulty])},
		{Role: llm.RoleUser, Content: fmt.Sprintf("Generate %d quiz questions from this content:\n\n%s", req.QuestionCount, truncateRunes(content, maxPromptContent))},
	}

	var out struct {
		Questions []QuizQuestion `json:"questions"`
	}
	if err := s.generateJSON(ctx, messages, &out); err != nil {
		return Quiz{}, err
	}
	if len(out.Questions) == 0 {
		return Quiz{}, externalError(errors.New("no questions generated"), "failed to generate quiz")
	}

	logger.InfoContext(ctx, "quiz generated", "source_id", req.SourceID, "difficulty", req.Difficulty, "questions", len(out.Questions))
	return Quiz{
		SourceType:  req.SourceType,
		SourceID:    req.SourceID,
		SourceName:  sourceName,
		Difficulty:  req.Difficulty,
		Questions:   out.Questions,
		GeneratedAt: s.now().UTC(),
	}, nil
}

// documentContent joins the leading chunks of a document and returns it with the filename.
func (s *studyService) documentContent(ctx context.Context, userID, documentID string) (string, string, error) {
	chunks, err := s.chunks.ListByDocument(ctx, userID, documentID, studyChunkLimit)
	if err != nil {
		return "", "", WrapError(err, "failed to load document chunks")
	}
	if len(chunks) == 0 {
		return "", "", fmt.Errorf("document %s: %w", documentID, ErrNotFound)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return strings.Join(texts, "\n\n"), chunks[0].Filename, nil
}

// generateJSON asks the model and decodes the first JSON object of its reply into out.
func (s *studyService) generateJSON(ctx context.Context, messages []llm.Message, out any) error {
	reply, err := s.complete(ctx, messages, studyMaxTokens)
	if err != nil {
		return err
	}
	if reply == "" {
		return externalError(errors.New("empty reply"), "no response from AI model")
	}
	return decodeReply(ctx, reply, out)
}

// complete sends messages with the study sampling settings.
func (s *studyService) complete(ctx context.Context, messages []llm.Message, maxTokens int) (string, error) {
	reply, err := s.llmClient.ChatWithMessages(ctx, messages, llm.ChatParams{Temperature: studyTemperature, MaxTokens: maxTokens})
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to get LLM response", "error", err)
		return "", externalError(err, "failed to get LLM response")
	}
	return reply, nil
}

// decodeReply unmarshals the first JSON object found in reply.
func decodeReply(ctx context.Context, reply string, out any) error {
	logger := contextutil.LoggerFromContext(ctx)

	raw := jsonObject.FindString(reply)
	if raw == "" {
		logger.WarnContext(ctx, "no JSON found in LLM reply", "preview", truncateRunes(reply, 200))
		return externalError(errors.New("no JSON found in response"), "failed to parse AI response")
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		logger.WarnContext(ctx, "invalid JSON in LLM reply", "error", err, "preview", truncateRunes(reply, 200))
		return externalError(err, "failed to parse AI response")
	}
	return nil
}

// truncateRunes returns the first n runes of s.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for ; n > 0; n-- {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i]
}

const flashcardSystemPrompt = `You are a flashcard generator. Create %d flashcards from the provided content.
Each flashcard should have:
- front: A clear question or prompt
- back: A concise answer or explanation
- tag: A category (e.g., "Core idea", "Keywords", "Application", "Pitfall")

Return ONLY valid JSON in this format:
{
  "flashcards": [
    {
      "front": "Question or prompt",
      "back": "Answer or explanation",
      "tag": "Category"
    }
  ]
}

Make flashcards diverse and useful for spaced repetition.%s`

const quizSystemPrompt = `You are a quiz generator for educational content. Generate exactly %d multiple choice questions based on the provided content.

%s

IMPORTANT: Return ONLY valid JSON in this exact format, no other text:
{
  "questions": [
    {
      "id": 1,
      "question": "What is...?",
      "options": ["Option A", "Option B", "Option C", "Option D"],
      "correctAnswer": 0,
      "explanation": "Brief explanation of why this is correct"
    }
  ]
}

Rules:
- Each question must have exactly 4 options
- correctAnswer is the index (0-3) of the correct option
- Make questions diverse - test different concepts
- Questions should be clear and unambiguous
- All content must be based on the provided material`
