package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"studyhub/internal/contextutil"
	"studyhub/internal/llm"
)

const (
	// DefaultPlanDuration is the number of days planned when none is given.
	DefaultPlanDuration = 3
	// NoQAAnswer is returned when no note matches a question.
	NoQAAnswer = "I couldn't find relevant information in your content. Please upload documents first."
	// FallbackQAAnswer is returned when the model sends nothing usable.
	FallbackQAAnswer = "Unable to generate answer."

	// planDocumentLimit is the number of recent filenames listed in a plan prompt.
	planDocumentLimit = 5
	// minConceptText and minQuestionLength are measured in runes after trimming.
	minConceptText    = 50
	minQuestionLength = 10
	// qaChunkLimit is the number of chunks quoted as answer context.
	qaChunkLimit = 3
	// qaExcerptLength caps each quoted chunk, in runes.
	qaExcerptLength = 1000
	// qaSnippetLength caps citation snippets built without the model.
	qaSnippetLength = 150
	qaMaxTokens     = 1500
	// notesSourcePrefix marks citations that point at an uploaded file.
	notesSourcePrefix = "notes:"
)

// StudyPlanRequest asks for a study plan over the user's documents.
type StudyPlanRequest struct {
	UserID    string `validate:"required"`
	FocusArea string
	Duration  int `validate:"min=0,max=30"`
}

// StudyDay is one step of a study plan.
type StudyDay struct {
	Title   string   `json:"title"`
	Focus   string   `json:"focus"`
	Actions []string `json:"actions"`
}

// ConceptsRequest asks for the key concepts of a text.
type ConceptsRequest struct {
	UserID string `validate:"required"`
	Text   string
}

// Concept is one extracted concept.
type Concept struct {
	Title      string `json:"title"`
	Importance string `json:"importance"`
	Detail     string `json:"detail"`
}

// ConceptMap holds concepts and the [from, to] pairs that relate them.
type ConceptMap struct {
	Concepts []Concept  `json:"concepts"`
	Links    [][]string `json:"conceptMap"`
}

// QARequest asks a question over the user's notes.
type QARequest struct {
	UserID     string `validate:"required"`
	Question   string
	DocumentID string
	SearchIn   string `validate:"omitempty,oneof=all documents"`
}

// Citation points an answer at the source that supports it.
type Citation struct {
	Source  string `json:"source"`
	Snippet string `json:"snippet"`
}

// QAResult is an answer with its citations.
type QAResult struct {
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations"`
}

// qaExcerpt is a chunk quoted as answer context.
type qaExcerpt struct {
	source string
	text   string
}

// StudyPlan generates a day-by-day plan from the filenames of recent uploads.
func (s *studyService) StudyPlan(ctx context.Context, req StudyPlanRequest) ([]StudyDay, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if req.Duration == 0 {
		req.Duration = DefaultPlanDuration
	}

	docs, err := s.documents.ListByUser(ctx, req.UserID)
	if err != nil {
		return nil, WrapError(err, "failed to list documents")
	}
	names := make([]string, 0, planDocumentLimit)
	for _, d := range docs {
		if len(names) == planDocumentLimit {
			break
		}
		names = append(names, d.Filename)
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: fmt.Sprintf(studyPlanSystemPrompt, req.Duration)},
		{Role: llm.RoleUser, Content: fmt.Sprintf("Generate a %d-day study plan:\n\n%s", req.Duration, planSummary(names, req.FocusArea, req.Duration))},
	}

	var out struct {
		Plan []StudyDay `json:"plan"`
	}
	if err := s.generateJSON(ctx, messages, &out); err != nil {
		return nil, err
	}
	if out.Plan == nil {
		out.Plan = []StudyDay{}
	}

	logger.InfoContext(ctx, "study plan generated", "duration", req.Duration, "documents", len(names), "days", len(out.Plan))
	return out.Plan, nil
}

// planSummary lists the available materials for the plan prompt.
func planSummary(filenames []string, focusArea string, duration int) string {
	documents := "None"
	if len(filenames) > 0 {
		documents = strings.Join(filenames, ", ")
	}
	if focusArea == "" {
		focusArea = "General study"
	}
	return fmt.Sprintf("Available materials:\n- Documents: %s\nFocus area: %s\nDuration: %d days\n", documents, focusArea, duration)
}

// Concepts extracts concepts from the first maxPromptContent runes of the text.
func (s *studyService) Concepts(ctx context.Context, req ConceptsRequest) (ConceptMap, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := validateRequest(req); err != nil {
		return ConceptMap{}, err
	}
	if utf8.RuneCountInString(strings.TrimSpace(req.Text)) < minConceptText {
		return ConceptMap{}, &ValidationError{Field: "text", Message: fmt.Sprintf("must be at least %d characters", minConceptText)}
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: conceptsSystemPrompt},
		{Role: llm.RoleUser, Content: "Extract key concepts from this text:\n\n" + truncateRunes(req.Text, maxPromptContent)},
	}

	var out ConceptMap
	if err := s.generateJSON(ctx, messages, &out); err != nil {
		return ConceptMap{}, err
	}
	if out.Concepts == nil {
		out.Concepts = []Concept{}
	}
	if out.Links == nil {
		out.Links = [][]string{}
	}

	logger.InfoContext(ctx, "concepts extracted", "concepts", len(out.Concepts), "links", len(out.Links))
	return out, nil
}

// QA answers from at most qaChunkLimit matching chunks. A reply without
// usable JSON becomes the answer itself, cited by the leading excerpts.
func (s *studyService) QA(ctx context.Context, req QARequest) (QAResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := validateRequest(req); err != nil {
		return QAResult{}, err
	}
	if utf8.RuneCountInString(strings.TrimSpace(req.Question)) < minQuestionLength {
		return QAResult{}, &ValidationError{Field: "question", Message: fmt.Sprintf("must be at least %d characters", minQuestionLength)}
	}

	matches, err := s.retriever.Search(ctx, req.UserID, req.Question, req.DocumentID, qaChunkLimit)
	if err != nil {
		return QAResult{}, WrapError(err, "failed to search chunks")
	}
	if len(matches) == 0 {
		logger.InfoContext(ctx, "no notes matched question")
		return QAResult{Answer: NoQAAnswer, Citations: []Citation{}}, nil
	}

	excerpts := make([]qaExcerpt, len(matches))
	blocks := make([]string, len(matches))
	for i, m := range matches {
		excerpts[i] = qaExcerpt{source: notesSourcePrefix + m.Filename(), text: truncateRunes(m.Chunk.Text, qaExcerptLength)}
		blocks[i] = fmt.Sprintf("[From %s]\n%s", excerpts[i].source, excerpts[i].text)
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: qaSystemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf("Context:\n\n%s\n\nQuestion: %s\n\nAnswer with citations:", strings.Join(blocks, "\n\n---\n\n"), req.Question)},
	}

	reply, err := s.complete(ctx, messages, qaMaxTokens)
	if err != nil {
		return QAResult{}, err
	}

	var out QAResult
	if err := decodeReply(ctx, reply, &out); err != nil {
		out = fallbackAnswer(reply, excerpts)
	}
	if out.Citations == nil {
		out.Citations = []Citation{}
	}

	logger.InfoContext(ctx, "question answered", "chunks", len(matches), "citations", len(out.Citations))
	return out, nil
}

// fallbackAnswer uses the raw reply and cites the first two excerpts.
func fallbackAnswer(reply string, excerpts []qaExcerpt) QAResult {
	if reply == "" {
		reply = FallbackQAAnswer
	}
	n := min(len(excerpts), 2)
	citations := make([]Citation, n)
	for i := range n {
		citations[i] = Citation{Source: excerpts[i].source, Snippet: truncateRunes(excerpts[i].text, qaSnippetLength)}
	}
	return QAResult{Answer: reply, Citations: citations}
}

const studyPlanSystemPrompt = `You are a study plan generator. Create a %d-day study plan based on available materials.

Return ONLY valid JSON in this format:
{
  "plan": [
    {
      "title": "Day 1: Phase name",
      "focus": "Main focus area",
      "actions": ["Action 1", "Action 2", "Action 3"]
    }
  ]
}

Make the plan practical with specific, actionable steps.`

const conceptsSystemPrompt = `You are a concept extraction expert. Extract key concepts from the provided text and show how they relate.

Return ONLY valid JSON in this format:
{
  "concepts": [
    {
      "title": "Concept name",
      "importance": "High|Medium|Low",
      "detail": "Brief explanation"
    }
  ],
  "conceptMap": [
    ["Concept A", "Concept B"],
    ["Concept B", "Concept C"]
  ]
}

The conceptMap shows relationships: [from, to] means "from leads to to".`

const qaSystemPrompt = `You are a helpful assistant that answers questions based on provided context.
Always cite your sources. Return ONLY valid JSON in this format:
{
  "answer": "Your answer text",
  "citations": [
    {
      "source": "notes:filename.pdf",
      "snippet": "Relevant quote from source"
    }
  ]
}

Include 2-3 citations that directly support your answer.`
