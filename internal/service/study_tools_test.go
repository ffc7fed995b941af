package service_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"studyhub/internal/llm"
	"studyhub/internal/rag"
	"studyhub/internal/service"
	"studyhub/internal/storage"

	"go.uber.org/mock/gomock"
)

func TestStudyService_StudyPlan(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, m := newStudyMocks(ctrl)

	var docs []*storage.DocumentRecord
	for _, name := range []string{"a.pdf", "b.md", "c.txt", "d.docx", "e.pdf", "f.pdf"} {
		docs = append(docs, &storage.DocumentRecord{Filename: name})
	}
	m.docs.EXPECT().ListByUser(gomock.Any(), "user-1").Return(docs, nil)
	m.llm.EXPECT().
		ChatWithMessages(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, messages []llm.Message, params llm.ChatParams) (string, error) {
			if !strings.Contains(messages[0].Content, "Create a 3-day study plan") {
				t.Errorf("system prompt should use the default duration: %q", messages[0].Content)
			}
			wantUser := "Generate a 3-day study plan:\n\n" +
				"Available materials:\n- Documents: a.pdf, b.md, c.txt, d.docx, e.pdf\nFocus area: Genetics\nDuration: 3 days\n"
			if messages[1].Content != wantUser {
				t.Errorf("user prompt = %q, want %q", messages[1].Content, wantUser)
			}
			if params.MaxTokens != 2000 || params.Temperature != 0.7 {
				t.Errorf("params = %+v", params)
			}
			return `{"plan":[{"title":"Day 1: Basics","focus":"DNA","actions":["Read a.pdf","Summarise"]}]}`, nil
		})

	got, err := svc.StudyPlan(testContext(), service.StudyPlanRequest{UserID: "user-1", FocusArea: "Genetics"})
	if err != nil {
		t.Fatalf("StudyPlan() unexpected error: %v", err)
	}
	want := []service.StudyDay{{Title: "Day 1: Basics", Focus: "DNA", Actions: []string{"Read a.pdf", "Summarise"}}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("StudyPlan() = %+v, want %+v", got, want)
	}
}

func TestStudyService_StudyPlan_NoDocuments(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, m := newStudyMocks(ctrl)

	m.docs.EXPECT().ListByUser(gomock.Any(), "user-1").Return([]*storage.DocumentRecord{}, nil)
	m.llm.EXPECT().
		ChatWithMessages(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, messages []llm.Message, _ llm.ChatParams) (string, error) {
			for _, want := range []string{"- Documents: None", "Focus area: General study", "Duration: 7 days", "7-day"} {
				if !strings.Contains(messages[1].Content, want) {
					t.Errorf("user prompt missing %q: %q", want, messages[1].Content)
				}
			}
			return `{"days":[]}`, nil
		})

	got, err := svc.StudyPlan(testContext(), service.StudyPlanRequest{UserID: "user-1", Duration: 7})
	if err != nil {
		t.Fatalf("StudyPlan() unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("StudyPlan() = %#v, want empty non-nil plan", got)
	}
}

func TestStudyService_StudyPlan_Errors(t *testing.T) {
	tests := []struct {
		name      string
		req       service.StudyPlanRequest
		mockSetup func(m studyMocks)
		checkErr  func(error) bool
	}{
		{
			name: "duration too long",
			req:  service.StudyPlanRequest{UserID: "user-1", Duration: 31},
			checkErr: func(err error) bool {
				var validationErr *service.ValidationError
				return errors.As(err, &validationErr) && validationErr.Field == "duration"
			},
		},
		{
			name: "document store failure",
			req:  service.StudyPlanRequest{UserID: "user-1"},
			mockSetup: func(m studyMocks) {
				m.docs.EXPECT().ListByUser(gomock.Any(), "user-1").Return(nil, errors.New("db closed"))
			},
			checkErr: func(err error) bool {
				return err != nil && !errors.Is(err, service.ErrExternalService)
			},
		},
		{
			name: "reply without JSON",
			req:  service.StudyPlanRequest{UserID: "user-1"},
			mockSetup: func(m studyMocks) {
				m.docs.EXPECT().ListByUser(gomock.Any(), "user-1").Return(nil, nil)
				m.llm.EXPECT().ChatWithMessages(gomock.Any(), gomock.Any(), gomock.Any()).Return("Day 1: relax", nil)
			},
			checkErr: func(err error) bool {
				return errors.Is(err, service.ErrExternalService)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc, m := newStudyMocks(ctrl)
			if tt.mockSetup != nil {
				tt.mockSetup(m)
			}

			_, err := svc.StudyPlan(testContext(), tt.req)
			if err == nil {
				t.Fatal("StudyPlan() expected error, got nil")
			}
			if !tt.checkErr(err) {
				t.Errorf("StudyPlan() error type mismatch: %v", err)
			}
		})
	}
}

func TestStudyService_Concepts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, m := newStudyMocks(ctrl)

	text := strings.Repeat("é", 9000)
	m.llm.EXPECT().
		ChatWithMessages(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, messages []llm.Message, _ llm.ChatParams) (string, error) {
			body := strings.TrimPrefix(messages[1].Content, "Extract key concepts from this text:\n\n")
			if n := utf8.RuneCountInString(body); n != 8000 {
				t.Errorf("prompt text has %d runes, want 8000", n)
			}
			if !strings.Contains(messages[0].Content, `"conceptMap"`) {
				t.Errorf("system prompt should describe the concept map: %q", messages[0].Content)
			}
			return `Here: {"concepts":[{"title":"Enzyme","importance":"High","detail":"Catalyst"}],"conceptMap":[["Enzyme","Reaction"]]}`, nil
		})

	got, err := svc.Concepts(testContext(), service.ConceptsRequest{UserID: "user-1", Text: text})
	if err != nil {
		t.Fatalf("Concepts() unexpected error: %v", err)
	}
	want := service.ConceptMap{
		Concepts: []service.Concept{{Title: "Enzyme", Importance: "High", Detail: "Catalyst"}},
		Links:    [][]string{{"Enzyme", "Reaction"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Concepts() = %+v, want %+v", got, want)
	}
}

func TestStudyService_Concepts_Errors(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		mockSetup func(m studyMocks)
		checkErr  func(error) bool
	}{
		{
			name: "text too short after trimming",
			text: "   " + strings.Repeat("a", 49) + "\n\n",
			checkErr: func(err error) bool {
				var validationErr *service.ValidationError
				return errors.As(err, &validationErr) && validationErr.Field == "text"
			},
		},
		{
			name: "llm failure",
			text: longText,
			mockSetup: func(m studyMocks) {
				m.llm.EXPECT().ChatWithMessages(gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("timeout"))
			},
			checkErr: func(err error) bool {
				return errors.Is(err, service.ErrExternalService)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc, m := newStudyMocks(ctrl)
			if tt.mockSetup != nil {
				tt.mockSetup(m)
			}

			_, err := svc.Concepts(testContext(), service.ConceptsRequest{UserID: "user-1", Text: tt.text})
			if err == nil {
				t.Fatal("Concepts() expected error, got nil")
			}
			if !tt.checkErr(err) {
				t.Errorf("Concepts() error type mismatch: %v", err)
			}
		})
	}
}

func TestStudyService_QA(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, m := newStudyMocks(ctrl)

	long := strings.Repeat("x", 1200)
	m.searcher.EXPECT().
		Search(gomock.Any(), "user-1", "What do enzymes do?", "d1", 3).
		Return([]rag.ScoredChunk{
			scored("d1", "bio.pdf", "Enzymes are catalysts."),
			scored("d1", "bio.pdf", long),
		}, nil)
	m.llm.EXPECT().
		ChatWithMessages(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, messages []llm.Message, params llm.ChatParams) (string, error) {
			wantUser := "Context:\n\n[From notes:bio.pdf]\nEnzymes are catalysts.\n\n---\n\n[From notes:bio.pdf]\n" +
				strings.Repeat("x", 1000) + "\n\nQuestion: What do enzymes do?\n\nAnswer with citations:"
			if messages[1].Content != wantUser {
				t.Errorf("user prompt = %q, want %q", messages[1].Content, wantUser)
			}
			if params.MaxTokens != 1500 || params.Temperature != 0.7 {
				t.Errorf("params = %+v", params)
			}
			return `{"answer":"They speed up reactions.","citations":[{"source":"notes:bio.pdf","snippet":"Enzymes are catalysts."}]}`, nil
		})

	got, err := svc.QA(testContext(), service.QARequest{UserID: "user-1", Question: "What do enzymes do?", DocumentID: "d1"})
	if err != nil {
		t.Fatalf("QA() unexpected error: %v", err)
	}
	want := service.QAResult{
		Answer:    "They speed up reactions.",
		Citations: []service.Citation{{Source: "notes:bio.pdf", Snippet: "Enzymes are catalysts."}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("QA() = %+v, want %+v", got, want)
	}
}

func TestStudyService_QA_Fallbacks(t *testing.T) {
	matches := []rag.ScoredChunk{
		scored("d1", "bio.pdf", strings.Repeat("a", 200)),
		scored("d2", "chem.txt", "Acids donate protons."),
		scored("d3", "phys.md", "Force equals mass times acceleration."),
	}

	tests := []struct {
		name    string
		matches []rag.ScoredChunk
		reply   string
		want    service.QAResult
	}{
		{
			name:    "no matching notes",
			matches: []rag.ScoredChunk{},
			want:    service.QAResult{Answer: service.NoQAAnswer, Citations: []service.Citation{}},
		},
		{
			name:    "plain text reply",
			matches: matches,
			reply:   "Acids donate protons.",
			want: service.QAResult{
				Answer: "Acids donate protons.",
				Citations: []service.Citation{
					{Source: "notes:bio.pdf", Snippet: strings.Repeat("a", 150)},
					{Source: "notes:chem.txt", Snippet: "Acids donate protons."},
				},
			},
		},
		{
			name:    "empty reply",
			matches: matches[1:2],
			reply:   "",
			want: service.QAResult{
				Answer:    service.FallbackQAAnswer,
				Citations: []service.Citation{{Source: "notes:chem.txt", Snippet: "Acids donate protons."}},
			},
		},
		{
			name:    "JSON without citations",
			matches: matches[:1],
			reply:   `{"answer":"Mostly a's."}`,
			want:    service.QAResult{Answer: "Mostly a's.", Citations: []service.Citation{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc, m := newStudyMocks(ctrl)
			m.searcher.EXPECT().Search(gomock.Any(), "user-1", gomock.Any(), "", 3).Return(tt.matches, nil)
			if len(tt.matches) > 0 {
				m.llm.EXPECT().ChatWithMessages(gomock.Any(), gomock.Any(), gomock.Any()).Return(tt.reply, nil)
			}

			got, err := svc.QA(testContext(), service.QARequest{UserID: "user-1", Question: "Explain the notes please"})
			if err != nil {
				t.Fatalf("QA() unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("QA() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestStudyService_QA_Errors(t *testing.T) {
	tests := []struct {
		name      string
		req       service.QARequest
		mockSetup func(m studyMocks)
		checkErr  func(error) bool
	}{
		{
			name: "question too short",
			req:  service.QARequest{UserID: "user-1", Question: "  why?     "},
			checkErr: func(err error) bool {
				var validationErr *service.ValidationError
				return errors.As(err, &validationErr) && validationErr.Field == "question"
			},
		},
		{
			name: "video search not supported",
			req:  service.QARequest{UserID: "user-1", Question: "What is in the lecture?", SearchIn: "videos"},
			checkErr: func(err error) bool {
				var validationErr *service.ValidationError
				return errors.As(err, &validationErr) && validationErr.Field == "searchIn"
			},
		},
		{
			name: "search failure",
			req:  service.QARequest{UserID: "user-1", Question: "What is osmosis exactly?"},
			mockSetup: func(m studyMocks) {
				m.searcher.EXPECT().Search(gomock.Any(), "user-1", gomock.Any(), "", 3).Return(nil, errors.New("db closed"))
			},
			checkErr: func(err error) bool {
				return err != nil && !errors.Is(err, service.ErrExternalService)
			},
		},
		{
			name: "llm failure",
			req:  service.QARequest{UserID: "user-1", Question: "What is osmosis exactly?", SearchIn: "documents"},
			mockSetup: func(m studyMocks) {
				m.searcher.EXPECT().Search(gomock.Any(), "user-1", gomock.Any(), "", 3).
					Return([]rag.ScoredChunk{scored("d1", "bio.pdf", "Osmosis moves water.")}, nil)
				m.llm.EXPECT().ChatWithMessages(gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("rate limited"))
			},
			checkErr: func(err error) bool {
				return errors.Is(err, service.ErrExternalService)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc, m := newStudyMocks(ctrl)
			if tt.mockSetup != nil {
				tt.mockSetup(m)
			}

			_, err := svc.QA(testContext(), tt.req)
			if err == nil {
				t.Fatal("QA() expected error, got nil")
			}
			if !tt.checkErr(err) {
				t.Errorf("QA() error type mismatch: %v", err)
			}
		})
	}
}
