package content

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewLibrary(t *testing.T) {
	lib, err := NewLibrary()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bank := lib.Bank()
	if len(bank.QuizQuestions) != 5 {
		t.Errorf("expected 5 quiz questions, got %d", len(bank.QuizQuestions))
	}
	if len(bank.GameTemplates) != 4 {
		t.Errorf("expected 4 game templates, got %d", len(bank.GameTemplates))
	}
	if len(bank.SearchSources) != 3 {
		t.Errorf("expected 3 search sources, got %d", len(bank.SearchSources))
	}

	for i, q := range bank.QuizQuestions {
		if len(q.Options) != 4 {
			t.Errorf("question %d: expected 4 options, got %d", i, len(q.Options))
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			t.Errorf("question %d: correct index %d out of range", i, q.CorrectIndex)
		}
	}
}

func TestGameTemplate(t *testing.T) {
	lib, err := NewLibrary()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, typ := range []string{"match", "sequence", "fill_blank", "categorize"} {
		tpl, ok := lib.GameTemplate(typ)
		if !ok {
			t.Errorf("expected template for %q", typ)
			continue
		}
		if tpl.Prompt == "" || tpl.Data == nil {
			t.Errorf("template %q missing prompt or data: %+v", typ, tpl)
		}
	}

	if _, ok := lib.GameTemplate("trivia"); ok {
		t.Error("expected no template for unknown type")
	}
}

func TestSourceTemplateExpand(t *testing.T) {
	lib, err := NewLibrary()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	title, url, snippet := lib.Bank().SearchSources[0].Expand("Machine Learning", "beginner")
	if title != "Introduction to Machine Learning" {
		t.Errorf("unexpected title: %q", title)
	}
	if url != "https://learn.example.com/machine-learning" {
		t.Errorf("unexpected url: %q", url)
	}
	if snippet != "A comprehensive introduction to Machine Learning covering fundamental concepts and practical applications." {
		t.Errorf("unexpected snippet: %q", snippet)
	}

	_, _, audienceSnippet := lib.Bank().SearchSources[1].Expand("Algebra", "beginner")
	if audienceSnippet != "Core concepts and frameworks for understanding Algebra at the beginner level." {
		t.Errorf("unexpected audience snippet: %q", audienceSnippet)
	}
}

func TestLoadFile(t *testing.T) {
	lib, err := NewLibrary()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "bank.yaml")
	override := `
quiz_questions:
  - question: "Custom question?"
    options: ["a", "b"]
    correct_index: 1
    difficulty: 0.5
game_templates:
  - type: match
    prompt: "Custom match"
    data:
      pairs: []
search_sources:
  - title: "Custom {topic}"
    url: "https://example.com/{slug}"
    snippet: "Custom snippet"
    reliability: 0.5
`
	if err := os.WriteFile(path, []byte(override), 0o644); err != nil {
		t.Fatalf("failed to write override: %v", err)
	}

	if err := lib.LoadFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lib.Bank().QuizQuestions) != 1 {
		t.Errorf("expected override bank to be active, got %d questions", len(lib.Bank().QuizQuestions))
	}

	// A broken override is rejected and the active bank stays
	if err := os.WriteFile(path, []byte("quiz_questions: []"), 0o644); err != nil {
		t.Fatalf("failed to write override: %v", err)
	}
	if err := lib.LoadFile(path); err == nil {
		t.Error("expected error loading empty bank")
	}
	if len(lib.Bank().QuizQuestions) != 1 {
		t.Errorf("expected previous bank to survive failed load, got %d questions", len(lib.Bank().QuizQuestions))
	}
}
