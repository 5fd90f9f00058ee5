package plugins

import (
	"context"
	"strings"
	"testing"

	"muvserver/internal/content"
	"muvserver/internal/kernel"
	"muvserver/internal/models"
	"muvserver/internal/store"
)

func setupPlugins(t *testing.T) (store.Store, *QuizPlugin, *GamePlugin, *SearchIngestionPlugin) {
	t.Helper()
	s := store.NewMemory()
	lib, err := content.NewLibrary()
	if err != nil {
		t.Fatalf("failed to load content bank: %v", err)
	}
	mastery := kernel.NewMasteryEngine(s)
	recorder := kernel.NewEvidenceRecorder(s)
	return s,
		NewQuizPlugin(s, lib, mastery, recorder),
		NewGamePlugin(s, lib, mastery, recorder),
		NewSearchIngestionPlugin(lib, recorder)
}

func TestCreateQuiz(t *testing.T) {
	_, quiz, _, _ := setupPlugins(t)

	payload := quiz.CreateQuiz("sess-1", "l1", []string{"c1", "c2"}, "")
	if payload.QuizType != models.QuizTypePlacement {
		t.Errorf("expected default type placement, got %q", payload.QuizType)
	}
	if payload.SessionID != "sess-1" {
		t.Errorf("expected session id to carry through, got %q", payload.SessionID)
	}
	if len(payload.Questions) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(payload.Questions))
	}

	// Concept ids round-robin through the supplied list
	wantConcepts := []string{"c1", "c2", "c1", "c2", "c1"}
	for i, q := range payload.Questions {
		if q.ConceptID != wantConcepts[i] {
			t.Errorf("question %d: expected concept %q, got %q", i, wantConcepts[i], q.ConceptID)
		}
		if !strings.HasPrefix(q.ID, payload.QuizID+"_q") {
			t.Errorf("question %d: expected id scoped to quiz, got %q", i, q.ID)
		}
		if q.QuestionText == "" || len(q.Options) == 0 {
			t.Errorf("question %d missing content: %+v", i, q)
		}
	}
}

func TestCreateQuiz_NoConcepts(t *testing.T) {
	_, quiz, _, _ := setupPlugins(t)

	payload := quiz.CreateQuiz("sess-1", "l1", nil, models.QuizTypeFinal)
	if payload.QuizType != models.QuizTypeFinal {
		t.Errorf("expected final type, got %q", payload.QuizType)
	}
	for i, q := range payload.Questions {
		if q.ConceptID != "general" {
			t.Errorf("question %d: expected general concept, got %q", i, q.ConceptID)
		}
	}
}

func TestGradeQuiz_AllCorrect(t *testing.T) {
	s, quiz, _, _ := setupPlugins(t)
	ctx := context.Background()

	payload := quiz.CreateQuiz("sess-1", "l1", []string{"c1"}, "")
	responses := make([]models.QuizResponse, 0, len(payload.Questions))
	for _, q := range payload.Questions {
		responses = append(responses, models.QuizResponse{
			QuestionID:    q.ID,
			SelectedIndex: q.CorrectIndex,
		})
	}

	result, err := quiz.GradeQuiz(ctx, models.GradeQuizRequest{
		SessionID: "sess-1",
		AttemptID: "attempt-1",
		LearnerID: "l1",
		QuizID:    payload.QuizID,
		Responses: responses,
		Questions: payload.Questions,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Score != 1 {
		t.Errorf("expected score 1, got %v", result.Score)
	}
	if result.CorrectCount != 5 || result.TotalQuestions != 5 {
		t.Errorf("unexpected counts: %+v", result)
	}
	if len(result.MasteryResults) != 1 {
		t.Fatalf("expected one mastery result for one concept, got %d", len(result.MasteryResults))
	}
	if !result.MasteryResults[0].Accepted {
		t.Fatalf("expected delta accepted, got %s", result.MasteryResults[0].Reason)
	}

	// Perfect score proposes (1.0 - 0.5) * 0.4 = 0.2 at confidence 0.6
	state, err := s.GetMasteryState(ctx, "l1", "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := state.Score - 0.2; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected mastery score 0.2, got %v", state.Score)
	}

	artifacts, _ := s.ListEvidenceArtifacts(ctx, "l1")
	if len(artifacts) != 1 || artifacts[0].ArtifactType != "quiz_attempt" {
		t.Errorf("expected one quiz_attempt artifact, got %+v", artifacts)
	}
	if artifacts[0].ID != result.ArtifactID {
		t.Errorf("expected result to reference the stored artifact")
	}
}

func TestGradeQuiz_HalfCorrectTwoConcepts(t *testing.T) {
	s, quiz, _, _ := setupPlugins(t)
	ctx := context.Background()

	payload := quiz.CreateQuiz("sess-1", "l1", []string{"c1", "c2"}, "")
	responses := make([]models.QuizResponse, 0, len(payload.Questions))
	for _, q := range payload.Questions {
		selected := q.CorrectIndex
		if q.ConceptID == "c2" {
			selected = (q.CorrectIndex + 1) % len(q.Options)
		}
		responses = append(responses, models.QuizResponse{QuestionID: q.ID, SelectedIndex: selected})
	}

	result, err := quiz.GradeQuiz(ctx, models.GradeQuizRequest{
		SessionID: "sess-1",
		AttemptID: "attempt-1",
		LearnerID: "l1",
		QuizID:    payload.QuizID,
		Responses: responses,
		Questions: payload.Questions,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// c1 has 3 correct of 3, c2 has 0 of 2
	if result.CorrectCount != 3 {
		t.Errorf("expected 3 correct, got %d", result.CorrectCount)
	}
	if len(result.MasteryResults) != 2 {
		t.Fatalf("expected 2 mastery results, got %d", len(result.MasteryResults))
	}
	if !result.MasteryResults[0].Accepted {
		t.Errorf("expected positive c1 delta accepted: %s", result.MasteryResults[0].Reason)
	}
	// c2 gets a negative delta on a fresh concept, blocked by the
	// instability guard.
	if result.MasteryResults[1].Accepted {
		t.Error("expected negative c2 delta rejected on unstable concept")
	}

	if _, err := s.GetMasteryState(ctx, "l1", "c2"); err == nil {
		t.Error("expected no mastery state for rejected concept")
	}
}

func TestGradeQuiz_NoResponses(t *testing.T) {
	s, quiz, _, _ := setupPlugins(t)
	ctx := context.Background()

	result, err := quiz.GradeQuiz(ctx, models.GradeQuizRequest{
		SessionID: "sess-1",
		AttemptID: "attempt-1",
		LearnerID: "l1",
		QuizID:    "quiz-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Score != 0 || result.TotalQuestions != 0 {
		t.Errorf("expected zero score for empty attempt, got %+v", result)
	}
	if len(result.MasteryResults) != 0 {
		t.Errorf("expected no mastery results, got %d", len(result.MasteryResults))
	}

	// The attempt is still evidence
	artifacts, _ := s.ListEvidenceArtifacts(ctx, "l1")
	if len(artifacts) != 1 {
		t.Errorf("expected artifact even for empty attempt, got %d", len(artifacts))
	}
}

func TestGradeQuiz_UnknownQuestionIgnored(t *testing.T) {
	_, quiz, _, _ := setupPlugins(t)

	payload := quiz.CreateQuiz("sess-1", "l1", []string{"c1"}, "")
	result, err := quiz.GradeQuiz(context.Background(), models.GradeQuizRequest{
		SessionID: "sess-1",
		AttemptID: "attempt-1",
		LearnerID: "l1",
		QuizID:    payload.QuizID,
		Responses: []models.QuizResponse{{QuestionID: "bogus", SelectedIndex: 0}},
		Questions: payload.Questions,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CorrectCount != 0 {
		t.Errorf("expected unknown question to be ignored, got %d correct", result.CorrectCount)
	}
	if len(result.MasteryResults) != 0 {
		t.Errorf("expected no mastery results for unmatched responses, got %d", len(result.MasteryResults))
	}
}
