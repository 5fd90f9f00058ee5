// Package plugins contains the content generators: quiz, game, and
// search ingestion. Each plugin produces learner-facing content and,
// on outcome reports, feeds results back through the mastery engine
// and evidence recorder.
package plugins

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"muvserver/internal/content"
	"muvserver/internal/kernel"
	"muvserver/internal/models"
	"muvserver/internal/store"
)

// QuizPlugin generates quizzes from the content bank and grades
// completed attempts.
type QuizPlugin struct {
	store    store.Store
	library  *content.Library
	mastery  *kernel.MasteryEngine
	recorder *kernel.EvidenceRecorder
}

// NewQuizPlugin creates a quiz plugin
func NewQuizPlugin(s store.Store, lib *content.Library, mastery *kernel.MasteryEngine, recorder *kernel.EvidenceRecorder) *QuizPlugin {
	return &QuizPlugin{store: s, library: lib, mastery: mastery, recorder: recorder}
}

// CreateQuiz builds a quiz from the canonical question bank. Question
// concept ids are assigned round-robin from conceptIds; an empty list
// tags every question "general". Creating a quiz has no side effects;
// nothing is persisted until the attempt is graded.
func (p *QuizPlugin) CreateQuiz(sessionID, learnerID string, conceptIDs []string, quizType string) *models.QuizPayload {
	if quizType == "" {
		quizType = models.QuizTypePlacement
	}
	quizID := uuid.NewString()

	bank := p.library.Bank()
	questions := make([]models.QuizQuestion, 0, len(bank.QuizQuestions))
	for i, tpl := range bank.QuizQuestions {
		conceptID := "general"
		if len(conceptIDs) > 0 {
			conceptID = conceptIDs[i%len(conceptIDs)]
		}
		questions = append(questions, models.QuizQuestion{
			ID:           fmt.Sprintf("%s_q%d", quizID, i),
			ConceptID:    conceptID,
			QuestionText: tpl.Question,
			Options:      tpl.Options,
			CorrectIndex: tpl.CorrectIndex,
			Difficulty:   tpl.Difficulty,
		})
	}

	return &models.QuizPayload{
		QuizID:    quizID,
		SessionID: sessionID,
		Questions: questions,
		QuizType:  quizType,
	}
}

type conceptTally struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// GradeQuiz scores an attempt, proposes one mastery delta per concept
// touched, and records a quiz_attempt artifact. The mastery writes and
// the artifact land in a single transaction.
func (p *QuizPlugin) GradeQuiz(ctx context.Context, req models.GradeQuizRequest) (*models.GradeResult, error) {
	questionsByID := make(map[string]models.QuizQuestion, len(req.Questions))
	for _, q := range req.Questions {
		questionsByID[q.ID] = q
	}

	correctCount := 0
	conceptOrder := []string{}
	tallies := map[string]*conceptTally{}
	for _, resp := range req.Responses {
		question, ok := questionsByID[resp.QuestionID]
		if !ok {
			continue
		}
		isCorrect := resp.SelectedIndex == question.CorrectIndex
		if isCorrect {
			correctCount++
		}

		tally, ok := tallies[question.ConceptID]
		if !ok {
			tally = &conceptTally{}
			tallies[question.ConceptID] = tally
			conceptOrder = append(conceptOrder, question.ConceptID)
		}
		tally.Total++
		if isCorrect {
			tally.Correct++
		}
	}

	score := 0.0
	if len(req.Responses) > 0 {
		score = float64(correctCount) / float64(len(req.Responses))
	}

	deltas := make([]models.MasteryDelta, 0, len(conceptOrder))
	for _, conceptID := range conceptOrder {
		tally := tallies[conceptID]
		confidence := 0.3
		if tally.Total >= 2 {
			confidence = 0.6
		}
		deltas = append(deltas, models.MasteryDelta{
			ConceptID:  conceptID,
			ScoreDelta: (float64(tally.Correct)/float64(tally.Total) - 0.5) * 0.4,
			Confidence: confidence,
			Source:     "quiz:" + req.QuizID,
		})
	}

	unlock := p.mastery.LockConcepts(req.LearnerID, conceptOrder)
	defer unlock()

	var masteryResults []models.AcceptanceResult
	var artifact *models.EvidenceArtifact
	err := p.store.InTx(ctx, func(tx store.Store) error {
		masteryResults = make([]models.AcceptanceResult, 0, len(deltas))
		for _, delta := range deltas {
			result, err := p.mastery.ApplyDelta(ctx, tx, req.LearnerID, delta)
			if err != nil {
				return err
			}
			masteryResults = append(masteryResults, *result)
		}

		conceptScores := models.NewPayload()
		for _, conceptID := range conceptOrder {
			conceptScores.Set(conceptID, tallies[conceptID])
		}
		payload := models.NewPayload()
		payload.Set("quizId", req.QuizID)
		payload.Set("attemptId", req.AttemptID)
		payload.Set("responses", req.Responses)
		payload.Set("score", score)
		payload.Set("correctCount", correctCount)
		payload.Set("totalQuestions", len(req.Responses))
		payload.Set("conceptScores", conceptScores)

		metricsPayload := models.NewPayload()
		metricsPayload.Set("score", score)
		metricsPayload.Set("correctCount", correctCount)
		metricsPayload.Set("totalQuestions", len(req.Responses))

		var err error
		artifact, err = p.recorder.RecordIn(ctx, tx, models.EvidenceInput{
			LearnerID:    req.LearnerID,
			SessionID:    req.SessionID,
			ArtifactType: "quiz_attempt",
			Payload:      payload,
			Tags:         []string{"quiz", "type:placement"},
			Metrics:      metricsPayload,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return &models.GradeResult{
		AttemptID:      req.AttemptID,
		Score:          score,
		TotalQuestions: len(req.Responses),
		CorrectCount:   correctCount,
		MasteryResults: masteryResults,
		ArtifactID:     artifact.ID,
	}, nil
}
