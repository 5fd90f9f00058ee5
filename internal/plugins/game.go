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

// maxTemplatesPerRun caps how many challenge templates one game run
// draws from.
const maxTemplatesPerRun = 3

var defaultTemplatesAllowed = []string{
	models.ChallengeMatch,
	models.ChallengeSequence,
	models.ChallengeFillBlank,
	models.ChallengeCategorize,
}

// GamePlugin builds practice game runs targeting weak points and
// scores reported outcomes.
type GamePlugin struct {
	store    store.Store
	library  *content.Library
	mastery  *kernel.MasteryEngine
	recorder *kernel.EvidenceRecorder
}

// NewGamePlugin creates a game plugin
func NewGamePlugin(s store.Store, lib *content.Library, mastery *kernel.MasteryEngine, recorder *kernel.EvidenceRecorder) *GamePlugin {
	return &GamePlugin{store: s, library: lib, mastery: mastery, recorder: recorder}
}

// GenerateGame builds one challenge per allowed template, up to three,
// tagging each challenge's concept id by cycling through weakPointIds.
// Unknown template names are skipped. Like quiz creation this has no
// side effects.
func (p *GamePlugin) GenerateGame(sessionID, learnerID string, weakPointIDs []string, vibe string, templatesAllowed []string) *models.GameRunPayload {
	if vibe == "" {
		vibe = "focused"
	}
	if len(templatesAllowed) == 0 {
		templatesAllowed = defaultTemplatesAllowed
	}
	if len(templatesAllowed) > maxTemplatesPerRun {
		templatesAllowed = templatesAllowed[:maxTemplatesPerRun]
	}
	if weakPointIDs == nil {
		weakPointIDs = []string{}
	}

	gameRunID := uuid.NewString()
	challenges := []models.GameChallenge{}
	for _, name := range templatesAllowed {
		tpl, ok := p.library.GameTemplate(name)
		if !ok {
			continue
		}

		conceptID := "general"
		if len(weakPointIDs) > 0 {
			conceptID = weakPointIDs[len(challenges)%len(weakPointIDs)]
		}

		data := make(map[string]any, len(tpl.Data))
		for k, v := range tpl.Data {
			data[k] = v
		}
		challenges = append(challenges, models.GameChallenge{
			ID:        fmt.Sprintf("%s_%s_%d", gameRunID, name, len(challenges)),
			Type:      tpl.Type,
			Prompt:    tpl.Prompt,
			Data:      data,
			ConceptID: conceptID,
		})
	}

	return &models.GameRunPayload{
		GameRunID:    gameRunID,
		SessionID:    sessionID,
		Challenges:   challenges,
		Vibe:         vibe,
		WeakPointIDs: weakPointIDs,
	}
}

// ReportOutcome scores a finished run and proposes one mastery delta
// per id in the caller-supplied concept list. The mastery writes and
// the game_run artifact land in a single transaction.
func (p *GamePlugin) ReportOutcome(ctx context.Context, req models.GameOutcomeRequest) (*models.GameReport, error) {
	correctCount := 0
	for _, result := range req.Outcome.ChallengeResults {
		if result.Correct {
			correctCount++
		}
	}
	total := len(req.Outcome.ChallengeResults)
	score := 0.0
	if total > 0 {
		score = float64(correctCount) / float64(total)
	}

	confidence := 0.25
	if total >= 2 {
		confidence = 0.5
	}

	unlock := p.mastery.LockConcepts(req.LearnerID, req.ConceptIDs)
	defer unlock()

	var masteryResults []models.AcceptanceResult
	var artifact *models.EvidenceArtifact
	err := p.store.InTx(ctx, func(tx store.Store) error {
		masteryResults = make([]models.AcceptanceResult, 0, len(req.ConceptIDs))
		for _, conceptID := range req.ConceptIDs {
			result, err := p.mastery.ApplyDelta(ctx, tx, req.LearnerID, models.MasteryDelta{
				ConceptID:  conceptID,
				ScoreDelta: (score - 0.5) * 0.3,
				Confidence: confidence,
				Source:     "game:" + req.GameRunID,
			})
			if err != nil {
				return err
			}
			masteryResults = append(masteryResults, *result)
		}

		payload := models.NewPayload()
		payload.Set("gameRunId", req.GameRunID)
		payload.Set("outcome", req.Outcome)
		payload.Set("score", score)
		payload.Set("correctCount", correctCount)
		payload.Set("totalChallenges", total)

		metricsPayload := models.NewPayload()
		metricsPayload.Set("score", score)
		metricsPayload.Set("correctCount", correctCount)
		metricsPayload.Set("totalChallenges", total)

		var err error
		artifact, err = p.recorder.RecordIn(ctx, tx, models.EvidenceInput{
			LearnerID:    req.LearnerID,
			SessionID:    req.SessionID,
			ArtifactType: "game_run",
			Payload:      payload,
			Tags:         []string{"game"},
			Metrics:      metricsPayload,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return &models.GameReport{
		GameRunID:      req.GameRunID,
		Score:          score,
		MasteryResults: masteryResults,
		ArtifactID:     artifact.ID,
	}, nil
}
