package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"muvserver/internal/kernel"
	"muvserver/internal/logging"
	"muvserver/internal/metrics"
	"muvserver/internal/models"
	"muvserver/internal/plugins"
	"muvserver/internal/store"
)

// Orchestrator is the entry point for transcript commands. It resolves
// the intent, dispatches to the matching plugin or kernel action, and
// assembles a uniform response. It holds no state between calls; the
// session id is a correlation key only.
type Orchestrator struct {
	store    store.Store
	recorder *kernel.EvidenceRecorder
	quiz     *plugins.QuizPlugin
	game     *plugins.GamePlugin
	search   *plugins.SearchIngestionPlugin
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(s store.Store, recorder *kernel.EvidenceRecorder, quiz *plugins.QuizPlugin, game *plugins.GamePlugin, search *plugins.SearchIngestionPlugin) *Orchestrator {
	return &Orchestrator{store: s, recorder: recorder, quiz: quiz, game: game, search: search}
}

// Orchestrate handles one transcript command end to end
func (o *Orchestrator) Orchestrate(ctx context.Context, req models.OrchestrateRequest) (*models.OrchestrateResponse, error) {
	sessionID := uuid.NewString()
	intent := kernel.ClassifyIntent(req.Transcript)
	topic := kernel.ExtractTopic(req.Transcript)
	metrics.IntentsClassified.WithLabelValues(string(intent)).Inc()
	logging.WithSession(sessionID, req.LearnerID, string(intent)).Debug("dispatching transcript", "topic", topic)

	if _, err := o.store.AppendEvent(ctx, req.LearnerID, "orchestrate_request", map[string]any{
		"transcript": req.Transcript,
		"intent":     string(intent),
		"topic":      topic,
		"sessionId":  sessionID,
	}); err != nil {
		return nil, err
	}

	switch intent {
	case kernel.IntentCreateCourse:
		return o.createCourse(ctx, req, sessionID, topic)
	case kernel.IntentRunPlacementQuiz:
		return o.createQuizResponse(ctx, req, sessionID, topic, models.QuizTypePlacement,
			fmt.Sprintf("Here's a placement quiz on %q. Answer the questions to assess your level.", topic))
	case kernel.IntentFinalExam:
		return o.createQuizResponse(ctx, req, sessionID, topic, models.QuizTypeFinal,
			fmt.Sprintf("Final exam prepared for %q. This will verify your mastery.", topic))
	case kernel.IntentGenerateGames:
		return o.generateGames(ctx, req, sessionID)
	case kernel.IntentCheckpoint:
		return o.checkpoint(ctx, req, sessionID)
	case kernel.IntentCreatePortfolio:
		return o.createPortfolioEntry(ctx, req, sessionID, topic)
	case kernel.IntentPin:
		return o.createPin(ctx, req, topic)
	case kernel.IntentSearch:
		return o.searchResources(ctx, req, sessionID, topic)
	case kernel.IntentUnknown:
		return o.unknown(ctx, req)
	default:
		return nil, fmt.Errorf("unhandled intent %q", intent)
	}
}

func (o *Orchestrator) createCourse(ctx context.Context, req models.OrchestrateRequest, sessionID, topic string) (*models.OrchestrateResponse, error) {
	var concept *models.Concept
	var blueprint *models.CourseBlueprint
	var run *models.CourseRun
	err := o.store.InTx(ctx, func(tx store.Store) error {
		var err error
		concept, err = tx.CreateConcept(ctx, topic, topicDomain(topic),
			fmt.Sprintf("Auto-created from voice: %q", req.Transcript))
		if err != nil {
			return err
		}
		blueprint, err = tx.CreateCourseBlueprint(ctx, "Learn: "+topic,
			"Course created via voice command", []string{concept.ID}, req.LearnerID)
		if err != nil {
			return err
		}
		run, err = tx.CreateCourseRun(ctx, blueprint.ID, req.LearnerID)
		return err
	})
	if err != nil {
		return nil, err
	}

	data := map[string]any{"concept": concept, "blueprint": blueprint, "run": run}
	return &models.OrchestrateResponse{
		Intent: string(kernel.IntentCreateCourse),
		Actions: []models.OrchestrateAction{
			{Plugin: "kernel", Function: "create_course", Result: data},
		},
		Message: fmt.Sprintf("Created a new course: %q. Ready to start learning!", topic),
		Data:    data,
	}, nil
}

func (o *Orchestrator) createQuizResponse(ctx context.Context, req models.OrchestrateRequest, sessionID, topic, quizType, message string) (*models.OrchestrateResponse, error) {
	concept, err := o.store.CreateConcept(ctx, topic, topicDomain(topic), "")
	if err != nil {
		return nil, err
	}

	quiz := o.quiz.CreateQuiz(sessionID, req.LearnerID, []string{concept.ID}, quizType)

	intent := kernel.IntentRunPlacementQuiz
	if quizType == models.QuizTypeFinal {
		intent = kernel.IntentFinalExam
	}
	return &models.OrchestrateResponse{
		Intent: string(intent),
		Actions: []models.OrchestrateAction{
			{Plugin: "quiz_engine.v1", Function: "quiz.create", Result: quiz},
		},
		Message: message,
		Data:    quiz,
	}, nil
}

func (o *Orchestrator) generateGames(ctx context.Context, req models.OrchestrateRequest, sessionID string) (*models.OrchestrateResponse, error) {
	weakPoints, err := o.store.ListWeakPoints(ctx, req.LearnerID)
	if err != nil {
		return nil, err
	}

	wpIDs := []string{"general"}
	if len(weakPoints) > 0 {
		wpIDs = make([]string, 0, len(weakPoints))
		for _, wp := range weakPoints {
			wpIDs = append(wpIDs, wp.ID)
		}
	}

	logger := logging.WithSession(sessionID, req.LearnerID, string(kernel.IntentGenerateGames))
	logging.WithPlugin(logger, "game_engine.v1", "game.generate").Debug("generating game run", "weak_points", len(wpIDs))

	game := o.game.GenerateGame(sessionID, req.LearnerID, wpIDs, "focused", nil)

	return &models.OrchestrateResponse{
		Intent: string(kernel.IntentGenerateGames),
		Actions: []models.OrchestrateAction{
			{Plugin: "game_engine.v1", Function: "game.generate", Result: game},
		},
		Message: "Generated practice games targeting your weak points. Let's strengthen those areas!",
		Data:    game,
	}, nil
}

func (o *Orchestrator) checkpoint(ctx context.Context, req models.OrchestrateRequest, sessionID string) (*models.OrchestrateResponse, error) {
	weakPoints, err := o.store.ListWeakPoints(ctx, req.LearnerID)
	if err != nil {
		return nil, err
	}

	payload := models.NewPayload()
	payload.Set("transcript", req.Transcript)
	payload.Set("weakPointCount", len(weakPoints))
	if _, err := o.recorder.Record(ctx, models.EvidenceInput{
		LearnerID:    req.LearnerID,
		SessionID:    sessionID,
		ArtifactType: "checkpoint",
		Payload:      payload,
		Tags:         []string{"checkpoint"},
	}); err != nil {
		return nil, err
	}

	plural := "s"
	if len(weakPoints) == 1 {
		plural = ""
	}
	return &models.OrchestrateResponse{
		Intent:  string(kernel.IntentCheckpoint),
		Actions: []models.OrchestrateAction{},
		Message: fmt.Sprintf("Checkpoint recorded. You have %d active weak point%s to work on.", len(weakPoints), plural),
		Data:    map[string]any{"weakPointCount": len(weakPoints), "weakPoints": weakPoints},
	}, nil
}

func (o *Orchestrator) createPortfolioEntry(ctx context.Context, req models.OrchestrateRequest, sessionID, topic string) (*models.OrchestrateResponse, error) {
	payload := models.NewPayload()
	payload.Set("transcript", req.Transcript)
	payload.Set("topic", topic)
	if _, err := o.recorder.Record(ctx, models.EvidenceInput{
		LearnerID:    req.LearnerID,
		SessionID:    sessionID,
		ArtifactType: "portfolio_entry",
		Payload:      payload,
		Tags:         []string{"portfolio"},
	}); err != nil {
		return nil, err
	}

	return &models.OrchestrateResponse{
		Intent:  string(kernel.IntentCreatePortfolio),
		Actions: []models.OrchestrateAction{},
		Message: fmt.Sprintf("Portfolio entry created for %q.", topic),
	}, nil
}

func (o *Orchestrator) createPin(ctx context.Context, req models.OrchestrateRequest, topic string) (*models.OrchestrateResponse, error) {
	pin, err := o.store.CreatePin(ctx, req.LearnerID, topic, "voice")
	if err != nil {
		return nil, err
	}

	return &models.OrchestrateResponse{
		Intent: string(kernel.IntentPin),
		Actions: []models.OrchestrateAction{
			{Plugin: "kernel", Function: "pin.create", Result: pin},
		},
		Message: fmt.Sprintf("Pinned %q for later.", topic),
		Data:    pin,
	}, nil
}

func (o *Orchestrator) searchResources(ctx context.Context, req models.OrchestrateRequest, sessionID, topic string) (*models.OrchestrateResponse, error) {
	pack, err := o.search.CreateEvidencePack(ctx, req.LearnerID, sessionID, topic, "beginner")
	if err != nil {
		return nil, err
	}

	return &models.OrchestrateResponse{
		Intent: string(kernel.IntentSearch),
		Actions: []models.OrchestrateAction{
			{Plugin: "search_ingestion.v1", Function: "ingest.create_evidence_pack", Result: pack},
		},
		Message: fmt.Sprintf("Found resources on %q. Evidence pack created with %d sources.", topic, len(pack.Sources)),
		Data:    pack,
	}, nil
}

func (o *Orchestrator) unknown(ctx context.Context, req models.OrchestrateRequest) (*models.OrchestrateResponse, error) {
	if _, err := o.store.AppendEvent(ctx, req.LearnerID, "unknown_intent", map[string]any{
		"transcript": req.Transcript,
	}); err != nil {
		return nil, err
	}

	return &models.OrchestrateResponse{
		Intent:  string(kernel.IntentUnknown),
		Actions: []models.OrchestrateAction{},
		Message: fmt.Sprintf(`I heard: %q. Try saying things like "teach me about..." or "quiz me on..." or "pin this for later".`, req.Transcript),
	}, nil
}

// topicDomain derives a coarse domain tag from the topic's first word
func topicDomain(topic string) string {
	fields := strings.Fields(topic)
	if len(fields) == 0 {
		return "general"
	}
	return fields[0]
}
