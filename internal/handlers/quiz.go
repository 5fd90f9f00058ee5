package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"muvserver/internal/models"
	"muvserver/internal/plugins"
	"muvserver/internal/services"
)

// QuizHandler handles quiz generation and grading
type QuizHandler struct {
	quiz      *plugins.QuizPlugin
	snapshots *services.SnapshotService
}

// NewQuizHandler creates a new quiz handler
func NewQuizHandler(quiz *plugins.QuizPlugin, snapshots *services.SnapshotService) *QuizHandler {
	return &QuizHandler{quiz: quiz, snapshots: snapshots}
}

// Create generates a quiz for the given concepts
// POST /api/quiz/create
func (h *QuizHandler) Create(c *fiber.Ctx) error {
	var req models.CreateQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.LearnerID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "learnerId is required",
		})
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	quiz := h.quiz.CreateQuiz(req.SessionID, req.LearnerID, req.ConceptIDs, req.QuizType)
	return c.JSON(quiz)
}

// Grade scores a completed quiz attempt and applies mastery updates
// POST /api/quiz/grade
func (h *QuizHandler) Grade(c *fiber.Ctx) error {
	var req models.GradeQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.LearnerID == "" || req.QuizID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "learnerId and quizId are required",
		})
	}
	if len(req.Questions) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "questions are required",
		})
	}

	result, err := h.quiz.GradeQuiz(c.Context(), req)
	if err != nil {
		log.Printf("❌ Failed to grade quiz %s: %v", req.QuizID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to grade quiz",
		})
	}

	if h.snapshots != nil {
		h.snapshots.Invalidate(req.LearnerID)
	}

	log.Printf("✅ Quiz %s graded for learner %s (score: %.2f)", req.QuizID, req.LearnerID, result.Score)
	return c.JSON(result)
}
