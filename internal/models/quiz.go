package models

// Quiz types
const (
	QuizTypePlacement = "placement"
	QuizTypeFinal     = "final"
)

// QuizQuestion is one multiple-choice question in a quiz
type QuizQuestion struct {
	ID           string   `json:"id"`
	ConceptID    string   `json:"conceptId"`
	QuestionText string   `json:"questionText"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Difficulty   float64  `json:"difficulty"`
}

// QuizPayload is a generated quiz ready to present to the learner
type QuizPayload struct {
	QuizID    string         `json:"quizId"`
	SessionID string         `json:"sessionId"`
	Questions []QuizQuestion `json:"questions"`
	QuizType  string         `json:"quizType"`
}

// QuizResponse is a learner's answer to one question
type QuizResponse struct {
	QuestionID    string `json:"questionId"`
	SelectedIndex int    `json:"selectedIndex"`
}

// CreateQuizRequest represents a request to generate a quiz
type CreateQuizRequest struct {
	SessionID  string         `json:"sessionId"`
	LearnerID  string         `json:"learnerId"`
	ConceptIDs []string       `json:"conceptIds"`
	QuizType   string         `json:"quizType,omitempty"`
	Policy     map[string]any `json:"policy,omitempty"`
}

// GradeQuizRequest represents a completed attempt to grade
type GradeQuizRequest struct {
	SessionID string         `json:"sessionId"`
	AttemptID string         `json:"attemptId"`
	LearnerID string         `json:"learnerId"`
	QuizID    string         `json:"quizId"`
	Responses []QuizResponse `json:"responses"`
	Questions []QuizQuestion `json:"questions"`
}

// GradeResult summarizes a graded attempt and its mastery side effects
type GradeResult struct {
	AttemptID      string             `json:"attemptId"`
	Score          float64            `json:"score"`
	TotalQuestions int                `json:"totalQuestions"`
	CorrectCount   int                `json:"correctCount"`
	MasteryResults []AcceptanceResult `json:"masteryResults"`
	ArtifactID     string             `json:"artifactId"`
}
