package models

// Game challenge template types
const (
	ChallengeMatch      = "match"
	ChallengeSequence   = "sequence"
	ChallengeFillBlank  = "fill_blank"
	ChallengeCategorize = "categorize"
)

// GameChallenge is one exercise inside a practice game run
type GameChallenge struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Prompt    string         `json:"prompt"`
	Data      map[string]any `json:"data"`
	ConceptID string         `json:"conceptId"`
}

// GameRunPayload is a generated game run ready to play
type GameRunPayload struct {
	GameRunID    string          `json:"gameRunId"`
	SessionID    string          `json:"sessionId"`
	Challenges   []GameChallenge `json:"challenges"`
	Vibe         string          `json:"vibe"`
	WeakPointIDs []string        `json:"weakPointIds"`
}

// ChallengeResult is the outcome of a single challenge
type ChallengeResult struct {
	ChallengeID string `json:"challengeId"`
	Correct     bool   `json:"correct"`
	TimeMs      int    `json:"timeMs"`
}

// GameOutcome is the learner's full result for a game run
type GameOutcome struct {
	ChallengeResults []ChallengeResult `json:"challengeResults"`
}

// GenerateGameRequest represents a request to build a game run
type GenerateGameRequest struct {
	SessionID        string         `json:"sessionId"`
	LearnerID        string         `json:"learnerId"`
	WeakPointIDs     []string       `json:"weakPointIds"`
	Vibe             string         `json:"vibe,omitempty"`
	TemplatesAllowed []string       `json:"templatesAllowed,omitempty"`
	Policy           map[string]any `json:"policy,omitempty"`
}

// GameOutcomeRequest represents a finished game run to score
type GameOutcomeRequest struct {
	SessionID  string      `json:"sessionId"`
	GameRunID  string      `json:"gameRunId"`
	LearnerID  string      `json:"learnerId"`
	Outcome    GameOutcome `json:"outcome"`
	ConceptIDs []string    `json:"conceptIds"`
}

// GameReport summarizes a scored game run and its mastery side effects
type GameReport struct {
	GameRunID      string             `json:"gameRunId"`
	Score          float64            `json:"score"`
	MasteryResults []AcceptanceResult `json:"masteryResults"`
	ArtifactID     string             `json:"artifactId"`
}
