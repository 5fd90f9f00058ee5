package kernel

import (
	"regexp"
	"strings"
)

// Intent is the classified purpose of a learner utterance
type Intent string

const (
	IntentCreateCourse     Intent = "create_course"
	IntentRunPlacementQuiz Intent = "run_placement_quiz"
	IntentGenerateGames    Intent = "generate_games"
	IntentCheckpoint       Intent = "checkpoint"
	IntentFinalExam        Intent = "final_exam"
	IntentCreatePortfolio  Intent = "create_portfolio"
	IntentPin              Intent = "pin"
	IntentSearch           Intent = "search"
	IntentUnknown          Intent = "unknown"
)

// intentRules is an ordered rule table. The first rule whose substring
// matches the lower-cased transcript wins, so order is significant:
// "teach me" must be claimed by create_course before "test me" style
// phrases get a chance to match.
var intentRules = []struct {
	intent  Intent
	phrases []string
}{
	{IntentCreateCourse, []string{"create course", "new course", "learn about", "teach me", "i want to learn", "start learning"}},
	{IntentRunPlacementQuiz, []string{"quiz", "test me", "placement", "assess"}},
	{IntentGenerateGames, []string{"game", "play", "practice", "exercise"}},
	{IntentCheckpoint, []string{"checkpoint", "progress", "how am i doing"}},
	{IntentFinalExam, []string{"final exam", "final test"}},
	{IntentCreatePortfolio, []string{"portfolio", "showcase", "evidence"}},
	{IntentPin, []string{"pin", "save for later", "remember", "bookmark"}},
	{IntentSearch, []string{"search", "find", "look up", "research"}},
}

// ClassifyIntent resolves a transcript to an intent by ordered
// substring matching. Unmatched transcripts classify as unknown.
func ClassifyIntent(transcript string) Intent {
	lower := strings.ToLower(transcript)
	for _, rule := range intentRules {
		for _, phrase := range rule.phrases {
			if strings.Contains(lower, phrase) {
				return rule.intent
			}
		}
	}
	return IntentUnknown
}

// topicPatterns is an ordered list of capture patterns. The first
// successful capture is the topic.
var topicPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)learn(?:ing)?\s+about\s+(.+)`),
	regexp.MustCompile(`(?i)teach\s+me\s+(?:about\s+)?(.+)`),
	regexp.MustCompile(`(?i)create\s+(?:a\s+)?course\s+(?:on|about|for)\s+(.+)`),
	regexp.MustCompile(`(?i)i\s+want\s+to\s+learn\s+(.+)`),
	regexp.MustCompile(`(?i)start\s+learning\s+(.+)`),
	regexp.MustCompile(`(?i)quiz\s+(?:me\s+)?(?:on|about)\s+(.+)`),
	regexp.MustCompile(`(?i)test\s+(?:me\s+)?(?:on|about)\s+(.+)`),
	regexp.MustCompile(`(?i)search\s+(?:for\s+)?(.+)`),
	regexp.MustCompile(`(?i)find\s+(.+)`),
	regexp.MustCompile(`(?i)research\s+(.+)`),
	regexp.MustCompile(`(?i)pin\s+(.+)`),
	regexp.MustCompile(`(?i)remember\s+(.+)`),
	regexp.MustCompile(`(?i)save\s+(.+)`),
}

var trailingPunct = regexp.MustCompile(`[.!?]+$`)

// ExtractTopic pulls the subject out of a transcript. It always returns
// a non-empty topic for non-empty input: when no pattern captures, the
// whole transcript (trimmed of trailing punctuation) is the topic.
func ExtractTopic(transcript string) string {
	for _, pattern := range topicPatterns {
		match := pattern.FindStringSubmatch(transcript)
		if len(match) > 1 && match[1] != "" {
			return trailingPunct.ReplaceAllString(strings.TrimSpace(match[1]), "")
		}
	}
	return trailingPunct.ReplaceAllString(strings.TrimSpace(transcript), "")
}
