package kernel

import "testing"

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		expected   Intent
	}{
		{"teach me phrase", "teach me about machine learning", IntentCreateCourse},
		{"create course phrase", "Create course on linear algebra", IntentCreateCourse},
		{"i want to learn", "i want to learn spanish", IntentCreateCourse},
		{"quiz", "quiz me on calculus", IntentRunPlacementQuiz},
		{"assess", "assess my level please", IntentRunPlacementQuiz},
		{"game", "let's play a game", IntentGenerateGames},
		{"practice", "I need some practice", IntentGenerateGames},
		{"checkpoint", "checkpoint please", IntentCheckpoint},
		{"progress", "how is my progress", IntentCheckpoint},
		{"final exam", "give me the final exam", IntentFinalExam},
		{"portfolio", "show my portfolio", IntentCreatePortfolio},
		{"pin", "pin this for later", IntentPin},
		{"remember", "remember to review recursion", IntentPin},
		{"search", "search for sorting algorithms", IntentSearch},
		{"look up", "look up the chain rule", IntentSearch},
		{"unknown", "hello there", IntentUnknown},
		{"empty", "", IntentUnknown},
		// Ordering: earlier categories win over later ones when a
		// transcript matches several.
		{"learn about beats search", "learn about how to find primes", IntentCreateCourse},
		{"quiz beats game", "quiz me with a game", IntentRunPlacementQuiz},
		{"case insensitive", "TEACH ME ABOUT PHYSICS", IntentCreateCourse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyIntent(tt.transcript); got != tt.expected {
				t.Errorf("ClassifyIntent(%q) = %q, expected %q", tt.transcript, got, tt.expected)
			}
		})
	}
}

func TestExtractTopic(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		expected   string
	}{
		{"teach me about", "teach me about machine learning", "machine learning"},
		{"teach me without about", "teach me calculus", "calculus"},
		{"learn about", "I want to learn about graph theory.", "graph theory"},
		{"create course on", "create a course on statistics!", "statistics"},
		{"quiz me on", "quiz me on derivatives?", "derivatives"},
		{"search for", "search for binary trees", "binary trees"},
		{"pin", "pin the chain rule", "the chain rule"},
		{"no pattern", "hello world.", "hello world"},
		{"strips punctuation runs", "find prime numbers!?!", "prime numbers"},
		{"whole transcript fallback", "something else entirely", "something else entirely"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractTopic(tt.transcript); got != tt.expected {
				t.Errorf("ExtractTopic(%q) = %q, expected %q", tt.transcript, got, tt.expected)
			}
		})
	}
}
