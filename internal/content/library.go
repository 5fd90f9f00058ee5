// Package content holds the canonical quiz, game, and search source
// templates. The defaults are compiled in; an external YAML file can
// override them and is hot reloaded on change.
package content

import (
	_ "embed"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

//go:embed bank.yaml
var defaultBank []byte

// QuizQuestionTemplate is one canonical multiple-choice question
type QuizQuestionTemplate struct {
	Question     string   `yaml:"question"`
	Options      []string `yaml:"options"`
	CorrectIndex int      `yaml:"correct_index"`
	Difficulty   float64  `yaml:"difficulty"`
}

// GameTemplate is one canonical challenge shape
type GameTemplate struct {
	Type   string         `yaml:"type"`
	Prompt string         `yaml:"prompt"`
	Data   map[string]any `yaml:"data"`
}

// SourceTemplate is one search result shape. Title, URL and snippet
// may contain {topic}, {slug} and {audience} placeholders.
type SourceTemplate struct {
	Title       string  `yaml:"title"`
	URL         string  `yaml:"url"`
	Snippet     string  `yaml:"snippet"`
	Reliability float64 `yaml:"reliability"`
}

// Bank is the full parsed content bank
type Bank struct {
	QuizQuestions []QuizQuestionTemplate `yaml:"quiz_questions"`
	GameTemplates []GameTemplate         `yaml:"game_templates"`
	SearchSources []SourceTemplate       `yaml:"search_sources"`
}

// Expand substitutes the placeholders in a source template
func (t SourceTemplate) Expand(topic, audience string) (title, url, snippet string) {
	slug := strings.ReplaceAll(strings.ToLower(topic), " ", "-")
	replace := strings.NewReplacer("{topic}", topic, "{slug}", slug, "{audience}", audience)
	return replace.Replace(t.Title), replace.Replace(t.URL), replace.Replace(t.Snippet)
}

// Library serves the active content bank to the plugins. Reads far
// outnumber reloads, so access goes through an RWMutex.
type Library struct {
	mu      sync.RWMutex
	bank    *Bank
	watcher *fsnotify.Watcher
}

// NewLibrary loads the compiled-in bank
func NewLibrary() (*Library, error) {
	bank, err := parseBank(defaultBank)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded content bank: %w", err)
	}
	return &Library{bank: bank}, nil
}

// LoadFile replaces the active bank with the contents of path
func (l *Library) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read content bank: %w", err)
	}
	bank, err := parseBank(data)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.bank = bank
	l.mu.Unlock()
	return nil
}

// Watch reloads the bank whenever path changes. A bank that fails to
// parse is ignored and the previous one stays active.
func (l *Library) Watch(path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	l.watcher = watcher

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := l.LoadFile(path); err != nil {
					log.Printf("⚠️ Content bank reload failed, keeping previous: %v", err)
					continue
				}
				log.Printf("✅ Content bank reloaded from %s", path)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("⚠️ Content bank watcher error: %v", err)
			}
		}
	}()
	return nil
}

// Close stops the watcher if one is running
func (l *Library) Close() error {
	if l.watcher != nil {
		return l.watcher.Close()
	}
	return nil
}

// Bank returns the active bank. Callers must not mutate it.
func (l *Library) Bank() *Bank {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.bank
}

// GameTemplate returns the template for a challenge type, if present
func (l *Library) GameTemplate(challengeType string) (GameTemplate, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, tpl := range l.bank.GameTemplates {
		if tpl.Type == challengeType {
			return tpl, true
		}
	}
	return GameTemplate{}, false
}

func parseBank(data []byte) (*Bank, error) {
	var bank Bank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("failed to parse content bank: %w", err)
	}
	if len(bank.QuizQuestions) == 0 {
		return nil, fmt.Errorf("content bank has no quiz questions")
	}
	if len(bank.GameTemplates) == 0 {
		return nil, fmt.Errorf("content bank has no game templates")
	}
	if len(bank.SearchSources) == 0 {
		return nil, fmt.Errorf("content bank has no search sources")
	}
	return &bank, nil
}
