package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"muvserver/internal/models"
)

// MemoryStore is an in-memory Store used by tests and by deployments
// that run without a database. InTx holds the store lock for the whole
// callback, which gives the same serialization guarantee as the SQL
// store's transactions. Writes are not rolled back on error.
type MemoryStore struct {
	s    *memState
	inTx bool
}

type memState struct {
	mu sync.Mutex

	learners   []*models.Learner
	concepts   []models.Concept
	blueprints []models.CourseBlueprint
	runs       []*models.CourseRun
	mastery    map[string]*models.MasteryState
	weakPoints []*models.WeakPoint
	evidence   []models.EvidenceArtifact
	portfolio  []models.PortfolioItem
	pins       []*models.Pin
	events     []models.EventLogEntry
}

// NewMemory creates an empty in-memory store
func NewMemory() *MemoryStore {
	return &MemoryStore{s: &memState{mastery: map[string]*models.MasteryState{}}}
}

func (m *MemoryStore) lock() func() {
	if m.inTx {
		return func() {}
	}
	m.s.mu.Lock()
	return m.s.mu.Unlock
}

func (m *MemoryStore) InTx(ctx context.Context, fn func(Store) error) error {
	if m.inTx {
		return fn(m)
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return fn(&MemoryStore{s: m.s, inTx: true})
}

// ========== Learners ==========

func (m *MemoryStore) GetOrCreateDefaultLearner(ctx context.Context) (*models.Learner, error) {
	defer m.lock()()
	if len(m.s.learners) > 0 {
		l := *m.s.learners[0]
		return &l, nil
	}
	created := &models.Learner{
		ID:          uuid.NewString(),
		DisplayName: "Learner",
		Preferences: map[string]any{},
		CreatedAt:   time.Now().UTC(),
	}
	m.s.learners = append(m.s.learners, created)
	l := *created
	return &l, nil
}

func (m *MemoryStore) GetLearner(ctx context.Context, id string) (*models.Learner, error) {
	defer m.lock()()
	for _, learner := range m.s.learners {
		if learner.ID == id {
			l := *learner
			return &l, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) UpdateLearner(ctx context.Context, id string, req models.UpdateLearnerRequest) (*models.Learner, error) {
	defer m.lock()()
	for _, learner := range m.s.learners {
		if learner.ID != id {
			continue
		}
		if req.DisplayName != nil {
			learner.DisplayName = *req.DisplayName
		}
		if req.Preferences != nil {
			learner.Preferences = req.Preferences
		}
		l := *learner
		return &l, nil
	}
	return nil, ErrNotFound
}

// ========== Concepts ==========

func (m *MemoryStore) CreateConcept(ctx context.Context, label, domain, description string) (*models.Concept, error) {
	defer m.lock()()
	c := models.Concept{
		ID:          uuid.NewString(),
		Label:       label,
		Domain:      domain,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	m.s.concepts = append(m.s.concepts, c)
	return &c, nil
}

func (m *MemoryStore) ListConcepts(ctx context.Context, domain string) ([]models.Concept, error) {
	defer m.lock()()
	out := []models.Concept{}
	for _, c := range m.s.concepts {
		if domain == "" || c.Domain == domain {
			out = append(out, c)
		}
	}
	return out, nil
}

// ========== Courses ==========

func (m *MemoryStore) CreateCourseBlueprint(ctx context.Context, title, description string, conceptIDs []string, learnerID string) (*models.CourseBlueprint, error) {
	defer m.lock()()
	if conceptIDs == nil {
		conceptIDs = []string{}
	}
	bp := models.CourseBlueprint{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		ConceptIDs:  conceptIDs,
		LearnerID:   learnerID,
		CreatedAt:   time.Now().UTC(),
	}
	m.s.blueprints = append(m.s.blueprints, bp)
	return &bp, nil
}

func (m *MemoryStore) GetCourseBlueprint(ctx context.Context, id string) (*models.CourseBlueprint, error) {
	defer m.lock()()
	for _, bp := range m.s.blueprints {
		if bp.ID == id {
			out := bp
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListCourseBlueprints(ctx context.Context, learnerID string) ([]models.CourseBlueprint, error) {
	defer m.lock()()
	out := []models.CourseBlueprint{}
	for i := len(m.s.blueprints) - 1; i >= 0; i-- {
		if m.s.blueprints[i].LearnerID == learnerID {
			out = append(out, m.s.blueprints[i])
		}
	}
	return out, nil
}

func (m *MemoryStore) CreateCourseRun(ctx context.Context, blueprintID, learnerID string) (*models.CourseRun, error) {
	defer m.lock()()
	run := &models.CourseRun{
		ID:          uuid.NewString(),
		BlueprintID: blueprintID,
		LearnerID:   learnerID,
		Status:      models.CourseRunActive,
		Progress:    0,
		StartedAt:   time.Now().UTC(),
	}
	m.s.runs = append(m.s.runs, run)
	out := *run
	return &out, nil
}

func (m *MemoryStore) ListCourseRuns(ctx context.Context, learnerID string) ([]models.CourseRun, error) {
	defer m.lock()()
	out := []models.CourseRun{}
	for i := len(m.s.runs) - 1; i >= 0; i-- {
		if m.s.runs[i].LearnerID == learnerID {
			out = append(out, *m.s.runs[i])
		}
	}
	return out, nil
}

func (m *MemoryStore) ListActiveCourseRuns(ctx context.Context) ([]models.CourseRun, error) {
	defer m.lock()()
	out := []models.CourseRun{}
	for i := len(m.s.runs) - 1; i >= 0; i-- {
		if m.s.runs[i].Status == models.CourseRunActive {
			out = append(out, *m.s.runs[i])
		}
	}
	return out, nil
}

func (m *MemoryStore) UpdateCourseRun(ctx context.Context, id string, req models.UpdateCourseRunRequest) (*models.CourseRun, error) {
	defer m.lock()()
	for _, run := range m.s.runs {
		if run.ID != id {
			continue
		}
		if req.Status != nil {
			run.Status = *req.Status
		}
		if req.Progress != nil {
			run.Progress = clamp01(*req.Progress)
		}
		if req.CompletedAt != nil {
			run.CompletedAt = req.CompletedAt
		}
		out := *run
		return &out, nil
	}
	return nil, ErrNotFound
}

// ========== Mastery ==========

func masteryKey(learnerID, conceptID string) string {
	return learnerID + "|" + conceptID
}

func (m *MemoryStore) GetMasteryState(ctx context.Context, learnerID, conceptID string) (*models.MasteryState, error) {
	defer m.lock()()
	ms, ok := m.s.mastery[masteryKey(learnerID, conceptID)]
	if !ok {
		return nil, ErrNotFound
	}
	out := *ms
	return &out, nil
}

func (m *MemoryStore) GetMasteryStateForUpdate(ctx context.Context, learnerID, conceptID string) (*models.MasteryState, error) {
	return m.GetMasteryState(ctx, learnerID, conceptID)
}

func (m *MemoryStore) ListMasteryStates(ctx context.Context, learnerID string) ([]models.MasteryState, error) {
	defer m.lock()()
	out := []models.MasteryState{}
	for _, ms := range m.s.mastery {
		if ms.LearnerID == learnerID {
			out = append(out, *ms)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConceptID < out[j].ConceptID })
	return out, nil
}

func (m *MemoryStore) UpsertMasteryState(ctx context.Context, learnerID, conceptID string, score, stability float64) (*models.MasteryState, error) {
	defer m.lock()()
	now := time.Now().UTC()
	key := masteryKey(learnerID, conceptID)
	ms, ok := m.s.mastery[key]
	if !ok {
		ms = &models.MasteryState{
			ID:        uuid.NewString(),
			LearnerID: learnerID,
			ConceptID: conceptID,
		}
		m.s.mastery[key] = ms
	}
	ms.Score = score
	ms.Stability = stability
	ms.LastDemonstratedAt = &now
	out := *ms
	return &out, nil
}

// ========== Weak points ==========

func (m *MemoryStore) CreateWeakPoint(ctx context.Context, learnerID, conceptID, wpType string, severity float64, signals []models.Signal, evidenceRefs []string) (*models.WeakPoint, error) {
	defer m.lock()()
	if signals == nil {
		signals = []models.Signal{}
	}
	if evidenceRefs == nil {
		evidenceRefs = []string{}
	}
	wp := &models.WeakPoint{
		ID:           uuid.NewString(),
		LearnerID:    learnerID,
		ConceptID:    conceptID,
		WPType:       wpType,
		Severity:     severity,
		Signals:      signals,
		EvidenceRefs: evidenceRefs,
		CreatedAt:    time.Now().UTC(),
	}
	m.s.weakPoints = append(m.s.weakPoints, wp)
	out := *wp
	return &out, nil
}

func (m *MemoryStore) ListWeakPoints(ctx context.Context, learnerID string) ([]models.WeakPoint, error) {
	defer m.lock()()
	out := []models.WeakPoint{}
	for _, wp := range m.s.weakPoints {
		if wp.LearnerID == learnerID && wp.ResolvedAt == nil {
			out = append(out, *wp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Severity > out[j].Severity })
	return out, nil
}

func (m *MemoryStore) ResolveWeakPoint(ctx context.Context, id string) (*models.WeakPoint, error) {
	defer m.lock()()
	for _, wp := range m.s.weakPoints {
		if wp.ID == id && wp.ResolvedAt == nil {
			now := time.Now().UTC()
			wp.ResolvedAt = &now
			out := *wp
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// ========== Evidence ==========

func (m *MemoryStore) CreateEvidenceArtifact(ctx context.Context, artifact *models.EvidenceArtifact) (*models.EvidenceArtifact, error) {
	defer m.lock()()
	created := *artifact
	created.ID = uuid.NewString()
	created.CreatedAt = time.Now().UTC()
	m.s.evidence = append(m.s.evidence, created)
	return &created, nil
}

func (m *MemoryStore) ListEvidenceArtifacts(ctx context.Context, learnerID string) ([]models.EvidenceArtifact, error) {
	defer m.lock()()
	out := []models.EvidenceArtifact{}
	for i := len(m.s.evidence) - 1; i >= 0; i-- {
		if m.s.evidence[i].LearnerID == learnerID {
			out = append(out, m.s.evidence[i])
		}
	}
	return out, nil
}

// ========== Portfolio ==========

func (m *MemoryStore) CreatePortfolioItem(ctx context.Context, learnerID, title, description string, artifactIDs []string) (*models.PortfolioItem, error) {
	defer m.lock()()
	if artifactIDs == nil {
		artifactIDs = []string{}
	}
	item := models.PortfolioItem{
		ID:          uuid.NewString(),
		LearnerID:   learnerID,
		Title:       title,
		Description: description,
		ArtifactIDs: artifactIDs,
		CreatedAt:   time.Now().UTC(),
	}
	m.s.portfolio = append(m.s.portfolio, item)
	return &item, nil
}

func (m *MemoryStore) ListPortfolioItems(ctx context.Context, learnerID string) ([]models.PortfolioItem, error) {
	defer m.lock()()
	out := []models.PortfolioItem{}
	for i := len(m.s.portfolio) - 1; i >= 0; i-- {
		if m.s.portfolio[i].LearnerID == learnerID {
			out = append(out, m.s.portfolio[i])
		}
	}
	return out, nil
}

// ========== Pins ==========

func (m *MemoryStore) CreatePin(ctx context.Context, learnerID, content, source string) (*models.Pin, error) {
	defer m.lock()()
	if source == "" {
		source = "voice"
	}
	pin := &models.Pin{
		ID:        uuid.NewString(),
		LearnerID: learnerID,
		Content:   content,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
	m.s.pins = append(m.s.pins, pin)
	out := *pin
	return &out, nil
}

func (m *MemoryStore) ListPins(ctx context.Context, learnerID string) ([]models.Pin, error) {
	defer m.lock()()
	out := []models.Pin{}
	for i := len(m.s.pins) - 1; i >= 0; i-- {
		if m.s.pins[i].LearnerID == learnerID && !m.s.pins[i].Resolved {
			out = append(out, *m.s.pins[i])
		}
	}
	return out, nil
}

func (m *MemoryStore) ResolvePin(ctx context.Context, id string) (*models.Pin, error) {
	defer m.lock()()
	for _, pin := range m.s.pins {
		if pin.ID == id {
			pin.Resolved = true
			out := *pin
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// ========== Event log ==========

func (m *MemoryStore) AppendEvent(ctx context.Context, learnerID, eventType string, payload map[string]any) (*models.EventLogEntry, error) {
	defer m.lock()()
	if payload == nil {
		payload = map[string]any{}
	}
	entry := models.EventLogEntry{
		ID:        uuid.NewString(),
		LearnerID: learnerID,
		EventType: eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
	m.s.events = append(m.s.events, entry)
	return &entry, nil
}

func (m *MemoryStore) ListEvents(ctx context.Context, learnerID string, limit int) ([]models.EventLogEntry, error) {
	defer m.lock()()
	if limit <= 0 {
		limit = 50
	}
	out := []models.EventLogEntry{}
	for i := len(m.s.events) - 1; i >= 0 && len(out) < limit; i-- {
		if learnerID == "" || m.s.events[i].LearnerID == learnerID {
			out = append(out, m.s.events[i])
		}
	}
	return out, nil
}
