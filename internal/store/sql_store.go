package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"muvserver/internal/database"
	"muvserver/internal/models"
)

// queryer abstracts *sql.DB and *sql.Tx so the same queries run inside
// and outside transactions
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore implements Store over MySQL or SQLite
type SQLStore struct {
	db   *database.DB
	q    queryer
	inTx bool
}

// NewSQL creates a SQL-backed store
func NewSQL(db *database.DB) *SQLStore {
	return &SQLStore{db: db, q: db.DB}
}

// InTx runs fn inside a transaction. Nested calls join the open
// transaction instead of starting a new one.
func (s *SQLStore) InTx(ctx context.Context, fn func(Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txStore := &SQLStore{db: s.db, q: tx, inTx: true}
	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ========== Learners ==========

func (s *SQLStore) GetOrCreateDefaultLearner(ctx context.Context) (*models.Learner, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, display_name, preferences, created_at FROM learners ORDER BY created_at LIMIT 1`)
	learner, err := scanLearner(row)
	if err == nil {
		return learner, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query default learner: %w", err)
	}

	created := &models.Learner{
		ID:          uuid.NewString(),
		DisplayName: "Learner",
		Preferences: map[string]any{},
		CreatedAt:   time.Now().UTC(),
	}
	_, err = s.q.ExecContext(ctx,
		`INSERT INTO learners (id, display_name, preferences, created_at) VALUES (?, ?, ?, ?)`,
		created.ID, created.DisplayName, mustJSON(created.Preferences), fmtTime(created.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create default learner: %w", err)
	}
	return created, nil
}

func (s *SQLStore) GetLearner(ctx context.Context, id string) (*models.Learner, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, display_name, preferences, created_at FROM learners WHERE id = ?`, id)
	learner, err := scanLearner(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get learner: %w", err)
	}
	return learner, nil
}

func (s *SQLStore) UpdateLearner(ctx context.Context, id string, req models.UpdateLearnerRequest) (*models.Learner, error) {
	learner, err := s.GetLearner(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.DisplayName != nil {
		learner.DisplayName = *req.DisplayName
	}
	if req.Preferences != nil {
		learner.Preferences = req.Preferences
	}
	_, err = s.q.ExecContext(ctx,
		`UPDATE learners SET display_name = ?, preferences = ? WHERE id = ?`,
		learner.DisplayName, mustJSON(learner.Preferences), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update learner: %w", err)
	}
	return learner, nil
}

// ========== Concepts ==========

func (s *SQLStore) CreateConcept(ctx context.Context, label, domain, description string) (*models.Concept, error) {
	c := &models.Concept{
		ID:          uuid.NewString(),
		Label:       label,
		Domain:      domain,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO concepts (id, label, domain, description, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Label, c.Domain, c.Description, fmtTime(c.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create concept: %w", err)
	}
	return c, nil
}

func (s *SQLStore) ListConcepts(ctx context.Context, domain string) ([]models.Concept, error) {
	query := `SELECT id, label, domain, description, created_at FROM concepts`
	args := []any{}
	if domain != "" {
		query += ` WHERE domain = ?`
		args = append(args, domain)
	}
	query += ` ORDER BY created_at`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list concepts: %w", err)
	}
	defer rows.Close()

	concepts := []models.Concept{}
	for rows.Next() {
		var c models.Concept
		var desc sql.NullString
		var createdAt string
		if err := rows.Scan(&c.ID, &c.Label, &c.Domain, &desc, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan concept: %w", err)
		}
		c.Description = desc.String
		c.CreatedAt = parseTime(createdAt)
		concepts = append(concepts, c)
	}
	return concepts, rows.Err()
}

// ========== Courses ==========

func (s *SQLStore) CreateCourseBlueprint(ctx context.Context, title, description string, conceptIDs []string, learnerID string) (*models.CourseBlueprint, error) {
	if conceptIDs == nil {
		conceptIDs = []string{}
	}
	bp := &models.CourseBlueprint{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		ConceptIDs:  conceptIDs,
		LearnerID:   learnerID,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO course_blueprints (id, title, description, concept_ids, learner_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		bp.ID, bp.Title, bp.Description, mustJSON(bp.ConceptIDs), bp.LearnerID, fmtTime(bp.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create course blueprint: %w", err)
	}
	return bp, nil
}

func (s *SQLStore) GetCourseBlueprint(ctx context.Context, id string) (*models.CourseBlueprint, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, title, description, concept_ids, learner_id, created_at FROM course_blueprints WHERE id = ?`, id)
	bp, err := scanBlueprint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course blueprint: %w", err)
	}
	return bp, nil
}

func (s *SQLStore) ListCourseBlueprints(ctx context.Context, learnerID string) ([]models.CourseBlueprint, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, title, description, concept_ids, learner_id, created_at
		 FROM course_blueprints WHERE learner_id = ? ORDER BY created_at DESC`, learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list course blueprints: %w", err)
	}
	defer rows.Close()

	blueprints := []models.CourseBlueprint{}
	for rows.Next() {
		var bp models.CourseBlueprint
		var desc sql.NullString
		var conceptIDs, createdAt string
		if err := rows.Scan(&bp.ID, &bp.Title, &desc, &conceptIDs, &bp.LearnerID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan course blueprint: %w", err)
		}
		bp.Description = desc.String
		bp.ConceptIDs = unmarshalStrings(conceptIDs)
		bp.CreatedAt = parseTime(createdAt)
		blueprints = append(blueprints, bp)
	}
	return blueprints, rows.Err()
}

func (s *SQLStore) CreateCourseRun(ctx context.Context, blueprintID, learnerID string) (*models.CourseRun, error) {
	run := &models.CourseRun{
		ID:          uuid.NewString(),
		BlueprintID: blueprintID,
		LearnerID:   learnerID,
		Status:      models.CourseRunActive,
		Progress:    0,
		StartedAt:   time.Now().UTC(),
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO course_runs (id, blueprint_id, learner_id, status, progress, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, NULL)`,
		run.ID, run.BlueprintID, run.LearnerID, run.Status, run.Progress, fmtTime(run.StartedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create course run: %w", err)
	}
	return run, nil
}

func (s *SQLStore) ListCourseRuns(ctx context.Context, learnerID string) ([]models.CourseRun, error) {
	return s.queryCourseRuns(ctx,
		`SELECT id, blueprint_id, learner_id, status, progress, started_at, completed_at
		 FROM course_runs WHERE learner_id = ? ORDER BY started_at DESC`, learnerID)
}

func (s *SQLStore) ListActiveCourseRuns(ctx context.Context) ([]models.CourseRun, error) {
	return s.queryCourseRuns(ctx,
		`SELECT id, blueprint_id, learner_id, status, progress, started_at, completed_at
		 FROM course_runs WHERE status = ? ORDER BY started_at DESC`, models.CourseRunActive)
}

func (s *SQLStore) queryCourseRuns(ctx context.Context, query string, args ...any) ([]models.CourseRun, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list course runs: %w", err)
	}
	defer rows.Close()

	runs := []models.CourseRun{}
	for rows.Next() {
		var run models.CourseRun
		var startedAt string
		var completedAt sql.NullString
		if err := rows.Scan(&run.ID, &run.BlueprintID, &run.LearnerID, &run.Status, &run.Progress, &startedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("failed to scan course run: %w", err)
		}
		run.StartedAt = parseTime(startedAt)
		run.CompletedAt = nullableTime(completedAt)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *SQLStore) UpdateCourseRun(ctx context.Context, id string, req models.UpdateCourseRunRequest) (*models.CourseRun, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, blueprint_id, learner_id, status, progress, started_at, completed_at FROM course_runs WHERE id = ?`, id)

	var run models.CourseRun
	var startedAt string
	var completedAt sql.NullString
	err := row.Scan(&run.ID, &run.BlueprintID, &run.LearnerID, &run.Status, &run.Progress, &startedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course run: %w", err)
	}
	run.StartedAt = parseTime(startedAt)
	run.CompletedAt = nullableTime(completedAt)

	if req.Status != nil {
		run.Status = *req.Status
	}
	if req.Progress != nil {
		run.Progress = clamp01(*req.Progress)
	}
	if req.CompletedAt != nil {
		run.CompletedAt = req.CompletedAt
	}

	var completed any
	if run.CompletedAt != nil {
		completed = fmtTime(*run.CompletedAt)
	}
	_, err = s.q.ExecContext(ctx,
		`UPDATE course_runs SET status = ?, progress = ?, completed_at = ? WHERE id = ?`,
		run.Status, run.Progress, completed, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update course run: %w", err)
	}
	return &run, nil
}

// ========== Mastery ==========

func (s *SQLStore) GetMasteryState(ctx context.Context, learnerID, conceptID string) (*models.MasteryState, error) {
	return s.getMastery(ctx, learnerID, conceptID, false)
}

func (s *SQLStore) GetMasteryStateForUpdate(ctx context.Context, learnerID, conceptID string) (*models.MasteryState, error) {
	return s.getMastery(ctx, learnerID, conceptID, true)
}

func (s *SQLStore) getMastery(ctx context.Context, learnerID, conceptID string, forUpdate bool) (*models.MasteryState, error) {
	query := `SELECT id, learner_id, concept_id, score, stability, last_demonstrated_at
		 FROM mastery_states WHERE learner_id = ? AND concept_id = ?`
	// SQLite has no row locks; its single writer connection serializes
	// transactions instead.
	if forUpdate && s.inTx && s.db.Driver() == "mysql" {
		query += ` FOR UPDATE`
	}

	row := s.q.QueryRowContext(ctx, query, learnerID, conceptID)
	var ms models.MasteryState
	var lastDemo sql.NullString
	err := row.Scan(&ms.ID, &ms.LearnerID, &ms.ConceptID, &ms.Score, &ms.Stability, &lastDemo)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mastery state: %w", err)
	}
	ms.LastDemonstratedAt = nullableTime(lastDemo)
	return &ms, nil
}

func (s *SQLStore) ListMasteryStates(ctx context.Context, learnerID string) ([]models.MasteryState, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, learner_id, concept_id, score, stability, last_demonstrated_at
		 FROM mastery_states WHERE learner_id = ?`, learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list mastery states: %w", err)
	}
	defer rows.Close()

	states := []models.MasteryState{}
	for rows.Next() {
		var ms models.MasteryState
		var lastDemo sql.NullString
		if err := rows.Scan(&ms.ID, &ms.LearnerID, &ms.ConceptID, &ms.Score, &ms.Stability, &lastDemo); err != nil {
			return nil, fmt.Errorf("failed to scan mastery state: %w", err)
		}
		ms.LastDemonstratedAt = nullableTime(lastDemo)
		states = append(states, ms)
	}
	return states, rows.Err()
}

func (s *SQLStore) UpsertMasteryState(ctx context.Context, learnerID, conceptID string, score, stability float64) (*models.MasteryState, error) {
	now := time.Now().UTC()
	res, err := s.q.ExecContext(ctx,
		`UPDATE mastery_states SET score = ?, stability = ?, last_demonstrated_at = ?
		 WHERE learner_id = ? AND concept_id = ?`,
		score, stability, fmtTime(now), learnerID, conceptID)
	if err != nil {
		return nil, fmt.Errorf("failed to update mastery state: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read update result: %w", err)
	}

	if affected == 0 {
		_, err = s.q.ExecContext(ctx,
			`INSERT INTO mastery_states (id, learner_id, concept_id, score, stability, last_demonstrated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), learnerID, conceptID, score, stability, fmtTime(now))
		if err != nil {
			return nil, fmt.Errorf("failed to insert mastery state: %w", err)
		}
	}

	return s.GetMasteryState(ctx, learnerID, conceptID)
}

// ========== Weak points ==========

func (s *SQLStore) CreateWeakPoint(ctx context.Context, learnerID, conceptID, wpType string, severity float64, signals []models.Signal, evidenceRefs []string) (*models.WeakPoint, error) {
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
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO weak_points (id, learner_id, concept_id, wp_type, severity, signals, evidence_refs, resolved_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, NULL, ?)`,
		wp.ID, wp.LearnerID, wp.ConceptID, wp.WPType, wp.Severity,
		mustJSON(wp.Signals), mustJSON(wp.EvidenceRefs), fmtTime(wp.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create weak point: %w", err)
	}
	return wp, nil
}

func (s *SQLStore) ListWeakPoints(ctx context.Context, learnerID string) ([]models.WeakPoint, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, learner_id, concept_id, wp_type, severity, signals, evidence_refs, resolved_at, created_at
		 FROM weak_points WHERE learner_id = ? AND resolved_at IS NULL ORDER BY severity DESC`, learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list weak points: %w", err)
	}
	defer rows.Close()

	wps := []models.WeakPoint{}
	for rows.Next() {
		wp, err := scanWeakPoint(rows)
		if err != nil {
			return nil, err
		}
		wps = append(wps, *wp)
	}
	return wps, rows.Err()
}

func (s *SQLStore) ResolveWeakPoint(ctx context.Context, id string) (*models.WeakPoint, error) {
	now := time.Now().UTC()
	res, err := s.q.ExecContext(ctx,
		`UPDATE weak_points SET resolved_at = ? WHERE id = ? AND resolved_at IS NULL`,
		fmtTime(now), id)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve weak point: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return nil, ErrNotFound
	}

	row := s.q.QueryRowContext(ctx,
		`SELECT id, learner_id, concept_id, wp_type, severity, signals, evidence_refs, resolved_at, created_at
		 FROM weak_points WHERE id = ?`, id)
	wp, err := scanWeakPoint(row)
	if err != nil {
		return nil, err
	}
	return wp, nil
}

// ========== Evidence ==========

func (s *SQLStore) CreateEvidenceArtifact(ctx context.Context, artifact *models.EvidenceArtifact) (*models.EvidenceArtifact, error) {
	created := *artifact
	created.ID = uuid.NewString()
	created.CreatedAt = time.Now().UTC()

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO evidence_artifacts (id, learner_id, session_id, artifact_type, hash, integrity, tags, metrics, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		created.ID, created.LearnerID, created.SessionID, created.ArtifactType, created.Hash,
		created.Integrity, mustJSON(created.Tags), mustJSON(created.Metrics), mustJSON(created.Payload),
		fmtTime(created.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create evidence artifact: %w", err)
	}
	return &created, nil
}

func (s *SQLStore) ListEvidenceArtifacts(ctx context.Context, learnerID string) ([]models.EvidenceArtifact, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, learner_id, session_id, artifact_type, hash, integrity, tags, metrics, payload, created_at
		 FROM evidence_artifacts WHERE learner_id = ? ORDER BY created_at DESC`, learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list evidence artifacts: %w", err)
	}
	defer rows.Close()

	artifacts := []models.EvidenceArtifact{}
	for rows.Next() {
		var ea models.EvidenceArtifact
		var hash sql.NullString
		var tags, metrics, payload, createdAt string
		if err := rows.Scan(&ea.ID, &ea.LearnerID, &ea.SessionID, &ea.ArtifactType, &hash,
			&ea.Integrity, &tags, &metrics, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan evidence artifact: %w", err)
		}
		ea.Hash = hash.String
		ea.Tags = unmarshalStrings(tags)
		ea.Metrics = unmarshalPayload(metrics)
		ea.Payload = unmarshalPayload(payload)
		ea.CreatedAt = parseTime(createdAt)
		artifacts = append(artifacts, ea)
	}
	return artifacts, rows.Err()
}

// ========== Portfolio ==========

func (s *SQLStore) CreatePortfolioItem(ctx context.Context, learnerID, title, description string, artifactIDs []string) (*models.PortfolioItem, error) {
	if artifactIDs == nil {
		artifactIDs = []string{}
	}
	item := &models.PortfolioItem{
		ID:          uuid.NewString(),
		LearnerID:   learnerID,
		Title:       title,
		Description: description,
		ArtifactIDs: artifactIDs,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO portfolio_items (id, learner_id, title, description, artifact_ids, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		item.ID, item.LearnerID, item.Title, item.Description, mustJSON(item.ArtifactIDs), fmtTime(item.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create portfolio item: %w", err)
	}
	return item, nil
}

func (s *SQLStore) ListPortfolioItems(ctx context.Context, learnerID string) ([]models.PortfolioItem, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, learner_id, title, description, artifact_ids, created_at
		 FROM portfolio_items WHERE learner_id = ? ORDER BY created_at DESC`, learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolio items: %w", err)
	}
	defer rows.Close()

	items := []models.PortfolioItem{}
	for rows.Next() {
		var item models.PortfolioItem
		var desc sql.NullString
		var artifactIDs, createdAt string
		if err := rows.Scan(&item.ID, &item.LearnerID, &item.Title, &desc, &artifactIDs, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio item: %w", err)
		}
		item.Description = desc.String
		item.ArtifactIDs = unmarshalStrings(artifactIDs)
		item.CreatedAt = parseTime(createdAt)
		items = append(items, item)
	}
	return items, rows.Err()
}

// ========== Pins ==========

func (s *SQLStore) CreatePin(ctx context.Context, learnerID, content, source string) (*models.Pin, error) {
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
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO pins (id, learner_id, content, source, resolved, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		pin.ID, pin.LearnerID, pin.Content, pin.Source, pin.Resolved, fmtTime(pin.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create pin: %w", err)
	}
	return pin, nil
}

func (s *SQLStore) ListPins(ctx context.Context, learnerID string) ([]models.Pin, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, learner_id, content, source, resolved, created_at
		 FROM pins WHERE learner_id = ? AND resolved = ? ORDER BY created_at DESC`, learnerID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list pins: %w", err)
	}
	defer rows.Close()

	pins := []models.Pin{}
	for rows.Next() {
		var pin models.Pin
		var createdAt string
		if err := rows.Scan(&pin.ID, &pin.LearnerID, &pin.Content, &pin.Source, &pin.Resolved, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan pin: %w", err)
		}
		pin.CreatedAt = parseTime(createdAt)
		pins = append(pins, pin)
	}
	return pins, rows.Err()
}

func (s *SQLStore) ResolvePin(ctx context.Context, id string) (*models.Pin, error) {
	res, err := s.q.ExecContext(ctx, `UPDATE pins SET resolved = ? WHERE id = ?`, true, id)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve pin: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return nil, ErrNotFound
	}

	row := s.q.QueryRowContext(ctx,
		`SELECT id, learner_id, content, source, resolved, created_at FROM pins WHERE id = ?`, id)
	var pin models.Pin
	var createdAt string
	if err := row.Scan(&pin.ID, &pin.LearnerID, &pin.Content, &pin.Source, &pin.Resolved, &createdAt); err != nil {
		return nil, fmt.Errorf("failed to scan pin: %w", err)
	}
	pin.CreatedAt = parseTime(createdAt)
	return &pin, nil
}

// ========== Event log ==========

func (s *SQLStore) AppendEvent(ctx context.Context, learnerID, eventType string, payload map[string]any) (*models.EventLogEntry, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	entry := &models.EventLogEntry{
		ID:        uuid.NewString(),
		LearnerID: learnerID,
		EventType: eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}

	var learner any
	if learnerID != "" {
		learner = learnerID
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO event_log (id, learner_id, event_type, payload, timestamp) VALUES (?, ?, ?, ?, ?)`,
		entry.ID, learner, entry.EventType, mustJSON(entry.Payload), fmtTime(entry.Timestamp))
	if err != nil {
		return nil, fmt.Errorf("failed to append event: %w", err)
	}
	return entry, nil
}

func (s *SQLStore) ListEvents(ctx context.Context, learnerID string, limit int) ([]models.EventLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, learner_id, event_type, payload, timestamp FROM event_log`
	args := []any{}
	if learnerID != "" {
		query += ` WHERE learner_id = ?`
		args = append(args, learnerID)
	}
	query += ` ORDER BY timestamp DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	entries := []models.EventLogEntry{}
	for rows.Next() {
		var entry models.EventLogEntry
		var learner sql.NullString
		var payload, ts string
		if err := rows.Scan(&entry.ID, &learner, &entry.EventType, &payload, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		entry.LearnerID = learner.String
		entry.Timestamp = parseTime(ts)
		if err := json.Unmarshal([]byte(payload), &entry.Payload); err != nil {
			entry.Payload = map[string]any{}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ========== Helpers ==========

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLearner(row rowScanner) (*models.Learner, error) {
	var learner models.Learner
	var prefs, createdAt string
	if err := row.Scan(&learner.ID, &learner.DisplayName, &prefs, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(prefs), &learner.Preferences); err != nil {
		learner.Preferences = map[string]any{}
	}
	learner.CreatedAt = parseTime(createdAt)
	return &learner, nil
}

func scanBlueprint(row rowScanner) (*models.CourseBlueprint, error) {
	var bp models.CourseBlueprint
	var desc sql.NullString
	var conceptIDs, createdAt string
	if err := row.Scan(&bp.ID, &bp.Title, &desc, &conceptIDs, &bp.LearnerID, &createdAt); err != nil {
		return nil, err
	}
	bp.Description = desc.String
	bp.ConceptIDs = unmarshalStrings(conceptIDs)
	bp.CreatedAt = parseTime(createdAt)
	return &bp, nil
}

func scanWeakPoint(row rowScanner) (*models.WeakPoint, error) {
	var wp models.WeakPoint
	var signals, evidenceRefs, createdAt string
	var resolvedAt sql.NullString
	if err := row.Scan(&wp.ID, &wp.LearnerID, &wp.ConceptID, &wp.WPType, &wp.Severity,
		&signals, &evidenceRefs, &resolvedAt, &createdAt); err != nil {
		return nil, fmt.Errorf("failed to scan weak point: %w", err)
	}
	if err := json.Unmarshal([]byte(signals), &wp.Signals); err != nil {
		wp.Signals = []models.Signal{}
	}
	wp.EvidenceRefs = unmarshalStrings(evidenceRefs)
	wp.ResolvedAt = nullableTime(resolvedAt)
	wp.CreatedAt = parseTime(createdAt)
	return &wp, nil
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func unmarshalStrings(s string) []string {
	out := []string{}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return []string{}
	}
	return out
}

func unmarshalPayload(s string) *models.Payload {
	p := models.NewPayload()
	if err := json.Unmarshal([]byte(s), p); err != nil {
		return models.NewPayload()
	}
	return p
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
