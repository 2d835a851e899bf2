// Package store persists communications, extractions, sensor readings, and
// alert candidates in SQLite via the pure-Go modernc driver.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/couchcryptid/alert-triage/internal/domain"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyDecided is returned when a decision targets a candidate
	// that has already left PENDING.
	ErrAlreadyDecided = errors.New("candidate already decided")
)

// timeLayout pads nanoseconds to fixed width so stored timestamps compare
// and sort correctly as strings. RFC3339Nano drops trailing fractional
// zeros, which breaks lexicographic ordering for sub-second neighbors.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps the SQLite database. Safe for concurrent use; the candidate
// upsert runs as a single immediate transaction so concurrent pipeline runs
// on the same (sector, hazard) pair cannot create duplicate PENDING rows.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS communications (
	id            TEXT PRIMARY KEY,
	source        TEXT NOT NULL,
	text          TEXT NOT NULL,
	has_coords    INTEGER NOT NULL DEFAULT 0,
	lat           REAL NOT NULL DEFAULT 0,
	lng           REAL NOT NULL DEFAULT 0,
	handle        TEXT NOT NULL DEFAULT '',
	external_id   TEXT NOT NULL DEFAULT '',
	received_at   TEXT NOT NULL,
	processed     INTEGER NOT NULL DEFAULT 0,
	language      TEXT NOT NULL DEFAULT '',
	redacted      TEXT NOT NULL DEFAULT '',
	sector_id     TEXT NOT NULL DEFAULT '',
	content_hash  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS extractions (
	communication_id TEXT PRIMARY KEY REFERENCES communications(id),
	payload          TEXT NOT NULL,
	explanation      TEXT NOT NULL DEFAULT '',
	created_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sensor_readings (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	sensor_id    TEXT NOT NULL,
	type         TEXT NOT NULL,
	value        REAL NOT NULL,
	has_location INTEGER NOT NULL DEFAULT 0,
	lat          REAL NOT NULL DEFAULT 0,
	lng          REAL NOT NULL DEFAULT 0,
	timestamp    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_readings_timestamp ON sensor_readings(timestamp);

CREATE TABLE IF NOT EXISTS candidates (
	id          TEXT PRIMARY KEY,
	sector_id   TEXT NOT NULL,
	lat         REAL NOT NULL DEFAULT 0,
	lng         REAL NOT NULL DEFAULT 0,
	hazard      TEXT NOT NULL,
	severity    TEXT NOT NULL,
	confidence  REAL NOT NULL,
	evidence    TEXT NOT NULL DEFAULT '[]',
	status      TEXT NOT NULL DEFAULT 'PENDING',
	explanation TEXT NOT NULL DEFAULT '',
	verified_by TEXT NOT NULL DEFAULT '',
	verified_at TEXT,
	note        TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_candidates_pending
	ON candidates(sector_id, hazard) WHERE status = 'PENDING';
CREATE INDEX IF NOT EXISTS idx_candidates_updated ON candidates(updated_at);
`

// New opens (or creates) the database at path and applies the schema.
// Transactions are opened immediate so read-modify-write sequences hold the
// write lock from the start.
func New(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// CheckReadiness reports whether the database is reachable. Satisfies the
// shared observability ReadinessChecker.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.Ping(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- communications ---

// SaveCommunication inserts a new raw communication.
func (s *Store) SaveCommunication(ctx context.Context, c domain.Communication) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO communications
			(id, source, text, has_coords, lat, lng, handle, external_id, received_at, processed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		c.ID, c.Source, c.Text, boolInt(c.HasCoords), c.Lat, c.Lng,
		c.Handle, c.ExternalID, c.ReceivedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("save communication %s: %w", c.ID, err)
	}
	return nil
}

// GetCommunication loads one communication by id.
func (s *Store) GetCommunication(ctx context.Context, id string) (domain.Communication, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source, text, has_coords, lat, lng, handle, external_id,
		       received_at, processed, language, redacted, sector_id, content_hash
		FROM communications WHERE id = ?`, id)

	var c domain.Communication
	var hasCoords, processed int
	var receivedAt string
	err := row.Scan(&c.ID, &c.Source, &c.Text, &hasCoords, &c.Lat, &c.Lng,
		&c.Handle, &c.ExternalID, &receivedAt, &processed,
		&c.Language, &c.Redacted, &c.SectorID, &c.ContentHash)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Communication{}, fmt.Errorf("communication %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.Communication{}, fmt.Errorf("get communication %s: %w", id, err)
	}
	c.HasCoords = hasCoords != 0
	c.Processed = processed != 0
	c.ReceivedAt = parseTime(receivedAt)
	return c, nil
}

// MarkProcessed records the derived fields and flips the processed flag.
// This is the single pipeline mutation a communication receives.
func (s *Store) MarkProcessed(ctx context.Context, c domain.Communication) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE communications
		SET processed = 1, language = ?, redacted = ?, sector_id = ?, content_hash = ?
		WHERE id = ?`,
		c.Language, c.Redacted, c.SectorID, c.ContentHash, c.ID,
	)
	if err != nil {
		return fmt.Errorf("mark processed %s: %w", c.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("communication %s: %w", c.ID, ErrNotFound)
	}
	return nil
}

// --- extractions ---

// SaveExtraction stores the structured pipeline output for a communication.
// Idempotent: re-processing replaces the previous row.
func (s *Store) SaveExtraction(ctx context.Context, e domain.Extraction) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal extraction: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO extractions (communication_id, payload, explanation, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(communication_id) DO UPDATE SET payload = excluded.payload`,
		e.CommunicationID, string(payload), e.Explanation,
		e.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("save extraction %s: %w", e.CommunicationID, err)
	}
	return nil
}

// GetExtraction loads the extraction for a communication.
func (s *Store) GetExtraction(ctx context.Context, communicationID string) (domain.Extraction, error) {
	var payload, explanation string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, explanation FROM extractions WHERE communication_id = ?`,
		communicationID).Scan(&payload, &explanation)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Extraction{}, fmt.Errorf("extraction %s: %w", communicationID, ErrNotFound)
	}
	if err != nil {
		return domain.Extraction{}, fmt.Errorf("get extraction %s: %w", communicationID, err)
	}
	var e domain.Extraction
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return domain.Extraction{}, fmt.Errorf("decode extraction %s: %w", communicationID, err)
	}
	e.Explanation = explanation
	return e, nil
}

// AttachExplanation records the candidate explanation on an extraction,
// its single post-creation mutation.
func (s *Store) AttachExplanation(ctx context.Context, communicationID, explanation string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE extractions SET explanation = ? WHERE communication_id = ?`,
		explanation, communicationID)
	if err != nil {
		return fmt.Errorf("attach explanation %s: %w", communicationID, err)
	}
	return nil
}

// --- sensor readings ---

// InsertReading appends one telemetry row. The ingestion subscriber that
// produces readings lives outside this service; this is its seam.
func (s *Store) InsertReading(ctx context.Context, r domain.SensorReading) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO sensor_readings (sensor_id, type, value, has_location, lat, lng, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.SensorID, r.Type, r.Value, boolInt(r.HasLocation), r.Lat, r.Lng,
		r.Timestamp.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("insert reading: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert reading id: %w", err)
	}
	return id, nil
}

// FindReadings returns readings inside [from, to], newest first, capped at
// limit. Implements domain.TelemetrySource.
func (s *Store) FindReadings(ctx context.Context, from, to time.Time, limit int) ([]domain.SensorReading, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sensor_id, type, value, has_location, lat, lng, timestamp
		FROM sensor_readings
		WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp DESC
		LIMIT ?`,
		from.UTC().Format(timeLayout), to.UTC().Format(timeLayout), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("find readings: %w", err)
	}
	defer rows.Close()

	var out []domain.SensorReading
	for rows.Next() {
		var r domain.SensorReading
		var hasLocation int
		var ts string
		if err := rows.Scan(&r.ID, &r.SensorID, &r.Type, &r.Value, &hasLocation, &r.Lat, &r.Lng, &ts); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		r.HasLocation = hasLocation != 0
		r.Timestamp = parseTime(ts)
		out = append(out, r)
	}
	return out, rows.Err()
}

// --- candidates ---

// UpsertCandidate performs the atomic evidence-merge upsert keyed by
// (sector id, hazard, status=PENDING). An existing pending candidate gets
// its severity, confidence, and explanation overwritten and any new
// evidence appended (deduplicated by reference id); otherwise a new PENDING
// candidate is created. Runs in one immediate transaction, which is what
// preserves the at-most-one-PENDING invariant under concurrent workers.
func (s *Store) UpsertCandidate(ctx context.Context, cand domain.AlertCandidate) (domain.AlertCandidate, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.AlertCandidate{}, false, fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	now := domain.Clock().Now().UTC()

	row := tx.QueryRowContext(ctx, `
		SELECT id, evidence, created_at FROM candidates
		WHERE sector_id = ? AND hazard = ? AND status = 'PENDING'`,
		cand.SectorID, cand.Hazard)

	var existingID, evidenceJSON, createdAt string
	err = row.Scan(&existingID, &evidenceJSON, &createdAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		cand.ID = uuid.NewString()
		cand.Status = domain.StatusPending
		cand.CreatedAt = now
		cand.UpdatedAt = now
		evJSON, err := json.Marshal(cand.Evidence)
		if err != nil {
			return domain.AlertCandidate{}, false, fmt.Errorf("marshal evidence: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO candidates
				(id, sector_id, lat, lng, hazard, severity, confidence, evidence, status, explanation, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'PENDING', ?, ?, ?)`,
			cand.ID, cand.SectorID, cand.Lat, cand.Lng, cand.Hazard,
			cand.Severity, cand.Confidence, string(evJSON), cand.Explanation,
			now.Format(timeLayout), now.Format(timeLayout),
		)
		if err != nil {
			return domain.AlertCandidate{}, false, fmt.Errorf("insert candidate: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return domain.AlertCandidate{}, false, fmt.Errorf("commit upsert: %w", err)
		}
		return cand, true, nil

	case err != nil:
		return domain.AlertCandidate{}, false, fmt.Errorf("find pending candidate: %w", err)
	}

	var existing []domain.Evidence
	if err := json.Unmarshal([]byte(evidenceJSON), &existing); err != nil {
		return domain.AlertCandidate{}, false, fmt.Errorf("decode evidence: %w", err)
	}
	merged := domain.MergeEvidence(existing, cand.Evidence)
	evJSON, err := json.Marshal(merged)
	if err != nil {
		return domain.AlertCandidate{}, false, fmt.Errorf("marshal evidence: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE candidates
		SET severity = ?, confidence = ?, explanation = ?, evidence = ?, lat = ?, lng = ?, updated_at = ?
		WHERE id = ?`,
		cand.Severity, cand.Confidence, cand.Explanation, string(evJSON),
		cand.Lat, cand.Lng, now.Format(timeLayout), existingID,
	)
	if err != nil {
		return domain.AlertCandidate{}, false, fmt.Errorf("update candidate: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.AlertCandidate{}, false, fmt.Errorf("commit upsert: %w", err)
	}

	cand.ID = existingID
	cand.Status = domain.StatusPending
	cand.Evidence = merged
	cand.CreatedAt = parseTime(createdAt)
	cand.UpdatedAt = now
	return cand, false, nil
}

const candidateColumns = `id, sector_id, lat, lng, hazard, severity, confidence,
	evidence, status, explanation, verified_by, verified_at, note, created_at, updated_at`

// GetCandidate loads one candidate by id.
func (s *Store) GetCandidate(ctx context.Context, id string) (domain.AlertCandidate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = ?`, id)
	cand, err := scanCandidate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AlertCandidate{}, fmt.Errorf("candidate %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.AlertCandidate{}, fmt.Errorf("get candidate %s: %w", id, err)
	}
	return cand, nil
}

// ListCandidates returns candidates filtered by status and optionally
// sector, most recently updated first, capped at limit.
func (s *Store) ListCandidates(ctx context.Context, status domain.CandidateStatus, sectorID string, limit int) ([]domain.AlertCandidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE status = ?`
	args := []any{status}
	if sectorID != "" {
		query += ` AND sector_id = ?`
		args = append(args, sectorID)
	}
	query += ` ORDER BY updated_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var out []domain.AlertCandidate
	for rows.Next() {
		cand, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, cand)
	}
	return out, rows.Err()
}

// DecideCandidate transitions a PENDING candidate to its terminal state and
// records verifier identity, note, and time. Deciding a non-pending
// candidate returns ErrAlreadyDecided; an unknown id returns ErrNotFound.
func (s *Store) DecideCandidate(ctx context.Context, id string, decision domain.Decision, verifier, note string) (domain.AlertCandidate, error) {
	status := domain.StatusVerified
	if decision == domain.DecisionReject {
		status = domain.StatusRejected
	}
	now := domain.Clock().Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE candidates
		SET status = ?, verified_by = ?, verified_at = ?, note = ?, updated_at = ?
		WHERE id = ? AND status = 'PENDING'`,
		status, verifier, now.Format(timeLayout), note,
		now.Format(timeLayout), id,
	)
	if err != nil {
		return domain.AlertCandidate{}, fmt.Errorf("decide candidate %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.AlertCandidate{}, fmt.Errorf("decide candidate %s: %w", id, err)
	}
	if n == 0 {
		// Distinguish a missing candidate from an already-decided one.
		if _, err := s.GetCandidate(ctx, id); err != nil {
			return domain.AlertCandidate{}, err
		}
		return domain.AlertCandidate{}, fmt.Errorf("candidate %s: %w", id, ErrAlreadyDecided)
	}
	return s.GetCandidate(ctx, id)
}

// --- helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row rowScanner) (domain.AlertCandidate, error) {
	var cand domain.AlertCandidate
	var evidenceJSON, createdAt, updatedAt string
	var verifiedAt sql.NullString

	err := row.Scan(&cand.ID, &cand.SectorID, &cand.Lat, &cand.Lng, &cand.Hazard,
		&cand.Severity, &cand.Confidence, &evidenceJSON, &cand.Status,
		&cand.Explanation, &cand.VerifiedBy, &verifiedAt, &cand.Note,
		&createdAt, &updatedAt)
	if err != nil {
		return domain.AlertCandidate{}, err
	}
	if err := json.Unmarshal([]byte(evidenceJSON), &cand.Evidence); err != nil {
		return domain.AlertCandidate{}, fmt.Errorf("decode evidence: %w", err)
	}
	cand.CreatedAt = parseTime(createdAt)
	cand.UpdatedAt = parseTime(updatedAt)
	if verifiedAt.Valid && verifiedAt.String != "" {
		t := parseTime(verifiedAt.String)
		cand.VerifiedAt = &t
	}
	return cand, nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
