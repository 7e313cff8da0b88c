package assessment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nexus-reussite/scoring-engine/internal/scoring"
	"github.com/nexus-reussite/scoring-engine/internal/stats"
)

// SQLStore persists assessments in sqlite or postgres through database/sql.
// Placeholders use the $n form, which both drivers accept.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) PutAssessment(ctx context.Context, a Assessment) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if a.Status == "" {
		a.Status = StatusPending
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assessments (id, student_id, subject, version, status, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 ON CONFLICT (id) DO NOTHING`,
		a.ID, a.StudentID, string(a.Subject), a.Version, a.Status, a.CreatedAt.Unix())
	return err
}

func (s *SQLStore) GetAssessment(ctx context.Context, id string) (Assessment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, student_id, subject, version, status, answers_json, scoring_result_json,
		        global_score, ssn, band, percentile, created_at, submitted_at
		 FROM assessments WHERE id=$1`, id)

	var (
		a                    Assessment
		subject              string
		answersJSON, resJSON sql.NullString
		globalScore, ssn     sql.NullFloat64
		band                 sql.NullString
		percentile           sql.NullInt64
		createdAt            int64
		submittedAt          sql.NullInt64
	)
	err := row.Scan(&a.ID, &a.StudentID, &subject, &a.Version, &a.Status,
		&answersJSON, &resJSON, &globalScore, &ssn, &band, &percentile, &createdAt, &submittedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Assessment{}, ErrNotFound
	}
	if err != nil {
		return Assessment{}, err
	}

	a.Subject = stats.Subject(subject)
	a.CreatedAt = time.Unix(createdAt, 0).UTC()
	if answersJSON.Valid && answersJSON.String != "" {
		if err := json.Unmarshal([]byte(answersJSON.String), &a.Answers); err != nil {
			return Assessment{}, err
		}
	}
	if resJSON.Valid && resJSON.String != "" {
		var r scoring.Result
		if err := json.Unmarshal([]byte(resJSON.String), &r); err != nil {
			return Assessment{}, err
		}
		a.Result = &r
	}
	if globalScore.Valid {
		v := globalScore.Float64
		a.GlobalScore = &v
	}
	if ssn.Valid {
		v := ssn.Float64
		a.SSN = &v
	}
	if band.Valid {
		a.Band = stats.Band(band.String)
	}
	if percentile.Valid {
		p := int(percentile.Int64)
		a.Percentile = &p
	}
	if submittedAt.Valid {
		t := time.Unix(submittedAt.Int64, 0).UTC()
		a.SubmittedAt = &t
	}
	return a, nil
}

// SaveResult is the compute-once write. The conditional UPDATE on
// scoring_result_json IS NULL makes the check-then-write race-free: under
// concurrent duplicate submissions exactly one UPDATE matches a row.
func (s *SQLStore) SaveResult(ctx context.Context, id string, answers []scoring.AnswerSubmission, res scoring.Result) error {
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	resJSON, err := json.Marshal(res)
	if err != nil {
		return err
	}

	r, err := s.db.ExecContext(ctx,
		`UPDATE assessments
		 SET answers_json=$1, scoring_result_json=$2, global_score=$3, status=$4, submitted_at=$5
		 WHERE id=$6 AND scoring_result_json IS NULL`,
		string(answersJSON), string(resJSON), res.GlobalScore, StatusCompleted, time.Now().Unix(), id)
	if err != nil {
		return err
	}
	n, err := r.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either the row is missing or it is already scored.
		if _, err := s.GetAssessment(ctx, id); err != nil {
			return err
		}
		return ErrAlreadyScored
	}
	return nil
}

func (s *SQLStore) SaveSSN(ctx context.Context, id string, ssn float64, band stats.Band, percentile int) error {
	r, err := s.db.ExecContext(ctx,
		`UPDATE assessments SET ssn=$1, band=$2, percentile=$3 WHERE id=$4`,
		ssn, string(band), percentile, id)
	if err != nil {
		return err
	}
	n, err := r.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) CompletedScores(ctx context.Context, subject stats.Subject, version string) ([]float64, error) {
	rows, err := s.queryCohort(ctx, `SELECT global_score FROM assessments`, subject, version)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var v sql.NullFloat64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		if v.Valid {
			out = append(out, v.Float64)
		}
	}
	return out, rows.Err()
}

func (s *SQLStore) ListCompleted(ctx context.Context, subject stats.Subject, version string) ([]Assessment, error) {
	rows, err := s.queryCohort(ctx, `SELECT id FROM assessments`, subject, version)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]Assessment, 0, len(ids))
	for _, id := range ids {
		a, err := s.GetAssessment(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *SQLStore) queryCohort(ctx context.Context, sel string, subject stats.Subject, version string) (*sql.Rows, error) {
	if version == "" {
		return s.db.QueryContext(ctx,
			sel+` WHERE subject=$1 AND status=$2 AND global_score IS NOT NULL`,
			string(subject), StatusCompleted)
	}
	return s.db.QueryContext(ctx,
		sel+` WHERE subject=$1 AND status=$2 AND version=$3 AND global_score IS NOT NULL`,
		string(subject), StatusCompleted, version)
}

func (s *SQLStore) SubjectSSNs(ctx context.Context, studentID string) (map[stats.Subject]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT subject, ssn, submitted_at FROM assessments
		 WHERE student_id=$1 AND ssn IS NOT NULL
		 ORDER BY submitted_at`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// Later rows overwrite earlier ones: latest SSN per subject wins.
	out := map[stats.Subject]float64{}
	for rows.Next() {
		var subject string
		var ssn float64
		var submittedAt sql.NullInt64
		if err := rows.Scan(&subject, &ssn, &submittedAt); err != nil {
			return nil, err
		}
		out[stats.Subject(subject)] = ssn
	}
	return out, rows.Err()
}

func (s *SQLStore) SaveComposite(ctx context.Context, studentID string, idx stats.CompositeIndex) error {
	components, err := json.Marshal(idx.Components)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO composites (student_id, value, subject_count, components_json, computed_at)
		 VALUES ($1,$2,$3,$4,$5)
		 ON CONFLICT (student_id) DO UPDATE SET
		   value=EXCLUDED.value, subject_count=EXCLUDED.subject_count,
		   components_json=EXCLUDED.components_json, computed_at=EXCLUDED.computed_at`,
		studentID, idx.Value, idx.SubjectCount, string(components), time.Now().Unix())
	return err
}

func (s *SQLStore) AppendProgression(ctx context.Context, studentID string, ssn float64, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO progression_history (id, student_id, ssn, recorded_at) VALUES ($1,$2,$3,$4)`,
		uuid.NewString(), studentID, ssn, at.Unix())
	return err
}
