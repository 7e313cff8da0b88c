package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Event types appended by the orchestration layer.
const (
	TypeAssessmentScored = "AssessmentScored"
	TypeSSNComputed      = "SSNComputed"
	TypeCohortRecomputed = "CohortRecomputed"
	TypeCompositeWritten = "CompositeWritten"
)

type Event struct {
	Offset    int64
	Type      string
	Key       string
	DataJSON  string
	CreatedAt int64
}

// EventRepo is an append-only log for drift monitoring and audits.
type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// Append records an event. payload is marshalled to JSON; a nil payload
// stores an empty object.
func (r *EventRepo) Append(ctx context.Context, typ, key string, payload any) error {
	data := "{}"
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		data = string(buf)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4)`,
		typ, key, data, time.Now().Unix())
	return err
}
