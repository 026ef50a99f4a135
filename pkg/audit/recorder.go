package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Recorder persists audit records to PostgreSQL.
type Recorder struct {
	db *sql.DB
}

// NewRecorder creates a database-backed recorder and ensures the
// audit_records table exists.
func NewRecorder(db *sql.DB) (*Recorder, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	recorder := &Recorder{db: db}
	if err := recorder.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure audit_records table: %w", err)
	}
	return recorder, nil
}

// ensureTable creates the audit_records table if it doesn't exist
func (r *Recorder) ensureTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS audit_records (
		id BIGSERIAL PRIMARY KEY,
		timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
		entity VARCHAR(100) NOT NULL,
		entity_id BIGINT NOT NULL,
		action VARCHAR(50) NOT NULL,
		actor_id BIGINT,
		actor_label VARCHAR(255) NOT NULL,
		request_id VARCHAR(100) NOT NULL,
		source VARCHAR(20) NOT NULL,
		extra JSONB,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	-- Create indexes for common query patterns
	CREATE INDEX IF NOT EXISTS idx_audit_records_timestamp ON audit_records(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_audit_records_entity ON audit_records(entity, entity_id);
	CREATE INDEX IF NOT EXISTS idx_audit_records_actor_id ON audit_records(actor_id);
	CREATE INDEX IF NOT EXISTS idx_audit_records_action ON audit_records(action);
	CREATE INDEX IF NOT EXISTS idx_audit_records_request_id ON audit_records(request_id);
	`

	_, err := r.db.Exec(query)
	return err
}

// Record inserts the given records in one multi-row statement. A batch
// mutation of N ids arrives here as N records sharing a request id.
func (r *Recorder) Record(ctx context.Context, records []*Record) error {
	if len(records) == 0 {
		return nil
	}

	const fieldCount = 9
	placeholders := make([]string, 0, len(records))
	args := make([]interface{}, 0, len(records)*fieldCount)

	for i, record := range records {
		var extraJSON []byte
		if record.Extra != nil {
			encoded, err := json.Marshal(record.Extra)
			if err != nil {
				return fmt.Errorf("failed to marshal extra: %w", err)
			}
			extraJSON = encoded
		}

		base := i * fieldCount
		placeholders = append(placeholders, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9))
		args = append(args,
			record.Timestamp, record.Entity, record.EntityID, record.Action,
			record.ActorID, record.ActorLabel, record.RequestID, record.Source,
			extraJSON)
	}

	query := `
		INSERT INTO audit_records (
			timestamp, entity, entity_id, action,
			actor_id, actor_label, request_id, source, extra
		) VALUES ` + strings.Join(placeholders, ", ")

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert audit records: %w", err)
	}
	return nil
}

// Search searches audit records based on filters
func (r *Recorder) Search(ctx context.Context, filter SearchFilter) ([]*Record, error) {
	query := `
		SELECT
			id, timestamp, entity, entity_id, action,
			actor_id, actor_label, request_id, source, extra
		FROM audit_records
		WHERE 1=1
	`

	args := []interface{}{}
	argCount := 1

	// Build WHERE clause based on filters
	if filter.StartTime != nil {
		query += fmt.Sprintf(" AND timestamp >= $%d", argCount)
		args = append(args, *filter.StartTime)
		argCount++
	}

	if filter.EndTime != nil {
		query += fmt.Sprintf(" AND timestamp <= $%d", argCount)
		args = append(args, *filter.EndTime)
		argCount++
	}

	if filter.Entity != "" {
		query += fmt.Sprintf(" AND entity = $%d", argCount)
		args = append(args, filter.Entity)
		argCount++
	}

	if filter.EntityID != nil {
		query += fmt.Sprintf(" AND entity_id = $%d", argCount)
		args = append(args, *filter.EntityID)
		argCount++
	}

	if len(filter.Actions) > 0 {
		query += fmt.Sprintf(" AND action = ANY($%d)", argCount)
		args = append(args, pq.Array(filter.Actions))
		argCount++
	}

	if filter.ActorID != nil {
		query += fmt.Sprintf(" AND actor_id = $%d", argCount)
		args = append(args, *filter.ActorID)
		argCount++
	}

	if filter.RequestID != "" {
		query += fmt.Sprintf(" AND request_id = $%d", argCount)
		args = append(args, filter.RequestID)
		argCount++
	}

	if filter.Source != "" {
		query += fmt.Sprintf(" AND source = $%d", argCount)
		args = append(args, filter.Source)
		argCount++
	}

	query += " ORDER BY timestamp DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, filter.Limit)
		argCount++
	}

	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argCount)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search audit records: %w", err)
	}
	defer rows.Close()

	records := make([]*Record, 0)
	for rows.Next() {
		record := &Record{}
		var extraJSON []byte

		err := rows.Scan(
			&record.ID, &record.Timestamp, &record.Entity, &record.EntityID, &record.Action,
			&record.ActorID, &record.ActorLabel, &record.RequestID, &record.Source, &extraJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}

		if len(extraJSON) > 0 {
			if err := json.Unmarshal(extraJSON, &record.Extra); err != nil {
				return nil, fmt.Errorf("failed to unmarshal extra: %w", err)
			}
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit records: %w", err)
	}

	return records, nil
}

// GetStats retrieves audit record statistics
func (r *Recorder) GetStats(ctx context.Context, startTime, endTime *time.Time) (*Stats, error) {
	stats := &Stats{
		RecordsByAction: make(map[string]int64),
		RecordsByEntity: make(map[string]int64),
	}

	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argCount := 1

	if startTime != nil {
		whereClause += fmt.Sprintf(" AND timestamp >= $%d", argCount)
		args = append(args, *startTime)
		argCount++
		if stats.TimeRange == nil {
			stats.TimeRange = &TimeRange{}
		}
		stats.TimeRange.Start = *startTime
	}

	if endTime != nil {
		whereClause += fmt.Sprintf(" AND timestamp <= $%d", argCount)
		args = append(args, *endTime)
		if stats.TimeRange == nil {
			stats.TimeRange = &TimeRange{}
		}
		stats.TimeRange.End = *endTime
	}

	// Total records
	err := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM audit_records %s", whereClause), args...).Scan(&stats.TotalRecords)
	if err != nil {
		return nil, fmt.Errorf("failed to get total records: %w", err)
	}

	// Records by action
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf("SELECT action, COUNT(*) FROM audit_records %s GROUP BY action", whereClause), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get records by action: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var action string
		var count int64
		if err := rows.Scan(&action, &count); err != nil {
			return nil, err
		}
		stats.RecordsByAction[action] = count
	}

	// Records by entity
	rows, err = r.db.QueryContext(ctx, fmt.Sprintf("SELECT entity, COUNT(*) FROM audit_records %s GROUP BY entity", whereClause), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get records by entity: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entity string
		var count int64
		if err := rows.Scan(&entity, &count); err != nil {
			return nil, err
		}
		stats.RecordsByEntity[entity] = count
	}

	// Unique actors
	err = r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(DISTINCT actor_id) FROM audit_records %s AND actor_id IS NOT NULL", whereClause), args...).Scan(&stats.UniqueActors)
	if err != nil {
		return nil, fmt.Errorf("failed to get unique actors: %w", err)
	}

	return stats, nil
}

// Close closes the recorder
func (r *Recorder) Close() error {
	// We don't close the database connection as it may be shared
	return nil
}
