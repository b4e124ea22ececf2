package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// LogAgent appends an agent audit record
func (db *DB) LogAgent(ctx context.Context, l *AgentLog) error {
	err := db.pool.QueryRow(ctx,
		`INSERT INTO agent_logs (agent_type, session_id, input_summary, output_summary, processing_time_ms)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		l.AgentType, l.SessionID, l.InputSummary, l.OutputSummary, l.ProcessingTimeMs,
	).Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to write agent log: %w", err)
	}
	return nil
}

// ListAgentLogs retrieves the audit records of a session, oldest first
func (db *DB) ListAgentLogs(ctx context.Context, sessionID uuid.UUID) ([]AgentLog, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, agent_type, session_id, input_summary, output_summary, processing_time_ms, created_at
		 FROM agent_logs WHERE session_id = $1 ORDER BY created_at ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list agent logs: %w", err)
	}
	defer rows.Close()

	var logs []AgentLog
	for rows.Next() {
		var l AgentLog
		if err := rows.Scan(&l.ID, &l.AgentType, &l.SessionID, &l.InputSummary, &l.OutputSummary,
			&l.ProcessingTimeMs, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan agent log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
