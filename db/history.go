package db

// history.go contains the SQL for the build_history table. Raw SQL keeps the
// query layer explicit and auditable; there are four queries, which is no
// place for an ORM.

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sasta-kro/dockyard/models"
)

// Attempt statuses. An attempt is "running" from RecordStart until
// RecordResult closes it out.
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// RecordStart inserts a new running attempt and returns its row id, which
// the scheduler holds for the matching RecordResult call.
func (h *History) RecordStart(slug string, kind models.JobKind, commitSHA string) (int64, error) {
	res, err := h.conn.Exec(
		`INSERT INTO build_history (slug, kind, commit_sha, status, started_at)
		 VALUES (?, ?, ?, ?, ?)`,
		slug, string(kind), commitSHA, StatusRunning, time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record build start for %q: %w", slug, err)
	}
	return res.LastInsertId()
}

// RecordResult closes out an attempt. errMsg is empty on success.
func (h *History) RecordResult(id int64, errMsg string) error {
	status := StatusSuccess
	if errMsg != "" {
		status = StatusFailed
	}
	_, err := h.conn.Exec(
		`UPDATE build_history SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		status, errMsg, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to record build result: %w", err)
	}
	return nil
}

// LastError returns the error message of the most recent attempt for a slug,
// or "" when the most recent attempt succeeded, is still running, or no
// attempt exists. This is what makes a never-built project distinguishable
// from a cleanly stopped one in status output.
func (h *History) LastError(slug string) (string, error) {
	var status, errMsg string
	err := h.conn.QueryRow(
		`SELECT status, error FROM build_history WHERE slug = ? ORDER BY id DESC LIMIT 1`,
		slug,
	).Scan(&status, &errMsg)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query last error for %q: %w", slug, err)
	}
	if status != StatusFailed {
		return "", nil
	}
	return errMsg, nil
}

// Recent returns up to n attempts for a slug, newest first.
func (h *History) Recent(slug string, n int) ([]models.HistoryEntry, error) {
	rows, err := h.conn.Query(
		`SELECT id, slug, kind, commit_sha, status, error, started_at, finished_at
		 FROM build_history WHERE slug = ? ORDER BY id DESC LIMIT ?`,
		slug, n,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query history for %q: %w", slug, err)
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	for rows.Next() {
		var entry models.HistoryEntry
		var startedAt time.Time
		var finishedAt sql.NullTime
		if err := rows.Scan(&entry.ID, &entry.Slug, &entry.Kind, &entry.CommitSHA,
			&entry.Status, &entry.Error, &startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		entry.StartedAt = startedAt.UTC().Format(time.RFC3339)
		if finishedAt.Valid {
			formatted := finishedAt.Time.UTC().Format(time.RFC3339)
			entry.FinishedAt = &formatted
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Purge deletes every attempt for a slug. Called when the project itself is
// deleted.
func (h *History) Purge(slug string) error {
	_, err := h.conn.Exec(`DELETE FROM build_history WHERE slug = ?`, slug)
	if err != nil {
		return fmt.Errorf("failed to purge history for %q: %w", slug, err)
	}
	return nil
}
