package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zombar/writecoach/internal/models"
)

// SaveDocument inserts or replaces a stored document and its report
func (db *DB) SaveDocument(doc *models.Document) error {
	reportJSON, err := json.Marshal(doc.Report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	_, err = db.conn.Exec(`
		INSERT INTO documents (id, text, style, report, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			style = excluded.style,
			report = excluded.report,
			updated_at = excluded.updated_at
	`, doc.ID, doc.Text, doc.Style, reportJSON, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	return nil
}

// GetDocument retrieves a document by ID
func (db *DB) GetDocument(id string) (*models.Document, error) {
	var (
		text       string
		style      string
		reportJSON string
		createdAt  time.Time
		updatedAt  time.Time
	)

	err := db.conn.QueryRow(`
		SELECT text, style, report, created_at, updated_at
		FROM documents
		WHERE id = ?
	`, id).Scan(&text, &style, &reportJSON, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	var report models.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}

	return &models.Document{
		ID:        id,
		Text:      text,
		Style:     style,
		Report:    report,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// ListDocuments retrieves stored documents with pagination, newest first
func (db *DB) ListDocuments(limit, offset int) ([]*models.Document, error) {
	rows, err := db.conn.Query(`
		SELECT id, text, style, report, created_at, updated_at
		FROM documents
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var documents []*models.Document
	for rows.Next() {
		var (
			id         string
			text       string
			style      string
			reportJSON string
			createdAt  time.Time
			updatedAt  time.Time
		)

		if err := rows.Scan(&id, &text, &style, &reportJSON, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		var report models.Report
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			return nil, fmt.Errorf("failed to unmarshal report: %w", err)
		}

		documents = append(documents, &models.Document{
			ID:        id,
			Text:      text,
			Style:     style,
			Report:    report,
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return documents, nil
}

// DeleteDocument deletes a document by ID
func (db *DB) DeleteDocument(id string) error {
	result, err := db.conn.Exec("DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("document not found")
	}

	return nil
}

// SaveFeedback stores a feedback message and returns its assigned ID
func (db *DB) SaveFeedback(fb *models.Feedback) error {
	result, err := db.conn.Exec(`
		INSERT INTO feedback (name, email, message, created_at)
		VALUES (?, ?, ?, ?)
	`, fb.Name, fb.Email, fb.Message, fb.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get feedback id: %w", err)
	}
	fb.ID = id
	return nil
}

// ListFeedback retrieves feedback messages with pagination, newest first
func (db *DB) ListFeedback(limit, offset int) ([]*models.Feedback, error) {
	rows, err := db.conn.Query(`
		SELECT id, name, email, message, created_at
		FROM feedback
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	var feedback []*models.Feedback
	for rows.Next() {
		fb := &models.Feedback{}
		if err := rows.Scan(&fb.ID, &fb.Name, &fb.Email, &fb.Message, &fb.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		feedback = append(feedback, fb)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return feedback, nil
}
