package repository

import (
	"context"

	"rooftrack_backend/internal/contacts/domain"

	"github.com/google/uuid"
)

// Timeline note bodies are composed from these templates so the feed reads
// consistently regardless of which code path wrote the entry.
const (
	NoteStageChanged       = "Stage changed from %s to %s"
	NoteAppointmentBooked  = "Inspection scheduled for %s"
	NoteClaimInfoRecorded  = "Claim recorded: carrier %s, date of loss %s"
	NoteTaskCompletedBody  = "Task completed: %s"
	NoteTaskRescheduled    = "Task %q rescheduled to %s"
	NoteTaskRestored       = "Workflow task restored by reconciliation: %s"
	NoteArtifactSent       = "%s sent"
	NoteJobStatusChanged   = "Job status changed to %s"
	NotePADocumentUploaded = "PA document uploaded: %s"
)

type CreateNoteParams struct {
	ContactID uuid.UUID
	AuthorID  *uuid.UUID
	Category  domain.NoteCategory
	Body      string
}

func (r *Repository) CreateNote(ctx context.Context, params CreateNoteParams) (domain.Note, error) {
	var note domain.Note
	err := r.db.QueryRow(ctx, `
		INSERT INTO contact_notes (contact_id, author_id, category, body)
		VALUES ($1, $2, $3, $4)
		RETURNING id, contact_id, author_id, category, body, created_at
	`, params.ContactID, params.AuthorID, params.Category, params.Body).Scan(
		&note.ID, &note.ContactID, &note.AuthorID, &note.Category, &note.Body, &note.CreatedAt,
	)
	return note, err
}

func (r *Repository) ListNotes(ctx context.Context, contactID uuid.UUID, limit int) ([]domain.Note, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, contact_id, author_id, category, body, created_at
		FROM contact_notes
		WHERE contact_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, contactID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]domain.Note, 0)
	for rows.Next() {
		var note domain.Note
		if err := rows.Scan(&note.ID, &note.ContactID, &note.AuthorID, &note.Category, &note.Body, &note.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}
