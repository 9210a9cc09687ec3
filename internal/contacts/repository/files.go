package repository

import (
	"context"
	"errors"

	"rooftrack_backend/internal/contacts/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrFileNotFound = errors.New("file not found")

type CreateFileParams struct {
	ContactID    uuid.UUID
	FileName     string
	ContentType  string
	SizeBytes    int64
	IsPADocument bool
	UploadedBy   *uuid.UUID
}

func (r *Repository) CreateFile(ctx context.Context, params CreateFileParams) (domain.ContactFile, error) {
	var f domain.ContactFile
	err := r.db.QueryRow(ctx, `
		INSERT INTO contact_files (contact_id, file_name, content_type, size_bytes, is_pa_document, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, contact_id, file_name, content_type, size_bytes, is_pa_document, uploaded_by, created_at
	`, params.ContactID, params.FileName, params.ContentType, params.SizeBytes, params.IsPADocument, params.UploadedBy).Scan(
		&f.ID, &f.ContactID, &f.FileName, &f.ContentType, &f.SizeBytes, &f.IsPADocument, &f.UploadedBy, &f.CreatedAt,
	)
	return f, err
}

func (r *Repository) GetFileByID(ctx context.Context, id uuid.UUID, contactID uuid.UUID) (domain.ContactFile, error) {
	var f domain.ContactFile
	err := r.db.QueryRow(ctx, `
		SELECT id, contact_id, file_name, content_type, size_bytes, is_pa_document, uploaded_by, created_at
		FROM contact_files
		WHERE id = $1 AND contact_id = $2
	`, id, contactID).Scan(
		&f.ID, &f.ContactID, &f.FileName, &f.ContentType, &f.SizeBytes, &f.IsPADocument, &f.UploadedBy, &f.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ContactFile{}, ErrFileNotFound
	}
	return f, err
}

func (r *Repository) ListFiles(ctx context.Context, contactID uuid.UUID) ([]domain.ContactFile, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, contact_id, file_name, content_type, size_bytes, is_pa_document, uploaded_by, created_at
		FROM contact_files
		WHERE contact_id = $1
		ORDER BY created_at DESC
	`, contactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files := make([]domain.ContactFile, 0)
	for rows.Next() {
		var f domain.ContactFile
		if err := rows.Scan(&f.ID, &f.ContactID, &f.FileName, &f.ContentType, &f.SizeBytes, &f.IsPADocument, &f.UploadedBy, &f.CreatedAt); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}
