package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rooftrack_backend/internal/contacts/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("contact not found")
	// ErrStaleContact means the optimistic version check failed: another
	// transition committed between our read and our write.
	ErrStaleContact = errors.New("contact was modified concurrently")
)

// querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, so every
// query method works identically inside and outside a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Repository struct {
	db   querier
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool, pool: pool}
}

// WithinTx runs fn against a repository bound to a single transaction. The
// four-step transition protocol runs under one of these so a failed step
// leaves no partial task mutation behind.
func (r *Repository) WithinTx(ctx context.Context, fn func(Store) error) error {
	if r.pool == nil {
		// Already inside a transaction; nesting reuses it.
		return fn(r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	txRepo := &Repository{db: tx}
	if err := fn(txRepo); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const contactColumns = `id, organization_id, name, email, phone, address,
	stage_id, stage_name, stage_order, version,
	first_message_sent_at, quote_sent_at, claim_rec_sent_at, pa_sent_at,
	quote_type, carrier, date_of_loss, policy_number, claim_number, job_status, job_date,
	appointment_time, seasonal_reminder_date, follow_up_count,
	created_at, updated_at, deleted_at`

func scanContact(row pgx.Row) (domain.Contact, error) {
	var c domain.Contact
	var jobStatus *string
	err := row.Scan(
		&c.ID, &c.OrganizationID, &c.Name, &c.Email, &c.Phone, &c.Address,
		&c.StageID, &c.StageName, &c.StageOrder, &c.Version,
		&c.FirstMessageSentAt, &c.QuoteSentAt, &c.ClaimRecSentAt, &c.PASentAt,
		&c.QuoteType, &c.Carrier, &c.DateOfLoss, &c.PolicyNumber, &c.ClaimNumber, &jobStatus, &c.JobDate,
		&c.AppointmentTime, &c.SeasonalReminderDate, &c.FollowUpCount,
		&c.CreatedAt, &c.UpdatedAt, &c.DeletedAt,
	)
	if err != nil {
		return domain.Contact{}, err
	}
	if jobStatus != nil {
		if parsed, ok := domain.ParseJobStatus(*jobStatus); ok {
			c.JobStatus = &parsed
		}
	}
	return c, nil
}

type CreateContactParams struct {
	OrganizationID uuid.UUID
	Name           string
	Email          *string
	Phone          string
	Address        string
	StageID        uuid.UUID
	StageName      domain.StageName
	StageOrder     int
}

func (r *Repository) CreateContact(ctx context.Context, params CreateContactParams) (domain.Contact, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO contacts (organization_id, name, email, phone, address, stage_id, stage_name, stage_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+contactColumns,
		params.OrganizationID, params.Name, params.Email, params.Phone, params.Address,
		params.StageID, params.StageName, params.StageOrder,
	)
	contact, err := scanContact(row)
	if err != nil {
		return domain.Contact{}, err
	}
	return contact, nil
}

func (r *Repository) GetContactByID(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) (domain.Contact, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
	`, id, organizationID)
	contact, err := scanContact(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Contact{}, ErrNotFound
	}
	return contact, err
}

type ListContactsParams struct {
	OrganizationID uuid.UUID
	StageName      *domain.StageName
	Search         string
	Limit          int
	Offset         int
}

func (r *Repository) ListContacts(ctx context.Context, params ListContactsParams) ([]domain.Contact, int, error) {
	where := []string{"organization_id = $1", "deleted_at IS NULL"}
	args := []any{params.OrganizationID}

	if params.StageName != nil {
		args = append(args, *params.StageName)
		where = append(where, fmt.Sprintf("stage_name = $%d", len(args)))
	}
	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR phone ILIKE $%d)", len(args), len(args)))
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM contacts WHERE "+whereClause, args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := params.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, params.Offset)
	rows, err := r.db.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM contacts
		WHERE %s
		ORDER BY stage_order ASC, created_at DESC
		LIMIT $%d OFFSET $%d
	`, contactColumns, whereClause, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	contacts := make([]domain.Contact, 0)
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, 0, err
		}
		contacts = append(contacts, contact)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}
	return contacts, total, nil
}

// StageUpdate carries the contact mutation of a stage transition. Fields left
// nil are not touched; the version check guards the whole write.
type StageUpdate struct {
	StageID    uuid.UUID
	StageName  domain.StageName
	StageOrder int

	FirstMessageSentAt   *time.Time
	QuoteSentAt          *time.Time
	ClaimRecSentAt       *time.Time
	PASentAt             *time.Time
	QuoteType            *string
	Carrier              *string
	DateOfLoss           *time.Time
	PolicyNumber         *string
	ClaimNumber          *string
	JobStatus            *domain.JobStatus
	JobDate              *time.Time
	AppointmentTime      *time.Time
	SeasonalReminderDate *time.Time
}

// UpdateContactStage applies a transition's contact mutation if and only if
// the stored version still matches expectedVersion, incrementing it. A zero
// rows-affected result distinguishes a lost race (ErrStaleContact) from a
// missing contact (ErrNotFound).
func (r *Repository) UpdateContactStage(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, expectedVersion int64, update StageUpdate) (domain.Contact, error) {
	set := []string{"stage_id = $4", "stage_name = $5", "stage_order = $6", "version = version + 1", "updated_at = NOW()"}
	args := []any{id, organizationID, expectedVersion, update.StageID, update.StageName, update.StageOrder}

	addSet := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if update.FirstMessageSentAt != nil {
		addSet("first_message_sent_at", *update.FirstMessageSentAt)
	}
	if update.QuoteSentAt != nil {
		addSet("quote_sent_at", *update.QuoteSentAt)
	}
	if update.ClaimRecSentAt != nil {
		addSet("claim_rec_sent_at", *update.ClaimRecSentAt)
	}
	if update.PASentAt != nil {
		addSet("pa_sent_at", *update.PASentAt)
	}
	if update.QuoteType != nil {
		addSet("quote_type", *update.QuoteType)
	}
	if update.Carrier != nil {
		addSet("carrier", *update.Carrier)
	}
	if update.DateOfLoss != nil {
		addSet("date_of_loss", *update.DateOfLoss)
	}
	if update.PolicyNumber != nil {
		addSet("policy_number", *update.PolicyNumber)
	}
	if update.ClaimNumber != nil {
		addSet("claim_number", *update.ClaimNumber)
	}
	if update.JobStatus != nil {
		addSet("job_status", string(*update.JobStatus))
	}
	if update.JobDate != nil {
		addSet("job_date", *update.JobDate)
	}
	if update.AppointmentTime != nil {
		addSet("appointment_time", *update.AppointmentTime)
	}
	if update.SeasonalReminderDate != nil {
		addSet("seasonal_reminder_date", *update.SeasonalReminderDate)
	}

	row := r.db.QueryRow(ctx, fmt.Sprintf(`
		UPDATE contacts SET %s
		WHERE id = $1 AND organization_id = $2 AND version = $3 AND deleted_at IS NULL
		RETURNING %s
	`, strings.Join(set, ", "), contactColumns), args...)

	contact, err := scanContact(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the contact is gone or the version moved under us.
		if _, getErr := r.GetContactByID(ctx, id, organizationID); errors.Is(getErr, ErrNotFound) {
			return domain.Contact{}, ErrNotFound
		}
		return domain.Contact{}, ErrStaleContact
	}
	return contact, err
}

// IncrementFollowUpCount bumps the informational follow-up cycle counter.
// No version check: the counter is advisory and never drives behavior.
func (r *Repository) IncrementFollowUpCount(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE contacts SET follow_up_count = follow_up_count + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteContact(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE contacts SET deleted_at = NOW()
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
	`, id, organizationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
