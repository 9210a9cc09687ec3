package repository

import (
	"context"
	"errors"
	"time"

	"rooftrack_backend/internal/contacts/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrTaskNotFound = errors.New("task not found")

const taskColumns = `id, contact_id, organization_id, task_type, title, status,
	due_date, appointment_time, priority,
	completed_at, cancelled_at, created_at, updated_at`

func scanTask(row pgx.Row) (domain.Task, error) {
	var t domain.Task
	err := row.Scan(
		&t.ID, &t.ContactID, &t.OrganizationID, &t.Type, &t.Title, &t.Status,
		&t.DueDate, &t.AppointmentTime, &t.Priority,
		&t.CompletedAt, &t.CancelledAt, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

type CreateTaskParams struct {
	ContactID       uuid.UUID
	OrganizationID  uuid.UUID
	Type            domain.TaskType
	Title           string
	DueDate         time.Time
	AppointmentTime *time.Time
	Priority        domain.TaskPriority
}

func (r *Repository) CreateTask(ctx context.Context, params CreateTaskParams) (domain.Task, error) {
	priority := params.Priority
	if priority == "" {
		priority = domain.PriorityNormal
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO tasks (contact_id, organization_id, task_type, title, status, due_date, appointment_time, priority)
		VALUES ($1, $2, $3, $4, 'PENDING', $5, $6, $7)
		RETURNING `+taskColumns,
		params.ContactID, params.OrganizationID, params.Type, params.Title,
		params.DueDate, params.AppointmentTime, priority,
	)
	return scanTask(row)
}

func (r *Repository) GetTaskByID(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) (domain.Task, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks WHERE id = $1 AND organization_id = $2
	`, id, organizationID)
	task, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Task{}, ErrTaskNotFound
	}
	return task, err
}

// CancelOpenTasks marks every open task of a contact cancelled in one
// statement. Step two of the transition protocol.
func (r *Repository) CancelOpenTasks(ctx context.Context, contactID uuid.UUID) (int, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE tasks SET status = 'CANCELLED', cancelled_at = NOW(), updated_at = NOW()
		WHERE contact_id = $1 AND status IN ('PENDING', 'IN_PROGRESS')
	`, contactID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// StartTask moves a pending task to IN_PROGRESS. Starting an already started
// task is a no-op handled by the status predicate.
func (r *Repository) StartTask(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) (domain.Task, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE tasks SET status = 'IN_PROGRESS', updated_at = NOW()
		WHERE id = $1 AND organization_id = $2 AND status = 'PENDING'
		RETURNING `+taskColumns,
		id, organizationID,
	)
	task, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Task{}, ErrTaskNotFound
	}
	return task, err
}

func (r *Repository) CompleteTask(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) (domain.Task, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE tasks SET status = 'COMPLETED', completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND organization_id = $2 AND status IN ('PENDING', 'IN_PROGRESS')
		RETURNING `+taskColumns,
		id, organizationID,
	)
	task, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Task{}, ErrTaskNotFound
	}
	return task, err
}

func (r *Repository) RescheduleTask(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, dueDate time.Time) (domain.Task, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE tasks SET due_date = $3, updated_at = NOW()
		WHERE id = $1 AND organization_id = $2 AND status IN ('PENDING', 'IN_PROGRESS')
		RETURNING `+taskColumns,
		id, organizationID, dueDate,
	)
	task, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Task{}, ErrTaskNotFound
	}
	return task, err
}

// RescheduleTasks moves many open tasks to one due date in a single
// statement and reports which ids were actually updated. Callers diff the
// result against the request to produce per-id outcomes.
func (r *Repository) RescheduleTasks(ctx context.Context, ids []uuid.UUID, organizationID uuid.UUID, dueDate time.Time) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `
		UPDATE tasks SET due_date = $3, updated_at = NOW()
		WHERE id = ANY($1) AND organization_id = $2 AND status IN ('PENDING', 'IN_PROGRESS')
		RETURNING id
	`, ids, organizationID, dueDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	updated := make([]uuid.UUID, 0, len(ids))
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		updated = append(updated, id)
	}
	return updated, rows.Err()
}

func (r *Repository) ListOpenTasks(ctx context.Context, contactID uuid.UUID) ([]domain.Task, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks WHERE contact_id = $1 AND status IN ('PENDING', 'IN_PROGRESS')
		ORDER BY due_date ASC
	`, contactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (r *Repository) ListTasksDueBy(ctx context.Context, organizationID uuid.UUID, dueBy time.Time) ([]domain.Task, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks WHERE organization_id = $1 AND status IN ('PENDING', 'IN_PROGRESS') AND due_date <= $2
		ORDER BY priority DESC, due_date ASC
	`, organizationID, dueBy)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// ListContactsWithoutOpenTasks finds non-deleted contacts that have zero open
// tasks. When organizationID is nil the scan covers every organization. The
// reconciliation sweeper feeds on this query.
func (r *Repository) ListContactsWithoutOpenTasks(ctx context.Context, organizationID *uuid.UUID) ([]domain.Contact, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+contactColumns+`
		FROM contacts c
		WHERE c.deleted_at IS NULL
		  AND ($1::uuid IS NULL OR c.organization_id = $1)
		  AND NOT EXISTS (
			SELECT 1 FROM tasks t
			WHERE t.contact_id = c.id AND t.status IN ('PENDING', 'IN_PROGRESS')
		  )
		ORDER BY c.created_at ASC
	`, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := make([]domain.Contact, 0)
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, contact)
	}
	return contacts, rows.Err()
}
