// Package storetest provides an in-memory repository.Store for service
// tests. It mirrors the Postgres repository's semantics closely enough to
// exercise the transition protocol: version checks, open-task bookkeeping,
// and org scoping all behave like the real thing.
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"rooftrack_backend/internal/contacts/domain"
	"rooftrack_backend/internal/contacts/repository"

	"github.com/google/uuid"
)

type Store struct {
	mu       sync.Mutex
	contacts map[uuid.UUID]*domain.Contact
	tasks    map[uuid.UUID]*domain.Task
	notes    []domain.Note
	files    map[uuid.UUID]*domain.ContactFile
	stages   map[uuid.UUID][]domain.Stage
	settings map[uuid.UUID]domain.ScheduleSettings

	// Hooks let tests inject failures for specific operations.
	CreateTaskErr error
	CreateNoteErr error
}

func New() *Store {
	return &Store{
		contacts: make(map[uuid.UUID]*domain.Contact),
		tasks:    make(map[uuid.UUID]*domain.Task),
		files:    make(map[uuid.UUID]*domain.ContactFile),
		stages:   make(map[uuid.UUID][]domain.Stage),
		settings: make(map[uuid.UUID]domain.ScheduleSettings),
	}
}

var _ repository.Store = (*Store)(nil)

// =====================================
// Seeding helpers
// =====================================

// AddContact stores a contact as-is and returns it. Zero IDs are filled in.
func (s *Store) AddContact(c domain.Contact) domain.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Version == 0 {
		c.Version = 1
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	stored := c
	s.contacts[c.ID] = &stored
	return c
}

// AddTask stores a task as-is and returns it.
func (s *Store) AddTask(t domain.Task) domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = domain.TaskStatusPending
	}
	stored := t
	s.tasks[t.ID] = &stored
	return t
}

// SetSettings stores schedule settings for an organization.
func (s *Store) SetSettings(settings domain.ScheduleSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[settings.OrganizationID] = settings
}

// Notes returns a copy of all timeline entries written so far.
func (s *Store) Notes() []domain.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Note(nil), s.notes...)
}

// OpenTaskCount counts open tasks for a contact.
func (s *Store) OpenTaskCount(contactID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, t := range s.tasks {
		if t.ContactID == contactID && t.Status.IsOpen() {
			count++
		}
	}
	return count
}

// =====================================
// ContactReader / ContactWriter
// =====================================

func (s *Store) GetContactByID(_ context.Context, id uuid.UUID, organizationID uuid.UUID) (domain.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contacts[id]
	if !ok || c.OrganizationID != organizationID || c.DeletedAt != nil {
		return domain.Contact{}, repository.ErrNotFound
	}
	return *c, nil
}

func (s *Store) ListContacts(_ context.Context, params repository.ListContactsParams) ([]domain.Contact, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Contact
	for _, c := range s.contacts {
		if c.OrganizationID != params.OrganizationID || c.DeletedAt != nil {
			continue
		}
		if params.StageName != nil && c.StageName != *params.StageName {
			continue
		}
		if params.Search != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(params.Search)) {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StageOrder != out[j].StageOrder {
			return out[i].StageOrder < out[j].StageOrder
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, len(out), nil
}

func (s *Store) CreateContact(_ context.Context, params repository.CreateContactParams) (domain.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	c := domain.Contact{
		ID:             uuid.New(),
		OrganizationID: params.OrganizationID,
		Name:           params.Name,
		Email:          params.Email,
		Phone:          params.Phone,
		Address:        params.Address,
		StageID:        params.StageID,
		StageName:      params.StageName,
		StageOrder:     params.StageOrder,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	stored := c
	s.contacts[c.ID] = &stored
	return c, nil
}

func (s *Store) UpdateContactStage(_ context.Context, id uuid.UUID, organizationID uuid.UUID, expectedVersion int64, update repository.StageUpdate) (domain.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contacts[id]
	if !ok || c.OrganizationID != organizationID || c.DeletedAt != nil {
		return domain.Contact{}, repository.ErrNotFound
	}
	if c.Version != expectedVersion {
		return domain.Contact{}, repository.ErrStaleContact
	}

	c.StageID = update.StageID
	c.StageName = update.StageName
	c.StageOrder = update.StageOrder
	c.Version++
	c.UpdatedAt = time.Now()

	if update.FirstMessageSentAt != nil {
		c.FirstMessageSentAt = update.FirstMessageSentAt
	}
	if update.QuoteSentAt != nil {
		c.QuoteSentAt = update.QuoteSentAt
	}
	if update.ClaimRecSentAt != nil {
		c.ClaimRecSentAt = update.ClaimRecSentAt
	}
	if update.PASentAt != nil {
		c.PASentAt = update.PASentAt
	}
	if update.QuoteType != nil {
		c.QuoteType = update.QuoteType
	}
	if update.Carrier != nil {
		c.Carrier = update.Carrier
	}
	if update.DateOfLoss != nil {
		c.DateOfLoss = update.DateOfLoss
	}
	if update.PolicyNumber != nil {
		c.PolicyNumber = update.PolicyNumber
	}
	if update.ClaimNumber != nil {
		c.ClaimNumber = update.ClaimNumber
	}
	if update.JobStatus != nil {
		c.JobStatus = update.JobStatus
	}
	if update.JobDate != nil {
		c.JobDate = update.JobDate
	}
	if update.AppointmentTime != nil {
		c.AppointmentTime = update.AppointmentTime
	}
	if update.SeasonalReminderDate != nil {
		c.SeasonalReminderDate = update.SeasonalReminderDate
	}
	return *c, nil
}

func (s *Store) IncrementFollowUpCount(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.contacts[id]; ok {
		c.FollowUpCount++
	}
	return nil
}

func (s *Store) DeleteContact(_ context.Context, id uuid.UUID, organizationID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contacts[id]
	if !ok || c.OrganizationID != organizationID || c.DeletedAt != nil {
		return repository.ErrNotFound
	}
	now := time.Now()
	c.DeletedAt = &now
	return nil
}

// =====================================
// TaskReader / TaskWriter
// =====================================

func (s *Store) GetTaskByID(_ context.Context, id uuid.UUID, organizationID uuid.UUID) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || t.OrganizationID != organizationID {
		return domain.Task{}, repository.ErrTaskNotFound
	}
	return *t, nil
}

func (s *Store) ListOpenTasks(_ context.Context, contactID uuid.UUID) ([]domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Task
	for _, t := range s.tasks {
		if t.ContactID == contactID && t.Status.IsOpen() {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (s *Store) ListTasksDueBy(_ context.Context, organizationID uuid.UUID, dueBy time.Time) ([]domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Task
	for _, t := range s.tasks {
		if t.OrganizationID == organizationID && t.Status.IsOpen() && !t.DueDate.After(dueBy) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (s *Store) ListContactsWithoutOpenTasks(_ context.Context, organizationID *uuid.UUID) ([]domain.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	open := make(map[uuid.UUID]bool)
	for _, t := range s.tasks {
		if t.Status.IsOpen() {
			open[t.ContactID] = true
		}
	}
	var out []domain.Contact
	for _, c := range s.contacts {
		if c.DeletedAt != nil || open[c.ID] {
			continue
		}
		if organizationID != nil && c.OrganizationID != *organizationID {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (s *Store) CreateTask(_ context.Context, params repository.CreateTaskParams) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateTaskErr != nil {
		return domain.Task{}, s.CreateTaskErr
	}
	priority := params.Priority
	if priority == "" {
		priority = domain.PriorityNormal
	}
	now := time.Now()
	t := domain.Task{
		ID:              uuid.New(),
		ContactID:       params.ContactID,
		OrganizationID:  params.OrganizationID,
		Type:            params.Type,
		Title:           params.Title,
		Status:          domain.TaskStatusPending,
		DueDate:         params.DueDate,
		AppointmentTime: params.AppointmentTime,
		Priority:        priority,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	stored := t
	s.tasks[t.ID] = &stored
	return t, nil
}

func (s *Store) CancelOpenTasks(_ context.Context, contactID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	count := 0
	for _, t := range s.tasks {
		if t.ContactID == contactID && t.Status.IsOpen() {
			t.Status = domain.TaskStatusCancelled
			t.CancelledAt = &now
			count++
		}
	}
	return count, nil
}

func (s *Store) StartTask(_ context.Context, id uuid.UUID, organizationID uuid.UUID) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || t.OrganizationID != organizationID || t.Status != domain.TaskStatusPending {
		return domain.Task{}, repository.ErrTaskNotFound
	}
	t.Status = domain.TaskStatusInProgress
	t.UpdatedAt = time.Now()
	return *t, nil
}

func (s *Store) CompleteTask(_ context.Context, id uuid.UUID, organizationID uuid.UUID) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || t.OrganizationID != organizationID || !t.Status.IsOpen() {
		return domain.Task{}, repository.ErrTaskNotFound
	}
	now := time.Now()
	t.Status = domain.TaskStatusCompleted
	t.CompletedAt = &now
	return *t, nil
}

func (s *Store) RescheduleTask(_ context.Context, id uuid.UUID, organizationID uuid.UUID, dueDate time.Time) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || t.OrganizationID != organizationID || !t.Status.IsOpen() {
		return domain.Task{}, repository.ErrTaskNotFound
	}
	t.DueDate = dueDate
	t.UpdatedAt = time.Now()
	return *t, nil
}

func (s *Store) RescheduleTasks(_ context.Context, ids []uuid.UUID, organizationID uuid.UUID, dueDate time.Time) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var updated []uuid.UUID
	for _, id := range ids {
		t, ok := s.tasks[id]
		if !ok || t.OrganizationID != organizationID || !t.Status.IsOpen() {
			continue
		}
		t.DueDate = dueDate
		t.UpdatedAt = time.Now()
		updated = append(updated, id)
	}
	return updated, nil
}

// =====================================
// NoteStore / FileStore
// =====================================

func (s *Store) CreateNote(_ context.Context, params repository.CreateNoteParams) (domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateNoteErr != nil {
		return domain.Note{}, s.CreateNoteErr
	}
	note := domain.Note{
		ID:        uuid.New(),
		ContactID: params.ContactID,
		AuthorID:  params.AuthorID,
		Category:  params.Category,
		Body:      params.Body,
		CreatedAt: time.Now(),
	}
	s.notes = append(s.notes, note)
	return note, nil
}

func (s *Store) ListNotes(_ context.Context, contactID uuid.UUID, limit int) ([]domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Note
	for i := len(s.notes) - 1; i >= 0; i-- {
		if s.notes[i].ContactID == contactID {
			out = append(out, s.notes[i])
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (s *Store) CreateFile(_ context.Context, params repository.CreateFileParams) (domain.ContactFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := domain.ContactFile{
		ID:           uuid.New(),
		ContactID:    params.ContactID,
		FileName:     params.FileName,
		ContentType:  params.ContentType,
		SizeBytes:    params.SizeBytes,
		IsPADocument: params.IsPADocument,
		UploadedBy:   params.UploadedBy,
		CreatedAt:    time.Now(),
	}
	stored := f
	s.files[f.ID] = &stored
	return f, nil
}

func (s *Store) GetFileByID(_ context.Context, id uuid.UUID, contactID uuid.UUID) (domain.ContactFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok || f.ContactID != contactID {
		return domain.ContactFile{}, repository.ErrFileNotFound
	}
	return *f, nil
}

func (s *Store) ListFiles(_ context.Context, contactID uuid.UUID) ([]domain.ContactFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ContactFile
	for _, f := range s.files {
		if f.ContactID == contactID {
			out = append(out, *f)
		}
	}
	return out, nil
}

// =====================================
// StageStore / SettingsReader
// =====================================

func (s *Store) GetStageByName(_ context.Context, organizationID uuid.UUID, name domain.StageName) (domain.Stage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.stages[organizationID] {
		if st.Name == name {
			return st, nil
		}
	}
	return domain.Stage{}, repository.ErrStageNotFound
}

func (s *Store) ListStages(_ context.Context, organizationID uuid.UUID) ([]domain.Stage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]domain.Stage(nil), s.stages[organizationID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (s *Store) SeedStages(_ context.Context, organizationID uuid.UUID, stages []domain.Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := make(map[domain.StageName]bool)
	for _, st := range s.stages[organizationID] {
		existing[st.Name] = true
	}
	for _, st := range stages {
		if existing[st.Name] {
			continue
		}
		if st.ID == uuid.Nil {
			st.ID = uuid.New()
		}
		st.OrganizationID = organizationID
		s.stages[organizationID] = append(s.stages[organizationID], st)
	}
	return nil
}

func (s *Store) CountStages(_ context.Context, organizationID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stages[organizationID]), nil
}

func (s *Store) GetScheduleSettings(_ context.Context, organizationID uuid.UUID) (domain.ScheduleSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if settings, ok := s.settings[organizationID]; ok {
		return settings, nil
	}
	return domain.ScheduleSettings{OrganizationID: organizationID}, nil
}

// WithinTx runs fn against the same store. The in-memory fake has no
// rollback; tests assert on end state only.
func (s *Store) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	return fn(s)
}
