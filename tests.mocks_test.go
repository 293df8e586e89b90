package main

import (
	"context"
	"time"
)

// MockBookStorage mocks the book storage with functions fields.
type MockBookStorage struct {
	AddFunc    func(ctx context.Context, id string, book Book) error
	GetOneFunc func(ctx context.Context, id string) (Book, error)
	UpdateFunc func(ctx context.Context, id string, book Book) (Book, error)
	DeleteFunc func(ctx context.Context, id string) error
	GetAllFunc func(ctx context.Context) ([]Book, error)
}

// Add mocks the behavior of book creation by the repository.
func (m *MockBookStorage) Add(ctx context.Context, id string, book Book) error {
	return m.AddFunc(ctx, id, book)
}

// GetOne mocks the behavior of retrieving a book by the repository.
func (m *MockBookStorage) GetOne(ctx context.Context, id string) (Book, error) {
	return m.GetOneFunc(ctx, id)
}

// Update mocks the behavior of updating a book by the repository.
func (m *MockBookStorage) Update(ctx context.Context, id string, book Book) (Book, error) {
	return m.UpdateFunc(ctx, id, book)
}

// Delete mocks the behavior of deleting a book by the repository.
func (m *MockBookStorage) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}

// GetAll mocks the behavior of retrieving all books by the repository.
func (m *MockBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	return m.GetAllFunc(ctx)
}

// MockQueuer mocks the events queue.
type MockQueuer struct {
	PushFunc func(ctx context.Context, qid string, event BookEvent) error
	PopFunc  func(ctx context.Context, qids ...string) (string, BookEvent, error)
}

func (m *MockQueuer) Push(ctx context.Context, qid string, event BookEvent) error {
	return m.PushFunc(ctx, qid, event)
}

func (m *MockQueuer) Pop(ctx context.Context, qids ...string) (string, BookEvent, error) {
	return m.PopFunc(ctx, qids...)
}

// MockEventArchive mocks the events archive.
type MockEventArchive struct {
	AppendFunc func(ctx context.Context, event BookEvent) (uint64, error)
	GetAllFunc func(ctx context.Context) ([]BookEvent, error)
}

func (m *MockEventArchive) Append(ctx context.Context, event BookEvent) (uint64, error) {
	return m.AppendFunc(ctx, event)
}

func (m *MockEventArchive) GetAll(ctx context.Context) ([]BookEvent, error) {
	return m.GetAllFunc(ctx)
}

// MockClocker returns a fixed time which can be moved forward.
type MockClocker struct {
	now time.Time
}

// NewMockClocker provides a clock fixed at 2023-07-01 20:19:10.760 UTC.
func NewMockClocker() *MockClocker {
	return &MockClocker{now: time.Date(2023, 7, 1, 20, 19, 10, 760000000, time.UTC)}
}

func (mc *MockClocker) Now() time.Time {
	return mc.now
}

// Advance moves the clock forward by d.
func (mc *MockClocker) Advance(d time.Duration) {
	mc.now = mc.now.Add(d)
}

// MockUIDHandler returns a predefined id.
type MockUIDHandler struct {
	id    string
	valid bool
}

func NewMockUIDHandler(id string, valid bool) *MockUIDHandler {
	return &MockUIDHandler{id: id, valid: valid}
}

func (m *MockUIDHandler) Generate(prefix string) string {
	return prefix + ":" + m.id
}

func (m *MockUIDHandler) IsValid(_, _ string) bool {
	return m.valid
}

// MockBookIDMaker returns the ids in sequence then fails with err if set.
type MockBookIDMaker struct {
	ids []string
	err error
}

func (m *MockBookIDMaker) NewBookID() (string, error) {
	if len(m.ids) == 0 {
		return "", m.err
	}
	id := m.ids[0]
	m.ids = m.ids[1:]
	return id, nil
}
