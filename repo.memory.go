package main

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// memoryBookStorage keeps the catalog as an ordered list in process memory.
// All accesses go through a single lock.
type memoryBookStorage struct {
	logger *zap.Logger
	mu     sync.RWMutex
	books  []Book
}

// NewMemoryBookStorage provides an empty in-memory book storage.
func NewMemoryBookStorage(logger *zap.Logger) BookStorage {
	return &memoryBookStorage{
		logger: logger,
		books:  []Book{},
	}
}

// indexOf returns the position of the book with the given id or -1.
// Callers must hold the lock.
func (ms *memoryBookStorage) indexOf(id string) int {
	for i := range ms.books {
		if ms.books[i].ID == id {
			return i
		}
	}
	return -1
}

// Add appends a new book record at the end of the list.
func (ms *memoryBookStorage) Add(_ context.Context, id string, book Book) error {
	book.ID = id
	ms.mu.Lock()
	ms.books = append(ms.books, book)
	ms.mu.Unlock()
	return nil
}

// GetOne retrieves the first book record with the given id.
func (ms *memoryBookStorage) GetOne(_ context.Context, id string) (Book, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	i := ms.indexOf(id)
	if i == -1 {
		return Book{}, ErrBookNotFound
	}
	return ms.books[i], nil
}

// Update replaces in place the record with the given id. The stored id
// and insertion time are kept whatever the provided book contains.
func (ms *memoryBookStorage) Update(_ context.Context, id string, book Book) (Book, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	i := ms.indexOf(id)
	if i == -1 {
		return Book{}, ErrBookNotFound
	}
	book.ID = ms.books[i].ID
	book.InsertedAt = ms.books[i].InsertedAt
	ms.books[i] = book
	return book, nil
}

// Delete removes the record with the given id and keeps the others ordered.
func (ms *memoryBookStorage) Delete(_ context.Context, id string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	i := ms.indexOf(id)
	if i == -1 {
		return ErrBookNotFound
	}
	ms.books = append(ms.books[:i], ms.books[i+1:]...)
	return nil
}

// GetAll returns a copy of all records in insertion order.
func (ms *memoryBookStorage) GetAll(_ context.Context) ([]Book, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	books := make([]Book, len(ms.books))
	copy(books, ms.books)
	return books, nil
}
