package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

type BookServiceProvider interface {
	Add(ctx context.Context, book Book) (string, error)
	GetOne(ctx context.Context, id string) (Book, error)
	Update(ctx context.Context, id string, book Book) (Book, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter BookFilter) ([]BookSummary, error)
}

type BookService struct {
	logger  *zap.Logger
	config  *Config
	clock   Clocker
	ids     BookIDMaker
	storage BookStorage
	queue   Queuer
}

func NewBookService(logger *zap.Logger, config *Config, clock Clocker, ids BookIDMaker, storage BookStorage, queue Queuer) BookServiceProvider {
	if queue == nil {
		queue = NewNopQueue()
	}
	return &BookService{
		logger:  logger,
		config:  config,
		clock:   clock,
		ids:     ids,
		storage: storage,
		queue:   queue,
	}
}

// publish pushes a change event. A failure to publish never fails the operation.
func (bs *BookService) publish(ctx context.Context, qid string, id string, book *Book) {
	event := BookEvent{
		Kind:       qid,
		BookID:     id,
		Book:       book,
		OccurredAt: FormatTimestamp(bs.clock.Now()),
	}
	if err := bs.queue.Push(ctx, qid, event); err != nil {
		bs.logger.Error("service: failed to push event to queue", zap.String("qid", qid), zap.String("book.id", id), zap.Error(err))
	}
}

// Add assigns an id and timestamps to the book then stores it. The record is
// looked up right after insertion and ErrBookNotInserted is returned if it
// cannot be found.
func (bs *BookService) Add(ctx context.Context, book Book) (string, error) {
	id, err := bs.ids.NewBookID()
	if err != nil {
		return "", fmt.Errorf("service: failed to generate book id: %w", err)
	}

	now := FormatTimestamp(bs.clock.Now())
	book.ID = id
	book.InsertedAt = now
	book.UpdatedAt = now
	book.Finished = book.PageCount == book.ReadPage

	if err = bs.storage.Add(ctx, id, book); err != nil {
		return "", err
	}

	if _, err = bs.storage.GetOne(ctx, id); err != nil {
		if errors.Is(err, ErrBookNotFound) {
			return "", ErrBookNotInserted
		}
		return "", err
	}

	bs.publish(ctx, CreateQueue, id, &book)
	return id, nil
}

func (bs *BookService) GetOne(ctx context.Context, id string) (Book, error) {
	return bs.storage.GetOne(ctx, id)
}

// Update replaces the mutable fields of an existing book and refreshes its
// update time. The id and insertion time are kept by the storage.
func (bs *BookService) Update(ctx context.Context, id string, book Book) (Book, error) {
	book.Finished = book.PageCount == book.ReadPage
	book.UpdatedAt = FormatTimestamp(bs.clock.Now())
	updated, err := bs.storage.Update(ctx, id, book)
	if err != nil {
		return updated, err
	}
	bs.publish(ctx, UpdateQueue, id, &updated)
	return updated, nil
}

func (bs *BookService) Delete(ctx context.Context, id string) error {
	if err := bs.storage.Delete(ctx, id); err != nil {
		return err
	}
	bs.publish(ctx, DeleteQueue, id, nil)
	return nil
}

// List returns the projection of every book matching the filter in storage order.
func (bs *BookService) List(ctx context.Context, filter BookFilter) ([]BookSummary, error) {
	books, err := bs.storage.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	summaries := []BookSummary{}
	for _, b := range books {
		if filter.Match(b) {
			summaries = append(summaries, b.ToSummary())
		}
	}
	return summaries, nil
}
