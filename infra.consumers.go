package main

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// RetryPopDelay is the pause after a failed pop before trying again.
const RetryPopDelay = time.Second

type Consumer interface {
	Consume(ctx context.Context, qids ...string) error
}

// archiveConsumer moves queued catalog events into the archive.
type archiveConsumer struct {
	logger  *zap.Logger
	queue   Queuer
	archive EventArchive
}

func NewArchiveConsumer(logger *zap.Logger, q Queuer, archive EventArchive) Consumer {
	return &archiveConsumer{logger, q, archive}
}

// Consume runs until the context is done. Failures on a single event are
// logged and the loop continues with the next one.
func (ac *archiveConsumer) Consume(ctx context.Context, qids ...string) error {
	for {
		if ctx.Err() != nil {
			ac.logger.Info("consumer: context is done: exit", zap.String("reason", ctx.Err().Error()))
			return nil
		}

		qid, event, err := ac.queue.Pop(ctx, qids...)
		if errors.Is(err, ErrEmptyQueue) || (err != nil && ctx.Err() != nil) {
			continue
		}

		if err != nil {
			ac.logger.Error("consumer: error on queue pop call", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(RetryPopDelay):
			}
			continue
		}

		switch qid {
		case CreateQueue, UpdateQueue, DeleteQueue:
			seq, err := ac.archive.Append(ctx, event)
			if err != nil {
				ac.logger.Error("consumer: failed to archive event",
					zap.String("qid", qid),
					zap.String("book.id", event.BookID),
					zap.Error(err),
				)
				continue
			}
			ac.logger.Debug("consumer: event archived",
				zap.String("qid", qid),
				zap.String("book.id", event.BookID),
				zap.Uint64("event.seq", seq),
			)
		default:
			ac.logger.Warn("consumer: received event on unknow queue id", zap.String("qid", qid), zap.Any("event", event))
		}
	}
}
