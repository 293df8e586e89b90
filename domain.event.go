package main

import "context"

// BookEvent describes a change applied to the catalog.
type BookEvent struct {
	Seq        uint64 `json:"seq,omitempty"`
	Kind       string `json:"kind"`
	BookID     string `json:"bookId"`
	Book       *Book  `json:"book,omitempty"`
	OccurredAt string `json:"occurredAt"`
}

// EventArchive stores catalog change events for later inspection.
type EventArchive interface {
	Append(ctx context.Context, event BookEvent) (uint64, error)
	GetAll(ctx context.Context) ([]BookEvent, error)
}

// EventArchiveCloser is an EventArchive holding resources to release on shutdown.
type EventArchiveCloser interface {
	EventArchive
	Close() error
}
