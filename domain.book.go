package main

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrBookNotFound    = errors.New("book not found")
	ErrBookNotInserted = errors.New("book not found after insertion")
)

// Book represents a book entity.
type Book struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Year       int    `json:"year"`
	Author     string `json:"author"`
	Summary    string `json:"summary"`
	Publisher  string `json:"publisher"`
	PageCount  int    `json:"pageCount"`
	ReadPage   int    `json:"readPage"`
	Finished   bool   `json:"finished"`
	Reading    bool   `json:"reading"`
	InsertedAt string `json:"insertedAt"`
	UpdatedAt  string `json:"updatedAt"`
}

// BookPayload is the body of a book creation or update request.
// Name is a pointer so that a missing name can be detected.
type BookPayload struct {
	Name      *string `json:"name"`
	Year      int     `json:"year"`
	Author    string  `json:"author"`
	Summary   string  `json:"summary"`
	Publisher string  `json:"publisher"`
	PageCount int     `json:"pageCount"`
	ReadPage  int     `json:"readPage"`
	Reading   bool    `json:"reading"`
}

// ToBook builds a book from the payload fields. Finished is derived
// from the pages counters.
func (p *BookPayload) ToBook() Book {
	var name string
	if p.Name != nil {
		name = *p.Name
	}
	return Book{
		Name:      name,
		Year:      p.Year,
		Author:    p.Author,
		Summary:   p.Summary,
		Publisher: p.Publisher,
		PageCount: p.PageCount,
		ReadPage:  p.ReadPage,
		Finished:  p.PageCount == p.ReadPage,
		Reading:   p.Reading,
	}
}

// BookSummary is the projection of a book returned by the listing.
type BookSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Publisher string `json:"publisher"`
}

// ToSummary returns the listing projection of the book.
func (b Book) ToSummary() BookSummary {
	return BookSummary{ID: b.ID, Name: b.Name, Publisher: b.Publisher}
}

// BookFilter holds the optional listing filters. A nil field means the
// query parameter was not provided at all.
type BookFilter struct {
	Name     *string
	Reading  *string
	Finished *string
}

// Match reports whether the book passes the filter. Only one dimension is
// ever checked: name first, then reading, then finished. A reading or finished
// value other than "0" or "1" does not filter anything.
func (f BookFilter) Match(b Book) bool {
	switch {
	case f.Name != nil:
		return strings.Contains(strings.ToLower(b.Name), strings.ToLower(*f.Name))
	case f.Reading != nil:
		return matchFlag(*f.Reading, b.Reading)
	case f.Finished != nil:
		return matchFlag(*f.Finished, b.Finished)
	}
	return true
}

func matchFlag(value string, flag bool) bool {
	switch value {
	case "0":
		return !flag
	case "1":
		return flag
	}
	return true
}

// BookStorage defines possible operations on book entity.
type BookStorage interface {
	Add(ctx context.Context, id string, book Book) error
	GetOne(ctx context.Context, id string) (Book, error)
	Update(ctx context.Context, id string, book Book) (Book, error)
	Delete(ctx context.Context, id string) error
	GetAll(ctx context.Context) ([]Book, error)
}
