package main

import (
	"strings"

	"github.com/gofrs/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	BookIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	BookIDLength   = 16
)

var (
	_ UIDHandler  = (*IDsHandler)(nil)      // ensure IDsHandler implements UIDHandler.
	_ BookIDMaker = (*NanoIDGenerator)(nil) // ensure NanoIDGenerator implements BookIDMaker.
)

// UIDHandler is an interface for getting and checking prefixed uuids.
type UIDHandler interface {
	Generate(prefix string) string
	IsValid(id, prefix string) bool
}

// IDsHandler implements the UIDHandler interface.
type IDsHandler struct{}

// NewIDsHandler returns a ready to use IDsHandler.
func NewIDsHandler() *IDsHandler {
	return &IDsHandler{}
}

// Generate provides a random unique identifier.
func (idh *IDsHandler) Generate(prefix string) string {
	id, _ := uuid.NewV4()
	return prefix + ":" + id.String()
}

// IsValid checks if a given string is a valid uuid after removal of custom prefix.
func (idh *IDsHandler) IsValid(id, prefix string) bool {
	if u := uuid.FromStringOrNil(strings.TrimPrefix(id, prefix+":")); u != uuid.Nil {
		return true
	}
	return false
}

// BookIDMaker provides identifiers for new books.
type BookIDMaker interface {
	NewBookID() (string, error)
}

// NanoIDGenerator produces fixed length alphanumeric ids.
type NanoIDGenerator struct {
	alphabet string
	size     int
}

// NewNanoIDGenerator returns a generator of 16 characters alphanumeric ids.
func NewNanoIDGenerator() *NanoIDGenerator {
	return &NanoIDGenerator{alphabet: BookIDAlphabet, size: BookIDLength}
}

func (g *NanoIDGenerator) NewBookID() (string, error) {
	return gonanoid.Generate(g.alphabet, g.size)
}
