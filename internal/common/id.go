package common

import (
	"github.com/google/uuid"
)

// NewDocumentID generates a unique source document ID with the "doc_" prefix
func NewDocumentID() string {
	return "doc_" + uuid.New().String()
}

// NewPageID generates a unique workspace page ID with the "page_" prefix.
// Every workspace insertion gets a fresh ID, including duplicates of an
// already-present source page.
func NewPageID() string {
	return "page_" + uuid.New().String()
}
