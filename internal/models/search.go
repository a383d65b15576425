package models

// SearchMatch is one occurrence of the query on one workspace page.
type SearchMatch struct {
	PageID            string `json:"page_id"`
	DisplayPageNumber int    `json:"display_page_number"`
	Offset            int    `json:"offset"` // absolute offset in the page's full text
	Snippet           string `json:"snippet"`
}

// DocumentMatches groups the matches found within one source document.
type DocumentMatches struct {
	DocumentID   string        `json:"document_id"`
	DocumentName string        `json:"document_name"`
	Matches      []SearchMatch `json:"matches"`
}

// SearchResults is the full result of a workspace search, grouped by source
// document in workspace order.
type SearchResults struct {
	Query     string            `json:"query"`
	Documents []DocumentMatches `json:"documents"`
	Total     int               `json:"total"`
}
