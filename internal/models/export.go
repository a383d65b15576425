package models

// SplitMode selects how an input page sequence is split into outputs.
type SplitMode string

const (
	// SplitExtractAll bursts the sequence into one single-page output per page.
	SplitExtractAll SplitMode = "extract_all"
	// SplitFixedNumber chunks the sequence into outputs of up to N consecutive pages.
	SplitFixedNumber SplitMode = "fixed_number"
	// SplitByRange produces a single output from a user-supplied range expression.
	SplitByRange SplitMode = "by_range"
)

// ConvertFormat selects the non-PDF export format.
type ConvertFormat string

const (
	ConvertText ConvertFormat = "text"
	ConvertCSV  ConvertFormat = "csv"
	ConvertJPG  ConvertFormat = "jpg"
	ConvertPNG  ConvertFormat = "png"
)

// OutputFile is one named product of a split or convert operation.
type OutputFile struct {
	Name string
	Data []byte
}

// ExportResult is the final downloadable product of an export operation.
// IsArchive is true when multiple outputs were packed into a single zip.
type ExportResult struct {
	Bytes             []byte
	SuggestedFilename string
	IsArchive         bool
}

// ProgressFunc receives per-page progress as (completed, total). It fires
// after each page regardless of that page's outcome.
type ProgressFunc func(current, total int)
