// Package export produces final output byte streams from a captured page
// sequence: merge, split (burst, fixed chunks, custom range), rasterized
// compression and image/text/csv conversion. Every operation treats the
// supplied pages and document map as read-only captured-at-call-time
// values; nothing here mutates the workspace.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"image/jpeg"
	"image/png"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quire/internal/interfaces"
	"github.com/ternarybob/quire/internal/models"
)

// Service implements the export engine.
type Service struct {
	codec   interfaces.Codec
	cache   interfaces.DocumentCache
	archive interfaces.ArchiveWriter
	logger  arbor.ILogger

	imageScale float64 // raster scale for jpg/png page exports
}

// NewService creates a new export service.
func NewService(codec interfaces.Codec, cache interfaces.DocumentCache, archive interfaces.ArchiveWriter, imageScale float64, logger arbor.ILogger) *Service {
	if imageScale <= 0 {
		imageScale = 2.0
	}
	return &Service{
		codec:      codec,
		cache:      cache,
		archive:    archive,
		imageScale: imageScale,
		logger:     logger,
	}
}

// Merge copies each page's original content, in sequence order, into one new
// document, applying each page's rotation delta on top of whatever the
// source page carries.
func (s *Service) Merge(ctx context.Context, pages []models.Page, docs map[string]*models.SourceDocument, baseName string) (*models.ExportResult, error) {
	if len(pages) == 0 {
		return nil, interfaces.ErrEmptySelection
	}
	if err := validateSources(pages, docs); err != nil {
		return nil, err
	}

	data, err := s.assemblePages(pages, docs)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int("pages", len(pages)).Int("bytes", len(data)).Msg("Merged pages")
	return &models.ExportResult{
		Bytes:             data,
		SuggestedFilename: baseName + ".pdf",
		IsArchive:         false,
	}, nil
}

// Split produces one or more documents from the page sequence according to
// mode. A single output comes back as-is; multiple outputs are packed into
// one zip archive.
func (s *Service) Split(ctx context.Context, pages []models.Page, docs map[string]*models.SourceDocument, mode models.SplitMode, count int, rangeExpr, baseName string) (*models.ExportResult, error) {
	if len(pages) == 0 {
		return nil, interfaces.ErrEmptySelection
	}
	if err := validateSources(pages, docs); err != nil {
		return nil, err
	}

	type chunk struct {
		name  string
		pages []models.Page
	}
	var chunks []chunk

	switch mode {
	case models.SplitExtractAll:
		for _, p := range pages {
			chunks = append(chunks, chunk{
				name:  fmt.Sprintf("%s_page_%d.pdf", baseName, p.DisplayPageNumber()),
				pages: []models.Page{p},
			})
		}

	case models.SplitFixedNumber:
		if count < 1 {
			return nil, fmt.Errorf("pages per document must be at least 1")
		}
		part := 1
		for start := 0; start < len(pages); start += count {
			end := start + count
			if end > len(pages) {
				end = len(pages)
			}
			chunks = append(chunks, chunk{
				name:  fmt.Sprintf("%s_part_%d.pdf", baseName, part),
				pages: pages[start:end],
			})
			part++
		}

	case models.SplitByRange:
		if !IsValidRangeSyntax(rangeExpr) {
			return nil, fmt.Errorf("%w: malformed range %q", interfaces.ErrInvalidRange, rangeExpr)
		}
		indices := ParsePageRange(rangeExpr, len(pages))
		if len(indices) == 0 {
			return nil, interfaces.ErrInvalidRange
		}
		selected := make([]models.Page, 0, len(indices))
		for _, idx := range indices {
			selected = append(selected, pages[idx])
		}
		chunks = append(chunks, chunk{
			name:  baseName + "_custom.pdf",
			pages: selected,
		})

	default:
		return nil, fmt.Errorf("unknown split mode %q", mode)
	}

	outputs := make([]models.OutputFile, 0, len(chunks))
	for _, c := range chunks {
		data, err := s.assemblePages(c.pages, docs)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, models.OutputFile{Name: c.name, Data: data})
	}

	if len(outputs) == 1 {
		return &models.ExportResult{
			Bytes:             outputs[0].Data,
			SuggestedFilename: outputs[0].Name,
			IsArchive:         false,
		}, nil
	}

	packed, err := s.archive.Pack(outputs)
	if err != nil {
		return nil, fmt.Errorf("failed to package split outputs: %w", err)
	}
	s.logger.Info().Str("mode", string(mode)).Int("outputs", len(outputs)).Msg("Split pages")
	return &models.ExportResult{
		Bytes:             packed,
		SuggestedFilename: baseName + "_split.zip",
		IsArchive:         true,
	}, nil
}

// Convert exports the page sequence to a non-PDF format. Text and csv
// concatenate extracted text; jpg and png rasterize each page. A
// single-page raster request yields a bare image file, multi-page requests
// an archive of per-page images.
func (s *Service) Convert(ctx context.Context, pages []models.Page, docs map[string]*models.SourceDocument, format models.ConvertFormat, baseName string, progress models.ProgressFunc) (*models.ExportResult, error) {
	if len(pages) == 0 {
		return nil, interfaces.ErrEmptySelection
	}
	if err := validateSources(pages, docs); err != nil {
		return nil, err
	}

	switch format {
	case models.ConvertText:
		return s.convertText(ctx, pages, docs, baseName, progress)
	case models.ConvertCSV:
		return s.convertCSV(ctx, pages, docs, baseName, progress)
	case models.ConvertJPG, models.ConvertPNG:
		return s.convertImages(ctx, pages, docs, format, baseName, progress)
	default:
		return nil, fmt.Errorf("unknown convert format %q", format)
	}
}

func (s *Service) convertText(ctx context.Context, pages []models.Page, docs map[string]*models.SourceDocument, baseName string, progress models.ProgressFunc) (*models.ExportResult, error) {
	var builder strings.Builder
	for i, p := range pages {
		if i > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString(fmt.Sprintf("--- Page %d ---\n\n", p.DisplayPageNumber()))
		builder.WriteString(s.pageText(ctx, p, docs))
		report(progress, i+1, len(pages))
	}
	return &models.ExportResult{
		Bytes:             []byte(builder.String()),
		SuggestedFilename: baseName + ".txt",
		IsArchive:         false,
	}, nil
}

func (s *Service) convertCSV(ctx context.Context, pages []models.Page, docs map[string]*models.SourceDocument, baseName string, progress models.ProgressFunc) (*models.ExportResult, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"page", "document", "text"}); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for i, p := range pages {
		docName := ""
		if doc, ok := docs[p.SourceDocumentID]; ok {
			docName = doc.Name
		}
		row := []string{
			strconv.Itoa(p.DisplayPageNumber()),
			docName,
			s.pageText(ctx, p, docs),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
		report(progress, i+1, len(pages))
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to finalize csv: %w", err)
	}
	return &models.ExportResult{
		Bytes:             buf.Bytes(),
		SuggestedFilename: baseName + ".csv",
		IsArchive:         false,
	}, nil
}

func (s *Service) convertImages(ctx context.Context, pages []models.Page, docs map[string]*models.SourceDocument, format models.ConvertFormat, baseName string, progress models.ProgressFunc) (*models.ExportResult, error) {
	ext := string(format)
	outputs := make([]models.OutputFile, 0, len(pages))

	for i, p := range pages {
		doc := docs[p.SourceDocumentID]
		handle, release, err := s.cache.Acquire(ctx, doc.ID, doc.Name, doc.Content)
		if err != nil {
			return nil, err
		}
		img, err := handle.RenderPage(p.SourcePageIndex, s.imageScale, p.Rotation)
		release()
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", p.DisplayPageNumber(), err)
		}

		var buf bytes.Buffer
		switch format {
		case models.ConvertJPG:
			err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
		default:
			err = png.Encode(&buf, img)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to encode page %d: %w", p.DisplayPageNumber(), err)
		}

		outputs = append(outputs, models.OutputFile{
			Name: fmt.Sprintf("page_%d_%d.%s", i+1, p.DisplayPageNumber(), ext),
			Data: buf.Bytes(),
		})
		report(progress, i+1, len(pages))
	}

	if len(outputs) == 1 {
		return &models.ExportResult{
			Bytes:             outputs[0].Data,
			SuggestedFilename: fmt.Sprintf("%s.%s", baseName, ext),
			IsArchive:         false,
		}, nil
	}

	packed, err := s.archive.Pack(outputs)
	if err != nil {
		return nil, fmt.Errorf("failed to package image outputs: %w", err)
	}
	return &models.ExportResult{
		Bytes:             packed,
		SuggestedFilename: fmt.Sprintf("%s_%s.zip", baseName, ext),
		IsArchive:         true,
	}, nil
}

// pageText extracts one page's text, downgrading failures to empty text so
// a single corrupt page cannot abort a batch export.
func (s *Service) pageText(ctx context.Context, p models.Page, docs map[string]*models.SourceDocument) string {
	doc := docs[p.SourceDocumentID]
	handle, release, err := s.cache.Acquire(ctx, doc.ID, doc.Name, doc.Content)
	if err != nil {
		s.logger.Warn().Err(err).Str("doc_id", doc.ID).Msg("Failed to open document for text export")
		return ""
	}
	defer release()
	text, err := handle.ExtractText(p.SourcePageIndex)
	if err != nil {
		s.logger.Warn().Err(err).Str("doc_id", doc.ID).Int("page", p.SourcePageIndex).Msg("Failed to extract page text")
		return ""
	}
	return text
}

// assemblePages copies each referenced page out of its source bytes and
// merges the copies in order.
func (s *Service) assemblePages(pages []models.Page, docs map[string]*models.SourceDocument) ([]byte, error) {
	parts := make([][]byte, 0, len(pages))
	for _, p := range pages {
		doc := docs[p.SourceDocumentID]
		part, err := s.codec.CopyPage(doc.Content, p.SourcePageIndex, p.Rotation)
		if err != nil {
			return nil, fmt.Errorf("failed to copy page %d of %s: %w", p.DisplayPageNumber(), doc.Name, err)
		}
		parts = append(parts, part)
	}
	return s.codec.Assemble(parts)
}

// validateSources fails fast, before any output is produced, when a page
// references a document absent from the supplied map.
func validateSources(pages []models.Page, docs map[string]*models.SourceDocument) error {
	for _, p := range pages {
		if _, ok := docs[p.SourceDocumentID]; !ok {
			return &interfaces.SourceNotFoundError{DocumentID: p.SourceDocumentID}
		}
	}
	return nil
}

func report(progress models.ProgressFunc, current, total int) {
	if progress != nil {
		progress(current, total)
	}
}
