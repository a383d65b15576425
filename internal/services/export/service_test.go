package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"image"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/quire/internal/common"
	"github.com/ternarybob/quire/internal/interfaces"
	"github.com/ternarybob/quire/internal/models"
)

type stubHandle struct {
	pageCount int
	texts     map[int]string
	textErr   map[int]error
}

func (h *stubHandle) PageCount() int { return h.pageCount }

func (h *stubHandle) RenderPage(pageIndex int, scale float64, rotation int) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
}

func (h *stubHandle) ExtractText(pageIndex int) (string, error) {
	if err := h.textErr[pageIndex]; err != nil {
		return "", err
	}
	return h.texts[pageIndex], nil
}

func (h *stubHandle) Close() error { return nil }

type stubCache struct {
	handle   *stubHandle
	releases int
}

func (c *stubCache) Acquire(ctx context.Context, docID, name string, raw []byte) (interfaces.DocumentHandle, func(), error) {
	return c.handle, func() { c.releases++ }, nil
}

func (c *stubCache) Invalidate(docID string) {}
func (c *stubCache) Clear()                  {}

type copiedPage struct {
	pageIndex int
	rotation  int
}

type stubBuilder struct {
	qualities []int
	finished  []byte
}

func (b *stubBuilder) AddImagePage(img image.Image, quality int) error {
	b.qualities = append(b.qualities, quality)
	return nil
}

func (b *stubBuilder) Finish() ([]byte, error) { return b.finished, nil }

type stubCodec struct {
	copied  []copiedPage
	builder *stubBuilder
}

func (c *stubCodec) Parse(docID, name string, data []byte) (interfaces.DocumentHandle, error) {
	return nil, fmt.Errorf("not used")
}

func (c *stubCodec) CopyPage(data []byte, pageIndex int, rotation int) ([]byte, error) {
	c.copied = append(c.copied, copiedPage{pageIndex: pageIndex, rotation: rotation})
	return []byte(fmt.Sprintf("page:%d:%d;", pageIndex, rotation)), nil
}

func (c *stubCodec) Assemble(parts [][]byte) ([]byte, error) {
	return bytes.Join(parts, nil), nil
}

func (c *stubCodec) NewBuilder() interfaces.DocumentBuilder {
	c.builder = &stubBuilder{finished: []byte("rebuilt")}
	return c.builder
}

func exportFixture(pageCount int) ([]models.Page, map[string]*models.SourceDocument) {
	doc := &models.SourceDocument{ID: "doc_a", Name: "report.pdf", Content: []byte("pdf")}
	pages := make([]models.Page, pageCount)
	for i := range pages {
		pages[i] = models.Page{
			ID:               fmt.Sprintf("page_%d", i),
			SourceDocumentID: doc.ID,
			SourcePageIndex:  i,
		}
	}
	return pages, map[string]*models.SourceDocument{doc.ID: doc}
}

func newTestService(codec *stubCodec, cache *stubCache) *Service {
	return NewService(codec, cache, NewZipWriter(), 2.0, common.GetLogger())
}

func zipNames(t *testing.T, data []byte) []string {
	t.Helper()
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names
}

func TestMerge(t *testing.T) {
	codec := &stubCodec{}
	pages, docs := exportFixture(3)
	pages[1].Rotation = 90
	s := newTestService(codec, &stubCache{})

	result, err := s.Merge(context.Background(), pages, docs, "combined")
	require.NoError(t, err)
	assert.Equal(t, "combined.pdf", result.SuggestedFilename)
	assert.False(t, result.IsArchive)
	assert.Equal(t, []copiedPage{{0, 0}, {1, 90}, {2, 0}}, codec.copied)
	assert.Equal(t, []byte("page:0:0;page:1:90;page:2:0;"), result.Bytes)
}

func TestMergeEmptySelection(t *testing.T) {
	s := newTestService(&stubCodec{}, &stubCache{})
	_, err := s.Merge(context.Background(), nil, nil, "combined")
	assert.ErrorIs(t, err, interfaces.ErrEmptySelection)
}

func TestMergeMissingSourceFailsBeforeOutput(t *testing.T) {
	codec := &stubCodec{}
	pages, docs := exportFixture(2)
	pages = append(pages, models.Page{ID: "orphan", SourceDocumentID: "doc_gone"})
	s := newTestService(codec, &stubCache{})

	_, err := s.Merge(context.Background(), pages, docs, "combined")
	var sourceErr *interfaces.SourceNotFoundError
	require.ErrorAs(t, err, &sourceErr)
	assert.Equal(t, "doc_gone", sourceErr.DocumentID)
	assert.Empty(t, codec.copied, "no pages may be copied once validation fails")
}

func TestSplitExtractAll(t *testing.T) {
	codec := &stubCodec{}
	pages, docs := exportFixture(3)
	s := newTestService(codec, &stubCache{})

	result, err := s.Split(context.Background(), pages, docs, models.SplitExtractAll, 0, "", "report")
	require.NoError(t, err)
	assert.True(t, result.IsArchive)
	assert.Equal(t, "report_split.zip", result.SuggestedFilename)
	assert.Equal(t, []string{"report_page_1.pdf", "report_page_2.pdf", "report_page_3.pdf"}, zipNames(t, result.Bytes))
}

func TestSplitExtractAllSinglePageIsBare(t *testing.T) {
	pages, docs := exportFixture(1)
	s := newTestService(&stubCodec{}, &stubCache{})

	result, err := s.Split(context.Background(), pages, docs, models.SplitExtractAll, 0, "", "report")
	require.NoError(t, err)
	assert.False(t, result.IsArchive)
	assert.Equal(t, "report_page_1.pdf", result.SuggestedFilename)
}

func TestSplitFixedNumber(t *testing.T) {
	pages, docs := exportFixture(5)
	s := newTestService(&stubCodec{}, &stubCache{})

	result, err := s.Split(context.Background(), pages, docs, models.SplitFixedNumber, 2, "", "report")
	require.NoError(t, err)
	assert.Equal(t, []string{"report_part_1.pdf", "report_part_2.pdf", "report_part_3.pdf"}, zipNames(t, result.Bytes))

	_, err = s.Split(context.Background(), pages, docs, models.SplitFixedNumber, 0, "", "report")
	assert.Error(t, err)
}

func TestSplitByRange(t *testing.T) {
	codec := &stubCodec{}
	pages, docs := exportFixture(5)
	s := newTestService(codec, &stubCache{})

	result, err := s.Split(context.Background(), pages, docs, models.SplitByRange, 0, "2-3", "report")
	require.NoError(t, err)
	assert.False(t, result.IsArchive)
	assert.Equal(t, "report_custom.pdf", result.SuggestedFilename)
	assert.Equal(t, []copiedPage{{1, 0}, {2, 0}}, codec.copied)
}

func TestSplitByRangeEmptySelection(t *testing.T) {
	pages, docs := exportFixture(5)
	s := newTestService(&stubCodec{}, &stubCache{})

	_, err := s.Split(context.Background(), pages, docs, models.SplitByRange, 0, "90", "report")
	assert.ErrorIs(t, err, interfaces.ErrInvalidRange)
}

func TestSplitByRangeMalformedSyntax(t *testing.T) {
	pages, docs := exportFixture(5)
	codec := &stubCodec{}
	s := newTestService(codec, &stubCache{})

	for _, expr := range []string{"1;3", "a-b", ""} {
		_, err := s.Split(context.Background(), pages, docs, models.SplitByRange, 0, expr, "report")
		assert.ErrorIs(t, err, interfaces.ErrInvalidRange, expr)
	}
	assert.Empty(t, codec.copied, "malformed input must fail before any page is copied")
}

func TestConvertText(t *testing.T) {
	cache := &stubCache{handle: &stubHandle{
		pageCount: 2,
		texts:     map[int]string{0: "first page", 1: "second page"},
	}}
	pages, docs := exportFixture(2)
	s := newTestService(&stubCodec{}, cache)

	var progress []int
	result, err := s.Convert(context.Background(), pages, docs, models.ConvertText, "report", func(current, total int) {
		progress = append(progress, current)
	})
	require.NoError(t, err)
	assert.Equal(t, "report.txt", result.SuggestedFilename)

	text := string(result.Bytes)
	assert.Contains(t, text, "--- Page 1 ---")
	assert.Contains(t, text, "first page")
	assert.Contains(t, text, "--- Page 2 ---")
	assert.Contains(t, text, "second page")
	assert.Equal(t, []int{1, 2}, progress)
}

func TestConvertTextSkipsFailedPages(t *testing.T) {
	cache := &stubCache{handle: &stubHandle{
		pageCount: 2,
		texts:     map[int]string{1: "survivor"},
		textErr:   map[int]error{0: fmt.Errorf("broken stream")},
	}}
	pages, docs := exportFixture(2)
	s := newTestService(&stubCodec{}, cache)

	result, err := s.Convert(context.Background(), pages, docs, models.ConvertText, "report", nil)
	require.NoError(t, err, "one bad page must not abort the export")
	assert.Contains(t, string(result.Bytes), "survivor")
}

func TestConvertCSV(t *testing.T) {
	cache := &stubCache{handle: &stubHandle{
		pageCount: 2,
		texts:     map[int]string{0: "alpha", 1: "beta"},
	}}
	pages, docs := exportFixture(2)
	s := newTestService(&stubCodec{}, cache)

	result, err := s.Convert(context.Background(), pages, docs, models.ConvertCSV, "report", nil)
	require.NoError(t, err)
	assert.Equal(t, "report.csv", result.SuggestedFilename)

	records, err := csv.NewReader(bytes.NewReader(result.Bytes)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"page", "document", "text"}, records[0])
	assert.Equal(t, []string{"1", "report.pdf", "alpha"}, records[1])
	assert.Equal(t, []string{"2", "report.pdf", "beta"}, records[2])
}

func TestConvertImagesMultiPageArchives(t *testing.T) {
	cache := &stubCache{handle: &stubHandle{pageCount: 2}}
	pages, docs := exportFixture(2)
	s := newTestService(&stubCodec{}, cache)

	result, err := s.Convert(context.Background(), pages, docs, models.ConvertJPG, "report", nil)
	require.NoError(t, err)
	assert.True(t, result.IsArchive)
	assert.Equal(t, "report_jpg.zip", result.SuggestedFilename)
	assert.Equal(t, []string{"page_1_1.jpg", "page_2_2.jpg"}, zipNames(t, result.Bytes))
}

func TestConvertImagesSinglePageIsBare(t *testing.T) {
	cache := &stubCache{handle: &stubHandle{pageCount: 1}}
	pages, docs := exportFixture(1)
	s := newTestService(&stubCodec{}, cache)

	result, err := s.Convert(context.Background(), pages, docs, models.ConvertPNG, "report", nil)
	require.NoError(t, err)
	assert.False(t, result.IsArchive)
	assert.Equal(t, "report.png", result.SuggestedFilename)
	assert.True(t, strings.HasPrefix(string(result.Bytes), "\x89PNG"), "bare output must be the image itself")
}

func TestCompress(t *testing.T) {
	codec := &stubCodec{}
	cache := &stubCache{handle: &stubHandle{pageCount: 3}}
	s := newTestService(codec, cache)
	doc := &models.SourceDocument{ID: "doc_a", Name: "report.pdf", Content: []byte("original")}

	var progress []int
	data, err := s.Compress(context.Background(), doc, 0.85, 1.5, func(current, total int) {
		progress = append(progress, current)
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("rebuilt"), data)
	assert.Equal(t, []int{85, 85, 85}, codec.builder.qualities)
	assert.Equal(t, []int{1, 2, 3}, progress)
	assert.Equal(t, 1, cache.releases, "handle must be released after the rebuild")
}

func TestCompressRejectsBadParameters(t *testing.T) {
	s := newTestService(&stubCodec{}, &stubCache{})
	doc := &models.SourceDocument{ID: "doc_a", Name: "report.pdf"}

	_, err := s.Compress(context.Background(), doc, 0, 1.5, nil)
	assert.Error(t, err)
	_, err = s.Compress(context.Background(), doc, 1.5, 1.5, nil)
	assert.Error(t, err)
	_, err = s.Compress(context.Background(), doc, 0.85, 0, nil)
	assert.Error(t, err)
}
