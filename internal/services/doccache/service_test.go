package doccache

import (
	"context"
	"fmt"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/quire/internal/common"
	"github.com/ternarybob/quire/internal/interfaces"
)

type fakeHandle struct {
	mu     sync.Mutex
	id     string
	closed bool
}

func (h *fakeHandle) PageCount() int { return 1 }

func (h *fakeHandle) RenderPage(pageIndex int, scale float64, rotation int) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}

func (h *fakeHandle) ExtractText(pageIndex int) (string, error) { return "", nil }

func (h *fakeHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

func (h *fakeHandle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

type fakeCodec struct {
	mu         sync.Mutex
	parseCount map[string]int
	handles    map[string]*fakeHandle
	parseGate  chan struct{} // when non-nil, Parse blocks until the gate closes
	parseErr   error
}

func newFakeCodec() *fakeCodec {
	return &fakeCodec{
		parseCount: make(map[string]int),
		handles:    make(map[string]*fakeHandle),
	}
}

func (c *fakeCodec) Parse(docID, name string, data []byte) (interfaces.DocumentHandle, error) {
	c.mu.Lock()
	c.parseCount[docID]++
	gate := c.parseGate
	err := c.parseErr
	c.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}

	h := &fakeHandle{id: docID}
	c.mu.Lock()
	c.handles[docID] = h
	c.mu.Unlock()
	return h, nil
}

func (c *fakeCodec) CopyPage(data []byte, pageIndex int, rotation int) ([]byte, error) {
	return data, nil
}

func (c *fakeCodec) Assemble(parts [][]byte) ([]byte, error) { return nil, nil }

func (c *fakeCodec) NewBuilder() interfaces.DocumentBuilder { return nil }

func (c *fakeCodec) parses(docID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.parseCount[docID]
}

func (c *fakeCodec) handle(docID string) *fakeHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handles[docID]
}

func acquireAndRelease(t *testing.T, s *Service, docID string) {
	t.Helper()
	_, release, err := s.Acquire(context.Background(), docID, docID+".pdf", []byte("pdf"))
	require.NoError(t, err)
	release()
}

func TestCacheHitAvoidsReparse(t *testing.T) {
	codec := newFakeCodec()
	s := NewService(codec, 3, common.GetLogger())

	acquireAndRelease(t, s, "doc_1")
	acquireAndRelease(t, s, "doc_1")
	assert.Equal(t, 1, codec.parses("doc_1"))
}

func TestFIFOEviction(t *testing.T) {
	codec := newFakeCodec()
	s := NewService(codec, 3, common.GetLogger())

	for i := 1; i <= 4; i++ {
		acquireAndRelease(t, s, fmt.Sprintf("doc_%d", i))
	}

	// Oldest insertion is evicted and closed; the rest stay open.
	assert.True(t, codec.handle("doc_1").isClosed())
	for i := 2; i <= 4; i++ {
		assert.False(t, codec.handle(fmt.Sprintf("doc_%d", i)).isClosed())
	}

	// Re-acquiring the evicted document parses again.
	acquireAndRelease(t, s, "doc_1")
	assert.Equal(t, 2, codec.parses("doc_1"))
}

func TestEvictionIsInsertionOrderNotUsage(t *testing.T) {
	codec := newFakeCodec()
	s := NewService(codec, 3, common.GetLogger())

	acquireAndRelease(t, s, "doc_1")
	acquireAndRelease(t, s, "doc_2")
	acquireAndRelease(t, s, "doc_3")
	// Touch doc_1 again; FIFO still evicts it first.
	acquireAndRelease(t, s, "doc_1")
	acquireAndRelease(t, s, "doc_4")

	assert.True(t, codec.handle("doc_1").isClosed())
	assert.False(t, codec.handle("doc_2").isClosed())
}

func TestBorrowedHandleSurvivesEviction(t *testing.T) {
	codec := newFakeCodec()
	s := NewService(codec, 3, common.GetLogger())

	handle, release, err := s.Acquire(context.Background(), "doc_1", "1.pdf", []byte("pdf"))
	require.NoError(t, err)

	for i := 2; i <= 4; i++ {
		acquireAndRelease(t, s, fmt.Sprintf("doc_%d", i))
	}

	// doc_1 is evicted but still borrowed, so it must stay open.
	assert.False(t, codec.handle("doc_1").isClosed())
	_, err = handle.ExtractText(0)
	assert.NoError(t, err)

	release()
	assert.True(t, codec.handle("doc_1").isClosed())
}

func TestReleaseIsIdempotent(t *testing.T) {
	codec := newFakeCodec()
	s := NewService(codec, 1, common.GetLogger())

	_, release, err := s.Acquire(context.Background(), "doc_1", "1.pdf", []byte("pdf"))
	require.NoError(t, err)
	release()
	release()

	// A second acquire borrows the still-cached handle; double release above
	// must not have corrupted the refcount.
	_, release2, err := s.Acquire(context.Background(), "doc_1", "1.pdf", []byte("pdf"))
	require.NoError(t, err)
	release2()
	assert.Equal(t, 1, codec.parses("doc_1"))
}

func TestConcurrentAcquiresShareOneParse(t *testing.T) {
	codec := newFakeCodec()
	gate := make(chan struct{})
	codec.parseGate = gate
	s := NewService(codec, 3, common.GetLogger())

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, release, err := s.Acquire(context.Background(), "doc_1", "1.pdf", []byte("pdf"))
			assert.NoError(t, err)
			release()
		}()
	}

	// Let every goroutine reach the parse or the wait, then open the gate.
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, 1, codec.parses("doc_1"))
}

func TestParseErrorPropagates(t *testing.T) {
	codec := newFakeCodec()
	codec.parseErr = fmt.Errorf("malformed")
	s := NewService(codec, 3, common.GetLogger())

	_, _, err := s.Acquire(context.Background(), "doc_1", "1.pdf", []byte("pdf"))
	assert.Error(t, err)

	// Failed parses are not cached; the next acquire tries again.
	codec.mu.Lock()
	codec.parseErr = nil
	codec.mu.Unlock()
	acquireAndRelease(t, s, "doc_1")
	assert.Equal(t, 2, codec.parses("doc_1"))
}

func TestInvalidateClosesUnborrowed(t *testing.T) {
	codec := newFakeCodec()
	s := NewService(codec, 3, common.GetLogger())

	acquireAndRelease(t, s, "doc_1")
	s.Invalidate("doc_1")
	assert.True(t, codec.handle("doc_1").isClosed())
}

func TestClearClosesEverything(t *testing.T) {
	codec := newFakeCodec()
	s := NewService(codec, 3, common.GetLogger())

	acquireAndRelease(t, s, "doc_1")
	acquireAndRelease(t, s, "doc_2")
	s.Clear()

	assert.True(t, codec.handle("doc_1").isClosed())
	assert.True(t, codec.handle("doc_2").isClosed())
}
