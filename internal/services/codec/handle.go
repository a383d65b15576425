package codec

import (
	"fmt"
	"image"
	"sync"

	"github.com/gen2brain/go-fitz"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quire/internal/interfaces"
)

// baseDPI is MuPDF's nominal resolution; render scale multiplies it.
const baseDPI = 72.0

// handle wraps an open go-fitz document. MuPDF contexts are not safe for
// concurrent use, so all page operations serialize on the handle mutex.
type handle struct {
	mu     sync.Mutex
	doc    *fitz.Document
	closed bool
	logger arbor.ILogger
}

var _ interfaces.DocumentHandle = (*handle)(nil)

func (h *handle) PageCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0
	}
	return h.doc.NumPage()
}

// RenderPage rasterizes one page at scale (1.0 = 72 DPI) and applies the
// workspace rotation delta to the pixels. MuPDF already bakes the source
// page's own rotation into the render.
func (h *handle) RenderPage(pageIndex int, scale float64, rotation int) (image.Image, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, fmt.Errorf("document handle is closed")
	}
	if pageIndex < 0 || pageIndex >= h.doc.NumPage() {
		return nil, fmt.Errorf("page index %d out of range (0-%d)", pageIndex, h.doc.NumPage()-1)
	}

	img, err := h.doc.ImageDPI(pageIndex, baseDPI*scale)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", pageIndex, err)
	}

	return rotateImage(img, rotation), nil
}

func (h *handle) ExtractText(pageIndex int) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return "", fmt.Errorf("document handle is closed")
	}
	if pageIndex < 0 || pageIndex >= h.doc.NumPage() {
		return "", fmt.Errorf("page index %d out of range (0-%d)", pageIndex, h.doc.NumPage()-1)
	}

	text, err := h.doc.Text(pageIndex)
	if err != nil {
		return "", fmt.Errorf("failed to extract text from page %d: %w", pageIndex, err)
	}
	return text, nil
}

func (h *handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	return h.doc.Close()
}

// rotateImage rotates in 90 degree steps. Degrees are clockwise, matching
// the PDF /Rotate convention.
func rotateImage(img image.Image, degrees int) image.Image {
	degrees = ((degrees % 360) + 360) % 360
	if degrees == 0 {
		return img
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	var out *image.RGBA
	switch degrees {
	case 90:
		out = image.NewRGBA(image.Rect(0, 0, h, w))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out.Set(h-1-y, x, img.At(bounds.Min.X+x, bounds.Min.Y+y))
			}
		}
	case 180:
		out = image.NewRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out.Set(w-1-x, h-1-y, img.At(bounds.Min.X+x, bounds.Min.Y+y))
			}
		}
	case 270:
		out = image.NewRGBA(image.Rect(0, 0, h, w))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out.Set(y, w-1-x, img.At(bounds.Min.X+x, bounds.Min.Y+y))
			}
		}
	default:
		return img
	}
	return out
}
