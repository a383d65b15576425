package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/quire/internal/interfaces"
)

// builder implements interfaces.DocumentBuilder on top of fpdf: one
// full-page JPEG image per page, each page sized to its image. Used by the
// rasterize-and-rebuild primitive (compress / lossy unlock).
type builder struct {
	pdf      *fpdf.Fpdf
	pages    int
	finished bool
}

var _ interfaces.DocumentBuilder = (*builder)(nil)

func newBuilder() *builder {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	return &builder{pdf: pdf}
}

func (b *builder) AddImagePage(img image.Image, quality int) error {
	if b.finished {
		return fmt.Errorf("builder already finished")
	}
	if quality < 1 || quality > 100 {
		quality = 85
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("failed to encode page image: %w", err)
	}

	// Rendered pixels map 1:1 onto PDF points so the rebuilt page keeps the
	// rendered dimensions.
	bounds := img.Bounds()
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())

	orientation := "P"
	if w > h {
		orientation = "L"
	}
	b.pdf.AddPageFormat(orientation, fpdf.SizeType{Wd: w, Ht: h})

	b.pages++
	name := fmt.Sprintf("page_%d", b.pages)
	opts := fpdf.ImageOptions{ImageType: "JPG"}
	b.pdf.RegisterImageOptionsReader(name, opts, &buf)
	b.pdf.ImageOptions(name, 0, 0, w, h, false, opts, 0, "")

	if b.pdf.Err() {
		return fmt.Errorf("failed to add image page: %s", b.pdf.Error())
	}
	return nil
}

func (b *builder) Finish() ([]byte, error) {
	if b.finished {
		return nil, fmt.Errorf("builder already finished")
	}
	b.finished = true

	if b.pages == 0 {
		return nil, fmt.Errorf("no pages added")
	}

	var out bytes.Buffer
	if err := b.pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("failed to generate document output: %w", err)
	}
	return out.Bytes(), nil
}
