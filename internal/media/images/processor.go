package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// DefaultMaxWidth is the width covers are reduced to.
const DefaultMaxWidth = 460

const jpegQuality = 85

// Processed is a normalised cover.
type Processed struct {
	JPEG     []byte
	Width    int
	Height   int
	BlurHash string
}

// Processor decodes JPEG, PNG, GIF or WebP covers, scales them down to a
// maximum width and re-encodes them as JPEG.
type Processor struct {
	maxWidth int
}

// NewProcessor creates a processor. A non-positive maxWidth uses DefaultMaxWidth.
func NewProcessor(maxWidth int) *Processor {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}
	return &Processor{maxWidth: maxWidth}
}

// Process normalises raw image bytes. Images narrower than the limit keep
// their size.
func (p *Processor) Process(data []byte) (*Processed, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	img := p.fit(src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode %s cover as jpeg: %w", format, err)
	}

	hash, err := ComputeBlurHash(img)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	return &Processed{
		JPEG:     buf.Bytes(),
		Width:    b.Dx(),
		Height:   b.Dy(),
		BlurHash: hash,
	}, nil
}

// fit scales src down to maxWidth and flattens transparency onto white,
// since JPEG has no alpha channel.
func (p *Processor) fit(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > p.maxWidth {
		h = max(1, h*p.maxWidth/w)
		w = p.maxWidth
	} else if opaque(src) {
		return src
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

func opaque(img image.Image) bool {
	o, ok := img.(interface{ Opaque() bool })
	return ok && o.Opaque()
}
