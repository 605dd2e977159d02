package pattern

import (
	"fmt"
	"image"
	"image/color"
	"io"

	// image formats accepted by DecodeBitmap
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// Bitmap is a grid of on/off cells. X runs around a shape and Y runs
// up it, with row 0 at the bottom.
type Bitmap struct {
	w, h int
	bits []bool
}

// NewBitmap returns an all-off bitmap.
func NewBitmap(w, h int) *Bitmap {
	return &Bitmap{w: w, h: h, bits: make([]bool, w*h)}
}

// ParseBitmap builds a bitmap from rows of text, top row first. Any
// character other than '.', ' ' or '0' is on.
func ParseBitmap(rows []string) *Bitmap {
	w := 0
	for _, r := range rows {
		if len(r) > w {
			w = len(r)
		}
	}
	b := NewBitmap(w, len(rows))
	for i, r := range rows {
		y := len(rows) - 1 - i
		for x := 0; x < len(r); x++ {
			if c := r[x]; c != '.' && c != ' ' && c != '0' {
				b.Set(x, y, true)
			}
		}
	}
	return b
}

// Width returns the number of columns.
func (b *Bitmap) Width() int { return b.w }

// Height returns the number of rows.
func (b *Bitmap) Height() int { return b.h }

// Set sets the cell at (x, y).
func (b *Bitmap) Set(x, y int, on bool) {
	b.bits[y*b.w+x] = on
}

// At reports whether the cell at (x, y) is on. Coordinates wrap
// around in both directions.
func (b *Bitmap) At(x, y int) bool {
	if b.w == 0 || b.h == 0 {
		return false
	}
	x, y = ((x%b.w)+b.w)%b.w, ((y%b.h)+b.h)%b.h
	return b.bits[y*b.w+x]
}

// Row returns the cells of row y, for AlongCurve.
func (b *Bitmap) Row(y int) []bool {
	r := make([]bool, b.w)
	for x := range r {
		r[x] = b.At(x, y)
	}
	return r
}

// FromImage converts img to a bitmap in which pixels darker than
// threshold (0 to 1) are on.
func FromImage(img image.Image, threshold float64) *Bitmap {
	bounds := img.Bounds()
	b := NewBitmap(bounds.Dx(), bounds.Dy())
	for py := bounds.Min.Y; py < bounds.Max.Y; py++ {
		y := bounds.Max.Y - 1 - py
		for px := bounds.Min.X; px < bounds.Max.X; px++ {
			g := color.Gray16Model.Convert(img.At(px, py)).(color.Gray16)
			if float64(g.Y)/0xffff < threshold {
				b.Set(px-bounds.Min.X, y, true)
			}
		}
	}
	return b
}

// DecodeBitmap reads a PNG, GIF or JPEG image as a bitmap.
func DecodeBitmap(r io.Reader, threshold float64) (*Bitmap, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding pattern image: %w", err)
	}
	b := FromImage(img, threshold)
	log.Infof("read %dx%d %s pattern", b.Width(), b.Height(), format)
	return b, nil
}
