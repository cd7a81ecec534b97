package imaging

import (
	"fmt"
	"image/color"
	"strings"
)

// Layout identifies the channel order of a PixelBuffer.
type Layout int

const (
	// BGRA stores blue, green, red, alpha (the 32bpp bitmap order).
	BGRA Layout = iota
	// RGBA stores red, green, blue, alpha.
	RGBA
	// Gray8 stores a single intensity byte per pixel.
	Gray8
)

// BytesPerPixel returns the number of bytes one pixel occupies, or 0 for an
// unknown layout.
func (l Layout) BytesPerPixel() int {
	switch l {
	case BGRA, RGBA:
		return 4
	case Gray8:
		return 1
	default:
		return 0
	}
}

// IsColor reports whether the layout carries separate red, green and blue channels.
func (l Layout) IsColor() bool {
	return l == BGRA || l == RGBA
}

func (l Layout) String() string {
	switch l {
	case BGRA:
		return "bgra"
	case RGBA:
		return "rgba"
	case Gray8:
		return "gray8"
	default:
		return fmt.Sprintf("layout(%d)", int(l))
	}
}

// ParseLayout converts a layout name ("bgra", "rgba", "gray8") to a Layout.
// Matching is case-insensitive.
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bgra":
		return BGRA, nil
	case "rgba":
		return RGBA, nil
	case "gray8", "gray":
		return Gray8, nil
	default:
		return 0, fmt.Errorf("unknown channel layout: %q", s)
	}
}

// channel offsets of red, green, blue and alpha within a 4-byte pixel.
func (l Layout) offsets() (r, g, b, a int) {
	if l == BGRA {
		return 2, 1, 0, 3
	}
	return 0, 1, 2, 3
}

// BoundsError reports a pixel access outside the buffer geometry.
type BoundsError struct {
	Row, Col      int
	Width, Height int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("pixel (row %d, col %d) outside %dx%d buffer", e.Row, e.Col, e.Width, e.Height)
}

// PixelBuffer is a rectangular, row-major image with an explicit stride.
//
// The byte for channel ch of the pixel at (row, col) lives at
//
//	row*Stride + col*Layout.BytesPerPixel() + ch
//
// Stride may exceed Width*BytesPerPixel when rows are padded. A PixelBuffer is
// owned by exactly one pipeline stage at a time; stages hand over ownership
// instead of sharing Pix.
type PixelBuffer struct {
	Width  int
	Height int
	Stride int
	Layout Layout
	Pix    []byte
}

// NewPixelBuffer allocates a zeroed buffer with the minimal stride for layout.
func NewPixelBuffer(width, height int, layout Layout) (PixelBuffer, error) {
	bpp := layout.BytesPerPixel()
	if bpp == 0 {
		return PixelBuffer{}, fmt.Errorf("unknown channel layout %v", layout)
	}
	if width <= 0 || height <= 0 {
		return PixelBuffer{}, fmt.Errorf("invalid dimensions %dx%d", width, height)
	}
	return PixelBuffer{
		Width:  width,
		Height: height,
		Stride: width * bpp,
		Layout: layout,
		Pix:    make([]byte, width*height*bpp),
	}, nil
}

// Validate checks that the geometry is consistent and that Pix holds Height
// full rows of Stride bytes, padding of the last row included.
func (p PixelBuffer) Validate() error {
	bpp := p.Layout.BytesPerPixel()
	if bpp == 0 {
		return fmt.Errorf("unknown channel layout %v", p.Layout)
	}
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d", p.Width, p.Height)
	}
	if p.Stride < p.Width*bpp {
		return fmt.Errorf("stride %d shorter than row of %d bytes", p.Stride, p.Width*bpp)
	}
	need := p.Height * p.Stride
	if len(p.Pix) < need {
		return fmt.Errorf("pixel data has %d bytes, need at least %d", len(p.Pix), need)
	}
	return nil
}

func (p PixelBuffer) offset(row, col int) (int, error) {
	if row < 0 || row >= p.Height || col < 0 || col >= p.Width {
		return 0, &BoundsError{Row: row, Col: col, Width: p.Width, Height: p.Height}
	}
	return row*p.Stride + col*p.Layout.BytesPerPixel(), nil
}

// At returns the pixel at (row, col). Gray8 pixels read as R=G=B=value with
// full alpha.
func (p PixelBuffer) At(row, col int) (color.NRGBA, error) {
	i, err := p.offset(row, col)
	if err != nil {
		return color.NRGBA{}, err
	}
	if p.Layout == Gray8 {
		v := p.Pix[i]
		return color.NRGBA{R: v, G: v, B: v, A: 255}, nil
	}
	ro, gO, bo, ao := p.Layout.offsets()
	return color.NRGBA{R: p.Pix[i+ro], G: p.Pix[i+gO], B: p.Pix[i+bo], A: p.Pix[i+ao]}, nil
}

// Set writes the pixel at (row, col). Gray8 buffers store the R component.
func (p PixelBuffer) Set(row, col int, c color.NRGBA) error {
	i, err := p.offset(row, col)
	if err != nil {
		return err
	}
	if p.Layout == Gray8 {
		p.Pix[i] = c.R
		return nil
	}
	ro, gO, bo, ao := p.Layout.offsets()
	p.Pix[i+ro] = c.R
	p.Pix[i+gO] = c.G
	p.Pix[i+bo] = c.B
	p.Pix[i+ao] = c.A
	return nil
}

// IntensityBuffer is a single-channel image with one byte per pixel and no
// row padding.
type IntensityBuffer struct {
	Width  int
	Height int
	Pix    []byte
}

// NewIntensityBuffer allocates a zeroed width x height buffer.
func NewIntensityBuffer(width, height int) IntensityBuffer {
	return IntensityBuffer{Width: width, Height: height, Pix: make([]byte, width*height)}
}

// Validate checks that Pix holds exactly Width*Height bytes.
func (b IntensityBuffer) Validate() error {
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d", b.Width, b.Height)
	}
	if len(b.Pix) != b.Width*b.Height {
		return fmt.Errorf("intensity data has %d bytes, want %d", len(b.Pix), b.Width*b.Height)
	}
	return nil
}

// At returns the intensity at (row, col).
func (b IntensityBuffer) At(row, col int) (uint8, error) {
	if row < 0 || row >= b.Height || col < 0 || col >= b.Width {
		return 0, &BoundsError{Row: row, Col: col, Width: b.Width, Height: b.Height}
	}
	return b.Pix[row*b.Width+col], nil
}

// Set writes the intensity at (row, col).
func (b IntensityBuffer) Set(row, col int, v uint8) error {
	if row < 0 || row >= b.Height || col < 0 || col >= b.Width {
		return &BoundsError{Row: row, Col: col, Width: b.Width, Height: b.Height}
	}
	b.Pix[row*b.Width+col] = v
	return nil
}

// Clone returns a copy that shares no storage with b.
func (b IntensityBuffer) Clone() IntensityBuffer {
	pix := make([]byte, len(b.Pix))
	copy(pix, b.Pix)
	return IntensityBuffer{Width: b.Width, Height: b.Height, Pix: pix}
}
