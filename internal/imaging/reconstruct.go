package imaging

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

type reconstructOptions struct {
	layout  Layout
	r, g, b uint8
}

// Option configures ToDisplayBuffer.
type Option func(*reconstructOptions) error

// WithLayout selects the channel order of the output buffer (BGRA or RGBA).
func WithLayout(l Layout) Option {
	return func(o *reconstructOptions) error {
		if !l.IsColor() {
			return &UnsupportedFormatError{Op: "reconstruct", Layout: l}
		}
		o.layout = l
		return nil
	}
}

// WithTint colors edges with a hex color such as "#00FF00". Each channel
// becomes intensity*tint/255, so the default white tint reproduces
// R=G=B=intensity exactly.
func WithTint(hex string) Option {
	return func(o *reconstructOptions) error {
		c, err := colorful.Hex(hex)
		if err != nil {
			return fmt.Errorf("invalid tint %q: %w", hex, err)
		}
		o.r, o.g, o.b = c.RGB255()
		return nil
	}
}

// ValidateOptions applies opts to a default configuration and reports the
// first invalid one, so callers can reject bad display settings before any
// detection work starts.
func ValidateOptions(opts ...Option) error {
	_, err := applyOptions(opts)
	return err
}

func applyOptions(opts []Option) (reconstructOptions, error) {
	o := reconstructOptions{layout: BGRA, r: 255, g: 255, b: 255}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return reconstructOptions{}, err
		}
	}
	return o, nil
}

// ToDisplayBuffer expands an intensity buffer into an opaque color buffer.
//
// By default the output is BGRA with R=G=B=intensity and A=255. The stride is
// Width*4, the minimal 4-byte aligned row. The output never shares storage
// with src.
func ToDisplayBuffer(src IntensityBuffer, opts ...Option) (PixelBuffer, error) {
	o, err := applyOptions(opts)
	if err != nil {
		return PixelBuffer{}, err
	}
	if err := src.Validate(); err != nil {
		return PixelBuffer{}, fmt.Errorf("invalid intensity buffer: %w", err)
	}

	dst, err := NewPixelBuffer(src.Width, src.Height, o.layout)
	if err != nil {
		return PixelBuffer{}, err
	}
	ro, gO, bo, ao := o.layout.offsets()
	white := o.r == 255 && o.g == 255 && o.b == 255
	for i, v := range src.Pix {
		px := dst.Pix[i*4 : i*4+4]
		if white {
			px[ro], px[gO], px[bo] = v, v, v
		} else {
			px[ro] = scale(v, o.r)
			px[gO] = scale(v, o.g)
			px[bo] = scale(v, o.b)
		}
		px[ao] = 255
	}
	return dst, nil
}

func scale(v, tint uint8) uint8 {
	return uint8((uint32(v)*uint32(tint) + 127) / 255)
}
