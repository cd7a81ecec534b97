package sobel

import (
	"sync"

	"github.com/anthonynsimon/bild/parallel"

	"github.com/ironsheep/edge-detect/internal/imaging"
)

// FixedPoint is the optimized implementation. It copies the input once into a
// buffer padded by one replicated pixel on every side, then convolves with
// integer arithmetic over three row slices at a time, splitting rows across
// goroutines. No floating point is used; the Euclidean magnitude comes from a
// lookup table of rounded square roots, so in Euclidean mode the output is
// identical to Reference.
type FixedPoint struct {
	Mode Mode
}

// Detect implements Engine.
func (f FixedPoint) Detect(src imaging.IntensityBuffer) (imaging.IntensityBuffer, error) {
	if err := src.Validate(); err != nil {
		return imaging.IntensityBuffer{}, err
	}
	w, h := src.Width, src.Height
	pw := w + 2
	padded := pad(src)
	dst := imaging.NewIntensityBuffer(w, h)
	sqrt := roundedSqrt()
	mode := f.Mode

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			t := padded[y*pw : (y+1)*pw]
			m := padded[(y+1)*pw : (y+2)*pw]
			b := padded[(y+2)*pw : (y+3)*pw]
			out := dst.Pix[y*w : (y+1)*w]
			for x := range out {
				gx := int32(t[x+2]) - int32(t[x]) +
					2*(int32(m[x+2])-int32(m[x])) +
					int32(b[x+2]) - int32(b[x])
				gy := int32(b[x]) + 2*int32(b[x+1]) + int32(b[x+2]) -
					int32(t[x]) - 2*int32(t[x+1]) - int32(t[x+2])

				if mode == L1 {
					s := abs(gx) + abs(gy)
					if s > 255 {
						s = 255
					}
					out[x] = uint8(s)
					continue
				}
				s := gx*gx + gy*gy
				if s >= int32(len(sqrt)) {
					out[x] = 255
				} else {
					out[x] = sqrt[s]
				}
			}
		}
	})
	return dst, nil
}

// pad returns a (w+2)x(h+2) copy of src with the outer ring replicating the
// nearest edge pixel.
func pad(src imaging.IntensityBuffer) []byte {
	w, h := src.Width, src.Height
	pw := w + 2
	out := make([]byte, pw*(h+2))
	for y := 0; y < h+2; y++ {
		sy := clamp(y-1, 0, h-1)
		row := src.Pix[sy*w : (sy+1)*w]
		dst := out[y*pw : (y+1)*pw]
		dst[0] = row[0]
		copy(dst[1:], row)
		dst[pw-1] = row[w-1]
	}
	return out
}

var (
	sqrtOnce  sync.Once
	sqrtTable []uint8
)

// roundedSqrt returns a table t where t[s] = round(sqrt(s)) for every s whose
// rounded root is at most 255. Larger sums saturate to 255.
func roundedSqrt() []uint8 {
	sqrtOnce.Do(func() {
		// round(sqrt(s)) == n  <=>  (2n-1)² <= 4s < (2n+1)²; 4s is even and
		// (2n+1)² is odd, so halves never tie.
		const limit = 255*255 + 255 // largest s with round(sqrt(s)) == 255
		sqrtTable = make([]uint8, limit+1)
		n := 0
		for s := 0; s <= limit; s++ {
			for (2*n+1)*(2*n+1) <= 4*s {
				n++
			}
			sqrtTable[s] = uint8(n)
		}
	})
	return sqrtTable
}
