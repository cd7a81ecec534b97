package sobel

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ironsheep/edge-detect/internal/imaging"
)

func engines() map[string]Engine {
	return map[string]Engine{
		"reference":      Reference{},
		"fixed-point":    FixedPoint{},
		"reference-l1":   Reference{Mode: L1},
		"fixed-point-l1": FixedPoint{Mode: L1},
	}
}

func fromRows(rows [][]uint8) imaging.IntensityBuffer {
	b := imaging.NewIntensityBuffer(len(rows[0]), len(rows))
	for y, row := range rows {
		copy(b.Pix[y*b.Width:], row)
	}
	return b
}

func filled(width, height int, v uint8) imaging.IntensityBuffer {
	b := imaging.NewIntensityBuffer(width, height)
	for i := range b.Pix {
		b.Pix[i] = v
	}
	return b
}

func randomBuffer(width, height int, seed int64) imaging.IntensityBuffer {
	rng := rand.New(rand.NewSource(seed))
	b := imaging.NewIntensityBuffer(width, height)
	for i := range b.Pix {
		b.Pix[i] = uint8(rng.Intn(256))
	}
	return b
}

func TestDetect_FlatFieldIsZero(t *testing.T) {
	for name, e := range engines() {
		for _, v := range []uint8{0, 1, 128, 255} {
			t.Run(fmt.Sprintf("%s/%d", name, v), func(t *testing.T) {
				out, err := e.Detect(filled(7, 5, v))
				require.NoError(t, err)
				for i, m := range out.Pix {
					require.Zerof(t, m, "pixel %d (row %d, col %d)", i, i/7, i%7)
				}
			})
		}
	}
}

func TestDetect_AllZero3x3(t *testing.T) {
	for name, e := range engines() {
		t.Run(name, func(t *testing.T) {
			out, err := e.Detect(imaging.NewIntensityBuffer(3, 3))
			require.NoError(t, err)
			require.Equal(t, 3, out.Width)
			require.Equal(t, 3, out.Height)
			require.Equal(t, make([]byte, 9), out.Pix)
		})
	}
}

func TestDetect_VerticalStep(t *testing.T) {
	// Columns 0-2 black, 3-5 white.
	src := imaging.NewIntensityBuffer(6, 4)
	for y := 0; y < 4; y++ {
		for x := 3; x < 6; x++ {
			src.Pix[y*6+x] = 255
		}
	}

	for name, e := range engines() {
		t.Run(name, func(t *testing.T) {
			out, err := e.Detect(src)
			require.NoError(t, err)
			for y := 0; y < 4; y++ {
				for x := 0; x < 6; x++ {
					m := out.Pix[y*6+x]
					if x == 2 || x == 3 {
						require.Equalf(t, uint8(255), m, "ridge at row %d col %d", y, x)
					} else {
						require.Zerof(t, m, "row %d col %d", y, x)
					}
				}
			}
		})
	}
}

func TestDetect_WeakStepIsExact(t *testing.T) {
	// A step of 10 gives |gx| = 40 at the two boundary columns.
	src := fromRows([][]uint8{
		{0, 0, 10, 10},
		{0, 0, 10, 10},
		{0, 0, 10, 10},
	})
	for name, e := range engines() {
		t.Run(name, func(t *testing.T) {
			out, err := e.Detect(src)
			require.NoError(t, err)
			for y := 0; y < 3; y++ {
				require.Equal(t, []byte{0, 40, 40, 0}, out.Pix[y*4:(y+1)*4], "row %d", y)
			}
		})
	}
}

func TestDetect_BrightCenter3x3(t *testing.T) {
	src := fromRows([][]uint8{
		{0, 0, 0},
		{0, 255, 0},
		{0, 0, 0},
	})

	for name, e := range engines() {
		t.Run(name, func(t *testing.T) {
			out, err := e.Detect(src)
			require.NoError(t, err)
			// Both kernels weight the center sample by zero, and the center's
			// neighbors are all dark, so the center itself has no gradient.
			require.Zero(t, out.Pix[4])
			// Every ring pixel sees the bright sample, replicated where the
			// window leaves the image.
			for _, i := range []int{0, 1, 2, 3, 5, 6, 7, 8} {
				require.NotZerof(t, out.Pix[i], "ring pixel %d", i)
			}
		})
	}
}

func TestDetect_BrightCenter5x5(t *testing.T) {
	src := imaging.NewIntensityBuffer(5, 5)
	src.Pix[2*5+2] = 255

	for name, e := range engines() {
		t.Run(name, func(t *testing.T) {
			out, err := e.Detect(src)
			require.NoError(t, err)
			at := func(r, c int) uint8 { return out.Pix[r*5+c] }

			for _, n := range [][2]int{{1, 1}, {1, 2}, {1, 3}, {2, 1}, {2, 3}, {3, 1}, {3, 2}, {3, 3}} {
				require.NotZerof(t, at(n[0], n[1]), "neighbor %v", n)
			}
			require.Zero(t, at(2, 2), "center")
			for _, c := range [][2]int{{0, 0}, {0, 4}, {4, 0}, {4, 4}} {
				require.Zerof(t, at(c[0], c[1]), "corner %v", c)
			}
		})
	}
}

func TestDetect_ReplicateBorder(t *testing.T) {
	// A single bright pixel in the top-left corner. Replicate extension
	// repeats it above and to the left, so the corner's own window is
	//   255 255 0
	//   255 255 0
	//     0   0 0
	src := imaging.NewIntensityBuffer(4, 4)
	src.Pix[0] = 255

	gp := Gradients(src)
	// gx: right column minus left column, rows weighted 1,2,1.
	// left column = 255,255,0 ; right column = 0,0,0
	require.Equal(t, int16(-(255 + 2*255)), gp.Gx[0])
	// gy: bottom row minus top row, columns weighted 1,2,1.
	// top row = 255,255,0 ; bottom row = 0,0,0
	require.Equal(t, int16(-(255 + 2*255)), gp.Gy[0])

	// Pixel (0,1) window: top and middle rows replicate row 0.
	//   255 0 0
	//   255 0 0
	//     0 0 0
	require.Equal(t, int16(-(255 + 2*255)), gp.Gx[1])
	require.Equal(t, int16(-255), gp.Gy[1])
}

func TestDetect_PreservesDimensions(t *testing.T) {
	sizes := [][2]int{{1, 1}, {1, 5}, {5, 1}, {2, 2}, {3, 7}, {64, 33}}
	for name, e := range engines() {
		for _, s := range sizes {
			t.Run(fmt.Sprintf("%s/%dx%d", name, s[0], s[1]), func(t *testing.T) {
				out, err := e.Detect(randomBuffer(s[0], s[1], 7))
				require.NoError(t, err)
				require.Equal(t, s[0], out.Width)
				require.Equal(t, s[1], out.Height)
				require.Len(t, out.Pix, s[0]*s[1])
			})
		}
	}
}

func TestDetect_DoesNotModifyInput(t *testing.T) {
	src := randomBuffer(16, 9, 3)
	orig := src.Clone()
	for name, e := range engines() {
		_, err := e.Detect(src)
		require.NoError(t, err, name)
		require.Equal(t, orig.Pix, src.Pix, name)
	}
}

func TestDetect_InvalidInput(t *testing.T) {
	bad := imaging.IntensityBuffer{Width: 4, Height: 4, Pix: make([]byte, 3)}
	for name, e := range engines() {
		_, err := e.Detect(bad)
		require.Error(t, err, name)
	}
}

func TestEngines_Agree(t *testing.T) {
	// Both Euclidean engines implement the same contract; allow one level.
	const tolerance = 1
	for _, mode := range []Mode{Euclidean, L1} {
		for seed := int64(1); seed <= 4; seed++ {
			t.Run(fmt.Sprintf("%v/seed%d", mode, seed), func(t *testing.T) {
				src := randomBuffer(41, 29, seed)
				ref, err := Reference{Mode: mode}.Detect(src)
				require.NoError(t, err)
				fast, err := FixedPoint{Mode: mode}.Detect(src)
				require.NoError(t, err)
				for i := range ref.Pix {
					d := int(ref.Pix[i]) - int(fast.Pix[i])
					if d < -tolerance || d > tolerance {
						t.Fatalf("pixel %d: reference %d, fixed-point %d", i, ref.Pix[i], fast.Pix[i])
					}
				}
			})
		}
	}
}

func TestDetect_ConcurrentUse(t *testing.T) {
	e := FixedPoint{}
	src := randomBuffer(50, 50, 11)
	want, err := Reference{}.Detect(src)
	require.NoError(t, err)

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			got, err := e.Detect(src.Clone())
			if err == nil && string(got.Pix) != string(want.Pix) {
				err = fmt.Errorf("concurrent result differs")
			}
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-done)
	}
}

func TestMagnitude(t *testing.T) {
	tests := []struct {
		gx, gy int16
		mode   Mode
		want   uint8
	}{
		{0, 0, Euclidean, 0},
		{3, 4, Euclidean, 5},
		{1, 1, Euclidean, 1},        // 1.414
		{1, 2, Euclidean, 2},        // 2.236
		{-100, 100, Euclidean, 141}, // 141.42
		{180, 181, Euclidean, 255},  // 255.26 rounds to 255
		{1020, 1020, Euclidean, 255},
		{-3, 4, L1, 7},
		{200, -100, L1, 255},
	}

	for _, tt := range tests {
		got := magnitude(tt.gx, tt.gy, tt.mode)
		if got != tt.want {
			t.Errorf("magnitude(%d, %d, %v): got %d, want %d", tt.gx, tt.gy, tt.mode, got, tt.want)
		}
	}
}

func TestRoundedSqrt(t *testing.T) {
	table := roundedSqrt()
	require.Len(t, table, 255*255+255+1)
	for s := range table {
		want := math.Round(math.Sqrt(float64(s)))
		if float64(table[s]) != want {
			t.Fatalf("table[%d]: got %d, want %v", s, table[s], want)
		}
	}
}

func TestPad(t *testing.T) {
	src := fromRows([][]uint8{
		{1, 2},
		{3, 4},
	})
	want := []byte{
		1, 1, 2, 2,
		1, 1, 2, 2,
		3, 3, 4, 4,
		3, 3, 4, 4,
	}
	require.Equal(t, want, pad(src))
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, min, max, want int
	}{
		{5, 0, 10, 5},   // within range
		{-1, 0, 10, 0},  // below min
		{15, 0, 10, 10}, // above max
		{0, 0, 10, 0},   // at min
		{10, 0, 10, 10}, // at max
	}

	for _, tt := range tests {
		got := clamp(tt.val, tt.min, tt.max)
		if got != tt.want {
			t.Errorf("clamp(%d, %d, %d): got %d, want %d",
				tt.val, tt.min, tt.max, got, tt.want)
		}
	}
}
