package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ironsheep/edge-detect/internal/backend"
	"github.com/ironsheep/edge-detect/internal/imaging"
)

// stepImage returns a BGRA image whose left half is black and right half white.
func stepImage(t *testing.T, width, height int) imaging.PixelBuffer {
	t.Helper()
	p, err := imaging.NewPixelBuffer(width, height, imaging.BGRA)
	require.NoError(t, err)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.NRGBA{A: 255}
			if x >= width/2 {
				c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			}
			require.NoError(t, p.Set(y, x, c))
		}
	}
	return p
}

func TestDetect(t *testing.T) {
	p := New(backend.Default())
	src := stepImage(t, 10, 6)

	res, err := p.Detect(src, backend.IDReference)
	require.NoError(t, err)
	require.Equal(t, backend.IDReference, res.Edge.BackendID)
	require.Equal(t, imaging.BGRA, res.Display.Layout)
	require.Equal(t, 10, res.Display.Width)
	require.Equal(t, 6, res.Display.Height)

	for y := 0; y < 6; y++ {
		for x := 0; x < 10; x++ {
			c, err := res.Display.At(y, x)
			require.NoError(t, err)
			require.Equal(t, uint8(255), c.A)
			require.Equal(t, c.R, c.G)
			require.Equal(t, c.G, c.B)
			if x == 4 || x == 5 {
				require.NotZero(t, c.R, "ridge at (%d,%d)", y, x)
			} else {
				require.Zero(t, c.R, "flat at (%d,%d)", y, x)
			}
		}
	}
}

func TestDetect_DisplayOptions(t *testing.T) {
	p := New(backend.Default(), imaging.WithLayout(imaging.RGBA), imaging.WithTint("#FF0000"))
	res, err := p.Detect(stepImage(t, 8, 4), backend.IDFixedPoint)
	require.NoError(t, err)
	require.Equal(t, imaging.RGBA, res.Display.Layout)

	c, err := res.Display.At(0, 4)
	require.NoError(t, err)
	require.Equal(t, color.NRGBA{R: 255, A: 255}, c)
}

func TestDetect_InputUntouched(t *testing.T) {
	src := stepImage(t, 8, 8)
	orig := append([]byte(nil), src.Pix...)

	_, err := New(backend.Default()).Detect(src, backend.IDFixedPoint)
	require.NoError(t, err)
	require.Equal(t, orig, src.Pix)
}

func TestDetect_StageErrors(t *testing.T) {
	p := New(backend.Default())
	gray, err := imaging.NewPixelBuffer(4, 4, imaging.Gray8)
	require.NoError(t, err)

	t.Run("unknown backend", func(t *testing.T) {
		res, err := p.Detect(stepImage(t, 4, 4), "opencl")
		require.Nil(t, res)
		var se *StageError
		require.ErrorAs(t, err, &se)
		require.Equal(t, StageSelect, se.Stage)
		var ube *backend.UnknownBackendError
		require.ErrorAs(t, err, &ube)
		require.Equal(t, "opencl", ube.ID)
	})

	t.Run("missing backend", func(t *testing.T) {
		_, err := p.Detect(stepImage(t, 4, 4), "")
		var ube *backend.UnknownBackendError
		require.ErrorAs(t, err, &ube)
	})

	t.Run("unknown backend checked first", func(t *testing.T) {
		// Gray8 input would fail grayscale, but selection fails before that.
		_, err := p.Detect(gray, "opencl")
		var se *StageError
		require.ErrorAs(t, err, &se)
		require.Equal(t, StageSelect, se.Stage)
	})

	t.Run("unsupported format", func(t *testing.T) {
		res, err := p.Detect(gray, backend.IDReference)
		require.Nil(t, res)
		var se *StageError
		require.ErrorAs(t, err, &se)
		require.Equal(t, StageGrayscale, se.Stage)
		var ufe *imaging.UnsupportedFormatError
		require.ErrorAs(t, err, &ufe)
		require.Contains(t, err.Error(), "grayscale")
	})

	t.Run("bad tint", func(t *testing.T) {
		_, err := New(backend.Default(), imaging.WithTint("#zz")).Detect(stepImage(t, 4, 4), backend.IDReference)
		var se *StageError
		require.ErrorAs(t, err, &se)
		require.Equal(t, StageReconstruct, se.Stage)
	})
}

type failingBackend struct{}

func (failingBackend) ID() string          { return "failing" }
func (failingBackend) Description() string { return "always fails" }
func (failingBackend) Detect(imaging.IntensityBuffer) (imaging.IntensityBuffer, error) {
	return imaging.IntensityBuffer{}, errors.New("out of registers")
}

func TestDetect_BackendFailure(t *testing.T) {
	reg, err := backend.NewRegistry(failingBackend{})
	require.NoError(t, err)

	res, err := New(reg).Detect(stepImage(t, 4, 4), "failing")
	require.Nil(t, res)
	var se *StageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, StageDispatch, se.Stage)
	var bee *backend.BackendExecutionError
	require.ErrorAs(t, err, &bee)
	require.Equal(t, "failing", bee.ID)
}

func TestBatch(t *testing.T) {
	p := New(backend.Default())
	gray, err := imaging.NewPixelBuffer(3, 3, imaging.Gray8)
	require.NoError(t, err)

	jobs := []Job{
		{Name: "a", Input: stepImage(t, 6, 6), BackendID: backend.IDReference},
		{Name: "b", Input: gray, BackendID: backend.IDReference},
		{Name: "c", Input: stepImage(t, 12, 5), BackendID: "Assembly"},
		{Name: "d", Input: stepImage(t, 4, 4), BackendID: "nope"},
	}

	items, err := p.Batch(context.Background(), jobs, 2)
	require.NoError(t, err)
	require.Len(t, items, 4)

	for i, item := range items {
		require.Equal(t, jobs[i].Name, item.Name)
	}
	require.NoError(t, items[0].Err)
	require.Equal(t, 6, items[0].Result.Display.Width)
	require.Error(t, items[1].Err)
	require.Nil(t, items[1].Result)
	require.NoError(t, items[2].Err)
	require.Equal(t, backend.IDFixedPoint, items[2].Result.Edge.BackendID)
	var ube *backend.UnknownBackendError
	require.ErrorAs(t, items[3].Err, &ube)
}

func TestBatch_Many(t *testing.T) {
	p := New(backend.Default())
	var jobs []Job
	for i := 0; i < 20; i++ {
		jobs = append(jobs, Job{Name: fmt.Sprint(i), Input: stepImage(t, 8+i, 5), BackendID: backend.IDFixedPoint})
	}

	items, err := p.Batch(context.Background(), jobs, 0)
	require.NoError(t, err)
	for i, item := range items {
		require.NoError(t, item.Err)
		require.Equal(t, 8+i, item.Result.Display.Width)
	}
}

func TestBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := []Job{
		{Name: "a", Input: stepImage(t, 4, 4), BackendID: backend.IDReference},
		{Name: "b", Input: stepImage(t, 4, 4), BackendID: backend.IDReference},
	}
	items, err := New(backend.Default()).Batch(ctx, jobs, 1)
	require.ErrorIs(t, err, context.Canceled)
	for _, item := range items {
		require.ErrorIs(t, item.Err, context.Canceled)
		require.Nil(t, item.Result)
	}
}
