package runner

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milahu/imagemagick-scripts-sub003/pkg/config"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/effects"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/engine"
)

// These tests drive a real ImageMagick and only run with
// MAGICKFX_INTEGRATION=1.
func integrationRunner(t *testing.T) *Runner {
	t.Helper()
	if os.Getenv("MAGICKFX_INTEGRATION") != "1" {
		t.Skip("set MAGICKFX_INTEGRATION=1 to run against ImageMagick")
	}
	cfg, err := config.FromLookup(os.LookupEnv)
	require.NoError(t, err)
	cfg.TmpDir = t.TempDir()
	if _, err := engine.Open(context.Background(), cfg); err != nil {
		t.Skipf("no ImageMagick: %v", err)
	}
	return New(cfg)
}

func writeImage(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func readImage(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	return img
}

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 255 / (w - 1)), G: uint8(y * 255 / (h - 1)), B: 128, A: 255})
		}
	}
	return img
}

func apply(t *testing.T, r *Runner, name string, in image.Image, opts ...string) image.Image {
	t.Helper()
	e, ok := effects.Lookup(name)
	require.True(t, ok)
	out := filepath.Join(t.TempDir(), "out.png")
	args := append(append([]string(nil), opts...), writeImage(t, in), out)
	_, err := r.Run(context.Background(), e, args)
	require.NoError(t, err)
	return readImage(t, out)
}

func channel8(c color.Color) (r, g, b uint8) {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return n.R, n.G, n.B
}

func diff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func TestIntegrationEndpointsIdentity(t *testing.T) {
	r := integrationRunner(t)
	in := gradient(32, 16)
	out := apply(t, r, "endpoints", in)

	require.Equal(t, in.Bounds().Size(), out.Bounds().Size())
	for y := 0; y < 16; y++ {
		for x := 0; x < 32; x++ {
			r0, g0, b0 := channel8(in.At(x, y))
			r1, g1, b1 := channel8(out.At(x, y))
			if diff(r0, r1) > 1 || diff(g0, g1) > 1 || diff(b0, b1) > 1 {
				t.Fatalf("pixel %d,%d changed: %v -> %v", x, y, in.At(x, y), out.At(x, y))
			}
		}
	}
}

func TestIntegrationRangeThresh(t *testing.T) {
	r := integrationRunner(t)
	in := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := range in.Pix {
		in.Pix[i] = 10
		if i%4 == 3 {
			in.Pix[i] = 255
		}
	}

	all := apply(t, r, "rangethresh", in)
	none := apply(t, r, "rangethresh", in, "-r", "200,200", "-g", "200,200", "-b", "200,200")

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			v, _, _ := channel8(all.At(x, y))
			assert.Equal(t, uint8(255), v, "full range at %d,%d", x, y)
			v, _, _ = channel8(none.At(x, y))
			assert.Equal(t, uint8(0), v, "empty range at %d,%d", x, y)
		}
	}
}

func TestIntegrationMeltZeroLength(t *testing.T) {
	r := integrationRunner(t)
	in := gradient(12, 9)
	out := apply(t, r, "melt", in, "-l", "0")

	assert.Equal(t, in.Bounds().Size(), out.Bounds().Size())
}

func TestIntegrationTileSize(t *testing.T) {
	r := integrationRunner(t)
	out := apply(t, r, "tile", gradient(10, 10), "-a", "mirror", "-x", "3", "-y", "2")

	assert.Equal(t, image.Pt(30, 20), out.Bounds().Size())
}
