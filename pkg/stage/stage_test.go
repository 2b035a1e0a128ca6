package stage

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milahu/imagemagick-scripts-sub003/pkg/fxerr"
)

type copyEngine struct {
	cached   atomic.Int32
	identify Info
	fail     error
}

func (e *copyEngine) Cache(_ context.Context, src, dst string) error {
	if e.fail != nil {
		return e.fail
	}
	b, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	e.cached.Add(1)
	return os.WriteFile(dst, b, 0o600)
}

func (e *copyEngine) Identify(context.Context, string) (Info, error) {
	return e.identify, nil
}

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestArenaLifecycle(t *testing.T) {
	a, err := NewArena(t.TempDir())
	require.NoError(t, err)

	p1 := a.Path("input", CacheExt)
	p2 := a.Path("input", CacheExt)
	assert.NotEqual(t, p1, p2)
	assert.Equal(t, a.Dir(), filepath.Dir(p1))
	require.NoError(t, os.WriteFile(p1, []byte("x"), 0o600))

	require.NoError(t, a.Close())
	_, err = os.Stat(a.Dir())
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, a.Close())
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.png")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))

	tests := []struct {
		name string
		path string
		ok   bool
	}{
		{"Missing", filepath.Join(dir, "nope.png"), false},
		{"Directory", dir, false},
		{"Empty", empty, false},
		{"Valid", writePNG(t, dir, "ok.png", 4, 3), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.path)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, fxerr.Is(err, fxerr.KindInput))
			assert.Contains(t, err.Error(), tt.path)
		})
	}
}

func TestStageProbesGoFormats(t *testing.T) {
	dir := t.TempDir()
	src := writePNG(t, dir, "in.png", 7, 5)
	a, err := NewArena(dir)
	require.NoError(t, err)
	defer a.Close()

	img, err := New(a, &copyEngine{}).Stage(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, src, img.Source)
	assert.Equal(t, a.Dir(), filepath.Dir(img.Path))
	assert.Equal(t, CacheExt, filepath.Ext(img.Path))
	assert.Equal(t, 7, img.Info.Width)
	assert.Equal(t, 5, img.Info.Height)
	assert.Equal(t, "png", img.Info.Format)
	assert.True(t, img.Info.Alpha)
	assert.Equal(t, 4, img.Info.Channels)
}

func TestStageFallsBackToIdentify(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.miff")
	require.NoError(t, os.WriteFile(src, []byte("id=ImageMagick\n"), 0o600))
	a, err := NewArena(dir)
	require.NoError(t, err)
	defer a.Close()

	eng := &copyEngine{identify: Info{Width: 10, Height: 20, Channels: 3, Format: "MIFF"}}
	img, err := New(a, eng).Stage(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, eng.identify, img.Info)
}

func TestStageUnreadableImage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.txt")
	require.NoError(t, os.WriteFile(src, []byte("not an image"), 0o600))
	a, err := NewArena(dir)
	require.NoError(t, err)
	defer a.Close()

	_, err = New(a, &copyEngine{fail: errors.New("no decode delegate")}).Stage(context.Background(), src)
	require.Error(t, err)
	assert.True(t, fxerr.Is(err, fxerr.KindInput))
}

func TestStageAll(t *testing.T) {
	dir := t.TempDir()
	a, err := NewArena(dir)
	require.NoError(t, err)
	defer a.Close()
	paths := []string{
		writePNG(t, dir, "a.png", 2, 2),
		writePNG(t, dir, "b.png", 3, 3),
		writePNG(t, dir, "c.png", 4, 4),
	}

	eng := &copyEngine{}
	images, err := New(a, eng).StageAll(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, images, 3)
	for i, img := range images {
		assert.Equal(t, paths[i], img.Source)
		assert.Equal(t, i+2, img.Info.Width)
	}
	assert.EqualValues(t, 3, eng.cached.Load())
}

func TestStageAllChecksBeforeCaching(t *testing.T) {
	dir := t.TempDir()
	a, err := NewArena(dir)
	require.NoError(t, err)
	defer a.Close()

	eng := &copyEngine{}
	_, err = New(a, eng).StageAll(context.Background(), []string{
		writePNG(t, dir, "a.png", 2, 2),
		filepath.Join(dir, "missing.png"),
	})
	require.Error(t, err)
	assert.True(t, fxerr.Is(err, fxerr.KindInput))
	assert.Zero(t, eng.cached.Load())
}
