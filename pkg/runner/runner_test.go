package runner

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milahu/imagemagick-scripts-sub003/pkg/config"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/effects"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/engine"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/fxerr"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/magickver"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/stage"
)

type fakeEngine struct {
	runs int
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Capabilities() engine.Capabilities {
	return engine.CapabilitiesFor(magickver.MustParse("7.1.1-21"))
}

func (f *fakeEngine) Run(ctx context.Context, args []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.runs++
	return os.WriteFile(args[len(args)-1], []byte("result"), 0o600)
}

func (f *fakeEngine) Cache(_ context.Context, src, dst string) error {
	b, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, b, 0o600)
}

func (f *fakeEngine) Identify(context.Context, string) (stage.Info, error) {
	return stage.Info{}, nil
}

type harness struct {
	runner  *Runner
	engine  *fakeEngine
	opened  int
	states  []State
	dir     string
	scratch string
}

func newHarness(t *testing.T) *harness {
	h := &harness{engine: &fakeEngine{}, dir: t.TempDir(), scratch: t.TempDir()}
	cfg := config.Default()
	cfg.TmpDir = h.scratch
	h.runner = New(cfg)
	h.runner.Open = func(context.Context, config.Config) (engine.Adapter, error) {
		h.opened++
		return h.engine, nil
	}
	h.runner.OnTransition = func(_, to State) { h.states = append(h.states, to) }
	return h
}

func (h *harness) input(t *testing.T) string {
	path := filepath.Join(h.dir, "in.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 8, 6))))
	return path
}

func (h *harness) assertScratchEmpty(t *testing.T) {
	entries, err := os.ReadDir(h.scratch)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunSuccess(t *testing.T) {
	h := newHarness(t)
	in := h.input(t)
	out := filepath.Join(h.dir, "out.png")

	res, err := h.runner.Run(context.Background(), effects.Glow, []string{"-r", "2", in, out})
	require.NoError(t, err)
	assert.Equal(t, out, res.Output)
	assert.Equal(t, 6, res.Steps)
	assert.Equal(t, []State{Validating, Staging, Composing, Executing, Success}, h.states)
	assert.Equal(t, Success, h.runner.State())

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "result", string(b))
	h.assertScratchEmpty(t)
}

func TestRunHelp(t *testing.T) {
	h := newHarness(t)
	res, err := h.runner.Run(context.Background(), effects.Melt, []string{"-H"})
	require.NoError(t, err)
	assert.True(t, res.Help)
	assert.Equal(t, []State{Validating, Success}, h.states)
	assert.Zero(t, h.opened)
}

func TestRunValidationFailsBeforeIO(t *testing.T) {
	h := newHarness(t)
	out := filepath.Join(h.dir, "out.png")
	_, err := h.runner.Run(context.Background(), effects.HueShift,
		[]string{"-a", "150", "-u", "percent", filepath.Join(h.dir, "missing.png"), out})
	require.Error(t, err)
	assert.True(t, fxerr.Is(err, fxerr.KindValidation))
	assert.Equal(t, []State{Validating, Failed}, h.states)
	assert.Zero(t, h.opened)
	h.assertScratchEmpty(t)
}

func TestRunUsageError(t *testing.T) {
	h := newHarness(t)
	_, err := h.runner.Run(context.Background(), effects.Tile, []string{"only-one.png"})
	require.Error(t, err)
	assert.True(t, fxerr.Is(err, fxerr.KindUsage))
	assert.Equal(t, 1, fxerr.ExitCode(err))
}

func TestRunMissingInput(t *testing.T) {
	h := newHarness(t)
	out := filepath.Join(h.dir, "out.png")
	require.NoError(t, os.WriteFile(out, []byte("keep"), 0o644))

	_, err := h.runner.Run(context.Background(), effects.Melt, []string{filepath.Join(h.dir, "missing.png"), out})
	require.Error(t, err)
	assert.True(t, fxerr.Is(err, fxerr.KindInput))
	assert.Equal(t, 1, fxerr.ExitCode(err))
	assert.Equal(t, []State{Validating, Staging, Failed}, h.states)
	assert.Zero(t, h.engine.runs)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(b))
	h.assertScratchEmpty(t)
}

func TestRunParameterError(t *testing.T) {
	h := newHarness(t)
	in := h.input(t)
	out := filepath.Join(h.dir, "out.png")

	// rotate needs a square image; the input is 8x6
	_, err := h.runner.Run(context.Background(), effects.Tile, []string{"-a", "rotate", in, out})
	require.Error(t, err)
	assert.True(t, fxerr.Is(err, fxerr.KindParameter))
	assert.Equal(t, []State{Validating, Staging, Composing, Failed}, h.states)
	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err))
	h.assertScratchEmpty(t)
}

func TestRunWritesGraph(t *testing.T) {
	h := newHarness(t)
	h.runner.cfg.GraphPath = filepath.Join(h.dir, "pipeline.dot")
	in := h.input(t)

	_, err := h.runner.Run(context.Background(), effects.PassFilter, []string{"-t", "edge", in, filepath.Join(h.dir, "out.png")})
	require.NoError(t, err)
	b, err := os.ReadFile(h.runner.cfg.GraphPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), "digraph")
	assert.Contains(t, string(b), `"low" -> "diff"`)
}

func TestRunCancelled(t *testing.T) {
	h := newHarness(t)
	in := h.input(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.runner.Run(ctx, effects.Vibrance, []string{in, filepath.Join(h.dir, "out.png")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interrupted")
	assert.Equal(t, Failed, h.runner.State())
	h.assertScratchEmpty(t)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "composing", Composing.String())
	assert.Equal(t, "unknown", State(42).String())
}
