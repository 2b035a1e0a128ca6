package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blang/semver"
	"github.com/pkg/errors"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milahu/imagemagick-scripts-sub003/pkg/config"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/engine"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/magickver"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/stage"
)

type fakeEngine struct {
	runs int
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Capabilities() engine.Capabilities {
	return engine.CapabilitiesFor(magickver.MustParse("6.9.12-98"))
}

func (f *fakeEngine) Run(_ context.Context, args []string) error {
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

type result struct {
	code   int
	stdout string
	stderr string
}

func run(t *testing.T, eng *fakeEngine, argv ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cfg := config.Default()
	cfg.TmpDir = t.TempDir()
	app := New(cfg, &stdout, &stderr)
	app.Stdin = strings.NewReader("")
	app.Open = func(context.Context, config.Config) (engine.Adapter, error) {
		if eng == nil {
			return nil, errors.New("no engine")
		}
		return eng, nil
	}
	code := app.Main(context.Background(), argv)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func writePNG(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 8, 6))))
	return path
}

func TestEffectSubcommand(t *testing.T) {
	eng := &fakeEngine{}
	in := writePNG(t)
	out := filepath.Join(t.TempDir(), "out.png")

	res := run(t, eng, "magickfx", "glow", "-r", "3", in, out)

	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, 1, eng.runs)
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "result", string(b))
}

func TestMultiCall(t *testing.T) {
	eng := &fakeEngine{}
	in := writePNG(t)
	out := filepath.Join(t.TempDir(), "out.png")

	res := run(t, eng, "/usr/local/bin/melt", "-l", "2", in, out)

	require.Equal(t, 0, res.code, res.stderr)
	assert.FileExists(t, out)
}

func TestMultiCallWindowsSuffix(t *testing.T) {
	assert.Equal(t, "tile", invokedAs(filepath.Join("bin", "tile.exe")))
	assert.Equal(t, "magickfx", invokedAs("magickfx"))
}

func TestHelpGoesToStderr(t *testing.T) {
	for _, argv := range [][]string{
		{"glow", "-h"},
		{"magickfx", "glow", "-help"},
		{"glow", "-H", "ignored"},
	} {
		res := run(t, nil, argv...)
		assert.Equal(t, 0, res.code, argv)
		assert.Empty(t, res.stdout, argv)
		assert.Contains(t, res.stderr, "USAGE:", argv)
		assert.Contains(t, res.stderr, "-r", argv)
	}
}

func TestInvalidOptionPrintsShortUsage(t *testing.T) {
	eng := &fakeEngine{}
	res := run(t, eng, "vibrance", "-a", "500", "in.png", "out.png")

	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "vibrance: invalid argument: -a")
	assert.Contains(t, res.stderr, "USAGE: vibrance [options] infile outfile")
	assert.Zero(t, eng.runs)
}

func TestHueOutOfRangeRejectedBeforeIO(t *testing.T) {
	res := run(t, nil, "magickfx", "hueshift", "-a", "150", "missing.png", "out.png")

	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "magickfx hueshift: invalid argument")
	assert.NotContains(t, res.stderr, "missing.png")
}

func TestWrongArgumentCount(t *testing.T) {
	res := run(t, nil, "tile", "only-one.png")

	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "usage error")
	assert.Contains(t, res.stderr, "USAGE: tile")
}

func TestMissingInput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.png")
	require.NoError(t, os.WriteFile(out, []byte("keep"), 0o600))

	res := run(t, &fakeEngine{}, "glow", filepath.Join(t.TempDir(), "nope.png"), out)

	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "input error")
	assert.NotContains(t, res.stderr, "USAGE:")
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(b))
}

func TestUnknownCommand(t *testing.T) {
	res := run(t, nil, "magickfx", "sparkle")

	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, `unknown command "sparkle"`)
}

func TestList(t *testing.T) {
	res := run(t, nil, "magickfx", "list")

	require.Equal(t, 0, res.code, res.stderr)
	for _, name := range []string{"endpoints", "glow", "hueshift", "melt", "passfilter", "polarblur", "rangethresh", "ripples", "tile", "vibrance"} {
		assert.Contains(t, res.stdout, name)
	}
}

func TestListJSON(t *testing.T) {
	res := run(t, nil, "magickfx", "list", "--json")
	require.Equal(t, 0, res.code, res.stderr)

	var metas []EffectMeta
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &metas))
	require.NotEmpty(t, metas)

	var glow *EffectMeta
	for i := range metas {
		if metas[i].Name == "glow" {
			glow = &metas[i]
		}
	}
	require.NotNil(t, glow)
	rules := map[string]ValidationRule{}
	for _, r := range glow.Options {
		rules[r.Flag] = r
	}

	fuzz := rules["-f"]
	assert.Equal(t, ParamTypePercent, fuzz.Type)
	assert.Equal(t, "%", fuzz.Unit)
	require.NotNil(t, fuzz.Max)
	assert.Equal(t, 100.0, *fuzz.Max)
	assert.Equal(t, "10", fuzz.Default)

	assert.Equal(t, ParamTypeColor, rules["-c"].Type)
	assert.False(t, rules["-g"].Required)
}

func TestDescribeEnum(t *testing.T) {
	res := run(t, nil, "magickfx", "list", "--json")
	require.Equal(t, 0, res.code)

	var metas []EffectMeta
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &metas))
	for _, m := range metas {
		if m.Name != "tile" {
			continue
		}
		for _, r := range m.Options {
			if r.Flag == "-a" {
				assert.Equal(t, ParamTypeEnum, r.Type)
				assert.Equal(t, []string{"mirror", "repeat", "rotate", "transpose"}, r.EnumOptions)
				return
			}
		}
	}
	t.Fatal("tile -a not described")
}

func TestVersion(t *testing.T) {
	res := run(t, &fakeEngine{}, "magickfx", "version")

	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "magickfx "+Version)
	assert.Contains(t, res.stdout, "im6")
	assert.Contains(t, res.stdout, "engine: fake, ImageMagick 6.9.12-98")
}

func TestVersionWithoutEngine(t *testing.T) {
	res := run(t, nil, "magickfx", "version")

	require.Equal(t, 0, res.code)
	assert.Contains(t, res.stdout, "engine: unavailable")
}

func release(v string) *selfupdate.Release {
	return &selfupdate.Release{Version: semver.MustParse(v), AssetURL: "https://example.invalid/magickfx.tar.gz"}
}

func TestUpdate(t *testing.T) {
	cases := []struct {
		name    string
		latest  *selfupdate.Release
		yes     bool
		input   string
		applied bool
		output  string
	}{
		{name: "no releases", output: "No releases found"},
		{name: "up to date", latest: release("0.1.0"), output: "already running the latest"},
		{name: "declined", latest: release("0.2.0"), input: "n\n", output: "Update cancelled."},
		{name: "confirmed", latest: release("0.2.0"), input: "y\n", applied: true, output: "Updated to version 0.2.0"},
		{name: "yes flag", latest: release("1.0.0"), yes: true, applied: true, output: "Updated to version 1.0.0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			applied := false
			u := &Updater{
				Repo:    Repo,
				Current: "v0.1.0",
				Detect: func(string) (*selfupdate.Release, bool, error) {
					return tc.latest, tc.latest != nil, nil
				},
				Apply: func(string, string) error {
					applied = true
					return nil
				},
				In:  strings.NewReader(tc.input),
				Out: &out,
				Yes: tc.yes,
			}
			require.NoError(t, u.Run())
			assert.Equal(t, tc.applied, applied)
			assert.Contains(t, out.String(), tc.output)
		})
	}
}

func TestUpdateDetectError(t *testing.T) {
	u := &Updater{
		Repo:    Repo,
		Current: Version,
		Detect: func(string) (*selfupdate.Release, bool, error) {
			return nil, false, errors.New("rate limited")
		},
		Out: &bytes.Buffer{},
	}
	err := u.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update check failed: rate limited")
}
