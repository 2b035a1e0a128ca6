package pipeline

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func glowLike() *Pipeline {
	p := New("glow")
	src := p.Add("src", Load{Path: "in.miff"})
	mask := p.Add("mask", ColorMask{Color: "#ffffff", Fuzz: 10}, src)
	soft := p.Add("soft", Blur{Sigma: 2.5}, mask)
	fill := p.Add("fill", Colorize{Color: "#ffff00"}, src)
	out := p.Add("out", Composite{Rule: ComposeOver}, src, fill, soft)
	p.SetOutput(out)
	return p
}

func TestPipelineValid(t *testing.T) {
	p := glowLike()
	require.NoError(t, p.Validate())
	assert.Equal(t, 5, p.Len())
	assert.Equal(t, Buffer("out"), p.Output())

	step, ok := p.Step("soft")
	require.True(t, ok)
	assert.Equal(t, OpBlur, step.Params.Op())
	assert.Equal(t, []Buffer{"mask"}, step.In)
}

func TestPipelineRejectsUnknownInput(t *testing.T) {
	p := New("bad")
	p.Add("src", Load{Path: "in.miff"})
	p.Add("blur", Blur{Sigma: 1}, "missing")
	p.SetOutput("blur")
	err := p.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownBuffer))
}

func TestPipelineRejectsDuplicateBuffer(t *testing.T) {
	p := New("dup")
	p.Add("src", Load{Path: "in.miff"})
	p.Add("src", Negate{}, "src")
	p.SetOutput("src")
	err := p.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateBuffer))
}

func TestPipelineRejectsArity(t *testing.T) {
	p := New("arity")
	src := p.Add("src", Load{Path: "in.miff"})
	p.Add("c", Composite{Rule: ComposeOver}, src)
	p.SetOutput("c")
	assert.True(t, errors.Is(p.Validate(), ErrArity))

	p = New("arity2")
	p.Add("src", Load{Path: "in.miff"}, "x")
	assert.Error(t, p.Validate())
}

func TestPipelineRejectsMissingOutput(t *testing.T) {
	assert.True(t, errors.Is(New("empty").Validate(), ErrNoSteps))

	p := New("noout")
	p.Add("src", Load{Path: "in.miff"})
	assert.True(t, errors.Is(p.Validate(), ErrNoOutput))

	p.SetOutput("nowhere")
	assert.True(t, errors.Is(p.Validate(), ErrUnknownBuffer))
}

func TestLastUse(t *testing.T) {
	p := glowLike()
	last := p.LastUse()
	assert.Equal(t, 4, last["src"])
	assert.Equal(t, 4, last["soft"])
	assert.Equal(t, p.Len(), last["out"])
}

func TestWriteDOT(t *testing.T) {
	p := glowLike()
	var buf bytes.Buffer
	require.NoError(t, p.WriteDOT(&buf))
	dot := buf.String()
	assert.Contains(t, dot, "digraph")
	assert.Contains(t, dot, `"mask" -> "soft"`)
	assert.Contains(t, dot, `label="glow"`)

	path := filepath.Join(t.TempDir(), "glow.dot")
	require.NoError(t, p.DrawDOT(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"src" -> "fill"`)
}

func TestStepString(t *testing.T) {
	p := glowLike()
	step, _ := p.Step("out")
	assert.Contains(t, step.String(), "out = composite(src, fill, soft)")
}
