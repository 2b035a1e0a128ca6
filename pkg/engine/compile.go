package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/milahu/imagemagick-scripts-sub003/pkg/pipeline"
)

const (
	// DefaultMaxTokens bounds the argument count of one engine invocation.
	DefaultMaxTokens = 4000
	// MinMaxTokens is the smallest accepted budget.
	MinMaxTokens = 64
)

var (
	batchHeader = []string{"-quiet", "-respect-parentheses"}
	// A batch that only checkpoints still needs an output image.
	discardTrailer = []string{"xc:none", "null:"}
)

// Batch is one engine invocation covering steps First..Last.
type Batch struct {
	Args        []string
	First, Last int
	// Checkpoints are the buffers the batch saves for later batches.
	Checkpoints []pipeline.Buffer
}

// Compiler turns a pipeline into engine invocations. Buffers live in named
// MPR registers within one invocation. A buffer still needed after its
// batch ends is written to a checkpoint file and read back by name.
type Compiler struct {
	Caps      Capabilities
	MaxTokens int
	// Checkpoint returns the file a buffer is saved to between batches.
	Checkpoint func(pipeline.Buffer) string
}

// Compile validates p and translates it into batches whose final batch
// writes the output buffer to dest.
func (c *Compiler) Compile(p *pipeline.Pipeline, dest string) ([]Batch, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	steps := p.Steps()
	bodies := make([][]string, len(steps))
	for i, s := range steps {
		body, err := c.ops(s)
		if err != nil {
			return nil, errors.Wrapf(err, "step %d (%s)", i, s.Out)
		}
		bodies[i] = body
	}

	budget := c.MaxTokens
	if budget <= 0 {
		budget = DefaultMaxTokens
	}
	if budget < MinMaxTokens {
		budget = MinMaxTokens
	}

	var ranges [][2]int
	first, used := 0, len(batchHeader)
	for i, s := range steps {
		// "(" inputs body "-write" mpr "-write" checkpoint "+delete" ")"
		cost := 1 + len(s.In) + len(bodies[i]) + 6
		if i > first && used+cost+3 > budget {
			ranges = append(ranges, [2]int{first, i - 1})
			first, used = i, len(batchHeader)
		}
		used += cost
	}
	ranges = append(ranges, [2]int{first, len(steps) - 1})

	lastUse := p.LastUse()
	saved := make(map[pipeline.Buffer]string)
	batches := make([]Batch, 0, len(ranges))
	for bi, r := range ranges {
		b := Batch{First: r[0], Last: r[1]}
		args := append([]string(nil), batchHeader...)
		local := make(map[pipeline.Buffer]bool)
		ref := func(buf pipeline.Buffer) string {
			if local[buf] {
				return register(buf)
			}
			return saved[buf]
		}
		for i := r[0]; i <= r[1]; i++ {
			s := steps[i]
			args = append(args, "(")
			for _, in := range s.In {
				args = append(args, ref(in))
			}
			args = append(args, bodies[i]...)
			args = append(args, "-write", register(s.Out))
			if lastUse[s.Out] > r[1] && bi < len(ranges)-1 {
				path := c.Checkpoint(s.Out)
				args = append(args, "-write", path)
				saved[s.Out] = path
				b.Checkpoints = append(b.Checkpoints, s.Out)
			}
			args = append(args, "+delete", ")")
			local[s.Out] = true
		}
		if bi == len(ranges)-1 {
			args = append(args, ref(p.Output()), "+repage", dest)
		} else {
			args = append(args, discardTrailer...)
		}
		b.Args = args
		batches = append(batches, b)
	}
	return batches, nil
}

func register(b pipeline.Buffer) string {
	return "mpr:" + string(b)
}

func (c *Compiler) ops(s pipeline.Step) ([]string, error) {
	switch p := s.Params.(type) {
	case pipeline.Load:
		return []string{p.Path}, nil
	case pipeline.Solid:
		return []string{"-size", size(p.Width, p.Height), "xc:" + p.Color}, nil
	case pipeline.Gradient:
		return []string{"-size", size(p.Width, p.Height), "gradient:" + p.From + "-" + p.To}, nil
	case pipeline.Blur:
		if err := checkSigma(p.Sigma); err != nil {
			return nil, err
		}
		return []string{"-blur", "0x" + num(p.Sigma)}, nil
	case pipeline.DirectionalBlur:
		if err := checkSigma(p.Sigma); err != nil {
			return nil, err
		}
		return []string{"-virtual-pixel", virtualPixelNames[p.VirtualPixel],
			"-morphology", "Convolve", "Blur:0," + num(p.Sigma) + "," + num(p.Angle)}, nil
	case pipeline.ColorMask:
		out := append([]string(nil), c.Caps.AlphaOff...)
		return append(out, "-fuzz", num(p.Fuzz)+"%", "-transparent", p.Color, "-alpha", "extract", "-negate"), nil
	case pipeline.Colorize:
		return []string{"-fill", p.Color, "-colorize", "100%"}, nil
	case pipeline.Evaluate:
		v := num(p.Value)
		if p.Percent {
			v += "%"
		}
		return withChannel(p.Channel, "-evaluate", p.Operator, v), nil
	case pipeline.Composite:
		return c.composite(p)
	case pipeline.AutoLevel:
		return []string{"-auto-level"}, nil
	case pipeline.Grayscale:
		return []string{"-colorspace", "gray"}, nil
	case pipeline.Negate:
		return []string{"-negate"}, nil
	case pipeline.Modulate:
		return []string{"-modulate", nums(",", p.Brightness, p.Saturation, p.Hue)}, nil
	case pipeline.Function:
		return c.function(p)
	case pipeline.Distort:
		return []string{"-virtual-pixel", virtualPixelNames[p.VirtualPixel],
			"-distort", distortNames[p.Method], nums(",", p.Args...)}, nil
	case pipeline.Crop:
		return []string{"-crop", fmt.Sprintf("%dx%d+%d+%d", p.Width, p.Height, p.X, p.Y), "+repage"}, nil
	case pipeline.Append:
		if p.Vertical {
			return []string{"-append"}, nil
		}
		return []string{"+append"}, nil
	case pipeline.Threshold:
		return []string{"-threshold", num(p.Percent) + "%"}, nil
	case pipeline.Separate:
		if p.Index < 0 || p.Index > 2 {
			return nil, errors.Errorf("channel index %d out of range", p.Index)
		}
		return withChannel(pipeline.Channel(p.Index+1), "-separate"), nil
	case pipeline.Colorspace:
		space := p.Space
		if strings.EqualFold(space, "sRGB") {
			space = c.Caps.RGBSpace
		}
		return []string{"-colorspace", space}, nil
	case pipeline.Tile:
		tmp := register(s.Out + "-tile")
		return []string{"-write", tmp, "+delete", "-size", size(p.Width, p.Height), "tile:" + tmp}, nil
	case pipeline.Transform:
		return transformArgs[p.Kind], nil
	}
	return nil, errors.Errorf("unsupported operation %T", s.Params)
}

func (c *Compiler) composite(p pipeline.Composite) ([]string, error) {
	var out []string
	if len(p.Args) > 0 {
		sep := ","
		if p.Rule == pipeline.ComposeDisplace {
			sep = "x"
		}
		a := nums(sep, p.Args...)
		if c.Caps.ComposeDefine {
			out = append(out, "-define", "compose:args="+a)
		} else {
			out = append(out, "-set", "option:compose:args", a)
		}
	}
	return append(out, "-compose", composeNames[p.Rule], "-composite"), nil
}

func (c *Compiler) function(p pipeline.Function) ([]string, error) {
	if len(p.Coefficients) == 0 {
		return nil, errors.New("function without coefficients")
	}
	// Old releases apply -function to every channel; a linear polynomial
	// is rewritten into evaluate steps which do honour -channel.
	if p.Channel != pipeline.AllChannels && !c.Caps.ChannelFunction &&
		p.Kind == pipeline.Polynomial && len(p.Coefficients) == 2 {
		return withChannel(p.Channel,
			"-evaluate", "multiply", num(p.Coefficients[0]),
			"-evaluate", "add", num(100*p.Coefficients[1])+"%"), nil
	}
	return withChannel(p.Channel, "-function", functionNames[p.Kind], nums(",", p.Coefficients...)), nil
}

var channelNames = map[pipeline.Channel]string{
	pipeline.Red:   "R",
	pipeline.Green: "G",
	pipeline.Blue:  "B",
}

func withChannel(ch pipeline.Channel, args ...string) []string {
	name, ok := channelNames[ch]
	if !ok {
		return args
	}
	out := append([]string{"-channel", name}, args...)
	return append(out, "+channel")
}

var composeNames = map[pipeline.ComposeRule]string{
	pipeline.ComposeOver:       "Over",
	pipeline.ComposeLighten:    "Lighten",
	pipeline.ComposeMultiply:   "Multiply",
	pipeline.ComposeDifference: "Difference",
	pipeline.ComposeBlend:      "Blend",
	pipeline.ComposeDisplace:   "Displace",
}

var functionNames = map[pipeline.FunctionKind]string{
	pipeline.Polynomial: "polynomial",
	pipeline.Sinusoid:   "sinusoid",
}

var distortNames = map[pipeline.DistortMethod]string{
	pipeline.DePolar: "DePolar",
	pipeline.Polar:   "Polar",
}

var virtualPixelNames = map[pipeline.VirtualPixel]string{
	pipeline.VirtualEdge:           "Edge",
	pipeline.VirtualMirror:         "Mirror",
	pipeline.VirtualTile:           "Tile",
	pipeline.VirtualHorizontalTile: "HorizontalTile",
	pipeline.VirtualBackground:     "Background",
}

var transformArgs = map[pipeline.TransformKind][]string{
	pipeline.Flip:      {"-flip"},
	pipeline.Flop:      {"-flop"},
	pipeline.Transpose: {"-transpose"},
	pipeline.Rotate90:  {"-rotate", "90"},
	pipeline.Rotate180: {"-rotate", "180"},
	pipeline.Rotate270: {"-rotate", "270"},
}

func checkSigma(s float64) error {
	if math.IsNaN(s) || math.IsInf(s, 0) || s < 0 {
		return errors.Errorf("invalid sigma %v", s)
	}
	return nil
}

func size(w, h int) string {
	return fmt.Sprintf("%dx%d", w, h)
}

// num formats v with at most six decimals and no trailing zeros.
func num(v float64) string {
	s := strconv.FormatFloat(v, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

func nums(sep string, vs ...float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = num(v)
	}
	return strings.Join(parts, sep)
}
