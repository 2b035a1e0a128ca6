package pipeline

import "fmt"

// Op tags the kind of a step.
type Op int

const (
	OpLoad Op = iota
	OpSolid
	OpGradient
	OpBlur
	OpDirectionalBlur
	OpColorMask
	OpColorize
	OpEvaluate
	OpComposite
	OpAutoLevel
	OpGrayscale
	OpNegate
	OpModulate
	OpFunction
	OpDistort
	OpCrop
	OpAppend
	OpThreshold
	OpSeparate
	OpColorspace
	OpTile
	OpTransform
)

var opNames = [...]string{
	OpLoad:            "load",
	OpSolid:           "solid",
	OpGradient:        "gradient",
	OpBlur:            "blur",
	OpDirectionalBlur: "directional-blur",
	OpColorMask:       "color-mask",
	OpColorize:        "colorize",
	OpEvaluate:        "evaluate",
	OpComposite:       "composite",
	OpAutoLevel:       "auto-level",
	OpGrayscale:       "grayscale",
	OpNegate:          "negate",
	OpModulate:        "modulate",
	OpFunction:        "function",
	OpDistort:         "distort",
	OpCrop:            "crop",
	OpAppend:          "append",
	OpThreshold:       "threshold",
	OpSeparate:        "separate",
	OpColorspace:      "colorspace",
	OpTile:            "tile",
	OpTransform:       "transform",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// arity returns the minimum and maximum number of inputs; max < 0 means unbounded.
func (o Op) arity() (int, int) {
	switch o {
	case OpLoad, OpSolid, OpGradient:
		return 0, 0
	case OpComposite:
		return 2, 3
	case OpAppend:
		return 2, -1
	default:
		return 1, 1
	}
}

// Params are the typed parameters of a step. The concrete type decides the Op.
type Params interface {
	Op() Op
}

// Channel restricts an operation to one channel. In non-RGB colourspaces
// Red, Green and Blue address the first, second and third channel.
type Channel int

const (
	AllChannels Channel = iota
	Red
	Green
	Blue
)

// ComposeRule selects how two images are combined.
type ComposeRule int

const (
	ComposeOver ComposeRule = iota
	ComposeLighten
	ComposeMultiply
	ComposeDifference
	ComposeBlend
	ComposeDisplace
)

// FunctionKind selects a per-pixel function.
type FunctionKind int

const (
	Polynomial FunctionKind = iota
	Sinusoid
)

// DistortMethod selects a geometric distortion.
type DistortMethod int

const (
	DePolar DistortMethod = iota
	Polar
)

// VirtualPixel selects how pixels outside the image are synthesised.
type VirtualPixel int

const (
	VirtualEdge VirtualPixel = iota
	VirtualMirror
	VirtualTile
	VirtualHorizontalTile
	VirtualBackground
)

// TransformKind selects a lossless orientation change.
type TransformKind int

const (
	Flip TransformKind = iota
	Flop
	Transpose
	Rotate90
	Rotate180
	Rotate270
)

// Load reads a staged image file.
type Load struct{ Path string }

// Solid is a canvas of one colour.
type Solid struct {
	Width, Height int
	Color         string
}

// Gradient is a vertical linear gradient, From at the top row.
type Gradient struct {
	Width, Height int
	From, To      string
}

// Blur is a 2-D gaussian blur.
type Blur struct{ Sigma float64 }

// DirectionalBlur is a 1-D gaussian blur; Angle 0 blurs along rows, 90 along
// columns. VirtualPixel fills the kernel beyond the image edge.
type DirectionalBlur struct {
	Sigma, Angle float64
	VirtualPixel VirtualPixel
}

// ColorMask is white where a pixel is within Fuzz percent of Color, black elsewhere.
type ColorMask struct {
	Color string
	Fuzz  float64
}

// Colorize replaces every pixel colour with Color.
type Colorize struct{ Color string }

// Evaluate applies an arithmetic operator to every pixel value.
type Evaluate struct {
	Operator string // "multiply", "set", "add"...
	Value    float64
	Percent  bool
	Channel  Channel
}

// Composite combines its inputs: destination, source and optional mask.
type Composite struct {
	Rule ComposeRule
	// Args are the rule arguments (blend percent, displace amounts).
	Args []float64
}

type AutoLevel struct{}
type Grayscale struct{}
type Negate struct{}

// Modulate adjusts brightness, saturation and hue; 100 means unchanged.
type Modulate struct{ Brightness, Saturation, Hue float64 }

// Function applies a per-pixel function with the given coefficients.
type Function struct {
	Kind         FunctionKind
	Coefficients []float64
	Channel      Channel
}

// Distort applies a polar distortion; Args follow the engine's argument order.
type Distort struct {
	Method       DistortMethod
	Args         []float64
	VirtualPixel VirtualPixel
}

// Crop extracts a region and resets the page offset.
type Crop struct{ Width, Height, X, Y int }

// Append joins its inputs left to right, or top to bottom when Vertical.
type Append struct{ Vertical bool }

// Threshold turns pixels above Percent white and the rest black.
type Threshold struct{ Percent float64 }

// Separate extracts one channel (0-based) as a grayscale image.
type Separate struct{ Index int }

// Colorspace converts between colourspaces ("sRGB", "HSL", "Gray"...).
type Colorspace struct{ Space string }

// Tile fills a Width x Height canvas by repeating the input.
type Tile struct{ Width, Height int }

// Transform applies a lossless orientation change.
type Transform struct{ Kind TransformKind }

func (Load) Op() Op            { return OpLoad }
func (Solid) Op() Op           { return OpSolid }
func (Gradient) Op() Op        { return OpGradient }
func (Blur) Op() Op            { return OpBlur }
func (DirectionalBlur) Op() Op { return OpDirectionalBlur }
func (ColorMask) Op() Op       { return OpColorMask }
func (Colorize) Op() Op        { return OpColorize }
func (Evaluate) Op() Op        { return OpEvaluate }
func (Composite) Op() Op       { return OpComposite }
func (AutoLevel) Op() Op       { return OpAutoLevel }
func (Grayscale) Op() Op       { return OpGrayscale }
func (Negate) Op() Op          { return OpNegate }
func (Modulate) Op() Op        { return OpModulate }
func (Function) Op() Op        { return OpFunction }
func (Distort) Op() Op         { return OpDistort }
func (Crop) Op() Op            { return OpCrop }
func (Append) Op() Op          { return OpAppend }
func (Threshold) Op() Op       { return OpThreshold }
func (Separate) Op() Op        { return OpSeparate }
func (Colorspace) Op() Op      { return OpColorspace }
func (Tile) Op() Op            { return OpTile }
func (Transform) Op() Op       { return OpTransform }
