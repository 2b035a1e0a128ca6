package effects

import (
	"github.com/milahu/imagemagick-scripts-sub003/pkg/fxerr"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/logger"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/options"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/params"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/pipeline"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/stage"
)

// VibranceParams are the derived parameters of vibrance.
type VibranceParams struct {
	// Saturation is the modulate saturation of the boosted copy.
	Saturation float64
}

// DeriveVibrance computes VibranceParams from validated options.
func DeriveVibrance(set options.Set) VibranceParams {
	return VibranceParams{Saturation: params.PercentToNative(set.Float("amount"))}
}

var Vibrance = register(&Effect{
	Name:        "vibrance",
	Description: "change saturation, mostly of the less saturated colours",
	Options: []options.Decl{
		options.Float("-a", "amount", "0", "saturation change in percent").Between(-100, 100).Percent(),
	},
	Build: buildVibrance,
})

func buildVibrance(set options.Set, images []*stage.Image) (*pipeline.Pipeline, error) {
	vp := DeriveVibrance(set)
	logger.Debugf("vibrance: %+v", vp)
	p := pipeline.New("vibrance")
	src := source(p, images[0])
	boosted := p.Add("boosted", pipeline.Modulate{Brightness: 100, Saturation: vp.Saturation, Hue: 100}, src)
	hsl := p.Add("hsl", pipeline.Colorspace{Space: "HSL"}, src)
	sat := p.Add("sat", pipeline.Separate{Index: 1}, hsl)
	// weight is high where the original is dull
	weight := p.Add("weight", pipeline.Negate{}, sat)
	p.SetOutput(p.Add("out", pipeline.Composite{Rule: pipeline.ComposeOver}, src, boosted, weight))
	return p, nil
}

// HueMode selects how hueshift interprets -a.
type HueMode int

const (
	HueRelative HueMode = iota
	HueAbsolute
)

// HueParams are the derived parameters of hueshift.
type HueParams struct {
	Mode       HueMode
	Brightness float64
	Saturation float64
	// Hue is the modulate hue (relative mode).
	Hue float64
	// HueLevel is the HSL hue channel level in percent (absolute mode).
	HueLevel float64
}

// DeriveHue computes HueParams from validated options.
func DeriveHue(set options.Set) (HueParams, error) {
	unit := params.HueUnit(set.Choice("units"))
	hue := set.Float("hue")
	native, err := params.HueToNative(hue, unit)
	if err != nil {
		return HueParams{}, err
	}
	hp := HueParams{
		Mode:       HueMode(set.Choice("mode")),
		Brightness: params.PercentToNative(set.Float("brightness")),
		Saturation: params.PercentToNative(set.Float("saturation")),
		Hue:        native,
	}
	if hp.Mode == HueAbsolute {
		// native-100 is the offset on the ±100 scale in either unit
		scale := params.HueAnchor(params.HueColor(set.Choice("color"))) + native - 100
		hp.HueLevel = params.HueScaleToChannelPercent(scale)
	}
	return hp, nil
}

var HueShift = register(&Effect{
	Name:        "hueshift",
	Description: "rotate hues, or set every hue to one colour",
	Options: []options.Decl{
		options.OneOf("-m", "mode", "relative", "relative rotation or absolute hue",
			options.Choice{Name: "relative", Value: int(HueRelative)},
			options.Choice{Name: "absolute", Value: int(HueAbsolute)}),
		options.Float("-a", "hue", "0", "hue rotation, or offset from -c in absolute mode").Between(-180, 180),
		options.OneOf("-u", "units", "percent", "units of -a",
			options.Choice{Name: "percent", Value: int(params.HuePercent)},
			options.Choice{Name: "degrees", Value: int(params.HueDegrees)}),
		options.OneOf("-c", "color", "red", "anchor colour in absolute mode",
			options.Choice{Name: "red", Value: int(params.Red)},
			options.Choice{Name: "yellow", Value: int(params.Yellow)},
			options.Choice{Name: "green", Value: int(params.Green)},
			options.Choice{Name: "cyan", Value: int(params.Cyan)},
			options.Choice{Name: "blue", Value: int(params.Blue)},
			options.Choice{Name: "magenta", Value: int(params.Magenta)}),
		options.Float("-b", "brightness", "0", "brightness change in percent").Between(-100, 100).Percent(),
		options.Float("-s", "saturation", "0", "saturation change in percent").Between(-100, 100).Percent(),
	},
	Check: func(set options.Set) error {
		lo, hi := params.HueBounds(params.HueUnit(set.Choice("units")))
		if h := set.Float("hue"); h < lo || h > hi {
			return fxerr.Validation("-a", "hue %v out of range [%v, %v] for %s", h, lo, hi, set.ChoiceName("units"))
		}
		return nil
	},
	Build: buildHue,
})

func buildHue(set options.Set, images []*stage.Image) (*pipeline.Pipeline, error) {
	hp, err := DeriveHue(set)
	if err != nil {
		return nil, err
	}
	logger.Debugf("hueshift: %+v", hp)
	p := pipeline.New("hueshift")
	src := source(p, images[0])
	if hp.Mode == HueRelative {
		p.SetOutput(p.Add("out", pipeline.Modulate{Brightness: hp.Brightness, Saturation: hp.Saturation, Hue: hp.Hue}, src))
		return p, nil
	}
	hsl := p.Add("hsl", pipeline.Colorspace{Space: "HSL"}, src)
	anchored := p.Add("anchored", pipeline.Evaluate{Operator: "set", Value: hp.HueLevel, Percent: true, Channel: pipeline.Red}, hsl)
	out := p.Add("rgb", pipeline.Colorspace{Space: "sRGB"}, anchored)
	if hp.Brightness != 100 || hp.Saturation != 100 {
		out = p.Add("out", pipeline.Modulate{Brightness: hp.Brightness, Saturation: hp.Saturation, Hue: 100}, out)
	}
	p.SetOutput(out)
	return p, nil
}
