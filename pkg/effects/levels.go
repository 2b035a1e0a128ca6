package effects

import (
	"fmt"

	"github.com/milahu/imagemagick-scripts-sub003/pkg/fxerr"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/logger"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/options"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/params"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/pipeline"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/stage"
)

// Unit is how level values are given.
type Unit int

const (
	EightBit Unit = iota
	Percent
)

func unitOption(help string) options.Decl {
	return options.OneOf("-u", "units", "8bit", help,
		options.Choice{Name: "8bit", Value: int(EightBit)},
		options.Choice{Name: "percent", Value: int(Percent)})
}

func fullScale(u Unit) float64 {
	if u == Percent {
		return 100
	}
	return 255
}

// toEightBit converts a level in unit u to 0..255.
func toEightBit(v float64, u Unit) float64 {
	if u == Percent {
		return v * 255 / 100
	}
	return v
}

// levelPair returns a two-component level in the selected unit. The
// declared defaults are 8-bit; left unset, they are rescaled to the unit.
func levelPair(set options.Set, name string) options.Point {
	pt := set.Pair(name)
	if set.Given(name) || Unit(set.Choice("units")) == EightBit {
		return pt
	}
	top := fullScale(Percent)
	return options.Point{X: pt.X * top / 255, Y: pt.Y * top / 255}
}

// level names a two-component level option.
type level struct{ flag, name string }

func checkLevels(set options.Set, levels ...level) error {
	top := fullScale(Unit(set.Choice("units")))
	for _, l := range levels {
		pt := levelPair(set, l.name)
		if pt.X > top || pt.Y > top {
			return fxerr.Validation(l.flag, "%s %v,%v exceeds %v for %s units", l.name, pt.X, pt.Y, top, set.ChoiceName("units"))
		}
	}
	return nil
}

// ColorSpace is the rangethresh -c value.
type ColorSpace int

const (
	SpaceRGB ColorSpace = iota
	SpaceHSL
	SpaceHSB
	SpaceLab
	SpaceYCbCr
)

// ChannelRange is one channel of a range threshold, as threshold levels in
// percent. LowAll and HighAll mark bounds that admit every value.
type ChannelRange struct {
	Low, High       float64
	LowAll, HighAll bool
}

// RangeParams are the derived parameters of rangethresh.
type RangeParams struct {
	Channels [3]ChannelRange
}

// DeriveRange computes RangeParams from validated options.
func DeriveRange(set options.Set) RangeParams {
	u := Unit(set.Choice("units"))
	var rp RangeParams
	for i, n := range []string{"red", "green", "blue"} {
		r := levelPair(set, n)
		lo, hi := toEightBit(r.X, u), toEightBit(r.Y, u)
		rp.Channels[i] = ChannelRange{
			// v >= lo and v <= hi on 8-bit levels
			Low:     params.EightBitToPercent(lo - 0.5),
			High:    params.EightBitToPercent(hi + 0.5),
			LowAll:  lo <= 0,
			HighAll: hi >= 255,
		}
	}
	return rp
}

var RangeThresh = register(&Effect{
	Name:        "rangethresh",
	Description: "white where every channel lies inside its range, black elsewhere",
	Options: []options.Decl{
		options.OneOf("-c", "colorspace", "rgb", "colorspace of the ranges (accepted, not applied)",
			options.Choice{Name: "rgb", Value: int(SpaceRGB)},
			options.Choice{Name: "hsl", Value: int(SpaceHSL)},
			options.Choice{Name: "hsb", Value: int(SpaceHSB)},
			options.Choice{Name: "lab", Value: int(SpaceLab)},
			options.Choice{Name: "ycbcr", Value: int(SpaceYCbCr)}),
		options.Range("-r", "red", "0,255", "range of the first channel").AtLeast(0),
		options.Range("-g", "green", "0,255", "range of the second channel").AtLeast(0),
		options.Range("-b", "blue", "0,255", "range of the third channel").AtLeast(0),
		unitOption("units of the ranges"),
	},
	Check: func(set options.Set) error {
		return checkLevels(set, level{"-r", "red"}, level{"-g", "green"}, level{"-b", "blue"})
	},
	Build: buildRange,
})

func buildRange(set options.Set, images []*stage.Image) (*pipeline.Pipeline, error) {
	if set.Given("colorspace") && ColorSpace(set.Choice("colorspace")) != SpaceRGB {
		logger.Warnf("rangethresh: -c %s is accepted but not applied; ranges are matched in RGB", set.ChoiceName("colorspace"))
	}
	rp := DeriveRange(set)
	logger.Debugf("rangethresh: %+v", rp)
	img := images[0]
	w, h := img.Info.Width, img.Info.Height
	p := pipeline.New("rangethresh")
	src := source(p, img)

	white := func(name string) pipeline.Buffer {
		return p.Add(pipeline.Buffer(name), pipeline.Solid{Width: w, Height: h, Color: "white"})
	}
	var result pipeline.Buffer
	for i, cr := range rp.Channels {
		name := func(s string) string { return fmt.Sprintf("%s%d", s, i) }
		var ch pipeline.Buffer
		if !cr.LowAll || !cr.HighAll {
			ch = p.Add(pipeline.Buffer(name("ch")), pipeline.Separate{Index: i}, src)
		}
		var low, high pipeline.Buffer
		if cr.LowAll {
			low = white(name("lowall"))
		} else {
			low = p.Add(pipeline.Buffer(name("low")), pipeline.Threshold{Percent: cr.Low}, ch)
		}
		if cr.HighAll {
			high = white(name("highall"))
		} else {
			above := p.Add(pipeline.Buffer(name("above")), pipeline.Threshold{Percent: cr.High}, ch)
			high = p.Add(pipeline.Buffer(name("high")), pipeline.Negate{}, above)
		}
		mask := p.Add(pipeline.Buffer(name("mask")), pipeline.Composite{Rule: pipeline.ComposeMultiply}, low, high)
		if result == "" {
			result = mask
		} else {
			result = p.Add(pipeline.Buffer(name("and")), pipeline.Composite{Rule: pipeline.ComposeMultiply}, result, mask)
		}
	}
	p.SetOutput(result)
	return p, nil
}

// EndpointsParams are the derived parameters of endpoints.
type EndpointsParams struct {
	params.Linear
	Channel pipeline.Channel
}

// DeriveEndpoints computes EndpointsParams from validated options.
func DeriveEndpoints(set options.Set) (EndpointsParams, error) {
	u := Unit(set.Choice("units"))
	pct := func(v float64) float64 { return params.EightBitToPercent(toEightBit(v, u)) }
	lo, hi := levelPair(set, "lowpt"), levelPair(set, "highpt")
	lin, err := params.LinearMap(
		params.Point{In: pct(lo.X), Out: pct(lo.Y)},
		params.Point{In: pct(hi.X), Out: pct(hi.Y)})
	if err != nil {
		return EndpointsParams{}, err
	}
	return EndpointsParams{Linear: lin, Channel: pipeline.Channel(set.Choice("channel"))}, nil
}

var Endpoints = register(&Effect{
	Name:        "endpoints",
	Description: "linear tone curve through two input,output points",
	Options: []options.Decl{
		options.Pair("-l", "lowpt", "0,0", "low point input,output").AtLeast(0),
		options.Pair("-t", "highpt", "255,255", "high point input,output").AtLeast(0),
		unitOption("units of the points"),
		options.OneOf("-C", "channel", "all", "channel to adjust",
			options.Choice{Name: "all", Value: int(pipeline.AllChannels)},
			options.Choice{Name: "red", Value: int(pipeline.Red)},
			options.Choice{Name: "green", Value: int(pipeline.Green)},
			options.Choice{Name: "blue", Value: int(pipeline.Blue)}),
	},
	Check: func(set options.Set) error {
		if err := checkLevels(set, level{"-l", "lowpt"}, level{"-t", "highpt"}); err != nil {
			return err
		}
		_, err := DeriveEndpoints(set)
		return err
	},
	Build: buildEndpoints,
})

func buildEndpoints(set options.Set, images []*stage.Image) (*pipeline.Pipeline, error) {
	ep, err := DeriveEndpoints(set)
	if err != nil {
		return nil, err
	}
	logger.Debugf("endpoints: %+v", ep)
	p := pipeline.New("endpoints")
	src := source(p, images[0])
	p.SetOutput(p.Add("out", pipeline.Function{
		Kind:         pipeline.Polynomial,
		Coefficients: []float64{ep.Slope, ep.Intercept},
		Channel:      ep.Channel,
	}, src))
	return p, nil
}
