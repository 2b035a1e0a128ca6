// Package params converts user-facing option units into the parameter
// space of the image engine. Every function is pure.
package params

import (
	"math"

	"github.com/milahu/imagemagick-scripts-sub003/pkg/fxerr"
)

// PercentToNative maps a signed percentage change to the modulate scale,
// where 100 means unchanged.
func PercentToNative(percent float64) float64 {
	return 100 + percent
}

// HueUnit selects how a hue amount is expressed.
type HueUnit int

const (
	HuePercent HueUnit = iota
	HueDegrees
)

// HueBounds returns the accepted user range for unit.
func HueBounds(unit HueUnit) (lo, hi float64) {
	if unit == HueDegrees {
		return -180, 180
	}
	return -100, 100
}

// HueToNative maps a hue rotation to the modulate hue scale.
// Percent: 100+h. Degrees: 100+200*h/360.
func HueToNative(hue float64, unit HueUnit) (float64, error) {
	lo, hi := HueBounds(unit)
	if hue < lo || hue > hi {
		return 0, fxerr.Parameter("hue", "%v outside [%v, %v]", hue, lo, hi)
	}
	if unit == HueDegrees {
		return 100 + 200*hue/360, nil
	}
	return 100 + hue, nil
}

// HueColor names an anchor colour for absolute hue mode.
type HueColor int

const (
	Red HueColor = iota
	Yellow
	Green
	Cyan
	Blue
	Magenta
)

var anchorDegrees = [...]float64{
	Red:     0,
	Yellow:  60,
	Green:   120,
	Cyan:    180,
	Blue:    240,
	Magenta: 300,
}

// AnchorDegrees returns the hue angle of c.
func AnchorDegrees(c HueColor) float64 {
	return anchorDegrees[c]
}

// HueAnchor returns c on the native ±100 hue scale (200*deg/360, with
// angles past 180 wrapped to negative).
func HueAnchor(c HueColor) float64 {
	deg := anchorDegrees[c]
	if deg > 180 {
		deg -= 360
	}
	return 200 * deg / 360
}

// HueScaleToChannelPercent converts a value on the ±100 hue scale to the
// level of an HSL hue channel, in [0, 100).
func HueScaleToChannelPercent(scale float64) float64 {
	p := math.Mod(scale/2, 100)
	if p < 0 {
		p += 100
	}
	return p
}

// EightBitToPercent converts a 0..255 level to 0..100.
func EightBitToPercent(v float64) float64 {
	return 100 * v / 255
}

// Point is an (in, out) level pair.
type Point struct {
	In, Out float64
}

// Linear holds the coefficients of out = a*in + b with in/out normalised to 0..1.
type Linear struct {
	Slope     float64
	Intercept float64
}

// LinearMap derives slope and intercept through two points given in
// percent: a = (hiOut-loOut)/(hiIn-loIn), b = (loOut - a*loIn)/100.
func LinearMap(low, high Point) (Linear, error) {
	if high.In == low.In {
		return Linear{}, fxerr.Parameter("slope", "low and high input levels are both %v", low.In)
	}
	a := (high.Out - low.Out) / (high.In - low.In)
	b := (low.Out - a*low.In) / 100
	if err := finite("slope", a); err != nil {
		return Linear{}, err
	}
	return Linear{Slope: a, Intercept: b}, nil
}

// RadialSigma is the blur sigma for a radial amount in pixels.
func RadialSigma(amount float64) (float64, error) {
	return sigma("radial sigma", amount/3)
}

// AngularSigma is the blur sigma along the angle axis of an unrolled polar
// image of the given width, where the full width spans 360 degrees.
func AngularSigma(angle float64, width int) (float64, error) {
	if width <= 0 {
		return 0, fxerr.Parameter("angular sigma", "image width %d", width)
	}
	return sigma("angular sigma", angle/(720/float64(width)))
}

// BlurSigma converts a filter width in pixels to a gaussian sigma.
func BlurSigma(width float64) (float64, error) {
	return sigma("blur sigma", width/2)
}

// PolarRadius is the distance from (cx, cy) to the farthest image corner,
// the radius used when unrolling to polar space.
func PolarRadius(w, h int, cx, cy float64) float64 {
	dx := math.Max(cx, float64(w)-cx)
	dy := math.Max(cy, float64(h)-cy)
	return math.Hypot(dx, dy)
}

func sigma(name string, v float64) (float64, error) {
	if err := finite(name, v); err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fxerr.Parameter(name, "negative value %v", v)
	}
	return v, nil
}

func finite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fxerr.Parameter(name, "not a finite number")
	}
	return nil
}
