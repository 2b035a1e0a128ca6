package effects

import (
	"github.com/milahu/imagemagick-scripts-sub003/pkg/fxerr"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/logger"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/options"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/params"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/pipeline"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/stage"
)

// Center of the polar round trip.
type Center struct {
	X, Y   float64
	Radius float64
}

func center(set options.Set, info stage.Info) Center {
	c := Center{X: float64(info.Width) / 2, Y: float64(info.Height) / 2}
	if set.Has("center") {
		pt := set.Pair("center")
		c.X, c.Y = pt.X, pt.Y
	}
	c.Radius = params.PolarRadius(info.Width, info.Height, c.X, c.Y)
	return c
}

func (c Center) args() []float64 {
	return []float64{c.Radius, 0, c.X, c.Y}
}

// RipplesParams are the derived parameters of ripples.
type RipplesParams struct {
	Center
	// Cycles is the number of waves between the center and the farthest corner.
	Cycles float64
	Phase  float64
	// Displacement is the amplitude in unrolled rows.
	Displacement float64
	VirtualPixel pipeline.VirtualPixel
}

// DeriveRipples computes RipplesParams for an image.
func DeriveRipples(set options.Set, info stage.Info) (RipplesParams, error) {
	c := center(set, info)
	if c.Radius <= 0 {
		return RipplesParams{}, fxerr.Parameter("radius", "image has no extent around the center")
	}
	return RipplesParams{
		Center:       c,
		Cycles:       c.Radius / set.Float("wavelength"),
		Phase:        set.Float("phase"),
		Displacement: set.Float("amplitude") * float64(info.Height) / c.Radius,
		VirtualPixel: pipeline.VirtualPixel(set.Choice("virtual")),
	}, nil
}

var Ripples = register(&Effect{
	Name:        "ripples",
	Description: "concentric ripples around a center",
	Options: []options.Decl{
		options.Float("-a", "amplitude", "5", "ripple amplitude in pixels").AtLeast(0),
		options.Float("-w", "wavelength", "20", "distance between ripples in pixels").Above(0),
		options.Float("-p", "phase", "0", "phase offset in degrees").Between(-360, 360),
		options.Pair("-c", "center", "", "ripple center x,y; defaults to the image center").Optional(),
		options.OneOf("-v", "virtual", "edge", "virtual pixel method at the seam",
			options.Choice{Name: "edge", Value: int(pipeline.VirtualEdge)},
			options.Choice{Name: "mirror", Value: int(pipeline.VirtualMirror)},
			options.Choice{Name: "tile", Value: int(pipeline.VirtualTile)},
			options.Choice{Name: "background", Value: int(pipeline.VirtualBackground)}),
	},
	Build: buildRipples,
})

func buildRipples(set options.Set, images []*stage.Image) (*pipeline.Pipeline, error) {
	img := images[0]
	rp, err := DeriveRipples(set, img.Info)
	if err != nil {
		return nil, err
	}
	logger.Debugf("ripples: %+v", rp)
	w, h := img.Info.Width, img.Info.Height
	p := pipeline.New("ripples")
	src := source(p, img)
	unrolled := p.Add("unrolled", pipeline.Distort{Method: pipeline.DePolar, Args: rp.args(), VirtualPixel: rp.VirtualPixel}, src)
	ramp := p.Add("ramp", pipeline.Gradient{Width: w, Height: h, From: "black", To: "white"})
	wave := p.Add("wave", pipeline.Function{
		Kind:         pipeline.Sinusoid,
		Coefficients: []float64{rp.Cycles, rp.Phase, 0.5, 0.5},
	}, ramp)
	displaced := p.Add("displaced", pipeline.Composite{
		Rule: pipeline.ComposeDisplace,
		Args: []float64{0, rp.Displacement},
	}, unrolled, wave)
	p.SetOutput(p.Add("out", pipeline.Distort{Method: pipeline.Polar, Args: rp.args(), VirtualPixel: rp.VirtualPixel}, displaced))
	return p, nil
}

// PolarBlurParams are the derived parameters of polarblur.
type PolarBlurParams struct {
	Center
	// AngularSigma blurs along unrolled rows, RadialSigma along columns.
	AngularSigma float64
	RadialSigma  float64
}

// DerivePolarBlur computes PolarBlurParams for an image.
func DerivePolarBlur(set options.Set, info stage.Info) (PolarBlurParams, error) {
	as, err := params.AngularSigma(set.Float("angular"), info.Width)
	if err != nil {
		return PolarBlurParams{}, err
	}
	rs, err := params.RadialSigma(set.Float("radial"))
	if err != nil {
		return PolarBlurParams{}, err
	}
	return PolarBlurParams{Center: center(set, info), AngularSigma: as, RadialSigma: rs}, nil
}

var PolarBlur = register(&Effect{
	Name:        "polarblur",
	Description: "radial and angular blur around a center",
	Options: []options.Decl{
		options.Float("-r", "radial", "0", "radial blur amount in pixels").AtLeast(0),
		options.Float("-a", "angular", "0", "angular blur amount in degrees").Between(0, 360),
		options.Pair("-c", "center", "", "blur center x,y; defaults to the image center").Optional(),
	},
	Build: buildPolarBlur,
})

func buildPolarBlur(set options.Set, images []*stage.Image) (*pipeline.Pipeline, error) {
	img := images[0]
	bp, err := DerivePolarBlur(set, img.Info)
	if err != nil {
		return nil, err
	}
	logger.Debugf("polarblur: %+v", bp)
	p := pipeline.New("polarblur")
	src := source(p, img)
	if bp.AngularSigma == 0 && bp.RadialSigma == 0 {
		p.SetOutput(src)
		return p, nil
	}
	cur := p.Add("unrolled", pipeline.Distort{Method: pipeline.DePolar, Args: bp.args(), VirtualPixel: pipeline.VirtualHorizontalTile}, src)
	if bp.AngularSigma > 0 {
		cur = p.Add("angular", pipeline.DirectionalBlur{Sigma: bp.AngularSigma, Angle: 0, VirtualPixel: pipeline.VirtualHorizontalTile}, cur)
	}
	if bp.RadialSigma > 0 {
		cur = p.Add("radial", pipeline.DirectionalBlur{Sigma: bp.RadialSigma, Angle: 90, VirtualPixel: pipeline.VirtualHorizontalTile}, cur)
	}
	p.SetOutput(p.Add("out", pipeline.Distort{Method: pipeline.Polar, Args: bp.args(), VirtualPixel: pipeline.VirtualHorizontalTile}, cur))
	return p, nil
}
