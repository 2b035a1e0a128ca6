package effects

import (
	"github.com/milahu/imagemagick-scripts-sub003/pkg/logger"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/options"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/params"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/pipeline"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/stage"
)

// GlowParams are the derived parameters of glow.
type GlowParams struct {
	Color     string
	GlowColor string
	Fuzz      float64
	Sigma     float64
	// Strength multiplies the blurred mask; 1 keeps it unchanged.
	Strength float64
}

// DeriveGlow computes GlowParams from validated options.
func DeriveGlow(set options.Set) (GlowParams, error) {
	sigma, err := params.BlurSigma(set.Float("radius"))
	if err != nil {
		return GlowParams{}, err
	}
	gp := GlowParams{
		Color:     set.Color("color").String(),
		GlowColor: set.Color("color").String(),
		Fuzz:      set.Float("fuzz"),
		Sigma:     sigma,
		Strength:  set.Float("strength") / 100,
	}
	if set.Has("glowcolor") {
		gp.GlowColor = set.Color("glowcolor").String()
	}
	return gp, nil
}

var Glow = register(&Effect{
	Name:        "glow",
	Description: "make areas of one colour glow",
	Options: []options.Decl{
		options.Color("-c", "color", "white", "colour of the areas that glow"),
		options.Float("-f", "fuzz", "10", "colour match tolerance in percent").Between(0, 100).Percent(),
		options.Color("-g", "glowcolor", "", "colour of the glow; defaults to -c").Optional(),
		options.Float("-r", "radius", "5", "glow radius in pixels").AtLeast(0),
		options.Float("-s", "strength", "100", "glow strength in percent").Between(0, 200).Percent(),
	},
	Build: buildGlow,
})

func buildGlow(set options.Set, images []*stage.Image) (*pipeline.Pipeline, error) {
	gp, err := DeriveGlow(set)
	if err != nil {
		return nil, err
	}
	logger.Debugf("glow: %+v", gp)
	img := images[0]
	p := pipeline.New("glow")
	src := source(p, img)
	mask := p.Add("mask", pipeline.ColorMask{Color: gp.Color, Fuzz: gp.Fuzz}, src)
	if gp.Sigma > 0 {
		mask = p.Add("soft", pipeline.Blur{Sigma: gp.Sigma}, mask)
	}
	mask = p.Add("scaled", pipeline.Evaluate{Operator: "multiply", Value: gp.Strength}, mask)
	fill := p.Add("fill", pipeline.Colorize{Color: gp.GlowColor}, src)
	p.SetOutput(p.Add("out", pipeline.Composite{Rule: pipeline.ComposeOver}, src, fill, mask))
	return p, nil
}
