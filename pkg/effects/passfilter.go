package effects

import (
	"github.com/milahu/imagemagick-scripts-sub003/pkg/logger"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/options"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/params"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/pipeline"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/stage"
)

// PassType selects which band passfilter keeps.
type PassType int

const (
	LowPass PassType = iota
	HighPass
	EdgePass
)

// PassParams are the derived parameters of passfilter.
type PassParams struct {
	Type  PassType
	Sigma float64
	// Mix is the weight of the filtered image in percent.
	Mix float64
}

// DerivePass computes PassParams from validated options.
func DerivePass(set options.Set) (PassParams, error) {
	sigma, err := params.BlurSigma(set.Float("width"))
	if err != nil {
		return PassParams{}, err
	}
	return PassParams{Type: PassType(set.Choice("type")), Sigma: sigma, Mix: set.Float("mix")}, nil
}

var PassFilter = register(&Effect{
	Name:        "passfilter",
	Description: "low-pass, high-pass or edge filter blended with the original",
	Options: []options.Decl{
		options.OneOf("-t", "type", "high", "filter type",
			options.Choice{Name: "low", Value: int(LowPass)},
			options.Choice{Name: "high", Value: int(HighPass)},
			options.Choice{Name: "edge", Value: int(EdgePass)}),
		options.Float("-w", "width", "4", "filter width in pixels").Above(0),
		options.Float("-m", "mix", "100", "percent of the filtered image in the result").Between(0, 100).Percent(),
	},
	Build: buildPass,
})

func buildPass(set options.Set, images []*stage.Image) (*pipeline.Pipeline, error) {
	pp, err := DerivePass(set)
	if err != nil {
		return nil, err
	}
	logger.Debugf("passfilter: %+v", pp)
	p := pipeline.New("passfilter")
	src := source(p, images[0])
	filtered := p.Add("low", pipeline.Blur{Sigma: pp.Sigma}, src)
	if pp.Type != LowPass {
		diff := p.Add("diff", pipeline.Composite{Rule: pipeline.ComposeDifference}, src, filtered)
		filtered = p.Add("high", pipeline.AutoLevel{}, diff)
	}
	if pp.Type == EdgePass {
		gray := p.Add("gray", pipeline.Grayscale{}, filtered)
		stretched := p.Add("stretched", pipeline.AutoLevel{}, gray)
		filtered = p.Add("edge", pipeline.Negate{}, stretched)
	}
	p.SetOutput(p.Add("out", pipeline.Composite{Rule: pipeline.ComposeBlend, Args: []float64{pp.Mix}}, src, filtered))
	return p, nil
}
