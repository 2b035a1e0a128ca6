package effects

import (
	"fmt"

	"github.com/milahu/imagemagick-scripts-sub003/pkg/logger"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/options"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/pipeline"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/stage"
)

// Direction is the way melt drags bright pixels.
type Direction int

const (
	North Direction = iota
	South
	East
	West
)

// MeltParams are the derived parameters of melt.
type MeltParams struct {
	Iterations int
	Direction  Direction
}

// DeriveMelt computes MeltParams from validated options.
func DeriveMelt(set options.Set) MeltParams {
	return MeltParams{Iterations: set.Int("length"), Direction: Direction(set.Choice("direction"))}
}

var Melt = register(&Effect{
	Name:        "melt",
	Description: "smear bright pixels in one direction",
	Options: []options.Decl{
		options.Int("-l", "length", "10", "number of pixels to melt").AtLeast(0),
		options.OneOf("-d", "direction", "south", "direction of the melt",
			options.Choice{Name: "north", Value: int(North)},
			options.Choice{Name: "south", Value: int(South)},
			options.Choice{Name: "east", Value: int(East)},
			options.Choice{Name: "west", Value: int(West)}),
	},
	Build: buildMelt,
})

func buildMelt(set options.Set, images []*stage.Image) (*pipeline.Pipeline, error) {
	mp := DeriveMelt(set)
	logger.Debugf("melt: %+v", mp)
	img := images[0]
	w, h := img.Info.Width, img.Info.Height
	p := pipeline.New("melt")
	cur := source(p, img)

	vertical := mp.Direction == North || mp.Direction == South
	if (vertical && h < 2) || (!vertical && w < 2) {
		// nothing to shift against
		mp.Iterations = 0
	}
	for i := 1; i <= mp.Iterations; i++ {
		name := func(s string) pipeline.Buffer { return pipeline.Buffer(fmt.Sprintf("%s%d", s, i)) }
		// lead holds row/column k and trail row/column k+1 for every k.
		var lead, trail, edge pipeline.Crop
		switch mp.Direction {
		case South, North:
			lead = pipeline.Crop{Width: w, Height: h - 1}
			trail = pipeline.Crop{Width: w, Height: h - 1, Y: 1}
			edge = pipeline.Crop{Width: w, Height: 1}
			if mp.Direction == North {
				edge.Y = h - 1
			}
		case East, West:
			lead = pipeline.Crop{Width: w - 1, Height: h}
			trail = pipeline.Crop{Width: w - 1, Height: h, X: 1}
			edge = pipeline.Crop{Width: 1, Height: h}
			if mp.Direction == West {
				edge.X = w - 1
			}
		}
		a := p.Add(name("lead"), lead, cur)
		b := p.Add(name("trail"), trail, cur)
		lit := p.Add(name("lit"), pipeline.Composite{Rule: pipeline.ComposeLighten}, a, b)
		e := p.Add(name("edge"), edge, cur)
		app := pipeline.Append{Vertical: vertical}
		if mp.Direction == South || mp.Direction == East {
			cur = p.Add(name("melt"), app, e, lit)
		} else {
			cur = p.Add(name("melt"), app, lit, e)
		}
	}
	p.SetOutput(cur)
	return p, nil
}
