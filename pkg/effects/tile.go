package effects

import (
	"github.com/milahu/imagemagick-scripts-sub003/pkg/fxerr"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/logger"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/options"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/pipeline"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/stage"
)

// Arrangement is how tile orients neighbouring copies.
type Arrangement int

const (
	Repeat Arrangement = iota
	Mirror
	Rotate
	Transpose
)

// TileParams are the derived parameters of tile.
type TileParams struct {
	Arrangement   Arrangement
	Width, Height int
}

// DeriveTile computes TileParams for an image.
func DeriveTile(set options.Set, info stage.Info) (TileParams, error) {
	tp := TileParams{
		Arrangement: Arrangement(set.Choice("arrangement")),
		Width:       info.Width * set.Int("columns"),
		Height:      info.Height * set.Int("rows"),
	}
	if (tp.Arrangement == Rotate || tp.Arrangement == Transpose) && info.Width != info.Height {
		return TileParams{}, fxerr.Parameter("arrangement", "%s needs a square image, got %dx%d",
			set.ChoiceName("arrangement"), info.Width, info.Height)
	}
	return tp, nil
}

var Tile = register(&Effect{
	Name:        "tile",
	Description: "tile copies of the image into a grid",
	Options: []options.Decl{
		options.OneOf("-a", "arrangement", "repeat", "orientation of neighbouring tiles",
			options.Choice{Name: "repeat", Value: int(Repeat)},
			options.Choice{Name: "mirror", Value: int(Mirror)},
			options.Choice{Name: "rotate", Value: int(Rotate)},
			options.Choice{Name: "transpose", Value: int(Transpose)}),
		options.Int("-x", "columns", "2", "number of columns").Between(1, 100),
		options.Int("-y", "rows", "2", "number of rows").Between(1, 100),
	},
	Build: buildTile,
})

func buildTile(set options.Set, images []*stage.Image) (*pipeline.Pipeline, error) {
	img := images[0]
	tp, err := DeriveTile(set, img.Info)
	if err != nil {
		return nil, err
	}
	logger.Debugf("tile: %+v", tp)
	p := pipeline.New("tile")
	src := source(p, img)
	cell := src
	transform := func(name string, k pipeline.TransformKind) pipeline.Buffer {
		return p.Add(pipeline.Buffer(name), pipeline.Transform{Kind: k}, src)
	}
	// 2x2 blocks that repeat seamlessly
	switch tp.Arrangement {
	case Mirror:
		top := p.Add("top", pipeline.Append{}, src, transform("flop", pipeline.Flop))
		bottom := p.Add("bottom", pipeline.Transform{Kind: pipeline.Flip}, top)
		cell = p.Add("cell", pipeline.Append{Vertical: true}, top, bottom)
	case Rotate:
		top := p.Add("top", pipeline.Append{}, src, transform("r90", pipeline.Rotate90))
		bottom := p.Add("bottom", pipeline.Append{}, transform("r270", pipeline.Rotate270), transform("r180", pipeline.Rotate180))
		cell = p.Add("cell", pipeline.Append{Vertical: true}, top, bottom)
	case Transpose:
		t := transform("transposed", pipeline.Transpose)
		top := p.Add("top", pipeline.Append{}, src, t)
		bottom := p.Add("bottom", pipeline.Append{}, t, src)
		cell = p.Add("cell", pipeline.Append{Vertical: true}, top, bottom)
	}
	p.SetOutput(p.Add("out", pipeline.Tile{Width: tp.Width, Height: tp.Height}, cell))
	return p, nil
}
