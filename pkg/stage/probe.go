package stage

import (
	"image"
	"image/color"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ProbeConfig reads the header of path with the Go decoders. It returns
// false for formats only the engine understands.
func ProbeConfig(path string) (Info, bool) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, false
	}
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return Info{}, false
	}
	info := Info{Width: cfg.Width, Height: cfg.Height, Format: format}
	switch m := cfg.ColorModel; m {
	case color.GrayModel, color.Gray16Model:
		info.Channels, info.Colorspace = 1, "Gray"
	case color.YCbCrModel, color.NYCbCrAModel:
		info.Channels, info.Colorspace = 3, "sRGB"
		info.Alpha = m == color.NYCbCrAModel
		if info.Alpha {
			info.Channels = 4
		}
	case color.CMYKModel:
		info.Channels, info.Colorspace = 4, "CMYK"
	case color.AlphaModel, color.Alpha16Model:
		info.Channels, info.Colorspace, info.Alpha = 1, "Gray", true
	default:
		info.Channels, info.Colorspace = 3, "sRGB"
		if p, ok := m.(color.Palette); ok {
			info.Alpha = paletteHasAlpha(p)
		} else {
			info.Alpha = true
		}
		if info.Alpha {
			info.Channels = 4
		}
	}
	return info, true
}

func paletteHasAlpha(p color.Palette) bool {
	for _, c := range p {
		if _, _, _, a := c.RGBA(); a != 0xffff {
			return true
		}
	}
	return false
}
