package engine

import (
	"fmt"

	"github.com/milahu/imagemagick-scripts-sub003/pkg/magickver"
)

var (
	// 6.7.6-7 through 6.7.7-7 swapped the meaning of RGB and sRGB.
	rgbSwapFirst = magickver.MustParse("6.7.6-7")
	rgbSwapLast  = magickver.MustParse("6.7.7-7")
	// -alpha off replaced +matte.
	alphaOption = magickver.MustParse("6.4.3-7")
	// -define compose:args replaced -set option:compose:args.
	composeDefine = magickver.MustParse("6.5.3-4")
	// Since 6.8.5-5 -channel with -function honours the channel mask.
	channelFunction = magickver.MustParse("6.8.5-5")
)

// Capabilities are the version dependent choices of one engine. They are
// computed once when the adapter is created and never change.
type Capabilities struct {
	Version magickver.Version
	// RGBSpace is the colourspace token meaning non-linear sRGB.
	RGBSpace string
	// AlphaOff disables the alpha channel.
	AlphaOff []string
	// ComposeDefine selects -define compose:args over -set option:compose:args.
	ComposeDefine bool
	// ChannelFunction reports that -function respects -channel.
	ChannelFunction bool
}

// CapabilitiesFor derives the capabilities of version v.
func CapabilitiesFor(v magickver.Version) Capabilities {
	c := Capabilities{
		Version:         v,
		RGBSpace:        "sRGB",
		AlphaOff:        []string{"-alpha", "off"},
		ComposeDefine:   v.AtLeast(composeDefine),
		ChannelFunction: v.AtLeast(channelFunction),
	}
	if v.AtLeast(rgbSwapFirst) && !v.GT(rgbSwapLast) {
		c.RGBSpace = "RGB"
	}
	if v.Less(alphaOption) {
		c.AlphaOff = []string{"+matte"}
	}
	return c
}

func (c Capabilities) String() string {
	return fmt.Sprintf("ImageMagick %s (rgb=%s, compose-define=%v, channel-function=%v)",
		c.Version, c.RGBSpace, c.ComposeDefine, c.ChannelFunction)
}
