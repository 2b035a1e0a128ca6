//go:build wand

package main

// Registers the in-process MagickWand engine.
import _ "github.com/milahu/imagemagick-scripts-sub003/pkg/engine/wand"
