// Command magickfx applies ImageMagick effects described by script-style
// options. Linked or copied under an effect name ("glow", "tile", ...) it
// behaves like that effect's standalone script.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/milahu/imagemagick-scripts-sub003/pkg/cli"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/config"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "magickfx: %v\n", err)
		os.Exit(1)
	}
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	os.Exit(cli.New(cfg, os.Stdout, os.Stderr).Main(context.Background(), os.Args))
}
