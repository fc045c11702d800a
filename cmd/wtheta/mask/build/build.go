// Copyright © 2022 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package build implements a command to build a disk-shaped footprint
// mask file.
package build

import (
	"fmt"
	"os"

	"github.com/js-arias/command"

	"github.com/js-arias/wtheta/footprint"
	"github.com/js-arias/wtheta/sky"
)

var Command = &command.Command{
	Usage: `build [-r|--resolution <value>]
	--ra <deg> --dec <deg> --radius <deg> --out <mask-file>`,
	Short: "build a disk-shaped footprint mask",
	Long: `
Command build writes a footprint mask TSV file covering a spherical disk, the
simplest footprint geometry this tool reads directly.

The flags --ra, --dec, and --radius are required and give the disk's center
(right ascension and declination, in degrees) and radius (in degrees). The
flag --out is required and names the mask file to write.

By default the mask is sampled at resolution 64; use --resolution, or -r, to
change it. It must be a power of two.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var (
	resolution int
	raFlag     float64
	decFlag    float64
	radiusFlag float64
	outFile    string
)

func setFlags(c *command.Command) {
	c.Flags().IntVar(&resolution, "resolution", 64, "")
	c.Flags().IntVar(&resolution, "r", 64, "")
	c.Flags().Float64Var(&raFlag, "ra", 0, "")
	c.Flags().Float64Var(&decFlag, "dec", 0, "")
	c.Flags().Float64Var(&radiusFlag, "radius", 0, "")
	c.Flags().StringVar(&outFile, "out", "", "")
}

func run(c *command.Command, args []string) error {
	if radiusFlag <= 0 {
		return c.UsageError("expecting a positive disk radius, flag --radius")
	}
	if outFile == "" {
		return c.UsageError("expecting output file, flag --out")
	}

	center := sky.NewPoint(raFlag, decFlag)
	m := footprint.NewDisk(center, radiusFlag, resolution)

	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := m.TSV(f); err != nil {
		return fmt.Errorf("while writing %q: %v", outFile, err)
	}
	return nil
}
