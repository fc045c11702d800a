// Copyright © 2022 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package auto implements a command to measure the angular
// auto-correlation of a catalog over a footprint.
package auto

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/js-arias/command"

	"github.com/js-arias/wtheta/angbin"
	"github.com/js-arias/wtheta/catalog"
	"github.com/js-arias/wtheta/footprint"
	"github.com/js-arias/wtheta/wtheta"
)

var Command = &command.Command{
	Usage: `auto [--bins <value>] [--tmin <deg>] [--tmax <deg>]
	[--linear] [--regions <value>] [--krand <value>] [--weighted]
	[--workers <value>] [--seed <value>] [--cov <cov-file>]
	--mask <mask-file> --cat <catalog-file> --out <out-file>`,
	Short: "measure the angular auto-correlation of a catalog",
	Long: `
Command auto measures the angular two-point auto-correlation function w(θ) of
a weighted point catalog over a survey footprint.

The flags --mask and --cat are required, and give the footprint mask and
catalog TSV files (see the package documentation of footprint and catalog for
their column layout).

The flag --out is required and names the file that will receive the w(θ)
table (see the output format documented in package wtheta).

By default the binning is 24 log-spaced bins between 0.001 and 10 degrees.
Use --bins, --tmin, and --tmax to change the bin count and range, and
--linear to use a linear instead of a log binning.

If --regions is defined, the footprint is partitioned into that many
jack-knife regions and a covariance matrix is written to the file named by
--cov.

The flag --krand sets the number of random-catalog iterations used to
estimate the random-random and galaxy-random pair terms (default 1). Use
--weighted to draw random points in proportion to the footprint's per-pixel
weight rather than its unmasked area alone.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var (
	binsFlag     int
	tMinFlag     float64
	tMaxFlag     float64
	linearFlag   bool
	regionsFlag  int
	kRandFlag    int
	weightedFlag bool
	workersFlag  int
	seedFlag     int64
	maskFile     string
	catFile      string
	outFile      string
	covFile      string
)

func setFlags(c *command.Command) {
	c.Flags().IntVar(&binsFlag, "bins", 24, "")
	c.Flags().Float64Var(&tMinFlag, "tmin", 0.001, "")
	c.Flags().Float64Var(&tMaxFlag, "tmax", 10, "")
	c.Flags().BoolVar(&linearFlag, "linear", false, "")
	c.Flags().IntVar(&regionsFlag, "regions", 0, "")
	c.Flags().IntVar(&kRandFlag, "krand", 1, "")
	c.Flags().BoolVar(&weightedFlag, "weighted", false, "")
	c.Flags().IntVar(&workersFlag, "workers", 0, "")
	c.Flags().Int64Var(&seedFlag, "seed", 1, "")
	c.Flags().StringVar(&maskFile, "mask", "", "")
	c.Flags().StringVar(&catFile, "cat", "", "")
	c.Flags().StringVar(&outFile, "out", "", "")
	c.Flags().StringVar(&covFile, "cov", "", "")
}

func run(c *command.Command, args []string) error {
	if maskFile == "" {
		return c.UsageError("expecting footprint mask file, flag --mask")
	}
	if catFile == "" {
		return c.UsageError("expecting catalog file, flag --cat")
	}
	if outFile == "" {
		return c.UsageError("expecting output file, flag --out")
	}

	fp, err := footprint.Read(maskFile)
	if err != nil {
		return fmt.Errorf("while reading mask %q: %v", maskFile, err)
	}
	cat, err := catalog.Read(catFile)
	if err != nil {
		return fmt.Errorf("while reading catalog %q: %v", catFile, err)
	}

	if regionsFlag > 0 {
		n, err := fp.InitializeRegions(regionsFlag)
		if err != nil {
			return fmt.Errorf("while partitioning regions: %v", err)
		}
		if n != regionsFlag {
			fmt.Fprintf(c.Stderr(), "warning: requested %d regions, got %d\n", regionsFlag, n)
		}
	}

	var binning *angbin.Binning
	if linearFlag {
		binning = angbin.NewLinear(tMinFlag, tMaxFlag, binsFlag)
	} else {
		binning = angbin.NewLog(tMinFlag, tMaxFlag, binsFlag)
	}
	if fp.RegionCount() > 0 {
		binning.InitRegions(fp.RegionCount())
	}

	e := wtheta.NewEngine(rand.New(rand.NewSource(seedFlag)))
	e.Workers = workersFlag

	start := time.Now()
	res, err := e.AutoCorrelate(fp, cat, binning, kRandFlag, weightedFlag)
	if err != nil {
		return fmt.Errorf("while auto-correlating: %v", err)
	}
	fmt.Fprintf(c.Stderr(), "auto-correlate: %d regions, %d out-of-footprint, %v elapsed\n",
		res.RegionCount, res.OutOfFootprintA, time.Since(start))
	if res.UsedPairOnly {
		fmt.Fprintf(c.Stderr(), "warning: regionation resolution exceeded the pixel cap, used pair estimator only\n")
	}

	var cov *wtheta.Covariance
	if fp.RegionCount() > 0 {
		cov = wtheta.NewCovariance(binning)
	}

	out, err := os.Create(outFile)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := wtheta.WriteTable(out, binning, cov); err != nil {
		return fmt.Errorf("while writing %q: %v", outFile, err)
	}

	if covFile != "" {
		if cov == nil {
			return fmt.Errorf("--cov requires --regions")
		}
		cf, err := os.Create(covFile)
		if err != nil {
			return err
		}
		defer cf.Close()
		if err := wtheta.WriteCovariance(cf, cov); err != nil {
			return fmt.Errorf("while writing %q: %v", covFile, err)
		}
	}

	return nil
}
