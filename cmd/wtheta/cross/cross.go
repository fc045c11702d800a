// Copyright © 2022 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package cross implements a command to measure the angular
// cross-correlation of two catalogs.
package cross

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
	Usage: `cross [--bins <value>] [--tmin <deg>] [--tmax <deg>]
	[--linear] [--regions <value>] [--krand <value>] [--weighted]
	[--workers <value>] [--seed <value>] [--cov <cov-file>]
	--mask-a <mask-file> --mask-b <mask-file>
	--cat-a <catalog-file> --cat-b <catalog-file> --out <out-file>`,
	Short: "measure the angular cross-correlation of two catalogs",
	Long: `
Command cross measures the angular two-point cross-correlation function w(θ)
between two weighted point catalogs, each over its own survey footprint (the
same footprint may be given twice).

The flags --mask-a, --mask-b, --cat-a, and --cat-b are required. The flag
--out is required and names the file that will receive the w(θ) table.

See "wtheta help auto" for the meaning of --bins, --tmin, --tmax, --linear,
--regions, --krand, --weighted, and --cov: they behave identically here,
except that regionation (when requested) is taken from footprint A.
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
	maskAFile    string
	maskBFile    string
	catAFile     string
	catBFile     string
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
	c.Flags().StringVar(&maskAFile, "mask-a", "", "")
	c.Flags().StringVar(&maskBFile, "mask-b", "", "")
	c.Flags().StringVar(&catAFile, "cat-a", "", "")
	c.Flags().StringVar(&catBFile, "cat-b", "", "")
	c.Flags().StringVar(&outFile, "out", "", "")
	c.Flags().StringVar(&covFile, "cov", "", "")
}

func run(c *command.Command, args []string) error {
	if maskAFile == "" || maskBFile == "" {
		return c.UsageError("expecting both footprint mask files, flags --mask-a and --mask-b")
	}
	if catAFile == "" || catBFile == "" {
		return c.UsageError("expecting both catalog files, flags --cat-a and --cat-b")
	}
	if outFile == "" {
		return c.UsageError("expecting output file, flag --out")
	}

	fa, err := footprint.Read(maskAFile)
	if err != nil {
		return fmt.Errorf("while reading mask %q: %v", maskAFile, err)
	}
	fb, err := footprint.Read(maskBFile)
	if err != nil {
		return fmt.Errorf("while reading mask %q: %v", maskBFile, err)
	}
	ca, err := catalog.Read(catAFile)
	if err != nil {
		return fmt.Errorf("while reading catalog %q: %v", catAFile, err)
	}
	cb, err := catalog.Read(catBFile)
	if err != nil {
		return fmt.Errorf("while reading catalog %q: %v", catBFile, err)
	}

	if regionsFlag > 0 {
		n, err := fa.InitializeRegions(regionsFlag)
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
	if fa.RegionCount() > 0 {
		binning.InitRegions(fa.RegionCount())
	}

	e := wtheta.NewEngine(rand.New(rand.NewSource(seedFlag)))
	e.Workers = workersFlag

	start := time.Now()
	res, err := e.CrossCorrelate(fa, fb, ca, cb, binning, kRandFlag, weightedFlag)
	if err != nil {
		return fmt.Errorf("while cross-correlating: %v", err)
	}
	fmt.Fprintf(c.Stderr(), "cross-correlate: %d regions, %d+%d out-of-footprint, %v elapsed\n",
		res.RegionCount, res.OutOfFootprintA, res.OutOfFootprintB, time.Since(start))
	if res.UsedPairOnly {
		fmt.Fprintf(c.Stderr(), "warning: regionation resolution exceeded the pixel cap, used pair estimator only\n")
	}

	var cov *wtheta.Covariance
	if fa.RegionCount() > 0 {
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
