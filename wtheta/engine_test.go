// Copyright © 2022 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package wtheta_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/js-arias/wtheta/angbin"
	"github.com/js-arias/wtheta/catalog"
	"github.com/js-arias/wtheta/footprint"
	"github.com/js-arias/wtheta/sky"
	"github.com/js-arias/wtheta/wtheta"
)

func TestAutoCorrelateUniformShotNoiseBand(t *testing.T) {
	fp := footprint.NewDisk(sky.NewPoint(60, 0), 3, 64)
	rng := rand.New(rand.NewSource(1))
	cat := fp.GenerateRandomPoints(5000, false, rng)

	binning := angbin.NewLog(0.01, 10, 12)
	e := wtheta.NewEngine(rand.New(rand.NewSource(2)))
	e.Workers = 2

	res, err := e.AutoCorrelate(fp, cat, binning, 1, false)
	if err != nil {
		t.Fatalf("auto-correlate: %v", err)
	}
	if res.RegionCount != 0 {
		t.Fatalf("expected no regionation, got %d regions", res.RegionCount)
	}

	var sawPixel, sawPair bool
	for _, bin := range binning.Bins() {
		if bin.IsPixelBased() {
			sawPixel = true
		} else {
			sawPair = true
		}
		w, ok := func() (float64, bool) {
			if bin.IsPixelBased() {
				return bin.PixelWTheta()
			}
			return bin.PairWTheta()
		}()
		if !ok {
			continue
		}
		if bin.GalGal.All+bin.RandRand.All <= 0 && bin.PixelDen.All <= 0 {
			continue
		}
		n := bin.GalGal.All
		if n <= 0 {
			n = 1
		}
		band := 5 / math.Sqrt(n)
		if math.Abs(w) > band && !bin.IsPixelBased() {
			t.Errorf("bin theta=%.4g: |w|=%.4g exceeds shot-noise band %.4g", bin.Theta, math.Abs(w), band)
		}
	}
	if !sawPixel || !sawPair {
		t.Errorf("expected both pixel and pair bins populated, got pixel=%v pair=%v", sawPixel, sawPair)
	}
}

func TestAutoCorrelateDetectsInjectedClustering(t *testing.T) {
	fp := footprint.NewDisk(sky.NewPoint(60, 0), 3, 64)
	rng := rand.New(rand.NewSource(3))
	cat := fp.GenerateRandomPoints(3000, false, rng)

	injected := footprint.NewDisk(sky.NewPoint(60, 0), 0.1, 64)
	extra := injected.GenerateRandomPoints(1000, false, rng)
	for i := 0; i < extra.Len(); i++ {
		cat.Add(extra.At(i))
	}

	binning := angbin.NewLog(0.01, 10, 12)
	e := wtheta.NewEngine(rand.New(rand.NewSource(4)))
	if _, err := e.AutoCorrelate(fp, cat, binning, 1, false); err != nil {
		t.Fatalf("auto-correlate: %v", err)
	}

	var sawClustered bool
	for _, bin := range binning.Bins() {
		thetaDeg := sky.ToDegree(bin.Theta)
		var w float64
		var ok bool
		if bin.IsPixelBased() {
			w, ok = bin.PixelWTheta()
		} else {
			w, ok = bin.PairWTheta()
		}
		if !ok {
			continue
		}
		if thetaDeg <= 0.15 && w > 1 {
			sawClustered = true
		}
		if thetaDeg > 1 {
			if math.Abs(w) > 1 {
				t.Errorf("bin theta=%.4g deg: expected w near 0 well outside the injected cap, got %v", thetaDeg, w)
			}
		}
	}
	if !sawClustered {
		t.Error("expected a strong positive w(theta) in the bin covering the injected clustering cap")
	}
}

func TestRegionatedCovarianceSymmetric(t *testing.T) {
	fp := footprint.NewDisk(sky.NewPoint(60, 0), 5, 64)
	if _, err := fp.InitializeRegions(10); err != nil {
		t.Fatalf("initialize regions: %v", err)
	}
	rng := rand.New(rand.NewSource(5))
	cat := fp.GenerateRandomPoints(3000, false, rng)

	binning := angbin.NewLog(0.01, 10, 10)
	binning.InitRegions(fp.RegionCount())
	e := wtheta.NewEngine(rand.New(rand.NewSource(6)))

	res, err := e.AutoCorrelate(fp, cat, binning, 2, false)
	if err != nil {
		t.Fatalf("auto-correlate: %v", err)
	}
	if res.RegionCount != 10 {
		t.Fatalf("got %d regions, want 10", res.RegionCount)
	}
	for _, bin := range binning.Bins() {
		if bin.NRegion() != 10 {
			t.Errorf("bin theta=%.4g: got %d regions, want 10", bin.Theta, bin.NRegion())
		}
	}

	cov := wtheta.NewCovariance(binning)
	n := len(cov.Bins)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			diff := math.Abs(cov.Mat[i][j] - cov.Mat[j][i])
			if diff > 1e-9 {
				t.Errorf("cov(%d,%d)=%v != cov(%d,%d)=%v", i, j, cov.Mat[i][j], j, i, cov.Mat[j][i])
			}
		}
	}
}

func TestCrossCorrelateIndependentCatalogsCompatibleWithZero(t *testing.T) {
	fp := footprint.NewDisk(sky.NewPoint(60, 0), 3, 64)
	rngA := rand.New(rand.NewSource(7))
	rngB := rand.New(rand.NewSource(8))
	ca := fp.GenerateRandomPoints(2000, false, rngA)
	cb := fp.GenerateRandomPoints(2000, false, rngB)

	binning := angbin.NewLog(0.05, 5, 8)
	e := wtheta.NewEngine(rand.New(rand.NewSource(9)))

	if _, err := e.CrossCorrelate(fp, fp, ca, cb, binning, 1, false); err != nil {
		t.Fatalf("cross-correlate: %v", err)
	}

	for _, bin := range binning.Bins() {
		var w float64
		var ok bool
		if bin.IsPixelBased() {
			w, ok = bin.PixelWTheta()
		} else {
			w, ok = bin.PairWTheta()
		}
		if !ok {
			continue
		}
		if math.Abs(w) > 2 {
			t.Errorf("bin theta=%.4g: |w|=%.4g too far from 0 for independent catalogs", bin.Theta, math.Abs(w))
		}
	}
}

func TestUseOnlyPairsAfterResolutionAssignment(t *testing.T) {
	binning := angbin.NewLog(0.01, 10, 12)
	binning.ApplyResolutionCap(256)
	if len(binning.PixelBins()) == 0 {
		t.Fatal("expected some pixel bins before UseOnlyPairs")
	}

	binning.UseOnlyPairs()
	if len(binning.PixelBins()) != 0 {
		t.Errorf("expected zero pixel bins after UseOnlyPairs, got %d", len(binning.PixelBins()))
	}
	if len(binning.PairBins()) != binning.Len() {
		t.Errorf("expected every bin pair-based, got %d of %d", len(binning.PairBins()), binning.Len())
	}
	for _, bin := range binning.Bins() {
		if bin.Resolution != 0 {
			t.Errorf("bin theta=%.4g: resolution %d, want 0", bin.Theta, bin.Resolution)
		}
	}
}

func TestAutoMaxResolutionWorkedExample(t *testing.T) {
	// The reference worked example (spec.md §8.6): R_cap=128 for
	// n=1e6, A=1000 deg².
	if got := angbin.AutoMaxResolution(1_000_000, 1000); got != 128 {
		t.Errorf("AutoMaxResolution(1e6, 1000) = %d, want 128", got)
	}
}

func TestAutoMaxResolutionBreakpointTable(t *testing.T) {
	// spec.md §4.1's exact breakpoint table.
	cases := []struct {
		n    int
		area float64
		want int
	}{
		// A > 500 deg²: 512 baseline; 64/128/256 by n.
		{499_999, 1000, 64},
		{500_000, 1000, 128},
		{1_999_999, 1000, 128},
		{2_000_000, 1000, 256},
		{9_999_999, 1000, 256},
		{10_000_000, 1000, 512},
		// A <= 500 deg²: 256/512/1024/2048 by n.
		{499_999, 500, 256},
		{500_000, 500, 512},
		{1_999_999, 500, 512},
		{2_000_000, 500, 1024},
		{9_999_999, 500, 1024},
		{10_000_000, 500, 2048},
	}
	for _, c := range cases {
		if got := angbin.AutoMaxResolution(c.n, c.area); got != c.want {
			t.Errorf("AutoMaxResolution(%d, %g) = %d, want %d", c.n, c.area, got, c.want)
		}
	}
}

func TestEmptyCatalogAutoCorrelate(t *testing.T) {
	fp := footprint.NewDisk(sky.NewPoint(0, 0), 2, 32)
	cat := catalog.New()
	binning := angbin.NewLog(0.1, 5, 4)
	e := wtheta.NewEngine(rand.New(rand.NewSource(10)))

	res, err := e.AutoCorrelate(fp, cat, binning, 0, false)
	if err != nil {
		t.Fatalf("auto-correlate on empty catalog: %v", err)
	}
	if res.OutOfFootprintA != 0 {
		t.Errorf("expected no out-of-footprint points, got %d", res.OutOfFootprintA)
	}
	for _, bin := range binning.Bins() {
		if bin.GalGal.All != 0 {
			t.Errorf("expected zero pairs from an empty catalog, got %v", bin.GalGal.All)
		}
	}
}
