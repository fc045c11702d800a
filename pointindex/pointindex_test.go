// Copyright © 2022 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package pointindex_test

import (
	"math/rand"
	"testing"

	"github.com/js-arias/wtheta/angbin"
	"github.com/js-arias/wtheta/catalog"
	"github.com/js-arias/wtheta/footprint"
	"github.com/js-arias/wtheta/pointindex"
	"github.com/js-arias/wtheta/sky"
)

func TestAddPointLen(t *testing.T) {
	tr := pointindex.New(10)
	fp := footprint.NewDisk(sky.NewPoint(10, 10), 5, 32)
	rng := rand.New(rand.NewSource(1))
	cat := fp.GenerateRandomPoints(1000, false, rng)
	tr.AddCatalog(cat)
	if tr.Len() != 1000 {
		t.Fatalf("got %d points, want 1000", tr.Len())
	}
}

func TestFindWeightedPairsSelfConsistent(t *testing.T) {
	fp := footprint.NewDisk(sky.NewPoint(0, 0), 8, 64)
	rng := rand.New(rand.NewSource(2))
	cat := fp.GenerateRandomPoints(400, false, rng)

	tr := pointindex.New(20)
	tr.AddCatalog(cat)

	bin := angbin.NewBin(sky.ToRad(0.5), sky.ToRad(3))
	tr.FindWeightedPairs(cat, bin)
	bin.MoveWeightToGalGal()

	// brute force cross-check
	var want float64
	for i := 0; i < cat.Len(); i++ {
		pi := cat.At(i)
		for j := 0; j < cat.Len(); j++ {
			pj := cat.At(j)
			sin2 := sky.Sin2HalfAngle(pi.Loc, pj.Loc)
			if bin.Contains(sin2) {
				want += pi.Weight * pj.Weight
			}
		}
	}
	got := bin.GalGal.All
	if diff := abs(got - want); diff > 1e-6*abs(want) && diff > 1e-6 {
		t.Errorf("got %v, want %v", got, want)
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func TestFindWeightedPairsPrunesOutOfRange(t *testing.T) {
	fp := footprint.NewDisk(sky.NewPoint(0, 0), 20, 32)
	rng := rand.New(rand.NewSource(3))
	cat := fp.GenerateRandomPoints(200, false, rng)

	tr := pointindex.New(20)
	tr.AddCatalog(cat)

	// a bin far outside the footprint's diameter should find nothing
	bin := angbin.NewBin(sky.ToRad(100), sky.ToRad(120))
	tr.FindWeightedPairs(cat, bin)
	bin.MoveWeightToGalGal()
	if bin.GalGal.All != 0 {
		t.Errorf("expected zero pairs far outside the footprint, got %v", bin.GalGal.All)
	}
}

func TestInitializeRegionsAssignsLeaves(t *testing.T) {
	fp := footprint.NewDisk(sky.NewPoint(0, 0), 10, 64)
	if _, err := fp.InitializeRegions(6); err != nil {
		t.Fatalf("unable to initialize footprint regions: %v", err)
	}
	rng := rand.New(rand.NewSource(4))
	cat := fp.GenerateRandomPoints(600, false, rng)
	// assign region ids on the catalog itself, as the engine would
	for i := 0; i < cat.Len(); i++ {
		cat.SetRegion(i, fp.Region(cat.At(i).Loc))
	}

	tr := pointindex.New(50)
	tr.AddCatalog(cat)
	tr.InitializeRegions(fp)

	bin := angbin.NewBin(sky.ToRad(0.1), sky.ToRad(5))
	bin.InitRegions(6)
	tr.FindWeightedPairs(cat, bin)
	bin.MoveWeightToGalGal()

	if bin.GalGal.All <= 0 {
		t.Fatal("expected a positive pair count")
	}
	for r := 0; r < 6; r++ {
		lo := bin.GalGal.LeaveOneOut(r)
		if lo > bin.GalGal.All {
			t.Errorf("region %d: leave-one-out total %v exceeds the full total %v", r, lo, bin.GalGal.All)
		}
	}
}

func TestEmptyCatalogAddPoint(t *testing.T) {
	tr := pointindex.New(5)
	c := catalog.New()
	tr.AddCatalog(c)
	if tr.Len() != 0 {
		t.Errorf("got %d points, want 0", tr.Len())
	}
}
