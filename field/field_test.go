// Copyright © 2022 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package field_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/js-arias/wtheta/angbin"
	"github.com/js-arias/wtheta/catalog"
	"github.com/js-arias/wtheta/field"
	"github.com/js-arias/wtheta/footprint"
	"github.com/js-arias/wtheta/sky"
)

func TestAddAndTotalIntensity(t *testing.T) {
	fp := footprint.NewDisk(sky.NewPoint(0, 0), 10, 32)
	sf := field.New(fp, 32, field.Density, false)

	rng := rand.New(rand.NewSource(1))
	cat := fp.GenerateRandomPoints(1000, false, rng)
	rejected := sf.AddCatalog(cat)

	if rejected != 0 {
		t.Errorf("got %d rejected points, want 0 (all points come from the footprint itself)", rejected)
	}
	if sf.TotalPoints() != 1000 {
		t.Errorf("got %d total points, want 1000", sf.TotalPoints())
	}
	if math.Abs(sf.TotalIntensity()-1000) > 1e-9 {
		t.Errorf("got total intensity %v, want 1000", sf.TotalIntensity())
	}
}

func TestAggregateConservesTotalIntensity(t *testing.T) {
	fp := footprint.NewDisk(sky.NewPoint(30, 20), 8, 64)
	sf := field.New(fp, 64, field.Density, false)

	rng := rand.New(rand.NewSource(2))
	cat := fp.GenerateRandomPoints(5000, false, rng)
	sf.AddCatalog(cat)

	coarse, err := sf.Aggregate(16)
	if err != nil {
		t.Fatalf("unable to aggregate: %v", err)
	}
	rel := math.Abs(coarse.TotalIntensity()-sf.TotalIntensity()) / sf.TotalIntensity()
	if rel > 1e-9 {
		t.Errorf("aggregation changed total intensity by a relative %.3e, want < 1e-9", rel)
	}
}

func TestOverDensityConversionIdempotent(t *testing.T) {
	fp := footprint.NewDisk(sky.NewPoint(0, 0), 5, 32)
	sf := field.New(fp, 32, field.Density, false)
	rng := rand.New(rand.NewSource(3))
	sf.AddCatalog(fp.GenerateRandomPoints(2000, false, rng))

	sf.ConvertToOverDensity()
	snapshot := sf.TotalIntensity()
	sf.ConvertToOverDensity()
	if sf.TotalIntensity() != snapshot {
		t.Errorf("second ConvertToOverDensity call changed total intensity: %v -> %v", snapshot, sf.TotalIntensity())
	}
}

func TestOverDensityRoundTrip(t *testing.T) {
	fp := footprint.NewDisk(sky.NewPoint(0, 0), 5, 32)
	sf := field.New(fp, 32, field.Density, false)
	rng := rand.New(rand.NewSource(4))
	sf.AddCatalog(fp.GenerateRandomPoints(2000, false, rng))

	before := sf.TotalIntensity()
	sf.ConvertToOverDensity()
	sf.ConvertFromOverDensity()
	after := sf.TotalIntensity()

	rel := math.Abs(after-before) / before
	if rel > 1e-6 {
		t.Errorf("round trip changed total intensity by a relative %.3e, want < 1e-6", rel)
	}
}

func TestAutoCorrelateRequiresMatchingResolution(t *testing.T) {
	fp := footprint.NewDisk(sky.NewPoint(0, 0), 5, 32)
	sf := field.New(fp, 32, field.Density, false)
	bin := angbin.NewBin(sky.ToRad(0.1), sky.ToRad(1))
	bin.Resolution = 16

	if err := sf.AutoCorrelate(bin); err == nil {
		t.Error("expected an error when bin resolution does not match field resolution")
	}
}

func TestAutoCorrelateAccumulates(t *testing.T) {
	fp := footprint.NewDisk(sky.NewPoint(0, 0), 10, 32)
	sf := field.New(fp, 32, field.Density, false)
	rng := rand.New(rand.NewSource(5))
	sf.AddCatalog(fp.GenerateRandomPoints(3000, false, rng))
	sf.ConvertToOverDensity()

	bin := angbin.NewBin(sky.ToRad(0.5), sky.ToRad(2))
	bin.Resolution = 32
	if err := sf.AutoCorrelate(bin); err != nil {
		t.Fatalf("unable to auto-correlate: %v", err)
	}
	if bin.PixelDen.All <= 0 {
		t.Error("expected a positive denominator after auto-correlation")
	}
}

func TestCatalogFallsOutsideFootprint(t *testing.T) {
	fp := footprint.NewDisk(sky.NewPoint(0, 0), 2, 32)
	sf := field.New(fp, 32, field.Density, false)

	c := catalog.New()
	c.Add(catalog.NewPoint(180, 0, 1)) // far from the disk
	sf.AddCatalog(c)

	if sf.OutOfFootprint() != 1 {
		t.Errorf("got %d out-of-footprint points, want 1", sf.OutOfFootprint())
	}
}
