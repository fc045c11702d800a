// Copyright © 2022 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package angbin_test

import (
	"math"
	"testing"

	"github.com/js-arias/wtheta/angbin"
	"github.com/js-arias/wtheta/sky"
)

func TestBinContains(t *testing.T) {
	b := angbin.NewBin(sky.ToRad(1), sky.ToRad(2))
	mid := sky.Sin2HalfAngleOf(sky.ToRad(1.5))
	if !b.Contains(mid) {
		t.Error("bin does not contain its own midpoint")
	}
	below := sky.Sin2HalfAngleOf(sky.ToRad(0.5))
	if b.Contains(below) {
		t.Error("bin contains a value below its lower edge")
	}
	above := sky.Sin2HalfAngleOf(sky.ToRad(2.5))
	if b.Contains(above) {
		t.Error("bin contains a value above its upper edge")
	}
}

func TestPairWThetaRandRandZero(t *testing.T) {
	b := angbin.NewBin(sky.ToRad(1), sky.ToRad(2))
	w, ok := b.PairWTheta()
	if ok {
		t.Fatal("expected ok=false when RandRand is zero")
	}
	if !math.IsNaN(w) {
		t.Errorf("expected NaN, got %v", w)
	}
}

func TestPairWThetaValue(t *testing.T) {
	b := angbin.NewBin(sky.ToRad(1), sky.ToRad(2))
	b.GalGal.Add(100, -1, -1)
	b.GalRand.Add(80, -1, -1)
	b.RandGal.Add(80, -1, -1)
	b.RandRand.Add(60, -1, -1)

	w, ok := b.PairWTheta()
	if !ok {
		t.Fatal("expected ok=true")
	}
	want := (100.0 - 80 - 80 + 60) / 60
	if math.Abs(w-want) > 1e-12 {
		t.Errorf("got %v, want %v", w, want)
	}
}

func TestPixelWThetaValue(t *testing.T) {
	b := angbin.NewBin(sky.ToRad(1), sky.ToRad(2))
	b.PixelNum.Add(12, -1, -1)
	b.PixelDen.Add(10, -1, -1)

	w, ok := b.PixelWTheta()
	if !ok {
		t.Fatal("expected ok=true")
	}
	if math.Abs(w-0.2) > 1e-12 {
		t.Errorf("got %v, want 0.2", w)
	}
}

func TestBinLeaveOneOut(t *testing.T) {
	b := angbin.NewBin(sky.ToRad(1), sky.ToRad(2))
	b.InitRegions(2)
	b.GalGal.Add(10, 0, 0)
	b.GalGal.Add(20, 1, 1)
	b.RandRand.Add(5, 0, 0)
	b.RandRand.Add(5, 1, 1)

	w0, ok := b.PairWThetaRegion(0)
	if !ok {
		t.Fatal("expected ok=true for region 0")
	}
	// leaving out region 0: GalGal=20, RandRand=5
	want := (20.0 - 0 - 0 + 5) / 5
	if math.Abs(w0-want) > 1e-12 {
		t.Errorf("region 0: got %v, want %v", w0, want)
	}
}

func TestMoveWeightFromScratch(t *testing.T) {
	b := angbin.NewBin(sky.ToRad(1), sky.ToRad(2))
	b.Scratch().Add(7, -1, -1)
	b.MoveWeightToGalGal()
	if b.GalGal.All != 7 {
		t.Errorf("GalGal: got %v, want 7", b.GalGal.All)
	}
	if b.Scratch().All != 0 {
		t.Errorf("scratch was not reset after moving, got %v", b.Scratch().All)
	}
}
