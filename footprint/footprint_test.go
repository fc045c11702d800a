// Copyright © 2022 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package footprint_test

import (
	"bytes"
	"math"
	"math/rand"
	"testing"

	"github.com/js-arias/wtheta/footprint"
	"github.com/js-arias/wtheta/sky"
	"github.com/js-arias/wtheta/skypix"
)

func TestNewDiskArea(t *testing.T) {
	center := sky.NewPoint(60, 0)
	m := footprint.NewDisk(center, 3, 128)

	want := math.Pi * 3 * 3 // deg^2, flat-sky approximation for a small disk
	if diff := math.Abs(m.Area() - want); diff/want > 0.1 {
		t.Errorf("disk area: got %.3f, want close to %.3f", m.Area(), want)
	}
	if !m.Contains(center) {
		t.Error("disk footprint does not contain its own center")
	}
	far := sky.NewPoint(60, 80)
	if m.Contains(far) {
		t.Error("disk footprint contains a point far outside the disk")
	}
}

func TestInitializeRegions(t *testing.T) {
	m := footprint.NewDisk(sky.NewPoint(0, 0), 10, 64)
	n, err := m.InitializeRegions(8)
	if err != nil {
		t.Fatalf("unable to initialize regions: %v", err)
	}
	if n != 8 {
		t.Fatalf("got %d regions, want 8", n)
	}
	if m.RegionCount() != 8 {
		t.Errorf("RegionCount: got %d, want 8", m.RegionCount())
	}

	seen := make(map[int]bool)
	for _, px := range m.Pixels(64) {
		p := skypix.Center(m.Resolution(), px.ID)
		r := m.Region(p)
		if r < 0 || r >= 8 {
			t.Fatalf("invalid region %d", r)
		}
		seen[r] = true
	}
	if len(seen) == 0 {
		t.Error("no regions were actually assigned to pixels")
	}
}

func TestGenerateRandomPoints(t *testing.T) {
	m := footprint.NewDisk(sky.NewPoint(0, 0), 5, 64)
	rng := rand.New(rand.NewSource(1))
	cat := m.GenerateRandomPoints(500, false, rng)
	if cat.Len() != 500 {
		t.Fatalf("got %d points, want 500", cat.Len())
	}
	for i := 0; i < cat.Len(); i++ {
		p := cat.At(i)
		if !m.Contains(p.Loc) {
			t.Fatalf("random point %d falls outside the footprint", i)
		}
	}
}

func TestMaskTSVRoundTrip(t *testing.T) {
	m := footprint.NewDisk(sky.NewPoint(200, -10), 2, 32)

	var buf bytes.Buffer
	if err := m.TSV(&buf); err != nil {
		t.Fatalf("unable to write mask: %v", err)
	}

	got, err := footprint.ReadTSV(&buf)
	if err != nil {
		t.Fatalf("unable to read back mask: %v", err)
	}
	if diff := math.Abs(got.Area() - m.Area()); diff > 1e-6 {
		t.Errorf("area: got %.6f, want %.6f", got.Area(), m.Area())
	}
}

func TestPixelsCoarsenConservesPixelCount(t *testing.T) {
	m := footprint.NewDisk(sky.NewPoint(0, 0), 8, 64)

	fine := m.Pixels(64)
	coarse := m.Pixels(32)
	if len(coarse) == 0 {
		t.Fatal("coarsening produced no pixels")
	}
	if len(coarse) > len(fine) {
		t.Errorf("coarsened mask has more pixels (%d) than the native mask (%d)", len(coarse), len(fine))
	}
	for _, px := range coarse {
		if px.UnmaskedFraction <= 0 || px.UnmaskedFraction > 1+1e-9 {
			t.Errorf("coarse pixel %d: invalid unmasked fraction %.6f", px.ID, px.UnmaskedFraction)
		}
	}
}
