// Copyright © 2022 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package field

import (
	"fmt"

	"github.com/js-arias/wtheta/angbin"
	"github.com/js-arias/wtheta/sky"
	"github.com/js-arias/wtheta/skypix"
)

// AutoCorrelate sums, into bin's PixelNum and PixelDen accumulators,
// the contribution of every ordered pixel pair (i, j) with i ≤ j in
// the field whose angular separation's sin²(θ/2) falls in the bin's
// annulus. bin must have been assigned the field's resolution.
func (sf *ScalarField) AutoCorrelate(bin *angbin.Bin) error {
	if bin.Resolution != sf.resolution {
		return fmt.Errorf("field: bin resolution %d does not match field resolution %d", bin.Resolution, sf.resolution)
	}
	ids := sf.sortedIDs()
	for a := 0; a < len(ids); a++ {
		pa := sf.pix[ids[a]]
		ca := skypix.Center(sf.resolution, ids[a])
		for b := a; b < len(ids); b++ {
			pb := sf.pix[ids[b]]
			cb := skypix.Center(sf.resolution, ids[b])
			sin2 := sky.Sin2HalfAngle(ca, cb)
			if !bin.Contains(sin2) {
				continue
			}
			mult := 2.0
			if a == b {
				mult = 1
			}
			bin.PixelNum.Add(mult*pa.intensity*pb.intensity*pa.weight*pb.weight, pa.region, pb.region)
			bin.PixelDen.Add(mult*pa.weight*pb.weight, pa.region, pb.region)
		}
	}
	return nil
}

// CrossCorrelate sums, into bin's PixelNum and PixelDen accumulators,
// the contribution of every ordered pair (i, j) drawn from the pixels
// present in both sf and other, using sf's intensity for i and
// other's intensity for j, restricted to pairs whose centers'
// angular separation falls in the bin's annulus. sf and other must
// share a resolution.
func (sf *ScalarField) CrossCorrelate(other *ScalarField, bin *angbin.Bin) error {
	if sf.resolution != other.resolution {
		return fmt.Errorf("field: cross-correlating fields at different resolutions (%d, %d)", sf.resolution, other.resolution)
	}
	if bin.Resolution != sf.resolution {
		return fmt.Errorf("field: bin resolution %d does not match field resolution %d", bin.Resolution, sf.resolution)
	}
	common := make([]skypix.ID, 0, len(sf.pix))
	for id := range sf.pix {
		if _, ok := other.pix[id]; ok {
			common = append(common, id)
		}
	}
	for _, ida := range common {
		pa := sf.pix[ida]
		ca := skypix.Center(sf.resolution, ida)
		for _, idb := range common {
			pb := other.pix[idb]
			cb := skypix.Center(sf.resolution, idb)
			sin2 := sky.Sin2HalfAngle(ca, cb)
			if !bin.Contains(sin2) {
				continue
			}
			bin.PixelNum.Add(pa.intensity*pb.intensity*pa.weight*pb.weight, pa.region, pb.region)
			bin.PixelDen.Add(pa.weight*pb.weight, pa.region, pb.region)
		}
	}
	return nil
}
