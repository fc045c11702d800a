// Copyright © 2022 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package angbin

import (
	"math"
	"sort"

	"github.com/js-arias/wtheta/sky"
	"github.com/js-arias/wtheta/skypix"
)

// A Binning is an ordered collection of Bin values covering
// [ThetaMin, ThetaMax) with no gaps and no overlaps, together with
// the per-bin decision of whether it is served by the pixel estimator
// (and at which resolution) or by the pair estimator.
type Binning struct {
	bins []*Bin

	// brk is the number of pixel-based bins. The split is not
	// positional: bins are ordered by increasing theta, and each
	// bin's own Resolution says which estimator serves it.
	brk int

	minRes  int
	nRegion int
}

// NewLog returns a Binning with nBins bins, log-spaced between
// thetaMin and thetaMax (both in degrees).
//
// For thetaMin=0.001, thetaMax=10, nBins=24 this reproduces the
// reference configuration: 24 bins spanning exactly 4 decades (6 per
// decade), the first bin's lower edge at thetaMin and the last bin's
// upper edge at thetaMax, up to floating-point rounding, since the
// binning is built from nBins+1 edges evenly spaced in log θ over
// [thetaMin, thetaMax]. Every bin starts pair-based.
func NewLog(thetaMinDeg, thetaMaxDeg float64, nBins int) *Binning {
	if thetaMinDeg <= 0 || thetaMaxDeg <= thetaMinDeg || nBins < 1 {
		panic("angbin: invalid log binning parameters")
	}
	lo := math.Log(thetaMinDeg)
	hi := math.Log(thetaMaxDeg)
	step := (hi - lo) / float64(nBins)

	b := &Binning{}
	for i := 0; i < nBins; i++ {
		tmin := math.Exp(lo + step*float64(i))
		tmax := math.Exp(lo + step*float64(i+1))
		b.bins = append(b.bins, NewBin(sky.ToRad(tmin), sky.ToRad(tmax)))
	}
	return b
}

// NewLinear returns a Binning with nBins bins, linearly spaced
// between thetaMin and thetaMax (both in degrees).
func NewLinear(thetaMinDeg, thetaMaxDeg float64, nBins int) *Binning {
	if thetaMaxDeg <= thetaMinDeg || nBins < 1 {
		panic("angbin: invalid linear binning parameters")
	}
	step := (thetaMaxDeg - thetaMinDeg) / float64(nBins)

	b := &Binning{}
	for i := 0; i < nBins; i++ {
		tmin := thetaMinDeg + step*float64(i)
		tmax := thetaMinDeg + step*float64(i+1)
		b.bins = append(b.bins, NewBin(sky.ToRad(tmin), sky.ToRad(tmax)))
	}
	return b
}

// AppendBin appends a bin to the binning, marking it pair-based. It
// is used to build a scratch Binning sharing another's bin bounds
// (see wtheta's per-worker private accumulation).
func (b *Binning) AppendBin(bin *Bin) {
	b.bins = append(b.bins, bin)
}

// Len returns the number of bins in the binning.
func (b *Binning) Len() int {
	return len(b.bins)
}

// Bins returns the ordered slice of bins. The caller must not append
// to or reorder the returned slice.
func (b *Binning) Bins() []*Bin {
	return b.bins
}

// AutoMaxResolution returns the pixel/pair resolution break R_cap for
// a catalog of n points over a footprint of area areaDeg2, following
// the breakpoint table of spec.md §4.1:
//
//	A > 500 deg²:  512 baseline; 64 if n<5e5, 128 if n<2e6, 256 if n<1e7.
//	A ≤ 500 deg²:  256 if n<5e5, 512 if n<2e6, 1024 if n<1e7, else 2048.
func AutoMaxResolution(n int, areaDeg2 float64) int {
	if areaDeg2 > 500 {
		switch {
		case n < 5e5:
			return 64
		case n < 2e6:
			return 128
		case n < 1e7:
			return 256
		default:
			return 512
		}
	}
	switch {
	case n < 5e5:
		return 256
	case n < 2e6:
		return 512
	case n < 1e7:
		return 1024
	default:
		return 2048
	}
}

// AssignResolutions is ApplyResolutionCap: it assigns every bin the
// coarsest resolution, up to rcap, whose pixel diagonal is smaller
// than the bin's ThetaMin, and marks every other bin as pair-based.
// Since the diagonal at rcap is fixed, every bin whose ThetaMin does
// not exceed it is pair-based.
func (b *Binning) AssignResolutions(rcap int) {
	b.ApplyResolutionCap(rcap)
}

// ApplyResolutionCap re-derives every bin's Resolution field given a
// resolution cap rcap (a power of two, or 0 to force pure pair
// counting). A bin is pixel-based at the coarsest resolution r,
// bounded by rcap, for which skypix.Diagonal(r) < bin.ThetaMin; if no
// such resolution exists below rcap, the bin is pair-based.
func (b *Binning) ApplyResolutionCap(rcap int) {
	if rcap < skypix.RHpix {
		for _, bin := range b.bins {
			bin.Resolution = 0
		}
		b.brk = 0
		return
	}

	pixelCount := 0
	for _, bin := range b.bins {
		r := b.minRes
		if r < skypix.RHpix {
			r = skypix.RHpix
		}
		res := 0
		for ; r <= rcap; r *= 2 {
			if skypix.Diagonal(r) < bin.ThetaMin {
				res = r
				break
			}
		}
		bin.Resolution = res
		if res > 0 {
			pixelCount++
		}
		if bin.nRegion != b.nRegion {
			bin.InitRegions(b.nRegion)
		}
	}
	b.brk = pixelCount
}

// UseOnlyPairs marks every bin as pair-based, discarding any pixel
// resolution assignment. It is used when the caller explicitly
// disables the pixel estimator.
func (b *Binning) UseOnlyPairs() {
	for _, bin := range b.bins {
		bin.Resolution = 0
	}
	b.brk = 0
}

// SetMinResolution sets the coarsest resolution AssignResolutions may
// consider for a bin, overriding the default of skypix.RHpix. It does
// not itself reassign resolutions; call ApplyResolutionCap afterward.
func (b *Binning) SetMinResolution(r int) {
	b.minRes = r
}

// MinResolution returns the coarsest resolution in use across all
// pixel-based bins, or 0 if none are pixel-based.
func (b *Binning) MinResolution() int {
	min := 0
	for _, bin := range b.bins {
		if bin.Resolution == 0 {
			continue
		}
		if min == 0 || bin.Resolution < min {
			min = bin.Resolution
		}
	}
	return min
}

// MaxResolution returns the finest resolution in use across all
// pixel-based bins, or 0 if none are pixel-based.
func (b *Binning) MaxResolution() int {
	max := 0
	for _, bin := range b.bins {
		if bin.Resolution > max {
			max = bin.Resolution
		}
	}
	return max
}

// BinsAtResolution returns the pixel-based bins assigned to
// resolution r, in binning order.
func (b *Binning) BinsAtResolution(r int) []*Bin {
	var out []*Bin
	for _, bin := range b.bins {
		if bin.Resolution == r {
			out = append(out, bin)
		}
	}
	return out
}

// PixelBins returns every bin assigned to the pixel estimator.
func (b *Binning) PixelBins() []*Bin {
	var out []*Bin
	for _, bin := range b.bins {
		if bin.Resolution > 0 {
			out = append(out, bin)
		}
	}
	return out
}

// PairBins returns every bin assigned to the pair estimator.
func (b *Binning) PairBins() []*Bin {
	var out []*Bin
	for _, bin := range b.bins {
		if bin.Resolution == 0 {
			out = append(out, bin)
		}
	}
	return out
}

// FindBin returns the bin containing a chord value sin2Half =
// sin²(θ/2), using a binary search over the binning's (monotonic)
// Sin2HalfMin edges.
func (b *Binning) FindBin(sin2Half float64) (*Bin, bool) {
	i := sort.Search(len(b.bins), func(i int) bool {
		return b.bins[i].Sin2HalfMin > sin2Half
	})
	i--
	if i < 0 || i >= len(b.bins) {
		return nil, false
	}
	if !b.bins[i].Contains(sin2Half) {
		return nil, false
	}
	return b.bins[i], true
}

// InitRegions resizes every bin's accumulators to track n jack-knife
// regions.
func (b *Binning) InitRegions(n int) {
	b.nRegion = n
	for _, bin := range b.bins {
		bin.InitRegions(n)
	}
}

// Reset zeroes every bin's accumulators.
func (b *Binning) Reset() {
	for _, bin := range b.bins {
		bin.Reset()
	}
}

// ScaleRandoms scales the random-catalog accumulators of every bin by
// f, averaging the contribution of k random-catalog iterations.
func (b *Binning) ScaleRandoms(f float64) {
	for _, bin := range b.bins {
		bin.ScaleRandoms(f)
	}
}
