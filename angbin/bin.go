// Copyright © 2022 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package angbin implements the angular bins of a two-point
// correlation measurement: a half-open annulus in θ together with its
// pair-counting and pixel-based accumulators, and the ordered
// collection (Binning) that assigns each bin a pixel resolution or
// marks it pair-based.
package angbin

import (
	"math"

	"github.com/js-arias/wtheta/sky"
)

// A Bin is a half-open angular annulus [ThetaMin, ThetaMax), in
// radians, together with its accumulators.
//
// Resolution is a power-of-two pixel resolution when the bin is
// pixel-based, or 0 when it is pair-based. A bin is never both.
type Bin struct {
	ThetaMin, ThetaMax float64 // radians
	Theta              float64 // geometric mean of the endpoints

	// Sin2HalfMin, Sin2HalfMax are sin²(θ/2) of the endpoints, used
	// for the fast chord-based membership test in Contains: the
	// source is ambiguous about the exact convention (see the
	// design notes), so this implementation fixes it to the
	// half-angle form that sky.Sin2HalfAngle already computes
	// without any inverse trigonometry.
	Sin2HalfMin, Sin2HalfMax float64

	Resolution int

	GalGal, GalRand, RandGal, RandRand *Accumulator
	PixelNum, PixelDen                 *Accumulator

	// scratch holds the result of a pair query before the caller
	// decides, via one of the MoveWeightTo* methods, which
	// accumulator it belongs to.
	scratch *Accumulator

	nRegion int
}

// NewBin returns a new, pair-based bin for the annulus [thetaMin,
// thetaMax), in radians.
func NewBin(thetaMin, thetaMax float64) *Bin {
	return &Bin{
		ThetaMin:    thetaMin,
		ThetaMax:    thetaMax,
		Theta:       math.Sqrt(thetaMin * thetaMax),
		Sin2HalfMin: sky.Sin2HalfAngleOf(thetaMin),
		Sin2HalfMax: sky.Sin2HalfAngleOf(thetaMax),
		GalGal:      NewAccumulator(0),
		GalRand:     NewAccumulator(0),
		RandGal:     NewAccumulator(0),
		RandRand:    NewAccumulator(0),
		PixelNum:    NewAccumulator(0),
		PixelDen:    NewAccumulator(0),
		scratch:     NewAccumulator(0),
	}
}

// IsPixelBased reports whether the bin is assigned to the pixel
// estimator (Resolution > 0) rather than the pair estimator.
func (b *Bin) IsPixelBased() bool {
	return b.Resolution > 0
}

// NRegion returns the number of jack-knife regions the bin is
// tracking (0 if regionation is not active).
func (b *Bin) NRegion() int {
	return b.nRegion
}

// InitRegions resizes every accumulator of the bin to track n
// regions, discarding any totals already accumulated.
func (b *Bin) InitRegions(n int) {
	b.nRegion = n
	b.GalGal.InitRegions(n)
	b.GalRand.InitRegions(n)
	b.RandGal.InitRegions(n)
	b.RandRand.InitRegions(n)
	b.PixelNum.InitRegions(n)
	b.PixelDen.InitRegions(n)
	b.scratch.InitRegions(n)
}

// Reset zeroes every accumulator of the bin without altering its
// bounds, resolution, or region count.
func (b *Bin) Reset() {
	b.GalGal.Reset()
	b.GalRand.Reset()
	b.RandGal.Reset()
	b.RandRand.Reset()
	b.PixelNum.Reset()
	b.PixelDen.Reset()
	b.scratch.Reset()
}

// Contains reports whether a sin²(θ/2) chord value falls in the
// bin's half-open annulus.
func (b *Bin) Contains(sin2Half float64) bool {
	return sin2Half >= b.Sin2HalfMin && sin2Half < b.Sin2HalfMax
}

// Scratch returns the bin's transient pair-query accumulator. A
// PointIndex query accumulates into it; the caller then calls one of
// the MoveWeightTo* methods to commit it to a permanent bucket.
func (b *Bin) Scratch() *Accumulator {
	return b.scratch
}

// MoveWeightToGalGal commits the scratch accumulator into GalGal.
func (b *Bin) MoveWeightToGalGal() { b.scratch.MergeInto(b.GalGal) }

// MoveWeightToGalRand commits the scratch accumulator into GalRand.
func (b *Bin) MoveWeightToGalRand() { b.scratch.MergeInto(b.GalRand) }

// MoveWeightToRandGal commits the scratch accumulator into RandGal.
func (b *Bin) MoveWeightToRandGal() { b.scratch.MergeInto(b.RandGal) }

// MoveWeightToRandRand commits the scratch accumulator into RandRand.
func (b *Bin) MoveWeightToRandRand() { b.scratch.MergeInto(b.RandRand) }

// ScaleRandoms scales GalRand, RandGal, and RandRand by f. The engine
// uses this to average k random-catalog iterations after its main
// loop.
func (b *Bin) ScaleRandoms(f float64) {
	b.GalRand.Scale(f)
	b.RandGal.Scale(f)
	b.RandRand.Scale(f)
}

// PairWTheta returns the Landy-Szalay pair-count estimate of w(θ) for
// the "all" accumulator. If RandRand is zero, it returns NaN and
// reports ok=false rather than dividing silently.
func (b *Bin) PairWTheta() (w float64, ok bool) {
	return pairWTheta(b.GalGal.All, b.GalRand.All, b.RandGal.All, b.RandRand.All)
}

// PairWThetaRegion returns the leave-one-out Landy-Szalay estimate
// for a given region.
func (b *Bin) PairWThetaRegion(region int) (w float64, ok bool) {
	return pairWTheta(
		b.GalGal.LeaveOneOut(region),
		b.GalRand.LeaveOneOut(region),
		b.RandGal.LeaveOneOut(region),
		b.RandRand.LeaveOneOut(region),
	)
}

func pairWTheta(gg, gr, rg, rr float64) (float64, bool) {
	if rr == 0 {
		return math.NaN(), false
	}
	return (gg - gr - rg + rr) / rr, true
}

// PixelWTheta returns the pixel-based estimate of w(θ): the
// intensity-product numerator over the weight-product denominator,
// minus one (the field has zero mean once converted to overdensity;
// see field.Field.ConvertToOverDensity).
func (b *Bin) PixelWTheta() (w float64, ok bool) {
	return pixelWTheta(b.PixelNum.All, b.PixelDen.All)
}

// PixelWThetaRegion returns the leave-one-out pixel-based estimate
// for a given region.
func (b *Bin) PixelWThetaRegion(region int) (w float64, ok bool) {
	return pixelWTheta(b.PixelNum.LeaveOneOut(region), b.PixelDen.LeaveOneOut(region))
}

func pixelWTheta(num, den float64) (float64, bool) {
	if den == 0 {
		return math.NaN(), false
	}
	return num/den - 1, true
}
