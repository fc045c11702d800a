// Copyright © 2022 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package angbin

// An Accumulator is a weighted running sum together with, when
// regionation is active, the portion of that sum that touches each
// jack-knife region (i.e. pairs where at least one point falls in the
// region, or a pixel that belongs to it). Subtracting the touched
// portion from the total gives the leave-one-out value for that
// region, which is the quantity the covariance computation needs.
type Accumulator struct {
	All   float64
	Touch []float64 // length nRegion
}

// NewAccumulator returns an accumulator with n regions (0 disables
// per-region bookkeeping).
func NewAccumulator(n int) *Accumulator {
	a := &Accumulator{}
	a.resize(n)
	return a
}

func (a *Accumulator) resize(n int) {
	if n == 0 {
		a.Touch = nil
		return
	}
	a.Touch = make([]float64, n)
}

// Add accumulates a weight w, optionally touching the regions of two
// points (regionA, regionB), either of which may be -1 for "no
// region". A pair with both points in the same region touches it
// once.
func (a *Accumulator) Add(w float64, regionA, regionB int) {
	a.All += w
	if len(a.Touch) == 0 {
		return
	}
	if regionA >= 0 && regionA < len(a.Touch) {
		a.Touch[regionA] += w
	}
	if regionB >= 0 && regionB != regionA && regionB < len(a.Touch) {
		a.Touch[regionB] += w
	}
}

// LeaveOneOut returns the accumulated weight with every contribution
// touching region r removed.
func (a *Accumulator) LeaveOneOut(region int) float64 {
	if region < 0 || region >= len(a.Touch) {
		return a.All
	}
	return a.All - a.Touch[region]
}

// MergeInto adds a's contents into dst, then resets a to zero. It is
// used to move a scratch accumulator (e.g. the result of a pair query
// that does not yet know its final bucket) into a permanent one.
func (a *Accumulator) MergeInto(dst *Accumulator) {
	if len(dst.Touch) != len(a.Touch) {
		dst.resize(len(a.Touch))
	}
	dst.All += a.All
	for i, t := range a.Touch {
		dst.Touch[i] += t
	}
	a.Reset()
}

// AddFrom adds src's totals into a, leaving src untouched (unlike
// MergeInto, which resets src to zero after merging).
func (a *Accumulator) AddFrom(src *Accumulator) {
	if len(a.Touch) != len(src.Touch) {
		a.resize(len(src.Touch))
	}
	a.All += src.All
	for i, t := range src.Touch {
		a.Touch[i] += t
	}
}

// Scale multiplies the accumulator by a constant factor, in place.
func (a *Accumulator) Scale(f float64) {
	a.All *= f
	for i := range a.Touch {
		a.Touch[i] *= f
	}
}

// Reset zeroes the accumulator without discarding its region
// capacity.
func (a *Accumulator) Reset() {
	a.All = 0
	for i := range a.Touch {
		a.Touch[i] = 0
	}
}

// InitRegions resizes the accumulator to track n regions, discarding
// any existing totals.
func (a *Accumulator) InitRegions(n int) {
	a.All = 0
	a.resize(n)
}
