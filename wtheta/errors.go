// Copyright © 2022 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package wtheta

import "errors"

// Sentinel errors returned by Engine methods. They classify the
// fatal failure modes of a correlation call; non-fatal conditions
// (out-of-footprint points, infeasible regionation counts, a
// resolution-cap fallback to pair-only) are reported through Result
// instead of an error.
var (
	// ErrInputMismatch is returned when cross-correlating fields
	// built at different resolutions, or when a bin's resolution
	// disagrees with the sweep currently running.
	ErrInputMismatch = errors.New("wtheta: input mismatch")

	// ErrNoRegions reports that an operation requires regionation
	// and none has been initialized. The Engine methods of this
	// package do not return it.
	ErrNoRegions = errors.New("wtheta: regionation required")
)

// A Result reports the non-fatal diagnostics of a completed
// correlation call.
type Result struct {
	// RegionCount is the number of jack-knife regions actually in
	// effect (0 if regionation was not requested).
	RegionCount int

	// UsedPairOnly is true if the engine fell back to the pair
	// estimator for every bin because the footprint's regionation
	// resolution exceeded the usable pixel resolution cap.
	UsedPairOnly bool

	// OutOfFootprintA, OutOfFootprintB count catalog points rejected
	// while sampling the pixel fields, because they fell outside
	// every sampled pixel.
	OutOfFootprintA, OutOfFootprintB int
}
