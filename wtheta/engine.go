// Copyright © 2022 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package wtheta implements the dual-estimator angular two-point
// correlation engine: it fans out, per angular bin, to a pixel-based
// estimator over a hierarchical scalar field or a pair-counting
// estimator over a spatial index, orchestrates random-catalog
// iterations, and reduces per-region results into a jack-knife
// covariance matrix.
package wtheta

import (
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"github.com/alitto/pond"
	"github.com/samber/lo"

	"github.com/js-arias/wtheta/angbin"
	"github.com/js-arias/wtheta/catalog"
	"github.com/js-arias/wtheta/field"
	"github.com/js-arias/wtheta/footprint"
	"github.com/js-arias/wtheta/pointindex"
)

// An Engine holds the tunables of a correlation run. The zero value
// is not usable; use NewEngine.
type Engine struct {
	// TreeCapacity is the leaf bucket capacity of PointIndex trees
	// built by the engine (0 uses pointindex.DefaultCapacity).
	TreeCapacity int

	// ResolutionCap, if non-zero, overrides the automatic
	// max-resolution selection (angbin.AutoMaxResolution).
	ResolutionCap int

	// Workers is the number of goroutines used to fan out the
	// random-catalog iterations of the pair sweep (0 uses
	// runtime.NumCPU()).
	Workers int

	// Rand is the source of randomness used to build random
	// catalogs. It must not be nil; the caller plumbs a seedable
	// generator through for reproducibility (see design notes
	// §9: no global RNG is assumed).
	Rand *rand.Rand
}

// NewEngine returns an Engine with the default tunables that draws its
// random catalogs from rng.
func NewEngine(rng *rand.Rand) *Engine {
	return &Engine{Rand: rng}
}

func (e *Engine) workers() int {
	if e.Workers > 0 {
		return e.Workers
	}
	return runtime.NumCPU()
}

// AutoCorrelate measures the angular auto-correlation of c over
// footprint f, filling binning's accumulators. k_rand random-catalog
// iterations are drawn from f to estimate the random-random and
// galaxy-random terms of the pair estimator.
func (e *Engine) AutoCorrelate(f footprint.Footprint, c *catalog.Catalog, binning *angbin.Binning, kRand int, useWeightedRandoms bool) (*Result, error) {
	return e.correlate(f, f, c, c, binning, kRand, useWeightedRandoms, true)
}

// CrossCorrelate measures the angular cross-correlation between
// catalog ca (over footprint fa) and catalog cb (over footprint fb).
func (e *Engine) CrossCorrelate(fa, fb footprint.Footprint, ca, cb *catalog.Catalog, binning *angbin.Binning, kRand int, useWeightedRandoms bool) (*Result, error) {
	return e.correlate(fa, fb, ca, cb, binning, kRand, useWeightedRandoms, false)
}

func (e *Engine) correlate(fa, fb footprint.Footprint, ca, cb *catalog.Catalog, binning *angbin.Binning, kRand int, useWeightedRandoms bool, auto bool) (*Result, error) {
	res := &Result{RegionCount: fa.RegionCount()}

	if fa.RegionResolution() > 0 && fa.RegionResolution() > e.regionCapLimit(fa, fb, ca, cb, auto) {
		binning.UseOnlyPairs()
		res.UsedPairOnly = true
	} else {
		e.assignResolutions(fa, fb, ca, cb, binning, auto)
	}

	outA, outB, err := e.pixelSweep(fa, fb, ca, cb, binning, auto)
	res.OutOfFootprintA, res.OutOfFootprintB = outA, outB
	if err != nil {
		return res, err
	}
	if err := e.pairSweep(fa, fb, ca, cb, binning, kRand, useWeightedRandoms, auto); err != nil {
		return res, err
	}
	return res, nil
}

func (e *Engine) regionCapLimit(fa, fb footprint.Footprint, ca, cb *catalog.Catalog, auto bool) int {
	if e.ResolutionCap > 0 {
		return e.ResolutionCap
	}
	nEff := ca.Len()
	areaEff := fa.Area()
	if !auto {
		nEff = int(math.Sqrt(float64(ca.Len()) * float64(cb.Len())))
		areaEff = math.Min(fa.Area(), fb.Area())
	}
	return angbin.AutoMaxResolution(nEff, areaEff)
}

func (e *Engine) assignResolutions(fa, fb footprint.Footprint, ca, cb *catalog.Catalog, binning *angbin.Binning, auto bool) {
	rcap := e.regionCapLimit(fa, fb, ca, cb, auto)
	if fa.RegionCount() > 0 {
		binning.SetMinResolution(fa.RegionResolution())
	}
	binning.ApplyResolutionCap(rcap)
}

func (e *Engine) pixelSweep(fa, fb footprint.Footprint, ca, cb *catalog.Catalog, binning *angbin.Binning, auto bool) (outA, outB int, err error) {
	pixelBins := binning.PixelBins()
	if len(pixelBins) == 0 {
		return 0, 0, nil
	}
	maxRes := binning.MaxResolution()

	kind := field.Density
	sa := field.New(fa, maxRes, kind, false)
	sa.AddCatalog(ca)
	outA = sa.OutOfFootprint()
	if fa.RegionCount() > 0 {
		sa.InitRegions(fa)
	}

	var sb *field.ScalarField
	if !auto {
		sb = field.New(fb, maxRes, kind, false)
		sb.AddCatalog(cb)
		outB = sb.OutOfFootprint()
		if fb.RegionCount() > 0 {
			sb.InitRegions(fb)
		}
	}

	res := maxRes
	minRes := binning.MinResolution()
	for res >= minRes && res > 0 {
		bins := binning.BinsAtResolution(res)
		if len(bins) > 0 {
			sa.ConvertToOverDensity()
			var sbOD *field.ScalarField
			if !auto {
				sb.ConvertToOverDensity()
				sbOD = sb
			}
			for _, bin := range bins {
				var kerr error
				if auto {
					kerr = sa.AutoCorrelate(bin)
				} else {
					kerr = sa.CrossCorrelate(sbOD, bin)
				}
				if kerr != nil {
					return outA, outB, fmt.Errorf("%w: pixel sweep at resolution %d: %v", ErrInputMismatch, res, kerr)
				}
			}
			sa.ConvertFromOverDensity()
			if !auto {
				sb.ConvertFromOverDensity()
			}
		}
		if res/2 < minRes || res == 1 {
			break
		}
		next, aerr := sa.Aggregate(res / 2)
		if aerr != nil {
			return outA, outB, aerr
		}
		sa = next
		if !auto {
			nextB, berr := sb.Aggregate(res / 2)
			if berr != nil {
				return outA, outB, berr
			}
			sb = nextB
		}
		res /= 2
	}
	return outA, outB, nil
}

func (e *Engine) pairSweep(fa, fb footprint.Footprint, ca, cb *catalog.Catalog, binning *angbin.Binning, kRand int, useWeightedRandoms bool, auto bool) error {
	pairBins := binning.PairBins()
	if len(pairBins) == 0 {
		return nil
	}

	for i := 0; i < ca.Len(); i++ {
		ca.SetRegion(i, fa.Region(ca.At(i).Loc))
	}
	ta := pointindex.New(e.TreeCapacity)
	ta.AddCatalog(ca)
	if fa.RegionCount() > 0 {
		ta.InitializeRegions(fa)
	}

	// GG pairs: for auto-correlation, ca against its own tree; for
	// cross-correlation, cb's points against ca's tree (either
	// ordering counts the same cross pairs).
	ggQuery := ca
	if !auto {
		for i := 0; i < cb.Len(); i++ {
			cb.SetRegion(i, fb.Region(cb.At(i).Loc))
		}
		ggQuery = cb
	}
	for _, bin := range pairBins {
		ta.FindWeightedPairs(ggQuery, bin)
		bin.MoveWeightToGalGal()
	}

	if kRand <= 0 {
		return nil
	}

	results := make([]*angbin.Binning, kRand)
	pool := pond.New(e.workers(), kRand, pond.MinWorkers(1))
	for iter := 0; iter < kRand; iter++ {
		iter := iter
		seed := e.Rand.Int63()
		pool.Submit(func() {
			results[iter] = e.randomIteration(fa, fb, ca, cb, auto, binning, useWeightedRandoms, seed)
		})
	}
	pool.StopAndWait()

	reduced := lo.Filter(results, func(b *angbin.Binning, _ int) bool { return b != nil })
	for _, r := range reduced {
		for i, bin := range r.PairBins() {
			dst := pairBins[i]
			bin.GalRand.MergeInto(dst.GalRand)
			bin.RandGal.MergeInto(dst.RandGal)
			bin.RandRand.MergeInto(dst.RandRand)
		}
	}
	binning.ScaleRandoms(1 / float64(kRand))
	return nil
}

// randomIteration draws one random catalog from fa (and, for
// cross-correlation, a second independent one from fb), accumulating
// into a private copy of binning's pair bins so that concurrent
// iterations never share mutable state; the caller reduces the
// per-iteration results additively once every worker has finished.
func (e *Engine) randomIteration(fa, fb footprint.Footprint, ca, cb *catalog.Catalog, auto bool, binning *angbin.Binning, useWeightedRandoms bool, seed int64) *angbin.Binning {
	rng := rand.New(rand.NewSource(seed))
	randA := fa.GenerateRandomPoints(ca.Len(), useWeightedRandoms, rng)
	for i := 0; i < randA.Len(); i++ {
		randA.SetRegion(i, fa.Region(randA.At(i).Loc))
	}
	treeA := pointindex.New(e.TreeCapacity)
	treeA.AddCatalog(randA)
	if fa.RegionCount() > 0 {
		treeA.InitializeRegions(fa)
	}

	priv := clonePairBinning(binning)
	nRegion := fa.RegionCount()

	if auto {
		if nRegion > 0 {
			priv.InitRegions(nRegion)
		}
		for _, bin := range priv.PairBins() {
			// GalRand and RandGal coincide by symmetry under
			// auto-correlation: one random tree suffices for both.
			treeA.FindWeightedPairs(ca, bin)
			bin.MoveWeightToGalRand()
			bin.RandGal.AddFrom(bin.GalRand)
			treeA.FindWeightedPairs(randA, bin)
			bin.MoveWeightToRandRand()
		}
		return priv
	}

	randB := fb.GenerateRandomPoints(cb.Len(), useWeightedRandoms, rand.New(rand.NewSource(seed+1)))
	for i := 0; i < randB.Len(); i++ {
		randB.SetRegion(i, fb.Region(randB.At(i).Loc))
	}
	treeB := pointindex.New(e.TreeCapacity)
	treeB.AddCatalog(randB)
	if fb.RegionCount() > 0 {
		treeB.InitializeRegions(fb)
	}

	if nRegion > 0 {
		priv.InitRegions(nRegion)
	}
	for _, bin := range priv.PairBins() {
		treeB.FindWeightedPairs(ca, bin)
		bin.MoveWeightToGalRand()
		treeA.FindWeightedPairs(cb, bin)
		bin.MoveWeightToRandGal()
		treeB.FindWeightedPairs(randA, bin)
		bin.MoveWeightToRandRand()
	}
	return priv
}

// clonePairBinning returns a fresh Binning carrying the same pair
// bins (bounds and resolution, zeroed accumulators) as src, in the
// same order, for a worker's private accumulation.
func clonePairBinning(src *angbin.Binning) *angbin.Binning {
	out := &angbin.Binning{}
	for _, bin := range src.PairBins() {
		nb := angbin.NewBin(bin.ThetaMin, bin.ThetaMax)
		out.AppendBin(nb)
	}
	return out
}
