// Copyright © 2022 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package wtheta

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/js-arias/wtheta/angbin"
)

// A Covariance is an N_bin x N_bin jack-knife covariance matrix over a
// Binning's bins, row-major, together with the mean w(θ) value used to
// build it.
type Covariance struct {
	Bins []*angbin.Bin
	Mean []float64
	Mat  [][]float64
}

// NewCovariance computes the jack-knife covariance matrix of binning's
// w(θ) values (spec §4.4):
//
//	cov(a,b) = (N-1)²/N² · Σ_r (w_r(a) - w̄(a))(w_r(b) - w̄(b))
//
// where w_r is the leave-one-out estimate for region r and w̄ is the
// mean over regions. A bin with no per-region estimates (N_region ==
// 0), and every bin when the bins do not all share one region count,
// contributes only a diagonal Poisson-variance term; every
// off-diagonal entry touching such a bin is zero.
func NewCovariance(binning *angbin.Binning) *Covariance {
	bins := binning.Bins()
	n := len(bins)
	c := &Covariance{
		Bins: bins,
		Mean: make([]float64, n),
		Mat:  make([][]float64, n),
	}
	for i := range c.Mat {
		c.Mat[i] = make([]float64, n)
	}

	series := make([][]float64, n)
	nRegion := make([]int, n)
	for i, bin := range bins {
		w, ok := wTheta(bin)
		if !ok {
			w = math.NaN()
		}
		c.Mean[i] = w

		nr := bin.NRegion()
		nRegion[i] = nr
		if nr == 0 {
			continue
		}
		s := make([]float64, nr)
		for r := 0; r < nr; r++ {
			wr, ok := wThetaRegion(bin, r)
			if !ok {
				wr = math.NaN()
			}
			s[r] = wr
		}
		series[i] = s
		c.Mean[i] = stat.Mean(s, nil)
	}

	agree := true
	for _, nr := range nRegion {
		if nr != nRegion[0] {
			agree = false
		}
	}
	for i := range bins {
		if nRegion[i] == 0 || !agree {
			c.Mat[i][i] = poissonVariance(bins[i])
			continue
		}
		for j := i; j < len(bins); j++ {
			if nRegion[j] == 0 || nRegion[j] != nRegion[i] {
				if i == j {
					c.Mat[i][i] = poissonVariance(bins[i])
				}
				continue
			}
			v := jackknifeSum(series[i], c.Mean[i], series[j], c.Mean[j])
			c.Mat[i][j] = v
			c.Mat[j][i] = v
		}
	}
	return c
}

// jackknifeSum returns (N-1)²/N² · Σ_r (a_r - āmean)(b_r - bmean), the
// jack-knife covariance of two leave-one-out series of equal length.
func jackknifeSum(a []float64, aMean float64, b []float64, bMean float64) float64 {
	n := len(a)
	if n == 0 || n != len(b) {
		return 0
	}
	var sum float64
	for r := 0; r < n; r++ {
		sum += (a[r] - aMean) * (b[r] - bMean)
	}
	f := float64(n-1) * float64(n-1) / (float64(n) * float64(n))
	return f * sum
}

// poissonVariance returns the diagonal shot-noise variance used when a
// bin has no usable regionation: 1/GG for the pair estimator, or
// 1/pixel_den for the pixel estimator, following the standard Poisson
// approximation for pair counts (zero if the denominator itself is
// zero, matching the bin's own NaN-sentinel convention).
func poissonVariance(bin *angbin.Bin) float64 {
	if bin.IsPixelBased() {
		if bin.PixelDen.All <= 0 {
			return 0
		}
		return 1 / bin.PixelDen.All
	}
	if bin.GalGal.All <= 0 {
		return 0
	}
	return 1 / bin.GalGal.All
}

func wTheta(bin *angbin.Bin) (float64, bool) {
	if bin.IsPixelBased() {
		return bin.PixelWTheta()
	}
	return bin.PairWTheta()
}

func wThetaRegion(bin *angbin.Bin, region int) (float64, bool) {
	if bin.IsPixelBased() {
		return bin.PixelWThetaRegion(region)
	}
	return bin.PairWThetaRegion(region)
}
