// Copyright © 2022 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package wtheta

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/js-arias/wtheta/angbin"
	"github.com/js-arias/wtheta/sky"
)

// WriteTable writes binning's w(θ) estimates to w, one row per bin, in
// the column layout spec.md §6 requires:
//
//   - regionated: θ, mean w over regions, jack-knife error (√cov(i,i))
//   - single pixel bin, no regions: θ, w, pixel_num, pixel_den
//   - single pair bin, no regions: θ, w, GG, GR, RG, RR
//
// Values are formatted to six significant digits. A mix of pixel and
// pair bins, both without regions, uses the widest applicable row
// shape per bin; the header documents which columns apply.
func WriteTable(w io.Writer, binning *angbin.Binning, cov *Covariance) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# angular correlation w(theta)\n")
	fmt.Fprintf(bw, "# written on: %s\n", time.Now().Format(time.RFC3339))

	tab := csv.NewWriter(bw)
	tab.Comma = '\t'
	tab.UseCRLF = true

	bins := binning.Bins()
	regionated := cov != nil && len(bins) > 0 && bins[0].NRegion() > 0

	var header []string
	switch {
	case regionated:
		header = []string{"theta", "mean_w", "jk_error"}
	default:
		header = []string{"theta", "w", "pixel_num", "pixel_den", "gg", "gr", "rg", "rr"}
	}
	if err := tab.Write(header); err != nil {
		return fmt.Errorf("wtheta: writing table header: %v", err)
	}

	for i, bin := range bins {
		theta := sig6(sky.ToDegree(bin.Theta))
		var row []string
		switch {
		case regionated:
			errv := 0.0
			if cov.Mat[i][i] >= 0 {
				errv = sqrtSafe(cov.Mat[i][i])
			}
			row = []string{theta, sig6(cov.Mean[i]), sig6(errv)}
		case bin.IsPixelBased():
			w, _ := bin.PixelWTheta()
			row = []string{
				theta, sig6(w),
				sig6(bin.PixelNum.All), sig6(bin.PixelDen.All),
				"", "", "", "",
			}
		default:
			w, _ := bin.PairWTheta()
			row = []string{
				theta, sig6(w), "", "",
				sig6(bin.GalGal.All), sig6(bin.GalRand.All),
				sig6(bin.RandGal.All), sig6(bin.RandRand.All),
			}
		}
		if err := tab.Write(row); err != nil {
			return fmt.Errorf("wtheta: writing table row %d: %v", i, err)
		}
	}

	tab.Flush()
	if err := tab.Error(); err != nil {
		return fmt.Errorf("wtheta: writing table: %v", err)
	}
	return bw.Flush()
}

// WriteCovariance writes a covariance matrix to w as row-major triples
// θ_a θ_b cov(a,b), one per line, per spec.md §6.
func WriteCovariance(w io.Writer, cov *Covariance) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# jack-knife covariance matrix\n")
	fmt.Fprintf(bw, "# written on: %s\n", time.Now().Format(time.RFC3339))

	tab := csv.NewWriter(bw)
	tab.Comma = '\t'
	tab.UseCRLF = true
	if err := tab.Write([]string{"theta_a", "theta_b", "cov"}); err != nil {
		return fmt.Errorf("wtheta: writing covariance header: %v", err)
	}

	for i, a := range cov.Bins {
		ta := sig6(sky.ToDegree(a.Theta))
		for j, b := range cov.Bins {
			tb := sig6(sky.ToDegree(b.Theta))
			row := []string{ta, tb, sig6(cov.Mat[i][j])}
			if err := tab.Write(row); err != nil {
				return fmt.Errorf("wtheta: writing covariance row (%d,%d): %v", i, j, err)
			}
		}
	}

	tab.Flush()
	if err := tab.Error(); err != nil {
		return fmt.Errorf("wtheta: writing covariance: %v", err)
	}
	return bw.Flush()
}

func sig6(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func sqrtSafe(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Sqrt(v)
}
