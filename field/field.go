// Copyright © 2022 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package field implements ScalarField, a uniform-resolution sampling
// of a scalar quantity over a footprint. A field is the data structure
// behind the pixel-based estimator: it is built once at the engine's
// maximum resolution, populated with catalog points, optionally
// converted to an overdensity, and then repeatedly aggregated to
// coarser resolutions as the engine walks down through pixel-eligible
// bins.
package field

import (
	"errors"
	"fmt"
	"sort"

	"github.com/js-arias/wtheta/angbin"
	"github.com/js-arias/wtheta/catalog"
	"github.com/js-arias/wtheta/footprint"
	"github.com/js-arias/wtheta/sky"
	"github.com/js-arias/wtheta/skypix"
)

// A Kind classifies how a ScalarField's intensity is updated when a
// point is added to it.
type Kind int

const (
	// Scalar intensity is the field value itself: a point addition
	// overwrites the pixel's intensity with the point's weight.
	Scalar Kind = iota

	// Density intensity accumulates point count: a point addition
	// adds the point's weight to the pixel's intensity and
	// increments its point count.
	Density

	// Sampled is updated exactly like Density: a point addition
	// adds the point's value to the pixel's intensity and
	// increments its point count.
	Sampled
)

// ErrNoRegions is returned by operations that require regionation
// (e.g. the local-mean-intensity convention) when the field has none.
var ErrNoRegions = errors.New("field: operation requires regionation")

type pixel struct {
	intensity float64
	points    int
	weight    float64
	frac      float64 // unmasked fraction, in (0, 1]
	region    int      // -1 if unassigned
}

// A ScalarField is a map from pixel id, at a single resolution, to a
// scalar quantity sampled from a footprint and a catalog.
type ScalarField struct {
	resolution int
	kind       Kind

	pix  map[skypix.ID]*pixel
	ids  []skypix.ID // cached sorted keys of pix

	area           float64
	totalIntensity float64
	totalPoints    int

	convertedToOverDensity bool
	meanIntensityCached    bool
	meanIntensity          float64

	nRegion         int
	useLocalMean    bool
	localMean       []float64
	localMeanCached []bool

	outOfFootprint int
}

// New builds a ScalarField at resolution r by sampling every pixel of
// f whose unmasked fraction is at least footprint.MinUnmaskedFraction. Intensity starts at
// zero for Density and Sampled fields; for Scalar fields, if
// useMapWeight is set, intensity is seeded from the footprint's
// per-pixel weight.
func New(f footprint.Footprint, r int, kind Kind, useMapWeight bool) *ScalarField {
	sf := &ScalarField{
		resolution: r,
		kind:       kind,
		pix:        make(map[skypix.ID]*pixel),
	}
	for _, info := range f.Pixels(r) {
		if info.UnmaskedFraction < footprint.MinUnmaskedFraction {
			continue
		}
		p := &pixel{
			frac:   info.UnmaskedFraction,
			weight: info.Weight,
			region: -1,
		}
		if kind == Scalar && useMapWeight {
			p.intensity = info.Weight
		}
		sf.pix[info.ID] = p
		sf.area += info.UnmaskedFraction * skypix.AreaDeg2(r)
	}
	return sf
}

// Resolution returns the field's pixel resolution.
func (sf *ScalarField) Resolution() int {
	return sf.resolution
}

// Kind returns the field's update semantics.
func (sf *ScalarField) Kind() Kind {
	return sf.kind
}

// Area returns the field's total unmasked area, in square degrees.
func (sf *ScalarField) Area() float64 {
	return sf.area
}

// Len returns the number of occupied pixels in the field.
func (sf *ScalarField) Len() int {
	return len(sf.pix)
}

// TotalIntensity returns the sum of every pixel's intensity.
func (sf *ScalarField) TotalIntensity() float64 {
	return sf.totalIntensity
}

// TotalPoints returns the number of points successfully added to the
// field.
func (sf *ScalarField) TotalPoints() int {
	return sf.totalPoints
}

// OutOfFootprint returns the number of points rejected by Add because
// they fell outside every sampled pixel.
func (sf *ScalarField) OutOfFootprint() int {
	return sf.outOfFootprint
}

// IsOverDensity reports whether the field is currently in overdensity
// form.
func (sf *ScalarField) IsOverDensity() bool {
	return sf.convertedToOverDensity
}

// Add locates the pixel containing p and updates it according to the
// field's Kind, weighting the contribution by w. It returns false,
// and increments OutOfFootprint, if p does not fall in any sampled
// pixel.
func (sf *ScalarField) Add(p sky.Point, w float64) bool {
	id := skypix.Pixel(sf.resolution, p)
	px, ok := sf.pix[id]
	if !ok {
		sf.outOfFootprint++
		return false
	}
	switch sf.kind {
	case Scalar:
		sf.totalIntensity += w - px.intensity
		px.intensity = w
	case Density, Sampled:
		px.intensity += w
		px.points++
		sf.totalIntensity += w
	}
	sf.totalPoints++
	sf.meanIntensityCached = false
	return true
}

// AddCatalog inserts every point of c into the field, each weighted
// by its catalog weight. It returns the number of points rejected as
// out-of-footprint.
func (sf *ScalarField) AddCatalog(c *catalog.Catalog) int {
	before := sf.outOfFootprint
	for i := 0; i < c.Len(); i++ {
		p := c.At(i)
		sf.Add(p.Loc, p.Weight)
	}
	return sf.outOfFootprint - before
}

// InitRegions copies region assignments from f into every pixel of
// the field.
func (sf *ScalarField) InitRegions(f footprint.Footprint) {
	sf.nRegion = f.RegionCount()
	for id, px := range sf.pix {
		px.region = f.Region(skypix.Center(sf.resolution, id))
	}
	sf.localMean = make([]float64, sf.nRegion)
	sf.localMeanCached = make([]bool, sf.nRegion)
}

// NRegion returns the number of jack-knife regions active on the
// field (0 if InitRegions has not been called).
func (sf *ScalarField) NRegion() int {
	return sf.nRegion
}

// UseLocalMeanIntensity enables the per-region overdensity
// convention: ConvertToOverDensity subtracts each point's own
// region's mean rather than the field-wide mean. It is an error to
// enable this before InitRegions has been called.
func (sf *ScalarField) UseLocalMeanIntensity() error {
	if sf.nRegion == 0 {
		return ErrNoRegions
	}
	sf.useLocalMean = true
	return nil
}

func (sf *ScalarField) sortedIDs() []skypix.ID {
	if sf.ids != nil && len(sf.ids) == len(sf.pix) {
		return sf.ids
	}
	sf.ids = sf.ids[:0]
	for id := range sf.pix {
		sf.ids = append(sf.ids, id)
	}
	sort.Slice(sf.ids, func(i, j int) bool { return sf.ids[i] < sf.ids[j] })
	return sf.ids
}

// MeanIntensity returns the field-wide mean intensity per unit area
// (total_intensity / area), caching the result until the next Add or
// aggregation.
func (sf *ScalarField) MeanIntensity() float64 {
	if sf.meanIntensityCached {
		return sf.meanIntensity
	}
	if sf.area <= 0 {
		sf.meanIntensity = 0
	} else {
		sf.meanIntensity = sf.totalIntensity / sf.area
	}
	sf.meanIntensityCached = true
	return sf.meanIntensity
}

func (sf *ScalarField) localMeanIntensity(region int) float64 {
	if region < 0 || region >= sf.nRegion || !sf.useLocalMean {
		return sf.MeanIntensity()
	}
	if sf.localMeanCached[region] {
		return sf.localMean[region]
	}
	var sum, area float64
	apix := skypix.AreaDeg2(sf.resolution)
	for _, px := range sf.pix {
		if px.region != region {
			continue
		}
		sum += px.intensity
		area += px.frac * apix
	}
	m := 0.0
	if area > 0 {
		m = sum / area
	}
	sf.localMean[region] = m
	sf.localMeanCached[region] = true
	return m
}

// ConvertToOverDensity replaces every pixel's intensity I by
// (I − μ·a)/(μ·a), where a is the pixel's effective area share and μ
// is the relevant mean (field-wide, or the pixel's own region's mean
// when UseLocalMeanIntensity is active). It is idempotent: calling it
// twice in a row is a no-op.
func (sf *ScalarField) ConvertToOverDensity() {
	if sf.convertedToOverDensity {
		return
	}
	apix := skypix.AreaDeg2(sf.resolution)
	for _, px := range sf.pix {
		mu := sf.localMeanIntensity(px.region)
		a := px.frac * apix
		denom := mu * a
		if denom == 0 {
			px.intensity = 0
			continue
		}
		px.intensity = (px.intensity - denom) / denom
	}
	sf.convertedToOverDensity = true
	sf.recomputeTotalIntensity()
}

// recomputeTotalIntensity resums TotalIntensity from the current
// per-pixel state. ConvertToOverDensity and ConvertFromOverDensity
// call it so TotalIntensity reflects whichever form (raw or
// overdensity) the field is currently in, even though the conversion
// itself relies on the mean cached before the first conversion.
func (sf *ScalarField) recomputeTotalIntensity() {
	var sum float64
	for _, px := range sf.pix {
		sum += px.intensity
	}
	sf.totalIntensity = sum
}

// ConvertFromOverDensity undoes ConvertToOverDensity. It is a no-op
// if the field is not currently in overdensity form.
func (sf *ScalarField) ConvertFromOverDensity() {
	if !sf.convertedToOverDensity {
		return
	}
	apix := skypix.AreaDeg2(sf.resolution)
	for _, px := range sf.pix {
		mu := sf.localMeanIntensity(px.region)
		a := px.frac * apix
		denom := mu * a
		px.intensity = px.intensity*denom + denom
	}
	sf.convertedToOverDensity = false
	sf.recomputeTotalIntensity()
}

// Aggregate builds a new ScalarField at a coarser resolution target
// (target must be resolution/2^k for some k ≥ 1) by combining each
// coarse pixel's children. Aggregation always operates on raw
// (non-overdensity) values: if sf is currently in overdensity form, it
// is converted back, aggregated, and re-converted, leaving sf itself
// unmodified in its original (overdensity) state.
func (sf *ScalarField) Aggregate(target int) (*ScalarField, error) {
	if target >= sf.resolution || sf.resolution%target != 0 {
		return nil, fmt.Errorf("field: invalid aggregation target %d from resolution %d", target, sf.resolution)
	}
	wasOverDensity := sf.convertedToOverDensity
	if wasOverDensity {
		sf.ConvertFromOverDensity()
	}
	defer func() {
		if wasOverDensity {
			sf.ConvertToOverDensity()
		}
	}()

	cur := sf
	for cur.resolution > target {
		next := cur.aggregateOnce()
		cur = next
	}
	cur.nRegion = sf.nRegion
	cur.useLocalMean = sf.useLocalMean
	if sf.nRegion > 0 {
		cur.localMean = make([]float64, sf.nRegion)
		cur.localMeanCached = make([]bool, sf.nRegion)
	}
	return cur, nil
}

func (sf *ScalarField) aggregateOnce() *ScalarField {
	r := sf.resolution / 2
	out := &ScalarField{
		resolution: r,
		kind:       sf.kind,
		pix:        make(map[skypix.ID]*pixel),
	}
	apixFine := skypix.AreaDeg2(sf.resolution)
	apixCoarse := skypix.AreaDeg2(r)

	type agg struct {
		sumIW   float64 // Σ child_intensity * child_u*A_child
		sumW    float64 // Σ child_u*A_child
		sumI    float64 // Σ child_intensity (Density/Sampled)
		points  int
		weightN int
		weightSum float64
		region  int
	}
	coarse := make(map[skypix.ID]*agg)

	for id, px := range sf.pix {
		parent := skypix.Parent(sf.resolution, id)
		a, ok := coarse[parent]
		if !ok {
			a = &agg{region: px.region}
			coarse[parent] = a
		}
		childArea := px.frac * apixFine
		a.sumIW += px.intensity * childArea
		a.sumW += childArea
		a.sumI += px.intensity
		a.points += px.points
		a.weightSum += px.weight
		a.weightN++
		if a.region != px.region {
			a.region = -1 // mixed regions: treat as unassigned
		}
	}

	for id, a := range coarse {
		frac := a.sumW / apixCoarse
		if frac > 1 {
			frac = 1
		}
		p := &pixel{frac: frac, region: a.region}
		switch sf.kind {
		case Scalar:
			if a.sumW > 0 {
				p.intensity = a.sumIW / a.sumW
			}
			if a.weightN > 0 {
				p.weight = a.weightSum / float64(a.weightN)
			}
		case Density, Sampled:
			p.intensity = a.sumI
			p.points = a.points
			p.weight = a.sumW / apixCoarse
		}
		out.pix[id] = p
		out.area += frac * apixCoarse
		out.totalIntensity += p.intensity
		out.totalPoints += p.points
	}
	return out
}

// FindLocalArea sums the area of every pixel whose center falls
// within the annulus [thetaMin, thetaMax) (radians) around center.
func (sf *ScalarField) FindLocalArea(center sky.Point, thetaMin, thetaMax float64) float64 {
	b := angbin.NewBin(thetaMin, thetaMax)
	apix := skypix.AreaDeg2(sf.resolution)
	var sum float64
	for id, px := range sf.pix {
		c := skypix.Center(sf.resolution, id)
		if b.Contains(sky.Sin2HalfAngle(center, c)) {
			sum += px.frac * apix
		}
	}
	return sum
}

// FindLocalIntensity sums the intensity of every pixel whose center
// falls within the annulus around center.
func (sf *ScalarField) FindLocalIntensity(center sky.Point, thetaMin, thetaMax float64) float64 {
	b := angbin.NewBin(thetaMin, thetaMax)
	var sum float64
	for id, px := range sf.pix {
		c := skypix.Center(sf.resolution, id)
		if b.Contains(sky.Sin2HalfAngle(center, c)) {
			sum += px.intensity
		}
	}
	return sum
}

// FindLocalDensity returns FindLocalIntensity divided by
// FindLocalArea (0 if the area is 0).
func (sf *ScalarField) FindLocalDensity(center sky.Point, thetaMin, thetaMax float64) float64 {
	area := sf.FindLocalArea(center, thetaMin, thetaMax)
	if area == 0 {
		return 0
	}
	return sf.FindLocalIntensity(center, thetaMin, thetaMax) / area
}

// FindLocalPointDensity sums the raw point count of every pixel whose
// center falls within the annulus around center, divided by the local
// area.
func (sf *ScalarField) FindLocalPointDensity(center sky.Point, thetaMin, thetaMax float64) float64 {
	b := angbin.NewBin(thetaMin, thetaMax)
	apix := skypix.AreaDeg2(sf.resolution)
	var points int
	var area float64
	for id, px := range sf.pix {
		c := skypix.Center(sf.resolution, id)
		if b.Contains(sky.Sin2HalfAngle(center, c)) {
			points += px.points
			area += px.frac * apix
		}
	}
	if area == 0 {
		return 0
	}
	return float64(points) / area
}
