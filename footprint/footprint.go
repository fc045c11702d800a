// Copyright © 2022 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package footprint implements the survey footprint boundary required
// by the correlation engine: an arbitrary region of the sphere with
// per-pixel unmasked fractions and weights, jack-knife regionation,
// and random point generation. It is the one concrete implementation
// of the Footprint interface (§6 of the design) that the rest of the
// module treats as an external collaborator.
package footprint

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/exp/slices"

	"github.com/js-arias/wtheta/catalog"
	"github.com/js-arias/wtheta/sky"
	"github.com/js-arias/wtheta/skypix"
)

// A Footprint reports the geometry of a survey region and generates
// random catalogs over it.
type Footprint interface {
	// Area returns the unmasked area of the footprint, in square
	// degrees.
	Area() float64

	// Contains reports whether a point falls inside the unmasked
	// footprint.
	Contains(p sky.Point) bool

	// RegionCount returns the number of jack-knife regions currently
	// defined (0 if InitializeRegions has not been called).
	RegionCount() int

	// RegionResolution returns the pixel resolution at which regions
	// were assigned.
	RegionResolution() int

	// InitializeRegions partitions the footprint into n contiguous,
	// approximately equal-area jack-knife regions, and returns the
	// number of regions actually achieved (which may be less than n
	// if the footprint does not have enough distinct pixels).
	InitializeRegions(n int) (int, error)

	// Region returns the jack-knife region ID that contains p, or -1
	// if regions have not been initialized or p falls outside the
	// footprint.
	Region(p sky.Point) int

	// GenerateRandomPoints draws n points at random from the
	// footprint. If useWeighted is true, pixels are sampled in
	// proportion to their weight in addition to their unmasked area.
	GenerateRandomPoints(n int, useWeighted bool, rng *rand.Rand) *catalog.Catalog

	// Pixels returns every footprint pixel at a given resolution,
	// aggregating or refining the native mask resolution as needed.
	Pixels(resolution int) []PixelInfo
}

// PixelInfo describes one pixel of a footprint at a given resolution.
type PixelInfo struct {
	ID               skypix.ID
	UnmaskedFraction float64
	Weight           float64
}

// MinUnmaskedFraction is the default minimum unmasked fraction a
// pixel must have to be kept when sampling a footprint.
const MinUnmaskedFraction = 1e-7

// A Mask is a Footprint backed by an explicit table of pixels at a
// single "native" resolution, each with an unmasked fraction and a
// weight.
type Mask struct {
	resolution int
	pix        map[skypix.ID]maskPixel
	ids        []skypix.ID // sorted by ID, cached

	region      map[skypix.ID]int
	regionCount int
	regionRes   int
}

type maskPixel struct {
	frac   float64
	weight float64
}

// New returns an empty mask at a given native resolution.
func New(resolution int) *Mask {
	if !skypix.IsPowerOfTwo(resolution) {
		panic(fmt.Sprintf("footprint: resolution %d is not a power of two", resolution))
	}
	return &Mask{
		resolution: resolution,
		pix:        make(map[skypix.ID]maskPixel),
	}
}

// Set sets the unmasked fraction and weight of a pixel. A fraction of
// 0 removes the pixel from the mask.
func (m *Mask) Set(id skypix.ID, frac, weight float64) {
	if frac <= 0 {
		delete(m.pix, id)
		m.ids = nil
		return
	}
	m.pix[id] = maskPixel{frac: frac, weight: weight}
	m.ids = nil
}

// Resolution returns the native resolution of the mask.
func (m *Mask) Resolution() int {
	return m.resolution
}

// NewDisk returns a mask covering a spherical disk of a given radius
// (in degrees) around a center point, sampled at a given resolution.
// Every pixel whose center falls inside the disk is fully unmasked.
func NewDisk(center sky.Point, radiusDeg float64, resolution int) *Mask {
	m := New(resolution)
	radius := sky.ToRad(radiusDeg)
	sin2 := sky.Sin2HalfAngleOf(radius)
	n := skypix.Len(resolution)
	for id := skypix.ID(0); id < skypix.ID(n); id++ {
		p := skypix.Center(resolution, id)
		if sky.Sin2HalfAngle(center, p) <= sin2 {
			m.Set(id, 1, 1)
		}
	}
	return m
}

func (m *Mask) sortedIDs() []skypix.ID {
	if m.ids != nil {
		return m.ids
	}
	ids := make([]skypix.ID, 0, len(m.pix))
	for id := range m.pix {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	m.ids = ids
	return ids
}

// Area implements Footprint.
func (m *Mask) Area() float64 {
	a := skypix.AreaDeg2(m.resolution)
	var sum float64
	for _, px := range m.pix {
		sum += px.frac * a
	}
	return sum
}

// Contains implements Footprint.
func (m *Mask) Contains(p sky.Point) bool {
	id := skypix.Pixel(m.resolution, p)
	_, ok := m.pix[id]
	return ok
}

// RegionCount implements Footprint.
func (m *Mask) RegionCount() int {
	return m.regionCount
}

// RegionResolution implements Footprint.
func (m *Mask) RegionResolution() int {
	return m.regionRes
}

// InitializeRegions implements Footprint.
//
// Regions are built by sorting the mask's pixels by declination, then
// right ascension, and cutting the sequence into n contiguous,
// approximately equal-area runs. This is a coarse but deterministic
// partition; a production footprint format might instead carry
// pre-computed region boundaries.
func (m *Mask) InitializeRegions(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("footprint: invalid region count %d", n)
	}
	ids := m.sortedIDs()
	if len(ids) == 0 {
		return 0, fmt.Errorf("footprint: mask has no pixels")
	}
	if n > len(ids) {
		n = len(ids)
	}

	type loc struct {
		id   skypix.ID
		p    sky.Point
		area float64
	}
	locs := make([]loc, len(ids))
	for i, id := range ids {
		locs[i] = loc{
			id:   id,
			p:    skypix.Center(m.resolution, id),
			area: m.pix[id].frac,
		}
	}
	sort.Slice(locs, func(i, j int) bool {
		if locs[i].p.Dec() != locs[j].p.Dec() {
			return locs[i].p.Dec() < locs[j].p.Dec()
		}
		return locs[i].p.RA() < locs[j].p.RA()
	})

	var total float64
	for _, l := range locs {
		total += l.area
	}
	target := total / float64(n)

	region := make(map[skypix.ID]int, len(locs))
	cur := 0
	var accum float64
	for _, l := range locs {
		region[l.id] = cur
		accum += l.area
		if accum >= target && cur < n-1 {
			cur++
			accum = 0
		}
	}

	// the last pixel may close a run and leave trailing regions empty
	n = region[locs[len(locs)-1].id] + 1

	m.region = region
	m.regionCount = n
	m.regionRes = m.resolution
	return n, nil
}

// Region implements Footprint.
func (m *Mask) Region(p sky.Point) int {
	if m.region == nil {
		return -1
	}
	id := skypix.Pixel(m.resolution, p)
	r, ok := m.region[id]
	if !ok {
		return -1
	}
	return r
}

// GenerateRandomPoints implements Footprint.
func (m *Mask) GenerateRandomPoints(n int, useWeighted bool, rng *rand.Rand) *catalog.Catalog {
	ids := m.sortedIDs()
	weights := make([]float64, len(ids))
	var total float64
	for i, id := range ids {
		px := m.pix[id]
		w := px.frac
		if useWeighted {
			w *= px.weight
		}
		total += w
		weights[i] = total
	}

	cat := catalog.New()
	if total <= 0 || len(ids) == 0 {
		return cat
	}
	for i := 0; i < n; i++ {
		target := rng.Float64() * total
		k := sort.Search(len(weights), func(j int) bool { return weights[j] >= target })
		if k == len(weights) {
			k = len(weights) - 1
		}
		id := ids[k]
		p := skypix.RandomPoint(m.resolution, id, rng)
		pt := catalog.Point{
			Loc:      p,
			Weight:   1,
			RegionID: -1,
		}
		if m.region != nil {
			pt.RegionID = m.region[id]
		}
		cat.Add(pt)
	}
	return cat
}

// Pixels implements Footprint.
func (m *Mask) Pixels(resolution int) []PixelInfo {
	if !skypix.IsPowerOfTwo(resolution) {
		panic(fmt.Sprintf("footprint: resolution %d is not a power of two", resolution))
	}
	if resolution == m.resolution {
		ids := m.sortedIDs()
		out := make([]PixelInfo, len(ids))
		for i, id := range ids {
			px := m.pix[id]
			out[i] = PixelInfo{ID: id, UnmaskedFraction: px.frac, Weight: px.weight}
		}
		return out
	}
	if resolution < m.resolution {
		return m.coarsen(resolution)
	}
	return m.refine(resolution)
}

// coarsen aggregates native pixels up to a coarser resolution by
// walking the skypix parent chain.
func (m *Mask) coarsen(resolution int) []PixelInfo {
	type accum struct {
		fracArea float64
		weight   float64
		count    int
	}
	out := make(map[skypix.ID]*accum)
	nativeArea := skypix.AreaDeg2(m.resolution)
	for id, px := range m.pix {
		target := id
		for r := m.resolution; r > resolution; r /= 2 {
			target = skypix.Parent(r, target)
		}
		a, ok := out[target]
		if !ok {
			a = &accum{}
			out[target] = a
		}
		a.fracArea += px.frac * nativeArea
		a.weight += px.weight
		a.count++
	}

	coarseArea := skypix.AreaDeg2(resolution)
	ids := make([]skypix.ID, 0, len(out))
	for id := range out {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	result := make([]PixelInfo, len(ids))
	for i, id := range ids {
		a := out[id]
		result[i] = PixelInfo{
			ID:               id,
			UnmaskedFraction: a.fracArea / coarseArea,
			Weight:           a.weight / float64(a.count),
		}
	}
	return result
}

// refine replicates each native pixel's fraction and weight onto its
// descendants at a finer resolution.
func (m *Mask) refine(resolution int) []PixelInfo {
	frontier := m.sortedIDs()
	curRes := m.resolution
	fracOf := make(map[skypix.ID]maskPixel, len(m.pix))
	for id, px := range m.pix {
		fracOf[id] = px
	}
	for curRes < resolution {
		next := make([]skypix.ID, 0, len(frontier)*4)
		nextFrac := make(map[skypix.ID]maskPixel, len(frontier)*4)
		for _, id := range frontier {
			px := fracOf[id]
			for _, c := range skypix.Children(curRes, id) {
				next = append(next, c)
				nextFrac[c] = px
			}
		}
		frontier = next
		fracOf = nextFrac
		curRes *= 2
	}
	slices.Sort(frontier)
	out := make([]PixelInfo, len(frontier))
	for i, id := range frontier {
		px := fracOf[id]
		out[i] = PixelInfo{ID: id, UnmaskedFraction: px.frac, Weight: px.weight}
	}
	return out
}

var maskHeader = []string{"resolution", "pixel", "fraction", "weight"}

// ReadTSV reads a mask from a TSV file with columns "resolution",
// "pixel", "fraction", and "weight". All rows must share the same
// resolution.
func ReadTSV(r io.Reader) (*Mask, error) {
	tab := csv.NewReader(r)
	tab.Comma = '\t'
	tab.Comment = '#'

	head, err := tab.Read()
	if err != nil {
		return nil, fmt.Errorf("while reading header: %v", err)
	}
	fields := make(map[string]int, len(head))
	for i, h := range head {
		fields[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, h := range maskHeader {
		if _, ok := fields[h]; !ok {
			return nil, fmt.Errorf("expecting field %q", h)
		}
	}

	var m *Mask
	for {
		row, err := tab.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tab.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}

		f := "resolution"
		res, err := strconv.Atoi(row[fields[f]])
		if err != nil {
			return nil, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
		}
		if m == nil {
			m = New(res)
		}
		if m.resolution != res {
			return nil, fmt.Errorf("on row %d: field %q: got %d, want %d", ln, f, res, m.resolution)
		}

		f = "pixel"
		id, err := strconv.ParseInt(row[fields[f]], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
		}

		f = "fraction"
		frac, err := strconv.ParseFloat(row[fields[f]], 64)
		if err != nil {
			return nil, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
		}

		f = "weight"
		weight, err := strconv.ParseFloat(row[fields[f]], 64)
		if err != nil {
			return nil, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
		}

		m.Set(skypix.ID(id), frac, weight)
	}

	if m == nil {
		return nil, fmt.Errorf("while reading data: %v", io.EOF)
	}
	return m, nil
}

// Read is a convenience wrapper over ReadTSV that opens a named file.
func Read(name string) (*Mask, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTSV(f)
}

// TSV encodes a mask as a TSV file.
func (m *Mask) TSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# footprint mask\n")
	fmt.Fprintf(bw, "# data save on: %s\n", time.Now().Format(time.RFC3339))
	tab := csv.NewWriter(bw)
	tab.Comma = '\t'
	tab.UseCRLF = true

	if err := tab.Write(maskHeader); err != nil {
		return fmt.Errorf("while writing header: %v", err)
	}

	for _, id := range m.sortedIDs() {
		px := m.pix[id]
		row := []string{
			strconv.Itoa(m.resolution),
			strconv.FormatInt(int64(id), 10),
			strconv.FormatFloat(px.frac, 'f', 6, 64),
			strconv.FormatFloat(px.weight, 'f', 6, 64),
		}
		if err := tab.Write(row); err != nil {
			return fmt.Errorf("while writing data: %v", err)
		}
	}

	tab.Flush()
	if err := tab.Error(); err != nil {
		return fmt.Errorf("while writing data: %v", err)
	}
	return bw.Flush()
}
