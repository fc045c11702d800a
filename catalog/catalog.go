// Copyright © 2022 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package catalog implements weighted point catalogs on the sphere,
// the inputs to the correlation engine, together with a TSV encoding
// for them.
package catalog

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/js-arias/wtheta/sky"
)

// A Point is a weighted point of a catalog.
//
// RegionID is -1 when the point has not been assigned to a jack-knife
// region.
type Point struct {
	Loc      sky.Point
	Weight   float64
	RegionID int
}

// NewPoint returns a catalog point at a given right ascension and
// declination (in degrees) with a given weight.
func NewPoint(ra, dec, weight float64) Point {
	return Point{
		Loc:      sky.NewPoint(ra, dec),
		Weight:   weight,
		RegionID: -1,
	}
}

// A Catalog is a read-only collection of weighted points.
type Catalog struct {
	points []Point
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{}
}

// Add appends a point to the catalog.
func (c *Catalog) Add(p Point) {
	c.points = append(c.points, p)
}

// Len returns the number of points in the catalog.
func (c *Catalog) Len() int {
	return len(c.points)
}

// At returns the point at a given index.
func (c *Catalog) At(i int) Point {
	return c.points[i]
}

// Points returns the underlying slice of points. The caller must not
// modify it.
func (c *Catalog) Points() []Point {
	return c.points
}

// SetRegion sets the jack-knife region ID of the point at index i.
// The engine uses this to copy region assignments from a footprint
// onto a catalog before building a PointIndex over it.
func (c *Catalog) SetRegion(i int, region int) {
	c.points[i].RegionID = region
}

// SumWeight returns the sum of the weights of all points in the
// catalog.
func (c *Catalog) SumWeight() float64 {
	var sum float64
	for _, p := range c.points {
		sum += p.Weight
	}
	return sum
}

var catalogHeader = []string{"ra", "dec", "weight"}

// ReadTSV reads a catalog from a TSV file with columns "ra", "dec",
// and "weight" (in degrees and an arbitrary weight unit). An optional
// "region" column assigns a jack-knife region ID to each point.
//
// Here is an example file:
//
//	ra	dec	weight
//	10.684	41.269	1.0
//	83.822	-5.391	0.8
func ReadTSV(r io.Reader) (*Catalog, error) {
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
	for _, h := range catalogHeader {
		if _, ok := fields[h]; !ok {
			return nil, fmt.Errorf("expecting field %q", h)
		}
	}
	regionCol, hasRegion := fields["region"]

	cat := New()
	for {
		row, err := tab.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tab.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}

		f := "ra"
		ra, err := strconv.ParseFloat(row[fields[f]], 64)
		if err != nil {
			return nil, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
		}

		f = "dec"
		dec, err := strconv.ParseFloat(row[fields[f]], 64)
		if err != nil {
			return nil, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
		}

		f = "weight"
		w, err := strconv.ParseFloat(row[fields[f]], 64)
		if err != nil {
			return nil, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
		}

		p := NewPoint(ra, dec, w)
		if hasRegion {
			reg, err := strconv.Atoi(row[regionCol])
			if err != nil {
				return nil, fmt.Errorf("on row %d: field %q: %v", ln, "region", err)
			}
			p.RegionID = reg
		}
		cat.Add(p)
	}

	return cat, nil
}

// Read is a convenience wrapper over ReadTSV that opens a named file.
func Read(name string) (*Catalog, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTSV(f)
}

// TSV encodes a catalog as a TSV file.
func (c *Catalog) TSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# catalog\n")
	fmt.Fprintf(bw, "# data save on: %s\n", time.Now().Format(time.RFC3339))
	tab := csv.NewWriter(bw)
	tab.Comma = '\t'
	tab.UseCRLF = true

	header := append([]string{}, catalogHeader...)
	header = append(header, "region")
	if err := tab.Write(header); err != nil {
		return fmt.Errorf("while writing header: %v", err)
	}

	for _, p := range c.points {
		row := []string{
			strconv.FormatFloat(p.Loc.RA(), 'f', 6, 64),
			strconv.FormatFloat(p.Loc.Dec(), 'f', 6, 64),
			strconv.FormatFloat(p.Weight, 'f', 6, 64),
			strconv.Itoa(p.RegionID),
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
