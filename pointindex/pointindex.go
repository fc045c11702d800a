// Copyright © 2022 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package pointindex implements Tree, a hierarchical spatial index of
// weighted points on the sphere used by the pair-counting estimator.
// A tree is rooted at one node per occupied base pixel (resolution
// skypix.RHpix); each node holds a small bucket of points and splits
// into up to four children, following skypix.Children, once the
// bucket exceeds its capacity.
package pointindex

import (
	"github.com/js-arias/wtheta/angbin"
	"github.com/js-arias/wtheta/catalog"
	"github.com/js-arias/wtheta/footprint"
	"github.com/js-arias/wtheta/sky"
	"github.com/js-arias/wtheta/skypix"
)

// DefaultCapacity is the default maximum number of points a leaf
// bucket holds before it splits.
const DefaultCapacity = 200

type weightedPoint struct {
	loc    sky.Point
	weight float64
	region int
}

type node struct {
	id        skypix.ID
	res       int
	capacity  int
	points    []weightedPoint
	children  *[4]*node
	sumWeight float64
	region    int // -1 if unassigned or spanning more than one region
}

func newNode(res int, id skypix.ID, capacity int) *node {
	return &node{id: id, res: res, capacity: capacity, region: -1}
}

func (n *node) isLeaf() bool {
	return n.children == nil
}

// A Tree is a hierarchical spatial index over a set of weighted
// points, used to answer weighted pair-count queries for the
// pair-based correlation estimator.
type Tree struct {
	roots    map[skypix.ID]*node
	capacity int
	nPoints  int
	nRegion  int
}

// New returns an empty tree with the given leaf bucket capacity. A
// capacity of 0 uses DefaultCapacity.
func New(capacity int) *Tree {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Tree{
		roots:    make(map[skypix.ID]*node),
		capacity: capacity,
	}
}

// Len returns the number of points inserted into the tree.
func (t *Tree) Len() int {
	return t.nPoints
}

// AddPoint inserts a point with weight w into the tree.
func (t *Tree) AddPoint(p sky.Point, w float64) {
	id := skypix.Pixel(skypix.RHpix, p)
	root, ok := t.roots[id]
	if !ok {
		root = newNode(skypix.RHpix, id, t.capacity)
		t.roots[id] = root
	}
	root.add(p, w, -1)
	t.nPoints++
}

// AddCatalog inserts every point of c into the tree.
func (t *Tree) AddCatalog(c *catalog.Catalog) {
	for i := 0; i < c.Len(); i++ {
		p := c.At(i)
		t.AddPoint(p.Loc, p.Weight)
	}
}

func (n *node) add(p sky.Point, w float64, region int) {
	n.sumWeight += w
	if !n.isLeaf() {
		child := n.childFor(p)
		child.add(p, w, region)
		return
	}
	n.points = append(n.points, weightedPoint{loc: p, weight: w, region: region})
	if len(n.points) > n.capacity && n.res*2 <= skypix.RMax {
		n.split()
	}
}

func (n *node) childFor(p sky.Point) *node {
	childRes := n.res * 2
	id := skypix.Pixel(childRes, p)
	for _, c := range n.children {
		if c.id == id {
			return c
		}
	}
	panic("pointindex: point does not belong to any child pixel")
}

func (n *node) split() {
	kids := skypix.Children(n.res, n.id)
	var children [4]*node
	for i, id := range kids {
		children[i] = newNode(n.res*2, id, n.capacity)
	}
	n.children = &children
	pts := n.points
	n.points = nil
	for _, wp := range pts {
		child := n.childFor(wp.loc)
		child.add(wp.loc, wp.weight, wp.region)
	}
}

// InitializeRegions assigns a region ID to every node of the tree
// from f, recording f.Region(p) on each point and propagating, for
// internal nodes, -1 ("mixed") whenever their children disagree.
func (t *Tree) InitializeRegions(f footprint.Footprint) {
	t.nRegion = f.RegionCount()
	for _, root := range t.roots {
		root.initRegions(f)
	}
}

func (n *node) initRegions(f footprint.Footprint) int {
	if n.isLeaf() {
		if len(n.points) == 0 {
			n.region = -1
			return -1
		}
		r := f.Region(n.points[0].loc)
		for i := range n.points {
			n.points[i].region = f.Region(n.points[i].loc)
			if n.points[i].region != r {
				r = -1
			}
		}
		n.region = r
		return r
	}
	first := -2
	mixed := false
	for _, c := range n.children {
		r := c.initRegions(f)
		if first == -2 {
			first = r
		} else if first != r {
			mixed = true
		}
	}
	if mixed || first < 0 {
		n.region = -1
	} else {
		n.region = first
	}
	return n.region
}

// FindWeightedPairs queries the tree for every point p in c: it walks
// the tree, pruning subtrees whose angular bounds cannot intersect
// bin's annulus, and accumulates w_p · Σw_q for every q found within
// the annulus into bin's scratch accumulator (see angbin.Bin.Scratch
// and the MoveWeightTo* family). It does not itself decide which
// permanent accumulator the result belongs to; the caller commits it.
func (t *Tree) FindWeightedPairs(c *catalog.Catalog, bin *angbin.Bin) {
	for i := 0; i < c.Len(); i++ {
		p := c.At(i)
		for _, root := range t.roots {
			queryNode(root, p.Loc, p.Weight, p.RegionID, bin)
		}
	}
}

func queryNode(n *node, p sky.Point, w float64, region int, bin *angbin.Bin) {
	center := skypix.Center(n.res, n.id)
	d := sky.Distance(p, center)
	radius := skypix.Diagonal(n.res)

	dMin := d - radius
	if dMin < 0 {
		dMin = 0
	}
	dMax := d + radius

	if dMax < bin.ThetaMin || dMin >= bin.ThetaMax {
		return
	}
	fullyInside := dMin >= bin.ThetaMin && dMax < bin.ThetaMax
	if fullyInside && (bin.NRegion() == 0 || n.region >= 0) {
		// Safe to aggregate without descending: either no jack-knife
		// regionation is active, or every point under n shares the
		// same region, so the leave-one-out bookkeeping stays exact.
		bin.Scratch().Add(w*n.sumWeight, region, n.region)
		return
	}
	if n.isLeaf() {
		for _, q := range n.points {
			sin2 := sky.Sin2HalfAngle(p, q.loc)
			if bin.Contains(sin2) {
				bin.Scratch().Add(w*q.weight, region, q.region)
			}
		}
		return
	}
	for _, c := range n.children {
		queryNode(c, p, w, region, bin)
	}
}
