// Copyright © 2022 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package skypix implements a hierarchical, power-of-two resolution
// pixelation of the sphere: a quadrilateralized spherical cube in which
// each of the 6 cube faces is recursively split into 4 children. Pixel
// identity is a nested Morton-coded index, which gives O(1) parent and
// child lookup and an O(1) bound on the angular size of a pixel at a
// given resolution — the primitives that the footprint, field, and
// pointindex packages are built on.
//
// Unlike the teacher's isolatitude earth.Pixelation, resolution here is
// always a single power-of-two "Nside" shared by every face, so that a
// pixel at resolution R decomposes, without search, into exactly 4
// children at resolution 2R.
package skypix

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/js-arias/wtheta/sky"
)

// ID identifies a pixel at some resolution. It is only meaningful
// together with the resolution it was produced at: the same integer
// value addresses different pixels at different resolutions.
type ID int64

const (
	// RHpix is the coarsest resolution any AngularBin may be assigned,
	// and the resolution at which PointIndex trees are rooted.
	RHpix = 4

	// RMax is the finest resolution a pixel-based estimator may use.
	RMax = 4096
)

// IsPowerOfTwo reports whether r is a positive power of two.
func IsPowerOfTwo(r int) bool {
	return r > 0 && r&(r-1) == 0
}

// Len returns the total number of pixels at resolution r.
func Len(r int) int64 {
	return 6 * int64(r) * int64(r)
}

// AreaSteradians returns the area, in steradians, of a single pixel at
// resolution r.
func AreaSteradians(r int) float64 {
	return 4 * math.Pi / float64(Len(r))
}

// AreaDeg2 returns the area, in square degrees, of a single pixel at
// resolution r.
func AreaDeg2(r int) float64 {
	return AreaSteradians(r) * (180 / math.Pi) * (180 / math.Pi)
}

// Diagonal returns a conservative upper bound, in radians, for the
// corner-to-corner angular size of a pixel at resolution r: the
// diagonal 2√2/r of a face-local cell, which no pixel exceeds because
// projecting the sphere onto a cube face never shortens distances.
func Diagonal(r int) float64 {
	return 2 * math.Sqrt2 / float64(r)
}

// Pixel returns the ID of the pixel that contains point p at
// resolution r.
func Pixel(r int, p sky.Point) ID {
	face, u, v := vecToFace(p.Vector())
	ix := gridIndex(u, r)
	iy := gridIndex(v, r)
	return ID(int64(face)*int64(r)*int64(r) + int64(interleaveBits(uint32(ix), uint32(iy))))
}

// Center returns the geographic center of pixel id at resolution r.
func Center(r int, id ID) sky.Point {
	face, local := split(r, id)
	ix, iy := deinterleaveBits(uint64(local))
	u := cellCenter(int(ix), r)
	v := cellCenter(int(iy), r)
	return sky.FromVector(faceToVec(face, u, v))
}

// RandomPoint returns a point drawn uniformly at random from within
// pixel id at resolution r, using rng as the source of randomness. It
// is an approximation over the pixel's face-local cell, not over true
// solid angle, which is adequate for random-catalog generation but not
// for precision Monte-Carlo integration.
func RandomPoint(r int, id ID, rng *rand.Rand) sky.Point {
	face, local := split(r, id)
	ix, iy := deinterleaveBits(uint64(local))
	u := cellSample(int(ix), r, rng)
	v := cellSample(int(iy), r, rng)
	return sky.FromVector(faceToVec(face, u, v))
}

func cellSample(i, r int, rng *rand.Rand) float64 {
	lo := float64(i)/float64(r)*2 - 1
	hi := float64(i+1)/float64(r)*2 - 1
	return lo + rng.Float64()*(hi-lo)
}

// Parent returns the ID, at resolution r/2, of the pixel that contains
// pixel id (given at resolution r). It panics if r is 1 (there is no
// coarser resolution) or not a power of two.
func Parent(r int, id ID) ID {
	if !IsPowerOfTwo(r) || r < 2 {
		panic(fmt.Sprintf("skypix: invalid resolution for Parent: %d", r))
	}
	face, local := split(r, id)
	ix, iy := deinterleaveBits(uint64(local))
	pr := r / 2
	pLocal := interleaveBits(ix>>1, iy>>1)
	return ID(int64(face)*int64(pr)*int64(pr) + int64(pLocal))
}

// Children returns the 4 pixel IDs, at resolution 2r, contained within
// pixel id (given at resolution r).
func Children(r int, id ID) [4]ID {
	face, local := split(r, id)
	ix, iy := deinterleaveBits(uint64(local))
	cr := int64(2 * r)
	var out [4]ID
	i := 0
	for dy := uint32(0); dy < 2; dy++ {
		for dx := uint32(0); dx < 2; dx++ {
			cix := ix*2 + dx
			ciy := iy*2 + dy
			local := interleaveBits(cix, ciy)
			out[i] = ID(int64(face)*cr*cr + int64(local))
			i++
		}
	}
	return out
}

func split(r int, id ID) (face int, local int64) {
	faceSize := int64(r) * int64(r)
	return int(int64(id) / faceSize), int64(id) % faceSize
}

// gridIndex maps a face-local coordinate u in [-1, 1] to a grid index
// in [0, r).
func gridIndex(u float64, r int) uint32 {
	i := int((u + 1) / 2 * float64(r))
	if i < 0 {
		i = 0
	}
	if i >= r {
		i = r - 1
	}
	return uint32(i)
}

// cellCenter returns the face-local coordinate, in [-1, 1], of the
// center of grid cell i among r cells.
func cellCenter(i, r int) float64 {
	return (float64(i)+0.5)/float64(r)*2 - 1
}

// vecToFace returns the cube face that a unit vector belongs to
// (chosen by dominant axis), together with its face-local coordinates
// u, v in [-1, 1].
func vecToFace(v r3.Vec) (face int, u, vv float64) {
	ax, ay, az := math.Abs(v.X), math.Abs(v.Y), math.Abs(v.Z)
	switch {
	case ax >= ay && ax >= az:
		if v.X > 0 {
			return 0, v.Y / ax, v.Z / ax
		}
		return 1, -v.Y / ax, v.Z / ax
	case ay >= ax && ay >= az:
		if v.Y > 0 {
			return 2, -v.X / ay, v.Z / ay
		}
		return 3, v.X / ay, v.Z / ay
	default:
		if v.Z > 0 {
			return 4, v.Y / az, -v.X / az
		}
		return 5, v.Y / az, v.X / az
	}
}

// faceToVec is the inverse of vecToFace: it returns an (unnormalized)
// 3D vector from a face index and face-local coordinates.
func faceToVec(face int, u, v float64) r3.Vec {
	switch face {
	case 0:
		return r3.Vec{X: 1, Y: u, Z: v}
	case 1:
		return r3.Vec{X: -1, Y: -u, Z: v}
	case 2:
		return r3.Vec{X: -u, Y: 1, Z: v}
	case 3:
		return r3.Vec{X: u, Y: -1, Z: v}
	case 4:
		return r3.Vec{X: -v, Y: u, Z: 1}
	case 5:
		return r3.Vec{X: v, Y: u, Z: -1}
	default:
		panic(fmt.Sprintf("skypix: invalid face %d", face))
	}
}

// interleaveBits spreads the bits of x into the even positions and the
// bits of y into the odd positions of the result (a Morton code).
func interleaveBits(x, y uint32) uint64 {
	var out uint64
	for i := 0; i < 32; i++ {
		out |= uint64((x>>uint(i))&1) << uint(2*i)
		out |= uint64((y>>uint(i))&1) << uint(2*i+1)
	}
	return out
}

// deinterleaveBits is the inverse of interleaveBits.
func deinterleaveBits(v uint64) (x, y uint32) {
	for i := 0; i < 32; i++ {
		x |= uint32((v>>uint(2*i))&1) << uint(i)
		y |= uint32((v>>uint(2*i+1))&1) << uint(i)
	}
	return x, y
}
