// Copyright © 2022 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package sky implements the spherical point geometry shared by the
// footprint, catalog, and pixelation packages: unit-sphere coordinates,
// great-circle distance, and the fast sin²(θ/2) chord test used to bucket
// pairs of points into angular bins without inverse trigonometry.
package sky

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ToDegree transforms a radian angle into degrees.
func ToDegree(angle float64) float64 {
	return angle * 180 / math.Pi
}

// ToRad transforms a degree angle into radians.
func ToRad(angle float64) float64 {
	return angle * math.Pi / 180
}

// A Point is a point on the surface of the unit sphere,
// addressed by right ascension and declination in degrees.
type Point struct {
	ra, dec float64
	vec     r3.Vec
}

// NewPoint returns a point from a right ascension, declination pair
// (both in degrees). It panics if the coordinates are not valid.
func NewPoint(ra, dec float64) Point {
	if dec < -90 || dec > 90 {
		panic(fmt.Sprintf("sky: invalid declination value: %.6f", dec))
	}
	ra = math.Mod(ra, 360)
	if ra < 0 {
		ra += 360
	}

	rRA := ToRad(ra)
	rDec := ToRad(dec)
	return Point{
		ra:  ra,
		dec: dec,
		vec: r3.Vec{
			X: math.Cos(rDec) * math.Cos(rRA),
			Y: math.Cos(rDec) * math.Sin(rRA),
			Z: math.Sin(rDec),
		},
	}
}

// FromVector returns a point from an arbitrary (not necessarily unit
// length) 3D vector, by normalizing it onto the sphere.
func FromVector(v r3.Vec) Point {
	n := math.Sqrt(r3.Norm2(v))
	if n == 0 {
		panic("sky: zero-length vector")
	}
	v = r3.Scale(1/n, v)
	dec := ToDegree(math.Asin(v.Z))
	ra := ToDegree(math.Atan2(v.Y, v.X))
	return NewPoint(ra, dec)
}

// RA returns the right ascension of a point, in degrees, in [0, 360).
func (p Point) RA() float64 { return p.ra }

// Dec returns the declination of a point, in degrees, in [-90, 90].
func (p Point) Dec() float64 { return p.dec }

// Vector returns the unit-length 3D vector representation of a point.
func (p Point) Vector() r3.Vec { return p.vec }

// Chord2 returns the square of the Euclidean chord distance between
// two points on the unit sphere.
func Chord2(p, q Point) float64 {
	v := r3.Sub(p.vec, q.vec)
	return r3.Norm2(v)
}

// Sin2HalfAngle returns sin²(θ/2), where θ is the angular separation
// between p and q, computed from the chord distance without any inverse
// trigonometric call: chord² = 4·sin²(θ/2).
func Sin2HalfAngle(p, q Point) float64 {
	return Chord2(p, q) / 4
}

// Distance returns the great circle distance, in radians, between two
// points on the unit sphere.
func Distance(p, q Point) float64 {
	dot := r3.Dot(p.vec, q.vec)
	if dot > 1 {
		dot = 1
	}
	if dot < -1 {
		dot = -1
	}
	return math.Acos(dot)
}

// Sin2HalfAngleOf returns sin²(θ/2) for an angle θ in radians.
func Sin2HalfAngleOf(theta float64) float64 {
	s := math.Sin(theta / 2)
	return s * s
}

// Destination returns the point reached starting at p, moving a given
// angular distance (in radians) along a given bearing (in radians, 0 =
// north, increasing eastward).
func Destination(p Point, dist, bearing float64) Point {
	pDec := ToRad(p.dec)

	sinDec := math.Sin(pDec)*math.Cos(dist) + math.Cos(pDec)*math.Sin(dist)*math.Cos(bearing)
	rDec := math.Asin(sinDec)
	x := math.Sin(bearing) * math.Sin(dist) * math.Cos(pDec)
	y := math.Cos(dist) - math.Sin(pDec)*math.Sin(rDec)
	ra := p.ra + ToDegree(math.Atan2(x, y))

	return NewPoint(ra, ToDegree(rDec))
}
