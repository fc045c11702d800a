// Copyright © 2022 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package sky_test

import (
	"math"
	"testing"

	"github.com/js-arias/wtheta/sky"
)

func TestDistance(t *testing.T) {
	tests := map[string]struct {
		p1, p2 sky.Point
		dist   float64
	}{
		"Cape Town - Stockholm": {
			p1:   sky.NewPoint(18, -34),
			p2:   sky.NewPoint(18, 59),
			dist: sky.ToRad(93),
		},
		"equator arc": {
			p1:   sky.NewPoint(20, 0),
			p2:   sky.NewPoint(21, 0),
			dist: sky.ToRad(1),
		},
		"equal": {
			p1: sky.NewPoint(146, -44),
			p2: sky.NewPoint(146, -44),
		},
		"antipodes": {
			p1:   sky.NewPoint(30, 30),
			p2:   sky.NewPoint(210, -30),
			dist: sky.ToRad(180),
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got := sky.Distance(test.p1, test.p2)
			if math.IsNaN(got) {
				t.Fatalf("%s: NaN distance, want %.6f", name, test.dist)
			}
			if diff := math.Abs(got - test.dist); diff > 0.05 {
				t.Errorf("%s: got %.6f, want %.6f", name, got, test.dist)
			}
		})
	}
}

func TestSin2HalfAngle(t *testing.T) {
	p1 := sky.NewPoint(0, 0)
	p2 := sky.NewPoint(1, 0)

	theta := sky.Distance(p1, p2)
	want := sky.Sin2HalfAngleOf(theta)
	got := sky.Sin2HalfAngle(p1, p2)

	if diff := math.Abs(got - want); diff > 1e-9 {
		t.Errorf("sin2 half angle: got %.9f, want %.9f", got, want)
	}
}

func TestDestinationRoundTrip(t *testing.T) {
	p := sky.NewPoint(100, 20)
	dist := sky.ToRad(5)
	bearing := sky.ToRad(37)

	q := sky.Destination(p, dist, bearing)
	got := sky.Distance(p, q)
	if diff := math.Abs(got - dist); diff > 1e-6 {
		t.Errorf("destination distance: got %.9f, want %.9f", got, dist)
	}
}
