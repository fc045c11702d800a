// Copyright © 2022 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package catalog_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/js-arias/wtheta/catalog"
)

func TestReadTSV(t *testing.T) {
	data := `
ra	dec	weight	region
10.684	41.269	1.0	0
83.822	-5.391	0.8	1
`
	cat, err := catalog.ReadTSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("unable to read catalog: %v", err)
	}
	if cat.Len() != 2 {
		t.Fatalf("got %d points, want 2", cat.Len())
	}
	p := cat.At(0)
	if p.Loc.RA() != 10.684 || p.Loc.Dec() != 41.269 || p.Weight != 1.0 || p.RegionID != 0 {
		t.Errorf("unexpected point: %+v", p)
	}
	if want := 1.8; cat.SumWeight() != want {
		t.Errorf("sum weight: got %.6f, want %.6f", cat.SumWeight(), want)
	}
}

func TestReadTSVMissingField(t *testing.T) {
	data := "ra\tdec\n1\t2\n"
	if _, err := catalog.ReadTSV(strings.NewReader(data)); err == nil {
		t.Fatal("expecting error for missing weight field")
	}
}

func TestTSVRoundTrip(t *testing.T) {
	cat := catalog.New()
	cat.Add(catalog.NewPoint(10, 20, 1.5))
	cat.Add(catalog.NewPoint(300, -40, 0.5))

	var buf bytes.Buffer
	if err := cat.TSV(&buf); err != nil {
		t.Fatalf("unable to write catalog: %v", err)
	}

	got, err := catalog.ReadTSV(&buf)
	if err != nil {
		t.Fatalf("unable to read back catalog: %v", err)
	}
	if got.Len() != cat.Len() {
		t.Fatalf("got %d points, want %d", got.Len(), cat.Len())
	}
	for i := 0; i < cat.Len(); i++ {
		want := cat.At(i)
		p := got.At(i)
		if p.Loc.RA() != want.Loc.RA() || p.Loc.Dec() != want.Loc.Dec() || p.Weight != want.Weight {
			t.Errorf("point %d: got %+v, want %+v", i, p, want)
		}
	}
}
