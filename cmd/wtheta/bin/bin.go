// Copyright © 2022 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package bin implements a command to look up skypix pixel identities:
// given coordinates, the pixel that contains them; given a pixel ID,
// its center coordinates.
package bin

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/js-arias/command"

	"github.com/js-arias/wtheta/sky"
	"github.com/js-arias/wtheta/skypix"
)

var Command = &command.Command{
	Usage: "bin [-r|--resolution <value>] [--id] [<value>...]",
	Short: "look up skypix pixel identities",
	Long: `
Command bin retrieves the skypix pixel ID that contains a coordinate, or the
central coordinate of a pixel ID, at a given resolution.

Values to be retrieved will be read as arguments. If no argument is given,
values are read from the standard input, one per line, ignoring lines
starting with '#'.

By default values are read as "ra dec" coordinate pairs (both in degrees,
separate arguments), and the pixel ID that contains each is printed. If the
flag --id is defined, values are instead read as pixel IDs, and the central
right ascension and declination of each is printed.

The flag --resolution, or -r, sets the pixel resolution (a power of two,
default 64).
	`,
	SetFlags: setFlags,
	Run:      run,
}

var (
	resolution int
	idFlag     bool
)

func setFlags(c *command.Command) {
	c.Flags().BoolVar(&idFlag, "id", false, "")
	c.Flags().IntVar(&resolution, "resolution", 64, "")
	c.Flags().IntVar(&resolution, "r", 64, "")
}

func run(c *command.Command, args []string) error {
	if !skypix.IsPowerOfTwo(resolution) {
		return fmt.Errorf("invalid resolution %d: must be a power of two", resolution)
	}

	if idFlag {
		var ids []skypix.ID
		if len(args) == 0 {
			var err error
			ids, err = inIDs(c.Stdin())
			if err != nil {
				return err
			}
		} else {
			for _, a := range args {
				id, err := parseID(a)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
		}

		fmt.Fprintf(c.Stdout(), "pixel\tra\tdec\n")
		for _, id := range ids {
			p := skypix.Center(resolution, id)
			fmt.Fprintf(c.Stdout(), "%d\t%.6f\t%.6f\n", id, p.RA(), p.Dec())
		}
		return nil
	}

	var pts []sky.Point
	if len(args) == 0 {
		var err error
		pts, err = inRADec(c.Stdin())
		if err != nil {
			return err
		}
	} else {
		if len(args)%2 != 0 {
			return fmt.Errorf("invalid number of coordinates: %d", len(args))
		}
		for i := 0; i < len(args); i += 2 {
			p, err := parsePoint(args[i], args[i+1])
			if err != nil {
				return err
			}
			pts = append(pts, p)
		}
	}

	fmt.Fprintf(c.Stdout(), "ra\tdec\tpixel\n")
	for _, p := range pts {
		id := skypix.Pixel(resolution, p)
		fmt.Fprintf(c.Stdout(), "%.6f\t%.6f\t%d\n", p.RA(), p.Dec(), id)
	}
	return nil
}

func inRADec(in io.Reader) ([]sky.Point, error) {
	var pts []sky.Point
	r := bufio.NewReader(in)
	for i := 1; ; i++ {
		ln, err := r.ReadString('\n')
		if ln == "" && err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("at line %d: %v", i, err)
		}
		ln = strings.TrimSpace(ln)
		if ln == "" || ln[0] == '#' {
			continue
		}
		v := strings.Fields(ln)
		if len(v) < 2 {
			return nil, fmt.Errorf("at line %d: invalid value %q: expecting \"ra dec\"", i, ln)
		}
		p, err := parsePoint(v[0], v[1])
		if err != nil {
			return nil, fmt.Errorf("at line %d: %v", i, err)
		}
		pts = append(pts, p)
	}
	return pts, nil
}

func inIDs(in io.Reader) ([]skypix.ID, error) {
	var ids []skypix.ID
	r := bufio.NewReader(in)
	for i := 1; ; i++ {
		ln, err := r.ReadString('\n')
		if ln == "" && err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("at line %d: %v", i, err)
		}
		ln = strings.TrimSpace(ln)
		if ln == "" || ln[0] == '#' {
			continue
		}
		id, err := parseID(ln)
		if err != nil {
			return nil, fmt.Errorf("at line %d: %v", i, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseID(s string) (skypix.ID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid pixel ID %q: %v", s, err)
	}
	return skypix.ID(v), nil
}

func parsePoint(raStr, decStr string) (sky.Point, error) {
	ra, err := strconv.ParseFloat(raStr, 64)
	if err != nil {
		return sky.Point{}, fmt.Errorf("invalid right ascension: %q: %v", raStr, err)
	}
	dec, err := strconv.ParseFloat(decStr, 64)
	if err != nil {
		return sky.Point{}, fmt.Errorf("invalid declination: %q: %v", decStr, err)
	}
	return sky.NewPoint(ra, dec), nil
}
