// Copyright © 2022 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Wtheta is a tool to measure the angular two-point correlation
// function of point catalogs over a survey footprint.
package main

import (
	"github.com/js-arias/command"

	"github.com/js-arias/wtheta/cmd/wtheta/auto"
	"github.com/js-arias/wtheta/cmd/wtheta/bin"
	"github.com/js-arias/wtheta/cmd/wtheta/cross"
	"github.com/js-arias/wtheta/cmd/wtheta/mask"
)

var app = &command.Command{
	Usage: "wtheta <command> [<argument>...]",
	Short: "measure angular two-point correlations over a footprint",
}

func init() {
	app.Add(auto.Command)
	app.Add(cross.Command)
	app.Add(mask.Command)
	app.Add(bin.Command)
}

func main() {
	app.Main()
}
