// Copyright © 2022 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package mask is a metapackage for commands that deal with footprint
// mask files.
package mask

import (
	"github.com/js-arias/command"

	"github.com/js-arias/wtheta/cmd/wtheta/mask/build"
)

var Command = &command.Command{
	Usage: "mask <command> [<argument>...]",
	Short: "commands for footprint mask files",
}

func init() {
	Command.Add(build.Command)
}
