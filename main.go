// Copyright (C) 2025 Mono Technologies Inc.
//
// This program is free software; you can redistribute it and/or
// modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; version 2.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.

// Tide is an aquarium controller: wavemaker pump patterns, LED
// lighting presets and a solar power budget behind a Unix-socket
// daemon and CLI.
package main

import (
	"runtime/debug"

	"github.com/we-are-mono/tide/cmd"
)

// Set at build time via ldflags. When left at their defaults the
// binary falls back to module build info, so `go install` builds
// still report a meaningful version.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func version() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

func main() {
	cmd.SetVersion(version(), BuildTime)
	cmd.Execute()
}
