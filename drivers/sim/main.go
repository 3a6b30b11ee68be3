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

// tide-driver-sim is the simulated hardware driver as a standalone
// plugin binary, for exercising the out-of-process driver path.
package main

import (
	"github.com/we-are-mono/tide/hw"
)

func main() {
	hw.ServeDriver(hw.NewSimDriver(0))
}
