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

package array

import (
	"fmt"

	"github.com/we-are-mono/tide/types"
)

// Health thresholds. Battery voltages are lead-acid resting voltages;
// panel voltages bound the expected MPPT input window.
const (
	batteryCriticalV = 12.2
	batteryLowV      = 13.0
	panelHighV       = 80.0
	panelOfflineV    = 20.0
)

// CheckHealth derives a system health report from a telemetry
// snapshot.
func CheckHealth(rows []types.Telemetry) types.HealthReport {
	report := types.HealthReport{}

	for _, row := range rows {
		if row.StageID == BatteryStageID {
			switch {
			case row.VoutV < batteryCriticalV:
				report.Errors = append(report.Errors, "Battery critically low - charging required")
			case row.VoutV < batteryLowV:
				report.Warnings = append(report.Warnings, "Battery voltage below optimal")
			}
			continue
		}

		switch {
		case row.VinV > panelHighV:
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s: Panel voltage high", row.StageID))
		case row.VinV < panelOfflineV:
			report.Errors = append(report.Errors, fmt.Sprintf("%s: Panel offline or disconnected", row.StageID))
		}
	}

	switch {
	case len(report.Errors) > 0:
		report.Status = "error"
	case len(report.Warnings) > 0:
		report.Status = "warning"
	default:
		report.Status = "ok"
		report.Info = []string{"All systems nominal"}
	}
	return report
}
