package probe

import (
	"fmt"

	"github.com/okian/rotorsim/internal/domain/model"
)

// checkSnapshot validates a single KPI snapshot against the previous one.
func checkSnapshot(prev *model.Snapshot, cur model.Snapshot) []string {
	var out []string
	if cur.Health < 0 || cur.Health > model.MaxHealth {
		out = append(out, fmt.Sprintf("health %.4f outside [0,%v]", cur.Health, model.MaxHealth))
	}
	if cur.Temp > model.TempCeiling {
		out = append(out, fmt.Sprintf("temp %.4f above ceiling %v", cur.Temp, model.TempCeiling))
	}
	if cur.Status == model.StatusOffline {
		if cur.RPM != 0 || cur.Power != 0 {
			out = append(out, fmt.Sprintf("offline snapshot reports rpm %d power %.2f", cur.RPM, cur.Power))
		}
	} else if want := model.StatusFor(cur.Health); cur.Status != want {
		out = append(out, fmt.Sprintf("status %q does not match health %.4f (want %q)", cur.Status, cur.Health, want))
	}
	if prev != nil && cur.Health > prev.Health {
		out = append(out, fmt.Sprintf("health increased from %.4f to %.4f", prev.Health, cur.Health))
	}
	return out
}

// checkCharts validates the chart payload.
func checkCharts(c model.Charts) []string {
	var out []string
	if len(c.TorqueHistory) > model.HistoryCapacity {
		out = append(out, fmt.Sprintf("torque history has %d samples, max %d", len(c.TorqueHistory), model.HistoryCapacity))
	}
	if len(c.TorqueHistory) != len(c.TempHistory) {
		out = append(out, fmt.Sprintf("history lengths differ: torque %d temp %d", len(c.TorqueHistory), len(c.TempHistory)))
	}
	if len(c.RULProjection) != model.RULHorizon {
		out = append(out, fmt.Sprintf("rul projection has %d values, want %d", len(c.RULProjection), model.RULHorizon))
	}
	for i, v := range c.RULProjection {
		if v < 0 {
			out = append(out, fmt.Sprintf("rul[%d] = %.4f is negative", i, v))
		}
		if i > 0 && v > c.RULProjection[i-1] {
			out = append(out, fmt.Sprintf("rul[%d] = %.4f exceeds rul[%d] = %.4f", i, v, i-1, c.RULProjection[i-1]))
		}
	}
	return out
}
