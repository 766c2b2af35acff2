package utils

import "github.com/shirou/gopsutil/cpu"

// CheckCPUUsage samples host CPU and reports whether it is under maxCPUUsage percent.
// A non-positive limit disables the gate.
func CheckCPUUsage(maxCPUUsage float64) (bool, float64) {
	usage, err := cpu.Percent(0, false)
	if err != nil || len(usage) == 0 {
		return true, 0
	}
	if maxCPUUsage <= 0 {
		return true, usage[0]
	}
	return usage[0] <= maxCPUUsage, usage[0]
}
