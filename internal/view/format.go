package view

import "fmt"

var rateUnits = [...]string{"B", "KiB", "MiB", "GiB", "TiB", "PiB", "EiB", "ZiB"}

// FormatRate renders a per-interval byte count as a binary-unit rate.
// A unit is only promoted once the value reaches 2048 of it, so 1.9 KiB/s
// is shown as 1946.0 B/s and 2 KiB/s as 2.0 KiB/s.
func FormatRate(bytes uint64) string {
	b := float64(bytes)
	i := 0
	for b >= 2048 && i < len(rateUnits)-1 {
		b /= 1024
		i++
	}
	return fmt.Sprintf("%.1f %s/s", b, rateUnits[i])
}
