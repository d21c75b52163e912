package layout

// FreeSpaceGB reports the free space available at path in gibibytes,
// rounded to one decimal place the way the original free_space_gb
// helper does. A stat failure reports 0, which the pipeline's
// min_free_gb comparison then treats as out of space.
func FreeSpaceGB(path string) float64 {
	bytes, err := freeSpaceBytes(path)
	if err != nil {
		return 0
	}
	gb := float64(bytes) / (1024 * 1024 * 1024)
	return roundTo1(gb)
}

func roundTo1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
