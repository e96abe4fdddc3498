package gpu

// VGA is the 16-colour palette of the VGA text mode.
var VGA = []int{
	0x000000, 0x0000aa, 0x00aa00, 0x00aaaa, 0xaa0000, 0xaa00aa, 0xaa5500, 0xaaaaaa,
	0x555555, 0x5555ff, 0x55ff55, 0x55ffff, 0xff5555, 0xff55ff, 0xffff55, 0xffffff,
}

// Nearest returns the index of the palette entry closest to rgb, measured
// as the sum of absolute per-channel differences. Ties go to the lowest
// index.
func Nearest(palette []int, rgb int) int {
	best, bestDist := 0, -1
	for i, p := range palette {
		d := abs(rgb>>16&0xff-p>>16&0xff) +
			abs(rgb>>8&0xff-p>>8&0xff) +
			abs(rgb&0xff-p&0xff)
		if bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
		if d == 0 {
			break
		}
	}
	return best
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
