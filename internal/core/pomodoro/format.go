package pomodoro

import "fmt"

// Format renders seconds as zero-padded mm:ss. Negative values render as 00:00.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
