package timer

import "fmt"

// FormatTime splits seconds into zero-padded hours, minutes and seconds.
// Negative input formats as zero.
func FormatTime(s int) (hours, minutes, seconds string) {
	if s < 0 {
		s = 0
	}
	return fmt.Sprintf("%02d", s/3600),
		fmt.Sprintf("%02d", (s%3600)/60),
		fmt.Sprintf("%02d", s%60)
}

// Clock formats seconds as HH:MM:SS.
func Clock(s int) string {
	h, m, sec := FormatTime(s)
	return h + ":" + m + ":" + sec
}
