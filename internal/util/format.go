package util

import (
	"strconv"
)

func FormatNumber(n uint64) string {
	s := strconv.FormatUint(n, 10)

	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}

	return s
}

// PageSpan переводит полуинтервал [begin, end) с нуля в человеческий вид с единицы:
// "page 3" или "pages 3-5".
func PageSpan(begin, end int) string {
	if end-begin == 1 {
		return "page " + strconv.Itoa(end)
	}

	return "pages " + strconv.Itoa(begin+1) + "-" + strconv.Itoa(end)
}
