package sheet

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	digitsOnlyRe  = regexp.MustCompile(`^\d+$`)
	totalMarkerRe = regexp.MustCompile(`총\s*[:：]?\s*(\d+)`)
	leadingRunRe  = regexp.MustCompile(`^(\d+)`)
	digitRunRe    = regexp.MustCompile(`\d+`)
)

// ParseQuantity extracts a count from a free-text cell such as "8박스",
// "1,021개" or "브라 174개, 팬티 492개 총 666개". It never fails; text with
// no digits yields 0.
//
// Precedence: plain number, then the number after a "총" (total) marker,
// then a leading number, then the sum of every number in the text.
func ParseQuantity(value string) int {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	noComma := strings.ReplaceAll(cleaned, ",", "")

	if digitsOnlyRe.MatchString(noComma) {
		return atoiSaturating(noComma)
	}
	if m := totalMarkerRe.FindStringSubmatch(noComma); m != nil {
		return atoiSaturating(m[1])
	}
	if m := leadingRunRe.FindStringSubmatch(noComma); m != nil {
		return atoiSaturating(m[1])
	}

	sum := 0
	for _, run := range digitRunRe.FindAllString(noComma, -1) {
		n := atoiSaturating(run)
		if sum > math.MaxInt-n {
			return math.MaxInt
		}
		sum += n
	}
	return sum
}

func atoiSaturating(digits string) int {
	n, err := strconv.Atoi(digits)
	if err != nil {
		// only ErrRange is possible for a pure digit run
		return math.MaxInt
	}
	return n
}
