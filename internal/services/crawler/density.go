package crawler

import "unicode"

// HangulDensity returns the share of Hangul among all letters in text and
// the Hangul letter count. Digits, punctuation and spaces are ignored.
func HangulDensity(text string) (float64, int) {
	var letters, hangul int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.Is(unicode.Hangul, r) {
			hangul++
		}
	}
	if letters == 0 {
		return 0, 0
	}
	return float64(hangul) / float64(letters), hangul
}

// PassesLanguageDensity reports whether text is plausibly a Korean page
func PassesLanguageDensity(text string, minRatio float64, minCount int) bool {
	ratio, count := HangulDensity(text)
	return ratio >= minRatio && count >= minCount
}
