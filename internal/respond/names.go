package respond

import "strings"

// hangulBase is the first code point of the precomposed Hangul syllable block.
const hangulBase = rune(0xAC00)

// hasFinalConsonant reports whether the last rune of s is a Hangul syllable
// with a 받침 (final consonant). Non-Hangul endings count as open syllables.
func hasFinalConsonant(s string) bool {
	runes := []rune(s)
	if len(runes) == 0 {
		return false
	}
	last := runes[len(runes)-1]
	if last < hangulBase || last > rune(0xD7A3) {
		return false
	}
	return (last-hangulBase)%28 != 0
}

// FirstName strips the surname from a full Korean name. Two-syllable names
// keep the last syllable, longer names keep the last two.
func FirstName(full string) string {
	full = strings.TrimSpace(full)
	runes := []rune(full)
	switch {
	case len(runes) <= 1:
		return full
	case len(runes) == 2:
		return string(runes[1:])
	case len(runes) == 3:
		return string(runes[1:])
	default:
		return string(runes[len(runes)-2:])
	}
}

// Vocative appends the calling particle: 받침 takes 아, open syllables take 야.
func Vocative(name string) string {
	if name == "" {
		return "친구야"
	}
	if hasFinalConsonant(name) {
		return name + "아"
	}
	return name + "야"
}

// Subject appends the subject particle 이/가.
func Subject(name string) string {
	if name == "" {
		return ""
	}
	if hasFinalConsonant(name) {
		return name + "이"
	}
	return name + "가"
}

// Topic appends the topic particle 은/는.
func Topic(name string) string {
	if name == "" {
		return ""
	}
	if hasFinalConsonant(name) {
		return name + "은"
	}
	return name + "는"
}
