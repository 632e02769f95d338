package parser

import (
	"regexp"
	"strings"
)

var parenRegex = regexp.MustCompile(`\([^)]*\)`)

// nameTokens splits a player name into normalized words, dropping
// parenthesised suffixes such as registration numbers.
func nameTokens(name string) []string {
	name = parenRegex.ReplaceAllString(name, " ")
	var tokens []string
	for _, f := range strings.Fields(name) {
		if n := Normalize(f); n != "" {
			tokens = append(tokens, n)
		}
	}
	return tokens
}

// NameVariants returns the normalized spellings a player name may be shown in:
// as written, and with the surname moved to the other end.
// "Jan Novák" yields ["jannovak", "novakjan"].
func NameVariants(name string) []string {
	tokens := nameTokens(name)
	if len(tokens) == 0 {
		return nil
	}
	variants := []string{strings.Join(tokens, "")}
	if len(tokens) == 1 {
		return variants
	}
	last := tokens[len(tokens)-1]
	rotated := append([]string{last}, tokens[:len(tokens)-1]...)
	variants = append(variants, strings.Join(rotated, ""))
	rest := append(append([]string{}, tokens[1:]...), tokens[0])
	if v := strings.Join(rest, ""); v != variants[1] {
		variants = append(variants, v)
	}
	return variants
}

// Surname returns the normalized surname, assuming the name is written first-last
func Surname(name string) string {
	tokens := nameTokens(name)
	if len(tokens) == 0 {
		return ""
	}
	return tokens[len(tokens)-1]
}

// NamesMatch reports whether shown is the same player as want, ignoring
// case, diacritics and first-last versus last-first ordering.
func NamesMatch(want, shown string) bool {
	s := strings.Join(nameTokens(shown), "")
	if s == "" {
		return false
	}
	for _, v := range NameVariants(want) {
		if v == s {
			return true
		}
	}
	return false
}

// SurnameMatch reports whether shown starts or ends with the surname of want
func SurnameMatch(want, shown string) bool {
	surname := Surname(want)
	tokens := nameTokens(shown)
	if surname == "" || len(tokens) == 0 {
		return false
	}
	return tokens[0] == surname || tokens[len(tokens)-1] == surname
}

// PrefixMatch reports whether shown begins with one of the spellings of want,
// as autocomplete suggestions often append a club or year.
func PrefixMatch(want, shown string) bool {
	s := strings.Join(nameTokens(shown), "")
	if s == "" {
		return false
	}
	for _, v := range NameVariants(want) {
		if strings.HasPrefix(s, v) {
			return true
		}
	}
	return false
}

// BestName picks the entry of candidates that names the same player as want.
// Exact matches win over prefix matches. When both orderings of the name are
// offered, surnameFirst selects the last-first spelling. It returns -1 when
// nothing matches.
func BestName(want string, candidates []string, surnameFirst bool) (int, bool) {
	variants := NameVariants(want)
	if len(variants) == 0 {
		return -1, false
	}
	preferred := variants[0]
	if surnameFirst && len(variants) > 1 {
		preferred = variants[1]
	}
	exact := -1
	for i, c := range candidates {
		if !NamesMatch(want, c) {
			continue
		}
		if strings.Join(nameTokens(c), "") == preferred {
			return i, true
		}
		if exact < 0 {
			exact = i
		}
	}
	if exact >= 0 {
		return exact, true
	}
	for i, c := range candidates {
		if PrefixMatch(want, c) {
			return i, false
		}
	}
	return -1, false
}
