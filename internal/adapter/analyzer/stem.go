package analyzer

import "strings"

// minStem is the shortest stem a suffix may be stripped down to.
const minStem = 3

// Stem applies a light English suffix stripper. It only needs to map
// inflections of the same word onto one term, e.g. "requires" and
// "requirements" both become "requir".
func Stem(word string) string {
	if len(word) <= minStem {
		return word
	}

	stem, verbal := stripSuffix(word)
	if verbal {
		stem = undouble(stem)
	}
	if len(stem) > 4 && strings.HasSuffix(stem, "e") {
		stem = stem[:len(stem)-1]
	}
	return stem
}

func stripSuffix(word string) (string, bool) {
	try := func(suffix, repl string) (string, bool) {
		if !strings.HasSuffix(word, suffix) {
			return "", false
		}
		stem := word[:len(word)-len(suffix)] + repl
		if len(stem) < minStem {
			return "", false
		}
		return stem, true
	}

	for _, suffix := range []string{"ments", "ment"} {
		if s, ok := try(suffix, ""); ok {
			return s, false
		}
	}
	for _, suffix := range []string{"ings", "ing", "ed"} {
		if s, ok := try(suffix, ""); ok {
			return s, true
		}
	}
	if s, ok := try("ies", "y"); ok {
		return s, false
	}
	if s, ok := try("sses", "ss"); ok {
		return s, false
	}
	for _, suffix := range []string{"xes", "zes", "ches", "shes"} {
		if s, ok := try(suffix, suffix[:len(suffix)-2]); ok {
			return s, false
		}
	}
	if strings.HasSuffix(word, "ss") || strings.HasSuffix(word, "us") {
		return word, false
	}
	if s, ok := try("s", ""); ok {
		return s, false
	}
	return word, false
}

// undouble turns "runn" into "run" after removing -ing or -ed.
func undouble(stem string) string {
	n := len(stem)
	if n < 2 || stem[n-1] != stem[n-2] {
		return stem
	}
	switch stem[n-1] {
	case 'l', 's', 'z', 'a', 'e', 'i', 'o', 'u':
		return stem
	}
	return stem[:n-1]
}
