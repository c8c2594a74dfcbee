package text

import "regexp"

type abbreviation struct {
	re   *regexp.Regexp
	full string
}

var abbreviations = func() []abbreviation {
	pairs := [][2]string{
		{"mrs", "misess"},
		{"mr", "mister"},
		{"dr", "doctor"},
		{"st", "saint"},
		{"co", "company"},
		{"jr", "junior"},
		{"maj", "major"},
		{"gen", "general"},
		{"drs", "doctors"},
		{"rev", "reverend"},
		{"lt", "lieutenant"},
		{"hon", "honorable"},
		{"sgt", "sergeant"},
		{"capt", "captain"},
		{"esq", "esquire"},
		{"ltd", "limited"},
		{"col", "colonel"},
		{"ft", "fort"},
	}

	out := make([]abbreviation, len(pairs))
	for i, p := range pairs {
		out[i] = abbreviation{
			re:   regexp.MustCompile(`(?i)\b` + p[0] + `\.`),
			full: p[1],
		}
	}

	return out
}()

// ExpandAbbreviations spells out common English titles and abbreviations
// that end in a period, e.g. "dr." becomes "doctor".
func ExpandAbbreviations(s string) string {
	for _, a := range abbreviations {
		s = a.re.ReplaceAllLiteralString(s, a.full)
	}

	return s
}
