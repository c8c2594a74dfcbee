package text

import "strings"

const (
	Pad         = "_"
	Punctuation = "!'(),.:;? "
	Special     = "-"
	Letters     = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
)

// Arpabet is the CMUdict phoneme inventory with stress markers.
var Arpabet = []string{
	"AA", "AA0", "AA1", "AA2", "AE", "AE0", "AE1", "AE2", "AH", "AH0", "AH1", "AH2",
	"AO", "AO0", "AO1", "AO2", "AW", "AW0", "AW1", "AW2", "AY", "AY0", "AY1", "AY2",
	"B", "CH", "D", "DH", "EH", "EH0", "EH1", "EH2", "ER", "ER0", "ER1", "ER2", "EY",
	"EY0", "EY1", "EY2", "F", "G", "HH", "IH", "IH0", "IH1", "IH2", "IY", "IY0", "IY1",
	"IY2", "JH", "K", "L", "M", "N", "NG", "OW", "OW0", "OW1", "OW2", "OY", "OY0",
	"OY1", "OY2", "P", "R", "S", "SH", "T", "TH", "UH", "UH0", "UH1", "UH2", "UW",
	"UW0", "UW1", "UW2", "V", "W", "Y", "Z", "ZH",
}

// Symbols is the ordered symbol table; a symbol's id is its index. ARPAbet
// phonemes carry an "@" prefix to keep them apart from letters.
var Symbols = func() []string {
	var out []string
	out = append(out, Pad)
	for _, set := range []string{Special, Punctuation, Letters} {
		for _, r := range set {
			out = append(out, string(r))
		}
	}
	for _, p := range Arpabet {
		out = append(out, "@"+p)
	}

	return out
}()

var symbolToID = func() map[string]int64 {
	m := make(map[string]int64, len(Symbols))
	for i, s := range Symbols {
		m[s] = int64(i)
	}

	return m
}()

// SymbolID returns the id of s.
func SymbolID(s string) (int64, bool) {
	id, ok := symbolToID[s]
	return id, ok
}

func symbolsToSequence(s string, out []int64) []int64 {
	for _, r := range s {
		sym := string(r)
		if sym == Pad {
			continue
		}
		if id, ok := symbolToID[sym]; ok {
			out = append(out, id)
		}
	}

	return out
}

func arpabetToSequence(s string, out []int64) []int64 {
	for _, p := range strings.Fields(s) {
		if id, ok := symbolToID["@"+p]; ok {
			out = append(out, id)
		}
	}

	return out
}
