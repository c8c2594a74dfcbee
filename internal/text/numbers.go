package text

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/neurlang/NumToWordsGo/NumToWords"
)

var (
	commaNumberRe   = regexp.MustCompile(`([0-9][0-9,]+[0-9])`)
	decimalNumberRe = regexp.MustCompile(`([0-9]+\.[0-9]+)`)
	poundsRe        = regexp.MustCompile(`£([0-9,]*[0-9]+)`)
	dollarsRe       = regexp.MustCompile(`\$([0-9.,]*[0-9]+)`)
	ordinalRe       = regexp.MustCompile(`[0-9]+(st|nd|rd|th)`)
	numberRe        = regexp.MustCompile(`[0-9]+`)
)

// ExpandNumbers spells out cardinals, ordinals, decimals, years and currency
// amounts in English.
func ExpandNumbers(s string) string {
	s = commaNumberRe.ReplaceAllStringFunc(s, func(m string) string {
		return strings.ReplaceAll(m, ",", "")
	})
	s = poundsRe.ReplaceAllString(s, "$1 pounds")
	s = dollarsRe.ReplaceAllStringFunc(s, func(m string) string {
		return expandDollars(dollarsRe.FindStringSubmatch(m)[1])
	})
	s = decimalNumberRe.ReplaceAllStringFunc(s, func(m string) string {
		return strings.Replace(m, ".", " point ", 1)
	})
	s = ordinalRe.ReplaceAllStringFunc(s, func(m string) string {
		n, err := strconv.Atoi(m[:len(m)-2])
		if err != nil {
			return m
		}
		return OrdinalWords(n)
	})
	s = numberRe.ReplaceAllStringFunc(s, expandNumber)

	return s
}

func expandDollars(amount string) string {
	parts := strings.Split(amount, ".")
	if len(parts) > 2 {
		return amount + " dollars"
	}

	dollars, _ := strconv.Atoi(strings.ReplaceAll(parts[0], ",", ""))
	cents := 0
	if len(parts) > 1 {
		cents, _ = strconv.Atoi(parts[1])
	}

	unit := func(n int, one, many string) string {
		if n == 1 {
			return one
		}
		return many
	}

	switch {
	case dollars > 0 && cents > 0:
		return strconv.Itoa(dollars) + " " + unit(dollars, "dollar", "dollars") + ", " +
			strconv.Itoa(cents) + " " + unit(cents, "cent", "cents")
	case dollars > 0:
		return strconv.Itoa(dollars) + " " + unit(dollars, "dollar", "dollars")
	case cents > 0:
		return strconv.Itoa(cents) + " " + unit(cents, "cent", "cents")
	default:
		return "zero dollars"
	}
}

// expandNumber reads numbers between 1000 and 3000 as years.
func expandNumber(m string) string {
	n, err := strconv.Atoi(m)
	if err != nil {
		return m
	}

	if n <= 1000 || n >= 3000 {
		return CardinalWords(n)
	}

	switch {
	case n == 2000:
		return "two thousand"
	case n > 2000 && n < 2010:
		return "two thousand " + CardinalWords(n%100)
	case n%100 == 0:
		return CardinalWords(n/100) + " hundred"
	case n%100 < 10:
		return CardinalWords(n/100) + " oh " + CardinalWords(n%100)
	default:
		return CardinalWords(n/100) + " " + CardinalWords(n%100)
	}
}

// CardinalWords returns the lowercase English words for n. Numbers the
// converter rejects are returned as digits.
func CardinalWords(n int) string {
	if n == 0 {
		return "zero"
	}

	words, err := NumToWords.Convert(n, "en")
	if err != nil {
		return strconv.Itoa(n)
	}

	return hyphenateTens(strings.Fields(strings.ToLower(words)))
}

var (
	tensWords  = map[string]bool{"twenty": true, "thirty": true, "forty": true, "fifty": true, "sixty": true, "seventy": true, "eighty": true, "ninety": true}
	unitsWords = map[string]bool{"one": true, "two": true, "three": true, "four": true, "five": true, "six": true, "seven": true, "eight": true, "nine": true}
)

// hyphenateTens joins tens and units compounds, "twenty one" -> "twenty-one".
func hyphenateTens(words []string) string {
	out := make([]string, 0, len(words))
	for i := 0; i < len(words); i++ {
		if i+1 < len(words) && tensWords[words[i]] && unitsWords[words[i+1]] {
			out = append(out, words[i]+"-"+words[i+1])
			i++
			continue
		}
		out = append(out, words[i])
	}

	return strings.Join(out, " ")
}

var irregularOrdinals = map[string]string{
	"one":    "first",
	"two":    "second",
	"three":  "third",
	"five":   "fifth",
	"eight":  "eighth",
	"nine":   "ninth",
	"twelve": "twelfth",
}

// OrdinalWords returns the English ordinal for n, e.g. "twenty-first".
func OrdinalWords(n int) string {
	words := CardinalWords(n)

	cut := strings.LastIndexAny(words, " -") + 1
	head, last := words[:cut], words[cut:]

	if irr, ok := irregularOrdinals[last]; ok {
		return head + irr
	}
	if strings.HasSuffix(last, "y") {
		return head + strings.TrimSuffix(last, "y") + "ieth"
	}

	return head + last + "th"
}
