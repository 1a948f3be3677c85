package utils

import (
	"strings"
	"unicode"
)

// knownPlaces is the gazetteer of cities, districts and neighbourhoods the
// doctor directory is seeded with, plus generic district words.
var knownPlaces = []string{
	"dhaka", "dhanmondi", "gulshan", "banani", "uttara", "mirpur",
	"mohammadpur", "motijheel", "bashundhara", "badda", "baridhara",
	"farmgate", "shahbag", "panthapath", "tejgaon", "wari", "old dhaka",
	"chittagong", "chattogram", "sylhet", "khulna", "rajshahi", "barisal",
	"rangpur", "comilla", "cumilla", "mymensingh", "gazipur", "narayanganj",
	"bogra", "jessore", "cox's bazar",
	"district", "division", "upazila", "thana", "road", "sector", "block",
}

// locationLeads are stripped from the front of a location reply, longest
// first so "i live in" wins over "in".
var locationLeads = []string{
	"my location is", "my address is", "i am located in", "i'm located in",
	"i live in", "i stay in", "i am from", "i'm from", "i am in", "i'm in",
	"located in", "i live at", "from", "near", "at", "in",
}

const maxLocationWords = 3

func mentionsKnownPlace(lower string) bool {
	return containsAnyKeyword(lower, knownPlaces)
}

// ExtractLocation pulls a location out of a free-text reply: leading
// phrases are dropped and up to three remaining words are title-cased.
// When nothing is left the trimmed message is returned.
func ExtractLocation(message string) string {
	trimmed := strings.TrimSpace(message)
	rest := strings.ToLower(trimmed)
	for _, lead := range locationLeads {
		if strings.HasPrefix(rest, lead+" ") {
			rest = strings.TrimSpace(rest[len(lead):])
			break
		}
	}

	words := strings.FieldsFunc(rest, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == '.' || r == '!' || r == '?' || r == ';'
	})
	if len(words) == 0 {
		return trimmed
	}
	if len(words) > maxLocationWords {
		words = words[:maxLocationWords]
	}
	for i, w := range words {
		words[i] = titleWord(w)
	}
	return strings.Join(words, " ")
}

func titleWord(w string) string {
	runes := []rune(w)
	if len(runes) == 0 {
		return w
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
