package dialog

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrNoName    = errors.New("dialog: no usable name in utterance")
	ErrNoEmail   = errors.New("dialog: no valid email in utterance")
	ErrNoAddress = errors.New("dialog: no valid street address in utterance")
	ErrNoPhone   = errors.New("dialog: no valid phone number in utterance")
)

// emailPattern is deliberately RFC-light: local@domain.tld with a real TLD.
// Spoken emails arrive mangled often enough that stricter rules reject more
// good addresses than bad ones.
var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// postcodePattern matches Australian 4-digit postcodes.
var postcodePattern = regexp.MustCompile(`\b\d{4}\b`)

// phonePattern accepts AU mobile and landline shapes with optional +61.
var phonePattern = regexp.MustCompile(`(\+?61|0)[2-578](?:[ \-]?\d){8}`)

// streetTypes are the tokens an address must contain to be accepted.
var streetTypes = map[string]bool{
	"st": true, "street": true,
	"rd": true, "road": true,
	"ave": true, "avenue": true,
	"dr": true, "drive": true,
	"ct": true, "court": true,
	"pl": true, "place": true,
	"cres": true, "crescent": true,
	"hwy": true, "highway": true,
	"lane": true, "ln": true,
	"way": true,
	"pde": true, "parade": true,
	"blvd": true,
}

// nameFillers are leading phrases strippable from a spoken name, e.g.
// "my name is John Smith".
var nameFillers = []string{
	"my name is", "my name's", "the name is", "it's", "it is", "this is", "i'm", "i am",
}

// ExtractName pulls a person's name from an utterance. Names must be one to
// four alphabetic tokens; digits or symbols disqualify a token.
func ExtractName(text string) (string, error) {
	cleaned := strings.TrimSpace(text)
	lower := strings.ToLower(cleaned)
	for _, filler := range nameFillers {
		if strings.HasPrefix(lower, filler+" ") {
			cleaned = strings.TrimSpace(cleaned[len(filler):])
			break
		}
	}
	cleaned = strings.Trim(cleaned, ".,!?")

	words := strings.Fields(cleaned)
	if len(words) == 0 || len(words) > 4 {
		return "", ErrNoName
	}
	for _, w := range words {
		for _, r := range w {
			if !isAlpha(r) && r != '\'' && r != '-' {
				return "", ErrNoName
			}
		}
	}
	return strings.Join(words, " "), nil
}

func isAlpha(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// ExtractEmail finds the first valid email address in an utterance.
// Transcribed speech quirks ("john at example dot com") are normalized
// first.
func ExtractEmail(text string) (string, error) {
	normalized := strings.ToLower(text)
	normalized = strings.ReplaceAll(normalized, " at ", "@")
	normalized = strings.ReplaceAll(normalized, " dot ", ".")
	normalized = strings.ReplaceAll(normalized, " ", "")

	match := emailPattern.FindString(normalized)
	if match == "" {
		return "", ErrNoEmail
	}
	return match, nil
}

// ExtractAddress validates a street address: it must contain a street-type
// token and a 4-digit postcode. The original utterance is returned intact
// because the technician reads it verbatim.
func ExtractAddress(text string) (string, error) {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return "", ErrNoAddress
	}

	hasStreetType := false
	for _, word := range strings.Fields(strings.ToLower(cleaned)) {
		if streetTypes[strings.Trim(word, ".,")] {
			hasStreetType = true
			break
		}
	}
	if !hasStreetType {
		return "", ErrNoAddress
	}
	if !postcodePattern.MatchString(cleaned) {
		return "", ErrNoAddress
	}
	return cleaned, nil
}

// ExtractPhone finds an Australian phone number, normalized to digits with
// an optional leading +61.
func ExtractPhone(text string) (string, error) {
	match := phonePattern.FindString(text)
	if match == "" {
		return "", ErrNoPhone
	}
	var sb strings.Builder
	for _, r := range match {
		if r == '+' || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	return sb.String(), nil
}
