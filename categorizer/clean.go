package categorizer

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	spaceRunRegex = regexp.MustCompile(`\s{2,}`)

	// Applied in order; each match is removed.
	boilerplate = []*regexp.Regexp{
		regexp.MustCompile(`\d{2}/\d{2}\s*`),
		regexp.MustCompile(`(?i)PURCHASE\s*(?:AUTHORIZED ON|RETURN)\s*`),
		regexp.MustCompile(`(?i)RECURRING\s*`),
		regexp.MustCompile(`(?i)CARD\s*\d+\s*`),
		regexp.MustCompile(`(?i)\bPOS\b\s*`),
		// ACH addenda run to the end of the line
		regexp.MustCompile(`(?i)(?:ORIG CO NAME:|CO ENTRY:|SEC:|IND ID:|IND NAME:|TRN\*).*$`),
	}
)

// CleanDescription strips dates, card numbers, purchase boilerplate and ACH addenda,
// then title-cases the rest. When nothing is left the raw description is returned.
func CleanDescription(raw string) string {
	s := spaceRunRegex.ReplaceAllString(raw, " ")
	for _, re := range boilerplate {
		s = re.ReplaceAllString(s, "")
	}
	s = strings.TrimSpace(spaceRunRegex.ReplaceAllString(s, " "))
	if s == "" {
		return raw
	}
	return cases.Title(language.English).String(s)
}
