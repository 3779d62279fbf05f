// Package form recognises tax forms (1095, 1099, W-2) and pulls out a few headline fields.
package form

import (
	"regexp"
	"strings"
)

// Unknown is the form type when no marker matched.
const Unknown = "Unknown"

type Info struct {
	Type   string            `json:"form_type"`
	Year   string            `json:"form_year"`
	Fields map[string]string `json:"fields"`
}

var formTypes = []struct {
	name    string
	markers []string
}{
	{"1095-A", []string{"1095-A"}},
	{"1095-B", []string{"1095-B"}},
	{"1095-C", []string{"1095-C"}},
	{"1099-MISC", []string{"1099-MISC"}},
	{"1099-NEC", []string{"1099-NEC"}},
	{"1099-INT", []string{"1099-INT"}},
	{"W-2", []string{"W-2", "W2"}},
}

type fieldRule struct {
	name    string
	pattern *regexp.Regexp
}

const money = `\$?\s*([\d,]+\.\d{2})`

var (
	einField = fieldRule{"employer_ein", regexp.MustCompile(`(?i)employer(?:'s)?\s+identification\s+number[^\d]{0,40}(\d{2}-\d{7})`)}
	tinField = fieldRule{"payer_tin", regexp.MustCompile(`(?i)payer'?s\s+(?:federal\s+)?(?:TIN|identification number)[^\d]{0,40}(\d{2}-\d{7})`)}
)

// Per-type field rules. The first capture group is the value.
var fieldRules = map[string][]fieldRule{
	"W-2": {
		einField,
		{"wages", regexp.MustCompile(`(?i)wages,\s*tips,\s*other\s+comp(?:ensation|\.)?[^\d$]{0,40}` + money)},
		{"federal_income_tax_withheld", regexp.MustCompile(`(?i)federal\s+income\s+tax\s+withheld[^\d$]{0,40}` + money)},
	},
	"1099-INT": {
		tinField,
		{"interest_income", regexp.MustCompile(`(?i)interest\s+income[^\d$]{0,40}` + money)},
	},
	"1099-NEC": {
		tinField,
		{"nonemployee_compensation", regexp.MustCompile(`(?i)nonemployee\s+compensation[^\d$]{0,40}` + money)},
	},
	"1099-MISC": {
		tinField,
		{"rents", regexp.MustCompile(`(?i)\brents[^\d$]{0,40}` + money)},
		{"other_income", regexp.MustCompile(`(?i)other\s+income[^\d$]{0,40}` + money)},
	},
	"1095-A": {
		{"marketplace_identifier", regexp.MustCompile(`(?i)marketplace\s+identifier[^\w]{0,20}([A-Z0-9-]{4,})`)},
		{"policy_number", regexp.MustCompile(`(?i)policy\s+number[^\w]{0,20}([A-Z0-9-]{4,})`)},
	},
}

var (
	labelledYearRegex = regexp.MustCompile(`(?i)(?:TAX\s*YEAR|CALENDAR\s*YEAR|FOR\s*(?:THE\s*)?YEAR)\s*(\d{4})`)
	bareYearRegex     = regexp.MustCompile(`20[1-3]\d`)
)

// Detect identifies the form type and year and extracts the fields known for that type.
func Detect(text string) Info {
	upper := strings.ToUpper(text)
	info := Info{Type: Unknown, Fields: map[string]string{}}

	for _, ft := range formTypes {
		if containsAny(upper, ft.markers) {
			info.Type = ft.name
			break
		}
	}

	if m := labelledYearRegex.FindStringSubmatch(text); m != nil {
		info.Year = m[1]
	} else if y := bareYearRegex.FindString(text); y != "" {
		info.Year = y
	}

	for _, rule := range fieldRules[info.Type] {
		if m := rule.pattern.FindStringSubmatch(text); m != nil {
			info.Fields[rule.name] = strings.TrimSpace(m[1])
		}
	}
	return info
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
