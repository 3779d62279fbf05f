package chase

import (
	"regexp"
	"sync"

	"github.com/aqlanhadi/analyzer/extractor/common"
	"github.com/spf13/viper"
)

const configPrefix = "statement.CHASE."

// Compiled defaults, used when the config leaves a key empty.
const (
	defaultTransaction    = `(\d{1,2}/\d{1,2})\s+(.+?)\s+(\(?-?\$?[\d,]+\.\d{2}\)?)\s*$`
	defaultTrailingAmount = `^(.+?)\s+(\(?-?\$?[\d,]+\.\d{2}\)?)$`
	defaultFallbackDate   = `\b(\d{1,2}/\d{1,2})\b`
	defaultFallbackBody   = `^\s+(.+?)\s+(\(?-?\$?[\d,]+\.\d{2}\)?)`
)

var (
	defaultInSections  = []string{"DEPOSIT", "ADDITION", "CREDIT"}
	defaultOutSections = []string{"WITHDRAWAL", "PAYMENT", "PURCHASE", "DEBIT", "FEE", "ELECTRONIC"}
)

type sectionRule struct {
	direction common.Direction
	keywords  []string
}

type config struct {
	// date, description, amount at the end of a line
	Transaction *regexp.Regexp
	// description that itself ends with an amount: the running-balance column case
	TrailingAmount *regexp.Regexp
	FallbackDate   *regexp.Regexp
	FallbackBody   *regexp.Regexp
	// IN is listed first so "DEPOSITS AND CREDITS" never reads as OUT
	Sections []sectionRule
	// keywords in the lookbehind window that make a fallback match an inflow
	InContext []string
}

func loadConfig() (config, error) {
	var cfg config
	var err error

	if cfg.Transaction, err = pattern("patterns.transaction", defaultTransaction); err != nil {
		return cfg, err
	}
	if cfg.TrailingAmount, err = pattern("patterns.trailing_amount", defaultTrailingAmount); err != nil {
		return cfg, err
	}
	if cfg.FallbackDate, err = pattern("patterns.fallback_date", defaultFallbackDate); err != nil {
		return cfg, err
	}
	if cfg.FallbackBody, err = pattern("patterns.fallback_body", defaultFallbackBody); err != nil {
		return cfg, err
	}

	in := stringsOr("sections.in", defaultInSections)
	cfg.Sections = []sectionRule{
		{common.In, in},
		{common.Out, stringsOr("sections.out", defaultOutSections)},
	}
	cfg.InContext = in
	return cfg, nil
}

var compiled sync.Map // expr -> *regexp.Regexp

func pattern(key, fallback string) (*regexp.Regexp, error) {
	expr := viper.GetString(configPrefix + key)
	if expr == "" {
		expr = fallback
	}
	if re, ok := compiled.Load(expr); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	actual, _ := compiled.LoadOrStore(expr, re)
	return actual.(*regexp.Regexp), nil
}

func stringsOr(key string, fallback []string) []string {
	if v := viper.GetStringSlice(configPrefix + key); len(v) > 0 {
		return v
	}
	return fallback
}
