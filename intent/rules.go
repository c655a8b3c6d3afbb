package intent

import (
	"context"
	"regexp"
	"strings"
)

// rule is one entry of the keyword priority list
type rule struct {
	keywords []string
	pattern  *regexp.Regexp
	intent   Intent
}

func (r rule) matches(q string) bool {
	for _, k := range r.keywords {
		if strings.Contains(q, k) {
			return true
		}
	}
	return r.pattern != nil && r.pattern.MatchString(q)
}

// rules is the fixed priority list, first match wins:
//
//  1. forecast, predict, projection, trend → forecast
//  2. the words cold(est), cool(est), lowest temp → temperature_extreme(coldest)
//  3. hot, temperature, warm → temperature_extreme(hottest)
//  4. occup → occupancy_pattern
//  5. air condition, the word "ac", acN / ac N → ac_mapping
//  6. anything else → fallback
//
// Forecast comes first so "predict occupancy" is a forecast, and coldest
// precedes hottest so "lowest temperature" is not read as hottest. Cold and
// cool only match as whole words: "cools" and "cooling" describe AC units.
var rules = []rule{
	{keywords: []string{"forecast", "predict", "projection", "trend"}, intent: Intent{Action: ActionForecast}},
	{keywords: []string{"lowest temp"}, pattern: regexp.MustCompile(`\b(cold|cool)(est)?\b`), intent: Intent{Action: ActionTemperatureExtreme, Extreme: Coldest}},
	{keywords: []string{"hot", "temperature", "warm"}, intent: Intent{Action: ActionTemperatureExtreme, Extreme: Hottest}},
	{keywords: []string{"occup"}, intent: Intent{Action: ActionOccupancyPattern}},
	{keywords: []string{"air condition"}, pattern: regexp.MustCompile(`\bac\s?\d*\b`), intent: Intent{Action: ActionACMapping}},
}

var (
	roomPattern   = regexp.MustCompile(`\broom\s*#?\s*([a-z]?\d+[a-z]?)\b`)
	numberPattern = regexp.MustCompile(`\b(\d{3})\b\s*(°|degrees?\b|deg\b|[cf]\b|%|percent\b)?`)
)

// RuleClassifier is the deterministic keyword classifier
type RuleClassifier struct{}

// NewRuleClassifier creates a RuleClassifier
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

// Classify never fails
func (RuleClassifier) Classify(_ context.Context, question string) (Intent, error) {
	q := strings.ToLower(strings.TrimSpace(question))

	result := Fallback()
	for _, r := range rules {
		if r.matches(q) {
			result = r.intent
			break
		}
	}
	result.Room = ExtractRoom(q)
	return result, nil
}

// Strategy returns StrategyRules
func (RuleClassifier) Strategy() Strategy {
	return StrategyRules
}

// ExtractRoom finds a room identifier: "room <id>", or a bare three-digit
// number that is not followed by a unit ("100 degrees", "250 %")
func ExtractRoom(question string) string {
	q := strings.ToLower(question)
	if m := roomPattern.FindStringSubmatch(q); m != nil {
		return strings.ToUpper(m[1])
	}
	for _, m := range numberPattern.FindAllStringSubmatch(q, -1) {
		if m[2] == "" {
			return m[1]
		}
	}
	return ""
}
