// Package intent classifies questions into the action roomq should take and
// the room, if any, they are about.
package intent

import (
	"context"
	"fmt"

	"github.com/teranos/roomq/errors"
)

// Action is the kind of answer a question asks for
type Action string

const (
	ActionTemperatureExtreme Action = "temperature_extreme"
	ActionOccupancyPattern   Action = "occupancy_pattern"
	ActionACMapping          Action = "ac_mapping"
	ActionForecast           Action = "forecast"
	ActionFallback           Action = "fallback"
)

// Extreme selects hottest or coldest for temperature_extreme
type Extreme string

const (
	Hottest Extreme = "hottest"
	Coldest Extreme = "coldest"
)

// Strategy names a classifier implementation
type Strategy string

const (
	StrategyRules Strategy = "rules"
	StrategyModel Strategy = "model"
)

// Intent is a classified question
type Intent struct {
	Action  Action  `json:"action"`
	Extreme Extreme `json:"extreme,omitempty"`
	Room    string  `json:"room,omitempty"`
}

// Fallback is the intent for questions nothing else matches
func Fallback() Intent {
	return Intent{Action: ActionFallback}
}

// Structured reports whether the intent has a canonical graph query and a
// tabular representation
func (i Intent) Structured() bool {
	switch i.Action {
	case ActionTemperatureExtreme, ActionOccupancyPattern, ActionACMapping:
		return true
	}
	return false
}

func (i Intent) String() string {
	s := string(i.Action)
	if i.Action == ActionTemperatureExtreme && i.Extreme != "" {
		s = fmt.Sprintf("%s(%s)", s, i.Extreme)
	}
	if i.Room != "" {
		s += " room=" + i.Room
	}
	return s
}

// Classifier maps a question to an Intent.
//
// Implementations never panic. On failure they return Fallback() together
// with an error marked errors.ErrClassification, so callers can log the
// error and keep going with the fallback intent.
type Classifier interface {
	Classify(ctx context.Context, question string) (Intent, error)
	Strategy() Strategy
}

// ParseStrategy converts a configuration value into a Strategy
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyRules, "":
		return StrategyRules, nil
	case StrategyModel:
		return StrategyModel, nil
	}
	return "", errors.Newf("unknown classifier strategy %q (valid: rules, model)", s)
}
