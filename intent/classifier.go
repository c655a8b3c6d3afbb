package intent

import (
	"time"

	"go.uber.org/zap"

	"github.com/teranos/roomq/ai/provider"
	"github.com/teranos/roomq/errors"
)

// New builds the classifier for strategy. The model strategy requires client.
func New(strategy Strategy, client provider.AIClient, timeout time.Duration, log *zap.SugaredLogger) (Classifier, error) {
	switch strategy {
	case StrategyRules, "":
		return NewRuleClassifier(), nil
	case StrategyModel:
		if client == nil {
			return nil, errors.WithHint(
				errors.Mark(errors.New("model classifier needs an AI client"), errors.ErrServiceUnavailable),
				"configure openrouter.api_key or local_inference, or use classifier.strategy = \"rules\"")
		}
		return NewModelClassifier(client, timeout, log), nil
	}
	return nil, errors.Newf("unknown classifier strategy %q", strategy)
}

var (
	_ Classifier = (*RuleClassifier)(nil)
	_ Classifier = (*ModelClassifier)(nil)
)
