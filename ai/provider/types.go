package provider

import (
	"github.com/teranos/roomq/errors"
)

// ProviderType represents the type of LLM provider
type ProviderType string

const (
	ProviderTypeLocal      ProviderType = "local"      // Ollama, LocalAI, or any OpenAI-compatible local server
	ProviderTypeOpenRouter ProviderType = "openrouter" // OpenRouter cloud service (gateway to multiple models)
	ProviderTypeAuto       ProviderType = "auto"       // local when enabled, otherwise OpenRouter
)

// ParseProvider converts a string to a ProviderType
func ParseProvider(s string) (ProviderType, error) {
	switch s {
	case "local", "ollama", "localai":
		return ProviderTypeLocal, nil
	case "openrouter", "or":
		return ProviderTypeOpenRouter, nil
	case "auto", "":
		return ProviderTypeAuto, nil
	default:
		return "", errors.Newf("unknown provider: %s (valid: local, openrouter, auto)", s)
	}
}
