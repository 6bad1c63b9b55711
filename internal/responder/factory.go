package responder

import (
	"fmt"

	"github.com/spec-kit/support-desk/internal/config"
)

// NewProvider builds the provider selected in cfg.
func NewProvider(cfg config.ResponderConfig) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderMock, "":
		return MockProvider{}, nil
	case config.ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case config.ProviderAnthropic:
		return NewAnthropicProvider(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	}
	return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
}

// New builds the configured Responder.
func New(cfg config.ResponderConfig) (*LLMResponder, error) {
	provider, err := NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	return NewLLMResponder(provider, cfg.MaxTokens, cfg.Timeout()), nil
}
