// Package settings provides the runtime-mutable model configuration. Values
// are read through to storage on every call so a settings change takes
// effect on the next chat turn or analysis run without a restart.
package settings

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/summervoice/summervoice/internal/storage"
)

// Settings keys.
const (
	KeyChatModel     = "chat_model"
	KeyAnalysisModel = "analysis_model"
)

// Defaults used when a key has never been written.
const (
	DefaultChatModel     = "claude-sonnet-4-5-20250929"
	DefaultAnalysisModel = "claude-sonnet-4-5-20250929"
)

// Model describes one selectable model for the admin settings panel.
type Model struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// AvailableModels is the allow-list of models an admin can select.
var AvailableModels = []Model{
	{ID: "claude-sonnet-4-5-20250929", Label: "Claude Sonnet 4.5", Description: "Best balance of speed and quality (default)"},
	{ID: "claude-haiku-4-5-20251001", Label: "Claude Haiku 4.5", Description: "Fastest, lowest cost — good for testing"},
	{ID: "claude-opus-4-6", Label: "Claude Opus 4.6", Description: "Most capable — highest quality analysis"},
}

// Store is the persistence surface the provider reads through to.
type Store interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
}

// Provider resolves settings with default fallback. It holds no cache: every
// read reflects the latest stored value.
type Provider struct {
	store Store
}

func NewProvider(store Store) *Provider {
	return &Provider{store: store}
}

// ChatModel returns the model used for live interview turns.
func (p *Provider) ChatModel() string {
	return p.get(KeyChatModel, DefaultChatModel)
}

// AnalysisModel returns the model used for transcript analysis.
func (p *Provider) AnalysisModel() string {
	return p.get(KeyAnalysisModel, DefaultAnalysisModel)
}

func (p *Provider) get(key, fallback string) string {
	value, err := p.store.GetSetting(key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.Warn("settings read failed, using default", "key", key, "error", err)
		}
		return fallback
	}
	if value == "" {
		return fallback
	}
	return value
}

// Update validates and persists a model selection. Only known keys and
// allow-listed model ids are accepted.
func (p *Provider) Update(key, value string) error {
	if key != KeyChatModel && key != KeyAnalysisModel {
		return fmt.Errorf("unknown settings key %q", key)
	}
	if !IsKnownModel(value) {
		return fmt.Errorf("invalid model %q", value)
	}
	if err := p.store.SetSetting(key, value); err != nil {
		return fmt.Errorf("updating setting %s: %w", key, err)
	}
	return nil
}

// All returns the effective settings after default resolution.
func (p *Provider) All() map[string]string {
	return map[string]string{
		KeyChatModel:     p.ChatModel(),
		KeyAnalysisModel: p.AnalysisModel(),
	}
}

// IsKnownModel reports whether id is in the model allow-list.
func IsKnownModel(id string) bool {
	for _, m := range AvailableModels {
		if m.ID == id {
			return true
		}
	}
	return false
}
