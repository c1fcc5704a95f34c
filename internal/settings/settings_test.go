package settings

import (
	"errors"
	"testing"

	"github.com/summervoice/summervoice/internal/storage"
)

type fakeStore struct {
	values map[string]string
	getErr error
	setErr error
}

func (f *fakeStore) GetSetting(key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.values[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (f *fakeStore) SetSetting(key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	if f.values == nil {
		f.values = map[string]string{}
	}
	f.values[key] = value
	return nil
}

func TestDefaultsWhenUnset(t *testing.T) {
	p := NewProvider(&fakeStore{})
	if got := p.ChatModel(); got != DefaultChatModel {
		t.Errorf("ChatModel = %q", got)
	}
	if got := p.AnalysisModel(); got != DefaultAnalysisModel {
		t.Errorf("AnalysisModel = %q", got)
	}
}

func TestDefaultsOnReadError(t *testing.T) {
	p := NewProvider(&fakeStore{getErr: errors.New("disk gone")})
	if got := p.ChatModel(); got != DefaultChatModel {
		t.Errorf("ChatModel = %q", got)
	}
}

func TestDefaultsOnEmptyValue(t *testing.T) {
	p := NewProvider(&fakeStore{values: map[string]string{KeyChatModel: ""}})
	if got := p.ChatModel(); got != DefaultChatModel {
		t.Errorf("ChatModel = %q", got)
	}
}

func TestReadThrough(t *testing.T) {
	store := &fakeStore{}
	p := NewProvider(store)

	if err := p.Update(KeyChatModel, "claude-haiku-4-5-20251001"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := p.ChatModel(); got != "claude-haiku-4-5-20251001" {
		t.Errorf("ChatModel = %q", got)
	}
	// The other key keeps its default.
	if got := p.AnalysisModel(); got != DefaultAnalysisModel {
		t.Errorf("AnalysisModel = %q", got)
	}
}

func TestUpdateRejectsUnknownKey(t *testing.T) {
	p := NewProvider(&fakeStore{})
	if err := p.Update("temperature", "claude-haiku-4-5-20251001"); err == nil {
		t.Error("unknown key should be rejected")
	}
}

func TestUpdateRejectsUnknownModel(t *testing.T) {
	p := NewProvider(&fakeStore{})
	if err := p.Update(KeyChatModel, "gpt-5"); err == nil {
		t.Error("model outside the allow-list should be rejected")
	}
}

func TestUpdateWrapsStoreError(t *testing.T) {
	p := NewProvider(&fakeStore{setErr: errors.New("locked")})
	err := p.Update(KeyChatModel, DefaultChatModel)
	if err == nil {
		t.Fatal("store failure should surface")
	}
}

func TestAll(t *testing.T) {
	store := &fakeStore{values: map[string]string{KeyAnalysisModel: "claude-opus-4-6"}}
	p := NewProvider(store)

	got := p.All()
	if got[KeyChatModel] != DefaultChatModel {
		t.Errorf("chat_model = %q", got[KeyChatModel])
	}
	if got[KeyAnalysisModel] != "claude-opus-4-6" {
		t.Errorf("analysis_model = %q", got[KeyAnalysisModel])
	}
}

func TestIsKnownModel(t *testing.T) {
	for _, m := range AvailableModels {
		if !IsKnownModel(m.ID) {
			t.Errorf("IsKnownModel(%q) = false", m.ID)
		}
	}
	if IsKnownModel("") || IsKnownModel("mystery-model") {
		t.Error("unknown ids should not validate")
	}
}
