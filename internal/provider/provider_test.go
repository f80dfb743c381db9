package provider

import (
	"testing"

	"github.com/toinevv/seo-system-blank/internal/models"
)

func websiteWithMode(mode models.RotationMode, lastUsed string) *models.Website {
	return &models.Website{
		Generation: models.GenerationPolicy{
			RotationMode: mode,
			LastAPIUsed:  lastUsed,
		},
	}
}

func TestChooseOpenAIOnly(t *testing.T) {
	w := websiteWithMode(models.RotationOpenAIOnly, "")
	tag, key, ok := Choose(w, Keys{OpenAIKey: "ok", AnthropicKey: "ak"}, "article")
	if !ok || tag != TagOpenAI || key != "ok" {
		t.Fatalf("got tag=%s key=%s ok=%v", tag, key, ok)
	}
}

func TestChooseAnthropicOnlyMissingKey(t *testing.T) {
	w := websiteWithMode(models.RotationAnthropicOnly, "")
	_, _, ok := Choose(w, Keys{OpenAIKey: "ok"}, "article")
	if ok {
		t.Fatal("expected no selection when anthropic key is absent")
	}
}

func TestRotateAlternatesAwayFromLastUsed(t *testing.T) {
	w := websiteWithMode(models.RotationAlternate, TagOpenAI)
	tag, _, ok := Choose(w, Keys{OpenAIKey: "ok", AnthropicKey: "ak"}, "article")
	if !ok || tag != TagAnthropic {
		t.Fatalf("expected anthropic, got %s", tag)
	}

	w2 := websiteWithMode(models.RotationAlternate, TagAnthropic)
	tag2, _, ok2 := Choose(w2, Keys{OpenAIKey: "ok", AnthropicKey: "ak"}, "article")
	if !ok2 || tag2 != TagOpenAI {
		t.Fatalf("expected openai, got %s", tag2)
	}
}

func TestRotateReturnsOnlyAvailableKey(t *testing.T) {
	w := websiteWithMode(models.RotationAlternate, "")
	tag, key, ok := Choose(w, Keys{AnthropicKey: "ak"}, "article")
	if !ok || tag != TagAnthropic || key != "ak" {
		t.Fatalf("got tag=%s key=%s ok=%v", tag, key, ok)
	}
}

func TestRotateNoKeysReturnsNone(t *testing.T) {
	w := websiteWithMode(models.RotationAlternate, "")
	_, _, ok := Choose(w, Keys{}, "article")
	if ok {
		t.Fatal("expected no selection with no keys present")
	}
}

func TestOtherReturnsComplement(t *testing.T) {
	tag, key, ok := Other(TagOpenAI, Keys{OpenAIKey: "ok", AnthropicKey: "ak"})
	if !ok || tag != TagAnthropic || key != "ak" {
		t.Fatalf("got tag=%s key=%s ok=%v", tag, key, ok)
	}

	_, _, ok2 := Other(TagOpenAI, Keys{OpenAIKey: "ok"})
	if ok2 {
		t.Fatal("expected no complement when anthropic key absent")
	}
}
