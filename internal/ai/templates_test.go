package ai

import (
	"strings"
	"testing"
)

func TestSystemPromptPerType(t *testing.T) {
	seen := map[string]bool{}
	for _, vt := range []string{"commercial", "social", "tour", "product"} {
		p := SystemPrompt(vt)
		if p == "" {
			t.Fatalf("empty template for type %s", vt)
		}
		if seen[p] {
			t.Fatalf("template for %s is not distinct", vt)
		}
		seen[p] = true
	}
}

func TestSystemPromptUnknownTypeFallsBack(t *testing.T) {
	if SystemPrompt("documentary") != SystemPrompt("commercial") {
		t.Fatal("unknown type should use the commercial template")
	}
}

func TestBuildVideoPrompt(t *testing.T) {
	p := BuildVideoPrompt("Buy our shoes", "product", "")
	if !strings.Contains(p, "product video") {
		t.Errorf("prompt missing type: %s", p)
	}
	if !strings.Contains(p, `"Buy our shoes"`) {
		t.Errorf("prompt missing script: %s", p)
	}
	if !strings.Contains(p, stylePrompts["product"]) {
		t.Errorf("prompt missing default style: %s", p)
	}
}

func TestBuildVideoPromptAppendsOverride(t *testing.T) {
	p := BuildVideoPrompt("script", "social", "neon aesthetic")
	if !strings.Contains(p, stylePrompts["social"]) {
		t.Errorf("override should not replace the default style: %s", p)
	}
	if !strings.HasSuffix(p, "neon aesthetic") {
		t.Errorf("override should be appended: %s", p)
	}
}
