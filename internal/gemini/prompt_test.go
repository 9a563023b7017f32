package gemini_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"photobooth-kiosk/internal/gemini"
)

func TestBuildPrompt_Deterministic(t *testing.T) {
	first := gemini.BuildPrompt("cyberpunk portrait", "9:16")
	second := gemini.BuildPrompt("cyberpunk portrait", "9:16")
	assert.Equal(t, first, second)
}

func TestBuildPrompt_ContainsConceptAndQualifiers(t *testing.T) {
	prompt := gemini.BuildPrompt("cyberpunk portrait", "9:16")

	assert.Contains(t, prompt, "cyberpunk portrait")
	assert.Contains(t, prompt, "9:16 aspect ratio")
	assert.Contains(t, prompt, "preserve the subject's identity")
	assert.Contains(t, prompt, "no text or watermark")
}

func TestBuildPrompt_VariesWithAspectRatio(t *testing.T) {
	portrait := gemini.BuildPrompt("cyberpunk portrait", "9:16")
	landscape := gemini.BuildPrompt("cyberpunk portrait", "16:9")
	assert.NotEqual(t, portrait, landscape)
}

func TestBuildPrompt_TrimsTrailingPeriod(t *testing.T) {
	prompt := gemini.BuildPrompt("retro diner scene.", "16:9")
	assert.NotContains(t, prompt, "scene..")
}
