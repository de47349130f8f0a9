package generation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt_ContainsPaletteAndCaption(t *testing.T) {
	p := BuildPrompt("a woman smiling", []string{"#112233", "#445566"})

	assert.Contains(t, p, "#112233,#445566")
	assert.Contains(t, p, "a woman smiling")
	assert.True(t, strings.HasPrefix(p, StyleTokens))
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	hexes := []string{"#aabbcc", "#000000", "#ffffff"}
	first := BuildPrompt("portrait", hexes)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, BuildPrompt("portrait", hexes))
	}
}

func TestBuildPrompt_PaletteOrderMatters(t *testing.T) {
	a := BuildPrompt("x", []string{"#111111", "#222222"})
	b := BuildPrompt("x", []string{"#222222", "#111111"})
	assert.NotEqual(t, a, b)
}

func TestBuildPrompt_EmptyParts(t *testing.T) {
	assert.Equal(t, StyleTokens, BuildPrompt("  ", nil))
}
