package trends

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultVocabularyCoversFullSnapshot(t *testing.T) {
	f := NewDefaultFiller()
	require.GreaterOrEqual(t, len(f.vocabulary), DefaultSize)
	assert.Len(t, f.vocabulary, len(DefaultVocabulary))
}

func TestPad_SkipsPresentTerms(t *testing.T) {
	f := NewFiller([]string{"노트북", "스마트폰", "에어팟", "갤럭시"}, "")

	got := f.Pad([]string{"스마트폰"}, 3)

	assert.Equal(t, []string{"스마트폰", "노트북", "에어팟"}, got)
}

func TestPad_PlaceholdersAfterVocabulary(t *testing.T) {
	f := NewFiller([]string{"노트북"}, "term")

	got := f.Pad([]string{"apple"}, 5)

	assert.Equal(t, []string{"apple", "노트북", "term 3", "term 4", "term 5"}, got)
}

func TestPad_PlaceholderCollisionAdvances(t *testing.T) {
	f := NewFiller(nil, "term")

	got := f.Pad([]string{"term 2"}, 3)

	assert.Equal(t, []string{"term 2", "term 3", "term 4"}, got)
}

func TestPad_Deterministic(t *testing.T) {
	f := NewDefaultFiller()
	partial := []string{"apple", "banana", "노트북"}

	first := f.Pad(partial, DefaultSize)
	second := f.Pad(partial, DefaultSize)

	assert.Equal(t, first, second)
	assert.Len(t, first, DefaultSize)
	assert.Equal(t, []string{"apple", "banana", "노트북"}, partial, "input must not be modified")
}

func TestPad_AlreadyFull(t *testing.T) {
	f := NewDefaultFiller()

	got := f.Pad([]string{"aa", "bb", "cc"}, 2)

	assert.Equal(t, []string{"aa", "bb"}, got)
}

func TestPad_EmptyInputUsesVocabularyOnly(t *testing.T) {
	got := NewDefaultFiller().Pad(nil, DefaultSize)

	require.Len(t, got, DefaultSize)
	for _, kw := range got {
		assert.False(t, strings.HasPrefix(kw, DefaultFillerLabel+" "), "unexpected placeholder %q", kw)
	}
}

func TestNewFiller_DropsUnusableTerms(t *testing.T) {
	f := NewFiller([]string{" 노트북 ", "칼", "", "노트북", "마우스"}, "")

	assert.Equal(t, []string{"노트북", "마우스"}, f.vocabulary)
	assert.Equal(t, DefaultFillerLabel, f.label)
}
