package postprocess_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/Wyvern137/hackathon/internal/postprocess"
	"github.com/Wyvern137/hackathon/pkg/domain"
)

func TestAdaptForPlatform_TagCapRespected(t *testing.T) {
	tags := make([]string, 40)
	for i := range tags {
		tags[i] = "#tag" + strings.Repeat("x", i%5)
	}
	text := "Short body. " + strings.Join(tags, " ")

	for _, platform := range domain.Platforms() {
		adapted := postprocess.AdaptForPlatform(text, platform)
		assert.LessOrEqual(t, adapted.TagCount, platform.Limits().MaxTags,
			"platform %s tag cap violated", platform)
	}
}

func TestAdaptForPlatform_DropsTrailingSentences(t *testing.T) {
	// Three sentences; twitter's optimal budget is 100 runes.
	text := "This is the very first sentence of the post. " +
		"Here comes a second sentence that adds detail. " +
		"And a third one that will not fit at all."

	adapted := postprocess.AdaptForPlatform(text, domain.PlatformTwitter)
	assert.True(t, strings.HasSuffix(adapted.Text, "."), "must cut at a sentence boundary")
	assert.NotContains(t, adapted.Text, "third one")
	assert.LessOrEqual(t, utf8.RuneCountInString(adapted.Text), 280)
}

func TestAdaptForPlatform_HardCapWithEllipsis(t *testing.T) {
	// One giant sentence cannot be shortened at a boundary and must be
	// hard-truncated.
	text := strings.Repeat("word ", 100) + "end"

	adapted := postprocess.AdaptForPlatform(text, domain.PlatformTwitter)
	assert.LessOrEqual(t, utf8.RuneCountInString(adapted.Text), 280)
	assert.True(t, strings.HasSuffix(adapted.Text, "..."))
}

func TestAdaptForPlatform_ShortPostUntouched(t *testing.T) {
	text := "Short and sweet. #one #two"
	adapted := postprocess.AdaptForPlatform(text, domain.PlatformTelegram)
	assert.Equal(t, "Short and sweet.\n\n#one #two", adapted.Text)
	assert.Equal(t, 2, adapted.TagCount)
}
