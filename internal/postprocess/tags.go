package postprocess

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Wyvern137/hackathon/pkg/domain"
	"github.com/Wyvern137/hackathon/pkg/ports"
)

// maxTagLength caps individual tags (Telegram rejects longer ones).
const maxTagLength = 100

// maxExcerptBytes bounds the post excerpt embedded in the tag prompt.
const maxExcerptBytes = 500

// categoryTags maps an owner's declared activity categories to curated
// hashtags used when the model-derived list comes up short.
var categoryTags = map[string][]string{
	"environmental": {
		"#экология", "#защитаприроды", "#экологическоеобразование",
		"#чистаяпланета", "#зеленоебудущее",
	},
	"animal_welfare": {
		"#помощьживотным", "#защитаживотных", "#благотворительность",
		"#животные", "#приют",
	},
	"humanitarian": {
		"#благотворительность", "#помощьлюдям", "#социальнаяпомощь",
		"#волонтерство", "#добро",
	},
	"education": {
		"#образование", "#обучение", "#развитие", "#знания",
	},
	"culture": {
		"#культура", "#искусство", "#творчество", "#театр",
	},
	"health": {
		"#здоровье", "#здоровыйобразжизни", "#медицина", "#профилактика",
	},
	"social": {
		"#социальнаяпомощь", "#социальнаязащита", "#поддержка", "#волонтерство",
	},
}

// genericTags pads the list when category tags still leave it short.
var genericTags = []string{
	"#нко", "#благотворительность", "#волонтерство", "#добро",
	"#помощь", "#социальныепроекты",
}

var tagPattern = regexp.MustCompile(`#[\p{L}\d_]+`)

// Tagger produces topical hashtags for a post. The generator is optional:
// with a nil generator the tagger is purely rule-based, so the pipeline
// stays usable when the generation facade is unavailable.
type Tagger struct {
	gen ports.Generator
}

// NewTagger creates a tagger. Pass nil to disable model-derived tags.
func NewTagger(gen ports.Generator) *Tagger {
	return &Tagger{gen: gen}
}

// Generate returns up to count tags for the text: model-derived first,
// then the profile's category tags, then generic padding. Tags are
// de-duplicated case-insensitively and individually length-capped.
func (t *Tagger) Generate(ctx context.Context, text string, profile *domain.Profile, count int) []string {
	if count <= 0 {
		return nil
	}

	var tags []string
	if t.gen != nil {
		tags = append(tags, t.modelTags(ctx, text, profile, count)...)
	}

	if profile != nil {
		for _, category := range profile.Categories {
			if len(tags) >= count {
				break
			}
			curated := categoryTags[category]
			if len(curated) > 2 {
				curated = curated[:2]
			}
			tags = append(tags, curated...)
		}
	}

	tags = dedupe(tags, count)
	for _, g := range genericTags {
		if len(tags) >= count {
			break
		}
		tags = appendUnique(tags, g)
	}
	return tags
}

func (t *Tagger) modelTags(ctx context.Context, text string, profile *domain.Profile, count int) []string {
	excerpt := truncateRunes(text, maxExcerptBytes)

	var b strings.Builder
	if profile != nil {
		if profile.Name != "" {
			b.WriteString("Организация: " + profile.Name + ". ")
		}
		if profile.About != "" {
			b.WriteString("Деятельность: " + profile.About + ". ")
		}
	}
	b.WriteString("\n\nПроанализируй текст поста и предложи релевантные, популярные хештеги.\n")
	b.WriteString("Ответь только списком хештегов, каждый с новой строки, каждый начинается с #.\n\n")
	b.WriteString("Текст поста:\n" + excerpt)

	res, err := t.gen.Generate(ctx, domain.GenerationRequest{
		Prompt:       b.String(),
		SystemPrompt: "Ты эксперт по социальным сетям и маркетингу для некоммерческих организаций.",
		Temperature:  0.7,
		MaxTokens:    100,
	})
	if err != nil || !res.Success {
		return nil
	}

	found := tagPattern.FindAllString(res.Content, -1)
	if len(found) > count {
		found = found[:count]
	}
	return found
}

func dedupe(tags []string, limit int) []string {
	var out []string
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		if len(tag) > maxTagLength {
			continue
		}
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
		if len(out) >= limit {
			break
		}
	}
	return out
}

func appendUnique(tags []string, tag string) []string {
	for _, existing := range tags {
		if strings.EqualFold(existing, tag) {
			return tags
		}
	}
	return append(tags, tag)
}

// truncateRunes cuts s to at most limit bytes without splitting a rune.
func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
