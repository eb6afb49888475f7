package flows

import (
	"context"
	"fmt"
	"strings"

	"github.com/Wyvern137/hackathon/pkg/domain"
)

// systemPrompt assembles the system message from the owner's profile and
// the chosen style. A missing profile yields a generic SMM assistant.
func systemPrompt(profile *domain.Profile, styleID string) string {
	var b strings.Builder
	b.WriteString("Ты — SMM-ассистент некоммерческой организации. ")
	b.WriteString("Пиши посты для социальных сетей на русском языке.")

	if profile != nil {
		if profile.Name != "" {
			fmt.Fprintf(&b, " Организация: %s.", profile.Name)
		}
		if profile.About != "" {
			fmt.Fprintf(&b, " О ней: %s.", profile.About)
		}
		if len(profile.Categories) > 0 {
			fmt.Fprintf(&b, " Направления: %s.", strings.Join(profile.Categories, ", "))
		}
		if profile.Tone != "" {
			fmt.Fprintf(&b, " Тон общения: %s.", profile.Tone)
		}
	}

	if label, emoji, ok := styleByID(styleID); ok {
		fmt.Fprintf(&b, " Стиль: %s.", strings.TrimSpace(stripEmoji(label)))
		if emoji {
			b.WriteString(" Уместные эмодзи разрешены.")
		} else {
			b.WriteString(" Без эмодзи.")
		}
	}

	b.WriteString(" Не используй хэштеги, они добавляются отдельно.")
	return b.String()
}

// stripEmoji drops the leading pictogram from a keyboard label.
func stripEmoji(label string) string {
	fields := strings.Fields(label)
	if len(fields) > 1 {
		return strings.Join(fields[1:], " ")
	}
	return label
}

// loadProfile fetches the owner profile, tolerating its absence.
func loadProfile(ctx context.Context, deps Deps, ownerID string) *domain.Profile {
	if deps.Profiles == nil {
		return nil
	}
	p, err := deps.Profiles.Profile(ctx, ownerID)
	if err != nil {
		deps.Logger.Warn("profile load failed", "owner", ownerID, "err", err)
		return nil
	}
	return p
}
