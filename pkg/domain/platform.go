package domain

// Platform identifies a publishing target with its own length budget.
type Platform string

const (
	PlatformTelegram  Platform = "telegram"
	PlatformVK        Platform = "vk"
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformTwitter   Platform = "twitter"
	PlatformOK        Platform = "ok"
)

// PlatformLimits bounds a post for one platform. MaxLength is the hard cap
// (hard-truncated with an ellipsis), OptimalLength the soft target reached
// by dropping trailing sentences, MaxTags the tag-count cap.
type PlatformLimits struct {
	MaxLength     int
	OptimalLength int
	MaxTags       int
}

var platformLimits = map[Platform]PlatformLimits{
	PlatformTelegram:  {MaxLength: 4096, OptimalLength: 200, MaxTags: 10},
	PlatformVK:        {MaxLength: 10000, OptimalLength: 500, MaxTags: 10},
	PlatformInstagram: {MaxLength: 2200, OptimalLength: 150, MaxTags: 30},
	PlatformFacebook:  {MaxLength: 63206, OptimalLength: 250, MaxTags: 10},
	PlatformTwitter:   {MaxLength: 280, OptimalLength: 100, MaxTags: 2},
	PlatformOK:        {MaxLength: 10000, OptimalLength: 500, MaxTags: 10},
}

// Limits returns the length budget for the platform, defaulting to
// Telegram's for unknown values.
func (p Platform) Limits() PlatformLimits {
	if l, ok := platformLimits[p]; ok {
		return l
	}
	return platformLimits[PlatformTelegram]
}

// Platforms lists all supported publishing targets.
func Platforms() []Platform {
	return []Platform{
		PlatformTelegram, PlatformVK, PlatformInstagram,
		PlatformFacebook, PlatformTwitter, PlatformOK,
	}
}
