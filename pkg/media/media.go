package media

import (
	"regexp"
	"strings"

	"github.com/JackBinary/SyncStream/pkg/utils"
)

// Item types
const (
	TypeYouTube    = "youtube"
	TypeTwitchVOD  = "twitch_vod"
	TypeTwitchLive = "twitch_live"
	TypeDirect     = "direct"
)

const (
	// MaxURLLength is the longest raw URL considered for classification
	MaxURLLength = 2000
	// MaxDisplayLength caps the human-readable label of an item
	MaxDisplayLength = 50
)

var (
	youtubeRegex    = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([a-zA-Z0-9_-]{11})(?:[&?]|$)`)
	twitchVODRegex  = regexp.MustCompile(`twitch\.tv/videos/([0-9]{1,12})(?:[?]|$)`)
	twitchLiveRegex = regexp.MustCompile(`twitch\.tv/([a-zA-Z0-9_]{1,25})(?:[?]|$)`)

	// path segments of twitch.tv that are never channel names
	twitchReserved = []string{"videos", "directory", "settings"}
)

// Item is a classified media reference. ID is set for youtube and
// twitch variants, URL for direct links.
type Item struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	URL     string `json:"url,omitempty"`
	Display string `json:"display"`
}

// IsSafeURL reports whether url uses a plain web scheme
func IsSafeURL(url string) bool {
	url = strings.ToLower(strings.TrimSpace(url))
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

// Classify turns a raw URL into a typed media Item. Recognition order:
// YouTube, then Twitch VOD, then Twitch channel, then direct link.
// A reserved twitch.tv path segment is not a channel and falls through
// to the direct branch. Returns false for non-http(s) input.
func Classify(raw string) (*Item, bool) {
	url := utils.TrimRunes(strings.TrimSpace(raw), MaxURLLength)

	if !IsSafeURL(url) {
		return nil, false
	}

	if m := youtubeRegex.FindStringSubmatch(url); m != nil {
		return &Item{
			Type:    TypeYouTube,
			ID:      m[1],
			Display: "YouTube: " + m[1],
		}, true
	}

	if m := twitchVODRegex.FindStringSubmatch(url); m != nil {
		return &Item{
			Type:    TypeTwitchVOD,
			ID:      m[1],
			Display: "Twitch VOD: " + m[1],
		}, true
	}

	if m := twitchLiveRegex.FindStringSubmatch(url); m != nil && !utils.InArray(twitchReserved, strings.ToLower(m[1])) {
		return &Item{
			Type:    TypeTwitchLive,
			ID:      m[1],
			Display: "Twitch: " + m[1],
		}, true
	}

	return &Item{
		Type:    TypeDirect,
		URL:     url,
		Display: utils.TrimRunes(url, MaxDisplayLength),
	}, true
}
