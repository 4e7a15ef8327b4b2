package catalog

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	songIDPattern    = regexp.MustCompile(`music\.163\.com/.*?song.*?[?&]id=(\d+)`)
	shareLinkPattern = regexp.MustCompile(`https?://[\w\-_]+(\.[\w\-_]+)+([\w\-.,@?^=%&:/~+#]*[\w\-@?^=%&/~+#])?`)
	numberPattern    = regexp.MustCompile(`\d+`)
)

// ParseSongID extracts a numeric song id from free-form user input: a full
// catalog URL with an id parameter, a share link whose path mentions a song,
// or a bare number. Returns false when no id can be found.
func ParseSongID(text string) (uint64, bool) {
	text = strings.NewReplacer("\n", "", " ", "").Replace(text)

	if m := songIDPattern.FindStringSubmatch(text); m != nil {
		if id, err := strconv.ParseUint(m[1], 10, 64); err == nil {
			return id, true
		}
	}

	if link := shareLinkPattern.FindString(text); link != "" && strings.Contains(link, "song") {
		if num := numberPattern.FindString(link); num != "" {
			if id, err := strconv.ParseUint(num, 10, 64); err == nil {
				return id, true
			}
		}
	}

	if id, err := strconv.ParseUint(text, 10, 64); err == nil {
		return id, true
	}

	return 0, false
}
