package classify

import (
	"strings"

	"github.com/yungbote/studybits-backend/internal/normalization"
)

var tagTrimmer = strings.NewReplacer("[", "", "]", "", `"`, "")

// ParseTags turns a comma-separated model reply into lowercase tags, keeping the
// first occurrence of each and the model's broad-to-specific order.
func ParseTags(raw string) []string {
	raw = tagTrimmer.Replace(strings.TrimSpace(raw))
	seen := map[string]struct{}{}
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		tag := normalization.ParseInputString(part)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
