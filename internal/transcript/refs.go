package transcript

import (
	"regexp"
	"strings"
)

// refMatcher pairs a pattern with the capture group holding the path.
type refMatcher struct {
	re    *regexp.Regexp
	group int
}

var refMatchers = []refMatcher{
	// absolute unix paths with at least two segments
	{regexp.MustCompile(`(?:^|[\s"'(\[])(/(?:[\w.-]+/)+[\w.-]+)`), 1},
	// ./-relative paths
	{regexp.MustCompile(`(\./[\w./-]+)`), 1},
	// ~/-relative paths
	{regexp.MustCompile(`(~/[\w./-]+)`), 1},
	// backticked names ending in a short extension
	{regexp.MustCompile("`([^`\\s]+\\.\\w{1,5})`"), 1},
	// file path fields inside embedded JSON
	{regexp.MustCompile(`"file_?[Pp]ath"\s*:\s*"([^"]+)"`), 1},
}

// ExtractRefs collects file-path-like substrings from rendered text,
// deduplicated in first-seen order across all matchers.
func ExtractRefs(text string) []string {
	var refs []string
	seen := make(map[string]struct{})
	for _, m := range refMatchers {
		for _, match := range m.re.FindAllStringSubmatch(text, -1) {
			ref := match[m.group]
			if looksLikeURL(ref) {
				continue
			}
			if _, ok := seen[ref]; ok {
				continue
			}
			seen[ref] = struct{}{}
			refs = append(refs, ref)
		}
	}
	return refs
}

// looksLikeURL guards against URL fragments passing as paths.
func looksLikeURL(ref string) bool {
	return strings.Contains(ref, "http") || strings.HasPrefix(ref, ".com")
}
