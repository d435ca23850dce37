package security

import (
	"regexp"
	"strings"
)

var (
	scriptBlockPattern = regexp.MustCompile(`(?is)<script\b.*?</script>`)
	styleBlockPattern  = regexp.MustCompile(`(?is)<style\b.*?</style>`)
	htmlTagPattern     = regexp.MustCompile(`<[^>]*>`)
	onEventPattern     = regexp.MustCompile(`(?i)\son\w+\s*=\s*["'][^"']*["']`)
	jsProtocolPattern  = regexp.MustCompile(`(?i)javascript:`)
	dataProtocolPattern = regexp.MustCompile(`(?i)data:`)

	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s._-]`)
	whitespaceRuns      = regexp.MustCompile(`\s+`)
)

// SanitizeText strips markup and script-capable fragments from free text.
// Sanitizing already-clean text returns it unchanged.
func SanitizeText(input string) string {
	out := scriptBlockPattern.ReplaceAllString(input, "")
	out = styleBlockPattern.ReplaceAllString(out, "")
	out = htmlTagPattern.ReplaceAllString(out, "")
	out = onEventPattern.ReplaceAllString(out, "")
	out = jsProtocolPattern.ReplaceAllString(out, "")
	out = dataProtocolPattern.ReplaceAllString(out, "")
	return out
}

// SanitizeFilename drops disallowed characters and collapses whitespace.
func SanitizeFilename(filename string) string {
	out := strings.TrimSpace(filename)
	out = unsafeFilenameChars.ReplaceAllString(out, "")
	out = whitespaceRuns.ReplaceAllString(out, " ")
	if len(out) > MaxFilenameLen {
		out = out[:MaxFilenameLen]
	}
	return out
}

var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)vbscript:`),
	regexp.MustCompile(`(?i)onload=`),
	regexp.MustCompile(`(?i)onerror=`),
	regexp.MustCompile(`(?i)onclick=`),
	regexp.MustCompile(`(?i)eval\(`),
	regexp.MustCompile(`(?i)document\.`),
	regexp.MustCompile(`(?i)window\.`),
	regexp.MustCompile(`(?i)alert\(`),
	regexp.MustCompile(`(?i)confirm\(`),
	regexp.MustCompile(`(?i)prompt\(`),
}

// DetectSuspiciousInput reports whether input matches any script-like pattern.
func DetectSuspiciousInput(input string) bool {
	for _, pattern := range suspiciousPatterns {
		if pattern.MatchString(input) {
			return true
		}
	}
	return false
}
