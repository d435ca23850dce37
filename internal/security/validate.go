package security

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// DefaultEmailDomain is the institutional email suffix required for accounts.
const DefaultEmailDomain = "@mail.apu.edu.my"

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	filenamePattern = regexp.MustCompile(`^[a-zA-Z0-9\s._-]+$`)
)

// ValidEmail reports whether email looks like an address and fits the length bound.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email) && len(email) <= MaxEmailLen
}

// ValidInstitutionalEmail requires a well-formed address on the given domain suffix.
// An empty suffix falls back to DefaultEmailDomain.
func ValidInstitutionalEmail(email, domainSuffix string) bool {
	if domainSuffix == "" {
		domainSuffix = DefaultEmailDomain
	}
	return ValidEmail(email) && strings.HasSuffix(email, domainSuffix)
}

// ValidPassword bounds password length.
func ValidPassword(password string) bool {
	return len(password) >= MinPasswordLen && len(password) <= MaxPasswordLen
}

// ValidName requires a non-empty trimmed name within bounds.
func ValidName(name string) bool {
	trimmed := strings.TrimSpace(name)
	return trimmed != "" && len(trimmed) <= MaxNameLen
}

// ValidTitle requires a non-empty trimmed title within bounds.
func ValidTitle(title string) bool {
	trimmed := strings.TrimSpace(title)
	return trimmed != "" && len(trimmed) <= MaxTitleLen
}

// ValidContent bounds free-text content length.
func ValidContent(content string) bool {
	return len(content) <= MaxContentLen
}

// ValidMessage requires a non-empty trimmed chat message within bounds.
func ValidMessage(message string) bool {
	trimmed := strings.TrimSpace(message)
	return trimmed != "" && len(trimmed) <= MaxMessageLen
}

// ValidTopic requires a non-empty trimmed topic within bounds.
func ValidTopic(topic string) bool {
	trimmed := strings.TrimSpace(topic)
	return trimmed != "" && len(trimmed) <= MaxTopicLen
}

// ValidUUID reports whether id is a well-formed UUID.
func ValidUUID(id string) bool {
	parsed, err := uuid.Parse(id)
	return err == nil && parsed != uuid.Nil
}

// ValidFilename restricts filenames to a safe character allow-list.
// Path separators and traversal sequences fail the pattern.
func ValidFilename(filename string) bool {
	trimmed := strings.TrimSpace(filename)
	return trimmed != "" && len(trimmed) <= MaxFilenameLen && filenamePattern.MatchString(trimmed)
}

// ValidFileType checks the declared MIME type against the upload allow-list.
func ValidFileType(mimeType string) bool {
	for _, allowed := range AllowedFileTypes {
		if mimeType == allowed {
			return true
		}
	}
	return false
}

// ValidFileSize rejects empty and oversized files.
func ValidFileSize(size int64) bool {
	return size > 0 && size <= MaxFileSize
}
