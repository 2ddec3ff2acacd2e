package submission

import (
	"regexp"
	"strings"

	"github.com/LukhazD/pyform-sub000/internal/module"
)

// Device classes inferred from a coarse user-agent check.
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
)

var (
	tabletPattern = regexp.MustCompile(`(?i)ipad|tablet|kindle|silk|playbook`)
	mobilePattern = regexp.MustCompile(`(?i)mobi|iphone|ipod|android|blackberry|phone|opera mini`)
)

// DeviceClassFromUserAgent maps a raw user agent onto a coarse device class.
// The check is deliberately shallow; it feeds analytics, not behaviour.
func DeviceClassFromUserAgent(ua string) string {
	switch {
	case tabletPattern.MatchString(ua):
		return DeviceTablet
	case mobilePattern.MatchString(ua):
		return DeviceMobile
	default:
		return DeviceDesktop
	}
}

// ClientInfo is what the transport layer knows about the respondent.
type ClientInfo struct {
	UserAgent string
	Language  string
}

// Assemble converts the in-memory answer map into the wire payload. Entries
// appear in module display order and only for modules with a present answer;
// informational modules never contribute entries.
func Assemble(formID, respondentID string, modules []module.Module, answers map[string]any, client ClientInfo, completionTimeMs int64) Submission {
	entries := make([]Answer, 0, len(answers))
	for _, m := range modules {
		if !m.Type.Answerable() {
			continue
		}
		value, ok := answers[m.ClientID]
		if !ok || value == nil {
			continue
		}
		entries = append(entries, Answer{
			QuestionID:   m.ClientID,
			QuestionType: string(m.Type),
			Value:        value,
		})
	}

	return Submission{
		FormID:           formID,
		RespondentID:     respondentID,
		CompletionTimeMs: completionTimeMs,
		Answers:          entries,
		Metadata: Metadata{
			DeviceClass: DeviceClassFromUserAgent(client.UserAgent),
			Language:    strings.TrimSpace(client.Language),
			UserAgent:   client.UserAgent,
		},
	}
}
