package whitelist

import (
	"strings"

	"go.uber.org/zap"
)

// Checker gates which senders may request estimates. Entries are phone
// numbers ("+15551234567"), full email addresses, or bare email domains.
// An empty list admits everyone.
type Checker struct {
	entries []string
	logger  *zap.Logger
}

// NewChecker creates a new sender checker
func NewChecker(entries []string, logger *zap.Logger) *Checker {
	normalized := make([]string, 0, len(entries))
	for _, entry := range entries {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "@") {
			if p := normalizePhone(entry); isPhoneNumber(p) {
				entry = p
			}
		}
		normalized = append(normalized, entry)
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Initialized sender allowlist", zap.Strings("entries", normalized))
	}

	return &Checker{
		entries: normalized,
		logger:  logger,
	}
}

// IsAllowed reports whether the sender may use the service
func (c *Checker) IsAllowed(sender string) bool {
	if len(c.entries) == 0 {
		return true
	}

	sender = strings.ToLower(strings.TrimSpace(sender))

	if at := strings.LastIndex(sender, "@"); at >= 0 {
		domain := sender[at+1:]
		for _, entry := range c.entries {
			if entry == sender || entry == domain {
				if c.logger != nil {
					c.logger.Debug("Sender is allowlisted",
						zap.String("sender", sender),
						zap.String("entry", entry))
				}
				return true
			}
		}
		return false
	}

	phone := normalizePhone(sender)
	for _, entry := range c.entries {
		if entry == phone {
			if c.logger != nil {
				c.logger.Debug("Sender is allowlisted", zap.String("sender", sender))
			}
			return true
		}
	}

	return false
}

// isPhoneNumber reports whether s is digits with an optional leading "+".
// Entries that fail this check are kept verbatim so that bare domains
// like "example.com" survive normalization.
func isPhoneNumber(s string) bool {
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// normalizePhone strips the separators people type into numbers so that
// "+1 (555) 123-4567" and "+15551234567" compare equal.
func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		switch r {
		case ' ', '-', '(', ')', '.':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
