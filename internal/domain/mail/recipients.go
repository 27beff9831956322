package mail

import (
	"regexp"
	"strings"
)

// addressPattern is intentionally permissive: non-space, "@", non-space, ".", non-space.
var addressPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// IsValidAddress reports whether addr matches the syntactic address pattern.
func IsValidAddress(addr string) bool {
	return addressPattern.MatchString(strings.TrimSpace(addr))
}

// ParseRecipients turns a comma-separated recipient list into normalized addresses.
// Any invalid token rejects the whole batch; the error lists every offender as typed.
// Duplicates are preserved in input order.
// PRE: none
// POST: Returns at least one lowercase, syntactically valid address or a validation *Error
func ParseRecipients(raw string) ([]string, error) {
	var tokens []string
	for _, token := range strings.Split(raw, ",") {
		if token = strings.TrimSpace(token); token != "" {
			tokens = append(tokens, token)
		}
	}
	if len(tokens) == 0 {
		return nil, ValidationError("no recipients")
	}

	recipients := make([]string, 0, len(tokens))
	var invalid []string
	for _, token := range tokens {
		addr := strings.ToLower(token)
		if !IsValidAddress(addr) {
			invalid = append(invalid, token)
			continue
		}
		recipients = append(recipients, addr)
	}
	if len(invalid) > 0 {
		return nil, ValidationError("invalid email format: %s", strings.Join(invalid, ", "))
	}
	return recipients, nil
}
