// Package validate classifies free-text contact strings.
package validate

import (
	"regexp"
	"strings"

	"sitechat/internal/model/chat"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)
	separators   = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
)

// Classify decides whether a contact string is an email address or a phone
// number. Phone numbers are matched after stripping spaces, dashes and
// parentheses: an optional leading +, then 1-16 digits with no leading zero.
// Anything else is ContactUnset.
func Classify(contact string) chat.ContactType {
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return chat.ContactUnset
	}
	if emailPattern.MatchString(contact) {
		return chat.ContactEmail
	}
	if phonePattern.MatchString(separators.Replace(contact)) {
		return chat.ContactPhone
	}
	return chat.ContactUnset
}
