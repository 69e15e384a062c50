package validate_test

import (
	"testing"

	"sitechat/internal/model/chat"
	"sitechat/internal/validate"
)

func TestClassifyEmail(t *testing.T) {
	for _, contact := range []string{
		"ana@test.com",
		"user@domain.tld",
		"first.last@sub.example.org",
		"odd+tag@host.io",
	} {
		if got := validate.Classify(contact); got != chat.ContactEmail {
			t.Fatalf("Classify(%q) = %q, want email", contact, got)
		}
	}
}

func TestClassifyPhone(t *testing.T) {
	for _, contact := range []string{
		"1234567890",
		"+14155552671",
		"(415) 555-2671",
		"91-22-1234-5678",
		"7",
	} {
		if got := validate.Classify(contact); got != chat.ContactPhone {
			t.Fatalf("Classify(%q) = %q, want phone", contact, got)
		}
	}
}

func TestClassifyInvalid(t *testing.T) {
	for _, contact := range []string{
		"",
		"   ",
		"not a contact",
		"0123456789",         // leading zero
		"+0123",              // leading zero after plus
		"12345678901234567",  // 17 digits
		"user@nodot",         // email missing tld dot
		"@domain.tld",        // email missing local part
		"user@ dom ain.tld",  // whitespace inside
	} {
		if got := validate.Classify(contact); got != chat.ContactUnset {
			t.Fatalf("Classify(%q) = %q, want unset", contact, got)
		}
	}
}
