package chat

// ContactType classifies how a visitor wants to be reached.
type ContactType string

const (
	ContactEmail ContactType = "email"
	ContactPhone ContactType = "phone"
	ContactUnset ContactType = ""
)

// Phrase returns the human wording used inside reply templates.
func (c ContactType) Phrase() string {
	switch c {
	case ContactEmail:
		return "email"
	case ContactPhone:
		return "phone number"
	default:
		return "contact method"
	}
}

// VisitorInfo captures what the contact form collects about a visitor.
type VisitorInfo struct {
	Name        string      `json:"name"`
	Contact     string      `json:"contact"`
	ContactType ContactType `json:"contactType"`
}

// Complete reports whether the contact form has been filled in.
func (v VisitorInfo) Complete() bool {
	return v.Name != "" && v.Contact != ""
}
