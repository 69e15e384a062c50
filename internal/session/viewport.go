package session

import "sitechat/internal/model/chat"

// Cue names a sound effect the hosting page may play. The core only
// triggers cues; producing audio is the collaborator's business.
type Cue string

const (
	CuePopup Cue = "popup"
	CueSend  Cue = "send"
	CueReply Cue = "response"
)

// ViewPort is the narrow surface the controller drives. Rendering, styling
// and input capture belong entirely to the implementation behind it.
type ViewPort interface {
	// ShowContactForm presents the contact panel, prefilled with whatever
	// visitor info is already known.
	ShowContactForm(visitor chat.VisitorInfo)
	// ShowConversation presents the message panel.
	ShowConversation()
	// HideWidget collapses both panels back to the launcher.
	HideWidget()
	// AppendMessage adds one message to the visible transcript.
	AppendMessage(msg chat.Message)
	// SetVisitor updates the name/contact display fields.
	SetVisitor(visitor chat.VisitorInfo)
	// ScrollToEnd scrolls the transcript to the newest message.
	ScrollToEnd()
	// Notify triggers a sound cue.
	Notify(cue Cue)
}

// NopViewPort satisfies ViewPort without doing anything. Handy for tests and
// headless operation.
type NopViewPort struct{}

func (NopViewPort) ShowContactForm(chat.VisitorInfo) {}
func (NopViewPort) ShowConversation()                {}
func (NopViewPort) HideWidget()                      {}
func (NopViewPort) AppendMessage(chat.Message)       {}
func (NopViewPort) SetVisitor(chat.VisitorInfo)      {}
func (NopViewPort) ScrollToEnd()                     {}
func (NopViewPort) Notify(Cue)                       {}
