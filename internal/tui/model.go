// Package tui is a terminal collaborator for the widget core: it implements
// the session ViewPort and renders the two panels (contact form and
// conversation) in a bubbletea program.
package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"sitechat/internal/model/chat"
	"sitechat/internal/session"
)

// Messages pushed into the program by the ViewPort adapter.
type (
	showFormMsg     struct{ visitor chat.VisitorInfo }
	showChatMsg     struct{}
	hideMsg         struct{}
	appendMsg       struct{ msg chat.Message }
	setVisitorMsg   struct{ visitor chat.VisitorInfo }
	submitResultMsg struct{ err error }
)

// View adapts ViewPort calls into program messages. The program is attached
// after construction because bubbletea needs the model first.
type View struct {
	p *tea.Program
}

// NewView returns an unattached ViewPort adapter.
func NewView() *View { return &View{} }

// Attach binds the running program.
func (v *View) Attach(p *tea.Program) { v.p = p }

func (v *View) send(msg tea.Msg) {
	if v.p != nil {
		v.p.Send(msg)
	}
}

func (v *View) ShowContactForm(visitor chat.VisitorInfo) { v.send(showFormMsg{visitor}) }
func (v *View) ShowConversation()                        { v.send(showChatMsg{}) }
func (v *View) HideWidget()                              { v.send(hideMsg{}) }
func (v *View) AppendMessage(msg chat.Message)           { v.send(appendMsg{msg}) }
func (v *View) SetVisitor(visitor chat.VisitorInfo)      { v.send(setVisitorMsg{visitor}) }
func (v *View) ScrollToEnd()                             {}
func (v *View) Notify(session.Cue)                       {}

type panel int

const (
	panelHidden panel = iota
	panelForm
	panelChat
)

// Model is the bubbletea model for the widget host.
type Model struct {
	ctrl *session.Controller

	panel      panel
	transcript []chat.Message
	visitor    chat.VisitorInfo

	// contact form
	name       string
	contact    string
	focusName  bool
	formErr    string
	submitting bool

	// conversation
	input      string
	confirming bool
}

// NewModel builds the initial model around a controller.
func NewModel(ctrl *session.Controller) Model {
	return Model{ctrl: ctrl, panel: panelHidden, focusName: true}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case showFormMsg:
		m.panel = panelForm
		m.name = msg.visitor.Name
		m.contact = msg.visitor.Contact
		m.focusName = true
		m.formErr = ""
		return m, nil
	case showChatMsg:
		m.panel = panelChat
		return m, nil
	case hideMsg:
		m.panel = panelHidden
		return m, nil
	case appendMsg:
		m.transcript = append(m.transcript, msg.msg)
		return m, nil
	case setVisitorMsg:
		m.visitor = msg.visitor
		if msg.visitor == (chat.VisitorInfo{}) {
			m.transcript = nil
			m.name, m.contact = "", ""
		}
		return m, nil
	case submitResultMsg:
		m.submitting = false
		if msg.err != nil {
			m.formErr = capitalize(msg.err.Error())
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.ctrl.Teardown()
		return m, tea.Quit
	}

	switch m.panel {
	case panelHidden:
		if msg.String() == "o" {
			m.ctrl.Open()
		}
		return m, nil
	case panelForm:
		return m.handleFormKey(msg)
	default:
		return m.handleChatKey(msg)
	}
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.ctrl.Close()
		return m, nil
	case tea.KeyTab:
		m.focusName = !m.focusName
		return m, nil
	case tea.KeyEnter:
		if m.submitting {
			return m, nil
		}
		m.submitting = true
		m.formErr = ""
		name, contact := m.name, m.contact
		ctrl := m.ctrl
		return m, func() tea.Msg {
			return submitResultMsg{err: ctrl.SubmitContactForm(context.Background(), name, contact)}
		}
	case tea.KeyBackspace:
		if m.focusName {
			m.name = trimLast(m.name)
		} else {
			m.contact = trimLast(m.contact)
		}
		return m, nil
	case tea.KeyRunes, tea.KeySpace:
		if m.focusName {
			m.name += string(msg.Runes)
		} else {
			m.contact += string(msg.Runes)
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirming {
		switch msg.String() {
		case "y":
			m.confirming = false
			m.ctrl.EndConversation(true)
		case "n", "esc":
			m.confirming = false
		}
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEsc:
		m.ctrl.Close()
		return m, nil
	case tea.KeyCtrlE:
		m.confirming = true
		return m, nil
	case tea.KeyEnter:
		text := m.input
		m.input = ""
		if err := m.ctrl.SendUserMessage(context.Background(), text); err != nil {
			m.formErr = capitalize(err.Error())
		} else {
			m.formErr = ""
		}
		return m, nil
	case tea.KeyBackspace:
		m.input = trimLast(m.input)
		return m, nil
	case tea.KeyRunes, tea.KeySpace:
		m.input += string(msg.Runes)
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	switch m.panel {
	case panelHidden:
		b.WriteString("💬  press o to open chat, ctrl+c to quit\n")
	case panelForm:
		b.WriteString("Hi there 👋  Before we chat, how do I reach you?\n\n")
		b.WriteString(field("Name", m.name, m.focusName))
		b.WriteString(field("Email or phone", m.contact, !m.focusName))
		b.WriteString("\ntab to switch · enter to start · esc to close\n")
		if m.submitting {
			b.WriteString("connecting...\n")
		}
	default:
		if m.visitor.Name != "" {
			b.WriteString("Chatting as " + m.visitor.Name + " (" + m.visitor.Contact + ")\n\n")
		}
		for _, msg := range m.transcript {
			if msg.FromUser {
				b.WriteString("you  > " + msg.Text + "\n")
			} else {
				b.WriteString("host > " + msg.Text + "\n")
			}
		}
		if m.confirming {
			b.WriteString("\nEnd this conversation and clear all history? (y/n)\n")
		} else {
			b.WriteString("\n> " + m.input + "█\n")
			b.WriteString("enter to send · ctrl+e to end conversation · esc to close\n")
		}
	}

	if m.formErr != "" {
		b.WriteString("\n⚠ " + m.formErr + "\n")
	}
	return b.String()
}

func field(label, value string, focused bool) string {
	marker := "  "
	if focused {
		marker = "> "
	}
	return marker + label + ": " + value + "\n"
}

func trimLast(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	return string(runes[:len(runes)-1])
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
