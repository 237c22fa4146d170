package viewer

import (
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
)

// PromptResult is the outcome of feeding one message to the prompt.
type PromptResult int

const (
	// PromptPending means the prompt consumed the message and stays up.
	PromptPending PromptResult = iota
	// PromptConfirmed means Enter committed the entered text.
	PromptConfirmed
	// PromptCancelled means the prompt was dismissed.
	PromptCancelled
)

// Prompt is the one-row search entry field. The editing surface
// (Left/Right/Home/C-a/End/C-e/Backspace/Delete/C-u, literal
// insertion) comes from the textinput widget; Enter, Escape and
// backspace-on-empty are handled here. Up/Down history traversal is
// reserved and deliberately unbound.
type Prompt struct {
	input  textinput.Model
	active bool
}

// NewPrompt builds the prompt with the "/" marker.
func NewPrompt() Prompt {
	ti := textinput.New()
	ti.Prompt = "/"
	return Prompt{input: ti}
}

// Active reports whether the prompt owns the bottom row and the keys.
func (p *Prompt) Active() bool { return p.active }

// Enter activates the prompt with initial text (the "{" shortcut
// pre-fills the buffer).
func (p *Prompt) Enter(initial string) tea.Cmd {
	p.active = true
	p.input.SetValue(initial)
	p.input.CursorEnd()
	return p.input.Focus()
}

func (p *Prompt) exit() {
	p.active = false
	p.input.Blur()
}

// Value returns the entered text.
func (p *Prompt) Value() string { return p.input.Value() }

// Update feeds one message to the prompt.
func (p *Prompt) Update(msg tea.Msg) (PromptResult, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			p.exit()
			return PromptConfirmed, nil
		case "esc":
			p.exit()
			return PromptCancelled, nil
		case "backspace":
			if p.input.Value() == "" {
				p.exit()
				return PromptCancelled, nil
			}
		case "up", "down":
			// Reserved for history traversal.
			return PromptPending, nil
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return PromptPending, cmd
}

// View renders the prompt row.
func (p *Prompt) View() string {
	return p.input.View()
}
