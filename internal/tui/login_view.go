package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/angie756/cafe-limon/internal/api"
	"github.com/angie756/cafe-limon/internal/domain"
	"github.com/angie756/cafe-limon/internal/validation"
)

type loginResultMsg struct {
	user *domain.User
	err  error
}

// loginView collects credentials and, on success, continues to the screen the
// user originally asked for.
type loginView struct {
	app      *App
	username textinput.Model
	password textinput.Model
	focused  int
	busy     bool
	errMsg   string
	next     screen
}

func newLoginView(app *App) *loginView {
	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 64
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 64
	password.EchoMode = textinput.EchoPassword

	return &loginView{app: app, username: username, password: password, next: screenMenu}
}

func (v *loginView) Init() tea.Cmd {
	v.busy = false
	v.errMsg = ""
	return textinput.Blink
}

func (v *loginView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loginResultMsg:
		v.busy = false
		if msg.err != nil {
			if api.KindOf(msg.err) == api.KindUnauthorized {
				v.errMsg = "Invalid username or password"
			} else {
				v.errMsg = api.UserMessage(msg.err)
			}
			return nil
		}
		v.app.setStatus(fmt.Sprintf("Welcome back, %s", msg.user.Username))
		return v.app.switchTo(v.next)

	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			v.toggleFocus()
			return nil
		case "enter":
			if v.focused == 0 {
				v.toggleFocus()
				return nil
			}
			return v.submit()
		}
	}

	var cmd tea.Cmd
	if v.focused == 0 {
		v.username, cmd = v.username.Update(msg)
	} else {
		v.password, cmd = v.password.Update(msg)
	}
	return cmd
}

func (v *loginView) toggleFocus() {
	if v.focused == 0 {
		v.focused = 1
		v.username.Blur()
		v.password.Focus()
	} else {
		v.focused = 0
		v.password.Blur()
		v.username.Focus()
	}
}

func (v *loginView) submit() tea.Cmd {
	credentials := domain.Credentials{
		Username: v.username.Value(),
		Password: v.password.Value(),
	}
	if result := validation.ValidateLogin(credentials.Username, credentials.Password); !result.OK() {
		v.errMsg = result.Error()
		return nil
	}

	v.busy = true
	v.errMsg = ""
	return func() tea.Msg {
		user, err := v.app.deps.Auth.Login(v.app.ctx, credentials)
		return loginResultMsg{user: user, err: err}
	}
}

func (v *loginView) View() string {
	lines := []string{
		headingStyle.Render("Sign in"),
		"",
		"Username: " + v.username.View(),
		"Password: " + v.password.View(),
	}
	if v.busy {
		lines = append(lines, "", mutedStyle.Render("Signing in..."))
	}
	if v.errMsg != "" {
		lines = append(lines, "", errorStyle.Render(v.errMsg))
	}
	lines = append(lines, "", footerStyle.Render("enter=sign in  tab=switch field  ctrl+c=quit"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
