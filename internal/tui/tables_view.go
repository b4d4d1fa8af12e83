package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/angie756/cafe-limon/internal/api"
	"github.com/angie756/cafe-limon/internal/domain"
)

type tablesLoadedMsg struct {
	seq    int
	tables []domain.Table
	err    error
}

type tableMutatedMsg struct {
	status string
	err    error
}

// tablesView manages the floor plan: list, create, toggle, QR generation and
// deletion. Admin only; the role gate lives in the root model.
type tablesView struct {
	app     *App
	spinner spinner.Model
	input   textinput.Model

	tables    []domain.Table
	selection int
	loading   bool
	creating  bool
	seq       int
	errMsg    string
}

func newTablesView(app *App) *tablesView {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	input := textinput.New()
	input.Placeholder = "number,capacity[,location] e.g. 12,4,terraza"
	input.CharLimit = 80
	return &tablesView{app: app, spinner: sp, input: input}
}

func (v *tablesView) capturing() bool {
	return v.creating
}

func (v *tablesView) Init() tea.Cmd {
	v.errMsg = ""
	v.creating = false
	return tea.Batch(v.spinner.Tick, v.load())
}

func (v *tablesView) load() tea.Cmd {
	v.loading = true
	v.seq++
	seq := v.seq
	return func() tea.Msg {
		tables, err := v.app.deps.Tables.Tables(v.app.ctx, false)
		return tablesLoadedMsg{seq: seq, tables: tables, err: err}
	}
}

func (v *tablesView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !v.loading {
			return nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return cmd

	case tablesLoadedMsg:
		if msg.seq != v.seq {
			return nil
		}
		v.loading = false
		if msg.err != nil {
			v.errMsg = api.UserMessage(msg.err)
			return nil
		}
		v.errMsg = ""
		v.tables = msg.tables
		if v.selection >= len(v.tables) {
			v.selection = max(0, len(v.tables)-1)
		}
		return nil

	case tableMutatedMsg:
		v.loading = false
		if msg.err != nil {
			v.errMsg = api.UserMessage(msg.err)
			return nil
		}
		v.errMsg = ""
		v.app.setStatus(msg.status)
		return tea.Batch(v.spinner.Tick, v.load())

	case tea.KeyMsg:
		if v.creating {
			switch msg.String() {
			case "esc":
				v.creating = false
				v.input.Blur()
				return nil
			case "enter":
				value := v.input.Value()
				v.creating = false
				v.input.Blur()
				return v.create(value)
			}
			var cmd tea.Cmd
			v.input, cmd = v.input.Update(msg)
			return cmd
		}

		switch msg.String() {
		case "up", "k":
			if v.selection > 0 {
				v.selection--
			}
		case "down", "j":
			if v.selection < len(v.tables)-1 {
				v.selection++
			}
		case "n":
			v.creating = true
			v.input.SetValue("")
			v.input.Focus()
			return textinput.Blink
		case "t":
			if table, ok := v.selected(); ok {
				return v.toggleActive(table)
			}
		case "g":
			if table, ok := v.selected(); ok {
				return v.generateQR(table)
			}
		case "d":
			if table, ok := v.selected(); ok {
				return v.delete(table)
			}
		case "r":
			return tea.Batch(v.spinner.Tick, v.load())
		case "a":
			return v.app.switchTo(screenAdmin)
		}
	}
	return nil
}

func (v *tablesView) selected() (domain.Table, bool) {
	if v.selection < 0 || v.selection >= len(v.tables) {
		return domain.Table{}, false
	}
	return v.tables[v.selection], true
}

// create parses "number,capacity[,location]" and posts the new table.
func (v *tablesView) create(value string) tea.Cmd {
	parts := strings.Split(value, ",")
	if len(parts) < 2 {
		v.errMsg = "Expected number,capacity[,location]"
		return nil
	}
	number := strings.TrimSpace(parts[0])
	capacity, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if number == "" || err != nil || capacity <= 0 {
		v.errMsg = "Table number and a positive capacity are required"
		return nil
	}
	req := domain.TableRequest{Number: number, Capacity: capacity}
	if len(parts) > 2 {
		req.Location = strings.TrimSpace(parts[2])
	}

	v.loading = true
	return func() tea.Msg {
		table, err := v.app.deps.Tables.Create(v.app.ctx, req)
		if err != nil {
			return tableMutatedMsg{err: err}
		}
		return tableMutatedMsg{status: fmt.Sprintf("Table %s created", table.Number)}
	}
}

func (v *tablesView) toggleActive(table domain.Table) tea.Cmd {
	v.loading = true
	target := !table.Active
	return func() tea.Msg {
		_, err := v.app.deps.Tables.UpdateStatus(v.app.ctx, table.ID, target)
		if err != nil {
			return tableMutatedMsg{err: err}
		}
		return tableMutatedMsg{status: fmt.Sprintf("Table %s active=%t", table.Number, target)}
	}
}

func (v *tablesView) generateQR(table domain.Table) tea.Cmd {
	v.loading = true
	return func() tea.Msg {
		code, err := v.app.deps.Tables.GenerateQR(v.app.ctx, table.ID)
		if err != nil {
			return tableMutatedMsg{err: err}
		}
		return tableMutatedMsg{status: fmt.Sprintf("QR for table %s: %s", table.Number, code)}
	}
}

func (v *tablesView) delete(table domain.Table) tea.Cmd {
	v.loading = true
	return func() tea.Msg {
		if err := v.app.deps.Tables.Delete(v.app.ctx, table.ID); err != nil {
			return tableMutatedMsg{err: err}
		}
		return tableMutatedMsg{status: fmt.Sprintf("Table %s deleted", table.Number)}
	}
}

func (v *tablesView) View() string {
	lines := []string{headingStyle.Render(fmt.Sprintf("Tables (%d)", len(v.tables)))}
	if v.loading && len(v.tables) == 0 {
		lines = append(lines, v.spinner.View()+" Loading tables...")
	}
	if !v.loading && len(v.tables) == 0 {
		lines = append(lines, mutedStyle.Render("No tables yet. Press n to add one."))
	}

	for i, table := range v.tables {
		indicator := "  "
		if i == v.selection {
			indicator = selectedStyle.Render("> ")
		}
		state := successStyle.Render("active")
		if !table.Active {
			state = mutedStyle.Render("inactive")
		}
		line := fmt.Sprintf("%smesa %s  %d seats  %s", indicator, table.Number, table.Capacity, state)
		if table.Location != "" {
			line += mutedStyle.Render("  " + table.Location)
		}
		if table.QRCode != "" {
			line += mutedStyle.Render("  qr✓")
		}
		lines = append(lines, line)
	}

	if v.creating {
		lines = append(lines, "", "New table: "+v.input.View())
	}
	if v.errMsg != "" {
		lines = append(lines, "", errorStyle.Render(v.errMsg))
	}
	lines = append(lines, footerStyle.Render("↑/↓=move  n=new  t=toggle active  g=generate QR  d=delete  a=dashboard  r=refresh  q=quit"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
