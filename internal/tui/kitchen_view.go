package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/angie756/cafe-limon/internal/api"
	"github.com/angie756/cafe-limon/internal/domain"
	"github.com/angie756/cafe-limon/internal/format"
)

type boardLoadedMsg struct {
	seq int
	err error
}

type advanceResultMsg struct {
	order *domain.Order
	err   error
}

// kitchenView is the live board of active orders. New orders and status
// changes arrive as realtime pushes and each triggers one re-fetch.
type kitchenView struct {
	app       *App
	spinner   spinner.Model
	selection int
	loading   bool
	seq       int
	errMsg    string
	unbind    func()
}

func newKitchenView(app *App) *kitchenView {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &kitchenView{app: app, spinner: sp}
}

func (v *kitchenView) Init() tea.Cmd {
	v.errMsg = ""
	if v.unbind == nil {
		v.unbind = v.app.deps.Orders.BindRealtime(v.app.ctx, v.app.deps.Realtime)
	}
	return tea.Batch(v.spinner.Tick, v.load())
}

// release drops the board subscriptions when the screen is left, so pushes
// stop triggering re-fetches for a view nobody is watching.
func (v *kitchenView) release() {
	if v.unbind != nil {
		v.unbind()
		v.unbind = nil
	}
}

func (v *kitchenView) load() tea.Cmd {
	v.loading = true
	v.seq++
	seq := v.seq
	return func() tea.Msg {
		_, err := v.app.deps.Orders.FetchActive(v.app.ctx)
		return boardLoadedMsg{seq: seq, err: err}
	}
}

func (v *kitchenView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !v.loading {
			return nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return cmd

	case boardLoadedMsg:
		if msg.seq != v.seq {
			return nil
		}
		v.loading = false
		if msg.err != nil {
			v.errMsg = api.UserMessage(msg.err)
			return nil
		}
		v.errMsg = ""
		v.clamp()
		return nil

	case advanceResultMsg:
		v.loading = false
		if msg.err != nil {
			v.errMsg = api.UserMessage(msg.err)
			return nil
		}
		v.errMsg = ""
		v.app.setStatus(fmt.Sprintf("Order %s is now %s",
			format.OrderID(msg.order.ID), msg.order.Status.Label()))
		return nil

	case tea.KeyMsg:
		board := v.app.deps.Orders.Orders()
		switch msg.String() {
		case "up", "k":
			if v.selection > 0 {
				v.selection--
			}
		case "down", "j":
			if v.selection < len(board)-1 {
				v.selection++
			}
		case "enter", " ":
			if order, ok := v.selected(board); ok {
				return v.advance(order)
			}
		case "x":
			if order, ok := v.selected(board); ok {
				return v.cancel(order)
			}
		case "r":
			return tea.Batch(v.spinner.Tick, v.load())
		}
	}
	return nil
}

func (v *kitchenView) selected(board []domain.Order) (domain.Order, bool) {
	if v.selection < 0 || v.selection >= len(board) {
		return domain.Order{}, false
	}
	return board[v.selection], true
}

func (v *kitchenView) clamp() {
	count := len(v.app.deps.Orders.Orders())
	if v.selection >= count {
		v.selection = count - 1
	}
	if v.selection < 0 {
		v.selection = 0
	}
}

// advance requests the next step of the progression for the selected order.
func (v *kitchenView) advance(order domain.Order) tea.Cmd {
	next := order.Status.Next()
	if next == "" {
		v.errMsg = fmt.Sprintf("Order %s is already %s", format.OrderID(order.ID), order.Status.Label())
		return nil
	}
	v.loading = true
	return func() tea.Msg {
		updated, err := v.app.deps.Orders.Advance(v.app.ctx, order.ID, next)
		return advanceResultMsg{order: updated, err: err}
	}
}

func (v *kitchenView) cancel(order domain.Order) tea.Cmd {
	if order.Status.IsTerminal() {
		v.errMsg = "Order is already finished"
		return nil
	}
	v.loading = true
	return func() tea.Msg {
		updated, err := v.app.deps.Orders.Cancel(v.app.ctx, order.ID, "cancelled from kitchen")
		return advanceResultMsg{order: updated, err: err}
	}
}

func (v *kitchenView) View() string {
	board := v.app.deps.Orders.Orders()

	lines := []string{headingStyle.Render(fmt.Sprintf("Kitchen board (%d active)", len(board)))}
	if v.loading && len(board) == 0 {
		lines = append(lines, v.spinner.View()+" Loading orders...")
	}
	if !v.loading && len(board) == 0 {
		lines = append(lines, mutedStyle.Render("No active orders. Enjoy the calm."))
	}

	for i, order := range board {
		indicator := "  "
		if i == v.selection {
			indicator = selectedStyle.Render("> ")
		}
		table := "?"
		if order.Table != nil {
			table = order.Table.Number
		}
		head := fmt.Sprintf("%s%s  mesa %s  %s  %s",
			indicator,
			format.OrderID(order.ID),
			table,
			statusStyle(string(order.Status)).Render(order.Status.Label()),
			mutedStyle.Render(format.RelativeTime(order.CreatedAt)))
		lines = append(lines, head)
		if i == v.selection {
			for _, item := range order.Items {
				itemLine := fmt.Sprintf("    %dx %s", item.Quantity, item.ProductName)
				if item.Notes != "" {
					itemLine += mutedStyle.Render("  (" + item.Notes + ")")
				}
				lines = append(lines, itemLine)
			}
			if next := order.Status.Next(); next != "" {
				lines = append(lines, mutedStyle.Render("    enter → "+next.Label()))
			}
		}
	}

	if v.errMsg != "" {
		lines = append(lines, "", errorStyle.Render(v.errMsg))
	}
	if !v.app.deps.Realtime.IsConnected() {
		lines = append(lines, "", mutedStyle.Render("Live updates offline, press r to refresh"))
	}
	lines = append(lines, footerStyle.Render("↑/↓=move  enter=advance  x=cancel  r=refresh  q=quit"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
