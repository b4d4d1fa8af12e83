package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/angie756/cafe-limon/internal/api"
	"github.com/angie756/cafe-limon/internal/cart"
	"github.com/angie756/cafe-limon/internal/domain"
	"github.com/angie756/cafe-limon/internal/format"
)

type orderLoadedMsg struct {
	seq int
	err error
}

type orderCancelledMsg struct {
	err error
}

// orderView tracks one order. A realtime watch re-fetches it on every push;
// without a connection the r key is the manual fallback.
type orderView struct {
	app     *App
	spinner spinner.Model
	input   textinput.Model
	orderID string
	loading bool
	seq     int
	errMsg  string

	cancelling bool
	unwatch    func()

	// lastStatus is the status last shown to the user, so a push-driven
	// change can be announced exactly once.
	lastStatus domain.OrderStatus
}

func newOrderView(app *App) *orderView {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	input := textinput.New()
	input.Placeholder = "reason (optional)"
	input.CharLimit = 200
	return &orderView{app: app, spinner: sp, input: input}
}

func (v *orderView) capturing() bool {
	return v.cancelling
}

func (v *orderView) Init() tea.Cmd {
	v.errMsg = ""
	v.cancelling = false
	v.lastStatus = ""
	if v.orderID == "" {
		// No explicit id: fall back to the most recent order.
		if recent := v.app.deps.Orders.RecentOrderIDs(); len(recent) > 0 {
			v.orderID = recent[0]
		} else {
			v.errMsg = "No order to track yet. Place one from the menu."
			return nil
		}
	}
	v.watch()
	return tea.Batch(v.spinner.Tick, v.load())
}

// watch replaces any previous realtime scope with the current order's.
func (v *orderView) watch() {
	if v.unwatch != nil {
		v.unwatch()
	}
	v.unwatch = v.app.deps.Orders.WatchOrder(v.app.ctx, v.app.deps.Realtime, v.orderID)
}

// release leaves the order room when the screen is left.
func (v *orderView) release() {
	if v.unwatch != nil {
		v.unwatch()
		v.unwatch = nil
	}
}

func (v *orderView) load() tea.Cmd {
	v.loading = true
	v.seq++
	seq := v.seq
	orderID := v.orderID
	return func() tea.Msg {
		_, err := v.app.deps.Orders.Fetch(v.app.ctx, orderID)
		return orderLoadedMsg{seq: seq, err: err}
	}
}

func (v *orderView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !v.loading {
			return nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return cmd

	case orderLoadedMsg:
		if msg.seq != v.seq {
			return nil
		}
		v.loading = false
		if msg.err != nil {
			v.errMsg = api.UserMessage(msg.err)
			return nil
		}
		v.errMsg = ""
		return v.statusCheck()

	case stateChangedMsg:
		// A push re-fetched the order behind our back.
		return v.statusCheck()

	case orderCancelledMsg:
		v.loading = false
		if msg.err != nil {
			v.errMsg = api.UserMessage(msg.err)
			return nil
		}
		v.app.setStatus("Order cancelled")
		return nil

	case tea.KeyMsg:
		if v.cancelling {
			switch msg.String() {
			case "esc":
				v.cancelling = false
				v.input.Blur()
				return nil
			case "enter":
				reason := strings.TrimSpace(v.input.Value())
				v.cancelling = false
				v.input.Blur()
				return v.cancel(reason)
			}
			var cmd tea.Cmd
			v.input, cmd = v.input.Update(msg)
			return cmd
		}

		switch msg.String() {
		case "r":
			return tea.Batch(v.spinner.Tick, v.load())
		case "x":
			order, ok := v.app.deps.Orders.CurrentOrder()
			if !ok || order.Status.IsTerminal() {
				v.errMsg = "This order can no longer be cancelled"
				return nil
			}
			v.cancelling = true
			v.input.SetValue("")
			v.input.Focus()
			return textinput.Blink
		case "m":
			return v.app.switchTo(screenMenu)
		}
	}
	return nil
}

// statusCheck announces a status change of the tracked order, honoring the
// persisted notification preferences.
func (v *orderView) statusCheck() tea.Cmd {
	order, ok := v.app.deps.Orders.CurrentOrder()
	if !ok || order.ID != v.orderID {
		return nil
	}
	prev := v.lastStatus
	v.lastStatus = order.Status
	if prev == "" || prev == order.Status {
		return nil
	}
	return v.app.notify("Order " + format.OrderID(order.ID) + " is now " + order.Status.Label())
}

func (v *orderView) cancel(reason string) tea.Cmd {
	v.loading = true
	orderID := v.orderID
	return func() tea.Msg {
		_, err := v.app.deps.Orders.Cancel(v.app.ctx, orderID, reason)
		return orderCancelledMsg{err: err}
	}
}

var statusProgression = []domain.OrderStatus{
	domain.StatusPending,
	domain.StatusEnPreparacion,
	domain.StatusListo,
	domain.StatusEntregado,
}

func (v *orderView) View() string {
	if v.errMsg != "" && v.orderID == "" {
		return errorStyle.Render(v.errMsg)
	}
	order, ok := v.app.deps.Orders.CurrentOrder()
	if !ok {
		if v.loading {
			return v.spinner.View() + " Loading order..."
		}
		if v.errMsg != "" {
			return errorStyle.Render(v.errMsg)
		}
		return mutedStyle.Render("No order loaded.")
	}

	lines := []string{
		headingStyle.Render("Order " + format.OrderID(order.ID)),
		"",
		v.renderProgress(order.Status),
		"",
	}
	if order.Table != nil {
		lines = append(lines, fmt.Sprintf("Table %s", order.Table.Number))
	}
	if order.CustomerName != "" {
		lines = append(lines, "For "+order.CustomerName)
	}
	lines = append(lines, "Placed "+format.RelativeTime(order.CreatedAt), "")

	for _, item := range order.Items {
		lines = append(lines, fmt.Sprintf("  %dx %s  %s",
			item.Quantity, item.ProductName, format.Price(cart.ItemSubtotal(item))))
		if item.Notes != "" {
			lines = append(lines, mutedStyle.Render("     "+item.Notes))
		}
	}
	lines = append(lines, "", "Total: "+successStyle.Render(format.Price(order.TotalAmount)))

	if order.ReadyAt != nil {
		lines = append(lines, successStyle.Render("Ready since "+format.Clock(*order.ReadyAt)))
	}
	if order.DeliveredAt != nil {
		lines = append(lines, mutedStyle.Render("Delivered at "+format.Clock(*order.DeliveredAt)))
	}

	if v.cancelling {
		lines = append(lines, "", "Cancel reason: "+v.input.View())
	}
	if v.errMsg != "" {
		lines = append(lines, "", errorStyle.Render(v.errMsg))
	}
	if !v.app.deps.Realtime.IsConnected() {
		lines = append(lines, "", mutedStyle.Render("Live updates offline, press r to refresh"))
	}
	lines = append(lines, footerStyle.Render("r=refresh  x=cancel order  m=menu  q=quit"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderProgress draws the status as a progression bar, or the cancel notice.
func (v *orderView) renderProgress(status domain.OrderStatus) string {
	if status == domain.StatusCancelado {
		return statusStyle(string(status)).Render("✗ " + status.Label())
	}
	var steps []string
	reached := true
	for _, step := range statusProgression {
		label := step.Label()
		if step == status {
			steps = append(steps, statusStyle(string(step)).Render("● "+label))
			reached = false
			continue
		}
		if reached {
			steps = append(steps, successStyle.Render("✓ "+label))
		} else {
			steps = append(steps, mutedStyle.Render("○ "+label))
		}
	}
	return strings.Join(steps, mutedStyle.Render("  ─  "))
}
