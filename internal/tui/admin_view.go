package tui

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/angie756/cafe-limon/internal/api"
	"github.com/angie756/cafe-limon/internal/clients"
	"github.com/angie756/cafe-limon/internal/format"
	"github.com/angie756/cafe-limon/internal/orders"
)

type dashboardLoadedMsg struct {
	seq       int
	dashboard *orders.Dashboard
	err       error
}

// rangePreset builds the StatsRange for a dashboard period at fetch time.
type rangePreset struct {
	label string
	build func(now time.Time) clients.StatsRange
}

var statsRanges = []rangePreset{
	{label: "today", build: func(now time.Time) clients.StatsRange {
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return clients.StatsRange{StartDate: start, EndDate: now}
	}},
	{label: "7 days", build: func(now time.Time) clients.StatsRange {
		return clients.StatsRange{StartDate: now.AddDate(0, 0, -7), EndDate: now}
	}},
	{label: "30 days", build: func(now time.Time) clients.StatsRange {
		return clients.StatsRange{StartDate: now.AddDate(0, 0, -30), EndDate: now}
	}},
}

// adminView is the owner's dashboard: revenue and order counts for a chosen
// range, the active order list, and the best sellers table.
type adminView struct {
	app       *App
	spinner   spinner.Model
	top       table.Model
	dashboard *orders.Dashboard
	rangeIdx  int
	loading   bool
	seq       int
	errMsg    string
}

func newAdminView(app *App) *adminView {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	top := table.New(
		table.WithColumns([]table.Column{
			{Title: "Product", Width: 30},
			{Title: "Sold", Width: 8},
		}),
		table.WithHeight(8),
	)
	return &adminView{app: app, spinner: sp, top: top}
}

func (v *adminView) Init() tea.Cmd {
	v.errMsg = ""
	return tea.Batch(v.spinner.Tick, v.load())
}

func (v *adminView) load() tea.Cmd {
	v.loading = true
	v.seq++
	seq := v.seq
	statsRange := statsRanges[v.rangeIdx].build(time.Now())
	return func() tea.Msg {
		dashboard, err := v.app.deps.Orders.FetchDashboard(v.app.ctx, statsRange)
		return dashboardLoadedMsg{seq: seq, dashboard: dashboard, err: err}
	}
}

func (v *adminView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !v.loading {
			return nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return cmd

	case dashboardLoadedMsg:
		if msg.seq != v.seq {
			return nil
		}
		v.loading = false
		if msg.err != nil {
			v.errMsg = api.UserMessage(msg.err)
			return nil
		}
		v.errMsg = ""
		v.dashboard = msg.dashboard
		rows := make([]table.Row, 0, len(msg.dashboard.TopProducts))
		for _, product := range msg.dashboard.TopProducts {
			rows = append(rows, table.Row{
				product.ProductName,
				strconv.FormatInt(product.TotalQuantity, 10),
			})
		}
		v.top.SetRows(rows)
		return nil

	case tea.KeyMsg:
		switch msg.String() {
		case "left", "h":
			if v.rangeIdx > 0 {
				v.rangeIdx--
				return tea.Batch(v.spinner.Tick, v.load())
			}
		case "right", "l":
			if v.rangeIdx < len(statsRanges)-1 {
				v.rangeIdx++
				return tea.Batch(v.spinner.Tick, v.load())
			}
		case "r":
			return tea.Batch(v.spinner.Tick, v.load())
		case "t":
			return v.app.switchTo(screenTables)
		case "k":
			return v.app.switchTo(screenKitchen)
		}
		var cmd tea.Cmd
		v.top, cmd = v.top.Update(msg)
		return cmd
	}
	return nil
}

func (v *adminView) View() string {
	if v.loading && v.dashboard == nil {
		return v.spinner.View() + " Loading dashboard..."
	}
	if v.dashboard == nil {
		if v.errMsg != "" {
			return errorStyle.Render(v.errMsg)
		}
		return mutedStyle.Render("No data yet.")
	}

	stats := v.dashboard.Stats
	rangeLabel := statsRanges[v.rangeIdx].label
	summary := []string{
		headingStyle.Render("Dashboard · " + rangeLabel),
		"",
		fmt.Sprintf("Orders: %s   Revenue: %s",
			format.Number(stats.TotalOrders), successStyle.Render(format.Price(stats.TotalRevenue))),
		fmt.Sprintf("Pending %s · Preparing %s · Ready %s",
			format.Number(stats.PendingOrders),
			format.Number(stats.PreparingOrders),
			format.Number(stats.ReadyOrders)),
		fmt.Sprintf("Avg preparation: %s", format.PreparationTime(int(stats.AveragePreparationTime))),
	}

	active := []string{headingStyle.Render(fmt.Sprintf("Active orders (%d)", len(v.dashboard.Active)))}
	for _, order := range v.dashboard.Active {
		tableNumber := "?"
		if order.Table != nil {
			tableNumber = order.Table.Number
		}
		active = append(active, fmt.Sprintf("%s  mesa %s  %s  %s",
			format.OrderID(order.ID),
			tableNumber,
			statusStyle(string(order.Status)).Render(order.Status.Label()),
			format.Price(order.TotalAmount)))
	}
	if len(v.dashboard.Active) == 0 {
		active = append(active, mutedStyle.Render("none"))
	}

	topPanel := lipgloss.JoinVertical(lipgloss.Left,
		headingStyle.Render("Best sellers"), v.top.View())

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, active...)),
		" ",
		panelStyle.Render(topPanel))

	sections := []string{
		lipgloss.JoinVertical(lipgloss.Left, summary...),
		"",
		body,
	}
	if v.errMsg != "" {
		sections = append(sections, errorStyle.Render(v.errMsg))
	}
	sections = append(sections, footerStyle.Render("←/→=range  t=tables  k=kitchen  r=refresh  q=quit"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
