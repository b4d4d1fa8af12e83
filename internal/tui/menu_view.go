package tui

import (
	"errors"
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
	"github.com/angie756/cafe-limon/internal/orders"
)

type menuFocus int

const (
	focusProducts menuFocus = iota
	focusCart
)

type menuInput int

const (
	inputNone menuInput = iota
	inputTableNumber
	inputNotes
	inputCustomerName
)

type menuLoadedMsg struct {
	seq int
	mnu *domain.Menu
	err error
}

type tableResolvedMsg struct {
	seq   int
	table *domain.Table
	err   error
}

type orderCreatedMsg struct {
	order *domain.Order
	err   error
}

// menuView shows the menu beside the cart and drives checkout. Each fetch is
// tagged with a sequence number; responses from superseded fetches are
// dropped so a slow reply can never overwrite a newer one.
type menuView struct {
	app     *App
	spinner spinner.Model
	input   textinput.Model
	mode    menuInput
	focus   menuFocus

	tableID     string
	tableNumber string
	category    int
	product     int
	cartLine    int
	loading     bool
	seq         int
	errMsg      string

	// notesTarget remembers which cart line a notes edit applies to.
	notesTarget domain.OrderItem

	unbind func()
}

func newMenuView(app *App) *menuView {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	input := textinput.New()
	input.CharLimit = 200
	return &menuView{app: app, spinner: sp, input: input}
}

func (v *menuView) capturing() bool {
	return v.mode != inputNone
}

func (v *menuView) Init() tea.Cmd {
	v.errMsg = ""
	if v.unbind == nil {
		// Menu and product pushes re-fetch the available menu.
		v.unbind = v.app.deps.Menu.BindRealtime(v.app.ctx, v.app.deps.Realtime)
	}
	if v.tableID == "" {
		v.mode = inputTableNumber
		v.input.Placeholder = "table number"
		v.input.SetValue("")
		v.input.Focus()
		return textinput.Blink
	}
	return tea.Batch(v.spinner.Tick, v.loadMenu())
}

// release drops the menu push subscription when the screen is left.
func (v *menuView) release() {
	if v.unbind != nil {
		v.unbind()
		v.unbind = nil
	}
}

func (v *menuView) loadMenu() tea.Cmd {
	v.loading = true
	v.seq++
	seq := v.seq
	tableID := v.tableID
	return func() tea.Msg {
		mnu, err := v.app.deps.Menu.LoadForTable(v.app.ctx, tableID)
		return menuLoadedMsg{seq: seq, mnu: mnu, err: err}
	}
}

func (v *menuView) resolveTable(number string) tea.Cmd {
	v.loading = true
	v.seq++
	seq := v.seq
	return func() tea.Msg {
		table, err := v.app.deps.Menu.ResolveTable(v.app.ctx, number)
		return tableResolvedMsg{seq: seq, table: table, err: err}
	}
}

func (v *menuView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !v.loading {
			return nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return cmd

	case tableResolvedMsg:
		if msg.seq != v.seq {
			return nil
		}
		v.loading = false
		if msg.err != nil {
			if api.IsNotFound(msg.err) {
				v.errMsg = fmt.Sprintf("Table %s does not exist", v.tableNumber)
			} else {
				v.errMsg = api.UserMessage(msg.err)
			}
			v.mode = inputTableNumber
			v.input.Focus()
			return nil
		}
		v.tableID = msg.table.ID
		v.app.deps.Cart.SetTable(msg.table.ID)
		return tea.Batch(v.spinner.Tick, v.loadMenu())

	case menuLoadedMsg:
		if msg.seq != v.seq {
			return nil
		}
		v.loading = false
		if msg.err != nil {
			v.errMsg = api.UserMessage(msg.err)
			return nil
		}
		v.errMsg = ""
		v.clampSelection()
		return nil

	case orderCreatedMsg:
		v.loading = false
		if msg.err != nil {
			var verr *orders.ValidationError
			if errors.As(msg.err, &verr) {
				v.errMsg = verr.Result.Error()
			} else {
				v.errMsg = api.UserMessage(msg.err)
			}
			return nil
		}
		v.app.deps.Cart.Clear()
		v.app.setStatus(fmt.Sprintf("Order %s placed, total %s",
			format.OrderID(msg.order.ID), format.Price(msg.order.TotalAmount)))
		v.app.orderView.orderID = msg.order.ID
		return v.app.switchTo(screenOrder)

	case tea.KeyMsg:
		if v.mode != inputNone {
			return v.updateInput(msg)
		}
		return v.handleKey(msg)
	}
	return nil
}

func (v *menuView) updateInput(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		if v.mode == inputTableNumber && v.tableID == "" {
			// No table yet, nothing to go back to.
			return nil
		}
		v.mode = inputNone
		v.input.Blur()
		return nil
	case "enter":
		value := strings.TrimSpace(v.input.Value())
		mode := v.mode
		v.mode = inputNone
		v.input.Blur()
		switch mode {
		case inputTableNumber:
			if value == "" {
				v.mode = inputTableNumber
				v.input.Focus()
				return nil
			}
			v.tableNumber = value
			return v.resolveTable(value)
		case inputNotes:
			v.app.deps.Cart.UpdateNotes(v.notesTarget.ProductID, v.notesTarget.Notes, value)
			return nil
		case inputCustomerName:
			return v.placeOrder(value)
		}
		return nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return cmd
}

func (v *menuView) handleKey(msg tea.KeyMsg) tea.Cmd {
	items := v.app.deps.Cart.Items()
	switch msg.String() {
	case "tab":
		if v.focus == focusProducts && len(items) > 0 {
			v.focus = focusCart
		} else {
			v.focus = focusProducts
		}
	case "left", "h":
		if v.focus == focusProducts && v.category > 0 {
			v.category--
			v.product = 0
		}
	case "right", "l":
		if v.focus == focusProducts && v.category < len(v.categories())-1 {
			v.category++
			v.product = 0
		}
	case "up", "k":
		if v.focus == focusProducts && v.product > 0 {
			v.product--
		} else if v.focus == focusCart && v.cartLine > 0 {
			v.cartLine--
		}
	case "down", "j":
		if v.focus == focusProducts && v.product < len(v.products())-1 {
			v.product++
		} else if v.focus == focusCart && v.cartLine < len(items)-1 {
			v.cartLine++
		}
	case "enter", "a":
		if v.focus == focusProducts {
			if product, ok := v.selectedProduct(); ok {
				if !product.Available {
					v.errMsg = fmt.Sprintf("%s is not available right now", product.Name)
					return nil
				}
				v.errMsg = ""
				v.app.deps.Cart.AddItem(product, 1, "")
				v.app.setStatus(fmt.Sprintf("Added %s", product.Name))
			}
		}
	case "+":
		if line, ok := v.selectedCartLine(items); ok {
			v.app.deps.Cart.SetQuantity(line.ProductID, line.Notes, line.Quantity+1)
		}
	case "-":
		if line, ok := v.selectedCartLine(items); ok {
			v.app.deps.Cart.SetQuantity(line.ProductID, line.Notes, line.Quantity-1)
			v.clampCartLine()
		}
	case "x", "delete":
		if line, ok := v.selectedCartLine(items); ok {
			v.app.deps.Cart.RemoveItem(line.ProductID, line.Notes)
			v.clampCartLine()
		}
	case "n":
		if line, ok := v.selectedCartLine(items); ok {
			v.notesTarget = line
			v.mode = inputNotes
			v.input.Placeholder = "notes for the kitchen"
			v.input.SetValue(line.Notes)
			v.input.Focus()
			return textinput.Blink
		}
	case "c":
		if v.app.deps.Cart.IsEmpty() {
			v.errMsg = "The cart is empty"
			return nil
		}
		v.mode = inputCustomerName
		v.input.Placeholder = "your name (optional)"
		v.input.SetValue("")
		v.input.Focus()
		return textinput.Blink
	case "r":
		return tea.Batch(v.spinner.Tick, v.loadMenu())
	}
	return nil
}

func (v *menuView) placeOrder(customerName string) tea.Cmd {
	v.loading = true
	v.errMsg = ""
	req := v.app.deps.Cart.OrderRequest(customerName)
	return func() tea.Msg {
		order, err := v.app.deps.Orders.Create(v.app.ctx, req)
		return orderCreatedMsg{order: order, err: err}
	}
}

func (v *menuView) categories() []domain.Category {
	mnu, ok := v.app.deps.Menu.Menu()
	if !ok {
		return nil
	}
	return mnu.Categories
}

// products returns the listing for the selected category, or the flat list
// when the menu carries no categories.
func (v *menuView) products() []domain.Product {
	mnu, ok := v.app.deps.Menu.Menu()
	if !ok {
		return nil
	}
	categories := mnu.Categories
	if len(categories) == 0 {
		return mnu.Products
	}
	if v.category >= len(categories) {
		return nil
	}
	return mnu.ProductsByCategory[categories[v.category].ID]
}

func (v *menuView) selectedProduct() (domain.Product, bool) {
	products := v.products()
	if v.product < 0 || v.product >= len(products) {
		return domain.Product{}, false
	}
	return products[v.product], true
}

func (v *menuView) selectedCartLine(items []domain.OrderItem) (domain.OrderItem, bool) {
	if v.focus != focusCart || v.cartLine < 0 || v.cartLine >= len(items) {
		return domain.OrderItem{}, false
	}
	return items[v.cartLine], true
}

func (v *menuView) clampSelection() {
	if categories := v.categories(); v.category >= len(categories) {
		v.category = 0
	}
	if products := v.products(); v.product >= len(products) {
		v.product = 0
	}
}

func (v *menuView) clampCartLine() {
	count := len(v.app.deps.Cart.Items())
	if v.cartLine >= count {
		v.cartLine = count - 1
	}
	if v.cartLine < 0 {
		v.cartLine = 0
		if count == 0 {
			v.focus = focusProducts
		}
	}
}

func (v *menuView) View() string {
	if v.mode == inputTableNumber {
		lines := []string{
			headingStyle.Render("Which table are you at?"),
			"",
			"Table: " + v.input.View(),
		}
		if v.errMsg != "" {
			lines = append(lines, "", errorStyle.Render(v.errMsg))
		}
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	if v.loading && v.mode == inputNone {
		return v.spinner.View() + " Loading menu..."
	}

	left := v.renderMenu()
	right := v.renderCart()
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(left), " ", panelStyle.Render(right))

	sections := []string{body}
	if v.mode == inputNotes {
		sections = append(sections, "Notes: "+v.input.View())
	}
	if v.mode == inputCustomerName {
		sections = append(sections, "Name: "+v.input.View())
	}
	if v.errMsg != "" {
		sections = append(sections, errorStyle.Render(v.errMsg))
	}
	sections = append(sections, footerStyle.Render(
		"←/→=category  ↑/↓=move  a=add  tab=cart  +/-=quantity  n=notes  x=remove  c=checkout  r=refresh  q=quit"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *menuView) renderMenu() string {
	categories := v.categories()
	var lines []string

	if len(categories) > 0 {
		var tabs []string
		for i, category := range categories {
			label := category.Name
			if i == v.category {
				label = selectedStyle.Render("[" + label + "]")
			} else {
				label = mutedStyle.Render(" " + label + " ")
			}
			tabs = append(tabs, label)
		}
		lines = append(lines, strings.Join(tabs, " "), "")
	}

	products := v.products()
	if len(products) == 0 {
		lines = append(lines, mutedStyle.Render("No products in this category."))
	}
	for i, product := range products {
		indicator := "  "
		if v.focus == focusProducts && i == v.product {
			indicator = selectedStyle.Render("> ")
		}
		name := product.Name
		if !product.Available {
			name = mutedStyle.Render(name + " (sold out)")
		}
		line := fmt.Sprintf("%s%s  %s", indicator, name, format.Price(product.Price))
		if product.PreparationTime > 0 {
			line += mutedStyle.Render("  " + format.PreparationTime(product.PreparationTime))
		}
		lines = append(lines, line)
		if v.focus == focusProducts && i == v.product && product.Description != "" {
			lines = append(lines, mutedStyle.Render("    "+format.Truncate(product.Description, 60)))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (v *menuView) renderCart() string {
	items := v.app.deps.Cart.Items()
	total := v.app.deps.Cart.Total()

	lines := []string{headingStyle.Render(fmt.Sprintf("Cart (%s)",
		format.Pluralize(v.app.deps.Cart.TotalItems(), "item", "")))}
	if len(items) == 0 {
		lines = append(lines, mutedStyle.Render("Empty. Add something tasty."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}
	for i, item := range items {
		indicator := "  "
		if v.focus == focusCart && i == v.cartLine {
			indicator = selectedStyle.Render("> ")
		}
		lines = append(lines, fmt.Sprintf("%s%dx %s  %s",
			indicator, item.Quantity, item.ProductName, format.Price(cart.ItemSubtotal(item))))
		if item.Notes != "" {
			lines = append(lines, mutedStyle.Render("    "+format.Truncate(item.Notes, 40)))
		}
	}
	lines = append(lines, "", "Total: "+successStyle.Render(format.Price(total)))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
