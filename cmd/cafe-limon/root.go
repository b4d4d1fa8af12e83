package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/angie756/cafe-limon/config"
	"github.com/angie756/cafe-limon/internal/api"
	"github.com/angie756/cafe-limon/internal/auth"
	"github.com/angie756/cafe-limon/internal/cart"
	"github.com/angie756/cafe-limon/internal/clients"
	"github.com/angie756/cafe-limon/internal/menu"
	"github.com/angie756/cafe-limon/internal/orders"
	"github.com/angie756/cafe-limon/internal/realtime"
	"github.com/angie756/cafe-limon/internal/storage"
	"github.com/angie756/cafe-limon/internal/tui"
)

// runtime holds the fully wired dependency graph for one invocation.
type runtime struct {
	cfg      *config.Config
	log      *logrus.Logger
	store    *storage.Store
	tables   clients.TableClient
	cart     *cart.Manager
	auth     *auth.Manager
	orders   *orders.Manager
	menu     *menu.Manager
	realtime *realtime.Client
}

// buildRuntime wires config, logging, storage, the API pipeline, the typed
// clients and the state managers. The 401 hook is bound late because the auth
// manager needs a client that needs the hook.
func buildRuntime() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	if cfg.LogJSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	store, err := storage.New(cfg.StateDir, log)
	if err != nil {
		return nil, err
	}

	var forceLogout func()
	apiClient := api.NewClient(cfg.APIURL, cfg.HTTPTimeout, log,
		api.WithTokenSource(store.Token),
		api.WithUnauthorizedHook(func() {
			if forceLogout != nil {
				forceLogout()
			}
		}),
	)

	menuClient := clients.NewMenuClient(apiClient, log)
	orderClient := clients.NewOrderClient(apiClient, log)
	tableClient := clients.NewTableClient(apiClient, log)
	authClient := clients.NewAuthClient(apiClient, log)

	authManager := auth.NewManager(authClient, store, log)
	forceLogout = authManager.ForceLogout

	rt := &runtime{
		cfg:      cfg,
		log:      log,
		store:    store,
		tables:   tableClient,
		cart:     cart.NewManager(log).WithStore(store),
		auth:     authManager,
		orders:   orders.NewManager(orderClient, store, cfg.Limits, log),
		menu:     menu.NewManager(menuClient, tableClient, log),
		realtime: realtime.NewClient(cfg.WSURL, store.Token, log),
	}
	return rt, nil
}

// bootstrap restores the persisted session and opens the realtime channel.
// Both steps degrade: a rejected token ends anonymous, a failed socket leaves
// the views on manual refresh.
func (rt *runtime) bootstrap(ctx context.Context) {
	rt.auth.Bootstrap()
	if rt.auth.IsAuthenticated() {
		if err := rt.auth.Verify(ctx); err != nil {
			rt.log.Warnf("Session verification failed: %v", err)
		}
	}
	if err := rt.realtime.Connect(); err != nil {
		rt.log.Warnf("Realtime unavailable, falling back to manual refresh: %v", err)
	}
}

func (rt *runtime) deps() tui.Deps {
	return tui.Deps{
		Config:   rt.cfg,
		Log:      rt.log,
		Cart:     rt.cart,
		Auth:     rt.auth,
		Orders:   rt.orders,
		Menu:     rt.menu,
		Tables:   rt.tables,
		Realtime: rt.realtime,
		Store:    rt.store,
	}
}

func (rt *runtime) runApp(ctx context.Context, app *tui.App) error {
	defer rt.realtime.Disconnect()
	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "cafe-limon",
		Short:         "Terminal client for the Café Limón ordering system",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newMenuCommand(),
		newOrderCommand(),
		newKitchenCommand(),
		newAdminCommand(),
		newTablesCommand(),
		newLoginCommand(),
		newLogoutCommand(),
		newWhoamiCommand(),
	)
	return root
}

func newMenuCommand() *cobra.Command {
	var tableNumber string
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Browse the menu and place an order",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			rt.bootstrap(ctx)

			var opts []tui.Option
			if tableNumber != "" {
				table, err := rt.tables.ByNumber(ctx, tableNumber)
				if err != nil {
					return fmt.Errorf("table %s: %w", tableNumber, err)
				}
				rt.cart.SetTable(table.ID)
				opts = append(opts, tui.WithTable(table.ID))
			} else if persisted := rt.cart.TableID(); persisted != "" {
				opts = append(opts, tui.WithTable(persisted))
			}
			app := tui.NewApp(ctx, rt.deps(), tui.ScreenMenu(), opts...)
			return rt.runApp(ctx, app)
		},
	}
	cmd.Flags().StringVarP(&tableNumber, "table", "t", "", "table number to order for")
	return cmd
}

func newOrderCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "order [id]",
		Short: "Track an order's progress",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			rt.bootstrap(ctx)

			var opts []tui.Option
			if len(args) > 0 {
				opts = append(opts, tui.WithOrder(args[0]))
			}
			app := tui.NewApp(ctx, rt.deps(), tui.ScreenOrder(), opts...)
			return rt.runApp(ctx, app)
		},
	}
}

func newKitchenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "kitchen",
		Short: "Live board of active orders (kitchen staff)",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			rt.bootstrap(ctx)
			app := tui.NewApp(ctx, rt.deps(), tui.ScreenKitchen())
			return rt.runApp(ctx, app)
		},
	}
}

func newAdminCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "admin",
		Short: "Sales dashboard (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			rt.bootstrap(ctx)
			app := tui.NewApp(ctx, rt.deps(), tui.ScreenAdmin())
			return rt.runApp(ctx, app)
		},
	}
}

func newTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "Manage the floor plan (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			rt.bootstrap(ctx)
			app := tui.NewApp(ctx, rt.deps(), tui.ScreenTables())
			return rt.runApp(ctx, app)
		},
	}
}

func newLoginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			rt.bootstrap(ctx)
			app := tui.NewApp(ctx, rt.deps(), tui.ScreenLogin())
			return rt.runApp(ctx, app)
		},
	}
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session locally and on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			rt.auth.Bootstrap()
			if !rt.auth.IsAuthenticated() {
				fmt.Println("Not signed in.")
				return nil
			}
			rt.auth.Logout(ctx)
			fmt.Println("Signed out.")
			return nil
		},
	}
}

func newWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime()
			if err != nil {
				return err
			}
			rt.auth.Bootstrap()
			user, ok := rt.auth.CurrentUser()
			if !ok {
				fmt.Println("Not signed in.")
				return nil
			}
			if err := rt.auth.Verify(cmd.Context()); err != nil {
				fmt.Println("Session expired, sign in again.")
				return nil
			}
			fmt.Printf("%s (%s)\n", user.Username, user.Role)
			return nil
		},
	}
}
