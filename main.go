// Command gridpath serves the grid pathfinding visualizer.
//
// Subcommands:
//  1. "serve" (default): HTTP server exposing the REST API, WebSocket streams and an /mcp endpoint
//  2. "mcp": MCP stdio server; reuses a running API or starts an internal one
//  3. "solve": runs A* on a layout config and prints the path
//  4. "view": edits and animates a layout in the terminal
//
// Flags control host/port, config directory, debug logging and optional
// ngrok tunneling for external access during development.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/gridpath/api"
	"github.com/wricardo/gridpath/game/config"
	"github.com/wricardo/gridpath/game/search"
	"github.com/wricardo/gridpath/game/service"
	"github.com/wricardo/gridpath/game/session"
	"github.com/wricardo/gridpath/transport/mcp"
	"github.com/wricardo/gridpath/transport/tui"
	"github.com/wricardo/gridpath/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Grid Pathfinder Server"
)

// Session retention
const (
	sessionCleanupInterval = 1 * time.Hour
	sessionMaxAge          = 24 * time.Hour
)

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// newCommand builds the command tree. Flags fall back to environment
// variables so .env files work for every subcommand.
func newCommand() *cli.Command {
	return &cli.Command{
		Name:           "gridpath",
		Usage:          "A* pathfinding visualizer",
		Version:        Version,
		DefaultCommand: "serve",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "Directory containing layout configurations",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:    "default-config",
				Usage:   "Layout used when a session names no config (default: classic)",
				Sources: cli.EnvVars("DEFAULT_CONFIG"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				log.SetFlags(log.LstdFlags | log.Lshortfile)
			} else {
				log.SetFlags(log.LstdFlags)
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			serveCommand(),
			mcpCommand(),
			solveCommand(),
			viewCommand(),
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"server", "http"},
		Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
			&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
			&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log.Printf("Starting %s v%s (mode: serve)", AppName, Version)

			svc, err := initializeServices(cmd.String("config-dir"), cmd.String("default-config"))
			if err != nil {
				return fmt.Errorf("failed to initialize services: %w", err)
			}

			return runHTTPServer(ctx, svc, httpOptions{
				addr:        fmt.Sprintf("%s:%d", cmd.String("host"), int(cmd.Int("port"))),
				ngrok:       cmd.Bool("ngrok"),
				ngrokAuth:   cmd.String("ngrok-auth"),
				ngrokDomain: cmd.String("ngrok-domain"),
			})
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:    "mcp",
		Aliases: []string{"stdio-mcp", "mcp-stdio"},
		Usage:   "Run MCP stdio server with internal HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api-url", Value: "http://localhost:8080", Usage: "External API to reuse when it is running", Sources: cli.EnvVars("API_URL")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			svc, err := initializeServices(cmd.String("config-dir"), cmd.String("default-config"))
			if err != nil {
				return fmt.Errorf("failed to initialize services: %w", err)
			}
			return runStdioMCPWithInternalServer(ctx, svc, cmd.String("api-url"))
		},
	}
}

func solveCommand() *cli.Command {
	return &cli.Command{
		Name:      "solve",
		Usage:     "Run A* on a layout config and print the path",
		ArgsUsage: "[config]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Print the result as JSON"},
			&cli.BoolFlag{Name: "events", Usage: "Include every search event in JSON output"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			svc, err := initializeServices(cmd.String("config-dir"), cmd.String("default-config"))
			if err != nil {
				return fmt.Errorf("failed to initialize services: %w", err)
			}
			gridService := svc.grid

			info, err := gridService.CreateSession(ctx, cmd.Args().First())
			if err != nil {
				return err
			}
			result, err := gridService.Solve(ctx, info.ID, service.SolveOptions{IncludeEvents: cmd.Bool("events")})
			if err != nil {
				return err
			}

			if cmd.Bool("json") {
				enc := json.NewEncoder(cmd.Root().Writer)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			printSolveResult(cmd.Root().Writer, info.ConfigName, result)
			return nil
		},
	}
}

func viewCommand() *cli.Command {
	return &cli.Command{
		Name:      "view",
		Usage:     "Edit and animate a layout in the terminal",
		ArgsUsage: "[config]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "mute", Usage: "Disable the end-of-run tone"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			svc, err := initializeServices(cmd.String("config-dir"), cmd.String("default-config"))
			if err != nil {
				return fmt.Errorf("failed to initialize services: %w", err)
			}
			gridService := svc.grid
			info, err := gridService.CreateSession(ctx, cmd.Args().First())
			if err != nil {
				return err
			}

			var tone *tui.Tone
			if !cmd.Bool("mute") {
				if tone, err = tui.NewTone(); err != nil {
					// Non-fatal, the viewer runs without sound
					log.Printf("Audio initialization failed: %v", err)
				}
			}

			screen, err := tcell.NewScreen()
			if err != nil {
				return err
			}
			if err := screen.Init(); err != nil {
				return err
			}
			defer screen.Fini()

			viewer, err := tui.NewViewer(screen, gridService, info.ID, tone)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := viewer.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
}

// printSolveResult writes the grid with the path overlaid as '*'
func printSolveResult(w io.Writer, configName string, result *service.SolveResult) {
	fmt.Fprintf(w, "Config: %s | Run: %s | Outcome: %s\n", configName, result.RunID, result.Outcome)
	fmt.Fprintf(w, "Expanded: %d | Opened: %d | Improved: %d\n",
		result.Stats.Expanded, result.Stats.Opened, result.Stats.Improved)
	if result.Outcome == search.OutcomeFound {
		fmt.Fprintf(w, "Path: %d cells, cost %g\n", len(result.Path), result.PathCost)
	}
	fmt.Fprintln(w)

	rows := make([][]byte, len(result.Grid.Layout))
	for i, line := range result.Grid.Layout {
		rows[i] = []byte(line)
	}
	for _, p := range result.Path {
		if rows[p.Row][p.Col] == '.' {
			rows[p.Row][p.Col] = '*'
		}
	}
	for _, row := range rows {
		fmt.Fprintln(w, string(row))
	}
}

type httpOptions struct {
	addr        string
	ngrok       bool
	ngrokAuth   string
	ngrokDomain string
}

// newRouter mounts the API server at root and the MCP endpoint at /mcp
func newRouter(apiServer http.Handler, mcpClient *mcp.Client) *http.ServeMux {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})
	return mainRouter
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled, it also provisions a public tunnel.
func runHTTPServer(parent context.Context, svc *services, opts httpOptions) error {
	// Setup graceful shutdown context
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	hub := websocket.NewHub()
	go hub.Run(ctx)
	go svc.sessions.RunCleanup(ctx, sessionCleanupInterval, sessionMaxAge)

	apiServer := api.NewServer(svc.grid, hub)
	defer apiServer.Close()

	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", opts.addr))
	mainRouter := newRouter(apiServer, mcpClient)

	// WriteTimeout stays unset so websocket streams are not cut off
	httpServer := &http.Server{
		Addr:        opts.addr,
		Handler:     mainRouter,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Handle shutdown signals; SIGHUP reloads layout files
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	defer signal.Stop(reload)

	serverErr := make(chan error, 1)
	var wg sync.WaitGroup

	// Start regular HTTP server
	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", opts.addr)
		log.Printf("REST API: http://%s/api", opts.addr)
		log.Printf("WebSocket: ws://%s/ws?session=<session_id>", opts.addr)
		log.Printf("MCP endpoint: http://%s/mcp", opts.addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if opts.ngrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, mainRouter, opts)
		}()
	}

	// Wait for shutdown signal
	var runErr error
wait:
	for {
		select {
		case <-reload:
			if err := svc.configs.RefreshCache(); err != nil {
				log.Printf("Config reload failed: %v", err)
			} else {
				log.Println("Layout configurations reloaded")
			}
		case sig := <-stop:
			log.Printf("Received signal: %v. Shutting down...", sig)
			break wait
		case <-parent.Done():
			log.Println("Context cancelled. Shutting down...")
			break wait
		case runErr = <-serverErr:
			break wait
		}
	}
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	// Wait for all goroutines to finish
	wg.Wait()
	log.Printf("Server stopped (%d sessions discarded)", svc.sessions.Count())
	return runErr
}

// runNgrokTunnel serves handler through an ngrok tunnel until ctx is done
func runNgrokTunnel(ctx context.Context, handler http.Handler, opts httpOptions) {
	if opts.ngrokAuth == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	// Configure ngrok endpoint
	var tunnel ngrokConfig.Tunnel
	if opts.ngrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.ngrokDomain))
		log.Printf("Using custom ngrok domain: %s", opts.ngrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.ngrokAuth))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	// Serve returns once the tunnel is closed
	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Printf("Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// services bundles the grid service with the managers behind it
type services struct {
	grid     service.GridService
	sessions *session.Manager
	configs  *config.Manager
}

// initializeServices wires the session and config managers into the grid
// service. A non-empty defaultConfig replaces the manager's default layout.
func initializeServices(configDir, defaultConfig string) (*services, error) {
	configManager, err := config.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}
	if defaultConfig != "" {
		if err := configManager.SetDefault(defaultConfig); err != nil {
			return nil, fmt.Errorf("failed to set default config: %w", err)
		}
	}

	sessionManager := session.NewManager()
	return &services{
		grid:     service.NewGridService(sessionManager, configManager),
		sessions: sessionManager,
		configs:  configManager,
	}, nil
}

// apiAvailable reports whether an API server answers the health check
func apiAvailable(baseURL string) bool {
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(strings.TrimSuffix(baseURL, "/") + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an external API first; if unavailable, it starts a
// minimal internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, svc *services, externalURL string) error {
	var baseURL string

	log.Printf("Checking for external API server at %s...", externalURL)
	if apiAvailable(externalURL) {
		log.Printf("External API server found at %s, using it for MCP", externalURL)
		baseURL = externalURL
	} else {
		log.Printf("No external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		internalAddr := listener.Addr().String()
		log.Printf("Starting internal HTTP server on %s for MCP stdio", internalAddr)

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		hub := websocket.NewHub()
		go hub.Run(ctx)
		go svc.sessions.RunCleanup(ctx, sessionCleanupInterval, sessionMaxAge)

		apiServer := api.NewServer(svc.grid, hub)
		defer apiServer.Close()

		httpServer := &http.Server{Handler: apiServer}
		defer httpServer.Close()

		// The listener is already bound, so requests queue until Serve runs
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()

		baseURL = fmt.Sprintf("http://%s", internalAddr)
	}

	mcpClient := mcp.NewClient(baseURL)

	if baseURL == externalURL {
		log.Println("MCP stdio server ready (using external HTTP server)")
	} else {
		log.Println("MCP stdio server ready (using internal HTTP server)")
	}

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
