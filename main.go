// Command boxpusher starts the box pusher game server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, metrics and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, the level, session and solution directories,
// debug logging, version output, and optional ngrok tunneling for easy
// external access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/mcp-training/boxpusher/api"
	"github.com/wricardo/mcp-training/boxpusher/game/config"
	"github.com/wricardo/mcp-training/boxpusher/game/service"
	"github.com/wricardo/mcp-training/boxpusher/game/session"
	"github.com/wricardo/mcp-training/boxpusher/game/solutions"
	"github.com/wricardo/mcp-training/boxpusher/transport/mcp"
	"github.com/wricardo/mcp-training/boxpusher/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/time/rate"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Box Pusher Server"
)

const (
	sessionMaxIdle         = 24 * time.Hour
	sessionCleanupInterval = time.Hour
	filesystemSyncInterval = 5 * time.Second
)

// Configuration flags control how the server starts and which services are enabled.
var (
	port         = flag.Int("port", 8080, "HTTP server port")
	host         = flag.String("host", "localhost", "HTTP server host")
	configDir    = flag.String("config-dir", envDefault("CONFIG_DIR", "configs"), "Directory containing level files")
	sessionsDir  = flag.String("sessions-dir", envDefault("SESSIONS_DIR", "sessions"), "Directory for persisted sessions")
	solutionsDir = flag.String("solutions-dir", envDefault("SOLUTIONS_DIR", "solutions"), "Badger directory caching solver results (empty keeps them in memory)")
	solveRate    = flag.Float64("solve-rate", float64(api.DefaultSolveRate), "Solve requests per second accepted by the API")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	version      = flag.Bool("version", false, "Show version information")
	ngrokEnabled = flag.Bool("ngrok", false, "Enable ngrok tunnel")
	ngrokAuth    = flag.String("ngrok-auth", "", "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	ngrokDomain  = flag.String("ngrok-domain", "", "Custom ngrok domain (optional)")
)

// envDefault returns the environment variable when set, otherwise fallback
func envDefault(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [MODE]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(os.Stderr, "Available modes:\n")
		fmt.Fprintf(os.Stderr, "  server, http     Run HTTP server with API, WebSocket, and MCP endpoint (default)\n")
		fmt.Fprintf(os.Stderr, "  stdio-mcp        Run MCP stdio server with internal HTTP server\n")
		fmt.Fprintf(os.Stderr, "  mcp-stdio        Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "  mcp              Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                          # Run HTTP server on default port 8080\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -port 9090               # Run HTTP server on port 9090\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -solutions-dir \"\"        # Keep solver results in memory only\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s stdio-mcp                # Run MCP stdio server\n", os.Args[0])
	}
}

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	flag.Parse()

	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	if *debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}

	args := flag.Args()
	mode := "server"
	if len(args) > 0 {
		mode = args[0]
	}

	log.Printf("Starting %s v%s (mode: %s)", AppName, Version, mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := initializeServices()
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	defer svc.Close()
	svc.Start(ctx)

	switch mode {
	case "stdio-mcp", "mcp-stdio", "mcp":
		runStdioMCPWithInternalServer(ctx, svc.Game)

	case "server", "http":
		runHTTPServer(ctx, svc.Game)

	default:
		log.Printf("Unknown mode: %s. Use 'server' (default) or 'stdio-mcp'", mode)
		svc.Close()
		os.Exit(2)
	}
}

// services bundles everything the server modes share
type services struct {
	Game        service.GameService
	Configs     *config.Manager
	Sessions    *session.Manager
	Persistence *session.FilePersistence
	Solutions   solutions.Store

	closeOnce sync.Once
}

// solverLogger returns the structured logger handed to every solver run
func solverLogger() *slog.Logger {
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openSolutionStore opens the Badger cache, or an in-memory one when no
// directory is configured
func openSolutionStore(dir string) (solutions.Store, error) {
	if dir == "" {
		log.Println("Solution cache: in memory")
		return solutions.NewMemoryStore(), nil
	}
	store, err := solutions.OpenBadgerStore(solutions.BadgerConfig{Path: dir})
	if err != nil {
		return nil, err
	}
	if n, err := store.Count(); err == nil {
		log.Printf("Solution cache: %s (%d cached)", dir, n)
	}
	return store, nil
}

// initializeServices wires the level, session and solution stores into the
// game service. Background routines are started separately by Start.
func initializeServices() (*services, error) {
	configManager, err := config.NewManager(*configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	persistence, err := session.NewFilePersistence(*sessionsDir, configManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessionManager := session.NewManagerWithPersistence(persistence)
	if err := sessionManager.LoadPersistedSessions(); err != nil {
		log.Printf("Warning: Failed to load persisted sessions: %v", err)
	}

	store, err := openSolutionStore(*solutionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open solution store: %w", err)
	}

	gameService := service.NewGameService(sessionManager, configManager,
		service.WithSolutionStore(store),
		service.WithSolverLogger(solverLogger()),
	)

	return &services{
		Game:        gameService,
		Configs:     configManager,
		Sessions:    sessionManager,
		Persistence: persistence,
		Solutions:   store,
	}, nil
}

// Start launches the background routines. They all stop with ctx.
func (s *services) Start(ctx context.Context) {
	go s.Sessions.RunCleanup(ctx, sessionCleanupInterval, sessionMaxIdle)
	go filesystemSyncRoutine(ctx, s.Sessions, s.Persistence, filesystemSyncInterval)

	go func() {
		err := s.Configs.Watch(ctx, func(configID string) {
			// Cached answers belong to the old layout
			if err := s.Solutions.DeleteConfig(ctx, configID); err != nil {
				log.Printf("Warning: failed to drop cached solutions for %s: %v", configID, err)
			}
		})
		if err != nil {
			log.Printf("Warning: level directory is not watched: %v", err)
		}
	}()
}

// Close flushes sessions and closes the solution store
func (s *services) Close() {
	s.closeOnce.Do(func() {
		if err := s.Sessions.SaveAllSessions(); err != nil {
			log.Printf("Warning: failed to save sessions: %v", err)
		}
		if err := s.Solutions.Close(); err != nil {
			log.Printf("Warning: failed to close solution store: %v", err)
		}
	})
}

// filesystemSyncRoutine drops sessions from memory once their files are
// deleted, so removing a session file is enough to end it.
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, interval time.Duration) {
	if persistence == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		pruned := 0
		for _, sess := range manager.List() {
			if persistence.Exists(sess.ID) {
				continue
			}
			if err := manager.DeleteFromMemory(sess.ID); err == nil {
				pruned++
				log.Printf("Pruned session %s from memory (file deleted)", sess.ID)
			}
		}
		if pruned > 0 {
			log.Printf("Filesystem sync: pruned %d orphaned sessions from memory", pruned)
		}
	}
}

// newRouter mounts the API and the /mcp endpoint on one mux
func newRouter(apiServer http.Handler, mcpClient *mcp.Client) *http.ServeMux {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
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
		if response == nil {
			// Notifications have no reply
			w.WriteHeader(http.StatusAccepted)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			log.Printf("Failed to write MCP response: %v", err)
		}
	})
	return mainRouter
}

func apiOptions() []api.Option {
	if *solveRate <= 0 {
		return nil
	}
	return []api.Option{api.WithSolveRate(rate.Limit(*solveRate), api.DefaultSolveBurst)}
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled (via flag or environment), it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, gameService service.GameService) {
	hub := websocket.NewHub()
	go hub.Run(ctx)

	apiServer := api.NewServer(gameService, hub, apiOptions()...)

	addr := fmt.Sprintf("%s:%d", *host, *port)
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))
	mainRouter := newRouter(apiServer, mcpClient)

	httpServer := &http.Server{
		Addr:        addr,
		Handler:     mainRouter,
		ReadTimeout: 15 * time.Second,
		// Solving can hold a request open for a while
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Printf("Metrics: http://%s/metrics", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	ngrokShouldRun := *ngrokEnabled
	if envEnabled := os.Getenv("NGROK_ENABLED"); envEnabled == "true" || envEnabled == "1" {
		ngrokShouldRun = true
	}

	if ngrokShouldRun {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, mainRouter)
		}()
	}

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")
}

// ngrokAuthToken resolves the token from the flag or either env spelling
func ngrokAuthToken() string {
	if *ngrokAuth != "" {
		return *ngrokAuth
	}
	if token := os.Getenv("NGROK_AUTHTOKEN"); token != "" {
		return token
	}
	return os.Getenv("NGROK_AUTH_TOKEN")
}

// runNgrok serves handler through an ngrok tunnel until ctx is done
func runNgrok(ctx context.Context, handler http.Handler) {
	authToken := ngrokAuthToken()
	if authToken == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	domain := *ngrokDomain
	if domain == "" {
		domain = os.Getenv("NGROK_DOMAIN")
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Printf("Using custom ngrok domain: %s", domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	ngrokURL := tun.URL()
	log.Printf("🚀 Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	tunnelServer := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		tunnelServer.Shutdown(shutdownCtx)
	}()

	if err := tunnelServer.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// externalAPIAvailable reports whether a server already answers at baseURL
func externalAPIAvailable(baseURL string) bool {
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// startInternalAPI serves the API on a random loopback port and returns its base URL
func startInternalAPI(ctx context.Context, gameService service.GameService) (string, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("failed to get available port: %w", err)
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)

	httpServer := &http.Server{Handler: api.NewServer(gameService, hub, apiOptions()...)}
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Internal HTTP server error: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		httpServer.Close()
	}()

	return "http://" + listener.Addr().String(), nil
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It reuses an API at http://localhost:<port> when one answers; otherwise it
// starts an internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, gameService service.GameService) {
	externalURL := fmt.Sprintf("http://localhost:%d", *port)
	log.Printf("Checking for external API server at %s...", externalURL)

	baseURL := externalURL
	if externalAPIAvailable(externalURL) {
		log.Printf("External API server found at %s, using it for MCP", externalURL)
	} else {
		log.Printf("No external API server found, starting internal HTTP server")
		internalURL, err := startInternalAPI(ctx, gameService)
		if err != nil {
			log.Fatalf("Failed to start internal API: %v", err)
		}
		baseURL = internalURL
		log.Printf("Internal HTTP server on %s for MCP stdio", baseURL)
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Println("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		log.Printf("MCP stdio server error: %v", err)
	}
}
