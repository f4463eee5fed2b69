package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"bauwatch/internal/api"
	"bauwatch/internal/config"
	"bauwatch/internal/db"
	"bauwatch/internal/directory"
	"bauwatch/internal/gateway"
	"bauwatch/internal/ingest"
	"bauwatch/internal/medals"
	"bauwatch/internal/processor"
	"bauwatch/internal/store"
)

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger configures structured logging. INFO/WARN go to stdout, ERROR goes
// to stderr. If logPath is non-empty, all levels are also written to that file.
// Returns a cleanup function that closes the log file (if opened).
func setupLogger(logPath string) (func(), error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var cleanup func()

	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	handler := &levelRouter{
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	}
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

func main() {
	envCfg, err := config.ParseEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fs := flag.NewFlagSet("bauwatch", flag.ContinueOnError)

	var dbPath string
	fs.StringVar(&dbPath, "db", envCfg.DBPath, "")
	fs.StringVar(&dbPath, "d", envCfg.DBPath, "")

	var addr string
	fs.StringVar(&addr, "addr", envCfg.APIAddr, "")
	fs.StringVar(&addr, "a", envCfg.APIAddr, "")

	var configPath string
	fs.StringVar(&configPath, "config", envCfg.ConfigPath, "")
	fs.StringVar(&configPath, "c", envCfg.ConfigPath, "")

	var adminUser string
	fs.StringVar(&adminUser, "user", "Admin", "")
	fs.StringVar(&adminUser, "u", "Admin", "")

	var logPath string
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: bauwatch [flags]

The bot token and guild come from BAUWATCH_TOKEN and BAUWATCH_GUILD_ID.

Flags:
  -d, -db <path>          SQLite database path (default: $BAUWATCH_DB or bauwatch.sqlite3)
  -a, -addr <host:port>   admin API listen address (default: $BAUWATCH_API_ADDR or :8080)
  -c, -config <path>      YAML reference file: channels, catalog, ranks (default: $BAUWATCH_CONFIG)
  -u, -user <name>        admin username on first run (default: Admin)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -h, -help               show this help and exit
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	closeLog, err := setupLogger(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	if envCfg.Token == "" || envCfg.GuildID == "" {
		slog.Error("BAUWATCH_TOKEN and BAUWATCH_GUILD_ID must be set")
		os.Exit(1)
	}

	loc, err := time.LoadLocation(envCfg.Timezone)
	if err != nil {
		slog.Error("invalid timezone", "tz", envCfg.Timezone, "error", err)
		os.Exit(1)
	}

	fileCfg, err := config.LoadFile(configPath)
	if err != nil {
		slog.Error("failed to load reference config", "path", configPath, "error", err)
		os.Exit(1)
	}
	if fileCfg.AlertChannelID == "" {
		slog.Warn("no alert channel configured, channel alerts will fail")
	}
	if len(fileCfg.Channels) == 0 {
		slog.Warn("no chest-log channels configured, nothing will be monitored")
	}

	cat, err := fileCfg.Catalog()
	if err != nil {
		slog.Error("failed to build item catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("item catalog loaded", "items", cat.Size())

	// Check if DB exists, auto-init if not.
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		database, password, err := initDatabase(dbPath, adminUser)
		if err != nil {
			slog.Error("failed to initialize database", "error", err)
			os.Exit(1)
		}
		database.Close()

		printInitResult(dbPath, adminUser, password)
		fmt.Println()
	}

	database, err := db.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	// Ensure schema exists (idempotent).
	if err := db.EnsureSchema(database); err != nil {
		slog.Error("failed to ensure database schema", "error", err)
		os.Exit(1)
	}

	slog.Info("database ready", "path", dbPath)

	// Load JWT secret from database (auto-generated on first run).
	jwtSecret, err := store.GetJWTSecret(context.Background(), database)
	if err != nil {
		slog.Error("failed to get JWT secret", "error", err)
		os.Exit(1)
	}

	runCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// Connect to the platform gateway and wait for the ready handshake. A
	// bot that cannot receive events is useless, so this is fatal.
	client := gateway.New(envCfg.Token, envCfg.GuildID)
	if err := client.Connect(runCtx); err != nil {
		slog.Error("failed to connect to gateway", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	readyCtx, cancelReady := context.WithTimeout(runCtx, envCfg.ReadyTimeout)
	err = client.WaitReady(readyCtx)
	cancelReady()
	if err != nil {
		slog.Error("gateway never became ready", "timeout", envCfg.ReadyTimeout, "error", err)
		os.Exit(1)
	}
	slog.Info("gateway ready", "guild_id", envCfg.GuildID)

	// Full member sync on startup so nickname and rank lookups have data.
	if _, err := directory.Sync(runCtx, database, client); err != nil {
		slog.Error("initial member sync failed", "error", err)
		os.Exit(1)
	}

	dir := directory.New(database, fileCfg.AuthorizedRanks)
	parser := ingest.NewParser(loc)
	proc := processor.New(database, cat, dir, parser, client, fileCfg)
	go proc.Run(runCtx, client.Messages())

	medalService := medals.New(database)

	// The on-duty history scan runs once in the background; the medal report
	// works with whatever it has recorded so far.
	if fileCfg.OnDutyChannelID != "" {
		scanner := medals.NewScanner(database, dir, client, loc)
		go func() {
			if _, err := scanner.Scan(runCtx, fileCfg.OnDutyChannelID); err != nil && runCtx.Err() == nil {
				slog.Error("on-duty history scan failed", "error", err)
			}
		}()
	}

	handler := api.LoggingMiddleware(api.NewRouter(database, jwtSecret, medalService))

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		stop()
		client.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("admin api started", "addr", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped, closing database")
}

// initDatabase creates a new database, ensures the schema, and creates the admin user.
func initDatabase(path, adminUsername string) (*sql.DB, string, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening database: %w", err)
	}

	if err := db.EnsureSchema(database); err != nil {
		database.Close()
		os.Remove(path)
		return nil, "", fmt.Errorf("ensuring schema: %w", err)
	}

	password, err := generatePassword(16)
	if err != nil {
		database.Close()
		os.Remove(path)
		return nil, "", fmt.Errorf("generating password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		database.Close()
		os.Remove(path)
		return nil, "", fmt.Errorf("hashing password: %w", err)
	}

	ctx := context.Background()
	_, err = store.CreateUser(ctx, database, adminUsername, string(hash), "admin")
	if err != nil {
		database.Close()
		os.Remove(path)
		return nil, "", fmt.Errorf("creating admin user: %w", err)
	}

	return database, password, nil
}

// printInitResult prints the database initialization result to stdout.
func printInitResult(dbPath, username, password string) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println("Schema initialized.")
	fmt.Println()
	fmt.Println("Admin account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password — it cannot be recovered.")
	fmt.Println("The admin can change it after logging in.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
