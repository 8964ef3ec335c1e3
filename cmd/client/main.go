package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ssfdre38/copilot-android-client-sub000/internal/console"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/health"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/infrastructure/config"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/infrastructure/logging"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/infrastructure/monitoring"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/infrastructure/resilience"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/profiles"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/session"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		return 2
	}

	// Flags override environment variables
	url := flag.String("url", "", "Bridge URL (ws:// or wss://)")
	token := flag.String("token", "", "API key sent in the auth envelope")
	profilesPath := flag.String("profiles", cfg.Client.ProfilesPath, "Profiles file (.yaml, .yml or .toml)")
	profileName := flag.String("profile", cfg.Client.Profile, "Profile to use (default: the file's default)")
	sessionID := flag.String("session", "", "Session id to attach to outgoing messages")
	connectTimeout := flag.Duration("connect-timeout", cfg.Client.ConnectTimeout, "Connect deadline per attempt")
	retries := flag.Int("retries", cfg.Client.RetryMax, "Retries after a failed connect")
	retryDelay := flag.Duration("retry-delay", cfg.Client.RetryDelay, "Wait between retries")
	probe := flag.Bool("probe", false, "Check the bridge's /health endpoint and exit")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development mode (colored logs)")
	logLevel := flag.String("log-level", "warn", "Log level (logs go to stderr)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return 0
	}

	logger := logging.FromLevel(*logLevel, *dev)
	defer func() { _ = logger.Sync() }()

	target, err := resolveTarget(cfg.Client, *profilesPath, *profileName, *url, *token)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	logger.Debug("Resolved bridge", zap.String("url", target.URL), zap.String("profile", target.Name))

	prober := health.NewClient(healthOptions(logger.Logger))
	if *probe {
		return runProbe(prober, target.URL)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	renderer := console.NewRenderer(os.Stdout)
	manager := session.NewManager(renderer, session.Config{
		ConnectTimeout: *connectTimeout,
		WriteTimeout:   session.DefaultConfig().WriteTimeout,
		Retry:          resilience.Policy{MaxRetries: *retries, Delay: *retryDelay},
	}).
		WithLogger(logger.Logger).
		WithMetrics(monitoring.NewMetrics())
	defer manager.Close()

	if *sessionID != "" {
		manager.SetSessionID(*sessionID)
	}

	if err := manager.Connect(ctx, target.URL, target.Token); err != nil {
		// The renderer has already printed the failure; retries, if any, run
		// in the background and /reconnect starts over.
		logger.Debug("Initial connect failed", zap.Error(err))
	}

	renderer.Info("type /quit to leave, /status for connection info")
	err = console.New(manager, renderer, target.URL, target.Token).
		WithProber(prober).
		WithLogger(logger.Logger).
		Run(ctx, os.Stdin)
	if err != nil {
		logger.Error("Reading input failed", zap.Error(err))
		return 1
	}
	return 0
}

// resolveTarget picks the bridge: -url wins, then the selected or default
// profile, then COPILOT_URL. -token overrides any token found.
func resolveTarget(client config.ClientConfig, path, name, url, token string) (profiles.Profile, error) {
	target := profiles.Profile{Name: "env", URL: client.URL, Token: client.Token}

	if url != "" {
		target = profiles.Profile{Name: "flag", URL: url, Token: client.Token}
	} else if path != "" {
		set, err := profiles.Load(path)
		if err != nil {
			return profiles.Profile{}, err
		}
		if name != "" {
			if target, err = set.Find(name); err != nil {
				return profiles.Profile{}, err
			}
		} else if p, ok := set.Default(); ok {
			target = p
		}
	} else if name != "" {
		return profiles.Profile{}, fmt.Errorf("-profile %q given without a profiles file", name)
	}

	if token != "" {
		target.Token = token
	}
	return target, nil
}

func healthOptions(logger *zap.Logger) health.Options {
	opts := health.DefaultOptions()
	opts.Logger = logger
	return opts
}

func runProbe(prober *health.Client, url string) int {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	status, err := prober.Check(ctx, url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unhealthy: %v\n", err)
		return 1
	}
	fmt.Printf("%s: status=%s connections=%d version=%s timestamp=%s\n",
		url, status.Status, status.Connections, status.Version, status.Timestamp)
	if !status.OK() {
		return 1
	}
	return 0
}
