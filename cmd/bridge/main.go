package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/ssfdre38/copilot-android-client-sub000/internal/infrastructure/config"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/infrastructure/logging"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/infrastructure/server"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(2)
	}

	// Flags override environment variables
	host := flag.String("host", cfg.Bridge.Host, "Listen host")
	port := flag.String("port", cfg.Bridge.Port, "Listen port")
	backendKind := flag.String("backend", cfg.Bridge.Backend, "Backend: echo or pty")
	command := flag.String("command", cfg.Bridge.Command, "CLI started by the pty backend")
	apiKey := flag.String("api-key", cfg.Bridge.APIKey, "Require this key in the client's auth envelope")
	tlsCert := flag.String("tls-cert", cfg.Bridge.TLSCert, "TLS certificate file (serves wss)")
	tlsKey := flag.String("tls-key", cfg.Bridge.TLSKey, "TLS key file")
	noRateLimit := flag.Bool("no-rate-limit", !cfg.RateLimit.Enabled, "Disable per-IP rate limiting")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development mode (colored logs, debug level)")
	logLevel := flag.String("log-level", cfg.Logging.Level, "Log level")
	showQR := flag.Bool("qr", false, "Print a QR code of the bridge URL for the phone app")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	cfg.Bridge.Host = *host
	cfg.Bridge.Port = *port
	cfg.Bridge.Backend = *backendKind
	cfg.Bridge.Command = *command
	cfg.Bridge.APIKey = *apiKey
	cfg.Bridge.TLSCert = *tlsCert
	cfg.Bridge.TLSKey = *tlsKey
	cfg.RateLimit.Enabled = !*noRateLimit
	cfg.Logging.Development = *dev
	if *dev && !isFlagSet("log-level") {
		cfg.Logging.Level = "debug"
	} else {
		cfg.Logging.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(2)
	}

	logger := logging.FromLevel(cfg.Logging.Level, cfg.Logging.Development)
	defer func() { _ = logger.Sync() }()

	logger.Info("Copilot bridge",
		zap.String("version", version),
		zap.String("backend", cfg.Bridge.Backend),
	)

	srv, err := server.NewServer(cfg, version, logger)
	if err != nil {
		logger.Fatal("Failed to create server", zap.Error(err))
	}

	url := bridgeURL(cfg.Bridge)
	logger.Info("Clients connect to", zap.String("url", url))
	if *showQR {
		if err := printQR(url); err != nil {
			logger.Warn("Failed to render QR code", zap.Error(err))
		}
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigChan:
		logger.Info("Shutting down gracefully", zap.Stringer("signal", sig))
		if err := srv.Close(); err != nil {
			logger.Error("Error during shutdown", zap.Error(err))
		}
	case err := <-errChan:
		logger.Fatal("Server error", zap.Error(err))
	}
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// bridgeURL is the address a phone on the same network should dial.
func bridgeURL(b config.BridgeConfig) string {
	scheme := "ws"
	if b.TLS() {
		scheme = "wss"
	}
	host := b.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = lanAddress()
	}
	return fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(host, b.Port))
}

// lanAddress returns the first non-loopback IPv4 address, or localhost.
func lanAddress() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "localhost"
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return "localhost"
}

func printQR(payload string) error {
	qr, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		return err
	}
	fmt.Println(qr.ToSmallString(false))
	fmt.Println(payload)
	return nil
}
