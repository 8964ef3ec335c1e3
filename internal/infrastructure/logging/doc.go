// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON lines for machine parsing
//   - Development: colored console output for humans
//
// Both write to stderr by default; the terminal client owns stdout for the
// conversation itself.
//
// Components accept a *zap.Logger and treat nil as a no-op logger (see OrNop).
// Bearer tokens and API keys are never logged.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Connecting", zap.String("url", target))
//	logger.Warn("Connect failed", zap.Error(err), zap.Int("attempt", n))
package logging
