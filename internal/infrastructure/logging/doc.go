// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components take a *Logger and derive a named child, so every line from a
// terminal session carries its logger name plus session and target fields:
//
//	logger := logging.NewDefault().Named("session")
//	logger.Info("Session joined", zap.String("session", key), zap.Int("pid", pid))
//	logger.Error("Launch failed", zap.Error(err))
package logging
