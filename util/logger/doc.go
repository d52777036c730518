// Package logger provides structured logging utilities.
//
// A thin layer over log/slog with leveled output and a process-wide default:
//
//	log := logger.Default()
//	log.Debug("worker parked", "pool", "blocking", "worker", id)
//
// With configuration:
//
//	logger.Init(&logger.Config{Level: "debug", Format: "text"})
package logger
