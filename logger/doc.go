// Package logger provides structured logging for the identity core
// using zerolog.
//
// It supports multiple output formats (JSON, console), log level
// configuration, and component-scoped loggers with structured fields.
//
// # Configuration
//
//	logger:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("auth")
//	log.Info("login succeeded", logger.Fields(logger.FieldEmail, email))
package logger
