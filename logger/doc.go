// Package logger provides structured logging on top of zerolog.
//
// It supports JSON and console output, level configuration, component-scoped
// loggers, and trace correlation through WithContext.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.New(&cfg, "orders-client").WithComponent("repository")
//	log.Debug("dispatch", logger.Fields(logger.FieldMethod, "GET", logger.FieldPath, "/orders"))
package logger
