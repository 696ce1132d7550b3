/*
Package log provides structured logging for lookout using zerolog.

The log package wraps the zerolog library to provide structured logging with
component-specific loggers, configurable log levels, and helper functions for
common logging patterns. Every entry carries a timestamp.

# Architecture

	┌──────────────────── LOGGING SYSTEM ─────────────────────┐
	│                                                          │
	│  ┌──────────────────────────────────────────┐            │
	│  │            Global Logger                  │            │
	│  │  - zerolog instance (Nop until Init)      │            │
	│  │  - Initialized via log.Init()             │            │
	│  └─────────────────┬────────────────────────┘            │
	│                    │                                      │
	│  ┌─────────────────▼────────────────────────┐            │
	│  │         Component Loggers                 │            │
	│  │  - WithComponent("dispatcher")            │            │
	│  │  - WithRequestID("3f1c...")               │            │
	│  │  - WithServerID("9b2e...")                │            │
	│  └──────────────────────────────────────────┘            │
	└──────────────────────────────────────────────────────────┘

# Usage

	log.Init(log.Config{
		Level:      log.ParseLevel(cfg.Log.Level),
		JSONOutput: cfg.Log.JSON,
	})

	logger := log.WithComponent("inventory")
	logger.Warn().
		Str("server_id", id).
		Msg("Sample has no registry entry, skipping")

# Components

The gateway uses these component names:

  - dispatcher: authentication, routing and response writing
  - security: credential store construction and password migration
  - inventory: server list reconciliation
  - client: Prometheus HTTP API calls
  - health: upstream readiness monitor
  - server: listener lifecycle

# Secrets

Passwords and Authorization headers are never logged. The single exception is
the canonical hash computed while migrating a plaintext password, which is
logged at warn level so the operator can paste it back into configuration.
*/
package log
