// Package logging builds slog loggers for stickerd with a human-readable
// console handler and a JSON handler, plus small attr helpers shared by the
// CLI and the query server.
package logging
