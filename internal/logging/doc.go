// SPDX-License-Identifier: EPL-2.0

// Package logging builds the charmbracelet/log loggers used across
// duckpipe. Tasks derive their own logger with WithPrefix and attach the
// session id with With.
package logging
