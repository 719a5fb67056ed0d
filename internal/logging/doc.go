// Package logging constructs the slog loggers used across skein.
//
// It supports a human-oriented console format and a machine-oriented JSON
// format, selected by configuration. Component loggers carry a standardized
// component attribute so pipeline stages can be told apart in shared output.
package logging
