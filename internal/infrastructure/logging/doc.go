// Package logging builds the bridge's slog logger from the logging section
// of config.yaml:
//
//	logging:
//	  level: info     # debug, info, warn, error
//	  format: json    # json, text
//	  output: stdout  # stdout, stderr
//
// Each subsystem gets its own child via Component.
package logging
