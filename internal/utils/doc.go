// Package utils exposes reusable helpers consumed by multiple commands.
//
// It houses the ConfigurationLoader and LoggerFactory abstractions that
// integrate Viper, MANGO_ environment variables, and zap logging for the CLI,
// plus the context accessor commands use to find the working directory.
package utils
