package utils

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	jsonEncodingConstant                 = "json"
	consoleEncodingConstant              = "console"
	standardErrorOutputPathConstant      = "stderr"
	unsupportedLogLevelTemplateConstant  = "unsupported log level: %s"
	unsupportedLogFormatTemplateConstant = "unsupported log format: %s"
	consoleMessageKeyConstant            = "message"
	consoleLevelKeyConstant              = "level"
)

// LogLevel enumerates supported logging granularities.
type LogLevel string

// Supported log levels.
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat selects how diagnostics are rendered.
type LogFormat string

// Supported log formats. Console additionally prints git and editor progress as plain lines.
const (
	LogFormatStructured LogFormat = "structured"
	LogFormatConsole    LogFormat = "console"
)

var zapLevels = map[LogLevel]zapcore.Level{
	LogLevelDebug: zapcore.DebugLevel,
	LogLevelInfo:  zapcore.InfoLevel,
	LogLevelWarn:  zapcore.WarnLevel,
	LogLevelError: zapcore.ErrorLevel,
}

var zapEncodings = map[LogFormat]string{
	LogFormatStructured: jsonEncodingConstant,
	LogFormatConsole:    consoleEncodingConstant,
}

// LoggerOutputs bundles the diagnostic logger with the console logger used for subprocess progress.
// ConsoleLogger is nil unless the console format was requested.
type LoggerOutputs struct {
	DiagnosticLogger *zap.Logger
	ConsoleLogger    *zap.Logger
}

// LoggerFactory builds the CLI's zap loggers.
// Every logger writes to standard error; standard output carries only command results.
type LoggerFactory struct{}

// NewLoggerFactory constructs a new logger factory.
func NewLoggerFactory() *LoggerFactory {
	return &LoggerFactory{}
}

// CreateLoggerOutputs builds the diagnostic logger and, for the console format, a message-only console logger.
func (factory *LoggerFactory) CreateLoggerOutputs(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (LoggerOutputs, error) {
	zapLevel, levelKnown := zapLevels[LogLevel(normalizeLoggerSetting(string(requestedLogLevel)))]
	if !levelKnown {
		return LoggerOutputs{}, fmt.Errorf(unsupportedLogLevelTemplateConstant, requestedLogLevel)
	}

	logFormat := LogFormat(normalizeLoggerSetting(string(requestedLogFormat)))
	encoding, formatKnown := zapEncodings[logFormat]
	if !formatKnown {
		return LoggerOutputs{}, fmt.Errorf(unsupportedLogFormatTemplateConstant, requestedLogFormat)
	}

	diagnosticLogger, diagnosticError := buildStandardErrorLogger(zapLevel, encoding, nil)
	if diagnosticError != nil {
		return LoggerOutputs{}, diagnosticError
	}
	if logFormat != LogFormatConsole {
		return LoggerOutputs{DiagnosticLogger: diagnosticLogger}, nil
	}

	consoleLogger, consoleError := buildStandardErrorLogger(zapLevel, consoleEncodingConstant, &zapcore.EncoderConfig{
		MessageKey:  consoleMessageKeyConstant,
		LevelKey:    consoleLevelKeyConstant,
		EncodeLevel: zapcore.CapitalLevelEncoder,
	})
	if consoleError != nil {
		return LoggerOutputs{}, consoleError
	}
	return LoggerOutputs{DiagnosticLogger: diagnosticLogger, ConsoleLogger: consoleLogger}, nil
}

// buildStandardErrorLogger starts from the production preset; a custom encoder also drops caller, stacktrace, and sampling.
func buildStandardErrorLogger(level zapcore.Level, encoding string, encoderConfiguration *zapcore.EncoderConfig) (*zap.Logger, error) {
	loggerConfiguration := zap.NewProductionConfig()
	loggerConfiguration.Level = zap.NewAtomicLevelAt(level)
	loggerConfiguration.Encoding = encoding
	loggerConfiguration.OutputPaths = []string{standardErrorOutputPathConstant}
	loggerConfiguration.ErrorOutputPaths = []string{standardErrorOutputPathConstant}
	if encoderConfiguration != nil {
		loggerConfiguration.EncoderConfig = *encoderConfiguration
		loggerConfiguration.DisableCaller = true
		loggerConfiguration.DisableStacktrace = true
		loggerConfiguration.Sampling = nil
	}
	return loggerConfiguration.Build()
}

func normalizeLoggerSetting(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
