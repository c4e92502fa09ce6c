package utils

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel enumerates supported diagnostic log levels.
type LogLevel string

// LogFormat enumerates supported log encodings.
type LogFormat string

const (
	// LogLevelDebug enables debug diagnostics.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo enables informational diagnostics.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn enables warnings and errors.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError enables errors only.
	LogLevelError LogLevel = "error"

	// LogFormatStructured emits JSON log lines.
	LogFormatStructured LogFormat = "structured"
	// LogFormatConsole emits human-readable log lines.
	LogFormatConsole LogFormat = "console"
)

const (
	unsupportedLogLevelTemplateConstant  = "unsupported log level %q"
	unsupportedLogFormatTemplateConstant = "unsupported log format %q"
	logTimeKeyConstant                   = "ts"
	logMessageKeyConstant                = "msg"
	logLevelKeyConstant                  = "level"
	logNameKeyConstant                   = "logger"
	logCallerKeyConstant                 = "caller"
)

// LoggerOutputs groups the loggers produced for a single invocation. The
// diagnostic logger receives lifecycle events; the console logger carries
// operator-facing messages and is silent outside console format.
type LoggerOutputs struct {
	DiagnosticLogger *zap.Logger
	ConsoleLogger    *zap.Logger
}

// LoggerFactory creates zap loggers from level and format settings.
type LoggerFactory struct{}

// NewLoggerFactory constructs a LoggerFactory.
func NewLoggerFactory() LoggerFactory {
	return LoggerFactory{}
}

// CreateLoggerOutputs builds diagnostic and console loggers writing to stderr.
func (factory LoggerFactory) CreateLoggerOutputs(logLevel LogLevel, logFormat LogFormat) (LoggerOutputs, error) {
	zapLevel, levelError := parseLogLevel(logLevel)
	if levelError != nil {
		return LoggerOutputs{}, levelError
	}

	errorSink := zapcore.Lock(zapcore.AddSync(os.Stderr))
	levelEnabler := zap.NewAtomicLevelAt(zapLevel)

	switch LogFormat(strings.ToLower(strings.TrimSpace(string(logFormat)))) {
	case LogFormatStructured:
		diagnosticCore := zapcore.NewCore(zapcore.NewJSONEncoder(newEncoderConfig()), errorSink, levelEnabler)
		return LoggerOutputs{
			DiagnosticLogger: zap.New(diagnosticCore),
			ConsoleLogger:    zap.NewNop(),
		}, nil
	case LogFormatConsole:
		consoleEncoderConfig := newEncoderConfig()
		consoleEncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		consoleEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		diagnosticCore := zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig), errorSink, levelEnabler)

		operatorEncoderConfig := zapcore.EncoderConfig{MessageKey: logMessageKeyConstant, LineEnding: zapcore.DefaultLineEnding}
		operatorCore := zapcore.NewCore(zapcore.NewConsoleEncoder(operatorEncoderConfig), errorSink, zap.NewAtomicLevelAt(zapcore.InfoLevel))
		return LoggerOutputs{
			DiagnosticLogger: zap.New(diagnosticCore),
			ConsoleLogger:    zap.New(operatorCore),
		}, nil
	default:
		return LoggerOutputs{}, fmt.Errorf(unsupportedLogFormatTemplateConstant, logFormat)
	}
}

func parseLogLevel(logLevel LogLevel) (zapcore.Level, error) {
	switch LogLevel(strings.ToLower(strings.TrimSpace(string(logLevel)))) {
	case LogLevelDebug:
		return zapcore.DebugLevel, nil
	case LogLevelInfo:
		return zapcore.InfoLevel, nil
	case LogLevelWarn:
		return zapcore.WarnLevel, nil
	case LogLevelError:
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf(unsupportedLogLevelTemplateConstant, logLevel)
	}
}

func newEncoderConfig() zapcore.EncoderConfig {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = logTimeKeyConstant
	encoderConfig.MessageKey = logMessageKeyConstant
	encoderConfig.LevelKey = logLevelKeyConstant
	encoderConfig.NameKey = logNameKeyConstant
	encoderConfig.CallerKey = logCallerKeyConstant
	encoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	return encoderConfig
}
