package applog

import (
	"fmt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"os"
	"path/filepath"
	"time"
)

type Logger = zap.Logger

func Info(msg string, fields ...zapcore.Field) {
	globalLogger.WithOptions(zap.AddCallerSkip(1)).Info(msg, fields...)
}

func Warn(msg string, fields ...zapcore.Field) {
	globalLogger.WithOptions(zap.AddCallerSkip(1)).Warn(msg, fields...)
}

func Debug(msg string, fields ...zapcore.Field) {
	globalLogger.WithOptions(zap.AddCallerSkip(1)).Debug(msg, fields...)
}

func Error(msg string, fields ...zapcore.Field) {
	globalLogger.WithOptions(zap.AddCallerSkip(1)).Error(msg, fields...)
}

func Fatal(msg string, fields ...zapcore.Field) {
	globalLogger.WithOptions(zap.AddCallerSkip(1)).Fatal(msg, fields...)
}

func LogStartup(launchArgs interface{}) {
	Info("Application started",
		zap.Any("launchArgs", launchArgs),
	)
}

func GetLogger() *Logger {
	return globalLogger
}

// Initialize opens the match log file inside logDir and replaces the global
// logger with one that tees to both stdout and that file. logDir is created
// when missing.
func Initialize(logDir string, rawLogLevel int) error {
	if logDir == "" {
		workdir, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current working directory: %v", err)
		}
		logDir = filepath.Join(workdir, "logs")
	}

	if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create log directory: %v", err)
	}

	logFilename := filepath.Join(
		logDir,
		fmt.Sprintf("shotgun_%s.log", time.Now().Format("2006-01-02_15-04-05")),
	)

	var err error
	logFile, err = os.OpenFile(logFilename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file '%s': %v", logFilename, err)
	}

	setLogger(newLogger(safeGetLogLevelOrDefault(rawLogLevel), opts...))
	return nil
}

func Shutdown() {
	_ = globalLogger.Sync()
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

func safeGetLogLevelOrDefault(rawLogLevel int) zapcore.Level {
	level := zapcore.Level(rawLogLevel)
	if level < zapcore.DebugLevel || level >= zapcore.InvalidLevel {
		return zapcore.InfoLevel
	}
	return level
}

var (
	opts = []zap.Option{
		zap.AddCaller(),
	}
	globalLogger = newLogger(zapcore.DebugLevel, opts...)
	logFile      *os.File
)

func newLogger(level zapcore.Level, opts ...zap.Option) *Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.UTC().Format(time.RFC3339)) // Ensure UTC
	}

	jsonEncoder := zapcore.NewJSONEncoder(encoderConfig)

	consoleCore := zapcore.NewCore(jsonEncoder, zapcore.AddSync(os.Stdout), level)
	combinedCore := consoleCore
	if logFile != nil {
		fileCore := zapcore.NewCore(jsonEncoder, zapcore.AddSync(logFile), level)
		combinedCore = zapcore.NewTee(consoleCore, fileCore)
	}

	logger := zap.New(combinedCore, opts...)

	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	return logger
}

func setLogger(l *Logger) {
	globalLogger = l
	zap.ReplaceGlobals(globalLogger)
}
