package logger

import (
	"log"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogFile is where InitLogger writes; the terminal belongs to the TUI.
const LogFile = "modpack-downloader.log"

var (
	Log       *zap.SugaredLogger = zap.NewNop().Sugar()
	ZapLogger *zap.Logger        = zap.NewNop()
)

func InitLogger() {
	encoderCfg := zapcore.EncoderConfig{
		TimeKey:          "T",
		LevelKey:         "L",
		NameKey:          "N",
		CallerKey:        "",
		FunctionKey:      zapcore.OmitKey,
		MessageKey:       "M",
		StacktraceKey:    "S",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeTime:       zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05"),
		EncodeDuration:   zapcore.SecondsDurationEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		ConsoleSeparator: "  ",
	}

	logFile, err := os.OpenFile(LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatalf("can't open log file: %v", err)
	}

	level := zap.InfoLevel
	if os.Getenv("MODPACK_DEBUG") != "" {
		level = zap.DebugLevel
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(logFile),
		level,
	)

	ZapLogger = zap.New(core)
	Log = ZapLogger.Sugar()
	Log.Infow("Logger initialized", zap.String("file", LogFile), zap.Stringer("level", level))
}

// Named returns a child logger for a component.
func Named(name string) *zap.SugaredLogger {
	return Log.Named(name)
}

func Sync() {
	if ZapLogger != nil {
		_ = ZapLogger.Sync()
	}
}
