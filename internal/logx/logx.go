package logx

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Русский комментарий: Этот пакет инкапсулирует настройку структурированного логирования.
// Вся операционная информация выводится только на английском, комментарии в коде подробные.
// zap даёт скорость и единый формат, lumberjack отвечает за ротацию файлов.

// RotationConfig содержит параметры ротации логов.
type RotationConfig struct {
	MaxSizeMB  int // максимальный размер файла лога в MB
	MaxBackups int // количество старых файлов для хранения
	MaxAgeDays int // максимальный возраст файла лога в днях
}

// DefaultRotation — разумные значения для небольшого сервиса.
func DefaultRotation() RotationConfig {
	return RotationConfig{MaxSizeMB: 50, MaxBackups: 5, MaxAgeDays: 14}
}

// NewLogger создаёт логгер с заданным уровнем и режимом вывода.
// Русский комментарий: Без глобального состояния — логгер явно передаётся
// всем компонентам при сборке приложения в cmd/bot/main.go.
func NewLogger(level string, pretty bool, rotation RotationConfig) (*zap.Logger, error) {
	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		zapLevel = zapcore.InfoLevel // fallback to info
	}

	var encoderCfg zapcore.EncoderConfig
	if pretty {
		encoderCfg = zap.NewDevelopmentEncoderConfig()
	} else {
		encoderCfg = zap.NewProductionEncoderConfig()
	}
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if pretty {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	// Пишем одновременно в stdout и в файл с ротацией.
	logFile := &lumberjack.Logger{
		Filename:   "logs/eclipse.log",
		MaxSize:    rotation.MaxSizeMB,
		MaxBackups: rotation.MaxBackups,
		MaxAge:     rotation.MaxAgeDays,
		Compress:   true,
	}

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), zapLevel),
		zapcore.NewCore(encoder, zapcore.AddSync(logFile), zapLevel),
	)

	return zap.New(core, zap.AddCaller()), nil
}
