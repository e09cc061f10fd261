package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log - глобальный логгер сервера. До вызова Init равен nil.
var Log *logrus.Logger

// Init настраивает глобальный логгер из окружения.
//
//	LOG_LEVEL  - debug, info, warn, error (по умолчанию info)
//	LOG_FORMAT - json для прода, иначе цветной текст
func Init() {
	InitWithOutput(os.Stdout)
}

// InitWithOutput то же самое, но с явным приемником (в тестах - io.Discard).
func InitWithOutput(out io.Writer) {
	Log = logrus.New()

	level, err := logrus.ParseLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	}

	Log.SetOutput(out)
}

// Component возвращает запись с полем component - так проще грепать логи подсистем.
func Component(name string) *logrus.Entry {
	if Log == nil {
		Init()
	}
	return Log.WithField("component", name)
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
