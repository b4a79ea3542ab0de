package helpers

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var DEBUG bool

// Logger writes to stderr so that stdout only carries the converted document.
var Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02 15:04:05", NoColor: true}).With().Timestamp().Logger()

func Log(level string, message interface{}) {
	if level == "DEBUG" && !DEBUG {
		return
	}
	var ev *zerolog.Event
	switch level {
	case "DEBUG":
		ev = Logger.Debug()
	case "INFO":
		ev = Logger.Info()
	case "WARN":
		ev = Logger.Warn()
	case "ERROR":
		ev = Logger.Error()
	default:
		// e.g. "TODO", "DEBUG2"
		ev = Logger.Info().Str("tag", level)
	}
	ev.Msg(fmt.Sprintf("%v", message))
}

// Elapsed logs the duration since startMs when it is longer than thresholdMs (0 = always).
func Elapsed(startMs int64, message string, thresholdMs int64) {
	elapsed := time.Now().UnixMilli() - startMs
	if elapsed >= thresholdMs {
		level := "INFO"
		if thresholdMs > 0 {
			level = "WARN"
		}
		Log(level, fmt.Sprintf("%s (%d ms)", message, elapsed))
	}
}

func TruncateStr(s string, maxLen int) string {
	if maxLen < 0 || len(s) <= maxLen {
		return s
	}
	// keep it valid UTF-8
	for maxLen > 0 && !isRuneStart(s[maxLen]) {
		maxLen--
	}
	return s[:maxLen] + "..."
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

func GetEnv(key string, fallback string) string {
	value, exists := os.LookupEnv(key)
	if exists {
		return value
	}
	return fallback
}

func GetEnvInt64(key string, fallback int64) int64 {
	value, exists := os.LookupEnv(key)
	if exists {
		i64, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			Log("WARN", fmt.Sprintf("%s=%s is not an integer, using %d", key, value, fallback))
			return fallback
		}
		return i64
	}
	return fallback
}

func GetBoolEnv(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if exists {
		switch strings.ToLower(value) {
		case
			"true",
			"y",
			"yes",
			"1":
			return true
		}
		return false
	}
	return fallback
}
