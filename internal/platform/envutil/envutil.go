package envutil

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/pipelines-backend/internal/platform/logger"
)

// GetEnv returns the trimmed value of key, or def when unset or blank.
// log may be nil.
func GetEnv(key, def string, log *logger.Logger) string {
	if log != nil {
		log = log.With("env_var", key)
	}
	val, ok := os.LookupEnv(key)
	val = strings.TrimSpace(val)
	if !ok || val == "" {
		if log != nil {
			log.Debug("Environment variable not found, using default", "default", def)
		}
		return def
	}
	if log != nil {
		log.Debug("Environment variable found, using environment", "value", val)
	}
	return val
}

func GetEnvAsInt(key string, def int, log *logger.Logger) int {
	raw := GetEnv(key, "", nil)
	if raw == "" {
		return logDefault(log, key, def)
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		if log != nil {
			log.Warn("Environment variable could not be parsed as int, using default", "env_var", key, "provided", raw, "default", def, "error", err)
		}
		return def
	}
	return i
}

func GetEnvAsBool(key string, def bool, log *logger.Logger) bool {
	raw := strings.ToLower(GetEnv(key, "", nil))
	switch raw {
	case "":
		return logDefault(log, key, def)
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		if log != nil {
			log.Warn("Environment variable could not be parsed as bool, using default", "env_var", key, "provided", raw, "default", def)
		}
		return def
	}
}

// GetEnvAsSeconds reads an integer number of seconds. Non-positive values
// fall back to def.
func GetEnvAsSeconds(key string, def time.Duration, log *logger.Logger) time.Duration {
	n := GetEnvAsInt(key, -1, log)
	if n <= 0 {
		return def
	}
	return time.Duration(n) * time.Second
}

func logDefault[T any](log *logger.Logger, key string, def T) T {
	if log != nil {
		log.Debug("Environment variable not found, using default", "env_var", key, "default", def)
	}
	return def
}
