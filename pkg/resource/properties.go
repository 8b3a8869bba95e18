package resource

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const defaultPropertiesPath = "configs/application.yml"

var (
	props      = viper.New()
	envPattern = regexp.MustCompile(`\$\{([^:}]+)(?::([^}]*))?}`)
)

// init loads application properties from YAML. A missing default file is tolerated so that
// packages can be imported from tests; an explicit PROPERTIES_FILE_PATH must exist.
func init() {
	path, explicit := os.LookupEnv("PROPERTIES_FILE_PATH")
	if !explicit {
		path = defaultPropertiesPath
	}

	if err := Init(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return
		}
		log.Fatalf("Fail to read properties: %v", err)
	}
}

// Init reads the YAML file at filepath and resolves ${ENV:default} placeholders.
func Init(filepath string) error {
	if _, err := os.Stat(filepath); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigFile(filepath)
	v.SetConfigType("yml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read %s: %w", filepath, err)
	}

	resolved := make(map[string]any)
	parsePropertiesMap("", v.AllSettings(), resolved)

	next := viper.New()
	for key, value := range resolved {
		next.Set(key, value)
	}
	props = next
	return nil
}

// Set overrides a single property. Intended for tests and CLI flags.
func Set(key string, value any) {
	props.Set(key, value)
}

// parsePropertiesMap flattens the YAML tree into dotted keys
func parsePropertiesMap(prefix string, data map[string]any, result map[string]any) {
	for key, value := range data {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		switch v := value.(type) {
		case string:
			result[fullKey] = resolveEnvVariables(v)
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, bool:
			result[fullKey] = v
		case []any:
			result[fullKey] = v
		case map[string]any:
			parsePropertiesMap(fullKey, v, result)
		default:
			log.Printf("Ignoring key '%s' with unsupported type.", fullKey)
		}
	}
}

// resolveEnvVariables replaces every ${NAME:default} occurrence in value
func resolveEnvVariables(value string) string {
	if !strings.Contains(value, "${") {
		return value
	}
	return envPattern.ReplaceAllStringFunc(value, func(match string) string {
		groups := envPattern.FindStringSubmatch(match)
		if envValue, exists := os.LookupEnv(groups[1]); exists {
			return envValue
		}
		return groups[2]
	})
}

func Get(key string) any {
	return props.Get(key)
}

func IsSet(key string) bool {
	return props.IsSet(key)
}

func GetString(key string) string {
	return props.GetString(key)
}

// GetStringOrDefault returns the property or defaultValue when it is empty.
func GetStringOrDefault(key, defaultValue string) string {
	if value := props.GetString(key); value != "" {
		return value
	}
	return defaultValue
}

func GetBool(key string) bool {
	return props.GetBool(key)
}

func GetDuration(key string) time.Duration {
	return props.GetDuration(key)
}

// GetDurationOrDefault returns the property or defaultValue when unset or zero.
func GetDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := props.GetDuration(key); value > 0 {
		return value
	}
	return defaultValue
}

func GetInt(key string) int {
	return props.GetInt(key)
}

// GetIntOrDefault returns the property or defaultValue when unset or zero.
func GetIntOrDefault(key string, defaultValue int) int {
	if value := props.GetInt(key); value != 0 {
		return value
	}
	return defaultValue
}

func GetInt64(key string) int64 {
	return props.GetInt64(key)
}

func GetFloat64(key string) float64 {
	return props.GetFloat64(key)
}

func GetStringSlice(key string) []string {
	return props.GetStringSlice(key)
}
