package env

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"e2e-harness/internal/application/port/output"

	"github.com/joho/godotenv"
)

var _ output.ConfigPort = (*EnvService)(nil)

type EnvService struct{}

// NewEnvService loads .env and then overloads .env.<HARNESS_ENV> (default
// "local"), so per-environment files win over shared defaults. Missing files
// are fine; the process environment is used as is.
func NewEnvService() *EnvService {
	harnessEnv := os.Getenv("HARNESS_ENV")
	if harnessEnv == "" {
		harnessEnv = "local"
	}

	if err := godotenv.Load(".env"); err == nil {
		log.Printf("Loaded .env")
	}

	envFile := fmt.Sprintf(".env.%s", harnessEnv)
	if err := godotenv.Overload(envFile); err == nil {
		log.Printf("Loaded %s", envFile)
	}

	return &EnvService{}
}

// NewEnvServiceFromFiles loads the given files in order, later files
// overriding earlier ones.
func NewEnvServiceFromFiles(files ...string) (*EnvService, error) {
	for _, f := range files {
		if err := godotenv.Overload(f); err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return &EnvService{}, nil
}

func (e *EnvService) Get(key string) string {
	return os.Getenv(key)
}

func (e *EnvService) MustGet(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("env %s is missing", key))
	}
	return val
}

func (e *EnvService) GetWithDefault(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func (e *EnvService) GetBool(key string, defaultValue bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func (e *EnvService) GetInt(key string, defaultValue int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// GetDuration accepts Go duration strings ("1500ms", "5s") or a bare
// integer, read as milliseconds.
func (e *EnvService) GetDuration(key string, defaultValue time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultValue
	}
	if ms, err := strconv.Atoi(val); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	parsed, err := time.ParseDuration(val)
	if err != nil || parsed < 0 {
		return defaultValue
	}
	return parsed
}
