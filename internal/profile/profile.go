package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo".
	Mode string
	// Addr is the binding address for server.
	Addr string
	// UNIXSock is the path to the unix socket, overrides Addr and Port.
	UNIXSock string
	// Data is the data directory.
	Data string
	// Driver is the database driver. Postgres is the primary target, sqlite
	// is kept for local development.
	Driver string
	// DSN is the database source name.
	DSN string
	// InstanceURL is the public URL of the instance.
	InstanceURL string
	// Version is the current version of server.
	Version string
	// Port is the binding port for server.
	Port int
	// EngineParallelism caps concurrent engine calls per dispatched turn.
	EngineParallelism int
	// RequestRateLimit is the per-client API request rate in requests per second.
	RequestRateLimit float64
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.EngineParallelism = getEnvOrDefaultInt("CHORUS_ENGINE_PARALLELISM", 4)
	if p.EngineParallelism <= 0 {
		p.EngineParallelism = 4
	}

	if value := getEnvOrDefault("CHORUS_REQUEST_RATE_LIMIT", ""); value != "" {
		if rate, err := strconv.ParseFloat(value, 64); err == nil && rate > 0 {
			p.RequestRateLimit = rate
		}
	}
	if p.RequestRateLimit <= 0 {
		p.RequestRateLimit = 20
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "chorus")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/chorus"
		}
	}
	if p.Data == "" {
		p.Data = "."
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	switch p.Driver {
	case "sqlite":
		if p.DSN == "" {
			dbFile := fmt.Sprintf("chorus_%s.db", p.Mode)
			p.DSN = filepath.Join(dataDir, dbFile)
		}
	case "postgres":
		if p.DSN == "" {
			return errors.New("postgres driver requires a DSN")
		}
	default:
		return errors.Errorf("unsupported driver %q, expected postgres or sqlite", p.Driver)
	}

	return nil
}
