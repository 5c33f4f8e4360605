// Package config resolves runtime settings from flags, the environment and
// an optional .env file. Flags win over the environment, which wins over the
// built-in defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by Load.
const (
	EnvDB       = "KOLCSON_DB"
	EnvAddr     = "KOLCSON_ADDR"
	EnvAdmin    = "KOLCSON_ADMIN"
	EnvLog      = "KOLCSON_LOG"
	EnvTokenTTL = "KOLCSON_TOKEN_TTL"
)

// Config holds the server settings.
type Config struct {
	DBPath    string
	Addr      string
	AdminUser string
	LogPath   string
	TokenTTL  time.Duration
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DBPath:    "kolcson.sqlite3",
		Addr:      ":8080",
		AdminUser: "admin",
		TokenTTL:  7 * 24 * time.Hour,
	}
}

const usage = `Usage: kolcson [flags]

Flags:
  -d, -db <path>          SQLite database path (env KOLCSON_DB, default: kolcson.sqlite3)
  -a, -addr <host:port>   listen address (env KOLCSON_ADDR, default: :8080)
  -u, -user <name>        admin username on first run (env KOLCSON_ADMIN, default: admin)
  -l, -log <path>         log file path (env KOLCSON_LOG, default: stdout/stderr only)
  -t, -ttl <duration>     session token lifetime (env KOLCSON_TOKEN_TTL, default: 168h)
  -h, -help               show this help and exit

Variables in ./.env are loaded into the environment if the file exists.
`

// Load reads .env from the working directory if present, then resolves the
// configuration from the environment and args. It returns flag.ErrHelp when
// help was requested.
func Load(args []string, out io.Writer) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return Parse(args, os.LookupEnv, out)
}

// Parse resolves the configuration from args, using lookup for environment
// defaults.
func Parse(args []string, lookup func(string) (string, bool), out io.Writer) (*Config, error) {
	cfg := Default()
	if v, ok := lookup(EnvDB); ok && v != "" {
		cfg.DBPath = v
	}
	if v, ok := lookup(EnvAddr); ok && v != "" {
		cfg.Addr = v
	}
	if v, ok := lookup(EnvAdmin); ok && v != "" {
		cfg.AdminUser = v
	}
	if v, ok := lookup(EnvLog); ok {
		cfg.LogPath = v
	}
	if v, ok := lookup(EnvTokenTTL); ok && v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvTokenTTL, err)
		}
		cfg.TokenTTL = ttl
	}

	flags := flag.NewFlagSet("kolcson", flag.ContinueOnError)
	flags.SetOutput(out)
	flags.Usage = func() { fmt.Fprint(out, usage) }

	flags.StringVar(&cfg.DBPath, "db", cfg.DBPath, "")
	flags.StringVar(&cfg.DBPath, "d", cfg.DBPath, "")
	flags.StringVar(&cfg.Addr, "addr", cfg.Addr, "")
	flags.StringVar(&cfg.Addr, "a", cfg.Addr, "")
	flags.StringVar(&cfg.AdminUser, "user", cfg.AdminUser, "")
	flags.StringVar(&cfg.AdminUser, "u", cfg.AdminUser, "")
	flags.StringVar(&cfg.LogPath, "log", cfg.LogPath, "")
	flags.StringVar(&cfg.LogPath, "l", cfg.LogPath, "")
	flags.DurationVar(&cfg.TokenTTL, "ttl", cfg.TokenTTL, "")
	flags.DurationVar(&cfg.TokenTTL, "t", cfg.TokenTTL, "")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if flags.NArg() > 0 {
		flags.Usage()
		return nil, fmt.Errorf("unexpected argument: %s", flags.Arg(0))
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive, got %s", cfg.TokenTTL)
	}
	return &cfg, nil
}
