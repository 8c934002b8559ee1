package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends
const (
	StoreSQL   = "sql"
	StoreFile  = "file"
	StoreRedis = "redis"
)

const defaultEnvFile = ".env"

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string

	StoreType string
	StatePath string
	RedisAddr string

	Rooms       []string
	Display     bool
	RoomKeySalt string
	PrintKeys   bool

	PollInterval time.Duration
	ClaimTimeout time.Duration
	ClaimRetries int

	SoundFile     string
	SoundCommand  string
	BlinkCount    int
	BlinkInterval time.Duration
}

// ParseFlags reads flags, then the optional dotenv file, then the
// environment. Flags win over the environment.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var rooms, envFile string

	fs := flag.NewFlagSet("quickly-call", flag.ContinueOnError)

	// Network and storage (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 3318, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "sqlite", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.StoreType, "store", StoreSQL, "Queue state backend (sql, file or redis)")
	fs.StringVar(&cfg.StatePath, "state", "queue_state.json", "Queue state document for the file backend")
	fs.StringVar(&cfg.RedisAddr, "redis", "localhost:6379", "Redis address for the redis backend")

	// Rooms and display
	fs.StringVar(&rooms, "rooms", "Room 1", "Comma separated room names")
	fs.BoolVar(&cfg.Display, "display", true, "Run the display aggregator")
	fs.DurationVar(&cfg.PollInterval, "poll", 3*time.Second, "Display poll interval")
	fs.DurationVar(&cfg.ClaimTimeout, "claim-timeout", 2*time.Second, "Bounded wait for the claim lock")
	fs.IntVar(&cfg.ClaimRetries, "claim-retries", 5, "Attempts before a busy claim is reported")

	// Cues
	fs.StringVar(&cfg.SoundFile, "sound", "", "Sound file played on a new call")
	fs.StringVar(&cfg.SoundCommand, "sound-cmd", "aplay", "Command used to play the sound file")
	fs.IntVar(&cfg.BlinkCount, "blinks", 6, "Emphasis toggles per call")
	fs.DurationVar(&cfg.BlinkInterval, "blink-interval", 500*time.Millisecond, "Time between emphasis toggles")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.RoomKeySalt, "room-salt", "", "Room key salt (prefer env)")
	fs.BoolVar(&cfg.PrintKeys, "print-room-keys", false, "Print each room's operator key to stdout on start")
	fs.StringVar(&envFile, "env-file", defaultEnvFile, "Dotenv file loaded before the environment")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if err := godotenv.Load(envFile); err != nil {
		if set["env-file"] || !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	env := envFallback{set: set}
	env.int(&cfg.Port, "p", "PORT")
	env.string(&cfg.DatabaseURL, "d", "DATABASE_URL")
	env.string(&cfg.DatabaseType, "t", "DATABASE_TYPE")
	env.string(&cfg.StoreType, "store", "STORE_TYPE")
	env.string(&cfg.StatePath, "state", "STATE_PATH")
	env.string(&cfg.RedisAddr, "redis", "REDIS_ADDR")
	env.string(&rooms, "rooms", "ROOMS")
	env.bool(&cfg.Display, "display", "DISPLAY")
	env.duration(&cfg.PollInterval, "poll", "POLL_INTERVAL")
	env.duration(&cfg.ClaimTimeout, "claim-timeout", "CLAIM_TIMEOUT")
	env.int(&cfg.ClaimRetries, "claim-retries", "CLAIM_RETRIES")
	env.string(&cfg.SoundFile, "sound", "SOUND_FILE")
	env.string(&cfg.SoundCommand, "sound-cmd", "SOUND_COMMAND")
	env.int(&cfg.BlinkCount, "blinks", "BLINK_COUNT")
	env.duration(&cfg.BlinkInterval, "blink-interval", "BLINK_INTERVAL")
	env.string(&cfg.RoomKeySalt, "room-salt", "ROOM_KEY_SALT")
	env.bool(&cfg.PrintKeys, "print-room-keys", "PRINT_ROOM_KEYS")
	if env.err != nil {
		return Config{}, env.err
	}

	cfg.Rooms = splitRooms(rooms)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.StoreType {
	case StoreSQL, StoreFile, StoreRedis:
	default:
		return fmt.Errorf("unknown store type %q (sql, file or redis)", c.StoreType)
	}

	// The ledger always lives in the database
	if c.DatabaseURL == "" {
		return errors.New("database URL required (use -d or DATABASE_URL env)")
	}
	if c.DatabaseType != "sqlite" && c.DatabaseType != "postgres" {
		return fmt.Errorf("unknown database type %q", c.DatabaseType)
	}

	if len(c.Rooms) == 0 {
		return errors.New("at least one room required")
	}

	// Secrets - MUST be provided
	if c.RoomKeySalt == "" {
		return errors.New("ROOM_KEY_SALT required")
	}

	if c.PollInterval <= 0 || c.ClaimTimeout <= 0 || c.BlinkInterval <= 0 {
		return errors.New("intervals and timeouts must be positive")
	}
	if c.ClaimRetries < 1 {
		return errors.New("claim retries must be at least 1")
	}
	return nil
}

func splitRooms(s string) []string {
	var rooms []string
	seen := make(map[string]bool)
	for _, r := range strings.Split(s, ",") {
		r = strings.TrimSpace(r)
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		rooms = append(rooms, r)
	}
	return rooms
}

// envFallback fills values whose flag was not given on the command line.
type envFallback struct {
	set map[string]bool
	err error
}

func (e *envFallback) lookup(flagName, key string) (string, bool) {
	if e.set[flagName] || e.err != nil {
		return "", false
	}
	v := os.Getenv(key)
	return v, v != ""
}

func (e *envFallback) string(dst *string, flagName, key string) {
	if v, ok := e.lookup(flagName, key); ok {
		*dst = v
	}
}

func (e *envFallback) int(dst *int, flagName, key string) {
	if v, ok := e.lookup(flagName, key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.err = fmt.Errorf("invalid %s env variable", key)
			return
		}
		*dst = n
	}
}

func (e *envFallback) bool(dst *bool, flagName, key string) {
	if v, ok := e.lookup(flagName, key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.err = fmt.Errorf("invalid %s env variable", key)
			return
		}
		*dst = b
	}
}

func (e *envFallback) duration(dst *time.Duration, flagName, key string) {
	if v, ok := e.lookup(flagName, key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.err = fmt.Errorf("invalid %s env variable", key)
			return
		}
		*dst = d
	}
}
