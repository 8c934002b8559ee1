// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# CLI Flags and Environment Variables

	-p              PORT            Server port (default 3318)
	-d              DATABASE_URL    Ledger database (required)
	-t              DATABASE_TYPE   sqlite or postgres (default sqlite)
	-store          STORE_TYPE      sql, file or redis (default sql)
	-state          STATE_PATH      Queue state document (file backend)
	-redis          REDIS_ADDR      Redis address (redis backend)
	-rooms          ROOMS           Comma separated room names
	-display        DISPLAY         Run the display aggregator
	-poll           POLL_INTERVAL   Display poll interval (default 3s)
	-claim-timeout  CLAIM_TIMEOUT   Bounded wait for the claim lock (default 2s)
	-claim-retries  CLAIM_RETRIES   Attempts before Busy is reported (default 5)
	-sound          SOUND_FILE      Cue played on a new call
	-sound-cmd      SOUND_COMMAND   Player command (default aplay)
	-blinks         BLINK_COUNT     Emphasis toggles per call (default 6)
	-blink-interval BLINK_INTERVAL  Time between toggles (default 500ms)
	-room-salt      ROOM_KEY_SALT   Room key salt (required)
	-env-file                       Dotenv file (default .env)

CLI flags take precedence over environment variables. The dotenv file is
loaded with github.com/joho/godotenv and never overrides variables that are
already set. A missing default .env is ignored; a missing file named with
-env-file is an error.

# Validation

ParseFlags returns an error if required values are missing or malformed:

  - DATABASE_URL must be provided
  - ROOM_KEY_SALT must be provided
  - at least one room must be named
*/
package cliparse
