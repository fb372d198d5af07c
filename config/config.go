package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

var (
	ErrNoHomeDir = errors.New("no home directory to store config at")
	ErrConfigDir = errors.New("config directory isn't a directory")
)

func Dir() (string, error) {
	homedir, exists := os.LookupEnv("HOME")
	if !exists {
		return "", ErrNoHomeDir
	}

	configDir := filepath.Join(homedir, ".config", "storm")
	fi, err := os.Lstat(configDir)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(configDir, 0777); err != nil {
			return "", fmt.Errorf("Can't create config dir: %w", err)
		}
		fi, err = os.Lstat(configDir)
	}

	if err != nil {
		return "", fmt.Errorf("Can't find config directory: %w", err)
	}

	if !fi.IsDir() {
		return "", ErrConfigDir
	}

	return configDir, nil
}

// Config is the application configuration parsed from a JSON file.
// Secrets may instead come from the environment (optionally preloaded
// from a .env file): STORM_DISCORD_API, STORM_KICK_CLIENT_ID and
// STORM_KICK_CLIENT_SECRET override their file counterparts.
type Config struct {
	// DiscordAPI is the Discord bot token.
	DiscordAPI string `json:"discord_api"`

	// URLsFile is the user-maintained stream list, one URL per line.
	URLsFile string `json:"urls_file"`

	// PollIntervalSeconds is how often an update cycle runs.
	PollIntervalSeconds int `json:"poll_interval_seconds"`

	// CommentPrefix marks lines in the urls file to skip entirely.
	CommentPrefix string `json:"comment_prefix"`

	// CommonHeaders are added to every provider's requests.
	CommonHeaders map[string]string `json:"common_headers"`

	Twitch TwitchOptions `json:"twitch"`
	Kick   KickOptions   `json:"kick"`
}

// TwitchOptions is the Twitch-specific configuration surface.
type TwitchOptions struct {
	// GraphQLAPI is the GraphQL endpoint. There is no default; without
	// it Twitch updates fail with a configuration error.
	GraphQLAPI string `json:"graphql_api"`

	// Headers sent with every GraphQL request.
	Headers map[string]string `json:"headers"`

	// UnwantedGameIDs forces streams playing these categories to
	// appear offline.
	UnwantedGameIDs []int `json:"unwanted_game_ids"`

	// UnwantedTopicIDs is reserved; read but not acted upon.
	UnwantedTopicIDs []int `json:"unwanted_topic_ids"`

	// EmbeddedPlayerFormat has one %s slot for the stream name.
	EmbeddedPlayerFormat string `json:"embedded_player_format"`
}

// KickOptions holds the OAuth client credentials for Kick's public API.
// Kick updates are disabled when the credentials are absent.
type KickOptions struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// Parse reads the configuration from a JSON file at path. An empty path
// means "storm.json" at the default config directory (see Dir).
func Parse(path string) (*Config, error) {
	// Missing .env is fine; the environment may be set by other means.
	_ = godotenv.Load()

	if path == "" {
		configDir, err := Dir()
		if err != nil {
			return nil, err
		}

		path = filepath.Join(configDir, "storm.json")
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Can't read config file: %w", err)
	}

	config := &Config{}
	if err := json.Unmarshal(contents, config); err != nil {
		return nil, fmt.Errorf("Can't parse config file: %w", err)
	}

	applyDefaults(config)
	applyEnvironment(config)

	return config, nil
}

func applyDefaults(config *Config) {
	if config.PollIntervalSeconds == 0 {
		config.PollIntervalSeconds = 60
	}

	if config.CommentPrefix == "" {
		config.CommentPrefix = "#"
	}

	if config.URLsFile == "" {
		if configDir, err := Dir(); err == nil {
			config.URLsFile = filepath.Join(configDir, "StormUrls.txt")
		}
	}

	if config.Twitch.EmbeddedPlayerFormat == "" {
		config.Twitch.EmbeddedPlayerFormat = "https://player.twitch.tv/?channel=%s&parent=localhost"
	}
}

func applyEnvironment(config *Config) {
	if token, exists := os.LookupEnv("STORM_DISCORD_API"); exists {
		config.DiscordAPI = token
	}

	if id, exists := os.LookupEnv("STORM_KICK_CLIENT_ID"); exists {
		config.Kick.ClientID = id
	}

	if secret, exists := os.LookupEnv("STORM_KICK_CLIENT_SECRET"); exists {
		config.Kick.ClientSecret = secret
	}
}
