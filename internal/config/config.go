package config

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Delivery modes.
const (
	DeliveryModeHTTP = "http"
	DeliveryModeSDK  = "sdk"
)

type Config struct {
	// Credentials
	FirebaseKeyFile    string
	FCMScope           string
	TokenRefreshMargin time.Duration

	// Delivery
	FCMEndpoint           string
	DeliveryMode          string // "http" or "sdk"
	RequestTimeoutSeconds int
	DebugTransport        bool

	// Remembered device token
	TokenFile string

	// Panel
	Panel              PanelConfig
	PanelAddr          string
	OpenBrowserOnStart bool

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string
}

// PanelConfig describes the screen the panel slides onto. The tray toolkit does
// not report its icon geometry on every platform, so it is configured.
type PanelConfig struct {
	Width             int
	Height            int
	ScreenWidth       int
	ScreenHeight      int
	TrayIconX         int
	TrayIconY         int
	TrayIconWidth     int
	TrayIconHeight    int
	AnimationDuration time.Duration
	FlashDuration     time.Duration
}

var (
	DefaultAnimationDuration  = 300 * time.Millisecond
	DefaultFlashDuration      = 2 * time.Second
	DefaultTokenRefreshMargin = 5 * time.Minute
)

// Load reads configuration from the environment (and a .env file if present),
// then applies the optional YAML config file on top of the panel section.
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		// Credentials
		FirebaseKeyFile:    getEnvOrDefault("FIREBASE_KEY_FILE", "data/firebase_key.json"),
		FCMScope:           getEnvOrDefault("FCM_SCOPE", "https://www.googleapis.com/auth/cloud-platform"),
		TokenRefreshMargin: getEnvAsDuration("TOKEN_REFRESH_MARGIN", DefaultTokenRefreshMargin),

		// Delivery
		FCMEndpoint:           strings.TrimRight(getEnvOrDefault("FCM_ENDPOINT", "https://fcm.googleapis.com"), "/"),
		DeliveryMode:          strings.ToLower(getEnvOrDefault("DELIVERY_MODE", DeliveryModeHTTP)),
		RequestTimeoutSeconds: getEnvAsInt("REQUEST_TIMEOUT_SECONDS", 30),
		DebugTransport:        getEnvOrDefault("DEBUG_TRANSPORT", "false") == "true",

		TokenFile: getEnvOrDefault("TOKEN_FILE", "data/saved_token.txt"),

		// Panel
		Panel: PanelConfig{
			Width:             getEnvAsInt("PANEL_WIDTH", 400),
			Height:            getEnvAsInt("PANEL_HEIGHT", 270),
			ScreenWidth:       getEnvAsInt("SCREEN_WIDTH", 1920),
			ScreenHeight:      getEnvAsInt("SCREEN_HEIGHT", 1080),
			TrayIconX:         getEnvAsInt("TRAY_ICON_X", 1800),
			TrayIconY:         getEnvAsInt("TRAY_ICON_Y", 1040),
			TrayIconWidth:     getEnvAsInt("TRAY_ICON_WIDTH", 24),
			TrayIconHeight:    getEnvAsInt("TRAY_ICON_HEIGHT", 40),
			AnimationDuration: getEnvAsDuration("ANIMATION_DURATION", DefaultAnimationDuration),
			FlashDuration:     getEnvAsDuration("FLASH_DURATION", DefaultFlashDuration),
		},
		PanelAddr:          getEnvOrDefault("PANEL_ADDR", "127.0.0.1:8765"),
		OpenBrowserOnStart: getEnvOrDefault("OPEN_BROWSER_ON_START", "false") == "true",

		// Logging
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "text"),
		LogFile:   getEnvOrDefault("LOG_FILE", ""),
	}

	// The config file is optional; only the panel section is read from it.
	configFilePath := getEnvOrDefault("CONFIG_FILE", "config.yaml")
	configFile, err := os.Open(configFilePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	} else {
		defer configFile.Close()
		log.Printf("Loading config file: %v", configFilePath)
		if err := LoadConfigFile(configFile, cfg); err != nil {
			return nil, err
		}
	}

	if cfg.DeliveryMode != DeliveryModeHTTP && cfg.DeliveryMode != DeliveryModeSDK {
		log.Printf("Warning: unknown DELIVERY_MODE %q, using %q", cfg.DeliveryMode, DeliveryModeHTTP)
		cfg.DeliveryMode = DeliveryModeHTTP
	}

	return cfg, nil
}

// RequestTimeout returns the per-send network timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		} else {
			log.Printf("Warning: Failed to parse environment variable %s='%s' as time.Duration, using default %v: %v", key, value, defaultValue, err)
		}
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		} else {
			log.Printf("Warning: Failed to parse environment variable %s='%s' as int, using default %d: %v", key, value, defaultValue, err)
		}
	}
	return defaultValue
}

// fileConfig mirrors the YAML config file. Pointer fields distinguish keys that
// are absent from keys set to their zero value.
type fileConfig struct {
	Panel struct {
		Width             *int    `yaml:"width"`
		Height            *int    `yaml:"height"`
		ScreenWidth       *int    `yaml:"screen_width"`
		ScreenHeight      *int    `yaml:"screen_height"`
		TrayIconX         *int    `yaml:"tray_icon_x"`
		TrayIconY         *int    `yaml:"tray_icon_y"`
		TrayIconWidth     *int    `yaml:"tray_icon_width"`
		TrayIconHeight    *int    `yaml:"tray_icon_height"`
		AnimationDuration *string `yaml:"animation_duration"`
		FlashDuration     *string `yaml:"flash_duration"`
	} `yaml:"panel"`
}

// LoadConfigFile decodes YAML from reader and applies the keys it sets on top
// of config.
func LoadConfigFile(reader io.Reader, config *Config) error {
	var file fileConfig
	decoder := yaml.NewDecoder(reader)

	if err := decoder.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}

	p := file.Panel
	setInt(&config.Panel.Width, p.Width)
	setInt(&config.Panel.Height, p.Height)
	setInt(&config.Panel.ScreenWidth, p.ScreenWidth)
	setInt(&config.Panel.ScreenHeight, p.ScreenHeight)
	setInt(&config.Panel.TrayIconX, p.TrayIconX)
	setInt(&config.Panel.TrayIconY, p.TrayIconY)
	setInt(&config.Panel.TrayIconWidth, p.TrayIconWidth)
	setInt(&config.Panel.TrayIconHeight, p.TrayIconHeight)

	if err := setDuration(&config.Panel.AnimationDuration, p.AnimationDuration); err != nil {
		return fmt.Errorf("panel.animation_duration: %w", err)
	}
	if err := setDuration(&config.Panel.FlashDuration, p.FlashDuration); err != nil {
		return fmt.Errorf("panel.flash_duration: %w", err)
	}

	return nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *string) error {
	if v == nil {
		return nil
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
