package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"

	"courtbook/models"
)

// Glyphs is the configurable label set for grid and time-menu cells.
type Glyphs struct {
	PastBooked  string `mapstructure:"GLYPH_PAST_BOOKED"`
	PastFree    string `mapstructure:"GLYPH_PAST_FREE"`
	Today       string `mapstructure:"GLYPH_TODAY"`
	FutureOwned string `mapstructure:"GLYPH_FUTURE_OWNED"`
	FutureOther string `mapstructure:"GLYPH_FUTURE_OTHER"`
	FreeSlot    string `mapstructure:"GLYPH_FREE_SLOT"`
	SelfSlot    string `mapstructure:"GLYPH_SELF_SLOT"`
	OtherSlot   string `mapstructure:"GLYPH_OTHER_SLOT"`
}

// Config holds all configuration values.
type Config struct {
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Telegram transport.
	TelegramToken string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	LogsChannelID int64  `mapstructure:"LOGS_CHANNEL_ID"`

	// Google Calendar backend.
	CredentialsFile string `mapstructure:"GOOGLE_CREDENTIALS_FILE"`
	TokenFile       string `mapstructure:"GOOGLE_TOKEN_FILE"`
	OAuthListenAddr string `mapstructure:"OAUTH_LISTEN_ADDR"`

	// Fallback resource mapping when no resources list is configured.
	FirstCalendarID  string `mapstructure:"FIRST_CALENDAR_ID"`
	SecondCalendarID string `mapstructure:"SECOND_CALENDAR_ID"`

	// Booking window: inclusive start hours of bookable slots.
	WindowStartHour int `mapstructure:"WINDOW_START_HOUR"`
	WindowEndHour   int `mapstructure:"WINDOW_END_HOUR"`

	// Fixed UTC offset all bookings are expressed in, e.g. "+03:00",
	// plus the IANA name written into calendar events.
	UTCOffset    string `mapstructure:"UTC_OFFSET"`
	TimeZoneName string `mapstructure:"TIMEZONE_NAME"`

	// Redis configuration. Leave REDIS_ADDR empty to run with the
	// in-memory conversation store and no reminder queue.
	RedisAddr            string `mapstructure:"REDIS_ADDR"`
	RedisPassword        string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB       int    `mapstructure:"REDIS_SESSION_DB"`
	RedisReminderQueueDB int    `mapstructure:"REDIS_REMINDER_QUEUE_DB"`

	// Minutes before a booked slot at which the reminder fires.
	ReminderLeadMinutes int `mapstructure:"REMINDER_LEAD_MINUTES"`

	HealthPort string `mapstructure:"HEALTH_PORT"`

	Glyphs    Glyphs            `mapstructure:",squash"`
	Resources []models.Resource `mapstructure:"-"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("GOOGLE_CREDENTIALS_FILE", "credentials.json")
	viper.SetDefault("GOOGLE_TOKEN_FILE", "token.json")
	viper.SetDefault("OAUTH_LISTEN_ADDR", ":8080")
	viper.SetDefault("WINDOW_START_HOUR", 10)
	viper.SetDefault("WINDOW_END_HOUR", 19)
	viper.SetDefault("UTC_OFFSET", "+03:00")
	viper.SetDefault("TIMEZONE_NAME", "Europe/Moscow")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_SESSION_DB", 0)
	viper.SetDefault("REDIS_REMINDER_QUEUE_DB", 1)
	viper.SetDefault("REMINDER_LEAD_MINUTES", 60)
	viper.SetDefault("HEALTH_PORT", "8081")
	viper.SetDefault("GLYPH_PAST_BOOKED", "✕")
	viper.SetDefault("GLYPH_PAST_FREE", "·")
	viper.SetDefault("GLYPH_TODAY", "•")
	viper.SetDefault("GLYPH_FUTURE_OWNED", "✓")
	viper.SetDefault("GLYPH_FUTURE_OTHER", "")
	viper.SetDefault("GLYPH_FREE_SLOT", "")
	viper.SetDefault("GLYPH_SELF_SLOT", "🟢")
	viper.SetDefault("GLYPH_OTHER_SLOT", "🔴")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Resources come from the "resources" list in config.yaml; when absent,
	// fall back to the two flat calendar-id variables.
	if err := viper.UnmarshalKey("resources", &AppConfig.Resources); err != nil {
		log.Fatalf("Failed to load resources: %v", err)
	}
	if len(AppConfig.Resources) == 0 {
		if AppConfig.FirstCalendarID != "" {
			AppConfig.Resources = append(AppConfig.Resources, models.Resource{
				Key: "badminton", Name: "Badminton", CalendarID: AppConfig.FirstCalendarID,
			})
		}
		if AppConfig.SecondCalendarID != "" {
			AppConfig.Resources = append(AppConfig.Resources, models.Resource{
				Key: "squash", Name: "Squash", CalendarID: AppConfig.SecondCalendarID,
			})
		}
	}

	if AppConfig.WindowStartHour > AppConfig.WindowEndHour {
		log.Fatalf("Invalid booking window: start hour %d after end hour %d",
			AppConfig.WindowStartHour, AppConfig.WindowEndHour)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// Location parses the fixed UTC offset into a time.Location. All slot
// arithmetic happens in this location; no other timezone handling exists.
func (c Config) Location() (*time.Location, error) {
	var sign rune
	var hh, mm int
	if _, err := fmt.Sscanf(c.UTCOffset, "%c%02d:%02d", &sign, &hh, &mm); err != nil {
		return nil, fmt.Errorf("bad UTC offset %q: %w", c.UTCOffset, err)
	}
	secs := hh*3600 + mm*60
	switch sign {
	case '+':
	case '-':
		secs = -secs
	default:
		return nil, fmt.Errorf("bad UTC offset %q", c.UTCOffset)
	}
	return time.FixedZone("UTC"+c.UTCOffset, secs), nil
}
