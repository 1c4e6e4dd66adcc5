package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Settings struct {
	Port         string   `env:"PORT" envDefault:"8080"`
	Env          string   `env:"ENV" envDefault:"production"`
	MongoURI     string   `env:"MONGO_URI"`
	DBName       string   `env:"DB_NAME" envDefault:"abs"`
	CORSOrigins  []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	TicketSecret string   `env:"WS_TICKET_SECRET"`
	UploadsDir   string   `env:"UPLOADS_DIR" envDefault:"uploads"`

	Redis    RedisSettings
	Firebase FirebaseSettings
	Gemini   GeminiSettings
	Geocoder GeocoderSettings
	SMTP     SMTPSettings
}

type RedisSettings struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type FirebaseSettings struct {
	ProjectID         string `env:"FIREBASE_PROJECT_ID"`
	CredentialsBase64 string `env:"FIREBASE_CREDENTIALS_BASE64"`
	CredentialsFile   string `env:"GOOGLE_APPLICATION_CREDENTIALS"`
}

type GeminiSettings struct {
	APIKey  string        `env:"GEMINI_API_KEY"`
	Model   string        `env:"GEMINI_MODEL" envDefault:"gemini-3-flash-preview"`
	BaseURL string        `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com"`
	Timeout time.Duration `env:"GEMINI_TIMEOUT" envDefault:"60s"`
}

type GeocoderSettings struct {
	BaseURL   string        `env:"GEOCODER_BASE_URL" envDefault:"https://nominatim.openstreetmap.org"`
	UserAgent string        `env:"GEOCODER_USER_AGENT" envDefault:"abs-portal/1.0"`
	Timeout   time.Duration `env:"GEOCODER_TIMEOUT" envDefault:"10s"`
}

type SMTPSettings struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	User     string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASS"`
	From     string `env:"SENDER_EMAIL"`
}

// HasCredentials reports whether a service account is configured. Token
// revocation checks and revocation itself depend on it.
func (f FirebaseSettings) HasCredentials() bool {
	return f.CredentialsBase64 != "" || f.CredentialsFile != ""
}

func (s Settings) IsDevelopment() bool {
	return s.Env == "development" || s.Env == "dev"
}

// LoadSettings reads .env (when present) and the process environment.
func LoadSettings() (Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: .env not loaded: %v", err)
	}

	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, err
	}
	return s, s.complete()
}

// complete fills development defaults and rejects a production setup
// missing anything mandatory.
func (s *Settings) complete() error {
	if s.IsDevelopment() {
		if s.MongoURI == "" {
			// Change streams need a replica set, even a single-node one
			s.MongoURI = "mongodb://localhost:27017/?replicaSet=rs0"
		}
		if s.TicketSecret == "" {
			s.TicketSecret = "dev-only-ticket-secret"
		}
		return nil
	}

	var missing []string
	if s.MongoURI == "" {
		missing = append(missing, "MONGO_URI")
	}
	if s.TicketSecret == "" {
		missing = append(missing, "WS_TICKET_SECRET")
	}
	if s.Firebase.ProjectID == "" {
		missing = append(missing, "FIREBASE_PROJECT_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	if s.Gemini.APIKey == "" {
		log.Println("Warning: GEMINI_API_KEY not set, assistant replies will fail")
	}
	return nil
}
