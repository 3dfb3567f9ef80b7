package config

import (
	"os"
	"strconv"
	"strings"
)

// Store drivers selectable with STORE_DRIVER.
const (
	StoreDriverMySQL  = "mysql"
	StoreDriverMemory = "memory"
)

// Settings is the process configuration read from the environment.
type Settings struct {
	Port           string
	GinMode        string
	StoreDriver    string
	JWTSecret      string
	UploadPath     string
	MaxUploadBytes int64
	AllowedOrigins []string
	NotifyEmail    bool
	SeedUsersFile  string
}

// LoadSettings reads Settings; call after godotenv.Load.
func LoadSettings() Settings {
	s := Settings{
		Port:          getenvDefault("SERVER_PORT", "8080"),
		GinMode:       os.Getenv("GIN_MODE"),
		StoreDriver:   strings.ToLower(getenvDefault("STORE_DRIVER", StoreDriverMySQL)),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		UploadPath:    getenvDefault("UPLOAD_PATH", "./uploads"),
		NotifyEmail:   os.Getenv("NOTIFY_EMAIL") == "1",
		SeedUsersFile: os.Getenv("SEED_USERS_FILE"),
	}

	maxMB, err := strconv.ParseInt(os.Getenv("MAX_UPLOAD_MB"), 10, 64)
	if err != nil || maxMB <= 0 {
		maxMB = 50
	}
	s.MaxUploadBytes = maxMB << 20

	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			s.AllowedOrigins = append(s.AllowedOrigins, origin)
		}
	}
	if len(s.AllowedOrigins) == 0 {
		s.AllowedOrigins = []string{"http://localhost:3000"}
	}
	return s
}

func getenvDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
