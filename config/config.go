package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ywy929/assay-dashboard-backend/models"
)

var DB *gorm.DB

// Settings loaded from the environment. Load() fills these once at startup;
// tests assign them directly.
var (
	Environment string
	Port        string

	JWTSecret                string
	AccessTokenExpireMinutes int
	RefreshTokenExpireDays   int

	SaltSize   int
	HashSize   int
	Iterations int

	APNSKeyPath    string
	APNSKeyID      string
	APNSTeamID     string
	APNSBundleID   string
	APNSUseSandbox bool

	FCMProjectID          string
	FCMServiceAccountPath string

	ExpoPushURL string

	SyncAPIKey     string
	SyncAllowedIPs []string

	S3Bucket string
	S3Region string
)

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	Environment = getEnv("ENVIRONMENT", "development")
	Port = getEnv("PORT", "8000")

	JWTSecret = os.Getenv("SECRET_KEY")
	AccessTokenExpireMinutes = getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	RefreshTokenExpireDays = getEnvInt("REFRESH_TOKEN_EXPIRE_DAYS", 30)

	SaltSize = getEnvInt("SALT_SIZE", 32)
	HashSize = getEnvInt("HASH_SIZE", 32)
	Iterations = getEnvInt("ITERATIONS", 100000)

	APNSKeyPath = os.Getenv("APNS_KEY_PATH")
	APNSKeyID = os.Getenv("APNS_KEY_ID")
	APNSTeamID = os.Getenv("APNS_TEAM_ID")
	APNSBundleID = os.Getenv("APNS_BUNDLE_ID")
	APNSUseSandbox = getEnvBool("APNS_USE_SANDBOX", false)

	FCMProjectID = os.Getenv("FCM_PROJECT_ID")
	FCMServiceAccountPath = os.Getenv("FCM_SERVICE_ACCOUNT_PATH")

	ExpoPushURL = getEnv("EXPO_PUSH_URL", "https://exp.host/--/api/v2/push/send")

	SyncAPIKey = os.Getenv("SYNC_API_KEY")
	SyncAllowedIPs = splitCSV(getEnv("SYNC_ALLOWED_IPS", "127.0.0.1"))

	S3Bucket = os.Getenv("S3_BUCKET")
	S3Region = getEnv("S3_REGION", os.Getenv("AWS_REGION"))
}

func IsProduction() bool {
	return Environment == "production"
}

func InitDB() {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_SSLMODE", "disable"),
	)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	err = DB.AutoMigrate(
		&models.User{},
		&models.AssayResult{},
		&models.SpoilRecord{},
		&models.Loss{},
		&models.RefreshToken{},
		&models.Notification{},
		&models.PushToken{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid value for %s: %q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
