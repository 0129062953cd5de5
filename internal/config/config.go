package config

import (
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Source   SourceConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Cache    CacheConfig
	Forecast ForecastConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port           string
	AdminPort      string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

// SourceConfig selects where raw rows come from. Kind is one of
// sheets, drive, file, object or sql.
type SourceConfig struct {
	Kind            string
	CredentialsFile string
	CredentialsJSON string
	SpreadsheetID   string
	SheetRange      string
	DriveFileID     string
	DriveFileName   string
	DriveFolder     string
	FilePath        string
	ObjectKey       string
	SQLQuery        string
	FetchTimeout    time.Duration
}

type DatabaseConfig struct {
	Driver        string
	Host          string
	Port          string
	User          string
	Password      string
	DBName        string
	SSLMode       string
	MaxConcurrent int64
}

// StorageConfig configures the S3-compatible bucket the object source reads from.
// Provider is sevalla or minio.
type StorageConfig struct {
	Provider  string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

type CacheConfig struct {
	Enabled        bool
	RedisURL       string
	RedisHost      string
	RedisPort      string
	RedisPassword  string
	RedisDB        int
	PageTTLSeconds int
}

type ForecastConfig struct {
	URL            string
	Timeout        time.Duration
	MinPoints      int
	DefaultHorizon int
	MinHorizon     int
	MaxHorizon     int
}

type LogConfig struct {
	Level string
}

var (
	once     sync.Once
	instance *Config
)

// Load reads the process configuration once and returns the shared instance.
func Load() *Config {
	once.Do(func() {
		instance = New()
	})

	return instance
}

// New reads a fresh configuration from the environment and an optional .env file.
func New() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	setDefaults()

	// Read from environment variables
	viper.AutomaticEnv()

	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			AdminPort:      viper.GetString("SERVER_ADMIN_PORT"),
			Mode:           viper.GetString("SERVER_MODE"),
			ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Source: SourceConfig{
			Kind:            viper.GetString("SOURCE_KIND"),
			CredentialsFile: viper.GetString("GOOGLE_CREDENTIALS_FILE"),
			CredentialsJSON: viper.GetString("GOOGLE_CREDENTIALS_JSON"),
			SpreadsheetID:   viper.GetString("SHEETS_SPREADSHEET_ID"),
			SheetRange:      viper.GetString("SHEETS_RANGE"),
			DriveFileID:     viper.GetString("DRIVE_FILE_ID"),
			DriveFileName:   viper.GetString("DRIVE_FILE_NAME"),
			DriveFolder:     viper.GetString("DRIVE_FOLDER"),
			FilePath:        viper.GetString("SOURCE_FILE_PATH"),
			ObjectKey:       viper.GetString("SOURCE_OBJECT_KEY"),
			SQLQuery:        viper.GetString("SOURCE_SQL_QUERY"),
			FetchTimeout:    time.Duration(viper.GetInt("SOURCE_FETCH_TIMEOUT_SECONDS")) * time.Second,
		},
		Database: DatabaseConfig{
			Driver:        viper.GetString("DB_DRIVER"),
			Host:          viper.GetString("DB_HOST"),
			Port:          viper.GetString("DB_PORT"),
			User:          viper.GetString("DB_USER"),
			Password:      viper.GetString("DB_PASSWORD"),
			DBName:        viper.GetString("DB_NAME"),
			SSLMode:       viper.GetString("DB_SSLMODE"),
			MaxConcurrent: viper.GetInt64("DB_MAX_CONCURRENT"),
		},
		Storage: StorageConfig{
			Provider:  viper.GetString("STORAGE_PROVIDER"),
			Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
			AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
			Bucket:    viper.GetString("STORAGE_BUCKET"),
			Region:    viper.GetString("STORAGE_REGION"),
			UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
		},
		Cache: CacheConfig{
			Enabled:        viper.GetBool("CACHE_ENABLED"),
			RedisURL:       viper.GetString("REDIS_URL"),
			RedisHost:      viper.GetString("REDIS_HOST"),
			RedisPort:      viper.GetString("REDIS_PORT"),
			RedisPassword:  viper.GetString("REDIS_PASSWORD"),
			RedisDB:        viper.GetInt("REDIS_DB"),
			PageTTLSeconds: viper.GetInt("CACHE_PAGE_TTL_SECONDS"),
		},
		Forecast: ForecastConfig{
			URL:            viper.GetString("FORECAST_URL"),
			Timeout:        time.Duration(viper.GetInt("FORECAST_TIMEOUT_SECONDS")) * time.Second,
			MinPoints:      viper.GetInt("FORECAST_MIN_POINTS"),
			DefaultHorizon: viper.GetInt("FORECAST_DEFAULT_HORIZON"),
			MinHorizon:     viper.GetInt("FORECAST_MIN_HORIZON"),
			MaxHorizon:     viper.GetInt("FORECAST_MAX_HORIZON"),
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
	}
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ADMIN_PORT", "8081")
	viper.SetDefault("SERVER_MODE", "debug")
	viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})

	viper.SetDefault("SOURCE_KIND", "sheets")
	viper.SetDefault("GOOGLE_CREDENTIALS_FILE", "credentials/service_account.json")
	viper.SetDefault("SHEETS_RANGE", "Sheet1")
	viper.SetDefault("DRIVE_FILE_NAME", "sales and inventory data")
	viper.SetDefault("SOURCE_FETCH_TIMEOUT_SECONDS", 60)

	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "salesdash")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_CONCURRENT", 4)

	viper.SetDefault("STORAGE_PROVIDER", "minio")
	viper.SetDefault("STORAGE_REGION", "us-east-1")
	viper.SetDefault("STORAGE_USE_SSL", true)

	viper.SetDefault("CACHE_ENABLED", false)
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("REDIS_HOST", "127.0.0.1")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CACHE_PAGE_TTL_SECONDS", 300)

	viper.SetDefault("FORECAST_URL", "")
	viper.SetDefault("FORECAST_TIMEOUT_SECONDS", 120)
	viper.SetDefault("FORECAST_MIN_POINTS", 20)
	viper.SetDefault("FORECAST_DEFAULT_HORIZON", 30)
	viper.SetDefault("FORECAST_MIN_HORIZON", 7)
	viper.SetDefault("FORECAST_MAX_HORIZON", 730)

	viper.SetDefault("LOG_LEVEL", "info")
}
