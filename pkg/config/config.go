package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	SQLite   SQLiteConfig
	Blob     BlobConfig
	Redis    RedisConfig
	GenAI    GenAIConfig
	Scraper  ScraperConfig
	Analyzer AnalyzerConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type SQLiteConfig struct {
	Path string
}

type BlobConfig struct {
	RootDir string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type GenAIConfig struct {
	APIKey     string
	Model      string
	MaxTokens  int
	TimeoutSec int
}

type ScraperConfig struct {
	TimeoutSec     int
	RequestDelayMS int
	MaxExtraPages  int
	UserAgent      string
}

type AnalyzerConfig struct {
	MaxChunkBytes int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/interview-iq")

	viper.SetEnvPrefix("INTERVIEW_IQ")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 120)
	viper.SetDefault("server.bodyLimit", 10485760)

	viper.SetDefault("sqlite.path", "./data/interviewiq.db")

	viper.SetDefault("blob.rootDir", "./data/blobs")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("genai.model", "gpt-4")
	viper.SetDefault("genai.maxTokens", 4096)
	viper.SetDefault("genai.timeoutSec", 60)

	viper.SetDefault("scraper.timeoutSec", 10)
	viper.SetDefault("scraper.requestDelayMS", 2000)
	viper.SetDefault("scraper.maxExtraPages", 2)
	viper.SetDefault("scraper.userAgent", "Mozilla/5.0 (compatible; InterviewIQ-Research/1.0)")

	viper.SetDefault("analyzer.maxChunkBytes", 5000)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
