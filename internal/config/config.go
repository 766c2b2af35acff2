package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Redis      RedisConfig
	S3         S3Config
	Logger     Logger
	Resolver   ResolverConfig
	Transcoder TranscoderConfig
	Download   DownloadConfig
	Batch      BatchConfig
	Worker     WorkerConfig
}

type ServerConfig struct {
	AppVersion        string
	Port              string
	Mode              string
	JwtSecretKey      string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	CtxDefaultTimeout time.Duration
	AllowOrigins      []string
}

type RedisConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	DB            int
	MinIdleConns  int
	PoolSize      int
	PoolTimeout   int
	BatchTTL      time.Duration
}

type S3Config struct {
	Enabled          bool
	Endpoint         string
	Region           string
	AccessKey        string
	SecretKey        string
	HandoffBucket    string
	HandoffThreshold int64
	PresignTTL       time.Duration
}

type Logger struct {
	Development       bool
	DisableCaller     bool
	DisableStacktrace bool
	Encoding          string
	Level             string
}

// ResolverConfig holds the upstream endpoints used by the resolver chain.
// MetadataBackfillPlatforms and MetadataFallbackPlatforms are the two
// allow-lists consulted by the chain; edit them here rather than in code.
type ResolverConfig struct {
	MetadataBaseURL           string
	TikwmBaseURL              string
	FxTwitterBaseURL          string
	BilibiliBaseURL           string
	CobaltURL                 string
	DouyinAPIBaseURL          string
	InnertubeBaseURL          string
	InnertubeKey              string
	YtDlpPath                 string
	YoutubeRemoteFirst        bool
	RequestTimeout            time.Duration
	MetadataBackfillPlatforms []string
	MetadataFallbackPlatforms []string
}

type TranscoderConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

type DownloadConfig struct {
	MaxFileSize  int64
	PollInterval time.Duration
	PollTimeout  time.Duration
}

type BatchConfig struct {
	Concurrency int
	MaxURLs     int
}

type WorkerConfig struct {
	MaxCPUUsage float64
}

func LoadConfig(filename string) (*viper.Viper, error) {
	// .env is optional, real environment variables win
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(filename)
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFound) {
			return nil, errors.New("config file not found")
		}
		return nil, err
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.appVersion", "1.0.0")
	v.SetDefault("server.port", ":5000")
	v.SetDefault("server.mode", "Development")
	v.SetDefault("server.readTimeout", 10*time.Second)
	v.SetDefault("server.writeTimeout", 35*time.Minute)
	v.SetDefault("server.ctxDefaultTimeout", 5*time.Second)
	v.SetDefault("server.allowOrigins", []string{"*"})

	v.SetDefault("logger.development", true)
	v.SetDefault("logger.encoding", "console")
	v.SetDefault("logger.level", "info")

	v.SetDefault("redis.redisAddr", ":6379")
	v.SetDefault("redis.poolSize", 10)
	v.SetDefault("redis.poolTimeout", 30)
	v.SetDefault("redis.batchTTL", time.Hour)

	v.SetDefault("s3.region", "auto")
	v.SetDefault("s3.handoffThreshold", int64(500*1024*1024))
	v.SetDefault("s3.presignTTL", time.Hour)

	v.SetDefault("resolver.metadataBaseURL", "https://backend1.tioo.eu.org")
	v.SetDefault("resolver.tikwmBaseURL", "https://www.tikwm.com")
	v.SetDefault("resolver.fxTwitterBaseURL", "https://api.fxtwitter.com")
	v.SetDefault("resolver.bilibiliBaseURL", "https://api.bilibili.com")
	v.SetDefault("resolver.cobaltURL", "https://api.cobalt.tools/api/json")
	v.SetDefault("resolver.douyinAPIBaseURL", "https://api.douyin.wtf")
	v.SetDefault("resolver.innertubeBaseURL", "https://www.youtube.com")
	v.SetDefault("resolver.ytDlpPath", "yt-dlp")
	v.SetDefault("resolver.youtubeRemoteFirst", true)
	v.SetDefault("resolver.requestTimeout", 20*time.Second)
	v.SetDefault("resolver.metadataBackfillPlatforms", []string{"douyin", "xiaohongshu", "tiktok", "instagram"})
	v.SetDefault("resolver.metadataFallbackPlatforms", []string{"douyin", "xiaohongshu", "tiktok", "instagram"})

	v.SetDefault("transcoder.baseURL", "https://ffmpeg.226022.xyz")
	v.SetDefault("transcoder.timeout", 60*time.Second)
	v.SetDefault("transcoder.maxRetries", 2)

	v.SetDefault("download.maxFileSize", int64(2*1024*1024*1024))
	v.SetDefault("download.pollInterval", 3*time.Second)
	v.SetDefault("download.pollTimeout", 30*time.Minute)

	v.SetDefault("batch.concurrency", 3)
	v.SetDefault("batch.maxURLs", 50)

	v.SetDefault("worker.maxCPUUsage", 90.0)
}
