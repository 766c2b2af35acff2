package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	goredis "github.com/go-redis/redis/v8"

	"github.com/amankumarsingh77/media-resolver/internal/config"
	"github.com/amankumarsingh77/media-resolver/internal/server"
	"github.com/amankumarsingh77/media-resolver/pkg/db/aws"
	"github.com/amankumarsingh77/media-resolver/pkg/db/redis"
	"github.com/amankumarsingh77/media-resolver/pkg/logger"
	"github.com/amankumarsingh77/media-resolver/pkg/utils"
)

func main() {
	configFile := flag.String("config", "config.yml", "path to the config file")
	issueToken := flag.String("issue-token", "", "print a signed token for the given browser add-on client id and exit")
	flag.Parse()

	cfgFile, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("loadConfig: %v", err)
	}
	cfg, err := config.ParseConfig(cfgFile)
	if err != nil {
		log.Fatalf("parseConfig: %v", err)
	}

	if *issueToken != "" {
		token, err := utils.GenerateExtensionToken(*issueToken, cfg.Server.JwtSecretKey, utils.TokenExpireDuration)
		if err != nil {
			log.Fatalf("issue token: %v", err)
		}
		fmt.Fprintln(os.Stdout, token)
		return
	}

	log.Println("Starting server")
	appLogger := logger.NewApiLogger(cfg)
	appLogger.InitLogger()
	appLogger.Infof("AppVersion: %s, LogLevel: %s, Mode: %s", cfg.Server.AppVersion, cfg.Logger.Level, cfg.Server.Mode)

	var (
		redisClient   *goredis.Client
		s3Client      *s3.Client
		presignClient *s3.PresignClient
	)
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewRedisClient(cfg)
		if err != nil {
			appLogger.Errorf("could not connect to redis, batch progress stays in memory: %v", err)
		} else {
			appLogger.Infof("redis connected")
			defer redisClient.Close()
		}
	}
	if cfg.S3.Enabled {
		s3Client, presignClient, err = aws.NewAWSClient(cfg.S3.Endpoint, cfg.S3.Region, cfg.S3.AccessKey, cfg.S3.SecretKey)
		if err != nil {
			appLogger.Errorf("could not create s3 client, handoff disabled: %v", err)
		}
	}

	s := server.NewServer(cfg, redisClient, s3Client, presignClient, appLogger)
	if err = s.Run(); err != nil {
		appLogger.Fatalf("could not start server: %v", err)
	}
}
