// Package lambdaboot holds the cold-start bootstrap shared by the Lambda and
// the local CLI: AWS config, the S3 client, and the thumbnail configuration
// read from the environment.
package lambdaboot

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/fpang/image-thumbnail-lambda/internal/logging"
	"github.com/fpang/image-thumbnail-lambda/internal/thumbnail"
)

// Environment variables read at cold start.
const (
	EnvResizedBucket = "RESIZED_BUCKET"
	EnvMaxDimension  = "THUMBNAIL_MAX_DIMENSION"
	EnvJPEGQuality   = "THUMBNAIL_JPEG_QUALITY"
	EnvKeyPrefix     = "THUMBNAIL_KEY_PREFIX"
	EnvObjectTagging = "THUMBNAIL_OBJECT_TAGGING"
	EnvS3Endpoint    = "S3_ENDPOINT_URL"
)

// InitAWS loads the default AWS config. Fatals on error.
func InitAWS() aws.Config {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load AWS config")
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return cfg
}

// InitS3 creates the S3 client. When S3_ENDPOINT_URL is set the client
// targets that endpoint with path-style addressing (LocalStack, MinIO).
func InitS3(cfg aws.Config) *s3.Client {
	endpoint := os.Getenv(EnvS3Endpoint)
	if endpoint == "" {
		return s3.NewFromConfig(cfg)
	}
	log.Info().Str("endpoint", endpoint).Msg("Using custom S3 endpoint")
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})
}

// LoadThumbnailConfig builds the thumbnail configuration from the
// environment, falling back to thumbnail.DefaultConfig for unset values.
func LoadThumbnailConfig() (thumbnail.Config, error) {
	cfg := thumbnail.DefaultConfig()
	cfg.DestinationBucket = os.Getenv(EnvResizedBucket)
	cfg.KeyPrefix = logging.EnvOrDefault(EnvKeyPrefix, cfg.KeyPrefix)
	cfg.Tagging = os.Getenv(EnvObjectTagging)

	var err error
	if cfg.MaxDimension, err = intFromEnv(EnvMaxDimension, cfg.MaxDimension); err != nil {
		return thumbnail.Config{}, err
	}
	if cfg.JPEGQuality, err = intFromEnv(EnvJPEGQuality, cfg.JPEGQuality); err != nil {
		return thumbnail.Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return thumbnail.Config{}, fmt.Errorf("invalid thumbnail configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadThumbnailConfig is LoadThumbnailConfig for init(); fatals on error.
func MustLoadThumbnailConfig() thumbnail.Config {
	cfg, err := LoadThumbnailConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load thumbnail configuration")
	}
	return cfg
}

func intFromEnv(name string, def int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, v)
	}
	return n, nil
}

// StartupLog returns a startup logger pre-filled with the thumbnail
// configuration and init duration.
func StartupLog(name string, initStart time.Time, cfg thumbnail.Config) *logging.StartupLogger {
	return logging.NewStartupLogger(name).
		InitDuration(time.Since(initStart)).
		S3Bucket("resizedBucket", cfg.DestinationBucket).
		Config("maxDimension", strconv.Itoa(cfg.MaxDimension)).
		Config("jpegQuality", strconv.Itoa(cfg.JPEGQuality)).
		Config("keyPrefix", cfg.KeyPrefix).
		Feature("objectTagging", cfg.Tagging != "").
		Feature("customS3Endpoint", os.Getenv(EnvS3Endpoint) != "")
}
