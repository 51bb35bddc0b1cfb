// Package main provides the Lambda entry point for image thumbnail generation.
//
// The function is wired behind API Gateway (request JSON in "body"), a Step
// Functions task (request in "Input") and direct invocation. Each invocation
// reads one image from S3, fits it within 128x128, and writes a JPEG to
// RESIZED_BUCKET (or the source bucket) under "resized-" + key.
//
// Memory: 256 MB
// Timeout: 30 seconds
package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"github.com/fpang/image-thumbnail-lambda/internal/lambdaboot"
	"github.com/fpang/image-thumbnail-lambda/internal/logging"
	"github.com/fpang/image-thumbnail-lambda/internal/thumbnail"
)

// Initialized at cold start and shared by every invocation.
var thumbnailHandler *thumbnail.Handler

var coldStart = true

func init() {
	initStart := time.Now()
	logging.Init()

	awsCfg := lambdaboot.InitAWS()
	s3Client := lambdaboot.InitS3(awsCfg)
	cfg := lambdaboot.MustLoadThumbnailConfig()

	thumbnailHandler = thumbnail.NewHandler(s3Client, cfg)

	lambdaboot.StartupLog("thumbnail-lambda", initStart, cfg).
		CommitHash(commitHash).
		BuildTime(buildTime).
		Log()
}

func handler(ctx context.Context, event json.RawMessage) (thumbnail.Result, error) {
	if coldStart {
		coldStart = false
		log.Info().Str("function", "thumbnail-lambda").Msg("Cold start: first invocation")
	}
	return thumbnailHandler.Handle(ctx, event)
}

func main() {
	lambda.Start(handler)
}
