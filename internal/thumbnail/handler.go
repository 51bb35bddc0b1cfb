// Package thumbnail implements the thumbnail Lambda: read an image from S3,
// shrink it to fit a bounding box, and write it back as JPEG under a
// prefixed key.
//
// Every outcome is returned in-band as a Result. Input problems echo the
// offending payload as "received"; failures while reading, decoding, encoding
// or writing carry only the error text.
package thumbnail

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fpang/image-thumbnail-lambda/internal/envelope"
	"github.com/fpang/image-thumbnail-lambda/internal/imaging"
	"github.com/fpang/image-thumbnail-lambda/internal/metrics"
	"github.com/fpang/image-thumbnail-lambda/internal/s3util"
)

// ContentType is the MIME type of every thumbnail written.
const ContentType = "image/jpeg"

// Handler processes thumbnail invocations. It holds no per-invocation state
// and is safe to share across concurrent invocations.
type Handler struct {
	store      s3util.ObjectStore
	cfg        Config
	metricsOut io.Writer
}

// NewHandler creates a Handler that reads and writes through store.
func NewHandler(store s3util.ObjectStore, cfg Config) *Handler {
	return &Handler{store: store, cfg: cfg}
}

// WithMetricsWriter sends EMF documents to w instead of stdout.
func (h *Handler) WithMetricsWriter(w io.Writer) *Handler {
	h.metricsOut = w
	return h
}

type requestIDKey struct{}

// WithRequestID attaches a request ID for invocations that do not come
// through the Lambda runtime.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		return lc.AwsRequestID
	}
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// Handle is the Lambda entry point. The returned error is always nil.
func (h *Handler) Handle(ctx context.Context, raw json.RawMessage) (Result, error) {
	start := time.Now()
	logger := log.With().Str("requestId", requestID(ctx)).Logger()

	evt := logger.Info()
	if json.Valid(raw) {
		evt = evt.RawJSON("event", raw)
	} else {
		evt = evt.Str("event", string(raw))
	}
	evt.Msg("Received event")

	env, err := envelope.Resolve(raw)
	if err != nil {
		inputErr := &Error{Kind: KindInputParse, Err: err}
		logger.Warn().Err(inputErr).Str("envelope", env.Kind.String()).Msg("Rejected request body")
		h.record(inputErr.Kind.String(), start, 0, invocation{envelope: env.Kind})
		return failResult(inputErr.Error()).withReceived(env.Raw()), nil
	}

	req, ok := env.Request()
	if !ok {
		inputErr := &Error{Kind: KindValidation, Err: errMissingBucketOrKey}
		logger.Warn().Err(inputErr).Str("envelope", env.Kind.String()).Msg("Rejected request")
		h.record(inputErr.Kind.String(), start, 0, invocation{envelope: env.Kind})
		return failResult(inputErr.Error()).withReceived(env.Payload()), nil
	}
	inv := invocation{envelope: env.Kind, req: req}

	ctx = logger.With().
		Str("envelope", env.Kind.String()).
		Str("bucket", req.Bucket).
		Str("key", req.Key).
		Logger().
		WithContext(ctx)

	result, size, err := h.process(ctx, req)
	if err != nil {
		outcome := outcomeOf(err)
		zerolog.Ctx(ctx).Error().Err(err).Str("outcome", outcome).Msg("Thumbnail generation failed")
		h.record(outcome, start, 0, inv)
		return failResult(err.Error()), nil
	}

	zerolog.Ctx(ctx).Info().
		Str("resizedBucket", result.ResizedBucket).
		Str("resizedKey", result.ResizedKey).
		Int("thumbSize", size).
		Dur("duration", time.Since(start)).
		Msg("Thumbnail generated and uploaded")
	h.record(StatusSuccess, start, size, inv)
	return result, nil
}

// Process runs the read, resize, encode and write steps for one request
// that has already been validated. Errors are *Error values identifying the
// failed step. The local CLI calls it directly with a bucket and key.
func (h *Handler) Process(ctx context.Context, req envelope.Request) (Result, error) {
	ctx = log.With().
		Str("requestId", requestID(ctx)).
		Str("bucket", req.Bucket).
		Str("key", req.Key).
		Logger().
		WithContext(ctx)
	result, _, err := h.process(ctx, req)
	return result, err
}

func (h *Handler) process(ctx context.Context, req envelope.Request) (Result, int, error) {
	logger := zerolog.Ctx(ctx)
	destBucket := h.cfg.DestinationFor(req.Bucket)
	resizedKey := ResizedKey(h.cfg.KeyPrefix, req.Key)

	data, err := s3util.GetObjectBytes(ctx, h.store, req.Bucket, req.Key)
	if err != nil {
		return Result{}, 0, &Error{Kind: KindStorageRead, Bucket: req.Bucket, Key: req.Key, Err: err}
	}
	logger.Debug().Int("sourceSize", len(data)).Msg("Source object downloaded")

	img, format, err := imaging.Decode(data)
	if err != nil {
		return Result{}, 0, &Error{Kind: KindDecode, Bucket: req.Bucket, Key: req.Key, Err: err}
	}

	userMeta := map[string]string{
		"source-bucket": req.Bucket,
		"source-key":    req.Key,
		"source-format": format,
	}
	if meta, ok := imaging.ReadMetadata(data); ok {
		for k, v := range meta.UserMetadata() {
			userMeta[k] = v
		}
		logger.Debug().
			Str("cameraMake", meta.CameraMake).
			Str("cameraModel", meta.CameraModel).
			Bool("hasGPS", meta.HasGPS).
			Msg("Source EXIF metadata read")
	}

	thumb := imaging.Thumbnail(img, h.cfg.MaxDimension)
	out, err := imaging.EncodeJPEG(thumb, h.cfg.JPEGQuality)
	if err != nil {
		return Result{}, 0, &Error{Kind: KindEncode, Bucket: req.Bucket, Key: req.Key, Err: err}
	}

	err = s3util.PutObjectBytes(ctx, h.store, destBucket, resizedKey, out, s3util.PutOptions{
		ContentType: ContentType,
		Metadata:    userMeta,
		Tagging:     h.cfg.Tagging,
	})
	if err != nil {
		return Result{}, 0, &Error{Kind: KindStorageWrite, Bucket: destBucket, Key: resizedKey, Err: err}
	}

	return successResult(req.Bucket, req.Key, destBucket, resizedKey), len(out), nil
}

// invocation is what is known about a request when its metrics are recorded.
type invocation struct {
	envelope envelope.Kind
	req      envelope.Request
}

func (h *Handler) record(outcome string, start time.Time, thumbBytes int, inv invocation) {
	rec := metrics.New(metrics.Namespace).
		Dimension("Outcome", outcome).
		Count("Invocations").
		Duration("DurationMs", time.Since(start)).
		Property("envelope", inv.envelope.String())
	if inv.req.Bucket != "" {
		rec.Property("sourceBucket", inv.req.Bucket).
			Property("sourceKey", inv.req.Key)
	}
	if thumbBytes > 0 {
		rec.Metric("ThumbnailBytes", float64(thumbBytes), metrics.UnitBytes)
	}
	if h.metricsOut != nil {
		rec.WithWriter(h.metricsOut)
	}
	rec.Flush()
}
