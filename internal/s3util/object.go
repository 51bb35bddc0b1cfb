// Package s3util wraps the few S3 calls the thumbnail function makes behind
// narrow interfaces, so handlers can be exercised against in-memory fakes.
package s3util

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ObjectGetter is the GetObject subset of *s3.Client.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// ObjectPutter is the PutObject subset of *s3.Client.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ObjectStore reads and writes objects.
type ObjectStore interface {
	ObjectGetter
	ObjectPutter
}

var _ ObjectStore = (*s3.Client)(nil)

// PutOptions describes the object written by PutObjectBytes.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
	// Tagging is a URL-encoded tag set ("k1=v1&k2=v2"); empty means untagged.
	Tagging string
}

// GetObjectBytes reads an entire object into memory.
func GetObjectBytes(ctx context.Context, client ObjectGetter, bucket, key string) ([]byte, error) {
	loggerFrom(ctx).Debug().Str("bucket", bucket).Str("key", key).Msg("Reading object from S3")

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, fmt.Errorf("S3 GetObject: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("read object body: %w", err)
	}
	return data, nil
}

// PutObjectBytes writes data as a single object.
func PutObjectBytes(ctx context.Context, client ObjectPutter, bucket, key string, data []byte, opts PutOptions) error {
	input := &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
		Body:   bytes.NewReader(data),
	}
	if opts.ContentType != "" {
		input.ContentType = &opts.ContentType
	}
	if len(opts.Metadata) > 0 {
		input.Metadata = encodeMetadata(opts.Metadata)
	}
	input.Tagging = Tagging(opts.Tagging)

	if _, err := client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("S3 PutObject: %w", err)
	}

	loggerFrom(ctx).Debug().
		Str("bucket", bucket).
		Str("key", key).
		Int("size", len(data)).
		Msg("Object written to S3")
	return nil
}

// encodeMetadata returns a copy of metadata whose values are safe to send as
// x-amz-meta-* headers. S3 only accepts US-ASCII there; other values are
// RFC 2047 Q-encoded ("=?utf-8?q?...?="), which S3 stores and returns as is.
func encodeMetadata(metadata map[string]string) map[string]string {
	out := make(map[string]string, len(metadata))
	for k, v := range metadata {
		out[k] = mime.QEncoding.Encode("utf-8", v)
	}
	return out
}

// loggerFrom returns the request logger on ctx, or the global logger when
// the caller did not attach one.
func loggerFrom(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}

// IsNotFound reports whether err means the bucket or object does not exist.
func IsNotFound(err error) bool {
	var noKey *s3types.NoSuchKey
	var noBucket *s3types.NoSuchBucket
	var notFound *s3types.NotFound
	if errors.As(err, &noKey) || errors.As(err, &noBucket) || errors.As(err, &notFound) {
		return true
	}
	return hasErrorCode(err, "NoSuchKey", "NoSuchBucket", "NotFound")
}

// IsAccessDenied reports whether S3 refused the request on permissions.
func IsAccessDenied(err error) bool {
	return hasErrorCode(err, "AccessDenied", "AllAccessDisabled")
}

func hasErrorCode(err error, codes ...string) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, code := range codes {
		if apiErr.ErrorCode() == code {
			return true
		}
	}
	return false
}
