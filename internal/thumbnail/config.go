package thumbnail

import (
	"fmt"

	"github.com/fpang/image-thumbnail-lambda/internal/imaging"
	"github.com/fpang/image-thumbnail-lambda/internal/s3util"
)

// DefaultKeyPrefix is prepended to the source key to name the thumbnail.
const DefaultKeyPrefix = "resized-"

// Config is fixed at cold start and shared read-only by every invocation.
type Config struct {
	// DestinationBucket receives thumbnails. Empty means the source bucket.
	DestinationBucket string
	MaxDimension      int
	JPEGQuality       int
	KeyPrefix         string
	// Tagging is an optional URL-encoded S3 tag set applied to thumbnails.
	Tagging string
}

// DefaultConfig returns a 128px, quality 75, "resized-" configuration that
// writes back to the source bucket.
func DefaultConfig() Config {
	return Config{
		MaxDimension: imaging.DefaultMaxDimension,
		JPEGQuality:  imaging.DefaultJPEGQuality,
		KeyPrefix:    DefaultKeyPrefix,
	}
}

// Validate reports configuration the handler cannot run with.
func (c Config) Validate() error {
	if c.MaxDimension < 1 {
		return fmt.Errorf("max dimension must be positive, got %d", c.MaxDimension)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("JPEG quality must be between 1 and 100, got %d", c.JPEGQuality)
	}
	if err := s3util.ValidateTagging(c.Tagging); err != nil {
		return err
	}
	return nil
}

// DestinationFor returns the bucket a thumbnail of an object in sourceBucket
// is written to.
func (c Config) DestinationFor(sourceBucket string) string {
	if c.DestinationBucket != "" {
		return c.DestinationBucket
	}
	return sourceBucket
}

// ResizedKey names the thumbnail of key. The prefix is concatenated as is,
// so "a/b.png" becomes "resized-a/b.png".
func ResizedKey(prefix, key string) string {
	return prefix + key
}
