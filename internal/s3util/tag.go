package s3util

import (
	"fmt"
	"net/url"
)

// Tagging returns tags as a PutObjectInput.Tagging value, or nil when no
// tags are configured.
func Tagging(tags string) *string {
	if tags == "" {
		return nil
	}
	return &tags
}

// ValidateTagging checks that tags is a URL-encoded tag set S3 will accept:
// "key=value" pairs joined by "&", at most 10 tags, unique keys.
func ValidateTagging(tags string) error {
	if tags == "" {
		return nil
	}
	values, err := url.ParseQuery(tags)
	if err != nil {
		return fmt.Errorf("parse tagging %q: %w", tags, err)
	}
	if len(values) > 10 {
		return fmt.Errorf("tagging has %d tags, S3 allows at most 10", len(values))
	}
	for k, v := range values {
		if k == "" {
			return fmt.Errorf("tagging %q has an empty key", tags)
		}
		if len(v) > 1 {
			return fmt.Errorf("tagging repeats key %q", k)
		}
	}
	return nil
}
