package thumbnail

import (
	"errors"
	"fmt"

	"github.com/fpang/image-thumbnail-lambda/internal/s3util"
)

// ErrorKind identifies the step at which an invocation failed.
type ErrorKind int

const (
	// KindInputParse indicates an HTTP body that is not valid JSON.
	KindInputParse ErrorKind = iota
	// KindValidation indicates a missing or empty bucket or key.
	KindValidation
	// KindStorageRead indicates the source object could not be read.
	KindStorageRead
	// KindDecode indicates the source bytes are not a supported image.
	KindDecode
	// KindEncode indicates the thumbnail could not be encoded as JPEG.
	KindEncode
	// KindStorageWrite indicates the thumbnail could not be written.
	KindStorageWrite
)

var errMissingBucketOrKey = errors.New(MissingBucketOrKey)

// Outcomes that refine the storage kinds when S3 reports why it failed.
const (
	OutcomeStorageNotFound = "storage_not_found"
	OutcomeStorageDenied   = "storage_denied"
)

// String returns the metric outcome name for k.
func (k ErrorKind) String() string {
	switch k {
	case KindInputParse, KindValidation:
		return "input_error"
	case KindStorageRead:
		return "storage_read"
	case KindDecode:
		return "decode"
	case KindEncode:
		return "encode"
	case KindStorageWrite:
		return "storage_write"
	default:
		return "unknown"
	}
}

// Error is a failed thumbnail step. Only its message reaches the caller.
type Error struct {
	Kind   ErrorKind
	Bucket string
	Key    string
	Err    error
}

func (e *Error) Error() string {
	var op string
	switch e.Kind {
	case KindStorageRead:
		op = "read"
	case KindDecode:
		op = "decode"
	case KindEncode:
		op = "encode"
	case KindStorageWrite:
		op = "write"
	default:
		return e.Err.Error()
	}
	return fmt.Sprintf("%s s3://%s/%s: %v", op, e.Bucket, e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// outcomeOf returns the EMF Outcome for a failed invocation. Storage failures
// that S3 classifies as missing or forbidden get their own outcome.
func outcomeOf(err error) string {
	var thumbErr *Error
	if !errors.As(err, &thumbErr) {
		return "unknown"
	}
	if thumbErr.Kind == KindStorageRead || thumbErr.Kind == KindStorageWrite {
		switch {
		case s3util.IsNotFound(thumbErr.Err):
			return OutcomeStorageNotFound
		case s3util.IsAccessDenied(thumbErr.Err):
			return OutcomeStorageDenied
		}
	}
	return thumbErr.Kind.String()
}
