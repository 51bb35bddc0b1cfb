package thumbnail

import "encoding/json"

// Result status values.
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
)

// MissingBucketOrKey is the error text for a request without bucket or key.
const MissingBucketOrKey = "Missing bucket or key"

// Result is the object returned to every caller. Failures are reported here,
// never as a Lambda function error.
type Result struct {
	Status        string          `json:"status"`
	SourceBucket  string          `json:"source_bucket,omitempty"`
	SourceKey     string          `json:"source_key,omitempty"`
	ResizedBucket string          `json:"resized_bucket,omitempty"`
	ResizedKey    string          `json:"resized_key,omitempty"`
	Error         string          `json:"error,omitempty"`
	Received      json.RawMessage `json:"received,omitempty"`
}

func successResult(bucket, key, resizedBucket, resizedKey string) Result {
	return Result{
		Status:        StatusSuccess,
		SourceBucket:  bucket,
		SourceKey:     key,
		ResizedBucket: resizedBucket,
		ResizedKey:    resizedKey,
	}
}

func failResult(msg string) Result {
	return Result{Status: StatusFail, Error: msg}
}

// withReceived echoes the offending input back. An empty payload is echoed
// as null so the field stays valid JSON.
func (r Result) withReceived(received json.RawMessage) Result {
	if len(received) == 0 {
		received = json.RawMessage("null")
	}
	r.Received = received
	return r
}
