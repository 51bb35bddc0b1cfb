package s3util

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
	"testing"
	"unicode"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"
)

type fakeClient struct {
	body    []byte
	getErr  error
	putErr  error
	lastGet *s3.GetObjectInput
	lastPut *s3.PutObjectInput
	putBody []byte
}

func (f *fakeClient) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.lastGet = in
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(f.body))}, nil
}

func (f *fakeClient) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.lastPut = in
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.putBody = data
	return &s3.PutObjectOutput{}, nil
}

func TestGetObjectBytes(t *testing.T) {
	client := &fakeClient{body: []byte("image-bytes")}

	data, err := GetObjectBytes(context.Background(), client, "src", "photo.png")
	if err != nil {
		t.Fatalf("GetObjectBytes() error = %v", err)
	}
	if string(data) != "image-bytes" {
		t.Errorf("data = %q, want image-bytes", data)
	}
	if *client.lastGet.Bucket != "src" || *client.lastGet.Key != "photo.png" {
		t.Errorf("GetObject called with %s/%s", *client.lastGet.Bucket, *client.lastGet.Key)
	}
}

func TestGetObjectBytes_NotFound(t *testing.T) {
	client := &fakeClient{getErr: &s3types.NoSuchKey{}}

	_, err := GetObjectBytes(context.Background(), client, "src", "missing.png")
	if err == nil {
		t.Fatal("expected error for missing object")
	}
	if !IsNotFound(err) {
		t.Errorf("IsNotFound(%v) = false, want true", err)
	}
}

func TestPutObjectBytes(t *testing.T) {
	client := &fakeClient{}

	err := PutObjectBytes(context.Background(), client, "dst", "resized-photo.png", []byte("jpeg"), PutOptions{
		ContentType: "image/jpeg",
		Metadata:    map[string]string{"source-key": "photo.png"},
		Tagging:     "Project=thumbnails",
	})
	if err != nil {
		t.Fatalf("PutObjectBytes() error = %v", err)
	}

	in := client.lastPut
	if *in.Bucket != "dst" || *in.Key != "resized-photo.png" {
		t.Errorf("PutObject called with %s/%s", *in.Bucket, *in.Key)
	}
	if in.ContentType == nil || *in.ContentType != "image/jpeg" {
		t.Errorf("ContentType = %v, want image/jpeg", in.ContentType)
	}
	if in.Metadata["source-key"] != "photo.png" {
		t.Errorf("Metadata = %v", in.Metadata)
	}
	if in.Tagging == nil || *in.Tagging != "Project=thumbnails" {
		t.Errorf("Tagging = %v, want Project=thumbnails", in.Tagging)
	}
	if string(client.putBody) != "jpeg" {
		t.Errorf("body = %q, want jpeg", client.putBody)
	}
}

func TestPutObjectBytes_NoTagging(t *testing.T) {
	client := &fakeClient{}

	if err := PutObjectBytes(context.Background(), client, "dst", "k", []byte("x"), PutOptions{}); err != nil {
		t.Fatalf("PutObjectBytes() error = %v", err)
	}
	if client.lastPut.Tagging != nil {
		t.Errorf("Tagging = %q, want nil", *client.lastPut.Tagging)
	}
	if client.lastPut.Metadata != nil {
		t.Errorf("Metadata = %v, want nil", client.lastPut.Metadata)
	}
}

func TestPutObjectBytes_Error(t *testing.T) {
	client := &fakeClient{putErr: &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"}}

	err := PutObjectBytes(context.Background(), client, "dst", "k", []byte("x"), PutOptions{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsAccessDenied(err) {
		t.Errorf("IsAccessDenied(%v) = false, want true", err)
	}
	if IsNotFound(err) {
		t.Errorf("IsNotFound(%v) = true, want false", err)
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"no such key", &s3types.NoSuchKey{}, true},
		{"no such bucket", fmt.Errorf("wrapped: %w", &s3types.NoSuchBucket{}), true},
		{"head not found", &s3types.NotFound{}, true},
		{"generic code", &smithy.GenericAPIError{Code: "NoSuchKey"}, true},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.want {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateTagging(t *testing.T) {
	tests := []struct {
		tags    string
		wantErr bool
	}{
		{"", false},
		{"Project=thumbnails", false},
		{"Project=thumbnails&Env=prod", false},
		{"=nokey", true},
		{"a=1&a=2", true},
		{"a=%zz", true},
		{"t1=1&t2=2&t3=3&t4=4&t5=5&t6=6&t7=7&t8=8&t9=9&t10=10&t11=11", true},
	}

	for _, tt := range tests {
		err := ValidateTagging(tt.tags)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateTagging(%q) error = %v, wantErr %v", tt.tags, err, tt.wantErr)
		}
	}
}

func TestPutObjectBytes_NonASCIIMetadata(t *testing.T) {
	client := &fakeClient{}
	opts := PutOptions{Metadata: map[string]string{
		"source-key":    "фото/照片.png",
		"source-bucket": "src",
		"camera-model":  "Café X100",
	}}

	if err := PutObjectBytes(context.Background(), client, "dst", "resized-фото/照片.png", []byte("x"), opts); err != nil {
		t.Fatalf("PutObjectBytes() error = %v", err)
	}

	var dec mime.WordDecoder
	for k, sent := range client.lastPut.Metadata {
		for _, r := range sent {
			if r > unicode.MaxASCII {
				t.Errorf("metadata %s = %q, want US-ASCII only", k, sent)
				break
			}
		}
		got, err := dec.DecodeHeader(sent)
		if err != nil {
			t.Fatalf("DecodeHeader(%q) error = %v", sent, err)
		}
		if got != opts.Metadata[k] {
			t.Errorf("metadata %s decodes to %q, want %q", k, got, opts.Metadata[k])
		}
	}
	if client.lastPut.Metadata["source-bucket"] != "src" {
		t.Errorf("ASCII value changed to %q", client.lastPut.Metadata["source-bucket"])
	}
	if opts.Metadata["source-key"] != "фото/照片.png" {
		t.Error("caller's metadata map was modified")
	}
}

func TestObjectLogsUseRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := zerolog.New(&buf).Level(zerolog.DebugLevel).With().Str("requestId", "req-7").Logger().WithContext(context.Background())
	client := &fakeClient{body: []byte("data")}

	if _, err := GetObjectBytes(ctx, client, "src", "a.png"); err != nil {
		t.Fatalf("GetObjectBytes() error = %v", err)
	}
	if err := PutObjectBytes(ctx, client, "dst", "b.jpg", []byte("x"), PutOptions{}); err != nil {
		t.Fatalf("PutObjectBytes() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d log lines, want 2: %s", len(lines), buf.String())
	}
	for _, line := range lines {
		if !strings.Contains(line, `"requestId":"req-7"`) {
			t.Errorf("log line without requestId: %s", line)
		}
	}
}
