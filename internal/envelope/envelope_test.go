package envelope

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestResolve_Kinds(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantKind   Kind
		wantBucket string
		wantKey    string
	}{
		{
			name:       "http body string",
			raw:        `{"body":"{\"bucket\":\"src\",\"key\":\"photo.png\"}"}`,
			wantKind:   KindHTTP,
			wantBucket: "src",
			wantKey:    "photo.png",
		},
		{
			name:       "orchestrator input",
			raw:        `{"Input":{"bucket":"src","key":"a/b.jpg"}}`,
			wantKind:   KindOrchestrator,
			wantBucket: "src",
			wantKey:    "a/b.jpg",
		},
		{
			name:       "direct",
			raw:        `{"bucket":"src","key":"photo.png"}`,
			wantKind:   KindDirect,
			wantBucket: "src",
			wantKey:    "photo.png",
		},
		{
			name:       "body wins over input",
			raw:        `{"body":"{\"bucket\":\"b1\",\"key\":\"k1\"}","Input":{"bucket":"b2","key":"k2"}}`,
			wantKind:   KindHTTP,
			wantBucket: "b1",
			wantKey:    "k1",
		},
		{
			name:       "object body falls through to input",
			raw:        `{"body":{"bucket":"b1","key":"k1"},"Input":{"bucket":"b2","key":"k2"}}`,
			wantKind:   KindOrchestrator,
			wantBucket: "b2",
			wantKey:    "k2",
		},
		{
			name:       "null body falls through to direct",
			raw:        `{"body":null,"bucket":"src","key":"photo.png"}`,
			wantKind:   KindDirect,
			wantBucket: "src",
			wantKey:    "photo.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := Resolve(json.RawMessage(tt.raw))
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if env.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", env.Kind, tt.wantKind)
			}
			req, ok := env.Request()
			if !ok {
				t.Fatalf("Request() ok = false, want true (payload %s)", env.Payload())
			}
			if req.Bucket != tt.wantBucket || req.Key != tt.wantKey {
				t.Errorf("Request() = %+v, want bucket=%q key=%q", req, tt.wantBucket, tt.wantKey)
			}
		})
	}
}

func TestResolve_InvalidBody(t *testing.T) {
	raw := `{"body":"{bad json"}`

	env, err := Resolve(json.RawMessage(raw))
	if err == nil {
		t.Fatal("expected parse error, got nil")
	}

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if !strings.HasPrefix(err.Error(), "Invalid JSON body: ") {
		t.Errorf("error = %q, want Invalid JSON body prefix", err.Error())
	}
	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Errorf("expected wrapped *json.SyntaxError, got %v", parseErr.Err)
	}
	if env.Kind != KindHTTP {
		t.Errorf("Kind = %v, want %v", env.Kind, KindHTTP)
	}
	if string(env.Raw()) != raw {
		t.Errorf("Raw() = %s, want %s", env.Raw(), raw)
	}
}

func TestRequest_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing key", `{"bucket":"src"}`},
		{"missing bucket", `{"key":"photo.png"}`},
		{"empty bucket", `{"bucket":"","key":"photo.png"}`},
		{"empty key", `{"bucket":"src","key":""}`},
		{"null key", `{"bucket":"src","key":null}`},
		{"numeric bucket", `{"bucket":7,"key":"photo.png"}`},
		{"empty object", `{}`},
		{"http missing key", `{"body":"{\"bucket\":\"src\"}"}`},
		{"http array body", `{"body":"[1,2]"}`},
		{"orchestrator missing bucket", `{"Input":{"key":"photo.png"}}`},
		{"orchestrator null input", `{"Input":null}`},
		{"non-object event", `"photo.png"`},
		{"empty event", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := Resolve(json.RawMessage(tt.raw))
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if req, ok := env.Request(); ok {
				t.Errorf("Request() = %+v, want invalid", req)
			}
		})
	}
}

func TestPayload_Orchestrator(t *testing.T) {
	env, err := Resolve(json.RawMessage(`{"Input":{"key":"photo.png"},"other":1}`))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := string(env.Payload()); got != `{"key":"photo.png"}` {
		t.Errorf("Payload() = %s, want the Input object", got)
	}
}

func TestKindString(t *testing.T) {
	if KindHTTP.String() != "http" || KindOrchestrator.String() != "orchestrator" || KindDirect.String() != "direct" {
		t.Errorf("unexpected kind names: %s %s %s", KindHTTP, KindOrchestrator, KindDirect)
	}
}
