package opfetch

import (
	"context"
	"net/http"
	"testing"
)

const testMethodFormat = "%s: expected %v, got %v"

func TestMethodValid(t *testing.T) {
	for _, m := range []Method{MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete, MethodHead, MethodOptions} {
		if !m.Valid() {
			t.Errorf("Expected %q to be valid", m)
		}
	}

	for _, m := range []Method{"", "GET", "trace", "connect"} {
		if m.Valid() {
			t.Errorf("Expected %q to be invalid", m)
		}
	}
}

func TestMethodSendsBody(t *testing.T) {
	tests := map[Method]bool{
		MethodGet:     false,
		MethodHead:    false,
		MethodOptions: false,
		MethodPost:    true,
		MethodPut:     true,
		MethodPatch:   true,
		MethodDelete:  true,
	}

	for m, expected := range tests {
		if got := m.SendsBody(); got != expected {
			t.Errorf(testMethodFormat, m, expected, got)
		}
	}
}

func TestMethodString(t *testing.T) {
	if MethodPatch.String() != http.MethodPatch {
		t.Errorf("Expected %s, got %s", http.MethodPatch, MethodPatch.String())
	}
	if MethodGet.String() != http.MethodGet {
		t.Errorf("Expected %s, got %s", http.MethodGet, MethodGet.String())
	}
}

func TestContentTypeValid(t *testing.T) {
	tests := map[ContentType]bool{
		ContentTypeNone:           true,
		ContentTypeJSON:           true,
		ContentTypeMultipart:      true,
		ContentTypeFormURLEncoded: true,
		"text/plain":              false,
	}

	for ct, expected := range tests {
		if got := ct.Valid(); got != expected {
			t.Errorf(testMethodFormat, ct, expected, got)
		}
	}
}

func TestContentTypeValues(t *testing.T) {
	if ContentTypeJSON != "application/json" {
		t.Errorf("Expected application/json, got %s", ContentTypeJSON)
	}
	if ContentTypeMultipart != "multipart/form-data" {
		t.Errorf("Expected multipart/form-data, got %s", ContentTypeMultipart)
	}
	if ContentTypeFormURLEncoded != "application/x-www-form-urlencoded" {
		t.Errorf("Expected application/x-www-form-urlencoded, got %s", ContentTypeFormURLEncoded)
	}
}

func TestTransportFunc(t *testing.T) {
	called := false
	transport := TransportFunc(func(ctx context.Context, url string, init Init) (*RawResponse, error) {
		called = true
		return &RawResponse{Status: http.StatusOK, URL: url}, nil
	})

	raw, err := transport.Fetch(context.Background(), "https://example.com", Init{})
	if err != nil {
		t.Fatalf("Fetch() returned error: %v", err)
	}
	if !called {
		t.Error("Expected the wrapped function to be called")
	}
	if raw.URL != "https://example.com" {
		t.Errorf("Expected URL https://example.com, got %s", raw.URL)
	}
}

func TestOperationFromContext(t *testing.T) {
	if _, ok := OperationFromContext(context.Background()); ok {
		t.Error("Expected no descriptor in a bare context")
	}

	d := NewDescriptor(MethodGet, "/pets/{petId}", ContentTypeNone)
	got, ok := OperationFromContext(withOperation(context.Background(), d))
	if !ok {
		t.Fatal("Expected descriptor in context")
	}
	if got.ID() != "GET /pets/{petId}" {
		t.Errorf("Expected GET /pets/{petId}, got %s", got.ID())
	}
}

func TestParamsHelpers(t *testing.T) {
	p := Params("petId", 1, "tags", []string{"a"})
	if p.Fields.Len() != 2 {
		t.Errorf("Expected 2 fields, got %d", p.Fields.Len())
	}

	arr := Array(1, 2, 3)
	if !arr.IsArray() {
		t.Error("Expected array payload")
	}
}
