package codec

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeGetPathAndQuery(t *testing.T) {
	p := Params("id", 5, "tags", []string{"a", "b"})

	enc, err := Encode(Operation{Method: "get", Path: "/items/{id}"}, p)
	require.NoError(t, err)

	assert.Equal(t, "/items/5", enc.Path)
	assert.Equal(t, "?tags=a&tags=b", enc.Query)
	assert.Nil(t, enc.Body)
}

func TestEncodeDoesNotMutatePayload(t *testing.T) {
	p := Params("id", 1, "name", "x", "limit", 10)

	_, err := Encode(Operation{Method: "post", Path: "/things/{id}", Query: []string{"limit"}}, p)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name", "limit"}, p.Keys())
	v, ok := p.Get("id")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestEncodePathKeyNeverInQueryOrBody(t *testing.T) {
	for _, method := range []string{"get", "post", "put", "patch", "delete", "head", "options"} {
		t.Run(method, func(t *testing.T) {
			p := Params("id", "abc", "other", 1)
			enc, err := Encode(Operation{Method: method, Path: "/x/{id}", Query: []string{"id"}}, p)
			require.NoError(t, err)

			assert.Equal(t, "/x/abc", enc.Path)
			assert.NotContains(t, enc.Query, "id=")
			assert.NotContains(t, enc.Body.String(), `"id"`)
		})
	}
}

func TestEncodePathEscaping(t *testing.T) {
	p := Params("name", "a b/c?d&e", "v", "ü!*'()~")
	enc, err := Encode(Operation{Method: "get", Path: "/files/{name}/{v}"}, p)
	require.NoError(t, err)

	assert.Equal(t, "/files/a%20b%2Fc%3Fd%26e/%C3%BC!*'()~", enc.Path)
	assert.Empty(t, enc.Query)
}

func TestEncodeUnresolvedPlaceholderKept(t *testing.T) {
	enc, err := Encode(Operation{Method: "get", Path: "/a/{missing}/b/{}"}, Params("q", 1))
	require.NoError(t, err)

	assert.Equal(t, "/a/{missing}/b/{}", enc.Path)
	assert.Equal(t, "?q=1", enc.Query)
}

func TestEncodeBodyMethodUsesAllowlistOnly(t *testing.T) {
	p := Params("id", 7, "page", 2, "name", "widget", "extra", true)
	op := Operation{Method: "post", Path: "/items/{id}", Query: []string{"page", "absent"}}

	enc, err := Encode(op, p)
	require.NoError(t, err)

	assert.Equal(t, "/items/7", enc.Path)
	assert.Equal(t, "?page=2", enc.Query)
	require.NotNil(t, enc.Body)
	assert.JSONEq(t, `{"name":"widget","extra":true}`, string(enc.Body.Bytes()))
	assert.Equal(t, `{"name":"widget","extra":true}`, string(enc.Body.Bytes()))
}

func TestEncodeQuerySkipsNil(t *testing.T) {
	var missing *int
	p := Params("a", nil, "b", missing, "c", []any{"x", nil, "y"}, "d", 0)

	enc, err := Encode(Operation{Method: "get", Path: "/"}, p)
	require.NoError(t, err)

	assert.Equal(t, "?c=x&c=y&d=0", enc.Query)
}

func TestEncodeQueryEmptyWhenNoPairs(t *testing.T) {
	enc, err := Encode(Operation{Method: "get", Path: "/"}, Params("a", nil))
	require.NoError(t, err)
	assert.Equal(t, "", enc.Query)
}

func TestEncodeEmptyBodies(t *testing.T) {
	tests := []struct {
		method string
		body   *string
	}{
		{"delete", nil},
		{"post", ptr("{}")},
		{"put", ptr("{}")},
		{"patch", ptr("{}")},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			enc, err := Encode(Operation{Method: tt.method, Path: "/items/{id}"}, Params("id", 1))
			require.NoError(t, err)
			if tt.body == nil {
				assert.Nil(t, enc.Body)
				return
			}
			require.NotNil(t, enc.Body)
			assert.Equal(t, *tt.body, string(enc.Body.Bytes()))
		})
	}
}

func TestEncodeDeleteWithBody(t *testing.T) {
	enc, err := Encode(Operation{Method: "delete", Path: "/items"}, Params("ids", []int{1, 2}))
	require.NoError(t, err)
	require.NotNil(t, enc.Body)
	assert.Equal(t, `{"ids":[1,2]}`, string(enc.Body.Bytes()))
}

func TestEncodeArrayPayload(t *testing.T) {
	p := Array("a", "b").With("owner", "me").With("dry", true)
	op := Operation{Method: "put", Path: "/owners/{owner}/tags", Query: []string{"dry"}}

	enc, err := Encode(op, p)
	require.NoError(t, err)

	assert.Equal(t, "/owners/me/tags", enc.Path)
	assert.Equal(t, "?dry=true", enc.Query)
	assert.Equal(t, `["a","b"]`, string(enc.Body.Bytes()))
}

func TestEncodeMultipart(t *testing.T) {
	p := Params(
		"id", 3,
		"title", "report",
		"file", File{Name: "r.txt", Data: []byte("hello")},
		"skip", nil,
	)
	op := Operation{Method: "post", Path: "/uploads/{id}", ContentType: ContentTypeMultipart}

	enc, err := Encode(op, p)
	require.NoError(t, err)
	require.True(t, enc.Body.IsMultipart())

	parts := enc.Body.Form().Parts()
	require.Len(t, parts, 2)
	assert.Equal(t, "title", parts[0].Name)
	assert.Equal(t, "report", parts[0].Value)
	assert.Equal(t, "file", parts[1].Name)
	require.NotNil(t, parts[1].File)
	assert.Equal(t, "r.txt", parts[1].File.Name)

	contentType, raw, err := enc.Body.Form().Encode()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(contentType, "multipart/form-data; boundary="))
	assert.Contains(t, string(raw), `name="file"; filename="r.txt"`)
	assert.Contains(t, string(raw), "Content-Type: text/plain; charset=utf-8")
}

func TestEncodeFormURLEncodedStillJSON(t *testing.T) {
	op := Operation{Method: "post", Path: "/login", ContentType: ContentTypeFormURLEncoded}
	enc, err := Encode(op, Params("user", "u"))
	require.NoError(t, err)
	assert.Equal(t, `{"user":"u"}`, string(enc.Body.Bytes()))
}

func TestStringify(t *testing.T) {
	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	n := 42
	tests := []struct {
		in   any
		want string
	}{
		{"s", "s"},
		{true, "true"},
		{5, "5"},
		{uint8(9), "9"},
		{1.5, "1.5"},
		{float64(100), "100"},
		{when, "2024-03-01T12:00:00Z"},
		{&n, "42"},
		{[]int{1, 2}, "1,2"},
		{map[string]int{"a": 1}, `{"a":1}`},
		{nil, "null"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Stringify(tt.in), "%#v", tt.in)
	}
}

func ptr(s string) *string { return &s }
