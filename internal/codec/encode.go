package codec

import (
	"strings"
)

// Request body content types understood by the encoder.
const (
	ContentTypeJSON           = "application/json"
	ContentTypeMultipart      = "multipart/form-data"
	ContentTypeFormURLEncoded = "application/x-www-form-urlencoded"
)

// Body is an encoded request body: either raw bytes or a multipart form.
type Body struct {
	raw  []byte
	form *Form
}

// NewRawBody wraps already encoded bytes.
func NewRawBody(b []byte) *Body {
	return &Body{raw: b}
}

// NewFormBody wraps a multipart form.
func NewFormBody(f *Form) *Body {
	return &Body{form: f}
}

// Bytes returns the raw body, or nil for multipart bodies.
func (b *Body) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.raw
}

// Form returns the multipart form, or nil for raw bodies.
func (b *Body) Form() *Form {
	if b == nil {
		return nil
	}
	return b.form
}

// IsMultipart reports whether the body is a multipart form.
func (b *Body) IsMultipart() bool {
	return b != nil && b.form != nil
}

func (b *Body) String() string {
	switch {
	case b == nil:
		return ""
	case b.form != nil:
		return "[multipart form]"
	}
	return string(b.raw)
}

// Operation is the part of an endpoint description the encoder needs.
type Operation struct {
	Method      string
	Path        string
	ContentType string
	// Query names parameters sent in the query string even when the method
	// carries a body.
	Query []string
}

// Encoded is the result of encoding one payload.
type Encoded struct {
	Path  string
	Query string
	Body  *Body
}

// SendsBody reports whether method carries a request body.
func SendsBody(method string) bool {
	switch strings.ToLower(method) {
	case "post", "put", "patch", "delete":
		return true
	}
	return false
}

// Encode resolves path placeholders, the query string and the body for p.
// p is not modified. Under a body method, keys that are neither path
// placeholders nor listed in op.Query end up in the body.
func Encode(op Operation, p Payload) (Encoded, error) {
	work := p.Clone()

	path := resolvePath(op.Path, &work)
	query := resolveQuery(op, &work)
	body, err := resolveBody(op, work)
	if err != nil {
		return Encoded{}, err
	}
	return Encoded{Path: path, Query: query, Body: body}, nil
}

// resolvePath substitutes {name} tokens left to right and consumes their
// keys. Tokens without a matching key are kept verbatim.
func resolvePath(template string, p *Payload) string {
	var b strings.Builder
	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			break
		}
		end := strings.IndexByte(rest[open+1:], '}')
		if end < 0 {
			break
		}
		end += open + 1
		name := rest[open+1 : end]

		b.WriteString(rest[:open])
		if v, ok := p.Get(name); ok && name != "" {
			b.WriteString(EscapeComponent(Stringify(v)))
			p.Delete(name)
		} else {
			b.WriteString(rest[open : end+1])
		}
		rest = rest[end+1:]
	}
	b.WriteString(rest)
	return b.String()
}

func resolveQuery(op Operation, p *Payload) string {
	if !SendsBody(op.Method) {
		return QueryString(p.Fields)
	}

	var q Fields
	for _, name := range op.Query {
		v, ok := p.Get(name)
		if !ok {
			continue
		}
		q.Set(name, v)
		p.Delete(name)
	}
	return QueryString(q)
}

// QueryString serializes f as "?k=v&..." in key order. Nil values are
// skipped and slices produce one pair per non-nil element.
func QueryString(f Fields) string {
	pairs := make([]string, 0, f.Len())
	add := func(key string, v any) {
		pairs = append(pairs, EscapeComponent(key)+"="+EscapeComponent(Stringify(v)))
	}

	for _, k := range f.keys {
		v := f.values[k]
		if isNil(v) {
			continue
		}
		if items, ok := expand(v); ok {
			for _, item := range items {
				if !isNil(item) {
					add(k, item)
				}
			}
			continue
		}
		add(k, v)
	}

	if len(pairs) == 0 {
		return ""
	}
	return "?" + strings.Join(pairs, "&")
}

func resolveBody(op Operation, p Payload) (*Body, error) {
	if !SendsBody(op.Method) {
		return nil, nil
	}
	if op.ContentType == ContentTypeMultipart {
		return NewFormBody(NewForm(p)), nil
	}

	raw, err := p.MarshalJSON()
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(op.Method, "delete") && string(raw) == "{}" {
		return nil, nil
	}
	return NewRawBody(raw), nil
}
