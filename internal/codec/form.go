package codec

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"slices"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// defaultFileName matches what browsers send for anonymous blobs.
const defaultFileName = "blob"

// File is a binary form value.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// ReadFile reads r fully into a File.
func ReadFile(name string, r io.Reader) (File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return File{}, err
	}
	return File{Name: name, Data: data}, nil
}

// FormPart is a single multipart field. File is nil for text fields.
type FormPart struct {
	Name  string
	Value string
	File  *File
}

// Form is an ordered multipart/form-data container.
type Form struct {
	parts []FormPart
}

// Add appends a text field.
func (f *Form) Add(name, value string) {
	f.parts = append(f.parts, FormPart{Name: name, Value: value})
}

// AddFile appends a binary field.
func (f *Form) AddFile(name string, file File) {
	f.parts = append(f.parts, FormPart{Name: name, File: &file})
}

// Parts returns the fields in insertion order.
func (f *Form) Parts() []FormPart {
	return slices.Clone(f.parts)
}

// Values returns the text values stored under name.
func (f *Form) Values(name string) []string {
	var out []string
	for _, p := range f.parts {
		if p.Name == name && p.File == nil {
			out = append(out, p.Value)
		}
	}
	return out
}

// Encode writes the form as multipart/form-data and returns the content type
// carrying the generated boundary.
func (f *Form) Encode() (string, []byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, part := range f.parts {
		if part.File == nil {
			if err := w.WriteField(part.Name, part.Value); err != nil {
				return "", nil, err
			}
			continue
		}
		if err := writeFile(w, part.Name, part.File); err != nil {
			return "", nil, err
		}
	}
	if err := w.Close(); err != nil {
		return "", nil, err
	}
	return w.FormDataContentType(), buf.Bytes(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFile(w *multipart.Writer, name string, file *File) error {
	filename := file.Name
	if filename == "" {
		filename = defaultFileName
	}
	contentType := file.ContentType
	if contentType == "" {
		contentType = mimetype.Detect(file.Data).String()
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(name), quoteEscaper.Replace(filename)))
	h.Set("Content-Type", contentType)

	pw, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = pw.Write(file.Data)
	return err
}

// NewForm builds a form from the remaining payload. Array items come first,
// named by index, followed by the named fields.
func NewForm(p Payload) *Form {
	form := &Form{}
	for i, item := range p.Items {
		appendFormValue(form, strconv.Itoa(i), item)
	}
	for _, k := range p.keys {
		appendFormValue(form, k, p.values[k])
	}
	return form
}

func appendFormValue(form *Form, name string, v any) {
	if isNil(v) {
		return
	}
	switch t := v.(type) {
	case File:
		form.AddFile(name, t)
		return
	case *File:
		form.AddFile(name, *t)
		return
	case []byte:
		form.AddFile(name, File{Data: t})
		return
	case []File:
		for _, file := range t {
			form.AddFile(name, file)
		}
		return
	case []*File:
		for _, file := range t {
			if file != nil {
				form.AddFile(name, *file)
			}
		}
		return
	}
	form.Add(name, Stringify(v))
}
