// Package form decodes multipart and urlencoded request bodies into the
// field and file maps consumed by dispatch. Decoding is best-effort:
// malformed bodies never fail a request, they simply yield empty maps.
package form

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
)

// maxMemory bounds the in-memory portion of a parsed multipart form.
const maxMemory = 32 << 20

// File describes one uploaded file part.
type File struct {
	// Filename is the client-supplied file name.
	Filename string

	// ContentType is the part's Content-Type header, if any.
	ContentType string

	// Size is the length of Data in bytes.
	Size int64

	// Data is the file content.
	Data []byte
}

// Decode extracts form fields and files from a POST/PUT request whose body
// has already been read into body. multipart/form-data yields both maps;
// application/x-www-form-urlencoded yields fields only. Field values are a
// string, or []string when the field was repeated; file values follow the
// same shape with *File. Any decode error returns empty maps.
func Decode(r *http.Request, body []byte) (fields map[string]any, files map[string]any) {
	fields = map[string]any{}
	files = map[string]any{}

	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		return fields, files
	}

	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return fields, files
	}

	switch mediaType {
	case "multipart/form-data":
		boundary := params["boundary"]
		if boundary == "" {
			return fields, files
		}
		f, err := multipart.NewReader(bytes.NewReader(body), boundary).ReadForm(maxMemory)
		if err != nil {
			return fields, files
		}
		defer func() { _ = f.RemoveAll() }()

		for name, values := range f.Value {
			fields[name] = collapseStrings(values)
		}
		for name, headers := range f.File {
			parts := make([]*File, 0, len(headers))
			for _, fh := range headers {
				file, err := readFilePart(fh)
				if err != nil {
					continue
				}
				parts = append(parts, file)
			}
			if len(parts) == 1 {
				files[name] = parts[0]
			} else if len(parts) > 1 {
				files[name] = parts
			}
		}

	case "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return map[string]any{}, files
		}
		for name, vs := range values {
			fields[name] = collapseStrings(vs)
		}
	}

	return fields, files
}

// collapseStrings flattens a single-element slice to its scalar value.
func collapseStrings(values []string) any {
	if len(values) == 1 {
		return values[0]
	}
	return values
}

func readFilePart(fh *multipart.FileHeader) (*File, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &File{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        int64(len(data)),
		Data:        data,
	}, nil
}
