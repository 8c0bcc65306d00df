package apiclient

import (
	"bytes"
	"mime/multipart"
	"sort"
)

// MultipartForm is a request body with plain fields and file parts.
type MultipartForm struct {
	Fields map[string]string
	Files  []FormFile
}

// FormFile is one uploaded file.
type FormFile struct {
	Field    string
	Filename string
	Content  []byte
}

func (f *MultipartForm) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	names := make([]string, 0, len(f.Fields))
	for name := range f.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := w.WriteField(name, f.Fields[name]); err != nil {
			return nil, "", err
		}
	}

	for _, file := range f.Files {
		part, err := w.CreateFormFile(file.Field, file.Filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(file.Content); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
