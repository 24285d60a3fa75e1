package httpapi

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"
)

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/")
}

// formFile reads the "file" part of a multipart upload bounded by maxBytes.
func formFile(w http.ResponseWriter, r *http.Request, maxBytes int64) (multipart.File, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return nil, "", domain.MissingField("file")
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		return nil, "", domain.MissingField("file")
	}
	return f, hdr.Filename, nil
}
