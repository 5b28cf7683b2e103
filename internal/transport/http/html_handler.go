package http

import (
	"bytes"
	"embed"
	"encoding/base64"
	"errors"
	"html/template"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	apierrors "studentpulse/internal/errors"
	"studentpulse/internal/services"
	"studentpulse/pkg/contracts/domain"
)

// PageTitle heads every dashboard page
const PageTitle = "Student Performance Analyzer"

// maxMemory is the part of a multipart form kept in memory; the rest
// spills to temporary files
const maxMemory = 8 << 20

// multipartOverhead allows for boundaries and part headers around the file
const multipartOverhead = 1 << 20

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"pngURL": func(png []byte) template.URL {
		return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
	},
}

// parsePages parses the embedded page templates. Each page is named after
// its file.
func parsePages() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
}

// renderPage executes a page into a buffer and writes it with the given
// status. A template error becomes a plain 500.
func renderPage(w http.ResponseWriter, pages *template.Template, name string, status int, data interface{}) error {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// readUpload parses a multipart form and returns its "file" part. The
// caller closes the file and removes the form.
func readUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) (multipart.File, *multipart.FileHeader, error) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	}

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, apierrors.PayloadTooLarge(maxBytes)
		}
		return nil, nil, apierrors.InvalidRequestWithError(err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
		return nil, nil, apierrors.ErrValidation("file", "file is required")
	}
	return file, header, nil
}

// writeDownload sends a file as an attachment
func writeDownload(w http.ResponseWriter, dl domain.Download) error {
	w.Header().Set("Content-Type", dl.MIMEType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.FileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(dl.Data)))
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(dl.Data)
	return err
}

// mapServiceError converts service sentinels into API errors
func mapServiceError(err error) error {
	if errors.Is(err, services.ErrSessionNotFound) {
		return apierrors.ErrSessionNotFound
	}
	return err
}

func acceptedExtensions() string {
	return strings.Join(domain.SupportedExtensions, ",")
}
