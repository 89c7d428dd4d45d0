package upload

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vango-dev/counsel/internal/errors"
)

// MaxImageSize is the largest accepted profile image.
const MaxImageSize = 2 * 1024 * 1024

var (
	// ErrNotFound is returned when a staged file doesn't exist.
	ErrNotFound = errors.New("C110").WithDetail("staged file not found")

	// ErrTooLarge is returned when a file exceeds the size limit.
	ErrTooLarge = errors.New("C110").
			WithDetail("File size must be less than 2MB").
			WithSuggestion("Choose a smaller image")

	// ErrNotImage is returned when a file is not an image.
	ErrNotImage = errors.New("C110").
			WithDetail("Please select a valid image file").
			WithSuggestion("Choose a JPEG, PNG, GIF or WebP image")
)

// Store stages uploaded files until the page submits or discards them.
type Store interface {
	// Save stores the file and returns a temp ID.
	Save(filename string, contentType string, size int64, r io.Reader) (tempID string, err error)

	// Stat returns the metadata of a staged file without consuming it.
	Stat(tempID string) (*File, error)

	// Open returns a staged file with a Reader for previews.
	Open(tempID string) (*File, error)

	// Delete discards a staged file.
	Delete(tempID string) error

	// Cleanup removes staged files older than maxAge.
	Cleanup(maxAge time.Duration) error
}

// File is a staged file.
type File struct {
	ID          string
	Filename    string
	ContentType string
	Size        int64

	// Reader is set by Open.
	Reader io.ReadCloser
}

// Close closes the file reader if open.
func (f *File) Close() error {
	if f.Reader != nil {
		return f.Reader.Close()
	}
	return nil
}

// Config holds configuration for the upload handler.
type Config struct {
	// MaxFileSize is the maximum allowed file size in bytes.
	// Default: MaxImageSize.
	MaxFileSize int64

	// AllowedTypes restricts detected MIME types. A trailing "/*" matches
	// a whole family. Default: image/*.
	AllowedTypes []string

	// TempExpiry is how long staged files live before cleanup.
	// Default: 1 hour.
	TempExpiry time.Duration
}

// DefaultConfig returns the profile image configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxFileSize:  MaxImageSize,
		AllowedTypes: []string{"image/*"},
		TempExpiry:   time.Hour,
	}
}

func (c *Config) allowed(contentType string) bool {
	if len(c.AllowedTypes) == 0 {
		return true
	}
	for _, t := range c.AllowedTypes {
		if family, ok := strings.CutSuffix(t, "/*"); ok {
			if strings.HasPrefix(contentType, family+"/") {
				return true
			}
		} else if t == contentType {
			return true
		}
	}
	return false
}

// Check validates a selection by its detected type and size.
func (c *Config) Check(contentType string, size int64) error {
	maxSize := c.MaxFileSize
	if maxSize <= 0 {
		maxSize = MaxImageSize
	}
	if !c.allowed(contentType) {
		return ErrNotImage
	}
	if size > maxSize {
		return ErrTooLarge
	}
	return nil
}

// Detect sniffs the MIME type of the first bytes of a file.
func Detect(head []byte) string {
	ct := http.DetectContentType(head)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return ct
}

// Handler returns an http.Handler that stages a multipart "file" field.
// It responds with JSON:
//
//	{"temp_id": "...", "filename": "...", "size": 1234, "content_type": "image/png"}
func Handler(store Store, config *Config) http.Handler {
	if config == nil {
		config = DefaultConfig()
	}
	maxSize := config.MaxFileSize
	if maxSize <= 0 {
		maxSize = MaxImageSize
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		// Multipart framing adds a little overhead on top of the file.
		r.Body = http.MaxBytesReader(w, r.Body, maxSize+64*1024)
		if err := r.ParseMultipartForm(maxSize); err != nil {
			var tooLarge *http.MaxBytesError
			if stderrors.As(err, &tooLarge) {
				http.Error(w, ErrTooLarge.Detail, http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "Failed to parse form", http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "No file provided", http.StatusBadRequest)
			return
		}
		defer file.Close()

		head := make([]byte, 512)
		n, _ := io.ReadFull(file, head)
		contentType := Detect(head[:n])

		if err := config.Check(contentType, header.Size); err != nil {
			status := http.StatusUnsupportedMediaType
			if err == ErrTooLarge {
				status = http.StatusRequestEntityTooLarge
			}
			http.Error(w, err.(*errors.Error).Detail, status)
			return
		}

		if _, err := file.Seek(0, io.SeekStart); err != nil {
			http.Error(w, "Upload failed", http.StatusInternalServerError)
			return
		}
		tempID, err := store.Save(header.Filename, contentType, header.Size, file)
		if err != nil {
			if err == ErrTooLarge {
				http.Error(w, ErrTooLarge.Detail, http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "Upload failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"temp_id":      tempID,
			"filename":     header.Filename,
			"size":         header.Size,
			"content_type": contentType,
		})
	})
}

// Preview returns an http.Handler serving a staged file for the image
// preview. Mount it with an {id} URL parameter.
func Preview(store Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, err := store.Open(chi.URLParam(r, "id"))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer f.Close()

		w.Header().Set("Content-Type", f.ContentType)
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		io.Copy(w, f.Reader)
	})
}
