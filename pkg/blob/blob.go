// Package blob stores uploaded files under a flat, entity-prefixed path namespace.
package blob

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidDataURL = errors.New("invalid base64 image")
	ErrNotFound       = errors.New("blob not found")
	ErrEmptyPayload   = errors.New("empty file")
)

// Store is implemented by the local filesystem and GCS drivers.
type Store interface {
	Put(ctx context.Context, name string, data []byte, contentType string) error
	Get(ctx context.Context, name string) ([]byte, error)
	Delete(ctx context.Context, name string) error
	URL(name string) string
}

var dataURLPattern = regexp.MustCompile(`^data:image/([a-zA-Z0-9.+-]+);base64,`)

var allowedImageExt = map[string]string{
	"jpeg": "jpg",
	"jpg":  "jpg",
	"png":  "png",
	"gif":  "gif",
	"webp": "webp",
}

// Image is a decoded upload ready to be written.
type Image struct {
	Data        []byte
	Ext         string
	ContentType string
}

// DecodeDataURL parses "data:image/<type>;base64,<payload>".
func DecodeDataURL(s string) (*Image, error) {
	m := dataURLPattern.FindStringSubmatch(s)
	if m == nil {
		return nil, ErrInvalidDataURL
	}
	subtype := strings.ToLower(m[1])
	ext, ok := allowedImageExt[subtype]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported type %s", ErrInvalidDataURL, subtype)
	}
	data, err := base64.StdEncoding.DecodeString(s[len(m[0]):])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	return &Image{Data: data, Ext: ext, ContentType: "image/" + subtype}, nil
}

// ImageFromFile accepts a multipart upload by its file name extension.
func ImageFromFile(filename string, data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	subtype := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	ext, ok := allowedImageExt[subtype]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported file %s", ErrInvalidDataURL, filename)
	}
	ct := "image/" + subtype
	if ext == "jpg" {
		ct = "image/jpeg"
	}
	return &Image{Data: data, Ext: ext, ContentType: ct}, nil
}

// NewName builds "<dir>/<prefix>_<uuid>_<unix>.<ext>".
func NewName(dir, prefix, ext string, now time.Time) string {
	return path.Join(dir, fmt.Sprintf("%s_%s_%d.%s", prefix, strings.ReplaceAll(uuid.NewString(), "-", ""), now.Unix(), ext))
}

// SaveImage writes img under dir and returns the stored relative path.
func SaveImage(ctx context.Context, s Store, dir, prefix string, img *Image) (string, error) {
	name := NewName(dir, prefix, img.Ext, time.Now())
	if err := s.Put(ctx, name, img.Data, img.ContentType); err != nil {
		return "", err
	}
	return name, nil
}

// PublicURL renders a stored path; absolute URLs pass through untouched.
func PublicURL(s Store, name string) string {
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		return name
	}
	return s.URL(name)
}

func cleanName(name string) (string, error) {
	c := path.Clean("/" + name)[1:]
	if c == "" || strings.HasPrefix(c, "..") {
		return "", fmt.Errorf("invalid blob name %q", name)
	}
	return c, nil
}

// StoredPath reverses PublicURL for references the store rendered itself; anything else
// is returned unchanged.
func StoredPath(s Store, ref string) string {
	if prefix := s.URL(""); prefix != "" && strings.HasPrefix(ref, prefix) {
		return strings.TrimPrefix(ref, prefix)
	}
	return ref
}

// SaveRefs stores every data URL in refs under dir and keeps other references as stored
// paths. On failure the blobs written so far are removed.
func SaveRefs(ctx context.Context, s Store, dir, prefix string, refs []string) ([]string, error) {
	out := make([]string, 0, len(refs))
	var written []string
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		if !strings.HasPrefix(ref, "data:") {
			out = append(out, StoredPath(s, ref))
			continue
		}
		img, err := DecodeDataURL(ref)
		if err == nil {
			var name string
			if name, err = SaveImage(ctx, s, dir, prefix, img); err == nil {
				written = append(written, name)
				out = append(out, name)
				continue
			}
		}
		for _, name := range written {
			_ = s.Delete(context.WithoutCancel(ctx), name)
		}
		return nil, err
	}
	return out, nil
}
