package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/GS-Pro2025/movewise/internal/domain/model"
)

var (
	// ErrRemoteImage indicates an image that is not available locally.
	ErrRemoteImage = errors.New("image is not stored locally")
	// ErrOutsideUploadDir rejects local paths that do not resolve inside the upload directory.
	ErrOutsideUploadDir = errors.New("image is outside the upload directory")
)

const dataURIPrefix = "data:"

// Converter turns locally referenced images into transmittable forms. Local
// references are only honoured inside root, where uploads are staged.
type Converter struct {
	root   string
	logger *slog.Logger
}

// NewConverter constructs Converter serving local files under root. An empty
// root disables local files entirely.
func NewConverter(root string, logger *slog.Logger) *Converter {
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}
	return &Converter{root: root, logger: logger}
}

// IsLocal reports whether uri points at the local filesystem.
func IsLocal(uri string) bool {
	if uri == "" {
		return false
	}
	u, err := url.Parse(uri)
	if err != nil {
		return true
	}
	return u.Scheme == "" || u.Scheme == "file"
}

// localPath resolves uri to a file inside the upload root. Relative paths are
// taken relative to the root; symlinks are followed before the check.
func (c *Converter) localPath(uri string) (string, error) {
	raw := uri
	if u, err := url.Parse(uri); err == nil && u.Scheme != "" {
		if u.Scheme != "file" {
			return "", ErrRemoteImage
		}
		raw = u.Path
	}
	if c.root == "" {
		return "", ErrOutsideUploadDir
	}
	if !filepath.IsAbs(raw) {
		raw = filepath.Join(c.root, raw)
	}

	root, err := filepath.EvalSymlinks(c.root)
	if err != nil {
		return "", fmt.Errorf("resolve upload dir: %w", err)
	}
	clean := filepath.Clean(raw)
	resolved, err := filepath.EvalSymlinks(clean)
	if err != nil {
		if !within(root, clean) && !within(c.root, clean) {
			return "", ErrOutsideUploadDir
		}
		return "", fmt.Errorf("resolve image: %w", err)
	}
	if !within(root, resolved) {
		c.logger.Warn("local image outside upload dir rejected", slog.String("uri", uri))
		return "", ErrOutsideUploadDir
	}
	return resolved, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Probe fills in size and type metadata of a local or inline image.
// Remote images are returned unchanged.
func (c *Converter) Probe(img model.Image) (model.Image, error) {
	switch {
	case strings.HasPrefix(img.URI, dataURIPrefix):
		mimeType, data, err := decodeDataURI(img.URI)
		if err != nil {
			return img, err
		}
		img.FileSize = int64(len(data))
		if img.Type == "" {
			img.Type = mimeType
		}
		return img, nil
	case IsLocal(img.URI):
		path, err := c.localPath(img.URI)
		if err != nil {
			return img, err
		}
		info, err := os.Stat(path)
		if err != nil {
			return img, fmt.Errorf("probe image: %w", err)
		}
		if info.IsDir() {
			return img, fmt.Errorf("probe image: %s is a directory", path)
		}
		img.FileSize = info.Size()
		if img.Type == "" {
			if detected, err := mimetype.DetectFile(path); err == nil {
				img.Type = baseType(detected.String())
			}
		}
		if img.Name == "" {
			img.Name = filepath.Base(path)
		}
		return img, nil
	default:
		return img, nil
	}
}

// DataURI encodes a local image as data:<mime>;base64,<payload>.
// Inline and remote URIs are passed through untouched.
func (c *Converter) DataURI(img model.Image) (string, error) {
	if !IsLocal(img.URI) {
		return img.URI, nil
	}
	upload, err := c.Upload(img)
	if err != nil {
		return "", err
	}
	return dataURIPrefix + upload.Type + ";base64," + base64.StdEncoding.EncodeToString(upload.Data), nil
}

// Upload materializes image bytes for a multipart request.
func (c *Converter) Upload(img model.Image) (*model.Upload, error) {
	if strings.HasPrefix(img.URI, dataURIPrefix) {
		mimeType, data, err := decodeDataURI(img.URI)
		if err != nil {
			return nil, err
		}
		if img.Type != "" {
			mimeType = img.Type
		}
		return &model.Upload{Name: uploadName(img, mimeType), Type: mimeType, Data: data}, nil
	}

	path, err := c.localPath(img.URI)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	mimeType := img.Type
	if mimeType == "" {
		mimeType = baseType(mimetype.Detect(data).String())
	}
	if img.Name == "" {
		img.Name = filepath.Base(path)
	}
	c.logger.Debug("image materialized", slog.String("name", img.Name), slog.Int("bytes", len(data)))
	return &model.Upload{Name: uploadName(img, mimeType), Type: mimeType, Data: data}, nil
}

func decodeDataURI(uri string) (string, []byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, dataURIPrefix), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return "", nil, fmt.Errorf("malformed data uri")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data uri: %w", err)
	}
	mimeType := strings.TrimSuffix(header, ";base64")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return mimeType, data, nil
}

func baseType(full string) string {
	if mediaType, _, err := mime.ParseMediaType(full); err == nil {
		return mediaType
	}
	return full
}

func uploadName(img model.Image, mimeType string) string {
	if img.Name != "" {
		return img.Name
	}
	ext := ""
	if exts, _ := mime.ExtensionsByType(mimeType); len(exts) > 0 {
		ext = exts[0]
	}
	return "image" + ext
}
