package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/2beens/pfctracker/internal/telemetry/tracing"
	"github.com/2beens/pfctracker/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrImageNotFound   = errors.New("image not found")
	ErrUnsupportedType = errors.New("unsupported image type")
)

const imageIdLength = 16

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// DiskApi keeps meal photos in a single flat directory. The image id doubles
// as the file name, extension included, so no extra structure file is needed.
type DiskApi struct {
	rootPath string
	mutex    sync.Mutex

	// newId is swappable in tests
	newId func() (string, error)
}

func NewDiskApi(rootPath string) (*DiskApi, error) {
	if rootPath == "" {
		return nil, errors.New("root path cannot be empty")
	}

	exists, err := pkg.PathExists(rootPath, true)
	if err != nil {
		return nil, fmt.Errorf("check images root path: %w", err)
	}
	if !exists {
		if err := os.MkdirAll(rootPath, 0o755); err != nil {
			return nil, fmt.Errorf("create images root path: %w", err)
		}
		log.Debugf("images disk api: root dir created: %s", rootPath)
	}

	return &DiskApi{
		rootPath: rootPath,
		newId: func() (string, error) {
			return pkg.GenerateRandomString(imageIdLength)
		},
	}, nil
}

// Save writes the uploaded image to disk and returns its id
func (da *DiskApi) Save(ctx context.Context, filename string, file io.Reader) (_ string, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "images.diskApi.save")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}

	randomId, err := da.newId()
	if err != nil {
		return "", fmt.Errorf("generate image id: %w", err)
	}
	id := randomId + ext

	span.SetAttributes(attribute.String("image.id", id))

	da.mutex.Lock()
	defer da.mutex.Unlock()

	imagePath := path.Join(da.rootPath, id)
	if _, err := os.Stat(imagePath); err == nil {
		return "", fmt.Errorf("image already exists: %s", imagePath)
	}

	dst, err := os.Create(imagePath)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", fmt.Errorf("write image file: %w", err)
	}

	log.Debugf("images disk api: saved [%s] as [%s]", filename, id)

	return id, nil
}

// Open returns the stored image for reading, the caller closes it
func (da *DiskApi) Open(ctx context.Context, id string) (_ *os.File, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "images.diskApi.open")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	// ids are generated server side, anything with path separators is foul play
	if strings.Contains(id, "..") || strings.ContainsAny(id, "/\\") {
		return nil, ErrImageNotFound
	}

	file, err := os.Open(path.Join(da.rootPath, id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrImageNotFound
		}
		return nil, fmt.Errorf("open image file: %w", err)
	}

	return file, nil
}
