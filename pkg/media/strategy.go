package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	MiB = 1 << 20

	// DefaultChunkSize is the size of every append segment but the last.
	DefaultChunkSize = 5 * MiB
)

// Kind is what an extension maps to.
type Kind struct {
	MIME     string
	Category Category
}

var extensions = map[string]Kind{
	".jpg":  {"image/jpeg", CategoryImage},
	".jpeg": {"image/jpeg", CategoryImage},
	".png":  {"image/png", CategoryImage},
	".webp": {"image/webp", CategoryImage},
	".bmp":  {"image/bmp", CategoryImage},
	".tif":  {"image/tiff", CategoryImage},
	".tiff": {"image/tiff", CategoryImage},
	".gif":  {"image/gif", CategoryGif},
	".mp4":  {"video/mp4", CategoryVideo},
	".m4v":  {"video/mp4", CategoryVideo},
	".mov":  {"video/quicktime", CategoryVideo},
	".webm": {"video/webm", CategoryVideo},
}

var ceilings = map[Category]int64{
	CategoryImage: 5 * MiB,
	CategoryGif:   15 * MiB,
	CategoryVideo: 512 * MiB,
}

// Ceiling returns the largest accepted size for the category.
func Ceiling(c Category) int64 {
	return ceilings[c]
}

// KindOf maps a file name to its MIME type and category by extension.
func KindOf(path string) (Kind, error) {
	ext := strings.ToLower(filepath.Ext(path))
	k, ok := extensions[ext]
	if !ok {
		if ext == "" {
			return Kind{}, fmt.Errorf("%w: %s has no extension", ErrUnsupportedType, filepath.Base(path))
		}
		return Kind{}, fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
	return k, nil
}

// StrategyFor returns how a file of this category is transferred.
func StrategyFor(c Category) Strategy {
	if c == CategoryImage {
		return StrategyOneShot
	}
	return StrategyChunked
}

// Plan is the pre-flight decision for one file.
type Plan struct {
	Path     string
	Kind     Kind
	Size     int64
	Strategy Strategy
}

// Segments is the number of append calls a chunked plan needs. A
// non-positive chunkSize means DefaultChunkSize.
func (p Plan) Segments(chunkSize int64) int {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if p.Strategy != StrategyChunked || p.Size == 0 {
		return 0
	}
	return int((p.Size + chunkSize - 1) / chunkSize)
}

// Inspect validates a file's type and size without touching the network.
func Inspect(path string) (Plan, error) {
	kind, err := KindOf(path)
	if err != nil {
		return Plan{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return Plan{}, fmt.Errorf("stat media file: %w", err)
	}
	if info.IsDir() {
		return Plan{}, fmt.Errorf("%s is a directory", path)
	}

	size := info.Size()
	if limit := Ceiling(kind.Category); size > limit {
		return Plan{}, fmt.Errorf("%w: %s is %s, %s limit is %s",
			ErrFileTooLarge, filepath.Base(path),
			humanize.IBytes(uint64(size)), kind.Category, humanize.IBytes(uint64(limit)))
	}

	return Plan{Path: path, Kind: kind, Size: size, Strategy: StrategyFor(kind.Category)}, nil
}
