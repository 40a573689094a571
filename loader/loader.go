// Package loader reads text files from disk into the line pool. Files are
// streamed line by line and appended in chunks, so memory stays bounded by
// the chunk size plus whatever the pool itself holds.
package loader

import (
	"bufio"
	"compress/bzip2"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	log "github.com/sirupsen/logrus"
	"github.com/ulikunitz/xz"

	"github.com/lineworks/linesampler/linepool"
)

// Lines buffered before each pool append. One lock acquisition per chunk.
const chunkLines = 50_000

// TooLargeError reports a file rejected on its on-disk size before any line
// was read. Size and Limit are bytes.
type TooLargeError struct {
	Path  string
	Size  int64
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("%s is too large: %.1fMB, limit %dMB",
		e.Path, float64(e.Size)/(1<<20), e.Limit/(1<<20))
}

// Loader appends file contents to a pool, enforcing the file size cap and
// the pool line cap.
type Loader struct {
	pool     *linepool.Pool
	maxBytes int64
	maxLines int
}

func New(pool *linepool.Pool, maxBytes int64, maxLines int) *Loader {
	return &Loader{
		pool:     pool,
		maxBytes: maxBytes,
		maxLines: maxLines,
	}
}

// Load streams the file at path into the pool and returns how many lines it
// appended. Lines are split on "\n"; the newline and any trailing "\r"s are
// stripped, so CRLF files load cleanly and interior empty lines survive. A
// final line without a newline still counts; a trailing newline does not
// produce a phantom empty line.
//
// Files ending in .gz, .zst, .xz, or .bz2 are decompressed on the fly. The
// size cap applies to the on-disk size, compressed or not.
//
// A pool at its line cap aborts the load with linepool.ErrPoolFull in the
// error chain. Chunks appended before the abort stay in the pool; there is
// no rollback. Stat and open failures come back wrapped, so callers can pick
// out fs.ErrNotExist and fs.ErrPermission with errors.Is.
func (l *Loader) Load(path string) (int, error) {
	st, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat: %w", err)
	}
	if st.Size() > l.maxBytes {
		return 0, &TooLargeError{Path: path, Size: st.Size(), Limit: l.maxBytes}
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	src, closeSrc, err := decompressed(f, path)
	if err != nil {
		return 0, fmt.Errorf("decompress %s: %w", path, err)
	}
	if closeSrc != nil {
		defer closeSrc()
	}

	appended := 0
	chunk := make([]string, 0, chunkLines)
	r := bufio.NewReaderSize(src, 256<<10)
	for {
		line, err := r.ReadString('\n')
		if len(line) > 0 || err == nil {
			line = strings.TrimSuffix(line, "\n")
			line = strings.TrimRight(line, "\r")
			chunk = append(chunk, line)
			if len(chunk) == chunkLines {
				n, ferr := l.pool.AppendLimited(chunk, l.maxLines)
				appended += n
				if ferr != nil {
					return appended, fmt.Errorf("append: %w", ferr)
				}
				chunk = chunk[:0]
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return appended, fmt.Errorf("read %s: %w", path, err)
		}
	}
	if len(chunk) > 0 {
		n, ferr := l.pool.AppendLimited(chunk, l.maxLines)
		appended += n
		if ferr != nil {
			return appended, fmt.Errorf("append: %w", ferr)
		}
	}

	log.Infof("loader: loaded %d lines from %s, cache now %d", appended, path, l.pool.Size())
	return appended, nil
}

// decompressed wraps f according to the path's extension. The returned close
// function tears down the decompressor only; the caller still owns f. It is
// nil when there is nothing to tear down.
func decompressed(f *os.File, path string) (io.Reader, func() error, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() error { zr.Close(); return nil }, nil
	case ".xz":
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, nil, err
		}
		return xr, nil, nil
	case ".bz2":
		return bzip2.NewReader(f), nil, nil
	default:
		return f, nil, nil
	}
}
