package loader

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/lineworks/linesampler/linepool"
)

const noCap = 1 << 30

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// drain empties the pool and returns its lines sorted.
func drain(p *linepool.Pool) []string {
	out := p.DrawRandom(p.Size())
	slices.Sort(out)
	return out
}

func TestLoadPlain(t *testing.T) {
	p := linepool.New()
	l := New(p, noCap, noCap)

	n, err := l.Load(write(t, "in.txt", "alpha\nbeta\ngamma\n"))
	assert.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, drain(p))
}

func TestLoadNoTrailingNewline(t *testing.T) {
	p := linepool.New()
	l := New(p, noCap, noCap)

	n, err := l.Load(write(t, "in.txt", "alpha\nbeta"))
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"alpha", "beta"}, drain(p))
}

func TestLoadCRLF(t *testing.T) {
	p := linepool.New()
	l := New(p, noCap, noCap)

	n, err := l.Load(write(t, "in.txt", "alpha\r\nbeta\r\r\ngamma\r"))
	assert.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, drain(p))
}

func TestLoadKeepsInteriorEmptyLines(t *testing.T) {
	p := linepool.New()
	l := New(p, noCap, noCap)

	// Two empties in the middle count; the trailing newline adds nothing.
	n, err := l.Load(write(t, "in.txt", "alpha\n\n\nbeta\n"))
	assert.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []string{"", "", "alpha", "beta"}, drain(p))
}

func TestLoadEmptyFile(t *testing.T) {
	p := linepool.New()
	l := New(p, noCap, noCap)

	n, err := l.Load(write(t, "in.txt", ""))
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, p.Size())
}

func TestLoadMissingFile(t *testing.T) {
	l := New(linepool.New(), noCap, noCap)

	_, err := l.Load(filepath.Join(t.TempDir(), "absent.txt"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoadDirectory(t *testing.T) {
	l := New(linepool.New(), noCap, noCap)

	_, err := l.Load(t.TempDir())
	assert.Error(t, err)
}

func TestLoadTooLarge(t *testing.T) {
	p := linepool.New()
	l := New(p, 4, noCap)

	_, err := l.Load(write(t, "in.txt", "hello\n"))
	var tooLarge *TooLargeError
	assert.True(t, errors.As(err, &tooLarge))
	assert.Equal(t, int64(6), tooLarge.Size)
	assert.Equal(t, 0, p.Size())
}

func TestLoadPartialFinalChunk(t *testing.T) {
	p := linepool.New()
	l := New(p, noCap, 5)

	// Eight lines into a pool capped at five: the lone chunk is truncated
	// silently, matching a file that just fits the remaining room.
	n, err := l.Load(write(t, "in.txt", "a\nb\nc\nd\ne\nf\ng\nh\n"))
	assert.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 5, p.Size())
}

func TestLoadFullPool(t *testing.T) {
	p := linepool.New()
	p.Append([]string{"x", "y", "z"})
	l := New(p, noCap, 3)

	n, err := l.Load(write(t, "in.txt", "a\nb\n"))
	assert.True(t, errors.Is(err, linepool.ErrPoolFull))
	assert.Equal(t, 0, n)
	assert.Equal(t, 3, p.Size())
}

func manyLines(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "line-%06d\n", i)
	}
	return b.String()
}

func TestLoadSpansChunks(t *testing.T) {
	p := linepool.New()
	l := New(p, noCap, noCap)

	n, err := l.Load(write(t, "big.txt", manyLines(chunkLines+137)))
	assert.NoError(t, err)
	assert.Equal(t, chunkLines+137, n)
	assert.Equal(t, chunkLines+137, p.Size())
}

func TestLoadAbortsWhenFullMidFile(t *testing.T) {
	p := linepool.New()
	l := New(p, noCap, chunkLines)

	// The first chunk fills the pool exactly; the second flush aborts, and
	// what the first chunk appended stays.
	n, err := l.Load(write(t, "big.txt", manyLines(2*chunkLines+10)))
	assert.True(t, errors.Is(err, linepool.ErrPoolFull))
	assert.Equal(t, chunkLines, n)
	assert.Equal(t, chunkLines, p.Size())
}

func TestLoadGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte("alpha\nbeta\n"))
	assert.NoError(t, err)
	assert.NoError(t, zw.Close())

	p := linepool.New()
	l := New(p, noCap, noCap)
	path := write(t, "in.txt.gz", buf.String())

	n, err := l.Load(path)
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"alpha", "beta"}, drain(p))
}

func TestLoadZstd(t *testing.T) {
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	assert.NoError(t, err)
	_, err = zw.Write([]byte("alpha\nbeta\n"))
	assert.NoError(t, err)
	assert.NoError(t, zw.Close())

	p := linepool.New()
	l := New(p, noCap, noCap)

	n, err := l.Load(write(t, "in.txt.zst", buf.String()))
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"alpha", "beta"}, drain(p))
}

func TestLoadXz(t *testing.T) {
	var buf bytes.Buffer
	xw, err := xz.NewWriter(&buf)
	assert.NoError(t, err)
	_, err = xw.Write([]byte("alpha\nbeta\n"))
	assert.NoError(t, err)
	assert.NoError(t, xw.Close())

	p := linepool.New()
	l := New(p, noCap, noCap)

	n, err := l.Load(write(t, "in.txt.xz", buf.String()))
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"alpha", "beta"}, drain(p))
}

// "alpha\nbeta\ngamma\n" compressed with bzip2; the standard library only
// decompresses, so the fixture is baked in.
const bz2Fixture = "425a683931415926535945ddc77a0000034180001032c644002000221a0c9a10030128bc4086906fc5dc914e1424117771de80"

func TestLoadBzip2(t *testing.T) {
	raw, err := hex.DecodeString(bz2Fixture)
	assert.NoError(t, err)

	p := linepool.New()
	l := New(p, noCap, noCap)

	n, err := l.Load(write(t, "in.txt.bz2", string(raw)))
	assert.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, drain(p))
}

func TestLoadCorruptGzip(t *testing.T) {
	l := New(linepool.New(), noCap, noCap)

	_, err := l.Load(write(t, "in.txt.gz", "this is not gzip"))
	assert.Error(t, err)
}
