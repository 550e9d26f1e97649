// Package stat reads filesystem metadata and a content hash for one file.
package stat

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/djherbis/times"

	"github.com/feichai0017/metadata-extractor/internal/models"
)

const chunkSize = 4096

var hashers = map[string]func() hash.Hash{
	"md5":    md5.New,
	"sha1":   sha1.New,
	"sha256": sha256.New,
}

// Info is the result of a successful stat.
type Info struct {
	Name      string
	Path      string
	Directory string
	Extension string
	Size      int64
	Created   time.Time
	Modified  time.Time
	Accessed  time.Time
	Mode      os.FileMode

	HashAlgorithm string
	// Hash is the hex digest, or "Error: <message>" when the content could
	// not be read.
	Hash string
}

// SizeMB is the size in MiB rounded to two decimals.
func (i Info) SizeMB() float64 {
	return math.Round(float64(i.Size)/(1024*1024)*100) / 100
}

// Permissions renders the permission bits as three octal digits.
func (i Info) Permissions() string {
	return fmt.Sprintf("%03o", i.Mode.Perm())
}

// Prober stats files and hashes their content.
type Prober struct {
	algorithm string
	newHash   func() hash.Hash
}

// New returns a Prober hashing with algorithm (md5, sha1 or sha256).
func New(algorithm string) (*Prober, error) {
	algorithm = strings.ToLower(strings.TrimSpace(algorithm))
	if algorithm == "" {
		algorithm = "md5"
	}
	newHash, ok := hashers[algorithm]
	if !ok {
		return nil, fmt.Errorf("unsupported hash algorithm: %s", algorithm)
	}
	return &Prober{algorithm: algorithm, newHash: newHash}, nil
}

// Algorithm returns the configured hash algorithm.
func (p *Prober) Algorithm() string { return p.algorithm }

// Stat returns the filesystem metadata of path. Errors from stat itself are
// returned; a failure while hashing is folded into Info.Hash.
func (p *Prober) Stat(ctx context.Context, path string) (Info, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Info{}, err
	}

	ts, err := times.Stat(abs)
	if err != nil {
		return Info{}, err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return Info{}, err
	}

	info := Info{
		Name:          fi.Name(),
		Path:          abs,
		Directory:     filepath.Dir(abs),
		Extension:     models.FileExtension(fi.Name()),
		Size:          fi.Size(),
		Modified:      ts.ModTime(),
		Accessed:      ts.AccessTime(),
		Mode:          fi.Mode(),
		HashAlgorithm: p.algorithm,
	}

	switch {
	case ts.HasBirthTime():
		info.Created = ts.BirthTime()
	case ts.HasChangeTime():
		info.Created = ts.ChangeTime()
	default:
		info.Created = ts.ModTime()
	}

	sum, err := p.hashFile(ctx, abs)
	if err != nil {
		info.Hash = "Error: " + err.Error()
	} else {
		info.Hash = sum
	}
	return info, nil
}

func (p *Prober) hashFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := p.newHash()
	buf := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FormatTimestamp renders t in local time as ISO-8601 without a zone.
// Microseconds are included only when non-zero.
func FormatTimestamp(t time.Time) string {
	t = t.Local()
	if t.Nanosecond()/1000 != 0 {
		return t.Format("2006-01-02T15:04:05.000000")
	}
	return t.Format("2006-01-02T15:04:05")
}
