// Package media reads audio and video container metadata with ffprobe.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/feichai0017/metadata-extractor/internal/models"
)

// Runner executes ffprobe and returns its standard output.
type Runner func(ctx context.Context, bin string, args ...string) ([]byte, error)

// Probe is the content probe shared by audio and video files.
type Probe struct {
	bin     string
	timeout time.Duration
	run     Runner
}

type Option func(*Probe)

// WithFFprobePath sets the ffprobe binary. Empty keeps the default.
func WithFFprobePath(bin string) Option {
	return func(p *Probe) {
		if bin != "" {
			p.bin = bin
		}
	}
}

// WithTimeout bounds one ffprobe invocation. Zero disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(p *Probe) {
		p.timeout = d
	}
}

// WithRunner replaces process execution, mainly for tests.
func WithRunner(run Runner) Option {
	return func(p *Probe) {
		if run != nil {
			p.run = run
		}
	}
}

func NewProbe(opts ...Option) *Probe {
	p := &Probe{
		bin:     "ffprobe",
		timeout: 60 * time.Second,
		run:     execRunner,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Probe) Name() string { return "media" }

func (p *Probe) Namespace() models.Namespace { return models.NamespaceMedia }

func (p *Probe) Probe(ctx context.Context, path string) (models.ProbeOutput, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	out, err := p.run(ctx, p.bin,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("ffprobe timed out after %s", p.timeout)
		}
		return nil, fmt.Errorf("ffprobe %q: %w", path, err)
	}
	return ParseJSON(out)
}

func execRunner(ctx context.Context, bin string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Streams []map[string]any `json:"streams"`
	Format  map[string]any   `json:"format"`
}

// ParseJSON flattens ffprobe JSON into namespaced fields. The format section
// becomes the "general" track and each stream a track named after its
// codec_type; repeated types are numbered from 2 (audio, audio_2, ...).
// Exported for testing without a real ffprobe binary.
func ParseJSON(data []byte) (models.ProbeOutput, error) {
	var raw ffprobeOutput
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}
	if len(raw.Format) == 0 && len(raw.Streams) == 0 {
		return nil, errors.New("no media information found")
	}

	var out models.ProbeOutput
	if len(raw.Format) > 0 {
		flatten(&out, models.NamespaceGeneral, "", raw.Format)
	}

	seen := make(map[string]int)
	for _, stream := range raw.Streams {
		kind, _ := stream["codec_type"].(string)
		if kind == "" {
			kind = "unknown"
		}
		seen[kind]++
		name := kind
		if n := seen[kind]; n > 1 {
			name = fmt.Sprintf("%s_%d", kind, n)
		}
		flatten(&out, models.NewNamespace(name), "", stream)
	}
	return out, nil
}

// flatten writes m in key order. Nested objects are joined with "_", arrays
// and empty values are skipped.
func flatten(out *models.ProbeOutput, ns models.Namespace, prefix string, m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		name := prefix + k
		switch v := m[k].(type) {
		case nil, []any:
		case map[string]any:
			flatten(out, ns, name+"_", v)
		case string:
			if v != "" {
				out.Add(ns, name, v)
			}
		case json.Number:
			out.Add(ns, name, numberValue(v))
		default:
			out.Add(ns, name, v)
		}
	}
}

func numberValue(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
