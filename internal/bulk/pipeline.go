// Package bulk renders certificates for a whole name list into one zip
// archive.
package bulk

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/zip"
	"golang.org/x/sync/errgroup"

	"github.com/youruser/certgen/internal/cert"
	imagepkg "github.com/youruser/certgen/internal/image"
	"github.com/youruser/certgen/internal/metrics"
	"github.com/youruser/certgen/internal/session"
)

var (
	ErrEmptyRun     = errors.New("no names to generate")
	ErrTooManyNames = errors.New("too many names for one run")
)

// Progress is told how many of total certificates are finished. It may be
// called from several goroutines at once.
type Progress func(done, total int)

// Result is the output of one run.
type Result struct {
	Archive []byte
	Entries []cert.Entry
	Records []cert.Record
}

// Pipeline renders entries with a bounded worker pool.
type Pipeline struct {
	Fonts    *imagepkg.FontResolver
	Workers  int
	MaxNames int
	Now      func() time.Time
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Prepare drops blank names and repeated (category, name) pairs, keeping
// first-seen order, and checks the run size.
func (p *Pipeline) Prepare(entries []cert.Entry) ([]cert.Entry, error) {
	out := make([]cert.Entry, 0, len(entries))
	seen := map[cert.Entry]bool{}
	for _, e := range entries {
		e.Name = strings.TrimSpace(e.Name)
		e.Category = strings.TrimSpace(e.Category)
		if e.Name == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	if len(out) == 0 {
		return nil, ErrEmptyRun
	}
	if p.MaxNames > 0 && len(out) > p.MaxNames {
		return nil, fmt.Errorf("%w: %d names, limit %d", ErrTooManyNames, len(out), p.MaxNames)
	}
	return out, nil
}

// Run renders every entry against snap and packs the PNGs into a zip, one
// file per entry at ArchivePath. It returns one record per entry.
func (p *Pipeline) Run(ctx context.Context, entries []cert.Entry, snap session.Snapshot, progress Progress) (Result, error) {
	if !snap.HasTemplate() {
		return Result{}, session.ErrNoTemplate
	}
	entries, err := p.Prepare(entries)
	if err != nil {
		return Result{}, err
	}

	total := len(entries)
	pngs := make([][]byte, total)
	var done atomic.Int64

	workers := p.Workers
	if workers <= 0 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, e := range entries {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			b, err := imagepkg.EncodePNG(imagepkg.Render(e.Name, snap.Template, snap.Config, p.Fonts))
			if err != nil {
				return fmt.Errorf("render %q: %w", e.Name, err)
			}
			metrics.ObserveRender(metrics.PathBulk, start)
			pngs[i] = b
			n := done.Add(1)
			if progress != nil {
				progress(int(n), total)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	now := p.now()
	archive, err := writeArchive(entries, pngs, now)
	if err != nil {
		return Result{}, err
	}
	records := make([]cert.Record, total)
	for i, e := range entries {
		records[i] = cert.NewRecord(e, snap.Event.Name, now)
	}
	return Result{Archive: archive, Entries: entries, Records: records}, nil
}

func writeArchive(entries []cert.Entry, pngs [][]byte, now time.Time) ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	used := map[string]int{}
	for i, e := range entries {
		name := ArchivePath(e)
		if n := used[name]; n > 0 {
			name = strings.TrimSuffix(name, ".png") + fmt.Sprintf(" (%d).png", n+1)
		}
		used[ArchivePath(e)]++

		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: now})
		if err != nil {
			return nil, fmt.Errorf("archive %s: %w", name, err)
		}
		if _, err := w.Write(pngs[i]); err != nil {
			return nil, fmt.Errorf("archive %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	return buf.Bytes(), nil
}

var pathCleaner = strings.NewReplacer("/", "_", "\\", "_", "\x00", "")

func cleanSegment(s, fallback string) string {
	s = strings.TrimSpace(pathCleaner.Replace(s))
	if s == "" || s == "." || s == ".." {
		return fallback
	}
	return s
}

// ArchivePath is "<category>/<name>.png" with path separators in either
// part replaced.
func ArchivePath(e cert.Entry) string {
	return cleanSegment(e.Category, "Uncategorized") + "/" + cleanSegment(e.Name, "_") + ".png"
}
