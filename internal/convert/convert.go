// Package convert runs one PDF to workbook conversion: spool the upload,
// extract, normalize, merge and serialize.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bagaskar44/jasaraharja-camelot-converter/internal/extract"
	"github.com/bagaskar44/jasaraharja-camelot-converter/internal/tables"
	"github.com/bagaskar44/jasaraharja-camelot-converter/internal/workbook"
)

var (
	ErrNoTablesFound = errors.New("no tables found in the PDF")
	ErrNoInput       = errors.New("no PDF uploaded")
)

type Converter struct {
	extractor extract.Extractor
	merge     tables.MergeOptions
	tempDir   string
	logger    *zap.Logger
}

type Option func(*Converter)

func WithLogger(l *zap.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithMergeOptions(o tables.MergeOptions) Option {
	return func(c *Converter) { c.merge = o }
}

// WithTempDir sets where uploads are spooled; empty means os.TempDir.
func WithTempDir(dir string) Option {
	return func(c *Converter) { c.tempDir = dir }
}

func New(ex extract.Extractor, opts ...Option) *Converter {
	c := &Converter{extractor: ex, logger: zap.NewNop()}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Converter) Convert(ctx context.Context, req Request) (*Response, error) {
	if req.PDF == nil {
		return nil, ErrNoInput
	}
	mode := req.Mode
	if mode == "" {
		mode = ModeBordered
	}
	pages := strings.TrimSpace(req.Pages)
	if pages == "" {
		pages = extract.AllPages
	}
	start := time.Now()
	log := c.logger.With(zap.String("mode", mode.Flavor()), zap.String("pages", pages))

	path, err := c.spool(req.PDF)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("failed to remove temp file", zap.String("path", path), zap.Error(err))
		}
	}()

	raw, err := c.extractor.Extract(ctx, path, extract.Options{Pages: pages, Flavor: mode.Flavor()})
	if err != nil {
		log.Error("extraction failed", zap.Error(err))
		return nil, fmt.Errorf("extract tables: %w", err)
	}
	if len(raw) == 0 {
		log.Info("no tables found")
		return nil, ErrNoTablesFound
	}
	log.Info("tables extracted", zap.Int("tables", len(raw)))

	previews := make([]Preview, len(raw))
	normalized := make([]*tables.NormalizedTable, len(raw))
	for i, t := range raw {
		previews[i] = Preview{
			Index:      i,
			Page:       t.Page,
			Rows:       t.NumRows(),
			Columns:    t.NumCols(),
			Confidence: t.Confidence,
			Flavor:     t.Flavor,
			Grid:       t.Rows,
		}
		n, err := tables.Normalize(t, i)
		if err != nil {
			return nil, err
		}
		normalized[i] = n
	}

	combined, err := tables.Merge(normalized, c.merge)
	if err != nil {
		log.Warn("merge failed", zap.Error(err))
		return nil, err
	}

	var buf bytes.Buffer
	if err := workbook.Write(&buf, combined); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	name := workbook.FileName(req.OutputName)
	log.Info("conversion finished",
		zap.String("file", name),
		zap.Int("rows", len(combined.Rows)),
		zap.Int("columns", len(combined.Header)),
		zap.Duration("took", time.Since(start)))

	return &Response{
		Tables:   previews,
		Combined: combined,
		Workbook: buf.Bytes(),
		FileName: name,
		MIMEType: workbook.MIMEType,
	}, nil
}

// spool copies the upload to a temp file the engine can open by path.
func (c *Converter) spool(r io.Reader) (string, error) {
	f, err := os.CreateTemp(c.tempDir, "*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("save upload: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("save upload: %w", err)
	}
	return f.Name(), nil
}
