package extract

import (
	"context"
	"fmt"
	"sort"

	lpdf "github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/bagaskar44/jasaraharja-camelot-converter/internal/tables"
)

const (
	FlavorLattice = "lattice"
	FlavorStream  = "stream"

	AllPages = "all"
)

// Options selects what an extractor reads from a document.
type Options struct {
	// Pages is "all" or a page range such as "1-3,5" or "4-end".
	Pages string
	// Flavor is FlavorLattice or FlavorStream.
	Flavor string
}

// Extractor finds tables in a PDF file. Tables come back in reading order:
// by page, then top to bottom.
type Extractor interface {
	Extract(ctx context.Context, path string, opts Options) ([]tables.RawTable, error)
}

// Settings tunes the native engine. Distances are in PDF points.
type Settings struct {
	// RowTolerance is how far apart two baselines may be on one line.
	RowTolerance float64
	// WordGap, in multiples of the font size, is the widest gap still joined
	// into one text fragment.
	WordGap float64
	// SnapTolerance merges ruling and column positions this close together.
	SnapTolerance float64
	// LineWidth is the thickest rectangle still read as a ruling line.
	LineWidth float64
	// ColumnShare is the fraction of lines that must start text at an x
	// position for it to become a stream column.
	ColumnShare float64
	MinRows     int
	MinCols     int
}

func DefaultSettings() Settings {
	return Settings{
		RowTolerance:  2,
		WordGap:       1,
		SnapTolerance: 3,
		LineWidth:     2,
		ColumnShare:   0.3,
		MinRows:       2,
		MinCols:       2,
	}
}

// Engine is the built-in extractor. It reads glyph positions and path edges
// with ledongthuc/pdf and rebuilds tables either from ruling lines (lattice)
// or from text alignment (stream).
type Engine struct {
	settings Settings
	logger   *zap.Logger
}

func NewEngine(settings Settings, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{settings: settings, logger: logger}
}

func (e *Engine) Extract(ctx context.Context, path string, opts Options) ([]tables.RawTable, error) {
	var find func(pageContent) []tables.RawTable
	switch opts.Flavor {
	case FlavorLattice:
		find = e.lattice
	case FlavorStream:
		find = e.stream
	default:
		return nil, fmt.Errorf("unknown extraction flavor %q", opts.Flavor)
	}

	pages, err := ResolvePages(path, opts.Pages)
	if err != nil {
		return nil, err
	}

	f, r, err := lpdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var out []tables.RawTable
	for _, n := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pc, err := readPage(r, n, e.settings)
		if err != nil {
			return nil, err
		}
		found := find(pc)
		for i := range found {
			found[i].Page = n
			found[i].Flavor = opts.Flavor
		}
		e.logger.Debug("page scanned",
			zap.Int("page", n),
			zap.String("flavor", opts.Flavor),
			zap.Int("fragments", len(pc.Fragments)),
			zap.Int("tables", len(found)))
		out = append(out, found...)
	}
	return out, nil
}

// readPage loads glyphs and painted borders of one page. The pdf reader panics
// on some malformed content streams, so that is turned into an error.
func readPage(r *lpdf.Reader, n int, s Settings) (pc pageContent, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("read page %d: %v", n, rec)
		}
	}()
	p := r.Page(n)
	if p.V.IsNull() {
		return pageContent{}, fmt.Errorf("page %d not found", n)
	}
	c := p.Content()

	pc.Number = n
	for _, t := range c.Text {
		pc.Glyphs = append(pc.Glyphs, glyph{S: t.S, X: t.X, Y: t.Y, W: t.W, Size: t.FontSize})
	}
	// Content reports re rectangles without the current transform and drops
	// stroked lines, so borders come from a separate pass over the stream.
	pc.Rects = collectPaths(p.V.Key("Contents"))
	pc.Fragments = buildFragments(pc.Glyphs, s)
	return pc, nil
}

// byPosition orders tables top to bottom, then left to right.
func byPosition(found []tables.RawTable, tops []box) {
	idx := make([]int, len(found))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ba, bb := tops[idx[a]], tops[idx[b]]
		if ba.Y1 != bb.Y1 {
			return ba.Y1 > bb.Y1
		}
		return ba.X0 < bb.X0
	})
	sorted := make([]tables.RawTable, len(found))
	for i, j := range idx {
		sorted[i] = found[j]
	}
	copy(found, sorted)
}
