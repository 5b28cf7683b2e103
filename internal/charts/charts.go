package charts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"studentpulse/pkg/contracts/domain"
)

// Default canvas size in pixels
const (
	DefaultWidth  = 800
	DefaultHeight = 500
)

// Warning is returned when a chart cannot be drawn from the dataset.
// It is never fatal.
type Warning struct {
	Chart   domain.ChartKind
	Message string
}

func (w *Warning) Error() string {
	return w.Message
}

// NewMissingColumnWarning reports a chart that needs a column the dataset
// does not have
func NewMissingColumnWarning(kind domain.ChartKind, column, analysis string) *Warning {
	return &Warning{
		Chart:   kind,
		Message: fmt.Sprintf("Column '%s' not found for %s analysis.", column, analysis),
	}
}

// AsWarning reports whether err is a chart warning
func AsWarning(err error) (*Warning, bool) {
	var w *Warning
	if errors.As(err, &w) {
		return w, true
	}
	return nil, false
}

// Renderer draws the dashboard charts
type Renderer struct {
	logger *slog.Logger
	width  int
	height int
}

// NewRenderer creates a renderer with the default canvas size
func NewRenderer(logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		logger: logger.With(slog.String("component", "charts")),
		width:  DefaultWidth,
		height: DefaultHeight,
	}
}

// WithSize returns a copy of the renderer drawing on a w x h canvas
func (r *Renderer) WithSize(w, h int) *Renderer {
	cp := *r
	cp.width, cp.height = w, h
	return &cp
}

// Render draws a single chart. Notes about series left out of an otherwise
// drawn chart are logged; RenderAll reports them as warnings.
func (r *Renderer) Render(ctx context.Context, ds domain.Dataset, kind domain.ChartKind) (domain.ChartImage, error) {
	img, notes, err := r.draw(ctx, ds, kind)
	for _, n := range notes {
		r.logger.WarnContext(ctx, "Chart series skipped",
			slog.String("chart", string(n.Chart)),
			slog.String("reason", n.Message))
	}
	return img, err
}

func (r *Renderer) draw(ctx context.Context, ds domain.Dataset, kind domain.ChartKind) (domain.ChartImage, []*Warning, error) {
	if err := ctx.Err(); err != nil {
		return domain.ChartImage{}, nil, err
	}

	var (
		buf   bytes.Buffer
		title string
		notes []*Warning
		err   error
	)
	switch kind {
	case domain.ChartAverageBar:
		title = AverageBarTitle
		notes, err = r.averageBar(ds, &buf)
	case domain.ChartCorrelationHeatmap:
		title = HeatmapTitle
		err = r.heatmap(ds, &buf)
	case domain.ChartPassFailPie:
		title = PassFailTitle
		err = r.passFailPie(ds, &buf)
	default:
		return domain.ChartImage{}, nil, fmt.Errorf("unknown chart kind %q", kind)
	}
	if err != nil {
		return domain.ChartImage{}, notes, err
	}

	return domain.ChartImage{Kind: kind, Title: title, PNG: buf.Bytes()}, notes, nil
}

// RenderAll draws the selected charts concurrently. Images and warnings
// come back in display order. Only rendering failures are returned as
// errors.
func (r *Renderer) RenderAll(ctx context.Context, ds domain.Dataset, opts domain.ChartOptions) ([]domain.ChartImage, []domain.Warning, error) {
	kinds := opts.Kinds()
	images := make([]*domain.ChartImage, len(kinds))
	warnings := make([][]*Warning, len(kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		i, kind := i, kind
		g.Go(func() error {
			img, notes, err := r.draw(gctx, ds, kind)
			if w, ok := AsWarning(err); ok {
				warnings[i] = append(notes, w)
				return nil
			}
			if err != nil {
				return fmt.Errorf("render %s chart: %w", kind, err)
			}
			images[i] = &img
			warnings[i] = notes
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var (
		outImages   []domain.ChartImage
		outWarnings []domain.Warning
	)
	for i := range kinds {
		if images[i] != nil {
			outImages = append(outImages, *images[i])
		}
		for _, w := range warnings[i] {
			r.logger.WarnContext(ctx, "Chart skipped",
				slog.String("chart", string(w.Chart)),
				slog.String("reason", w.Message))
			outWarnings = append(outWarnings, domain.Warning{Source: string(w.Chart), Message: w.Message})
		}
	}

	r.logger.DebugContext(ctx, "Charts rendered",
		slog.Int("requested", len(kinds)),
		slog.Int("rendered", len(outImages)),
		slog.Int("warnings", len(outWarnings)))
	return outImages, outWarnings, nil
}
