package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/access-cli/internal/fetcher"
	"github.com/sells-group/access-cli/internal/geo"
)

// File is an uploaded or locally read input.
type File struct {
	Name string
	Data []byte
}

// BoundarySource resolves boundary collections.
type BoundarySource interface {
	Fetch(ctx context.Context) (*geo.Collection, error)
	FromBytes(name string, data []byte) (*geo.Collection, error)
}

type loaded struct {
	population *fetcher.Table
	facilities *fetcher.Table
	boundary   *geo.Collection
}

// load parses both tables and resolves the boundary collection
// concurrently. The first failure cancels the rest.
func (p *Pipeline) load(ctx context.Context, in Input) (*loaded, error) {
	var out loaded
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t, err := readTable(gCtx, in.Population)
		out.population = t
		return err
	})
	g.Go(func() error {
		t, err := readTable(gCtx, in.Facilities)
		out.facilities = t
		return err
	})

	if !in.SkipBoundary {
		g.Go(func() error {
			c, err := p.loadBoundary(gCtx, in.Boundary)
			out.boundary = c
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

func readTable(ctx context.Context, f File) (*fetcher.Table, error) {
	t, err := fetcher.ReadTable(ctx, f.Name, f.Data)
	if err != nil {
		return nil, eris.Wrapf(ErrUnreadable, "%s: %v", f.Name, err)
	}
	zap.L().Debug("pipeline: table loaded",
		zap.String("file", f.Name),
		zap.String("format", string(t.Format)),
		zap.String("encoding", t.Encoding),
		zap.Int("rows", len(t.Rows)),
	)
	return t, nil
}

func (p *Pipeline) loadBoundary(ctx context.Context, upload *File) (*geo.Collection, error) {
	if p.boundaries == nil {
		return nil, nil
	}
	if upload != nil {
		c, err := p.boundaries.FromBytes(upload.Name, upload.Data)
		if err != nil {
			return nil, eris.Wrapf(ErrUnreadable, "%s: %v", upload.Name, err)
		}
		return c, nil
	}
	c, err := p.boundaries.Fetch(ctx)
	if err != nil {
		return nil, eris.Wrapf(ErrBoundaryFetch, "%v", err)
	}
	return c, nil
}
