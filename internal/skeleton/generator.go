// Package skeleton turns a query into an ordered outline of independent points.
package skeleton

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ShayCichocki/sot/internal/completion"
	"github.com/ShayCichocki/sot/pkg/models"
)

// Generator issues one decomposition request per query and parses the outline.
type Generator struct {
	client completion.Client
	params completion.Params
	logger *zap.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger used for parse diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// New creates a Generator that calls client with params.
func New(client completion.Client, params completion.Params, opts ...Option) *Generator {
	g := &Generator{
		client: client,
		params: params,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Prompt builds the decomposition prompt for query.
func Prompt(query string) string {
	return fmt.Sprintf(skeletonPrompt, query)
}

// Generate returns the skeleton for query. It makes exactly one completion call.
// Any failure, including a backend error on that call, is a *DecompositionError.
func (g *Generator) Generate(ctx context.Context, query string) (models.Skeleton, error) {
	resp, err := g.client.Complete(ctx, Prompt(query), g.params)
	if err != nil {
		return nil, &DecompositionError{Err: completion.Classify(err)}
	}

	points := ParsePoints(resp.Text)
	if len(points) == 0 {
		g.logger.Warn("skeleton response had no numbered points", zap.Int("chars", len(resp.Text)))
		return nil, &DecompositionError{Raw: resp.Text}
	}

	skel, renumbered := Renumber(points)
	if renumbered {
		g.logger.Debug("renumbered skeleton points",
			zap.Ints("raw_indices", rawIndices(points)),
			zap.Int("points", len(skel)))
	}
	return skel, nil
}

func rawIndices(points []models.Point) []int {
	out := make([]int, len(points))
	for i, p := range points {
		out[i] = p.Index
	}
	return out
}
