package review

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/commitcraft/internal/redact"
)

// Reviewer produces a structured review for a diff.
type Reviewer interface {
	ReviewCode(ctx context.Context, diff string, kind Kind, customPrompt string) (*Result, error)
	Name() string
}

// Cache stores serialized review results by key.
type Cache interface {
	Get(key string) (string, bool)
	Put(key, value string) error
}

// Runner executes a single review attempt. No retries are made.
type Runner struct {
	Reviewer     Reviewer
	Cache        Cache
	Model        string
	CustomPrompt string
	Redact       bool
	// RedactPaths blanks whole file sections when Redact is set.
	RedactPaths []string
	Logger      *zap.Logger
}

// Run reviews diff. An empty diff yields an empty result without calling
// the reviewer.
func (r *Runner) Run(ctx context.Context, diff string, kind Kind) (*Result, error) {
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if r.Redact {
		diff = redact.Diff(diff, r.RedactPaths)
	}
	if strings.TrimSpace(diff) == "" {
		return &Result{Summary: "No changes to review.", Issues: []Issue{}, Suggestions: []string{}}, nil
	}

	key := cacheKey(r.Reviewer.Name(), r.Model, kind, r.CustomPrompt, diff)
	if r.Cache != nil {
		if cached, ok := r.Cache.Get(key); ok {
			var res Result
			if err := json.Unmarshal([]byte(cached), &res); err == nil {
				log.Debug("review cache hit", zap.String("target", kind.String()))
				return &res, nil
			}
		}
	}

	start := time.Now()
	res, err := r.Reviewer.ReviewCode(ctx, diff, kind, r.CustomPrompt)
	if err != nil {
		return nil, err
	}
	log.Debug("review completed",
		zap.String("provider", r.Reviewer.Name()),
		zap.String("target", kind.String()),
		zap.Int("issues", len(res.Issues)),
		zap.Duration("elapsed", time.Since(start)),
	)

	if r.Cache != nil {
		if data, err := json.Marshal(res); err == nil {
			if err := r.Cache.Put(key, string(data)); err != nil {
				log.Warn("failed to write review cache", zap.Error(err))
			}
		}
	}
	return res, nil
}

func cacheKey(provider, model string, kind Kind, customPrompt, diff string) string {
	return fmt.Sprintf("%s:%s:%s:%s:%s", provider, model, kind, customPrompt, diff)
}
