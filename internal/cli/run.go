package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/unkn0wn-root/gqlcache"
)

const defaultGenTTL = 30 * 24 * time.Hour

type output struct {
	Run       int               `json:"run"`
	Source    string            `json:"source"`
	LatencyMS float64           `json:"latency_ms"`
	Data      gqlcache.Response `json:"response,omitempty"`
}

// Run executes cfg.Document and writes one JSON line per result to out.
func Run(ctx context.Context, cfg Config, in io.Reader, out io.Writer) error {
	doc, err := readDocument(cfg.Document, in)
	if err != nil {
		return err
	}
	a, err := build(cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = a.close(closeCtx)
	}()
	return execute(ctx, a.client, cfg, doc, out)
}

func execute(ctx context.Context, c *gqlcache.Client, cfg Config, doc string, out io.Writer) error {
	enc := json.NewEncoder(out)

	if cfg.Mutation {
		res, err := c.Mutate(ctx, doc, gqlcache.MutationOptions{
			SkipCacheWrite: cfg.NoCacheWrite,
			ToDelete:       cfg.Delete,
			WriteThrough:   cfg.WriteThrough,
		})
		if err != nil {
			return err
		}
		return enc.Encode(toOutput(1, res))
	}

	opts := gqlcache.RequestOptions{
		SkipCacheRead:  cfg.NoCacheRead,
		SkipCacheWrite: cfg.NoCacheWrite,
		WholeQuery:     cfg.Whole,
	}

	if cfg.Poll > 0 {
		opts.PollInterval = cfg.Poll
		h, err := c.Poll(ctx, doc, opts)
		if err != nil {
			return err
		}
		select {
		case <-time.After(cfg.PollFor):
		case <-ctx.Done():
		}
		h.Stop()
		<-h.Done()
		return enc.Encode(map[string]any{"polls": h.Iterations(), "state": h.State().String()})
	}

	for i := 1; i <= cfg.Repeat; i++ {
		res, err := c.Query(ctx, doc, opts)
		if err != nil {
			return err
		}
		if err := enc.Encode(toOutput(i, res)); err != nil {
			return err
		}
	}
	return nil
}

func toOutput(run int, res gqlcache.Result) output {
	return output{
		Run:       run,
		Source:    res.Source.String(),
		LatencyMS: float64(res.Latency.Microseconds()) / 1000,
		Data:      res.Data,
	}
}

func readDocument(arg string, in io.Reader) (string, error) {
	if arg != "-" {
		return arg, nil
	}
	b, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	doc := strings.TrimSpace(string(b))
	if doc == "" {
		return "", fmt.Errorf("empty document on stdin")
	}
	return doc, nil
}
