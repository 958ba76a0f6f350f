package service

import (
	"context"
	"log/slog"
	"time"

	"scribe/internal/middleware"
	"scribe/internal/observability"

	"golang.org/x/sync/errgroup"
)

// ReconcileResult counts rows whose derived counters were rewritten.
type ReconcileResult struct {
	CategoryPostCounts int64 `json:"category_post_counts"`
	UserPostCounts     int64 `json:"user_post_counts"`
	PostCommentCounts  int64 `json:"post_comment_counts"`
	PostLikeCounts     int64 `json:"post_like_counts"`
}

// Total is the number of corrected rows.
func (r ReconcileResult) Total() int64 {
	return r.CategoryPostCounts + r.UserPostCounts + r.PostCommentCounts + r.PostLikeCounts
}

// ReconcileService re-derives every counter from the records it
// summarizes, repairing drift left by interrupted cascades.
type ReconcileService struct {
	repos Repos
}

func NewReconcileService(r Repos) *ReconcileService {
	return &ReconcileService{repos: r}
}

// Run recomputes all counters. The four sweeps touch disjoint columns and
// run concurrently.
func (s *ReconcileService) Run(ctx context.Context) (ReconcileResult, error) {
	var res ReconcileResult
	g, gctx := errgroup.WithContext(ctx)
	sweep := func(name string, dst *int64, fn func(context.Context) (int64, error)) {
		g.Go(func() error {
			n, err := fn(gctx)
			if err != nil {
				return err
			}
			*dst = n
			observability.ReconcileCorrections.WithLabelValues(name).Add(float64(n))
			return nil
		})
	}
	sweep("category_post_count", &res.CategoryPostCounts, s.repos.Categories.RecountPosts)
	sweep("user_total_posts", &res.UserPostCounts, s.repos.Users.RecountPosts)
	sweep("post_comments", &res.PostCommentCounts, s.repos.Posts.RecountComments)
	sweep("post_likes", &res.PostLikeCounts, s.repos.Posts.RecountLikes)

	if err := g.Wait(); err != nil {
		return res, err
	}
	if res.Total() > 0 {
		middleware.Logger.WarnContext(ctx, "reconcile corrected counter drift",
			slog.Int64("categories", res.CategoryPostCounts),
			slog.Int64("users", res.UserPostCounts),
			slog.Int64("post_comments", res.PostCommentCounts),
			slog.Int64("post_likes", res.PostLikeCounts),
		)
	}
	return res, nil
}

// Start runs the sweep every interval until ctx ends. Ticks where enabled
// reports false are skipped; a nil enabled always runs.
func (s *ReconcileService) Start(ctx context.Context, interval time.Duration, enabled func() bool) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if enabled != nil && !enabled() {
					continue
				}
				if _, err := s.Run(ctx); err != nil {
					middleware.Logger.ErrorContext(ctx, "reconcile failed", slog.String("error", err.Error()))
				}
			}
		}
	}()
}
