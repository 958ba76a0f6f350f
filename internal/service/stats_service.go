package service

import (
	"context"

	"scribe/internal/cache"
	"scribe/internal/models"

	"golang.org/x/sync/errgroup"
)

type StatsService struct {
	repos Repos
}

func NewStatsService(r Repos) *StatsService {
	return &StatsService{repos: r}
}

// Get returns platform totals, cached briefly.
func (s *StatsService) Get(ctx context.Context) (*models.PlatformStats, error) {
	var stats models.PlatformStats
	err := cache.Aside(ctx, cache.StatsKey, &stats, cache.StatsTTL, func() error {
		return s.count(ctx, &stats)
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *StatsService) count(ctx context.Context, out *models.PlatformStats) error {
	g, ctx := errgroup.WithContext(ctx)
	r := s.repos
	g.Go(func() (err error) { out.Users, err = r.Users.Count(ctx); return })
	g.Go(func() (err error) { out.Posts, err = r.Posts.Count(ctx, false); return })
	g.Go(func() (err error) { out.Drafts, err = r.Posts.Count(ctx, true); return })
	g.Go(func() (err error) { out.Comments, err = r.Comments.Count(ctx); return })
	g.Go(func() (err error) { out.Categories, err = r.Categories.Count(ctx); return })
	g.Go(func() (err error) { out.Communities, err = r.Communities.Count(ctx); return })
	g.Go(func() (err error) { out.PendingReports, err = r.Reports.Count(ctx); return })
	g.Go(func() (err error) { out.BannedEmails, err = r.Users.CountBanned(ctx); return })
	return g.Wait()
}
