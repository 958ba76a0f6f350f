// Package seed fills a database with demo data for development and tests.
// Everything is written through the service engine so counters stay
// consistent with the rows they summarize.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"scribe/internal/database"
	"scribe/internal/middleware"
	"scribe/internal/models"
	"scribe/internal/service"

	"gorm.io/gorm"
)

// Options sizes a seeding run.
type Options struct {
	Users           int     `yaml:"users"`
	Posts           int     `yaml:"posts"`
	CommentsPerPost int     `yaml:"comments_per_post"`
	ReplyRatio      float64 `yaml:"reply_ratio"`
	LikesPerPost    int     `yaml:"likes_per_post"`
	Drafts          int     `yaml:"drafts"`
	// Seed makes fake content reproducible when non-zero.
	Seed int64 `yaml:"-"`
}

// Validate rejects impossible sizes.
func (o Options) Validate() error {
	switch {
	case o.Users <= 0:
		return errors.New("users must be positive")
	case o.Posts < 0 || o.Drafts < 0 || o.CommentsPerPost < 0 || o.LikesPerPost < 0:
		return errors.New("counts must not be negative")
	case o.ReplyRatio < 0 || o.ReplyRatio > 1:
		return errors.New("reply_ratio must be between 0 and 1")
	}
	return nil
}

// Summary reports what a run created.
type Summary struct {
	Users       int
	Categories  int
	Communities int
	Posts       int
	Drafts      int
	Comments    int
	Likes       int
}

// Seeder writes demo data through an engine.
type Seeder struct {
	db       *gorm.DB
	engine   *service.Engine
	fixtures *Fixtures
}

// NewSeeder builds a seeder over the embedded fixtures.
func NewSeeder(db *gorm.DB, engine *service.Engine) (*Seeder, error) {
	f, err := LoadFixtures()
	if err != nil {
		return nil, err
	}
	return &Seeder{db: db, engine: engine, fixtures: f}, nil
}

// Fixtures exposes the loaded fixture set.
func (s *Seeder) Fixtures() *Fixtures {
	return s.fixtures
}

// ClearAll hard-deletes every row of every managed table, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	all := database.PersistentModels()
	for i := len(all) - 1; i >= 0; i-- {
		if err := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(all[i]).Error; err != nil {
			return fmt.Errorf("clear %T: %w", all[i], err)
		}
	}
	middleware.Logger.InfoContext(ctx, "database cleared")
	return nil
}

// Categories creates the fixture categories that do not exist yet and
// returns all of them.
func (s *Seeder) Categories(ctx context.Context) ([]models.Category, error) {
	for _, name := range s.fixtures.Categories {
		_, err := s.engine.Categories.Create(ctx, name)
		if err != nil && !models.IsCode(err, models.CodeConflict) {
			return nil, fmt.Errorf("category %s: %w", name, err)
		}
	}
	return s.engine.Categories.List(ctx)
}

// ApplyPreset runs a named preset from the fixtures.
func (s *Seeder) ApplyPreset(ctx context.Context, name string, seed int64) (*Summary, error) {
	opts, ok := s.fixtures.Presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q (have %v)", name, s.fixtures.PresetNames())
	}
	opts.Seed = seed
	return s.Run(ctx, opts)
}

// Run seeds users, categories, posts, comment threads, likes and
// communities.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Summary, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	f := NewFactory(opts.Seed)
	sum := &Summary{}

	cats, err := s.Categories(ctx)
	if err != nil {
		return nil, err
	}
	sum.Categories = len(cats)

	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		u, err := s.engine.Users.Register(ctx, f.User(i))
		if err != nil {
			return sum, fmt.Errorf("user %d: %w", i, err)
		}
		users = append(users, u)
	}
	sum.Users = len(users)

	for i := 0; i < opts.Posts+opts.Drafts; i++ {
		draft := i >= opts.Posts
		author := users[f.Intn(len(users))]
		post, err := s.engine.Posts.CreateOrUpdatePost(ctx, f.Post(author.ID, cats[f.Intn(len(cats))].ID, draft))
		if err != nil {
			return sum, fmt.Errorf("post %d: %w", i, err)
		}
		if draft {
			sum.Drafts++
			continue
		}
		sum.Posts++

		n, err := s.thread(ctx, f, post.ID, users, opts)
		sum.Comments += n
		if err != nil {
			return sum, err
		}
		n, err = s.likes(ctx, f, post.ID, users, opts.LikesPerPost)
		sum.Likes += n
		if err != nil {
			return sum, err
		}
	}

	n, err := s.communities(ctx, f, users)
	sum.Communities = n
	if err != nil {
		return sum, err
	}

	middleware.Logger.InfoContext(ctx, "seed complete",
		slog.Int("users", sum.Users),
		slog.Int("posts", sum.Posts),
		slog.Int("drafts", sum.Drafts),
		slog.Int("comments", sum.Comments),
		slog.Int("likes", sum.Likes),
	)
	return sum, nil
}

// thread adds comments to a post; some reply to an earlier comment.
func (s *Seeder) thread(ctx context.Context, f *Factory, postID uint, users []*models.User, opts Options) (int, error) {
	var ids []uint
	for i := 0; i < opts.CommentsPerPost; i++ {
		in := service.AddCommentInput{
			PostID:   postID,
			AuthorID: users[f.Intn(len(users))].ID,
			Body:     f.Comment(),
		}
		if len(ids) > 0 && f.Chance(opts.ReplyRatio) {
			parent := ids[f.Intn(len(ids))]
			in.ParentID = &parent
		}
		c, err := s.engine.Comments.AddComment(ctx, in)
		if err != nil {
			return len(ids), fmt.Errorf("comment on post %d: %w", postID, err)
		}
		ids = append(ids, c.ID)
	}
	return len(ids), nil
}

// likes has distinct users like a post.
func (s *Seeder) likes(ctx context.Context, f *Factory, postID uint, users []*models.User, n int) (int, error) {
	if n > len(users) {
		n = len(users)
	}
	start := f.Intn(len(users))
	for i := 0; i < n; i++ {
		u := users[(start+i)%len(users)]
		if _, err := s.engine.Posts.LikePost(ctx, postID, u.ID); err != nil {
			return i, fmt.Errorf("like post %d: %w", postID, err)
		}
	}
	return n, nil
}

func (s *Seeder) communities(ctx context.Context, f *Factory, users []*models.User) (int, error) {
	created := 0
	for _, fx := range s.fixtures.Communities {
		admin := users[f.Intn(len(users))]
		c, err := s.engine.Communities.Create(ctx, service.CreateCommunityInput{
			AdminID:     admin.ID,
			Name:        fx.Name,
			Description: fx.Description,
			Interests:   fx.Interests,
		})
		if err != nil {
			return created, fmt.Errorf("community %s: %w", fx.Name, err)
		}
		created++

		for _, u := range users {
			if u.ID == admin.ID || !f.Chance(0.5) {
				continue
			}
			if err := s.engine.Communities.Membership(ctx, c.ID, u.ID, models.MembershipJoin, 0); err != nil {
				return created, err
			}
			if _, err := s.engine.Communities.CreatePost(ctx, service.CommunityPostInput{
				CommunityID: c.ID,
				AuthorID:    u.ID,
				Text:        f.CommunityText(),
			}); err != nil {
				return created, err
			}
		}
	}
	return created, nil
}
