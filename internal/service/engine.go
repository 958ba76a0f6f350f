package service

import (
	"scribe/internal/featureflags"
	"scribe/internal/moderation"
	"scribe/internal/notifications"

	"gorm.io/gorm"
)

// Options carries the collaborators the engine consumes but does not own.
type Options struct {
	Notifier   *notifications.Notifier
	Classifier moderation.Classifier
	Flags      *featureflags.Manager
	BcryptCost int
}

// Engine wires every service over one database.
type Engine struct {
	Repos         Repos
	Counters      *Counters
	Activity      *ActivityLogger
	Notifications *NotificationService
	Posts         *PostService
	Comments      *CommentService
	Cascade       *CascadeService
	Moderation    *ModerationService
	Categories    *CategoryService
	Communities   *CommunityService
	Users         *UserService
	Reconcile     *ReconcileService
	Stats         *StatsService
}

func NewEngine(db *gorm.DB, opts Options) *Engine {
	r := NewRepos(db)
	e := &Engine{Repos: r}
	e.Counters = NewCounters(r)
	e.Activity = NewActivityLogger(r.Activities)
	e.Notifications = NewNotificationService(r.Notifications, r.Users, opts.Notifier)
	e.Posts = NewPostService(r, e.Counters, e.Activity, e.Notifications, opts.Classifier, opts.Flags)
	e.Comments = NewCommentService(r, e.Counters, e.Activity, e.Notifications)
	e.Cascade = NewCascadeService(r, e.Counters, e.Comments, e.Activity, e.Notifications)
	e.Moderation = NewModerationService(r, e.Comments, e.Cascade, e.Notifications)
	e.Categories = NewCategoryService(r.Categories, e.Cascade)
	e.Communities = NewCommunityService(r.Communities, e.Cascade, e.Notifications)
	e.Users = NewUserService(r.Users, e.Activity, opts.BcryptCost)
	e.Reconcile = NewReconcileService(r)
	e.Stats = NewStatsService(r)
	return e
}
