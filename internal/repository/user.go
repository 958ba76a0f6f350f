package repository

import (
	"context"
	"strings"

	"scribe/internal/cache"
	"scribe/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines persistence operations for users, their alerts and
// the email ban list.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) (bool, error)
	IsAdmin(ctx context.Context, id uint) (bool, error)
	SetAdmin(ctx context.Context, id uint, admin bool) error
	SetPasswordHash(ctx context.Context, id uint, hash string) error
	ListAdmins(ctx context.Context) ([]models.User, error)
	// AdjustCounters applies deltas to total_posts/total_reads.
	AdjustCounters(ctx context.Context, id uint, deltas map[models.UserCounter]int) error
	// MarkWarned flips warned false→true and reports whether it changed.
	MarkWarned(ctx context.Context, id uint) (bool, error)
	RecountPosts(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)

	AddAlert(ctx context.Context, alert *models.Alert) error
	ListAlerts(ctx context.Context, userID uint) ([]models.Alert, error)
	ClearAlerts(ctx context.Context, userID uint) (int64, error)

	IsEmailBanned(ctx context.Context, email string) (bool, error)
	BanEmail(ctx context.Context, email string) error
	CountBanned(ctx context.Context) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// NormalizeEmail lowercases and trims an address so ban lookups match.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		return wrapErr(readDB(r.db).WithContext(ctx).First(&user, id).Error, "User", id)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	email = NormalizeEmail(email)
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, wrapErr(err, "User", email)
	}
	return &user, nil
}

func (r *userRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = NormalizeEmail(user.Email)
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return wrapErr(err, "User", user.Email)
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uint) (bool, error) {
	defer cache.InvalidateUser(ctx, id)
	return deleteByID(ctx, r.db, &models.User{}, id)
}

func (r *userRepository) IsAdmin(ctx context.Context, id uint) (bool, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Select("id", "is_admin").First(&user, id).Error; err != nil {
		return false, wrapErr(err, "User", id)
	}
	return user.IsAdmin, nil
}

func (r *userRepository) SetAdmin(ctx context.Context, id uint, admin bool) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).UpdateColumn("is_admin", admin)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

func (r *userRepository) SetPasswordHash(ctx context.Context, id uint, hash string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).UpdateColumn("password", hash)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

func (r *userRepository) ListAdmins(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Where("is_admin = ?", true).Order("id").Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) AdjustCounters(ctx context.Context, id uint, deltas map[models.UserCounter]int) error {
	cols := make(map[string]int, len(deltas))
	for c, d := range deltas {
		cols[string(c)] = d
	}
	if _, err := increment(ctx, r.db, &models.User{}, id, cols); err != nil {
		return err
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

func (r *userRepository) MarkWarned(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND warned = ?", id, false).
		UpdateColumn("warned", true)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		cache.InvalidateUser(ctx, id)
	}
	return res.RowsAffected > 0, nil
}

func (r *userRepository) RecountPosts(ctx context.Context) (int64, error) {
	const sub = "(SELECT COUNT(*) FROM posts WHERE posts.author_id = users.id AND posts.draft = ?)"
	res := r.db.WithContext(ctx).Exec(
		"UPDATE users SET total_posts = "+sub+" WHERE total_posts <> "+sub,
		false, false,
	)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.User{}).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *userRepository) AddAlert(ctx context.Context, alert *models.Alert) error {
	if err := r.db.WithContext(ctx).Create(alert).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) ListAlerts(ctx context.Context, userID uint) ([]models.Alert, error) {
	var alerts []models.Alert
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&alerts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return alerts, nil
}

func (r *userRepository) ClearAlerts(ctx context.Context, userID uint) (int64, error) {
	return deleteWhere(ctx, r.db, &models.Alert{}, "user_id = ?", userID)
}

func (r *userRepository) IsEmailBanned(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.BannedEmail{}).Where("email = ?", NormalizeEmail(email)).Count(&n).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

func (r *userRepository) BanEmail(ctx context.Context, email string) error {
	ban := models.BannedEmail{Email: NormalizeEmail(email)}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&ban).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) CountBanned(ctx context.Context) (int64, error) {
	var n int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.BannedEmail{}).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
