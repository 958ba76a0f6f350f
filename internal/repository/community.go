package repository

import (
	"context"

	"scribe/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommunityRepository defines persistence operations for communities, their
// members and their posts.
type CommunityRepository interface {
	Create(ctx context.Context, community *models.Community) error
	GetByID(ctx context.Context, id uint) (*models.Community, error)
	GetBySlug(ctx context.Context, slug string) (*models.Community, error)
	Delete(ctx context.Context, id uint) (bool, error)
	ListAdministeredBy(ctx context.Context, userID uint) ([]models.Community, error)
	Count(ctx context.Context) (int64, error)

	AddMember(ctx context.Context, communityID, userID uint) (bool, error)
	RemoveMember(ctx context.Context, communityID, userID uint) (bool, error)
	IsMember(ctx context.Context, communityID, userID uint) (bool, error)
	CountMembers(ctx context.Context, communityID uint) (int64, error)
	ListMembers(ctx context.Context, communityID uint, limit, offset int) ([]models.CommunityMember, error)
	DeleteMembers(ctx context.Context, communityID uint) (int64, error)
	DeleteMembershipsOf(ctx context.Context, userID uint) (int64, error)

	CreatePost(ctx context.Context, post *models.CommunityPost) error
	GetPost(ctx context.Context, id uint) (*models.CommunityPost, error)
	ListPosts(ctx context.Context, communityID uint, limit, offset int) ([]models.CommunityPost, error)
	DeletePost(ctx context.Context, id uint) (bool, error)
	DeletePostsByCommunity(ctx context.Context, communityID uint) (int64, error)
	// DeletePostsByAuthor removes an author's posts, limited to one
	// community when communityID is non-zero.
	DeletePostsByAuthor(ctx context.Context, authorID, communityID uint) (int64, error)
}

type communityRepository struct {
	db *gorm.DB
}

// NewCommunityRepository creates a new CommunityRepository.
func NewCommunityRepository(db *gorm.DB) CommunityRepository {
	return &communityRepository{db: db}
}

func (r *communityRepository) Create(ctx context.Context, community *models.Community) error {
	if err := r.db.WithContext(ctx).Create(community).Error; err != nil {
		return wrapErr(err, "Community", community.Slug)
	}
	return nil
}

func (r *communityRepository) GetByID(ctx context.Context, id uint) (*models.Community, error) {
	var community models.Community
	if err := r.db.WithContext(ctx).First(&community, id).Error; err != nil {
		return nil, wrapErr(err, "Community", id)
	}
	return &community, nil
}

func (r *communityRepository) GetBySlug(ctx context.Context, slug string) (*models.Community, error) {
	var community models.Community
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&community).Error; err != nil {
		return nil, wrapErr(err, "Community", slug)
	}
	n, err := r.CountMembers(ctx, community.ID)
	if err != nil {
		return nil, err
	}
	community.MemberCount = n
	return &community, nil
}

func (r *communityRepository) Delete(ctx context.Context, id uint) (bool, error) {
	return deleteByID(ctx, r.db, &models.Community{}, id)
}

func (r *communityRepository) ListAdministeredBy(ctx context.Context, userID uint) ([]models.Community, error) {
	var list []models.Community
	if err := r.db.WithContext(ctx).Where("admin_id = ?", userID).Order("id").Find(&list).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return list, nil
}

func (r *communityRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Community{}).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *communityRepository) AddMember(ctx context.Context, communityID, userID uint) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.CommunityMember{CommunityID: communityID, UserID: userID})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *communityRepository) RemoveMember(ctx context.Context, communityID, userID uint) (bool, error) {
	n, err := deleteWhere(ctx, r.db, &models.CommunityMember{}, "community_id = ? AND user_id = ?", communityID, userID)
	return n > 0, err
}

func (r *communityRepository) IsMember(ctx context.Context, communityID, userID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.CommunityMember{}).
		Where("community_id = ? AND user_id = ?", communityID, userID).Count(&n).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

func (r *communityRepository) CountMembers(ctx context.Context, communityID uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.CommunityMember{}).Where("community_id = ?", communityID).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *communityRepository) ListMembers(ctx context.Context, communityID uint, limit, offset int) ([]models.CommunityMember, error) {
	var members []models.CommunityMember
	err := readDB(r.db).WithContext(ctx).Where("community_id = ?", communityID).
		Order("created_at, user_id").Limit(clampLimit(limit)).Offset(offset).Find(&members).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return members, nil
}

func (r *communityRepository) DeleteMembers(ctx context.Context, communityID uint) (int64, error) {
	return deleteWhere(ctx, r.db, &models.CommunityMember{}, "community_id = ?", communityID)
}

func (r *communityRepository) DeleteMembershipsOf(ctx context.Context, userID uint) (int64, error) {
	return deleteWhere(ctx, r.db, &models.CommunityMember{}, "user_id = ?", userID)
}

func (r *communityRepository) CreatePost(ctx context.Context, post *models.CommunityPost) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *communityRepository) GetPost(ctx context.Context, id uint) (*models.CommunityPost, error) {
	var post models.CommunityPost
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, wrapErr(err, "CommunityPost", id)
	}
	return &post, nil
}

func (r *communityRepository) ListPosts(ctx context.Context, communityID uint, limit, offset int) ([]models.CommunityPost, error) {
	var posts []models.CommunityPost
	err := readDB(r.db).WithContext(ctx).Where("community_id = ?", communityID).
		Order("id DESC").Limit(clampLimit(limit)).Offset(offset).Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *communityRepository) DeletePost(ctx context.Context, id uint) (bool, error) {
	return deleteByID(ctx, r.db, &models.CommunityPost{}, id)
}

func (r *communityRepository) DeletePostsByCommunity(ctx context.Context, communityID uint) (int64, error) {
	return deleteWhere(ctx, r.db, &models.CommunityPost{}, "community_id = ?", communityID)
}

func (r *communityRepository) DeletePostsByAuthor(ctx context.Context, authorID, communityID uint) (int64, error) {
	if communityID == 0 {
		return deleteWhere(ctx, r.db, &models.CommunityPost{}, "author_id = ?", authorID)
	}
	return deleteWhere(ctx, r.db, &models.CommunityPost{}, "author_id = ? AND community_id = ?", authorID, communityID)
}
