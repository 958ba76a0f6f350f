package service

import (
	"context"
	"strings"

	"scribe/internal/models"
	"scribe/internal/repository"
	"scribe/internal/validation"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type RegisterInput struct {
	Fullname string
	Email    string
	Password string
}

type UserService struct {
	users      repository.UserRepository
	activity   *ActivityLogger
	bcryptCost int
}

// NewUserService builds the account service. A zero cost uses
// bcrypt.DefaultCost.
func NewUserService(users repository.UserRepository, activity *ActivityLogger, bcryptCost int) *UserService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{users: users, activity: activity, bcryptCost: bcryptCost}
}

// Register creates an account. Banned and already registered emails are
// rejected with CONFLICT.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := validation.ValidateFullname(in.Fullname); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	email := repository.NormalizeEmail(in.Email)
	if email == "" {
		return nil, models.NewValidationError("Enter email")
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	banned, err := s.users.IsEmailBanned(ctx, email)
	if err != nil {
		return nil, err
	}
	if banned {
		return nil, models.NewConflictError("This email has been banned")
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, models.NewConflictError("Email is already in use")
	} else if !isNotFound(err) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	username, err := s.uniqueUsername(ctx, email)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hash),
		Fullname: strings.TrimSpace(in.Fullname),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.activity.Log(ctx, ActivityEntry{
		ActorID: user.ID,
		Type:    models.ActivityTypeUser,
		Action:  models.ActivityJoined,
		Link:    "/user/" + user.Username,
		Content: user.Fullname,
		RefID:   user.ID,
	})
	return user, nil
}

// uniqueUsername derives a username from the email's local part, adding a
// short random suffix when it is taken.
func (s *UserService) uniqueUsername(ctx context.Context, email string) (string, error) {
	base := email
	if i := strings.IndexByte(email, '@'); i > 0 {
		base = email[:i]
	}
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return '_'
	}, base)
	if len(base) < 3 {
		base += "_user"
	}
	if len(base) > 20 {
		base = base[:20]
	}

	candidate := base
	for {
		taken, err := s.users.UsernameExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + uuid.NewString()[:5]
	}
}

// Authenticate checks an email and password pair.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if isNotFound(err) {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// SetPassword replaces a user's password after checking signup rules.
func (s *UserService) SetPassword(ctx context.Context, id uint, password string) error {
	if err := validation.ValidatePassword(password); err != nil {
		return models.NewValidationError(err.Error())
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	return s.users.SetPasswordHash(ctx, id, string(hash))
}

// SetAdmin grants or revokes administrator rights.
func (s *UserService) SetAdmin(ctx context.Context, id uint, admin bool) error {
	return s.users.SetAdmin(ctx, id, admin)
}
