package middleware

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// AdminResolver reports whether a user holds the administrator flag.
type AdminResolver func(ctx context.Context, userID uint) (bool, error)

// Auth validates bearer tokens and exposes the actor to handlers through
// c.Locals("userID") and c.Locals("isAdmin").
type Auth struct {
	secret  []byte
	isAdmin AdminResolver
}

// NewAuth creates the auth middleware. isAdmin may be nil, in which case
// nobody is an administrator.
func NewAuth(secret string, isAdmin AdminResolver) *Auth {
	return &Auth{secret: []byte(secret), isAdmin: isAdmin}
}

// IssueToken signs an HS256 token whose subject is userID.
func IssueToken(secret string, userID uint, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": msg})
}

func (a *Auth) parse(header string) (uint, string) {
	if header == "" {
		return 0, "Authorization header required"
	}
	scheme, tokenString, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" || tokenString == "" {
		return 0, "Invalid authorization header format"
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, "Invalid or expired token"
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return 0, "Invalid token structure - missing subject"
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return 0, "Invalid user ID in token"
	}
	return uint(userID), ""
}

// Required rejects requests without a valid token.
func (a *Auth) Required(c *fiber.Ctx) error {
	userID, problem := a.parse(c.Get("Authorization"))
	if problem != "" {
		return unauthorized(c, problem)
	}
	c.Locals("userID", userID)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, userID))

	admin := false
	if a.isAdmin != nil {
		var err error
		admin, err = a.isAdmin(c.UserContext(), userID)
		if err != nil {
			// The account may have been banned after the token was issued.
			return unauthorized(c, "Unknown user")
		}
	}
	c.Locals("isAdmin", admin)
	return c.Next()
}

// Optional records the actor when a valid token is present and lets every
// request through.
func (a *Auth) Optional(c *fiber.Ctx) error {
	if userID, problem := a.parse(c.Get("Authorization")); problem == "" {
		c.Locals("userID", userID)
		c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, userID))
	}
	return c.Next()
}

// AdminOnly must run after Required.
func (a *Auth) AdminOnly(c *fiber.Ctx) error {
	if admin, _ := c.Locals("isAdmin").(bool); !admin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Admin access required"})
	}
	return c.Next()
}

// Actor returns the authenticated user id and administrator flag.
func Actor(c *fiber.Ctx) (uint, bool) {
	userID, _ := c.Locals("userID").(uint)
	admin, _ := c.Locals("isAdmin").(bool)
	return userID, admin
}
