package validation

import (
	"fmt"
	"strings"
)

// Limits on post and comment fields.
const (
	MaxTitleLen       = 200
	MaxDescriptionLen = 200
	MaxContentLen     = 200000
	MaxCommentLen     = 10000
	MaxCategoryLen    = 40
	MaxReasonLen      = 500
)

// ValidateCategoryName trims and checks a category name.
func ValidateCategoryName(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", fmt.Errorf("category name is required")
	}
	if len(name) > MaxCategoryLen {
		return "", fmt.Errorf("category name must not exceed %d characters", MaxCategoryLen)
	}
	return name, nil
}

// ValidateReason requires a non-empty moderation or report reason.
func ValidateReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", fmt.Errorf("a reason is required")
	}
	if len(reason) > MaxReasonLen {
		return "", fmt.Errorf("reason must not exceed %d characters", MaxReasonLen)
	}
	return reason, nil
}
