package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Valid", "Secure12", false},
		{"Exactly Min Length", "Abcde1", false},
		{"Exactly Max Length", "A" + strings.Repeat("b", 18) + "1", false},
		{"Too Short", "Ab1", true},
		{"Too Long", "A" + strings.Repeat("b", 19) + "1", true},
		{"No Upper", "secure12", true},
		{"No Lower", "SECURE12", true},
		{"No Digit", "SecurePass", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmailAndNames(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateEmail("ada@example.com"))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail(strings.Repeat("a", 250)+"@x.io"))

	assert.NoError(t, ValidateFullname("Ada"))
	assert.Error(t, ValidateFullname("  Al "))

	assert.NoError(t, ValidateUsername("ada_l"))
	assert.Error(t, ValidateUsername("a b"))
}

func TestValidateCategoryName(t *testing.T) {
	t.Parallel()
	got, err := ValidateCategoryName("  Tech ")
	assert.NoError(t, err)
	assert.Equal(t, "tech", got)

	_, err = ValidateCategoryName("   ")
	assert.Error(t, err)
	_, err = ValidateCategoryName(strings.Repeat("x", MaxCategoryLen+1))
	assert.Error(t, err)
}

func TestValidateReason(t *testing.T) {
	t.Parallel()
	got, err := ValidateReason(" spam ")
	assert.NoError(t, err)
	assert.Equal(t, "spam", got)
	_, err = ValidateReason("")
	assert.Error(t, err)
}
