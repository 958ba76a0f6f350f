package database

import (
	"testing"

	modelspkg "scribe/internal/models"

	"github.com/stretchr/testify/require"
)

func TestPersistentModels_IncludesCascadeTargets(t *testing.T) {
	var foundBan, foundAlert, foundActivity bool
	for _, model := range PersistentModels() {
		switch model.(type) {
		case *modelspkg.BannedEmail:
			foundBan = true
		case *modelspkg.Alert:
			foundAlert = true
		case *modelspkg.Activity:
			foundActivity = true
		}
	}
	require.True(t, foundBan, "PersistentModels should include BannedEmail")
	require.True(t, foundAlert, "PersistentModels should include Alert")
	require.True(t, foundActivity, "PersistentModels should include Activity")
}
