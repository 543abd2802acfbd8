package database

import (
	"testing"

	"crwn/internal/models"

	"github.com/stretchr/testify/require"
)

func TestPersistentModels_IncludesSocialTables(t *testing.T) {
	var hasFollow, hasBookmark bool
	for _, model := range PersistentModels() {
		switch model.(type) {
		case *models.Follow:
			hasFollow = true
		case *models.Bookmark:
			hasBookmark = true
		}
	}
	require.True(t, hasFollow, "PersistentModels should include Follow")
	require.True(t, hasBookmark, "PersistentModels should include Bookmark")
}
