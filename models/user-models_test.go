package models

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestUserUniqueIndexesIgnoreDeletedRows(t *testing.T) {
	s, err := schema.Parse(&User{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	for _, name := range []string{"idx_users_email_live", "idx_users_username_live"} {
		idx := s.LookIndex(name)
		require.NotNil(t, idx, name)
		assert.Equal(t, "UNIQUE", idx.Class, name)
		assert.Equal(t, "deleted_at IS NULL", idx.Where, name)
	}
}
