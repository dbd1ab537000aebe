package sqlserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/quillworks/quill/pkg/storage"
)

func TestCastIDNormalizesCase(t *testing.T) {
	id, err := castID("6F1F9A30-0C3F-4A0E-9B1C-6A5D2E8F0A11")
	require.NoError(t, err)
	assert.Equal(t, "6f1f9a30-0c3f-4a0e-9b1c-6a5d2e8f0a11", id)
}

func TestCastIDRejectsNonGUIDs(t *testing.T) {
	_, err := castID("not-a-guid")
	assert.Error(t, err)
}

func TestTranslateMapsEngineSentinels(t *testing.T) {
	assert.ErrorIs(t, translate(gorm.ErrRecordNotFound), storage.ErrNotFound)
	assert.ErrorIs(t, translate(gorm.ErrDuplicatedKey), storage.ErrConstraintViolation)
	assert.ErrorIs(t, translate(gorm.ErrForeignKeyViolated), storage.ErrConstraintViolation)
}
