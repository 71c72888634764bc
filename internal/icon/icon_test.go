package icon

import (
	"bytes"
	"image/png"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nateberkopec/jobalert/internal/gateway"
)

func TestForMapsCategories(t *testing.T) {
	cases := map[gateway.Category]string{
		gateway.CategoryCritical: "🔥",
		gateway.CategoryUrgent:   "⚡",
		gateway.CategoryNewJob:   "💼",
		gateway.CategoryDefault:  "🔔",
		gateway.Category("info"): "🔔",
		gateway.Category(""):     "🔔",
	}
	for category, glyph := range cases {
		assert.Equal(t, glyph, For(category).Glyph, "category=%q", category)
	}
}

func TestUnknownCategoryUsesDefaultIcon(t *testing.T) {
	assert.Equal(t, gateway.CategoryDefault, For("weird").Category)
}

func TestPNGRendersBadge(t *testing.T) {
	data, err := For(gateway.CategoryCritical).PNG()
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, Size, img.Bounds().Dx())
	assert.Equal(t, Size, img.Bounds().Dy())

	_, _, _, alpha := img.At(0, 0).RGBA()
	assert.Zero(t, alpha, "corner should stay transparent")
	_, _, _, alpha = img.At(Size/2, 4).RGBA()
	assert.NotZero(t, alpha, "badge should be filled near the top center")
}

func TestFileIsWrittenOnce(t *testing.T) {
	dir := t.TempDir()

	path, err := For(gateway.CategoryNewJob).File(dir)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())

	again, err := For(gateway.CategoryNewJob).File(dir)
	require.NoError(t, err)
	assert.Equal(t, path, again)
}
