package kb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList(t *testing.T) {
	articles, err := List()
	require.NoError(t, err)
	require.NotEmpty(t, articles)

	for _, a := range articles {
		assert.NotEmpty(t, a.ID)
		assert.NotEmpty(t, a.Article)
		assert.NotEmpty(t, a.Text)
	}
}

func TestSearch(t *testing.T) {
	t.Run("empty query returns all", func(t *testing.T) {
		all, err := List()
		require.NoError(t, err)
		got, err := Search("")
		require.NoError(t, err)
		assert.Equal(t, all, got)
	})

	t.Run("by keyword", func(t *testing.T) {
		got, err := Search("市场准入")
		require.NoError(t, err)
		require.NotEmpty(t, got)
		assert.Equal(t, "fcr-art-10", got[0].ID)
	})

	t.Run("by citation", func(t *testing.T) {
		got, err := Search("第十四条")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "fcr-art-14", got[0].ID)
	})

	t.Run("no match", func(t *testing.T) {
		got, err := Search("不存在的内容xyz")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
