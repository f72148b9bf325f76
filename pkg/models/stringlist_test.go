package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringListValue(t *testing.T) {
	t.Run("nil list stores empty array", func(t *testing.T) {
		var l StringList
		v, err := l.Value()
		require.NoError(t, err)
		assert.Equal(t, "[]", v)
	})

	t.Run("values round-trip through text", func(t *testing.T) {
		l := StringList{"Black Market", "Detective"}
		v, err := l.Value()
		require.NoError(t, err)

		var scanned StringList
		require.NoError(t, scanned.Scan(v))
		assert.Equal(t, l, scanned)
	})
}

func TestStringListScan(t *testing.T) {
	t.Run("nil source", func(t *testing.T) {
		var l StringList
		require.NoError(t, l.Scan(nil))
		assert.Nil(t, l)
	})

	t.Run("byte slice source", func(t *testing.T) {
		var l StringList
		require.NoError(t, l.Scan([]byte(`["a","b"]`)))
		assert.Equal(t, StringList{"a", "b"}, l)
	})

	t.Run("unsupported type", func(t *testing.T) {
		var l StringList
		assert.Error(t, l.Scan(42))
	})
}

func TestStringListUnion(t *testing.T) {
	a := StringList{"x", "y"}
	b := StringList{"y", "z", "x"}

	assert.Equal(t, StringList{"x", "y", "z"}, a.Union(b))
	assert.Equal(t, StringList{"y", "z", "x"}, b.Union(a))
	assert.Equal(t, StringList{"x", "y"}, a.Union(nil))
}

func TestStringListContains(t *testing.T) {
	l := StringList{"a", "b"}
	assert.True(t, l.Contains("a"))
	assert.False(t, l.Contains("c"))
	assert.False(t, StringList(nil).Contains("a"))
}
