package generic

import (
	"sort"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	assert := assert_.New(t)

	s := NewSet[string]()
	assert.Equal(0, s.Count())
	assert.False(s.Contains("720p"))
	assert.True(s.Add("720p"))
	assert.False(s.Add("720p"))
	assert.Equal(1, s.Count())
	assert.True(s.Remove("720p"))
	assert.False(s.Remove("720p"))
	assert.Equal(0, s.Count())

	s2 := NewSet(3, 1, 2)
	assert.True(s2.Contains(1, 2, 3))
	assert.False(s2.Contains(1, 4))
	items := s2.ToSlice()
	sort.Ints(items)
	assert.Equal([]int{1, 2, 3}, items)
	s2.Clear()
	assert.Equal(0, s2.Count())
}

func TestOption(t *testing.T) {
	assert := assert_.New(t)

	none := None[string]()
	assert.True(none.IsNone())
	assert.Equal("fallback", none.UnwrapOr("fallback"))
	assert.Equal("", none.UnwrapOrDefault())
	assert.Panics(func() { none.Unwrap() })
	_, ok := none.Get()
	assert.False(ok)

	some := Some("https://www.youtube.com/watch?v=abc")
	assert.True(some.IsSome())
	v, ok := some.Get()
	assert.True(ok)
	assert.Equal("https://www.youtube.com/watch?v=abc", v)
	assert.True(some.OkOr(nil).IsOk())
}

func TestResult(t *testing.T) {
	assert := assert_.New(t)

	ok := NewResult(3, nil)
	assert.True(ok.IsOk())
	assert.Equal(3, ok.Unwrap())
	assert.True(ok.Ok().IsSome())

	failed := Err[int](assert_.AnError)
	assert.True(failed.IsErr())
	assert.True(failed.Ok().IsNone())
	_, err := failed.Parts()
	assert.ErrorIs(err, assert_.AnError)
	assert.Panics(func() { failed.Unwrap() })
	assert.Panics(func() { Unwrap_(assert_.AnError) })
}
