package kv

import (
	"errors"
	"math/rand"
	"slices"
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/lib/tree"
)

func genStrKeys(strLen, count int) (keys []string) {
	src := rand.New(rand.NewSource(int64(strLen * count)))
	letters := []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
	l := len(letters)
	r := make([]rune, strLen*count)
	for i := range r {
		r[i] = letters[src.Intn(l)]
	}
	keys = make([]string, count)
	for i := range keys {
		keys[i] = string(r[:strLen])
		r = r[strLen:]
	}
	return
}

func TestOrderedMap_SimpleCRUD(t *testing.T) {
	keys := lo.Uniq(genStrKeys(8, 10000))
	m := NewOrderedMap[string, int](tree.WithRBTreeInitCap(len(keys)))
	for i, key := range keys {
		_, ok := m.Insert(key, i)
		require.True(t, ok)
	}
	require.Equal(t, int64(len(keys)), m.Len())

	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	require.Equal(t, sorted, m.Keys())
	require.Len(t, m.Values(), len(keys))

	i := 1001
	val, exists := m.Get(keys[i])
	require.True(t, exists)
	require.Equal(t, i, val)
	require.True(t, m.Contains(keys[i]))

	it, ok := m.Insert(keys[i], -1)
	require.False(t, ok)
	require.Equal(t, i, it.Elem().Val)
	require.Equal(t, keys[i], it.Elem().Key)

	_, exists = m.Get("0")
	require.False(t, exists)
	require.False(t, m.Contains("0"))
	require.True(t, m.Find("0").IsEnd())

	m.Release()
	require.Equal(t, int64(0), m.Len())
	require.Empty(t, m.Keys())
}

func TestOrderedMap_Index(t *testing.T) {
	m := NewOrderedMap[string, int]()
	words := strings.Fields("the quick brown fox jumps over the lazy dog the end")
	for _, word := range words {
		*m.Index(word)++
	}
	require.Equal(t, []string{"brown", "dog", "end", "fox", "jumps", "lazy", "over", "quick", "the"}, m.Keys())
	count, _ := m.Get("the")
	require.Equal(t, 3, count)

	// The slot survives later inserts.
	slot := m.Index("zebra")
	require.Equal(t, 0, *slot)
	for i := 0; i < 1000; i++ {
		m.Insert(strings.Repeat("a", i%32)+string(rune('a'+i%26)), i)
	}
	*slot = 42
	val, exists := m.Get("zebra")
	require.True(t, exists)
	require.Equal(t, 42, val)
	require.Same(t, slot, m.Index("zebra"))
}

func TestOrderedMap_Iterate(t *testing.T) {
	m := NewOrderedMap[int, string]()
	for _, key := range lo.Shuffle(lo.Range(20)) {
		m.Insert(key, lo.RandomString(4, lo.LowerCaseLettersCharset))
	}

	idx := 0
	for it := m.Begin(); !it.Equal(m.End()); it = it.Next() {
		require.Equal(t, idx, it.Elem().Key)
		idx++
	}
	require.Equal(t, 20, idx)

	idx = 0
	for key, val := range m.All() {
		require.Equal(t, idx, key)
		require.Len(t, val, 4)
		idx++
		if idx == 5 {
			break
		}
	}
	require.Equal(t, 5, idx)

	require.Equal(t, []int{0, 2, 4, 18}, m.Keys(
		func(key int) bool { return key%2 == 0 && key < 5 },
		nil,
		func(key int) bool { return key == 18 },
	))
}

func TestOrderedMap_Clone(t *testing.T) {
	m := NewOrderedMap[int, int]()
	for i := 0; i < 100; i++ {
		m.Insert(i, i*i)
	}

	shared := m
	*shared.Index(3) = -3
	val, _ := m.Get(3)
	require.Equal(t, -3, val)

	clone := m.Clone()
	*clone.Index(4) = -4
	clone.Insert(100, 100)
	val, _ = m.Get(4)
	require.Equal(t, 16, val)
	require.False(t, m.Contains(100))
	require.Equal(t, int64(101), clone.Len())
	val, _ = clone.Get(3)
	require.Equal(t, -3, val)
}

type closableVal struct {
	closed bool
	err    error
}

func (c *closableVal) Close() error {
	c.closed = true
	return c.err
}

func TestOrderedMap_Purge(t *testing.T) {
	errClose := errors.New("close failed")
	c1, c2 := &closableVal{}, &closableVal{err: errClose}
	m := NewOrderedMap[string, *closableVal]()
	m.Insert("c1", c1)
	m.Insert("c2", c2)
	m.Insert("nil", nil)

	err := m.Purge()
	require.ErrorIs(t, err, errClose)
	_, ok := infra.AsErrorStack(err)
	require.True(t, ok)
	require.True(t, c1.closed)
	require.True(t, c2.closed)
	require.Equal(t, int64(0), m.Len())

	ints := NewOrderedMap[int, int]()
	ints.Insert(1, 1)
	require.NoError(t, ints.Purge())
	require.Equal(t, int64(0), ints.Len())
}

func BenchmarkOrderedMap_Index(b *testing.B) {
	keys := genStrKeys(8, 1<<16)
	m := NewOrderedMap[string, int]()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		*m.Index(keys[i&(1<<16-1)])++
	}
}
