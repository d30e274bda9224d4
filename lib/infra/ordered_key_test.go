package infra

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrderedKeyComparator(t *testing.T) {
	testcases := []struct {
		name string
		i, j int
		asc  int64
	}{
		{"equal", 7, 7, 0},
		{"less", 3, 7, -1},
		{"greater", 9, 7, 1},
	}
	asc := AscOrderedKeyComparator[int]()
	desc := DescOrderedKeyComparator[int]()
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			require.Equal(tt, tc.asc, asc(tc.i, tc.j))
			require.Equal(tt, -tc.asc, desc(tc.i, tc.j))
		})
	}
}

func TestStringKeyComparator(t *testing.T) {
	cmp := AscOrderedKeyComparator[string]()
	require.Equal(t, int64(-1), cmp("abc", "abd"))
	require.Equal(t, int64(1), cmp("b", "abc"))
	require.Equal(t, int64(0), cmp("", ""))
}
