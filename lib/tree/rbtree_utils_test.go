package tree

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/lib/xlog"
)

// [20] with <10> and <30>.
func newTriangleTree(t *testing.T) (RBTree[int, int], *rbArena[int]) {
	t.Helper()
	tree := NewSetRBTree[int]()
	for _, key := range []int{10, 20, 30} {
		tree.Insert(key)
	}
	require.NoError(t, Validate(tree))
	return tree, tree.arena()
}

func TestViolationValidate(t *testing.T) {
	type testcase struct {
		name     string
		corrupt  func(tree RBTree[int, int], a *rbArena[int])
		expected []error
	}
	testcases := []testcase{
		{
			name: "red root",
			corrupt: func(tree RBTree[int, int], a *rbArena[int]) {
				a.node(a.root).color = Red
			},
			expected: []error{ErrRootViolation, ErrRedViolation},
		},
		{
			name: "black leaf",
			corrupt: func(tree RBTree[int, int], a *rbArena[int]) {
				a.node(tree.Find(30).node).color = Black
			},
			expected: []error{ErrBlackViolation},
		},
		{
			name: "swapped elements",
			corrupt: func(tree RBTree[int, int], a *rbArena[int]) {
				l, r := tree.Find(10).node, tree.Find(30).node
				a.node(l).elem, a.node(r).elem = a.node(r).elem, a.node(l).elem
			},
			expected: []error{ErrOrderViolation},
		},
		{
			name: "broken parent link",
			corrupt: func(tree RBTree[int, int], a *rbArena[int]) {
				a.node(tree.Find(10).node).parent = tree.Find(30).node
			},
			expected: []error{ErrLinkViolation},
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			tree, a := newTriangleTree(tt)
			tc.corrupt(tree, a)

			err := Validate(tree)
			require.Error(tt, err)
			errs := multierr.Errors(err)
			require.Len(tt, errs, len(tc.expected))
			for i, expected := range tc.expected {
				require.ErrorIs(tt, errs[i], expected)
				_, ok := infra.AsErrorStack(errs[i])
				require.True(tt, ok)
			}
		})
	}
}

func TestViolationValidate_Message(t *testing.T) {
	tree, a := newTriangleTree(t)
	a.node(tree.Find(30).node).color = Black

	err := BlackViolationValidate(tree)
	require.ErrorIs(t, err, ErrBlackViolation)
	require.Equal(t, "leaf key 30 black depth 2, expected 1: rbtree black violation", err.Error())
	require.NoError(t, RedViolationValidate(tree))
	require.NoError(t, RootViolationValidate(tree))
}

func TestLinkViolationValidate_LenMismatch(t *testing.T) {
	tree := NewSetRBTree[int]()
	for i := 0; i < 10; i++ {
		tree.Insert(i)
	}
	tree.(*rbTree[int, int, IdentityKey[int]]).count = 11
	require.ErrorIs(t, LinkViolationValidate(tree), ErrLinkViolation)

	tree.Release()
	tree.(*rbTree[int, int, IdentityKey[int]]).count = 1
	require.ErrorIs(t, LinkViolationValidate(tree), ErrLinkViolation)
}

func TestBlackHeight(t *testing.T) {
	tree := NewSetRBTree[int]()
	require.Equal(t, 0, BlackHeight(tree))
	for i := 0; i < 1000; i++ {
		tree.Insert(i)
	}
	require.NoError(t, Validate(tree))
	height := BlackHeight(tree)
	require.Greater(t, height, 0)
	// Every root to nil path has the same number of black nodes.
	a := tree.arena()
	for it := tree.Begin(); !it.IsEnd(); it = it.Next() {
		n := a.node(it.node)
		if n.left == nilNode || n.right == nilNode {
			require.Equal(t, height, blackDepthTo(a, it.node, nilNode))
		}
	}
}

func TestAudit(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger, err := xlog.NewXLogger(
		xlog.WithXLoggerZapCore(core),
		xlog.WithXLoggerLevel(xlog.LogLevelDebug),
	)
	require.NoError(t, err)

	tree, a := newTriangleTree(t)
	require.NoError(t, Audit(tree, logger))
	require.Equal(t, 1, logs.Len())
	summary := logs.All()[0]
	require.Equal(t, zapcore.InfoLevel, summary.Level)
	require.Equal(t, "rbtree audit", summary.Message)
	require.Equal(t, int64(3), summary.ContextMap()["len"])
	require.Equal(t, int64(2), summary.ContextMap()["height"])
	require.Equal(t, int64(1), summary.ContextMap()["blackHeight"])
	require.Equal(t, int64(0), summary.ContextMap()["violations"])

	a.node(a.root).color = Red
	err = Audit(tree, logger)
	require.ErrorIs(t, err, ErrRootViolation)
	require.ErrorIs(t, err, ErrRedViolation)

	violations := logs.FilterMessage("rbtree violation").All()
	require.Len(t, violations, 2)
	for _, entry := range violations {
		require.Equal(t, zapcore.ErrorLevel, entry.Level)
		require.Contains(t, entry.ContextMap(), "errorStack")
	}
	require.Contains(t, fmt.Sprint(violations[0].ContextMap()["error"]), ErrRootViolation.Error())
	require.Contains(t, fmt.Sprint(violations[1].ContextMap()["error"]), ErrRedViolation.Error())

	summaries := logs.FilterMessage("rbtree audit").All()
	require.Len(t, summaries, 2)
	require.Equal(t, int64(2), summaries[1].ContextMap()["violations"])
	require.NotContains(t, summaries[1].ContextMap(), "height")
}

func TestAudit_Stats(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger, err := xlog.NewXLogger(xlog.WithXLoggerZapCore(core), xlog.WithXLoggerLevel(xlog.LogLevelInfo))
	require.NoError(t, err)

	tree := NewSetRBTree[int](WithRBTreeStats("audit"))
	for _, key := range []int{10, 20, 30, 30} {
		tree.Insert(key)
	}
	require.NoError(t, Audit(tree, logger))
	fields := logs.All()[0].ContextMap()
	require.Equal(t, int64(3), fields["inserts"])
	require.Equal(t, int64(1), fields["duplicates"])
	require.Equal(t, int64(1), fields["leftRotations"])
	require.Equal(t, int64(0), fields["rightRotations"])
}

func findMetric(rm metricdata.ResourceMetrics, scope, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		if rm.ScopeMetrics[idx].Scope.Name != scope {
			continue
		}
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}
	return nil
}

func sumOf(t *testing.T, m *metricdata.Metrics, kv ...attribute.KeyValue) int64 {
	t.Helper()
	require.NotNil(t, m)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	expected := attribute.NewSet(kv...)
	for _, dp := range sum.DataPoints {
		if dp.Attributes.Equals(&expected) {
			return dp.Value
		}
	}
	return 0
}

func TestRBTreeStats_Metrics(t *testing.T) {
	prev := otel.GetMeterProvider()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)
	t.Cleanup(func() {
		otel.SetMeterProvider(prev)
		require.NoError(t, mp.Shutdown(context.Background()))
	})

	tree := NewSetRBTree[int](WithRBTreeStats("metrics"))
	for _, key := range []int{10, 20, 30, 40, 50, 50} {
		tree.Insert(key)
	}
	require.Equal(t, RBTreeStats{
		Inserts:       5,
		Duplicates:    1,
		LeftRotations: 2,
		Recolors:      1,
	}, tree.Stats())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	scope := RBTreeStatsName + "/metrics"
	require.Equal(t, int64(5), sumOf(t, findMetric(rm, scope, "rbtree.insert.count")))
	require.Equal(t, int64(1), sumOf(t, findMetric(rm, scope, "rbtree.insert.duplicate.count")))
	require.Equal(t, int64(1), sumOf(t, findMetric(rm, scope, "rbtree.recolor.count")))
	require.Equal(t, int64(5), sumOf(t, findMetric(rm, scope, "rbtree.element.count")))
	rotate := findMetric(rm, scope, "rbtree.rotate.count")
	require.Equal(t, int64(2), sumOf(t, rotate, attribute.String("direction", "left")))
	require.Equal(t, int64(0), sumOf(t, rotate, attribute.String("direction", "right")))

	clone := tree.Clone()
	tree.Release()
	rm = metricdata.ResourceMetrics{}
	require.NoError(t, reader.Collect(context.Background(), &rm))
	// The clone shares the instruments of the same meter name.
	require.Equal(t, int64(5), sumOf(t, findMetric(rm, scope, "rbtree.element.count")))
	clone.Release()
	rm = metricdata.ResourceMetrics{}
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Equal(t, int64(0), sumOf(t, findMetric(rm, scope, "rbtree.element.count")))
}

func TestRBTreeStats_Nil(t *testing.T) {
	var stats *rbTreeStats
	require.NotPanics(t, func() {
		stats.RecordInsert()
		stats.RecordDuplicate()
		stats.RecordRotate(Left)
		stats.RecordRecolor()
		stats.RecordRelease(1)
		stats.RecordClone(1)
	})
	require.Equal(t, RBTreeStats{}, stats.snapshot())
}
