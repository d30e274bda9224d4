package tree

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	RBTreeStatsName = "xtree/rbtree"
)

// RBTreeStats is a snapshot of the rebalancing work done by a tree.
type RBTreeStats struct {
	Inserts        int64
	Duplicates     int64
	LeftRotations  int64
	RightRotations int64
	Recolors       int64
}

// The atomic counters are read by Stats() and may be read by a metrics
// collector while the single writer keeps inserting.
type rbTreeStats struct {
	inserts        atomic.Int64
	duplicates     atomic.Int64
	leftRotations  atomic.Int64
	rightRotations atomic.Int64
	recolors       atomic.Int64
	insertCount    metric.Int64Counter
	duplicateCount metric.Int64Counter
	rotateCount    metric.Int64Counter
	recolorCount   metric.Int64Counter
	elementCount   metric.Int64UpDownCounter
	leftAttrs      metric.AddOption
	rightAttrs     metric.AddOption
}

func (stats *rbTreeStats) RecordInsert() {
	if stats == nil {
		return
	}
	stats.inserts.Add(1)
	stats.insertCount.Add(context.Background(), 1)
	stats.elementCount.Add(context.Background(), 1)
}

func (stats *rbTreeStats) RecordDuplicate() {
	if stats == nil {
		return
	}
	stats.duplicates.Add(1)
	stats.duplicateCount.Add(context.Background(), 1)
}

func (stats *rbTreeStats) RecordRotate(dir RBDirection) {
	if stats == nil {
		return
	}
	switch dir {
	case Left:
		stats.leftRotations.Add(1)
		stats.rotateCount.Add(context.Background(), 1, stats.leftAttrs)
	case Right:
		stats.rightRotations.Add(1)
		stats.rotateCount.Add(context.Background(), 1, stats.rightAttrs)
	default:
	}
}

func (stats *rbTreeStats) RecordRecolor() {
	if stats == nil {
		return
	}
	stats.recolors.Add(1)
	stats.recolorCount.Add(context.Background(), 1)
}

func (stats *rbTreeStats) RecordRelease(freed int64) {
	if stats == nil || freed <= 0 {
		return
	}
	stats.elementCount.Add(context.Background(), -freed)
}

func (stats *rbTreeStats) RecordClone(count int64) {
	if stats == nil || count <= 0 {
		return
	}
	stats.elementCount.Add(context.Background(), count)
}

func (stats *rbTreeStats) snapshot() RBTreeStats {
	if stats == nil {
		return RBTreeStats{}
	}
	return RBTreeStats{
		Inserts:        stats.inserts.Load(),
		Duplicates:     stats.duplicates.Load(),
		LeftRotations:  stats.leftRotations.Load(),
		RightRotations: stats.rightRotations.Load(),
		Recolors:       stats.recolors.Load(),
	}
}

// Instruments are bound to the global meter provider at creation time.
func newRBTreeStats(name string) *rbTreeStats {
	meterName := RBTreeStatsName
	if len(name) > 0 {
		meterName = fmt.Sprintf("%s/%s", RBTreeStatsName, name)
	}
	meter := otel.Meter(meterName)
	return &rbTreeStats{
		insertCount: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"rbtree.insert.count",
			metric.WithDescription("The number of elements inserted into the rbtree."),
		)),
		duplicateCount: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"rbtree.insert.duplicate.count",
			metric.WithDescription("The number of inserts rejected by a duplicate key."),
		)),
		rotateCount: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"rbtree.rotate.count",
			metric.WithDescription("The number of rotations done by the insert rebalance."),
		)),
		recolorCount: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"rbtree.recolor.count",
			metric.WithDescription("The number of red uncle recolorings done by the insert rebalance."),
		)),
		elementCount: lo.Must[metric.Int64UpDownCounter](meter.Int64UpDownCounter(
			"rbtree.element.count",
			metric.WithDescription("The number of elements held by the rbtree."),
		)),
		leftAttrs:  metric.WithAttributeSet(attribute.NewSet(attribute.String("direction", "left"))),
		rightAttrs: metric.WithAttributeSet(attribute.NewSet(attribute.String("direction", "right"))),
	}
}
