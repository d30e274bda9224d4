package tree

import (
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/lib/xlog"
)

// Audit validates the tree and reports to the logger, one error entry
// per violation and an info summary. It returns the combined violations.
func Audit[K infra.OrderedKey, E any](tree RBTree[K, E], logger xlog.XLogger) error {
	err := Validate(tree)
	violations := multierr.Errors(err)
	for _, violation := range violations {
		logger.ErrorStack(violation, "rbtree violation",
			zap.Int64("len", tree.Len()),
		)
	}

	fields := []zap.Field{
		zap.Int64("len", tree.Len()),
		zap.Int("violations", len(violations)),
	}
	if err == nil {
		// The walks may not terminate on a broken tree.
		fields = append(fields,
			zap.Int("height", tree.Height()),
			zap.Int("blackHeight", BlackHeight(tree)),
		)
	}
	if stats := tree.Stats(); stats.Inserts > 0 {
		fields = append(fields,
			zap.Int64("inserts", stats.Inserts),
			zap.Int64("duplicates", stats.Duplicates),
			zap.Int64("leftRotations", stats.LeftRotations),
			zap.Int64("rightRotations", stats.RightRotations),
			zap.Int64("recolors", stats.Recolors),
		)
	}
	logger.Info("rbtree audit", fields...)
	return err
}
