package crawler

import (
	"go.uber.org/zap"

	"github.com/JakeFAU/roster-crawler/internal/metrics"
	"github.com/JakeFAU/roster-crawler/internal/parser"
	"github.com/JakeFAU/roster-crawler/internal/roster"
)

// RejectionLogger returns a parser.Observer that logs and counts rejected links for mode.
func RejectionLogger(logger *zap.Logger, mode roster.Mode) parser.Observer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(r parser.Rejection) {
		reason := parser.ReasonLabel(r.Reason)
		metrics.ObserveRejection(string(mode), reason)
		logger.Info("link rejected",
			zap.String("mode", string(mode)),
			zap.String("reason", reason),
			zap.String("text", r.Text),
			zap.String("href", r.Href),
		)
	}
}
