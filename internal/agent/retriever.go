package agent

import (
	"context"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

// pollRetrievals drives the retrieval loop: one pass immediately, then
// one per interval until the context ends.
func (a *DMTAgent) pollRetrievals(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.processPendingRetrievals(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.processPendingRetrievals(ctx)
		}
	}
}

// processPendingRetrievals hands each pending request to the external
// tape command, skipping any that would pull more than the configured
// byte cap off tape in one go.
func (a *DMTAgent) processPendingRetrievals(ctx context.Context) {
	pending, err := a.st.ListPendingRetrievalRequests(ctx)
	if err != nil {
		a.log.Error("failed to list pending retrieval requests: %s", err)
		return
	}

	for i := range pending {
		req := &pending[i]

		size, err := a.retrievals.RetrievalSize(ctx, req)
		if err != nil {
			a.log.Error("failed to size retrieval request %d: %s", req.ID, err)
			continue
		}
		if size > a.cfg.Agent.MaxRetrievalBytes {
			a.log.Warn("skipping retrieval request %d: %s exceeds the %s cap",
				req.ID, humanize.IBytes(uint64(size)),
				humanize.IBytes(uint64(a.cfg.Agent.MaxRetrievalBytes)))
			continue
		}

		a.log.Info("starting retrieval request %d (%s)",
			req.ID, humanize.IBytes(uint64(size)))
		err = a.runner.Run(ctx, a.cfg.Agent.RetrieveCommand,
			"-r", strconv.FormatUint(uint64(req.ID), 10))
		if err != nil {
			a.log.Error("retrieval request %d failed: %s", req.ID, err)
			continue
		}

		now := time.Now().UTC()
		req.DateComplete = &now
		if err := a.st.UpdateRetrievalRequest(ctx, req); err != nil {
			a.log.Error("failed to mark retrieval request %d complete: %s", req.ID, err)
		}
	}
}
