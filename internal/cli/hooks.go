package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tierpack/pkg/observability"
)

// buildLog reports stage and bundler activity at debug level.
type buildLog struct {
	logger *log.Logger
}

var _ observability.BuildHooks = buildLog{}

func (h buildLog) OnStageStart(_ context.Context, stage string) {
	h.logger.Debug("stage started", "stage", stage)
}

func (h buildLog) OnStageComplete(_ context.Context, stage string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("stage failed", "stage", stage, "duration", d.Round(time.Millisecond), "err", err)
		return
	}
	h.logger.Debug("stage complete", "stage", stage, "duration", d.Round(time.Millisecond))
}

func (h buildLog) OnBundleStart(_ context.Context, tier, key string) {
	h.logger.Debug("bundle started", "tier", tier, "key", key)
}

func (h buildLog) OnBundleComplete(_ context.Context, tier, key string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("bundle failed", "tier", tier, "key", key, "duration", d.Round(time.Millisecond), "err", err)
		return
	}
	h.logger.Debug("bundle complete", "tier", tier, "key", key, "duration", d.Round(time.Millisecond))
}

// ledgerLog reports ledger file activity at debug level.
type ledgerLog struct {
	logger *log.Logger
}

var _ observability.LedgerHooks = ledgerLog{}

func (h ledgerLog) OnLedgerLoad(path string, entries int) {
	h.logger.Debug("ledger loaded", "file", filepath.Base(path), "entries", entries)
}

func (h ledgerLog) OnLedgerRecord(path string, id int) {
	h.logger.Debug("ledger record", "file", filepath.Base(path), "id", id)
}

func (h ledgerLog) OnLedgerClear(path string) {
	h.logger.Debug("ledger cleared", "file", filepath.Base(path))
}
