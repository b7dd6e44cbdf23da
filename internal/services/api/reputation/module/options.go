package module

import (
	"strings"
	"time"

	"callerid/internal/core/scoring"
	"callerid/internal/platform/config"
)

// Store backends
const (
	StorePG     = "pg"
	StoreMemory = "memory"
)

// Options controls reputation scoring and storage
type Options struct {
	Policy           scoring.Policy
	Store            string
	StatementTimeout time.Duration
	TxAttempts       int
	Curators         []string
}

// FromConfig reads REPUTATION_* values from process config/env
func FromConfig(cfg config.Conf) Options {
	rc := cfg.Prefix("REPUTATION_")
	return Options{
		Policy: scoring.Policy{
			Threshold:  rc.MayInt("SPAM_THRESHOLD", scoring.DefaultThreshold),
			Cutoff:     rc.MayInt("SPAM_CUTOFF", scoring.DefaultCutoff),
			BlockNudge: rc.MayInt("BLOCK_NUDGE", scoring.DefaultBlockNudge),
		},
		Store:            strings.ToLower(rc.MayEnum("STORE", StorePG, StorePG, StoreMemory)),
		StatementTimeout: rc.MayDuration("STATEMENT_TIMEOUT", 2*time.Second),
		TxAttempts:       rc.MayInt("TX_ATTEMPTS", 3),
		Curators:         rc.MayCSV("CURATORS", nil),
	}
}
