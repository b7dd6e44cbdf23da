// Package service implements private block relations
package service

import (
	"context"
	"strings"

	"callerid/internal/core/normalize"
	"callerid/internal/modkit/repokit"
	perr "callerid/internal/platform/errors"
	"callerid/internal/platform/logger"
	"callerid/internal/platform/metrics"
	"callerid/internal/services/api/blocks/domain"
)

// Activity kinds written to the activity log
const (
	ActivityBlock   = "block"
	ActivityUnblock = "unblock"
)

// Svc implements domain.ServicePort
type Svc struct {
	db       repokit.TxRunner
	binder   repokit.Binder[domain.Repo]
	nudger   domain.NudgePort
	activity domain.ActivityPort
	metrics  *metrics.Metrics
}

var _ domain.ServicePort = (*Svc)(nil)

// Options control service behavior
type Options struct {
	// Nudger is required for also_report blocks
	Nudger domain.NudgePort

	// Activity is optional
	Activity domain.ActivityPort

	// Metrics is optional
	Metrics *metrics.Metrics
}

// New constructs the service
func New(db repokit.TxRunner, binder repokit.Binder[domain.Repo], opt Options) *Svc {
	if db == nil {
		panic("blocks.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("blocks.Service requires a non nil Repo binder")
	}
	if opt.Nudger == nil {
		panic("blocks.Service requires a non nil NudgePort (reputation)")
	}
	return &Svc{db: db, binder: binder, nudger: opt.Nudger, activity: opt.Activity, metrics: opt.Metrics}
}

// Block records the relation. Repeating a block succeeds without change. With
// AlsoReport the number's score is nudged once per owner, ever
func (s *Svc) Block(ctx context.Context, in domain.BlockInput) (domain.BlockOutput, error) {
	key, err := normalize.Key(in.Number)
	if err != nil {
		return domain.BlockOutput{}, err
	}
	owner := strings.TrimSpace(in.OwnerID)
	if owner == "" {
		return domain.BlockOutput{}, perr.Unauthorizedf("missing owner identity")
	}

	created, err := s.binder.Bind(s.db).Upsert(ctx, domain.Block{
		OwnerID: owner,
		Number:  key,
		Reason:  normalize.Name(in.Reason),
	})
	if err != nil {
		return domain.BlockOutput{}, writeErr(ctx, err, "block")
	}

	out := domain.BlockOutput{Success: true}
	if created {
		s.metrics.IncBlock("block")
		s.record(ctx, ActivityBlock, key, owner, in.Reason)
	}
	if in.AlsoReport {
		out.Nudged = s.nudge(ctx, owner, key)
	}
	return out, nil
}

// nudge raises the score at most once per owner and number, however often the
// owner blocks and unblocks. A nudge that fails gives its claim back so the
// next also_report block retries it
func (s *Svc) nudge(ctx context.Context, owner, key string) bool {
	r := s.binder.Bind(s.db)
	claimed, err := r.ClaimNudge(ctx, owner, key)
	if err != nil {
		logger.C(ctx).Warn().Err(err).Str("number", key).Msg("block nudge claim failed")
		return false
	}
	if !claimed {
		return false
	}
	if _, err := s.nudger.Nudge(ctx, key); err != nil {
		logger.C(ctx).Warn().Err(err).Str("number", key).Msg("block nudge failed")
		if err := r.ReleaseNudge(ctx, owner, key); err != nil {
			logger.C(ctx).Error().Err(err).Str("number", key).Msg("block nudge release failed")
		}
		return false
	}
	return true
}

// Unblock deletes the relation or fails with ErrNotBlocked
func (s *Svc) Unblock(ctx context.Context, in domain.UnblockInput) (domain.UnblockOutput, error) {
	key, err := normalize.Key(in.Number)
	if err != nil {
		return domain.UnblockOutput{}, err
	}
	owner := strings.TrimSpace(in.OwnerID)
	if owner == "" {
		return domain.UnblockOutput{}, perr.Unauthorizedf("missing owner identity")
	}

	removed, err := s.binder.Bind(s.db).Delete(ctx, owner, key)
	if err != nil {
		return domain.UnblockOutput{}, writeErr(ctx, err, "unblock")
	}
	if !removed {
		return domain.UnblockOutput{}, domain.ErrNotBlocked
	}
	s.metrics.IncBlock("unblock")
	s.record(ctx, ActivityUnblock, key, owner, "")
	return domain.UnblockOutput{Success: true}, nil
}

// List returns every number the owner blocked
func (s *Svc) List(ctx context.Context, ownerID string) (domain.ListOutput, error) {
	owner := strings.TrimSpace(ownerID)
	if owner == "" {
		return domain.ListOutput{}, perr.Unauthorizedf("missing owner identity")
	}
	items, err := s.binder.Bind(s.db).List(ctx, owner)
	if err != nil {
		return domain.ListOutput{}, writeErr(ctx, err, "list blocks")
	}
	if items == nil {
		items = []domain.Block{}
	}
	return domain.ListOutput{Items: items}, nil
}

func (s *Svc) record(ctx context.Context, kind, number, actor, detail string) {
	if s.activity != nil {
		s.activity.Record(ctx, kind, number, actor, detail)
	}
}

func writeErr(ctx context.Context, err error, op string) error {
	if ctx.Err() != nil {
		return perr.FromContext(ctx.Err(), op)
	}
	if _, ok := perr.As(err); ok {
		return perr.WithOp(err, op)
	}
	return perr.FromPostgres(err, op)
}
