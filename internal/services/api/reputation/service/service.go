// Package service implements identification, the vote ledger flows and name resolution
package service

import (
	"context"
	"slices"
	"strings"

	"callerid/internal/core/normalize"
	"callerid/internal/core/scoring"
	"callerid/internal/modkit/repokit"
	perr "callerid/internal/platform/errors"
	"callerid/internal/platform/logger"
	"callerid/internal/platform/metrics"
	"callerid/internal/platform/store"
	"callerid/internal/services/api/reputation/domain"

	"github.com/google/uuid"
)

// Service is the public service port
type Service interface {
	domain.ServicePort
	domain.NudgePort
	domain.SightingPort
}

// Activity kinds written to the activity log
const (
	ActivityReport  = "report"
	ActivityRetract = "retract"
	ActivityNudge   = "nudge"
	ActivityCurate  = "curate"
)

// Svc implements Service
type Svc struct {
	db       repokit.TxRunner
	binder   repokit.Binder[domain.Repo]
	policy   scoring.Policy
	idents   domain.IdentityLookup
	enqueuer domain.EnqueuePort
	activity domain.ActivityPort
	metrics  *metrics.Metrics
}

var _ Service = (*Svc)(nil)

// Options control service behavior
type Options struct {
	Policy scoring.Policy

	// Identities is required
	Identities domain.IdentityLookup

	// Enqueuer is optional; without it contact syncs are applied inline
	Enqueuer domain.EnqueuePort

	// Activity is optional
	Activity domain.ActivityPort

	// Metrics is optional
	Metrics *metrics.Metrics
}

// New constructs the service
func New(db repokit.TxRunner, binder repokit.Binder[domain.Repo], opt Options) *Svc {
	if db == nil {
		panic("reputation.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("reputation.Service requires a non nil Repo binder")
	}
	if opt.Identities == nil {
		panic("reputation.Service requires a non nil IdentityLookup")
	}
	return &Svc{
		db:       db,
		binder:   binder,
		policy:   opt.Policy,
		idents:   opt.Identities,
		enqueuer: opt.Enqueuer,
		activity: opt.Activity,
		metrics:  opt.Metrics,
	}
}

// Identify resolves a raw number. Precedence is spam, registered user, crowd, unknown
func (s *Svc) Identify(ctx context.Context, in domain.IdentifyInput) (domain.Identification, error) {
	key, err := normalize.Key(in.Number)
	if err != nil {
		return domain.Identification{}, err
	}

	rec, found, err := s.lookup(ctx, key)
	if err != nil {
		return domain.Identification{}, err
	}

	out, err := s.classify(ctx, key, rec, found)
	if err != nil {
		return domain.Identification{}, err
	}
	s.metrics.IncIdentify(string(out.Type))
	return out, nil
}

func (s *Svc) classify(ctx context.Context, key string, rec domain.Record, found bool) (domain.Identification, error) {
	if found {
		score := s.policy.Effective(rec.VoteCount, rec.BlockBonus, rec.ManualScore)
		if s.policy.SpamSignal(rec.VoteCount, score) {
			name := rec.LikelyName
			if name == "" {
				name = domain.SpamFallbackName
			}
			return domain.Identification{
				Found:       true,
				Type:        domain.TypeSpam,
				Number:      key,
				Name:        name,
				IsSpam:      true,
				SpamScore:   score,
				SpamReports: rec.VoteCount,
				Tags:        slices.Clone(rec.Tags),
			}, nil
		}
	}

	ident, ok, err := s.idents.ByNumber(ctx, key)
	if err != nil {
		return domain.Identification{}, err
	}
	if ok {
		if ident.HideCallerID {
			return domain.Identification{Found: false, Type: domain.TypePrivate, Number: key}, nil
		}
		return domain.Identification{
			Found:    true,
			Type:     domain.TypeUser,
			Number:   key,
			Name:     ident.DisplayName,
			Photo:    ident.PhotoURL,
			Verified: true,
		}, nil
	}

	if found {
		return domain.Identification{
			Found:     true,
			Type:      domain.TypeCrowd,
			Number:    key,
			Name:      rec.LikelyName,
			Location:  rec.Location,
			SpamScore: s.policy.Effective(rec.VoteCount, rec.BlockBonus, rec.ManualScore),
		}, nil
	}
	return domain.Identification{Found: false, Type: domain.TypeUnknown, Number: key}, nil
}

func (s *Svc) lookup(ctx context.Context, key string) (domain.Record, bool, error) {
	rec, err := s.binder.Bind(s.db).Get(ctx, key)
	if store.IsNotFound(err) {
		return domain.Record{}, false, nil
	}
	if err != nil {
		return domain.Record{}, false, storeErr(ctx, err, "load record")
	}
	return rec, true, nil
}

// Report casts one vote. A second vote by the same reporter fails with ErrDuplicateVote
func (s *Svc) Report(ctx context.Context, in domain.ReportInput) (domain.ReportOutput, error) {
	key, err := normalize.Key(in.Number)
	if err != nil {
		return domain.ReportOutput{}, err
	}
	reporter := strings.TrimSpace(in.ReporterID)
	if reporter == "" {
		return domain.ReportOutput{}, perr.Unauthorizedf("missing reporter identity")
	}
	tag := normalize.Name(in.Tag)
	if tag == "" {
		return domain.ReportOutput{}, perr.WithField(perr.InvalidArgf("tag is required"), "tag")
	}

	var total int
	err = s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		if err := r.Ensure(ctx, key); err != nil {
			return err
		}
		rec, err := r.Lock(ctx, key)
		if err != nil {
			return err
		}
		inserted, err := r.InsertVote(ctx, domain.Vote{
			ID:         uuid.NewString(),
			Number:     key,
			ReporterID: reporter,
			Tag:        tag,
			Comment:    strings.TrimSpace(in.Comment),
			Location:   normalize.Name(in.Location),
		})
		if err != nil {
			return err
		}
		if !inserted {
			return domain.ErrDuplicateVote
		}
		if total, err = r.CountVotes(ctx, key); err != nil {
			return err
		}
		rec.VoteCount = total
		rec.SpamScore = s.policy.Effective(total, rec.BlockBonus, rec.ManualScore)
		if !rec.HasTag(tag) {
			rec.Tags = append(rec.Tags, tag)
		}
		if loc := normalize.Name(in.Location); loc != "" {
			rec.Location = loc
		}
		return r.Save(ctx, rec)
	})
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeDuplicateKey) {
			s.metrics.IncVote("duplicate")
			return domain.ReportOutput{}, domain.ErrDuplicateVote
		}
		return domain.ReportOutput{}, storeErr(ctx, err, "report spam")
	}

	s.metrics.IncVote("cast")
	s.record(ctx, ActivityReport, key, reporter, tag)
	return domain.ReportOutput{Success: true, TotalVotes: total}, nil
}

// Retract deletes the reporter's vote when present and recomputes the score
func (s *Svc) Retract(ctx context.Context, in domain.RetractInput) (domain.RetractOutput, error) {
	key, err := normalize.Key(in.Number)
	if err != nil {
		return domain.RetractOutput{}, err
	}
	reporter := strings.TrimSpace(in.ReporterID)
	if reporter == "" {
		return domain.RetractOutput{}, perr.Unauthorizedf("missing reporter identity")
	}

	var (
		score   int
		removed bool
	)
	err = s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		rec, err := r.Lock(ctx, key)
		if store.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if removed, err = r.DeleteVote(ctx, key, reporter); err != nil {
			return err
		}
		total, err := r.CountVotes(ctx, key)
		if err != nil {
			return err
		}
		rec.VoteCount = total
		rec.SpamScore = s.policy.Effective(total, rec.BlockBonus, rec.ManualScore)
		score = rec.SpamScore
		return r.Save(ctx, rec)
	})
	if err != nil {
		return domain.RetractOutput{}, storeErr(ctx, err, "retract vote")
	}

	if removed {
		s.metrics.IncVote("retracted")
		s.record(ctx, ActivityRetract, key, reporter, "")
	}
	return domain.RetractOutput{Success: true, NewScore: score}, nil
}

// Nudge raises a number's score by the block increment without touching the ledger
func (s *Svc) Nudge(ctx context.Context, number string) (int, error) {
	key, err := normalize.Key(number)
	if err != nil {
		return 0, err
	}
	var score int
	err = s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		if err := r.Ensure(ctx, key); err != nil {
			return err
		}
		rec, err := r.Lock(ctx, key)
		if err != nil {
			return err
		}
		rec.BlockBonus = s.policy.Nudge(rec.VoteCount, rec.BlockBonus)
		rec.SpamScore = s.policy.Effective(rec.VoteCount, rec.BlockBonus, rec.ManualScore)
		score = rec.SpamScore
		return r.Save(ctx, rec)
	})
	if err != nil {
		return 0, storeErr(ctx, err, "nudge score")
	}
	s.record(ctx, ActivityNudge, key, "", "")
	return score, nil
}

// Record returns the full aggregate for a number
func (s *Svc) Record(ctx context.Context, number string) (domain.Record, error) {
	key, err := normalize.Key(number)
	if err != nil {
		return domain.Record{}, err
	}
	rec, found, err := s.lookup(ctx, key)
	if err != nil {
		return domain.Record{}, err
	}
	if !found {
		return domain.Record{}, perr.NotFoundf("no reputation for %s", key)
	}
	return rec, nil
}

// Curate sets or clears the curated score and refreshes the stored effective score
func (s *Svc) Curate(ctx context.Context, in domain.CurateInput) (domain.Record, error) {
	key, err := normalize.Key(in.Number)
	if err != nil {
		return domain.Record{}, err
	}
	if in.Score != nil && (*in.Score < 0 || *in.Score > scoring.MaxScore) {
		return domain.Record{}, perr.WithField(perr.InvalidArgf("score must be between 0 and 100"), "score")
	}

	var out domain.Record
	err = s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		if err := r.Ensure(ctx, key); err != nil {
			return err
		}
		if err := r.SetManualScore(ctx, key, in.Score); err != nil {
			return err
		}
		rec, err := r.Lock(ctx, key)
		if err != nil {
			return err
		}
		rec.SpamScore = s.policy.Effective(rec.VoteCount, rec.BlockBonus, rec.ManualScore)
		if err := r.Save(ctx, rec); err != nil {
			return err
		}
		out = rec
		return nil
	})
	if err != nil {
		return domain.Record{}, storeErr(ctx, err, "curate score")
	}
	s.record(ctx, ActivityCurate, key, "", "")
	return out, nil
}

// SyncContactNames normalizes entries and hands them to the name sync queue.
// Entries with an invalid number or blank name are skipped
func (s *Svc) SyncContactNames(ctx context.Context, in domain.SyncInput) (domain.SyncOutput, error) {
	batch := make([]domain.Sighting, 0, len(in.Entries))
	for _, e := range in.Entries {
		key, err := normalize.Key(e.Number)
		if err != nil {
			continue
		}
		name := normalize.Name(e.Name)
		if name == "" {
			continue
		}
		batch = append(batch, domain.Sighting{Number: key, Name: name})
	}
	if len(batch) == 0 {
		return domain.SyncOutput{}, nil
	}

	if s.enqueuer != nil {
		return domain.SyncOutput{Count: s.enqueuer.Enqueue(ctx, batch)}, nil
	}

	n, err := s.ApplySightings(ctx, batch)
	if err != nil {
		logger.C(ctx).Warn().Err(err).Int("entries", len(batch)).Msg("contact name sync failed")
	}
	return domain.SyncOutput{Count: n}, nil
}

// ApplySightings feeds each sighting through plurality name resolution. Sightings
// for one number are applied in a single transaction; it returns how many were applied
func (s *Svc) ApplySightings(ctx context.Context, batch []domain.Sighting) (int, error) {
	order := make([]string, 0, len(batch))
	grouped := make(map[string][]string, len(batch))
	for _, sg := range batch {
		if _, seen := grouped[sg.Number]; !seen {
			order = append(order, sg.Number)
		}
		grouped[sg.Number] = append(grouped[sg.Number], sg.Name)
	}

	applied := 0
	var firstErr error
	for _, key := range order {
		sightings := grouped[key]
		err := s.db.Tx(ctx, func(q repokit.Queryer) error {
			r := s.binder.Bind(q)
			if err := r.Ensure(ctx, key); err != nil {
				return err
			}
			rec, err := r.Lock(ctx, key)
			if err != nil {
				return err
			}
			rec.Variations = rec.Variations.SightAll(sightings...)
			rec.LikelyName = rec.Variations.Likely()
			return r.Save(ctx, rec)
		})
		if err != nil {
			if firstErr == nil {
				firstErr = storeErr(ctx, err, "apply sightings")
			}
			continue
		}
		applied += len(sightings)
	}
	s.metrics.AddSightings(applied)
	return applied, firstErr
}

func (s *Svc) record(ctx context.Context, kind, number, actor, detail string) {
	if s.activity == nil {
		return
	}
	s.activity.Record(ctx, kind, number, actor, detail)
}

// storeErr keeps project errors, maps context errors to Timeout and anything else to a DB error
func storeErr(ctx context.Context, err error, op string) error {
	if _, ok := perr.As(err); ok {
		return perr.WithOp(err, op)
	}
	if ctx.Err() != nil {
		return perr.FromContext(ctx.Err(), op)
	}
	if mapped := perr.FromContext(err, op); mapped != err {
		return mapped
	}
	return perr.FromPostgres(err, op)
}
