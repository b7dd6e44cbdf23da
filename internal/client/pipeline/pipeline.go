// Package pipeline answers "who is calling" on the device. It tries the address
// book, then the result cache, then the server under a hard timeout, and
// otherwise falls back to an unknown result
package pipeline

import (
	"context"
	"time"

	"callerid/internal/client/contacts"
	"callerid/internal/client/resultcache"
	"callerid/internal/core/normalize"
	"callerid/internal/platform/logger"
	"callerid/internal/platform/metrics"
	rdom "callerid/internal/services/api/reputation/domain"
)

// Source is the tier that produced a result
type Source string

// Sources
const (
	SourceDevice  Source = "device"
	SourceCache   Source = "cache"
	SourceRemote  Source = "remote"
	SourceUnknown Source = "unknown"
)

// UnknownName is shown when nothing identifies the number
const UnknownName = "Unknown Number"

// Result is what call screening displays
type Result struct {
	Number    string          `json:"number"`
	Name      string          `json:"name"`
	Photo     string          `json:"photo,omitempty"`
	Type      rdom.ResultType `json:"type,omitempty"`
	Verified  bool            `json:"verified,omitempty"`
	IsSpam    bool            `json:"is_spam"`
	SpamScore int             `json:"spam_score,omitempty"`
	Reports   int             `json:"spam_reports,omitempty"`
	Tags      []string        `json:"tags,omitempty"`
	Location  string          `json:"location,omitempty"`
	Source    Source          `json:"source"`
}

// Contacts is the local address book index
type Contacts interface {
	Lookup(key string) (contacts.Entry, bool)
}

// Identifier is the remote identify call
type Identifier interface {
	Identify(ctx context.Context, number string) (rdom.Identification, error)
}

// Options wires the tiers. Contacts and Cache may be nil
type Options struct {
	Contacts Contacts
	Cache    resultcache.Cache
	Remote   Identifier
	// Timeout bounds the remote tier; zero means 3s
	Timeout time.Duration
	Metrics *metrics.Client
}

// Pipeline resolves numbers through the tiers
type Pipeline struct {
	contacts Contacts
	cache    resultcache.Cache
	remote   Identifier
	timeout  time.Duration
	metrics  *metrics.Client
}

// New builds a pipeline. Remote is required
func New(opts Options) *Pipeline {
	if opts.Remote == nil {
		panic("pipeline: nil remote")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	return &Pipeline{
		contacts: opts.Contacts,
		cache:    opts.Cache,
		remote:   opts.Remote,
		timeout:  opts.Timeout,
		metrics:  opts.Metrics,
	}
}

// Resolve identifies raw. The only error is an invalid number; every lookup
// failure past that becomes the unknown fallback
func (p *Pipeline) Resolve(ctx context.Context, raw string) (Result, error) {
	key, err := normalize.Key(raw)
	if err != nil {
		return Result{}, err
	}

	if p.contacts != nil {
		if e, ok := p.contacts.Lookup(key); ok {
			p.metrics.IncResolution(string(SourceDevice))
			return Result{Number: key, Name: e.Name, Photo: e.Photo, Source: SourceDevice}, nil
		}
	}

	if p.cache != nil {
		if id, ok := p.cache.Get(ctx, key); ok {
			return p.answer(key, id, SourceCache), nil
		}
	}

	id, err := p.identify(ctx, key)
	if err != nil {
		logger.C(ctx).Debug().Err(err).Str("number", key).Msg("remote identify failed, using fallback")
		return p.fallback(key, ""), nil
	}
	// Not-found replies are cached like any other; answer turns them into the fallback
	if p.cache != nil {
		p.cache.Put(ctx, key, id)
	}
	return p.answer(key, id, SourceRemote), nil
}

// identify runs the remote call under the hard timeout. The call is abandoned,
// not awaited, once the deadline passes
func (p *Pipeline) identify(ctx context.Context, key string) (rdom.Identification, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	type reply struct {
		id  rdom.Identification
		err error
	}
	ch := make(chan reply, 1)
	go func() {
		id, err := p.remote.Identify(ctx, key)
		ch <- reply{id, err}
	}()

	select {
	case r := <-ch:
		return r.id, r.err
	case <-ctx.Done():
		return rdom.Identification{}, ctx.Err()
	}
}

func (p *Pipeline) answer(key string, id rdom.Identification, src Source) Result {
	if !id.Found {
		return p.fallback(key, id.Type)
	}
	p.metrics.IncResolution(string(src))
	return Result{
		Number:    key,
		Name:      id.Name,
		Photo:     id.Photo,
		Type:      id.Type,
		Verified:  id.Verified,
		IsSpam:    id.IsSpam,
		SpamScore: id.SpamScore,
		Reports:   id.SpamReports,
		Tags:      id.Tags,
		Location:  id.Location,
		Source:    src,
	}
}

func (p *Pipeline) fallback(key string, typ rdom.ResultType) Result {
	p.metrics.IncResolution(string(SourceUnknown))
	if typ == "" {
		typ = rdom.TypeUnknown
	}
	return Result{Number: key, Name: UnknownName, Type: typ, Source: SourceUnknown}
}
