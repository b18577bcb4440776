package scraper

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/pkg/logger"
	"github.com/nimasrn/repair-desk/pkg/prom"
)

// Store persists scraped parts, matching existing rows by part number.
type Store interface {
	Upsert(ctx context.Context, p *model.SparePart) (*model.SparePart, bool, error)
}

type Options struct {
	MinDelay time.Duration
	MaxDelay time.Duration
	// MaxPageFailures is the number of failed pages a run tolerates.
	MaxPageFailures int
	// MaxProductFailureRatio is the tolerated share of failed products.
	MaxProductFailureRatio float64
}

type Result struct {
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Pages        int       `json:"pages"`
	PagesFailed  int       `json:"pages_failed"`
	ProductsSeen int       `json:"products_seen"`
	Created      int       `json:"created"`
	Updated      int       `json:"updated"`
	Failed       int       `json:"failed"`
	Errors       []string  `json:"errors"`
	Success      bool      `json:"success"`
	Cancelled    bool      `json:"cancelled"`
}

func (r *Result) addError(err error) {
	r.Errors = append(r.Errors, err.Error())
}

type Scraper struct {
	fetcher Fetcher
	store   Store
	opts    Options

	mu   sync.Mutex
	rand *rand.Rand
}

func New(fetcher Fetcher, store Store, opts Options) *Scraper {
	if opts.MaxDelay < opts.MinDelay {
		opts.MaxDelay = opts.MinDelay
	}
	if opts.MaxProductFailureRatio <= 0 {
		opts.MaxProductFailureRatio = 0.2
	}
	return &Scraper{
		fetcher: fetcher,
		store:   store,
		opts:    opts,
		rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run scrapes every site sequentially. Failures of single pages or products
// are collected in the result; the error is only set when the run could not
// happen at all.
func (s *Scraper) Run(ctx context.Context, sites []Site) (*Result, error) {
	res := &Result{StartedAt: time.Now().UTC(), Errors: []string{}}
	first := true

	for i := range sites {
		site := &sites[i]
		created, updated, failed := res.Created, res.Updated, res.Failed
		for _, listing := range site.Manufacturers {
			url := site.URL(listing.Path)
			for n := 0; n < site.MaxPages && url != ""; n++ {
				if !first {
					if err := s.wait(ctx); err != nil {
						res.Cancelled = true
						return s.finish(res), nil
					}
				}
				first = false
				url = s.scrapePage(ctx, site, listing.Name, url, res)
			}
		}
		prom.AddScrapedParts(site.Supplier, (res.Created-created)+(res.Updated-updated), res.Failed-failed)
		logger.Info("supplier scraped",
			"supplier", site.Supplier,
			"created", res.Created-created,
			"updated", res.Updated-updated,
			"failed", res.Failed-failed)
	}
	return s.finish(res), nil
}

// scrapePage processes one listing page and returns the next page url.
func (s *Scraper) scrapePage(ctx context.Context, site *Site, manufacturer, url string, res *Result) string {
	res.Pages++
	body, err := s.fetcher.Fetch(ctx, url, site.Headers)
	if err != nil {
		res.PagesFailed++
		res.addError(err)
		logger.Warn("page fetch failed", "supplier", site.Supplier, "url", url, "error", err)
		return ""
	}
	p, err := parsePage(site, manufacturer, body)
	if err != nil {
		res.PagesFailed++
		res.addError(fmt.Errorf("%s: %w", url, err))
		return ""
	}

	res.ProductsSeen += p.seen
	res.Failed += len(p.errs)
	for _, e := range p.errs {
		res.addError(e)
	}
	for _, part := range p.parts {
		_, created, err := s.store.Upsert(ctx, part)
		if err != nil {
			res.Failed++
			res.addError(fmt.Errorf("upsert %s: %w", part.PartNumber, err))
			continue
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}
	return p.next
}

func (s *Scraper) finish(res *Result) *Result {
	res.FinishedAt = time.Now().UTC()
	res.Success = !res.Cancelled && successful(res, s.opts)
	return res
}

func successful(res *Result, opts Options) bool {
	if res.PagesFailed > opts.MaxPageFailures {
		return false
	}
	if res.ProductsSeen == 0 {
		return res.PagesFailed == 0
	}
	return float64(res.Failed) <= opts.MaxProductFailureRatio*float64(res.ProductsSeen)
}

func (s *Scraper) wait(ctx context.Context) error {
	d := s.delay()
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Scraper) delay() time.Duration {
	span := s.opts.MaxDelay - s.opts.MinDelay
	if span <= 0 {
		return s.opts.MinDelay
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts.MinDelay + time.Duration(s.rand.Int63n(int64(span)))
}
