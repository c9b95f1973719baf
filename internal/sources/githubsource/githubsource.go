// Package githubsource adapts polling the GitHub issues API into a
// reactive source stream, following the google/go-github client and
// rate-limit-checking idiom used for forge providers elsewhere in this
// codebase: list on an interval, track a watermark, and fire only
// issues updated since the last poll.
package githubsource

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/go-github/v69/github"

	"github.com/nugget/reactived/internal/reactive"
)

// rateLimitWarningThreshold triggers a log warning when the remaining
// rate limit drops below this value.
const rateLimitWarningThreshold = 100

// Source polls Owner/Repo's issues on Interval and fires each issue
// whose UpdatedAt advances past the high-water mark recorded from the
// previous poll. It implements reactive.Source[*github.Issue].
type Source struct {
	Client   *github.Client
	Owner    string
	Repo     string
	Interval time.Duration
	Logger   *slog.Logger

	mu        sync.Mutex
	watermark time.Time
	cancel    context.CancelFunc
	handle    reactive.SourceHandle[*github.Issue]
}

// New constructs a Source. client should already carry authentication
// (github.NewClient(httpClient).WithAuthToken(token)).
func New(client *github.Client, owner, repo string, interval time.Duration) *Source {
	return &Source{
		Client:   client,
		Owner:    owner,
		Repo:     repo,
		Interval: interval,
		Logger:   slog.Default(),
	}
}

// Start implements reactive.Source: it runs the poll loop on a
// background goroutine, ticking every Interval, until Stop cancels it.
func (s *Source) Start(h reactive.SourceHandle[*github.Issue]) {
	s.handle = h
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	if s.Interval <= 0 {
		s.Interval = time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	go s.pollLoop(ctx)
}

func (s *Source) pollLoop(ctx context.Context) {
	// Poll once immediately so the first observer doesn't wait a full
	// interval for an initial batch.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pollOnce(ctx)
		}
	}
}

func (s *Source) pollOnce(ctx context.Context) {
	s.mu.Lock()
	since := s.watermark
	s.mu.Unlock()

	opts := &github.IssueListByRepoOptions{
		Sort:        "updated",
		Direction:   "asc",
		Since:       since,
		ListOptions: github.ListOptions{PerPage: 50},
	}

	issues, resp, err := s.Client.Issues.ListByRepo(ctx, s.Owner, s.Repo, opts)
	if err != nil {
		s.handle.FireError(&reactive.SourceError{Cause: err})
		return
	}
	s.checkRate(resp)

	var newest time.Time
	for _, issue := range issues {
		if issue.PullRequestLinks != nil {
			continue // ListByRepo also returns PRs; skip them.
		}
		updated := issue.GetUpdatedAt().Time
		if !updated.After(since) {
			continue
		}
		if updated.After(newest) {
			newest = updated
		}
		s.handle.Fire(issue)
	}

	if !newest.IsZero() {
		s.mu.Lock()
		s.watermark = newest
		s.mu.Unlock()
	}
}

func (s *Source) checkRate(resp *github.Response) {
	if resp == nil {
		return
	}
	remaining := resp.Rate.Remaining
	if remaining > 0 && remaining < rateLimitWarningThreshold {
		s.Logger.Warn("github rate limit low",
			"remaining", remaining,
			"limit", resp.Rate.Limit,
			"reset", resp.Rate.Reset.Format(time.RFC3339),
		)
	}
}

// Stop implements reactive.Source: it cancels the poll loop's context.
func (s *Source) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}
