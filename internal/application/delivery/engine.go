package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-notification-dispatch/internal/domain"
	"golang.org/x/sync/errgroup"
)

const (
	defaultWorkers = 8
	defaultTimeout = 5 * time.Second
)

// Provider delivers one push message to one address and returns the
// provider's message id.
type Provider interface {
	Send(ctx context.Context, address, title, body string) (string, error)
}

// Unavailable is the Provider used when no push transport could be set up.
// Every send fails with domain.ErrProviderUnavailable.
type Unavailable struct {
	Reason string
}

func (u Unavailable) Send(context.Context, string, string, string) (string, error) {
	if u.Reason == "" {
		return "", domain.ErrProviderUnavailable
	}
	return "", fmt.Errorf("%s: %w", u.Reason, domain.ErrProviderUnavailable)
}

// Options tunes an Engine. Zero values fall back to defaults.
type Options struct {
	Workers int
	Timeout time.Duration
}

// Engine fans one message out to a set of push addresses.
type Engine struct {
	provider Provider
	workers  int
	timeout  time.Duration
}

func NewEngine(provider Provider, opts Options) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Engine{provider: provider, workers: opts.Workers, timeout: opts.Timeout}
}

// Send pushes title/body to every address and aggregates the outcomes.
// It is a no-op when title or body is blank. A failure on one address never
// stops delivery to the others. Once ctx is done no further address is
// contacted; sends already started are allowed to finish.
func (e *Engine) Send(ctx context.Context, addresses []string, title, body string) domain.DeliveryReport {
	report := domain.DeliveryReport{InvalidAddresses: []string{}, Failures: []domain.DeliveryFailure{}}
	if strings.TrimSpace(title) == "" || strings.TrimSpace(body) == "" {
		return report
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(e.workers)
	for _, addr := range dedupe(addresses) {
		if ctx.Err() != nil {
			slog.WarnContext(ctx, "fanout cancelled", "remaining_from", addr, "err", ctx.Err())
			break
		}
		g.Go(func() error {
			// The slot may free up only after cancellation.
			if ctx.Err() != nil {
				return nil
			}
			result := e.sendOne(ctx, addr, title, body)
			mu.Lock()
			defer mu.Unlock()
			record(&report, addr, result)
			return nil
		})
	}
	_ = g.Wait()
	return report
}

// sendOne runs a single provider call under its own timeout. Panics are
// recovered and reported as unknown errors.
func (e *Engine) sendOne(ctx context.Context, addr, title, body string) (result domain.DeliveryResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "push provider panicked", "push_address", addr, "panic", r)
			result = domain.UnknownError{Detail: fmt.Sprintf("provider panic: %v", r)}
		}
	}()

	// In-flight sends are detached from cancellation of the dispatch but keep
	// their own deadline.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()

	msgID, err := e.provider.Send(sendCtx, addr, title, body)
	result = Classify(msgID, err)
	if err != nil {
		slog.WarnContext(ctx, "push delivery failed", "push_address", addr, "purge", result.Purge(), "err", err)
	} else {
		slog.InfoContext(ctx, "push delivered", "push_address", addr, "message_id", msgID)
	}
	return result
}

func record(report *domain.DeliveryReport, addr string, result domain.DeliveryResult) {
	f, failed := failure(addr, result)
	if !failed {
		report.Sent++
		return
	}
	if result.Purge() {
		report.InvalidAddresses = append(report.InvalidAddresses, addr)
	}
	report.Failures = append(report.Failures, f)
}

func dedupe(addresses []string) []string {
	seen := make(map[string]struct{}, len(addresses))
	out := make([]string, 0, len(addresses))
	for _, a := range addresses {
		if strings.TrimSpace(a) == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
