package domains

import (
	"context"
	"sync"
	"time"

	"github.com/minhtm92-gif/PixEcom-sub002/internal/app/system"
	"github.com/minhtm92-gif/PixEcom-sub002/internal/logging"
)

var _ system.Service = (*Janitor)(nil)

// Janitor periodically sweeps expired entries out of the resolver cache so a
// long-running process does not accumulate dead hostnames. Classification
// correctness never depends on it.
type Janitor struct {
	resolver *Resolver
	log      *logging.Logger
	interval time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewJanitor creates a lifecycle-managed cache sweeper.
func NewJanitor(resolver *Resolver, log *logging.Logger) *Janitor {
	if log == nil {
		log = logging.NewDefault("domain-cache-janitor")
	}
	return &Janitor{
		resolver: resolver,
		log:      log,
		interval: 5 * time.Minute,
	}
}

func (j *Janitor) Name() string { return "domain-cache-janitor" }

func (j *Janitor) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.running {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.running = true

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				if removed := j.resolver.Sweep(); removed > 0 {
					j.log.WithField("removed", removed).Debug("swept expired domain cache entries")
				}
			}
		}
	}()
	return nil
}

func (j *Janitor) Stop(_ context.Context) error {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return nil
	}
	j.cancel()
	j.running = false
	j.mu.Unlock()

	j.wg.Wait()
	return nil
}
