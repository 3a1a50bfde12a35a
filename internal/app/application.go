package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/minhtm92-gif/PixEcom-sub002/internal/app/domains"
	pagessvc "github.com/minhtm92-gif/PixEcom-sub002/internal/app/services/pages"
	storessvc "github.com/minhtm92-gif/PixEcom-sub002/internal/app/services/stores"
	"github.com/minhtm92-gif/PixEcom-sub002/internal/app/storage"
	"github.com/minhtm92-gif/PixEcom-sub002/internal/app/storage/memory"
	"github.com/minhtm92-gif/PixEcom-sub002/internal/app/system"
	"github.com/minhtm92-gif/PixEcom-sub002/internal/logging"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Stores  storage.StoreStore
	Pages   storage.PageStore
	Domains storage.DomainStore
}

// Options carries platform-level settings the services need at construction
// time.
type Options struct {
	// BaseDomains lists the platform-owned domains. Requests for these
	// hosts (or their subdomains) skip tenant resolution.
	BaseDomains []string

	// LookupURL, when set, points at an external domain registry consulted
	// instead of local storage.
	LookupURL string
	LookupKey string
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logging.Logger

	Stores   *storessvc.Service
	Pages    *pagessvc.Service
	Resolver *domains.Resolver
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, opts Options, log *logging.Logger) (*Application, error) {
	if log == nil {
		log = logging.NewDefault("app")
	}

	mem := memory.New()
	if stores.Stores == nil {
		stores.Stores = mem
	}
	if stores.Pages == nil {
		stores.Pages = mem
	}
	if stores.Domains == nil {
		stores.Domains = mem
	}

	manager := system.NewManager()

	storeService := storessvc.New(stores.Stores, stores.Domains, log)
	pageService := pagessvc.New(stores.Stores, stores.Pages, log)

	var lookup domains.Lookup
	if endpoint := strings.TrimSpace(opts.LookupURL); endpoint != "" {
		httpClient := &http.Client{Timeout: 10 * time.Second}
		remote, err := domains.NewHTTPLookup(httpClient, endpoint, opts.LookupKey, log)
		if err != nil {
			return nil, fmt.Errorf("configure domain lookup: %w", err)
		}
		lookup = remote
	} else {
		lookup = domains.NewStoreLookup(stores.Domains, stores.Stores)
	}

	resolver := domains.NewResolver(opts.BaseDomains, lookup, log)
	storeService.AttachInvalidator(resolver)

	for _, name := range []string{"stores", "pages"} {
		if err := manager.Register(system.NoopService{ServiceName: name}); err != nil {
			return nil, fmt.Errorf("register %s service: %w", name, err)
		}
	}

	janitor := domains.NewJanitor(resolver, log)
	if err := manager.Register(janitor); err != nil {
		return nil, fmt.Errorf("register %s: %w", janitor.Name(), err)
	}

	return &Application{
		manager:  manager,
		log:      log,
		Stores:   storeService,
		Pages:    pageService,
		Resolver: resolver,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
