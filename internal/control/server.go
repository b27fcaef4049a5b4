// Package control assembles an orb server process: object adapters, demo
// servants, naming publication, the gRPC transport and the health server.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/orb/internal/adapter"
	"github.com/vietddude/orb/internal/core/config"
	"github.com/vietddude/orb/internal/core/domain"
	"github.com/vietddude/orb/internal/core/worker"
	"github.com/vietddude/orb/internal/demo"
	"github.com/vietddude/orb/internal/health"
	"github.com/vietddude/orb/internal/infra/rpc"
	"github.com/vietddude/orb/internal/infra/storage"
)

// ErrTransientPublish is returned when a transient adapter's object is
// published by name.
var ErrTransientPublish = errors.New("transient objects cannot be published by name")

// defaultAdapters are created when the configuration does not declare them.
var defaultAdapters = []config.AdapterConfig{
	{Name: demo.AdapterCompany, Lifespan: domain.LifespanPersistent, Retention: domain.RetentionRetain},
	{Name: demo.AdapterEmployees, Lifespan: domain.LifespanTransient, Retention: domain.RetentionRetain},
	{Name: demo.AdapterStations, Lifespan: domain.LifespanPersistent, Retention: domain.RetentionNonRetain},
}

// Server is one orb server process.
type Server struct {
	cfg       *config.AppConfig
	manager   *adapter.Manager
	naming    storage.NamingRepository
	transport *rpc.Server
	monitor   *health.Monitor
	health    *health.Server
	publisher *worker.Republisher
	log       *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	endpoint string
	group    *errgroup.Group
	cancel   context.CancelFunc
	started  bool
}

// NewServer creates the adapters and connects the naming backend.
func NewServer(ctx context.Context, cfg *config.AppConfig) (*Server, error) {
	log := slog.Default()

	naming, check, err := OpenNaming(ctx, cfg)
	if err != nil {
		return nil, err
	}

	manager := adapter.NewManager(log)
	if err := createAdapters(manager, cfg.Adapters); err != nil {
		manager.Shutdown()
		_ = naming.Close()
		return nil, err
	}

	monitor := health.NewMonitor(manager)
	if check != nil {
		monitor.AddCheck("naming", check)
	}

	return &Server{
		cfg:       cfg,
		manager:   manager,
		naming:    naming,
		transport: rpc.NewServer(manager, log),
		monitor:   monitor,
		health:    health.NewServer(monitor, cfg.Server.Port),
		publisher: worker.NewRepublisher(naming, cfg.Naming.RepublishInterval, log),
		log:       log,
	}, nil
}

func createAdapters(manager *adapter.Manager, configured []config.AdapterConfig) error {
	adapters := append([]config.AdapterConfig(nil), configured...)
	for _, def := range defaultAdapters {
		found := false
		for _, a := range configured {
			if a.Name == def.Name {
				found = true
				break
			}
		}
		if !found {
			adapters = append(adapters, def)
		}
	}

	for _, a := range adapters {
		var opts []adapter.Option
		if a.Name == demo.AdapterStations && a.Retention == domain.RetentionNonRetain {
			opts = append(opts, adapter.WithLocator(demo.StationLocator()))
		}
		if _, err := manager.Create(a.Name, a.Policy(), opts...); err != nil {
			return fmt.Errorf("failed to create adapter %s: %w", a.Name, err)
		}
	}
	return nil
}

// Manager returns the adapter manager.
func (s *Server) Manager() *adapter.Manager {
	return s.manager
}

// Naming returns the naming repository.
func (s *Server) Naming() storage.NamingRepository {
	return s.naming
}

// Endpoint returns the address written into references. Empty before Start.
func (s *Server) Endpoint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endpoint
}

// Start listens, installs the servants, publishes persistent objects and
// begins dispatching. It does not block.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("server already started")
	}

	lis, err := net.Listen("tcp", s.cfg.Transport.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Transport.Listen, err)
	}
	s.listener = lis
	s.endpoint = s.cfg.Transport.Endpoint
	if s.endpoint == "" || strings.HasSuffix(s.endpoint, ":0") {
		s.endpoint = lis.Addr().String()
	}

	if err := s.install(ctx); err != nil {
		_ = lis.Close()
		s.listener = nil
		s.endpoint = ""
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	g := &errgroup.Group{}
	g.Go(func() error {
		return s.transport.Serve(lis)
	})
	g.Go(func() error {
		s.publisher.Start(runCtx)
		return nil
	})
	g.Go(func() error {
		if err := s.health.Start(); err != nil {
			s.log.Error("Health server failed", "error", err)
			return err
		}
		return nil
	})
	s.group = g
	s.started = true

	if err := s.manager.Activate(); err != nil {
		return err
	}
	s.log.Info("Server started", "endpoint", s.endpoint, "health_port", s.cfg.Server.Port)
	return nil
}

// install activates the demo servants. The company is published before its
// employees adapter is bound, so early hires fail as not yet configured.
// On failure every published name and activated servant is withdrawn.
func (s *Server) install(ctx context.Context) (err error) {
	type activation struct {
		adapter *adapter.Adapter
		id      domain.ObjectID
	}
	var activated []activation
	defer func() {
		if err == nil {
			return
		}
		s.unpublishAll(ctx)
		for _, a := range activated {
			if derr := a.adapter.Deactivate(a.id); derr != nil {
				s.log.Warn("Failed to deactivate servant", "adapter", a.adapter.Name(), "object_id", a.id, "error", derr)
			}
		}
	}()

	companies, err := s.manager.Lookup(demo.AdapterCompany)
	if err != nil {
		return err
	}
	employees, err := s.manager.Lookup(demo.AdapterEmployees)
	if err != nil {
		return err
	}
	stations, err := s.manager.Lookup(demo.AdapterStations)
	if err != nil {
		return err
	}

	company := demo.NewCompany("Acme", s.endpoint)
	if err := companies.ActivateWithID(demo.CompanyID, company); err != nil {
		return fmt.Errorf("failed to activate company: %w", err)
	}
	activated = append(activated, activation{companies, demo.CompanyID})
	if err := s.Publish(ctx, demo.NameCompany, companies, demo.CompanyID); err != nil {
		return err
	}

	if stations.Policy().Retains() {
		if err := stations.ActivateWithID(demo.StationID, demo.NewStation(demo.StationID)); err != nil {
			return fmt.Errorf("failed to activate station: %w", err)
		}
		activated = append(activated, activation{stations, demo.StationID})
	}
	if err := s.Publish(ctx, demo.NameStation, stations, demo.StationID); err != nil {
		return err
	}

	if err := company.BindEmployees(employees); err != nil {
		return fmt.Errorf("failed to bind employees adapter: %w", err)
	}
	return nil
}

// unpublishAll removes every name this server published.
func (s *Server) unpublishAll(ctx context.Context) {
	for _, name := range s.publisher.Names() {
		s.publisher.Untrack(name)
		if err := s.naming.Unbind(ctx, name); err != nil {
			s.log.Warn("Failed to unpublish name", "name", name, "error", err)
		}
	}
}

// Publish binds name to the object id of a persistent adapter.
func (s *Server) Publish(ctx context.Context, name string, a *adapter.Adapter, id domain.ObjectID) error {
	if !a.Policy().IsPersistent() {
		return fmt.Errorf("%w: %s in adapter %s", ErrTransientPublish, name, a.Name())
	}
	ref := a.Reference(id, s.endpoint)
	if err := s.naming.Bind(ctx, name, ref); err != nil {
		return fmt.Errorf("failed to publish %s: %w", name, err)
	}
	s.publisher.Track(name, ref)
	s.log.Info("Published object", "name", name, "ref", ref.String())
	return nil
}

// Stop rejects new calls, drains the servers and shuts down every adapter.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("Stopping server...")

	s.mu.Lock()
	started := s.started
	s.started = false
	g := s.group
	cancel := s.cancel
	s.mu.Unlock()

	var errs []error
	if started {
		cancel()
		if err := s.manager.Discard(); err != nil {
			errs = append(errs, err)
		}
		s.transport.Stop(ctx)
		if err := s.health.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("health server: %w", err))
		}
		if err := g.Wait(); err != nil {
			errs = append(errs, err)
		}
	}

	s.manager.Shutdown()
	if err := s.naming.Close(); err != nil {
		s.log.Warn("Failed to close naming backend", "error", err)
	}
	return errors.Join(errs...)
}
