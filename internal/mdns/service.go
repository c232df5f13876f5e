// Package mdns advertises iMangarr on the local network through Avahi.
package mdns

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/holoplot/go-avahi"
)

const (
	// ServiceType is the DNS-SD type browsers and launchers look for.
	ServiceType = "_http._tcp"

	// AppName is advertised in the app TXT record.
	AppName = "imangarr"
)

// Service manages the Avahi entry group for the web UI.
type Service struct {
	logger *slog.Logger
	dial   func() (*dbus.Conn, error)

	mu     sync.Mutex
	conn   *dbus.Conn
	server *avahi.Server
	group  *avahi.EntryGroup
}

// NewService creates a new mDNS service on the system bus.
func NewService(logger *slog.Logger) *Service {
	return &Service{
		logger: logger,
		dial:   dbus.SystemBus,
	}
}

// TXTRecords builds the TXT payload for the advertisement.
func TXTRecords(path string) [][]byte {
	return [][]byte{
		[]byte("path=" + path),
		[]byte("app=" + AppName),
	}
}

// Start publishes name on port. Errors are expected where there is no system
// bus (most containers) and callers treat them as non-fatal.
func (s *Service) Start(name string, port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port %d", port)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	conn, err := s.dial()
	if err != nil {
		return fmt.Errorf("connect to system bus: %w", err)
	}

	server, err := avahi.ServerNew(conn)
	if err != nil {
		return fmt.Errorf("connect to avahi: %w", err)
	}

	group, err := server.EntryGroupNew()
	if err != nil {
		server.Close()
		return fmt.Errorf("create avahi entry group: %w", err)
	}

	//nolint:gosec // G115: port range checked above
	if err := group.AddService(avahi.InterfaceUnspec, avahi.ProtoUnspec, 0,
		name, ServiceType, "", "", uint16(port), TXTRecords("/")); err != nil {
		server.EntryGroupFree(group)
		server.Close()
		return fmt.Errorf("add avahi service: %w", err)
	}

	if err := group.Commit(); err != nil {
		server.EntryGroupFree(group)
		server.Close()
		return fmt.Errorf("commit avahi service: %w", err)
	}

	s.conn, s.server, s.group = conn, server, group

	s.logger.Info("mDNS advertisement started",
		slog.String("service", ServiceType),
		slog.String("name", name),
		slog.Int("port", port))
	return nil
}

// Stop withdraws the advertisement. Safe to call multiple times or if not started.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Service) stopLocked() {
	if s.server == nil {
		return
	}
	if s.group != nil {
		s.server.EntryGroupFree(s.group)
	}
	s.server.Close()
	s.conn, s.server, s.group = nil, nil, nil
	s.logger.Info("mDNS advertisement stopped")
}

// Running reports whether an advertisement is active.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.server != nil
}
