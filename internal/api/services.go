package api

import (
	"github.com/zarko379/iMangarr-ng/internal/search"
	"github.com/zarko379/iMangarr-ng/internal/service"
	"github.com/zarko379/iMangarr-ng/internal/sse"
)

// Advertiser is the LAN advertisement, reported by the health check.
type Advertiser interface {
	Running() bool
}

// Services groups the business logic used by the API server.
type Services struct {
	Library  *service.LibraryService
	Settings *service.SettingsService
	Events   *sse.Manager         // Activity feed and health
	Index    *search.LibraryIndex // Optional, health only
	MDNS     Advertiser           // Nil when advertising is disabled
}
