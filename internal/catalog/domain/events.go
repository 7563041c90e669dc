package domain

import (
	"github.com/narwhalmedia/fantasycards/pkg/events"
)

// EventTypeCatalogRefreshed is published after a catalog was re-aggregated.
const EventTypeCatalogRefreshed = "catalog.refreshed"

// CatalogRefreshed announces a freshly aggregated catalog. The aggregate id
// is the kind.
type CatalogRefreshed struct {
	events.BaseEvent
	Kind  Kind `json:"kind"`
	Count int  `json:"count"`
}

// NewCatalogRefreshed creates the event for a refreshed kind.
func NewCatalogRefreshed(kind Kind, count int) *CatalogRefreshed {
	return &CatalogRefreshed{
		BaseEvent: events.NewBaseEvent(EventTypeCatalogRefreshed, string(kind)),
		Kind:      kind,
		Count:     count,
	}
}
