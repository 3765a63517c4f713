// Package store persists charts for the server: the input dataset, the
// options used, and the rendered artifacts, addressable by ID.
package store

import (
	"context"
	"time"

	"github.com/mbertrand/alluvial/pkg/flow"
)

// Chart is one persisted chart: its inputs, options, and rendered artifacts.
type Chart struct {
	ID        string            `json:"id" bson:"_id"`
	CreatedAt time.Time         `json:"created_at" bson:"created_at"`
	Dataset   flow.Dataset      `json:"dataset" bson:"dataset"`
	Options   map[string]any    `json:"options,omitempty" bson:"options,omitempty"`
	Artifacts map[string][]byte `json:"-" bson:"artifacts,omitempty"`
	Formats   []string          `json:"formats" bson:"formats"`
}

// Store persists and retrieves charts.
type Store interface {
	// Put stores a chart under its ID.
	Put(ctx context.Context, c Chart) error

	// Get retrieves a chart by ID. A missing ID is a NOT_FOUND error.
	Get(ctx context.Context, id string) (Chart, error)

	// Close releases underlying resources.
	Close(ctx context.Context) error
}
