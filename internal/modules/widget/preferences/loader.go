// Package preferences is the widget's configuration source: loaders that
// produce the Preferences map, the SQLite store behind them, and an emitter
// for hosts that expect config-initialized / config-error events.
package preferences

import (
	"context"
	"maps"

	"github.com/Adbay/widget-weather/internal/modules/widget/types"
)

// Loader loads the widget preferences. Implementations must honour ctx.
type Loader interface {
	Load(ctx context.Context) (types.Preferences, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) (types.Preferences, error)

func (f LoaderFunc) Load(ctx context.Context) (types.Preferences, error) {
	return f(ctx)
}

// Static always returns a copy of the same preferences.
type Static types.Preferences

func (s Static) Load(ctx context.Context) (types.Preferences, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return maps.Clone(types.Preferences(s)), nil
}
