//go:build wireinject
// +build wireinject

package container

import (
	"github.com/google/wire"

	"github.com/narwhalmedia/fantasycards/pkg/config"
	"github.com/narwhalmedia/fantasycards/pkg/interfaces"
)

// InitializeCatalog creates the catalog service with all dependencies
func InitializeCatalog(cfg *config.CatalogConfig, logger interfaces.Logger) (*CatalogContainer, func(), error) {
	wire.Build(
		ProviderSet,
		wire.Struct(new(CatalogContainer), "*"),
	)
	return nil, nil, nil
}
