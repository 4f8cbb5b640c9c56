//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"github.com/cory-johannsen/codebattle/internal/app"
	"github.com/cory-johannsen/codebattle/internal/config"
)

func initializeApp(ctx context.Context, cfg config.Config) (*app.App, func(), error) {
	wire.Build(app.ProviderSet)
	return nil, nil, nil
}
