// Package di provides dependency injection configuration for the ReWear server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/rewearapp/rewear-server/internal/auth"
	"github.com/rewearapp/rewear-server/internal/config"
	"github.com/rewearapp/rewear-server/internal/di/providers"
	"github.com/rewearapp/rewear-server/internal/logger"
	"github.com/rewearapp/rewear-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideCache)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideEntityLocks)
	do.Provide(injector, providers.ProvideLedgerService)
	do.Provide(injector, providers.ProvideRegistryService)
	do.Provide(injector, providers.ProvideSwapService)
	do.Provide(injector, providers.ProvideModerationService)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideMemberService)

	// Workers
	do.Provide(injector, providers.ProvideSwapSweepJob)
	do.Provide(injector, providers.ProvideSessionCleanupJob)
	do.Provide(injector, providers.ProvideViewFlushJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.CacheHandle](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	// Business services
	_ = do.MustInvoke[*service.LedgerService](injector)
	_ = do.MustInvoke[*service.RegistryService](injector)
	_ = do.MustInvoke[*service.SwapService](injector)
	_ = do.MustInvoke[*service.ModerationService](injector)
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.MemberService](injector)

	// Workers
	_ = do.MustInvoke[*providers.SwapSweepJob](injector)
	_ = do.MustInvoke[*providers.SessionCleanupJob](injector)
	_ = do.MustInvoke[*providers.ViewFlushJob](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
