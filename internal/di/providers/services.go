package providers

import (
	"github.com/samber/do/v2"

	"github.com/rewearapp/rewear-server/internal/auth"
	"github.com/rewearapp/rewear-server/internal/config"
	"github.com/rewearapp/rewear-server/internal/logger"
	"github.com/rewearapp/rewear-server/internal/service"
)

// ProvideLedgerService provides the point ledger service.
func ProvideLedgerService(i do.Injector) (*service.LedgerService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	cacheHandle := do.MustInvoke[*CacheHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLedgerService(storeHandle.Store, cacheHandle.Cache, log.Logger), nil
}

// ProvideRegistryService provides the item registry service.
func ProvideRegistryService(i do.Injector) (*service.RegistryService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	cacheHandle := do.MustInvoke[*CacheHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewRegistryService(storeHandle.Store, cacheHandle.Cache, log.Logger), nil
}

// ProvideEntityLocks provides the per-entity lock registry. There is
// exactly one instance: swap settlement and moderation must serialize
// through the same locks.
func ProvideEntityLocks(i do.Injector) (*service.EntityLocks, error) {
	return service.NewEntityLocks(), nil
}

// ProvideSwapService provides the swap coordination service.
func ProvideSwapService(i do.Injector) (*service.SwapService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	ledger := do.MustInvoke[*service.LedgerService](i)
	locks := do.MustInvoke[*service.EntityLocks](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSwapService(storeHandle.Store, ledger, locks, log.Logger, cfg.Engine.PendingSwapTTL), nil
}

// ProvideModerationService provides the moderation service.
func ProvideModerationService(i do.Injector) (*service.ModerationService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	locks := do.MustInvoke[*service.EntityLocks](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewModerationService(storeHandle.Store, locks, log.Logger), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	ledger := do.MustInvoke[*service.LedgerService](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, ledger, log.Logger, cfg.Engine.SignupBonus), nil
}

// ProvideMemberService provides the member profile service.
func ProvideMemberService(i do.Injector) (*service.MemberService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	ledger := do.MustInvoke[*service.LedgerService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewMemberService(storeHandle.Store, ledger, log.Logger), nil
}
