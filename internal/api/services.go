package api

import (
	"github.com/rewearapp/rewear-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth       *service.AuthService
	Member     *service.MemberService
	Registry   *service.RegistryService
	Ledger     *service.LedgerService
	Swap       *service.SwapService
	Moderation *service.ModerationService
}
