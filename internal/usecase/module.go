package usecase

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/GS-Pro2025/movewise/internal/config"
	"github.com/GS-Pro2025/movewise/internal/domain/repository"
)

// Module provides the order lifecycle use cases to the fx container.
var Module = fx.Provide(
	newDraftValidator,
	NewAssignmentService,
	NewSubmissionCoordinator,
	newCompensator,
	NewCompletionGate,
	NewOrderEditor,
	NewSessionUseCase,
)

type validatorParams struct {
	fx.In

	Config *config.Config
	Images ImageConverter
}

func newDraftValidator(p validatorParams) *DraftValidator {
	return NewDraftValidator(p.Images, p.Config.MaxImageBytes)
}

type compensatorParams struct {
	fx.In

	Config  *config.Config
	Orders  OrderGateway
	Factory repository.Factory
	Logger  *slog.Logger
}

func newCompensator(p compensatorParams) *Compensator {
	return NewCompensator(p.Orders, p.Factory, CompensatorOptions{
		Policy:      CompensationPolicy(p.Config.CompensationPolicy),
		MaxAttempts: p.Config.MaxCompensationAttempts,
		Backoff:     p.Config.CompensationBackoff,
	}, p.Logger)
}
