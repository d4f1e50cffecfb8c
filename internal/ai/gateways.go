package ai

import (
	"context"
	stderrors "errors"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/config"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/errors"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/types"
)

// Services holds one gateway per operation.
type Services map[types.Operation]*Service

// NewServices creates a gateway for every operation. Each operation gets its
// own provider client and circuit breaker.
func NewServices(ctx context.Context, cfg *config.Config, logger *errors.Logger) (Services, error) {
	services := make(Services, len(types.Operations))
	for _, op := range types.Operations {
		svc, err := NewService(ctx, cfg.GetOperationConfig(op), op, logger)
		if err != nil {
			_ = services.Close()
			return nil, err
		}
		services[op] = svc
	}
	return services, nil
}

// Gateways returns the services keyed by operation as plain gateways.
func (s Services) Gateways() map[types.Operation]Gateway {
	out := make(map[types.Operation]Gateway, len(s))
	for op, svc := range s {
		out[op] = svc
	}
	return out
}

// SetObserver registers o on every service.
func (s Services) SetObserver(o Observer) {
	for _, svc := range s {
		svc.SetObserver(o)
	}
}

// Close closes every provider and joins their errors.
func (s Services) Close() error {
	var errs []error
	for _, svc := range s {
		if err := svc.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
