package memory

import (
	"context"

	"github.com/baechuer/recipe-hub/internal/application/auth"
	"github.com/baechuer/recipe-hub/internal/logger"
)

// NoopPublisher logs events instead of sending them. Used when no broker is configured.
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher { return &NoopPublisher{} }

func (p *NoopPublisher) PublishUserRegistered(ctx context.Context, evt auth.UserRegisteredEvent) error {
	logger.WithCtx(ctx).Debug().
		Str("user_id", evt.UserID).
		Msg("noop-pub: user.registered")
	return nil
}
