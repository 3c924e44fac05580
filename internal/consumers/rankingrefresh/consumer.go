package rankingrefresh

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/replate-app/replate-backend/internal/claims"
	"github.com/replate-app/replate-backend/internal/ranking"
	"github.com/replate-app/replate-backend/pkg/enums"
	"github.com/replate-app/replate-backend/pkg/logger"
	"github.com/replate-app/replate-backend/pkg/outbox"
)

// ConsumerName identifies this consumer in idempotency keys.
const ConsumerName = "ranking-refresh"

type recalculator interface {
	Recalculate(ctx context.Context, input ranking.RecalculateInput) (*ranking.Result, error)
}

// Consumer refreshes the leaderboard whenever a collection event lands.
// Refresh failures are logged and swallowed; the nightly cron run repairs
// any drift.
type Consumer struct {
	ranking  recalculator
	decoders *outbox.DecoderRegistry
	logg     *logger.Logger
}

// NewConsumer builds the ranking refresh consumer with its payload decoders.
func NewConsumer(rankingSvc recalculator, logg *logger.Logger) (*Consumer, error) {
	if rankingSvc == nil {
		return nil, fmt.Errorf("ranking service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}

	decoders := outbox.NewDecoderRegistry()
	decoders.Register(enums.EventClaimCollected, 1, func(payload json.RawMessage) (interface{}, error) {
		var event claims.ClaimCollectedEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, err
		}
		return event, nil
	})

	return &Consumer{ranking: rankingSvc, decoders: decoders, logg: logg}, nil
}

// Process handles one domain event envelope. Only claim_collected triggers a
// refresh; everything else is acknowledged untouched.
func (c *Consumer) Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": eventType,
	})

	if eventType != enums.EventClaimCollected {
		c.logg.Debug(logCtx, "event not handled by ranking refresh consumer")
		return nil
	}

	decoded, err := c.decoders.Decode(eventType, envelope.Version, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode claim_collected payload", err)
		return nil
	}
	event, ok := decoded.(claims.ClaimCollectedEvent)
	if !ok {
		c.logg.Warn(logCtx, "unexpected payload type for claim_collected")
		return nil
	}

	logCtx = c.logg.WithOrganizationID(logCtx, event.OrganizationID.String())
	result, err := c.ranking.Recalculate(logCtx, ranking.RecalculateInput{SkipAuth: true})
	if err != nil {
		c.logg.Error(logCtx, "ranking refresh failed", err)
		return nil
	}

	logCtx = c.logg.WithField(logCtx, "ranked_count", result.RankedCount)
	c.logg.Info(logCtx, "leaderboard refreshed after collection")
	return nil
}
