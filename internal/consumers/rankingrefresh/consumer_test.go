package rankingrefresh

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"

	"github.com/replate-app/replate-backend/internal/claims"
	"github.com/replate-app/replate-backend/internal/ranking"
	"github.com/replate-app/replate-backend/pkg/enums"
	"github.com/replate-app/replate-backend/pkg/logger"
	"github.com/replate-app/replate-backend/pkg/outbox"
)

type fakeRanking struct {
	called    int
	lastInput ranking.RecalculateInput
	err       error
}

func (f *fakeRanking) Recalculate(_ context.Context, input ranking.RecalculateInput) (*ranking.Result, error) {
	f.called++
	f.lastInput = input
	if f.err != nil {
		return nil, f.err
	}
	return &ranking.Result{RankedCount: 4}, nil
}

func newConsumer(t *testing.T, svc recalculator) *Consumer {
	t.Helper()
	consumer, err := NewConsumer(svc, logger.New(logger.Options{Output: io.Discard}))
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}
	return consumer
}

func collectedEnvelope(t *testing.T) outbox.PayloadEnvelope {
	t.Helper()
	payload, err := json.Marshal(claims.ClaimCollectedEvent{
		ClaimID:            uuid.New(),
		ListingID:          uuid.New(),
		OrganizationID:     uuid.New(),
		StudentUserID:      uuid.New(),
		ActualImpactPoints: 0.35,
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return outbox.PayloadEnvelope{Version: 1, EventID: uuid.NewString(), Data: payload}
}

func TestProcessRefreshesOnCollection(t *testing.T) {
	svc := &fakeRanking{}
	consumer := newConsumer(t, svc)

	if err := consumer.Process(context.Background(), enums.EventClaimCollected, collectedEnvelope(t)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if svc.called != 1 {
		t.Fatalf("expected one recalculation, got %d", svc.called)
	}
	if !svc.lastInput.SkipAuth {
		t.Fatalf("async refresh must bypass the admin check")
	}
}

func TestProcessIgnoresOtherEvents(t *testing.T) {
	svc := &fakeRanking{}
	consumer := newConsumer(t, svc)

	if err := consumer.Process(context.Background(), enums.EventClaimCancelled, collectedEnvelope(t)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if svc.called != 0 {
		t.Fatalf("cancellations must not trigger a refresh")
	}
}

func TestProcessSwallowsRefreshFailures(t *testing.T) {
	svc := &fakeRanking{err: errors.New("db down")}
	consumer := newConsumer(t, svc)

	if err := consumer.Process(context.Background(), enums.EventClaimCollected, collectedEnvelope(t)); err != nil {
		t.Fatalf("refresh failure must not propagate: %v", err)
	}
}

func TestProcessSwallowsMalformedPayloads(t *testing.T) {
	svc := &fakeRanking{}
	consumer := newConsumer(t, svc)

	envelope := outbox.PayloadEnvelope{Version: 1, EventID: uuid.NewString(), Data: json.RawMessage(`"not an object"`)}
	if err := consumer.Process(context.Background(), enums.EventClaimCollected, envelope); err != nil {
		t.Fatalf("decode failure must not propagate: %v", err)
	}
	if svc.called != 0 {
		t.Fatalf("malformed payload must not trigger a refresh")
	}
}
