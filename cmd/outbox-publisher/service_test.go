package main

import (
	"context"
	"errors"
	"testing"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rifazone/rifazone-backend/pkg/config"
	"github.com/rifazone/rifazone-backend/pkg/db/models"
	"github.com/rifazone/rifazone-backend/pkg/enums"
	"github.com/rifazone/rifazone-backend/pkg/logger"
)

type fakeDB struct{}

func (fakeDB) Ping(context.Context) error { return nil }

func (fakeDB) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	terminal  []uuid.UUID
}

func (r *fakeRepo) FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if limit < len(r.events) {
		return r.events[:limit], nil
	}
	return r.events, nil
}

func (r *fakeRepo) MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error {
	r.published = append(r.published, id)
	return nil
}

func (r *fakeRepo) MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error {
	r.failed = append(r.failed, id)
	return nil
}

func (r *fakeRepo) MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error {
	r.terminal = append(r.terminal, id)
	return nil
}

func newTestService(t *testing.T, repo *fakeRepo, publish publishFunc) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Config:     &config.Config{},
		Logger:     logger.New(logger.Options{ServiceName: "outbox-publisher-test"}),
		DB:         fakeDB{},
		Repository: repo,
		Publish:    publish,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func newOutboxEvent(attempts int) models.OutboxEvent {
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventSaleCompleted,
		AggregateType: enums.AggregateSale,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{"sale_id":"x"}`),
		AttemptCount:  attempts,
	}
}

func TestProcessBatchContinuesAfterFailure(t *testing.T) {
	repo := &fakeRepo{events: []models.OutboxEvent{newOutboxEvent(0), newOutboxEvent(0)}}

	calls := 0
	svc := newTestService(t, repo, func(ctx context.Context, msg *gcppubsub.Message) error {
		calls++
		if calls == 1 {
			return errors.New("transient")
		}
		return nil
	})

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to be processed")
	}
	if len(repo.failed) != 1 || repo.failed[0] != repo.events[0].ID {
		t.Fatalf("expected first event marked failed, got %v", repo.failed)
	}
	if len(repo.published) != 1 || repo.published[0] != repo.events[1].ID {
		t.Fatalf("expected second event marked published, got %v", repo.published)
	}
	if len(repo.terminal) != 0 {
		t.Fatalf("no event should be terminal yet")
	}
}

func TestProcessBatchMarksTerminalAtAttemptCap(t *testing.T) {
	repo := &fakeRepo{events: []models.OutboxEvent{newOutboxEvent(defaultMaxAttempts - 1)}}

	svc := newTestService(t, repo, func(ctx context.Context, msg *gcppubsub.Message) error {
		return errors.New("broker down")
	})

	if _, err := svc.processBatch(context.Background()); err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if len(repo.terminal) != 1 {
		t.Fatalf("expected event marked terminal, got failed=%v terminal=%v", repo.failed, repo.terminal)
	}
	if len(repo.failed) != 0 || len(repo.published) != 0 {
		t.Fatalf("terminal event should not be marked failed or published")
	}
}

func TestProcessBatchEmptyQueue(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(t, repo, func(ctx context.Context, msg *gcppubsub.Message) error {
		t.Fatal("publish should not be called")
		return nil
	})

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if processed {
		t.Fatalf("empty queue should report no work")
	}
}

func TestPublishEventCarriesAttributes(t *testing.T) {
	event := newOutboxEvent(0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}

	var captured *gcppubsub.Message
	svc := newTestService(t, repo, func(ctx context.Context, msg *gcppubsub.Message) error {
		captured = msg
		return nil
	})

	if _, err := svc.processBatch(context.Background()); err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if captured == nil {
		t.Fatal("expected a published message")
	}
	if captured.Attributes["event_type"] != string(enums.EventSaleCompleted) {
		t.Fatalf("unexpected event_type attribute %q", captured.Attributes["event_type"])
	}
	if captured.Attributes["aggregate_id"] != event.AggregateID.String() {
		t.Fatalf("unexpected aggregate_id attribute %q", captured.Attributes["aggregate_id"])
	}
	if string(captured.Data) != `{"sale_id":"x"}` {
		t.Fatalf("unexpected payload %s", captured.Data)
	}
}
