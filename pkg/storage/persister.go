package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	log "github.com/sirupsen/logrus"
	"github.com/verlofplanner/verlof/internal/event_bus"
)

// SubscribePersister writes every RecordChanged event published on bus to repo.
func SubscribePersister(bus *event_bus.EventBus, repo Repository) (unsubscribe func()) {
	return event_bus.SubscribeTyped(bus, event_bus.RecordChangedEvent,
		func(e event_bus.EventT[event_bus.RecordChanged]) error {
			log.Debugf("persisting record %s (%d bytes)", e.Data.Key, len(e.Data.Value))
			return repo.Store(e.Context(), e.Data.Key, e.Data.Value)
		})
}

// PublishRecord serializes value as JSON and announces it as the new content of key.
// Failures are logged and not returned: persistence is a side effect of a mutation that
// has already happened in memory.
func PublishRecord(ctx context.Context, bus *event_bus.EventBus, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Errorf("could not serialize record %s: %v", key, err)
		return
	}
	// The record must be written even if the request that caused it goes away.
	ctx = context.WithoutCancel(ctx)
	if err := bus.Publish(event_bus.NewEvent(ctx, event_bus.RecordChangedEvent, event_bus.RecordChanged{Key: key, Value: data})); err != nil {
		log.Warnf("failed to persist record %s: %v", key, err)
	}
}

// LoadJSON reads key from repo and decodes it into target. It reports false when the
// record is absent or cannot be decoded; a decode failure is logged and leaves target
// untouched. target must be a non-nil pointer.
func LoadJSON(ctx context.Context, repo Repository, key string, target any) (bool, error) {
	data, err := repo.Load(ctx, key)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("could not read record %s: %w", key, err)
	}
	dst := reflect.ValueOf(target)
	if dst.Kind() != reflect.Pointer || dst.IsNil() {
		return false, fmt.Errorf("could not decode record %s into %T", key, target)
	}
	decoded := reflect.New(dst.Elem().Type())
	if err := json.Unmarshal(data, decoded.Interface()); err != nil {
		log.Warnf("discarding malformed record %s: %v", key, err)
		return false, nil
	}
	dst.Elem().Set(decoded.Elem())
	return true, nil
}
