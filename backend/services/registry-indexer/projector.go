package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/fab"
	"go.uber.org/zap"

	"github.com/regnet/property-registration/backend/chaincode/regnet/registry"
	"github.com/regnet/property-registration/backend/pkg/rabbitmq"
	"github.com/regnet/property-registration/backend/pkg/readmodel"
)

// EventsExchange is the topic exchange every indexed event is republished to.
const EventsExchange = "regnet_events"

// RoutingKey turns an event name such as PropertyPurchased into property.purchased.
func RoutingKey(eventType string) string {
	var b strings.Builder
	for i, r := range eventType {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('.')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Store is the read model the indexer maintains.
type Store interface {
	Apply(ctx context.Context, p readmodel.Projection) error
	PropertyIDs(ctx context.Context) ([]string, error)
}

// Projector applies chaincode events to the read model and republishes them.
type Projector struct {
	store     Store
	publisher rabbitmq.Publisher
	logger    *zap.Logger
}

func NewProjector(store Store, publisher rabbitmq.Publisher, logger *zap.Logger) *Projector {
	return &Projector{store: store, publisher: publisher, logger: logger}
}

func project(event *registry.Event) readmodel.Projection {
	var p readmodel.Projection
	for _, u := range []*registry.User{event.User, event.Buyer, event.Seller} {
		if u != nil {
			p.Users = append(p.Users, u)
		}
	}
	p.Property = event.Property
	if event.Type == registry.EventPropertyPurchased && event.Property != nil && event.Buyer != nil && event.Seller != nil {
		p.Transfer = &readmodel.Transfer{
			TxID:       event.TxID,
			PropertyID: event.Property.PropertyID,
			Seller:     event.Seller.Ref(),
			Buyer:      event.Buyer.Ref(),
			Price:      event.Property.Price,
			At:         event.Timestamp,
		}
	}
	return p
}

// Handle indexes a single chaincode event.
func (p *Projector) Handle(ctx context.Context, ccEvent *fab.CCEvent) error {
	var event registry.Event
	if err := json.Unmarshal(ccEvent.Payload, &event); err != nil {
		return fmt.Errorf("failed to decode %s event in tx %s: %w", ccEvent.EventName, ccEvent.TxID, err)
	}
	if event.Type == "" {
		event.Type = ccEvent.EventName
	}
	if event.TxID == "" {
		event.TxID = ccEvent.TxID
	}

	if err := p.store.Apply(ctx, project(&event)); err != nil {
		return err
	}
	if err := p.publisher.Publish(ctx, EventsExchange, RoutingKey(event.Type), &event); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}

	p.logger.Info("indexed event",
		zap.String("event", event.Type),
		zap.String("tx_id", event.TxID),
		zap.Uint64("block", ccEvent.BlockNumber),
	)
	return nil
}

// Run consumes events until the stream closes or ctx is done. Failed events are
// logged and left for the reconciler.
func (p *Projector) Run(ctx context.Context, events <-chan *fab.CCEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				p.logger.Warn("event stream closed")
				return
			}
			if err := p.Handle(ctx, ev); err != nil {
				p.logger.Error("failed to index event", zap.String("event", ev.EventName), zap.String("tx_id", ev.TxID), zap.Error(err))
			}
		}
	}
}
