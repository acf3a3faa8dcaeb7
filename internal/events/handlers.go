package events

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/dedup"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
)

const ShipmentStatusConsumerName = "storefront-shipment-status"

// StatusObserver is told about transitions applied by a consumer.
type StatusObserver interface {
	StatusChanged(ctx context.Context, o *order.Order, from order.Status)
}

// ShipmentStatusUpdatedHandler applies fulfillment updates to orders.
// Duplicates are skipped by the dedup checkpoint, which advances in the same
// transaction as the status change. Illegal transitions are logged and
// acknowledged; malformed messages and unknown orders are dead-lettered.
func ShipmentStatusUpdatedHandler(repo order.TransactionalRepository, dedupRepo *dedup.Repository, observer StatusObserver, logger *log.Logger, consumerName string) HandlerFunc {
	return func(ctx context.Context, body []byte) error {
		env, err := parseEnvelope[ShipmentStatusUpdatedPayload](body, shipmentStatusUpdatedEventName, shipmentStatusUpdatedEventVersion)
		if err != nil {
			return err
		}
		if env.Payload.OrderID == "" {
			return fmt.Errorf("missing orderId")
		}
		to, err := order.ParseStatus(env.Payload.Status)
		if err != nil {
			return fmt.Errorf("shipment status: %w", err)
		}

		tx, err := repo.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer func() { _ = tx.Rollback(ctx) }()

		localDedup := dedupRepo.WithExecutor(tx)

		verdict, last, err := localDedup.Check(ctx, consumerName, env.PartitionKey, env.Sequence)
		if err != nil {
			return err
		}
		switch verdict {
		case dedup.Skip:
			logger.Printf("skip duplicate orderId=%s partition=%s seq=%d last=%d", env.Payload.OrderID, env.PartitionKey, env.Sequence, last)
			return nil
		case dedup.ApplyAfterGap:
			logger.Printf("warning: sequence gap for partition=%s seq=%d last=%d", env.PartitionKey, env.Sequence, last)
		}

		o, from, err := repo.UpdateStatusWithTx(ctx, tx, env.Payload.OrderID, to, time.Now().UTC())
		applied := err == nil
		switch {
		case err == nil:
		case errors.Is(err, apperr.ErrConflict):
			logger.Printf("ignore shipment update orderId=%s from=%s to=%s: %v", env.Payload.OrderID, from, to, err)
		default:
			return fmt.Errorf("update order %s: %w", env.Payload.OrderID, err)
		}

		if env.Sequence != 0 {
			if err := localDedup.UpsertLastSequence(ctx, consumerName, env.PartitionKey, env.Sequence); err != nil {
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit shipment update: %w", err)
		}

		if applied {
			logger.Printf("order %s moved %s -> %s by shipment update", o.ID, from, o.Status)
			observer.StatusChanged(withCause(ctx, env), o, from)
		}
		return nil
	}
}
