// Package service holds the side effects that follow a confirmed order:
// publishing it to RabbitMQ and recording a local receipt.  Both implement
// checkout.Listener; their errors are logged by the submitter and never
// change the buyer's result.
package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/zoo-checkout/internal/checkout"
	"github.com/iliyamo/zoo-checkout/internal/model"
	q "github.com/iliyamo/zoo-checkout/internal/queue"
)

// OrderPublisher publishes OrderConfirmedEvents to the "order.confirmed"
// queue. Messages are marked as persistent.
type OrderPublisher struct {
	URL string
	Log *zap.Logger
}

// OrderConfirmed implements checkout.Listener.
func (p *OrderPublisher) OrderConfirmed(ctx context.Context, c checkout.Confirmed) error {
	return p.Publish(ctx, EventFrom(c, time.Now().UTC()))
}

// Publish dials the broker, declares the queue and publishes event.
func (p *OrderPublisher) Publish(ctx context.Context, event q.OrderConfirmedEvent) error {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		log.Warn("rabbitmq: dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Warn("rabbitmq: channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		q.OrderConfirmedQueue, // name
		true,                  // durable
		false,                 // autoDelete
		false,                 // exclusive
		false,                 // noWait
		nil,                   // args
	); err != nil {
		log.Warn("rabbitmq: queue declare failed", zap.Error(err))
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",                    // default exchange
		q.OrderConfirmedQueue, // routing key = queue name
		false,                 // mandatory
		false,                 // immediate
		pub,
	); err != nil {
		log.Warn("rabbitmq: publish failed", zap.Error(err))
		return err
	}
	return nil
}

// EventFrom converts a confirmed checkout into its broker event.
func EventFrom(c checkout.Confirmed, at time.Time) q.OrderConfirmedEvent {
	ev := q.OrderConfirmedEvent{
		OrderID:         c.Confirmation.OrderID,
		BuyerName:       c.BuyerName,
		BuyerEmail:      c.BuyerEmail,
		VisitDate:       c.VisitDate,
		DisplayTotalCts: c.TotalCents,
		ConfirmedAt:     at.Format(time.RFC3339),
	}
	for _, group := range [][]model.LineItem{c.Tickets, c.POS} {
		for _, li := range group {
			ev.Lines = append(ev.Lines, q.OrderLine{
				Kind:       string(li.Kind),
				ID:         li.ID,
				Name:       li.Name,
				Qty:        li.Qty,
				PriceCents: li.PriceCents,
			})
		}
	}
	return ev
}
