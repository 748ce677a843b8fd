// Package amqp is the external-broker ingress adapter: it subscribes to
// an AMQP queue via watermill and turns each delivered message into a
// Packet emitted on a dedicated fabric.Source, the direct
// generalization of the teacher's internal/handler/amqp package (which
// bound AMQP deliveries to a hub broadcast instead of a fabric source).
package amqp

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmamqp "github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"

	"github.com/INemesisI/weave/internal/fabric"
	"github.com/INemesisI/weave/internal/fabric/packet"
	"github.com/INemesisI/weave/internal/telemetry"
)

// Config is the subset of config.IngressConfig this adapter consumes.
type Config struct {
	AMQPURL    string
	Queue      string
	QueueDepth int
}

// Adapter owns one fabric.Source and the watermill Subscriber feeding
// it. Every delivered message becomes one Packet, allocated from pool,
// with its body copied into the buffer and emitted on Source.
type Adapter struct {
	Source *fabric.Source

	pool       *packet.Pool
	subscriber message.Subscriber
	queue      string
	logger     *zap.SugaredLogger
}

// New builds the adapter and its watermill AMQP subscriber. It does not
// start consuming until Run is called.
func New(cfg Config, pool *packet.Pool, logger *zap.SugaredLogger) (*Adapter, error) {
	wmLogger := watermill.NewStdLogger(false, false)

	amqpCfg := wmamqp.NewDurableQueueConfig(cfg.AMQPURL)
	subscriber, err := wmamqp.NewSubscriber(amqpCfg, wmLogger)
	if err != nil {
		return nil, err
	}

	return &Adapter{
		Source:     packet.NewSource("amqp-ingress"),
		pool:       pool,
		subscriber: subscriber,
		queue:      cfg.Queue,
		logger:     logger,
	}, nil
}

// Run subscribes to the configured queue and translates every delivered
// message into a Packet emitted on Source, until ctx is canceled.
// Allocation and emission use a short bounded timeout rather than
// blocking forever. An exhausted pool nacks the message back to the
// broker. A full sink queue is a per-sink drop inside Emit, which still
// succeeds with a smaller delivered count, so the message is acked even
// when no sink accepted it.
func (a *Adapter) Run(ctx context.Context) error {
	messages, err := a.subscriber.Subscribe(ctx, a.queue)
	if err != nil {
		return err
	}

	const admitTimeout = 2 * time.Second
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			a.handle(ctx, msg, admitTimeout)
		}
	}
}

func (a *Adapter) handle(ctx context.Context, msg *message.Message, timeout time.Duration) {
	buf, err := a.pool.Alloc(timeout)
	if err != nil {
		a.logger.Warnw("ingress pool exhausted, dropping message", "error", err, "message_uuid", msg.UUID)
		msg.Nack()
		return
	}
	copy(buf.Data(), msg.Payload)

	// TracedEmit + Ops.Unref reproduces packet.Send's emit-then-release
	// convenience with a span around the emit (spec §6 packet_send).
	_, err = telemetry.TracedEmit(ctx, a.Source, buf, timeout)
	packet.Ops.Unref(buf)
	if err != nil {
		a.logger.Warnw("ingress emit failed", "error", err, "message_uuid", msg.UUID)
		msg.Nack()
		return
	}
	msg.Ack()
}

// Close releases the underlying subscriber's broker connection.
func (a *Adapter) Close() error {
	return a.subscriber.Close()
}
