package dispatcher

import (
	"context"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/flybasist/eclipse/internal/core"
)

// DefaultQueueSize — ёмкость входящей очереди событий.
const DefaultQueueSize = 100

// Русский комментарий: Транспорт отдаёт события callback'ами; мы кладём их
// в ограниченную очередь и обрабатываем единственным потребителем. Так
// сохраняется порядок "одно событие обработано полностью -> следующее",
// а side effects внутри события не переупорядочиваются.

type inbound struct {
	event        *core.Event
	calls        []core.CallOffer
	participants *core.ParticipantUpdate
}

func (d *Dispatcher) publish(ctx context.Context, in inbound) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-ctx.Done():
		return false
	case <-d.done:
		return false
	default:
	}
	select {
	case <-ctx.Done():
		return false
	case <-d.done:
		return false
	case d.queue <- in:
		return true
	}
}

// PublishMessage кладёт входящее сообщение в очередь.
// false — очередь закрыта или контекст отменён.
func (d *Dispatcher) PublishMessage(ctx context.Context, ev *core.Event) bool {
	if ev == nil {
		return false
	}
	return d.publish(ctx, inbound{event: ev})
}

// PublishCalls кладёт пачку входящих звонков в очередь.
func (d *Dispatcher) PublishCalls(ctx context.Context, calls []core.CallOffer) bool {
	if len(calls) == 0 {
		return false
	}
	return d.publish(ctx, inbound{calls: calls})
}

// PublishParticipants кладёт изменение состава группы в очередь.
func (d *Dispatcher) PublishParticipants(ctx context.Context, up core.ParticipantUpdate) bool {
	return d.publish(ctx, inbound{participants: &up})
}

// Run — единственный потребитель очереди. Блокируется до отмены
// контекста или Close.
func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.Info("dispatcher started")
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("dispatcher stopped: context canceled")
			return
		case <-d.done:
			d.logger.Info("dispatcher stopped: closed")
			return
		case in := <-d.queue:
			d.process(ctx, in)
		}
	}
}

// Close останавливает приём и потребление событий.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() { close(d.done) })
}

// process изолирует панику на границе одного события: битое или
// враждебное событие не должно ронять процесс.
func (d *Dispatcher) process(ctx context.Context, in inbound) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic recovered in event processing",
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())))
		}
	}()

	switch {
	case in.event != nil:
		d.handleMessage(ctx, in.event)
	case len(in.calls) > 0:
		d.handleCalls(ctx, in.calls)
	case in.participants != nil:
		d.handleParticipants(ctx, *in.participants)
	}
}
