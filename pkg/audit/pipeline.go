package audit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/chassis-framework/chassis/pkg/events"
	"github.com/chassis-framework/chassis/pkg/i18n"
	"github.com/chassis-framework/chassis/pkg/observability"
	"github.com/chassis-framework/chassis/pkg/reqctx"
)

// Pipeline turns lifecycle events into audit output. It subscribes to the
// history channel and fans each event out per affected id, stamping every
// record with the acting identity taken from the event's context.
//
// Audit output is observability, not correctness: a failed write is logged
// and counted, never surfaced to the mutation that caused it.
type Pipeline struct {
	destination Destination
	recorder    *Recorder
	translator  i18n.Translator
	logger      *observability.Logger
	metrics     *observability.Metrics
}

// NewPipeline creates a pipeline writing to the given destination. recorder
// may be nil for DestinationLog; translator may be nil, in which case log
// lines fall back to the raw message key.
func NewPipeline(destination Destination, recorder *Recorder, translator i18n.Translator, logger *observability.Logger, metrics *observability.Metrics) (*Pipeline, error) {
	if !destination.Valid() {
		return nil, fmt.Errorf("unknown audit destination %q", destination)
	}
	if destination == DestinationTable && recorder == nil {
		return nil, fmt.Errorf("audit destination %q requires a recorder", destination)
	}

	return &Pipeline{
		destination: destination,
		recorder:    recorder,
		translator:  translator,
		logger:      logger,
		metrics:     metrics,
	}, nil
}

// Bind subscribes the pipeline to the bus. Call once during wiring.
func (p *Pipeline) Bind(bus *events.Bus) {
	bus.Subscribe(events.HistoryChannel, p.handle)
}

func (p *Pipeline) handle(ctx context.Context, event events.LifecycleEvent) {
	snap := reqctx.Current(ctx)

	switch p.destination {
	case DestinationTable:
		p.record(ctx, snap, event)
	default:
		p.log(ctx, snap, event)
	}
}

// record persists one row per affected id.
func (p *Pipeline) record(ctx context.Context, snap reqctx.Context, event events.LifecycleEvent) {
	now := time.Now().UTC()
	records := make([]*Record, 0, len(event.IDs))
	for _, id := range event.IDs {
		records = append(records, &Record{
			Timestamp:  now,
			Entity:     event.Entity,
			EntityID:   id,
			Action:     string(event.Action),
			ActorID:    snap.ActorID,
			ActorLabel: snap.ActorLabel,
			RequestID:  snap.RequestID,
			Source:     string(snap.Source),
			Extra:      event.Extra,
		})
	}

	if err := p.recorder.Record(ctx, records); err != nil {
		p.countError()
		p.logger.WithRequestContext(ctx).WithError(err).
			WithField("entity", event.Entity).
			Error("failed to persist audit records")
		return
	}
	p.countRecords(len(records))
}

// log renders one structured line per affected id using the entity's
// history message, falling back to the key itself for untranslated actions.
// Event extras (e.g. old/new status) feed both the message parameters and
// the structured fields.
func (p *Pipeline) log(ctx context.Context, snap reqctx.Context, event events.LifecycleEvent) {
	key := fmt.Sprintf("%s.history.%s", event.Entity, event.Action)

	for _, id := range event.IDs {
		params := map[string]string{
			"id":    strconv.FormatInt(id, 10),
			"actor": snap.ActorLabel,
		}
		for name, value := range event.Extra {
			params[name] = fmt.Sprint(value)
		}

		message := key
		if p.translator != nil {
			message = p.translator.Render(snap.Language, key, params)
		}

		fields := map[string]interface{}{
			"entity":    event.Entity,
			"entity_id": id,
			"action":    string(event.Action),
		}
		if len(event.Extra) > 0 {
			fields["extra"] = event.Extra
		}

		p.logger.WithRequestContext(ctx).WithFields(fields).Info(message)
	}
	p.countRecords(len(event.IDs))
}

func (p *Pipeline) countRecords(n int) {
	if p.metrics != nil {
		p.metrics.AuditRecordsTotal.WithLabelValues(string(p.destination)).Add(float64(n))
	}
}

func (p *Pipeline) countError() {
	if p.metrics != nil {
		p.metrics.AuditDispatchErrorsTotal.WithLabelValues(string(p.destination)).Inc()
	}
}
