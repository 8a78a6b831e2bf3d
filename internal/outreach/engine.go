package outreach

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/outreach-mail/internal/mail"
	"github.com/noah-isme/outreach-mail/internal/nonprofit"
	"github.com/noah-isme/outreach-mail/internal/obs"
	"github.com/noah-isme/outreach-mail/internal/render"
)

// EngineConfig wires the dependencies of an Engine.
type EngineConfig struct {
	Directory nonprofit.Lookuper
	Transport mail.Transport
	History   *History
	Status    *StatusBoard
	Logger    zerolog.Logger
	// Concurrency bounds parallel recipient processing within a batch.
	Concurrency int
	// RecordFailures appends FAILED history entries for transport failures.
	RecordFailures bool
	Now            func() time.Time
}

// Engine resolves, renders and sends one message per recipient of a batch.
type Engine struct {
	directory      nonprofit.Lookuper
	transport      mail.Transport
	history        *History
	status         *StatusBoard
	logger         zerolog.Logger
	concurrency    int
	recordFailures bool
	now            func() time.Time
}

// NewEngine validates cfg and returns a ready Engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Directory == nil {
		return nil, errors.New("outreach: directory is required")
	}
	if cfg.Transport == nil {
		return nil, errors.New("outreach: transport is required")
	}
	if cfg.History == nil {
		cfg.History = NewHistory()
	}
	if cfg.Status == nil {
		cfg.Status = NewStatusBoard()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Engine{
		directory:      cfg.Directory,
		transport:      cfg.Transport,
		history:        cfg.History,
		status:         cfg.Status,
		logger:         cfg.Logger,
		concurrency:    cfg.Concurrency,
		recordFailures: cfg.RecordFailures,
		now:            cfg.Now,
	}, nil
}

// History exposes the store the engine appends to.
func (e *Engine) History() *History { return e.history }

// Status exposes the engine's status board.
func (e *Engine) Status() *StatusBoard { return e.status }

// Dispatch processes every recipient of req independently. It never fails as
// a whole: each recipient's fault is captured in its RecipientResult. History
// entries are appended after all recipients finish, in request order.
func (e *Engine) Dispatch(ctx context.Context, req BatchRequest) BatchResult {
	start := time.Now()
	batchID := uuid.NewString()
	ctx, span := otel.Tracer("outreach").Start(ctx, "outreach.dispatch")
	defer span.End()
	span.SetAttributes(
		attribute.String("outreach.batch_id", batchID),
		attribute.String("outreach.sender_id", req.SenderID),
		attribute.Int("outreach.recipients", len(req.RecipientIDs)),
	)

	results := make([]RecipientResult, len(req.RecipientIDs))
	records := make([]*SentEmail, len(req.RecipientIDs))

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, recipientID := range req.RecipientIDs {
		g.Go(func() error {
			results[i], records[i] = e.dispatchOne(ctx, batchID, req, recipientID)
			return nil
		})
	}
	_ = g.Wait()

	ordered := make([]SentEmail, 0, len(records))
	for _, rec := range records {
		if rec != nil {
			ordered = append(ordered, *rec)
		}
	}
	e.history.Record(ordered...)

	result := BatchResult{BatchID: batchID, Results: results}
	sent := result.Count(OutcomeSent)
	if failed := len(results) - sent; failed > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d of %d recipients not sent", failed, len(results)))
	}
	if obs.DispatchBatchesTotal != nil {
		obs.DispatchBatchesTotal.Inc()
	}
	if obs.DispatchBatchDuration != nil {
		obs.DispatchBatchDuration.Observe(obs.DurationMillis(time.Since(start)))
	}
	e.logger.Info().
		Str("batch_id", batchID).
		Str("sender_id", req.SenderID).
		Int("recipients", len(results)).
		Int("sent", sent).
		Int("not_registered", result.Count(OutcomeNotRegistered)).
		Int("failed", result.Count(OutcomeTransportFailed)).
		Dur("elapsed", time.Since(start)).
		Msg("dispatch_batch_completed")
	return result
}

func (e *Engine) dispatchOne(ctx context.Context, batchID string, req BatchRequest, recipientID string) (res RecipientResult, rec *SentEmail) {
	res.RecipientID = recipientID
	e.status.Set(recipientID, StatusInProgress)

	var message string
	defer func() {
		if p := recover(); p != nil {
			res.Outcome = OutcomeTransportFailed
			res.Error = fmt.Sprintf("panic: %v", p)
			rec = e.failed(batchID, req, recipientID, message)
			e.status.Set(recipientID, StatusFailed)
		}
		e.observe(res)
	}()

	np, ok := e.directory.Lookup(ctx, recipientID)
	if !ok {
		res.Outcome = OutcomeNotRegistered
		res.Error = notRegisteredStatus(recipientID)
		e.status.Set(recipientID, res.Error)
		return res, nil
	}

	message = render.Render(req.BodyTemplate, render.NonprofitAttrs(np.Name, np.Address))
	sendStart := time.Now()
	err := e.transport.Send(ctx, mail.Message{
		SenderID:    req.SenderID,
		RecipientID: recipientID,
		Subject:     req.Subject,
		Body:        message,
	})
	e.observeSend(err, time.Since(sendStart))
	if err != nil {
		res.Outcome = OutcomeTransportFailed
		res.Error = err.Error()
		e.status.Set(recipientID, StatusFailed)
		return res, e.failed(batchID, req, recipientID, message)
	}

	res.Outcome = OutcomeSent
	e.status.Set(recipientID, StatusSent)
	return res, &SentEmail{
		ID:        uuid.NewString(),
		BatchID:   batchID,
		SenderID:  req.SenderID,
		Recipient: recipientID,
		Subject:   req.Subject,
		Message:   message,
		SentAt:    e.now().UTC(),
		Status:    StatusSent,
	}
}

// failed builds the FAILED history entry when failure recording is on.
func (e *Engine) failed(batchID string, req BatchRequest, recipientID, message string) *SentEmail {
	if !e.recordFailures {
		return nil
	}
	return &SentEmail{
		ID:        uuid.NewString(),
		BatchID:   batchID,
		SenderID:  req.SenderID,
		Recipient: recipientID,
		Subject:   req.Subject,
		Message:   message,
		SentAt:    e.now().UTC(),
		Status:    StatusFailed,
	}
}

func (e *Engine) observe(res RecipientResult) {
	if obs.DispatchRecipientsTotal != nil {
		obs.DispatchRecipientsTotal.WithLabelValues(string(res.Outcome)).Inc()
	}
	evt := e.logger.Debug()
	if res.Outcome == OutcomeTransportFailed {
		evt = e.logger.Warn().Str("error", res.Error)
	}
	evt.Str("recipient_id", res.RecipientID).Str("outcome", string(res.Outcome)).Msg("dispatch_recipient")
}

func (e *Engine) observeSend(err error, elapsed time.Duration) {
	if obs.MailSendLatency == nil {
		return
	}
	result := "delivered"
	if err != nil {
		result = "rejected"
	}
	obs.MailSendLatency.WithLabelValues(result).Observe(obs.DurationMillis(elapsed))
}
