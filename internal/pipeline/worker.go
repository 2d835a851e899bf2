// Package pipeline runs the correlation pipeline: a sequential dispatch
// worker draining a FIFO queue of communication ids, and a broadcaster
// pushing candidate and decision events to live subscribers.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/alert-triage/internal/domain"
	"github.com/couchcryptid/alert-triage/internal/observability"
)

// Repository is the persistence surface the worker needs.
type Repository interface {
	SaveCommunication(ctx context.Context, c domain.Communication) error
	GetCommunication(ctx context.Context, id string) (domain.Communication, error)
	MarkProcessed(ctx context.Context, c domain.Communication) error
	SaveExtraction(ctx context.Context, e domain.Extraction) error
	AttachExplanation(ctx context.Context, communicationID, explanation string) error
	UpsertCandidate(ctx context.Context, cand domain.AlertCandidate) (domain.AlertCandidate, bool, error)
}

// EventSink receives every broadcast event for out-of-process fan-out.
// Optional; a nil sink disables it.
type EventSink interface {
	PublishEvent(ctx context.Context, ev Event) error
}

// Params are the tunable correlation constants. Heuristics with no
// documented derivation; configured rather than hard-coded.
type Params struct {
	SectorGrid float64
	Weights    domain.FusionWeights
	Thresholds domain.SeverityThresholds
}

// Worker is the single sequential consumer of the dispatch queue. Each
// dequeued communication runs the full pipeline; failures are isolated per
// item and never halt the queue.
type Worker struct {
	repo        Repository
	detector    domain.LanguageDetector
	geocoder    domain.Geocoder
	correlator  *domain.Correlator
	broadcaster *Broadcaster
	sink        EventSink
	params      Params
	queue       chan string
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewWorker creates a Worker with a bounded FIFO queue. geocoder and sink
// may be nil.
func NewWorker(
	repo Repository,
	detector domain.LanguageDetector,
	geocoder domain.Geocoder,
	correlator *domain.Correlator,
	broadcaster *Broadcaster,
	sink EventSink,
	params Params,
	queueCapacity int,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Worker {
	return &Worker{
		repo:        repo,
		detector:    detector,
		geocoder:    geocoder,
		correlator:  correlator,
		broadcaster: broadcaster,
		sink:        sink,
		params:      params,
		queue:       make(chan string, queueCapacity),
		logger:      logger,
		metrics:     metrics,
	}
}

// SubmitReport validates a report payload, persists it as a communication,
// and enqueues it for processing. Both the HTTP API and the Kafka intake
// funnel through here.
func (w *Worker) SubmitReport(ctx context.Context, payload domain.ReportPayload) (domain.Communication, error) {
	if err := payload.Validate(); err != nil {
		return domain.Communication{}, err
	}
	comm := domain.NewCommunication(uuid.NewString(), payload)
	if err := w.repo.SaveCommunication(ctx, comm); err != nil {
		return domain.Communication{}, fmt.Errorf("save communication: %w", err)
	}
	if err := w.Enqueue(ctx, comm.ID); err != nil {
		return domain.Communication{}, err
	}
	w.metrics.ReportsIngested.WithLabelValues(string(comm.Source)).Inc()
	return comm, nil
}

// Enqueue appends a communication id to the dispatch queue, blocking when
// the queue is full so producers feel backpressure.
func (w *Worker) Enqueue(ctx context.Context, communicationID string) error {
	select {
	case w.queue <- communicationID:
		w.metrics.QueueDepth.Set(float64(len(w.queue)))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Broadcaster exposes the subscriber registry for the API layer.
func (w *Worker) Broadcaster() *Broadcaster {
	return w.broadcaster
}

// Run drains the queue until the context is cancelled. Items are processed
// strictly in enqueue order; a dequeued item runs to completion with no
// mid-pipeline abort.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("dispatch worker started", "queue_capacity", cap(w.queue))
	w.metrics.WorkerRunning.Set(1)
	defer w.metrics.WorkerRunning.Set(0)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("dispatch worker stopping", "reason", ctx.Err())
			return nil
		case id := <-w.queue:
			w.metrics.QueueDepth.Set(float64(len(w.queue)))
			w.processOne(id)
		}
	}
}

// processOne runs the pipeline for a single communication, isolating
// failures (including panics) so the worker can advance to the next item.
func (w *Worker) processOne(id string) {
	// The item context is deliberately detached from Run's: once dequeued,
	// an item runs to completion even during shutdown, so correlation is
	// never partially applied.
	ctx := context.Background()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			w.metrics.ReportsFailed.Inc()
			w.logger.Error("panic during pipeline run", "communication_id", id, "panic", r)
		}
	}()

	if err := w.process(ctx, id); err != nil {
		w.metrics.ReportsFailed.Inc()
		w.logger.Error("pipeline run failed", "communication_id", id, "error", err)
		return
	}

	w.metrics.ReportsProcessed.Inc()
	w.metrics.ProcessingDuration.Observe(time.Since(start).Seconds())
}

// process runs stages in fixed order: normalize → extract → locate →
// urgency → fingerprint → correlate → fuse severity → aggregate candidate.
func (w *Worker) process(ctx context.Context, id string) error {
	comm, err := w.repo.GetCommunication(ctx, id)
	if err != nil {
		return fmt.Errorf("load communication: %w", err)
	}

	norm := domain.NormalizeReport(comm.Text, w.detector)
	entities := domain.ExtractEntities(norm.Text)
	hazards := domain.InferHazards(norm.Text)
	hazard := hazards[0]

	hint := domain.ResolveHint(norm.Text, entities)
	geo := domain.ResolveGeo(ctx, comm, hint, w.geocoder, w.params.SectorGrid, w.logger)

	urgency := domain.ScoreUrgency(entities)
	fingerprint := domain.Fingerprint(norm.Tokens)

	// Sensor corroboration only counts readings whose rule maps to the
	// inferred hazard; unrelated matches stay out of the evidence.
	var matches []domain.SensorMatch
	if geo.HasCoords {
		for _, m := range w.correlator.Correlate(ctx, geo.Lat, geo.Lng) {
			if m.Hazard == hazard.Label {
				matches = append(matches, m)
			}
		}
	}
	w.metrics.SensorMatches.Observe(float64(len(matches)))

	assessment := domain.FuseSeverity(hazard, urgency, matches, geo, w.params.Weights, w.params.Thresholds)

	extraction := domain.Extraction{
		CommunicationID: comm.ID,
		Language:        norm.Language,
		Tokens:          norm.Tokens,
		Entities:        entities,
		Hazards:         hazards,
		UrgencyLevel:    domain.UrgencyLevelFor(urgency),
		UrgencyScore:    urgency,
		Geo:             geo,
		SectorID:        geo.SectorID,
		Fingerprint:     fingerprint,
		CreatedAt:       domain.Clock().Now().UTC(),
	}
	if err := w.repo.SaveExtraction(ctx, extraction); err != nil {
		return fmt.Errorf("save extraction: %w", err)
	}

	comm.Language = norm.Language
	comm.Redacted = norm.Redacted
	comm.SectorID = geo.SectorID
	comm.ContentHash = fingerprint

	if geo.SectorID == "" {
		// Nothing to bucket by: no candidate, but the report still counts
		// as processed.
		w.logger.Info("no sector resolved, skipping candidate",
			"communication_id", comm.ID, "hazard", hazard.Label)
		return w.repo.MarkProcessed(ctx, comm)
	}

	cand, err := w.aggregate(ctx, comm, hazard, geo, urgency, matches, assessment)
	if err != nil {
		return err
	}

	if err := w.repo.AttachExplanation(ctx, comm.ID, assessment.Explanation); err != nil {
		return fmt.Errorf("attach explanation: %w", err)
	}
	if err := w.repo.MarkProcessed(ctx, comm); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}

	w.publish(ctx, Event{Type: EventCandidate, Candidate: cand})
	return nil
}

// aggregate upserts the candidate for (sector, hazard) with one COMM
// evidence entry for the report and one SENSOR entry per corroborating
// match.
func (w *Worker) aggregate(
	ctx context.Context,
	comm domain.Communication,
	hazard domain.HazardGuess,
	geo domain.GeoResult,
	urgency float64,
	matches []domain.SensorMatch,
	assessment domain.Assessment,
) (domain.AlertCandidate, error) {
	lat, lng := geo.Lat, geo.Lng
	if !geo.HasCoords {
		if cLat, cLng, err := domain.SectorCentroid(geo.SectorID, w.params.SectorGrid); err == nil {
			lat, lng = cLat, cLng
		}
	}

	evidence := []domain.Evidence{{
		Kind:      domain.EvidenceComm,
		Ref:       comm.ID,
		Label:     fmt.Sprintf("%s report (urgency %.2f)", comm.Source, urgency),
		Score:     hazard.Confidence,
		Timestamp: comm.ReceivedAt,
	}}
	for _, m := range matches {
		evidence = append(evidence, domain.Evidence{
			Kind:      domain.EvidenceSensor,
			Ref:       m.ReadingID,
			Label:     fmt.Sprintf("%s (%.1f km)", m.Label, m.DistanceKm),
			Score:     m.Score,
			Timestamp: m.Timestamp,
		})
	}

	cand, created, err := w.repo.UpsertCandidate(ctx, domain.AlertCandidate{
		SectorID:    geo.SectorID,
		Lat:         lat,
		Lng:         lng,
		Hazard:      hazard.Label,
		Severity:    assessment.Severity,
		Confidence:  assessment.Confidence,
		Explanation: assessment.Explanation,
		Evidence:    evidence,
	})
	if err != nil {
		return domain.AlertCandidate{}, fmt.Errorf("upsert candidate: %w", err)
	}
	if created {
		w.metrics.CandidatesCreated.Inc()
	} else {
		w.metrics.CandidatesUpdated.Inc()
	}
	return cand, nil
}

// PublishDecision fans out a verifier's ruling to live subscribers and the
// external sink.
func (w *Worker) PublishDecision(ctx context.Context, cand domain.AlertCandidate) {
	w.publish(ctx, Event{Type: EventDecision, Candidate: cand})
}

// publish pushes an event to live subscribers and, when configured, the
// external sink.
func (w *Worker) publish(ctx context.Context, ev Event) {
	w.broadcaster.Broadcast(ev)
	w.metrics.EventsBroadcast.WithLabelValues(string(ev.Type)).Inc()
	if w.sink == nil {
		return
	}
	if err := w.sink.PublishEvent(ctx, ev); err != nil {
		w.logger.Warn("event sink publish failed", "event_type", ev.Type, "error", err)
	}
}
