package api

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName          = "opsboard/api"
	observabilityEvent  = "observability.event"
	worklistRoute       = "/api/worklist"
	worklistSpanName    = "opsboard.api.worklist"
	worklistEventName   = "worklist.request"
	worklistEventDomain = "opsboard.api"
	worklistAttrPrefix  = "opsboard.worklist."
)

type worklistRequestMetrics struct {
	logger          *log.Logger
	span            trace.Span
	start           time.Time
	loadDuration    time.Duration
	encodeDuration  time.Duration
	includeDone     bool
	entriesReturned int
	openCount       int
	errorStage      string
}

func newWorklistRequestMetrics(ctx context.Context, logger *log.Logger) (*worklistRequestMetrics, context.Context) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, worklistSpanName,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("http.route", worklistRoute)),
	)
	return &worklistRequestMetrics{
		logger: logger,
		span:   span,
		start:  time.Now(),
	}, ctx
}

func (m *worklistRequestMetrics) ObserveLoad(d time.Duration) {
	if d > 0 {
		m.loadDuration = d
	}
}

func (m *worklistRequestMetrics) ObserveEncode(d time.Duration) {
	if d > 0 {
		m.encodeDuration = d
	}
}

func (m *worklistRequestMetrics) SetIncludeDone(v bool) { m.includeDone = v }

func (m *worklistRequestMetrics) SetEntriesReturned(n int) {
	if n < 0 {
		n = 0
	}
	m.entriesReturned = n
}

func (m *worklistRequestMetrics) SetOpenCount(n int) { m.openCount = n }

func (m *worklistRequestMetrics) SetErrorStage(stage string) {
	if stage != "" {
		m.errorStage = stage
	}
}

// Log ends the request span and emits the observability event on both the span
// and the logger.
func (m *worklistRequestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("http.route", worklistRoute),
		attribute.Int("http.status_code", status),
		attribute.Float64(worklistAttrPrefix+"total_ms", durationToMillis(time.Since(m.start))),
		attribute.Bool(worklistAttrPrefix+"include_done", m.includeDone),
		attribute.Int(worklistAttrPrefix+"entries_returned", m.entriesReturned),
		attribute.Int(worklistAttrPrefix+"open_count", m.openCount),
	}
	if m.loadDuration > 0 {
		attrs = append(attrs, attribute.Float64(worklistAttrPrefix+"load_ms", durationToMillis(m.loadDuration)))
	}
	if m.encodeDuration > 0 {
		attrs = append(attrs, attribute.Float64(worklistAttrPrefix+"encode_ms", durationToMillis(m.encodeDuration)))
	}
	if m.errorStage != "" {
		attrs = append(attrs, attribute.String(worklistAttrPrefix+"error_stage", m.errorStage))
	}
	if err != nil {
		attrs = append(attrs, attribute.String("error.message", err.Error()))
	}

	sevText, sevNumber := severityForStatus(status, err)
	eventAttrs := make([]attribute.KeyValue, 0, len(attrs)+4)
	eventAttrs = append(eventAttrs,
		attribute.String("event.name", worklistEventName),
		attribute.String("event.domain", worklistEventDomain),
		attribute.String("severity_text", sevText),
		attribute.Int("severity_number", sevNumber),
	)
	eventAttrs = append(eventAttrs, attrs...)

	m.span.SetAttributes(attrs...)
	m.span.AddEvent(observabilityEvent, trace.WithAttributes(eventAttrs...))
	switch {
	case err != nil:
		m.span.RecordError(err)
		m.span.SetStatus(codes.Error, err.Error())
	case status >= http.StatusInternalServerError:
		m.span.SetStatus(codes.Error, http.StatusText(status))
	case status < http.StatusBadRequest:
		m.span.SetStatus(codes.Ok, "")
	}
	sc := m.span.SpanContext()
	m.span.End()

	if m.logger == nil {
		return
	}
	attrMap := make(map[string]any, len(attrs))
	for _, kv := range attrs {
		attrMap[string(kv.Key)] = kv.Value.AsInterface()
	}
	fields := log.Fields{
		"event.name":      worklistEventName,
		"event.domain":    worklistEventDomain,
		"severity_text":   sevText,
		"severity_number": sevNumber,
		"attributes":      attrMap,
	}
	if sc.HasTraceID() {
		fields["trace_id"] = sc.TraceID().String()
	}
	if sc.HasSpanID() {
		fields["span_id"] = sc.SpanID().String()
	}
	entry := m.logger.WithFields(fields)
	switch sevText {
	case "ERROR":
		entry.Error(observabilityEvent)
	case "WARN":
		entry.Warn(observabilityEvent)
	default:
		entry.Info(observabilityEvent)
	}
}

func severityForStatus(status int, err error) (string, int) {
	switch {
	case err != nil || status >= http.StatusInternalServerError:
		return "ERROR", 17
	case status >= http.StatusBadRequest:
		return "WARN", 13
	default:
		return "INFO", 9
	}
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
