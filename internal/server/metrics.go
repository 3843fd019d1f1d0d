// Package server declares the metric keys and telemetry labels emitted by the
// relay, plus an HTTP view over the in-memory metric sink.
package server

import (
	"log/slog"
	"net/http"

	"github.com/hashicorp/go-metrics"
)

var (
	MetricHandshakeCount          = []string{"chatrelay", "handshake", "count"}
	MetricHandshakeErrorCount     = []string{"chatrelay", "handshake", "error", "count"}
	MetricSessionActive           = []string{"chatrelay", "session", "active"}
	MetricSessionRejectedCount    = []string{"chatrelay", "session", "rejected", "count"}
	MetricBroadcastCount          = []string{"chatrelay", "broadcast", "count"}
	MetricBroadcastBytes          = []string{"chatrelay", "broadcast", "out", "bytes"}
	MetricBroadcastSendErrorCount = []string{"chatrelay", "broadcast", "send", "error", "count"}
	MetricFrameDroppedCount       = []string{"chatrelay", "frame", "dropped", "count"}
)

// TelemetryLabel names an attribute shared by logs and metrics.
type TelemetryLabel string

var (
	LabelAddr     TelemetryLabel = "addr"
	LabelConnID   TelemetryLabel = "conn_id"
	LabelError    TelemetryLabel = "error"
	LabelEvent    TelemetryLabel = "event"
	LabelReason   TelemetryLabel = "reason"
	LabelUsername TelemetryLabel = "username"
)

// M returns the label as a metric label.
func (lab TelemetryLabel) M(val string) metrics.Label {
	return metrics.Label{Name: string(lab), Value: val}
}

// L returns the label as a structured log attribute.
func (lab TelemetryLabel) L(val any) slog.Attr {
	return slog.Attr{
		Key:   string(lab),
		Value: slog.AnyValue(val),
	}
}

// MetricsHandler serves the current in-memory metrics as JSON.
func MetricsHandler(sink *metrics.InmemSink) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := sink.DisplayMetrics(w, r)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}
