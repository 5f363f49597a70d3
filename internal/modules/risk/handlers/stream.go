package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/aristath/sentinel-risk/internal/events"
	"github.com/aristath/sentinel-risk/internal/utils"
	"nhooyr.io/websocket"
)

const (
	streamBuffer       = 16
	streamWriteTimeout = 10 * time.Second
)

// streamMessage is one frame of the report stream
type streamMessage struct {
	Type   events.EventType `json:"type"`
	Report interface{}      `json:"report,omitempty"`
	Event  *events.Event    `json:"event,omitempty"`
}

// streamTypes are forwarded when the client passes no ?types= filter
var streamTypes = []events.EventType{events.ReportGenerated, events.RegimeChanged}

// HandleReportStream handles GET /api/risk/reports/stream (websocket).
// The latest report is sent on connect, then every REPORT_GENERATED and
// REGIME_CHANGED event is forwarded until the client goes away.
// ?types=REPORT_GENERATED,POSITION_UPDATED selects other event types.
func (h *Handler) HandleReportStream(w http.ResponseWriter, r *http.Request) {
	allowed := make(map[events.EventType]bool)
	for _, t := range utils.ParseCSV(r.URL.Query().Get("types")) {
		allowed[events.EventType(strings.ToUpper(t))] = true
	}
	if len(allowed) == 0 {
		for _, t := range streamTypes {
			allowed[t] = true
		}
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to accept websocket connection")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	// CloseRead owns the read side; its context ends when the peer disconnects.
	ctx := conn.CloseRead(context.WithoutCancel(r.Context()))

	eventsCh, unsubscribe := h.svc.Bus.Subscribe(streamBuffer)
	defer unsubscribe()

	h.log.Info().Str("remote", r.RemoteAddr).Msg("Report stream client connected")

	if report, ok := h.svc.Reports.Latest(); ok {
		if err := h.send(ctx, conn, streamMessage{Type: events.ReportGenerated, Report: report}); err != nil {
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Str("remote", r.RemoteAddr).Msg("Report stream client disconnected")
			return
		case ev, ok := <-eventsCh:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			if !allowed[ev.Type] {
				continue
			}
			if err := h.send(ctx, conn, h.frame(ev)); err != nil {
				return
			}
		}
	}
}

// frame attaches the latest full report to REPORT_GENERATED events
func (h *Handler) frame(ev events.Event) streamMessage {
	msg := streamMessage{Type: ev.Type, Event: &ev}
	if ev.Type == events.ReportGenerated {
		if report, ok := h.svc.Reports.Latest(); ok {
			msg.Report = report
		}
	}
	return msg
}

func (h *Handler) send(ctx context.Context, conn *websocket.Conn, msg streamMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to encode stream message")
		return err
	}

	writeCtx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	if err := conn.Write(writeCtx, websocket.MessageText, data); err != nil {
		h.log.Debug().Err(err).Msg("Failed to write stream message")
		return err
	}
	return nil
}
