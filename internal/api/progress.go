package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/studyflow/planner-engine/internal/models"
	"github.com/studyflow/planner-engine/internal/planner"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ProgressMessage is one frame of the projection progress stream
type ProgressMessage struct {
	Type    string `json:"type"`
	Index   int    `json:"index,omitempty"`
	Total   int    `json:"total,omitempty"`
	EventID string `json:"event_id,omitempty"`
	Error   string `json:"error,omitempty"`
	Created int    `json:"created,omitempty"`
	Failed  int    `json:"failed,omitempty"`
}

// handleProjectionWS streams calendar projection progress over a
// websocket. Items are projected one at a time so the client sees each
// event land; the plan is marked projected once the stream completes.
func (s *Server) handleProjectionWS(w http.ResponseWriter, r *http.Request) {
	planID := chi.URLParam(r, "id")
	if planID == "" {
		http.Error(w, "plan id required", http.StatusBadRequest)
		return
	}

	plan, err := s.planner.Get(r.Context(), planID)
	if err != nil {
		if errors.Is(err, planner.ErrPlanNotFound) {
			http.Error(w, "plan not found", http.StatusNotFound)
			return
		}
		slog.Error("failed to get plan", "error", err, "plan_id", planID)
		http.Error(w, "failed to get plan", http.StatusInternalServerError)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	slog.Info("projection websocket connected", "plan_id", planID, "items", len(plan.Items))

	s.sendProgress(conn, ProgressMessage{
		Type:  "started",
		Total: len(plan.Items),
	})

	ctx := r.Context()
	eventIDs := make([]string, 0, len(plan.Items))
	failed := 0

	for i, item := range plan.Items {
		if ctx.Err() != nil {
			break
		}

		results, err := s.projector.Project(ctx, plan.UserID, []models.ScheduleItem{item})
		if err != nil {
			// No credential or lookup failure stops the whole stream;
			// nothing past this item can succeed either.
			slog.Error("projection aborted", "error", err, "plan_id", planID, "index", i)
			s.sendProgress(conn, ProgressMessage{
				Type:  "aborted",
				Index: i,
				Error: err.Error(),
			})
			return
		}

		msg := ProgressMessage{
			Type:  "item",
			Index: i,
			Total: len(plan.Items),
		}
		if len(results) == 1 && results[0].EventID != "" {
			msg.EventID = results[0].EventID
			eventIDs = append(eventIDs, results[0].EventID)
		} else {
			failed++
			if len(results) == 1 {
				msg.Error = results[0].Error
			}
		}

		if err := s.sendProgress(conn, msg); err != nil {
			// Client went away; keep what was created so far.
			break
		}
	}

	if _, err := s.planner.AttachEvents(ctx, plan.ID, eventIDs); err != nil {
		slog.Error("failed to record projected events", "error", err, "plan_id", planID)
		s.sendProgress(conn, ProgressMessage{
			Type:  "error",
			Error: "failed to record projected events",
		})
		return
	}

	s.sendProgress(conn, ProgressMessage{
		Type:    "done",
		Total:   len(plan.Items),
		Created: len(eventIDs),
		Failed:  failed,
	})

	slog.Info("projection websocket finished",
		"plan_id", planID,
		"created", len(eventIDs),
		"failed", failed,
	)
}

func (s *Server) sendProgress(conn *websocket.Conn, msg ProgressMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal progress message", "error", err)
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("failed to send progress message", "error", err)
		return err
	}
	return nil
}
