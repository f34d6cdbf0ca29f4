package server

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/flow-lang/flow/internal/flow/runtime"
	"github.com/flow-lang/flow/internal/flow/server/stream"
)

type triggerResponse struct {
	RunID   string                 `json:"runId"`
	Status  string                 `json:"status"`
	Outputs map[string]interface{} `json:"outputs,omitempty"`
	Message string                 `json:"message,omitempty"`
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	wf, ok := s.workflows[name]
	if !ok {
		http.Error(w, "workflow not found", http.StatusNotFound)
		return
	}

	var payload interface{}
	if r.Body != nil {
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&payload); err != nil && err.Error() != "EOF" {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
	}

	runID := runtime.NewRunID()
	ctx := runtime.WithRunID(r.Context(), runID)

	sink := runtime.LogSinkFunc(func(runID, step, message string) {
		s.hub.Publish(stream.StepEvent{Type: "log", RunID: runID, Step: step, Message: message})
	})

	interp := runtime.New(wf.name, wf.registry, runtime.WithLogSink(sink), runtime.WithTimeout(s.execTimeout))

	s.hub.Publish(stream.StepEvent{Type: "step-start", RunID: runID, Message: "workflow triggered"})
	outcome := interp.Run(ctx, wf.program, runtime.FromGo(payload), hostEnv())
	s.hub.Publish(stream.StepEvent{Type: "outcome", RunID: runID, Message: string(outcome.Status)})

	outputs := make(map[string]interface{}, len(outcome.Outputs))
	for _, o := range outcome.Outputs {
		outputs[o.Name] = o.Value.ToJSON()
	}

	status := http.StatusOK
	if outcome.Status == runtime.StatusRejected {
		status = http.StatusUnprocessableEntity
	} else if outcome.Status == runtime.StatusError {
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(triggerResponse{
		RunID:   runID,
		Status:  string(outcome.Status),
		Outputs: outputs,
		Message: outcome.Message,
	})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	stream.NewClient(s.hub, conn, runID, s.logger)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func hostEnv() runtime.Value {
	rec := runtime.Record{}
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			rec[parts[0]] = runtime.Text(parts[1])
		}
	}
	return rec
}
