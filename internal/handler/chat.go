package handler

import (
	"log/slog"
	"net/http"

	"zeto/internal/capabilities"
	"zeto/internal/handler/sse"
	"zeto/internal/httputil"
	"zeto/internal/service/chat"
)

// ChatHandler exposes the chat relay over HTTP, in both single-shot JSON and
// SSE streaming form.
type ChatHandler struct {
	service   *chat.Service
	catalog   *capabilities.Registry
	sseConfig *sse.Config
	logger    *slog.Logger
}

// NewChatHandler creates a new chat handler. catalog may be nil, in which
// case every model is assumed to stream.
func NewChatHandler(service *chat.Service, catalog *capabilities.Registry, sseConfig *sse.Config, logger *slog.Logger) *ChatHandler {
	if sseConfig == nil {
		sseConfig = sse.DefaultConfig()
	}
	return &ChatHandler{service: service, catalog: catalog, sseConfig: sseConfig, logger: logger}
}

type chatRequest struct {
	Message   string            `json:"message"`
	Model     string            `json:"model"`
	ProjectID string            `json:"projectId"`
	FileIDs   []string          `json:"fileIds"`
	Files     []chat.InlineFile `json:"files"`
	Stream    bool              `json:"stream"`
}

// Send handles POST /api/chat. With stream=false the full completion comes
// back as one JSON body; with stream=true the response is an SSE stream of
// delta events terminated by a done or error event.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var body chatRequest
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req := &chat.Request{
		UserID:    httputil.GetUserID(r.Context()),
		Message:   body.Message,
		Model:     body.Model,
		ProjectID: body.ProjectID,
		FileIDs:   body.FileIDs,
		Files:     body.Files,
	}

	if body.Stream {
		h.stream(w, r, req)
		return
	}

	result, err := h.service.Send(r.Context(), req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, result)
}

// streamSingleShot answers a stream request with a single-shot completion,
// wrapped in the same SSE framing streaming clients already parse.
func (h *ChatHandler) streamSingleShot(w http.ResponseWriter, r *http.Request, req *chat.Request) {
	result, err := h.service.Send(r.Context(), req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	writer, err := sse.NewEventWriter(w)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	if err := writer.WriteEvent(deltaEvent{Delta: result.Response}); err != nil {
		h.logger.Warn("client gone before response write", "error", err)
		return
	}
	if err := writer.WriteEvent(doneEvent{Done: true}); err != nil {
		h.logger.Warn("failed to write done event", "error", err)
	}
}

type deltaEvent struct {
	Delta string `json:"delta"`
}

type doneEvent struct {
	Done bool `json:"done"`
}

type errorEvent struct {
	Error string `json:"error"`
}

// stream relays provider events as SSE frames. Failures before the first
// event still produce a plain JSON error with a real status code; once the
// stream is open, errors travel as a terminal error event instead.
func (h *ChatHandler) stream(w http.ResponseWriter, r *http.Request, req *chat.Request) {
	// Models the catalog marks as non-streaming still honor stream=true:
	// the full completion goes out as a single delta frame.
	if h.catalog != nil && req.Model != "" {
		if info, ok := h.catalog.Lookup(req.Model); ok && !info.SupportsStreaming {
			h.streamSingleShot(w, r, req)
			return
		}
	}

	events, err := h.service.SendStream(r.Context(), req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	writer, err := sse.NewEventWriter(w)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	// An immediate empty delta moves clients out of their waiting state and
	// forces proxies to commit to the streaming response.
	if err := writer.WriteEvent(deltaEvent{}); err != nil {
		h.logger.Warn("client gone before stream start", "error", err)
		return
	}

	keepAlive := sse.NewKeepAlive(h.sseConfig.PingInterval)
	defer keepAlive.Stop()
	keepAlive.Start(writer, h.logger)

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("client disconnected mid-stream", "user_id", req.UserID)
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			if event.Err != nil {
				h.logger.Warn("stream failed", "user_id", req.UserID, "error", event.Err)
				writer.WriteEvent(errorEvent{Error: event.Err.Error()})
				return
			}
			if event.Done {
				if err := writer.WriteEvent(doneEvent{Done: true}); err != nil {
					h.logger.Warn("failed to write done event", "error", err)
				}
				return
			}
			if event.Delta == "" {
				continue
			}
			if err := writer.WriteEvent(deltaEvent{Delta: event.Delta}); err != nil {
				h.logger.Warn("client write failed, aborting stream", "error", err)
				return
			}
		}
	}
}
