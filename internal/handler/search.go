package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"tush00nka/filestash/internal/model"
	"tush00nka/filestash/internal/pkg/httputils"
	"tush00nka/filestash/internal/search"
	"tush00nka/filestash/internal/service"
	"tush00nka/filestash/internal/ws"
)

type SearchHandler struct {
	fileService service.FileService
	hub         *ws.Hub
	upgrader    *websocket.Upgrader
	debounce    time.Duration
}

func NewSearchHandler(fileService service.FileService, hub *ws.Hub, upgrader *websocket.Upgrader, debounce time.Duration) *SearchHandler {
	return &SearchHandler{fileService: fileService, hub: hub, upgrader: upgrader, debounce: debounce}
}

func (h *SearchHandler) RegisterRoutes(private *mux.Router) {
	private.HandleFunc("/search/ws", h.serveWS).Methods("GET")
}

// @Summary Search session
// @Description Websocket. Send {"type":"input","query":"..","location":".."} on every keystroke and
// @Description {"type":"select","file_id":".."} to pick a result. The server answers with state,
// @Description navigate and error events.
// @ID search-ws
// @Tags search
// @Param Authorization header string false "Bearer token"
// @Success 101
// @Failure 401 {object} response.ErrorResponse
// @Failure 429 {object} response.ErrorResponse
// @Router /search/ws [get]
func (h *SearchHandler) serveWS(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	if h.hub.ConnectionCount(user.ID) >= h.hub.MaxConnectionsPerUser() {
		httputils.ResponseError(w, http.StatusTooManyRequests, ws.ErrTooManyConnections.Error())
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "user_id", user.ID, "error", err)
		return
	}

	// The request context ends with the handler; the connection outlives it.
	client := ws.NewClient(context.WithoutCancel(r.Context()), conn, user.ID)
	if err := h.hub.Register(client); err != nil {
		slog.Warn("search client rejected", "user_id", user.ID, "error", err)
		client.Close()
		return
	}
	defer h.hub.Unregister(client)

	ctrl := search.NewController(client.Context(), h.searchFunc(user), func(ev search.Event) {
		client.SendJSON(ev)
	}, h.debounce)
	defer ctrl.Close()

	go func() {
		if err := client.WritePump(); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			slog.Debug("search client write error", "user_id", user.ID, "error", err)
		}
	}()

	client.ReadPump(func(c *ws.Client, ev ws.InEvent) {
		switch ev.Type {
		case ws.InEventInput:
			ctrl.Input(ev.Query, ev.Location)
		case ws.InEventSelect:
			if err := ctrl.Select(ev.FileID); err != nil {
				c.SendJSON(search.Event{Type: search.EventError, Error: err.Error()})
			}
		default:
			c.SendJSON(search.Event{Type: search.EventError, Error: "unknown message type " + ev.Type})
		}
	})
}

func (h *SearchHandler) searchFunc(user *model.User) search.SearchFunc {
	return func(ctx context.Context, query string) ([]model.File, error) {
		list, err := h.fileService.List(ctx, user, service.ListFilter{Search: query})
		if err != nil {
			return nil, err
		}
		return list.Documents, nil
	}
}
