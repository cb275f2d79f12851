package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"tagvault-sync-server/internal/domain"
	"tagvault-sync-server/internal/service"
	"tagvault-sync-server/internal/websocket"
	"tagvault-sync-server/pkg/jwt"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	manager   *websocket.Manager
	jwtSecret string
	upgrader  ws.Upgrader
}

func NewWebSocketHandler(manager *websocket.Manager, jwtSecret string) *WebSocketHandler {
	return &WebSocketHandler{
		manager:   manager,
		jwtSecret: jwtSecret,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = r.Header.Get("Authorization")
		if len(token) > 7 && token[:7] == "Bearer " {
			token = token[7:]
		}
	}

	if token == "" {
		http.Error(w, "missing authorization token", http.StatusUnauthorized)
		return
	}

	claims, err := jwt.ValidateToken(token, h.jwtSecret)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	deviceID := r.URL.Query().Get("device_id")
	if deviceID == "" {
		deviceID = "default"
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("failed to upgrade connection: %v", err)
		return
	}

	client := websocket.NewClient(uuid.New().String(), claims.UserID, deviceID, conn, h.manager)

	h.manager.Register <- client

	go client.WritePump()
	go client.ReadPump()
}

// WebSocketMessageHandler serves reconciliation requests arriving over an
// established socket, so a device can converge without a separate HTTP call.
type WebSocketMessageHandler struct {
	syncService *service.SyncService
}

func NewWebSocketMessageHandler(syncService *service.SyncService) *WebSocketMessageHandler {
	return &WebSocketMessageHandler{syncService: syncService}
}

func (h *WebSocketMessageHandler) HandleWebSocketMessage(client *websocket.Client, msg *websocket.Message) error {
	switch msg.Type {
	case websocket.TypeSyncRequest:
		return h.handleSyncRequest(client, msg)

	case websocket.TypePing:
		return h.handlePing(client)

	default:
		log.Printf("unknown message type: %s", msg.Type)
	}

	return nil
}

func (h *WebSocketMessageHandler) handleSyncRequest(client *websocket.Client, msg *websocket.Message) error {
	var payload websocket.SyncRequestPayload
	if err := msg.UnmarshalPayload(&payload); err != nil {
		return err
	}

	ctx := context.Background()

	var resp *domain.SyncResponse
	var err error
	if payload.Since > 0 {
		resp, err = h.syncService.FetchChangedSince(ctx, client.UserID, payload.Since)
	} else {
		resp, err = h.syncService.FetchAllForSync(ctx, client.UserID)
	}
	if err != nil {
		return err
	}

	responseMsg, err := websocket.NewMessage(websocket.TypeSyncResponse, &websocket.SyncResponsePayload{
		Changes:  toTagChanges(resp.Tags),
		SyncTime: resp.SyncTime,
	})
	if err != nil {
		return err
	}

	responseBytes, _ := json.Marshal(responseMsg)
	client.Send <- responseBytes

	return nil
}

func (h *WebSocketMessageHandler) handlePing(client *websocket.Client) error {
	pongMsg, err := websocket.NewMessage(websocket.TypePong, nil)
	if err != nil {
		return err
	}

	pongBytes, _ := json.Marshal(pongMsg)
	client.Send <- pongBytes

	return nil
}

func toTagChanges(tags []*domain.Tag) []websocket.TagChange {
	changes := make([]websocket.TagChange, len(tags))
	for i, t := range tags {
		operation := "update"
		if t.Deleted {
			operation = "delete"
		}

		data, _ := json.Marshal(t)
		changes[i] = websocket.TagChange{
			TagID:     t.ID,
			Operation: operation,
			Data:      data,
		}
	}
	return changes
}
