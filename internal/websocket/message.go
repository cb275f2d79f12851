package websocket

import (
	"encoding/json"
	"time"
)

type MessageType string

const (
	TypeSyncRequest  MessageType = "sync_request"
	TypeSyncResponse MessageType = "sync_response"
	TypeTagUpdate    MessageType = "tag_update"
	TypeTagDelete    MessageType = "tag_delete"
	TypeAck          MessageType = "ack"
	TypePing         MessageType = "ping"
	TypePong         MessageType = "pong"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// SyncRequestPayload asks for the authoritative state. Since is a logical
// millisecond watermark; zero means a full fetch including tombstones.
type SyncRequestPayload struct {
	DeviceID string `json:"device_id"`
	Since    int64  `json:"since"`
}

type SyncResponsePayload struct {
	Changes  []TagChange `json:"changes"`
	SyncTime int64       `json:"sync_time"`
}

type TagChange struct {
	TagID     string          `json:"tag_id"`
	Operation string          `json:"operation"`
	Data      json.RawMessage `json:"data,omitempty"`
}

type TagUpdatePayload struct {
	TagID         string `json:"tag_id"`
	Text          string `json:"text"`
	EncKey        string `json:"enc_key"`
	EncConfig     string `json:"enc_config"`
	SchemaVersion int    `json:"schema_version"`
	UpdateTs      int64  `json:"update_ts"`
	DeviceID      string `json:"device_id"`
}

type TagDeletePayload struct {
	TagID    string `json:"tag_id"`
	DeleteTs int64  `json:"delete_ts"`
	DeviceID string `json:"device_id"`
}

type AckPayload struct {
	MessageID string `json:"message_id"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		bytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = bytes
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Payload:   payloadBytes,
	}, nil
}

func (m *Message) UnmarshalPayload(v interface{}) error {
	if m.Payload == nil {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}
