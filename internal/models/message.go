package models

import "time"

// StoredMessage is a message log held by the message store
type StoredMessage struct {
	Seq        int64      `json:"seq"`
	MessageID  string     `json:"messageId"`
	LogID      string     `json:"logId"`
	Urgency    string     `json:"urgency"`
	Rescued    bool       `json:"rescued"`
	Payload    RawMessage `json:"payload"`
	ReceivedAt time.Time  `json:"receivedAt"`
}

// MessageBatchRequest is the uplink batch body
type MessageBatchRequest struct {
	Logs []RawMessage `json:"logs"`
}

// MessageBatchResponse reports the store size after a batch
type MessageBatchResponse struct {
	Status string `json:"status"`
	Stored int64  `json:"stored"`
}

// MessageListResponse is the full store listing consumed by map clients
// and by upstream pollers
type MessageListResponse struct {
	NetworkName   string       `json:"network_name"`
	UrgencyLevel  string       `json:"urgency_level"`
	TotalMessages int64        `json:"total_messages"`
	Logs          []RawMessage `json:"logs"`
}

// RescueRequest marks a single log as rescued
type RescueRequest struct {
	LogID any `json:"log_id"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status        string `json:"status"`
	TotalMessages int64  `json:"total_messages"`
	RescuedCount  int64  `json:"rescued_count"`
	Server        string `json:"server"`
}
