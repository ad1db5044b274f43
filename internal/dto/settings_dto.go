package dto

type UpsertSettingRequest struct {
	Value string `json:"value"`
	Type  string `json:"type"`
}

type EventStatusResponse struct {
	Active           bool   `json:"active"`
	EventDate        string `json:"event_date,omitempty"`
	SecondsRemaining int64  `json:"seconds_remaining"`
}
