package dto

type SendMessageRequest struct {
	Content string `json:"content"`
}
