package dto

import "github.com/google/uuid"

type SubmitInviteRequest struct {
	ToUserID uuid.UUID `json:"to_user_id"`
}

type RespondInviteRequest struct {
	Decision string `json:"decision"` // accept, reject
}

type SkipRequest struct {
	SkippedUserID uuid.UUID `json:"skipped_user_id"`
}

// QuotaExceededResponse is returned with 429 so clients can show the limit
// as a normal end state.
type QuotaExceededResponse struct {
	ErrorResponse
	Remaining int `json:"remaining"`
	Limit     int `json:"limit"`
}
