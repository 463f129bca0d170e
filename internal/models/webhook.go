package models

// ContentWebhookPayload is sent by the CMS when content changes
type ContentWebhookPayload struct {
	Service  string `json:"service" binding:"required"`
	Section  string `json:"section"`
	Action   string `json:"action" binding:"omitempty,oneof=created updated deleted published unpublished"`
	RecordID string `json:"recordId"`
}

// ContentWebhookResponse reports how many cache entries were dropped
type ContentWebhookResponse struct {
	Success     bool `json:"success"`
	Invalidated int  `json:"invalidated"`
}
