package sms

import "context"

// Provider sends text messages; used to page the dispatch desk when a trip
// escalates past automated matching.
type Provider interface {
	SendSMS(ctx context.Context, request *Request) (*Response, error)
	SendBulkSMS(ctx context.Context, requests []*Request) ([]*Response, error)
}

type Request struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Message string `json:"message"`
}

type Response struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}
