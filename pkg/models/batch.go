package models

import "time"

type RequestCounts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

type BatchError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Param   string `json:"param,omitempty"`
	Line    *int   `json:"line,omitempty"`
}

type BatchErrors struct {
	Object string       `json:"object"`
	Data   []BatchError `json:"data"`
}

// Batch mirrors the server's batch object. Timestamps are epoch seconds.
type Batch struct {
	ID               string         `json:"id"`
	Object           string         `json:"object,omitempty"`
	Endpoint         string         `json:"endpoint,omitempty"`
	Status           string         `json:"status"`
	CreatedAt        int64          `json:"created_at"`
	InProgressAt     *int64         `json:"in_progress_at,omitempty"`
	ExpiresAt        *int64         `json:"expires_at,omitempty"`
	FinalizingAt     *int64         `json:"finalizing_at,omitempty"`
	CompletedAt      *int64         `json:"completed_at,omitempty"`
	FailedAt         *int64         `json:"failed_at,omitempty"`
	ExpiredAt        *int64         `json:"expired_at,omitempty"`
	CancellingAt     *int64         `json:"cancelling_at,omitempty"`
	CancelledAt      *int64         `json:"cancelled_at,omitempty"`
	InputFileID      *string        `json:"input_file_id,omitempty"`
	OutputFileID     *string        `json:"output_file_id,omitempty"`
	ErrorFileID      *string        `json:"error_file_id,omitempty"`
	CompletionWindow string         `json:"completion_window"`
	RequestCounts    *RequestCounts `json:"request_counts,omitempty"`
	Errors           *BatchErrors   `json:"errors,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// Created returns created_at as a local time.
func (b *Batch) Created() time.Time {
	return time.Unix(b.CreatedAt, 0)
}

