package models

import "time"

type File struct {
	ID            string  `json:"id"`
	Object        string  `json:"object,omitempty"`
	Filename      string  `json:"filename"`
	Bytes         int64   `json:"bytes"`
	Purpose       string  `json:"purpose"`
	CreatedAt     int64   `json:"created_at"`
	Status        string  `json:"status"`
	StatusDetails *string `json:"status_details,omitempty"`
}

func (f *File) Created() time.Time {
	return time.Unix(f.CreatedAt, 0)
}

// FileDeleted is the server's acknowledgement of a file deletion.
type FileDeleted struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}
