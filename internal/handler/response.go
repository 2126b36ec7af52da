package handler

import "net/http"

const statusSuccess = "success"

// Envelope is the body of every successful books response.
type Envelope struct {
	StatusCode int    `json:"status_code"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	Data       any    `json:"data"`
}

func success(statusCode int, data any) Envelope {
	return Envelope{
		StatusCode: statusCode,
		Status:     statusSuccess,
		Data:       data,
	}
}

func ok(data any) Envelope {
	return success(http.StatusOK, data)
}
