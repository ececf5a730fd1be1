package dto

// Envelope is the common response body. Field errors and toasts travel
// together so both reporting channels describe the same failure.
type Envelope struct {
	Data          any               `json:"data,omitempty"`
	Notifications []Notification    `json:"notifications,omitempty"`
	Errors        map[string]string `json:"errors,omitempty"`
	Error         string            `json:"error,omitempty"`
}

// Notification is a toast.
type Notification struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}
