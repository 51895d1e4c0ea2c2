package handler

// Envelope is the body shape every API endpoint answers with. Exactly one of
// Data or Error is set.
type Envelope struct {
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

func OK(data interface{}) Envelope { return Envelope{Data: data} }

func Fail(message string) Envelope { return Envelope{Error: message} }
