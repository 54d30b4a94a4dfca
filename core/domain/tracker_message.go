package domain

// MessageRef identifies a message in the mailbox without its payload.
type MessageRef struct {
	ID       string `json:"id"`
	ThreadID string `json:"thread_id,omitempty"`
}

// RawMessage is a fetched mailbox message as handed to the parser.
// The body may contain HTML markup; Date is the provider's header value
// and is parsed best-effort downstream.
type RawMessage struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Snippet string `json:"snippet"`
	Body    string `json:"body"`
	Date    string `json:"date"`
}
