// Package model defines data structures for the WhatsApp assistant bridge.
package model

// Payload is the root webhook payload delivered by the WhatsApp platform.
type Payload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry is one entry in the webhook payload.
type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

// Change is a change notification inside an entry.
type Change struct {
	Value Value  `json:"value"`
	Field string `json:"field"`
}

// Value carries the message payload of a change.
type Value struct {
	MessagingProduct string    `json:"messaging_product"`
	Metadata         Metadata  `json:"metadata"`
	Contacts         []Contact `json:"contacts,omitempty"`
	Messages         []Message `json:"messages,omitempty"`
}

// Metadata identifies the receiving business account number.
type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

// Contact is the sender's contact record.
type Contact struct {
	Profile Profile `json:"profile"`
	WaID    string  `json:"wa_id"`
}

// Profile is the sender's profile information.
type Profile struct {
	Name string `json:"name"`
}

// Message is a single inbound message. Type is "text" or "audio".
type Message struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *Text  `json:"text,omitempty"`
	Audio     *Audio `json:"audio,omitempty"`
}

// Text is the text content of a message.
type Text struct {
	Body string `json:"body"`
}

// Audio describes an audio attachment hosted on the platform's media API.
type Audio struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	SHA256   string `json:"sha256"`
	Voice    bool   `json:"voice"`
}

// FirstMessage returns the first message in the payload, if any.
func (p *Payload) FirstMessage() *Message {
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			if len(change.Value.Messages) > 0 {
				return &change.Value.Messages[0]
			}
		}
	}
	return nil
}
