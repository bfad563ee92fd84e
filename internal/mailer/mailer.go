package mailer

// Message is a single outbound email.
type Message struct {
	ToEmail string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers booking notifications. Implementations must be safe for
// concurrent use by the notify worker.
type Mailer interface {
	Send(msg *Message) error
}
