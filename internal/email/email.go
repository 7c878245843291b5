// Package email delivers HTML notifications to the studio inbox.
package email

import "context"

type Message struct {
	To      []string
	Subject string
	HTML    string
	// ReplyTo is optional.
	ReplyTo string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}
