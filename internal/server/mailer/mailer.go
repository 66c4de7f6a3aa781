// Package mailer renders the account emails and hands them to an SMTP
// server.
package mailer

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// Message is one outgoing email with both an HTML and a plaintext body.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Dispatcher delivers messages. Errors returned by a Dispatcher are always
// wrapped with common.ErrUpstreamDelivery.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) error
}

func deliveryError(err error) error {
	return fmt.Errorf("%w: %v", common.ErrUpstreamDelivery, err)
}
