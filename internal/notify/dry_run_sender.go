package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/ramp-payments/verification-engine/internal/data"
)

// DryRunSender prints the rendered email to stdout instead of delivering it,
// for local development without provider credentials.
type DryRunSender struct{}

var _ EmailSender = (*DryRunSender)(nil)

func NewDryRunSender() *DryRunSender {
	return &DryRunSender{}
}

func (s *DryRunSender) Send(ctx context.Context, kind EmailKind, tx *data.Transaction) error {
	to, err := recipientEmail(tx)
	if err != nil {
		return err
	}

	subject, body, err := renderEmail(kind, tx)
	if err != nil {
		return err
	}

	fmt.Println(strings.Repeat("-", 79))
	fmt.Println("Recipient:", to)
	fmt.Println("Subject:", subject)
	fmt.Println("Content:", body)
	fmt.Println(strings.Repeat("-", 79))

	return nil
}
