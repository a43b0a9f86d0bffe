package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/ramp-payments/verification-engine/internal/data"
	"github.com/ramp-payments/verification-engine/internal/logging"
)

// sesInterface is the AWS SES surface this package depends on.
type sesInterface interface {
	SendEmail(context.Context, *ses.SendEmailInput, ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// AWSSESSender delivers confirmation/expiration emails through AWS SES.
type AWSSESSender struct {
	emailService sesInterface
	senderID     string
}

var _ EmailSender = (*AWSSESSender)(nil)

// NewAWSSESSender builds an AWSSESSender. It uses static credentials when
// accessKeyID/secretAccessKey/region are all set, otherwise it falls back to
// the AWS default credential chain.
func NewAWSSESSender(ctx context.Context, accessKeyID, secretAccessKey, region, senderID string) (*AWSSESSender, error) {
	senderID = strings.TrimSpace(senderID)
	if senderID == "" {
		return nil, fmt.Errorf("aws SES sender id is empty")
	}

	cfg, err := loadAWSConfig(ctx, accessKeyID, secretAccessKey, region)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}

	return &AWSSESSender{
		emailService: ses.NewFromConfig(cfg),
		senderID:     senderID,
	}, nil
}

func loadAWSConfig(ctx context.Context, accessKeyID, secretAccessKey, region string) (aws.Config, error) {
	accessKeyID = strings.TrimSpace(accessKeyID)
	secretAccessKey = strings.TrimSpace(secretAccessKey)
	region = strings.TrimSpace(region)

	if accessKeyID != "" && secretAccessKey != "" && region != "" {
		return config.LoadDefaultConfig(ctx,
			config.WithRegion(region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")),
		)
	}
	return config.LoadDefaultConfig(ctx, config.WithRegion(region))
}

func (s *AWSSESSender) Send(ctx context.Context, kind EmailKind, tx *data.Transaction) error {
	to, err := recipientEmail(tx)
	if err != nil {
		return err
	}

	subject, body, err := renderEmail(kind, tx)
	if err != nil {
		return err
	}

	input := &ses.SendEmailInput{
		Destination: &types.Destination{ToAddresses: []string{to}},
		Message: &types.Message{
			Body: &types.Body{
				Html: &types.Content{Charset: aws.String("utf-8"), Data: aws.String(body)},
			},
			Subject: &types.Content{Charset: aws.String("utf-8"), Data: aws.String(subject)},
		},
		Source: aws.String(s.senderID),
	}

	if _, err := s.emailService.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("sending AWS SES email for transaction %s: %w", tx.Reference, err)
	}

	logging.Ctx(ctx).Infof("sent %s email for transaction %s via AWS SES", kind, tx.Reference)
	return nil
}
