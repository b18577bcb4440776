package channels

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/nimasrn/repair-desk/internal/model"
)

type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type EmailSender struct {
	api  SESAPI
	from string
}

func NewEmailSender(api SESAPI, from string) *EmailSender {
	return &EmailSender{api: api, from: from}
}

func NewEmailSenderFromRegion(ctx context.Context, region, from string) (*EmailSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewEmailSender(ses.NewFromConfig(cfg), from), nil
}

func (s *EmailSender) Channel() model.Channel { return model.ChannelEmail }

func (s *EmailSender) Send(ctx context.Context, msg *Outbound) (*Receipt, error) {
	if msg.Recipient.Email == "" {
		return nil, ErrNoRecipient
	}
	if s.from == "" {
		return nil, permanent("email sender address is not configured")
	}

	body := &sestypes.Body{
		Text: &sestypes.Content{Data: aws.String(msg.Body), Charset: aws.String("UTF-8")},
	}
	if msg.HTML != "" {
		body.Html = &sestypes.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")}
	}

	out, err := s.api.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{ToAddresses: []string{msg.Recipient.Email}},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
			Body:    body,
		},
		Source: aws.String(s.from),
	})
	if err != nil {
		var rejected *sestypes.MessageRejected
		var unverified *sestypes.MailFromDomainNotVerifiedException
		if errors.As(err, &rejected) || errors.As(err, &unverified) {
			return nil, permanent("ses rejected mail to %s: %v", msg.Recipient.Email, err)
		}
		return nil, fmt.Errorf("ses send: %w", err)
	}
	return &Receipt{
		ProviderMessageID: aws.ToString(out.MessageId),
		Status:            "SENT",
		Delivered:         1,
		SentAt:            time.Now(),
	}, nil
}
