package channels

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/nimasrn/repair-desk/internal/model"
)

type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSSender delivers SMS through AWS SNS direct publish.
type SNSSender struct {
	api      SNSAPI
	senderID string
}

func NewSNSSender(api SNSAPI, senderID string) *SNSSender {
	return &SNSSender{api: api, senderID: senderID}
}

func NewSNSSenderFromRegion(ctx context.Context, region, senderID string) (*SNSSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSNSSender(sns.NewFromConfig(cfg), senderID), nil
}

func (s *SNSSender) Channel() model.Channel { return model.ChannelSMS }

func (s *SNSSender) Send(ctx context.Context, msg *Outbound) (*Receipt, error) {
	if msg.Recipient.Phone == "" {
		return nil, ErrNoRecipient
	}
	input := &sns.PublishInput{
		PhoneNumber: aws.String(msg.Recipient.Phone),
		Message:     aws.String(msg.Body),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {DataType: aws.String("String"), StringValue: aws.String("Transactional")},
		},
	}
	if s.senderID != "" {
		input.MessageAttributes["AWS.SNS.SMS.SenderID"] = snstypes.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(s.senderID),
		}
	}

	out, err := s.api.Publish(ctx, input)
	if err != nil {
		var invalid *snstypes.InvalidParameterException
		var optedOut *snstypes.InvalidParameterValueException
		if errors.As(err, &invalid) || errors.As(err, &optedOut) {
			return nil, permanent("sns rejected %s: %v", msg.Recipient.Phone, err)
		}
		return nil, fmt.Errorf("sns publish: %w", err)
	}
	return &Receipt{
		ProviderMessageID: aws.ToString(out.MessageId),
		Status:            "SENT",
		Delivered:         1,
		SentAt:            time.Now(),
	}, nil
}
