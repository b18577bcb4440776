package channels

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSES struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *mockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

type mockSNS struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *mockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

func TestEmailSender_Send(t *testing.T) {
	api := &mockSES{SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
		assert.Equal(t, "parts@complus.test", params.Destination.ToAddresses[0])
		assert.Equal(t, "desk@repair.test", aws.ToString(params.Source))
		assert.Equal(t, "Parts request #4", aws.ToString(params.Message.Subject.Data))
		assert.Equal(t, "text", aws.ToString(params.Message.Body.Text.Data))
		assert.Equal(t, "<p>text</p>", aws.ToString(params.Message.Body.Html.Data))
		return &ses.SendEmailOutput{MessageId: aws.String("ses-1")}, nil
	}}

	receipt, err := NewEmailSender(api, "desk@repair.test").Send(context.Background(), &Outbound{
		Recipient: model.Recipient{Email: "parts@complus.test"},
		Subject:   "Parts request #4",
		Body:      "text",
		HTML:      "<p>text</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, "ses-1", receipt.ProviderMessageID)
}

func TestEmailSender_Errors(t *testing.T) {
	rejected := &mockSES{SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
		return nil, &sestypes.MessageRejected{Message: aws.String("Email address is not verified")}
	}}
	_, err := NewEmailSender(rejected, "desk@repair.test").Send(context.Background(), &Outbound{Recipient: model.Recipient{Email: "a@b.c"}})
	assert.True(t, IsPermanent(err))

	throttled := &mockSES{SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
		return nil, errors.New("throttling: rate exceeded")
	}}
	_, err = NewEmailSender(throttled, "desk@repair.test").Send(context.Background(), &Outbound{Recipient: model.Recipient{Email: "a@b.c"}})
	require.Error(t, err)
	assert.False(t, IsPermanent(err))

	_, err = NewEmailSender(throttled, "desk@repair.test").Send(context.Background(), &Outbound{})
	assert.ErrorIs(t, err, ErrNoRecipient)
}

func TestSNSSender_Send(t *testing.T) {
	api := &mockSNS{PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
		assert.Equal(t, "+38160111222", aws.ToString(params.PhoneNumber))
		assert.Equal(t, "hello", aws.ToString(params.Message))
		assert.Equal(t, "REPAIRDESK", aws.ToString(params.MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue))
		return &sns.PublishOutput{MessageId: aws.String("sns-1")}, nil
	}}

	s := NewSNSSender(api, "REPAIRDESK")
	assert.Equal(t, model.ChannelSMS, s.Channel())
	receipt, err := s.Send(context.Background(), &Outbound{Recipient: model.Recipient{Phone: "+38160111222"}, Body: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "sns-1", receipt.ProviderMessageID)

	invalid := &mockSNS{PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
		return nil, &snstypes.InvalidParameterException{Message: aws.String("Invalid parameter: PhoneNumber")}
	}}
	_, err = NewSNSSender(invalid, "").Send(context.Background(), &Outbound{Recipient: model.Recipient{Phone: "123"}})
	assert.True(t, IsPermanent(err))
}
