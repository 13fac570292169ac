package ses

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	return &sesv2.SendEmailOutput{}, f.err
}

func TestSendExportLink(t *testing.T) {
	fake := &fakeSES{}
	s := newSESSender(fake, "noreply@excellerator.app", "Excellerator")

	err := s.SendExportLink(context.Background(), "jane@example.com", "receipts.xlsx", "https://bucket.example/x?a=1&b=2")

	require.NoError(t, err)
	require.NotNil(t, fake.input)
	assert.Equal(t, "Excellerator <noreply@excellerator.app>", *fake.input.FromEmailAddress)
	assert.Equal(t, []string{"jane@example.com"}, fake.input.Destination.ToAddresses)
	assert.Contains(t, *fake.input.Content.Simple.Subject.Data, "receipts.xlsx")
	assert.Contains(t, *fake.input.Content.Simple.Body.Html.Data, "a=1&amp;b=2")
	assert.Contains(t, *fake.input.Content.Simple.Body.Text.Data, "https://bucket.example/x?a=1&b=2")
}

func TestSendExportLink_Error(t *testing.T) {
	s := newSESSender(&fakeSES{err: errors.New("throttled")}, "a@b.c", "X")

	err := s.SendExportLink(context.Background(), "jane@example.com", "f.xlsx", "https://u")

	assert.ErrorContains(t, err, "SES SendEmail")
}
