package ses

import (
	"context"
	"fmt"
	"html"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"excellerator/internal/port"
)

// sendEmailAPI is the subset of the SES client used here.
type sendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type sesSender struct {
	client      sendEmailAPI
	fromAddress string
	fromName    string
}

// NewSESSender creates a new SES-backed ExportMailer.
func NewSESSender(region, fromAddress, fromName string) (port.ExportMailer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	return newSESSender(sesv2.NewFromConfig(cfg), fromAddress, fromName), nil
}

func newSESSender(client sendEmailAPI, fromAddress, fromName string) *sesSender {
	return &sesSender{
		client:      client,
		fromAddress: fromAddress,
		fromName:    fromName,
	}
}

func (s *sesSender) SendExportLink(ctx context.Context, toEmail, fileName, downloadURL string) error {
	subject := fmt.Sprintf("Your spreadsheet %s is ready", fileName)
	htmlBody := buildExportLinkHTML(fileName, downloadURL)
	textBody := fmt.Sprintf("Hi,\n\nYour spreadsheet %s is ready to download:\n%s\n\nThe link expires soon, so grab it while you can.\n\n%s", fileName, downloadURL, s.fromName)

	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Html: &types.Content{Data: &htmlBody},
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

func buildExportLinkHTML(fileName, downloadURL string) string {
	name := html.EscapeString(fileName)
	link := html.EscapeString(downloadURL)
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Your spreadsheet is ready</h2>
  <p>%s has been exported from Excellerator.</p>
  <p style="text-align: center; margin: 30px 0;">
    <a href="%s" style="background-color: #107C41; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">Download</a>
  </p>
  <p>Or copy and paste this link into your browser:</p>
  <p style="word-break: break-all; color: #666;">%s</p>
  <p style="color: #999; font-size: 12px;">The link expires after a limited time.</p>
</body>
</html>`, name, link, link)
}
