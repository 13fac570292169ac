package port

import "context"

// ExportMailer delivers links to exported spreadsheets.
type ExportMailer interface {
	SendExportLink(ctx context.Context, toEmail, fileName, downloadURL string) error
}
