package connectors

import "almacen/internal"

// MailConnector pulls raw supplier mails from one inbox provider.
type MailConnector interface {
	FetchInbox(label string, max int) ([]internal.FetchedMailMessage, error)
}
