// Package qr builds links to rendered QR code images.
package qr

import "net/url"

// BaseURL renders a 300x300 QR image for the data query parameter.
const BaseURL = "https://api.qrserver.com/v1/create-qr-code/?size=300x300&data="

// Link returns the QR image link encoding dataURL.  No network call is made.
func Link(dataURL string) string {
	return BaseURL + url.QueryEscape(dataURL)
}
