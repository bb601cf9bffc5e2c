package service

// QRCodeService defines the interface for QR code generation.
type QRCodeService interface {
	// EncodePNG renders the given payload as a PNG QR code.
	EncodePNG(data string) ([]byte, error)
}
