package domain

import (
	"fmt"
	"time"
)

type ProofOfPayment struct {
	FileName     string
	ContentType  string
	Size         int64
	OrderID      string
	CustomerName string
}

type UploadResult struct {
	FileName string `json:"fileName"`
	BlobURL  string `json:"blobUrl"`
}

// PaymentMetadata is the text record written next to an uploaded proof.
type PaymentMetadata struct {
	UploadedAt   time.Time
	OrderID      string
	CustomerName string
	BlobURL      string
}

func (m PaymentMetadata) String() string {
	return fmt.Sprintf("UploadedAtUtc: %s\nOrderId: %s\nCustomerName: %s\nBlobUrl: %s",
		m.UploadedAt.UTC().Format(time.RFC3339Nano), m.OrderID, m.CustomerName, m.BlobURL)
}
