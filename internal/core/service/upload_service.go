package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
	"github.com/rl1809/storefront/pkg/apperr"
)

type UploadService struct {
	blobs        port.BlobStore
	share        port.FileShare
	proofsBucket string
	paymentsDir  string
	logger       *slog.Logger
	now          func() time.Time
}

func NewUploadService(blobs port.BlobStore, share port.FileShare, proofsBucket, paymentsDir string, logger *slog.Logger) *UploadService {
	return &UploadService{
		blobs:        blobs,
		share:        share,
		proofsBucket: proofsBucket,
		paymentsDir:  paymentsDir,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// UploadProofOfPayment stores the file as a blob and then writes a metadata
// record to the file share. The two writes are independent: when the
// metadata write fails the blob stays where it is.
func (s *UploadService) UploadProofOfPayment(ctx context.Context, proof domain.ProofOfPayment, body io.Reader) (*domain.UploadResult, error) {
	if body == nil || proof.Size <= 0 {
		return nil, apperr.New(apperr.CodeInvalidInput, "ProofOfPayment file is required")
	}

	name := blobName(proof.FileName)
	blobURL, err := s.blobs.PutBlob(ctx, s.proofsBucket, name, body, proof.Size, proof.ContentType)
	if err != nil {
		return nil, fmt.Errorf("store proof of payment: %w", err)
	}

	meta := domain.PaymentMetadata{
		UploadedAt:   s.now(),
		OrderID:      strings.TrimSpace(proof.OrderID),
		CustomerName: strings.TrimSpace(proof.CustomerName),
		BlobURL:      blobURL,
	}
	if err := s.share.WriteFile(ctx, s.paymentsDir, name+".txt", []byte(meta.String())); err != nil {
		s.logger.Error("payment metadata write failed, blob left without record",
			slog.String("blob", name), slog.String("order_id", meta.OrderID), slog.Any("error", err))
		return nil, fmt.Errorf("write payment metadata: %w", err)
	}

	s.logger.Info("proof of payment uploaded",
		slog.String("blob", name), slog.String("order_id", meta.OrderID))
	return &domain.UploadResult{FileName: name, BlobURL: blobURL}, nil
}
