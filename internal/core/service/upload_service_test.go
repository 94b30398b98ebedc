package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/pkg/apperr"
	"github.com/rl1809/storefront/pkg/logging"
)

func TestUploadProofOfPayment_WritesBlobAndMetadata(t *testing.T) {
	fs := memfs.New()
	blobs := newMockBlobStore()
	svc := NewUploadService(blobs, storage.NewShareAdapter(fs, "contracts"), "payment-proofs", "payments", logging.Discard())
	svc.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }

	body := "%PDF-1.4"
	res, err := svc.UploadProofOfPayment(context.Background(), domain.ProofOfPayment{
		FileName: "receipt.pdf", ContentType: "application/pdf", Size: int64(len(body)),
		OrderID: " order-9 ", CustomerName: "Ada Lovelace",
	}, strings.NewReader(body))
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(res.FileName, "-receipt.pdf"))
	assert.Equal(t, "http://blobs.local/payment-proofs/"+res.FileName, res.BlobURL)
	assert.Equal(t, 1, blobs.count())

	data, err := util.ReadFile(fs, "contracts/payments/"+res.FileName+".txt")
	require.NoError(t, err)
	assert.Equal(t,
		"UploadedAtUtc: 2026-03-04T05:06:07Z\nOrderId: order-9\nCustomerName: Ada Lovelace\nBlobUrl: "+res.BlobURL,
		string(data))
}

func TestUploadProofOfPayment_RequiresFile(t *testing.T) {
	svc := NewUploadService(newMockBlobStore(), storage.NewShareAdapter(memfs.New(), "contracts"), "payment-proofs", "payments", logging.Discard())

	_, err := svc.UploadProofOfPayment(context.Background(), domain.ProofOfPayment{FileName: "x"}, nil)
	assert.Equal(t, apperr.CodeInvalidInput, apperr.CodeOf(err))

	_, err = svc.UploadProofOfPayment(context.Background(), domain.ProofOfPayment{FileName: "x", Size: 0}, strings.NewReader(""))
	assert.Equal(t, apperr.CodeInvalidInput, apperr.CodeOf(err))
}

func TestUploadProofOfPayment_MetadataFailureKeepsBlob(t *testing.T) {
	blobs := newMockBlobStore()
	svc := NewUploadService(blobs, brokenShare{}, "payment-proofs", "payments", logging.Discard())

	_, err := svc.UploadProofOfPayment(context.Background(), domain.ProofOfPayment{
		FileName: "r.pdf", Size: 1, OrderID: "o-1",
	}, strings.NewReader("x"))
	require.Error(t, err)
	assert.Equal(t, 1, blobs.count())
}
