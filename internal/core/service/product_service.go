package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
	"github.com/rl1809/storefront/pkg/apperr"
)

type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	ImageURL    string
	Image       *ImageUpload
}

// ImageUpload is an image file sent along with a product create or update.
type ImageUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.New(apperr.CodeInvalidInput, "ProductName is required")
	}
	if in.Price.IsNegative() {
		return apperr.New(apperr.CodeInvalidInput, "Price must be >= 0")
	}
	if in.Stock < 0 {
		return apperr.New(apperr.CodeInvalidInput, "StockAvailable must be >= 0")
	}
	return nil
}

type ProductService struct {
	repo         port.ProductRepository
	blobs        port.BlobStore
	imagesBucket string
	retries      int
	now          func() time.Time
}

func NewProductService(repo port.ProductRepository, blobs port.BlobStore, imagesBucket string, conflictRetries int) *ProductService {
	return &ProductService{
		repo:         repo,
		blobs:        blobs,
		imagesBucket: imagesBucket,
		retries:      conflictRetries,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *ProductService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if p == nil {
		return nil, apperr.New(apperr.CodeNotFound, "%s not found", domain.PartitionProduct)
	}
	return p, nil
}

func (s *ProductService) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	imageURL, err := s.storeImage(ctx, in)
	if err != nil {
		return nil, err
	}

	now := s.now()
	p := domain.Product{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		ImageURL:    imageURL,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return &p, nil
}

// UpdateProduct replaces the product fields. The image URL is kept unless a
// new image or URL is supplied.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, in ProductInput) (*domain.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	imageURL, err := s.storeImage(ctx, in)
	if err != nil {
		return nil, err
	}

	updated, err := updateWithRetry(ctx, s.retries, domain.PartitionProduct, id, s.repo.GetProduct,
		func(p *domain.Product) error {
			p.Name = strings.TrimSpace(in.Name)
			p.Description = in.Description
			p.Price = in.Price
			p.Stock = in.Stock
			if imageURL != "" {
				p.ImageURL = imageURL
			}
			p.UpdatedAt = s.now()
			return nil
		},
		s.repo.UpdateProduct,
	)
	if err != nil {
		return nil, err
	}
	updated.Version++
	return updated, nil
}

func (s *ProductService) storeImage(ctx context.Context, in ProductInput) (string, error) {
	if in.Image == nil || in.Image.Size == 0 {
		return in.ImageURL, nil
	}
	name := blobName(in.Image.FileName)
	url, err := s.blobs.PutBlob(ctx, s.imagesBucket, name, in.Image.Body, in.Image.Size, in.Image.ContentType)
	if err != nil {
		return "", fmt.Errorf("upload product image: %w", err)
	}
	return url, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

// blobName prefixes the base file name with a dashless uuid.
func blobName(fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if base == "." || base == "/" {
		base = "file"
	}
	return strings.ReplaceAll(uuid.NewString(), "-", "") + "-" + base
}
