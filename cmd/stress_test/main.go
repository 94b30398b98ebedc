package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/web/apiclient"
)

// Fires concurrent orders at one product through the running API and checks
// that exactly the available stock was sold.
func main() {
	baseURL := flag.String("api", "http://localhost:8080", "API base URL")
	initialStock := flag.Int("stock", 20, "stock to seed the product with")
	totalRequests := flag.Int("requests", 50, "concurrent order requests")
	flag.Parse()

	ctx := context.Background()
	client := apiclient.New(*baseURL, 30*time.Second)

	customer, err := client.CreateCustomer(ctx, apiclient.CustomerRequest{
		Username: "stress-" + uuid.NewString()[:8],
		Email:    "stress@example.com",
	})
	if err != nil {
		log.Fatalf("failed to create customer: %v", err)
	}
	product, err := createProduct(ctx, *baseURL, *initialStock)
	if err != nil {
		log.Fatalf("failed to create product: %v", err)
	}

	var successCount atomic.Int32
	var soldOutCount atomic.Int32
	var failCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < *totalRequests; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			_, err := client.CreateOrder(ctx, customer.ID, product.ID, 1, fmt.Sprintf("stress-%s-%d", product.ID, n))
			var apiErr *apiclient.APIError
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.As(err, &apiErr) && apiErr.InsufficientStock():
				soldOutCount.Add(1)
			default:
				failCount.Add(1)
				log.Printf("request %d failed: %v", n, err)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	soldOut := soldOutCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", *initialStock)
	fmt.Printf("Total Requests:   %d\n", *totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Sold out:         %d\n", soldOut)
	fmt.Printf("Other failures:   %d\n", failCount.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	expected := min(*initialStock, *totalRequests)
	if int(success) == expected {
		fmt.Printf("PASS: Exactly %d orders succeeded\n", expected)
	} else {
		fmt.Printf("FAIL: Expected %d successful orders, got %d\n", expected, success)
	}

	final, err := client.GetProduct(ctx, product.ID)
	if err != nil || final == nil {
		log.Fatalf("failed to read final stock: %v", err)
	}
	fmt.Printf("Final Stock:      %d\n", final.Stock)
	if final.Stock == *initialStock-expected && final.Stock >= 0 {
		fmt.Println("PASS: Stock matches orders, never negative")
	} else {
		fmt.Printf("FAIL: Expected stock %d, got %d\n", *initialStock-expected, final.Stock)
	}
}

func createProduct(ctx context.Context, baseURL string, stock int) (*domain.Product, error) {
	body, err := json.Marshal(map[string]any{
		"productName":    "stress item",
		"price":          decimal.NewFromInt(1),
		"stockAvailable": stock,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/products", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var p domain.Product
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}
