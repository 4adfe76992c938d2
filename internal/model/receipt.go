// internal/model/receipt.go
package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Receipt is the structured document a print job renders. Its content is
// assembled by the catalog/cart side of the application; this service only
// turns it into printer commands.
type Receipt struct {
	Header       string        `json:"header"`
	CustomerName string        `json:"customer_name,omitempty"`
	Date         time.Time     `json:"date"`
	Items        []ReceiptItem `json:"items"`
	Footer       string        `json:"footer,omitempty"`
}

// ReceiptItem is a single billed line
type ReceiptItem struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Total sums the item prices
func (r *Receipt) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range r.Items {
		total = total.Add(item.Price)
	}
	return total
}

// Validate checks the receipt is printable
func (r *Receipt) Validate() error {
	if r.Header == "" {
		return fmt.Errorf("header is required")
	}
	if len(r.Items) == 0 {
		return fmt.Errorf("receipt must have at least one item")
	}
	for i, item := range r.Items {
		if item.Name == "" {
			return fmt.Errorf("item %d: name is required", i)
		}
		if item.Price.IsNegative() {
			return fmt.Errorf("item %d: price cannot be negative", i)
		}
	}
	return nil
}

// FormatPolicy carries the caller-selected emphasis flags for a print job
type FormatPolicy struct {
	BoldHeader bool `json:"bold_header"`
	LargeTotal bool `json:"large_total"`
	FeedLines  int  `json:"feed_lines"`
}

// DefaultFormatPolicy matches what the office prints day to day
func DefaultFormatPolicy() FormatPolicy {
	return FormatPolicy{
		BoldHeader: true,
		LargeTotal: true,
		FeedLines:  4,
	}
}
