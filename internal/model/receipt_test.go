package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestReceiptTotal(t *testing.T) {
	receipt := &Receipt{
		Items: []ReceiptItem{
			{Name: "Pens", Price: decimal.NewFromFloat(2.40)},
			{Name: "Notebook", Price: decimal.NewFromFloat(5.10)},
			{Name: "Tape", Price: decimal.NewFromFloat(1.00)},
		},
	}

	assert.True(t, receipt.Total().Equal(decimal.NewFromFloat(8.50)))
}

func TestReceiptValidate(t *testing.T) {
	valid := func() *Receipt {
		return &Receipt{
			Header: "ACME OFFICE",
			Date:   time.Now(),
			Items:  []ReceiptItem{{Name: "Pens", Price: decimal.NewFromFloat(2.40)}},
		}
	}

	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("MissingHeader", func(t *testing.T) {
		r := valid()
		r.Header = ""
		assert.Error(t, r.Validate())
	})

	t.Run("NoItems", func(t *testing.T) {
		r := valid()
		r.Items = nil
		assert.Error(t, r.Validate())
	})

	t.Run("UnnamedItem", func(t *testing.T) {
		r := valid()
		r.Items[0].Name = ""
		assert.Error(t, r.Validate())
	})

	t.Run("NegativePrice", func(t *testing.T) {
		r := valid()
		r.Items[0].Price = decimal.NewFromFloat(-1)
		assert.Error(t, r.Validate())
	})

	t.Run("ZeroPriceAllowed", func(t *testing.T) {
		r := valid()
		r.Items[0].Price = decimal.Zero
		assert.NoError(t, r.Validate())
	})
}

func TestPrintJobIsCompleted(t *testing.T) {
	job := &PrintJob{Status: JobStatusProcessing}
	assert.False(t, job.IsCompleted())

	job.Status = JobStatusSuccess
	assert.True(t, job.IsCompleted())

	job.Status = JobStatusFailed
	assert.True(t, job.IsCompleted())
}
