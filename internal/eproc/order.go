package eproc

import (
	"github.com/shopspring/decimal"
	"github.com/sjperalta/cbms-api/internal/models"
)

// Order is a purchase order as published by the portal
type Order struct {
	ID           string          `json:"id"`
	OrderNumber  string          `json:"orderNumber"`
	TenderID     string          `json:"tenderId"`
	LOANumber    string          `json:"loaNumber"`
	SupplierName string          `json:"supplierName"`
	Description  string          `json:"description"`
	ObjectCode   string          `json:"objectCode"`
	FiscalYear   string          `json:"fiscalYear"`
	FundingPool  string          `json:"fundingPool,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	StampDuty    decimal.Decimal `json:"stampDuty"`
	GST          decimal.Decimal `json:"gst"`
	IncomeTax    decimal.Decimal `json:"incomeTax"`
	LaborDuty    decimal.Decimal `json:"laborDuty"`
}

// OrderPage is the order search response
type OrderPage struct {
	Orders []Order `json:"orders"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ToBill maps the order onto a new draft bill. Derived amounts are left to Recalculate.
func (o Order) ToBill() *models.ContingentBill {
	pool := o.FundingPool
	if !models.ValidPool(pool) {
		pool = models.PoolAAA
	}

	description := o.Description
	if description == "" && o.OrderNumber != "" {
		description = "Purchase order " + o.OrderNumber
	}

	return &models.ContingentBill{
		SupplierName:  o.SupplierName,
		Description:   description,
		ObjectCode:    o.ObjectCode,
		FiscalYear:    o.FiscalYear,
		FundingPool:   pool,
		EprocOrderID:  optional(o.ID),
		EprocTenderID: optional(o.TenderID),
		LOANumber:     optional(o.LOANumber),
		AmountOfBill:  o.Amount,
		StampDuty:     o.StampDuty,
		GST:           o.GST,
		IncomeTax:     o.IncomeTax,
		LaborDuty:     o.LaborDuty,
		Status:        models.BillStatusDraft,
	}
}
