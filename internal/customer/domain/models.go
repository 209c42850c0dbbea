package domain

import (
	"gorm.io/datatypes"
)

// Column names of the customer table.
const (
	ColumnID                   = "Customer ID"
	ColumnSegment              = "RFM_Segment"
	ColumnChurnRisk            = "ChurnRisk"
	ColumnCLV6M                = "CLV_6M"
	ColumnExpectedRevenue30D   = "ExpectedRevenue30D"
	ColumnFrequency            = "Frequency"
	ColumnMonetary             = "monetary"
	ColumnRecency              = "Recency"
	ColumnTenureDays           = "TenureDays"
	ColumnPurchaseRate         = "PurchaseRate"
	ColumnAvgInterpurchaseDays = "AvgInterpurchaseDays"
	ColumnActiveMonths         = "ActiveMonths"
	ColumnInactivityRatio      = "InactivityRatio"
	ColumnChurnLabel           = "ChurnLabel"
)

// Customer is one precomputed row of the customer table. Rows are loaded once
// and never modified.
type Customer struct {
	ID                 int64   `gorm:"column:Customer ID;primaryKey" json:"customer_id"`
	Segment            string  `gorm:"column:RFM_Segment" json:"RFM_Segment"`
	ChurnRisk          string  `gorm:"column:ChurnRisk" json:"ChurnRisk"`
	CLV6M              float64 `gorm:"column:CLV_6M" json:"CLV_6M"`
	ExpectedRevenue30D float64 `gorm:"column:ExpectedRevenue30D" json:"ExpectedRevenue30D"`

	Frequency            float64 `gorm:"column:Frequency" json:"Frequency"`
	Monetary             float64 `gorm:"column:monetary" json:"monetary"`
	Recency              float64 `gorm:"column:Recency" json:"Recency"`
	TenureDays           float64 `gorm:"column:TenureDays" json:"TenureDays"`
	PurchaseRate         float64 `gorm:"column:PurchaseRate" json:"PurchaseRate"`
	AvgInterpurchaseDays float64 `gorm:"column:AvgInterpurchaseDays" json:"AvgInterpurchaseDays"`
	ActiveMonths         float64 `gorm:"column:ActiveMonths" json:"ActiveMonths"`
	InactivityRatio      float64 `gorm:"column:InactivityRatio" json:"InactivityRatio"`
	ChurnLabel           float64 `gorm:"column:ChurnLabel" json:"ChurnLabel"`

	// Extra holds any other column of the row.
	Extra datatypes.JSONMap `gorm:"-" json:"extra,omitempty"`
}

type numericColumn struct {
	name string
	ptr  func(c *Customer) *float64
}

var numericColumns = []numericColumn{
	{ColumnCLV6M, func(c *Customer) *float64 { return &c.CLV6M }},
	{ColumnExpectedRevenue30D, func(c *Customer) *float64 { return &c.ExpectedRevenue30D }},
	{ColumnFrequency, func(c *Customer) *float64 { return &c.Frequency }},
	{ColumnMonetary, func(c *Customer) *float64 { return &c.Monetary }},
	{ColumnRecency, func(c *Customer) *float64 { return &c.Recency }},
	{ColumnTenureDays, func(c *Customer) *float64 { return &c.TenureDays }},
	{ColumnPurchaseRate, func(c *Customer) *float64 { return &c.PurchaseRate }},
	{ColumnAvgInterpurchaseDays, func(c *Customer) *float64 { return &c.AvgInterpurchaseDays }},
	{ColumnActiveMonths, func(c *Customer) *float64 { return &c.ActiveMonths }},
	{ColumnInactivityRatio, func(c *Customer) *float64 { return &c.InactivityRatio }},
	{ColumnChurnLabel, func(c *Customer) *float64 { return &c.ChurnLabel }},
}

// Lookup reads a column by name, which lets a row feed the feature adapter.
func (c *Customer) Lookup(field string) (any, bool) {
	switch field {
	case ColumnID:
		return c.ID, true
	case ColumnSegment:
		return c.Segment, true
	case ColumnChurnRisk:
		return c.ChurnRisk, true
	}
	for _, col := range numericColumns {
		if col.name == field {
			return *col.ptr(c), true
		}
	}
	v, ok := c.Extra[field]
	return v, ok
}
