package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"pointshop-backend/internal/domains/points/model"
)

const ledgerSheet = "Points ledger"

var ledgerHeaders = []string{
	"ID", "Date", "Type", "Points", "Description",
	"Order ID", "Order Total", "Order Status", "Payment Status", "Coupon ID",
}

func (s *pointsService) ExportTransactions(ctx context.Context, userID uuid.UUID, filter model.TransactionFilter) (*excelize.File, error) {
	// The export ignores paging and takes up to MaxExportRows
	filter.Limit = model.MaxExportRows
	filter.Offset = 0

	views, err := s.pointsRepo.ListTransactions(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	f, err := buildLedgerFile(views)
	if err != nil {
		return nil, fmt.Errorf("failed to build excel file: %w", err)
	}
	return f, nil
}

func buildLedgerFile(views []model.TransactionView) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ledgerSheet); err != nil {
		return nil, err
	}

	for col, header := range ledgerHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(ledgerSheet, cell, header); err != nil {
			return nil, err
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(ledgerHeaders))
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(ledgerSheet, "A1", lastCol+"1", style)
	}

	for i, v := range views {
		row := []interface{}{
			v.ID.String(),
			v.CreatedAt.Format("2006-01-02 15:04:05"),
			string(v.TransactionType),
			v.Points,
			v.Description,
			optionalID(v.OrderID),
			nil,
			optionalString(v.OrderStatus),
			optionalString(v.PaymentStatus),
			optionalID(v.CouponID),
		}
		if v.OrderTotal != nil {
			row[6] = v.OrderTotal.InexactFloat64()
		}

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(ledgerSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	_ = f.SetColWidth(ledgerSheet, "A", lastCol, 20)
	return f, nil
}

func optionalID(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return id.String()
}

func optionalString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
