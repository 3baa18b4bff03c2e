package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"backend_smartiv/models"
)

const (
	propertiesSheet = "Properties"
	screensSheet    = "Screens"
)

// ExportService выгрузка каталога в XLSX и тарифов объекта в PDF
type ExportService struct {
	catalog *CatalogService
	logger  *zap.Logger
}

// NewExportService создает новый экземпляр ExportService
func NewExportService(catalog *CatalogService, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{catalog: catalog, logger: logger.Named("export")}
}

// InventoryWorkbook книга с листами объектов и экранов
func (es *ExportService) InventoryWorkbook(ctx context.Context) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", propertiesSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(screensSheet); err != nil {
		return nil, err
	}

	propertyRows := [][]any{}
	err := es.eachPage(func(opts PageOptions) (PageMeta, error) {
		page, err := es.catalog.ListProperties(ctx, opts)
		if err != nil {
			return PageMeta{}, err
		}
		for _, p := range page.Data {
			propertyRows = append(propertyRows, []any{
				p.ID, p.Name, string(p.Type), string(p.Classification), p.City, p.Address,
				derefOrEmpty(p.SmartivCode), joinSlots(p.EnabledSlots), p.ScreenCount,
			})
		}
		return page.Meta, nil
	})
	if err != nil {
		return nil, err
	}

	screenRows := [][]any{}
	err = es.eachPage(func(opts PageOptions) (PageMeta, error) {
		page, err := es.catalog.ListScreens(ctx, opts, ScreenFilter{})
		if err != nil {
			return PageMeta{}, err
		}
		for _, sc := range page.Data {
			roomCategory := ""
			if sc.RoomCategory != nil {
				roomCategory = string(*sc.RoomCategory)
			}
			screenRows = append(screenRows, []any{
				sc.ID, sc.PropertyName, sc.Name, sc.Code, sc.Resolution,
				string(sc.Orientation), string(sc.Status), derefOrEmpty(sc.IPAddress), roomCategory,
			})
		}
		return page.Meta, nil
	})
	if err != nil {
		return nil, err
	}

	if err := writeSheet(f, propertiesSheet,
		[]string{"ID", "Name", "Type", "Classification", "City", "Address", "SmartIV Code", "Enabled Slots", "Screens"},
		propertyRows); err != nil {
		return nil, err
	}
	if err := writeSheet(f, screensSheet,
		[]string{"ID", "Property", "Name", "Code", "Resolution", "Orientation", "Status", "IP Address", "Room Category"},
		screenRows); err != nil {
		return nil, err
	}

	es.logger.Info("inventory exported", zap.Int("properties", len(propertyRows)), zap.Int("screens", len(screenRows)))
	return f, nil
}

// WriteInventory пишет книгу каталога в w
func (es *ExportService) WriteInventory(ctx context.Context, w io.Writer) error {
	f, err := es.InventoryWorkbook(ctx)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// eachPage обходит все страницы списка, начиная с первой, по самым крупным страницам
func (es *ExportService) eachPage(fetch func(opts PageOptions) (PageMeta, error)) error {
	opts := PageOptions{Page: 1, Take: es.catalog.maxTake, Order: OrderAsc}
	for {
		meta, err := fetch(opts)
		if err != nil {
			return err
		}
		if opts.Page >= meta.LastPage {
			return nil
		}
		opts.Page++
	}
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]any) error {
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
	}

	for rowIdx, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	endCell, _ := excelize.CoordinatesToCellName(len(headers), len(rows)+1)
	return f.AutoFilter(sheet, "A1:"+endCell, []excelize.AutoFilterOptions{})
}

// RateCardSheet PDF со списком тарифов объекта
func (es *ExportService) RateCardSheet(ctx context.Context, propertyID uint, w io.Writer) error {
	property, err := es.catalog.store.FindProperty(ctx, propertyID)
	if err != nil {
		return err
	}
	cards, err := es.catalog.ListRateCards(ctx, propertyID)
	if err != nil {
		return err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("Rate card: %s", property.Name))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("%s, %s (%s, %s)", property.Address, property.City, property.Type, property.Classification))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 10)
	for _, header := range []string{"Slot", "Price per day", "Active"} {
		pdf.CellFormat(60, 8, header, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, card := range cards {
		slot := string(card.TargetSlot)
		if card.IsDefault() {
			slot = "DEFAULT"
		}
		active := "no"
		if card.IsActive {
			active = "yes"
		}
		pdf.CellFormat(60, 8, slot, "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 8, fmt.Sprintf("%d", card.PricePerDay), "1", 0, "R", false, 0, "")
		pdf.CellFormat(60, 8, active, "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}
	if len(cards) == 0 {
		pdf.Cell(0, 8, "No rate cards")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render rate card pdf: %w", err)
	}
	return nil
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func joinSlots(slots []models.AdSlot) string {
	parts := make([]string, 0, len(slots))
	for _, slot := range slots {
		parts = append(parts, string(slot))
	}
	return strings.Join(parts, ",")
}
