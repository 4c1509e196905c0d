package parsers

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/username/lotfolio/backend/src/models"
)

// AccountCSVParser reads the account-activity export. Column layout:
// Fecha, Hora, Fecha valor, Producto, ISIN, Descripción, Tipo, Variación,
// amount, Saldo, balance, ID Orden.
type AccountCSVParser struct{}

func NewAccountCSVParser() *AccountCSVParser {
	return &AccountCSVParser{}
}

func (p *AccountCSVParser) Parse(file io.Reader) ([]models.AccountRow, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read all CSV records: %w", err)
	}

	var rows []models.AccountRow
	for _, record := range records {
		if len(record) < 12 {
			continue
		}
		rows = append(rows, models.AccountRow{
			Date: record[0], ValueDate: record[2], Product: record[3],
			ISIN: record[4], Description: record[5], FXRate: record[6],
			Currency: record[7], Amount: record[8], BalanceCurrency: record[9],
			OrderID: record[11],
		})
	}

	return rows, nil
}

// PortfolioCSVParser reads the portfolio-holdings export. Only the product
// name and the EUR value column (always last) are needed.
type PortfolioCSVParser struct{}

func NewPortfolioCSVParser() *PortfolioCSVParser {
	return &PortfolioCSVParser{}
}

func (p *PortfolioCSVParser) Parse(file io.Reader) ([]models.PortfolioRow, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read all CSV records: %w", err)
	}

	var rows []models.PortfolioRow
	for _, record := range records {
		if len(record) < 2 {
			continue
		}
		rows = append(rows, models.PortfolioRow{
			Product:  record[0],
			ValueEUR: record[len(record)-1],
		})
	}

	return rows, nil
}
