package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const accountCSVSample = `Fecha,Hora,Fecha valor,Producto,ISIN,Descripción,Tipo,Variación,,Saldo,,ID Orden
01-03-2023,15:30,01-03-2023,Visa Inc,US92826C8394,"Compra 2 Visa Inc@278,5 USD","1,0514",USD,-557.00,EUR,443.00,b8a9-11ed
01-03-2023,15:30,01-03-2023,,,Ingreso Cambio de Divisa,,EUR,1000.00,EUR,1000.00,
short,row
`

func TestAccountCSVParserParse(t *testing.T) {
	rows, err := NewAccountCSVParser().Parse(strings.NewReader(accountCSVSample))
	require.NoError(t, err)

	// The short row is dropped.
	require.Len(t, rows, 2)
	assert.Equal(t, "01-03-2023", rows[0].Date)
	assert.Equal(t, "Visa Inc", rows[0].Product)
	assert.Equal(t, "US92826C8394", rows[0].ISIN)
	assert.Equal(t, "Compra 2 Visa Inc@278,5 USD", rows[0].Description)
	assert.Equal(t, "1,0514", rows[0].FXRate)
	assert.Equal(t, "USD", rows[0].Currency)
	assert.Equal(t, "-557.00", rows[0].Amount)
	assert.Equal(t, "EUR", rows[0].BalanceCurrency)
	assert.Equal(t, "b8a9-11ed", rows[0].OrderID)

	assert.Empty(t, rows[1].Product)
	assert.Empty(t, rows[1].OrderID)
}

func TestAccountCSVParserEmptyInput(t *testing.T) {
	_, err := NewAccountCSVParser().Parse(strings.NewReader(""))
	assert.Error(t, err)
}

func TestPortfolioCSVParserParse(t *testing.T) {
	sample := `Producto,ISIN,Cantidad,Precio,Valor en EUR
Visa Inc,US92826C8394,2,"278,50","523,45"
CASH & CASH FUND (EUR),,,,"443,00"
`
	rows, err := NewPortfolioCSVParser().Parse(strings.NewReader(sample))
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "Visa Inc", rows[0].Product)
	assert.Equal(t, "523,45", rows[0].ValueEUR)
	assert.Equal(t, "CASH & CASH FUND (EUR)", rows[1].Product)
	assert.Equal(t, "443,00", rows[1].ValueEUR)
}
