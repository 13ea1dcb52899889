package ledger

import (
	"bytes"
	"strings"
	"testing"

	"PortfolioLedger/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	tx := model.NewTransaction(day("2022-01-03"), "AMZN", "Amazon.com Inc", 10, 14, 20, model.Buy)
	require.NoError(t, WriteCSV(&buf, []model.Transaction{tx}))

	want := "Date,CompanyName,CompanySymbol,Quantity,Unit Price,Total Value,Commission Fees,Type\n" +
		"2022-01-03,Amazon.com Inc,AMZN,10.00,14.00,140.00,20.00,BUY\n"
	assert.Equal(t, want, buf.String())
}

func TestReadCSV(t *testing.T) {
	dir := mapDirectory{"AMZN": "Amazon.com Inc", "MSFT": "Microsoft Corporation"}
	input := strings.Join([]string{
		"Date,CompanyName,CompanySymbol,Quantity,Unit Price,Total Value,Commission Fees,Type",
		"2022-02-01,Microsoft Corporation,MSFT,3.00,300.00,900.00,5.00,BUY",
		"2022-01-03,Amazon.com Inc,AMZN,10.00,14.00,139.50,20.00,BUY",
		"2022-03-01,Amazon.com Inc,AMZN,4.00,16.00,64.00,1.00,SELL",
	}, "\n")

	l, err := ReadCSV(strings.NewReader(input), "p", dir)
	require.NoError(t, err)
	require.Equal(t, 3, l.Len())

	txs := l.Transactions()
	assert.Equal(t, "AMZN", txs[0].CompanySymbol)
	assert.Equal(t, 139.5, txs[0].TotalValue, "stored total value is kept")
	assert.Equal(t, model.Sell, txs[2].Kind)
}

func TestReadCSV_RejectsWholeFile(t *testing.T) {
	dir := mapDirectory{"AMZN": "Amazon.com Inc"}
	header := "Date,CompanyName,CompanySymbol,Quantity,Unit Price,Total Value,Commission Fees,Type\n"
	good := "2022-01-03,Amazon.com Inc,AMZN,10.00,14.00,140.00,20.00,BUY\n"

	tests := map[string]string{
		"unknown symbol":   "2022-01-04,Tesla Inc,TSLA,1.00,1.00,1.00,1.00,BUY\n",
		"name mismatch":    "2022-01-04,Amazon,AMZN,1.00,1.00,1.00,1.00,BUY\n",
		"negative number":  "2022-01-04,Amazon.com Inc,AMZN,-1.00,1.00,1.00,1.00,BUY\n",
		"bad number":       "2022-01-04,Amazon.com Inc,AMZN,ten,1.00,1.00,1.00,BUY\n",
		"bad date":         "2022-13-04,Amazon.com Inc,AMZN,1.00,1.00,1.00,1.00,BUY\n",
		"bad kind":         "2022-01-04,Amazon.com Inc,AMZN,1.00,1.00,1.00,1.00,HOLD\n",
		"missing column":   "2022-01-04,Amazon.com Inc,AMZN,1.00,1.00,1.00,BUY\n",
		"negative holding": "2022-01-04,Amazon.com Inc,AMZN,11.00,1.00,11.00,1.00,SELL\n",
	}
	for name, row := range tests {
		t.Run(name, func(t *testing.T) {
			l, err := ReadCSV(strings.NewReader(header+good+row), "p", dir)
			assert.Error(t, err)
			assert.Nil(t, l)
		})
	}
}

func TestCSVRoundTripKeepsOrder(t *testing.T) {
	dir := mapDirectory{"AMZN": "AMZN Inc"}
	original := New("p", buy("2022-01-01", "AMZN", 1.5, 10), sell("2022-01-05", "AMZN", 0.5, 12))

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, original.Transactions()))

	loaded, err := ReadCSV(&buf, "p", dir)
	require.NoError(t, err)
	assert.Equal(t, original.Transactions(), loaded.Transactions())
}
