package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"PortfolioLedger/internal/calculator"
	"PortfolioLedger/internal/model"
)

// Header is the first row of every ledger file.
var Header = []string{"Date", "CompanyName", "CompanySymbol", "Quantity", "Unit Price", "Total Value", "Commission Fees", "Type"}

// WriteCSV writes txs with a header row.
func WriteCSV(w io.Writer, txs []model.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return writeRows(cw, txs)
}

// AppendCSV writes txs without a header, for appending to an existing file.
func AppendCSV(w io.Writer, txs []model.Transaction) error {
	return writeRows(csv.NewWriter(w), txs)
}

func writeRows(cw *csv.Writer, txs []model.Transaction) error {
	for _, tx := range txs {
		record := []string{
			model.FormatDate(tx.Date),
			tx.CompanyName,
			tx.CompanySymbol,
			calculator.Fixed2(tx.Quantity),
			calculator.Fixed2(tx.UnitPrice),
			calculator.Fixed2(tx.TotalValue),
			calculator.Fixed2(tx.CommissionFee),
			string(tx.Kind),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a ledger file. Any malformed row, unknown symbol, name
// mismatch, negative number or negative running quantity rejects the whole
// file.
func ReadCSV(r io.Reader, name string, dir Directory) (*Ledger, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)
	cr.TrimLeadingSpace = true

	var txs []model.Transaction
	for line := 1; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read ledger: %w", err)
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), Header[0]) {
			continue
		}
		tx, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if err := Validate(tx, dir); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		txs = append(txs, tx)
	}

	l := New(name, txs...)
	if err := l.CheckHoldings(); err != nil {
		return nil, err
	}
	return l, nil
}

func parseRecord(record []string) (model.Transaction, error) {
	date, err := model.ParseDate(record[0])
	if err != nil {
		return model.Transaction{}, err
	}
	nums := make([]float64, 4)
	for i := range nums {
		v, err := strconv.ParseFloat(strings.TrimSpace(record[3+i]), 64)
		if err != nil {
			return model.Transaction{}, fmt.Errorf("%w: %q", ErrInvalidNumber, record[3+i])
		}
		nums[i] = v
	}
	kind, err := model.ParseKind(record[7])
	if err != nil {
		return model.Transaction{}, err
	}
	return model.Transaction{
		Date:          date,
		CompanyName:   strings.TrimSpace(record[1]),
		CompanySymbol: strings.TrimSpace(record[2]),
		Quantity:      nums[0],
		UnitPrice:     nums[1],
		TotalValue:    nums[2],
		CommissionFee: nums[3],
		Kind:          kind,
	}, nil
}
