package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/FACorreiaa/household-budget/internal/domain/import/sniffer"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readXLSX returns the first sheet as a grid of raw cell values. Raw values
// keep dates as serial numbers and amounts unformatted.
func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

// readCSV decodes the text and reads it with the sniffed delimiter. Records
// may have varying widths.
func readCSV(data []byte) ([][]string, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	delimiter, err := sniffer.DetectDelimiter(text)
	if err != nil {
		return nil, err
	}

	reader := gocsv.LazyCSVReader(bytes.NewReader([]byte(text)))
	if r, ok := reader.(*csv.Reader); ok {
		r.Comma = delimiter
		r.FieldsPerRecord = -1
	}

	var grid [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		grid = append(grid, record)
	}
	return grid, nil
}

// decodeText strips a UTF-8 BOM. Bytes that are not valid UTF-8 are taken
// to be Windows-1255, the legacy Hebrew code page most bank exports use.
func decodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.Windows1255.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode windows-1255: %w", err)
	}
	return string(decoded), nil
}
