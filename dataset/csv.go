// Package dataset reads loan application records from CSV.
//
// The header row names the columns. Names and cell values are trimmed of
// surrounding whitespace, loan_id and any unrecognized columns are ignored,
// and column order does not matter.
package dataset

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/loangate/pkg/errors"
	"github.com/YuminosukeSato/loangate/preprocessing"
)

// IDColumn is present in the reference dataset but carries no signal.
const IDColumn = "loan_id"

type setter func(r *preprocessing.Record, value string) error

func numeric(field func(r *preprocessing.Record) *float64) setter {
	return func(r *preprocessing.Record, value string) error {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		*field(r) = v
		return nil
	}
}

func text(field func(r *preprocessing.Record) *string) setter {
	return func(r *preprocessing.Record, value string) error {
		*field(r) = value
		return nil
	}
}

var columns = map[string]setter{
	"no_of_dependents":         numeric(func(r *preprocessing.Record) *float64 { return &r.NoOfDependents }),
	"education":                text(func(r *preprocessing.Record) *string { return &r.Education }),
	"self_employed":            text(func(r *preprocessing.Record) *string { return &r.SelfEmployed }),
	"income_amount":            numeric(func(r *preprocessing.Record) *float64 { return &r.IncomeAmount }),
	"loan_amont":               numeric(func(r *preprocessing.Record) *float64 { return &r.LoanAmount }),
	"loan_amont_term":          numeric(func(r *preprocessing.Record) *float64 { return &r.LoanTerm }),
	"cibil_score":              numeric(func(r *preprocessing.Record) *float64 { return &r.CibilScore }),
	"residential_assets_value": numeric(func(r *preprocessing.Record) *float64 { return &r.ResidentialAssetsValue }),
	"commercial_assets_value":  numeric(func(r *preprocessing.Record) *float64 { return &r.CommercialAssetsValue }),
	"luxury_assets_value":      numeric(func(r *preprocessing.Record) *float64 { return &r.LuxuryAssetsValue }),
	"bank_asset_value":         numeric(func(r *preprocessing.Record) *float64 { return &r.BankAssetValue }),
	preprocessing.LabelColumn:  text(func(r *preprocessing.Record) *string { return &r.LoanStatus }),
}

// columnOrder fixes the order in which cells are parsed, so the first bad
// cell of a row is always the one reported.
var columnOrder = append(append([]string(nil), preprocessing.FeatureNames...), preprocessing.LabelColumn)

// ReadCSV reads labeled records. Every feature column and loan_status must be present.
func ReadCSV(r io.Reader) ([]preprocessing.Record, error) {
	return read(r, true)
}

// ReadUnlabeledCSV reads records for prediction; loan_status is optional.
func ReadUnlabeledCSV(r io.Reader) ([]preprocessing.Record, error) {
	return read(r, false)
}

// LoadCSV reads labeled records from a file.
func LoadCSV(path string) ([]preprocessing.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open dataset %s", path)
	}
	defer f.Close()

	records, err := ReadCSV(bufio.NewReader(f))
	if err != nil {
		return nil, errors.Wrapf(err, "dataset %s", path)
	}
	return records, nil
}

func read(r io.Reader, requireLabel bool) ([]preprocessing.Record, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewValueError("ReadCSV", "missing header row")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read header")
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if err := checkColumns(index, requireLabel); err != nil {
		return nil, err
	}

	var records []preprocessing.Record
	for row := 0; ; row++ {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", row)
		}

		values := make(map[string]string, len(columns))
		for name := range columns {
			if i, ok := index[name]; ok {
				values[name] = fields[i]
			}
		}
		rec, err := parse(values, row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, errors.NewValueError("ReadCSV", "no data rows")
	}
	return records, nil
}

func checkColumns(index map[string]int, requireLabel bool) error {
	var missing []string
	for _, name := range preprocessing.FeatureNames {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if _, ok := index[preprocessing.LabelColumn]; requireLabel && !ok {
		missing = append(missing, preprocessing.LabelColumn)
	}
	if len(missing) > 0 {
		return errors.NewValueError("ReadCSV", "missing required columns: "+strings.Join(missing, ", "))
	}
	return nil
}

// ParseRecord builds a Record from column name to raw value pairs, as given
// on the command line. Every feature column is required; loan_status and
// loan_id are optional.
func ParseRecord(values map[string]string) (preprocessing.Record, error) {
	normalized := make(map[string]string, len(values))
	for k, v := range values {
		normalized[strings.ToLower(strings.TrimSpace(k))] = v
	}
	for k := range normalized {
		if _, ok := columns[k]; !ok && k != IDColumn {
			return preprocessing.Record{}, errors.NewValueError("ParseRecord", fmt.Sprintf("unknown column %q", k))
		}
	}
	for _, name := range preprocessing.FeatureNames {
		if _, ok := normalized[name]; !ok {
			return preprocessing.Record{}, errors.NewValueError("ParseRecord", fmt.Sprintf("missing column %q", name))
		}
	}
	return parse(normalized, -1)
}

func parse(values map[string]string, row int) (preprocessing.Record, error) {
	var rec preprocessing.Record
	for _, name := range columnOrder {
		raw, ok := values[name]
		if !ok {
			continue
		}
		if err := columns[name](&rec, strings.TrimSpace(raw)); err != nil {
			where := fmt.Sprintf("column %q", name)
			if row >= 0 {
				where = fmt.Sprintf("row %d, %s", row, where)
			}
			return preprocessing.Record{}, errors.NewValueError("ReadCSV",
				fmt.Sprintf("%s: cannot parse %q as a number", where, raw))
		}
	}
	return rec, nil
}
