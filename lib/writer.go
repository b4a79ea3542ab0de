package lib

import (
	"bytes"
	"fmt"
	"strings"

	"Xml2Json/bs_clients"
	"Xml2Json/common"
	h "Xml2Json/helpers"
	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
	"github.com/yukithm/json2csv"
)

var Formats = []string{common.FMT_JSON, common.FMT_CSV, common.FMT_YAML, common.FMT_XLSX}

func IsValidFormat(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// IsTextFormat is false for the formats which should not be printed to a terminal.
func IsTextFormat(format string) bool {
	return format != common.FMT_XLSX
}

// Render returns the records in the given format. JSON keeps the key order of each record.
func Render(records []*Record, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case common.FMT_JSON, "":
		return EncodeJSON(records)
	case common.FMT_CSV:
		return EncodeCSV(records)
	case common.FMT_YAML, "yml":
		return EncodeYAML(records)
	case common.FMT_XLSX:
		return EncodeXLSX(records)
	}
	return nil, errors.Errorf("unknown output format '%s' (available: %s)", format, strings.Join(Formats, ", "))
}

// EncodeCSV: NOTE the columns are sorted by the key name, and the union of all keys.
func EncodeCSV(records []*Record) ([]byte, error) {
	if len(records) == 0 {
		return []byte{}, nil
	}
	jsonListObj := make([]interface{}, 0, len(records))
	for _, r := range records {
		jsonListObj = append(jsonListObj, r.ToMap())
	}
	csv, err := json2csv.JSON2CSV(jsonListObj)
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert records to CSV")
	}
	b := &bytes.Buffer{}
	wr := json2csv.NewCSVWriter(b)
	wr.HeaderStyle = json2csv.DotNotationStyle
	if err := wr.WriteCSV(csv); err != nil {
		return nil, errors.Wrap(err, "failed to write CSV")
	}
	wr.Flush()
	return bytes.TrimSuffix(b.Bytes(), []byte("\n")), nil
}

// EncodeYAML goes through JSON, so the keys are sorted.
func EncodeYAML(records []*Record) ([]byte, error) {
	jsonB, err := EncodeJSON(records)
	if err != nil {
		return nil, err
	}
	yamlB, err := yaml.JSONToYAML(jsonB)
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert records to YAML")
	}
	return bytes.TrimSuffix(yamlB, []byte("\n")), nil
}

// EncodeXLSX writes one sheet: a header row with the union of keys (first seen order), then one row per record.
func EncodeXLSX(records []*Record) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := unionKeys(records)
	headerRow := make([]interface{}, len(header))
	for i, k := range header {
		headerRow[i] = k
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return nil, errors.Wrap(err, "failed to write the XLSX header")
	}
	for i, r := range records {
		row := make([]interface{}, len(header))
		for j, k := range header {
			v, _ := r.Get(k)
			row[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, errors.Wrapf(err, "failed to write XLSX row %d", i+2)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate XLSX")
	}
	return buf.Bytes(), nil
}

func unionKeys(records []*Record) []string {
	seen := make(map[string]bool)
	keys := make([]string, 0)
	for _, r := range records {
		for _, k := range r.Keys() {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}

// WriteFile overwrites (truncates) the path. s3:// and az:// URIs are uploaded.
func WriteFile(path string, data []byte) error {
	if err := bs_clients.GetClient(path).WriteToPath(path, data); err != nil {
		return errors.WithStack(&IOError{Path: path, Err: err})
	}
	h.Log("DEBUG", fmt.Sprintf("Wrote %d bytes into %s", len(data), path))
	return nil
}
