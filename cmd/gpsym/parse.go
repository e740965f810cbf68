package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// parsedInput is a parsed CSV dataset: target column first (fit mode) or
// absent (predict mode), feature columns following. Mirrors the teacher's
// parse.go shape, minus the classification/regression dual-mode split
// gpsym has no use for — every target column here is real-valued.
type parsedInput struct {
	X        [][]float64
	Y        []float64
	VarNames []string
}

// parseCSV reads a CSV file with the target in column 0 and features in the
// remaining columns. If the first row fails to parse as numeric it is
// treated as a header row supplying VarNames; otherwise VarNames default to
// X1, X2, ....
func parseCSV(r io.Reader) (*parsedInput, error) {
	reader := csv.NewReader(r)

	p := &parsedInput{}

	row, err := reader.Read()
	if err != nil {
		return p, err
	}

	varNames, err := parseHeader(row)
	if err == nil {
		p.VarNames = varNames
	} else {
		for i := range row[1:] {
			p.VarNames = append(p.VarNames, fmt.Sprintf("X%d", i+1))
		}
		if err := p.parseRow(row); err != nil {
			return p, err
		}
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return p, err
		}
		if err := p.parseRow(row); err != nil {
			return p, err
		}
	}

	return p, nil
}

// parseFeatureCSV reads a CSV file with no target column, every column a
// feature. Used for predict/transform input, which carries no label to
// score against.
func parseFeatureCSV(r io.Reader) (*parsedInput, error) {
	reader := csv.NewReader(r)

	p := &parsedInput{}

	row, err := reader.Read()
	if err != nil {
		return p, err
	}

	varNames, err := parseHeader(append([]string{""}, row...))
	if err == nil {
		p.VarNames = varNames
	} else {
		for i := range row {
			p.VarNames = append(p.VarNames, fmt.Sprintf("X%d", i+1))
		}
		xi, err := parseFeatureVals(append([]string{""}, row...))
		if err != nil {
			return p, err
		}
		p.X = append(p.X, xi)
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return p, err
		}
		xi, err := parseFeatureVals(append([]string{""}, row...))
		if err != nil {
			return p, err
		}
		p.X = append(p.X, xi)
	}

	return p, nil
}

func (p *parsedInput) parseRow(row []string) error {
	xi, err := parseFeatureVals(row)
	if err != nil {
		return err
	}
	p.X = append(p.X, xi)

	yi, err := strconv.ParseFloat(row[0], 64)
	if err != nil {
		return fmt.Errorf("parsing target column: %w", err)
	}
	p.Y = append(p.Y, yi)

	return nil
}

func parseFeatureVals(row []string) ([]float64, error) {
	var xi []float64
	if len(row) < 2 {
		return xi, errors.New("row only has one column")
	}
	for _, val := range row[1:] {
		fv, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return xi, err
		}
		xi = append(xi, fv)
	}
	return xi, nil
}

func parseHeader(row []string) ([]string, error) {
	colNames := []string{}

	if len(row) > 1 {
		for _, val := range row[1:] {
			if _, err := strconv.ParseFloat(val, 64); err == nil {
				return colNames, errors.New("not a header row")
			}
			colNames = append(colNames, val)
		}
	}

	return colNames, nil
}
