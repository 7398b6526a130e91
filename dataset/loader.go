// Copyright 2025 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataset

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/tabular/base/log"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// NullValues are cell values loaded as null. Surrounding spaces are ignored.
var NullValues = mapset.NewSet("", "NA", "N/A", "NaN", "nan", "null", "NULL")

// LoadFile loads a CSV file with a header row.
func LoadFile(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()
	return Load(bufio.NewReader(file))
}

// Load reads comma-separated values with a header row into a frame. Column
// types are inferred from all non-null cells of each column:
//
//	int64   every cell is a base 10 integer
//	float64 every cell is a floating point number
//	bool    every cell is true or false, case-insensitive
//	utf8    otherwise, or when the column has no non-null cell
//
// Rows are indexed from 0.
func Load(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NotValidf("csv without header")
	} else if err != nil {
		return nil, errors.Trace(err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	if mapset.NewSet(header...).Cardinality() != len(header) {
		return nil, errors.NotValidf("duplicate column names in header %v", header)
	}
	// Read cells column by column
	cells := make([][]string, len(header))
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Trace(err)
		}
		for j, cell := range record {
			cells[j] = append(cells[j], cell)
		}
	}
	numRows := 0
	if len(cells) > 0 {
		numRows = len(cells[0])
	}
	// Build columns
	columns := make([]arrow.Array, 0, len(header))
	defer func() {
		for _, column := range columns {
			column.Release()
		}
	}()
	for j := range header {
		column, err := buildColumn(cells[j], inferType(cells[j]))
		if err != nil {
			return nil, errors.Annotatef(err, "column %q", header[j])
		}
		columns = append(columns, column)
	}
	frame, err := NewFrame(header, columns, RangeIndex(numRows))
	if err != nil {
		return nil, errors.Trace(err)
	}
	log.Logger().Info("load data", zap.Int("rows", frame.Len()), zap.Int("columns", frame.Width()))
	return frame, nil
}

func isNull(cell string) bool {
	return NullValues.Contains(strings.TrimSpace(cell))
}

func inferType(cells []string) arrow.DataType {
	values := lo.FilterMap(cells, func(cell string, _ int) (string, bool) {
		return strings.TrimSpace(cell), !isNull(cell)
	})
	switch {
	case len(values) == 0:
		return arrow.BinaryTypes.String
	case lo.EveryBy(values, func(value string) bool {
		_, err := strconv.ParseInt(value, 10, 64)
		return err == nil
	}):
		return arrow.PrimitiveTypes.Int64
	case lo.EveryBy(values, func(value string) bool {
		_, err := strconv.ParseFloat(value, 64)
		return err == nil
	}):
		return arrow.PrimitiveTypes.Float64
	case lo.EveryBy(values, func(value string) bool {
		_, ok := parseBool(value)
		return ok
	}):
		return arrow.FixedWidthTypes.Boolean
	default:
		return arrow.BinaryTypes.String
	}
}

func parseBool(value string) (bool, bool) {
	switch strings.ToLower(value) {
	case "true":
		return true, true
	case "false":
		return false, true
	default:
		return false, false
	}
}

func buildColumn(cells []string, dataType arrow.DataType) (arrow.Array, error) {
	builder := array.NewBuilder(memory.DefaultAllocator, dataType)
	defer builder.Release()
	builder.Reserve(len(cells))
	for _, cell := range cells {
		if isNull(cell) {
			builder.AppendNull()
			continue
		}
		value := strings.TrimSpace(cell)
		switch typed := builder.(type) {
		case *array.Int64Builder:
			v, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, errors.Trace(err)
			}
			typed.Append(v)
		case *array.Float64Builder:
			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, errors.Trace(err)
			}
			typed.Append(v)
		case *array.BooleanBuilder:
			v, _ := parseBool(value)
			typed.Append(v)
		case *array.StringBuilder:
			typed.Append(cell)
		default:
			return nil, errors.NotSupportedf("column type %s", dataType)
		}
	}
	return builder.NewArray(), nil
}
