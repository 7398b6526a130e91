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
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/gorse-io/tabular/base/log"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoad(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	defer log.ReplaceLogger(zap.New(core))()

	frame, err := Load(strings.NewReader(
		"age,income,married,grade,loan_status\n" +
			"25,1000.5,true,A,0\n" +
			"30,2000,False,B,1\n" +
			"35,,TRUE,,0\n"))
	require.NoError(t, err)
	defer frame.Release()
	assert.Equal(t, []string{"age", "income", "married", "grade", "loan_status"}, frame.Names())
	assert.Equal(t, []int64{0, 1, 2}, frame.Index())

	types := map[string]arrow.DataType{
		"age":         arrow.PrimitiveTypes.Int64,
		"income":      arrow.PrimitiveTypes.Float64,
		"married":     arrow.FixedWidthTypes.Boolean,
		"grade":       arrow.BinaryTypes.String,
		"loan_status": arrow.PrimitiveTypes.Int64,
	}
	for name, dataType := range types {
		column, err := frame.Column(name)
		require.NoError(t, err)
		assert.True(t, arrow.TypeEqual(dataType, column.DataType()), name)
		column.Release()
	}

	income, err := frame.Column("income")
	require.NoError(t, err)
	defer income.Release()
	assert.Equal(t, 1000.5, income.Value(0))
	assert.Equal(t, 2000.0, income.Value(1))
	assert.Nil(t, income.Value(2))
	married, err := frame.Column("married")
	require.NoError(t, err)
	defer married.Release()
	assert.Equal(t, false, married.Value(1))

	// report row and column count
	entries := logs.FilterMessage("load data").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(3), entries[0].ContextMap()["rows"])
	assert.Equal(t, int64(5), entries[0].ContextMap()["columns"])
}

func TestLoad_Inference(t *testing.T) {
	frame, err := Load(strings.NewReader(
		"\ufeffmixed,padded,empty,text,nulls\n" +
			"1,  7 ,,1,NA\n" +
			"2.5, 8,,yes,null\n"))
	require.NoError(t, err)
	defer frame.Release()
	assert.Equal(t, "mixed", frame.Names()[0])
	columns := frame.Columns()
	assert.True(t, arrow.TypeEqual(arrow.PrimitiveTypes.Float64, columns[0].DataType()))
	assert.True(t, arrow.TypeEqual(arrow.PrimitiveTypes.Int64, columns[1].DataType()))
	assert.True(t, arrow.TypeEqual(arrow.BinaryTypes.String, columns[2].DataType()))
	assert.Equal(t, 2, columns[2].NullN())
	assert.True(t, arrow.TypeEqual(arrow.BinaryTypes.String, columns[3].DataType()))
	assert.Equal(t, 2, columns[4].NullN())

	text, err := frame.Column("text")
	require.NoError(t, err)
	defer text.Release()
	assert.Equal(t, "1", text.Value(0))
}

func TestLoad_HeaderOnly(t *testing.T) {
	frame, err := Load(strings.NewReader("a,b\n"))
	require.NoError(t, err)
	defer frame.Release()
	rows, cols := frame.Shape()
	assert.Equal(t, 0, rows)
	assert.Equal(t, 2, cols)
}

func TestLoad_Error(t *testing.T) {
	// empty input
	_, err := Load(strings.NewReader(""))
	assert.True(t, errors.Is(err, errors.NotValid))
	// duplicate names
	_, err = Load(strings.NewReader("a,a\n1,2\n"))
	assert.True(t, errors.Is(err, errors.NotValid))
	// wrong number of fields
	_, err = Load(strings.NewReader("a,b\n1,2\n3\n"))
	assert.ErrorIs(t, err, csv.ErrFieldCount)
	// bare quote
	_, err = Load(strings.NewReader("a,b\n1,x\"y\n"))
	assert.ErrorIs(t, err, csv.ErrBareQuote)
	// missing file
	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFile(t *testing.T) {
	header := []string{"age", "income", "loan_status"}
	path := filepath.Join(t.TempDir(), "loan.csv")
	writeLoanCSV(t, path, 70, 30)
	frame, err := LoadFile(path)
	require.NoError(t, err)
	defer frame.Release()
	assert.Equal(t, header, frame.Names())
	assert.Equal(t, 100, frame.Len())
}

// writeLoanCSV writes a csv with columns [age, income, loan_status].
func writeLoanCSV(t *testing.T, path string, negatives, positives int) {
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()
	writer := csv.NewWriter(file)
	require.NoError(t, writer.Write([]string{"age", "income", "loan_status"}))
	for i := 0; i < negatives+positives; i++ {
		status := "0"
		if i >= negatives {
			status = "1"
		}
		require.NoError(t, writer.Write([]string{
			strconv.Itoa(20 + i%40),
			strconv.Itoa(1000*(i+1)) + ".5",
			status,
		}))
	}
	writer.Flush()
	require.NoError(t, writer.Error())
}
