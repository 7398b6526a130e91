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
package snapshot

import (
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/gorse-io/tabular/dataset"
	"github.com/juju/errors"
	"github.com/klauspost/compress/zstd"
)

const (
	// IndexColumn is the name of the row index column, always the last one.
	IndexColumn = "__index_level_0__"

	KindKey    = "tabular.kind"
	VersionKey = "tabular.version"
	Version    = "1"

	KindFrame  = "frame"
	KindSeries = "series"
)

// Encode writes data as a zstd compressed Arrow IPC stream of one record
// batch. Value columns come first, followed by the row index.
func Encode(w io.Writer, data dataset.Data) error {
	kind, err := kindOf(data)
	if err != nil {
		return errors.Trace(err)
	}
	var (
		names   []string
		columns []arrow.Array
	)
	switch typed := data.(type) {
	case *dataset.Frame:
		names = typed.Names()
		columns = typed.Columns()
	case *dataset.Series:
		names = []string{typed.Name()}
		columns = []arrow.Array{typed.Values()}
	}

	// append row index
	builder := array.NewInt64Builder(memory.DefaultAllocator)
	defer builder.Release()
	builder.AppendValues(data.Index(), nil)
	index := builder.NewArray()
	defer index.Release()
	names = append(names, IndexColumn)
	columns = append(columns, index)

	fields := make([]arrow.Field, len(columns))
	for i, column := range columns {
		fields[i] = arrow.Field{Name: names[i], Type: column.DataType(), Nullable: i < len(columns)-1}
	}
	metadata := arrow.NewMetadata([]string{KindKey, VersionKey}, []string{kind, Version})
	schema := arrow.NewSchema(fields, &metadata)
	record := array.NewRecord(schema, columns, int64(data.Len()))
	defer record.Release()

	encoder, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return errors.Trace(err)
	}
	writer := ipc.NewWriter(encoder, ipc.WithSchema(schema), ipc.WithAllocator(memory.DefaultAllocator))
	if err = writer.Write(record); err != nil {
		_ = writer.Close()
		_ = encoder.Close()
		return errors.Trace(err)
	}
	if err = writer.Close(); err != nil {
		_ = encoder.Close()
		return errors.Trace(err)
	}
	return errors.Trace(encoder.Close())
}

func kindOf(data dataset.Data) (string, error) {
	switch data.(type) {
	case *dataset.Frame:
		return KindFrame, nil
	case *dataset.Series:
		return KindSeries, nil
	default:
		return "", errors.NotSupportedf("data of type %T", data)
	}
}

// Decode reads data written by Encode. It returns a *dataset.Frame or a
// *dataset.Series depending on the kind recorded in the stream.
func Decode(r io.Reader) (dataset.Data, error) {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer decoder.Close()
	reader, err := ipc.NewReader(decoder, ipc.WithAllocator(memory.DefaultAllocator))
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer reader.Release()

	schema := reader.Schema()
	kind := ""
	if i := schema.Metadata().FindKey(KindKey); i >= 0 {
		kind = schema.Metadata().Values()[i]
	}
	if kind != KindFrame && kind != KindSeries {
		return nil, errors.NotSupportedf("snapshot of kind %q, expected %q or %q", kind, KindFrame, KindSeries)
	}
	if schema.NumFields() == 0 {
		return nil, errors.NotValidf("snapshot without index column")
	}
	indexField := schema.Field(schema.NumFields() - 1)
	if indexField.Name != IndexColumn || !arrow.TypeEqual(indexField.Type, arrow.PrimitiveTypes.Int64) {
		return nil, errors.NotValidf("snapshot index column %s", indexField)
	}

	columns, err := readColumns(reader)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer func() {
		for _, column := range columns {
			column.Release()
		}
	}()
	values, indexColumn := columns[:len(columns)-1], columns[len(columns)-1]
	if indexColumn.NullN() > 0 {
		return nil, errors.NotValidf("snapshot index column with nulls")
	}
	index := indexColumn.(*array.Int64).Int64Values()

	names := make([]string, len(values))
	for i := range values {
		names[i] = schema.Field(i).Name
	}
	switch kind {
	case KindFrame:
		frame, err := dataset.NewFrame(names, values, index)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return frame, nil
	default:
		if len(values) != 1 {
			return nil, errors.NotValidf("series snapshot with %d value columns", len(values))
		}
		series, err := dataset.NewSeries(names[0], values[0], index)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return series, nil
	}
}

// readColumns reads all record batches and concatenates them column by column.
func readColumns(reader *ipc.Reader) ([]arrow.Array, error) {
	schema := reader.Schema()
	chunks := make([][]arrow.Array, schema.NumFields())
	defer func() {
		for _, column := range chunks {
			for _, chunk := range column {
				chunk.Release()
			}
		}
	}()
	for reader.Next() {
		record := reader.Record()
		for i := range chunks {
			column := record.Column(i)
			column.Retain()
			chunks[i] = append(chunks[i], column)
		}
	}
	if err := reader.Err(); err != nil && err != io.EOF {
		return nil, errors.Trace(err)
	}

	columns := make([]arrow.Array, 0, len(chunks))
	for i, column := range chunks {
		var (
			merged arrow.Array
			err    error
		)
		switch len(column) {
		case 0:
			merged = array.MakeArrayOfNull(memory.DefaultAllocator, schema.Field(i).Type, 0)
		case 1:
			merged = column[0]
			merged.Retain()
		default:
			merged, err = array.Concatenate(column, memory.DefaultAllocator)
		}
		if err != nil {
			for _, column := range columns {
				column.Release()
			}
			return nil, errors.Trace(err)
		}
		columns = append(columns, merged)
	}
	return columns, nil
}
