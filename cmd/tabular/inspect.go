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
package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/gorse-io/tabular/dataset"
	"github.com/gorse-io/tabular/storage/snapshot"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newInspectCommand() *cobra.Command {
	inspectCommand := &cobra.Command{
		Use:   "inspect PATH",
		Short: "Print a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, _ := cmd.Flags().GetInt("rows")
			data, err := snapshot.Deserialize(args[0])
			if err != nil {
				return errors.Trace(err)
			}
			defer data.Release()
			return inspect(cmd.OutOrStdout(), data, rows)
		},
	}
	inspectCommand.Flags().IntP("rows", "n", 10, "number of rows to print")
	return inspectCommand
}

func inspect(w io.Writer, data dataset.Data, rows int) error {
	var (
		header  []string
		columns []arrow.Array
	)
	switch typed := data.(type) {
	case *dataset.Frame:
		_, _ = fmt.Fprintf(w, "Frame (%d rows, %d columns)\n", typed.Len(), typed.Width())
		header = typed.Names()
		columns = typed.Columns()
	case *dataset.Series:
		_, _ = fmt.Fprintf(w, "Series %s (%d rows, %s)\n", typed.Name(), typed.Len(), typed.DataType())
		header = []string{typed.Name()}
		columns = []arrow.Array{typed.Values()}
	default:
		return errors.NotSupportedf("data of type %T", data)
	}

	table := tablewriter.NewWriter(w)
	table.Header(append([]string{""}, header...))
	index := data.Index()
	for i := 0; i < min(rows, data.Len()); i++ {
		row := make([]string, 0, len(columns)+1)
		row = append(row, strconv.FormatInt(index[i], 10))
		for _, column := range columns {
			if column.IsNull(i) {
				row = append(row, "null")
			} else {
				row = append(row, column.ValueStr(i))
			}
		}
		if err := table.Append(row); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}
