// Copyright 2024 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/matrixorigin/groupinsert/pkg/common/moerr"
	"github.com/matrixorigin/groupinsert/pkg/config"
	"github.com/matrixorigin/groupinsert/pkg/container/batch"
	"github.com/matrixorigin/groupinsert/pkg/container/types"
	"github.com/matrixorigin/groupinsert/pkg/container/vector"
	"github.com/matrixorigin/groupinsert/pkg/logutil"
	"github.com/matrixorigin/groupinsert/pkg/sql/colexec/insertagg"
)

// nullField is how a csv field spells NULL.
const nullField = `\N`

type options struct {
	elemType   string
	posType    string
	header     bool
	length     uint64
	hasDefault bool
	defaultVal string
}

func (o options) params() []any {
	var def any
	if o.hasDefault {
		def = o.defaultVal
	}
	switch {
	case o.length != 0:
		return []any{def, o.length}
	case o.hasDefault:
		return []any{def}
	}
	return nil
}

func run(ctx context.Context, opts options, cfg config.AggConfig, in io.Reader, out io.Writer) error {
	elem, err := types.FromName(ctx, opts.elemType)
	if err != nil {
		return err
	}
	pos, err := types.FromName(ctx, opts.posType)
	if err != nil {
		return err
	}
	argTypes := []types.Type{elem, pos}

	agg, err := insertagg.New(ctx, cfg, argTypes, opts.params())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := agg.Close(); cerr != nil {
			logutil.Warn("close aggregator", zap.Error(cerr))
		}
	}()

	r := csv.NewReader(bufio.NewReader(in))
	r.FieldsPerRecord = 3
	r.ReuseRecord = true
	if opts.header {
		if _, err = r.Read(); err != nil && err != io.EOF {
			return moerr.NewInvalidInput(ctx, "csv header: %v", err)
		}
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 8192
	}
	bat := newInputBatch(argTypes)
	line := 0
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return moerr.NewInvalidInput(ctx, "csv line %d: %v", line, err)
		}
		if err = appendRecord(ctx, bat, argTypes, record); err != nil {
			return moerr.NewInvalidInput(ctx, "csv line %d: %v", line, err)
		}
		if bat.RowCount() == batchSize {
			if err = agg.Consume(bat); err != nil {
				return err
			}
			bat = newInputBatch(argTypes)
		}
	}
	if err = agg.Consume(bat); err != nil {
		return err
	}

	results, err := agg.Finish()
	if err != nil {
		return err
	}
	return writeResults(out, results)
}

func newInputBatch(argTypes []types.Type) *batch.Batch {
	bat := batch.New(true, []string{"key", "value", "position"})
	bat.SetVector(0, vector.NewVec(types.T_varchar.ToType()))
	bat.SetVector(1, vector.NewVec(argTypes[0]))
	bat.SetVector(2, vector.NewVec(argTypes[1]))
	return bat
}

func appendRecord(ctx context.Context, bat *batch.Batch, argTypes []types.Type, record []string) error {
	colTypes := []types.Type{types.T_varchar.ToType(), argTypes[0], argTypes[1]}
	for i, field := range record {
		if field == nullField {
			if err := vector.AppendAny(bat.GetVector(int32(i)), nil, true); err != nil {
				return err
			}
			continue
		}
		v, err := types.ConvertValue(ctx, field, colTypes[i])
		if err != nil {
			return err
		}
		if err = vector.AppendAny(bat.GetVector(int32(i)), v, false); err != nil {
			return err
		}
	}
	bat.AddRowCount(1)
	return nil
}

func writeResults(out io.Writer, results []insertagg.Result) error {
	w := bufio.NewWriter(out)
	var sb strings.Builder
	for _, res := range results {
		sb.Reset()
		if res.IsNull {
			sb.WriteString("NULL")
		} else {
			sb.Write(res.Key)
		}
		sb.WriteString("\t[")
		for i, v := range res.Values {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(vector.FormatValue(v, false))
		}
		sb.WriteString("]\n")
		if _, err := w.WriteString(sb.String()); err != nil {
			return err
		}
	}
	return w.Flush()
}
