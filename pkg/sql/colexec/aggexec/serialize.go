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

package aggexec

import (
	"context"
	"io"
	"math"

	"github.com/gogo/protobuf/proto"
	"github.com/matrixorigin/groupinsert/pkg/common/moerr"
	"github.com/matrixorigin/groupinsert/pkg/container/types"
)

// encodedAgg is the transfer form of a whole executor:
//
//	name | argument types | function config | group states
//
// each part written with a proto.Buffer.
type encodedAgg struct {
	name     string
	argTypes []types.Type
	config   []byte
	groups   [][]byte
}

func (e *encodedAgg) marshal() ([]byte, error) {
	buf := proto.NewBuffer(nil)
	if err := buf.EncodeStringBytes(e.name); err != nil {
		return nil, err
	}
	if err := buf.EncodeVarint(uint64(len(e.argTypes))); err != nil {
		return nil, err
	}
	for _, typ := range e.argTypes {
		if err := buf.EncodeVarint(uint64(typ.Oid)); err != nil {
			return nil, err
		}
		if err := buf.EncodeVarint(uint64(typ.Width)); err != nil {
			return nil, err
		}
	}
	if err := buf.EncodeRawBytes(e.config); err != nil {
		return nil, err
	}
	if err := buf.EncodeVarint(uint64(len(e.groups))); err != nil {
		return nil, err
	}
	for _, g := range e.groups {
		if err := buf.EncodeRawBytes(g); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func (e *encodedAgg) unmarshal(ctx context.Context, data []byte) (err error) {
	defer func() {
		if err == io.ErrUnexpectedEOF {
			err = moerr.NewUnexpectedEOF(ctx, "aggregation executor")
		} else if err != nil {
			err = moerr.ConvertGoError(ctx, err)
		}
	}()

	buf := proto.NewBuffer(data)
	if e.name, err = buf.DecodeStringBytes(); err != nil {
		return err
	}
	n, err := buf.DecodeVarint()
	if err != nil {
		return err
	}
	if n > uint64(len(data)) {
		return io.ErrUnexpectedEOF
	}
	e.argTypes = make([]types.Type, n)
	for i := range e.argTypes {
		oid, err := buf.DecodeVarint()
		if err != nil {
			return err
		}
		width, err := buf.DecodeVarint()
		if err != nil {
			return err
		}
		if oid > math.MaxUint8 {
			return moerr.NewInvalidInput(ctx, "bad type oid %d of argument %d", oid, i)
		}
		e.argTypes[i] = types.T(oid).ToType()
		e.argTypes[i].Width = int32(width)
	}
	if e.config, err = buf.DecodeRawBytes(true); err != nil {
		return err
	}
	if n, err = buf.DecodeVarint(); err != nil {
		return err
	}
	if n > uint64(len(data)) {
		return io.ErrUnexpectedEOF
	}
	e.groups = make([][]byte, n)
	for i := range e.groups {
		if e.groups[i], err = buf.DecodeRawBytes(true); err != nil {
			return err
		}
	}
	return nil
}

// MarshalAggFuncExec encodes the executor with all its groups.
func MarshalAggFuncExec(exec AggFuncExec) ([]byte, error) {
	return exec.marshal()
}

// UnmarshalAggFuncExec rebuilds an executor encoded by MarshalAggFuncExec.
func UnmarshalAggFuncExec(ctx context.Context, data []byte) (AggFuncExec, error) {
	encoded := &encodedAgg{}
	if err := encoded.unmarshal(ctx, data); err != nil {
		return nil, err
	}
	impl, err := getAggImplementation(ctx, encoded.name)
	if err != nil {
		return nil, err
	}
	exec, err := impl.restore(ctx, encoded.argTypes, encoded.config)
	if err != nil {
		return nil, err
	}
	if err = exec.unmarshal(encoded.groups); err != nil {
		exec.Free()
		return nil, err
	}
	return exec, nil
}

func CopyAggFuncExec(ctx context.Context, exec AggFuncExec) (AggFuncExec, error) {
	bs, err := MarshalAggFuncExec(exec)
	if err != nil {
		return nil, err
	}
	return UnmarshalAggFuncExec(ctx, bs)
}

func (exec *groupArrayInsertAtExec) marshal() ([]byte, error) {
	cfg := proto.NewBuffer(nil)
	if err := cfg.EncodeVarint(exec.cfg.lengthToResize); err != nil {
		return nil, err
	}
	dv, err := types.AppendValue(nil, exec.cfg.defaultValue, exec.cfg.elemType)
	if err != nil {
		return nil, err
	}
	if err = cfg.EncodeRawBytes(dv); err != nil {
		return nil, err
	}

	encoded := &encodedAgg{
		name:     GroupArrayInsertAtName,
		argTypes: exec.argTypes,
		config:   cfg.Bytes(),
	}
	if len(exec.groups) > 0 {
		encoded.groups = make([][]byte, len(exec.groups))
		for i := range encoded.groups {
			if encoded.groups[i], err = exec.groups[i].marshal(nil, exec.cfg.elemType); err != nil {
				return nil, err
			}
		}
	}
	return encoded.marshal()
}

func (exec *groupArrayInsertAtExec) unmarshal(groups [][]byte) error {
	exec.groups = make([]insertAtState, len(groups))
	for i := range groups {
		if err := exec.UnmarshalGroup(i, groups[i]); err != nil {
			return err
		}
	}
	return nil
}

// restoreGroupArrayInsertAtExec builds an executor from an already resolved
// config, the parameters are not converted again.
func restoreGroupArrayInsertAtExec(ctx context.Context, argTypes []types.Type, config []byte) (AggFuncExec, error) {
	cfg, err := newInsertAtConfig(ctx, argTypes, nil)
	if err != nil {
		return nil, err
	}
	buf := proto.NewBuffer(config)
	length, err := buf.DecodeVarint()
	if err != nil {
		return nil, moerr.NewUnexpectedEOF(ctx, "length of "+GroupArrayInsertAtName)
	}
	if length > MaxArraySize {
		return nil, moerr.NewSizeLimitExceeded(ctx, MaxArraySize, "%d", length)
	}
	dv, err := buf.DecodeRawBytes(false)
	if err != nil {
		return nil, moerr.NewUnexpectedEOF(ctx, "default value of "+GroupArrayInsertAtName)
	}
	v, n, err := types.ReadValue(dv, cfg.elemType)
	if err != nil {
		return nil, err
	}
	if n != len(dv) {
		return nil, moerr.NewInvalidInput(ctx, "default value of %s has %d trailing bytes", GroupArrayInsertAtName, len(dv)-n)
	}
	cfg.lengthToResize = length
	cfg.defaultValue = v
	return &groupArrayInsertAtExec{
		ctx:      ctx,
		argTypes: argTypes,
		cfg:      cfg,
	}, nil
}
