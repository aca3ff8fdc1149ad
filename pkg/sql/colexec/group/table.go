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

package group

import (
	"bytes"

	"github.com/google/btree"
)

const (
	defaultDegree = 32

	// NotFound is returned by Find for an unknown key.
	NotFound uint64 = 0
)

type keyItem struct {
	key   []byte
	group uint64
}

func (k *keyItem) Less(than btree.Item) bool {
	return bytes.Compare(k.key, than.(*keyItem).key) < 0
}

// Table maps group keys to group numbers. Group numbers start from 1 so
// that 0 can stand for a row without group, the numbering the aggregation
// executors expect in BatchFill.
type Table struct {
	tree *btree.BTree
	keys [][]byte
	// probe is reused by lookups to avoid an allocation per key.
	probe keyItem
}

func NewTable() *Table {
	return &Table{
		tree: btree.New(defaultDegree),
	}
}

// Insert returns the group of key, adding a new group if key is unseen.
func (t *Table) Insert(key []byte) (group uint64, inserted bool) {
	if g := t.Find(key); g != NotFound {
		return g, false
	}
	k := append([]byte{}, key...)
	t.keys = append(t.keys, k)
	group = uint64(len(t.keys))
	t.tree.ReplaceOrInsert(&keyItem{key: k, group: group})
	return group, true
}

// InsertBatch sets groups[i] to the group of keys[i] and returns how many
// groups were added.
func (t *Table) InsertBatch(keys [][]byte, groups []uint64) int {
	added := 0
	for i, key := range keys {
		g, inserted := t.Insert(key)
		if inserted {
			added++
		}
		groups[i] = g
	}
	return added
}

func (t *Table) Find(key []byte) uint64 {
	t.probe.key = key
	item := t.tree.Get(&t.probe)
	t.probe.key = nil
	if item == nil {
		return NotFound
	}
	return item.(*keyItem).group
}

// Key returns the key of a group number.
func (t *Table) Key(group uint64) []byte {
	return t.keys[group-1]
}

func (t *Table) GroupCount() int {
	return len(t.keys)
}

// Ascend calls fn for every group in key order until fn returns false.
func (t *Table) Ascend(fn func(key []byte, group uint64) bool) {
	t.tree.Ascend(func(i btree.Item) bool {
		item := i.(*keyItem)
		return fn(item.key, item.group)
	})
}

func (t *Table) Reset() {
	t.tree.Clear(true)
	t.keys = t.keys[:0]
}
