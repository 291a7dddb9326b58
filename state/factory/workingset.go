// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package factory

import (
	"bytes"

	"github.com/google/btree"
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-grant/action/protocol"
	"github.com/iotexproject/iotex-grant/db"
	"github.com/iotexproject/iotex-grant/db/batch"
	"github.com/iotexproject/iotex-grant/pkg/util/byteutil"
	"github.com/iotexproject/iotex-grant/state"
)

// _recordOverhead is the bytes charged for every new record on top of its key and value
const _recordOverhead = 40

type (
	// preimage is the committed value of a key before the working set touched it
	preimage struct {
		ns     string
		key    []byte
		value  []byte
		exists bool
	}

	// workingSet stages the writes of one action on top of the committed store
	workingSet struct {
		height    uint64
		dao       db.KVStore
		cb        batch.CachedBatch
		preimages []*preimage
		touched   map[string]struct{}
		usage     int64
	}

	kvItem struct {
		key   []byte
		value []byte
	}
)

func newWorkingSet(height uint64, dao db.KVStore) *workingSet {
	return &workingSet{
		height:  height,
		dao:     dao,
		cb:      batch.NewCachedBatch(),
		touched: make(map[string]struct{}),
	}
}

func (ws *workingSet) State(s interface{}, opts ...protocol.StateOption) error {
	cfg, err := protocol.CreateStateConfig(opts...)
	if err != nil {
		return err
	}
	value, err := ws.get(cfg.Namespace, cfg.Key)
	if err != nil {
		return err
	}
	return state.Deserialize(s, value)
}

// States merges the staged writes into the committed states of the range
func (ws *workingSet) States(opts ...protocol.StateOption) (state.Iterator, error) {
	cfg, err := protocol.CreateStateConfig(opts...)
	if err != nil {
		return nil, err
	}
	cond := db.Condition(cfg.Cond)
	if cond == nil {
		cond = db.MatchAll
	}
	keys, values, err := ws.dao.Filter(cfg.Namespace, cond, cfg.MinKey, cfg.MaxKey)
	if err != nil && errors.Cause(err) != db.ErrNotExist {
		return nil, errors.Wrapf(err, "failed to filter states of ns = %s", cfg.Namespace)
	}
	tree := btree.NewG(16, func(a, b kvItem) bool { return bytes.Compare(a.key, b.key) < 0 })
	for i := range keys {
		tree.ReplaceOrInsert(kvItem{key: keys[i], value: values[i]})
	}
	for i := 0; i < ws.cb.Size(); i++ {
		entry, err := ws.cb.Entry(i)
		if err != nil {
			return nil, err
		}
		if entry.Namespace() != cfg.Namespace || !inRange(entry.Key(), cfg.MinKey, cfg.MaxKey) {
			continue
		}
		switch entry.WriteType() {
		case batch.Put:
			if cond(entry.Key(), entry.Value()) {
				tree.ReplaceOrInsert(kvItem{key: entry.Key(), value: entry.Value()})
			}
		case batch.Delete:
			tree.Delete(kvItem{key: entry.Key()})
		}
	}
	keys = make([][]byte, 0, tree.Len())
	values = make([][]byte, 0, tree.Len())
	tree.Ascend(func(item kvItem) bool {
		keys = append(keys, item.key)
		values = append(values, item.value)
		return true
	})
	return state.NewIterator(keys, values)
}

func (ws *workingSet) PutState(s interface{}, opts ...protocol.StateOption) error {
	cfg, err := protocol.CreateStateConfig(opts...)
	if err != nil {
		return err
	}
	value, err := state.Serialize(s)
	if err != nil {
		return errors.Wrapf(err, "failed to serialize state of ns = %s and key = %x", cfg.Namespace, cfg.Key)
	}
	old, err := ws.get(cfg.Namespace, cfg.Key)
	switch errors.Cause(err) {
	case nil:
		ws.usage += int64(len(value) - len(old))
	case state.ErrStateNotExist:
		ws.usage += int64(len(cfg.Key) + len(value) + _recordOverhead)
	default:
		return err
	}
	return ws.put(cfg.Namespace, cfg.Key, value)
}

func (ws *workingSet) DelState(opts ...protocol.StateOption) error {
	cfg, err := protocol.CreateStateConfig(opts...)
	if err != nil {
		return err
	}
	old, err := ws.get(cfg.Namespace, cfg.Key)
	switch errors.Cause(err) {
	case nil:
		ws.usage -= int64(len(cfg.Key) + len(old) + _recordOverhead)
	case state.ErrStateNotExist:
		return nil
	default:
		return err
	}
	if err := ws.touch(cfg.Namespace, cfg.Key); err != nil {
		return err
	}
	ws.cb.Delete(cfg.Namespace, cfg.Key, "failed to delete state of ns = %s and key = %x", cfg.Namespace, cfg.Key)
	return nil
}

func (ws *workingSet) StorageUsage() int64 {
	return ws.usage
}

// finalize stages the height of the working set
func (ws *workingSet) finalize() error {
	return ws.put(_factoryNS, _heightKey, byteutil.Uint64ToBytesBigEndian(ws.height))
}

// undo returns the batch restoring every key touched by the working set to its committed value
func (ws *workingSet) undo() batch.KVStoreBatch {
	b := batch.NewBatch()
	for _, p := range ws.preimages {
		if p.exists {
			b.Put(p.ns, p.key, p.value, "failed to restore ns = %s and key = %x", p.ns, p.key)
		} else {
			b.Delete(p.ns, p.key, "failed to remove ns = %s and key = %x", p.ns, p.key)
		}
	}
	return b
}

func (ws *workingSet) get(ns string, key []byte) ([]byte, error) {
	value, err := ws.cb.Get(ns, key)
	switch errors.Cause(err) {
	case nil:
		return value, nil
	case batch.ErrAlreadyDeleted:
		return nil, errors.Wrapf(state.ErrStateNotExist, "state of ns = %s and key = %x is deleted", ns, key)
	}
	value, err = ws.dao.Get(ns, key)
	switch errors.Cause(err) {
	case nil:
		return value, nil
	case db.ErrNotExist:
		return nil, errors.Wrapf(state.ErrStateNotExist, "failed to get state of ns = %s and key = %x", ns, key)
	default:
		return nil, err
	}
}

func (ws *workingSet) put(ns string, key, value []byte) error {
	if err := ws.touch(ns, key); err != nil {
		return err
	}
	ws.cb.Put(ns, key, value, "failed to put state of ns = %s and key = %x", ns, key)
	return nil
}

// touch records the committed value of the key on its first write
func (ws *workingSet) touch(ns string, key []byte) error {
	id := ns + "/" + string(key)
	if _, ok := ws.touched[id]; ok {
		return nil
	}
	p := &preimage{ns: ns, key: append([]byte{}, key...)}
	value, err := ws.dao.Get(ns, key)
	switch errors.Cause(err) {
	case nil:
		p.value, p.exists = value, true
	case db.ErrNotExist:
	default:
		return errors.Wrapf(err, "failed to read preimage of ns = %s and key = %x", ns, key)
	}
	ws.touched[id] = struct{}{}
	ws.preimages = append(ws.preimages, p)
	return nil
}

func inRange(key, minKey, maxKey []byte) bool {
	if bytes.Compare(key, minKey) < 0 {
		return false
	}
	return len(maxKey) == 0 || bytes.Compare(key, maxKey) <= 0
}
