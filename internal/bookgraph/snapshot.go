// Bookgraph - Personal Book Graph Recommendation Engine
// Copyright 2026 avelis
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/avelis/bookgraph

package bookgraph

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// Key prefixes for BadgerDB snapshot storage.
const (
	snapshotMetaKey   = "snapshot:meta"
	snapshotNodePfx   = "node:"
	snapshotEdgePfx   = "edge:"
	snapshotKeySep    = "\x1f" // book IDs never contain a unit separator
)

// snapshotMeta records when a snapshot was written.
type snapshotMeta struct {
	SavedAt   time.Time `json:"saved_at"`
	NodeCount int       `json:"node_count"`
	EdgeCount int       `json:"edge_count"`
}

// edgeRecord is the persisted form of one edge, stored once per pair.
type edgeRecord struct {
	U            string  `json:"u"`
	V            string  `json:"v"`
	Weight       float64 `json:"weight"`
	CoReadByUser bool    `json:"co_read_by_user,omitempty"`
}

// BadgerSnapshotStore persists graph snapshots in a BadgerDB database.
// Every node and edge attribute round-trips; the byte format itself is not
// load-bearing.
type BadgerSnapshotStore struct {
	db *badger.DB
}

// NewBadgerSnapshotStore wraps an already-open BadgerDB handle.
func NewBadgerSnapshotStore(db *badger.DB) *BadgerSnapshotStore {
	return &BadgerSnapshotStore{db: db}
}

// OpenBadgerSnapshotStore opens (or creates) a BadgerDB database at path.
// An empty path opens an in-memory database, useful for tests.
func OpenBadgerSnapshotStore(path string) (*BadgerSnapshotStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	return &BadgerSnapshotStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BadgerSnapshotStore) Close() error {
	return s.db.Close()
}

// Save replaces any previous snapshot with the given graph.
func (s *BadgerSnapshotStore) Save(g *Graph) error {
	if err := s.db.DropPrefix([]byte(snapshotNodePfx), []byte(snapshotEdgePfx)); err != nil {
		return fmt.Errorf("clear previous snapshot: %w", err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	edgeCount := 0
	for _, id := range g.NodeIDs() {
		data, err := json.Marshal(g.Node(id))
		if err != nil {
			return fmt.Errorf("marshal node %q: %w", id, err)
		}
		if err := wb.Set([]byte(snapshotNodePfx+id), data); err != nil {
			return fmt.Errorf("set node %q: %w", id, err)
		}

		for _, nid := range g.NeighborIDs(id) {
			if id >= nid {
				continue
			}
			e := g.EdgeBetween(id, nid)
			rec := edgeRecord{U: id, V: nid, Weight: e.Weight, CoReadByUser: e.CoReadByUser}
			data, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("marshal edge %q-%q: %w", id, nid, err)
			}
			key := snapshotEdgePfx + id + snapshotKeySep + nid
			if err := wb.Set([]byte(key), data); err != nil {
				return fmt.Errorf("set edge %q-%q: %w", id, nid, err)
			}
			edgeCount++
		}
	}

	meta := snapshotMeta{SavedAt: time.Now(), NodeCount: g.NodeCount(), EdgeCount: edgeCount}
	metaData, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal snapshot meta: %w", err)
	}
	if err := wb.Set([]byte(snapshotMetaKey), metaData); err != nil {
		return fmt.Errorf("set snapshot meta: %w", err)
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush snapshot: %w", err)
	}
	return nil
}

// Load returns the persisted graph, or ErrSnapshotNotFound when no snapshot
// has been saved.
func (s *BadgerSnapshotStore) Load() (*Graph, error) {
	g := NewGraph()

	err := s.db.View(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(snapshotMetaKey)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrSnapshotNotFound
			}
			return fmt.Errorf("get snapshot meta: %w", err)
		}

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		nodePfx := []byte(snapshotNodePfx)
		for it.Seek(nodePfx); it.ValidForPrefix(nodePfx); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var n Node
				if err := json.Unmarshal(val, &n); err != nil {
					return fmt.Errorf("unmarshal node: %w", err)
				}
				return g.AddNode(&n)
			})
			if err != nil {
				return err
			}
		}

		edgePfx := []byte(snapshotEdgePfx)
		for it.Seek(edgePfx); it.ValidForPrefix(edgePfx); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec edgeRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return fmt.Errorf("unmarshal edge: %w", err)
				}
				e, err := g.AddEdge(rec.U, rec.V, rec.Weight)
				if err != nil {
					return fmt.Errorf("restore edge %q-%q: %w", rec.U, rec.V, err)
				}
				e.CoReadByUser = rec.CoReadByUser
				return nil
			})
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return g, nil
}
