// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package docstore

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"
)

// Memory is an in-process [Store]. It is safe for concurrent use.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]*Document
	now         func() time.Time
}

// NewMemory creates an empty in-memory document store.
func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string]map[string]*Document),
		now:         time.Now,
	}
}

func (memory *Memory) Read(_ context.Context, collection, key string) (*Document, error) {
	memory.mu.RLock()
	defer memory.mu.RUnlock()

	document, ok := memory.collections[collection][key]
	if !ok {
		return nil, ErrNotFound
	}
	copied := cloneDocument(document)
	return &copied, nil
}

func (memory *Memory) Write(_ context.Context, collection, key string, fields map[string]any, merge bool) error {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	documents, ok := memory.collections[collection]
	if !ok {
		documents = make(map[string]*Document)
		memory.collections[collection] = documents
	}

	currentTime := memory.now()
	existing, ok := documents[key]
	if !ok {
		documents[key] = &Document{Key: key, Fields: maps.Clone(fields), CreateTime: currentTime, UpdateTime: currentTime}
		return nil
	}

	if merge {
		maps.Copy(existing.Fields, fields)
	} else {
		existing.Fields = maps.Clone(fields)
	}
	existing.UpdateTime = currentTime
	return nil
}

func (memory *Memory) Update(_ context.Context, collection, key string, fields map[string]any) error {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	existing, ok := memory.collections[collection][key]
	if !ok {
		return ErrNotFound
	}
	maps.Copy(existing.Fields, fields)
	existing.UpdateTime = memory.now()
	return nil
}

func (memory *Memory) Delete(_ context.Context, collection, key string) error {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	if _, ok := memory.collections[collection][key]; !ok {
		return ErrNotFound
	}
	delete(memory.collections[collection], key)
	return nil
}

func (memory *Memory) Query(_ context.Context, collection, orderBy string, direction Direction) ([]Document, error) {
	memory.mu.RLock()
	documents := make([]Document, 0, len(memory.collections[collection]))
	for _, document := range memory.collections[collection] {
		documents = append(documents, cloneDocument(document))
	}
	memory.mu.RUnlock()

	slices.SortStableFunc(documents, func(a, b Document) int {
		left, leftOK := a.Fields[orderBy]
		right, rightOK := b.Fields[orderBy]
		switch {
		case !leftOK && !rightOK:
			return cmp.Compare(a.Key, b.Key)
		case !leftOK:
			return 1
		case !rightOK:
			return -1
		}

		order := compareValues(left, right)
		if direction == Descending {
			order = -order
		}
		if order == 0 {
			return cmp.Compare(a.Key, b.Key)
		}
		return order
	})

	return documents, nil
}

// compareValues orders JSON scalars the way the Postgres text projection does
// for the string timestamps this store holds; numbers compare numerically.
func compareValues(left, right any) int {
	leftNumber, leftIsNumber := left.(float64)
	rightNumber, rightIsNumber := right.(float64)
	if leftIsNumber && rightIsNumber {
		return cmp.Compare(leftNumber, rightNumber)
	}
	return cmp.Compare(fmt.Sprint(left), fmt.Sprint(right))
}

func cloneDocument(document *Document) Document {
	copied := *document
	copied.Fields = maps.Clone(document.Fields)
	if copied.Fields == nil {
		copied.Fields = map[string]any{}
	}
	return copied
}
