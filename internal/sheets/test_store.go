package sheets

import (
	"context"
	"sync"
)

var _ Store = (*TestStore)(nil)

// TestStore is an in-memory Store used in unit tests
type TestStore struct {
	mutex     sync.Mutex
	Tables    map[string][]Row
	Appended  map[string][][]interface{}
	ReadErr   error
	AppendErr error
}

func NewTestStore() *TestStore {
	return &TestStore{
		Tables:   make(map[string][]Row),
		Appended: make(map[string][][]interface{}),
	}
}

func (ts *TestStore) ReadTable(_ context.Context, name string) ([]Row, error) {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	if ts.ReadErr != nil {
		return nil, ts.ReadErr
	}
	return ts.Tables[name], nil
}

func (ts *TestStore) AppendRow(_ context.Context, table string, values []interface{}) error {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	if ts.AppendErr != nil {
		return ts.AppendErr
	}
	ts.Appended[table] = append(ts.Appended[table], values)
	return nil
}

func (ts *TestStore) AppendedCount(table string) int {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()
	return len(ts.Appended[table])
}
