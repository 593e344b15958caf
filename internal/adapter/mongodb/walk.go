package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// walkDocument drives the traversal timer across a decoded document in
// field order. BSON carries no per-level field index, so a reader scans
// names sequentially; recording each field with its ordinal position is
// what lets the summary show access cost growing with position.
func (a *Adapter) walkDocument(opID string, doc bson.D) (time.Duration, error) {
	a.timer.StartDeserialization(opID)

	if err := a.walkLevel(opID, doc); err != nil {
		a.timer.Clear(opID)
		return 0, err
	}

	bd, err := a.timer.EndDeserialization(opID)
	if err != nil {
		return 0, err
	}
	return bd.TotalTime, nil
}

func (a *Adapter) walkLevel(opID string, doc bson.D) error {
	for i, elem := range doc {
		if err := a.timer.RecordFieldAccessAt(opID, elem.Key, i); err != nil {
			return err
		}

		switch v := elem.Value.(type) {
		case bson.D:
			if err := a.timer.EnterNestedDocument(opID); err != nil {
				return err
			}
			if err := a.walkLevel(opID, v); err != nil {
				return err
			}
			if err := a.timer.ExitNestedDocument(opID); err != nil {
				return err
			}
		case bson.A:
			if err := a.walkArray(opID, elem.Key, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *Adapter) walkArray(opID, name string, arr bson.A) error {
	if err := a.timer.EnterArray(opID, name); err != nil {
		return err
	}
	for i, item := range arr {
		if err := a.timer.RecordArrayElementAccess(opID, name, i); err != nil {
			return err
		}
		if nested, ok := item.(bson.D); ok {
			if err := a.timer.EnterNestedDocument(opID); err != nil {
				return err
			}
			if err := a.walkLevel(opID, nested); err != nil {
				return err
			}
			if err := a.timer.ExitNestedDocument(opID); err != nil {
				return err
			}
		}
	}
	return a.timer.ExitArray(opID, name)
}
