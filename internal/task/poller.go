package task

import (
	"context"
	"errors"
)

// RecordReader reads task records.
type RecordReader interface {
	Get(ctx context.Context, id string) (Record, error)
}

// Poller is the read side of the task lifecycle.
type Poller struct {
	records RecordReader
}

// NewPoller creates a Poller.
func NewPoller(records RecordReader) (*Poller, error) {
	if records == nil {
		return nil, ErrNilStore
	}
	return &Poller{records: records}, nil
}

// Poll returns the current record for id.
//
// A record of a different type than typ reads as ErrTaskNotFound so one
// endpoint cannot observe another pipeline's tasks. A record in a failure
// status is returned together with a *FailedError carrying the stored message.
// Polling never mutates the record.
func (p *Poller) Poll(ctx context.Context, id string, typ Type) (Record, error) {
	rec, err := p.records.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if rec.Type != typ {
		return Record{}, ErrTaskNotFound
	}
	if rec.Status.IsFailure() {
		return rec, &FailedError{TaskID: rec.TaskID, Message: rec.Error}
	}
	return rec, nil
}

// IsFailed reports whether err came from polling a failed task and returns it.
func IsFailed(err error) (*FailedError, bool) {
	var failed *FailedError
	if errors.As(err, &failed) {
		return failed, true
	}
	return nil, false
}
