package jobs

import (
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/spacedriveapp/sdcore/internal/errs"
)

// Store persists a paused job's serialized state so it can be resumed after
// a process restart, the key/value shape grounded on the pack's own
// badger-backed metadata store (marmos91-dittofs's
// pkg/metadata/store/badger): one key per record, db.Update/db.View
// transactions, item.Value callbacks for reads.
type Store struct {
	db *badger.DB
}

// OpenStore opens (creating if absent) a badger database at dir for
// checkpoint persistence.
func OpenStore(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errs.TransientIO(err, "jobs: opening checkpoint store")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return errs.TransientIO(s.db.Close(), "jobs: closing checkpoint store")
}

func checkpointKey(jobID string) []byte {
	return []byte("checkpoint/" + jobID)
}

// Save persists job's current Record plus, if it implements Checkpointable,
// its checkpoint bytes. Called when a job transitions to Paused.
func (s *Store) Save(job *Job) error {
	rec := job.Snapshot()

	payload, err := encodeCheckpoint(rec, job.Checkpoint)
	if err != nil {
		return fmt.Errorf("jobs: encoding checkpoint for job %s: %w", rec.ID, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(checkpointKey(rec.ID), payload)
	})
	return errs.TransientIO(err, "jobs: saving checkpoint")
}

// Load returns the persisted checkpoint bytes for jobID, or errs.NotFound
// if no checkpoint was ever saved (e.g. the job never paused).
func (s *Store) Load(jobID string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(checkpointKey(jobID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return errs.NotFound("jobs: no checkpoint for job " + jobID)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		var e *errs.Error
		if errors.As(err, &e) {
			return nil, err
		}
		return nil, errs.TransientIO(err, "jobs: loading checkpoint")
	}
	return out, nil
}

// Delete removes a job's checkpoint once it resumes and finishes, or is
// canceled outright.
func (s *Store) Delete(jobID string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(checkpointKey(jobID))
	})
	return errs.TransientIO(err, "jobs: deleting checkpoint")
}
