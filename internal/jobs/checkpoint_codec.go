package jobs

import "encoding/json"

// checkpointEnvelope is the on-disk shape of a saved checkpoint: the job's
// Record for display/resumption bookkeeping, plus whatever opaque bytes the
// job's own Checkpointable implementation produced.
type checkpointEnvelope struct {
	Record Record          `json:"record"`
	State  json.RawMessage `json:"state,omitempty"`
}

func encodeCheckpoint(rec Record, cp Checkpointable) ([]byte, error) {
	env := checkpointEnvelope{Record: rec}
	if cp != nil {
		state, err := cp.Checkpoint()
		if err != nil {
			return nil, err
		}
		env.State = state
	}
	return json.Marshal(env)
}

// DecodeCheckpoint splits a saved checkpoint back into its Record and the
// job-specific state bytes, for a caller reconstructing a Job of the right
// concrete kind from persisted bytes.
func DecodeCheckpoint(data []byte) (Record, json.RawMessage, error) {
	var env checkpointEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Record{}, nil, err
	}
	return env.Record, env.State, nil
}
