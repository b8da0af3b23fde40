package library

import (
	"encoding/json"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/spacedriveapp/sdcore/internal/errs"
)

// CurrentSchemaVersion is stamped into every new library's config.json and
// checked on Open so a future on-disk format change has somewhere to hook
// a migration before it silently corrupts an older library.
const CurrentSchemaVersion = 1

var descriptorJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// Descriptor is config.json's shape, per spec §6: "id, name, description,
// settings, statistics, schema_version". It exists so Manager.List can
// enumerate libraries by reading one small file per library rather than
// opening every library.db in turn.
type Descriptor struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	SchemaVersion int             `json:"schema_version"`
	Settings      json.RawMessage `json:"settings,omitempty"`
	Statistics    json.RawMessage `json:"statistics,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func loadDescriptor(path string) (Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, errs.TransientIO(err, "library: reading config.json")
	}
	var d Descriptor
	if err := descriptorJSON.Unmarshal(data, &d); err != nil {
		return Descriptor{}, errs.Integrity(err, "library: decoding config.json")
	}
	return d, nil
}

func saveDescriptor(path string, d Descriptor) error {
	data, err := descriptorJSON.MarshalIndent(d, "", "  ")
	if err != nil {
		return errs.Internal(err, "library: encoding config.json")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.TransientIO(err, "library: writing config.json")
	}
	return nil
}
