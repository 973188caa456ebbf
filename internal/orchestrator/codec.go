package orchestrator

import (
	"encoding/json"

	"github.com/vibecheck/vibecheck/internal/types"
)

// encodeFindings/decodeFindings serialize a file's findings for storage
// as a Multi-Level Cache value (component D stores opaque []byte).
func encodeFindings(fs []types.Finding) ([]byte, error) {
	return json.Marshal(fs)
}

func decodeFindings(raw []byte) ([]types.Finding, error) {
	var fs []types.Finding
	if err := json.Unmarshal(raw, &fs); err != nil {
		return nil, err
	}
	return fs, nil
}
