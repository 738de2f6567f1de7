package llmclient

import (
	"encoding/json"
	"fmt"
)

func parseVLMResult(raw string) (*VLMResult, error) {
	var res VLMResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil, fmt.Errorf("llmclient: parse vlm response: %w", err)
	}
	return &res, nil
}
