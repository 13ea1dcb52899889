package fund

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"PortfolioLedger/internal/model"
)

// LoadState reads the plan state from a JSON file. Returns an empty state if the file doesn't exist.
func LoadState(filePath string) (*model.FundState, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.FundState{Plans: map[string]*model.PlanState{}}, nil
		}
		return nil, fmt.Errorf("read fund state: %w", err)
	}
	var state model.FundState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode fund state: %w", err)
	}
	if state.Plans == nil {
		state.Plans = map[string]*model.PlanState{}
	}
	return &state, nil
}

// SaveState writes the plan state to a JSON file.
func SaveState(filePath string, state *model.FundState) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	return os.WriteFile(filePath, data, 0644)
}
