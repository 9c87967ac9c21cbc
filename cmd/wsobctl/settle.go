package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Dosada05/wsob-poker/models"
	"github.com/Dosada05/wsob-poker/settlement"
)

type SettleCmd struct {
	Game        string `help:"Game snapshot JSON (game with entries)" type:"existingfile" required:""`
	Rule        string `help:"Rule JSON" type:"existingfile" required:""`
	Provisional bool   `help:"Compute a provisional report for a game in progress"`
}

func (c *SettleCmd) Run(g *Globals) error {
	var game models.Game
	if err := readJSONFile(c.Game, &game); err != nil {
		return err
	}
	var rule models.Rule
	if err := readJSONFile(c.Rule, &rule); err != nil {
		return err
	}

	compute := settlement.ComputeSettlement
	if c.Provisional {
		compute = settlement.ComputeProvisional
	}
	report, err := compute(&game, &rule)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(g.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func readJSONFile(path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
