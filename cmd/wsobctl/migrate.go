package main

import (
	"context"
	"os"
	"time"

	"github.com/Dosada05/wsob-poker/config"
	"github.com/Dosada05/wsob-poker/db"
	"github.com/Dosada05/wsob-poker/utils"
)

type MigrateCmd struct {
	Timeout time.Duration `help:"Overall timeout" default:"1m"`
}

func (c *MigrateCmd) Run(cli *CLI) error {
	logger, err := utils.NewLogger(os.Stderr, "text", cli.LogLevel)
	if err != nil {
		return err
	}

	dsn, err := config.DatabaseURLFromEnv()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	conn, err := db.Connect(ctx, dsn, db.PoolConfig{MaxOpenConns: 1})
	if err != nil {
		return err
	}
	defer conn.Close()

	return db.Migrate(ctx, conn, logger)
}
