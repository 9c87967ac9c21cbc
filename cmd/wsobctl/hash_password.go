package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/wsob-poker/utils"
)

type HashPasswordCmd struct {
	Password string `arg:"" optional:"" help:"Password to hash; read from stdin when omitted"`
	Cost     int    `help:"bcrypt cost" default:"12" env:"BCRYPT_COST"`
}

func (c *HashPasswordCmd) Run(g *Globals) error {
	password := c.Password
	if password == "" {
		line, err := bufio.NewReader(g.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return errors.New("no password given")
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if len(password) < utils.MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", utils.MinPasswordLength)
	}

	hash, err := utils.HashPassword(password, c.Cost)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(g.Stdout, hash)
	return err
}
