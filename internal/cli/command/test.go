package command

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// TestCommand returns the test subcommand.
func TestCommand() *cli.Command {
	return &cli.Command{
		Name:   "test",
		Usage:  "Test the connection and the credentials",
		Action: runTest,
	}
}

func runTest(c *cli.Context) error {
	sess, err := newSession(c)
	if err != nil {
		return err
	}
	snap, err := sess.service.FetchStations(c.Context, "")
	if err != nil {
		sess.logger.Error("connection test failed", "error", err)
		fmt.Println("atmo : ERROR")
		return cli.Exit("", 1)
	}
	fmt.Printf("atmo %s : OK\n", snap.User.Mail)
	return nil
}
