package command

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"atmo/internal/netatmo"
)

// ListCommand returns the list subcommand.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:   "list",
		Usage:  "List weather stations and their modules",
		Action: runList,
	}
}

func runList(c *cli.Context) error {
	sess, err := newSession(c)
	if err != nil {
		return err
	}
	snap, err := sess.service.FetchStations(c.Context, netatmo.AllStations)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	for i := range snap.Stations {
		st := &snap.Stations[i]
		fmt.Printf("%d station %s %s %s %s\n", i+1, st.ID, st.Name, st.Place.City, st.Place.Country)
		modules := append([]netatmo.Module{*st.PrimaryModule()}, st.Modules...)
		for _, m := range modules {
			fmt.Printf("   module %s %s %s\n", m.ID, m.Name, strings.Join(m.DataType, ","))
		}
	}
	return nil
}
