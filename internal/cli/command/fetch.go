package command

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"atmo/internal/export"
)

const (
	stationSinkFile = "netatmo_station.csv"
	moduleSinkFile  = "netatmo_module.csv"
)

// Metric sets exported by fetch: the station's indoor sensors and the
// first attached module's outdoor pair.
var (
	stationMetrics = []string{"Temperature", "CO2", "Humidity", "Noise", "Pressure"}
	moduleMetrics  = []string{"Temperature", "Humidity"}
)

// FetchCommand returns the fetch subcommand.
func FetchCommand() *cli.Command {
	return &cli.Command{
		Name:   "fetch",
		Usage:  "Fetch new measures and append them to the csv files",
		Action: runFetch,
	}
}

func runFetch(c *cli.Context) error {
	sess, err := newSession(c)
	if err != nil {
		return err
	}
	snap, err := sess.service.FetchStations(c.Context, "")
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	st := snap.Station("")
	if st == nil {
		return cli.Exit("no station found", 1)
	}

	fmt.Printf("station_name : %s\n", st.Name)
	fmt.Printf("device_id    : %s\n", st.ID)
	fmt.Printf("module_name  : %s\n", st.ModuleName)
	fmt.Printf("data_type    : %s\n", strings.Join(st.DataType, ","))

	exp := export.New(sess.service, sess.logger)

	rows, err := exp.Export(c.Context, stationSinkFile, st.ID, "", stationMetrics, st.Dashboard.TimeUTC())
	if err != nil {
		return cli.Exit(fmt.Sprintf("station export stopped after %d rows: %v", rows, err), 1)
	}
	fmt.Printf("%s: %d new rows\n", stationSinkFile, rows)

	if len(st.Modules) == 0 {
		return nil
	}
	m := &st.Modules[0]
	fmt.Printf("module_id    : %s\n", m.ID)
	fmt.Printf("module_name  : %s\n", m.Name)
	fmt.Printf("data_type    : %s\n", strings.Join(m.DataType, ","))

	rows, err = exp.Export(c.Context, moduleSinkFile, st.ID, m.ID, moduleMetrics, m.Dashboard.TimeUTC())
	if err != nil {
		return cli.Exit(fmt.Sprintf("module export stopped after %d rows: %v", rows, err), 1)
	}
	fmt.Printf("%s: %d new rows\n", moduleSinkFile, rows)
	return nil
}
