package command

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"atmo/internal/netatmo"
)

// DumpCommand returns the dump subcommand.
func DumpCommand() *cli.Command {
	return &cli.Command{
		Name:  "dump",
		Usage: "Show station details and the last half hour of measures",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "device", Aliases: []string{"d"}, Usage: "device id or station name"},
		},
		Action: runDump,
	}
}

// moduleTypes maps upstream type tags to readable names.
var moduleTypes = map[string]string{
	"NAModule1": "Outdoor",
	"NAModule2": "Wind Sensor",
	"NAModule3": "Rain Gauge",
	"NAModule4": "Indoor",
	"NAMain":    "Main device",
}

func runDump(c *cli.Context) error {
	sess, err := newSession(c)
	if err != nil {
		return err
	}
	snap, err := sess.service.FetchStations(c.Context, netatmo.AllStations)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	st := snap.Station(c.String("device"))
	if st == nil {
		return cli.Exit("station not found", 1)
	}

	fmt.Printf("station %s\n", st.Name)
	fmt.Printf("%20s : %d - %s\n", "date_setup", st.DateSetup, fmtDate(st.DateSetup))
	fmt.Printf("%20s : %d - %s\n", "last_setup", st.LastSetup, fmtDate(st.LastSetup))
	fmt.Printf("%20s : %d - %s\n", "last_upgrade", st.LastUpgrade, fmtDate(st.LastUpgrade))
	fmt.Printf("%20s : %s %s / alt %g\n", "place", st.Place.City, st.Place.Country, st.Place.Altitude)
	fmt.Printf("%20s : %d\n", "wifi_status", st.WifiStatus)
	fmt.Printf("%20s : %d - %s\n", "last_status_store", st.LastStatusStore, fmtDate(st.LastStatusStore))

	dumpModule(st.PrimaryModule(), false)
	for i := range st.Modules {
		dumpModule(&st.Modules[i], true)
	}

	since := time.Now().Unix() - 1800
	if err := dumpMeasures(c.Context, sess, st, since); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}

func dumpModule(m *netatmo.Module, attached bool) {
	typeName := m.Type
	if t, ok := moduleTypes[m.Type]; ok {
		typeName = t
	}
	fmt.Printf("module %s - %s\n", m.Name, typeName)
	fmt.Printf("%20s : %s\n", "_id", m.ID)
	fmt.Printf("%20s : %s\n", "data_type", strings.Join(m.DataType, ","))
	if attached {
		fmt.Printf("%20s : %d - %s\n", "last_setup", m.LastSetup, fmtDate(m.LastSetup))
		fmt.Printf("%20s : %d\n", "firmware", m.Firmware)
		fmt.Printf("%20s : %d (90=low, 60=highest)\n", "rf_status", m.RFStatus)
		fmt.Printf("%20s : %d %%\n", "battery_percent", m.BatteryPercent)
		fmt.Printf("%20s : %d - %s\n", "last_message", m.LastMessage, fmtDate(m.LastMessage))
		fmt.Printf("%20s : %d - %s\n", "last_seen", m.LastSeen, fmtDate(m.LastSeen))
	}

	keys := make([]string, 0, len(m.Dashboard))
	for k := range m.Dashboard {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	// bookkeeping entries first, the metric set itself last
	for _, k := range keys {
		if slices.Contains(m.DataType, k) {
			continue
		}
		v := m.Dashboard[k]
		if strings.HasPrefix(k, "date_") || strings.HasPrefix(k, "time_") {
			if ts, ok := v.(float64); ok {
				fmt.Printf("%20s > %d - %s\n", k, int64(ts), fmtDate(int64(ts)))
				continue
			}
		}
		fmt.Printf("%20s > %v\n", k, v)
	}
	metrics := slices.Clone(m.DataType)
	slices.Sort(metrics)
	for _, k := range metrics {
		fmt.Printf("%20s = %v\n", k, m.Dashboard[k])
	}
}

// dumpMeasures prints the measures since the given timestamp for the
// station's primary module and every attached module.
func dumpMeasures(ctx context.Context, sess *session, st *netatmo.Station, since int64) error {
	show := func(name, moduleID string, types []string) error {
		page, err := sess.service.Measure(ctx, netatmo.MeasureRequest{
			DeviceID:  st.ID,
			ModuleID:  moduleID,
			Types:     types,
			DateBegin: since,
		})
		if err != nil {
			return err
		}
		fmt.Println("module", name)
		if page.Status != "ok" {
			fmt.Printf("status %q\n", page.Status)
			return nil
		}
		keys := make([]int64, 0, len(page.Body))
		for k := range page.Body {
			if ts, err := strconv.ParseInt(k, 10, 64); err == nil {
				keys = append(keys, ts)
			}
		}
		slices.Sort(keys)
		for i, ts := range keys {
			values := page.Body[strconv.FormatInt(ts, 10)]
			fmt.Printf("%2d %d %s %s\n", i, ts, fmtDate(ts), formatValues(values))
		}
		return nil
	}

	if err := show(st.ModuleName, "", st.DataType); err != nil {
		return err
	}
	for i := range st.Modules {
		m := &st.Modules[i]
		if err := show(m.Name, m.ID, m.DataType); err != nil {
			return err
		}
	}
	return nil
}

func formatValues(values []*float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		if v == nil {
			parts[i] = "null"
			continue
		}
		parts[i] = strconv.FormatFloat(*v, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

func fmtDate(ts int64) string {
	return time.Unix(ts, 0).Format("2006-01-02 15:04:05")
}
