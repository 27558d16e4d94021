package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"atmo/config"
)

// ConfigCommand returns the config subcommand.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Set or show the credentials and the default station",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "user address email"},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "user password"},
			&cli.StringFlag{Name: "client-id", Aliases: []string{"i"}, Usage: "application client_id"},
			&cli.StringFlag{Name: "client-secret", Aliases: []string{"s"}, Usage: "application client_secret"},
			&cli.StringFlag{Name: "device", Aliases: []string{"d"}, Usage: "default station: device id or station name"},
		},
		Action: runConfig,
	}
}

var authFlagNames = []string{"client-id", "client-secret", "username", "password"}

func runConfig(c *cli.Context) error {
	sess, err := newSession(c)
	if err != nil {
		return err
	}
	cfg := sess.cfg

	set := 0
	for _, name := range authFlagNames {
		if c.IsSet(name) {
			set++
		}
	}
	if set >= 1 && set < len(authFlagNames) {
		return cli.Exit("client-id, client-secret, username and password must be given together", 2)
	}

	if set == len(authFlagNames) || c.IsSet("device") {
		if set == len(authFlagNames) {
			var defaultStation string
			if cfg.Credentials != nil {
				defaultStation = cfg.Credentials.DefaultStation
			}
			cfg.Credentials = &config.Credentials{
				ClientID:       c.String("client-id"),
				ClientSecret:   c.String("client-secret"),
				Username:       c.String("username"),
				Password:       c.String("password"),
				DefaultStation: defaultStation,
			}
		}
		if c.IsSet("device") {
			if cfg.Credentials == nil {
				return cli.Exit("cannot set a default station without credentials", 2)
			}
			// rebuild the service so a name lookup uses the new credentials
			id, err := buildService(cfg, sess.logger).ResolveDefaultStation(c.Context, c.String("device"))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			cfg.Credentials.DefaultStation = id
		}
		if err := cfg.SaveCredentials(); err != nil {
			return err
		}
		fmt.Println("Write config")
	} else {
		fmt.Println("Read config")
	}

	creds := cfg.Credentials
	if creds == nil {
		creds = &config.Credentials{}
	}
	fmt.Println("username:", creds.Username)
	fmt.Println("password:", creds.Password)
	fmt.Println("client_id:", creds.ClientID)
	fmt.Println("client_secret:", creds.ClientSecret)
	fmt.Println("default_station:", creds.DefaultStation)
	return nil
}
