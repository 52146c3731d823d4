// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/desertthunder/summarybot/internal/formatter"
	"github.com/urfave/cli/v3"
)

func formatFlag() cli.Flag {
	names := make([]string, len(formatter.Formats))
	for i, f := range formatter.Formats {
		names[i] = string(f)
	}
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: " + strings.Join(names, ", "),
		Value:   string(formatter.FormatTable),
	}
}

// listFlags are shared by every list command.
func listFlags() []cli.Flag {
	return []cli.Flag{
		formatFlag(),
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write the list to a file instead of stdout",
		},
		&cli.IntFlag{
			Name:  "offset",
			Usage: "Number of rows to skip",
		},
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Maximum number of rows to return (0 for all)",
		},
		&cli.StringFlag{
			Name:  "order",
			Usage: "Comma separated order fields, e.g. desc_created_at,id",
		},
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create a configuration file and migrate the database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

func migrateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply or roll back schema migrations",
		Commands: []*cli.Command{
			{
				Name:   "up",
				Usage:  "Apply every pending migration",
				Action: r.MigrateUp,
			},
			{
				Name:   "down",
				Usage:  "Roll back the most recent migration",
				Action: r.MigrateDown,
			},
			{
				Name:   "status",
				Usage:  "Print the current schema version",
				Action: r.MigrateStatus,
			},
		},
	}
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Interface to bind (overrides app.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (overrides app.port)",
			},
			&cli.BoolFlag{
				Name:  "migrate",
				Usage: "Apply pending migrations before serving",
			},
		},
		Action: r.Serve,
	}
}

func usersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "users",
		Aliases: []string{"u"},
		Usage:   "Manage users",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List users",
				Flags: append(listFlags(),
					&cli.StringFlag{
						Name:  "active",
						Usage: "Only users with this active state (true/false)",
					},
				),
				Action: r.UsersList,
			},
			{
				Name:  "create",
				Usage: "Create a user",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "username"},
				},
				Flags: []cli.Flag{
					formatFlag(),
					&cli.StringFlag{Name: "email", Usage: "Email address"},
					&cli.StringFlag{Name: "name", Usage: "Full name"},
					&cli.BoolFlag{Name: "inactive", Usage: "Create the user deactivated"},
					&cli.BoolFlag{Name: "upsert", Usage: "Update the user with this username if it exists"},
				},
				Action: r.UsersCreate,
			},
			{
				Name:  "get",
				Usage: "Show a user by id or username",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "user"},
				},
				Flags:  []cli.Flag{formatFlag()},
				Action: r.UsersGet,
			},
			{
				Name:  "update",
				Usage: "Change the given fields of a user",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "user"},
				},
				Flags: []cli.Flag{
					formatFlag(),
					&cli.StringFlag{Name: "username", Usage: "New username"},
					&cli.StringFlag{Name: "email", Usage: "Email address"},
					&cli.StringFlag{Name: "name", Usage: "Full name"},
					&cli.BoolFlag{Name: "active", Usage: "Active state"},
				},
				Action: r.UsersUpdate,
			},
			{
				Name:  "delete",
				Usage: "Delete a user by id or username",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "user"},
				},
				Action: r.UsersDelete,
			},
			{
				Name:  "activate",
				Usage: "Mark a user as active",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "user"},
				},
				Action: r.UsersSetActive(true),
			},
			{
				Name:  "deactivate",
				Usage: "Mark a user as inactive; inactive users cannot open sessions",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "user"},
				},
				Action: r.UsersSetActive(false),
			},
		},
	}
}

func schedulesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "schedules",
		Usage: "Manage schedules",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List schedules with their creation date range",
				Flags: append(listFlags(),
					&cli.StringFlag{
						Name:  "at",
						Usage: "Only schedules active at this time (RFC 3339, unix seconds or \"now\")",
					},
					&cli.StringFlag{
						Name:  "user",
						Usage: "Only schedules owned by this user id or username",
					},
				),
				Action: r.SchedulesList,
			},
			{
				Name:  "create",
				Usage: "Create a schedule",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "title"},
				},
				Flags: []cli.Flag{
					formatFlag(),
					&cli.StringFlag{Name: "user", Usage: "Owner id or username"},
					&cli.StringFlag{Name: "note", Usage: "Free text note"},
					&cli.StringFlag{Name: "start", Usage: "Window start (RFC 3339, unix seconds or \"now\")"},
					&cli.StringFlag{Name: "stop", Usage: "Window stop (RFC 3339, unix seconds or a duration after start such as 1h)"},
				},
				Action: r.SchedulesCreate,
			},
		},
	}
}

func sessionsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "Manage login sessions",
		Commands: []*cli.Command{
			{
				Name:  "open",
				Usage: "Open a session for an active user",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "user"},
				},
				Flags:  []cli.Flag{formatFlag()},
				Action: r.SessionsOpen,
			},
			{
				Name:   "prune",
				Usage:  "Delete sessions whose refresh token has expired",
				Action: r.SessionsPrune,
			},
		},
	}
}

func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Inspect the effective configuration",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the configuration after environment overrides",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output JSON instead of TOML"},
				},
				Action: r.ConfigShow,
			},
		},
	}
}
