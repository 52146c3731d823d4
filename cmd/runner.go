package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/summarybot/internal/formatter"
	"github.com/desertthunder/summarybot/internal/shared"
	"github.com/urfave/cli/v3"
	"gorm.io/gorm"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	db         *gorm.DB
	maker      *shared.SessionMaker
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	DB         *gorm.DB // opened from Config on first use when nil
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		db:         opts.DB,
		logger:     opts.Logger,
		output:     opts.Output,
	}
	if r.db != nil {
		r.maker = shared.NewSessionMaker(r.db)
	}
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, migrateCommand, serveCommand, usersCommand, schedulesCommand, sessionsCommand, configCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// rootLogger is the logger for the server and the database, leveled by logging.level_root.
func (r *Runner) rootLogger(component string) *log.Logger {
	l := shared.WithLogger(r.logger, "component", component)
	if lvl, err := shared.ParseLevel(r.config.Logging.LevelRoot); err == nil {
		shared.SetLogLevel(l, lvl)
	}
	return l
}

// sessions returns the session maker, opening the database on first use.
func (r *Runner) sessions() (*shared.SessionMaker, error) {
	if r.maker != nil {
		return r.maker, nil
	}

	db, err := shared.NewDatabase(r.config.Database, r.rootLogger("db"))
	if err != nil {
		return nil, err
	}
	r.db = db
	r.maker = shared.NewSessionMaker(db)
	return r.maker, nil
}

// Close releases the database if the runner opened one.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := shared.CloseDatabase(r.db)
	r.db, r.maker = nil, nil
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// writeList renders items in the format chosen by --format, or to --output when set.
func writeList[T any](r *Runner, cmd *cli.Command, items []T) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteExport(path, format, items); err != nil {
			return err
		}
		r.logger.Info("exported", "path", path, "count", len(items))
		return nil
	}
	return formatter.Write(r.output, format, items)
}

// writeOne renders a single item. Tables print one row.
func writeOne[T any](r *Runner, cmd *cli.Command, item T) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if format == formatter.FormatJSON {
		return r.writeJSON(item, true)
	}
	return formatter.Write(r.output, format, []T{item})
}
