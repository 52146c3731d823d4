package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/summarybot/internal/crud"
	"github.com/desertthunder/summarybot/internal/schemas"
	"github.com/desertthunder/summarybot/internal/shared"
	tu "github.com/desertthunder/summarybot/internal/testing"
	"github.com/urfave/cli/v3"
)

// newTestRunner returns a runner on a migrated in-memory database, writing to out.
func newTestRunner(t *testing.T, out io.Writer) *Runner {
	t.Helper()
	return NewRunner(RunnerOpts{
		DB:     tu.NewTestDB(t),
		Logger: shared.NewLogger(io.Discard),
		Output: out,
	})
}

// run executes args against r's command tree.
func run(t *testing.T, r *Runner, args ...string) error {
	t.Helper()
	app := &cli.Command{Name: "summarybot", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"summarybot"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			db := tu.NewTestDB(t)

			runner := NewRunner(RunnerOpts{
				Config: config,
				DB:     db,
				Logger: logger,
				Output: output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.maker == nil || runner.maker.DB() != db {
				t.Error("expected session maker over the given database")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("opens the configured database lazily", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Database.Path = filepath.Join(t.TempDir(), "lazy.db")
			runner := NewRunner(RunnerOpts{Config: config, Logger: shared.NewLogger(io.Discard)})
			if runner.maker != nil {
				t.Fatal("expected no database before first use")
			}

			maker, err := runner.sessions()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			again, _ := runner.sessions()
			if maker != again {
				t.Error("expected the session maker to be reused")
			}
			if err := runner.Close(); err != nil {
				t.Errorf("expected clean close, got %v", err)
			}
			tu.AssertFileExists(t, config.Database.Path)
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		commands := NewRunner(RunnerOpts{}).register()
		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}
		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})
}

func TestUsersCommands(t *testing.T) {
	out := &bytes.Buffer{}
	r := newTestRunner(t, out)

	t.Run("create", func(t *testing.T) {
		if err := run(t, r, "users", "create", "--email", "ada@example.com", "--format", "json", "ada"); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		var got schemas.GetUser
		if err := json.Unmarshal(out.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON %q: %v", out.String(), err)
		}
		if got.Username != "ada" || !got.IsActive || got.Email == nil || *got.Email != "ada@example.com" {
			t.Errorf("unexpected user %+v", got)
		}
		out.Reset()

		if err := run(t, r, "users", "create", "--inactive", "grace"); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		out.Reset()
	})

	t.Run("create duplicate", func(t *testing.T) {
		err := run(t, r, "users", "create", "ada")
		if !crud.IsIntegrityViolation(err) {
			t.Errorf("expected integrity violation, got %v", err)
		}
		out.Reset()
	})

	t.Run("create missing username", func(t *testing.T) {
		if err := run(t, r, "users", "create"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("upsert", func(t *testing.T) {
		if err := run(t, r, "users", "create", "--upsert", "--name", "Ada Lovelace", "-f", "json", "ada"); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
		var got schemas.GetUser
		if err := json.Unmarshal(out.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got.FullName == nil || *got.FullName != "Ada Lovelace" {
			t.Errorf("expected full name to be set, got %+v", got)
		}
		out.Reset()
	})

	t.Run("list csv", func(t *testing.T) {
		if err := run(t, r, "users", "list", "--format", "csv", "--order", "id"); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		records, err := csv.NewReader(out).ReadAll()
		if err != nil {
			t.Fatalf("invalid CSV: %v", err)
		}
		if len(records) != 3 || records[1][3] != "ada" || records[2][3] != "grace" {
			t.Errorf("unexpected records %v", records)
		}
		out.Reset()
	})

	t.Run("list filtered table", func(t *testing.T) {
		if err := run(t, r, "users", "list", "--active", "false"); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if !strings.Contains(out.String(), "grace") || strings.Contains(out.String(), "ada@example.com") {
			t.Errorf("unexpected table:\n%s", out.String())
		}
		out.Reset()
	})

	t.Run("list bad order", func(t *testing.T) {
		if err := run(t, r, "users", "list", "--order", "email"); !errors.Is(err, crud.ErrUnknownField) {
			t.Errorf("expected ErrUnknownField, got %v", err)
		}
	})

	t.Run("list export", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "users.json")
		if err := run(t, r, "users", "list", "-f", "json", "-o", path); err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if !strings.Contains(tu.MustReadFile(t, path), `"username": "grace"`) {
			t.Error("expected exported users")
		}
	})

	t.Run("update", func(t *testing.T) {
		if err := run(t, r, "users", "update", "--active", "-f", "json", "grace"); err != nil {
			t.Fatalf("update failed: %v", err)
		}
		var got schemas.GetUser
		if err := json.Unmarshal(out.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if !got.IsActive {
			t.Error("expected grace to be active")
		}
		out.Reset()
	})

	t.Run("get", func(t *testing.T) {
		if err := run(t, r, "users", "get", "nobody"); !errors.Is(err, crud.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if err := run(t, r, "users", "get", "1"); err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if !strings.Contains(out.String(), "ada") {
			t.Errorf("expected ada, got %q", out.String())
		}
		out.Reset()
	})

	t.Run("deactivate and activate", func(t *testing.T) {
		if err := run(t, r, "users", "deactivate", "grace"); err != nil {
			t.Fatalf("deactivate failed: %v", err)
		}
		if !strings.Contains(out.String(), "user grace is inactive") {
			t.Errorf("unexpected output %q", out.String())
		}
		out.Reset()

		if err := run(t, r, "users", "activate", "grace"); err != nil {
			t.Fatalf("activate failed: %v", err)
		}
		if !strings.Contains(out.String(), "user grace is active") {
			t.Errorf("unexpected output %q", out.String())
		}
		out.Reset()

		if err := run(t, r, "users", "activate", "nobody"); !errors.Is(err, crud.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := run(t, r, "users", "delete", "grace"); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if !strings.Contains(out.String(), "deleted user grace") {
			t.Errorf("unexpected output %q", out.String())
		}
		out.Reset()
		if err := run(t, r, "users", "get", "grace"); !errors.Is(err, crud.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestSchedulesCommands(t *testing.T) {
	out := &bytes.Buffer{}
	r := newTestRunner(t, out)

	if err := run(t, r, "users", "create", "ada"); err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	out.Reset()

	t.Run("create", func(t *testing.T) {
		if err := run(t, r, "schedules", "create", "--user", "ada", "--start", "now", "--stop", "1h", "-f", "json", "standup"); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		var got schemas.GetSchedule
		if err := json.Unmarshal(out.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON %q: %v", out.String(), err)
		}
		if got.UserID == nil || got.Title != "standup" {
			t.Errorf("unexpected schedule %+v", got)
		}
		if d := got.StopTime.Sub(got.StartTime.Time); d != time.Hour {
			t.Errorf("expected a one hour window, got %v", d)
		}
		out.Reset()

		if err := run(t, r, "schedules", "create", "--start", "2000-01-01T00:00:00Z", "--stop", "946688400", "archived"); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		out.Reset()
	})

	t.Run("create inverted window", func(t *testing.T) {
		err := run(t, r, "schedules", "create", "--start", "now", "--stop", "0", "broken")
		if !errors.Is(err, schemas.ErrInvalidPayload) {
			t.Errorf("expected ErrInvalidPayload, got %v", err)
		}
	})

	t.Run("list active", func(t *testing.T) {
		if err := run(t, r, "schedules", "list", "--at", "now"); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		text := out.String()
		if !strings.Contains(text, "standup") || strings.Contains(text, "archived") {
			t.Errorf("unexpected table:\n%s", text)
		}
		if !strings.Contains(text, "created ") {
			t.Errorf("expected date bounds footer:\n%s", text)
		}
		out.Reset()
	})

	t.Run("list by user", func(t *testing.T) {
		if err := run(t, r, "schedules", "list", "--user", "ada", "-f", "csv"); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if n := strings.Count(strings.TrimSpace(out.String()), "\n"); n != 1 {
			t.Errorf("expected one schedule, got:\n%s", out.String())
		}
		out.Reset()
	})
}

func TestSessionsCommands(t *testing.T) {
	out := &bytes.Buffer{}
	r := newTestRunner(t, out)

	if err := run(t, r, "users", "create", "ada"); err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	if err := run(t, r, "users", "create", "--inactive", "grace"); err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	out.Reset()

	if err := run(t, r, "sessions", "open", "-f", "json", "ada"); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	var got schemas.GetSession
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", out.String(), err)
	}
	if got.User == nil || got.User.Username != "ada" {
		t.Errorf("expected the owning user, got %+v", got.User)
	}
	if time.Until(got.RefreshExp) < 29*24*time.Hour {
		t.Errorf("expected refresh expiry from refresh_ttl, got %v", got.RefreshExp)
	}
	out.Reset()

	if err := run(t, r, "sessions", "open", "grace"); !errors.Is(err, crud.ErrUserInactive) {
		t.Errorf("expected ErrUserInactive, got %v", err)
	}

	if err := run(t, r, "sessions", "prune"); err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	if !strings.Contains(out.String(), "pruned 0") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestMigrateAndConfig(t *testing.T) {
	out := &bytes.Buffer{}
	r := newTestRunner(t, out)

	if err := run(t, r, "migrate", "status"); err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out.String(), "version 3") {
		t.Errorf("unexpected status %q", out.String())
	}
	out.Reset()

	if err := run(t, r, "migrate", "down"); err != nil {
		t.Fatalf("down failed: %v", err)
	}
	if !strings.Contains(out.String(), "rolled back migration 3") {
		t.Errorf("unexpected output %q", out.String())
	}
	out.Reset()

	if err := run(t, r, "migrate", "up"); err != nil {
		t.Fatalf("up failed: %v", err)
	}
	if !strings.Contains(out.String(), "applied 1 migration(s), schema at version 3") {
		t.Errorf("unexpected output %q", out.String())
	}
	out.Reset()

	if err := run(t, r, "config", "show"); err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(out.String(), "[database]") {
		t.Errorf("expected TOML output, got %q", out.String())
	}
}

func TestSetup(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	t.Setenv("ENV_IGNORE", "true")
	t.Setenv("DATABASE_PATH", filepath.Join(dir, "setup.db"))

	out := &bytes.Buffer{}
	r := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: out})
	t.Cleanup(func() { r.Close() })

	if err := run(t, r, "setup", "--config", configPath); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	tu.AssertFileExists(t, configPath)
	tu.AssertFileExists(t, filepath.Join(dir, "setup.db"))
	if !strings.Contains(out.String(), "applied 3 migration(s)") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestParseTime(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for in, want := range map[string]time.Time{
		"now":                  now,
		"NOW":                  now,
		"0":                    time.Unix(0, 0),
		"2024-01-02T03:04:05Z": time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	} {
		got, err := parseTime(in, now)
		if err != nil {
			t.Errorf("parseTime(%q) failed: %v", in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("parseTime(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := parseTime("tomorrow", now); !errors.Is(err, shared.ErrInvalidFlag) {
		t.Errorf("expected ErrInvalidFlag, got %v", err)
	}
}
