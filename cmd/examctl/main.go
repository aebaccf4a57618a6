// Command examctl administers the exam database: schema, accounts, enrolments
// and question bank seeding.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/mind-engage/mindengage-exams/internal/auth"
	authmw "github.com/mind-engage/mindengage-exams/internal/auth/middleware"
	"github.com/mind-engage/mindengage-exams/internal/config"
	"github.com/mind-engage/mindengage-exams/internal/db"
	"github.com/mind-engage/mindengage-exams/internal/exam"
	"github.com/mind-engage/mindengage-exams/internal/logging"
)

const usage = `usage: examctl <command> [flags]

commands:
  migrate          create the schema if missing
  add-student      create or update a student account
  add-instructor   create or update an instructor account
  enrol            link an account to a course
  seed             load courses, accounts and questions from a JSON file
`

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "examctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return nil
	}
	cmd, args := args[0], args[1:]

	cfg := config.FromEnv()
	fs := pflag.NewFlagSet(cmd, pflag.ContinueOnError)
	fs.StringVar(&cfg.DBDriver, "db-driver", cfg.DBDriver, "sqlite or postgres")
	fs.StringVar(&cfg.DBDSN, "db-dsn", cfg.DBDSN, "database DSN")
	id := fs.Int64("id", 0, "account id")
	name := fs.String("name", "", "display name")
	password := fs.String("password", "", "account password")
	kind := fs.String("kind", string(authmw.KindStudent), "account kind for enrol: student|instructor")
	course := fs.String("course", "", "course name")
	file := fs.String("file", "", "seed file (JSON)")
	verbose := fs.BoolP("verbose", "v", false, "log debug output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	log := logging.New("text", level, os.Stderr)

	switch cmd {
	case "migrate", "add-student", "add-instructor", "enrol", "seed":
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}

	gw, err := open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer gw.Close()
	accounts := auth.NewAccounts(gw)

	switch cmd {
	case "migrate":
		// db.Open already applied the schema.
		fmt.Fprintf(out, "schema ready (%s)\n", gw.Driver())
	case "add-student", "add-instructor":
		k := authmw.KindStudent
		if cmd == "add-instructor" {
			k = authmw.KindInstructor
		}
		if err := accounts.Save(ctx, k, *id, *name, *password); err != nil {
			return err
		}
		fmt.Fprintf(out, "saved %s %d\n", k, *id)
	case "enrol":
		k := authmw.Kind(strings.ToLower(*kind))
		if !k.Valid() {
			return fmt.Errorf("unknown kind %q", *kind)
		}
		if err := accounts.Enrol(ctx, k, *id, *course); err != nil {
			return err
		}
		fmt.Fprintf(out, "enrolled %s %d in %s\n", k, *id, *course)
	case "seed":
		if *file == "" {
			return fmt.Errorf("seed: --file is required")
		}
		f, err := os.Open(*file)
		if err != nil {
			return err
		}
		defer f.Close()
		svc := exam.NewService(gw, exam.WithLogger(log), exam.WithLocation(cfg.Location()))
		st, err := seed(ctx, f, accounts, svc)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "seeded %d courses, %d accounts, %d questions\n", st.Courses, st.Accounts, st.Questions)
	}
	return nil
}

func open(ctx context.Context, cfg config.Config, log *slog.Logger) (*db.Gateway, error) {
	driver, err := db.ParseDriver(cfg.DBDriver)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return db.Open(ctx, driver, cfg.DBDSN, log)
}
