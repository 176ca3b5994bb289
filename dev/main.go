package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	devenv "wastenot-e2e/dev/env"

	_ "modernc.org/sqlite"
)

const (
	localDBPath   = "<dev_state>/wastenot.db"
	schemaPath    = "<workspace>/lib/testutil/wastenot_schema.sql"
	localStackDir = "dev/local_stack"
)

func cmd(name string, args ...string) error {
	c := exec.Command(name, args...)
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	fmt.Printf("$ %s %s\n", name, strings.Join(args, " "))
	return c.Run()
}

// createLocalDB seeds a sqlite database that the "dev-sqlite" profile in
// wastenot.local.json5 can point at for offline correction dry runs.
func createLocalDB() error {
	path, err := devenv.ResolvePath(localDBPath)
	if err != nil {
		return err
	}
	_, err = os.Stat(path)
	if err == nil {
		fmt.Println("database already created at", path)
		return nil
	}

	resolvedSchema, err := devenv.ResolvePath(schemaPath)
	if err != nil {
		return err
	}
	schema, err := os.ReadFile(resolvedSchema)
	if err != nil {
		return err
	}

	fmt.Println("creating database at", path)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.Exec(string(schema))
	return err
}

// createLocalStack starts mysql, minio and a fake smtp server for the
// integration tests and local runs.
func createLocalStack() error {
	return cmd("docker", "compose", "-f", filepath.Join(localStackDir, "compose.yaml"), "up", "-d")
}

func printConfigLocations() {
	path, err := devenv.ResolvePath(localDBPath)
	if err != nil {
		return
	}
	fmt.Printf(`
add a local profile to wastenot.local.json5 to use the seeded database:

  databases: {
    "dev-sqlite": {driver: "sqlite", dsn: %q},
  },

then run: wastenot correct run --profile dev-sqlite --dry-run
`, path)
}

func create(recreate, stack bool) error {
	_, err := os.Stat("go.mod")
	if os.IsNotExist(err) {
		return fmt.Errorf("the dev environment must be created in the repository root (the same directory as the 'go.mod' file)")
	}

	if recreate {
		err = os.RemoveAll("dev/.state")
		if err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	err = os.MkdirAll("dev/.state", 0777)
	if err != nil {
		return err
	}

	if stack {
		err = createLocalStack()
		if err != nil {
			return err
		}
	}
	err = createLocalDB()
	if err != nil {
		return err
	}
	printConfigLocations()

	return nil
}

func main() {
	recreate := flag.Bool("recreate", false, "recreate the dev environment from scratch")
	stack := flag.Bool("stack", false, "also start the docker compose local stack")
	flag.Parse()

	err := create(*recreate, *stack)
	if err != nil {
		slog.Error("failed to create dev environment", "err", err.Error())
		os.Exit(1)
	}

	slog.Info("dev environment created successfully!")
}
