package main

import (
	devenv "bunker-backend/dev/env"
	"bunker-backend/internal/sessionstore"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
)

func create(ctx context.Context, recreate bool) error {
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

	path, err := devenv.ResolvePath("<dev_state>/sessions.db")
	if err != nil {
		return err
	}
	slog.Info("preparing session store", "path", path)
	store, err := sessionstore.Open(ctx, sessionstore.Config{File: path}, sessionstore.Options{})
	if err != nil {
		return err
	}
	err = store.Close()
	if err != nil {
		return err
	}

	credentials, err := devenv.GetStateFilePath("ecampus.json5")
	if err != nil {
		return err
	}
	slog.Info(
		"tests against the real portal are skipped until credentials are written",
		"path", credentials,
		"format", `{ base_url: "", username: "", password: "" }`,
	)
	return nil
}

func main() {
	recreate := flag.Bool("recreate", false, "recreate the dev environment from scratch")
	flag.Parse()

	err := create(context.Background(), *recreate)
	if err != nil {
		slog.Error("failed to create dev environment", "err", err.Error())
		os.Exit(1)
	}

	slog.Info("dev environment created successfully!")
}
