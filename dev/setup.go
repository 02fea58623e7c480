package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	devenv "ucrauth/dev/env"
	"ucrauth/lib/sessionstore"
)

const configTemplate = `{
	// credentials used by the live tests, never commit this file
	username: "",
	password: "",
}
`

func CreateSessionDB() error {
	path, err := devenv.ResolvePath("<dev_state>/sessions.db")
	if err != nil {
		return err
	}
	_, err = os.Stat(path)
	if err == nil {
		fmt.Println("database already created at", path)
		return nil
	}

	fmt.Println("creating database at", path)
	db, err := sessionstore.SQLConfig{File: path}.OpenDB()
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = sessionstore.NewSQLStore(context.Background(), db)
	return err
}

func CreateConfigTemplate() error {
	path, err := devenv.GetStateFilePath("ucr_config.json5")
	if err != nil {
		return err
	}
	_, err = os.Stat(path)
	if err == nil {
		return nil
	}
	fmt.Println("writing config template to", path)
	return os.WriteFile(path, []byte(configTemplate), 0600)
}

func PrintConfigLocations() {
	slog.Info("the live tests skip until dev/.state/ucr_config.json5 holds real credentials, a session saved with `--store sqlite:<dev_state>/sessions.db` lands in the database created here.")
}
