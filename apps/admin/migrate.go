package main

import (
	"database/sql"

	"github.com/trezcool/tutorboard/storage/database"
)

type dbOpener func() (*sql.DB, error)

var gooseRunFunc = database.RunMigrations // mockable

func (cli *commandLine) migrate(args []string) error {
	db, err := cli.db()
	if err != nil {
		return err
	}
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(args[0], db, arguments...)
}
