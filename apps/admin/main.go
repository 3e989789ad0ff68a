package main

import (
	"database/sql"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/tutorboard/core"
	"github.com/trezcool/tutorboard/core/whiteboard"
	"github.com/trezcool/tutorboard/storage/database"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()
	wb := conf.Whiteboard

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	var db *sql.DB
	defer func() {
		if db != nil {
			_ = db.Close()
		}
	}()

	// start CLI
	cli := commandLine{
		db: func() (*sql.DB, error) {
			var err error
			if db, err = database.Open(conf); err != nil {
				return nil, err
			}
			return db, database.Ping(db)
		},
		sanitizer: whiteboard.NewSanitizer(whiteboard.SanitizerOptions{
			Canvas:          whiteboard.Canvas{Width: wb.CanvasWidth, Height: wb.CanvasHeight},
			MaxCommands:     wb.MaxCommands,
			MaxPayloadBytes: wb.MaxPayloadBytes,
			ImageHosts:      wb.ImageHosts,
		}),
		validate:   validate,
		translator: translator,
		out:        os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		if db != nil {
			_ = db.Close()
		}
		os.Exit(1)
	}
}
