package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/luct/reports/core"
	"github.com/luct/reports/core/user"
	"github.com/luct/reports/storage/database"
	"github.com/luct/reports/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	if conf.Debug {
		errAndDie(database.CreateIfNotExist(conf))
	}
	db, err := database.Open(conf)
	errAndDie(err)

	// start CLI
	cli := newCommandLine(db, user.NewService(sqlxrepos.NewUserRepository(db, conf.Database.QueryTimeout)))
	err = cli.run(os.Args)
	closeDB(db)
	if err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func closeDB(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		logger.Printf("closing database: %v", err)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
