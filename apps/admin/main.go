package main

import (
	"errors"
	"log"
	"os"

	"github.com/uwezocare/uwezo/core"
	"github.com/uwezocare/uwezo/storage/database"
	sqlxrepos "github.com/uwezocare/uwezo/storage/database/sqlx"
)

var (
	logger *log.Logger

	errInvalidRole = errors.New("invalid role")
)

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up DB
	db, err := database.Open(core.Conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	// start CLI
	cli := commandLine{
		db:      db,
		usrRepo: sqlxrepos.NewUserRepository(sqlxrepos.NewDB(db)),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
