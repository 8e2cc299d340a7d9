package main

import (
	"context"
	"log"
	"os"

	"github.com/trezcool/safestep/core"
	"github.com/trezcool/safestep/core/user"
	inmemdb "github.com/trezcool/safestep/storage/database/inmem"
	sqlxrepos "github.com/trezcool/safestep/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up storage
	usrRepo, closeDB, err := setUpStorage(conf)
	errAndDie(err)
	defer closeDB()

	// start CLI
	cli := commandLine{usrRepo: usrRepo}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func setUpStorage(conf *core.Config) (user.Repository, func(), error) {
	if conf.Database.Engine == "" {
		db, err := inmemdb.Open()
		if err != nil {
			return nil, nil, err
		}
		if err = inmemdb.Seed(context.Background(), db); err != nil {
			return nil, nil, err
		}
		return inmemdb.NewUserRepository(db), func() {}, nil
	}

	db, err := sqlxrepos.Open(conf)
	if err != nil {
		return nil, nil, err
	}
	if err = sqlxrepos.EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return sqlxrepos.NewUserRepository(db), func() { _ = db.Close() }, nil
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
