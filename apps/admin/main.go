package main

import (
	"fmt"
	"log"
	"os"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/course"
	"github.com/trezcool/campus/core/grade"
	"github.com/trezcool/campus/core/user"
	"github.com/trezcool/campus/services/logger"
	"github.com/trezcool/campus/storage/database"
	"github.com/trezcool/campus/storage/database/sqlboiler"
	"github.com/trezcool/campus/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	user.LoadCommonPasswords(conf.WorkDir, logger)

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	// start CLI
	cli := commandLine{
		db:       db.DB,
		usrRepo:  boiledrepos.NewUserRepository(db),
		gradeSvc: grade.NewService(sqlxrepos.NewGradeRepository(db), course.NewService(sqlxrepos.NewCourseRepository(db))),
		out:      os.Stdout,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	logger.Close()
	if err != nil {
		if err != errHelp {
			fmt.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
