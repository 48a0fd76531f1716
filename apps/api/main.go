package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/uwezocare/uwezo/core"
	"github.com/uwezocare/uwezo/core/assessment"
	"github.com/uwezocare/uwezo/core/assignment"
	"github.com/uwezocare/uwezo/core/dashboard"
	"github.com/uwezocare/uwezo/core/notif"
	"github.com/uwezocare/uwezo/core/participant"
	"github.com/uwezocare/uwezo/core/user"
	emailsvc "github.com/uwezocare/uwezo/services/email"
	logsvc "github.com/uwezocare/uwezo/services/logger"
	"github.com/uwezocare/uwezo/storage/database"
	sqlxrepos "github.com/uwezocare/uwezo/storage/database/sqlx"

	echoapi "github.com/uwezocare/uwezo/apps/api/echo"
)

const shutdownTimeout = 20 * time.Second

func main() {
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		core.Conf,
	)
	logger.Enable(!core.Conf.Debug)

	// set up DB
	if err := database.CreateIfNotExist(core.Conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(core.Conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer db.Close()
	if err = database.Migrate(db); err != nil {
		logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
	}

	sdb := sqlxrepos.NewDB(db)
	usrRepo := sqlxrepos.NewUserRepository(sdb)
	pcptRepo := sqlxrepos.NewParticipantRepository(sdb)
	asgRepo := sqlxrepos.NewAssignmentRepository(sdb)
	asmtRepo := sqlxrepos.NewAssessmentRepository(sdb)

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	dispatcher := notif.NewDispatcher(usrRepo, mailSvc, logger)

	usrSvc := user.NewService(usrRepo, mailSvc)
	pcptSvc := participant.NewService(pcptRepo, usrRepo)
	asgSvc := assignment.NewService(asgRepo, usrRepo, dispatcher)
	asmtSvc := assessment.NewService(asmtRepo, asgRepo, dispatcher)
	dashSvc := dashboard.NewService(usrRepo, asgRepo, asmtRepo)

	// start API server
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(&echoapi.Options{
		Address:        fmt.Sprintf(":%d", core.Conf.Server.Port),
		UserSvc:        usrSvc,
		ParticipantSvc: pcptSvc,
		AssignmentSvc:  asgSvc,
		AssessmentSvc:  asmtSvc,
		DashboardSvc:   dashSvc,
		Logger:         logger,
		Shutdown:       func() { shutdown <- syscall.SIGTERM },
	})

	go server.Start()
	logger.Info(fmt.Sprintf("%s API starting : version %q", core.Conf.AppName, core.Conf.Build))

	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: start shutdown...", sig))

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
	logger.Info("application stopped")
}
