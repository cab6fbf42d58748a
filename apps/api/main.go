package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/campus/apps/api/echo"
	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/announcement"
	"github.com/trezcool/campus/core/attendance"
	"github.com/trezcool/campus/core/audit"
	"github.com/trezcool/campus/core/course"
	"github.com/trezcool/campus/core/dashboard"
	"github.com/trezcool/campus/core/enrollment"
	"github.com/trezcool/campus/core/grade"
	"github.com/trezcool/campus/core/user"
	"github.com/trezcool/campus/services/email"
	"github.com/trezcool/campus/services/logger"
	"github.com/trezcool/campus/services/scheduler"
	"github.com/trezcool/campus/storage/database"
	"github.com/trezcool/campus/storage/database/dummy"
	"github.com/trezcool/campus/storage/database/sqlboiler"
	"github.com/trezcool/campus/storage/database/sqlx"
)

type repositories struct {
	users         user.Repository
	courses       course.Repository
	enrollments   enrollment.Repository
	grades        grade.Repository
	attendance    attendance.Repository
	announcements announcement.Repository
	audit         audit.Repository
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)
	defer logger.Close()

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB & repos
	var repos repositories
	switch conf.Database.Engine {
	case "memory":
		logger.Warn("using the in-memory database: data is lost on exit")
		db := dummydb.Open()
		repos = repositories{
			users:         dummydb.NewUserRepository(db),
			courses:       dummydb.NewCourseRepository(db),
			enrollments:   dummydb.NewEnrollmentRepository(db),
			grades:        dummydb.NewGradeRepository(db),
			attendance:    dummydb.NewAttendanceRepository(db),
			announcements: dummydb.NewAnnouncementRepository(db),
			audit:         dummydb.NewAuditRepository(db),
		}
	default:
		db, err := setUpDB(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}
		defer func() {
			if err = db.Close(); err != nil {
				dbLogger.Fatal("Failed to close", err)
			}
		}()
		repos = repositories{
			users:         boiledrepos.NewUserRepository(db),
			courses:       sqlxrepos.NewCourseRepository(db),
			enrollments:   sqlxrepos.NewEnrollmentRepository(db),
			grades:        sqlxrepos.NewGradeRepository(db),
			attendance:    sqlxrepos.NewAttendanceRepository(db),
			announcements: sqlxrepos.NewAnnouncementRepository(db),
			audit:         boiledrepos.NewAuditRepository(db),
		}
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	usrSvc := user.NewService(repos.users, mailSvc, conf)
	courseSvc := course.NewService(repos.courses)
	enrollmentSvc := enrollment.NewService(repos.enrollments, courseSvc)
	gradeSvc := grade.NewService(repos.grades, courseSvc)
	attendanceSvc := attendance.NewService(repos.attendance)
	announcementSvc := announcement.NewService(repos.announcements)
	auditSvc := audit.NewService(repos.audit, logger)
	dashboardSvc := dashboard.NewService(dashboard.Deps{
		Users:         usrSvc,
		Courses:       courseSvc,
		Enrollments:   enrollmentSvc,
		Grades:        gradeSvc,
		Attendance:    attendanceSvc,
		Announcements: announcementSvc,
		Audit:         auditSvc,
	})

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	course.InitValidators(validate, translator)
	grade.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, logger)

	user.LoadCommonPasswords(conf.WorkDir, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start Background Jobs

	jobs := scheduler.New(logger, conf.Server.ShutdownTimeout)
	if err := jobs.AddJob(scheduler.NewAnnouncementPurgeJob(announcementSvc, conf.Scheduler.AnnouncementPurgeSpec, logger)); err != nil {
		logger.Fatal(fmt.Sprintf("scheduling jobs: %v", err), err)
	}
	jobs.Start()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:            conf,
		Logger:          logger,
		Validate:        validate,
		Translator:      translator,
		UserSvc:         usrSvc,
		CourseSvc:       courseSvc,
		EnrollmentSvc:   enrollmentSvc,
		GradeSvc:        gradeSvc,
		AttendanceSvc:   attendanceSvc,
		AnnouncementSvc: announcementSvc,
		AuditSvc:        auditSvc,
		DashboardSvc:    dashboardSvc,
	})

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		jobs.Stop()
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
		jobs.Stop()

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
