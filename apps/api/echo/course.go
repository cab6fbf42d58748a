package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/audit"
	"github.com/trezcool/campus/core/course"
	"github.com/trezcool/campus/core/enrollment"
	"github.com/trezcool/campus/core/user"
)

var (
	errCourseNotFoundInCtx = errors.New("course object not found in echo.Context")
	errNotFacultyMember    = "must be an active faculty member"
)

func (s *Server) registerCourseAPI(g *echo.Group, authed []echo.MiddlewareFunc) {
	cg := g.Group("/courses", authed...)
	cg.GET("", s.queryCourses)
	cg.POST("", s.createCourse, adminMiddleware())

	// detail endpoints
	dg := cg.Group("/:id", courseMiddleware(s.CourseSvc))
	dg.GET("", s.retrieveCourse)
	dg.PUT("", s.updateCourse, adminMiddleware())
	dg.DELETE("", s.deactivateCourse, adminMiddleware())
	dg.POST("/enroll", s.enroll, roleMiddleware(user.RoleStudent))
	dg.DELETE("/enroll", s.drop, roleMiddleware(user.RoleStudent))
	dg.GET("/students", s.courseStudents, staffMiddleware())
}

// CourseView is a Course as listed to a User: students also see their own enrollment status.
type CourseView struct {
	course.Course
	EnrolledCount    int    `json:"enrolled_count"`
	EnrollmentStatus string `json:"enrollment_status,omitempty"`
}

// RosterEntry is a student enrolled in a course.
type RosterEntry struct {
	enrollment.Enrollment
	Student user.User `json:"student"`
}

// courseMiddleware loads the `:id` Course into the context as "course".
// Inactive courses are hidden from everyone but admins.
func courseMiddleware(svc course.ServiceInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxUsr, err := getContextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			c, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				return err
			}
			if !c.IsActive && !ctxUsr.IsAdmin() {
				return course.ErrNotFound
			}
			ctx.Set("course", c)
			return next(ctx)
		}
	}
}

func getContextCourse(ctx echo.Context) (course.Course, error) {
	c, ok := ctx.Get("course").(course.Course)
	if !ok {
		return course.Course{}, errors.Wrap(errCourseNotFoundInCtx, "retrieving course from context")
	}
	return c, nil
}

// checkFaculty reports a validation error unless id is an active faculty member.
func (s *Server) checkFaculty(ctx context.Context, id string) error {
	usr, err := s.UserSvc.GetByID(ctx, id)
	if err != nil && errors.Cause(err) != user.ErrNotFound {
		return errors.Wrap(err, "finding faculty member")
	}
	if err != nil || !usr.IsFaculty() || !usr.IsActive {
		return core.NewValidationError(nil, core.FieldError{Field: "faculty_id", Error: errNotFacultyMember})
	}
	return nil
}

func (s *Server) courseViews(ctx context.Context, usr user.User, courses ...course.Course) ([]CourseView, error) {
	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	counts, err := s.EnrollmentSvc.ApprovedCounts(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "counting enrollments")
	}

	statuses := make(map[string]string)
	if usr.IsStudent() {
		enrollments, err := s.EnrollmentSvc.StudentCourses(ctx, usr.ID)
		if err != nil {
			return nil, errors.Wrap(err, "finding student enrollments")
		}
		for _, e := range enrollments {
			statuses[e.CourseID] = e.Status
		}
	}

	views := make([]CourseView, 0, len(courses))
	for _, c := range courses {
		views = append(views, CourseView{Course: c, EnrolledCount: counts[c.ID], EnrollmentStatus: statuses[c.ID]})
	}
	return views, nil
}

// Handlers

func (s *Server) queryCourses(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	filter := &course.QueryFilter{
		Search:     ctx.QueryParam("search"),
		Department: ctx.QueryParam("department"),
		Semester:   ctx.QueryParam("semester"),
		FacultyID:  ctx.QueryParam("faculty"),
		IsActive:   queryBool(ctx, "is_active"),
	}
	filter.Clean()
	if !ctxUsr.IsAdmin() {
		active := true
		filter.IsActive = &active
	}

	courses, total, err := s.CourseSvc.Query(ctx.Request().Context(), filter, bindPagination(ctx, s.Conf.Pagination))
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	views, err := s.courseViews(ctx.Request().Context(), ctxUsr, courses...)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ListResponse{Results: views, Total: total})
}

func (s *Server) retrieveCourse(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	c, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	views, err := s.courseViews(ctx.Request().Context(), ctxUsr, c)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, views[0])
}

func (s *Server) createCourse(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(s.Validate); err != nil {
		return err
	}
	if err := s.checkFaculty(ctx.Request().Context(), data.FacultyID); err != nil {
		return err
	}

	c, err := s.CourseSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	ctxUsr, _ := getContextUser(ctx)
	s.record(ctxUsr, audit.ActionCreateCourse, audit.ResourceCourse, c.ID, audit.Metadata{"code": c.Code})

	return ctx.JSON(http.StatusCreated, c)
}

func (s *Server) updateCourse(ctx echo.Context) error {
	c, err := getContextCourse(ctx)
	if err != nil {
		return err
	}

	var data course.UpdateCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err = data.Validate(s.Validate); err != nil {
		return err
	}
	if data.FacultyID != "" && data.FacultyID != c.FacultyID {
		if err = s.checkFaculty(ctx.Request().Context(), data.FacultyID); err != nil {
			return err
		}
	}

	c, err = s.CourseSvc.Update(ctx.Request().Context(), c.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	ctxUsr, _ := getContextUser(ctx)
	s.record(ctxUsr, audit.ActionUpdateCourse, audit.ResourceCourse, c.ID, nil)

	return ctx.JSON(http.StatusOK, c)
}

func (s *Server) deactivateCourse(ctx echo.Context) error {
	c, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	if _, err = s.CourseSvc.Deactivate(ctx.Request().Context(), c.ID); err != nil {
		return errors.Wrap(err, "deactivating course")
	}
	ctxUsr, _ := getContextUser(ctx)
	s.record(ctxUsr, audit.ActionDeleteCourse, audit.ResourceCourse, c.ID, audit.Metadata{"code": c.Code})

	return ctx.NoContent(http.StatusNoContent)
}

func (s *Server) enroll(ctx echo.Context) error {
	c, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	e, err := s.EnrollmentSvc.Enroll(ctx.Request().Context(), ctxUsr.ID, c.ID)
	if err != nil {
		return errors.Wrap(err, "enrolling")
	}
	s.record(ctxUsr, audit.ActionEnrollCourse, audit.ResourceEnrollment, e.ID, audit.Metadata{"course_id": c.ID})

	return ctx.JSON(http.StatusCreated, e)
}

func (s *Server) drop(ctx echo.Context) error {
	c, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	e, err := s.EnrollmentSvc.Drop(ctx.Request().Context(), ctxUsr.ID, c.ID)
	if err != nil {
		return errors.Wrap(err, "dropping course")
	}
	s.record(ctxUsr, audit.ActionDropCourse, audit.ResourceEnrollment, e.ID, audit.Metadata{"course_id": c.ID})

	return ctx.JSON(http.StatusOK, e)
}

func (s *Server) courseStudents(ctx echo.Context) error {
	c, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = s.CourseSvc.CheckOwnership(c, ctxUsr); err != nil {
		return err
	}

	enrollments, err := s.EnrollmentSvc.CourseStudents(ctx.Request().Context(), c.ID)
	if err != nil {
		return errors.Wrap(err, "finding course students")
	}
	roster := make([]RosterEntry, 0, len(enrollments))
	for _, e := range enrollments {
		student, err := s.UserSvc.GetByID(ctx.Request().Context(), e.StudentID)
		if err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				continue
			}
			return errors.Wrap(err, "finding student")
		}
		roster = append(roster, RosterEntry{Enrollment: e, Student: student})
	}
	return ctx.JSON(http.StatusOK, ListResponse{Results: roster, Total: len(roster)})
}
