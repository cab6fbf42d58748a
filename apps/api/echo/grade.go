package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/audit"
	"github.com/trezcool/campus/core/course"
	"github.com/trezcool/campus/core/grade"
	"github.com/trezcool/campus/core/user"
)

var errNotStudent = "must be a student"

func (s *Server) registerGradeAPI(g *echo.Group, authed []echo.MiddlewareFunc) {
	gg := g.Group("/grades", authed...)
	gg.GET("", s.queryGrades)
	gg.POST("", s.createGrade, staffMiddleware())
	gg.PUT("/:id", s.updateGrade, staffMiddleware())
	gg.DELETE("/:id", s.deleteGrade, adminMiddleware())
}

// scopeCourses restricts a staff listing to the courses usr may see.
// It returns nil for admins, or when courseID names a course usr teaches.
// Otherwise it returns usr's own course IDs.
func (s *Server) scopeCourses(ctx context.Context, usr user.User, courseID string) ([]string, error) {
	if usr.IsAdmin() {
		return nil, nil
	}
	if courseID != "" {
		c, err := s.CourseSvc.GetByID(ctx, courseID)
		if err != nil {
			return nil, err
		}
		return nil, s.CourseSvc.CheckOwnership(c, usr)
	}

	courses, err := s.CourseSvc.ListByFaculty(ctx, usr.ID)
	if err != nil {
		return nil, errors.Wrap(err, "listing faculty courses")
	}
	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

// ownedCourse finds the course id and checks usr may manage it.
func (s *Server) ownedCourse(ctx context.Context, usr user.User, id string) (course.Course, error) {
	c, err := s.CourseSvc.GetByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return course.Course{}, core.NewValidationError(nil, core.FieldError{Field: "course_id", Error: err.Error()})
		}
		return course.Course{}, errors.Wrap(err, "finding course")
	}
	return c, s.CourseSvc.CheckOwnership(c, usr)
}

func (s *Server) checkStudent(ctx context.Context, id string) error {
	usr, err := s.UserSvc.GetByID(ctx, id)
	if err != nil && errors.Cause(err) != user.ErrNotFound {
		return errors.Wrap(err, "finding student")
	}
	if err != nil || !usr.IsStudent() {
		return core.NewValidationError(nil, core.FieldError{Field: "student_id", Error: errNotStudent})
	}
	return nil
}

func (s *Server) queryGrades(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	// students get their own transcript
	if ctxUsr.IsStudent() {
		report, err := s.GradeSvc.StudentReport(ctx.Request().Context(), ctxUsr.ID)
		if err != nil {
			return errors.Wrap(err, "building student report")
		}
		return ctx.JSON(http.StatusOK, report)
	}

	filter := &grade.QueryFilter{
		StudentID: ctx.QueryParam("student"),
		CourseID:  ctx.QueryParam("course"),
	}
	filter.Clean()
	if filter.CourseIDs, err = s.scopeCourses(ctx.Request().Context(), ctxUsr, filter.CourseID); err != nil {
		return err
	}

	grades, total, err := s.GradeSvc.Query(ctx.Request().Context(), filter, bindPagination(ctx, s.Conf.Pagination))
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	if grades == nil {
		grades = []grade.Grade{}
	}
	return ctx.JSON(http.StatusOK, ListResponse{Results: grades, Total: total})
}

func (s *Server) createGrade(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data grade.NewGrade
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGrade")
	}
	if err = data.Validate(s.Validate); err != nil {
		return err
	}
	if _, err = s.ownedCourse(ctx.Request().Context(), ctxUsr, data.CourseID); err != nil {
		return err
	}
	if err = s.checkStudent(ctx.Request().Context(), data.StudentID); err != nil {
		return err
	}

	g, err := s.GradeSvc.Create(ctx.Request().Context(), ctxUsr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating grade")
	}
	s.record(ctxUsr, audit.ActionCreateGrade, audit.ResourceGrade, g.ID, audit.Metadata{"student_id": g.StudentID, "course_id": g.CourseID})

	return ctx.JSON(http.StatusCreated, g)
}

func (s *Server) updateGrade(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	orig, err := s.GradeSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	c, err := s.CourseSvc.GetByID(ctx.Request().Context(), orig.CourseID)
	if err != nil {
		return errors.Wrap(err, "finding grade course")
	}
	if err = s.CourseSvc.CheckOwnership(c, ctxUsr); err != nil {
		return err
	}

	var data grade.UpdateGrade
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateGrade")
	}
	if err = data.Validate(orig, s.Validate); err != nil {
		return err
	}

	g, err := s.GradeSvc.Update(ctx.Request().Context(), orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating grade")
	}
	s.record(ctxUsr, audit.ActionUpdateGrade, audit.ResourceGrade, g.ID, nil)

	return ctx.JSON(http.StatusOK, g)
}

func (s *Server) deleteGrade(ctx echo.Context) error {
	id := ctx.Param("id")
	if err := s.GradeSvc.Delete(ctx.Request().Context(), id); err != nil {
		return err
	}
	ctxUsr, _ := getContextUser(ctx)
	s.record(ctxUsr, audit.ActionDeleteGrade, audit.ResourceGrade, id, nil)

	return ctx.NoContent(http.StatusNoContent)
}
