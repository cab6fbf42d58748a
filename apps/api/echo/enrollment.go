package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core/audit"
	"github.com/trezcool/campus/core/enrollment"
)

func (s *Server) registerEnrollmentAPI(g *echo.Group, authed []echo.MiddlewareFunc) {
	eg := g.Group("/enrollments", authed...)
	eg.GET("", s.queryEnrollments, adminMiddleware())
	eg.PUT("/:id", s.updateEnrollmentStatus, adminMiddleware())
}

func (s *Server) queryEnrollments(ctx echo.Context) error {
	filter := &enrollment.QueryFilter{
		Statuses:  queryStrings(ctx, "status"),
		CourseID:  ctx.QueryParam("course"),
		StudentID: ctx.QueryParam("student"),
	}
	filter.Clean()

	enrollments, total, err := s.EnrollmentSvc.Query(ctx.Request().Context(), filter, bindPagination(ctx, s.Conf.Pagination))
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	if enrollments == nil {
		enrollments = []enrollment.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, ListResponse{Results: enrollments, Total: total})
}

func (s *Server) updateEnrollmentStatus(ctx echo.Context) error {
	var data enrollment.UpdateStatus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStatus")
	}
	if err := data.Validate(s.Validate); err != nil {
		return err
	}

	e, err := s.EnrollmentSvc.SetStatus(ctx.Request().Context(), ctx.Param("id"), data.Status)
	if err != nil {
		return errors.Wrap(err, "updating enrollment status")
	}

	action := audit.ActionApproveEnrollment
	if e.Status == enrollment.StatusDropped {
		action = audit.ActionRejectEnrollment
	}
	ctxUsr, _ := getContextUser(ctx)
	s.record(ctxUsr, action, audit.ResourceEnrollment, e.ID, audit.Metadata{"course_id": e.CourseID, "student_id": e.StudentID})

	return ctx.JSON(http.StatusOK, e)
}
