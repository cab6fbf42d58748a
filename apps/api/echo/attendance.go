package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core/attendance"
	"github.com/trezcool/campus/core/audit"
)

func (s *Server) registerAttendanceAPI(g *echo.Group, authed []echo.MiddlewareFunc) {
	ag := g.Group("/attendance", authed...)
	ag.GET("", s.queryAttendance, staffMiddleware())
	ag.POST("", s.markAttendance, staffMiddleware())
}

type MarkAttendanceResponse struct {
	Saved int `json:"saved"`
}

func (s *Server) queryAttendance(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	filter := &attendance.QueryFilter{
		CourseID:  ctx.QueryParam("course"),
		StudentID: ctx.QueryParam("student"),
		Date:      ctx.QueryParam("date"),
	}
	filter.Clean()
	if filter.CourseIDs, err = s.scopeCourses(ctx.Request().Context(), ctxUsr, filter.CourseID); err != nil {
		return err
	}

	records, total, err := s.AttendanceSvc.Query(ctx.Request().Context(), filter, bindPagination(ctx, s.Conf.Pagination))
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	if records == nil {
		records = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, ListResponse{Results: records, Total: total})
}

func (s *Server) markAttendance(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data attendance.MarkAttendance
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkAttendance")
	}
	if err = data.Validate(s.Validate); err != nil {
		return err
	}
	if _, err = s.ownedCourse(ctx.Request().Context(), ctxUsr, data.CourseID); err != nil {
		return err
	}

	saved, err := s.AttendanceSvc.Mark(ctx.Request().Context(), ctxUsr.ID, data)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	s.record(ctxUsr, audit.ActionMarkAttendance, audit.ResourceAttendance, data.CourseID, audit.Metadata{"date": data.Date, "count": saved})

	return ctx.JSON(http.StatusOK, MarkAttendanceResponse{Saved: saved})
}
