package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core/announcement"
	"github.com/trezcool/campus/core/audit"
)

func (s *Server) registerAnnouncementAPI(g *echo.Group, authed []echo.MiddlewareFunc) {
	ag := g.Group("/announcements", authed...)
	ag.GET("", s.queryAnnouncements)
	ag.POST("", s.createAnnouncement, adminMiddleware())
	ag.PUT("/:id", s.updateAnnouncement, adminMiddleware())
	ag.DELETE("/:id", s.deleteAnnouncement, adminMiddleware())
}

func (s *Server) queryAnnouncements(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	anns, total, err := s.AnnouncementSvc.ListForRole(ctx.Request().Context(), ctxUsr.Role, bindPagination(ctx, s.Conf.Pagination))
	if err != nil {
		return errors.Wrap(err, "listing announcements")
	}
	if anns == nil {
		anns = []announcement.Announcement{}
	}
	return ctx.JSON(http.StatusOK, ListResponse{Results: anns, Total: total})
}

func (s *Server) createAnnouncement(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data announcement.NewAnnouncement
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}
	if err = data.Validate(s.Validate); err != nil {
		return err
	}

	ann, err := s.AnnouncementSvc.Create(ctx.Request().Context(), ctxUsr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating announcement")
	}
	s.record(ctxUsr, audit.ActionCreateAnnouncement, audit.ResourceAnnouncement, ann.ID, audit.Metadata{"target_role": ann.TargetRole})

	return ctx.JSON(http.StatusCreated, ann)
}

func (s *Server) updateAnnouncement(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data announcement.UpdateAnnouncement
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAnnouncement")
	}
	if err = data.Validate(s.Validate); err != nil {
		return err
	}

	ann, err := s.AnnouncementSvc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	s.record(ctxUsr, audit.ActionUpdateAnnouncement, audit.ResourceAnnouncement, ann.ID, nil)

	return ctx.JSON(http.StatusOK, ann)
}

func (s *Server) deleteAnnouncement(ctx echo.Context) error {
	id := ctx.Param("id")
	if err := s.AnnouncementSvc.Delete(ctx.Request().Context(), id); err != nil {
		return err
	}
	ctxUsr, _ := getContextUser(ctx)
	s.record(ctxUsr, audit.ActionDeleteAnnouncement, audit.ResourceAnnouncement, id, nil)

	return ctx.NoContent(http.StatusNoContent)
}
