package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core/audit"
	"github.com/trezcool/campus/core/user"
)

func (s *Server) registerAuditAPI(g *echo.Group, authed []echo.MiddlewareFunc) {
	ag := g.Group("/audit-logs", authed...)
	ag.GET("", s.queryAuditLogs, adminMiddleware())
}

// record saves an audit entry for an action performed by actor.
func (s *Server) record(actor user.User, action, resource, resourceID string, meta audit.Metadata) {
	s.AuditSvc.Record(audit.Entry{
		ActorID:    actor.ID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Metadata:   meta,
	})
}

func (s *Server) queryAuditLogs(ctx echo.Context) error {
	filter := &audit.QueryFilter{
		ActorID:    ctx.QueryParam("actor"),
		Action:     ctx.QueryParam("action"),
		Resource:   ctx.QueryParam("resource"),
		ResourceID: ctx.QueryParam("resource_id"),
	}
	filter.Clean()

	entries, total, err := s.AuditSvc.Query(ctx.Request().Context(), filter, bindPagination(ctx, s.Conf.Pagination))
	if err != nil {
		return errors.Wrap(err, "querying audit logs")
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	return ctx.JSON(http.StatusOK, ListResponse{Results: entries, Total: total})
}
