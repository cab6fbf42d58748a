package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core/user"
)

func (s *Server) registerDashboardAPI(g *echo.Group, authed []echo.MiddlewareFunc) {
	dg := g.Group("/dashboard", authed...)
	dg.GET("/student", s.studentDashboard, roleMiddleware(user.RoleStudent))
	dg.GET("/faculty", s.facultyDashboard, roleMiddleware(user.RoleFaculty))
	dg.GET("/admin", s.adminDashboard, adminMiddleware())
}

func (s *Server) studentDashboard(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	dash, err := s.DashboardSvc.Student(ctx.Request().Context(), ctxUsr.ID)
	if err != nil {
		return errors.Wrap(err, "building student dashboard")
	}
	return ctx.JSON(http.StatusOK, dash)
}

func (s *Server) facultyDashboard(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	dash, err := s.DashboardSvc.Faculty(ctx.Request().Context(), ctxUsr.ID)
	if err != nil {
		return errors.Wrap(err, "building faculty dashboard")
	}
	return ctx.JSON(http.StatusOK, dash)
}

// adminDashboard adds the report sections with `?reports=true`.
func (s *Server) adminDashboard(ctx echo.Context) error {
	reports := queryBool(ctx, "reports")
	dash, err := s.DashboardSvc.Admin(ctx.Request().Context(), reports != nil && *reports)
	if err != nil {
		return errors.Wrap(err, "building admin dashboard")
	}
	return ctx.JSON(http.StatusOK, dash)
}
