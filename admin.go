package pubsite

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/eringen/pubsite/analytics"
	"github.com/eringen/pubsite/views"
)

func requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !IsAdmin(c) {
			return c.Redirect(http.StatusSeeOther, "/admin/")
		}
		return next(c)
	}
}

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, views.AdminLogin(a.Pages.Site, false, CsrfToken(c)))
	}
	st, err := a.analytics.Stats(c.QueryParam("period"))
	if err != nil {
		return err
	}
	return Render(c, views.AdminDashboard(a.Pages.Site, dashboardData(st), CsrfToken(c)))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	if checkPassword(c.FormValue("password"), a.Config.AdminPassword) {
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(ip)
	a.Log.Warn("admin login failed", "ip", ip)
	return RenderStatus(c, http.StatusUnauthorized, views.AdminLogin(a.Pages.Site, true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

// checkPassword compares against a bcrypt hash when want looks like one,
// otherwise in constant time against the plain value.
func checkPassword(got, want string) bool {
	if want == "" {
		return false
	}
	if strings.HasPrefix(want, "$2a$") || strings.HasPrefix(want, "$2b$") || strings.HasPrefix(want, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(want), []byte(got)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func dashboardData(st *analytics.Stats) views.DashboardData {
	return views.DashboardData{
		Period:         st.Period,
		TotalEvents:    st.TotalEvents,
		UniqueVisitors: st.UniqueVisitors,
		TopTargets:     dashboardRows(st.TopTargets),
		TopPages:       dashboardRows(st.TopPages),
		Referrers:      dashboardRows(st.Referrers),
	}
}

func dashboardRows(counts []analytics.Count) []views.DashboardRow {
	rows := make([]views.DashboardRow, len(counts))
	for i, c := range counts {
		rows[i] = views.DashboardRow{Label: c.Name, Count: c.Count}
	}
	return rows
}
