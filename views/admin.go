package views

import (
	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"
)

// AdminLogin renders the password form guarding the dashboard.
func AdminLogin(site SiteData, showError bool, csrfToken string) templ.Component {
	return Layout(site, PageMeta{Title: "Admin"}, component(func(p *page) {
		p.raw(`<main class="admin"><h1>Admin</h1>`)
		if showError {
			p.raw(`<p class="admin-error">Invalid password.</p>`)
		}
		p.raw(`<form method="post" action="/admin/login/"><input type="hidden" name="_csrf"`)
		p.attr("value", csrfToken)
		p.raw(`><label>Password <input type="password" name="password" autocomplete="current-password" required></label>`)
		p.raw(`<button type="submit">Log in</button></form></main>`)
	}))
}

// AdminDashboard renders link and heading attribution statistics.
func AdminDashboard(site SiteData, d DashboardData, csrfToken string) templ.Component {
	return Layout(site, PageMeta{Title: "Dashboard"}, component(func(p *page) {
		p.raw(`<main class="admin"><h1>Attribution</h1><nav class="admin-periods">`)
		for _, period := range []string{"24h", "7d", "30d"} {
			p.raw("<a")
			if period == d.Period {
				p.raw(` class="active"`)
			}
			p.href("/admin/?period=" + period)
			p.raw(">")
			p.text(period)
			p.raw("</a>")
		}
		p.raw(`</nav><dl class="admin-totals"><dt>Events</dt><dd>`)
		p.text(humanize.Comma(int64(d.TotalEvents)))
		p.raw("</dd><dt>Visitors</dt><dd>")
		p.text(humanize.Comma(int64(d.UniqueVisitors)))
		p.raw("</dd></dl>")
		statsTable(p, "Top targets", d.TopTargets)
		statsTable(p, "Top pages", d.TopPages)
		statsTable(p, "Referrers", d.Referrers)
		p.raw(`<form method="post" action="/admin/logout/"><input type="hidden" name="_csrf"`)
		p.attr("value", csrfToken)
		p.raw(`><button type="submit">Log out</button></form></main>`)
	}))
}

func statsTable(p *page, title string, rows []DashboardRow) {
	p.raw("<section><h2>")
	p.text(title)
	p.raw("</h2>")
	if len(rows) == 0 {
		p.raw(`<p class="empty">No data.</p></section>`)
		return
	}
	p.raw("<table><tbody>")
	for _, r := range rows {
		p.raw("<tr><td>")
		p.text(r.Label)
		p.raw("</td><td>")
		p.text(humanize.Comma(int64(r.Count)))
		p.raw("</td></tr>")
	}
	p.raw("</tbody></table></section>")
}
