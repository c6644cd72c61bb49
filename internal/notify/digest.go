// Package notify delivers the run digest over email, WhatsApp and
// Telegram. All channels render from the same classified record groups;
// channels report whether they actually sent so the caller can decide
// whether the records count as notified.
package notify

import (
	"fmt"
	"html"
	"strings"

	"bewerbungsagent/internal/jobstate"
)

// Subject builds the alert subject line from the group sizes.
func Subject(newCount, reminderCount int) string {
	return fmt.Sprintf("Job-Alert: %d neu, %d offen", newCount, reminderCount)
}

// HTMLBody renders the alert mail. maxJobs caps the listed rows; new
// records take priority over reminders and a trailing note states how
// many were cut.
func HTMLBody(newJobs, reminders []*jobstate.Record, maxJobs int) string {
	if maxJobs <= 0 {
		maxJobs = 200
	}

	shownNew := newJobs
	shownReminders := reminders
	total := len(newJobs) + len(reminders)
	if total > maxJobs {
		if len(newJobs) >= maxJobs {
			shownNew = newJobs[:maxJobs]
			shownReminders = nil
		} else {
			shownReminders = reminders[:maxJobs-len(newJobs)]
		}
	}

	var b strings.Builder
	b.WriteString("<html>\n<body>\n<h2>Job-Alert</h2>\n")
	fmt.Fprintf(&b, "<p>Neu: %d | Offen: %d</p>\n", len(newJobs), len(reminders))

	b.WriteString("<h3>NEU</h3>\n<ul>\n")
	if len(shownNew) == 0 {
		b.WriteString("<li>Keine neuen Jobs.</li>\n")
	}
	for _, r := range shownNew {
		writeItem(&b, r)
	}
	b.WriteString("</ul>\n")

	b.WriteString("<h3>OFFENE ERINNERUNGEN</h3>\n<ul>\n")
	if len(shownReminders) == 0 {
		b.WriteString("<li>Keine offenen Erinnerungen.</li>\n")
	}
	for _, r := range shownReminders {
		writeItem(&b, r)
	}
	b.WriteString("</ul>\n")

	if cut := total - maxJobs; cut > 0 {
		fmt.Fprintf(&b, "<p>... und %d weitere Stellen (nicht angezeigt wegen Mengenlimit)</p>\n", cut)
	}
	b.WriteString("<p><em>Diese E-Mail wurde automatisch vom Bewerbungsagent generiert.</em></p>\n</body>\n</html>\n")
	return b.String()
}

func writeItem(b *strings.Builder, r *jobstate.Record) {
	title := r.Title
	if title == "" {
		title = "Titel unbekannt"
	}
	company := r.Company
	if company == "" {
		company = "Firma unbekannt"
	}
	location := r.Location
	if location == "" {
		location = "Ort unbekannt"
	}

	var meta []string
	if r.JobUID != "" {
		meta = append(meta, "ID "+r.JobUID)
	}
	if r.Date != "" {
		meta = append(meta, r.Date)
	}
	if r.Source != "" {
		meta = append(meta, r.Source)
	}
	if r.Match != "" {
		meta = append(meta, r.Match)
	}
	if r.Score != 0 {
		meta = append(meta, fmt.Sprintf("Score %d", r.Score))
	}

	b.WriteString("<li><strong>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</strong> bei ")
	b.WriteString(html.EscapeString(company))
	b.WriteString("<br>\n<em>")
	b.WriteString(html.EscapeString(location))
	b.WriteString("</em><br>\n")
	if len(meta) > 0 {
		fmt.Fprintf(b, "<small>%s</small><br>\n", html.EscapeString(strings.Join(meta, " | ")))
	}

	link := bestLink(r)
	if link != "" {
		fmt.Fprintf(b, "<a href=%q>Bewerben</a>", link)
	} else {
		b.WriteString(`<a href="#">Kein Link vorhanden</a>`)
	}
	b.WriteString("</li>\n")
}

func bestLink(r *jobstate.Record) string {
	if r.Link != "" {
		return r.Link
	}
	return r.CanonicalURL
}

// PlainSummary renders the short text pushed to WhatsApp and Telegram:
// the subject line plus the top new rows.
func PlainSummary(newJobs, reminders []*jobstate.Record, top int) string {
	if top <= 0 {
		top = 3
	}
	lines := []string{Subject(len(newJobs), len(reminders))}
	for i, r := range newJobs {
		if i >= top {
			break
		}
		title := r.Title
		if title == "" {
			title = "Titel unbekannt"
		}
		company := r.Company
		if company == "" {
			company = "Firma unbekannt"
		}
		line := fmt.Sprintf("- %s bei %s", title, company)
		if link := bestLink(r); link != "" {
			line += " " + link
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
