package notify

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/abdulachik/readmewatch/internal/monitor"
)

const footerTimeLayout = "2006-01-02 15:04:05"

// BuildPayload renders a notification as a Discord webhook payload.
func BuildPayload(n Notification) Payload {
	at := n.At
	if at.IsZero() {
		at = time.Now()
	}

	var embed Embed
	if n.Kind == KindChange {
		embed = changeEmbed(n, at)
	} else {
		embed = startupEmbed(n, at)
	}

	return Payload{Embeds: []Embed{clampEmbed(embed)}}
}

func startupEmbed(n Notification, at time.Time) Embed {
	p := n.Profile
	return Embed{
		Title:       "🔔 Monitor Started",
		Description: fmt.Sprintf("Monitoring %s for changes", p.Description),
		Timestamp:   at.Format(time.RFC3339),
		Color:       ColorStartup,
		Fields: []EmbedField{
			{Name: "Monitor Status", Value: "✅ System is active and checking for updates"},
			{Name: "Repository", Value: "📁 " + repoLabel(p.TargetURL)},
			{Name: "Check Interval", Value: "🕒 Checking every " + FormatInterval(p.Interval), Inline: true},
			{Name: "Environment", Value: environment(n), Inline: true},
		},
		Footer: &EmbedFooter{Text: "Started at: " + at.Format(footerTimeLayout)},
	}
}

func changeEmbed(n Notification, at time.Time) Embed {
	p := n.Profile

	title := "🔄 Repository Updated"
	description := fmt.Sprintf("A change was detected in %s!", p.Description)
	if len(n.NewRecords) > 0 {
		title = "🚨 New Positions Posted!"
		description = fmt.Sprintf("%d new %s added to %s!",
			len(n.NewRecords), plural(len(n.NewRecords), "position", "positions"), p.Description)
	}

	head := []EmbedField{
		{Name: "Repository", Value: "📁 " + repoLabel(p.TargetURL)},
	}
	tail := []EmbedField{
		{Name: "View Changes", Value: fmt.Sprintf("🔗 [Click to view repository](%s)", p.TargetURL)},
		{Name: "Check Interval", Value: "🕒 " + FormatInterval(p.Interval), Inline: true},
		{Name: "Environment", Value: environment(n), Inline: true},
	}

	embed := clampEmbed(Embed{
		Title:       title,
		Description: description,
		URL:         p.TargetURL,
		Timestamp:   at.Format(time.RFC3339),
		Color:       ColorChange,
		Fields:      append(head, tail...),
		Footer:      &EmbedFooter{Text: "Detected at: " + at.Format(footerTimeLayout)},
	})

	limit := maxFields - len(head) - len(tail)
	budget := maxEmbedTotal - embedLength(embed) - moreFieldReserve

	fields := append([]EmbedField{}, head...)
	fields = append(fields, recordFields(n.NewRecords, limit, budget)...)
	embed.Fields = append(fields, tail...)
	return embed
}

// moreFieldReserve is the room kept for the "...and N more" field.
const moreFieldReserve = 32

// recordFields renders one field per record, folding the overflow into a
// final summary field. At most limit fields are returned and the record
// fields fit within budget characters.
func recordFields(records []monitor.Record, limit, budget int) []EmbedField {
	if len(records) == 0 || limit <= 0 {
		return nil
	}

	maxShown := len(records)
	if maxShown > limit {
		maxShown = limit - 1
	}

	fields := make([]EmbedField, 0, maxShown+1)
	used := 0
	for _, r := range records[:maxShown] {
		f := clampField(EmbedField{
			Name:  "🏢 " + r.Company,
			Value: fmt.Sprintf("%s\n📍 %s", r.Role, r.Location),
		})
		cost := fieldLength(f)
		if used+cost > budget {
			break
		}
		fields = append(fields, f)
		used += cost
	}

	if rest := len(records) - len(fields); rest > 0 {
		fields = append(fields, EmbedField{
			Name:  "More",
			Value: fmt.Sprintf("...and %d more", rest),
		})
	}
	return fields
}

func environment(n Notification) string {
	if n.Environment != "" {
		return n.Environment
	}
	if n.Profile.Name != "" {
		return n.Profile.Name
	}
	return "unknown"
}

// repoLabel turns https://github.com/owner/repo into owner/repo.
func repoLabel(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return target
	}
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return u.Host
	}
	return path
}

// FormatInterval renders an interval the way people say it, e.g. "20 seconds".
func FormatInterval(d time.Duration) string {
	switch {
	case d <= 0:
		return "0 seconds"
	case d%time.Hour == 0:
		h := int(d / time.Hour)
		return fmt.Sprintf("%d %s", h, plural(h, "hour", "hours"))
	case d%time.Minute == 0:
		m := int(d / time.Minute)
		return fmt.Sprintf("%d %s", m, plural(m, "minute", "minutes"))
	case d%time.Second == 0:
		s := int(d / time.Second)
		return fmt.Sprintf("%d %s", s, plural(s, "second", "seconds"))
	default:
		return d.String()
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// clampEmbed enforces Discord's embed limits.
func clampEmbed(e Embed) Embed {
	e.Title = Truncate(e.Title, maxTitleLength)
	e.Description = Truncate(e.Description, maxDescriptionLength)
	if e.Footer != nil {
		e.Footer.Text = Truncate(e.Footer.Text, maxFooterLength)
	}
	if len(e.Fields) > maxFields {
		e.Fields = e.Fields[:maxFields]
	}
	for i := range e.Fields {
		e.Fields[i] = clampField(e.Fields[i])
	}
	for len(e.Fields) > 0 && embedLength(e) > maxEmbedTotal {
		e.Fields = e.Fields[:len(e.Fields)-1]
	}
	return e
}

func clampField(f EmbedField) EmbedField {
	f.Name = Truncate(f.Name, maxFieldNameLength)
	f.Value = Truncate(f.Value, maxFieldValueLength)
	return f
}

func fieldLength(f EmbedField) int {
	return utf8.RuneCountInString(f.Name) + utf8.RuneCountInString(f.Value)
}

// embedLength counts the characters Discord sums against maxEmbedTotal.
func embedLength(e Embed) int {
	n := utf8.RuneCountInString(e.Title) + utf8.RuneCountInString(e.Description)
	if e.Footer != nil {
		n += utf8.RuneCountInString(e.Footer.Text)
	}
	for _, f := range e.Fields {
		n += fieldLength(f)
	}
	return n
}

// Truncate shortens s to at most maxLen runes, ending in "..." when cut.
func Truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string([]rune(s)[:maxLen])
	}

	runes := []rune(s)
	truncated := string(runes[:maxLen-3])

	// Find last space to avoid cutting mid-word
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > len(truncated)/2 {
		truncated = truncated[:lastSpace]
	}
	return strings.TrimRight(truncated, " .,;:!?") + "..."
}

// Describe returns a one-line summary of a notification for logs and history.
func Describe(n Notification) string {
	if n.Kind == KindStartup {
		return "startup: " + n.Profile.Description
	}
	if len(n.NewRecords) == 0 {
		return "change: " + n.Profile.Description
	}
	return fmt.Sprintf("change: %d new records in %s", len(n.NewRecords), n.Profile.Description)
}
