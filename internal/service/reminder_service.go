package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"taskboard/internal/category"
	"taskboard/internal/model"
	"taskboard/internal/session"
	"taskboard/internal/tasklist"
)

// ReminderService builds human-readable summaries for periodic notifications.
type ReminderService struct{}

func NewReminderService() *ReminderService {
	return &ReminderService{}
}

type categoryGroup struct {
	Name  string
	Tasks []model.Task
}

// Summary lists the active tasks of a session grouped by category, newest first.
func (s *ReminderService) Summary(ctx context.Context, sess *session.Session, now time.Time) (string, error) {
	names, err := sess.Categories.Names(ctx)
	if err != nil {
		return "", err
	}

	active := sess.Tasks.Query(tasklist.Query{Filter: tasklist.FilterActive, Order: tasklist.OrderNewestFirst})
	_, _, completed := sess.Tasks.Counts()

	var builder strings.Builder
	builder.WriteString("📋 <b>Сводка задач</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("02.01.2006 15:04")))

	if len(active) == 0 {
		builder.WriteString("— нет открытых задач\n")
	} else {
		for _, group := range groupByCategory(active, names) {
			builder.WriteString(fmt.Sprintf("<b>%s</b>\n", html.EscapeString(group.Name)))
			for _, task := range group.Tasks {
				builder.WriteString(formatTask(task, now))
			}
			builder.WriteByte('\n')
		}
	}

	builder.WriteString(fmt.Sprintf("\n✅ Выполнено: %d · 🔥 Осталось: %d", completed, len(active)))
	return strings.TrimSpace(builder.String()), nil
}

// groupByCategory keeps task order inside a group; groups are sorted by name with
// uncategorized last.
func groupByCategory(tasks []model.Task, names map[string]string) []categoryGroup {
	groups := make(map[string]*categoryGroup)
	var order []string
	for _, task := range tasks {
		label := category.Label(task.CategoryID, names)
		key := strings.ToLower(label)
		group, ok := groups[key]
		if !ok {
			group = &categoryGroup{Name: label}
			groups[key] = group
			order = append(order, key)
		}
		group.Tasks = append(group.Tasks, task)
	}

	uncategorized := strings.ToLower(category.Uncategorized)
	sort.SliceStable(order, func(i, j int) bool {
		if order[i] == uncategorized {
			return false
		}
		if order[j] == uncategorized {
			return true
		}
		return order[i] < order[j]
	})

	out := make([]categoryGroup, 0, len(order))
	for _, key := range order {
		out = append(out, *groups[key])
	}
	return out
}

func formatTask(task model.Task, now time.Time) string {
	age := now.Sub(task.Created)
	icon := "🟢"
	if age > 72*time.Hour {
		icon = "⏳"
	}
	return fmt.Sprintf("%s %s <i>(%s)</i>\n", icon, html.EscapeString(clip(task.Details, summaryDetailsLen)), ageLabel(age))
}

const summaryDetailsLen = 512

// clip flattens s to one line of at most n runes.
func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

func ageLabel(age time.Duration) string {
	switch {
	case age < time.Hour:
		return "только что"
	case age < 24*time.Hour:
		return fmt.Sprintf("%d ч. назад", int(age.Hours()))
	default:
		return fmt.Sprintf("%d дн. назад", int(age.Hours()/24))
	}
}
