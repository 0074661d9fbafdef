package main

import (
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"jobsync/internal/store"
)

var budgetPrinter = message.NewPrinter(language.English)

func formatBudget(budget float64) string {
	return budgetPrinter.Sprintf("$%.2f", budget)
}

func formatMillis(millis int64) string {
	if millis <= 0 {
		return "-"
	}
	return time.UnixMilli(millis).Local().Format("2006-01-02 15:04")
}

func formatSynced(job *store.Job) string {
	if job.Dirty {
		return "pending"
	}
	if job.ServerID == "" {
		return "local only"
	}
	return "synced"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(value string, max int) string {
	value = strings.TrimSpace(value)
	if len(value) <= max {
		return value
	}
	if max <= 3 {
		return value[:max]
	}
	return value[:max-3] + "..."
}
