package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/matheus3301/teamspace/internal/client"
)

var (
	bold    = color.New(color.Bold).SprintFunc()
	faint   = color.New(color.Faint).SprintFunc()
	green   = color.New(color.FgGreen).SprintFunc()
	red     = color.New(color.FgRed).SprintFunc()
	cyan    = color.New(color.FgCyan).SprintFunc()
	yellow  = color.New(color.FgYellow).SprintFunc()
	stderrW = color.Error
)

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func successf(format string, args ...any) {
	fmt.Println(green("✓"), fmt.Sprintf(format, args...))
}

func errorf(format string, args ...any) {
	fmt.Fprintln(stderrW, red("error:"), fmt.Sprintf(format, args...))
}

func printStatus(st *client.Status) {
	fmt.Printf("%s %s\n", bold("Workspace:"), st.Workspace)
	fmt.Printf("%s   %s\n", bold("Backend:"), st.Backend)
	fmt.Printf("%s   %s\n", bold("Started:"), humanize.Time(st.StartedAt))
	fmt.Printf("%s    %s\n", bold("Uptime:"), (time.Duration(st.UptimeMs) * time.Millisecond).Round(time.Second))
	fmt.Printf("%s   %s pending deliveries, %s subscribers, %s dropped events\n", bold("Traffic:"),
		humanize.Comma(int64(st.PendingDeliveries)), humanize.Comma(int64(st.Subscribers)), humanize.Comma(st.DroppedEvents))

	names := make([]string, 0, len(st.Counts))
	for name := range st.Counts {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println(bold("Collections:"))
	for _, name := range names {
		fmt.Printf("  %-14s %s\n", name, humanize.Comma(int64(st.Counts[name])))
	}
}

// printItems prints one line per entity: id, a label and status when present.
func printItems(items []map[string]any) {
	if len(items) == 0 {
		fmt.Println(faint("(none)"))
		return
	}
	for _, item := range items {
		line := fmt.Sprintf("%-24v %s", item["id"], label(item))
		if s, ok := item["status"].(string); ok && s != "" {
			line += " " + statusColor(s)
		}
		fmt.Println(line)
	}
	fmt.Println(faint(humanize.Comma(int64(len(items))) + " item(s)"))
}

func label(item map[string]any) string {
	for _, key := range []string{"title", "name", "content"} {
		if v, ok := item[key].(string); ok && v != "" {
			return v
		}
	}
	if p, ok := item["participants"].([]any); ok {
		return fmt.Sprintf("%d participants", len(p))
	}
	return ""
}

func statusColor(s string) string {
	switch s {
	case "completed", "read", "delivered":
		return green(s)
	case "error", "canceled":
		return red(s)
	case "ongoing", "inProcess", "sending", "sent":
		return yellow(s)
	default:
		return cyan(s)
	}
}

func printEvent(evt client.Event) {
	payload, _ := json.Marshal(evt.Payload)
	fmt.Printf("%s %s %s\n", faint(evt.OccurredAt().Format("15:04:05.000")), cyan(evt.Kind), payload)
}
