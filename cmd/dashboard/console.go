package main

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"fridge_monitor"
	"fridge_monitor/internal/dashboard/filter"
	"fridge_monitor/internal/dashboard/reconciler"
)

// view is the part of the reconciler the console drives.
type view interface {
	SetFilter(field filter.Field, value string) error
	ClearFilters()
	LoadMore() bool
	Retry() bool
	EnterLive()
	ExitLive()
	Attach(key string)
	Detach()
	Visible(key string) bool
	Snapshot() reconciler.Snapshot
}

// errQuit ends the input loop.
var errQuit = errors.New("quit")

const helpText = `commands:
  filter <field> <value>   set fridge_id, instrument_name or parameter_name
  clear                    reset all filters
  scroll                   bring the last row into view
  retry                    repeat the last failed fetch
  live on|off              switch the data source
  show                     print the current view
  quit                     exit`

// console maps input lines onto view operations.
type console struct {
	view view
	out  io.Writer
}

// exec runs one input line. It returns errQuit on quit.
func (c *console) exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	switch cmd, args := strings.ToLower(fields[0]), fields[1:]; cmd {
	case "filter":
		if len(args) == 0 {
			return errors.New("usage: filter <field> <value>")
		}
		field, err := filter.ParseField(args[0])
		if err != nil {
			return err
		}
		return c.view.SetFilter(field, strings.Join(args[1:], " "))
	case "clear":
		c.view.ClearFilters()
	case "scroll":
		if !c.scroll() {
			fmt.Fprintln(c.out, "nothing more to load")
		}
	case "retry":
		if !c.view.Retry() {
			fmt.Fprintln(c.out, "nothing to retry")
		}
	case "live":
		if len(args) != 1 {
			return errors.New("usage: live on|off")
		}
		switch strings.ToLower(args[0]) {
		case "on":
			c.view.EnterLive()
		case "off":
			c.view.ExitLive()
		default:
			return fmt.Errorf("live: want on or off, got %q", args[0])
		}
	case "show":
		render(c.out, c.view.Snapshot())
	case "help", "?":
		fmt.Fprintln(c.out, helpText)
	case "quit", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return nil
}

// scroll reports the last displayed row as visible. With nothing displayed
// there is no sentinel row, so the next page is requested directly.
func (c *console) scroll() bool {
	snap := c.view.Snapshot()
	if len(snap.Display) == 0 {
		return c.view.LoadMore()
	}
	key := snap.Display[len(snap.Display)-1].Key()
	c.view.Attach(key)
	return c.view.Visible(key)
}

// refresh renders the current view and points the sentinel at the last
// rendered row, or detaches it when nothing is displayed.
func (c *console) refresh() {
	snap := c.view.Snapshot()
	render(c.out, snap)
	if n := len(snap.Display); n > 0 {
		c.view.Attach(snap.Display[n-1].Key())
		return
	}
	c.view.Detach()
}

// render prints the status line followed by the displayed rows.
func render(w io.Writer, s reconciler.Snapshot) {
	fmt.Fprintln(w, statusLine(s))
	for _, rec := range s.Display {
		fmt.Fprintln(w, "  "+formatRecord(rec))
	}
}

func statusLine(s reconciler.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] rows=%d/%d", s.State, len(s.Display), len(s.Buffer))
	if s.Mode == reconciler.ModeHistorical {
		fmt.Fprintf(&b, " page=%d total=%d more=%t", s.Page, s.Total, s.HasMore)
	} else {
		fmt.Fprintf(&b, " connected=%t", s.LiveConnected)
	}
	if f := criteriaString(s.Criteria); f != "" {
		fmt.Fprintf(&b, " filters={%s}", f)
	}
	if s.Discarded > 0 {
		fmt.Fprintf(&b, " discarded=%d", s.Discarded)
	}
	if s.LastErr != nil {
		fmt.Fprintf(&b, " error=%q", s.LastErr.Error())
	}
	return b.String()
}

func criteriaString(c filter.Criteria) string {
	var parts []string
	if c.FridgeID != "" {
		parts = append(parts, fmt.Sprintf("%s=%q", filter.FieldFridgeID, c.FridgeID))
	}
	if c.InstrumentName != "" {
		parts = append(parts, fmt.Sprintf("%s=%q", filter.FieldInstrumentName, c.InstrumentName))
	}
	if c.ParameterName != "" {
		parts = append(parts, fmt.Sprintf("%s=%q", filter.FieldParameterName, c.ParameterName))
	}
	return strings.Join(parts, " ")
}

func formatRecord(r fridge_monitor.Record) string {
	ts := time.UnixMilli(r.Timestamp).UTC().Format(time.RFC3339)
	return fmt.Sprintf("%s  fridge=%d  %-18s %-14s %8.2f", ts, r.FridgeID, r.InstrumentName, r.ParameterName, r.AppliedValue)
}

func renderAnalytics(w io.Writer, a fridge_monitor.Analytics) {
	o := a.Overall
	fmt.Fprintf(w, "overall: records=%d avg=%.3f min=%.3f max=%.3f\n", o.TotalRecords, o.AvgValue, o.MinValue, o.MaxValue)
	renderGroups(w, "by fridge", a.ByFridge)
	renderGroups(w, "by instrument", a.ByInstrument)
	renderGroups(w, "by parameter", a.ByParameter)
}

func renderGroups(w io.Writer, title string, groups map[string]fridge_monitor.GroupStats) {
	if len(groups) == 0 {
		return
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	fmt.Fprintln(w, title+":")
	for _, k := range keys {
		g := groups[k]
		fmt.Fprintf(w, "  %-18s count=%d avg=%.3f min=%.3f max=%.3f\n", k, g.Count, g.AvgValue, g.MinValue, g.MaxValue)
	}
}
