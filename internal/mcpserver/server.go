// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Daybook tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/daybook/internal/service"
)

// Server wraps the MCP server with Daybook tools. All tools act as the
// configured user.
type Server struct {
	mcp  *server.MCPServer
	svc  *service.Service
	user string
}

// New creates a new MCP server with all Daybook tools registered.
func New(svc *service.Service, user string) *Server {
	s := &Server{svc: svc, user: user}

	s.mcp = server.NewMCPServer(
		"Daybook",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_journal_entries",
		mcp.WithDescription("List all journal entries, newest first."),
	), s.listJournalEntries)

	s.mcp.AddTool(mcp.NewTool("add_journal_entry",
		mcp.WithDescription("Add a new free-text journal entry timestamped now."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Entry text")),
	), s.addJournalEntry)

	s.mcp.AddTool(mcp.NewTool("get_habit_month",
		mcp.WithDescription("Get one month of habit completion, seeding the month on first access."),
		mcp.WithString("month", mcp.Required(), mcp.Description("Month key, e.g. 2026-08")),
	), s.getHabitMonth)

	s.mcp.AddTool(mcp.NewTool("set_habit_done",
		mcp.WithDescription("Mark one habit done or not done on one day."),
		mcp.WithString("month", mcp.Required(), mcp.Description("Month key, e.g. 2026-08")),
		mcp.WithNumber("day", mcp.Required(), mcp.Description("Day of month, 1-based")),
		mcp.WithString("habit", mcp.Required(), mcp.Description("Habit id, e.g. habit1")),
		mcp.WithBoolean("done", mcp.Required(), mcp.Description("New state")),
	), s.setHabitDone)

	s.mcp.AddTool(mcp.NewTool("get_moments_month",
		mcp.WithDescription("Get one month of daily moments."),
		mcp.WithString("month", mcp.Required(), mcp.Description("Month key, e.g. 2026-8 (no zero padding)")),
	), s.getMomentsMonth)

	s.mcp.AddTool(mcp.NewTool("save_moment",
		mcp.WithDescription("Save one day's short moment text."),
		mcp.WithString("month", mcp.Required(), mcp.Description("Month key, e.g. 2026-8 (no zero padding)")),
		mcp.WithNumber("day", mcp.Required(), mcp.Description("Day of month, 1-based")),
		mcp.WithString("moment", mcp.Required(), mcp.Description("Moment text")),
	), s.saveMoment)

	s.mcp.AddTool(mcp.NewTool("get_tracker_year",
		mcp.WithDescription("Get one tracker's year of day cells, seeding the year on first access."),
		mcp.WithString("tracker", mcp.Required(), mcp.Description("Tracker id, e.g. mood, sleep, screen")),
		mcp.WithString("year", mcp.Required(), mcp.Description("Year key, e.g. 2026")),
	), s.getTrackerYear)

	s.mcp.AddTool(mcp.NewTool("list_trackers",
		mcp.WithDescription("List the tracker descriptor table: ids, titles, value types."),
	), s.listTrackers)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listJournalEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.svc.JournalEntries(ctx, s.user)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(entries, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) addJournalEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entry, err := s.svc.AddJournalEntry(ctx, s.user, content, time.Now())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created entry %s", entry.ID)), nil
}

func (s *Server) getHabitMonth(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	monthKey, err := req.RequireString("month")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	month, err := s.svc.HabitMonth(ctx, s.user, monthKey)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(month, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) setHabitDone(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	monthKey, err := req.RequireString("month")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	day, err := req.RequireInt("day")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	habit, err := req.RequireString("habit")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	done, err := req.RequireBool("done")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.SetHabitCell(ctx, s.user, monthKey, day, habit, done); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s day %d %s = %v", monthKey, day, habit, done)), nil
}

func (s *Server) getMomentsMonth(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	monthKey, err := req.RequireString("month")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	month, err := s.svc.MomentsMonth(ctx, s.user, monthKey)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(month, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) saveMoment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	monthKey, err := req.RequireString("month")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	day, err := req.RequireInt("day")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	moment, err := req.RequireString("moment")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.SaveMoment(ctx, s.user, monthKey, day, moment); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved moment for %s day %d", monthKey, day)), nil
}

func (s *Server) getTrackerYear(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	trackerID, err := req.RequireString("tracker")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	yearKey, err := req.RequireString("year")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.TrackerYear(ctx, s.user, trackerID, yearKey)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(doc, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listTrackers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.svc.Trackers(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
