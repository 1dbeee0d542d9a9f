// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes NoteHub tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/notehub/internal/models"
	"github.com/starford/notehub/internal/mutation"
	"github.com/starford/notehub/internal/pagination"
	"github.com/starford/notehub/internal/query"
)

// Server wraps the MCP server with NoteHub tools.
type Server struct {
	mcp       *server.MCPServer
	queries   *query.Coordinator
	mutations *mutation.Coordinator
}

// New creates a new MCP server with all NoteHub tools registered.
func New(queries *query.Coordinator, mutations *mutation.Coordinator, version string) *Server {
	s := &Server{queries: queries, mutations: mutations}

	s.mcp = server.NewMCPServer(
		"NoteHub",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List one page of notes, newest first, optionally filtered by a search term."),
		mcp.WithNumber("page", mcp.Description("Page number starting at 1 (default 1)")),
		mcp.WithString("search", mcp.Description("Optional text matched against title and content")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a note. Read the contract first via get_note_contract "+
			"or the notehub://note-format resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title")),
		mcp.WithString("content", mcp.Description("Note body")),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Note category"), mcp.Enum(tagNames()...)),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete a note by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id as returned by list_notes")),
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the NoteHub note format contract."),
	), s.getNoteContract)

	s.mcp.AddResource(
		mcp.NewResource("notehub://note-format", "Note Format Contract",
			mcp.WithResourceDescription("Fields and limits accepted when creating notes."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

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

type listResult struct {
	Notes      []models.Note     `json:"notes"`
	Page       int               `json:"page"`
	TotalPages int               `json:"totalPages"`
	TotalItems int               `json:"totalItems"`
	Pages      []pagination.Item `json:"pages,omitempty"`
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page := req.GetInt("page", 1)
	if page < 1 {
		return mcp.NewToolResultError(fmt.Sprintf("page must be at least 1, got %d", page)), nil
	}
	key := query.Key{Page: page, Search: req.GetString("search", "")}

	res, err := s.queries.Get(ctx, key)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if res.TotalPages > 0 && page > res.TotalPages {
		return mcp.NewToolResultError(fmt.Sprintf("page %d is out of range (1-%d)", page, res.TotalPages)), nil
	}

	out, _ := json.MarshalIndent(listResult{
		Notes:      res.Notes,
		Page:       page,
		TotalPages: res.TotalPages,
		TotalItems: res.TotalItems,
		Pages:      pagination.NewBar(page, res.TotalPages).Items,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawTag, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tag, err := models.ParseTag(rawTag)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	draft := models.NoteDraft{Title: title, Content: req.GetString("content", ""), Tag: tag}
	if err := draft.Validate(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid note: %v", err)), nil
	}

	note, err := s.mutations.SubmitCreate(ctx, draft)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(note, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.mutations.SubmitDelete(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s (%s)", note.ID, note.Title)), nil
}

func (s *Server) getNoteContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "notehub://note-format",
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}

func tagNames() []string {
	tags := models.Tags()
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = string(t)
	}
	return out
}
