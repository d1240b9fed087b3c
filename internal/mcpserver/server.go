// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the built documentation site to tools via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/folio/internal/docs"
	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/linkcheck"
	"github.com/starford/folio/internal/preview"
	"github.com/starford/folio/internal/site"
)

const (
	navigationURI = "folio://navigation"
	pageFormatURI = "folio://page-format"
)

// Server wraps the MCP server with folio tools.
type Server struct {
	mcp  *server.MCPServer
	site *site.Site
	db   index.PageIndex
}

// New creates a new MCP server with all folio tools registered.
func New(s *site.Site, db index.PageIndex) *Server {
	srv := &Server{site: s, db: db}

	srv.mcp = server.NewMCPServer(
		"Folio",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	srv.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List every page of the site with its URI and title."),
		mcp.WithString("folder", mcp.Description("Optional folder under the docs directory (empty for all)")),
	), srv.listPages)

	srv.mcp.AddTool(mcp.NewTool("read_page",
		mcp.WithDescription("Read a page by URI, as Markdown source or as the rendered HTML."),
		mcp.WithString("uri", mcp.Required(), mcp.Description("Page URI (e.g. /guide/setup)")),
		mcp.WithString("format", mcp.Description("markdown (default) or html"), mcp.Enum("markdown", "html")),
	), srv.readPage)

	srv.mcp.AddTool(mcp.NewTool("search_pages",
		mcp.WithDescription("Full-text search through page titles and content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), srv.searchPages)

	srv.mcp.AddTool(mcp.NewTool("get_navigation",
		mcp.WithDescription("Return the site navigation tree as JSON."),
	), srv.getNavigation)

	srv.mcp.AddTool(mcp.NewTool("check_links",
		mcp.WithDescription("Report local links that do not resolve to a built page or asset."),
	), srv.checkLinks)

	srv.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all pages that link to the specified page."),
		mcp.WithString("uri", mcp.Required(), mcp.Description("URI of the page to find backlinks for")),
	), srv.getBacklinks)

	srv.mcp.AddTool(mcp.NewTool("get_page_format",
		mcp.WithDescription("Returns how folio maps Markdown files to pages. "+
			"Call this before writing documentation so titles and links resolve."),
	), srv.getPageFormat)

	srv.mcp.AddResource(
		mcp.NewResource(navigationURI, "Site Navigation",
			mcp.WithResourceDescription("Navigation tree of the built site."),
			mcp.WithMIMEType("application/json"),
		),
		srv.readNavigationResource,
	)

	srv.mcp.AddResource(
		mcp.NewResource(pageFormatURI, "Page Format",
			mcp.WithResourceDescription("How Markdown files become pages."),
			mcp.WithMIMEType("text/markdown"),
		),
		srv.readPageFormatResource,
	)

	return srv
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) root() (*docs.Directory, error) {
	root := s.site.Root()
	if root == nil {
		return nil, errors.New("site has not been built")
	}
	return root, nil
}

func (s *Server) listPages(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := s.root()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	folder := strings.Trim(req.GetString("folder", ""), "/")

	var lines []string
	_ = root.Walk(func(doc *docs.Document) error {
		if folder != "" && !strings.HasPrefix(doc.Path, folder+"/") {
			return nil
		}
		lines = append(lines, fmt.Sprintf("%s\t%s", doc.URI, doc.Title))
		return nil
	})
	if len(lines) == 0 {
		return mcp.NewToolResultText("no pages found"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readPage(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	u, err := req.RequireString("uri")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if req.GetString("format", "markdown") == "html" {
		p, ok := preview.Resolve(s.site, u, s.site.BasePath())
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", u)), nil
		}
		data, err := s.site.Read(p)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}

	root, err := s.root()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc := root.FindURI(index.NormalizeURI(u))
	if doc == nil {
		doc = root.FindURI(u)
	}
	if doc == nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", u)), nil
	}
	return mcp.NewToolResultText(doc.Body), nil
}

func (s *Server) searchPages(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.db.Search(query, req.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("[]"), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) navigationJSON() string {
	nav := s.site.Navigation()
	if nav == nil {
		return "[]"
	}
	out, _ := json.MarshalIndent(nav, "", "  ")
	return string(out)
}

func (s *Server) getNavigation(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.navigationJSON()), nil
}

func (s *Server) checkLinks(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	err := linkcheck.Run(s.site)
	if err == nil {
		return mcp.NewToolResultText("no broken links"), nil
	}
	var broken *linkcheck.BrokenLinksError
	if !errors.As(err, &broken) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(broken.Links, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getBacklinks(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	u, err := req.RequireString("uri")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.db.Backlinks(u)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(bl, "\n")), nil
}

func (s *Server) getPageFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(PageFormat), nil
}

func (s *Server) readNavigationResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      navigationURI,
			MIMEType: "application/json",
			Text:     s.navigationJSON(),
		},
	}, nil
}

func (s *Server) readPageFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      pageFormatURI,
			MIMEType: "text/markdown",
			Text:     PageFormat,
		},
	}, nil
}
