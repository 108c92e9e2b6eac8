package mcp

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/pdf-passwd/internal/config"
	"github.com/a3tai/pdf-passwd/internal/descriptions"
	"github.com/a3tai/pdf-passwd/internal/pdf"
)

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	mcpServer  *server.MCPServer
}

// NewServer creates a new MCP server instance.
// pdfService must not write to stdout, which carries the protocol.
func NewServer(cfg *config.Config, pdfService *pdf.Service) (*Server, error) {
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		mcpServer:  mcpServer,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	listTool := mcp.NewTool(
		"pdf_list_documents",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_list_documents")),
		mcp.WithString("input_dir",
			mcp.Required(),
			mcp.Description("Directory to search for PDF files"),
		),
		mcp.WithString("password",
			mcp.Description("Optional password; when given every file is opened and its encryption is reported"),
		),
	)
	s.mcpServer.AddTool(listTool, s.handleListDocuments)

	removeTool := mcp.NewTool(
		"pdf_remove_passwords",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_remove_passwords")),
		mcp.WithString("input_dir",
			mcp.Required(),
			mcp.Description("Directory containing the PDF files"),
		),
		mcp.WithString("output_dir",
			mcp.Required(),
			mcp.Description("Directory the processed files are written to"),
		),
		mcp.WithString("password",
			mcp.Required(),
			mcp.Description("Current password of the PDF files"),
		),
		mcp.WithBoolean("verify",
			mcp.Description("Re-read every output file and compare its page count"),
		),
	)
	s.mcpServer.AddTool(removeTool, s.handleRemovePasswords)

	changeTool := mcp.NewTool(
		"pdf_change_passwords",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_change_passwords")),
		mcp.WithString("input_dir",
			mcp.Required(),
			mcp.Description("Directory containing the PDF files"),
		),
		mcp.WithString("output_dir",
			mcp.Required(),
			mcp.Description("Directory the processed files are written to"),
		),
		mcp.WithString("current_password",
			mcp.Required(),
			mcp.Description("Current password of the PDF files"),
		),
		mcp.WithString("new_password",
			mcp.Required(),
			mcp.Description("New password for the PDF files"),
		),
		mcp.WithNumber("key_length",
			mcp.Description("Encryption key length in bits: 40 (RC4), 128 or 256 (AES)"),
		),
		mcp.WithBoolean("encrypt_plain",
			mcp.Description("Also encrypt files that were not encrypted"),
		),
		mcp.WithBoolean("verify",
			mcp.Description("Re-read every output file and compare its page count"),
		),
	)
	s.mcpServer.AddTool(changeTool, s.handleChangePasswords)

	serverInfoTool := mcp.NewTool(
		"pdf_server_info",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_server_info")),
	)
	s.mcpServer.AddTool(serverInfoTool, s.handleServerInfo)
}

// Handler functions
func (s *Server) handleListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	inputDir, err := request.RequireString("input_dir")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	if password, ok := args["password"].(string); ok {
		infos, err := s.pdfService.DescribeDocuments(inputDir, password)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(s.formatDocumentInfos(inputDir, infos)), nil
	}

	refs, err := s.pdfService.ListDocuments(inputDir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatDocumentList(inputDir, refs)), nil
}

func (s *Server) handleRemovePasswords(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	job := s.baseJob()

	var err error
	if job.InputRoot, err = request.RequireString("input_dir"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if job.OutputRoot, err = request.RequireString("output_dir"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if job.CurrentPassword, err = request.RequireString("password"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	job.Verify = request.GetBool("verify", job.Verify)

	return s.runJob(ctx, job)
}

func (s *Server) handleChangePasswords(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	job := s.baseJob()

	var err error
	if job.InputRoot, err = request.RequireString("input_dir"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if job.OutputRoot, err = request.RequireString("output_dir"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if job.CurrentPassword, err = request.RequireString("current_password"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if job.NewPassword, err = request.RequireString("new_password"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if job.NewPassword == "" {
		return mcp.NewToolResultError("new_password cannot be empty; use pdf_remove_passwords instead"), nil
	}

	job.KeyLength = request.GetInt("key_length", job.KeyLength)
	job.EncryptPlain = request.GetBool("encrypt_plain", false)
	job.Verify = request.GetBool("verify", job.Verify)

	return s.runJob(ctx, job)
}

// baseJob seeds a job with the knobs configured for the server
func (s *Server) baseJob() pdf.Job {
	return pdf.Job{
		Workers:     s.config.Workers,
		KeyLength:   s.config.KeyLength,
		Verify:      s.config.Verify,
		MaxFileSize: s.config.MaxFileSize,
	}
}

func (s *Server) runJob(ctx context.Context, job pdf.Job) (*mcp.CallToolResult, error) {
	if s.config.IsDebug() {
		log.Printf("tool run: input=%s output=%s new password=%t", job.InputRoot, job.OutputRoot, job.NewPassword != "")
	}

	summary, err := s.pdfService.Run(ctx, job)
	if err != nil {
		if summary == nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("%v\n\n%s", err, s.formatSummary(summary))), nil
	}

	return mcp.NewToolResultText(s.formatSummary(summary)), nil
}

func (s *Server) formatDocumentList(root string, refs []pdf.DocumentRef) string {
	if len(refs) == 0 {
		return fmt.Sprintf("No PDF files found in '%s' or any of its subdirectories.\n", root)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d PDF files in %s:\n", len(refs), root)
	for _, ref := range refs {
		fmt.Fprintf(&b, "- %s\n", filepath.ToSlash(ref.RelPath))
	}
	return b.String()
}

func (s *Server) formatDocumentInfos(root string, infos []pdf.DocumentInfo) string {
	if len(infos) == 0 {
		return fmt.Sprintf("No PDF files found in '%s' or any of its subdirectories.\n", root)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d PDF files in %s:\n", len(infos), root)
	for _, info := range infos {
		path := filepath.ToSlash(info.Ref.RelPath)
		switch {
		case info.Err != nil && info.State == pdf.StateEncrypted:
			fmt.Fprintf(&b, "- %s: encrypted, incorrect password\n", path)
		case info.Err != nil:
			fmt.Fprintf(&b, "- %s: unreadable (%v)\n", path, info.Err)
		case info.Encryption != nil:
			fmt.Fprintf(&b, "- %s: %s, %d pages, %s\n", path, info.State, info.Pages, info.Encryption)
		default:
			fmt.Fprintf(&b, "- %s: %s, %d pages\n", path, info.State, info.Pages)
		}
	}
	return b.String()
}

func (s *Server) formatSummary(summary *pdf.Summary) string {
	var b strings.Builder
	for _, result := range summary.Results {
		if line := pdf.FormatResult(result); line != "" {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(pdf.FormatSummary(summary))
	return b.String()
}

// Run starts the MCP server on stdio
func (s *Server) Run(_ context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting %s MCP server in stdio mode", s.config.ServerName)
	}

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("stdio server error: %w", err)
	}

	return nil
}
