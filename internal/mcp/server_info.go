package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/a3tai/pdf-passwd/internal/descriptions"
)

// ToolInfo represents information about an available tool
type ToolInfo struct {
	Name        string `json:"name"`
	Usage       string `json:"usage"`
	Parameters  string `json:"parameters"`
	Description string `json:"description"`
}

// ServerInfo is what pdf_server_info reports
type ServerInfo struct {
	ServerName     string     `json:"server_name"`
	Version        string     `json:"version"`
	MaxFileSize    int64      `json:"max_file_size"`
	Workers        int        `json:"workers"`
	KeyLength      int        `json:"key_length"`
	Verify         bool       `json:"verify"`
	AvailableTools []ToolInfo `json:"available_tools"`
}

var toolUsage = []ToolInfo{
	{
		Name:       "pdf_list_documents",
		Usage:      "List the PDF files under a directory, optionally opening each with a password",
		Parameters: "input_dir (required), password (optional)",
	},
	{
		Name:       "pdf_remove_passwords",
		Usage:      "Write unencrypted copies of all PDF files to a mirrored directory tree",
		Parameters: "input_dir, output_dir, password (required), verify (optional)",
	},
	{
		Name:       "pdf_change_passwords",
		Usage:      "Re-encrypt all encrypted PDF files with a new password into a mirrored directory tree",
		Parameters: "input_dir, output_dir, current_password, new_password (required), key_length, encrypt_plain, verify (optional)",
	},
	{
		Name:       "pdf_server_info",
		Usage:      "Show this information",
		Parameters: "none",
	},
}

// serverInfo collects the server's identity, defaults and tools
func (s *Server) serverInfo() *ServerInfo {
	tools := make([]ToolInfo, len(toolUsage))
	for i, tool := range toolUsage {
		tool.Description = firstLine(descriptions.GetToolDescription(tool.Name))
		tools[i] = tool
	}

	return &ServerInfo{
		ServerName:     s.config.ServerName,
		Version:        s.config.Version,
		MaxFileSize:    s.config.MaxFileSize,
		Workers:        s.config.Workers,
		KeyLength:      s.config.KeyLength,
		Verify:         s.config.Verify,
		AvailableTools: tools,
	}
}

func (s *Server) handleServerInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.formatServerInfo(s.serverInfo())), nil
}

func (s *Server) formatServerInfo(info *ServerInfo) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s v%s - Server Information\n", info.ServerName, info.Version)
	fmt.Fprintf(&b, "Max File Size: %d MB\n", info.MaxFileSize/(1024*1024))
	fmt.Fprintf(&b, "Workers: %d\n", info.Workers)
	fmt.Fprintf(&b, "Default Key Length: %d bits\n", info.KeyLength)
	fmt.Fprintf(&b, "Verify Outputs: %t\n\n", info.Verify)

	b.WriteString("Available Tools:\n")
	for _, tool := range info.AvailableTools {
		fmt.Fprintf(&b, "\n• %s\n", tool.Name)
		fmt.Fprintf(&b, "  Description: %s\n", tool.Description)
		fmt.Fprintf(&b, "  Usage: %s\n", tool.Usage)
		fmt.Fprintf(&b, "  Parameters: %s\n", tool.Parameters)
	}

	b.WriteString("\nOutputs are always written to a separate directory; input files are never modified.\n")

	return b.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
