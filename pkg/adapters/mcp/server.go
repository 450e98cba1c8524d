// Package mcp exposes the engine as a Model Context Protocol server so agent
// hosts can call it as a tool.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/zweadfx/assist"
	"github.com/zweadfx/assist/pkg/domain"
)

// Server wraps the engine facade and exposes it over MCP.
type Server struct {
	engine    *assist.Engine
	mcpServer *server.MCPServer
}

// NewServer creates an MCP server over the engine.
func NewServer(engine *assist.Engine) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("assist-mcp", strings.TrimSpace(assist.Version)),
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	askTool := mcp.NewTool("ask",
		mcp.WithDescription("Ask the basketball assistant a question about training, gear or rules. "+
			"Pass conversation_id to continue a prior conversation."),
		mcp.WithString("question", mcp.Required(), mcp.Description("The user's question")),
		mcp.WithString("conversation_id", mcp.Description("Conversation to continue (optional)")),
		mcp.WithString("profile", mcp.Description("JSON object of user attributes: skill_level, available_time_min, sensory_preferences, budget_max (optional)")),
		mcp.WithOutputSchema[domain.Envelope](),
	)
	s.mcpServer.AddTool(askTool, mcp.NewStructuredToolHandler(s.handleAsk))

	s.mcpServer.AddTool(mcp.NewTool("list_conversations",
		mcp.WithDescription("List stored conversation IDs."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := s.engine.Sessions().List(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(ids)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("delete_conversation",
		mcp.WithDescription("Delete a stored conversation."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation to delete")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := request.GetString("conversation_id", "")
		if id == "" {
			return mcp.NewToolResultError("conversation_id is required"), nil
		}
		if err := s.engine.Sessions().Delete(ctx, id); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("delete failed: %v", err)), nil
		}
		return mcp.NewToolResultText("deleted"), nil
	})
}

func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (domain.Envelope, error) {
	question, _ := args["question"].(string)
	conversationID, _ := args["conversation_id"].(string)

	var profile map[string]any
	if profStr, ok := args["profile"].(string); ok && profStr != "" {
		if err := json.Unmarshal([]byte(profStr), &profile); err != nil {
			return domain.Envelope{}, fmt.Errorf("invalid profile: %w", err)
		}
	}

	env := s.engine.HandleRequest(ctx, assist.Request{
		ConversationID: conversationID,
		Question:       question,
		Profile:        profile,
	})
	return *env, nil
}
