package notetools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// RegisterTool handles the user_register MCP tool.
type RegisterTool struct {
	env *Env
}

// NewRegisterTool creates a RegisterTool.
func NewRegisterTool(env *Env) *RegisterTool {
	return &RegisterTool{env: env}
}

// Definition returns the MCP tool definition for user_register.
func (t *RegisterTool) Definition() mcp.Tool {
	return mcp.NewTool("user_register",
		mcp.WithDescription("Create an account and log in. Returns the session id used by the other tools."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Login id")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Display name shown on notes and entries")),
		mcp.WithString("password", mcp.Required(), mcp.Description("Password")),
	)
}

// Handle processes the user_register tool call.
func (t *RegisterTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, err := t.env.App.Register(ctx,
		req.GetString("user_id", ""), req.GetString("name", ""), req.GetString("password", ""))
	if err != nil {
		return toolError(err), nil
	}
	t.env.remember(s)
	v := s.View()
	return mcp.NewToolResultText(fmt.Sprintf("Welcome, %s! Account %q created.\nsession_id: %s", v.UserName, v.UserID, s.ID)), nil
}

// LoginTool handles the user_login MCP tool.
type LoginTool struct {
	env *Env
}

// NewLoginTool creates a LoginTool.
func NewLoginTool(env *Env) *LoginTool {
	return &LoginTool{env: env}
}

// Definition returns the MCP tool definition for user_login.
func (t *LoginTool) Definition() mcp.Tool {
	return mcp.NewTool("user_login",
		mcp.WithDescription("Log in with an existing account. The new session becomes the default for later calls."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Login id")),
		mcp.WithString("password", mcp.Required(), mcp.Description("Password")),
	)
}

// Handle processes the user_login tool call.
func (t *LoginTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, err := t.env.App.Login(ctx, req.GetString("user_id", ""), req.GetString("password", ""))
	if err != nil {
		return toolError(err), nil
	}
	t.env.remember(s)
	return mcp.NewToolResultText(fmt.Sprintf("Welcome back, %s.\nsession_id: %s", s.View().UserName, s.ID)), nil
}

// LogoutTool handles the user_logout MCP tool.
type LogoutTool struct {
	env *Env
}

// NewLogoutTool creates a LogoutTool.
func NewLogoutTool(env *Env) *LogoutTool {
	return &LogoutTool{env: env}
}

// Definition returns the MCP tool definition for user_logout.
func (t *LogoutTool) Definition() mcp.Tool {
	return mcp.NewTool("user_logout",
		mcp.WithDescription("Log out and discard the session's location, selection, search and recommendation."),
		withSession(),
	)
}

// Handle processes the user_logout tool call.
func (t *LogoutTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, err := t.env.session(req)
	if err != nil {
		return toolError(err), nil
	}
	t.env.App.Logout(s)
	t.env.forget(s.ID)
	return mcp.NewToolResultText("Logged out."), nil
}
