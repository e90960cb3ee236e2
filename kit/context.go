package kit

import "context"

type contextKey string

const (
	SessionIDKey  contextKey = "kit_session_id"
	RequestIDKey  contextKey = "kit_request_id"
	TransportKey  contextKey = "kit_transport" // "http", "mcp"
	ToolNameKey   contextKey = "kit_tool_name"
	RemoteAddrKey contextKey = "kit_remote_addr"
)

func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, SessionIDKey, id)
}
func GetSessionID(ctx context.Context) string {
	v, _ := ctx.Value(SessionIDKey).(string)
	return v
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(RequestIDKey).(string)
	return v
}

func WithTransport(ctx context.Context, t string) context.Context {
	return context.WithValue(ctx, TransportKey, t)
}
func GetTransport(ctx context.Context) string {
	if v, ok := ctx.Value(TransportKey).(string); ok {
		return v
	}
	return "http"
}

func WithToolName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ToolNameKey, name)
}
func GetToolName(ctx context.Context) string {
	v, _ := ctx.Value(ToolNameKey).(string)
	return v
}

func WithRemoteAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, RemoteAddrKey, addr)
}
func GetRemoteAddr(ctx context.Context) string {
	v, _ := ctx.Value(RemoteAddrKey).(string)
	return v
}
