package logger

import "log/slog"

// Error records a single error under the key "error". Nil yields an empty attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the subsystem emitting the log line.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// UserID records the acting user identifier.
func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

// SessionID records the session identifier. Never log session tokens.
func SessionID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("session_id", id)
}

// Provider records an OAuth provider name.
func Provider(name string) slog.Attr {
	return slog.String("provider", name)
}

// Operation records the name of the operation being performed.
func Operation(name string) slog.Attr {
	return slog.String("operation", name)
}
