package bot

import "strings"

type Command int

const (
	CommandDefault Command = iota
	CommandStart
	CommandHelp
	CommandPing
	CommandAdmin
	CommandStats
	CommandUsers
	CommandBroadcast
	CommandClear
)

var commandNames = map[string]Command{
	"start":     CommandStart,
	"help":      CommandHelp,
	"ping":      CommandPing,
	"admin":     CommandAdmin,
	"stats":     CommandStats,
	"users":     CommandUsers,
	"broadcast": CommandBroadcast,
	"clear":     CommandClear,
}

var commandLabels = [...]string{
	CommandDefault:   "default",
	CommandStart:     "start",
	CommandHelp:      "help",
	CommandPing:      "ping",
	CommandAdmin:     "admin",
	CommandStats:     "stats",
	CommandUsers:     "users",
	CommandBroadcast: "broadcast",
	CommandClear:     "clear",
}

func (c Command) String() string {
	if c < 0 || int(c) >= len(commandLabels) {
		return "unknown"
	}
	return commandLabels[c]
}

// ParseCommand splits text into its leading token and the remainder. A token of
// the form /name or /name@botname naming a known command selects it; anything
// else is CommandDefault carrying the whole text.
func ParseCommand(text string) (Command, string) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "/") {
		return CommandDefault, text
	}

	token, rest := trimmed, ""
	if i := strings.IndexAny(trimmed, " \t\n\r"); i >= 0 {
		token, rest = trimmed[:i], strings.TrimSpace(trimmed[i+1:])
	}

	name := strings.TrimPrefix(token, "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}

	cmd, ok := commandNames[strings.ToLower(name)]
	if !ok {
		return CommandDefault, text
	}
	return cmd, rest
}
