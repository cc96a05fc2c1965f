package bot

const (
	msgGreeting = "👋 Hi! I am a bot 🤖. Write me anything and I will answer with %s."
	msgHelp     = "📌 Available commands:\n" +
		"/start — start\n" +
		"/help — help\n" +
		"/ping — check that %s is available\n" +
		"/clear — forget the conversation context\n" +
		"/admin — admin panel (admins only)"
	msgAdminPanel = "⚙️ Admin panel:\n" +
		"/stats — statistics\n" +
		"/users — user list\n" +
		"/broadcast — message every user"
	msgAccessDenied     = "⛔ You do not have access to the admin panel."
	msgStats            = "📊 Statistics:\n- Users: %d\n- Messages: %d\n- Server time: %s"
	msgUsersHeader      = "👥 Users:\n"
	msgUsersLine        = "ID: %d — %d messages\n"
	msgNoUsers          = "👥 No users yet."
	msgBroadcastUsage   = "✍️ Usage: /broadcast <text>"
	msgBroadcastPrefix  = "📢 Message from admin:\n\n%s"
	msgBroadcastDone    = "✅ Broadcast finished: delivered to %d of %d users."
	msgContextCleared   = "🧹 Conversation context cleared."
	msgPingStatic       = "🏓 Pong! The bot is up."
	msgPingLive         = "✅ %s is available: %s"
	msgPingPrompt       = "Say 'Hello' in one word."
	msgEmptyText        = "✏️ Send me a text message and I will answer."
	msgStatsUnavailable = "⚠️ Statistics are unavailable right now."

	statsTimeLayout = "2006-01-02 15:04:05"
)
