package router

import (
	"io"
	"log"
	"net/http"
	"regexp"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

const maskedToken = "<bot-token>"

// botTokenPattern matches a Telegram bot token ("<bot id>:<secret>") anywhere
// in a request URI.
var botTokenPattern = regexp.MustCompile(`[0-9]+:[A-Za-z0-9_-]+`)

// tokenMaskingFormatter is chi's default access log line with the webhook
// token replaced, so the credential in /{token} never reaches the log.
type tokenMaskingFormatter struct {
	next chimiddleware.LogFormatter
}

func (f *tokenMaskingFormatter) NewLogEntry(r *http.Request) chimiddleware.LogEntry {
	if !botTokenPattern.MatchString(r.RequestURI) && !botTokenPattern.MatchString(r.URL.Path) {
		return f.next.NewLogEntry(r)
	}

	masked := r.Clone(r.Context())
	masked.RequestURI = botTokenPattern.ReplaceAllString(r.RequestURI, maskedToken)
	masked.URL.Path = botTokenPattern.ReplaceAllString(r.URL.Path, maskedToken)
	masked.URL.RawPath = ""
	return f.next.NewLogEntry(masked)
}

func accessLogger(out io.Writer) func(http.Handler) http.Handler {
	return chimiddleware.RequestLogger(&tokenMaskingFormatter{
		next: &chimiddleware.DefaultLogFormatter{
			Logger:  log.New(out, "", log.LstdFlags),
			NoColor: true,
		},
	})
}
