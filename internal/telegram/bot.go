package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/IshaanNene/ShelfStat/internal/config"
	"github.com/IshaanNene/ShelfStat/internal/observability"
	"github.com/IshaanNene/ShelfStat/internal/pipeline"
	"github.com/IshaanNene/ShelfStat/internal/report"
	"github.com/IshaanNene/ShelfStat/internal/session"
	"github.com/IshaanNene/ShelfStat/internal/types"
)

const (
	parseModeHTML   = "HTML"
	defaultFileName = "user_input.html"

	greetingText = "👋 Hi! I can build analytics for any product category on Wildberries. " +
		"Send me the <b>HTML file</b> 📄 of a WB search results page for the category you are interested in. " +
		"(<i>Live queries through the bot are not available because of WB restrictions</i>)"
	helpText = "1. Open a search results page on Wildberries and save it as <b>HTML</b>.\n" +
		"2. Send the file here.\n" +
		"3. Send the search query you used, exactly as typed on the site.\n\n" +
		"/start shows the greeting, /help shows this message, /cancel discards the uploaded file."
	savedText  = "✅ File saved! Now send the name of the category or product 🙂 (<i>the same as you typed in the search on the site</i>)"
	uploadText = "Please send the <b>HTML file</b> of a search results page first."
	cancelText = "🗑 Uploaded file discarded."
)

// Messenger is the part of the Bot API the conversation needs.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text, parseMode string) error
	Download(ctx context.Context, fileID, dst string) (int64, error)
}

// Bot drives the upload-then-query conversation for every chat.
type Bot struct {
	client   Messenger
	analyzer *pipeline.Analyzer
	sessions session.Store
	tempDir  string
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewBot wires the conversation handler.
func NewBot(client Messenger, analyzer *pipeline.Analyzer, sessions session.Store, cfg config.BotConfig, logger *slog.Logger) *Bot {
	return &Bot{
		client:   client,
		analyzer: analyzer,
		sessions: sessions,
		tempDir:  cfg.TempDir,
		logger:   logger.With("component", "bot"),
	}
}

// SetMetrics attaches counters. Must be called before serving.
func (b *Bot) SetMetrics(m *observability.Metrics) {
	b.metrics = m
}

// HandleUpdate processes one update. The returned error reports replies that
// could not be delivered; processing failures are answered in chat instead.
func (b *Bot) HandleUpdate(ctx context.Context, u *Update) error {
	if u == nil || u.Message == nil {
		return nil
	}
	msg := u.Message
	chatID := msg.Chat.ID

	switch {
	case msg.Text == "/start":
		return b.send(ctx, chatID, greetingText, parseModeHTML)
	case msg.Text == "/help":
		return b.send(ctx, chatID, helpText, parseModeHTML)
	case msg.Text == "/cancel":
		return b.handleCancel(ctx, chatID)
	case msg.Document != nil:
		return b.handleDocument(ctx, chatID, msg.Document)
	case msg.Text != "":
		return b.handleQuery(ctx, chatID, msg.Text)
	default:
		return nil
	}
}

func (b *Bot) handleDocument(ctx context.Context, chatID int64, doc *Document) error {
	if err := os.MkdirAll(b.tempDir, 0o755); err != nil {
		return b.fail(ctx, chatID, fmt.Errorf("create temp dir: %w", err))
	}
	dst := filepath.Join(b.tempDir, TempFileName(chatID, doc.FileName))

	n, err := b.client.Download(ctx, doc.FileID, dst)
	if err != nil {
		if b.metrics != nil {
			b.metrics.DownloadFailures.Add(1)
		}
		b.logger.Warn("download failed", "chat_id", chatID, "file_id", doc.FileID, "error", err)
		return b.fail(ctx, chatID, err)
	}
	if b.metrics != nil {
		b.metrics.FilesDownloaded.Add(1)
	}

	id := sessionID(chatID)
	prev, err := b.sessions.Stage(ctx, id, dst)
	if err != nil {
		os.Remove(dst)
		b.logger.Error("stage failed", "chat_id", chatID, "error", err)
		return b.fail(ctx, chatID, err)
	}
	if prev != "" && prev != dst {
		removeFile(prev, b.logger)
	}
	if b.metrics != nil {
		b.metrics.DocumentsStaged.Add(1)
	}

	b.logger.Info("document staged", "chat_id", chatID, "path", dst, "bytes", n)
	return b.send(ctx, chatID, savedText, parseModeHTML)
}

func (b *Bot) handleQuery(ctx context.Context, chatID int64, query string) error {
	path, err := b.sessions.Consume(ctx, sessionID(chatID))
	if errors.Is(err, types.ErrNoStagedDocument) {
		return b.send(ctx, chatID, uploadText, parseModeHTML)
	}
	if err != nil {
		b.logger.Error("consume failed", "chat_id", chatID, "error", err)
		return b.fail(ctx, chatID, err)
	}
	defer removeFile(path, b.logger)

	res, err := b.analyzer.AnalyzeFile(path, query)
	if err != nil {
		b.logger.Warn("analysis failed", "chat_id", chatID, "error", err)
		return b.fail(ctx, chatID, err)
	}

	mode := ""
	if b.analyzer.Formatter().Markup() == report.MarkupHTML {
		mode = parseModeHTML
	}
	err = b.send(ctx, chatID, res.Report, mode)

	// The length cut can leave a tag or entity open, which Telegram rejects.
	var delErr *types.DeliveryError
	if mode != "" && errors.As(err, &delErr) && delErr.StatusCode == http.StatusBadRequest {
		b.logger.Warn("report markup rejected, resending as plain text", "chat_id", chatID)
		return b.send(ctx, chatID, res.Report, "")
	}
	return err
}

func (b *Bot) handleCancel(ctx context.Context, chatID int64) error {
	path, err := b.sessions.Expire(ctx, sessionID(chatID))
	if err != nil {
		b.logger.Error("expire failed", "chat_id", chatID, "error", err)
		return b.fail(ctx, chatID, err)
	}
	if path == "" {
		return b.send(ctx, chatID, uploadText, parseModeHTML)
	}
	removeFile(path, b.logger)
	b.logger.Info("staged document discarded", "chat_id", chatID, "path", path)
	return b.send(ctx, chatID, cancelText, "")
}

// SweepExpired drops expired sessions and deletes their staged files.
func (b *Bot) SweepExpired(ctx context.Context) (int, error) {
	paths, err := b.sessions.Sweep(ctx)
	if err != nil {
		return 0, err
	}
	for _, p := range paths {
		removeFile(p, b.logger)
	}
	return len(paths), nil
}

// RunJanitor calls SweepExpired every interval until ctx is done.
func (b *Bot) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := b.SweepExpired(ctx); err != nil {
				b.logger.Warn("session sweep failed", "error", err)
			}
		}
	}
}

func (b *Bot) fail(ctx context.Context, chatID int64, cause error) error {
	return b.send(ctx, chatID, "Failed to process file: "+html.EscapeString(cause.Error()), parseModeHTML)
}

func (b *Bot) send(ctx context.Context, chatID int64, text, parseMode string) error {
	err := b.client.SendMessage(ctx, chatID, text, parseMode)
	if b.metrics != nil {
		if err != nil {
			b.metrics.DeliveryFailures.Add(1)
		} else {
			b.metrics.MessagesSent.Add(1)
		}
	}
	if err != nil {
		b.logger.Error("send failed", "chat_id", chatID, "error", err)
	}
	return err
}

// TempFileName names the staged copy of an upload. Names not ending in
// .html are replaced so the file never carries a foreign extension.
func TempFileName(chatID int64, uploaded string) string {
	name := filepath.Base(strings.ReplaceAll(uploaded, `\`, "/"))
	if !strings.HasSuffix(name, ".html") || name == ".html" {
		name = defaultFileName
	}
	return fmt.Sprintf("temp_%d_%s", chatID, name)
}

func sessionID(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

func removeFile(path string, logger *slog.Logger) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("temp file cleanup failed", "path", path, "error", err)
	}
}
