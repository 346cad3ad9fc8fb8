package sheets

import (
	"context"
	"fmt"
	"sync"
	"time"

	gsheets "google.golang.org/api/sheets/v4"

	"github.com/wolfman30/nutribot/internal/nutrition"
	"github.com/wolfman30/nutribot/pkg/logging"
)

const (
	ChatHistoryTab = "Chat History"
	MealTrackerTab = "Meal Tracker"
	FeedbackTab    = "Feedback"

	defaultTimeout = 15 * time.Second
)

// ChatRow is one Chat History entry.
type ChatRow struct {
	Username     string
	UserQuery    string
	BotMessage   string
	InputTokens  int
	OutputTokens int
}

// Recorder is what the dispatcher logs to. Logger and Noop implement it.
type Recorder interface {
	LogChat(ctx context.Context, row ChatRow) error
	LogMeal(ctx context.Context, client string, entry nutrition.Entry) error
	LogFeedback(ctx context.Context, username, feedback string) error
}

// Logger appends rows to the bot's spreadsheet. Each row starts with a
// sequential id computed from the rows already in column B of its tab.
type Logger struct {
	api           ValuesAPI
	spreadsheetID string
	timeout       time.Duration
	logger        *logging.Logger
	now           func() time.Time

	// Serialises count-then-append so ids stay sequential within one process.
	mu sync.Mutex
}

func NewLogger(api ValuesAPI, spreadsheetID string, timeout time.Duration, logger *logging.Logger) *Logger {
	if api == nil {
		panic("sheets: values api cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Logger{
		api:           api,
		spreadsheetID: spreadsheetID,
		timeout:       timeout,
		logger:        logger,
		now:           time.Now,
	}
}

func (l *Logger) LogChat(ctx context.Context, row ChatRow) error {
	now := l.now()
	return l.appendRow(ctx, ChatHistoryTab, []any{
		now.Format("2006-01-02"), now.Format("15:04:05"),
		row.Username, row.UserQuery, row.BotMessage, row.InputTokens, row.OutputTokens,
	})
}

func (l *Logger) LogMeal(ctx context.Context, client string, e nutrition.Entry) error {
	date, clock := e.Date, e.Time
	if date == "" || clock == "" {
		now := l.now()
		date, clock = now.Format("2006-01-02"), now.Format("15:04:05")
	}
	return l.appendRow(ctx, MealTrackerTab, []any{
		date, clock, client,
		e.Food, e.Calories, e.Proteins, e.Carbs, e.Fat, e.ImageURL, e.TimeElapsed,
	})
}

func (l *Logger) LogFeedback(ctx context.Context, username, feedback string) error {
	now := l.now()
	return l.appendRow(ctx, FeedbackTab, []any{
		now.Format("2006-01-02"), now.Format("15:04:05"), username, feedback,
	})
}

// appendRow prefixes fields with the next id and appends them to tab.
func (l *Logger) appendRow(ctx context.Context, tab string, fields []any) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	l.mu.Lock()
	defer l.mu.Unlock()

	existing, err := l.api.Get(ctx, l.spreadsheetID, tab+"!B2:B")
	if err != nil {
		return fmt.Errorf("sheets: count rows in %s: %w", tab, err)
	}
	nextID := 1
	if existing != nil {
		nextID = len(existing.Values) + 1
	}

	row := append([]any{nextID}, fields...)
	err = l.api.Append(ctx, l.spreadsheetID, tab+"!B1", &gsheets.ValueRange{
		Values: [][]any{row},
	})
	if err != nil {
		return fmt.Errorf("sheets: append to %s: %w", tab, err)
	}
	l.logger.Debug("sheet row appended", "tab", tab, "id", nextID)
	return nil
}

// Noop discards every row. Used when Google logging is not configured.
type Noop struct{}

func (Noop) LogChat(context.Context, ChatRow) error                 { return nil }
func (Noop) LogMeal(context.Context, string, nutrition.Entry) error { return nil }
func (Noop) LogFeedback(context.Context, string, string) error      { return nil }

var (
	_ Recorder = (*Logger)(nil)
	_ Recorder = Noop{}
)
