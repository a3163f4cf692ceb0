package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/BTreeMap/WellbeingBot/internal/models"
	"github.com/BTreeMap/WellbeingBot/internal/store"
)

// Default configuration of the bot.
const (
	DefaultPomodoroDuration = 25 * time.Minute
	// DefaultReminderSendTimeout bounds the delivery of a fired reminder.
	DefaultReminderSendTimeout = 30 * time.Second
)

// Opts holds configuration options for the Bot.
type Opts struct {
	Contexts         ContextStore
	Timer            Timer
	Tips             TipSource
	PomodoroDuration time.Duration
}

// Option defines a configuration option for the Bot.
type Option func(*Opts)

// WithContextStore overrides the in-memory context store.
func WithContextStore(cs ContextStore) Option {
	return func(o *Opts) { o.Contexts = cs }
}

// WithTimer sets the timer used for reminders.
func WithTimer(t Timer) Option {
	return func(o *Opts) { o.Timer = t }
}

// WithTipSource sets where body and soft-skills tips come from.
func WithTipSource(ts TipSource) Option {
	return func(o *Opts) { o.Tips = ts }
}

// WithPomodoroDuration sets the delay of the Pomodoro reminder.
func WithPomodoroDuration(d time.Duration) Option {
	return func(o *Opts) { o.PomodoroDuration = d }
}

// Bot routes inbound events to menus, commands, callbacks and the metric loggers,
// and replies through a Responder.
type Bot struct {
	store     store.Store
	contexts  ContextStore
	loggers   *Loggers
	timer     Timer
	tips      TipSource
	responder Responder
	pomodoro  time.Duration
}

// NewBot creates a Bot.
func NewBot(st store.Store, responder Responder, opts ...Option) *Bot {
	cfg := Opts{PomodoroDuration: DefaultPomodoroDuration}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Contexts == nil {
		cfg.Contexts = NewMemoryContextStore()
	}
	if cfg.Timer == nil {
		cfg.Timer = NewSimpleTimer()
	}
	if cfg.Tips == nil {
		cfg.Tips = StaticTipSource{}
	}
	if cfg.PomodoroDuration <= 0 {
		cfg.PomodoroDuration = DefaultPomodoroDuration
	}
	slog.Debug("Creating Bot", "pomodoro", cfg.PomodoroDuration)
	return &Bot{
		store:     st,
		contexts:  cfg.Contexts,
		loggers:   NewLoggers(st, cfg.Contexts),
		timer:     cfg.Timer,
		tips:      cfg.Tips,
		responder: responder,
		pomodoro:  cfg.PomodoroDuration,
	}
}

// Contexts exposes the bot's context store.
func (b *Bot) Contexts() ContextStore { return b.contexts }

// HandleEvent processes one inbound event. Events of one user must not be handled
// concurrently; the caller serializes them.
func (b *Bot) HandleEvent(ctx context.Context, evt models.Event) error {
	userID := evt.UserID()
	if userID <= 0 {
		return models.ErrInvalidUserID
	}
	if err := b.store.EnsureUser(ctx, userID); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}

	switch evt.Kind {
	case models.EventText:
		if evt.Text == nil {
			return models.ErrEmptyMessageText
		}
		return b.handleText(ctx, userID, evt.Text.Text)
	case models.EventCallback:
		if evt.Callback == nil {
			return fmt.Errorf("callback event without payload")
		}
		return b.handleCallback(ctx, *evt.Callback)
	default:
		return fmt.Errorf("unsupported event kind %q", evt.Kind)
	}
}

func (b *Bot) send(ctx context.Context, userID int64, text string, kb *models.Keyboard) error {
	if _, err := b.responder.SendMessage(ctx, userID, text, kb); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (b *Bot) handleText(ctx context.Context, userID int64, text string) error {
	expectation := b.contexts.Get(userID)
	c := Classify(text, expectation)
	slog.Debug("Bot classified message", "userID", userID, "kind", c.Kind, "expectation", expectation)

	switch c.Kind {
	case models.ClassMenuCommand:
		return b.handleMenu(ctx, userID, c.Text)
	case models.ClassTaskTitle:
		return b.handleTaskTitle(ctx, userID, c.Text)
	case models.ClassTaskCompletionIndex:
		return b.handleTaskCompletion(ctx, userID, c.Text)
	case models.ClassWaterAmount:
		return b.handleWater(ctx, userID, c.Text)
	case models.ClassSleepHours:
		return b.handleSleep(ctx, userID, c.Text)
	case models.ClassStepsCount:
		return b.handleSteps(ctx, userID, c.Text)
	default:
		slog.Debug("Bot ignoring unrouted message", "userID", userID)
		return nil
	}
}

func (b *Bot) handleMenu(ctx context.Context, userID int64, item string) error {
	switch item {
	case CommandStart:
		return b.send(ctx, userID, textWelcome, mainMenu())
	case CommandAchievements:
		return b.handleAchievements(ctx, userID)
	case CommandStats:
		return b.handleStats(ctx, userID)
	case CommandCancel:
		if b.contexts.Get(userID) == models.ExpectationNone {
			return b.send(ctx, userID, textNothingToDo, mainMenu())
		}
		b.contexts.Clear(userID)
		return b.send(ctx, userID, textCancelled, mainMenu())

	case LabelBody:
		return b.send(ctx, userID, textBodyMenu, bodyMenu())
	case LabelSoul:
		return b.send(ctx, userID, textSoulMenu, soulMenu())
	case LabelGrowth:
		return b.send(ctx, userID, textGrowthMenu, growthMenu())
	case LabelBack:
		return b.send(ctx, userID, textBackToMain, mainMenu())

	case LabelLogWater:
		return b.send(ctx, userID, textAskWater, nil)
	case LabelSleep:
		return b.send(ctx, userID, textAskSleep, nil)
	case LabelSteps:
		return b.send(ctx, userID, textAskSteps, nil)
	case LabelBodyTips:
		return b.sendTips(ctx, userID, TopicBody, textBodyTipsIntro)

	case LabelSOS:
		return b.send(ctx, userID, textSOSPrompt, sosKeyboard())
	case LabelMoodDiary:
		return b.send(ctx, userID, textMoodPrompt, moodKeyboard())
	case LabelHelpNav:
		return b.send(ctx, userID, textHelpPrompt, helpKeyboard())

	case LabelPomodoro:
		return b.send(ctx, userID, textPomodoroIntro, pomodoroKeyboard())
	case LabelTasks:
		return b.send(ctx, userID, textTasksIntro, tasksKeyboard())
	case LabelInterests:
		return b.send(ctx, userID, textInterestsPrompt, interestsKeyboard())
	case LabelSoftTips:
		return b.sendTips(ctx, userID, TopicSoftSkills, textSoftTipsIntro)
	}
	return fmt.Errorf("menu item %q has no handler", item)
}

func (b *Bot) sendTips(ctx context.Context, userID int64, topic, intro string) error {
	tips, err := b.tips.Tips(ctx, topic)
	if err != nil {
		return fmt.Errorf("tips for %s: %w", topic, err)
	}
	return b.send(ctx, userID, intro+bulletList(tips), nil)
}

func (b *Bot) handleWater(ctx context.Context, userID int64, text string) error {
	amount, err := b.loggers.LogWater(ctx, userID, text)
	if err != nil {
		if isValidation(err) {
			return b.send(ctx, userID, textWaterInvalid, nil)
		}
		return err
	}
	return b.send(ctx, userID, fmt.Sprintf(textWaterLogged, amount), nil)
}

func (b *Bot) handleSleep(ctx context.Context, userID int64, text string) error {
	hours, err := b.loggers.LogSleep(ctx, userID, text)
	if err != nil {
		if isValidation(err) {
			return b.send(ctx, userID, textSleepInvalid, nil)
		}
		return err
	}
	comment := textSleepAdvice
	if hours >= 7 && hours <= 9 {
		comment = textSleepIdeal
	}
	return b.send(ctx, userID, fmt.Sprintf(textSleepLogged, hours, comment), nil)
}

func (b *Bot) handleSteps(ctx context.Context, userID int64, text string) error {
	res, err := b.loggers.LogSteps(ctx, userID, text)
	if err != nil {
		if isValidation(err) {
			return b.send(ctx, userID, textStepsInvalid, nil)
		}
		return err
	}
	if len(res.Achievements) == 0 {
		return b.send(ctx, userID, fmt.Sprintf(textStepsLogged, res.Steps), nil)
	}
	badges := make([]string, len(res.Achievements))
	for i, a := range res.Achievements {
		badges[i] = formatBadge(a)
	}
	return b.send(ctx, userID, fmt.Sprintf(textStepsBadge, res.Steps, strings.Join(badges, ", ")), nil)
}

func (b *Bot) handleTaskTitle(ctx context.Context, userID int64, text string) error {
	task, err := b.loggers.AddTaskTitle(ctx, userID, text)
	if err != nil {
		if errors.Is(err, models.ErrTitleTooShort) {
			return b.send(ctx, userID, textTaskTooShort, nil)
		}
		return err
	}
	return b.send(ctx, userID, fmt.Sprintf(textTaskSaved, task.Title), growthMenu())
}

func (b *Bot) handleTaskCompletion(ctx context.Context, userID int64, text string) error {
	res, err := b.loggers.CompleteTask(ctx, userID, text)
	if err != nil {
		return err
	}
	if !res.Found {
		return b.send(ctx, userID, textTaskNotFound, nil)
	}
	return b.send(ctx, userID, fmt.Sprintf(textTaskCompleted, res.TaskID), nil)
}

func (b *Bot) handleAchievements(ctx context.Context, userID int64) error {
	list, err := b.store.ListAchievements(ctx, userID)
	if err != nil {
		return fmt.Errorf("list achievements: %w", err)
	}
	if len(list) == 0 {
		return b.send(ctx, userID, textAchievementsEmpty, nil)
	}
	lines := make([]string, len(list))
	for i, a := range list {
		lines[i] = fmt.Sprintf("• %s (%s)", formatBadge(a.Title), a.CreatedAt.Format(time.DateTime))
	}
	return b.send(ctx, userID, textAchievementsHead+strings.Join(lines, "\n"), nil)
}

func (b *Bot) handleStats(ctx context.Context, userID int64) error {
	sum, err := b.store.GetSummary(ctx, userID)
	if err != nil {
		return fmt.Errorf("summary: %w", err)
	}
	return b.send(ctx, userID, formatSummary(sum), nil)
}

func (b *Bot) handleCallback(ctx context.Context, cb models.CallbackEvent) error {
	data := cb.Data
	switch {
	case strings.HasPrefix(data, CallbackMoodPrefix):
		return b.handleMood(ctx, cb)
	case data == CallbackSOSBreath:
		return b.editAndAnswer(ctx, cb, textSOSBreath, textSOSBreathToast)
	case data == CallbackSOSGround:
		return b.editAndAnswer(ctx, cb, textSOSGround, textSOSGroundToast)
	case data == CallbackHelpBullying:
		return b.editAndAnswer(ctx, cb, textHelpBullying, "")
	case data == CallbackHelpParents:
		return b.editAndAnswer(ctx, cb, textHelpParents, "")
	case data == CallbackHelpExams:
		return b.editAndAnswer(ctx, cb, textHelpExams, "")
	case data == CallbackPomodoroStart:
		return b.handlePomodoro(ctx, cb)
	case data == CallbackTaskAdd:
		b.contexts.Set(cb.UserID, models.ExpectationTaskTitle)
		return b.editAndAnswer(ctx, cb, textTaskAskTitle, "")
	case data == CallbackTaskDone:
		b.contexts.Set(cb.UserID, models.ExpectationTaskCompletionIndex)
		return b.editAndAnswer(ctx, cb, textTaskAskIndex, "")
	case data == CallbackTaskList:
		return b.handleTaskList(ctx, cb)
	case strings.HasPrefix(data, CallbackTestPrefix):
		return b.editAndAnswer(ctx, cb, interestsResult(data), "")
	}

	slog.Warn("Bot unknown callback", "userID", cb.UserID, "data", data, "error", models.ErrUnknownCallback)
	return b.answer(ctx, cb, textUnknownButton)
}

func (b *Bot) answer(ctx context.Context, cb models.CallbackEvent, text string) error {
	if err := b.responder.AnswerCallback(ctx, cb.CallbackID, text); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

func (b *Bot) editAndAnswer(ctx context.Context, cb models.CallbackEvent, text, toast string) error {
	if err := b.responder.EditMessage(ctx, cb.MessageRef, text); err != nil {
		return fmt.Errorf("edit message: %w", err)
	}
	return b.answer(ctx, cb, toast)
}

func (b *Bot) handleMood(ctx context.Context, cb models.CallbackEvent) error {
	score, err := strconv.Atoi(strings.TrimPrefix(cb.Data, CallbackMoodPrefix))
	if err != nil {
		slog.Warn("Bot malformed mood callback", "userID", cb.UserID, "data", cb.Data)
		return b.answer(ctx, cb, textUnknownButton)
	}
	stats, err := b.loggers.LogMood(ctx, cb.UserID, score)
	if err != nil {
		if isValidation(err) {
			slog.Warn("Bot mood score out of range", "userID", cb.UserID, "score", score)
			return b.answer(ctx, cb, textUnknownButton)
		}
		return err
	}
	if err := b.responder.EditMessage(ctx, cb.MessageRef, fmt.Sprintf(textMoodSaved, moodReactions[score])); err != nil {
		return fmt.Errorf("edit message: %w", err)
	}
	if stats != nil {
		if err := b.send(ctx, cb.UserID, fmt.Sprintf(textMoodStats, stats.Count, stats.Average), nil); err != nil {
			return err
		}
	}
	return b.answer(ctx, cb, "")
}

func (b *Bot) handleTaskList(ctx context.Context, cb models.CallbackEvent) error {
	tasks, err := b.store.ListTasks(ctx, cb.UserID)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	text := textTaskListEmpty
	if len(tasks) > 0 {
		lines := make([]string, len(tasks))
		for i, t := range tasks {
			status := "❗"
			if t.Done {
				status = "✅"
			}
			lines[i] = fmt.Sprintf("%s %d. %s", status, t.ID, t.Title)
		}
		text = textTaskListHead + strings.Join(lines, "\n")
	}
	return b.editAndAnswer(ctx, cb, text, "")
}

func (b *Bot) handlePomodoro(ctx context.Context, cb models.CallbackEvent) error {
	if err := b.editAndAnswer(ctx, cb, fmt.Sprintf(textPomodoroStarted, formatDuration(b.pomodoro)), textPomodoroToast); err != nil {
		return err
	}
	userID := cb.UserID
	id, err := b.timer.ScheduleAfter(userID, b.pomodoro, "pomodoro reminder", func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), DefaultReminderSendTimeout)
		defer cancel()
		if _, err := b.responder.SendMessage(sendCtx, userID, textPomodoroDone, nil); err != nil {
			slog.Debug("Bot pomodoro reminder delivery failed", "userID", userID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule pomodoro: %w", err)
	}
	slog.Info("Bot pomodoro scheduled", "userID", userID, "timerID", id, "delay", b.pomodoro)
	return nil
}

func interestsResult(data string) string {
	switch data {
	case CallbackTestScience:
		return textInterestsScience
	case CallbackTestArt:
		return textInterestsArt
	case CallbackTestIT:
		return textInterestsIT
	default:
		return textInterestsHelp
	}
}

func isValidation(err error) bool {
	var ve *models.ValidationError
	return errors.As(err, &ve)
}

func formatBadge(t models.AchievementTitle) string {
	return fmt.Sprintf("%s \"%s\"", t.Badge(), t)
}

func formatDuration(d time.Duration) string {
	if d%time.Minute == 0 {
		m := int(d / time.Minute)
		if m == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	}
	return d.String()
}

func formatSummary(s models.Summary) string {
	var sb strings.Builder
	sb.WriteString("Your stats 📊\n\n")
	fmt.Fprintf(&sb, "💧 Water: %d ml over %d entries\n", s.WaterTotalML, s.WaterCount)
	if s.SleepCount > 0 {
		fmt.Fprintf(&sb, "😴 Sleep: %.1f h on average over %d nights\n", s.SleepAvg, s.SleepCount)
	} else {
		sb.WriteString("😴 Sleep: no entries yet\n")
	}
	fmt.Fprintf(&sb, "🚶 Steps: %d over %d entries\n", s.StepsTotal, s.StepsCount)
	if s.Mood != nil {
		fmt.Fprintf(&sb, "📓 Mood: %.1f/5 over %d entries\n", s.Mood.Average, s.Mood.Count)
	} else {
		sb.WriteString("📓 Mood: no entries yet\n")
	}
	fmt.Fprintf(&sb, "📝 Tasks: %d open, %d done", s.TasksOpen, s.TasksDone)
	return sb.String()
}
