package flow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BTreeMap/WellbeingBot/internal/models"
	"github.com/BTreeMap/WellbeingBot/internal/store"
)

type failingTips struct{}

func (failingTips) Tips(ctx context.Context, topic string) ([]string, error) {
	return nil, errors.New("model unavailable")
}

func newTestBot(t *testing.T, opts ...Option) (*Bot, *store.InMemoryStore, *recordingResponder) {
	t.Helper()
	st := store.NewInMemoryStore()
	r := newRecordingResponder()
	timer := NewSimpleTimer()
	t.Cleanup(timer.Stop)
	b := NewBot(st, r, append([]Option{WithTimer(timer)}, opts...)...)
	return b, st, r
}

func handle(t *testing.T, b *Bot, evt models.Event) {
	t.Helper()
	require.NoError(t, b.HandleEvent(context.Background(), evt))
}

func TestBotStartSendsWelcomeAndMainMenu(t *testing.T) {
	b, _, r := newTestBot(t)
	handle(t, b, textEvent(1, "/start"))

	out := r.messages()
	require.Len(t, out, 1)
	assert.Equal(t, "send", out[0].Op)
	assert.Contains(t, out[0].Text, "Designing my wellbeing")
	require.NotNil(t, out[0].Keyboard)
	assert.Equal(t, models.KeyboardReply, out[0].Keyboard.Kind)
	assert.Equal(t, LabelBody, out[0].Keyboard.Rows[0][0].Label)

}

func TestBotRejectsInvalidUser(t *testing.T) {
	b, _, _ := newTestBot(t)
	err := b.HandleEvent(context.Background(), textEvent(0, "/start"))
	assert.ErrorIs(t, err, models.ErrInvalidUserID)
}

func TestBotMenus(t *testing.T) {
	cases := map[string]string{
		LabelBody:      textBodyMenu,
		"soul":         textSoulMenu,
		"Growth":       textGrowthMenu,
		LabelBack:      textBackToMain,
		LabelLogWater:  textAskWater,
		LabelSleep:     textAskSleep,
		LabelSteps:     textAskSteps,
		LabelSOS:       textSOSPrompt,
		LabelMoodDiary: textMoodPrompt,
		LabelHelpNav:   textHelpPrompt,
		LabelPomodoro:  textPomodoroIntro,
		LabelTasks:     textTasksIntro,
		LabelInterests: textInterestsPrompt,
	}
	for label, want := range cases {
		b, _, r := newTestBot(t)
		handle(t, b, textEvent(1, label))
		out := r.messages()
		require.Len(t, out, 1, label)
		assert.Equal(t, want, out[0].Text, label)
	}
}

func TestBotWaterSleepSteps(t *testing.T) {
	b, st, r := newTestBot(t)
	ctx := context.Background()

	handle(t, b, textEvent(1, "500"))
	handle(t, b, textEvent(1, "8"))
	handle(t, b, textEvent(1, "5.5"))
	handle(t, b, textEvent(1, "12000"))

	out := r.messages()
	require.Len(t, out, 4)
	assert.Equal(t, "Logged 💧 500 ml. Keep it up! 🚰", out[0].Text)
	assert.Equal(t, "Sleep logged: 8.0 h.\n"+textSleepIdeal, out[1].Text)
	assert.Equal(t, "Sleep logged: 5.5 h.\n"+textSleepAdvice, out[2].Text)
	assert.Contains(t, out[3].Text, "Legend of Steps")

	sum, err := st.GetSummary(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.WaterCount)
	assert.Equal(t, 2, sum.SleepCount)
	assert.EqualValues(t, 12000, sum.StepsTotal)
}

func TestBotUnroutedIsSilent(t *testing.T) {
	b, _, r := newTestBot(t)
	handle(t, b, textEvent(1, "what's up?"))
	handle(t, b, textEvent(1, "1234567"))
	assert.Empty(t, r.messages())
}

func TestBotInvalidValueGetsCorrectivePrompt(t *testing.T) {
	b, st, r := newTestBot(t)
	handle(t, b, textEvent(1, "0"))
	out := r.messages()
	require.Len(t, out, 1)
	assert.Equal(t, textSleepInvalid, out[0].Text)
	sum, _ := st.GetSummary(context.Background(), 1)
	assert.Zero(t, sum.SleepCount)
}

func TestBotTaskFlow(t *testing.T) {
	b, st, r := newTestBot(t)
	ctx := context.Background()

	handle(t, b, callbackEvent(1, CallbackTaskAdd))
	assert.Equal(t, models.ExpectationTaskTitle, b.Contexts().Get(1))

	handle(t, b, textEvent(1, "ab"))
	handle(t, b, textEvent(1, "500"))
	assert.Equal(t, models.ExpectationNone, b.Contexts().Get(1))

	tasks, err := st.ListTasks(ctx, 1)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "500", tasks[0].Title)

	out := r.messages()
	require.Len(t, out, 4)
	assert.Equal(t, "edit", out[0].Op)
	assert.Equal(t, textTaskAskTitle, out[0].Text)
	assert.Equal(t, "answer", out[1].Op)
	assert.Equal(t, textTaskTooShort, out[2].Text)
	assert.Equal(t, `Task saved: "500" ✅`, out[3].Text)
	require.NotNil(t, out[3].Keyboard)
	assert.Equal(t, LabelPomodoro, out[3].Keyboard.Rows[0][0].Label)

	r.reset()
	handle(t, b, callbackEvent(1, CallbackTaskDone))
	assert.Equal(t, models.ExpectationTaskCompletionIndex, b.Contexts().Get(1))
	handle(t, b, textEvent(1, formatID(tasks[0].ID)))
	assert.Equal(t, models.ExpectationNone, b.Contexts().Get(1))

	out = r.messages()
	require.Len(t, out, 3)
	assert.Equal(t, "Task #"+formatID(tasks[0].ID)+" marked as done ✅", out[2].Text)

	achievements, err := st.ListAchievements(ctx, 1)
	require.NoError(t, err)
	require.Len(t, achievements, 1)
	assert.Equal(t, models.AchievementFocusAndDiscipline, achievements[0].Title)

	r.reset()
	handle(t, b, callbackEvent(1, CallbackTaskList))
	out = r.messages()
	require.Len(t, out, 2)
	assert.Equal(t, "Your tasks:\n\n✅ "+formatID(tasks[0].ID)+". 500", out[0].Text)
}

func TestBotTaskDoneSupersedesTaskAdd(t *testing.T) {
	b, _, r := newTestBot(t)
	handle(t, b, callbackEvent(1, CallbackTaskAdd))
	handle(t, b, callbackEvent(1, CallbackTaskDone))
	assert.Equal(t, models.ExpectationTaskCompletionIndex, b.Contexts().Get(1))

	r.reset()
	handle(t, b, textEvent(1, "42"))
	out := r.messages()
	require.Len(t, out, 1)
	assert.Equal(t, textTaskNotFound, out[0].Text)
	assert.Equal(t, models.ExpectationNone, b.Contexts().Get(1))
}

func TestBotTaskListEmpty(t *testing.T) {
	b, _, r := newTestBot(t)
	handle(t, b, callbackEvent(1, CallbackTaskList))
	out := r.messages()
	require.Len(t, out, 2)
	assert.Equal(t, textTaskListEmpty, out[0].Text)
}

func TestBotCancel(t *testing.T) {
	b, _, r := newTestBot(t)
	handle(t, b, textEvent(1, "/cancel"))
	handle(t, b, callbackEvent(1, CallbackTaskAdd))
	r.reset()
	handle(t, b, textEvent(1, "/cancel"))

	out := r.messages()
	require.Len(t, out, 1)
	assert.Equal(t, textCancelled, out[0].Text)
	assert.Equal(t, models.ExpectationNone, b.Contexts().Get(1))
}

func TestBotMoodCallback(t *testing.T) {
	b, st, r := newTestBot(t)
	handle(t, b, callbackEvent(1, "mood_5"))
	handle(t, b, callbackEvent(1, "mood_3"))

	out := r.messages()
	require.Len(t, out, 6)
	assert.Equal(t, "edit", out[3].Op)
	assert.Equal(t, "Mood saved. "+moodReactions[3], out[3].Text)
	assert.Equal(t, "send", out[4].Op)
	assert.Equal(t, "Your diary has 2 entries. Average mood: 4.0/5 📊", out[4].Text)
	assert.Equal(t, "answer", out[5].Op)

	stats, err := st.GetMoodStats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Count)
}

func TestBotMoodCallbackOutOfRange(t *testing.T) {
	b, st, r := newTestBot(t)
	handle(t, b, callbackEvent(1, "mood_9"))
	handle(t, b, callbackEvent(1, "mood_x"))
	out := r.messages()
	require.Len(t, out, 2)
	for _, o := range out {
		assert.Equal(t, "answer", o.Op)
		assert.Equal(t, textUnknownButton, o.Text)
	}
	stats, _ := st.GetMoodStats(context.Background(), 1)
	assert.Nil(t, stats)
}

func TestBotStaticCallbacks(t *testing.T) {
	cases := []struct {
		data, text, toast string
	}{
		{CallbackSOSBreath, textSOSBreath, textSOSBreathToast},
		{CallbackSOSGround, textSOSGround, textSOSGroundToast},
		{CallbackHelpBullying, textHelpBullying, ""},
		{CallbackHelpParents, textHelpParents, ""},
		{CallbackHelpExams, textHelpExams, ""},
		{CallbackTestScience, textInterestsScience, ""},
		{CallbackTestArt, textInterestsArt, ""},
		{CallbackTestIT, textInterestsIT, ""},
		{CallbackTestHelp, textInterestsHelp, ""},
		{"test_other", textInterestsHelp, ""},
	}
	for _, tc := range cases {
		b, _, r := newTestBot(t)
		handle(t, b, callbackEvent(1, tc.data))
		out := r.messages()
		require.Len(t, out, 2, tc.data)
		assert.Equal(t, "edit", out[0].Op)
		assert.Equal(t, tc.text, out[0].Text, tc.data)
		assert.Equal(t, "answer", out[1].Op)
		assert.Equal(t, tc.toast, out[1].Text, tc.data)
	}
}

func TestBotUnknownCallback(t *testing.T) {
	b, _, r := newTestBot(t)
	handle(t, b, callbackEvent(1, "nonsense"))
	out := r.messages()
	require.Len(t, out, 1)
	assert.Equal(t, "answer", out[0].Op)
	assert.Equal(t, textUnknownButton, out[0].Text)
}

func TestBotPomodoroReminder(t *testing.T) {
	b, _, r := newTestBot(t, WithPomodoroDuration(20*time.Millisecond))
	handle(t, b, callbackEvent(1, CallbackPomodoroStart))

	select {
	case o := <-r.sent:
		assert.Equal(t, "edit", o.Op)
		assert.Contains(t, o.Text, "Pomodoro timer started")
	case <-time.After(time.Second):
		t.Fatal("expected edit")
	}
	select {
	case o := <-r.sent:
		assert.Equal(t, "answer", o.Op)
		assert.Equal(t, textPomodoroToast, o.Text)
	case <-time.After(time.Second):
		t.Fatal("expected answer")
	}
	select {
	case o := <-r.sent:
		assert.Equal(t, "send", o.Op)
		assert.Equal(t, textPomodoroDone, o.Text)
	case <-time.After(2 * time.Second):
		t.Fatal("reminder did not fire")
	}
}

func TestBotPomodoroReminderFailureIsSwallowed(t *testing.T) {
	b, _, r := newTestBot(t, WithPomodoroDuration(50*time.Millisecond))
	handle(t, b, callbackEvent(1, CallbackPomodoroStart))
	r.mu.Lock()
	r.sendErr = errors.New("transport down")
	r.mu.Unlock()
	time.Sleep(250 * time.Millisecond)
	for _, o := range r.messages() {
		assert.NotEqual(t, "send", o.Op)
	}
}

func TestBotAchievementsCommand(t *testing.T) {
	b, _, r := newTestBot(t)
	handle(t, b, textEvent(1, "/achievements"))
	handle(t, b, textEvent(1, "10000"))
	r.reset()
	handle(t, b, textEvent(1, "/achievements"))

	out := r.messages()
	require.Len(t, out, 1)
	assert.True(t, strings.HasPrefix(out[0].Text, textAchievementsHead))
	assert.Contains(t, out[0].Text, `• 🏅 "Legend of Steps" (`)
}

func TestBotStatsCommand(t *testing.T) {
	b, _, r := newTestBot(t)
	handle(t, b, textEvent(1, "250"))
	handle(t, b, textEvent(1, "750"))
	r.reset()
	handle(t, b, textEvent(1, "/stats"))
	out := r.messages()
	require.Len(t, out, 1)
	assert.Contains(t, out[0].Text, "💧 Water: 1000 ml over 2 entries")
	assert.Contains(t, out[0].Text, "📓 Mood: no entries yet")
}

func TestBotTipsFallBackToStatic(t *testing.T) {
	b, _, r := newTestBot(t, WithTipSource(NewFallbackTipSource(failingTips{}, StaticTipSource{})))
	handle(t, b, textEvent(1, LabelBodyTips))
	handle(t, b, textEvent(1, LabelSoftTips))
	out := r.messages()
	require.Len(t, out, 2)
	assert.Equal(t, textBodyTipsIntro+bulletList(staticTips[TopicBody]), out[0].Text)
	assert.Equal(t, textSoftTipsIntro+bulletList(staticTips[TopicSoftSkills]), out[1].Text)
}

func TestBotUsersAreIsolated(t *testing.T) {
	b, st, _ := newTestBot(t)
	handle(t, b, callbackEvent(1, CallbackTaskAdd))
	handle(t, b, textEvent(2, "500"))
	assert.Equal(t, models.ExpectationTaskTitle, b.Contexts().Get(1))

	tasks, _ := st.ListTasks(context.Background(), 2)
	assert.Empty(t, tasks)
	sum, _ := st.GetSummary(context.Background(), 2)
	assert.Equal(t, 1, sum.WaterCount)
}
