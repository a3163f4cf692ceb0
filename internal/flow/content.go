package flow

import (
	"strings"
	"unicode"

	"github.com/BTreeMap/WellbeingBot/internal/models"
)

// Commands understood by the bot.
const (
	CommandStart        = "/start"
	CommandAchievements = "/achievements"
	CommandStats        = "/stats"
	CommandCancel       = "/cancel"
)

// Menu labels. A reply keyboard button sends its label back as text.
const (
	LabelBody   = "🏃 Body"
	LabelSoul   = "🧠 Soul"
	LabelGrowth = "🚀 Growth"
	LabelBack   = "⬅️ Back to menu"

	LabelLogWater  = "💧 Log water"
	LabelSleep     = "😴 Sleep"
	LabelSteps     = "🚶 Steps/sport"
	LabelBodyTips  = "💡 Body tips"
	LabelSOS       = "🆘 SOS (anti-stress)"
	LabelMoodDiary = "📓 Mood diary"
	LabelHelpNav   = "🧭 Help navigator"
	LabelPomodoro  = "⏱ Pomodoro 25 min"
	LabelTasks     = "📝 Study tasks"
	LabelInterests = "🧪 Interests mini-test"
	LabelSoftTips  = "🗣 Soft-skills tips"
)

// Callback data carried by inline buttons.
const (
	CallbackMoodPrefix    = "mood_"
	CallbackSOSBreath     = "sos_breath"
	CallbackSOSGround     = "sos_ground"
	CallbackHelpBullying  = "help_bullying"
	CallbackHelpParents   = "help_parents"
	CallbackHelpExams     = "help_exams"
	CallbackPomodoroStart = "pomodoro_start"
	CallbackTaskAdd       = "task_add"
	CallbackTaskDone      = "task_done"
	CallbackTaskList      = "task_list"
	CallbackTestPrefix    = "test_"
	CallbackTestScience   = "test_science"
	CallbackTestArt       = "test_art"
	CallbackTestIT        = "test_it"
	CallbackTestHelp      = "test_help"
)

// Tip topics.
const (
	TopicBody       = "body"
	TopicSoftSkills = "soft_skills"
)

var menuLabels = []string{
	LabelBody, LabelSoul, LabelGrowth, LabelBack,
	LabelLogWater, LabelSleep, LabelSteps, LabelBodyTips,
	LabelSOS, LabelMoodDiary, LabelHelpNav,
	LabelPomodoro, LabelTasks, LabelInterests, LabelSoftTips,
}

var commands = []string{CommandStart, CommandAchievements, CommandStats, CommandCancel}

// labelIndex maps a normalized label to its canonical form.
var labelIndex = func() map[string]string {
	idx := make(map[string]string, len(menuLabels))
	for _, l := range menuLabels {
		idx[normalizeLabel(l)] = l
	}
	return idx
}()

// normalizeLabel drops leading emoji and symbols and lowercases the rest.
func normalizeLabel(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeftFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.ToLower(strings.TrimSpace(s))
}

// MatchMenuLabel returns the canonical menu label for text. It accepts the exact label
// or the label without its leading emoji, compared case-insensitively.
func MatchMenuLabel(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	for _, l := range menuLabels {
		if trimmed == l {
			return l, true
		}
	}
	n := normalizeLabel(trimmed)
	if n == "" {
		return "", false
	}
	l, ok := labelIndex[n]
	return l, ok
}

// MatchCommand returns the command text starts with, if any.
func MatchCommand(text string) (string, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", false
	}
	head := strings.ToLower(fields[0])
	for _, c := range commands {
		if head == c {
			return c, true
		}
	}
	return "", false
}

// Keyboards

func mainMenu() *models.Keyboard {
	return models.ReplyKeyboard(
		[]string{LabelBody, LabelSoul},
		[]string{LabelGrowth},
	)
}

func bodyMenu() *models.Keyboard {
	return models.ReplyKeyboard(
		[]string{LabelLogWater, LabelSleep},
		[]string{LabelSteps},
		[]string{LabelBodyTips},
		[]string{LabelBack},
	)
}

func soulMenu() *models.Keyboard {
	return models.ReplyKeyboard(
		[]string{LabelSOS},
		[]string{LabelMoodDiary},
		[]string{LabelHelpNav},
		[]string{LabelBack},
	)
}

func growthMenu() *models.Keyboard {
	return models.ReplyKeyboard(
		[]string{LabelPomodoro},
		[]string{LabelTasks},
		[]string{LabelInterests},
		[]string{LabelSoftTips},
		[]string{LabelBack},
	)
}

func moodKeyboard() *models.Keyboard {
	return models.InlineKeyboard([]models.Button{
		{Label: "😀", Data: "mood_5"},
		{Label: "🙂", Data: "mood_4"},
		{Label: "😐", Data: "mood_3"},
		{Label: "🙁", Data: "mood_2"},
		{Label: "😢", Data: "mood_1"},
	})
}

func sosKeyboard() *models.Keyboard {
	return models.InlineKeyboard(
		[]models.Button{{Label: "🫁 Breathing 4-7-8", Data: CallbackSOSBreath}},
		[]models.Button{{Label: "🦶 Grounding 5-4-3-2-1", Data: CallbackSOSGround}},
	)
}

func helpKeyboard() *models.Keyboard {
	return models.InlineKeyboard(
		[]models.Button{{Label: "🤕 Bullying", Data: CallbackHelpBullying}},
		[]models.Button{{Label: "🏠 Conflict with parents", Data: CallbackHelpParents}},
		[]models.Button{{Label: "📚 Exam stress", Data: CallbackHelpExams}},
	)
}

func tasksKeyboard() *models.Keyboard {
	return models.InlineKeyboard(
		[]models.Button{{Label: "➕ Add a task", Data: CallbackTaskAdd}},
		[]models.Button{{Label: "✅ Mark as done", Data: CallbackTaskDone}},
		[]models.Button{{Label: "📋 Show list", Data: CallbackTaskList}},
	)
}

func pomodoroKeyboard() *models.Keyboard {
	return models.InlineKeyboard(
		[]models.Button{{Label: "▶️ Start", Data: CallbackPomodoroStart}},
	)
}

func interestsKeyboard() *models.Keyboard {
	return models.InlineKeyboard(
		[]models.Button{{Label: "👨‍🔬 Science/medicine", Data: CallbackTestScience}},
		[]models.Button{{Label: "🎨 Creativity", Data: CallbackTestArt}},
		[]models.Button{{Label: "💻 Technology", Data: CallbackTestIT}},
		[]models.Button{{Label: "🤝 Helping people", Data: CallbackTestHelp}},
	)
}

// Texts

const (
	textWelcome = "Hi! ✨ I'm the \"Designing my wellbeing\" bot.\n\n" +
		"I help you balance body, soul and growth:\n" +
		"🏃 Body: tracking water, sleep, activity and mini challenges.\n" +
		"🧠 Soul: a mood diary and SOS practices for stressful moments.\n" +
		"🚀 Growth: time management, tasks and an interests mini-test.\n\n" +
		"Pick where you want to start 👇"

	textBodyMenu   = "Body block 💪\nChoose what we track or improve today."
	textSoulMenu   = "Soul block 💛\nMood support and anti-stress practices."
	textGrowthMenu = "Growth block 🚀\nStudy, planning and self-discovery."
	textBackToMain = "Back to the main menu ⚖️"

	textAskWater = "How much water did you drink today? Send millilitres, for example: 250"
	textAskSleep = "How many hours did you sleep last night? Send a number, for example: 7.5"
	textAskSteps = "How many steps or activity units today? Send a number, for example: 12000"

	textWaterLogged   = "Logged 💧 %d ml. Keep it up! 🚰"
	textWaterInvalid  = "That doesn't look like a water amount. Send millilitres, for example: 250"
	textSleepLogged   = "Sleep logged: %.1f h.\n%s"
	textSleepIdeal    = "Great, that's close to the ideal range 😴"
	textSleepAdvice   = "Try to get closer to 7-9 hours of sleep 🌙"
	textSleepInvalid  = "Sleep hours must be more than 0 and at most 24, for example: 7.5"
	textStepsLogged   = "Logged %d steps/activity units. Movement is power 💪"
	textStepsBadge    = "Logged %d steps/activity units.\nYou earned an achievement: %s 🎉"
	textStepsInvalid  = "Send the number of steps, for example: 12000"
	textBodyTipsIntro = "A few ideas for taking care of your body today:\n\n"

	textMoodPrompt = "How are you feeling right now? 👇"
	textMoodSaved  = "Mood saved. %s"
	textMoodStats  = "Your diary has %d entries. Average mood: %.1f/5 📊"

	textSOSPrompt = "Pick a technique to ease the tension right now 💛"
	textSOSBreath = "Breathing 4-7-8 ✨\n\n" +
		"1) Breathe in through your nose for 4 counts.\n" +
		"2) Hold your breath for 7 counts.\n" +
		"3) Breathe out slowly through your mouth for 8 counts.\n\n" +
		"Do 4 cycles. You can close your eyes and picture a place where you feel calm."
	textSOSBreathToast = "Try 4 breathing cycles 🫁"
	textSOSGround      = "Grounding technique 5-4-3-2-1 🌍\n\n" +
		"Look around and name:\n" +
		"• 5 things you can see\n" +
		"• 4 things you can touch\n" +
		"• 3 sounds you can hear\n" +
		"• 2 smells\n" +
		"• 1 taste\n\n" +
		"This brings your attention back to the here and now."
	textSOSGroundToast = "Focus on your senses here and now 💛"

	textHelpPrompt   = "Pick the situation you need a hint for 👇"
	textHelpBullying = "Bullying is not normal.\n\n" +
		"• You have the right to safety and respect.\n" +
		"• Keep a record of incidents (screenshots, messages).\n" +
		"• Talk to an adult you trust: a form teacher, the school psychologist, a parent.\n" +
		"• If you are in danger, call your local emergency services.\n\n" +
		"Remember: it is not your fault that you are being bullied."
	textHelpParents = "Conflicts with parents are common.\n\n" +
		"• Pick a moment when emotions have cooled down and talk about feelings (\"I\" statements).\n" +
		"• Say clearly what matters to you and what you would like.\n" +
		"• If you cannot agree, bring in a mediator: the school psychologist or a form teacher.\n" +
		"• Remember: your feelings and boundaries matter."
	textHelpExams = "Stress before exams is a normal reaction.\n\n" +
		"• Split preparation into small 25-40 minute blocks with breaks.\n" +
		"• Practise typical tasks rather than everything at once.\n" +
		"• Get enough sleep: lack of sleep hurts concentration a lot.\n" +
		"• If anxiety stops you from studying at all, talk it over with a psychologist."

	textPomodoroIntro   = "Pomodoro method: 25 minutes of focused work + 5 minutes of rest.\nPress start to begin a session 👇"
	textPomodoroStarted = "Pomodoro timer started for %s ⏱\nFocus on one task without distractions."
	textPomodoroToast   = "I'll remind you when it's over 🛎"
	textPomodoroDone    = "⏰ Time! Pomodoro is over.\nTake a 5 minute break ☕"

	textTasksIntro    = "Study tasks: write down what you want to get done today or this week.\nChoose an action 👇"
	textTaskAskTitle  = "Write one task for study or growth and I'll remember it 📌\nFor example: \"Learn 10 English words\"."
	textTaskAskIndex  = "Send the number of the task you finished.\nYou can find the number in the task list."
	textTaskTooShort  = "Make it a bit more specific, at least 3 characters 🙂"
	textTaskSaved     = "Task saved: \"%s\" ✅"
	textTaskCompleted = "Task #%d marked as done ✅"
	textTaskNotFound  = "I couldn't find that task. Check the number again 🙂"
	textTaskListHead  = "Your tasks:\n\n"
	textTaskListEmpty = "No tasks yet. Add at least one 📌"

	textInterestsPrompt  = "Pick what feels closest to you right now 👇"
	textInterestsScience = "You might enjoy science and medicine 👨‍⚕️🔬\n" +
		"Look at careers like doctor, biotechnologist, researcher or teacher."
	textInterestsArt = "Looks like creativity is your thing 🎨\n" +
		"Careers: designer, illustrator, musician, film director, content creator."
	textInterestsIT = "You are drawn to technology 💻\n" +
		"Careers: programmer, data analyst, tester, system administrator, game developer."
	textInterestsHelp = "Helping people matters to you 🤝\n" +
		"Careers: psychologist, teacher, social worker, doctor, mentor."

	textSoftTipsIntro = "A few soft-skills ideas:\n\n"

	textAchievementsEmpty = "You have no achievements yet. Everything is ahead! ⭐"
	textAchievementsHead  = "Your achievements:\n\n"

	textCancelled   = "Okay, cancelled. Nothing is pending now."
	textNothingToDo = "Nothing to cancel."

	textUnknownButton = "This button is no longer available."
)

var moodReactions = map[int]string{
	5: "Awesome! Share this mood with someone else 🌞",
	4: "Great! Take care of this resource 💛",
	3: "Okay. You could add a few small pleasant things today ☕",
	2: "A bit heavy. Support yourself with something small and nice 💌",
	1: "Sad 🖤 If you feel like it, write to someone close or to a specialist.",
}

var staticTips = map[string][]string{
	TopicBody: {
		"Choose a smart snack: nuts, yoghurt or fruit are great for your brain and energy 🧠",
		"Stand up and stretch every 40-60 minutes if you sit at the computer a lot 🪑",
		"Water beats sugary soda. Start your day with a glass of water 💧",
	},
	TopicSoftSkills: {
		"Before a talk, say the first 2-3 sentences out loud. It lowers the nerves 🎤",
		"Learn to ask clarifying questions: \"Did I get it right that...?\" It improves communication 🤝",
		"Take small steps: join discussions with 1-2 remarks instead of leading the whole conversation 💬",
	},
}

func bulletList(items []string) string {
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = "• " + it
	}
	return strings.Join(lines, "\n\n")
}
