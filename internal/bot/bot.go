package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskflow/internal/model"
	"taskflow/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageDescription
	stageCategory
	stageDeadline
)

const (
	cbTogglePrefix = "toggle:"
	cbDonePrefix   = "done:"
	cbDeletePrefix = "delete:"
)

const (
	btnSkip          = "⏭️ Skip"
	btnConfirm       = "✅ Confirm"
	btnCancel        = "↩️ Cancel"
	btnCancelDialog  = "⏪ Stop input"
	menuLabelNewTask = "➕ New task"
	menuLabelTasks   = "📋 Tasks"
	menuLabelDone    = "✅ Done"
	menuLabelStats   = "📊 Stats"
)

type conversationState struct {
	stage conversationStage
	input service.NewTask
}

type confirmationAction int

const (
	actionDelete confirmationAction = iota
	actionClearCompleted
)

type confirmationRequest struct {
	taskID string
	action confirmationAction
}

// sender is the part of the Telegram API the bot talks to.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot is the Telegram front end of the task store. It only answers its
// owner's chat and doubles as the sink for reminder notifications.
type Bot struct {
	api     sender
	poller  *tgbotapi.BotAPI
	store   *service.TaskStore
	digest  *service.DigestService
	ownerID int64
	now     service.Clock

	conversations map[int64]*conversationState
	confirmations map[int64]confirmationRequest
	mu            sync.Mutex
}

func New(token string, ownerID int64, store *service.TaskStore, digest *service.DigestService, now service.Clock) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	b := newBot(api, ownerID, store, digest, now)
	b.poller = api
	return b, nil
}

func newBot(api sender, ownerID int64, store *service.TaskStore, digest *service.DigestService, now service.Clock) *Bot {
	if now == nil {
		now = time.Now
	}
	return &Bot{
		api:           api,
		store:         store,
		digest:        digest,
		ownerID:       ownerID,
		now:           now,
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]confirmationRequest),
	}
}

// Start begins polling updates until ctx is cancelled. Updates are handled
// one at a time.
func (b *Bot) Start(ctx context.Context) error {
	if b.poller == nil {
		return errors.New("bot has no update source")
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.poller.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.poller.StopReceivingUpdates()
	}()

	for update := range updates {
		b.handleUpdate(ctx, update)
	}

	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			log.Printf("handle callback: %v", err)
		}
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			log.Printf("handle message: %v", err)
		}
	}
}

// Deliver sends a fired reminder to the owner with a button that completes
// the task.
func (b *Bot) Deliver(ctx context.Context, n model.ScheduledNotification) error {
	text := fmt.Sprintf("<b>%s</b>\n%s", escape(n.Title), escape(n.Body))
	msg := tgbotapi.NewMessage(b.ownerID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableNotification = n.Priority != model.PriorityHigh
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Mark done", cbDonePrefix+n.TaskID),
		),
	)
	_, err := b.api.Send(msg)
	return err
}

// SendDigest sends the daily summary to the owner.
func (b *Bot) SendDigest(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	return b.sendText(b.ownerID, b.digest.DailySummary(b.now()))
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	if msg.Chat.ID != b.ownerID {
		log.Printf("[info] ignored message from chat %d", msg.Chat.ID)
		return b.sendWithReplyMarkup(msg.Chat.ID, "🔒 This tracker is private.", tgbotapi.NewRemoveKeyboard(true))
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		log.Printf("[info] command /%s %s", msg.Command(), msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if pending, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "I didn't get that. Send /newtask to add a task or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case "start":
		return b.handleStart(msg)
	case "help":
		return b.handleHelp(msg)
	case "newtask":
		return b.startNewTaskConversation(msg)
	case "tasks":
		return b.sendTaskList(msg.Chat.ID)
	case "done":
		return b.sendCompletedList(msg.Chat.ID)
	case "toggle":
		return b.handleToggle(ctx, msg.Chat.ID, args)
	case "delete":
		return b.handleDelete(msg, args)
	case "deadline":
		return b.handleDeadline(ctx, msg.Chat.ID, args)
	case "rename":
		return b.handleRename(ctx, msg.Chat.ID, args)
	case "category":
		return b.handleCategory(ctx, msg.Chat.ID, args)
	case "clear":
		return b.askClearConfirmation(msg)
	case "stats":
		return b.sendText(msg.Chat.ID, b.digest.DailySummary(b.now()))
	case "cancel":
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("👋 %s, %s!\n<b>I keep your tasks and remind you before deadlines.</b>\n\n%s",
		service.Greeting(b.now()), escape(name), helpText)
	return b.sendText(msg.Chat.ID, text)
}

const helpText = "Commands:\n" +
	"• /newtask — add a task step by step\n" +
	"• /tasks — pending tasks\n" +
	"• /done — completed tasks\n" +
	"• /toggle &lt;id&gt; — complete or reopen a task\n" +
	"• /delete &lt;id&gt; — delete a task\n" +
	"• /deadline &lt;id&gt; &lt;date|none&gt; — change the deadline\n" +
	"• /rename &lt;id&gt; &lt;title&gt; — change the title\n" +
	"• /category &lt;id&gt; &lt;category&gt; — change the category\n" +
	"• /clear — remove all completed tasks\n" +
	"• /stats — dashboard\n" +
	"• /cancel — stop the current input"

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, "ℹ️ <b>Help</b>\n"+helpText+
		"\n\nDeadlines: <code>2026-11-30</code>, <code>2026-11-30 18:00</code>, <code>today</code>, <code>tomorrow</code>, <code>+3d</code>.")
}

func (b *Bot) startNewTaskConversation(msg *tgbotapi.Message) error {
	b.setConversation(msg.From.ID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task.\n<b>Step 1:</b> what should it be called?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The title can't be empty. What should the task be called?", cancelKeyboard())
		}
		state.input.Title = text
		state.stage = stageDescription
		return b.sendWithReplyMarkup(msg.Chat.ID, "✏️ Add a short description (or press Skip).", skipKeyboard())
	case stageDescription:
		if !isSkipInput(text) {
			state.input.Description = text
		}
		state.stage = stageCategory
		return b.sendWithReplyMarkup(msg.Chat.ID, "🏷 Pick a category (or press Skip).", categoryKeyboard())
	case stageCategory:
		category := model.CategoryOther
		if !isSkipInput(text) {
			parsed, err := parseCategoryInput(text)
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Pick one of the categories below.", categoryKeyboard())
			}
			category = parsed
		}
		state.input.Category = category
		state.stage = stageDeadline
		return b.sendWithReplyMarkup(msg.Chat.ID, "⏰ Deadline? For example <code>2026-11-30</code> or <code>+3d</code> (or Skip).", skipKeyboard())
	case stageDeadline:
		if !isSkipInput(text) {
			deadline, err := service.ParseDeadline(text, b.now())
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "I can't read that date. Use <code>2026-11-30</code>, <code>tomorrow</code>, <code>+3d</code> or Skip.", skipKeyboard())
			}
			state.input.Deadline = &deadline
		}
		b.clearConversation(msg.From.ID)
		return b.finishTaskCreation(ctx, msg.Chat.ID, state.input)
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Input reset. Try /newtask again.")
	}
}

func (b *Bot) finishTaskCreation(ctx context.Context, chatID int64, input service.NewTask) error {
	task, err := b.store.Add(ctx, input)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Couldn't save the task: %s", escape(err.Error())))
	}

	var summary strings.Builder
	summary.WriteString("✅ <b>Task saved</b>\n")
	summary.WriteString(fmt.Sprintf("• <b>ID:</b> %s\n", service.ShortID(task.ID)))
	summary.WriteString(fmt.Sprintf("• <b>Title:</b> %s\n", escape(task.Title)))
	if task.Description != "" {
		summary.WriteString(fmt.Sprintf("• <b>Description:</b> %s\n", escape(task.Description)))
	}
	summary.WriteString(fmt.Sprintf("• <b>Category:</b> %s\n", task.Category.Label()))
	if deadline, ok := task.DeadlineTime(); ok {
		summary.WriteString(fmt.Sprintf("• <b>Deadline:</b> %s (%s)\n", deadline.In(b.now().Location()).Format("2006-01-02 15:04"), reminderCount(len(task.ReminderHandles))))
	}

	if err := b.sendText(chatID, strings.TrimSpace(summary.String())); err != nil {
		return err
	}
	return b.sendTaskList(chatID)
}

func (b *Bot) handleToggle(ctx context.Context, chatID int64, args string) error {
	task, err := b.resolveTask(args)
	if err != nil {
		return b.sendText(chatID, describeLookupError(err, "/toggle 1a2b3c4d"))
	}
	return b.toggleAndReport(ctx, chatID, task.ID)
}

func (b *Bot) toggleAndReport(ctx context.Context, chatID int64, taskID string) error {
	task, err := b.store.Toggle(ctx, taskID)
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			return b.sendText(chatID, "Task not found or already deleted.")
		}
		return b.sendText(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}

	if task.IsCompleted() {
		return b.sendText(chatID, fmt.Sprintf("✅ «%s» is done.", escape(task.Title)))
	}
	info := fmt.Sprintf("↩️ «%s» is pending again.", escape(task.Title))
	if _, ok := task.DeadlineTime(); ok {
		info += fmt.Sprintf(" %s.", capitalize(reminderCount(len(task.ReminderHandles))))
	}
	return b.sendText(chatID, info)
}

// completeAndReport backs the button on delivered reminders. It only ever
// completes, so a stale button cannot reopen a finished task.
func (b *Bot) completeAndReport(ctx context.Context, chatID int64, taskID string) error {
	task, changed, err := b.store.Complete(ctx, taskID)
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			return b.sendText(chatID, "Task not found or already deleted.")
		}
		return b.sendText(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}
	if !changed {
		return b.sendText(chatID, fmt.Sprintf("«%s» is already done.", escape(task.Title)))
	}
	return b.sendText(chatID, fmt.Sprintf("✅ «%s» is done.", escape(task.Title)))
}

func (b *Bot) handleDelete(msg *tgbotapi.Message, args string) error {
	task, err := b.resolveTask(args)
	if err != nil {
		return b.sendText(msg.Chat.ID, describeLookupError(err, "/delete 1a2b3c4d"))
	}
	return b.askDeleteConfirmation(msg.Chat.ID, msg.From.ID, task)
}

func (b *Bot) askDeleteConfirmation(chatID, userID int64, task model.Task) error {
	text := fmt.Sprintf("Delete «%s» (#%s)?", escape(task.Title), service.ShortID(task.ID))
	b.setConfirmation(userID, confirmationRequest{taskID: task.ID, action: actionDelete})
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) askClearConfirmation(msg *tgbotapi.Message) error {
	completed := b.store.Completed()
	if len(completed) == 0 {
		return b.sendText(msg.Chat.ID, "There are no completed tasks to clear.")
	}
	b.setConfirmation(msg.From.ID, confirmationRequest{action: actionClearCompleted})
	return b.sendWithReplyMarkup(msg.Chat.ID, fmt.Sprintf("Remove %d completed task(s)?", len(completed)), confirmKeyboard())
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		if req.action == actionClearCompleted {
			return b.clearCompleted(ctx, msg.Chat.ID)
		}
		return b.deleteTaskAndRefresh(ctx, msg.Chat.ID, req.taskID)
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "🔹 Main menu")
	default:
		return b.sendWithReplyMarkup(msg.Chat.ID, "Confirm or cancel.", confirmKeyboard())
	}
}

func (b *Bot) deleteTaskAndRefresh(ctx context.Context, chatID int64, taskID string) error {
	task, ok := b.store.Get(taskID)
	if !ok {
		return b.sendText(chatID, "Task not found or already deleted.")
	}
	if err := b.store.Delete(ctx, taskID); err != nil {
		return b.sendText(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}
	if err := b.sendText(chatID, fmt.Sprintf("🗑 «%s» deleted.", escape(task.Title))); err != nil {
		return err
	}
	return b.sendTaskList(chatID)
}

func (b *Bot) clearCompleted(ctx context.Context, chatID int64) error {
	removed, err := b.store.ClearCompleted(ctx)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}
	return b.sendText(chatID, fmt.Sprintf("🧹 Removed %d completed task(s).", removed))
}

func (b *Bot) handleDeadline(ctx context.Context, chatID int64, args string) error {
	ref, rest := splitArgs(args)
	task, err := b.resolveTask(ref)
	if err != nil {
		return b.sendText(chatID, describeLookupError(err, "/deadline 1a2b3c4d 2026-11-30"))
	}
	if rest == "" {
		return b.sendText(chatID, "Give a date or <code>none</code>: /deadline 1a2b3c4d 2026-11-30")
	}

	var patch service.TaskPatch
	if strings.EqualFold(rest, "none") || rest == "-" {
		patch.ClearDeadline = true
	} else {
		deadline, err := service.ParseDeadline(rest, b.now())
		if err != nil {
			return b.sendText(chatID, escape(err.Error()))
		}
		patch.Deadline = &deadline
	}

	updated, err := b.store.Update(ctx, task.ID, patch)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}
	deadline, ok := updated.DeadlineTime()
	if !ok {
		return b.sendText(chatID, fmt.Sprintf("📅 Deadline removed from «%s».", escape(updated.Title)))
	}
	return b.sendText(chatID, fmt.Sprintf("📅 «%s» is due %s (%s).", escape(updated.Title),
		deadline.In(b.now().Location()).Format("2006-01-02 15:04"), reminderCount(len(updated.ReminderHandles))))
}

func (b *Bot) handleRename(ctx context.Context, chatID int64, args string) error {
	ref, title := splitArgs(args)
	task, err := b.resolveTask(ref)
	if err != nil {
		return b.sendText(chatID, describeLookupError(err, "/rename 1a2b3c4d New title"))
	}
	updated, err := b.store.Update(ctx, task.ID, service.TaskPatch{Title: &title})
	if err != nil {
		if errors.Is(err, service.ErrEmptyTitle) {
			return b.sendText(chatID, "The title can't be empty.")
		}
		return b.sendText(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}
	return b.sendText(chatID, fmt.Sprintf("✏️ Renamed to «%s».", escape(updated.Title)))
}

func (b *Bot) handleCategory(ctx context.Context, chatID int64, args string) error {
	ref, raw := splitArgs(args)
	task, err := b.resolveTask(ref)
	if err != nil {
		return b.sendText(chatID, describeLookupError(err, "/category 1a2b3c4d work"))
	}
	category, err := parseCategoryInput(raw)
	if err != nil || raw == "" {
		return b.sendText(chatID, "Unknown category. Use one of: "+categoryNames()+".")
	}
	updated, err := b.store.Update(ctx, task.ID, service.TaskPatch{Category: &category})
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}
	return b.sendText(chatID, fmt.Sprintf("🏷 «%s» moved to %s.", escape(updated.Title), updated.Category.Label()))
}

func (b *Bot) sendTaskList(chatID int64) error {
	tasks := b.store.Pending()
	if len(tasks) == 0 {
		return b.sendText(chatID, "No pending tasks. Add one with /newtask.")
	}

	now := b.now()
	var builder strings.Builder
	builder.WriteString("📋 <b>Pending tasks</b>\n")
	builder.WriteString(service.FormatStats(service.ComputeStats(b.store.All(), now)))
	builder.WriteString("\n\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, task := range tasks {
		builder.WriteString(service.FormatTask(task, now))
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ "+shortTitle(task.Title, 24), cbTogglePrefix+task.ID),
			tgbotapi.NewInlineKeyboardButtonData("🗑", cbDeletePrefix+task.ID),
		))
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendCompletedList(chatID int64) error {
	tasks := b.store.Completed()
	if len(tasks) == 0 {
		return b.sendText(chatID, "Nothing completed yet.")
	}

	now := b.now()
	var builder strings.Builder
	builder.WriteString("✅ <b>Completed tasks</b>\n\n")
	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, task := range tasks {
		builder.WriteString(service.FormatTask(task, now))
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("↩️ "+shortTitle(task.Title, 24), cbTogglePrefix+task.ID),
			tgbotapi.NewInlineKeyboardButtonData("🗑", cbDeletePrefix+task.ID),
		))
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("callback ack: %v", err)
	}
	chatID := cb.Message.Chat.ID
	if chatID != b.ownerID {
		return nil
	}

	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbTogglePrefix):
		return b.toggleAndReport(ctx, chatID, strings.TrimPrefix(data, cbTogglePrefix))
	case strings.HasPrefix(data, cbDonePrefix):
		return b.completeAndReport(ctx, chatID, strings.TrimPrefix(data, cbDonePrefix))
	case strings.HasPrefix(data, cbDeletePrefix):
		task, ok := b.store.Get(strings.TrimPrefix(data, cbDeletePrefix))
		if !ok {
			return b.sendText(chatID, "Task not found or already deleted.")
		}
		return b.askDeleteConfirmation(chatID, cb.From.ID, task)
	default:
		return nil
	}
}

func (b *Bot) resolveTask(ref string) (model.Task, error) {
	if strings.TrimSpace(ref) == "" {
		return model.Task{}, errMissingID
	}
	return b.store.FindByPrefix(ref)
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelNewTask):
		return true, b.startNewTaskConversation(msg)
	case strings.ToLower(menuLabelTasks):
		return true, b.sendTaskList(msg.Chat.ID)
	case strings.ToLower(menuLabelDone):
		return true, b.sendCompletedList(msg.Chat.ID)
	case strings.ToLower(menuLabelStats):
		return true, b.sendText(msg.Chat.ID, b.digest.DailySummary(b.now()))
	default:
		return false, nil
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) getConfirmation(userID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[userID]
	return req, ok
}

func (b *Bot) setConfirmation(userID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = req
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func escape(s string) string {
	return html.EscapeString(s)
}
