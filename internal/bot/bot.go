package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskboard/internal/category"
	"taskboard/internal/config"
	"taskboard/internal/metrics"
	"taskboard/internal/model"
	"taskboard/internal/report"
	"taskboard/internal/service"
	"taskboard/internal/session"
	"taskboard/internal/tasklist"
)

const (
	cbTogglePrefix  = "toggle:"
	cbDeletePrefix  = "delete:"
	cbConfirmPrefix = "confirm:"
	cbCancelPrefix  = "cancel:"
)

const (
	iconActive     = "⬜"
	iconCompleted  = "✅"
	maxTaskButtons = 20
	btnDelete      = "🗑"
	btnConfirm     = "✅ Удалить"
	btnCancel      = "↩️ Отмена"
)

// sender is the part of tgbotapi.BotAPI the handlers need.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Deps groups the collaborators of the bot.
type Deps struct {
	Sessions   *session.Manager
	Tasks      *service.TaskService
	Categories *service.CategoryService
	Reminders  *service.ReminderService
	Metrics    *metrics.Metrics
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api         sender
	poller      *tgbotapi.BotAPI
	sessions    *session.Manager
	taskSvc     *service.TaskService
	categorySvc *service.CategoryService
	reminderSvc *service.ReminderService
	metrics     *metrics.Metrics
	limiter     *chatLimiter
	now         func() time.Time
}

func New(cfg *config.Config, deps Deps) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	b := newBot(api, cfg, deps)
	b.poller = api
	return b, nil
}

func newBot(api sender, cfg *config.Config, deps Deps) *Bot {
	return &Bot{
		api:         api,
		sessions:    deps.Sessions,
		taskSvc:     deps.Tasks,
		categorySvc: deps.Categories,
		reminderSvc: deps.Reminders,
		metrics:     deps.Metrics,
		limiter:     newChatLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, time.Hour),
		now:         time.Now,
	}
}

// Start begins polling updates until ctx is cancelled. Updates are handled one at a time.
func (b *Bot) Start(ctx context.Context) error {
	if b.poller == nil {
		return errors.New("bot has no telegram connection")
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
		if err := b.handleUpdate(ctx, update); err != nil {
			log.Printf("handle update %d: %v", update.UpdateID, err)
		}
	}

	return ctx.Err()
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	chat := update.FromChat()
	if chat == nil {
		return nil
	}
	if !b.limiter.Allow(chat.ID) {
		log.Printf("[warn] chat=%d throttled", chat.ID)
		b.metrics.Op("update", "throttled")
		return nil
	}

	switch {
	case update.CallbackQuery != nil:
		return b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		return b.handleMessage(ctx, update.Message)
	}
	return nil
}

func (b *Bot) session(chatID int64) *session.Session {
	sess := b.sessions.Get(chatID)
	b.metrics.SetSessions(b.sessions.Len())
	return sess
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.Chat == nil {
		return nil
	}
	sess := b.session(msg.Chat.ID)

	if msg.IsCommand() {
		log.Printf("[info] command from chat=%d: /%s %s", msg.Chat.ID, msg.Command(), msg.CommandArguments())
		return b.handleCommand(ctx, sess, msg.Command(), strings.TrimSpace(msg.CommandArguments()))
	}

	// Plain text is a new task, like typing into the input box.
	if strings.TrimSpace(msg.Text) == "" {
		return nil
	}
	return b.handleAdd(sess, msg.Text)
}

func (b *Bot) handleCommand(ctx context.Context, sess *session.Session, command, args string) error {
	switch command {
	case "start", "help":
		return b.handleHelp(sess.ChatID)
	case "add":
		return b.handleAdd(sess, args)
	case "tasks":
		return b.handleListTasks(ctx, sess, args)
	case "done":
		return b.handleToggle(ctx, sess, args)
	case "edit":
		return b.handleEdit(ctx, sess, args)
	case "delete":
		return b.handleDelete(ctx, sess, args)
	case "clear":
		return b.handleClear(ctx, sess)
	case "category":
		return b.handleAddCategory(ctx, sess, args)
	case "categories":
		return b.handleCategories(ctx, sess)
	case "tag":
		return b.handleTag(ctx, sess, args)
	case "report":
		return b.handleReport(ctx, sess)
	case "export":
		return b.handleExport(ctx, sess)
	default:
		return b.sendText(sess.ChatID, "Команда не поддерживается. Загляни в /help.")
	}
}

func (b *Bot) handleHelp(chatID int64) error {
	text := "ℹ️ <b>Список задач</b>\n" +
		"• просто напиши текст — он станет новой задачей\n" +
		"• /add &lt;текст&gt; — добавить задачу\n" +
		"• /tasks [all|active|done] [N категории] — показать задачи, новые сверху\n" +
		"• /done &lt;N&gt; — отметить задачу выполненной или вернуть в работу\n" +
		"• /edit &lt;N&gt; &lt;текст&gt; — изменить текст задачи\n" +
		"• /delete &lt;N&gt; — удалить задачу\n" +
		"• /clear — убрать все выполненные\n" +
		"• /category &lt;название&gt; — добавить категорию\n" +
		"• /categories — список категорий\n" +
		"• /tag &lt;N&gt; &lt;N категории|-&gt; — назначить или снять категорию\n" +
		"• /report — сводка по открытым задачам\n" +
		"• /export — выгрузить список в PDF\n\n" +
		"N — номер задачи из последнего показанного списка."
	return b.sendText(chatID, text)
}

func (b *Bot) handleAdd(sess *session.Session, text string) error {
	task, ok := b.taskSvc.Add(sess, text, nil)
	if !ok {
		return b.sendText(sess.ChatID, "Напиши текст задачи, например: /add Купить молоко")
	}
	return b.sendText(sess.ChatID, fmt.Sprintf("➕ Задача «%s» добавлена.", escape(task.Details)))
}

func (b *Bot) handleListTasks(ctx context.Context, sess *session.Session, args string) error {
	filter := tasklist.FilterAll
	var categoryID *string
	for _, arg := range strings.Fields(args) {
		if f, ok := parseFilter(arg); ok {
			filter = f
			continue
		}
		n, err := strconv.Atoi(arg)
		if err != nil {
			return b.sendText(sess.ChatID, "Фильтр: all, active или done. Категория — её номер из /categories.")
		}
		cat, ok, err := b.categorySvc.At(ctx, sess, n)
		if err != nil {
			return err
		}
		if !ok {
			return b.sendText(sess.ChatID, "Категория не найдена. Посмотри номера в /categories.")
		}
		categoryID = &cat.ID
	}

	log.Printf("[info] list tasks chat=%d filter=%d", sess.ChatID, filter)
	return b.sendTaskList(ctx, sess, filter, categoryID)
}

func (b *Bot) sendTaskList(ctx context.Context, sess *session.Session, filter tasklist.Filter, categoryID *string) error {
	tasks := b.taskSvc.List(sess, filter, categoryID)
	if len(tasks) == 0 {
		return b.sendText(sess.ChatID, "Задач нет. Напиши текст, чтобы добавить новую.")
	}

	names, err := b.categorySvc.Names(ctx, sess)
	if err != nil {
		return err
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📋 <b>%s</b>\n\n", filterTitle(filter)))

	var buttons [][]tgbotapi.InlineKeyboardButton
	for i, task := range tasks {
		builder.WriteString(formatTask(i+1, task, names))
		if i < maxTaskButtons {
			row := tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s %d · %s", toggleIcon(task), i+1, shortTitle(task.Details, 24)), cbTogglePrefix+task.ID),
			)
			// Completed tasks leave the list through /clear only.
			if !task.Completed {
				row = append(row, tgbotapi.NewInlineKeyboardButtonData(btnDelete, cbDeletePrefix+task.ID))
			}
			buttons = append(buttons, row)
		}
	}

	return b.sendWithReplyMarkup(sess.ChatID, strings.TrimSpace(builder.String()), tgbotapi.NewInlineKeyboardMarkup(buttons...))
}

func (b *Bot) handleToggle(ctx context.Context, sess *session.Session, args string) error {
	id, ok := b.lookupTask(sess, args)
	if !ok {
		return b.sendText(sess.ChatID, "Укажи номер задачи из списка: /done 2")
	}
	return b.toggleTask(ctx, sess, id)
}

func (b *Bot) toggleTask(_ context.Context, sess *session.Session, id string) error {
	task, ok := b.taskSvc.Toggle(sess, id)
	if !ok {
		return b.sendText(sess.ChatID, "Задача не найдена.")
	}
	if task.Completed {
		return b.sendText(sess.ChatID, fmt.Sprintf("✅ Задача «%s» выполнена.", escape(task.Details)))
	}
	return b.sendText(sess.ChatID, fmt.Sprintf("↩️ Задача «%s» снова в работе.", escape(task.Details)))
}

func (b *Bot) handleEdit(_ context.Context, sess *session.Session, args string) error {
	num, text, _ := strings.Cut(args, " ")
	id, ok := b.lookupTask(sess, num)
	if !ok {
		return b.sendText(sess.ChatID, "Укажи номер и новый текст: /edit 2 Купить кефир")
	}
	current, ok := sess.Tasks.Get(id)
	if !ok {
		return b.sendText(sess.ChatID, "Задача не найдена.")
	}
	if current.Completed {
		return b.sendText(sess.ChatID, "Выполненную задачу нельзя менять. Сначала верни её в работу через /done.")
	}
	task, ok := b.taskSvc.Edit(sess, id, text)
	if !ok {
		return b.sendText(sess.ChatID, "Текст пустой или не изменился.")
	}
	return b.sendText(sess.ChatID, fmt.Sprintf("✏️ Задача обновлена: «%s».", escape(task.Details)))
}

func (b *Bot) handleDelete(ctx context.Context, sess *session.Session, args string) error {
	id, ok := b.lookupTask(sess, args)
	if !ok {
		return b.sendText(sess.ChatID, "Укажи номер задачи из списка: /delete 2")
	}
	return b.askDeleteConfirmation(ctx, sess, id)
}

func (b *Bot) askDeleteConfirmation(_ context.Context, sess *session.Session, id string) error {
	task, ok := sess.Tasks.Get(id)
	if !ok {
		return b.sendText(sess.ChatID, "Задача не найдена.")
	}
	if task.Completed {
		return b.sendText(sess.ChatID, "Выполненные задачи убираются командой /clear.")
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(btnConfirm, cbConfirmPrefix+id),
		tgbotapi.NewInlineKeyboardButtonData(btnCancel, cbCancelPrefix+id),
	))
	return b.sendWithReplyMarkup(sess.ChatID, fmt.Sprintf("Удалить задачу «%s»?", escape(task.Details)), markup)
}

func (b *Bot) deleteTask(sess *session.Session, id string) error {
	current, ok := sess.Tasks.Get(id)
	if !ok {
		return b.sendText(sess.ChatID, "Задача уже удалена.")
	}
	if current.Completed {
		return b.sendText(sess.ChatID, "Выполненные задачи убираются командой /clear.")
	}
	task, ok := b.taskSvc.Remove(sess, id)
	if !ok {
		return b.sendText(sess.ChatID, "Задача уже удалена.")
	}
	return b.sendText(sess.ChatID, fmt.Sprintf("🗑 Задача «%s» удалена.", escape(task.Details)))
}

func (b *Bot) handleClear(_ context.Context, sess *session.Session) error {
	n := b.taskSvc.ClearCompleted(sess)
	if n == 0 {
		return b.sendText(sess.ChatID, "Выполненных задач нет.")
	}
	return b.sendText(sess.ChatID, fmt.Sprintf("🧹 Убрано выполненных задач: %d.", n))
}

func (b *Bot) handleAddCategory(ctx context.Context, sess *session.Session, name string) error {
	cat, ok, err := b.categorySvc.Add(ctx, sess, name)
	if err != nil {
		return b.sendText(sess.ChatID, fmt.Sprintf("Не удалось сохранить категорию: %s", escape(err.Error())))
	}
	if !ok {
		return b.sendText(sess.ChatID, "Укажи название: /category Работа")
	}
	return b.sendText(sess.ChatID, fmt.Sprintf("🏷️ Категория «%s» добавлена.", escape(cat.Name)))
}

func (b *Bot) handleCategories(ctx context.Context, sess *session.Session) error {
	categories, err := b.categorySvc.List(ctx, sess)
	if err != nil {
		return b.sendText(sess.ChatID, fmt.Sprintf("Не удалось получить категории: %s", escape(err.Error())))
	}
	if len(categories) == 0 {
		return b.sendText(sess.ChatID, "Категорий пока нет. Добавь первую: /category Работа")
	}
	var builder strings.Builder
	builder.WriteString("📂 <b>Категории</b>\n")
	for i, cat := range categories {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, escape(strings.TrimSpace(cat.Name))))
	}
	return b.sendText(sess.ChatID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleTag(ctx context.Context, sess *session.Session, args string) error {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return b.sendText(sess.ChatID, "Формат: /tag &lt;N задачи&gt; &lt;N категории&gt; или /tag &lt;N задачи&gt; -")
	}
	id, ok := b.lookupTask(sess, fields[0])
	if !ok {
		return b.sendText(sess.ChatID, "Задача не найдена. Открой список через /tasks.")
	}

	var categoryID *string
	label := category.Uncategorized
	if fields[1] != "-" {
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return b.sendText(sess.ChatID, "Номер категории должен быть числом.")
		}
		cat, ok, err := b.categorySvc.At(ctx, sess, n)
		if err != nil {
			return err
		}
		if !ok {
			return b.sendText(sess.ChatID, "Категория не найдена. Посмотри номера в /categories.")
		}
		categoryID = &cat.ID
		label = cat.Name
	}

	task, ok := b.taskSvc.SetCategory(sess, id, categoryID)
	if !ok {
		return b.sendText(sess.ChatID, "Категория не изменилась.")
	}
	return b.sendText(sess.ChatID, fmt.Sprintf("🏷️ «%s» → %s", escape(task.Details), escape(label)))
}

func (b *Bot) handleReport(ctx context.Context, sess *session.Session) error {
	text, err := b.reminderSvc.Summary(ctx, sess, b.now())
	if err != nil {
		return b.sendText(sess.ChatID, fmt.Sprintf("Не удалось собрать сводку: %s", escape(err.Error())))
	}
	return b.sendText(sess.ChatID, text)
}

func (b *Bot) handleExport(ctx context.Context, sess *session.Session) error {
	tasks := sess.Tasks.Query(tasklist.Query{Order: tasklist.OrderNewestFirst})
	names, err := b.categorySvc.Names(ctx, sess)
	if err != nil {
		return err
	}
	data, err := report.BuildTaskPDF("Список задач", tasks, names)
	if err != nil {
		return b.sendText(sess.ChatID, fmt.Sprintf("Не удалось собрать PDF: %s", escape(err.Error())))
	}
	doc := tgbotapi.NewDocument(sess.ChatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("tasks-%s.pdf", b.now().Format("20060102")),
		Bytes: data,
	})
	doc.Caption = fmt.Sprintf("Задач в списке: %d", len(tasks))
	_, err = b.api.Send(doc)
	return err
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("callback ack: %v", err)
	}

	sess := b.session(cb.Message.Chat.ID)
	data := cb.Data
	log.Printf("[info] callback chat=%d data=%s", sess.ChatID, data)

	switch {
	case strings.HasPrefix(data, cbTogglePrefix):
		return b.toggleTask(ctx, sess, strings.TrimPrefix(data, cbTogglePrefix))
	case strings.HasPrefix(data, cbDeletePrefix):
		return b.askDeleteConfirmation(ctx, sess, strings.TrimPrefix(data, cbDeletePrefix))
	case strings.HasPrefix(data, cbConfirmPrefix):
		b.dropMarkup(cb.Message)
		return b.deleteTask(sess, strings.TrimPrefix(data, cbConfirmPrefix))
	case strings.HasPrefix(data, cbCancelPrefix):
		b.dropMarkup(cb.Message)
		return b.sendText(sess.ChatID, "Удаление отменено.")
	default:
		return nil
	}
}

// SendReports sends a summary to every open session that still has active tasks.
func (b *Bot) SendReports(ctx context.Context) error {
	now := b.now()
	for _, sess := range b.sessions.List() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if _, active, _ := sess.Tasks.Counts(); active == 0 {
			b.metrics.Report("skipped")
			continue
		}
		text, err := b.reminderSvc.Summary(ctx, sess, now)
		if err != nil {
			log.Printf("build summary for chat %d: %v", sess.ChatID, err)
			b.metrics.Report("failed")
			continue
		}
		if err := b.sendText(sess.ChatID, text); err != nil {
			log.Printf("send summary to %d: %v", sess.ChatID, err)
			b.metrics.Report("failed")
			continue
		}
		b.metrics.Report("sent")
	}
	return nil
}

func (b *Bot) lookupTask(sess *session.Session, arg string) (string, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return "", false
	}
	return b.taskSvc.Resolve(sess, n)
}

// dropMarkup removes the buttons of an answered prompt so they cannot be pressed again.
func (b *Bot) dropMarkup(msg *tgbotapi.Message) {
	edit := tgbotapi.NewEditMessageReplyMarkup(msg.Chat.ID, msg.MessageID, tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	})
	if _, err := b.api.Request(edit); err != nil {
		log.Printf("drop markup chat=%d: %v", msg.Chat.ID, err)
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	return b.sendWithReplyMarkup(chatID, text, nil)
}

// sendWithReplyMarkup sends text split into message-sized chunks; markup goes on the last one.
func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	chunks := splitMessage(text, maxMessageLen)
	for i, chunk := range chunks {
		msg := tgbotapi.NewMessage(chatID, chunk)
		msg.ParseMode = tgbotapi.ModeHTML
		if i == len(chunks)-1 && markup != nil {
			msg.ReplyMarkup = markup
		}
		if _, err := b.api.Send(msg); err != nil {
			return err
		}
	}
	return nil
}

func parseFilter(arg string) (tasklist.Filter, bool) {
	switch strings.ToLower(arg) {
	case "all", "все":
		return tasklist.FilterAll, true
	case "active", "активные":
		return tasklist.FilterActive, true
	case "done", "completed", "выполненные":
		return tasklist.FilterCompleted, true
	default:
		return tasklist.FilterAll, false
	}
}

func filterTitle(f tasklist.Filter) string {
	switch f {
	case tasklist.FilterActive:
		return "Активные задачи"
	case tasklist.FilterCompleted:
		return "Выполненные задачи"
	default:
		return "Все задачи"
	}
}

func formatTask(n int, task model.Task, names map[string]string) string {
	details := escape(shortTitle(task.Details, maxListDetails))
	line := fmt.Sprintf("%s <b>%d.</b> %s", toggleIcon(task), n, details)
	if task.Completed {
		line = fmt.Sprintf("%s <b>%d.</b> <s>%s</s>", toggleIcon(task), n, details)
	}
	if task.CategoryID != nil {
		line += fmt.Sprintf(" <i>(%s)</i>", escape(category.Label(task.CategoryID, names)))
	}
	return line + "\n"
}

func toggleIcon(task model.Task) string {
	if task.Completed {
		return iconCompleted
	}
	return iconActive
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func escape(s string) string {
	return html.EscapeString(s)
}
