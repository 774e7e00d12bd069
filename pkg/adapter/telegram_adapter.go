package adapter

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"menubot/bot-app/pkg/log"
	"menubot/bot-app/pkg/model"
	"menubot/bot-app/pkg/session"
)

// TelegramAdapter bridges the Telegram Bot API and the session engine.
// Messages and reply-keyboard presses become text input, forwarded messages
// become identity input and inline-keyboard presses become the command
// encoded in their callback data.
type TelegramAdapter struct {
	bot            *telego.Bot
	sessionManager *session.SessionManager
	cfg            *model.Config
	logger         *log.Logger

	// Capture targets for the next message of a chat. Attaching content and
	// renaming need a follow-up message that only the transport can claim.
	captureMu      sync.Mutex
	pendingContent map[int64]int
	pendingRename  map[int64]int
	mediaGroups    map[int64]mediaGroupRef

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// mediaGroupRef remembers which button an in-flight Telegram album is being
// attached to, so every item of the album lands on the same button.
type mediaGroupRef struct {
	groupID  string
	buttonID int
}

// NewTelegramAdapter creates a Telegram adapter from the configured token.
func NewTelegramAdapter(am *AdapterManager, cfg *model.Config, logger *log.Logger) (*TelegramAdapter, error) {
	bot, err := telego.NewBot(cfg.TelegramToken, telego.WithDefaultLogger(false, true))
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &TelegramAdapter{
		bot:            bot,
		sessionManager: am.SessionManager(),
		cfg:            cfg,
		logger:         logger,
		pendingContent: make(map[int64]int),
		pendingRename:  make(map[int64]int),
		mediaGroups:    make(map[int64]mediaGroupRef),
	}, nil
}

// GetType returns the adapter type.
func (a *TelegramAdapter) GetType() string {
	return "telegram"
}

// AdapterStart begins long polling for updates.
func (a *TelegramAdapter) AdapterStart() error {
	a.ctx, a.cancel = context.WithCancel(context.Background())

	params := &telego.GetUpdatesParams{Timeout: a.cfg.TelegramPollTimeoutSec}
	updates, err := a.bot.UpdatesViaLongPolling(a.ctx, params)
	if err != nil {
		a.cancel()
		return fmt.Errorf("failed to start long polling: %w", err)
	}

	a.wg.Add(1)
	go a.updateLoop(updates)
	return nil
}

// AdapterStop stops long polling and waits for the update loop to drain.
func (a *TelegramAdapter) AdapterStop() error {
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()
	return nil
}

func (a *TelegramAdapter) updateLoop(updates <-chan telego.Update) {
	defer a.wg.Done()

	for update := range updates {
		switch {
		case update.Message != nil:
			a.handleMessage(update.Message)
		case update.CallbackQuery != nil:
			a.handleCallback(update.CallbackQuery)
		}
	}
}

func (a *TelegramAdapter) handleMessage(msg *telego.Message) {
	if msg.From == nil {
		return
	}
	userID := msg.From.ID
	chatID := msg.Chat.ID
	key := sessionKey(userID)

	a.sessionManager.SessionGetOrCreate(key, userID, displayName(msg.From))

	if msg.Text == "/start" {
		a.clearCaptures(chatID)
		a.runAndSend(key, chatID, model.Command{Scope: "session", Operation: "start"})
		return
	}

	if origin, ok := msg.ForwardOrigin.(*telego.MessageOriginUser); ok {
		args := []string{strconv.FormatInt(origin.SenderUser.ID, 10), displayName(&origin.SenderUser)}
		a.runAndSend(key, chatID, model.Command{Scope: "input", Operation: "identity", Args: args})
		return
	}

	if cmd, claimed := a.claimCapture(chatID, msg); claimed {
		a.runAndSend(key, chatID, cmd)
		return
	}

	if msg.Text != "" {
		a.runAndSend(key, chatID, model.Command{Scope: "input", Operation: "text", Args: []string{msg.Text}})
	}
}

// claimCapture resolves a message against the chat's capture state: a
// pending rename eats the next text, a pending content target eats the next
// message, and album items follow their group to the same button.
func (a *TelegramAdapter) claimCapture(chatID int64, msg *telego.Message) (model.Command, bool) {
	a.captureMu.Lock()
	defer a.captureMu.Unlock()

	if buttonID, ok := a.pendingRename[chatID]; ok && msg.Text != "" {
		delete(a.pendingRename, chatID)
		if _, reserved := navLabel(msg.Text); reserved {
			return model.Command{}, false
		}
		return model.Command{
			Scope:     "button",
			Operation: "rename",
			Args:      []string{strconv.Itoa(buttonID), msg.Text},
		}, true
	}

	if buttonID, ok := a.pendingContent[chatID]; ok {
		delete(a.pendingContent, chatID)
		if _, reserved := navLabel(msg.Text); reserved {
			return model.Command{}, false
		}
		if cmd, ok := contentCommand(buttonID, msg); ok {
			if msg.MediaGroupID != "" {
				a.mediaGroups[chatID] = mediaGroupRef{groupID: msg.MediaGroupID, buttonID: buttonID}
			}
			return cmd, true
		}
		return model.Command{}, false
	}

	if ref, ok := a.mediaGroups[chatID]; ok {
		if msg.MediaGroupID == ref.groupID {
			if cmd, ok := contentCommand(ref.buttonID, msg); ok {
				return cmd, true
			}
		} else {
			delete(a.mediaGroups, chatID)
		}
	}

	return model.Command{}, false
}

// contentCommand builds a content add command from whatever the message
// carries. Returns false for messages with nothing attachable.
func contentCommand(buttonID int, msg *telego.Message) (model.Command, bool) {
	var kind model.ContentKind
	var fileID string
	text := msg.Caption

	switch {
	case len(msg.Photo) > 0:
		kind = model.ContentPhoto
		fileID = msg.Photo[len(msg.Photo)-1].FileID
	case msg.Video != nil:
		kind = model.ContentVideo
		fileID = msg.Video.FileID
	case msg.Document != nil:
		kind = model.ContentDocument
		fileID = msg.Document.FileID
	case msg.Audio != nil:
		kind = model.ContentAudio
		fileID = msg.Audio.FileID
	case msg.Voice != nil:
		kind = model.ContentVoice
		fileID = msg.Voice.FileID
	case msg.Text != "":
		kind = model.ContentText
		text = msg.Text
	default:
		return model.Command{}, false
	}

	args := []string{strconv.Itoa(buttonID), string(kind)}
	if fileID != "" {
		args = append(args, fileID)
	} else {
		args = append(args, "-")
	}
	if msg.MediaGroupID != "" {
		args = append(args, msg.MediaGroupID)
	} else {
		args = append(args, "-")
	}
	if text != "" {
		args = append(args, text)
	}
	return model.Command{Scope: "content", Operation: "add", Args: args}, true
}

func (a *TelegramAdapter) handleCallback(query *telego.CallbackQuery) {
	userID := query.From.ID
	chatID := callbackChatID(query)
	key := sessionKey(userID)

	a.sessionManager.SessionGetOrCreate(key, userID, displayName(&query.From))

	cmd, err := decodeCallback(query.Data)
	if err != nil {
		a.logger.Warn(context.Background(), "Invalid callback data", log.Fields{"data": query.Data, "error": err})
	} else {
		a.armCapture(chatID, cmd)
		a.runAndSend(key, chatID, cmd)
	}

	if err := a.bot.AnswerCallbackQuery(a.ctx, &telego.AnswerCallbackQueryParams{CallbackQueryID: query.ID}); err != nil {
		a.logger.Warn(context.Background(), "Failed to answer callback query", log.Fields{"error": err})
	}
}

// armCapture registers follow-up capture for commands that need the next
// message of the chat.
func (a *TelegramAdapter) armCapture(chatID int64, cmd model.Command) {
	if len(cmd.Args) != 1 {
		return
	}
	buttonID, err := strconv.Atoi(cmd.Args[0])
	if err != nil {
		return
	}

	a.captureMu.Lock()
	defer a.captureMu.Unlock()

	switch {
	case cmd.Scope == "button" && cmd.Operation == "rename":
		a.pendingRename[chatID] = buttonID
	case cmd.Scope == "content" && cmd.Operation == "add":
		a.pendingContent[chatID] = buttonID
	}
}

func (a *TelegramAdapter) clearCaptures(chatID int64) {
	a.captureMu.Lock()
	defer a.captureMu.Unlock()
	delete(a.pendingRename, chatID)
	delete(a.pendingContent, chatID)
	delete(a.mediaGroups, chatID)
}

// runAndSend executes a command and delivers its renders. When the pass-
// through path is taken after a reserved label cleared a capture, the label
// is re-run as ordinary text input.
func (a *TelegramAdapter) runAndSend(key string, chatID int64, cmd model.Command) {
	renders, err := a.sessionManager.CommandRun(key, cmd)
	if err != nil {
		a.logger.Error(context.Background(), "Command failed", log.Fields{"key": key, "scope": cmd.Scope, "operation": cmd.Operation, "error": err})
		return
	}
	a.sendRenders(chatID, renders)
}

func (a *TelegramAdapter) sendRenders(chatID int64, renders []model.Render) {
	for _, r := range renders {
		var err error
		switch v := r.(type) {
		case model.RenderMenu:
			err = a.sendMenu(chatID, v)
		case model.RenderText:
			_, err = a.bot.SendMessage(a.ctx, tu.Message(tu.ID(chatID), v.Text))
		case model.RenderPrompt:
			_, err = a.bot.SendMessage(a.ctx, tu.Message(tu.ID(chatID), v.Text))
		case model.RenderContent:
			err = a.sendContent(chatID, v)
		case model.RenderManage:
			err = a.sendManage(chatID, v)
		case model.RenderAdminList:
			var sb strings.Builder
			sb.WriteString("Current admins:\n")
			for _, admin := range v.Admins {
				fmt.Fprintf(&sb, "%d %s\n", admin.UserID, admin.DisplayName)
			}
			_, err = a.bot.SendMessage(a.ctx, tu.Message(tu.ID(chatID), sb.String()))
		}
		if err != nil {
			a.logger.Error(context.Background(), "Failed to send render", log.Fields{"chatID": chatID, "error": err})
		}
	}
}

// sendMenu presents child labels as a reply keyboard, two per row, with the
// navigation labels on trailing rows.
func (a *TelegramAdapter) sendMenu(chatID int64, menu model.RenderMenu) error {
	var rows [][]telego.KeyboardButton
	for i := 0; i < len(menu.Labels); i += 2 {
		row := []telego.KeyboardButton{tu.KeyboardButton(menu.Labels[i])}
		if i+1 < len(menu.Labels) {
			row = append(row, tu.KeyboardButton(menu.Labels[i+1]))
		}
		rows = append(rows, row)
	}
	for i := 0; i < len(menu.NavLabels); i += 2 {
		row := []telego.KeyboardButton{tu.KeyboardButton(menu.NavLabels[i])}
		if i+1 < len(menu.NavLabels) {
			row = append(row, tu.KeyboardButton(menu.NavLabels[i+1]))
		}
		rows = append(rows, row)
	}

	params := tu.Message(tu.ID(chatID), menu.Title)
	if len(rows) > 0 {
		params = params.WithReplyMarkup(tu.Keyboard(rows...).WithResizeKeyboard())
	} else {
		params = params.WithReplyMarkup(&telego.ReplyKeyboardRemove{RemoveKeyboard: true})
	}
	_, err := a.bot.SendMessage(a.ctx, params)
	return err
}

func (a *TelegramAdapter) sendContent(chatID int64, content model.RenderContent) error {
	var err error
	switch content.Kind {
	case model.ContentPhoto:
		params := tu.Photo(tu.ID(chatID), tu.FileFromID(content.FileID))
		if content.Text != "" {
			params = params.WithCaption(content.Text)
		}
		_, err = a.bot.SendPhoto(a.ctx, params)
	case model.ContentVideo:
		params := tu.Video(tu.ID(chatID), tu.FileFromID(content.FileID))
		if content.Text != "" {
			params = params.WithCaption(content.Text)
		}
		_, err = a.bot.SendVideo(a.ctx, params)
	case model.ContentDocument:
		params := tu.Document(tu.ID(chatID), tu.FileFromID(content.FileID))
		if content.Text != "" {
			params = params.WithCaption(content.Text)
		}
		_, err = a.bot.SendDocument(a.ctx, params)
	case model.ContentAudio:
		params := tu.Audio(tu.ID(chatID), tu.FileFromID(content.FileID))
		if content.Text != "" {
			params = params.WithCaption(content.Text)
		}
		_, err = a.bot.SendAudio(a.ctx, params)
	case model.ContentVoice:
		params := tu.Voice(tu.ID(chatID), tu.FileFromID(content.FileID))
		if content.Text != "" {
			params = params.WithCaption(content.Text)
		}
		_, err = a.bot.SendVoice(a.ctx, params)
	default:
		_, err = a.bot.SendMessage(a.ctx, tu.Message(tu.ID(chatID), content.Text))
	}
	return err
}

// sendManage presents management actions as an inline keyboard, two per row,
// each button carrying its encoded command.
func (a *TelegramAdapter) sendManage(chatID int64, manage model.RenderManage) error {
	var rows [][]telego.InlineKeyboardButton
	for i := 0; i < len(manage.Actions); i += 2 {
		row := []telego.InlineKeyboardButton{inlineButton(manage.Actions[i])}
		if i+1 < len(manage.Actions) {
			row = append(row, inlineButton(manage.Actions[i+1]))
		}
		rows = append(rows, row)
	}

	params := tu.Message(tu.ID(chatID), manage.Title).
		WithReplyMarkup(tu.InlineKeyboard(rows...))
	_, err := a.bot.SendMessage(a.ctx, params)
	return err
}

func inlineButton(action model.ManageAction) telego.InlineKeyboardButton {
	return tu.InlineKeyboardButton(action.Label).WithCallbackData(encodeCallback(action.Command))
}

// encodeCallback packs a command into callback data as colon-separated
// fields. Telegram limits callback data to 64 bytes, which ids and move
// directions fit comfortably.
func encodeCallback(cmd model.Command) string {
	fields := append([]string{cmd.Scope, cmd.Operation}, cmd.Args...)
	return strings.Join(fields, ":")
}

func decodeCallback(data string) (model.Command, error) {
	fields := strings.Split(data, ":")
	if len(fields) < 2 || fields[0] == "" || fields[1] == "" {
		return model.Command{}, fmt.Errorf("malformed callback data %q", data)
	}
	return model.Command{Scope: fields[0], Operation: fields[1], Args: fields[2:]}, nil
}

// callbackChatID resolves where replies to an inline-button press go: the
// chat the keyboard was shown in when known, the user's private chat
// otherwise.
func callbackChatID(query *telego.CallbackQuery) int64 {
	if query.Message != nil {
		return query.Message.GetChat().ID
	}
	return query.From.ID
}

// navLabel reports whether text is one of the core's reserved labels, which
// must fall through to ordinary text handling even while a capture is armed.
func navLabel(text string) (string, bool) {
	switch text {
	case session.LabelBack, session.LabelMainMenu, session.LabelStopEditing,
		session.LabelButtonsEditor, session.LabelPostsEditor, session.LabelAdmins:
		return text, true
	}
	return "", false
}

func sessionKey(userID int64) string {
	return fmt.Sprintf("telegram:%d", userID)
}

func displayName(user *telego.User) string {
	if user == nil {
		return ""
	}
	if user.Username != "" {
		return user.Username
	}
	return strings.TrimSpace(user.FirstName + " " + user.LastName)
}
