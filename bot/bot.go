package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"testing-vm-bot/binder"
	"testing-vm-bot/reward"
	"testing-vm-bot/store"

	"gopkg.in/telebot.v3"
)

// Messages (English / 中文)
const (
	msgGreeting = "Hey there!\n\nTo register your testing VM to receive Plus, send us your VM ID with /register <vm_id>. Make sure your VM is running when you register. / 嗨！若要注册您的测试 VM 并领取 Plus，请使用 /register <vm_id>。请确保在注册时您的 VM 正在运行。"

	msgAlreadyRegistered = "Thank you for running a testing VM! Your VM is already registered with us. / 感谢您运行测试 VM！您的 VM 已经注册成功。"

	msgRegisterSuccess = "Your VM has been successfully registered! / 您的测试 VM 已成功注册！"

	msgInvalidVM = "What you gave me is not a valid VM ID - please double check! / 您给我的不是有效的虚拟机 ID - 请再次检查！"

	msgDeregistered = "Your VM has been deregistered. / 您的 VM 已取消注册。"

	msgNothingToClaim = "No unclaimed days yet. / 还没有未领取的天数。"

	msgRetryLater = "Something went wrong on our end - please try again in a bit. / 出了点问题，请稍后再试。"

	msgClaimInFlight = "Your previous claim is still being processed - hang tight! / 您上一次的领取请求仍在处理中，请稍候！"

	msgChooseCommand = "Choose a command: / 请选择一个命令："

	msgUptimeFmt = "Your VM has been up for %d hours. / 您的 VM 已经运行了 %d 小时。"

	msgUnclaimedFmt = "Unclaimed Plus days: %d / 未领取的 Plus 天数：%d"
)

// Bot is the Telegram surface. All ledger decisions live in the store,
// binder and claim processor; handlers only translate commands and
// outcomes to messages.
type Bot struct {
	B      *telebot.Bot
	Store  store.RecordStore
	Binder *binder.Binder

	// Claims is wired after construction because the processor sends
	// through the bot itself.
	Claims *reward.Processor

	ThresholdSecs int64

	inflight     map[int64]bool // chats with a claim mid-flight
	inflightLock sync.Mutex
}

func NewBot(token string, recs store.RecordStore, bind *binder.Binder, thresholdSecs int64) (*Bot, error) {
	pref := telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := telebot.NewBot(pref)
	if err != nil {
		return nil, err
	}

	bot := &Bot{
		B:             b,
		Store:         recs,
		Binder:        bind,
		ThresholdSecs: thresholdSecs,
		inflight:      make(map[int64]bool),
	}

	bot.registerHandlers()
	bot.publishCommands()
	return bot, nil
}

func (bot *Bot) Start() {
	bot.B.Start()
}

// Send implements the outbound side used by the notifier and the claim
// processor.
func (bot *Bot) Send(chat int64, text string) error {
	_, err := bot.B.Send(telebot.ChatID(chat), text)
	return err
}

func (bot *Bot) registerHandlers() {
	bot.B.Handle("/start", bot.handleMenu)
	bot.B.Handle("/menu", bot.handleMenu)
	bot.B.Handle("/register", bot.handleRegister)
	bot.B.Handle("/uptime", bot.handleUptime)
	bot.B.Handle("/unclaimed", bot.handleUnclaimed)
	bot.B.Handle("/claim", bot.handleClaim)
	bot.B.Handle("/deregister", bot.handleDeregister)
	bot.B.Handle(telebot.OnText, bot.handleText)
}

func (bot *Bot) publishCommands() {
	cmds := []telebot.Command{
		{Text: "register", Description: "Register your VM. Usage: /register <id> / 注册您的 VM：/register <id>"},
		{Text: "uptime", Description: "Show your VM's total uptime / 查看 VM 总运行时间"},
		{Text: "unclaimed", Description: "View unclaimed Plus days / 查看未领取的 Plus 天数"},
		{Text: "claim", Description: "Claim accumulated Plus days / 领取累计的 Plus 天数"},
		{Text: "deregister", Description: "Deregister your VM / 取消注册 VM"},
		{Text: "menu", Description: "Show command menu / 显示命令菜单"},
	}
	if err := bot.B.SetCommands(cmds); err != nil {
		slog.Warn("could not publish command list", "error", err)
	}
}

func menuMarkup(registered bool) *telebot.ReplyMarkup {
	menu := &telebot.ReplyMarkup{}
	if registered {
		menu.Inline(
			menu.Row(telebot.Btn{Text: "My VM's total uptime / 我的 VM 总运行时间", InlineQueryChat: "/uptime"}),
			menu.Row(telebot.Btn{Text: "View unclaimed Plus days / 查看未领取的 Plus 天数", InlineQueryChat: "/unclaimed"}),
			menu.Row(telebot.Btn{Text: "Claim Plus / 领取 Plus", InlineQueryChat: "/claim"}),
			menu.Row(telebot.Btn{Text: "Deregister VM / 取消注册 VM", InlineQueryChat: "/deregister"}),
		)
	} else {
		menu.Inline(
			menu.Row(telebot.Btn{Text: "Register VM / 注册 VM", InlineQueryChat: "/register "}),
		)
	}
	return menu
}

func (bot *Bot) registered(chat int64) bool {
	_, err := bot.Store.FindByChat(chat)
	return err == nil
}

// --- Handlers ---

func (bot *Bot) handleMenu(c telebot.Context) error {
	return c.Send(msgChooseCommand, menuMarkup(bot.registered(c.Chat().ID)))
}

func (bot *Bot) handleRegister(c telebot.Context) error {
	args := c.Args()
	if len(args) == 0 {
		return c.Send(msgGreeting)
	}
	chat := c.Chat().ID

	switch err := bot.Binder.Register(chat, args[0]); {
	case err == nil:
		if err := c.Send(msgRegisterSuccess); err != nil {
			return err
		}
		return c.Send(msgChooseCommand, menuMarkup(true))
	case errors.Is(err, binder.ErrAlreadyRegistered):
		return c.Send(msgAlreadyRegistered)
	case errors.Is(err, binder.ErrInvalidAgent):
		return c.Send(msgInvalidVM)
	default:
		slog.Error("registration failed", "chat", chat, "error", err)
		return c.Send(msgRetryLater)
	}
}

func (bot *Bot) handleUptime(c telebot.Context) error {
	chat := c.Chat().ID
	rec, err := bot.Store.FindByChat(chat)
	if errors.Is(err, store.ErrNotFound) {
		return c.Send(msgGreeting)
	}
	if err != nil {
		slog.Error("uptime lookup failed", "chat", chat, "error", err)
		return c.Send(msgRetryLater)
	}
	hours := rec.RawUptimeSecs / 3600
	return c.Send(fmt.Sprintf(msgUptimeFmt, hours, hours))
}

func (bot *Bot) handleUnclaimed(c telebot.Context) error {
	chat := c.Chat().ID
	rec, err := bot.Store.FindByChat(chat)
	if errors.Is(err, store.ErrNotFound) {
		return c.Send(msgGreeting)
	}
	if err != nil {
		slog.Error("unclaimed lookup failed", "chat", chat, "error", err)
		return c.Send(msgRetryLater)
	}
	days := (rec.NotifiedSecs - rec.ClaimedSecs) / bot.ThresholdSecs
	return c.Send(fmt.Sprintf(msgUnclaimedFmt, days, days))
}

func (bot *Bot) handleClaim(c telebot.Context) error {
	chat := c.Chat().ID
	if !bot.beginClaim(chat) {
		return c.Send(msgClaimInFlight)
	}
	defer bot.endClaim(chat)

	switch err := bot.Claims.Claim(chat); {
	case err == nil:
		return nil // the processor already delivered the card text
	case errors.Is(err, store.ErrNotFound):
		return c.Send(msgGreeting)
	case errors.Is(err, reward.ErrNothingToClaim):
		return c.Send(msgNothingToClaim)
	case errors.Is(err, reward.ErrRetryLater):
		return c.Send(msgRetryLater)
	default:
		slog.Error("claim failed", "chat", chat, "error", err)
		return c.Send(msgRetryLater)
	}
}

func (bot *Bot) handleDeregister(c telebot.Context) error {
	chat := c.Chat().ID
	switch err := bot.Binder.Deregister(chat); {
	case err == nil:
		return c.Send(msgDeregistered)
	case errors.Is(err, binder.ErrNotRegistered):
		return c.Send(msgGreeting)
	default:
		slog.Error("deregistration failed", "chat", chat, "error", err)
		return c.Send(msgRetryLater)
	}
}

// Any other text gets the menu when registered, the greeting otherwise.
func (bot *Bot) handleText(c telebot.Context) error {
	if bot.registered(c.Chat().ID) {
		return c.Send(msgChooseCommand, menuMarkup(true))
	}
	return c.Send(msgGreeting)
}

// beginClaim reserves the chat's claim slot. A second /claim while the
// first is still waiting on the issuer is rejected rather than queued, so
// a slow issuer response can never be redeemed twice.
func (bot *Bot) beginClaim(chat int64) bool {
	bot.inflightLock.Lock()
	defer bot.inflightLock.Unlock()
	if bot.inflight[chat] {
		return false
	}
	bot.inflight[chat] = true
	return true
}

func (bot *Bot) endClaim(chat int64) {
	bot.inflightLock.Lock()
	defer bot.inflightLock.Unlock()
	delete(bot.inflight, chat)
}
