package custos

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/core-coin/custos/internal/models"
	"github.com/core-coin/custos/internal/session"
)

const (
	wrongCommandText = "You entered a wrong command! Please, check all available command: /help or /help_help"
	needWalletText   = "To perform this action you need a Wallet, create a new one with /start command."
	walletExistsText = "You have already created a wallet on this bot!"
	keyReceivedText  = "> #KEY received... processing..."
	genericErrorText = "Sorry, something went wrong on our side. Please retry later."
	donationOffText  = "Donations are not enabled on this bot."
	priceErrorText   = "Sorry, IOTA prices are not available right now. Please retry later."
	nodeErrorText    = "Sorry, the node is not reachable right now. Please retry later."

	unavailableText = "Sorry, this Bot is not yet ready! To keep up-to-date:" +
		"\nhttps://t.me/france193_IOTAWalletBot_channel"

	welcomeText = "Welcome to @%s!" +
		"\n\n > A new SEED has been created just for you and has been associated with your Telegram ID." +
		"\n > The SEED of the wallet has been encrypted and only you can access to it providing the encryption KEY." +
		"\n > At each interaction with your wallet the Bot will ask the last KEY to access your SEED. " +
		"Every time the SEED will be decrypted and then re-encrypted with a new random KEY." +
		"\n\n To know all available commands: /help or /help_help" +
		"\n\n (!) WARNING: the KEY is not stored in any form on the bot. If you lose it you will not " +
		"be able to access your wallet anymore!" +
		"\n (!) WARNING: NEVER DELETE WALLET CHAT HISTORY IN ORDER TO NEVER LOSE ANY KEY!" +
		"\n\nKEY%d:"

	helpText = "ALL BOT COMMANDS" +
		"\n\n > COMMANDS AVAILABLE ONLY IN PRIVATE CHAT" +
		"\n --> /start" +
		"\n --> /wallet_balance" +
		"\n --> /get_address" +
		"\n --> /send_iota_to_address" +
		"\n --> /donate" +
		"\n\n > COMMANDS AVAILABLE EVERYWHERE" +
		"\n --> /help" +
		"\n --> /help_help" +
		"\n --> /node_info" +
		"\n --> /iota_prices" +
		"\n\nPLEASE NOTICE THAT THE GOAL OF THIS BOT IS TO PERMITS EASY PAYMENTS ON THE GO WITH IOTA NOT TO STORE " +
		"LARGE QUANTITIES OF IOTA!"

	helpHelpText = "ALL BOT COMMANDS" +
		"\n\n > COMMANDS AVAILABLE ONLY IN PRIVATE CHAT" +
		"\n --> /start\nThis is the first command sent when you start the bot for the first time: create your wallet. " +
		"All the instruction for the wallet will be sent to you." +
		"\n --> /wallet_balance\nYou will be asked for your last key and then you'll receive your wallet balance." +
		"\n --> /get_address\nIf you want to receive a payment from someone you'll need an address! " +
		"You will be asked for your last key." +
		"\n --> /send_iota_to_address\nYou'll need to specify the recipient address, your last key and the " +
		"amount you want to send, then your payment will be done." +
		"\n --> /donate\nIf you want to support the development of this bot a donation will be very nice." +
		"\n\n > COMMANDS AVAILABLE EVERYWHERE" +
		"\n --> /help\nPrint this command list any time you'll need it." +
		"\n --> /node_info\nPrint out all information regarding the full node used by this bot." +
		"\n --> /iota_prices\nRetrieve IOTA/USD($) prices." +
		"\n\nPLEASE NOTICE THAT THE GOAL OF THIS BOT IS TO PERMITS EASY PAYMENTS ON THE GO WITH IOTA NOT TO STORE " +
		"LARGE QUANTITIES OF IOTA!"
)

// command returns the slash command that starts op.
func command(op session.Op) string {
	return "/" + string(op)
}

func groupNoticeText(op session.Op, botUsername string) string {
	var what string
	switch op {
	case session.OpBalance:
		what = "retrieve your personal wallet balance"
	case session.OpAddress:
		what = "generate a new address from your personal wallet"
	case session.OpSend:
		what = "send IOTA from your personal wallet"
	case session.OpDonate:
		what = "donate some IOTA to support this bot"
	default:
		what = "create your personal wallet on this bot"
	}
	return fmt.Sprintf("This command %s and can be used only on the private chat with the bot, please check @%s.",
		what, botUsername)
}

func promptText(op session.Op, keyNum int) string {
	switch op {
	case session.OpBalance:
		return fmt.Sprintf("Please send me your #KEY_%d to know your wallet balance:", keyNum)
	case session.OpAddress:
		return fmt.Sprintf("Please send me your #KEY_%d to get an address from your wallet:", keyNum)
	case session.OpSend:
		return fmt.Sprintf("To perform this payment, please send me: "+
			"\n - your #KEY_%d to decrypt your SEED."+
			"\n - the amount of IOTA you want to send."+
			"\n - the #ADDRESS you want to send those IOTA."+
			"\n\n(!) Each one must be separated with 1 space! (!)", keyNum)
	case session.OpDonate:
		return fmt.Sprintf("Thank you for supporting this bot!"+
			"\nTo confirm your donation, send me:"+
			"\n - your #KEY_%d to decrypt your SEED."+
			"\n - the amount of IOTA you want to donate."+
			"\n\n(!) Each one must be separated with 1 space! (!)", keyNum)
	}
	return ""
}

func strayText(op session.Op) string {
	return fmt.Sprintf("An error occurred waiting for the key, if you want to retry: retype %s.", command(op))
}

func wrongKeyText(op session.Op) string {
	return fmt.Sprintf("Wrong key, if you want to retry: retype %s and send me the correct key.", command(op))
}

func malformedInputText(op session.Op) string {
	switch op {
	case session.OpSend:
		return "Please send me your KEY, the AMOUNT and the ADDRESS separated by 1 space, or retype /send_iota_to_address."
	case session.OpDonate:
		return "Please send me your KEY and the AMOUNT separated by 1 space, or retype /donate."
	}
	return fmt.Sprintf("Please send me only your KEY, or retype %s.", command(op))
}

func seedErrorText(op session.Op) string {
	return fmt.Sprintf("There was an error decrypting your SEED. Please ensure to pass the correct key. "+
		"If you want to retry: retype %s.", command(op))
}

func keyActiveText(keyNum int) string {
	return fmt.Sprintf(" > #KEY_%d is active!", keyNum)
}

func nextKeyText(keyNum int) string {
	return fmt.Sprintf("You will receive the #KEY_%d.", keyNum)
}

// failureText maps the error of a wallet operation to the text sent with the
// new key. Error strings never reach the user.
func failureText(op session.Op, err error) string {
	var b strings.Builder
	switch op {
	case session.OpBalance:
		b.WriteString("FAILED TO GET WALLET BALANCE\nThere was an error getting your wallet balance.")
	case session.OpAddress:
		b.WriteString("FAILED TO GENERATE A NEW ADDRESS\nThere was an error generating the new address.")
	case session.OpSend:
		b.WriteString("PAYMENT FAILED\nThere was an error performing your payment.")
	case session.OpDonate:
		b.WriteString("DONATION FAILED\nThere was an error performing your donation.")
	}

	switch {
	case errors.Is(err, models.ErrInvalidSeed):
		b.WriteString("\nThere was an error decrypting your SEED.")
	case errors.Is(err, models.ErrInvalidAddress):
		b.WriteString("\nThe address you provided it is not valid.")
	case errors.Is(err, models.ErrInvalidAmount):
		b.WriteString("\nThe amount must be a positive number of IOTA.")
	case errors.Is(err, models.ErrInsufficientFunds):
		b.WriteString("\nYour balance is not enough for this payment.")
	case errors.Is(err, models.ErrAddressAlreadyUsed):
		b.WriteString("\nIt is possible that this recipient address has already been used. " +
			"For security reason provide another recipient address.")
	case errors.Is(err, models.ErrAddressAlreadyUsedAsInput):
		b.WriteString("\nIt is possible that this recipient address has already been used as input. " +
			"For security reason provide another recipient address.")
	case errors.Is(err, models.ErrDatabase):
		b.WriteString("\nThere was an error accessing to seed's addresses.")
	case errors.Is(err, models.ErrNetwork):
		b.WriteString("\nThe node did not answer, your funds were not moved.")
	}
	fmt.Fprintf(&b, "\nIf you want to retry: retype %s.", command(op))
	return b.String()
}

var units = []struct {
	name string
	size int64
}{
	{"Pi", 1_000_000_000_000_000},
	{"Ti", 1_000_000_000_000},
	{"Gi", 1_000_000_000},
	{"Mi", 1_000_000},
	{"Ki", 1_000},
}

// formatAmount renders a balance in the largest unit it reaches, e.g. 1500 as "1.5 Ki".
func formatAmount(balance int64) string {
	for _, u := range units {
		if balance >= u.size {
			return strconv.FormatFloat(float64(balance)/float64(u.size), 'f', -1, 64) + " " + u.name
		}
	}
	return strconv.FormatInt(balance, 10) + " i"
}

func balanceText(balance int64, price float64, havePrice bool) string {
	text := "WALLET BALANCE\n> Your balance is: " + formatAmount(balance)
	if havePrice {
		dollars := price / 1_000_000 * float64(balance)
		text += fmt.Sprintf("\n>  ~%.2f $ (1 MIOTA is %.2f $)", dollars, price)
	}
	return text
}

func addressText(index uint64) string {
	return fmt.Sprintf("ADDRESS GENERATED\n(share it to receive IOTA)\n\n#ADDRESS_%d:", index)
}

func transferText(op session.Op, amount int64, bundle, explorerURL, reattachURL string) string {
	var b strings.Builder
	if op == session.OpDonate {
		fmt.Fprintf(&b, "DONATION SENT\nYour donation of %d IOTA is on the way!", amount)
	} else {
		fmt.Fprintf(&b, "PAYMENT SENT\nYour payment of %d IOTA is on the way!", amount)
	}
	fmt.Fprintf(&b, "\n\n > The bundle of your transaction is:\n%s", bundle)
	fmt.Fprintf(&b, "\n\n > If you want to see your transaction confirmation status:\n%s%s", explorerURL, bundle)
	fmt.Fprintf(&b, "\n\n > If you want to speed up the confirmation: %s", reattachURL)
	if op == session.OpDonate {
		b.WriteString("\n\nThank you for your support!")
	}
	return b.String()
}

func nodeInfoText(info *models.NodeInfo) string {
	return "NODE INFO" +
		"\n - Node: " + info.Node +
		"\n - App Name: " + info.AppName +
		"\n - App Version: " + info.AppVersion +
		"\n - Milestone: " + strconv.FormatInt(info.LatestMilestoneIndex, 10) +
		"\n - Solid Subtangle Milestone: " + strconv.FormatInt(info.LatestSolidSubtangleMilestoneIndex, 10) +
		"\n - Neighbors: " + strconv.FormatInt(info.Neighbors, 10) +
		"\n - Time: " + time.UnixMilli(info.Time).UTC().Format("02/01/2006 @ 15:04:05") +
		"\n - Tips: " + strconv.FormatInt(info.Tips, 10) +
		"\n - Transactions To Request: " + strconv.FormatInt(info.TransactionsToRequest, 10) +
		"\n - Duration: " + strconv.FormatInt(info.Duration, 10)
}

func pricesText(price float64) string {
	return fmt.Sprintf("IOTA PRICES (bitfinex)\n - 1 MIOTA is %.2f $.\n - 1 $ is %.2f MIOTA.", price, 1/price)
}
