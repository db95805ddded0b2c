package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"spitr/internal/economy"
	"spitr/internal/game"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)
	faint       = color.New(color.FgHiBlack)
)

type spitsPayload struct {
	Spits []game.Spit `json:"spits"`
}

type notificationsPayload struct {
	Notifications []game.Notification `json:"notifications"`
}

type depositsPayload struct {
	Deposits []game.Deposit `json:"deposits"`
}

type inventoryPayload struct {
	Inventory []game.InventoryItem `json:"inventory"`
}

type ledgerPayload struct {
	Entries []game.LedgerRow `json:"entries"`
}

type catalogPayload struct {
	Items        []economy.Item   `json:"items"`
	Chests       map[string]int64 `json:"chests"`
	ScratchPrice int64            `json:"scratch_price"`
}

type botsPayload struct {
	Bots []game.Bot `json:"bots"`
}

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func promptRequired(label string) (string, error) {
	for {
		fmt.Printf("%s: ", label)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text != "" {
			return text, nil
		}
		printWarn(label + " is required.")
	}
}

func promptOptional(label string) (string, error) {
	fmt.Printf("%s: ", label)
	text, err := stdinReader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// promptPassword hides input on a terminal and falls back to a plain prompt when
// stdin is piped.
func promptPassword(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return promptRequired(label)
	}
	for {
		fmt.Printf("%s: ", label)
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		if text := strings.TrimSpace(string(raw)); text != "" {
			return text, nil
		}
		printWarn(label + " is required.")
	}
}

func promptInt64(label string, min int64) (int64, error) {
	for {
		text, err := promptRequired(label)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			printWarn("Enter a whole number.")
			continue
		}
		if v < min {
			printWarn(fmt.Sprintf("Value must be >= %d", min))
			continue
		}
		return v, nil
	}
}

func renderProfile(raw map[string]any) error {
	out, err := decodeInto[struct {
		Profile game.Profile `json:"profile"`
	}](raw)
	if err != nil {
		return err
	}
	p := out.Profile
	accent.Printf("\n@%s", p.Username)
	if p.DisplayName != "" {
		neutral.Printf("  %s", p.DisplayName)
	}
	fmt.Println()
	if p.Bio != "" {
		fmt.Println(p.Bio)
	}
	fmt.Printf("level %d  xp %d  hp %s\n", p.Level, p.XP, colorizeHP(p.HP, p.MaxHP, p.Destroyed))
	fmt.Printf("followers %d  following %d  spits %s  gold %s\n\n", p.Followers, p.Following, comma(p.Spits), comma(p.Gold))
	return nil
}

func renderBalances(raw map[string]any) error {
	out, err := decodeInto[struct {
		Balances game.Balances `json:"balances"`
	}](raw)
	if err != nil {
		return err
	}
	accent.Println("\n== BALANCES ==")
	fmt.Printf("%-8s %12s\n", "spits", comma(out.Balances.Spits))
	fmt.Printf("%-8s %12s\n\n", "gold", comma(out.Balances.Gold))
	return nil
}

func renderSpits(raw map[string]any) error {
	out, err := decodeInto[spitsPayload](raw)
	if err != nil {
		return err
	}
	if len(out.Spits) == 0 {
		printInfo("Nothing here yet.")
		return nil
	}
	fmt.Println()
	for _, s := range out.Spits {
		renderSpit(s)
	}
	return nil
}

func renderSpit(s game.Spit) {
	accent.Printf("@%s", s.Username)
	faint.Printf("  #%d  %s\n", s.ID, s.CreatedAt.Local().Format("Jan 02 15:04"))
	if s.Destroyed {
		danger.Println("[destroyed]")
	} else {
		fmt.Println(s.Content)
	}
	faint.Printf("likes %d  respits %d  replies %d  hp %d\n\n", s.Likes, s.Respits, s.Replies, s.HP)
}

func renderNotifications(raw map[string]any) error {
	out, err := decodeInto[notificationsPayload](raw)
	if err != nil {
		return err
	}
	if len(out.Notifications) == 0 {
		printInfo("No notifications.")
		return nil
	}
	for _, n := range out.Notifications {
		mark := " "
		if !n.Read {
			mark = "*"
		}
		fmt.Printf("%s %-16s %s  %s\n", mark, n.Type, n.CreatedAt.Local().Format("Jan 02 15:04"), n.Body)
	}
	return nil
}

func renderDeposits(raw map[string]any) error {
	out, err := decodeInto[depositsPayload](raw)
	if err != nil {
		return err
	}
	accent.Println("\n== DEPOSITS ==")
	if len(out.Deposits) == 0 {
		printInfo("No open deposits.")
		return nil
	}
	fmt.Printf("%-6s %-8s %-6s %11s %8s %11s %s\n", "ID", "KIND", "CUR", "PRINCIPAL", "RATE", "VALUE", "MATURES")
	for _, d := range out.Deposits {
		matures := "-"
		if d.MaturesAt != nil {
			matures = d.MaturesAt.Local().Format("Jan 02 15:04")
			if d.Matured {
				matures = success.Sprint("matured")
			}
		}
		fmt.Printf("%-6d %-8s %-6s %11s %7.2f%% %11s %s\n",
			d.ID, d.Kind, d.Currency, comma(d.Principal), d.Rate*100, comma(d.Value), matures)
	}
	fmt.Println()
	return nil
}

func renderCatalog(raw map[string]any) error {
	out, err := decodeInto[catalogPayload](raw)
	if err != nil {
		return err
	}
	accent.Println("\n== SHOP ==")
	fmt.Printf("%-16s %-8s %-18s %8s\n", "ITEM", "KIND", "NAME", "GOLD")
	for _, it := range out.Items {
		fmt.Printf("%-16s %-8s %-18s %8s\n", it.Type, it.Kind, it.Name, comma(it.PriceGold))
	}
	rarities := make([]string, 0, len(out.Chests))
	for r := range out.Chests {
		rarities = append(rarities, r)
	}
	sort.Slice(rarities, func(i, j int) bool { return out.Chests[rarities[i]] < out.Chests[rarities[j]] })
	fmt.Println()
	for _, r := range rarities {
		fmt.Printf("%s chest: %s gold\n", r, comma(out.Chests[r]))
	}
	faint.Printf("Scratch ticket: %d spits\n\n", out.ScratchPrice)
	return nil
}

func renderInventory(raw map[string]any) error {
	out, err := decodeInto[inventoryPayload](raw)
	if err != nil {
		return err
	}
	if len(out.Inventory) == 0 {
		printInfo("Inventory is empty.")
		return nil
	}
	fmt.Printf("%-16s %-8s %6s\n", "ITEM", "KIND", "QTY")
	for _, it := range out.Inventory {
		fmt.Printf("%-16s %-8s %6d\n", it.Item.Type, it.Item.Kind, it.Quantity)
	}
	return nil
}

func renderLedger(raw map[string]any) error {
	out, err := decodeInto[ledgerPayload](raw)
	if err != nil {
		return err
	}
	if len(out.Entries) == 0 {
		printInfo("No ledger entries.")
		return nil
	}
	fmt.Printf("%-17s %-18s %10s %12s\n", "WHEN", "TYPE", "AMOUNT", "BALANCE")
	for _, e := range out.Entries {
		fmt.Printf("%-17s %-18s %10s %12s\n",
			e.CreatedAt.Local().Format("Jan 02 15:04:05"), e.Type, colorizeAmount(e.Amount), comma(e.BalanceAfter))
	}
	return nil
}

func renderBots(raw map[string]any) error {
	out, err := decodeInto[botsPayload](raw)
	if err != nil {
		return err
	}
	if len(out.Bots) == 0 {
		printInfo("No bots yet. Create one with `spitr bots create <name>`.")
		return nil
	}
	fmt.Printf("%-40s %-24s %-13s\n", "ID", "USERNAME", "STRATEGY")
	for _, b := range out.Bots {
		fmt.Printf("%-40s %-24s %-13s\n", b.ID, truncate(b.Username, 24), b.Config.Strategy)
	}
	return nil
}

// renderResult prints a mutating call's payload as sorted key/value lines.
func renderResult(raw map[string]any, successMessage string) error {
	if successMessage != "" {
		printSuccess(successMessage)
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		if k != "success" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		body, err := json.MarshalIndent(raw[k], "", "  ")
		if err != nil {
			return err
		}
		faint.Printf("%s: ", k)
		fmt.Println(string(body))
	}
	return nil
}

func decodeInto[T any](in any) (T, error) {
	var out T
	raw, err := json.Marshal(in)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}

func colorizeHP(hp, maxHP int64, destroyed bool) string {
	text := fmt.Sprintf("%d/%d", hp, maxHP)
	switch {
	case destroyed:
		return danger.Sprint(text + " destroyed")
	case maxHP > 0 && hp*4 < maxHP:
		return warn.Sprint(text)
	default:
		return success.Sprint(text)
	}
}

func colorizeAmount(v int64) string {
	text := comma(v)
	if v > 0 {
		text = "+" + text
	}
	switch {
	case v > 0:
		return success.Sprint(text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func comma(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return sign + s
	}
	var b strings.Builder
	b.WriteString(sign)
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
		b.WriteByte(',')
	}
	for i := pre; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
