// internal/printer/receipt.go
package printer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"receipt-service/internal/escpos"
	"receipt-service/internal/model"
)

// receiptDateLayout is what the office expects on paper
const receiptDateLayout = "02.01.2006 15:04"

// BuildReceipt maps a receipt to its ordered command sequence:
// header, customer info, line items, total, footer, feed. The sequence is
// built fresh per job and discarded after transmission.
func BuildReceipt(receipt *model.Receipt, profile escpos.PaperProfile, policy model.FormatPolicy) []escpos.Command {
	commands := []escpos.Command{
		escpos.Init(),
	}

	// Header, centered, optionally emphasized
	commands = append(commands, escpos.AlignCenter())
	if policy.BoldHeader {
		commands = append(commands, escpos.BoldOn())
	}
	commands = append(commands,
		escpos.FontDoubleHeight(),
		escpos.Text(receipt.Header),
		escpos.Feed(),
		escpos.FontNormal(),
	)
	if policy.BoldHeader {
		commands = append(commands, escpos.BoldOff())
	}
	commands = append(commands, separator(profile))

	// Customer info block
	commands = append(commands, escpos.AlignLeft())
	if receipt.CustomerName != "" {
		commands = append(commands,
			escpos.Text(receipt.CustomerName),
			escpos.Feed(),
		)
	}
	commands = append(commands,
		escpos.Text(receipt.Date.Format(receiptDateLayout)),
		escpos.Feed(),
		separator(profile),
	)

	// Line items, name left, price right
	for _, item := range receipt.Items {
		commands = append(commands,
			escpos.Text(formatItemLine(item.Name, item.Price, profile.Width())),
			escpos.Feed(),
		)
	}
	commands = append(commands, separator(profile))

	// Total
	if policy.LargeTotal {
		commands = append(commands, escpos.FontLarge(), escpos.BoldOn())
	}
	commands = append(commands,
		escpos.Text(formatItemLine("TOTAL", receipt.Total(), totalWidth(profile, policy))),
		escpos.Feed(),
	)
	if policy.LargeTotal {
		commands = append(commands, escpos.BoldOff(), escpos.FontNormal())
	}

	// Footer, centered
	if receipt.Footer != "" {
		commands = append(commands,
			escpos.AlignCenter(),
			escpos.Text(receipt.Footer),
			escpos.Feed(),
		)
	}

	// Feed the paper clear of the tear bar
	commands = append(commands, escpos.AlignLeft())
	feedLines := policy.FeedLines
	if feedLines <= 0 {
		feedLines = 1
	}
	for i := 0; i < feedLines; i++ {
		commands = append(commands, escpos.Feed())
	}

	return commands
}

// separator wraps the encoder's dash rule as a text command; the rule is
// plain ASCII, so it rides the text encode path unchanged
func separator(profile escpos.PaperProfile) escpos.Command {
	return escpos.Text(string(escpos.Separator(profile)))
}

// totalWidth accounts for the double-width font halving the column count
func totalWidth(profile escpos.PaperProfile, policy model.FormatPolicy) int {
	if policy.LargeTotal {
		return profile.Width() / 2
	}
	return profile.Width()
}

// formatItemLine pads an item name and price to the printable width. The
// printer renders one column per rune, so measurement and truncation are in
// runes, not bytes.
func formatItemLine(name string, price decimal.Decimal, width int) string {
	priceStr := price.StringFixed(2)

	maxNameWidth := width - len(priceStr) - 1
	if maxNameWidth < 4 {
		maxNameWidth = 4
	}
	if utf8.RuneCountInString(name) > maxNameWidth {
		runes := []rune(name)
		name = string(runes[:maxNameWidth-3]) + "..."
	}

	spaces := width - utf8.RuneCountInString(name) - len(priceStr)
	if spaces < 1 {
		spaces = 1
	}

	return fmt.Sprintf("%s%s%s", name, strings.Repeat(" ", spaces), priceStr)
}
