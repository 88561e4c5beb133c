package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Intent is what a user command asks for
type Intent string

const (
	IntentCompetitor Intent = "competitor"
	IntentUsed       Intent = "used"
	IntentEdit       Intent = "edit"
	IntentUnknown    Intent = "unknown"
)

// EditField names the product field an edit command changes
type EditField string

const (
	EditQuantity  EditField = "quantity"
	EditSalePrice EditField = "salePrice"
)

// EditCommand is a locally understood product edit
type EditCommand struct {
	Field       EditField
	ProductName string
	Quantity    int
	SalePrice   decimal.Decimal
}

// Name extraction patterns, tried in order. The first capture group is the name.
var productNamePatterns = []*regexp.Regexp{
	// найди цену на <name> у конкурентов / найди б/у цену на <name>
	regexp.MustCompile(`(?i)найди.*?(?:цену|б/у).*?на\s+(.+?)(?:\s+у(?:\s|$)|\s*$)`),
	// find competitor price for <name> / find used price on Avito for <name>
	regexp.MustCompile(`(?i)find\b.*?\bprice\b.*?\bfor\s+(.+?)(?:\s+(?:at|on|from)\s.*)?\s*$`),
	// измени количество <name> на 5
	regexp.MustCompile(`(?i)измени.*?количество\s+(.+?)\s+на(?:\s|$)`),
	// update quantity of <name> to 5
	regexp.MustCompile(`(?i)(?:update|change|set)\s+(?:the\s+)?quantity\s+(?:of\s+)?(.+?)\s+to\s+\d`),
	// установи цену продажи <name> 95000
	regexp.MustCompile(`(?i)установи\s+цену(?:\s+продажи)?\s+(.+)\s+\d+(?:[.,]\d+)?\s*(?:₽|руб\.?)?\s*$`),
	// set sale price of <name> to 95000
	regexp.MustCompile(`(?i)set\s+(?:the\s+)?sale\s+price\s+(?:of|for)\s+(.+?)\s+(?:to\s+)?\d+(?:[.,]\d+)?\s*(?:₽|rub\w*)?\s*$`),
}

var (
	quantityEditPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)измени.*?количество\s+(.+?)\s+на\s+(\d+)`),
		regexp.MustCompile(`(?i)(?:update|change|set)\s+(?:the\s+)?quantity\s+(?:of\s+)?(.+?)\s+to\s+(\d+)`),
	}
	salePriceEditPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)установи\s+цену(?:\s+продажи)?\s+(.+)\s+(\d+(?:[.,]\d+)?)\s*(?:₽|руб\.?)?\s*$`),
		regexp.MustCompile(`(?i)set\s+(?:the\s+)?sale\s+price\s+(?:of|for)\s+(.+?)\s+(?:to\s+)?(\d+(?:[.,]\d+)?)\s*(?:₽|rub\w*)?\s*$`),
	}
)

var editKeywords = []string{"измени", "установи", "обнови", "update", "set ", "change"}

// ClassifyCommand maps a raw utterance to an intent by keyword containment
func ClassifyCommand(command string) Intent {
	lower := strings.ToLower(command)

	switch {
	case strings.Contains(lower, "найди цену") && strings.Contains(lower, "конкурент"),
		strings.Contains(lower, "find") && strings.Contains(lower, "competitor"):
		return IntentCompetitor
	case strings.Contains(lower, "найди") && strings.Contains(lower, "б/у"),
		strings.Contains(lower, "find") && (strings.Contains(lower, "used") || strings.Contains(lower, "avito")):
		return IntentUsed
	}

	for _, kw := range editKeywords {
		if strings.Contains(lower, kw) {
			return IntentEdit
		}
	}
	return IntentUnknown
}

// ExtractProductName pulls the product name out of a command using fixed phrase patterns
func ExtractProductName(command string) (string, bool) {
	for _, pattern := range productNamePatterns {
		if m := pattern.FindStringSubmatch(command); m != nil {
			name := strings.TrimSpace(m[1])
			if name != "" {
				return name, true
			}
		}
	}
	return "", false
}

// ParseEditCommand recognises quantity and sale price edits with a numeric value
func ParseEditCommand(command string) (EditCommand, bool) {
	for _, pattern := range quantityEditPatterns {
		m := pattern.FindStringSubmatch(command)
		if m == nil {
			continue
		}
		qty, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		return EditCommand{
			Field:       EditQuantity,
			ProductName: strings.TrimSpace(m[1]),
			Quantity:    qty,
		}, true
	}

	for _, pattern := range salePriceEditPatterns {
		m := pattern.FindStringSubmatch(command)
		if m == nil {
			continue
		}
		price, err := decimal.NewFromString(strings.ReplaceAll(m[2], ",", "."))
		if err != nil {
			continue
		}
		return EditCommand{
			Field:       EditSalePrice,
			ProductName: strings.TrimSpace(m[1]),
			SalePrice:   price,
		}, true
	}

	return EditCommand{}, false
}

// HelpText lists the supported commands
const HelpText = "🔍 **Доступные команды для работы с ценами:**\n\n" +
	"• **\"найди цену на [товар] у конкурентов\"** - поиск цен в интернет-магазинах\n" +
	"• **\"найди б/у цену на [товар]\"** - поиск на Avito\n" +
	"• **\"измени количество [товар] на [число]\"** - редактирование товара\n" +
	"• **\"установи цену продажи [товар] [цена]\"** - изменение цены\n\n" +
	"*Система автоматически найдет цены и обновит таблицу товаров*"
