package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pricescout/backend/internal/domain"
)

const (
	searchMaxTokens     = 2000
	connectionMaxTokens = 50

	connectionSystemPrompt = `Ответь кратко "Подключение работает" если получил это сообщение.`
	connectionUserMessage  = "Тест подключения к API"
)

// AnalyzerConfig holds prompts and tuning for the command analyzer
type AnalyzerConfig struct {
	CompetitorPrompt   string
	AvitoPrompt        string
	EditPrompt         string
	StrictMatch        bool
	RefreshConcurrency int
}

// CommandResult is the outcome of one command
type CommandResult struct {
	Intent      Intent `json:"intent"`
	ProductName string `json:"productName,omitempty"`
	ProductID   string `json:"productId,omitempty"`
	Price       int64  `json:"price,omitempty"`
	Updated     bool   `json:"updated"`
	Message     string `json:"message"`
	Raw         string `json:"raw,omitempty"`
}

// RefreshFailure records a product whose search failed during a bulk refresh
type RefreshFailure struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Error       string `json:"error"`
}

// RefreshResult summarises a bulk refresh
type RefreshResult struct {
	Kind     domain.SearchKind `json:"kind"`
	Total    int               `json:"total"`
	Updated  int               `json:"updated"`
	Results  []CommandResult   `json:"results"`
	Failures []RefreshFailure  `json:"failures"`
}

// ConnectionStatus is the outcome of a connectivity check
type ConnectionStatus struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Answer  string `json:"answer,omitempty"`
}

// AnalyzerService turns natural-language commands into product updates.
// Flow for price commands: extract name -> ask model (with search) ->
// record history -> extract min price -> match product -> write price
type AnalyzerService struct {
	gateway  *GatewayService
	products domain.ProductRepository
	history  domain.HistoryRepository
	config   AnalyzerConfig
	match    func([]domain.Product, string) (*domain.Product, bool)
	logger   *zap.Logger
	now      func() time.Time
}

// NewAnalyzerService creates an analyzer
func NewAnalyzerService(
	gateway *GatewayService,
	products domain.ProductRepository,
	history domain.HistoryRepository,
	config AnalyzerConfig,
	logger *zap.Logger,
) *AnalyzerService {
	if config.RefreshConcurrency <= 0 {
		config.RefreshConcurrency = 3
	}

	match := MatchProduct
	if config.StrictMatch {
		match = MatchProductStrict
	}

	return &AnalyzerService{
		gateway:  gateway,
		products: products,
		history:  history,
		config:   config,
		match:    match,
		logger:   logger.Named("analyzer"),
		now:      time.Now,
	}
}

// ProcessCommand routes a command by intent
func (s *AnalyzerService) ProcessCommand(ctx context.Context, command string) (*CommandResult, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, domain.ErrInvalidRequest
	}

	intent := ClassifyCommand(command)
	s.logger.Info("processing command", zap.String("intent", string(intent)), zap.String("command", command))

	switch intent {
	case IntentCompetitor:
		return s.SearchPrice(ctx, domain.SearchKindCompetitor, command)
	case IntentUsed:
		return s.SearchPrice(ctx, domain.SearchKindAvito, command)
	case IntentEdit:
		return s.Edit(ctx, command)
	}
	return &CommandResult{Intent: IntentUnknown, Message: HelpText}, nil
}

// SearchPrice looks up the minimum price of the product named in command and
// writes it to the matching product. Nothing is written unless both the price
// and the product are found.
func (s *AnalyzerService) SearchPrice(ctx context.Context, kind domain.SearchKind, command string) (*CommandResult, error) {
	name, ok := ExtractProductName(command)
	if !ok {
		return nil, domain.ErrProductNameMissing
	}
	return s.searchAndApply(ctx, kind, name, "")
}

// SearchProduct runs a price search for one stored product and writes the
// price to that product, bypassing name matching.
func (s *AnalyzerService) SearchProduct(ctx context.Context, id string, kind domain.SearchKind) (*CommandResult, error) {
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.searchAndApply(ctx, kind, p.Name, p.ID)
}

// searchAndApply asks for the price of name. The price goes to targetID when
// set, otherwise to the product matched by name.
func (s *AnalyzerService) searchAndApply(ctx context.Context, kind domain.SearchKind, name, targetID string) (*CommandResult, error) {
	result := &CommandResult{Intent: intentFor(kind), ProductName: name}

	prompt := Prompt{
		MaxTokens:   searchMaxTokens,
		SearchQuery: name,
		Kind:        kind,
	}
	if kind == domain.SearchKindAvito {
		prompt.System = s.config.AvitoPrompt
		prompt.User = fmt.Sprintf(`Найди минимальную б/у цену на товар "%s" на Avito`, name)
	} else {
		prompt.System = s.config.CompetitorPrompt
		prompt.User = fmt.Sprintf(`Найди минимальную цену на товар "%s" среди конкурентов`, name)
	}

	answer, err := s.gateway.Ask(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("price search for %q: %w", name, err)
	}
	result.Raw = answer

	price, found := ExtractMinPrice(answer)
	s.logger.Debug("price candidates",
		zap.String("product", name),
		zap.Int64s("candidates", ExtractPrices(answer)),
	)
	s.recordHistory(ctx, kind, name, answer, price)

	if !found {
		s.logger.Info("no price extracted", zap.String("product", name), zap.String("kind", string(kind)))
		result.Message = searchHeading(kind)
		return result, nil
	}
	result.Price = price

	product, err := s.applyPrice(ctx, kind, name, targetID, price)
	if err != nil {
		return nil, err
	}
	if product == nil {
		s.logger.Info("price found but no product matched",
			zap.String("product", name),
			zap.Int64("price", price),
		)
		result.Message = fmt.Sprintf("%s Товар \"%s\" не найден в списке, цена не сохранена.", foundHeading(kind, price), name)
		return result, nil
	}

	result.ProductID = product.ID
	result.Updated = true
	result.Message = foundHeading(kind, price)
	s.logger.Info("competitor price updated",
		zap.String("product_id", product.ID),
		zap.String("field", kind.PriceField()),
		zap.Int64("price", price),
	)
	return result, nil
}

// applyPrice writes price into the kind's field of the target product, or of
// the product matched by name. It returns nil when there is no such product.
func (s *AnalyzerService) applyPrice(ctx context.Context, kind domain.SearchKind, name, targetID string, price int64) (*domain.Product, error) {
	id, err := s.resolveTarget(ctx, name, targetID)
	if err != nil || id == "" {
		return nil, err
	}

	product, err := s.products.UpdateFunc(ctx, id, func(p *domain.Product) error {
		p.SetCompetitorPrice(kind, price, s.now().UTC())
		return nil
	})
	if errors.Is(err, domain.ErrProductNotFound) {
		// deleted while the search was running
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update product %s: %w", id, err)
	}
	return product, nil
}

// resolveTarget returns targetID when set, otherwise the id of the product
// matched by name, or "" when nothing matches.
func (s *AnalyzerService) resolveTarget(ctx context.Context, name, targetID string) (string, error) {
	if targetID != "" {
		return targetID, nil
	}

	products, err := s.products.List(ctx)
	if err != nil {
		return "", fmt.Errorf("list products: %w", err)
	}
	product, ok := s.match(products, name)
	if !ok {
		return "", nil
	}
	return product.ID, nil
}

func (s *AnalyzerService) recordHistory(ctx context.Context, kind domain.SearchKind, name, answer string, price int64) {
	rec := domain.SearchRecord{
		ID:          uuid.NewString(),
		Timestamp:   s.now().UTC(),
		Type:        kind,
		ProductName: name,
		Result:      answer,
		MinPrice:    price,
	}
	if err := s.history.Append(ctx, rec); err != nil {
		s.logger.Warn("failed to record search history", zap.String("product", name), zap.Error(err))
	}
}

// RefreshAll searches prices for every product with bounded concurrency.
// A failed search is reported in the result and does not stop the others.
func (s *AnalyzerService) RefreshAll(ctx context.Context, kind domain.SearchKind) (*RefreshResult, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	out := &RefreshResult{
		Kind:     kind,
		Total:    len(products),
		Results:  make([]CommandResult, 0, len(products)),
		Failures: []RefreshFailure{},
	}
	if len(products) == 0 {
		return out, nil
	}
	if !s.gateway.Configured() {
		return nil, domain.ErrLLMNotConfigured
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.RefreshConcurrency)

	for _, p := range products {
		g.Go(func() error {
			res, err := s.searchAndApply(gctx, kind, p.Name, p.ID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				out.Failures = append(out.Failures, RefreshFailure{ProductID: p.ID, ProductName: p.Name, Error: err.Error()})
				return nil
			}
			out.Results = append(out.Results, *res)
			if res.Updated {
				out.Updated++
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return out, err
	}

	s.logger.Info("refresh finished",
		zap.String("kind", string(kind)),
		zap.Int("total", out.Total),
		zap.Int("updated", out.Updated),
		zap.Int("failed", len(out.Failures)),
	)
	return out, nil
}

// Edit applies a quantity or sale price edit locally when the command is
// understood, otherwise asks the model with the product list.
func (s *AnalyzerService) Edit(ctx context.Context, command string) (*CommandResult, error) {
	edit, ok := ParseEditCommand(command)
	if !ok {
		return s.editWithModel(ctx, command)
	}

	products, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	matched, found := s.match(products, edit.ProductName)
	if !found {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, edit.ProductName)
	}

	product, err := s.products.UpdateFunc(ctx, matched.ID, func(p *domain.Product) error {
		switch edit.Field {
		case EditQuantity:
			p.Quantity = edit.Quantity
		case EditSalePrice:
			p.SalePrice = edit.SalePrice
		}
		p.LastUpdated = s.now().UTC()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update product %s: %w", matched.ID, err)
	}

	var message string
	switch edit.Field {
	case EditQuantity:
		message = fmt.Sprintf("✅ Количество товара \"%s\" изменено на %d", product.Name, edit.Quantity)
	case EditSalePrice:
		message = fmt.Sprintf("✅ Цена продажи товара \"%s\" установлена: %s ₽", product.Name, edit.SalePrice.String())
	}

	return &CommandResult{
		Intent:      IntentEdit,
		ProductName: product.Name,
		ProductID:   product.ID,
		Updated:     true,
		Message:     message,
	}, nil
}

// editSummary is the product view sent to the model for free-form edits
type editSummary struct {
	Name          string `json:"name"`
	Quantity      int    `json:"quantity"`
	PurchasePrice string `json:"purchasePrice"`
	SalePrice     string `json:"salePrice"`
}

func (s *AnalyzerService) editWithModel(ctx context.Context, command string) (*CommandResult, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	summary := make([]editSummary, 0, len(products))
	for _, p := range products {
		summary = append(summary, editSummary{
			Name:          p.Name,
			Quantity:      p.Quantity,
			PurchasePrice: p.PurchasePrice.String(),
			SalePrice:     p.SalePrice.String(),
		})
	}
	list, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("encode product list: %w", err)
	}

	answer, err := s.gateway.Ask(ctx, Prompt{
		System: s.config.EditPrompt,
		User:   fmt.Sprintf("Команда: \"%s\"\nСписок товаров: %s", command, list),
	})
	if err != nil {
		return nil, err
	}

	return &CommandResult{Intent: IntentEdit, Message: answer, Raw: answer}, nil
}

// TestConnection asks the model for a fixed phrase
func (s *AnalyzerService) TestConnection(ctx context.Context) (*ConnectionStatus, error) {
	answer, err := s.gateway.Ask(ctx, Prompt{
		System:    connectionSystemPrompt,
		User:      connectionUserMessage,
		MaxTokens: connectionMaxTokens,
	})
	if err != nil {
		if errors.Is(err, domain.ErrLLMNotConfigured) {
			return nil, err
		}
		return &ConnectionStatus{OK: false, Message: err.Error()}, nil
	}

	lower := strings.ToLower(answer)
	if strings.Contains(lower, "работает") || strings.Contains(lower, "подключение") {
		return &ConnectionStatus{OK: true, Message: "Подключение к OpenAI API успешно", Answer: answer}, nil
	}
	return &ConnectionStatus{OK: false, Message: "API отвечает, но ответ неожиданный", Answer: answer}, nil
}

// History returns recent searches, newest first
func (s *AnalyzerService) History(ctx context.Context, limit int) ([]domain.SearchRecord, error) {
	return s.history.List(ctx, limit)
}

func intentFor(kind domain.SearchKind) Intent {
	if kind == domain.SearchKindAvito {
		return IntentUsed
	}
	return IntentCompetitor
}

func foundHeading(kind domain.SearchKind, price int64) string {
	if kind == domain.SearchKindAvito {
		return "✅ Найдена минимальная б/у цена на Avito: " + domain.FormatRub(price)
	}
	return "✅ Найдена минимальная цена у конкурентов: " + domain.FormatRub(price)
}

func searchHeading(kind domain.SearchKind) string {
	if kind == domain.SearchKindAvito {
		return "🛒 Результаты поиска на Avito"
	}
	return "📊 Результаты поиска цен"
}
