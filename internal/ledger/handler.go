package ledger

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/demo-credit/demo_credit/internal/api"
	"github.com/demo-credit/demo_credit/internal/apperrors"
	"github.com/demo-credit/demo_credit/internal/transaction"
	"github.com/demo-credit/demo_credit/internal/wallet"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Handler exposes the wallet API on top of the ledger engine.
type Handler struct {
	engine *Engine
}

// NewHandler constructs a wallet HTTP handler.
func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

type operationRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Reference   string          `json:"reference"`
	Description string          `json:"description"`
}

type transferRequest struct {
	RecipientEmail string          `json:"recipient_email"`
	Amount         decimal.Decimal `json:"amount"`
	Reference      string          `json:"reference"`
	Description    string          `json:"description"`
}

type walletResponse struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
	IsActive bool   `json:"is_active"`
}

type transactionResponse struct {
	ID                  string  `json:"id"`
	Reference           string  `json:"reference"`
	WalletID            string  `json:"wallet_id"`
	CounterpartWalletID *string `json:"counterpart_wallet_id"`
	Type                string  `json:"type"`
	Category            string  `json:"category"`
	Amount              string  `json:"amount"`
	BalanceBefore       string  `json:"balance_before"`
	BalanceAfter        string  `json:"balance_after"`
	Description         *string `json:"description"`
	Status              string  `json:"status"`
	CreatedAt           string  `json:"created_at"`
}

// Fund credits the caller's wallet.
func (h *Handler) Fund(c *fiber.Ctx) error {
	var req operationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.BadRequest(err.Error())
	}
	if err := validateOperation(req.Amount, req.Reference); err != nil {
		return err
	}

	res, err := h.engine.Fund(c.UserContext(), callerID(c), OperationInput{
		Amount:      req.Amount,
		Reference:   strings.TrimSpace(req.Reference),
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return api.Success(c, "Wallet funded successfully.", resultPayload(res))
}

// Withdraw debits the caller's wallet.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	var req operationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.BadRequest(err.Error())
	}
	if err := validateOperation(req.Amount, req.Reference); err != nil {
		return err
	}

	res, err := h.engine.Withdraw(c.UserContext(), callerID(c), OperationInput{
		Amount:      req.Amount,
		Reference:   strings.TrimSpace(req.Reference),
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return api.Success(c, "Withdrawal successful.", resultPayload(res))
}

// Transfer moves funds to another account's wallet.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.BadRequest(err.Error())
	}
	if !strings.Contains(req.RecipientEmail, "@") {
		return apperrors.BadRequest("A valid recipient email is required.")
	}
	if err := validateOperation(req.Amount, req.Reference); err != nil {
		return err
	}

	res, err := h.engine.Transfer(c.UserContext(), callerID(c),
		strings.ToLower(strings.TrimSpace(req.RecipientEmail)),
		OperationInput{
			Amount:      req.Amount,
			Reference:   strings.TrimSpace(req.Reference),
			Description: req.Description,
		})
	if err != nil {
		return err
	}
	return api.Success(c, "Transfer successful.", resultPayload(res))
}

// Balance returns the caller's wallet.
func (h *Handler) Balance(c *fiber.Ctx) error {
	w, err := h.engine.GetBalance(c.UserContext(), callerID(c))
	if err != nil {
		return err
	}
	return api.Success(c, "Wallet retrieved successfully.", fiber.Map{"wallet": toWalletResponse(w)})
}

// History returns one page of the caller's transaction log.
func (h *Handler) History(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("limit", defaultPageSize)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	hist, err := h.engine.GetTransactionHistory(c.UserContext(), callerID(c), page, pageSize)
	if err != nil {
		return err
	}

	transactions := make([]transactionResponse, 0, len(hist.Transactions))
	for _, tx := range hist.Transactions {
		transactions = append(transactions, toTransactionResponse(tx))
	}
	return api.Success(c, "Transaction history retrieved successfully.", fiber.Map{
		"transactions": transactions,
		"total":        hist.Total,
		"page":         hist.Page,
		"limit":        hist.PageSize,
	})
}

func callerID(c *fiber.Ctx) string {
	uid, _ := c.Locals("user_id").(string)
	return uid
}

func validateOperation(amount decimal.Decimal, reference string) error {
	if !amount.IsPositive() {
		return apperrors.BadRequest("Amount must be greater than zero.")
	}
	if amount.Exponent() < -2 {
		return apperrors.BadRequest("Amount must have at most two decimal places.")
	}
	if strings.TrimSpace(reference) == "" {
		return apperrors.BadRequest("Reference is required.")
	}
	return nil
}

func resultPayload(res Result) fiber.Map {
	return fiber.Map{
		"transaction": toTransactionResponse(res.Transaction),
		"wallet":      toWalletResponse(res.Wallet),
	}
}

func toWalletResponse(w wallet.Wallet) walletResponse {
	return walletResponse{
		ID:       w.ID,
		UserID:   w.UserID,
		Balance:  w.Balance.StringFixed(2),
		Currency: w.Currency,
		IsActive: w.IsActive,
	}
}

func toTransactionResponse(tx transaction.Transaction) transactionResponse {
	return transactionResponse{
		ID:                  tx.ID,
		Reference:           tx.Reference,
		WalletID:            tx.WalletID,
		CounterpartWalletID: tx.CounterpartWalletID,
		Type:                string(tx.Type),
		Category:            string(tx.Category),
		Amount:              tx.Amount.StringFixed(2),
		BalanceBefore:       tx.BalanceBefore.StringFixed(2),
		BalanceAfter:        tx.BalanceAfter.StringFixed(2),
		Description:         tx.Description,
		Status:              string(tx.Status),
		CreatedAt:           tx.CreatedAt.UTC().Format(time.RFC3339),
	}
}
