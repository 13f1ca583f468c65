package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"hearth/internal/pagination"
	"hearth/internal/services"
)

// WalletHandler handles wallet-related requests.
type WalletHandler struct {
	walletService services.WalletServicer
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletService services.WalletServicer) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

// CreateWalletRequest represents the request payload for creating a wallet.
type CreateWalletRequest struct {
	Name           string           `json:"name" binding:"required,min=1,max=100"`
	Description    string           `json:"description" binding:"max=500"`
	Currency       string           `json:"currency" binding:"omitempty,iso4217"`
	InitialBalance *decimal.Decimal `json:"initial_balance"`
}

// UpdateWalletRequest represents the request payload for renaming a wallet.
type UpdateWalletRequest struct {
	Name        string `json:"name" binding:"omitempty,min=1,max=100"`
	Description string `json:"description" binding:"max=500"`
}

// CreateWallet handles the creation of a wallet.
// @Summary     Create a wallet
// @Tags        wallets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateWalletRequest true "Wallet details"
// @Success     201 {object} models.Wallet "Wallet created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /wallets [post]
func (h *WalletHandler) CreateWallet(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	balance := decimal.Zero
	if req.InitialBalance != nil {
		balance = *req.InitialBalance
	}

	wallet, err := h.walletService.CreateWallet(c.Request.Context(), userID, req.Name, req.Description, req.Currency, balance)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"wallet": wallet})
}

// GetUserWallets lists the caller's wallets.
// @Summary     Get wallets
// @Tags        wallets
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Wallet] "Paginated wallets"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /wallets [get]
func (h *WalletHandler) GetUserWallets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.walletService.GetUserWallets(c.Request.Context(), userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetWallet returns one wallet.
// @Summary     Get wallet by ID
// @Tags        wallets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Wallet ID"
// @Success     200 {object} models.Wallet "Wallet details"
// @Failure     400 {object} ErrorResponse "Invalid wallet ID"
// @Failure     404 {object} ErrorResponse "Wallet not found"
// @Router      /wallets/{id} [get]
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	walletID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	wallet, err := h.walletService.GetWalletByID(c.Request.Context(), userID, walletID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"wallet": wallet})
}

// UpdateWallet renames a wallet.
// @Summary     Update wallet
// @Tags        wallets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string              true "Wallet ID"
// @Param       request body UpdateWalletRequest true "Wallet details"
// @Success     200 {object} models.Wallet "Updated wallet"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Wallet not found"
// @Router      /wallets/{id} [put]
func (h *WalletHandler) UpdateWallet(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	walletID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	wallet, err := h.walletService.UpdateWallet(c.Request.Context(), userID, walletID, req.Name, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"wallet": wallet})
}

// DeleteWallet removes a wallet no transaction or savings transfer uses.
// @Summary     Delete wallet
// @Tags        wallets
// @Security    BearerAuth
// @Param       id path string true "Wallet ID"
// @Success     204 "Wallet deleted"
// @Failure     404 {object} ErrorResponse "Wallet not found"
// @Failure     409 {object} ErrorResponse "Wallet in use"
// @Router      /wallets/{id} [delete]
func (h *WalletHandler) DeleteWallet(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	walletID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.walletService.DeleteWallet(c.Request.Context(), userID, walletID); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
