package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nodespeak/nodespeak/forum"
	"github.com/nodespeak/nodespeak/utils"
	"github.com/nodespeak/nodespeak/wallet"
)

// WalletController exposes the node wallet's connection state.
type WalletController struct {
	wallet *wallet.Wallet
	svc    *forum.Service
}

// NewWalletController creates a new WalletController instance.
func NewWalletController(w *wallet.Wallet, svc *forum.Service) *WalletController {
	return &WalletController{wallet: w, svc: svc}
}

// Status reports availability and the connected account.
func (w *WalletController) Status(ctx *gin.Context) {
	utils.Success(ctx, w.wallet.Status())
}

// Connect activates the provider's primary account.
func (w *WalletController) Connect(ctx *gin.Context) {
	if _, err := w.wallet.Connect(ctx.Request.Context()); err != nil {
		respondError(ctx, w.svc, err, nil)
		return
	}
	utils.Success(ctx, w.wallet.Status())
}

// Disconnect forgets the active account.
func (w *WalletController) Disconnect(ctx *gin.Context) {
	w.wallet.Disconnect()
	utils.Success(ctx, w.wallet.Status())
}

// SwitchAccount selects another account of the provider.
func (w *WalletController) SwitchAccount(ctx *gin.Context) {
	var req struct {
		Account string `json:"account" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	if err := w.wallet.SwitchAccount(req.Account); err != nil {
		respondError(ctx, w.svc, err, nil)
		return
	}
	utils.Success(ctx, w.wallet.Status())
}
