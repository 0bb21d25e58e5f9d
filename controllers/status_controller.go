package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nodespeak/nodespeak/content"
	"github.com/nodespeak/nodespeak/forum"
	"github.com/nodespeak/nodespeak/utils"
	"github.com/nodespeak/nodespeak/wallet"
)

// StatusController reports node state: wallet, pending writes, caches and the journal.
type StatusController struct {
	svc      *forum.Service
	wallet   *wallet.Wallet
	resolver *content.Resolver
}

// NewStatusController creates a new StatusController instance.
func NewStatusController(svc *forum.Service, w *wallet.Wallet, resolver *content.Resolver) *StatusController {
	return &StatusController{svc: svc, wallet: w, resolver: resolver}
}

// GetStatus returns aggregate node state.
func (s *StatusController) GetStatus(ctx *gin.Context) {
	cached, gateways := 0, []string{}
	if s.resolver != nil {
		cached = s.resolver.Cache().Len()
		gateways = s.resolver.Gateways()
	}
	utils.Success(ctx, gin.H{
		"wallet":                 s.wallet.Status(),
		"in_flight":              s.svc.InFlight().Active(),
		"refreshing":             s.svc.Refreshing(),
		"pending_patches":        s.svc.Store().Pending(),
		"communities":            len(s.svc.Communities()),
		"cached_content":         cached,
		"gateways":               gateways,
		"cooldown_remaining_sec": int(s.svc.CooldownRemaining().Seconds()),
	})
}

// ListTransactions returns the newest journaled writes. Fallback to an empty
// list instead of failing when the journal is unavailable.
func (s *StatusController) ListTransactions(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	recs, err := s.svc.RecentTransactions(ctx.Request.Context(), limit)
	if err != nil {
		_ = ctx.Error(err)
		recs = nil
	}
	if recs == nil {
		utils.Success(ctx, gin.H{"transactions": []interface{}{}})
		return
	}
	utils.Success(ctx, gin.H{"transactions": recs})
}
