package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/nodespeak/nodespeak/config"
	"github.com/nodespeak/nodespeak/utils"
)

// ConfigController serves the public, environment-driven client configuration.
type ConfigController struct{}

func NewConfigController() *ConfigController { return &ConfigController{} }

// GetConfig returns chain and content settings a client needs. Secrets are never included.
func (c *ConfigController) GetConfig(ctx *gin.Context) {
	cfg := config.Get()
	utils.Success(ctx, gin.H{
		"chain": gin.H{
			"chain_id":        cfg.ChainID,
			"forum_address":   cfg.ForumAddress,
			"simulate_writes": cfg.SimulateWrites,
		},
		"ipfs": gin.H{
			"gateways":      cfg.Gateways,
			"image_gateway": cfg.ImageGateway,
		},
		"forum": gin.H{
			"allow_topic_add":        cfg.AllowTopicAdd,
			"topic_case_sensitive":   cfg.TopicCaseSensitive,
			"community_cooldown_sec": cfg.CommunityCooldownSec,
		},
	})
}
