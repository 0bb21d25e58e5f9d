package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/nodespeak/nodespeak/chain"
	"github.com/nodespeak/nodespeak/config"
	"github.com/nodespeak/nodespeak/content"
	"github.com/nodespeak/nodespeak/events"
	"github.com/nodespeak/nodespeak/forum"
	"github.com/nodespeak/nodespeak/models"
	"github.com/nodespeak/nodespeak/routes"
	"github.com/nodespeak/nodespeak/utils"
	"github.com/nodespeak/nodespeak/wallet"
)

func main() {
	printToken := flag.String("print-token", "", "print an operator JWT for the given name and exit")
	tokenTTL := flag.Duration("token-ttl", 30*24*time.Hour, "lifetime of a printed token")
	flag.Parse()

	cfg := config.Load()

	if *printToken != "" {
		token, err := utils.GenerateToken(*printToken, *tokenTTL)
		if err != nil {
			fmt.Fprintln(os.Stderr, "generate token:", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer utils.Logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var journal forum.Journal = forum.NopJournal{}
	var pins content.PinLog = content.NopPinLog{}
	db, err := config.InitDatabase(&models.TxRecord{}, &models.PinRecord{})
	switch {
	case errors.Is(err, config.ErrDatabaseDisabled):
		utils.Sugar.Info("database not configured, transaction journal disabled")
	case err != nil:
		utils.Sugar.Fatalf("database init failed: %v", err)
	default:
		journal = forum.NewGormJournal(db)
		pins = content.NewGormPinLog(db)
	}

	var store content.Store
	if rdb := utils.GetRedis(); rdb != nil {
		store = content.NewRedisStore(rdb)
	}
	cache := content.NewCache(store, utils.Component("cache"))

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(events.KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
		utils.Sugar.Infof("publishing confirmed transactions to kafka topic %s", cfg.KafkaTopic)
	}

	dialCtx, dialCancel := context.WithTimeout(ctx, 15*time.Second)
	contract, client, err := chain.Dial(dialCtx, cfg.RPCURL, cfg.ForumAddress, cfg.ChainID)
	dialCancel()
	if err != nil {
		utils.Sugar.Fatalf("connect forum contract: %v", err)
	}

	w := wallet.New(selectProvider(cfg), cfg.ChainID, utils.Component("wallet"))
	if w.Available() {
		if account, err := w.Connect(ctx); err == nil {
			utils.Logger.Info("wallet ready", zap.String("account", account.Hex()))
		}
	} else {
		utils.Sugar.Warn("no wallet configured, node is read-only")
	}

	httpClient := &http.Client{}
	resolver := content.NewResolver(content.ResolverConfig{
		Gateways:     cfg.Gateways,
		ImageGateway: cfg.ImageGateway,
		Timeout:      cfg.GatewayTimeout(),
	}, cache, httpClient, utils.Component("content"))
	pinner := content.NewPinner(content.PinnerConfig{
		Endpoint:  cfg.PinataEndpoint,
		JWT:       cfg.PinataJWT,
		APIKey:    cfg.PinataAPIKey,
		SecretKey: cfg.PinataSecretKey,
	}, httpClient, cache, pins, utils.Component("pinner"))
	if !pinner.Configured() {
		utils.Sugar.Warn("pinning credentials missing, community and post creation will fail")
	}

	svc := forum.NewService(forum.Deps{
		Contract:  contract,
		Content:   resolver,
		Pinner:    pinner,
		Signer:    w,
		Journal:   journal,
		Publisher: publisher,
	}, forum.Options{
		SimulateWrites:       cfg.SimulateWrites,
		ConfirmTimeout:       cfg.ConfirmTimeout(),
		CommunityCooldown:    cfg.CommunityCooldown(),
		AllowTopicAdd:        cfg.AllowTopicAdd,
		RefreshAfterTopicAdd: cfg.RefreshAfterTopicAdd,
		TopicCaseSensitive:   cfg.TopicCaseSensitive,
		ResolveConcurrency:   cfg.ResolveConcurrency,
	}, utils.Component("forum"))
	session := forum.NewSession(svc)

	changes, unsubscribe := w.Subscribe()
	go svc.WatchAccounts(ctx, changes)

	// Warm the store; a failure here only means the first request reads the chain.
	if _, err := svc.RefreshCommunities(ctx); err != nil {
		utils.Sugar.Warnf("initial community refresh failed: %v", err)
	}

	r := routes.SetupRouter(routes.Deps{Service: svc, Session: session, Wallet: w, Resolver: resolver})

	srv := utils.NewServer(":"+cfg.AppPort, r, utils.DEFAULT_READ_TIMEOUT, cfg.WriteTimeout(utils.DEFAULT_WRITE_TIMEOUT))
	srv.OnShutdown(func(context.Context) {
		unsubscribe()
		cancel()
	})
	srv.OnShutdown(func(context.Context) {
		if err := publisher.Close(); err != nil {
			utils.Sugar.Warnf("close event publisher: %v", err)
		}
	})
	srv.OnShutdown(func(context.Context) { client.Close() })

	utils.Sugar.Infof("Starting forum node on port %s (graceful)", cfg.AppPort)
	if err := srv.ListenAndServe(); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}

// selectProvider builds the configured signing providers and picks one.
func selectProvider(cfg config.AppConfig) wallet.Provider {
	var providers []wallet.Provider
	if cfg.WalletPrivateKey != "" {
		kp, err := wallet.NewKeyProvider(cfg.WalletPrivateKey)
		if err != nil {
			utils.Sugar.Errorf("wallet private key rejected: %v", err)
		} else {
			providers = append(providers, kp)
		}
	}
	if cfg.KeystoreDir != "" {
		providers = append(providers, wallet.NewKeystoreProvider(cfg.KeystoreDir, cfg.KeystoreAccount, cfg.KeystorePassword))
	}
	p, err := wallet.Select(providers, cfg.PreferredProvider)
	if err != nil {
		return nil
	}
	return p
}
