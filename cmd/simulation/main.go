package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tradebook/journal-api/internal/analytics"
	"github.com/tradebook/journal-api/internal/auth"
	"github.com/tradebook/journal-api/internal/broker"
	"github.com/tradebook/journal-api/internal/database"
	"github.com/tradebook/journal-api/internal/imports"
	"github.com/tradebook/journal-api/internal/journal"
	"github.com/tradebook/journal-api/internal/types"
	"github.com/tradebook/journal-api/pkg/middleware"
)

const (
	minBatches    = 8
	maxBatches    = 30
	numWorkers    = 4
	serverAddress = "http://localhost:8080"
)

var (
	symbols    = []string{"RELIANCE", "TCS", "INFY", "HDFCBANK", "TATASTEEL"}
	brokers    = []string{"zerodha", "upstox", "angelone", "dhan", "fyers"}
	strategies = []string{"breakout", "mean_reversion", "scalping", "swing", "news_based"}
	mistakes   = []string{"no_mistake", "early_exit", "fomo_entry", "oversized_position"}
	feelings   = []string{"confident", "anxious", "neutral", "greedy"}
	groupKeys  = []string{"strategy", "mistake", "day", "emotion", "slot"}
)

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// routeStats tracks performance statistics for an API endpoint
type routeStats struct {
	name       string
	durations  []time.Duration
	totalCalls int
	failures   int
}

// addDuration records a new duration measurement for the route
func (rs *routeStats) addDuration(d time.Duration) {
	rs.durations = append(rs.durations, d)
	rs.totalCalls++
}

// calculate computes performance statistics from recorded durations
// Returns min, max, mean, median, 95th percentile, and 99th percentile durations
func (rs *routeStats) calculate() (min, max, mean, median, p95, p99 time.Duration) {
	if len(rs.durations) == 0 {
		return 0, 0, 0, 0, 0, 0
	}

	sort.Slice(rs.durations, func(i, j int) bool {
		return rs.durations[i] < rs.durations[j]
	})

	min = rs.durations[0]
	max = rs.durations[len(rs.durations)-1]

	var sum time.Duration
	for _, d := range rs.durations {
		sum += d
	}
	mean = sum / time.Duration(len(rs.durations))
	median = rs.durations[len(rs.durations)/2]

	p95idx := int(math.Ceil(float64(len(rs.durations))*0.95)) - 1
	p99idx := int(math.Ceil(float64(len(rs.durations))*0.99)) - 1
	p95 = rs.durations[p95idx]
	p99 = rs.durations[p99idx]

	return
}

// simulationClient handles HTTP communication with the journal API
type simulationClient struct {
	baseURL   string
	authToken string
	client    *http.Client
	mu        sync.Mutex
	stats     map[string]*routeStats
}

// newSimulationClient creates and initializes a new simulation client
// It authenticates with the API and prepares performance tracking
func newSimulationClient() (*simulationClient, error) {
	client := &http.Client{
		Timeout: 10 * time.Second,
	}

	sc := &simulationClient{
		baseURL: serverAddress,
		client:  client,
		stats: map[string]*routeStats{
			"auth":      {name: "Authentication"},
			"journal":   {name: "Create Journal Entry"},
			"import":    {name: "Import Orders"},
			"orders":    {name: "List Orders"},
			"trades":    {name: "List Trades"},
			"analytics": {name: "Get Analytics"},
		},
	}

	token, err := sc.authenticate()
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}
	sc.authToken = token

	return sc, nil
}

func (sc *simulationClient) record(route string, start time.Time, failed bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.stats[route].addDuration(time.Since(start))
	if failed {
		sc.stats[route].failures++
	}
}

// authenticate performs API authentication and returns a JWT token
func (sc *simulationClient) authenticate() (string, error) {
	start := time.Now()
	failed := false
	defer func() { sc.record("auth", start, failed) }()

	credentials := map[string]string{
		"api_key":    auth.TestAPIKey,
		"api_secret": auth.TestAPISecret,
	}

	body, err := json.Marshal(credentials)
	if err != nil {
		failed = true
		return "", err
	}

	resp, err := sc.client.Post(
		fmt.Sprintf("%s/api/v1/auth/token", sc.baseURL),
		"application/json",
		bytes.NewBuffer(body),
	)
	if err != nil {
		failed = true
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		failed = true
		return "", fmt.Errorf("authentication failed with status: %d", resp.StatusCode)
	}

	var result struct {
		Success bool `json:"success"`
		Data    struct {
			Token string `json:"jwt_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		failed = true
		return "", err
	}

	return result.Data.Token, nil
}

// doJSON performs an authenticated request and decodes the standard
// response envelope into out.
func (sc *simulationClient) doJSON(method, url string, body interface{}, idempotent bool, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewBuffer(encoded)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", sc.authToken))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotent {
		req.Header.Set("Idempotency-Key", uuid.New().String())
	}

	resp, err := sc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	log.Debug().Str("response", string(respBody)).Str("url", url).Msg("API response")

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%s %s failed with status %d: %s", method, url, resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
		}
	}
	return nil
}

// createJournalEntry submits a journal entry and returns its id. Variant
// field shapes are exercised deliberately: strategy sometimes goes up as a
// plain string, sometimes as a legacy array.
func (sc *simulationClient) createJournalEntry() (string, error) {
	start := time.Now()
	failed := false
	defer func() { sc.record("journal", start, failed) }()

	strategy := strategies[rand.Intn(len(strategies))]
	var strategyField interface{} = strategy
	if rand.Intn(2) == 0 {
		strategyField = []string{strategy}
	}

	entry := map[string]interface{}{
		"entry_date":   time.Now().AddDate(0, 0, -rand.Intn(20)).Format(time.RFC3339),
		"strategy":     strategyField,
		"mistake":      mistakes[rand.Intn(len(mistakes))],
		"feelings":     feelings[rand.Intn(len(feelings))],
		"stop_loss":    float64(rand.Intn(500) + 50),
		"target_price": float64(rand.Intn(1500) + 500),
		"description":  "simulated trading day",
	}

	var result struct {
		Success bool `json:"success"`
		Data    struct {
			EntryID string `json:"entry_id"`
		} `json:"data"`
	}
	err := sc.doJSON("POST", fmt.Sprintf("%s/api/v1/journal", sc.baseURL), entry, false, &result)
	if err != nil {
		failed = true
		return "", err
	}
	if result.Data.EntryID == "" {
		failed = true
		return "", fmt.Errorf("no entry ID in response")
	}
	return result.Data.EntryID, nil
}

// importBatch submits raw broker records and returns the batch summary
func (sc *simulationClient) importBatch(brokerName string, records []map[string]interface{}, journalEntryID string) (*types.ImportBatch, error) {
	start := time.Now()
	failed := false
	defer func() { sc.record("import", start, failed) }()

	body := map[string]interface{}{
		"records":          records,
		"journal_entry_id": journalEntryID,
	}

	var result struct {
		Success bool              `json:"success"`
		Data    types.ImportBatch `json:"data"`
	}
	err := sc.doJSON("POST", fmt.Sprintf("%s/api/v1/imports/%s", sc.baseURL, brokerName), body, true, &result)
	if err != nil {
		failed = true
		return nil, err
	}
	if result.Data.BatchID == "" {
		failed = true
		return nil, fmt.Errorf("no batch ID in response")
	}
	return &result.Data, nil
}

// listOrders retrieves all stored canonical orders
func (sc *simulationClient) listOrders() ([]types.CanonicalOrder, error) {
	start := time.Now()
	failed := false
	defer func() { sc.record("orders", start, failed) }()

	var result struct {
		Success bool                   `json:"success"`
		Data    []types.CanonicalOrder `json:"data"`
	}
	err := sc.doJSON("GET", fmt.Sprintf("%s/api/v1/orders", sc.baseURL), nil, false, &result)
	if err != nil {
		failed = true
		return nil, err
	}
	return result.Data, nil
}

// listTrades retrieves matched round-trip trades under one policy
func (sc *simulationClient) listTrades(policy string) ([]types.CompletedTrade, error) {
	start := time.Now()
	failed := false
	defer func() { sc.record("trades", start, failed) }()

	var result struct {
		Success bool                   `json:"success"`
		Data    []types.CompletedTrade `json:"data"`
	}
	err := sc.doJSON("GET", fmt.Sprintf("%s/api/v1/trades?policy=%s", sc.baseURL, policy), nil, false, &result)
	if err != nil {
		failed = true
		return nil, err
	}
	return result.Data, nil
}

// getAnalytics retrieves the grouped metrics report for one dimension
func (sc *simulationClient) getAnalytics(groupBy string) (*analytics.Report, error) {
	start := time.Now()
	failed := false
	defer func() { sc.record("analytics", start, failed) }()

	var result struct {
		Success bool             `json:"success"`
		Data    analytics.Report `json:"data"`
	}
	err := sc.doJSON("GET", fmt.Sprintf("%s/api/v1/analytics?group_by=%s", sc.baseURL, groupBy), nil, false, &result)
	if err != nil {
		failed = true
		return nil, err
	}
	return &result.Data, nil
}

// printPerformanceStats outputs formatted performance statistics for all API endpoints
func (sc *simulationClient) printPerformanceStats() {
	fmt.Println("\nAPI Performance Statistics")
	fmt.Println(strings.Repeat("-", 100))
	fmt.Printf("%-22s %8s %8s %10s %10s %10s %10s %10s %10s\n",
		"Endpoint", "Calls", "Errors", "Min", "Max", "Mean", "Median", "P95", "P99")
	fmt.Println(strings.Repeat("-", 100))

	for _, stats := range sc.stats {
		min, max, mean, median, p95, p99 := stats.calculate()
		fmt.Printf("%-22s %8d %8d %10s %10s %10s %10s %10s %10s\n",
			stats.name,
			stats.totalCalls,
			stats.failures,
			min.Round(time.Millisecond),
			max.Round(time.Millisecond),
			mean.Round(time.Millisecond),
			median.Round(time.Millisecond),
			p95.Round(time.Millisecond),
			p99.Round(time.Millisecond))
	}
	fmt.Println(strings.Repeat("-", 100))
}

// rawRecord renders one fill in the given broker's raw field vocabulary,
// exercising the normalizer's per-broker mapping end to end.
func rawRecord(brokerName, orderID, symbol, side string, quantity int, price float64, ts time.Time) map[string]interface{} {
	stamp := ts.In(broker.IST)

	switch brokerName {
	case "zerodha":
		return map[string]interface{}{
			"order_id":         orderID,
			"order_timestamp":  stamp.Format("2006-01-02 15:04:05"),
			"tradingsymbol":    symbol,
			"transaction_type": side,
			"filled_quantity":  quantity,
			"average_price":    price,
			"status":           "COMPLETE",
		}
	case "upstox":
		return map[string]interface{}{
			"order_id":         orderID,
			"order_timestamp":  stamp.Format("2006-01-02 15:04:05"),
			"trading_symbol":   symbol,
			"transaction_type": side,
			"filled_quantity":  quantity,
			"average_price":    price,
			"status":           "complete",
		}
	case "angelone":
		return map[string]interface{}{
			"orderid":         orderID,
			"updatetime":      stamp.Format("02-Jan-2006 15:04:05"),
			"tradingsymbol":   symbol,
			"transactiontype": side,
			"filledshares":    fmt.Sprintf("%d", quantity),
			"averageprice":    fmt.Sprintf("%.2f", price),
			"status":          "complete",
		}
	case "dhan":
		return map[string]interface{}{
			"orderId":            orderID,
			"updateTime":         stamp.Format("2006-01-02 15:04:05"),
			"tradingSymbol":      symbol,
			"transactionType":    side,
			"filledQty":          quantity,
			"averageTradedPrice": price,
			"orderStatus":        "TRADED",
		}
	default: // fyers
		numericSide := "1"
		if side == types.SideSell {
			numericSide = "-1"
		}
		return map[string]interface{}{
			"id":            orderID,
			"orderDateTime": stamp.Format("02-Jan-2006 15:04:05"),
			"symbol":        symbol,
			"side":          numericSide,
			"filledQty":     quantity,
			"tradedPrice":   price,
			"status":        "2",
		}
	}
}

// buildBatch generates a plausible intraday order stream for one symbol:
// an opening fill, optional add-on fills, and a closing fill that sometimes
// over-closes into a reversal or leaves part of the position open.
func buildBatch(brokerName string) []map[string]interface{} {
	symbol := symbols[rand.Intn(len(symbols))]
	base := float64(rand.Intn(2000) + 300)
	quantity := (rand.Intn(20) + 1) * 5

	day := time.Now().AddDate(0, 0, -rand.Intn(20))
	open := time.Date(day.Year(), day.Month(), day.Day(), 9, 15, 0, 0, broker.IST)
	cursor := open.Add(time.Duration(rand.Intn(300)) * time.Minute)

	entrySide, exitSide := types.SideBuy, types.SideSell
	if rand.Intn(4) == 0 {
		entrySide, exitSide = types.SideSell, types.SideBuy
	}

	var records []map[string]interface{}
	addFill := func(side string, qty int, price float64) {
		records = append(records, rawRecord(
			brokerName,
			uuid.New().String(),
			symbol,
			side,
			qty,
			price,
			cursor,
		))
		cursor = cursor.Add(time.Duration(rand.Intn(45)+1) * time.Minute)
	}

	addFill(entrySide, quantity, base)

	// Occasional add-on fill at a drifted price
	if rand.Intn(3) == 0 {
		addFill(entrySide, quantity/2, base*(1+(rand.Float64()-0.5)*0.02))
	}

	exitQty := quantity
	switch rand.Intn(4) {
	case 0:
		exitQty = quantity / 2 // partial close, leaves an open position
	case 1:
		exitQty = quantity * 2 // over-close, reverses direction
	}
	addFill(exitSide, exitQty, base*(1+(rand.Float64()-0.5)*0.04))

	// A malformed record now and then, to exercise skip counting
	if rand.Intn(5) == 0 {
		records = append(records, rawRecord(brokerName, uuid.New().String(), symbol, entrySide, 0, -1, cursor))
	}

	return records
}

// main runs the journal simulation
// It starts a local API server and simulates concurrent broker imports
// followed by trade and analytics reads
func main() {
	go func() {
		if err := startServer(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for server to start
	time.Sleep(2 * time.Second)

	simClient, err := newSimulationClient()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize simulation client")
	}

	// Create journal entries for imported batches to reference
	var journalIDs []string
	for i := 0; i < 6; i++ {
		entryID, err := simClient.createJournalEntry()
		if err != nil {
			log.Error().Err(err).Msg("Failed to create journal entry")
			continue
		}
		journalIDs = append(journalIDs, entryID)
		log.Info().Str("entry_id", entryID).Msg("Journal entry created")
	}

	targetBatches := rand.Intn(maxBatches-minBatches) + minBatches
	log.Info().Int("target_batches", targetBatches).Msg("Starting simulation")

	stats := struct {
		Batches    int
		Received   int
		Accepted   int
		Skipped    int
		Duplicates int
		StartTime  time.Time
		Brokers    map[string]int
	}{
		StartTime: time.Now(),
		Brokers:   make(map[string]int),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for j := 0; j < targetBatches/numWorkers; j++ {
				brokerName := brokers[rand.Intn(len(brokers))]
				journalID := ""
				if len(journalIDs) > 0 {
					journalID = journalIDs[rand.Intn(len(journalIDs))]
				}

				batch, err := simClient.importBatch(brokerName, buildBatch(brokerName), journalID)
				if err != nil {
					log.Error().Err(err).
						Int("worker_id", workerID).
						Str("broker", brokerName).
						Msg("Failed to import batch")
					continue
				}

				mu.Lock()
				stats.Batches++
				stats.Received += batch.Received
				stats.Accepted += batch.Accepted
				stats.Skipped += batch.Skipped
				stats.Duplicates += batch.Duplicates
				stats.Brokers[brokerName] += batch.Accepted
				mu.Unlock()

				log.Info().
					Int("worker_id", workerID).
					Str("batch_id", batch.BatchID).
					Str("broker", brokerName).
					Int("accepted", batch.Accepted).
					Int("skipped", batch.Skipped).
					Msg("Batch imported")

				time.Sleep(time.Duration(rand.Intn(300)) * time.Millisecond)
			}
		}(i)
	}
	wg.Wait()

	orders, err := simClient.listOrders()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list orders")
	}

	weightedTrades, err := simClient.listTrades("weighted")
	if err != nil {
		log.Error().Err(err).Msg("Failed to list weighted trades")
	}
	fifoTrades, err := simClient.listTrades("fifo")
	if err != nil {
		log.Error().Err(err).Msg("Failed to list fifo trades")
	}

	reports := make(map[string]*analytics.Report)
	for _, key := range groupKeys {
		report, err := simClient.getAnalytics(key)
		if err != nil {
			log.Error().Err(err).Str("group_by", key).Msg("Failed to fetch analytics")
			continue
		}
		reports[key] = report
	}

	duration := time.Since(stats.StartTime)
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("TRADE JOURNAL SIMULATION SUMMARY")
	fmt.Println(strings.Repeat("=", 80))

	fmt.Printf(`
Import Statistics
-----------------
Batches:          %d
Records Received: %d
Accepted:         %d
Skipped:          %d
Duplicates:       %d
Stored Orders:    %d
Weighted Trades:  %d
FIFO Trades:      %d
Duration:         %v

Broker Distribution
-------------------
`, stats.Batches, stats.Received, stats.Accepted, stats.Skipped, stats.Duplicates,
		len(orders), len(weightedTrades), len(fifoTrades), duration.Round(time.Millisecond))

	maxBrokerCount := 0
	for _, count := range stats.Brokers {
		if count > maxBrokerCount {
			maxBrokerCount = count
		}
	}
	for brokerName, count := range stats.Brokers {
		barLength := 0
		if maxBrokerCount > 0 {
			barLength = int(float64(count) / float64(maxBrokerCount) * 20)
		}
		fmt.Printf("%-10s: %s (%d)\n", brokerName, strings.Repeat("#", barLength), count)
	}

	for _, key := range groupKeys {
		report, ok := reports[key]
		if !ok {
			continue
		}
		fmt.Printf("\nAnalytics by %s\n", key)
		fmt.Println(strings.Repeat("-", 72))
		fmt.Printf("%-28s %8s %8s %10s %10s\n", "Group", "Trades", "Wins", "Win Rate", "Total P&L")
		for _, group := range report.Groups {
			fmt.Printf("%-28s %8d %8d %9.1f%% %10.2f\n",
				group.Label, group.TotalTrades, group.WinCount, group.WinRate, group.TotalPnL)
		}
		fmt.Printf("Portfolio: %d trades, win rate %.1f%%, P&L %.2f, profit factor %.2f\n",
			report.Portfolio.TotalTrades, report.Portfolio.WinRate,
			report.Portfolio.TotalPnL, report.Portfolio.ProfitFactor)
	}

	fmt.Println("\n" + strings.Repeat("=", 80))

	log.Info().
		Int("batches", stats.Batches).
		Int("orders", len(orders)).
		Int("weighted_trades", len(weightedTrades)).
		Int("fifo_trades", len(fifoTrades)).
		Dur("duration", duration).
		Msg("Simulation completed")

	simClient.printPerformanceStats()
}

// startServer initializes and starts the journal API server
// Sets up all required services, handlers and routes
func startServer() error {
	db, err := database.NewDatabase()
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "journal-secret-key"
	}

	authService := auth.NewService(jwtSecret)
	importService := imports.NewService(db)
	journalService := journal.NewService(db)
	analyticsService := analytics.NewService(db)

	// Register test credentials
	authService.RegisterAPICredentials(auth.TestAPIKey, auth.TestAPISecret)

	router := gin.Default()
	authHandlers := auth.NewGinHandlers(authService)
	importHandlers := imports.NewGinHandlers(importService)
	journalHandlers := journal.NewGinHandlers(journalService)
	analyticsHandlers := analytics.NewGinHandlers(analyticsService)

	setupRoutes(router, jwtSecret, authHandlers, importHandlers, journalHandlers, analyticsHandlers)

	return router.Run(":8080")
}

// setupRoutes configures all API endpoints and their handlers
// Groups routes by functionality and applies appropriate middleware
func setupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authHandlers *auth.GinHandlers,
	importHandlers *imports.GinHandlers,
	journalHandlers *journal.GinHandlers,
	analyticsHandlers *analytics.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/token", authHandlers.GenerateTokenHandler())
		}

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(jwtSecret))
		{
			protected.POST("/imports/:broker", importHandlers.ImportOrdersHandler())
			protected.GET("/orders", importHandlers.GetOrdersHandler())
			protected.POST("/journal", journalHandlers.CreateEntryHandler())
			protected.GET("/journal/:entry_id", journalHandlers.GetEntryHandler())
			protected.GET("/trades", analyticsHandlers.GetTradesHandler())
			protected.GET("/analytics", analyticsHandlers.GetAnalyticsHandler())
		}
	}
}
